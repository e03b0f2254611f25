package clans

import (
	"strings"

	"guildcogs/bot/common"
	"guildcogs/bot/prompt"
	"guildcogs/config"
	"guildcogs/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Feature represents the clan roster feature
type Feature struct {
	session   *discordgo.Session
	cfg       *config.Config
	clans     service.ClanService
	presenter *ApprovalPresenter
	waiter    *prompt.Waiter
	reporter  *common.ErrorReporter
}

// NewFeature creates a new clan feature instance
func NewFeature(session *discordgo.Session, cfg *config.Config, clans service.ClanService, presenter *ApprovalPresenter, waiter *prompt.Waiter, reporter *common.ErrorReporter) *Feature {
	return &Feature{
		session:   session,
		cfg:       cfg,
		clans:     clans,
		presenter: presenter,
		waiter:    waiter,
		reporter:  reporter,
	}
}

// HandleCommand handles the /clan command and its subcommands
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sub, opts := common.Subcommand(i)
	switch sub {
	case "create":
		f.handleCreate(s, i)
	case "edit":
		f.handleEdit(s, i, opts)
	case "info":
		f.handleInfo(s, i, opts)
	case "list":
		f.handleList(s, i)
	case "pending":
		f.handlePending(s, i)
	default:
		common.RespondWithError(s, i, "Unknown subcommand.")
	}
}

// HandleInteraction handles the approve and reject buttons of approval messages
func (f *Feature) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		log.Warnf("Unknown interaction type in clans: %v", i.Type)
		return
	}

	customID := i.MessageComponentData().CustomID
	var approve bool
	var prefix string
	switch {
	case strings.HasPrefix(customID, approveButtonPrefix):
		approve, prefix = true, approveButtonPrefix
	case strings.HasPrefix(customID, rejectButtonPrefix):
		prefix = rejectButtonPrefix
	default:
		return
	}

	clanID, version, err := parseApprovalID(customID, prefix)
	if err != nil {
		log.WithError(err).Warn("Ignoring approval button")
		common.RespondWithError(s, i, "This approval message is outdated.")
		return
	}
	if approve {
		f.handleApprove(s, i, clanID, version)
	} else {
		f.handleReject(s, i, clanID, version)
	}
}
