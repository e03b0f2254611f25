package betpools

import (
	"context"
	"strings"

	"guildcogs/bot/common"
	"guildcogs/bot/prompt"
	"guildcogs/config"
	"guildcogs/events"
	"guildcogs/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Feature represents the bet pool feature
type Feature struct {
	session  *discordgo.Session
	cfg      *config.Config
	pools    service.BetPoolService
	waiter   *prompt.Waiter
	reporter *common.ErrorReporter
	refresh  *refresher
}

// NewFeature creates a new bet pool feature and subscribes it to pool events
func NewFeature(session *discordgo.Session, cfg *config.Config, pools service.BetPoolService, waiter *prompt.Waiter, reporter *common.ErrorReporter, bus *events.Bus) *Feature {
	f := &Feature{
		session:  session,
		cfg:      cfg,
		pools:    pools,
		waiter:   waiter,
		reporter: reporter,
		refresh:  newRefresher(),
	}

	bus.Subscribe(events.EventTypeBetPoolStateChange, f.onPoolEvent)
	bus.Subscribe(events.EventTypeBetPoolWagerPlaced, f.onPoolEvent)
	return f
}

// HandleCommand handles the /betpool command and its subcommands
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sub, opts := common.Subcommand(i)
	switch sub {
	case "create":
		f.handleCreate(s, i, opts)
	case "details":
		f.handleDetails(s, i, opts)
	case "options":
		f.handleOptions(s, i, opts)
	case "minimum":
		f.handleMinimum(s, i, opts)
	case "toggle":
		f.handleToggle(s, i, opts)
	case "adjust":
		f.handleAdjust(s, i, opts)
	case "resolve":
		f.handleResolve(s, i, opts)
	case "cancel":
		f.handleCancel(s, i, opts)
	case "show":
		f.handleShow(s, i, opts)
	case "list":
		f.handleList(s, i)
	default:
		common.RespondWithError(s, i, "Unknown subcommand.")
	}
}

// HandleInteraction handles bet buttons and the amount modal
func (f *Feature) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionMessageComponent:
		if strings.HasPrefix(i.MessageComponentData().CustomID, betButtonPrefix) {
			f.handleBetButton(s, i)
		}
	case discordgo.InteractionModalSubmit:
		if strings.HasPrefix(i.ModalSubmitData().CustomID, betModalPrefix) {
			f.handleBetModal(s, i)
		}
	default:
		log.Warnf("Unknown interaction type in betpools: %v", i.Type)
	}
}

// onPoolEvent re-renders the pool message after a wager or state change
func (f *Feature) onPoolEvent(ctx context.Context, event events.Event) {
	var guildID, poolID int64
	switch e := event.(type) {
	case events.BetPoolStateChangeEvent:
		guildID, poolID = e.GuildID, e.PoolID
	case events.BetPoolWagerPlacedEvent:
		guildID, poolID = e.GuildID, e.PoolID
	default:
		return
	}
	f.refreshPool(ctx, guildID, poolID)
}

// refreshPool reloads the pool and re-renders its message, one refresh per pool at a time
func (f *Feature) refreshPool(ctx context.Context, guildID, poolID int64) {
	f.refresh.Trigger(poolKey{guildID: guildID, poolID: poolID}, func() {
		detail, err := f.pools.GetPool(ctx, guildID, poolID)
		if err != nil {
			log.WithError(err).WithField("poolID", poolID).Error("Failed to load pool for message refresh")
			return
		}
		f.renderMessage(detail)
	})
}
