package battles

import (
	"context"
	"fmt"
	"strings"

	"guildcogs/bot/common"
	"guildcogs/config"
	"guildcogs/events"
	"guildcogs/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Feature serves battle records, scoreboards, profiles and point awards
type Feature struct {
	session    *discordgo.Session
	cfg        *config.Config
	battles    service.BattleRecordService
	scoreboard service.ScoreboardService
	clans      service.ClanService
	reporter   *common.ErrorReporter
}

// NewFeature creates the battle feature and subscribes it to locked records
func NewFeature(session *discordgo.Session, cfg *config.Config, battles service.BattleRecordService, scoreboard service.ScoreboardService, clans service.ClanService, reporter *common.ErrorReporter, bus *events.Bus) *Feature {
	f := &Feature{
		session:    session,
		cfg:        cfg,
		battles:    battles,
		scoreboard: scoreboard,
		clans:      clans,
		reporter:   reporter,
	}
	bus.Subscribe(events.EventTypeBattleRecordLocked, f.onRecordLocked)
	return f
}

// HandleCommand routes /battle, /scoreboard, /profile and /award
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.ApplicationCommandData().Name {
	case "battle":
		sub, opts := common.Subcommand(i)
		if sub != "report" {
			common.RespondWithError(s, i, "Unknown subcommand.")
			return
		}
		f.handleReport(s, i, opts)
	case "scoreboard":
		f.handleScoreboard(s, i)
	case "profile":
		f.handleProfile(s, i)
	case "award":
		f.handleAward(s, i)
	default:
		common.RespondWithError(s, i, "Unknown command.")
	}
}

// HandleInteraction handles the buttons and modals of battle record messages
func (f *Feature) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var customID string
	switch i.Type {
	case discordgo.InteractionMessageComponent:
		customID = i.MessageComponentData().CustomID
	case discordgo.InteractionModalSubmit:
		customID = i.ModalSubmitData().CustomID
	default:
		log.Warnf("Unknown interaction type in battles: %v", i.Type)
		return
	}

	action, recordID, arg, err := parseRecordID(customID)
	if err != nil {
		log.WithError(err).Warn("Malformed battle record component")
		common.RespondWithError(s, i, "This control is no longer valid.")
		return
	}
	f.handleRecordAction(s, i, action, recordID, arg)
}

// onRecordLocked announces a verified result in the record's channel
func (f *Feature) onRecordLocked(ctx context.Context, event events.Event) {
	e, ok := event.(events.BattleRecordLockedEvent)
	if !ok || e.ChannelID == 0 {
		return
	}

	view, err := f.battles.GetView(ctx, e.GuildID, e.RecordID)
	if err != nil {
		log.WithError(err).WithField("recordID", e.RecordID).Error("Failed to load locked battle record")
		return
	}
	loser := view.Record.LoserID()
	if loser == nil {
		return
	}

	content := fmt.Sprintf("🏆 %s defeated %s", common.Mention(view.MemberOf(e.WinnerID)), common.Mention(view.MemberOf(*loser)))
	if score := scoreLine(view.Record); score != "" {
		content += " " + strings.TrimSpace(score)
	}
	_, err = f.session.ChannelMessageSendComplex(common.FormatID(e.ChannelID), &discordgo.MessageSend{
		Content:         content + "!",
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	})
	if err != nil {
		log.WithError(err).WithField("recordID", e.RecordID).Warn("Failed to announce battle result")
	}
}
