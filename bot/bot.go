package bot

import (
	"context"
	"fmt"
	"strings"

	"guildcogs/bot/common"
	"guildcogs/bot/features/announcements"
	"guildcogs/bot/features/battles"
	"guildcogs/bot/features/betpools"
	"guildcogs/bot/features/clans"
	"guildcogs/bot/features/economy"
	"guildcogs/bot/prompt"
	"guildcogs/config"
	"guildcogs/events"
	"guildcogs/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Services are the domain services the bot exposes
type Services struct {
	Ledger        service.LedgerService
	PassiveIncome service.PassiveIncomeService
	BetPools      service.BetPoolService
	Clans         service.ClanService
	Battles       service.BattleRecordService
	Scoreboard    service.ScoreboardService
	Announcements service.AnnouncementService
}

type commandHandler interface {
	HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate)
}

type Bot struct {
	config  *config.Config
	session *discordgo.Session
	waiter  *prompt.Waiter

	economy       *economy.Feature
	betPools      *betpools.Feature
	clans         *clans.Feature
	battles       *battles.Feature
	announcements *announcements.Feature

	commands map[string]commandHandler
}

// New wires every feature onto session. The session is opened by Open.
func New(cfg *config.Config, session *discordgo.Session, services Services, presenter *clans.ApprovalPresenter, eventBus *events.Bus) *Bot {
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers

	waiter := prompt.NewWaiter(cfg.PromptTimeout)
	reporter := common.NewErrorReporter(session, cfg.OperatorChannelID)

	b := &Bot{
		config:        cfg,
		session:       session,
		waiter:        waiter,
		economy:       economy.New(cfg, services.Ledger, services.PassiveIncome, reporter),
		betPools:      betpools.NewFeature(session, cfg, services.BetPools, waiter, reporter, eventBus),
		clans:         clans.NewFeature(session, cfg, services.Clans, presenter, waiter, reporter),
		battles:       battles.NewFeature(session, cfg, services.Battles, services.Scoreboard, services.Clans, reporter, eventBus),
		announcements: announcements.New(cfg, services.Announcements, reporter),
	}

	b.commands = map[string]commandHandler{
		"balance":     b.economy,
		"leaderboard": b.economy,
		"bank":        b.economy,
		"economy":     b.economy,
		"betpool":     b.betPools,
		"clan":        b.clans,
		"battle":      b.battles,
		"scoreboard":  b.battles,
		"profile":     b.battles,
		"award":       b.battles,
		"announce":    b.announcements,
	}

	session.AddHandler(b.handleReady)
	session.AddHandler(b.handleInteraction)
	session.AddHandler(b.economy.HandleMessage)
	session.AddHandler(b.clans.HandleMessageDelete)

	eventBus.Subscribe(events.EventTypeClanApproved, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.ClanApprovedEvent); ok {
			log.WithFields(log.Fields{
				"guildID":     e.GuildID,
				"clanID":      e.ClanID,
				"approvedBy":  e.ApprovedBy,
				"deactivated": e.DeactivatedClanIDs,
			}).Debug("Clan approval event")
		}
	})
	return b
}

// Open connects to the gateway and registers slash commands
func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}
	if err := b.registerCommands(); err != nil {
		b.session.Close()
		return fmt.Errorf("error registering commands: %w", err)
	}
	return nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

// handleReady restores approval messages that disappeared while the bot was offline
func (b *Bot) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	log.WithFields(log.Fields{
		"user":   r.User.Username,
		"guilds": len(r.Guilds),
	}).Info("Connected to Discord")

	for _, guild := range r.Guilds {
		guildID, err := common.ParseID(guild.ID)
		if err != nil {
			continue
		}
		go b.clans.RepostMissingApprovals(context.Background(), guildID)
	}
}

func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" {
		if i.Type == discordgo.InteractionApplicationCommand {
			common.RespondWithError(s, i, "This bot only works in a server.")
		}
		return
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		name := i.ApplicationCommandData().Name
		handler, ok := b.commands[name]
		if !ok {
			log.Warnf("Unknown command: %s", name)
			return
		}
		handler.HandleCommand(s, i)

	case discordgo.InteractionMessageComponent, discordgo.InteractionModalSubmit:
		customID := prompt.CustomID(i)
		switch {
		case strings.HasPrefix(customID, prompt.Prefix):
			b.waiter.Handle(s, i)
		case strings.HasPrefix(customID, "betpool_"):
			b.betPools.HandleInteraction(s, i)
		case strings.HasPrefix(customID, "clan_"):
			b.clans.HandleInteraction(s, i)
		case strings.HasPrefix(customID, "battle:"):
			b.battles.HandleInteraction(s, i)
		default:
			log.Warnf("Unhandled component: %s", customID)
		}
	}
}
