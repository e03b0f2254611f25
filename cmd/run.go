package cmd

import (
	"context"
	"fmt"
	"time"

	"guildcogs/bot"
	"guildcogs/bot/features/announcements"
	"guildcogs/bot/features/clans"
	"guildcogs/config"
	"guildcogs/database"
	"guildcogs/events"
	"guildcogs/repository"
	"guildcogs/scheduler"
	"guildcogs/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warnf("Unknown log level %q, using info", cfg.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if cfg.IsProduction() {
		log.SetFormatter(&log.JSONFormatter{})
	}

	log.Info("Starting guildcogs bot...")

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create Discord session: %w", err)
	}

	roles := bot.NewRoleManager(session)
	poster := announcements.NewPoster(session)
	presenter := clans.NewApprovalPresenter(session)
	jobs := scheduler.New(cfg.Location())

	services := bot.Services{
		Ledger:        service.NewLedgerService(uowFactory, cfg),
		PassiveIncome: service.NewPassiveIncomeService(uowFactory, cfg),
		BetPools:      service.NewBetPoolService(uowFactory, cfg),
		Clans:         service.NewClanService(uowFactory, cfg, presenter, roles),
		Battles:       service.NewBattleRecordService(uowFactory),
		Scoreboard:    service.NewScoreboardService(uowFactory, cfg),
		Announcements: service.NewAnnouncementService(uowFactory, jobs, poster),
	}

	discordBot := bot.New(cfg, session, services, presenter, eventBus)
	if err := discordBot.Open(); err != nil {
		return fmt.Errorf("failed to start Discord bot: %w", err)
	}

	loaded, err := services.Announcements.LoadScheduled(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to load scheduled announcements")
	} else {
		log.WithField("count", loaded).Info("Scheduled announcements loaded")
	}
	jobs.Start()

	log.Infof("Bot is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	log.Info("Shutting down bot...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := jobs.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("Scheduled jobs did not finish before shutdown")
	}
	if err := discordBot.Close(); err != nil {
		log.WithError(err).Error("Error closing Discord bot")
	}

	log.Info("Shutdown completed")
	return nil
}
