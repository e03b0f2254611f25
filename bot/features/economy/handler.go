package economy

import (
	"context"
	"fmt"
	"strings"

	"guildcogs/bot/common"
	"guildcogs/models"
	"guildcogs/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const (
	leaderboardSize = 10
	historySize     = 5
)

func (f *Feature) handleBalance(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, userID, err := common.InteractionIDs(i)
	if err != nil {
		log.WithError(err).Error("Failed to parse balance interaction")
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	_, opts := common.Subcommand(i)
	target := userID
	if other := common.UserOption(opts, "user"); other != 0 {
		target = other
	}

	balance, err := f.ledger.GetBalance(ctx, guildID, target)
	if err != nil {
		f.reporter.Respond(s, i, err, "Unable to retrieve balance. Please try again.")
		return
	}

	var history []*models.BalanceHistory
	if target == userID {
		history, err = f.ledger.History(ctx, guildID, target, historySize)
		if err != nil {
			log.WithError(err).WithField("userID", target).Warn("Failed to load balance history")
		}
	}

	displayName := common.GetDisplayNameInt64(s, i.GuildID, target)
	embed := balanceEmbed(displayName, balance, history)
	if err := common.RespondWithEmbed(s, i, embed, nil, target == userID); err != nil {
		log.WithError(err).Error("Error responding to balance command")
	}
}

func (f *Feature) handleLeaderboard(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, err := common.ParseID(i.GuildID)
	if err != nil {
		common.RespondWithError(s, i, "This command only works in a server.")
		return
	}

	entries, err := f.ledger.Leaderboard(ctx, guildID, leaderboardSize)
	if err != nil {
		f.reporter.Respond(s, i, err, "Unable to load the leaderboard. Please try again.")
		return
	}

	if err := common.RespondWithEmbed(s, i, leaderboardEmbed(entries), nil, false); err != nil {
		log.WithError(err).Error("Error responding to leaderboard command")
	}
}

// handleBank applies a moderator balance adjustment
func (f *Feature) handleBank(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, actor, err := common.ActorFromInteraction(f.cfg, i)
	if err != nil {
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}
	if !actor.Moderator {
		common.RespondWithError(s, i, "Only moderators can adjust balances.")
		return
	}

	sub, opts := common.Subcommand(i)
	target := common.UserOption(opts, "user")
	amountOpt, ok := opts["amount"]
	if target == 0 || !ok {
		common.RespondWithError(s, i, "Please provide a user and an amount.")
		return
	}
	amount := amountOpt.IntValue()

	var balance int64
	switch sub {
	case "add":
		balance, err = f.ledger.AddBalance(ctx, guildID, target, amount)
	case "remove":
		balance, err = f.ledger.RemoveBalance(ctx, guildID, target, amount)
	case "set":
		balance, err = f.ledger.SetBalance(ctx, guildID, target, amount)
	default:
		common.RespondWithError(s, i, "Unknown subcommand.")
		return
	}
	if err != nil {
		f.reporter.Respond(s, i, err, "Unable to adjust the balance. Please try again.")
		return
	}

	log.WithFields(log.Fields{
		"guildID":   guildID,
		"moderator": actor.ID,
		"target":    target,
		"operation": sub,
		"amount":    amount,
		"balance":   balance,
	}).Info("Balance adjusted by moderator")

	message := fmt.Sprintf("%s now has **%s coins**.", common.Mention(target), common.FormatBalance(balance))
	if err := common.RespondWithSuccess(s, i, message, false); err != nil {
		log.WithError(err).Error("Error responding to bank command")
	}
}

func (f *Feature) handleSettings(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, actor, err := common.ActorFromInteraction(f.cfg, i)
	if err != nil {
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	sub, opts := common.Subcommand(i)
	var settings *models.LedgerSettings
	switch sub {
	case "view":
		settings, err = f.ledger.GetSettings(ctx, guildID)
	case "set":
		name, value := optionString(opts, "setting"), optionString(opts, "value")
		update, parseErr := parseSetting(name, value)
		if parseErr != nil {
			f.reporter.Respond(s, i, parseErr, "Invalid setting.")
			return
		}
		settings, err = f.ledger.UpdateSettings(ctx, guildID, actor, update)
		if err == nil {
			log.WithFields(log.Fields{
				"guildID":   guildID,
				"moderator": actor.ID,
				"setting":   name,
			}).Info("Economy setting changed")
		}
	default:
		common.RespondWithError(s, i, "Unknown subcommand.")
		return
	}
	if err != nil {
		f.reporter.Respond(s, i, err, "Unable to load economy settings. Please try again.")
		return
	}

	if err := common.RespondWithEmbed(s, i, settingsEmbed(settings), nil, true); err != nil {
		log.WithError(err).Error("Error responding to economy command")
	}
}

// HandleMessage awards passive income for guild messages from humans
func (f *Feature) HandleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.GuildID == "" || m.Author == nil || m.Author.Bot {
		return
	}

	guildID, err := common.ParseID(m.GuildID)
	if err != nil {
		return
	}
	userID, err := common.ParseID(m.Author.ID)
	if err != nil {
		return
	}

	award, err := f.passive.ProcessMessage(context.Background(), guildID, userID)
	if err != nil {
		if service.IsInvariantError(err) {
			f.reporter.ReportInvariant(m.GuildID, err)
			return
		}
		log.WithError(err).WithFields(log.Fields{
			"guildID": guildID,
			"userID":  userID,
		}).Error("Failed to process passive income")
		return
	}
	if award == nil || strings.TrimSpace(award.Response) == "" {
		return
	}

	if _, err := s.ChannelMessageSendReply(m.ChannelID, award.Response, m.Reference()); err != nil {
		log.WithError(err).Warn("Failed to post passive income response")
	}
}

func optionString(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if opt, ok := opts[name]; ok {
		return strings.TrimSpace(opt.StringValue())
	}
	return ""
}
