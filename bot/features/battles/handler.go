package battles

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"guildcogs/bot/common"
	"guildcogs/models"
	"guildcogs/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

type commandOptions = map[string]*discordgo.ApplicationCommandInteractionDataOption

// handleReport creates a record against the opponent and posts it publicly
func (f *Feature) handleReport(s *discordgo.Session, i *discordgo.InteractionCreate, opts commandOptions) {
	ctx := context.Background()

	guildID, userID, err := common.InteractionIDs(i)
	if err != nil {
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}
	opponentID := common.UserOption(opts, "opponent")
	if opponentID == 0 {
		common.RespondWithError(s, i, "Please choose your opponent.")
		return
	}

	record, err := f.battles.Report(ctx, guildID, userID, opponentID)
	if err != nil {
		f.reporter.Respond(s, i, err, "Unable to report the battle.")
		return
	}
	view, err := f.battles.GetView(ctx, guildID, record.ID)
	if err != nil {
		f.reporter.Respond(s, i, err, "Battle reported, but it could not be shown.")
		return
	}

	embed, components := f.render(s, i.GuildID, view)
	data := &discordgo.InteractionResponseData{
		Content:         fmt.Sprintf("%s reported a battle against %s", common.Mention(userID), common.Mention(opponentID)),
		Embeds:          []*discordgo.MessageEmbed{embed},
		Components:      components,
		AllowedMentions: &discordgo.MessageAllowedMentions{Users: []string{common.FormatID(opponentID)}},
	}
	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		log.WithError(err).Error("Error posting battle record")
		return
	}

	msg, err := s.InteractionResponse(i.Interaction)
	if err != nil {
		log.WithError(err).WithField("recordID", record.ID).Error("Failed to fetch battle record message")
		return
	}
	messageID, _ := common.ParseID(msg.ID)
	channelID, _ := common.ParseID(msg.ChannelID)
	if err := f.battles.AttachMessage(ctx, guildID, record.ID, messageID, channelID); err != nil {
		log.WithError(err).WithField("recordID", record.ID).Error("Failed to attach battle record message")
	}
}

// handleRecordAction applies one control of a record message and re-renders it
func (f *Feature) handleRecordAction(s *discordgo.Session, i *discordgo.InteractionCreate, action, recordID, arg string) {
	ctx := context.Background()

	guildID, actor, err := common.ActorFromInteraction(f.cfg, i)
	if err != nil {
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	switch action {
	case actionCharacters, actionGames:
		f.showRecordModal(ctx, s, i, guildID, recordID, action)
		return
	case actionCancel:
		result, err := f.battles.Cancel(ctx, guildID, recordID, actor)
		if err != nil {
			f.reporter.Respond(s, i, err, "Unable to cancel the battle record.")
			return
		}
		if result.Deleted {
			common.ReplacePrompt(s, i, fmt.Sprintf("🗑️ Battle record removed by %s.", common.Mention(actor.ID)))
			return
		}
	case actionWinner:
		_, err = f.battles.SetWinner(ctx, guildID, recordID, actor, arg)
	case actionVerify:
		_, err = f.battles.Verify(ctx, guildID, recordID, actor)
	case actionCharacters + modalSuffix:
		values := common.ModalValues(i.ModalSubmitData())
		_, err = f.battles.SetCharacters(ctx, guildID, recordID, actor, values["player1"], values["player2"])
	case actionGames + modalSuffix:
		values := common.ModalValues(i.ModalSubmitData())
		p1, p2, parseErr := parseGames(values["player1"], values["player2"])
		if parseErr != nil {
			f.reporter.Respond(s, i, parseErr, "Invalid score.")
			return
		}
		_, err = f.battles.SetGamesWon(ctx, guildID, recordID, actor, p1, p2)
	default:
		common.RespondWithError(s, i, "This control is no longer valid.")
		return
	}
	if err != nil {
		f.reporter.Respond(s, i, err, "Unable to update the battle record.")
		return
	}

	view, err := f.battles.GetView(ctx, guildID, recordID)
	if err != nil {
		f.reporter.Respond(s, i, err, "Unable to load the battle record.")
		return
	}
	embed, components := f.render(s, i.GuildID, view)
	if err := common.UpdateComponentMessage(s, i, embed, components); err != nil {
		log.WithError(err).WithField("recordID", recordID).Warn("Failed to refresh battle record message")
	}
}

func (f *Feature) showRecordModal(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, guildID int64, recordID, action string) {
	view, err := f.battles.GetView(ctx, guildID, recordID)
	if err != nil {
		f.reporter.Respond(s, i, err, "Unable to load the battle record.")
		return
	}
	if view.Record.IsLocked() {
		common.RespondWithError(s, i, "This battle record is verified and can no longer change.")
		return
	}

	p1, p2 := f.playerNames(s, i.GuildID, view)
	modal := charactersModal(view.Record, p1, p2)
	if action == actionGames {
		modal = gamesModal(view.Record, p1, p2)
	}
	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: modal,
	})
	if err != nil {
		log.WithError(err).Error("Error showing battle record modal")
	}
}

func parseGames(player1, player2 string) (int, int, error) {
	p1, err1 := strconv.Atoi(strings.TrimSpace(player1))
	p2, err2 := strconv.Atoi(strings.TrimSpace(player2))
	if err1 != nil || err2 != nil {
		return 0, 0, service.NewValidationError("games won must be whole numbers")
	}
	return p1, p2, nil
}

func (f *Feature) playerNames(s *discordgo.Session, guildID string, view *service.BattleRecordView) (string, string) {
	return common.GetDisplayNameInt64(s, guildID, view.Player1.MemberID),
		common.GetDisplayNameInt64(s, guildID, view.Player2.MemberID)
}

func (f *Feature) render(s *discordgo.Session, guildID string, view *service.BattleRecordView) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	p1, p2 := f.playerNames(s, guildID, view)
	return recordEmbed(view, p1, p2), recordComponents(view, p1, p2)
}

func (f *Feature) handleScoreboard(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, err := common.ParseID(i.GuildID)
	if err != nil {
		common.RespondWithError(s, i, "This command only works in a server.")
		return
	}

	sub, opts := common.Subcommand(i)
	period := models.PeriodThisMonth
	if opt, ok := opts["period"]; ok {
		period = models.ScoreboardPeriod(opt.StringValue())
	}

	var embed *discordgo.MessageEmbed
	switch sub {
	case "clans":
		standings, err := f.scoreboard.ClanStandings(ctx, guildID, period)
		if err != nil {
			f.reporter.Respond(s, i, err, "Unable to load the scoreboard.")
			return
		}
		embed = clanStandingsEmbed(period, standings)
	case "members":
		standings, err := f.scoreboard.MemberStandings(ctx, guildID, period)
		if err != nil {
			f.reporter.Respond(s, i, err, "Unable to load the scoreboard.")
			return
		}
		embed = memberStandingsEmbed(period, standings, f.clanNames(ctx, guildID))
	default:
		common.RespondWithError(s, i, "Unknown subcommand.")
		return
	}

	if err := common.RespondWithEmbed(s, i, embed, nil, false); err != nil {
		log.WithError(err).Error("Error showing scoreboard")
	}
}

func (f *Feature) handleProfile(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, userID, err := common.InteractionIDs(i)
	if err != nil {
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}
	_, opts := common.Subcommand(i)
	if other := common.UserOption(opts, "user"); other != 0 {
		userID = other
	}

	profile, err := f.scoreboard.MemberProfile(ctx, guildID, userID)
	if err != nil {
		f.reporter.Respond(s, i, err, "Unable to load the profile.")
		return
	}

	embed := profileEmbed(common.GetDisplayNameInt64(s, i.GuildID, userID), profile, f.clanNames(ctx, guildID))
	if err := common.RespondWithEmbed(s, i, embed, nil, false); err != nil {
		log.WithError(err).Error("Error showing profile")
	}
}

func (f *Feature) handleAward(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, actor, err := common.ActorFromInteraction(f.cfg, i)
	if err != nil {
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	_, opts := common.Subcommand(i)
	memberID := common.UserOption(opts, "user")
	var points int64
	if opt, ok := opts["points"]; ok {
		points = opt.IntValue()
	}
	reason := ""
	if opt, ok := opts["reason"]; ok {
		reason = opt.StringValue()
	}

	award, err := f.battles.AwardPoints(ctx, guildID, actor, memberID, points, reason)
	if err != nil {
		f.reporter.Respond(s, i, err, "Unable to award points.")
		return
	}

	message := fmt.Sprintf("%s received %s points.", common.Mention(memberID), common.FormatBalance(award.Points))
	if award.Reason != "" {
		message += " Reason: " + award.Reason
	}
	if err := common.RespondWithSuccess(s, i, message, false); err != nil {
		log.WithError(err).Error("Error responding to award command")
	}
}

// clanNames maps clan ids to names for display. Failures only cost the names.
func (f *Feature) clanNames(ctx context.Context, guildID int64) map[string]string {
	names := make(map[string]string)
	clans, err := f.clans.ListClans(ctx, guildID)
	if err != nil {
		log.WithError(err).WithField("guildID", guildID).Warn("Failed to load clan names")
		return names
	}
	for _, clan := range clans {
		names[clan.ID] = clan.Name
	}
	return names
}
