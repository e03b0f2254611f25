package betpools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"guildcogs/bot/common"
	"guildcogs/bot/prompt"
	"guildcogs/models"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

type commandOptions = map[string]*discordgo.ApplicationCommandInteractionDataOption

func poolIDOption(opts commandOptions) int64 {
	if opt, ok := opts["id"]; ok {
		return opt.IntValue()
	}
	return 0
}

// handleCreate creates a pool and posts its public message
func (f *Feature) handleCreate(s *discordgo.Session, i *discordgo.InteractionCreate, opts commandOptions) {
	ctx := context.Background()

	guildID, actor, err := common.ActorFromInteraction(f.cfg, i)
	if err != nil {
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	title := ""
	if opt, ok := opts["title"]; ok {
		title = opt.StringValue()
	}

	detail, err := f.pools.CreatePool(ctx, guildID, actor, title)
	if err != nil {
		f.reporter.Respond(s, i, err, "Unable to create the pool. Please try again.")
		return
	}

	if err := common.RespondWithEmbed(s, i, poolEmbed(detail), poolComponents(detail), false); err != nil {
		log.WithError(err).Error("Error posting bet pool message")
		return
	}

	msg, err := s.InteractionResponse(i.Interaction)
	if err != nil {
		log.WithError(err).WithField("poolID", detail.Pool.ID).Error("Failed to fetch bet pool message")
		return
	}
	messageID, _ := common.ParseID(msg.ID)
	channelID, _ := common.ParseID(msg.ChannelID)
	if err := f.pools.AttachMessage(ctx, guildID, detail.Pool.ID, messageID, channelID); err != nil {
		log.WithError(err).WithField("poolID", detail.Pool.ID).Error("Failed to attach bet pool message")
	}

	common.FollowUpWithSuccess(s, i, fmt.Sprintf("Pool #%d created. Add options with `/betpool options`, then open it with `/betpool toggle`.", detail.Pool.ID), true)
}

// handleDetails edits the title and description through a modal
func (f *Feature) handleDetails(s *discordgo.Session, i *discordgo.InteractionCreate, opts commandOptions) {
	ctx := context.Background()

	guildID, actor, err := common.ActorFromInteraction(f.cfg, i)
	if err != nil {
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}
	poolID := poolIDOption(opts)

	detail, err := f.pools.GetPool(ctx, guildID, poolID)
	if err != nil {
		f.reporter.Respond(s, i, err, "Unable to load the pool.")
		return
	}

	flow := f.waiter.Open()
	submit, ok := f.askModal(ctx, s, i, flow, &discordgo.InteractionResponseData{
		CustomID: flow.ID("details"),
		Title:    "Pool details",
		Components: []discordgo.MessageComponent{
			textRow(discordgo.TextInput{CustomID: "title", Label: "Title", Style: discordgo.TextInputShort, Value: detail.Pool.Title, Required: true, MaxLength: 100}),
			textRow(discordgo.TextInput{CustomID: "description", Label: "Description", Style: discordgo.TextInputParagraph, Value: detail.Pool.Description, MaxLength: 1000}),
		},
	})
	if !ok {
		return
	}

	values := common.ModalValues(submit.ModalSubmitData())
	detail, err = f.pools.UpdateDetails(ctx, guildID, poolID, actor, values["title"], values["description"])
	if err != nil {
		f.reporter.Respond(s, submit, err, "Unable to update the pool.")
		return
	}
	go f.refreshPool(ctx, detail.Pool.GuildID, detail.Pool.ID)
	_ = common.RespondWithSuccess(s, submit, "Pool details updated.", true)
}

// handleOptions replaces the pool options, one per line
func (f *Feature) handleOptions(s *discordgo.Session, i *discordgo.InteractionCreate, opts commandOptions) {
	ctx := context.Background()

	guildID, actor, err := common.ActorFromInteraction(f.cfg, i)
	if err != nil {
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}
	poolID := poolIDOption(opts)

	detail, err := f.pools.GetPool(ctx, guildID, poolID)
	if err != nil {
		f.reporter.Respond(s, i, err, "Unable to load the pool.")
		return
	}

	current := make([]string, len(detail.Options))
	for idx, option := range detail.Options {
		current[idx] = option.Name
	}

	flow := f.waiter.Open()
	submit, ok := f.askModal(ctx, s, i, flow, &discordgo.InteractionResponseData{
		CustomID: flow.ID("options"),
		Title:    "Pool options",
		Components: []discordgo.MessageComponent{
			textRow(discordgo.TextInput{
				CustomID:    "options",
				Label:       "Options (one per line)",
				Style:       discordgo.TextInputParagraph,
				Placeholder: "Red team\nBlue team",
				Value:       strings.Join(current, "\n"),
				MaxLength:   4000,
			}),
		},
	})
	if !ok {
		return
	}

	names := splitOptions(common.ModalValues(submit.ModalSubmitData())["options"])
	detail, err = f.pools.SetOptions(ctx, guildID, poolID, actor, names)
	if err != nil {
		f.reporter.Respond(s, submit, err, "Unable to update the options.")
		return
	}
	go f.refreshPool(ctx, detail.Pool.GuildID, detail.Pool.ID)
	_ = common.RespondWithSuccess(s, submit, fmt.Sprintf("Pool now has %d options.", len(detail.Options)), true)
}

func splitOptions(text string) []string {
	var names []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}
	return names
}

func (f *Feature) handleMinimum(s *discordgo.Session, i *discordgo.InteractionCreate, opts commandOptions) {
	ctx := context.Background()

	guildID, actor, err := common.ActorFromInteraction(f.cfg, i)
	if err != nil {
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	var minimum int64
	if opt, ok := opts["amount"]; ok {
		minimum = opt.IntValue()
	}

	detail, err := f.pools.SetMinimumBet(ctx, guildID, poolIDOption(opts), actor, minimum)
	if err != nil {
		f.reporter.Respond(s, i, err, "Unable to set the minimum bet.")
		return
	}
	go f.refreshPool(ctx, detail.Pool.GuildID, detail.Pool.ID)
	_ = common.RespondWithSuccess(s, i, fmt.Sprintf("Minimum bet set to %s.", common.FormatBalance(minimum)), true)
}

func (f *Feature) handleToggle(s *discordgo.Session, i *discordgo.InteractionCreate, opts commandOptions) {
	ctx := context.Background()

	guildID, actor, err := common.ActorFromInteraction(f.cfg, i)
	if err != nil {
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	detail, err := f.pools.ToggleOpen(ctx, guildID, poolIDOption(opts), actor)
	if err != nil {
		f.reporter.Respond(s, i, err, "Unable to change the pool state.")
		return
	}
	_ = common.RespondWithSuccess(s, i, fmt.Sprintf("Pool #%d is now %s.", detail.Pool.ID, detail.Pool.State), true)
}

func (f *Feature) handleAdjust(s *discordgo.Session, i *discordgo.InteractionCreate, opts commandOptions) {
	ctx := context.Background()

	guildID, actor, err := common.ActorFromInteraction(f.cfg, i)
	if err != nil {
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	var amount int64
	if opt, ok := opts["amount"]; ok {
		amount = opt.IntValue()
	}

	applied, detail, err := f.pools.AdjustPool(ctx, guildID, poolIDOption(opts), actor, amount)
	if err != nil {
		f.reporter.Respond(s, i, err, "Unable to adjust the pool.")
		return
	}
	go f.refreshPool(ctx, detail.Pool.GuildID, detail.Pool.ID)
	_ = common.RespondWithSuccess(s, i, fmt.Sprintf("Pool adjusted by %s. Total is now %s.",
		common.FormatBalance(applied), common.FormatBalance(detail.Total())), true)
}

func (f *Feature) handleResolve(s *discordgo.Session, i *discordgo.InteractionCreate, opts commandOptions) {
	ctx := context.Background()

	guildID, actor, err := common.ActorFromInteraction(f.cfg, i)
	if err != nil {
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}
	poolID := poolIDOption(opts)
	var optionID int
	if opt, ok := opts["option"]; ok {
		optionID = int(opt.IntValue())
	}

	detail, err := f.pools.GetPool(ctx, guildID, poolID)
	if err != nil {
		f.reporter.Respond(s, i, err, "Unable to load the pool.")
		return
	}
	option := detail.Option(optionID)
	if option == nil {
		common.RespondWithError(s, i, fmt.Sprintf("Pool #%d has no option %d.", poolID, optionID))
		return
	}

	question := fmt.Sprintf("Resolve **%s** with **%s** as the winner? Payouts are final.", detail.Pool.Title, option.Name)
	confirmed, answer, err := f.waiter.Confirm(ctx, s, i, question)
	if err != nil || !confirmed {
		if answer != nil {
			common.ReplacePrompt(s, answer, "Nothing was changed.")
		}
		return
	}

	settlement, err := f.pools.Resolve(ctx, guildID, poolID, actor, optionID)
	if err != nil {
		f.reporter.Replace(s, answer, err, "Unable to resolve the pool.")
		return
	}
	common.ReplacePrompt(s, answer, "✅ Pool resolved.")
	f.announceSettlement(i.ChannelID, settlement)
}

func (f *Feature) handleCancel(s *discordgo.Session, i *discordgo.InteractionCreate, opts commandOptions) {
	ctx := context.Background()

	guildID, actor, err := common.ActorFromInteraction(f.cfg, i)
	if err != nil {
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}
	poolID := poolIDOption(opts)

	detail, err := f.pools.GetPool(ctx, guildID, poolID)
	if err != nil {
		f.reporter.Respond(s, i, err, "Unable to load the pool.")
		return
	}

	question := fmt.Sprintf("Cancel **%s** and refund every bet?", detail.Pool.Title)
	confirmed, answer, err := f.waiter.Confirm(ctx, s, i, question)
	if err != nil || !confirmed {
		if answer != nil {
			common.ReplacePrompt(s, answer, "Nothing was changed.")
		}
		return
	}

	settlement, err := f.pools.Cancel(ctx, guildID, poolID, actor)
	if err != nil {
		f.reporter.Replace(s, answer, err, "Unable to cancel the pool.")
		return
	}
	common.ReplacePrompt(s, answer, "✅ Pool cancelled.")
	f.announceSettlement(i.ChannelID, settlement)
}

func (f *Feature) handleShow(s *discordgo.Session, i *discordgo.InteractionCreate, opts commandOptions) {
	ctx := context.Background()

	guildID, err := common.ParseID(i.GuildID)
	if err != nil {
		common.RespondWithError(s, i, "This command only works in a server.")
		return
	}

	detail, err := f.pools.GetPool(ctx, guildID, poolIDOption(opts))
	if err != nil {
		f.reporter.Respond(s, i, err, "Unable to load the pool.")
		return
	}
	if err := common.RespondWithEmbed(s, i, poolEmbed(detail), poolComponents(detail), false); err != nil {
		log.WithError(err).Error("Error showing bet pool")
	}
}

func (f *Feature) handleList(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, err := common.ParseID(i.GuildID)
	if err != nil {
		common.RespondWithError(s, i, "This command only works in a server.")
		return
	}

	pools, err := f.pools.ListPools(ctx, guildID, models.BetPoolStateConfig, models.BetPoolStateOpen, models.BetPoolStateClosed)
	if err != nil {
		f.reporter.Respond(s, i, err, "Unable to list pools.")
		return
	}
	if err := common.RespondWithEmbed(s, i, poolListEmbed(pools), nil, true); err != nil {
		log.WithError(err).Error("Error listing bet pools")
	}
}

// handleBetButton opens the amount modal for the chosen option
func (f *Feature) handleBetButton(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	poolID, optionID, err := parseBetTarget(i.MessageComponentData().CustomID, betButtonPrefix)
	if err != nil {
		log.WithError(err).Warn("Malformed bet button")
		common.RespondWithError(s, i, "This button is no longer valid.")
		return
	}
	guildID, userID, err := common.InteractionIDs(i)
	if err != nil {
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	detail, err := f.pools.GetPool(ctx, guildID, poolID)
	if err != nil {
		f.reporter.Respond(s, i, err, "Unable to load the pool.")
		return
	}
	if detail.Pool.State != models.BetPoolStateOpen {
		common.RespondWithError(s, i, "This pool is not open for bets.")
		return
	}
	option := detail.Option(optionID)
	if option == nil {
		common.RespondWithError(s, i, "That option no longer exists.")
		return
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: betModal(detail, option, detail.Better(userID)),
	})
	if err != nil {
		log.WithError(err).Error("Error showing bet modal")
	}
}

func (f *Feature) handleBetModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	data := i.ModalSubmitData()
	poolID, optionID, err := parseBetTarget(data.CustomID, betModalPrefix)
	if err != nil {
		log.WithError(err).Warn("Malformed bet modal")
		common.RespondWithError(s, i, "This form is no longer valid.")
		return
	}
	guildID, userID, err := common.InteractionIDs(i)
	if err != nil {
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	raw := strings.ReplaceAll(strings.TrimSpace(common.ModalValues(data)["amount"]), ",", "")
	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || amount <= 0 {
		common.RespondWithError(s, i, "Please enter a positive whole number.")
		return
	}

	detail, err := f.pools.PlaceBet(ctx, guildID, poolID, userID, optionID, amount)
	if err != nil {
		f.reporter.Respond(s, i, err, "Unable to place your bet. Please try again.")
		return
	}

	better := detail.Better(userID)
	option := detail.Option(optionID)
	message := fmt.Sprintf("You bet %s on **%s**.", common.FormatBalance(amount), option.Name)
	if better != nil && better.Amount != amount {
		message += fmt.Sprintf(" Your total is now %s.", common.FormatBalance(better.Amount))
	}
	_ = common.RespondWithSuccess(s, i, message, true)
}

// askModal shows a modal and waits for it to be submitted
func (f *Feature) askModal(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, flow *prompt.Session, modal *discordgo.InteractionResponseData) (*discordgo.InteractionCreate, bool) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: modal,
	})
	if err != nil {
		log.WithError(err).Error("Error showing modal")
		return nil, false
	}

	submit, err := flow.Await(ctx)
	if err != nil {
		// Dismissed modals never report back
		log.WithError(err).Debug("Modal was not submitted")
		return nil, false
	}
	return submit, true
}

func textRow(input discordgo.TextInput) discordgo.ActionsRow {
	return discordgo.ActionsRow{Components: []discordgo.MessageComponent{input}}
}

// renderMessage edits the public pool message, if one was posted
func (f *Feature) renderMessage(detail *models.BetPoolDetail) {
	pool := detail.Pool
	if pool.MessageID == 0 || pool.ChannelID == 0 {
		return
	}

	components := poolComponents(detail)
	edit := discordgo.NewMessageEdit(common.FormatID(pool.ChannelID), common.FormatID(pool.MessageID)).
		SetEmbeds([]*discordgo.MessageEmbed{poolEmbed(detail)})
	edit.Components = &components

	if _, err := f.session.ChannelMessageEditComplex(edit); err != nil {
		log.WithError(err).WithField("poolID", pool.ID).Warn("Failed to refresh bet pool message")
	}
}

// announceSettlement posts the outcome to the pool channel, or where the command ran
func (f *Feature) announceSettlement(fallbackChannelID string, settlement *models.BetPoolSettlement) {
	channelID := fallbackChannelID
	if settlement.Pool.Pool.ChannelID != 0 {
		channelID = common.FormatID(settlement.Pool.Pool.ChannelID)
	}
	_, err := f.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:         settlementSummary(settlement),
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	})
	if err != nil {
		log.WithError(err).WithField("poolID", settlement.Pool.Pool.ID).Warn("Failed to announce pool settlement")
	}
}
