package clans

import (
	"context"
	"errors"

	"guildcogs/bot/common"
	"guildcogs/bot/prompt"
	"guildcogs/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// runEditor shows the draft editor and applies edits until the draft is submitted,
// discarded, or the prompt times out. i must not have been answered yet.
func (f *Feature) runEditor(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, actor service.Actor, draft *service.ClanDraft) {
	flow := f.waiter.Open()
	components := func() []discordgo.MessageComponent {
		return editorComponents(flow, draft, f.cfg.MaxClanMembers, actor.Moderator)
	}

	if err := common.RespondWithEmbed(s, i, editorEmbed(draft, ""), components(), true); err != nil {
		log.WithError(err).Error("Error showing clan editor")
		return
	}

	for {
		answer, err := flow.Await(ctx)
		if err != nil {
			if errors.Is(err, prompt.ErrTimeout) {
				content := "⌛ The editor timed out. Nothing was submitted."
				empty := []discordgo.MessageComponent{}
				_, _ = s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
					Content:    &content,
					Components: &empty,
				})
			}
			return
		}

		notice := ""
		switch prompt.Action(answer) {
		case actionDetails:
			err := s.InteractionRespond(answer.Interaction, &discordgo.InteractionResponse{
				Type: discordgo.InteractionResponseModal,
				Data: detailsModal(flow, draft),
			})
			if err != nil {
				log.WithError(err).Error("Error showing clan details modal")
			}
			// The submitted modal arrives through the next Await
			continue

		case actionModal:
			values := common.ModalValues(answer.ModalSubmitData())
			notice = f.userError(draft.SetDetails(values["name"], values["description"], values["icon"]))

		case actionLeader:
			selected := answer.MessageComponentData().Values
			if len(selected) == 1 {
				memberID, err := common.ParseID(selected[0])
				if err == nil {
					notice = f.userError(f.clans.SetDraftLeader(ctx, draft, memberID))
				}
			}

		case actionMembers:
			memberIDs := make([]int64, 0, len(answer.MessageComponentData().Values))
			for _, v := range answer.MessageComponentData().Values {
				if memberID, err := common.ParseID(v); err == nil {
					memberIDs = append(memberIDs, memberID)
				}
			}
			notice = f.userError(f.clans.SetDraftMembers(ctx, draft, memberIDs))

		case actionActive:
			if actor.Moderator {
				draft.SetActive(!draft.Clan.IsActive)
			}

		case actionReset:
			draft.Reset()

		case actionSave:
			if notice = f.userError(draft.Validate()); notice != "" {
				break
			}
			f.submitDraft(ctx, s, i, answer, actor, draft)
			return

		case actionCancel:
			common.ReplacePrompt(s, answer, "Draft discarded.")
			return
		}

		if err := common.UpdateComponentMessage(s, answer, editorEmbed(draft, notice), components()); err != nil {
			log.WithError(err).Warn("Failed to refresh clan editor")
		}
	}
}

// userError returns the message of a user-facing error, logging anything else
func (f *Feature) userError(err error) string {
	if err == nil {
		return ""
	}
	msg, userFault := common.UserMessage(err, "That change could not be applied.")
	if !userFault {
		log.WithError(err).Error("Clan draft edit failed")
	}
	return msg
}

// submitDraft stores the draft as pending and posts it for approval
func (f *Feature) submitDraft(ctx context.Context, s *discordgo.Session, i, answer *discordgo.InteractionCreate, actor service.Actor, draft *service.ClanDraft) {
	view, err := f.clans.SaveDraft(ctx, actor, draft, f.approvalChannel(i))
	if err != nil {
		if view != nil {
			// Stored, but the approval message could not be posted; it is re-posted on reconnect
			log.WithError(err).WithField("clanID", draft.Clan.ID).Warn("Clan draft saved without approval message")
			common.ReplacePrompt(s, answer, "✅ Submitted. Moderators will see it once the approval message can be posted.")
			return
		}
		f.reporter.Replace(s, answer, err, "Unable to submit the clan.")
		return
	}
	common.ReplacePrompt(s, answer, "✅ Submitted for moderator approval.")
}

// approvalChannel is the operator channel when configured, else where the editor was opened
func (f *Feature) approvalChannel(i *discordgo.InteractionCreate) int64 {
	channel := f.cfg.OperatorChannelID
	if channel == "" {
		channel = i.ChannelID
	}
	id, _ := common.ParseID(channel)
	return id
}
