package prompt

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Confirm asks the invoking user a yes/no question in an ephemeral message.
// i must not have been answered yet. The answering interaction is returned so the caller can reply to it.
func (w *Waiter) Confirm(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, question string) (bool, *discordgo.InteractionCreate, error) {
	flow := w.Open()

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: question,
			Flags:   discordgo.MessageFlagsEphemeral,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.Button{Label: "Confirm", Style: discordgo.DangerButton, CustomID: flow.ID("yes")},
					discordgo.Button{Label: "Cancel", Style: discordgo.SecondaryButton, CustomID: flow.ID("no")},
				}},
			},
		},
	})
	if err != nil {
		return false, nil, fmt.Errorf("failed to ask for confirmation: %w", err)
	}

	answer, err := flow.Await(ctx)
	if err != nil {
		content := "⌛ No answer, nothing was changed."
		_, _ = s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
			Content:    &content,
			Components: &[]discordgo.MessageComponent{},
		})
		return false, nil, err
	}
	return Action(answer) == "yes", answer, nil
}
