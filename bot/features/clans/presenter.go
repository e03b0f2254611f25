package clans

import (
	"context"
	"fmt"

	"guildcogs/bot/common"
	"guildcogs/models"
	"guildcogs/service"

	"github.com/bwmarrin/discordgo"
)

// ApprovalPresenter posts pending clan drafts for moderators to approve or reject
type ApprovalPresenter struct {
	session *discordgo.Session
}

func NewApprovalPresenter(session *discordgo.Session) *ApprovalPresenter {
	return &ApprovalPresenter{session: session}
}

// PostApproval posts the draft to the channel stored on it
func (p *ApprovalPresenter) PostApproval(ctx context.Context, view *service.PendingClanView) (models.ApprovalMessageRef, error) {
	if view.Pending.ChannelID == 0 {
		return models.ApprovalMessageRef{}, fmt.Errorf("no approval channel for clan %s", view.Pending.Clan.ID)
	}

	msg, err := p.session.ChannelMessageSendComplex(common.FormatID(view.Pending.ChannelID), &discordgo.MessageSend{
		Embeds:          []*discordgo.MessageEmbed{approvalEmbed(view)},
		Components:      approvalComponents(view.Pending.Clan.ID, view.Pending.Version()),
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return models.ApprovalMessageRef{}, fmt.Errorf("failed to post approval message: %w", err)
	}

	messageID, err := common.ParseID(msg.ID)
	if err != nil {
		return models.ApprovalMessageRef{}, err
	}
	return models.ApprovalMessageRef{ChannelID: view.Pending.ChannelID, MessageID: messageID}, nil
}

// DeleteApproval removes a superseded approval message
func (p *ApprovalPresenter) DeleteApproval(ctx context.Context, ref models.ApprovalMessageRef) error {
	err := p.session.ChannelMessageDelete(common.FormatID(ref.ChannelID), common.FormatID(ref.MessageID), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to delete approval message: %w", err)
	}
	return nil
}

var _ service.ClanPresenter = (*ApprovalPresenter)(nil)
