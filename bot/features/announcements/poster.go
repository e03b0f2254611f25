package announcements

import (
	"context"
	"fmt"

	"guildcogs/bot/common"
	"guildcogs/service"

	"github.com/bwmarrin/discordgo"
)

// Poster delivers scheduled announcements to their channel
type Poster struct {
	session *discordgo.Session
}

func NewPoster(session *discordgo.Session) *Poster {
	return &Poster{session: session}
}

func (p *Poster) PostAnnouncement(ctx context.Context, channelID int64, message string) error {
	_, err := p.session.ChannelMessageSendComplex(common.FormatID(channelID), &discordgo.MessageSend{
		Content: message,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to post announcement to channel %d: %w", channelID, err)
	}
	return nil
}

var _ service.AnnouncementPoster = (*Poster)(nil)
