package common

import (
	"errors"
	"fmt"
	"testing"

	"guildcogs/config"
	"guildcogs/service"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func TestFormatBalance(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-1500, "-1,500"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBalance(tt.in))
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab…", Truncate("abcdef", 3))
	assert.Equal(t, "ü", Truncate("üü", 1))
}

func TestMentionList(t *testing.T) {
	assert.Equal(t, "-", MentionList(nil))
	assert.Equal(t, "<@1>, <@2>", MentionList([]int64{1, 2}))
}

func TestUserMessage(t *testing.T) {
	msg, ok := UserMessage(fmt.Errorf("wrapped: %w", service.NewValidationError("amount must be positive")), "failed")
	assert.True(t, ok)
	assert.Equal(t, "amount must be positive", msg)

	msg, ok = UserMessage(service.NewNotFoundError("bet pool", 4), "failed")
	assert.True(t, ok)
	assert.Equal(t, "bet pool 4 not found", msg)

	msg, ok = UserMessage(errors.New("connection reset"), "failed")
	assert.False(t, ok)
	assert.Equal(t, "failed", msg)
}

func TestIsModerator(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.ModeratorRoleIDs = []string{"mods"}

	assert.False(t, IsModerator(cfg, nil))
	assert.False(t, IsModerator(cfg, &discordgo.Member{Roles: []string{"members"}}))
	assert.True(t, IsModerator(cfg, &discordgo.Member{Roles: []string{"members", "mods"}}))
	assert.True(t, IsModerator(cfg, &discordgo.Member{Permissions: discordgo.PermissionAdministrator}))
}

func TestModalValues(t *testing.T) {
	data := discordgo.ModalSubmitInteractionData{
		Components: []discordgo.MessageComponent{
			&discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				&discordgo.TextInput{CustomID: "name", Value: "Owls"},
			}},
			&discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				&discordgo.TextInput{CustomID: "icon", Value: ""},
			}},
		},
	}
	assert.Equal(t, map[string]string{"name": "Owls", "icon": ""}, ModalValues(data))
}
