package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("MODERATOR_ROLE_IDS", " 11, 22 ,,33")
	t.Setenv("MAX_CLAN_MEMBERS", "7")
	t.Setenv("PROMPT_TIMEOUT", "90s")
	t.Setenv("REFERENCE_TIMEZONE", "UTC")

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Environment)
	assert.Equal(t, []string{"11", "22", "33"}, cfg.ModeratorRoleIDs)
	assert.Equal(t, 7, cfg.MaxClanMembers)
	assert.Equal(t, 90*time.Second, cfg.PromptTimeout)
	assert.True(t, cfg.IsModeratorRole("22"))
	assert.False(t, cfg.IsModeratorRole("44"))
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoad_RequiresTokenOutsideTests(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/test")

	_, err := load()
	assert.ErrorContains(t, err, "DISCORD_TOKEN")
}

func TestLoad_RejectsBadTimezone(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("REFERENCE_TIMEZONE", "Mars/Olympus")

	_, err := load()
	assert.ErrorContains(t, err, "REFERENCE_TIMEZONE")
}

func TestSetTestConfig(t *testing.T) {
	defer ResetConfig()

	cfg := NewTestConfig()
	cfg.MaxClanMembers = 42
	SetTestConfig(cfg)

	assert.Equal(t, 42, Get().MaxClanMembers)
}
