package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken string
	GuildID      string // Guild where slash commands are registered, empty for global

	// Database configuration
	DatabaseURL string

	// Permissions
	ModeratorRoleIDs  []string // Roles treated as moderators for approvals and overrides
	OperatorChannelID string   // Channel that receives invariant violation reports

	// Clan configuration
	ClanLeaderRoleID string
	ClanMemberRoleID string
	MaxClanMembers   int

	// Ledger defaults, used until a guild stores its own settings
	DefaultMaxBalance        int64
	DefaultPassiveChance     float64
	DefaultPassiveAmount     int64
	DefaultPassiveDailyCap   int
	DefaultBonusChance       float64
	DefaultBonusMultiplier   int64
	DefaultJackpotChance     float64
	DefaultJackpotMultiplier int64

	// ReferenceTimezone decides where "today" and "this month" begin
	ReferenceTimezone string

	// PromptTimeout bounds every interactive wait
	PromptTimeout time.Duration

	// Logging
	LogLevel string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	// A missing .env file is normal outside local development
	_ = godotenv.Load()

	config := &Config{
		DiscordToken: os.Getenv("DISCORD_TOKEN"),
		GuildID:      os.Getenv("GUILD_ID"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		ModeratorRoleIDs:  splitList(os.Getenv("MODERATOR_ROLE_IDS")),
		OperatorChannelID: os.Getenv("OPERATOR_CHANNEL_ID"),

		ClanLeaderRoleID: os.Getenv("CLAN_LEADER_ROLE_ID"),
		ClanMemberRoleID: os.Getenv("CLAN_MEMBER_ROLE_ID"),
		MaxClanMembers:   getEnvInt("MAX_CLAN_MEMBERS", 10),

		DefaultMaxBalance:        getEnvInt64("DEFAULT_MAX_BALANCE", 1_000_000_000),
		DefaultPassiveChance:     getEnvFloat("PASSIVE_CHANCE", 0.2),
		DefaultPassiveAmount:     getEnvInt64("PASSIVE_AMOUNT", 10),
		DefaultPassiveDailyCap:   getEnvInt("PASSIVE_DAILY_CAP", 20),
		DefaultBonusChance:       getEnvFloat("PASSIVE_BONUS_CHANCE", 0.1),
		DefaultBonusMultiplier:   getEnvInt64("PASSIVE_BONUS_MULTIPLIER", 5),
		DefaultJackpotChance:     getEnvFloat("PASSIVE_JACKPOT_CHANCE", 0.1),
		DefaultJackpotMultiplier: getEnvInt64("PASSIVE_JACKPOT_MULTIPLIER", 10),

		ReferenceTimezone: getEnvWithDefault("REFERENCE_TIMEZONE", "America/New_York"),
		PromptTimeout:     getEnvDuration("PROMPT_TIMEOUT", 3*time.Minute),

		LogLevel:    getEnvWithDefault("LOG_LEVEL", "info"),
		Environment: os.Getenv("ENVIRONMENT"),
	}

	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.DiscordToken == "" {
			return nil, fmt.Errorf("DISCORD_TOKEN is required")
		}
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}
	if config.MaxClanMembers < 1 {
		return nil, fmt.Errorf("MAX_CLAN_MEMBERS must be at least 1")
	}
	if _, err := time.LoadLocation(config.ReferenceTimezone); err != nil {
		return nil, fmt.Errorf("invalid REFERENCE_TIMEZONE %q: %w", config.ReferenceTimezone, err)
	}

	return config, nil
}

// Location returns the reference timezone, falling back to UTC
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ReferenceTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsModeratorRole reports whether roleID grants moderator permissions
func (c *Config) IsModeratorRole(roleID string) bool {
	for _, id := range c.ModeratorRoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:              "test",
		DiscordToken:             "test-token",
		MaxClanMembers:           3,
		DefaultMaxBalance:        100,
		DefaultPassiveChance:     0.5,
		DefaultPassiveAmount:     10,
		DefaultPassiveDailyCap:   2,
		DefaultBonusChance:       0.5,
		DefaultBonusMultiplier:   2,
		DefaultJackpotChance:     0.5,
		DefaultJackpotMultiplier: 3,
		ReferenceTimezone:        "UTC",
		PromptTimeout:            time.Minute,
		LogLevel:                 "debug",
	}
}
