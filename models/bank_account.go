package models

import (
	"time"
)

// BankAccount is the raw stored balance of a member in a guild.
// Effective balances shown to members add the guild's LedgerSettings.Offset.
type BankAccount struct {
	GuildID    int64     `db:"guild_id"`
	DiscordID  int64     `db:"discord_id"`
	RawBalance int64     `db:"raw_balance"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// LedgerSettings are the guild-scoped economy settings
type LedgerSettings struct {
	Offset     int64 `json:"offset"`
	MaxBalance int64 `json:"max_balance"`

	PassiveChance     float64 `json:"passive_chance"`
	PassiveAmount     int64   `json:"passive_amount"`
	PassiveDailyCap   int     `json:"passive_daily_cap"`
	BonusChance       float64 `json:"bonus_chance"`
	BonusMultiplier   int64   `json:"bonus_multiplier"`
	JackpotChance     float64 `json:"jackpot_chance"`
	JackpotMultiplier int64   `json:"jackpot_multiplier"`

	// PassiveResponse is posted after an award when non-empty.
	// Supports {amount} and {tier} placeholders.
	PassiveResponse string `json:"passive_response,omitempty"`
}

// PassiveIncomeState is the per-member daily passive income counter
type PassiveIncomeState struct {
	LastPassiveTimestamp time.Time `json:"last_passive_timestamp"`
	LastPassiveCount     int       `json:"last_passive_count"`
}

// LeaderboardEntry is one row of the effective balance leaderboard
type LeaderboardEntry struct {
	DiscordID int64
	Balance   int64
}
