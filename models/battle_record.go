package models

import (
	"time"
)

// ClanBattleRecord is a reported head-to-head result between two registrants.
// It counts toward scoreboards only once both players verified it.
type ClanBattleRecord struct {
	ID                  string    `db:"id"`
	GuildID             int64     `db:"guild_id"`
	Player1RegistrantID string    `db:"player1_registrant_id"`
	Player1Character    string    `db:"player1_character"`
	Player1GamesWon     *int      `db:"player1_games_won"`
	Player1Verified     bool      `db:"player1_verified"`
	Player2RegistrantID string    `db:"player2_registrant_id"`
	Player2Character    string    `db:"player2_character"`
	Player2GamesWon     *int      `db:"player2_games_won"`
	Player2Verified     bool      `db:"player2_verified"`
	WinnerID            *string   `db:"winner_id"`
	MessageID           int64     `db:"message_id"`
	ChannelID           int64     `db:"channel_id"`
	CreatedAt           time.Time `db:"created_at"`
	UpdatedAt           time.Time `db:"updated_at"`
}

// IsLocked reports whether both players verified the record
func (r *ClanBattleRecord) IsLocked() bool {
	return r.Player1Verified && r.Player2Verified
}

// IsParticipant reports whether the registrant played in the battle
func (r *ClanBattleRecord) IsParticipant(registrantID string) bool {
	return registrantID == r.Player1RegistrantID || registrantID == r.Player2RegistrantID
}

// LoserID returns the registrant that did not win, if a winner is set
func (r *ClanBattleRecord) LoserID() *string {
	if r.WinnerID == nil {
		return nil
	}
	loser := r.Player1RegistrantID
	if *r.WinnerID == r.Player1RegistrantID {
		loser = r.Player2RegistrantID
	}
	return &loser
}

// ClanPointAward is an immutable moderator grant of points to a registrant
type ClanPointAward struct {
	ID               string    `db:"id"`
	GuildID          int64     `db:"guild_id"`
	ClanRegistrantID string    `db:"clan_registrant_id"`
	Points           int64     `db:"points"`
	Reason           string    `db:"reason"`
	AwardedBy        int64     `db:"awarded_by"`
	CreatedAt        time.Time `db:"created_at"`
}

// ScoreboardPeriod selects which records count toward a scoreboard
type ScoreboardPeriod string

const (
	PeriodThisMonth ScoreboardPeriod = "this_month"
	PeriodAllTime   ScoreboardPeriod = "all_time"
)

// ClanStanding is one clan row of a scoreboard
type ClanStanding struct {
	ClanID string
	Name   string
	Wins   int
	Losses int
	Points int64
}

// MemberStanding is one member row of a scoreboard
type MemberStanding struct {
	MemberID int64
	ClanID   string
	Wins     int
	Losses   int
	Points   int64
}

// MemberProfile aggregates a member's results across every clan they joined
type MemberProfile struct {
	MemberID     int64
	ActiveClanID string
	Wins         int
	Losses       int
	Points       int64
	Characters   map[string]int
	ClanIDs      []string
}
