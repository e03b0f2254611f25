package models

import (
	"slices"
	"time"
)

// Clan is a live clan record
type Clan struct {
	ID                  string    `db:"id"`
	GuildID             int64     `db:"guild_id"`
	IsActive            bool      `db:"is_active"`
	Name                string    `db:"name"`
	Description         string    `db:"description"`
	IconURL             string    `db:"icon_url"`
	LeaderRegistrantID  string    `db:"leader_registrant_id"`
	ActiveRegistrantIDs []string  `db:"active_registrant_ids"`
	CreatedAt           time.Time `db:"created_at"`
	UpdatedAt           time.Time `db:"updated_at"`
}

// HasRegistrant reports whether the registrant is on the active roster
func (c *Clan) HasRegistrant(registrantID string) bool {
	return slices.Contains(c.ActiveRegistrantIDs, registrantID)
}

// Clone returns a deep copy
func (c *Clan) Clone() *Clan {
	cp := *c
	cp.ActiveRegistrantIDs = slices.Clone(c.ActiveRegistrantIDs)
	return &cp
}

// ClanRegistrant is one membership stint of a member in a clan.
// Leaving and re-joining the same clan reuses the registrant.
type ClanRegistrant struct {
	ID           string    `db:"id"`
	GuildID      int64     `db:"guild_id"`
	MemberID     int64     `db:"member_id"`
	ClanID       string    `db:"clan_id"`
	CreatedAt    time.Time `db:"created_at"`
	LastJoinedAt time.Time `db:"last_joined_at"`
}

// Member lists every registrant a member has ever had
type Member struct {
	GuildID           int64    `db:"guild_id"`
	MemberID          int64    `db:"member_id"`
	ClanRegistrantIDs []string `db:"clan_registrant_ids"`
}

// PendingClanDraft is a clan edit awaiting moderator approval
type PendingClanDraft struct {
	Clan           *Clan
	IsNew          bool      `db:"is_new"`
	DraftCreatedAt time.Time `db:"draft_created_at"`
	SubmittedBy    int64     `db:"submitted_by"`
	MessageID      int64     `db:"message_id"`
	ChannelID      int64     `db:"channel_id"`
	MessageDeleted bool      `db:"message_deleted"`
}

// Version identifies this submission. Approval buttons carry it so a
// superseded message cannot act on a newer draft.
func (p *PendingClanDraft) Version() int64 {
	return p.DraftCreatedAt.UnixMicro()
}

// PendingClanRegistrationDraft is a registrant staged with a pending clan draft
type PendingClanRegistrationDraft struct {
	Registrant     *ClanRegistrant
	DraftCreatedAt time.Time `db:"draft_created_at"`
}

// ApprovalMessageRef identifies a posted approval message
type ApprovalMessageRef struct {
	ChannelID int64
	MessageID int64
}
