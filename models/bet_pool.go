package models

import (
	"time"
)

// BetPoolState represents the lifecycle state of a bet pool
type BetPoolState string

const (
	BetPoolStateConfig    BetPoolState = "config"
	BetPoolStateOpen      BetPoolState = "open"
	BetPoolStateClosed    BetPoolState = "closed"
	BetPoolStateCancelled BetPoolState = "cancelled"
	BetPoolStateResolved  BetPoolState = "resolved"
)

// IsTerminal reports whether no further transitions are allowed
func (s BetPoolState) IsTerminal() bool {
	return s == BetPoolStateCancelled || s == BetPoolStateResolved
}

// BetPool is a pari-mutuel pool
type BetPool struct {
	ID              int64        `db:"id"`
	GuildID         int64        `db:"guild_id"`
	State           BetPoolState `db:"state"`
	AuthorID        int64        `db:"author_id"`
	MinimumBet      int64        `db:"minimum_bet"`
	Title           string       `db:"title"`
	Description     string       `db:"description"`
	BaseValue       int64        `db:"base_value"`
	WinningOptionID *int         `db:"winning_option_id"`
	MessageID       int64        `db:"message_id"`
	ChannelID       int64        `db:"channel_id"`
	CreatedAt       time.Time    `db:"created_at"`
	LastEditedAt    time.Time    `db:"last_edited_at"`
	ClosedAt        *time.Time   `db:"closed_at"`
	ResolvedAt      *time.Time   `db:"resolved_at"`
}

// BetPoolOption is one outcome members can wager on.
// IDs are sequential within a pool starting at 1.
type BetPoolOption struct {
	PoolID int64  `db:"pool_id"`
	ID     int    `db:"option_id"`
	Name   string `db:"name"`
	Order  int16  `db:"option_order"`
}

// Better is a member's single wager in a pool
type Better struct {
	PoolID    int64     `db:"pool_id"`
	MemberID  int64     `db:"member_id"`
	OptionID  int       `db:"option_id"`
	Amount    int64     `db:"amount"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// BetPoolDetail is a pool with its options and betters
type BetPoolDetail struct {
	Pool    *BetPool
	Options []*BetPoolOption
	Betters []*Better
}

// Total is the pool value: base value plus every wager
func (d *BetPoolDetail) Total() int64 {
	total := d.Pool.BaseValue
	for _, b := range d.Betters {
		total += b.Amount
	}
	return total
}

// OptionTotal sums wagers placed on one option
func (d *BetPoolDetail) OptionTotal(optionID int) int64 {
	var total int64
	for _, b := range d.Betters {
		if b.OptionID == optionID {
			total += b.Amount
		}
	}
	return total
}

// Option returns the option with the given id, or nil
func (d *BetPoolDetail) Option(optionID int) *BetPoolOption {
	for _, o := range d.Options {
		if o.ID == optionID {
			return o
		}
	}
	return nil
}

// Better returns the wager of a member, or nil
func (d *BetPoolDetail) Better(memberID int64) *Better {
	for _, b := range d.Betters {
		if b.MemberID == memberID {
			return b
		}
	}
	return nil
}

// BetPoolPayout is the credit one member received when a pool settled
type BetPoolPayout struct {
	MemberID int64
	Wagered  int64
	Amount   int64
}

// BetPoolSettlement is the outcome of resolving or cancelling a pool
type BetPoolSettlement struct {
	Pool    *BetPoolDetail
	Payouts []*BetPoolPayout
}

// TotalPaid sums every payout
func (s *BetPoolSettlement) TotalPaid() int64 {
	var total int64
	for _, p := range s.Payouts {
		total += p.Amount
	}
	return total
}
