package models

import (
	"time"
)

// TransactionType represents the type of balance change
type TransactionType string

const (
	TransactionTypeBetPoolWager  TransactionType = "bet_pool_wager"
	TransactionTypeBetPoolPayout TransactionType = "bet_pool_payout"
	TransactionTypeBetPoolRefund TransactionType = "bet_pool_refund"
	TransactionTypePassiveIncome TransactionType = "passive_income"
	TransactionTypeBalanceSet    TransactionType = "balance_set"
	TransactionTypeBalanceAdd    TransactionType = "balance_add"
	TransactionTypeBalanceRemove TransactionType = "balance_remove"
)

// RelatedType represents what type of entity the related_id refers to
type RelatedType string

const (
	RelatedTypeBetPool RelatedType = "bet_pool"
)

// BalanceHistory represents a historical balance change.
// Before and after are effective balances.
type BalanceHistory struct {
	ID                  int64           `db:"id"`
	GuildID             int64           `db:"guild_id"`
	DiscordID           int64           `db:"discord_id"`
	BalanceBefore       int64           `db:"balance_before"`
	BalanceAfter        int64           `db:"balance_after"`
	ChangeAmount        int64           `db:"change_amount"`
	TransactionType     TransactionType `db:"transaction_type"`
	TransactionMetadata map[string]any  `db:"transaction_metadata"`
	RelatedID           *int64          `db:"related_id"`
	RelatedType         *RelatedType    `db:"related_type"`
	CreatedAt           time.Time       `db:"created_at"`
}
