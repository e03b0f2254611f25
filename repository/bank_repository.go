package repository

import (
	"context"
	"fmt"

	"guildcogs/database"
	"guildcogs/models"
)

// BankRepository stores raw balances per guild
type BankRepository struct {
	q       queryable
	guildID int64
}

// NewBankRepository creates a bank repository outside of a transaction
func NewBankRepository(db *database.DB, guildID int64) *BankRepository {
	return &BankRepository{q: db.Pool, guildID: guildID}
}

func newBankRepository(tx queryable, guildID int64) *BankRepository {
	return &BankRepository{
		q:       tx,
		guildID: guildID,
	}
}

// ensureAccount creates the account at zero if it does not exist yet
func (r *BankRepository) ensureAccount(ctx context.Context, discordID int64) error {
	query := `
		INSERT INTO bank_accounts (guild_id, discord_id)
		VALUES ($1, $2)
		ON CONFLICT (guild_id, discord_id) DO NOTHING
	`
	if _, err := r.q.Exec(ctx, query, r.guildID, discordID); err != nil {
		return fmt.Errorf("failed to create account for user %d: %w", discordID, err)
	}
	return nil
}

// GetBalance returns the raw balance and locks the row until the transaction ends
func (r *BankRepository) GetBalance(ctx context.Context, discordID int64) (int64, error) {
	if err := r.ensureAccount(ctx, discordID); err != nil {
		return 0, err
	}

	query := `
		SELECT raw_balance
		FROM bank_accounts
		WHERE guild_id = $1 AND discord_id = $2
		FOR UPDATE
	`

	var balance int64
	if err := r.q.QueryRow(ctx, query, r.guildID, discordID).Scan(&balance); err != nil {
		return 0, fmt.Errorf("failed to get balance for user %d: %w", discordID, err)
	}
	return balance, nil
}

// Deposit adds amount and returns the new raw balance
func (r *BankRepository) Deposit(ctx context.Context, discordID int64, amount int64) (int64, error) {
	return r.adjust(ctx, discordID, amount)
}

// Withdraw subtracts amount and returns the new raw balance
func (r *BankRepository) Withdraw(ctx context.Context, discordID int64, amount int64) (int64, error) {
	return r.adjust(ctx, discordID, -amount)
}

func (r *BankRepository) adjust(ctx context.Context, discordID int64, delta int64) (int64, error) {
	query := `
		INSERT INTO bank_accounts (guild_id, discord_id, raw_balance)
		VALUES ($1, $2, $3)
		ON CONFLICT (guild_id, discord_id)
		DO UPDATE SET raw_balance = bank_accounts.raw_balance + EXCLUDED.raw_balance, updated_at = NOW()
		RETURNING raw_balance
	`

	var balance int64
	if err := r.q.QueryRow(ctx, query, r.guildID, discordID, delta).Scan(&balance); err != nil {
		return 0, fmt.Errorf("failed to adjust balance for user %d by %d: %w", discordID, delta, err)
	}
	return balance, nil
}

// SetBalance overwrites the raw balance
func (r *BankRepository) SetBalance(ctx context.Context, discordID int64, rawBalance int64) error {
	query := `
		INSERT INTO bank_accounts (guild_id, discord_id, raw_balance)
		VALUES ($1, $2, $3)
		ON CONFLICT (guild_id, discord_id)
		DO UPDATE SET raw_balance = EXCLUDED.raw_balance, updated_at = NOW()
	`

	if _, err := r.q.Exec(ctx, query, r.guildID, discordID, rawBalance); err != nil {
		return fmt.Errorf("failed to set balance for user %d: %w", discordID, err)
	}
	return nil
}

// Leaderboard returns the accounts with the highest raw balance
func (r *BankRepository) Leaderboard(ctx context.Context, limit int) ([]*models.BankAccount, error) {
	query := `
		SELECT guild_id, discord_id, raw_balance, created_at, updated_at
		FROM bank_accounts
		WHERE guild_id = $1
		ORDER BY raw_balance DESC, discord_id
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, r.guildID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	defer rows.Close()

	var accounts []*models.BankAccount
	for rows.Next() {
		var account models.BankAccount
		if err := rows.Scan(
			&account.GuildID,
			&account.DiscordID,
			&account.RawBalance,
			&account.CreatedAt,
			&account.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, &account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	return accounts, nil
}
