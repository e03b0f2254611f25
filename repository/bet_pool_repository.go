package repository

import (
	"context"
	"errors"
	"fmt"

	"guildcogs/database"
	"guildcogs/models"

	"github.com/jackc/pgx/v5"
)

// BetPoolRepository stores pools with their options and betters
type BetPoolRepository struct {
	q       queryable
	guildID int64
}

// NewBetPoolRepository creates a bet pool repository outside of a transaction
func NewBetPoolRepository(db *database.DB, guildID int64) *BetPoolRepository {
	return &BetPoolRepository{q: db.Pool, guildID: guildID}
}

func newBetPoolRepository(tx queryable, guildID int64) *BetPoolRepository {
	return &BetPoolRepository{
		q:       tx,
		guildID: guildID,
	}
}

const betPoolColumns = `
	id, guild_id, state, author_id, minimum_bet, title, description, base_value,
	winning_option_id, message_id, channel_id, created_at, last_edited_at, closed_at, resolved_at
`

func scanBetPool(row pgx.Row) (*models.BetPool, error) {
	var pool models.BetPool
	var state string
	err := row.Scan(
		&pool.ID,
		&pool.GuildID,
		&state,
		&pool.AuthorID,
		&pool.MinimumBet,
		&pool.Title,
		&pool.Description,
		&pool.BaseValue,
		&pool.WinningOptionID,
		&pool.MessageID,
		&pool.ChannelID,
		&pool.CreatedAt,
		&pool.LastEditedAt,
		&pool.ClosedAt,
		&pool.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	pool.State = models.BetPoolState(state)
	return &pool, nil
}

// Create inserts a pool in the repository's guild
func (r *BetPoolRepository) Create(ctx context.Context, pool *models.BetPool) error {
	query := `
		INSERT INTO bet_pools
		(guild_id, state, author_id, minimum_bet, title, description, base_value, created_at, last_edited_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query,
		r.guildID,
		string(pool.State),
		pool.AuthorID,
		pool.MinimumBet,
		pool.Title,
		pool.Description,
		pool.BaseValue,
		pool.CreatedAt,
		pool.LastEditedAt,
	).Scan(&pool.ID)
	if err != nil {
		return fmt.Errorf("failed to create bet pool: %w", err)
	}

	pool.GuildID = r.guildID
	return nil
}

// GetDetail returns a pool with its options and betters, or nil when missing
func (r *BetPoolRepository) GetDetail(ctx context.Context, id int64) (*models.BetPoolDetail, error) {
	query := `SELECT ` + betPoolColumns + ` FROM bet_pools WHERE id = $1 AND guild_id = $2`

	pool, err := scanBetPool(r.q.QueryRow(ctx, query, id, r.guildID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bet pool %d: %w", id, err)
	}

	options, err := r.getOptions(ctx, id)
	if err != nil {
		return nil, err
	}
	betters, err := r.getBetters(ctx, id)
	if err != nil {
		return nil, err
	}

	return &models.BetPoolDetail{
		Pool:    pool,
		Options: options,
		Betters: betters,
	}, nil
}

func (r *BetPoolRepository) getOptions(ctx context.Context, poolID int64) ([]*models.BetPoolOption, error) {
	query := `
		SELECT pool_id, option_id, name, option_order
		FROM bet_pool_options
		WHERE pool_id = $1
		ORDER BY option_order, option_id
	`

	rows, err := r.q.Query(ctx, query, poolID)
	if err != nil {
		return nil, fmt.Errorf("failed to get options for pool %d: %w", poolID, err)
	}
	defer rows.Close()

	var options []*models.BetPoolOption
	for rows.Next() {
		var option models.BetPoolOption
		if err := rows.Scan(&option.PoolID, &option.ID, &option.Name, &option.Order); err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		options = append(options, &option)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate options: %w", err)
	}
	return options, nil
}

func (r *BetPoolRepository) getBetters(ctx context.Context, poolID int64) ([]*models.Better, error) {
	query := `
		SELECT pool_id, member_id, option_id, amount, created_at, updated_at
		FROM bet_pool_betters
		WHERE pool_id = $1
		ORDER BY created_at, member_id
	`

	rows, err := r.q.Query(ctx, query, poolID)
	if err != nil {
		return nil, fmt.Errorf("failed to get betters for pool %d: %w", poolID, err)
	}
	defer rows.Close()

	var betters []*models.Better
	for rows.Next() {
		var better models.Better
		if err := rows.Scan(
			&better.PoolID,
			&better.MemberID,
			&better.OptionID,
			&better.Amount,
			&better.CreatedAt,
			&better.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan better: %w", err)
		}
		betters = append(betters, &better)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate betters: %w", err)
	}
	return betters, nil
}

// List returns pools in any of the given states, oldest first
func (r *BetPoolRepository) List(ctx context.Context, states ...models.BetPoolState) ([]*models.BetPool, error) {
	query := `SELECT ` + betPoolColumns + ` FROM bet_pools WHERE guild_id = $1`
	args := []any{r.guildID}
	if len(states) > 0 {
		names := make([]string, len(states))
		for i, s := range states {
			names[i] = string(s)
		}
		query += ` AND state = ANY($2)`
		args = append(args, names)
	}
	query += ` ORDER BY id`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bet pools: %w", err)
	}
	defer rows.Close()

	var pools []*models.BetPool
	for rows.Next() {
		pool, err := scanBetPool(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet pool: %w", err)
		}
		pools = append(pools, pool)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bet pools: %w", err)
	}
	return pools, nil
}

// Update writes every mutable column of a pool
func (r *BetPoolRepository) Update(ctx context.Context, pool *models.BetPool) error {
	query := `
		UPDATE bet_pools
		SET state = $1, minimum_bet = $2, title = $3, description = $4, base_value = $5,
		    winning_option_id = $6, message_id = $7, channel_id = $8, last_edited_at = $9,
		    closed_at = $10, resolved_at = $11
		WHERE id = $12 AND guild_id = $13
	`

	result, err := r.q.Exec(ctx, query,
		string(pool.State),
		pool.MinimumBet,
		pool.Title,
		pool.Description,
		pool.BaseValue,
		pool.WinningOptionID,
		pool.MessageID,
		pool.ChannelID,
		pool.LastEditedAt,
		pool.ClosedAt,
		pool.ResolvedAt,
		pool.ID,
		r.guildID,
	)
	if err != nil {
		return fmt.Errorf("failed to update bet pool %d: %w", pool.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("bet pool %d not found", pool.ID)
	}
	return nil
}

// ReplaceOptions deletes the pool's options and inserts the new set
func (r *BetPoolRepository) ReplaceOptions(ctx context.Context, poolID int64, options []*models.BetPoolOption) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM bet_pool_options WHERE pool_id = $1`, poolID); err != nil {
		return fmt.Errorf("failed to clear options for pool %d: %w", poolID, err)
	}

	query := `
		INSERT INTO bet_pool_options (pool_id, option_id, name, option_order)
		VALUES ($1, $2, $3, $4)
	`
	for _, option := range options {
		if _, err := r.q.Exec(ctx, query, poolID, option.ID, option.Name, option.Order); err != nil {
			return fmt.Errorf("failed to insert option %d for pool %d: %w", option.ID, poolID, err)
		}
		option.PoolID = poolID
	}
	return nil
}

// SaveBetter inserts or replaces a member's wager
func (r *BetPoolRepository) SaveBetter(ctx context.Context, better *models.Better) error {
	query := `
		INSERT INTO bet_pool_betters (pool_id, member_id, option_id, amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (pool_id, member_id)
		DO UPDATE SET option_id = EXCLUDED.option_id, amount = EXCLUDED.amount, updated_at = EXCLUDED.updated_at
	`

	_, err := r.q.Exec(ctx, query,
		better.PoolID,
		better.MemberID,
		better.OptionID,
		better.Amount,
		better.CreatedAt,
		better.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save wager of user %d in pool %d: %w", better.MemberID, better.PoolID, err)
	}
	return nil
}
