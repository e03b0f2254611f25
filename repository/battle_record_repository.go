package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"guildcogs/models"

	"github.com/jackc/pgx/v5"
)

// BattleRecordRepository stores reported battle results
type BattleRecordRepository struct {
	q       queryable
	guildID int64
}

func newBattleRecordRepository(tx queryable, guildID int64) *BattleRecordRepository {
	return &BattleRecordRepository{
		q:       tx,
		guildID: guildID,
	}
}

const battleRecordColumns = `
	id, guild_id,
	player1_registrant_id, player1_character, player1_games_won, player1_verified,
	player2_registrant_id, player2_character, player2_games_won, player2_verified,
	winner_id, message_id, channel_id, created_at, updated_at
`

func scanBattleRecord(row pgx.Row) (*models.ClanBattleRecord, error) {
	var record models.ClanBattleRecord
	err := row.Scan(
		&record.ID,
		&record.GuildID,
		&record.Player1RegistrantID,
		&record.Player1Character,
		&record.Player1GamesWon,
		&record.Player1Verified,
		&record.Player2RegistrantID,
		&record.Player2Character,
		&record.Player2GamesWon,
		&record.Player2Verified,
		&record.WinnerID,
		&record.MessageID,
		&record.ChannelID,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Create inserts a new record
func (r *BattleRecordRepository) Create(ctx context.Context, record *models.ClanBattleRecord) error {
	query := `
		INSERT INTO clan_battle_records
		(id, guild_id, player1_registrant_id, player1_character, player1_games_won, player1_verified,
		 player2_registrant_id, player2_character, player2_games_won, player2_verified,
		 winner_id, message_id, channel_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.q.Exec(ctx, query,
		record.ID,
		r.guildID,
		record.Player1RegistrantID,
		record.Player1Character,
		record.Player1GamesWon,
		record.Player1Verified,
		record.Player2RegistrantID,
		record.Player2Character,
		record.Player2GamesWon,
		record.Player2Verified,
		record.WinnerID,
		record.MessageID,
		record.ChannelID,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create battle record %s: %w", record.ID, err)
	}

	record.GuildID = r.guildID
	return nil
}

// Get returns a record, or nil when missing
func (r *BattleRecordRepository) Get(ctx context.Context, id string) (*models.ClanBattleRecord, error) {
	query := `SELECT ` + battleRecordColumns + ` FROM clan_battle_records WHERE id = $1 AND guild_id = $2`

	record, err := scanBattleRecord(r.q.QueryRow(ctx, query, id, r.guildID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get battle record %s: %w", id, err)
	}
	return record, nil
}

// Update writes every mutable column of a record
func (r *BattleRecordRepository) Update(ctx context.Context, record *models.ClanBattleRecord) error {
	query := `
		UPDATE clan_battle_records
		SET player1_character = $1, player1_games_won = $2, player1_verified = $3,
		    player2_character = $4, player2_games_won = $5, player2_verified = $6,
		    winner_id = $7, message_id = $8, channel_id = $9, updated_at = $10
		WHERE id = $11 AND guild_id = $12
	`

	result, err := r.q.Exec(ctx, query,
		record.Player1Character,
		record.Player1GamesWon,
		record.Player1Verified,
		record.Player2Character,
		record.Player2GamesWon,
		record.Player2Verified,
		record.WinnerID,
		record.MessageID,
		record.ChannelID,
		record.UpdatedAt,
		record.ID,
		r.guildID,
	)
	if err != nil {
		return fmt.Errorf("failed to update battle record %s: %w", record.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("battle record %s not found", record.ID)
	}
	return nil
}

// Delete removes a record
func (r *BattleRecordRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM clan_battle_records WHERE id = $1 AND guild_id = $2`, id, r.guildID); err != nil {
		return fmt.Errorf("failed to delete battle record %s: %w", id, err)
	}
	return nil
}

// ListLocked returns records verified by both players, created at or after since
func (r *BattleRecordRepository) ListLocked(ctx context.Context, since time.Time) ([]*models.ClanBattleRecord, error) {
	query := `
		SELECT ` + battleRecordColumns + `
		FROM clan_battle_records
		WHERE guild_id = $1 AND player1_verified AND player2_verified AND created_at >= $2
		ORDER BY created_at, id
	`

	rows, err := r.q.Query(ctx, query, r.guildID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list locked battle records: %w", err)
	}
	defer rows.Close()

	var records []*models.ClanBattleRecord
	for rows.Next() {
		record, err := scanBattleRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan battle record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate battle records: %w", err)
	}
	return records, nil
}
