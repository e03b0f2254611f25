package repository

import (
	"context"
	"errors"
	"fmt"

	"guildcogs/models"

	"github.com/jackc/pgx/v5"
)

// ClanRepository stores live clans
type ClanRepository struct {
	q       queryable
	guildID int64
}

func newClanRepository(tx queryable, guildID int64) *ClanRepository {
	return &ClanRepository{
		q:       tx,
		guildID: guildID,
	}
}

const clanColumns = `
	id, guild_id, is_active, name, description, icon_url,
	leader_registrant_id, active_registrant_ids, created_at, updated_at
`

func scanClan(row pgx.Row) (*models.Clan, error) {
	var clan models.Clan
	err := row.Scan(
		&clan.ID,
		&clan.GuildID,
		&clan.IsActive,
		&clan.Name,
		&clan.Description,
		&clan.IconURL,
		&clan.LeaderRegistrantID,
		&clan.ActiveRegistrantIDs,
		&clan.CreatedAt,
		&clan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &clan, nil
}

// Get returns a clan, or nil when missing
func (r *ClanRepository) Get(ctx context.Context, id string) (*models.Clan, error) {
	query := `SELECT ` + clanColumns + ` FROM clans WHERE id = $1 AND guild_id = $2`

	clan, err := scanClan(r.q.QueryRow(ctx, query, id, r.guildID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get clan %s: %w", id, err)
	}
	return clan, nil
}

// List returns every clan of the guild, active or not
func (r *ClanRepository) List(ctx context.Context) ([]*models.Clan, error) {
	query := `SELECT ` + clanColumns + ` FROM clans WHERE guild_id = $1 ORDER BY name, id`

	rows, err := r.q.Query(ctx, query, r.guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list clans: %w", err)
	}
	defer rows.Close()

	var clans []*models.Clan
	for rows.Next() {
		clan, err := scanClan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan clan: %w", err)
		}
		clans = append(clans, clan)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate clans: %w", err)
	}
	return clans, nil
}

// Save inserts or overwrites a clan
func (r *ClanRepository) Save(ctx context.Context, clan *models.Clan) error {
	query := `
		INSERT INTO clans
		(id, guild_id, is_active, name, description, icon_url, leader_registrant_id, active_registrant_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			is_active = EXCLUDED.is_active,
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			icon_url = EXCLUDED.icon_url,
			leader_registrant_id = EXCLUDED.leader_registrant_id,
			active_registrant_ids = EXCLUDED.active_registrant_ids,
			updated_at = EXCLUDED.updated_at
		WHERE clans.guild_id = EXCLUDED.guild_id
	`

	roster := clan.ActiveRegistrantIDs
	if roster == nil {
		roster = []string{}
	}

	_, err := r.q.Exec(ctx, query,
		clan.ID,
		r.guildID,
		clan.IsActive,
		clan.Name,
		clan.Description,
		clan.IconURL,
		clan.LeaderRegistrantID,
		roster,
		clan.CreatedAt,
		clan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save clan %s: %w", clan.ID, err)
	}

	clan.GuildID = r.guildID
	return nil
}
