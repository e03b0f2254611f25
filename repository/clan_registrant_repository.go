package repository

import (
	"context"
	"errors"
	"fmt"

	"guildcogs/models"

	"github.com/jackc/pgx/v5"
)

// ClanRegistrantRepository stores live registrants
type ClanRegistrantRepository struct {
	q       queryable
	guildID int64
}

func newClanRegistrantRepository(tx queryable, guildID int64) *ClanRegistrantRepository {
	return &ClanRegistrantRepository{
		q:       tx,
		guildID: guildID,
	}
}

const registrantColumns = `id, guild_id, member_id, clan_id, created_at, last_joined_at`

func scanRegistrant(row pgx.Row) (*models.ClanRegistrant, error) {
	var registrant models.ClanRegistrant
	err := row.Scan(
		&registrant.ID,
		&registrant.GuildID,
		&registrant.MemberID,
		&registrant.ClanID,
		&registrant.CreatedAt,
		&registrant.LastJoinedAt,
	)
	if err != nil {
		return nil, err
	}
	return &registrant, nil
}

func (r *ClanRegistrantRepository) collect(rows pgx.Rows) ([]*models.ClanRegistrant, error) {
	defer rows.Close()

	var registrants []*models.ClanRegistrant
	for rows.Next() {
		registrant, err := scanRegistrant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan registrant: %w", err)
		}
		registrants = append(registrants, registrant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate registrants: %w", err)
	}
	return registrants, nil
}

// Get returns a registrant, or nil when missing
func (r *ClanRegistrantRepository) Get(ctx context.Context, id string) (*models.ClanRegistrant, error) {
	query := `SELECT ` + registrantColumns + ` FROM clan_registrants WHERE id = $1 AND guild_id = $2`

	registrant, err := scanRegistrant(r.q.QueryRow(ctx, query, id, r.guildID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get registrant %s: %w", id, err)
	}
	return registrant, nil
}

// GetMany returns the registrants found among ids, keyed by id
func (r *ClanRegistrantRepository) GetMany(ctx context.Context, ids []string) (map[string]*models.ClanRegistrant, error) {
	result := make(map[string]*models.ClanRegistrant, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT ` + registrantColumns + ` FROM clan_registrants WHERE guild_id = $1 AND id = ANY($2)`

	rows, err := r.q.Query(ctx, query, r.guildID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get registrants: %w", err)
	}
	registrants, err := r.collect(rows)
	if err != nil {
		return nil, err
	}

	for _, registrant := range registrants {
		result[registrant.ID] = registrant
	}
	return result, nil
}

// ListByMember returns every registrant a member ever had, oldest first
func (r *ClanRegistrantRepository) ListByMember(ctx context.Context, memberID int64) ([]*models.ClanRegistrant, error) {
	query := `
		SELECT ` + registrantColumns + `
		FROM clan_registrants
		WHERE guild_id = $1 AND member_id = $2
		ORDER BY created_at, id
	`

	rows, err := r.q.Query(ctx, query, r.guildID, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrants of member %d: %w", memberID, err)
	}
	return r.collect(rows)
}

// ListAll returns every registrant of the guild
func (r *ClanRegistrantRepository) ListAll(ctx context.Context) ([]*models.ClanRegistrant, error) {
	query := `SELECT ` + registrantColumns + ` FROM clan_registrants WHERE guild_id = $1 ORDER BY created_at, id`

	rows, err := r.q.Query(ctx, query, r.guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrants: %w", err)
	}
	return r.collect(rows)
}

// Save inserts or overwrites a registrant
func (r *ClanRegistrantRepository) Save(ctx context.Context, registrant *models.ClanRegistrant) error {
	query := `
		INSERT INTO clan_registrants (id, guild_id, member_id, clan_id, created_at, last_joined_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			member_id = EXCLUDED.member_id,
			clan_id = EXCLUDED.clan_id,
			last_joined_at = EXCLUDED.last_joined_at
		WHERE clan_registrants.guild_id = EXCLUDED.guild_id
	`

	_, err := r.q.Exec(ctx, query,
		registrant.ID,
		r.guildID,
		registrant.MemberID,
		registrant.ClanID,
		registrant.CreatedAt,
		registrant.LastJoinedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save registrant %s: %w", registrant.ID, err)
	}

	registrant.GuildID = r.guildID
	return nil
}
