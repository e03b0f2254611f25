package repository

import (
	"context"
	"fmt"
	"time"

	"guildcogs/models"
)

// PointAwardRepository stores moderator point awards. Awards are never updated.
type PointAwardRepository struct {
	q       queryable
	guildID int64
}

func newPointAwardRepository(tx queryable, guildID int64) *PointAwardRepository {
	return &PointAwardRepository{
		q:       tx,
		guildID: guildID,
	}
}

// Create inserts an award
func (r *PointAwardRepository) Create(ctx context.Context, award *models.ClanPointAward) error {
	query := `
		INSERT INTO clan_point_awards (id, guild_id, clan_registrant_id, points, reason, awarded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q.Exec(ctx, query,
		award.ID,
		r.guildID,
		award.ClanRegistrantID,
		award.Points,
		award.Reason,
		award.AwardedBy,
		award.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create point award for registrant %s: %w", award.ClanRegistrantID, err)
	}

	award.GuildID = r.guildID
	return nil
}

// List returns awards created at or after since
func (r *PointAwardRepository) List(ctx context.Context, since time.Time) ([]*models.ClanPointAward, error) {
	query := `
		SELECT id, guild_id, clan_registrant_id, points, reason, awarded_by, created_at
		FROM clan_point_awards
		WHERE guild_id = $1 AND created_at >= $2
		ORDER BY created_at, id
	`

	rows, err := r.q.Query(ctx, query, r.guildID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list point awards: %w", err)
	}
	defer rows.Close()

	var awards []*models.ClanPointAward
	for rows.Next() {
		var award models.ClanPointAward
		if err := rows.Scan(
			&award.ID,
			&award.GuildID,
			&award.ClanRegistrantID,
			&award.Points,
			&award.Reason,
			&award.AwardedBy,
			&award.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan point award: %w", err)
		}
		awards = append(awards, &award)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate point awards: %w", err)
	}
	return awards, nil
}
