package repository

import (
	"context"
	"errors"
	"fmt"

	"guildcogs/models"

	"github.com/jackc/pgx/v5"
)

// MemberRepository stores each member's registrant history
type MemberRepository struct {
	q       queryable
	guildID int64
}

func newMemberRepository(tx queryable, guildID int64) *MemberRepository {
	return &MemberRepository{
		q:       tx,
		guildID: guildID,
	}
}

// Get returns nil when the member never joined a clan
func (r *MemberRepository) Get(ctx context.Context, memberID int64) (*models.Member, error) {
	query := `
		SELECT guild_id, member_id, clan_registrant_ids
		FROM clan_members
		WHERE guild_id = $1 AND member_id = $2
	`

	var member models.Member
	err := r.q.QueryRow(ctx, query, r.guildID, memberID).Scan(
		&member.GuildID,
		&member.MemberID,
		&member.ClanRegistrantIDs,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member %d: %w", memberID, err)
	}
	return &member, nil
}

// Save inserts or overwrites a member
func (r *MemberRepository) Save(ctx context.Context, member *models.Member) error {
	query := `
		INSERT INTO clan_members (guild_id, member_id, clan_registrant_ids)
		VALUES ($1, $2, $3)
		ON CONFLICT (guild_id, member_id)
		DO UPDATE SET clan_registrant_ids = EXCLUDED.clan_registrant_ids
	`

	ids := member.ClanRegistrantIDs
	if ids == nil {
		ids = []string{}
	}

	if _, err := r.q.Exec(ctx, query, r.guildID, member.MemberID, ids); err != nil {
		return fmt.Errorf("failed to save member %d: %w", member.MemberID, err)
	}

	member.GuildID = r.guildID
	return nil
}
