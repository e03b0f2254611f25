package repository

import (
	"context"
	"errors"
	"fmt"

	"guildcogs/models"

	"github.com/jackc/pgx/v5"
)

// PendingDraftRepository stores clan drafts and their staged registrants until approval
type PendingDraftRepository struct {
	q       queryable
	guildID int64
}

func newPendingDraftRepository(tx queryable, guildID int64) *PendingDraftRepository {
	return &PendingDraftRepository{
		q:       tx,
		guildID: guildID,
	}
}

const pendingClanColumns = `
	clan_id, guild_id, is_new, is_active, name, description, icon_url,
	leader_registrant_id, active_registrant_ids, clan_created_at, draft_created_at,
	submitted_by, message_id, channel_id, message_deleted
`

func scanPendingClan(row pgx.Row) (*models.PendingClanDraft, error) {
	clan := &models.Clan{}
	draft := models.PendingClanDraft{Clan: clan}
	err := row.Scan(
		&clan.ID,
		&clan.GuildID,
		&draft.IsNew,
		&clan.IsActive,
		&clan.Name,
		&clan.Description,
		&clan.IconURL,
		&clan.LeaderRegistrantID,
		&clan.ActiveRegistrantIDs,
		&clan.CreatedAt,
		&draft.DraftCreatedAt,
		&draft.SubmittedBy,
		&draft.MessageID,
		&draft.ChannelID,
		&draft.MessageDeleted,
	)
	if err != nil {
		return nil, err
	}
	clan.UpdatedAt = draft.DraftCreatedAt
	return &draft, nil
}

// GetClanDraft returns the pending draft of a clan, or nil
func (r *PendingDraftRepository) GetClanDraft(ctx context.Context, clanID string) (*models.PendingClanDraft, error) {
	query := `SELECT ` + pendingClanColumns + ` FROM pending_clan_drafts WHERE clan_id = $1 AND guild_id = $2`

	draft, err := scanPendingClan(r.q.QueryRow(ctx, query, clanID, r.guildID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending draft for clan %s: %w", clanID, err)
	}
	return draft, nil
}

// ListClanDrafts returns every pending draft of the guild, oldest first
func (r *PendingDraftRepository) ListClanDrafts(ctx context.Context) ([]*models.PendingClanDraft, error) {
	query := `
		SELECT ` + pendingClanColumns + `
		FROM pending_clan_drafts
		WHERE guild_id = $1
		ORDER BY draft_created_at, clan_id
	`

	rows, err := r.q.Query(ctx, query, r.guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending drafts: %w", err)
	}
	defer rows.Close()

	var drafts []*models.PendingClanDraft
	for rows.Next() {
		draft, err := scanPendingClan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending draft: %w", err)
		}
		drafts = append(drafts, draft)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pending drafts: %w", err)
	}
	return drafts, nil
}

// SaveClanDraft inserts or replaces the pending draft of a clan
func (r *PendingDraftRepository) SaveClanDraft(ctx context.Context, draft *models.PendingClanDraft) error {
	query := `
		INSERT INTO pending_clan_drafts
		(clan_id, guild_id, is_new, is_active, name, description, icon_url, leader_registrant_id,
		 active_registrant_ids, clan_created_at, draft_created_at, submitted_by, message_id, channel_id, message_deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (clan_id) DO UPDATE SET
			is_new = EXCLUDED.is_new,
			is_active = EXCLUDED.is_active,
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			icon_url = EXCLUDED.icon_url,
			leader_registrant_id = EXCLUDED.leader_registrant_id,
			active_registrant_ids = EXCLUDED.active_registrant_ids,
			clan_created_at = EXCLUDED.clan_created_at,
			draft_created_at = EXCLUDED.draft_created_at,
			submitted_by = EXCLUDED.submitted_by,
			message_id = EXCLUDED.message_id,
			channel_id = EXCLUDED.channel_id,
			message_deleted = EXCLUDED.message_deleted
		WHERE pending_clan_drafts.guild_id = EXCLUDED.guild_id
	`

	clan := draft.Clan
	roster := clan.ActiveRegistrantIDs
	if roster == nil {
		roster = []string{}
	}

	_, err := r.q.Exec(ctx, query,
		clan.ID,
		r.guildID,
		draft.IsNew,
		clan.IsActive,
		clan.Name,
		clan.Description,
		clan.IconURL,
		clan.LeaderRegistrantID,
		roster,
		clan.CreatedAt,
		draft.DraftCreatedAt,
		draft.SubmittedBy,
		draft.MessageID,
		draft.ChannelID,
		draft.MessageDeleted,
	)
	if err != nil {
		return fmt.Errorf("failed to save pending draft for clan %s: %w", clan.ID, err)
	}
	return nil
}

// DeleteClanDraft removes the pending draft of a clan
func (r *PendingDraftRepository) DeleteClanDraft(ctx context.Context, clanID string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM pending_clan_drafts WHERE clan_id = $1 AND guild_id = $2`, clanID, r.guildID); err != nil {
		return fmt.Errorf("failed to delete pending draft for clan %s: %w", clanID, err)
	}
	return nil
}

// ListRegistrantDrafts returns the registrants staged with a clan's draft
func (r *PendingDraftRepository) ListRegistrantDrafts(ctx context.Context, clanID string) ([]*models.PendingClanRegistrationDraft, error) {
	query := `
		SELECT registrant_id, guild_id, member_id, clan_id, created_at, last_joined_at, draft_created_at
		FROM pending_registrant_drafts
		WHERE guild_id = $1 AND clan_id = $2
		ORDER BY created_at, registrant_id
	`

	rows, err := r.q.Query(ctx, query, r.guildID, clanID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrant drafts for clan %s: %w", clanID, err)
	}
	defer rows.Close()

	var drafts []*models.PendingClanRegistrationDraft
	for rows.Next() {
		registrant := &models.ClanRegistrant{}
		draft := &models.PendingClanRegistrationDraft{Registrant: registrant}
		if err := rows.Scan(
			&registrant.ID,
			&registrant.GuildID,
			&registrant.MemberID,
			&registrant.ClanID,
			&registrant.CreatedAt,
			&registrant.LastJoinedAt,
			&draft.DraftCreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan registrant draft: %w", err)
		}
		drafts = append(drafts, draft)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate registrant drafts: %w", err)
	}
	return drafts, nil
}

// SaveRegistrantDraft inserts or replaces a staged registrant
func (r *PendingDraftRepository) SaveRegistrantDraft(ctx context.Context, draft *models.PendingClanRegistrationDraft) error {
	query := `
		INSERT INTO pending_registrant_drafts
		(registrant_id, guild_id, clan_id, member_id, created_at, last_joined_at, draft_created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (registrant_id) DO UPDATE SET
			clan_id = EXCLUDED.clan_id,
			member_id = EXCLUDED.member_id,
			created_at = EXCLUDED.created_at,
			last_joined_at = EXCLUDED.last_joined_at,
			draft_created_at = EXCLUDED.draft_created_at
		WHERE pending_registrant_drafts.guild_id = EXCLUDED.guild_id
	`

	registrant := draft.Registrant
	_, err := r.q.Exec(ctx, query,
		registrant.ID,
		r.guildID,
		registrant.ClanID,
		registrant.MemberID,
		registrant.CreatedAt,
		registrant.LastJoinedAt,
		draft.DraftCreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save registrant draft %s: %w", registrant.ID, err)
	}
	return nil
}

// DeleteRegistrantDrafts removes every registrant staged with a clan's draft
func (r *PendingDraftRepository) DeleteRegistrantDrafts(ctx context.Context, clanID string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM pending_registrant_drafts WHERE guild_id = $1 AND clan_id = $2`, r.guildID, clanID); err != nil {
		return fmt.Errorf("failed to delete registrant drafts for clan %s: %w", clanID, err)
	}
	return nil
}
