package repository

import (
	"context"
	"errors"
	"fmt"

	"guildcogs/models"

	"github.com/jackc/pgx/v5"
)

// AnnouncementRepository stores scheduled announcements
type AnnouncementRepository struct {
	q       queryable
	guildID int64
}

func newAnnouncementRepository(tx queryable, guildID int64) *AnnouncementRepository {
	return &AnnouncementRepository{
		q:       tx,
		guildID: guildID,
	}
}

const announcementColumns = `id, guild_id, channel_id, cron_spec, message, enabled, created_by, created_at`

func scanAnnouncement(row pgx.Row) (*models.Announcement, error) {
	var a models.Announcement
	err := row.Scan(
		&a.ID,
		&a.GuildID,
		&a.ChannelID,
		&a.CronSpec,
		&a.Message,
		&a.Enabled,
		&a.CreatedBy,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func collectAnnouncements(rows pgx.Rows) ([]*models.Announcement, error) {
	defer rows.Close()

	var announcements []*models.Announcement
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan announcement: %w", err)
		}
		announcements = append(announcements, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate announcements: %w", err)
	}
	return announcements, nil
}

// Create inserts an announcement and fills in its ID and creation time
func (r *AnnouncementRepository) Create(ctx context.Context, announcement *models.Announcement) error {
	query := `
		INSERT INTO announcements (guild_id, channel_id, cron_spec, message, enabled, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		r.guildID,
		announcement.ChannelID,
		announcement.CronSpec,
		announcement.Message,
		announcement.Enabled,
		announcement.CreatedBy,
	).Scan(&announcement.ID, &announcement.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create announcement: %w", err)
	}

	announcement.GuildID = r.guildID
	return nil
}

// Get returns an announcement of the guild, or nil
func (r *AnnouncementRepository) Get(ctx context.Context, id int64) (*models.Announcement, error) {
	query := `SELECT ` + announcementColumns + ` FROM announcements WHERE id = $1 AND guild_id = $2`

	a, err := scanAnnouncement(r.q.QueryRow(ctx, query, id, r.guildID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get announcement %d: %w", id, err)
	}
	return a, nil
}

// Delete removes an announcement
func (r *AnnouncementRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM announcements WHERE id = $1 AND guild_id = $2`, id, r.guildID); err != nil {
		return fmt.Errorf("failed to delete announcement %d: %w", id, err)
	}
	return nil
}

// SetEnabled toggles whether an announcement is scheduled
func (r *AnnouncementRepository) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	result, err := r.q.Exec(ctx, `UPDATE announcements SET enabled = $1 WHERE id = $2 AND guild_id = $3`, enabled, id, r.guildID)
	if err != nil {
		return fmt.Errorf("failed to update announcement %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("announcement %d not found", id)
	}
	return nil
}

// ListByGuild returns the guild's announcements, oldest first
func (r *AnnouncementRepository) ListByGuild(ctx context.Context) ([]*models.Announcement, error) {
	query := `SELECT ` + announcementColumns + ` FROM announcements WHERE guild_id = $1 ORDER BY id`

	rows, err := r.q.Query(ctx, query, r.guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list announcements: %w", err)
	}
	return collectAnnouncements(rows)
}

// ListEnabled returns enabled announcements of every guild
func (r *AnnouncementRepository) ListEnabled(ctx context.Context) ([]*models.Announcement, error) {
	query := `SELECT ` + announcementColumns + ` FROM announcements WHERE enabled ORDER BY id`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list enabled announcements: %w", err)
	}
	return collectAnnouncements(rows)
}
