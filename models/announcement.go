package models

import (
	"time"
)

// Announcement is a message posted on a cron schedule
type Announcement struct {
	ID        int64     `db:"id"`
	GuildID   int64     `db:"guild_id"`
	ChannelID int64     `db:"channel_id"`
	CronSpec  string    `db:"cron_spec"`
	Message   string    `db:"message"`
	Enabled   bool      `db:"enabled"`
	CreatedBy int64     `db:"created_by"`
	CreatedAt time.Time `db:"created_at"`
}
