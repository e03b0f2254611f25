package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"guildcogs/database"
	"guildcogs/service"

	"github.com/jackc/pgx/v5"
)

// ConfigStore persists scoped JSON values in config_entries
type ConfigStore struct {
	q queryable
}

// NewConfigStore creates a config store outside of a transaction
func NewConfigStore(db *database.DB) *ConfigStore {
	return &ConfigStore{q: db.Pool}
}

func newConfigStore(tx queryable) *ConfigStore {
	return &ConfigStore{q: tx}
}

// GetRaw returns the stored value, or nil when unset
func (s *ConfigStore) GetRaw(ctx context.Context, scope service.ConfigScope) (json.RawMessage, error) {
	query := `
		SELECT value
		FROM config_entries
		WHERE scope_kind = $1 AND guild_id = $2 AND subject_id = $3 AND key = $4
	`

	var value []byte
	err := s.q.QueryRow(ctx, query, string(scope.Kind), scope.GuildID, scope.SubjectID, scope.Key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get config %s: %w", scope.LockKey(), err)
	}

	return json.RawMessage(value), nil
}

// SetRaw upserts a value
func (s *ConfigStore) SetRaw(ctx context.Context, scope service.ConfigScope, value json.RawMessage) error {
	query := `
		INSERT INTO config_entries (scope_kind, guild_id, subject_id, key, value)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (scope_kind, guild_id, subject_id, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`

	if _, err := s.q.Exec(ctx, query, string(scope.Kind), scope.GuildID, scope.SubjectID, scope.Key, []byte(value)); err != nil {
		return fmt.Errorf("failed to set config %s: %w", scope.LockKey(), err)
	}
	return nil
}

// ClearRaw deletes a value
func (s *ConfigStore) ClearRaw(ctx context.Context, scope service.ConfigScope) error {
	query := `
		DELETE FROM config_entries
		WHERE scope_kind = $1 AND guild_id = $2 AND subject_id = $3 AND key = $4
	`

	if _, err := s.q.Exec(ctx, query, string(scope.Kind), scope.GuildID, scope.SubjectID, scope.Key); err != nil {
		return fmt.Errorf("failed to clear config %s: %w", scope.LockKey(), err)
	}
	return nil
}

// Lock takes an advisory lock on the scope for the rest of the transaction
func (s *ConfigStore) Lock(ctx context.Context, scope service.ConfigScope) error {
	return advisoryLock(ctx, s.q, scope.LockKey())
}
