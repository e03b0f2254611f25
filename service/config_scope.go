package service

import (
	"context"
	"encoding/json"
	"fmt"
)

// ScopeKind selects the owner of a config value
type ScopeKind string

const (
	ScopeGuild  ScopeKind = "guild"
	ScopeMember ScopeKind = "member"
	ScopeUser   ScopeKind = "user"
)

// Config keys
const (
	ConfigKeyLedger        = "ledger"
	ConfigKeyPassiveIncome = "passive_income"
)

// Collection lock names
const (
	LockBetPools      = "bet_pools"
	LockClans         = "clans"
	LockBattleRecords = "battle_records"
	LockAnnouncements = "announcements"
)

// ConfigScope addresses one value in the ConfigStore
type ConfigScope struct {
	Kind      ScopeKind
	GuildID   int64
	SubjectID int64
	Key       string
}

// GuildScope addresses a guild-wide value
func GuildScope(guildID int64, key string) ConfigScope {
	return ConfigScope{Kind: ScopeGuild, GuildID: guildID, Key: key}
}

// MemberScope addresses a value of one member within a guild
func MemberScope(guildID, memberID int64, key string) ConfigScope {
	return ConfigScope{Kind: ScopeMember, GuildID: guildID, SubjectID: memberID, Key: key}
}

// UserScope addresses a global per-user value
func UserScope(userID int64, key string) ConfigScope {
	return ConfigScope{Kind: ScopeUser, SubjectID: userID, Key: key}
}

// LockKey names the lock guarding this scope
func (s ConfigScope) LockKey() string {
	return fmt.Sprintf("config:%s:%d:%d:%s", s.Kind, s.GuildID, s.SubjectID, s.Key)
}

// CollectionLockKey names the lock guarding a guild collection
func CollectionLockKey(guildID int64, collection string) string {
	return fmt.Sprintf("guild:%d:%s", guildID, collection)
}

// GetConfig decodes a stored value over def, so fields missing from storage keep their defaults
func GetConfig[T any](ctx context.Context, store ConfigStore, scope ConfigScope, def T) (T, error) {
	raw, err := store.GetRaw(ctx, scope)
	if err != nil {
		return def, fmt.Errorf("failed to read %s: %w", scope.Key, err)
	}
	if raw == nil {
		return def, nil
	}

	value := def
	if err := json.Unmarshal(raw, &value); err != nil {
		return def, fmt.Errorf("failed to decode %s: %w", scope.Key, err)
	}
	return value, nil
}

// SetConfig encodes and stores a value
func SetConfig[T any](ctx context.Context, store ConfigStore, scope ConfigScope, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", scope.Key, err)
	}
	if err := store.SetRaw(ctx, scope, raw); err != nil {
		return fmt.Errorf("failed to write %s: %w", scope.Key, err)
	}
	return nil
}
