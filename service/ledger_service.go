package service

import (
	"context"
	"fmt"

	"guildcogs/config"
	"guildcogs/models"
)

type ledgerService struct {
	uowFactory UnitOfWorkFactory
	cfg        *config.Config
}

// NewLedgerService creates a new ledger service
func NewLedgerService(uowFactory UnitOfWorkFactory, cfg *config.Config) LedgerService {
	return &ledgerService{
		uowFactory: uowFactory,
		cfg:        cfg,
	}
}

func (s *ledgerService) GetBalance(ctx context.Context, guildID, memberID int64) (int64, error) {
	var balance int64
	err := s.withLedger(ctx, guildID, func(l *ledger) error {
		var err error
		balance, err = l.balance(ctx, memberID)
		return err
	})
	return balance, err
}

func (s *ledgerService) AddBalance(ctx context.Context, guildID, memberID, amount int64) (int64, error) {
	var balance int64
	err := s.withLedger(ctx, guildID, func(l *ledger) error {
		var err error
		balance, err = l.deposit(ctx, memberID, amount, balanceChange{Type: models.TransactionTypeBalanceAdd})
		return err
	})
	return balance, err
}

func (s *ledgerService) RemoveBalance(ctx context.Context, guildID, memberID, amount int64) (int64, error) {
	var balance int64
	err := s.withLedger(ctx, guildID, func(l *ledger) error {
		var err error
		balance, err = l.withdraw(ctx, memberID, amount, balanceChange{Type: models.TransactionTypeBalanceRemove})
		return err
	})
	return balance, err
}

func (s *ledgerService) SetBalance(ctx context.Context, guildID, memberID, amount int64) (int64, error) {
	var balance int64
	err := s.withLedger(ctx, guildID, func(l *ledger) error {
		var err error
		balance, err = l.set(ctx, memberID, amount, balanceChange{Type: models.TransactionTypeBalanceSet})
		return err
	})
	return balance, err
}

// Leaderboard returns effective balances, highest first
func (s *ledgerService) Leaderboard(ctx context.Context, guildID int64, limit int) ([]*models.LeaderboardEntry, error) {
	if limit <= 0 {
		return nil, NewValidationError("limit must be positive")
	}

	var entries []*models.LeaderboardEntry
	err := s.withLedger(ctx, guildID, func(l *ledger) error {
		accounts, err := l.uow.BankRepository().Leaderboard(ctx, limit)
		if err != nil {
			return fmt.Errorf("failed to get leaderboard: %w", err)
		}
		entries = make([]*models.LeaderboardEntry, 0, len(accounts))
		for _, account := range accounts {
			entries = append(entries, &models.LeaderboardEntry{
				DiscordID: account.DiscordID,
				Balance:   account.RawBalance + l.settings.Offset,
			})
		}
		return nil
	})
	return entries, err
}

func (s *ledgerService) History(ctx context.Context, guildID, memberID int64, limit int) ([]*models.BalanceHistory, error) {
	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	history, err := uow.BalanceHistoryRepository().GetByUser(ctx, memberID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance history: %w", err)
	}
	return history, nil
}

func (s *ledgerService) GetSettings(ctx context.Context, guildID int64) (*models.LedgerSettings, error) {
	var settings models.LedgerSettings
	err := s.withLedger(ctx, guildID, func(l *ledger) error {
		settings = l.settings
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// UpdateSettings applies update to the stored settings under the guild's ledger lock
func (s *ledgerService) UpdateSettings(ctx context.Context, guildID int64, actor Actor, update func(*models.LedgerSettings)) (*models.LedgerSettings, error) {
	if !actor.Moderator {
		return nil, NewPermissionError("only moderators can change economy settings")
	}

	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	scope := GuildScope(guildID, ConfigKeyLedger)
	store := uow.ConfigStore()
	if err := store.Lock(ctx, scope); err != nil {
		return nil, fmt.Errorf("failed to lock ledger settings: %w", err)
	}

	settings, err := GetConfig(ctx, store, scope, DefaultLedgerSettings(s.cfg))
	if err != nil {
		return nil, err
	}
	update(&settings)
	if err := validateLedgerSettings(settings); err != nil {
		return nil, err
	}
	if err := SetConfig(ctx, store, scope, settings); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &settings, nil
}

func (s *ledgerService) withLedger(ctx context.Context, guildID int64, fn func(l *ledger) error) error {
	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	l, err := openLedger(ctx, uow, guildID, s.cfg)
	if err != nil {
		return err
	}
	if err := fn(l); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func validateLedgerSettings(s models.LedgerSettings) error {
	if s.MaxBalance < 1 {
		return NewValidationError("max balance must be at least 1")
	}
	for name, chance := range map[string]float64{
		"passive chance": s.PassiveChance,
		"bonus chance":   s.BonusChance,
		"jackpot chance": s.JackpotChance,
	} {
		if chance < 0 || chance > 1 {
			return NewValidationError("%s must be between 0 and 1", name)
		}
	}
	if s.PassiveAmount < 0 {
		return NewValidationError("passive amount must not be negative")
	}
	if s.PassiveDailyCap < 0 {
		return NewValidationError("passive daily cap must not be negative")
	}
	if s.BonusMultiplier < 1 || s.JackpotMultiplier < 1 {
		return NewValidationError("multipliers must be at least 1")
	}
	return nil
}
