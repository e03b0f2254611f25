package service

import (
	"context"
	"fmt"

	"guildcogs/config"
	"guildcogs/events"
	"guildcogs/models"
)

// RecordBalanceChange records a balance history entry and publishes a BalanceChangeEvent.
// This is the single entry point for all balance changes in the system.
func RecordBalanceChange(ctx context.Context, uow UnitOfWork, history *models.BalanceHistory) error {
	if err := uow.BalanceHistoryRepository().Record(ctx, history); err != nil {
		return fmt.Errorf("failed to record balance history: %w", err)
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:          history.DiscordID,
		GuildID:         history.GuildID,
		OldBalance:      history.BalanceBefore,
		NewBalance:      history.BalanceAfter,
		TransactionType: history.TransactionType,
		ChangeAmount:    history.ChangeAmount,
	})
	return nil
}

// DefaultLedgerSettings builds guild settings from the configured defaults
func DefaultLedgerSettings(cfg *config.Config) models.LedgerSettings {
	return models.LedgerSettings{
		MaxBalance:        cfg.DefaultMaxBalance,
		PassiveChance:     cfg.DefaultPassiveChance,
		PassiveAmount:     cfg.DefaultPassiveAmount,
		PassiveDailyCap:   cfg.DefaultPassiveDailyCap,
		BonusChance:       cfg.DefaultBonusChance,
		BonusMultiplier:   cfg.DefaultBonusMultiplier,
		JackpotChance:     cfg.DefaultJackpotChance,
		JackpotMultiplier: cfg.DefaultJackpotMultiplier,
	}
}

// balanceChange describes why a ledger movement happened
type balanceChange struct {
	Type        models.TransactionType
	Metadata    map[string]any
	RelatedID   *int64
	RelatedType *models.RelatedType
}

// ledger applies the guild offset and max-balance ceiling inside an open unit of work
type ledger struct {
	uow      UnitOfWork
	guildID  int64
	settings models.LedgerSettings
}

func openLedger(ctx context.Context, uow UnitOfWork, guildID int64, cfg *config.Config) (*ledger, error) {
	settings, err := GetConfig(ctx, uow.ConfigStore(), GuildScope(guildID, ConfigKeyLedger), DefaultLedgerSettings(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger settings: %w", err)
	}
	return &ledger{uow: uow, guildID: guildID, settings: settings}, nil
}

// balance returns the effective balance
func (l *ledger) balance(ctx context.Context, memberID int64) (int64, error) {
	raw, err := l.uow.BankRepository().GetBalance(ctx, memberID)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return raw + l.settings.Offset, nil
}

// deposit credits amount, reducing it so the raw balance never passes MaxBalance.
// A balance already above the ceiling is left untouched.
func (l *ledger) deposit(ctx context.Context, memberID, amount int64, change balanceChange) (int64, error) {
	if amount < 0 {
		return 0, NewValidationError("amount must not be negative")
	}

	bank := l.uow.BankRepository()
	raw, err := bank.GetBalance(ctx, memberID)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}

	applied := min(amount, l.settings.MaxBalance-raw)
	if applied < 0 {
		applied = 0
	}

	newRaw := raw
	if applied > 0 {
		newRaw, err = bank.Deposit(ctx, memberID, applied)
		if err != nil {
			return 0, fmt.Errorf("failed to deposit: %w", err)
		}
	}

	if applied != amount {
		change.Metadata = withMetadata(change.Metadata, "requested_amount", amount)
	}
	if err := l.record(ctx, memberID, raw, newRaw, change); err != nil {
		return 0, err
	}
	return newRaw + l.settings.Offset, nil
}

// withdraw debits amount. Balances may go negative.
func (l *ledger) withdraw(ctx context.Context, memberID, amount int64, change balanceChange) (int64, error) {
	if amount < 0 {
		return 0, NewValidationError("amount must not be negative")
	}

	bank := l.uow.BankRepository()
	raw, err := bank.GetBalance(ctx, memberID)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}

	newRaw := raw
	if amount > 0 {
		newRaw, err = bank.Withdraw(ctx, memberID, amount)
		if err != nil {
			return 0, fmt.Errorf("failed to withdraw: %w", err)
		}
	}

	if err := l.record(ctx, memberID, raw, newRaw, change); err != nil {
		return 0, err
	}
	return newRaw + l.settings.Offset, nil
}

// set stores amount minus the offset as the raw balance, clamped at MaxBalance
func (l *ledger) set(ctx context.Context, memberID, amount int64, change balanceChange) (int64, error) {
	bank := l.uow.BankRepository()
	raw, err := bank.GetBalance(ctx, memberID)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}

	newRaw := min(amount-l.settings.Offset, l.settings.MaxBalance)
	if err := bank.SetBalance(ctx, memberID, newRaw); err != nil {
		return 0, fmt.Errorf("failed to set balance: %w", err)
	}

	if err := l.record(ctx, memberID, raw, newRaw, change); err != nil {
		return 0, err
	}
	return newRaw + l.settings.Offset, nil
}

func (l *ledger) record(ctx context.Context, memberID, rawBefore, rawAfter int64, change balanceChange) error {
	if rawBefore == rawAfter {
		return nil
	}
	return RecordBalanceChange(ctx, l.uow, &models.BalanceHistory{
		GuildID:             l.guildID,
		DiscordID:           memberID,
		BalanceBefore:       rawBefore + l.settings.Offset,
		BalanceAfter:        rawAfter + l.settings.Offset,
		ChangeAmount:        rawAfter - rawBefore,
		TransactionType:     change.Type,
		TransactionMetadata: change.Metadata,
		RelatedID:           change.RelatedID,
		RelatedType:         change.RelatedType,
	})
}

func withMetadata(metadata map[string]any, key string, value any) map[string]any {
	if metadata == nil {
		metadata = make(map[string]any)
	}
	metadata[key] = value
	return metadata
}
