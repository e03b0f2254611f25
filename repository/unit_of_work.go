package repository

import (
	"context"
	"errors"
	"fmt"

	"guildcogs/database"
	"guildcogs/events"
	"guildcogs/service"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	guildID          int64
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus

	configStore        service.ConfigStore
	bankRepo           service.BankRepository
	balanceHistoryRepo service.BalanceHistoryRepository
	betPoolRepo        service.BetPoolRepository
	clanRepo           service.ClanRepository
	registrantRepo     service.ClanRegistrantRepository
	memberRepo         service.MemberRepository
	pendingDraftRepo   service.PendingDraftRepository
	battleRecordRepo   service.BattleRecordRepository
	pointAwardRepo     service.PointAwardRepository
	announcementRepo   service.AnnouncementRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

// CreateForGuild returns a unit of work whose repositories only see rows of guildID
func (f *unitOfWorkFactory) CreateForGuild(guildID int64) service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		guildID:          guildID,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	u.configStore = newConfigStore(tx)
	u.bankRepo = newBankRepository(tx, u.guildID)
	u.balanceHistoryRepo = newBalanceHistoryRepository(tx, u.guildID)
	u.betPoolRepo = newBetPoolRepository(tx, u.guildID)
	u.clanRepo = newClanRepository(tx, u.guildID)
	u.registrantRepo = newClanRegistrantRepository(tx, u.guildID)
	u.memberRepo = newMemberRepository(tx, u.guildID)
	u.pendingDraftRepo = newPendingDraftRepository(tx, u.guildID)
	u.battleRecordRepo = newBattleRecordRepository(tx, u.guildID)
	u.pointAwardRepo = newPointAwardRepository(tx, u.guildID)
	u.announcementRepo = newAnnouncementRepository(tx, u.guildID)

	return nil
}

// Commit commits the transaction and then flushes buffered events
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	u.tx = nil

	if err := u.transactionalBus.Flush(u.ctx); err != nil {
		return fmt.Errorf("failed to flush events: %w", err)
	}

	return nil
}

// Rollback rolls back the transaction and discards buffered events.
// It is safe to call after Commit.
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	err := u.tx.Rollback(u.ctx)
	u.tx = nil
	u.transactionalBus.Discard()

	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

// Lock takes a transaction-scoped advisory lock on key
func (u *unitOfWork) Lock(ctx context.Context, key string) error {
	if u.tx == nil {
		panic("unit of work not started - call Begin() first")
	}
	return advisoryLock(ctx, u.tx, key)
}

func advisoryLock(ctx context.Context, q queryable, key string) error {
	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
		return fmt.Errorf("failed to acquire lock %q: %w", key, err)
	}
	return nil
}

func (u *unitOfWork) ConfigStore() service.ConfigStore {
	if u.configStore == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.configStore
}

func (u *unitOfWork) BankRepository() service.BankRepository {
	if u.bankRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.bankRepo
}

func (u *unitOfWork) BalanceHistoryRepository() service.BalanceHistoryRepository {
	if u.balanceHistoryRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.balanceHistoryRepo
}

func (u *unitOfWork) BetPoolRepository() service.BetPoolRepository {
	if u.betPoolRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.betPoolRepo
}

func (u *unitOfWork) ClanRepository() service.ClanRepository {
	if u.clanRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.clanRepo
}

func (u *unitOfWork) ClanRegistrantRepository() service.ClanRegistrantRepository {
	if u.registrantRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.registrantRepo
}

func (u *unitOfWork) MemberRepository() service.MemberRepository {
	if u.memberRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.memberRepo
}

func (u *unitOfWork) PendingDraftRepository() service.PendingDraftRepository {
	if u.pendingDraftRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.pendingDraftRepo
}

func (u *unitOfWork) BattleRecordRepository() service.BattleRecordRepository {
	if u.battleRecordRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.battleRecordRepo
}

func (u *unitOfWork) PointAwardRepository() service.PointAwardRepository {
	if u.pointAwardRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.pointAwardRepo
}

func (u *unitOfWork) AnnouncementRepository() service.AnnouncementRepository {
	if u.announcementRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.announcementRepo
}

// EventBus returns the transactional bus, flushed only on successful commit
func (u *unitOfWork) EventBus() service.EventPublisher {
	return u.transactionalBus
}
