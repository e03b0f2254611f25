package service

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"

	"guildcogs/config"
	"guildcogs/events"
	"guildcogs/models"

	log "github.com/sirupsen/logrus"
)

const (
	maxPoolTitleLength       = 100
	maxPoolDescriptionLength = 1000
	maxPoolOptions           = 25
	maxPoolOptionLength      = 80
)

type betPoolService struct {
	uowFactory UnitOfWorkFactory
	cfg        *config.Config
	now        func() time.Time
}

// NewBetPoolService creates a new bet pool service
func NewBetPoolService(uowFactory UnitOfWorkFactory, cfg *config.Config) BetPoolService {
	return &betPoolService{
		uowFactory: uowFactory,
		cfg:        cfg,
		now:        time.Now,
	}
}

// poolMutation runs inside the guild's bet pool lock with a freshly read pool
type poolMutation func(uow UnitOfWork, detail *models.BetPoolDetail) error

// mutate performs one locked read-modify-write cycle on a pool
func (s *betPoolService) mutate(ctx context.Context, guildID, poolID int64, fn poolMutation) (*models.BetPoolDetail, error) {
	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.Lock(ctx, CollectionLockKey(guildID, LockBetPools)); err != nil {
		return nil, fmt.Errorf("failed to lock bet pools: %w", err)
	}

	detail, err := uow.BetPoolRepository().GetDetail(ctx, poolID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet pool: %w", err)
	}
	if detail == nil {
		return nil, NewNotFoundError("bet pool", poolID)
	}

	if err := fn(uow, detail); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return detail, nil
}

func (s *betPoolService) CreatePool(ctx context.Context, guildID int64, actor Actor, title string) (*models.BetPoolDetail, error) {
	title = strings.TrimSpace(title)
	if err := validatePoolTitle(title); err != nil {
		return nil, err
	}

	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.Lock(ctx, CollectionLockKey(guildID, LockBetPools)); err != nil {
		return nil, fmt.Errorf("failed to lock bet pools: %w", err)
	}

	now := s.now()
	pool := &models.BetPool{
		GuildID:      guildID,
		State:        models.BetPoolStateConfig,
		AuthorID:     actor.ID,
		MinimumBet:   1,
		Title:        title,
		CreatedAt:    now,
		LastEditedAt: now,
	}
	if err := uow.BetPoolRepository().Create(ctx, pool); err != nil {
		return nil, fmt.Errorf("failed to create bet pool: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"guildID": guildID,
		"poolID":  pool.ID,
		"author":  actor.ID,
	}).Info("Bet pool created")

	return &models.BetPoolDetail{Pool: pool}, nil
}

func (s *betPoolService) UpdateDetails(ctx context.Context, guildID, poolID int64, actor Actor, title, description string) (*models.BetPoolDetail, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if err := validatePoolTitle(title); err != nil {
		return nil, err
	}
	if len(description) > maxPoolDescriptionLength {
		return nil, NewValidationError("description must be at most %d characters", maxPoolDescriptionLength)
	}

	return s.mutate(ctx, guildID, poolID, func(uow UnitOfWork, detail *models.BetPoolDetail) error {
		if err := requireConfigurable(detail.Pool, actor); err != nil {
			return err
		}
		detail.Pool.Title = title
		detail.Pool.Description = description
		return s.savePool(ctx, uow, detail.Pool)
	})
}

func (s *betPoolService) SetOptions(ctx context.Context, guildID, poolID int64, actor Actor, names []string) (*models.BetPoolDetail, error) {
	options, err := buildPoolOptions(poolID, names)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, guildID, poolID, func(uow UnitOfWork, detail *models.BetPoolDetail) error {
		if err := requireConfigurable(detail.Pool, actor); err != nil {
			return err
		}
		if err := uow.BetPoolRepository().ReplaceOptions(ctx, poolID, options); err != nil {
			return fmt.Errorf("failed to save options: %w", err)
		}
		detail.Options = options
		return s.savePool(ctx, uow, detail.Pool)
	})
}

func (s *betPoolService) SetMinimumBet(ctx context.Context, guildID, poolID int64, actor Actor, minimum int64) (*models.BetPoolDetail, error) {
	if minimum < 1 {
		return nil, NewValidationError("minimum bet must be at least 1")
	}

	return s.mutate(ctx, guildID, poolID, func(uow UnitOfWork, detail *models.BetPoolDetail) error {
		if err := requireConfigurable(detail.Pool, actor); err != nil {
			return err
		}
		detail.Pool.MinimumBet = minimum
		return s.savePool(ctx, uow, detail.Pool)
	})
}

// ToggleOpen moves config to open, open to closed, and closed back to open
func (s *betPoolService) ToggleOpen(ctx context.Context, guildID, poolID int64, actor Actor) (*models.BetPoolDetail, error) {
	return s.mutate(ctx, guildID, poolID, func(uow UnitOfWork, detail *models.BetPoolDetail) error {
		pool := detail.Pool
		if pool.AuthorID != actor.ID {
			return NewPermissionError("only the pool author can open or close it")
		}

		oldState := pool.State
		switch pool.State {
		case models.BetPoolStateConfig:
			if len(detail.Options) < 2 {
				return NewValidationError("a pool needs at least 2 options before it can open")
			}
			if pool.Title == "" {
				return NewValidationError("a pool needs a title before it can open")
			}
			pool.State = models.BetPoolStateOpen
		case models.BetPoolStateOpen:
			now := s.now()
			pool.State = models.BetPoolStateClosed
			pool.ClosedAt = &now
		case models.BetPoolStateClosed:
			pool.State = models.BetPoolStateOpen
			pool.ClosedAt = nil
		default:
			return NewValidationError("pool is %s and can no longer change", pool.State)
		}

		if err := s.savePool(ctx, uow, pool); err != nil {
			return err
		}
		publishPoolStateChange(uow, pool, oldState)
		return nil
	})
}

// PlaceBet withdraws amount from the member and adds it to their wager.
// A member's option is fixed by their first wager.
func (s *betPoolService) PlaceBet(ctx context.Context, guildID, poolID, memberID int64, optionID int, amount int64) (*models.BetPoolDetail, error) {
	if amount <= 0 {
		return nil, NewValidationError("bet amount must be positive")
	}

	return s.mutate(ctx, guildID, poolID, func(uow UnitOfWork, detail *models.BetPoolDetail) error {
		pool := detail.Pool
		if pool.State != models.BetPoolStateOpen {
			return NewValidationError("pool is not open for bets")
		}

		option := detail.Option(optionID)
		if option == nil {
			return NewValidationError("option %d does not exist", optionID)
		}

		better := detail.Better(memberID)
		if better != nil && better.OptionID != optionID {
			existing := detail.Option(better.OptionID)
			name := fmt.Sprint(better.OptionID)
			if existing != nil {
				name = existing.Name
			}
			return NewValidationError("you already bet on %s", name)
		}
		if better == nil && amount < pool.MinimumBet {
			return NewValidationError("minimum bet is %d", pool.MinimumBet)
		}

		l, err := openLedger(ctx, uow, guildID, s.cfg)
		if err != nil {
			return err
		}
		balance, err := l.balance(ctx, memberID)
		if err != nil {
			return err
		}
		if amount > math.MaxInt64-detail.Total() {
			return NewValidationError("pool value cannot grow by %d", amount)
		}
		if balance < amount {
			return NewValidationError("insufficient balance: you have %d but tried to bet %d", balance, amount)
		}

		relatedType := models.RelatedTypeBetPool
		if _, err := l.withdraw(ctx, memberID, amount, balanceChange{
			Type:        models.TransactionTypeBetPoolWager,
			Metadata:    map[string]any{"option_id": optionID, "option": option.Name},
			RelatedID:   &pool.ID,
			RelatedType: &relatedType,
		}); err != nil {
			return err
		}

		now := s.now()
		if better == nil {
			better = &models.Better{
				PoolID:    pool.ID,
				MemberID:  memberID,
				OptionID:  optionID,
				CreatedAt: now,
			}
			detail.Betters = append(detail.Betters, better)
		}
		better.Amount += amount
		better.UpdatedAt = now

		if err := uow.BetPoolRepository().SaveBetter(ctx, better); err != nil {
			return fmt.Errorf("failed to save wager: %w", err)
		}

		uow.EventBus().Publish(events.BetPoolWagerPlacedEvent{
			PoolID:    pool.ID,
			GuildID:   guildID,
			MemberID:  memberID,
			OptionID:  optionID,
			Amount:    amount,
			MessageID: pool.MessageID,
			ChannelID: pool.ChannelID,
		})
		return nil
	})
}

// AdjustPool adds amount to the base value, clamping at zero.
// It returns the delta actually applied.
func (s *betPoolService) AdjustPool(ctx context.Context, guildID, poolID int64, actor Actor, amount int64) (int64, *models.BetPoolDetail, error) {
	var applied int64
	detail, err := s.mutate(ctx, guildID, poolID, func(uow UnitOfWork, detail *models.BetPoolDetail) error {
		pool := detail.Pool
		if pool.AuthorID != actor.ID && !actor.Moderator {
			return NewPermissionError("only the pool author or a moderator can adjust the pool")
		}
		if pool.State.IsTerminal() {
			return NewValidationError("pool is %s and can no longer change", pool.State)
		}

		if amount > 0 && amount > math.MaxInt64-detail.Total() {
			return NewValidationError("pool value cannot grow by %d", amount)
		}
		newValue := max(pool.BaseValue+amount, 0)
		applied = newValue - pool.BaseValue
		pool.BaseValue = newValue
		return s.savePool(ctx, uow, pool)
	})
	if err != nil {
		return 0, nil, err
	}
	return applied, detail, nil
}

// Resolve pays every better on the winning option floor(poolTotal * amount / winningTotal)
func (s *betPoolService) Resolve(ctx context.Context, guildID, poolID int64, actor Actor, winningOptionID int) (*models.BetPoolSettlement, error) {
	settlement := &models.BetPoolSettlement{}
	detail, err := s.mutate(ctx, guildID, poolID, func(uow UnitOfWork, detail *models.BetPoolDetail) error {
		pool := detail.Pool
		if pool.AuthorID != actor.ID {
			return NewPermissionError("only the pool author can resolve it")
		}
		if pool.State != models.BetPoolStateClosed {
			return NewValidationError("pool must be closed before it can be resolved")
		}
		if detail.Option(winningOptionID) == nil {
			return NewValidationError("option %d does not exist", winningOptionID)
		}

		l, err := openLedger(ctx, uow, guildID, s.cfg)
		if err != nil {
			return err
		}

		relatedType := models.RelatedTypeBetPool
		for _, payout := range CalculatePayouts(detail, winningOptionID) {
			if payout.Amount > 0 {
				if _, err := l.deposit(ctx, payout.MemberID, payout.Amount, balanceChange{
					Type:        models.TransactionTypeBetPoolPayout,
					Metadata:    map[string]any{"wagered": payout.Wagered},
					RelatedID:   &pool.ID,
					RelatedType: &relatedType,
				}); err != nil {
					return fmt.Errorf("failed to pay member %d: %w", payout.MemberID, err)
				}
			}
			settlement.Payouts = append(settlement.Payouts, payout)
		}

		now := s.now()
		oldState := pool.State
		pool.State = models.BetPoolStateResolved
		pool.WinningOptionID = &winningOptionID
		pool.ResolvedAt = &now
		if err := s.savePool(ctx, uow, pool); err != nil {
			return err
		}
		publishPoolStateChange(uow, pool, oldState)
		return nil
	})
	if err != nil {
		return nil, err
	}

	settlement.Pool = detail
	log.WithFields(log.Fields{
		"guildID":   guildID,
		"poolID":    poolID,
		"winner":    winningOptionID,
		"poolTotal": detail.Total(),
		"paid":      settlement.TotalPaid(),
	}).Info("Bet pool resolved")
	return settlement, nil
}

// Cancel refunds every better's exact amount
func (s *betPoolService) Cancel(ctx context.Context, guildID, poolID int64, actor Actor) (*models.BetPoolSettlement, error) {
	settlement := &models.BetPoolSettlement{}
	detail, err := s.mutate(ctx, guildID, poolID, func(uow UnitOfWork, detail *models.BetPoolDetail) error {
		pool := detail.Pool
		if pool.AuthorID != actor.ID && !actor.Moderator {
			return NewPermissionError("only the pool author or a moderator can cancel it")
		}
		if pool.State.IsTerminal() {
			return NewValidationError("pool is already %s", pool.State)
		}

		l, err := openLedger(ctx, uow, guildID, s.cfg)
		if err != nil {
			return err
		}

		relatedType := models.RelatedTypeBetPool
		for _, better := range detail.Betters {
			if _, err := l.deposit(ctx, better.MemberID, better.Amount, balanceChange{
				Type:        models.TransactionTypeBetPoolRefund,
				RelatedID:   &pool.ID,
				RelatedType: &relatedType,
			}); err != nil {
				return fmt.Errorf("failed to refund member %d: %w", better.MemberID, err)
			}
			settlement.Payouts = append(settlement.Payouts, &models.BetPoolPayout{
				MemberID: better.MemberID,
				Wagered:  better.Amount,
				Amount:   better.Amount,
			})
		}

		oldState := pool.State
		pool.State = models.BetPoolStateCancelled
		if err := s.savePool(ctx, uow, pool); err != nil {
			return err
		}
		publishPoolStateChange(uow, pool, oldState)
		return nil
	})
	if err != nil {
		return nil, err
	}

	settlement.Pool = detail
	return settlement, nil
}

func (s *betPoolService) GetPool(ctx context.Context, guildID, poolID int64) (*models.BetPoolDetail, error) {
	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	detail, err := uow.BetPoolRepository().GetDetail(ctx, poolID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet pool: %w", err)
	}
	if detail == nil {
		return nil, NewNotFoundError("bet pool", poolID)
	}
	return detail, nil
}

func (s *betPoolService) ListPools(ctx context.Context, guildID int64, states ...models.BetPoolState) ([]*models.BetPool, error) {
	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	pools, err := uow.BetPoolRepository().List(ctx, states...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bet pools: %w", err)
	}
	return pools, nil
}

// AttachMessage records where the pool is rendered
func (s *betPoolService) AttachMessage(ctx context.Context, guildID, poolID, messageID, channelID int64) error {
	_, err := s.mutate(ctx, guildID, poolID, func(uow UnitOfWork, detail *models.BetPoolDetail) error {
		detail.Pool.MessageID = messageID
		detail.Pool.ChannelID = channelID
		if err := uow.BetPoolRepository().Update(ctx, detail.Pool); err != nil {
			return fmt.Errorf("failed to update bet pool: %w", err)
		}
		return nil
	})
	return err
}

func (s *betPoolService) savePool(ctx context.Context, uow UnitOfWork, pool *models.BetPool) error {
	pool.LastEditedAt = s.now()
	if err := uow.BetPoolRepository().Update(ctx, pool); err != nil {
		return fmt.Errorf("failed to update bet pool: %w", err)
	}
	return nil
}

// CalculatePayouts returns one payout per better on the winning option.
// A winning option nobody bet on pays nothing.
func CalculatePayouts(detail *models.BetPoolDetail, winningOptionID int) []*models.BetPoolPayout {
	winningTotal := detail.OptionTotal(winningOptionID)
	if winningTotal == 0 {
		return nil
	}

	poolTotal := big.NewInt(detail.Total())
	divisor := big.NewInt(winningTotal)
	var payouts []*models.BetPoolPayout
	for _, better := range detail.Betters {
		if better.OptionID != winningOptionID {
			continue
		}
		payouts = append(payouts, &models.BetPoolPayout{
			MemberID: better.MemberID,
			Wagered:  better.Amount,
			Amount:   proportionalShare(poolTotal, better.Amount, divisor),
		})
	}
	return payouts
}

// proportionalShare is floor(total * amount / divisor). The product can exceed
// int64 at realistic balances; the quotient never exceeds total.
func proportionalShare(total *big.Int, amount int64, divisor *big.Int) int64 {
	share := new(big.Int).Mul(total, big.NewInt(amount))
	return share.Quo(share, divisor).Int64()
}

func requireConfigurable(pool *models.BetPool, actor Actor) error {
	if pool.AuthorID != actor.ID {
		return NewPermissionError("only the pool author can configure it")
	}
	if pool.State != models.BetPoolStateConfig {
		return NewValidationError("pool can only be configured before it opens")
	}
	return nil
}

func validatePoolTitle(title string) error {
	if title == "" {
		return NewValidationError("title is required")
	}
	if len(title) > maxPoolTitleLength {
		return NewValidationError("title must be at most %d characters", maxPoolTitleLength)
	}
	return nil
}

// buildPoolOptions validates names and assigns sequential option ids
func buildPoolOptions(poolID int64, names []string) ([]*models.BetPoolOption, error) {
	if len(names) > maxPoolOptions {
		return nil, NewValidationError("a pool can have at most %d options", maxPoolOptions)
	}

	seen := make(map[string]bool, len(names))
	options := make([]*models.BetPoolOption, 0, len(names))
	for i, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, NewValidationError("option %d cannot be empty", i+1)
		}
		if len(name) > maxPoolOptionLength {
			return nil, NewValidationError("option %d must be at most %d characters", i+1, maxPoolOptionLength)
		}
		key := strings.ToLower(name)
		if seen[key] {
			return nil, NewValidationError("duplicate option: %s", name)
		}
		seen[key] = true

		options = append(options, &models.BetPoolOption{
			PoolID: poolID,
			ID:     i + 1,
			Name:   name,
			Order:  int16(i),
		})
	}
	return options, nil
}

func publishPoolStateChange(uow UnitOfWork, pool *models.BetPool, oldState models.BetPoolState) {
	uow.EventBus().Publish(events.BetPoolStateChangeEvent{
		PoolID:    pool.ID,
		GuildID:   pool.GuildID,
		OldState:  oldState,
		NewState:  pool.State,
		MessageID: pool.MessageID,
		ChannelID: pool.ChannelID,
	})
}
