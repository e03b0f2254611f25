package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"guildcogs/config"
	"guildcogs/events"
	"guildcogs/models"

	log "github.com/sirupsen/logrus"
)

// PassiveTier names the reward level of a passive income award
type PassiveTier string

const (
	PassiveTierBase    PassiveTier = "base"
	PassiveTierBonus   PassiveTier = "bonus"
	PassiveTierJackpot PassiveTier = "jackpot"
)

// PassiveIncomeAward is the result of a message that earned coins
type PassiveIncomeAward struct {
	Amount   int64
	Tier     PassiveTier
	Balance  int64
	Response string
}

// Roller returns a value in [0, 1)
type Roller interface {
	Float64() float64
}

type randRoller struct{}

func (randRoller) Float64() float64 {
	return rand.Float64()
}

type passiveIncomeService struct {
	uowFactory UnitOfWorkFactory
	cfg        *config.Config
	roller     Roller
	now        func() time.Time
}

// NewPassiveIncomeService creates a passive income service using the default random source
func NewPassiveIncomeService(uowFactory UnitOfWorkFactory, cfg *config.Config) PassiveIncomeService {
	return NewPassiveIncomeServiceWithRoller(uowFactory, cfg, randRoller{}, time.Now)
}

// NewPassiveIncomeServiceWithRoller creates a passive income service with a fixed random source and clock
func NewPassiveIncomeServiceWithRoller(uowFactory UnitOfWorkFactory, cfg *config.Config, roller Roller, now func() time.Time) PassiveIncomeService {
	return &passiveIncomeService{
		uowFactory: uowFactory,
		cfg:        cfg,
		roller:     roller,
		now:        now,
	}
}

// PassiveAward computes the award for one draw r. One draw is compared
// against nested thresholds, so a jackpot is always also a bonus.
func PassiveAward(settings models.LedgerSettings, r float64) (int64, PassiveTier, bool) {
	if r >= settings.PassiveChance {
		return 0, "", false
	}

	amount := settings.PassiveAmount
	tier := PassiveTierBase

	bonusThreshold := settings.PassiveChance * settings.BonusChance
	if r < bonusThreshold {
		amount *= settings.BonusMultiplier
		tier = PassiveTierBonus
		if r < bonusThreshold*settings.JackpotChance {
			amount *= settings.JackpotMultiplier
			tier = PassiveTierJackpot
		}
	}
	return amount, tier, true
}

func (s *passiveIncomeService) ProcessMessage(ctx context.Context, guildID, memberID int64) (*PassiveIncomeAward, error) {
	r := s.roller.Float64()

	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	l, err := openLedger(ctx, uow, guildID, s.cfg)
	if err != nil {
		return nil, err
	}

	amount, tier, ok := PassiveAward(l.settings, r)
	if !ok || amount <= 0 {
		return nil, nil
	}

	store := uow.ConfigStore()
	scope := MemberScope(guildID, memberID, ConfigKeyPassiveIncome)
	if err := store.Lock(ctx, scope); err != nil {
		return nil, fmt.Errorf("failed to lock passive income state: %w", err)
	}

	state, err := GetConfig(ctx, store, scope, models.PassiveIncomeState{})
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !SameDay(state.LastPassiveTimestamp, now, s.cfg.Location()) {
		state.LastPassiveCount = 0
	}
	if state.LastPassiveCount >= l.settings.PassiveDailyCap {
		log.WithFields(log.Fields{
			"guildID":  guildID,
			"memberID": memberID,
			"count":    state.LastPassiveCount,
		}).Debug("Passive income daily cap reached")
		return nil, nil
	}

	state.LastPassiveCount++
	state.LastPassiveTimestamp = now
	if err := SetConfig(ctx, store, scope, state); err != nil {
		return nil, err
	}

	before, err := l.balance(ctx, memberID)
	if err != nil {
		return nil, err
	}
	balance, err := l.deposit(ctx, memberID, amount, balanceChange{
		Type:     models.TransactionTypePassiveIncome,
		Metadata: map[string]any{"tier": string(tier), "daily_count": state.LastPassiveCount},
	})
	if err != nil {
		return nil, err
	}

	// the ceiling may shrink the deposit; a member at the ceiling still uses up a daily award
	applied := balance - before
	award := &PassiveIncomeAward{
		Amount:  applied,
		Tier:    tier,
		Balance: balance,
	}
	if applied > 0 {
		award.Response = RenderPassiveResponse(l.settings.PassiveResponse, applied, tier)
		uow.EventBus().Publish(events.PassiveIncomeAwardedEvent{
			GuildID:  guildID,
			UserID:   memberID,
			Amount:   applied,
			Tier:     string(tier),
			Response: award.Response,
		})
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return award, nil
}

// RenderPassiveResponse fills the {amount} and {tier} placeholders
func RenderPassiveResponse(template string, amount int64, tier PassiveTier) string {
	if template == "" {
		return ""
	}
	return strings.NewReplacer(
		"{amount}", strconv.FormatInt(amount, 10),
		"{tier}", string(tier),
	).Replace(template)
}
