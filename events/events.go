package events

import (
	"context"
	"sync"

	"guildcogs/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange        EventType = "balance_change"
	EventTypePassiveIncomeAwarded EventType = "passive_income_awarded"
	EventTypeBetPoolStateChange   EventType = "bet_pool_state_change"
	EventTypeBetPoolWagerPlaced   EventType = "bet_pool_wager_placed"
	EventTypeClanApproved         EventType = "clan_approved"
	EventTypeBattleRecordLocked   EventType = "battle_record_locked"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	UserID          int64
	GuildID         int64
	OldBalance      int64
	NewBalance      int64
	TransactionType models.TransactionType
	ChangeAmount    int64
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// PassiveIncomeAwardedEvent is published when a chat message earned passive income
type PassiveIncomeAwardedEvent struct {
	GuildID   int64
	UserID    int64
	ChannelID int64
	Amount    int64
	Tier      string
	Response  string
}

func (e PassiveIncomeAwardedEvent) Type() EventType {
	return EventTypePassiveIncomeAwarded
}

// BetPoolStateChangeEvent represents a bet pool state transition
type BetPoolStateChangeEvent struct {
	PoolID    int64
	GuildID   int64
	OldState  models.BetPoolState
	NewState  models.BetPoolState
	MessageID int64
	ChannelID int64
}

func (e BetPoolStateChangeEvent) Type() EventType {
	return EventTypeBetPoolStateChange
}

// BetPoolWagerPlacedEvent is published after a wager lands in a pool
type BetPoolWagerPlacedEvent struct {
	PoolID    int64
	GuildID   int64
	MemberID  int64
	OptionID  int
	Amount    int64
	MessageID int64
	ChannelID int64
}

func (e BetPoolWagerPlacedEvent) Type() EventType {
	return EventTypeBetPoolWagerPlaced
}

// ClanApprovedEvent is published after a clan draft became live
type ClanApprovedEvent struct {
	GuildID            int64
	ClanID             string
	ApprovedBy         int64
	DeactivatedClanIDs []string
}

func (e ClanApprovedEvent) Type() EventType {
	return EventTypeClanApproved
}

// BattleRecordLockedEvent is published once both players verified a record
type BattleRecordLockedEvent struct {
	GuildID   int64
	RecordID  string
	WinnerID  string
	MessageID int64
	ChannelID int64
}

func (e BattleRecordLockedEvent) Type() EventType {
	return EventTypeBattleRecordLocked
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event")

	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus holds events published inside a unit of work until it commits
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush is called after a successful commit
func (b *TransactionalBus) Flush(ctx context.Context) error {
	log.WithFields(log.Fields{
		"pendingEventCount": len(b.pending),
	}).Debug("Flushing pending events")

	// Handlers outlive the request that committed the transaction
	eventCtx := context.WithoutCancel(ctx)

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard drops pending events after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}

// Pending returns the number of events waiting for a flush
func (b *TransactionalBus) Pending() int {
	return len(b.pending)
}
