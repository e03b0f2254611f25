package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"guildcogs/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionalBus_FlushDeliversToMainBus(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	received := make(chan BalanceChangeEvent, 1)
	mainBus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		if balanceEvent, ok := event.(BalanceChangeEvent); ok {
			received <- balanceEvent
		}
	})

	testEvent := BalanceChangeEvent{
		UserID:          123456,
		GuildID:         789,
		OldBalance:      1000,
		NewBalance:      1500,
		TransactionType: models.TransactionTypeBetPoolPayout,
		ChangeAmount:    500,
	}
	transactionalBus.Publish(testEvent)
	assert.Equal(t, 1, transactionalBus.Pending())

	require.NoError(t, transactionalBus.Flush(context.Background()))
	assert.Equal(t, 0, transactionalBus.Pending())

	select {
	case got := <-received:
		assert.Equal(t, testEvent, got)
	case <-time.After(2 * time.Second):
		t.Fatal("Event was not received within timeout")
	}
}

func TestTransactionalBus_DiscardDropsEvents(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	var mu sync.Mutex
	count := 0
	mainBus.Subscribe(EventTypeBetPoolStateChange, func(ctx context.Context, event Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	transactionalBus.Publish(BetPoolStateChangeEvent{PoolID: 1, OldState: models.BetPoolStateOpen, NewState: models.BetPoolStateClosed})
	transactionalBus.Discard()
	require.NoError(t, transactionalBus.Flush(context.Background()))

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, count)
}

func TestBus_RoutesByEventType(t *testing.T) {
	bus := NewBus()

	var wg sync.WaitGroup
	wg.Add(2)
	clanEvents := make(chan ClanApprovedEvent, 1)
	battleEvents := make(chan BattleRecordLockedEvent, 1)

	bus.Subscribe(EventTypeClanApproved, func(ctx context.Context, event Event) {
		defer wg.Done()
		clanEvents <- event.(ClanApprovedEvent)
	})
	bus.Subscribe(EventTypeBattleRecordLocked, func(ctx context.Context, event Event) {
		defer wg.Done()
		battleEvents <- event.(BattleRecordLockedEvent)
	})

	ctx := context.Background()
	bus.Emit(ctx, ClanApprovedEvent{GuildID: 1, ClanID: "clan-a"})
	bus.Emit(ctx, BattleRecordLockedEvent{GuildID: 1, RecordID: "rec-1", WinnerID: "reg-1"})
	wg.Wait()

	assert.Equal(t, "clan-a", (<-clanEvents).ClanID)
	assert.Equal(t, "rec-1", (<-battleEvents).RecordID)
}

func TestBus_RecoversFromHandlerPanic(t *testing.T) {
	bus := NewBus()

	done := make(chan struct{})
	bus.Subscribe(EventTypePassiveIncomeAwarded, func(ctx context.Context, event Event) {
		panic("boom")
	})
	bus.Subscribe(EventTypePassiveIncomeAwarded, func(ctx context.Context, event Event) {
		close(done)
	})

	bus.Emit(context.Background(), PassiveIncomeAwardedEvent{GuildID: 1, UserID: 2, Amount: 10})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("second handler did not run")
	}
}
