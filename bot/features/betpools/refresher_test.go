package betpools

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRefresher_CoalescesWhileRunning(t *testing.T) {
	r := newRefresher()
	key := poolKey{guildID: 1, poolID: 42}

	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Trigger(key, func() {
			if calls.Add(1) == 1 {
				close(started)
				<-release
			}
		})
	}()
	<-started

	// triggers during a running refresh return at once
	for range 3 {
		r.Trigger(key, func() { t.Error("refresh ran concurrently") })
	}
	close(release)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresh did not finish")
	}
	assert.Equal(t, int32(2), calls.Load())

	r.mu.Lock()
	assert.Empty(t, r.running)
	r.mu.Unlock()
}

func TestRefresher_NeverOverlapsPerPool(t *testing.T) {
	r := newRefresher()
	key := poolKey{guildID: 1, poolID: 7}

	var active, overlaps atomic.Int32
	refresh := func() {
		if active.Add(1) > 1 {
			overlaps.Add(1)
		}
		time.Sleep(time.Millisecond)
		active.Add(-1)
	}

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Trigger(key, refresh)
		}()
	}
	wg.Wait()

	assert.Zero(t, overlaps.Load())
}

func TestRefresher_PoolsAreIndependent(t *testing.T) {
	r := newRefresher()
	release := make(chan struct{})
	started := make(chan struct{})

	go r.Trigger(poolKey{guildID: 1, poolID: 1}, func() {
		close(started)
		<-release
	})
	<-started

	var ran bool
	r.Trigger(poolKey{guildID: 1, poolID: 2}, func() { ran = true })
	assert.True(t, ran)
	close(release)
}
