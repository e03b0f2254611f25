package betpools

import "sync"

type poolKey struct {
	guildID int64
	poolID  int64
}

type refreshState struct {
	dirty bool
}

// refresher runs at most one refresh per pool at a time. A trigger that
// arrives while a refresh is running queues exactly one more run, which
// reloads the pool and so renders the newest state last.
type refresher struct {
	mu      sync.Mutex
	running map[poolKey]*refreshState
}

func newRefresher() *refresher {
	return &refresher{running: make(map[poolKey]*refreshState)}
}

// Trigger runs refresh for key, or marks the running refresh dirty and returns
func (r *refresher) Trigger(key poolKey, refresh func()) {
	r.mu.Lock()
	if st, ok := r.running[key]; ok {
		st.dirty = true
		r.mu.Unlock()
		return
	}
	st := &refreshState{}
	r.running[key] = st
	r.mu.Unlock()

	for {
		refresh()

		r.mu.Lock()
		if !st.dirty {
			delete(r.running, key)
			r.mu.Unlock()
			return
		}
		st.dirty = false
		r.mu.Unlock()
	}
}
