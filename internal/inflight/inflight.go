// Package inflight counts background work that shutdown has to wait for.
package inflight

import (
	"context"
	"sync"
)

// Tracker counts running tasks. Start may be called while Wait is blocked.
// The zero value is ready to use.
type Tracker struct {
	mu      sync.Mutex
	pending int
	idle    chan struct{}
}

func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending == 0 {
		t.idle = make(chan struct{})
	}
	t.pending++
}

func (t *Tracker) Done() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending == 0 {
		panic("inflight: Done without Start")
	}
	t.pending--
	if t.pending == 0 {
		close(t.idle)
	}
}

// Pending reports how many tasks are running.
func (t *Tracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}

// Wait returns once nothing is running or ctx is done.
func (t *Tracker) Wait(ctx context.Context) error {
	for {
		t.mu.Lock()
		if t.pending == 0 {
			t.mu.Unlock()
			return nil
		}
		idle := t.idle
		t.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
