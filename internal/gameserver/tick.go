package gameserver

import (
	"context"
	"sort"
	"sync"
	"time"
)

// TickManager runs every registered callback once per interval, in name
// order, from a single goroutine.
//
// Invariant: callbacks never run concurrently with each other.
type TickManager struct {
	interval time.Duration
	mu       sync.Mutex
	ticks    map[string]func(now time.Time)
}

// NewTickManager returns a manager that fires ticks every interval.
//
// Precondition: interval must be > 0.
func NewTickManager(interval time.Duration) *TickManager {
	if interval <= 0 {
		panic("gameserver.NewTickManager: interval must be > 0")
	}
	return &TickManager{
		interval: interval,
		ticks:    make(map[string]func(now time.Time)),
	}
}

// Register registers fn under name. Replaces any existing callback.
func (m *TickManager) Register(name string, fn func(now time.Time)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticks[name] = fn
}

// Unregister removes the callback registered under name.
func (m *TickManager) Unregister(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.ticks, name)
}

// Run fires the tick loop until ctx is cancelled.
//
// Postcondition: returns ctx.Err().
func (m *TickManager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			for _, fn := range m.snapshot() {
				fn(now)
			}
		}
	}
}

func (m *TickManager) snapshot() []func(time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.ticks))
	for name := range m.ticks {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]func(time.Time), 0, len(names))
	for _, name := range names {
		out = append(out, m.ticks[name])
	}
	return out
}
