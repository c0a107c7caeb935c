package gate

import (
	"context"
	"sync"
	"time"
)

// MemoryCounters is a process-local fixed-window CounterStore.
//
// Increments are serialized by a mutex, so counts are exact within one
// process. Expired windows are reset lazily on the next touch.
type MemoryCounters struct {
	mu       sync.Mutex
	counters map[string]*windowCounter
	clock    func() time.Time
}

type windowCounter struct {
	count     int
	expiresAt time.Time
}

// NewMemoryCounters builds an empty in-memory counter store.
func NewMemoryCounters() *MemoryCounters {
	return &MemoryCounters{
		counters: make(map[string]*windowCounter),
		clock:    time.Now,
	}
}

// Increment advances the counter for key inside the current window.
func (m *MemoryCounters) Increment(_ context.Context, key string, window time.Duration) (int, time.Duration, error) {
	now := m.clock()

	m.mu.Lock()
	defer m.mu.Unlock()

	counter, ok := m.counters[key]
	if !ok || !now.Before(counter.expiresAt) {
		counter = &windowCounter{expiresAt: now.Add(window)}
		m.counters[key] = counter
	}
	counter.count++
	return counter.count, counter.expiresAt.Sub(now), nil
}
