package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// Memory keeps one token bucket per rule and key. The bucket holds Limit
// tokens and refills one every Window/Limit, so a burst of Limit is allowed
// and steady state matches the rule.
type Memory struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

var _ Limiter = (*Memory)(nil)

// NewMemory creates an in-process limiter and starts its idle sweeper.
func NewMemory() *Memory {
	m := newMemory(time.Now)
	go m.sweepLoop(time.Minute)
	return m
}

func newMemory(now func() time.Time) *Memory {
	return &Memory{
		buckets: make(map[string]*bucket),
		now:     now,
		stop:    make(chan struct{}),
	}
}

func (m *Memory) Allow(_ context.Context, rule Rule, key string) (bool, error) {
	if !rule.Enabled() {
		return true, nil
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	id := rule.Name + "|" + key
	b, ok := m.buckets[id]
	if !ok {
		every := rule.Window / time.Duration(rule.Limit)
		b = &bucket{lim: rate.NewLimiter(rate.Every(every), rule.Limit)}
		m.buckets[id] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1), nil
}

// Sweep drops buckets idle for longer than idle.
func (m *Memory) Sweep(idle time.Duration) int {
	cutoff := m.now().Add(-idle)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, b := range m.buckets {
		if b.seen.Before(cutoff) {
			delete(m.buckets, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live buckets.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buckets)
}

func (m *Memory) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			// A full bucket refills within the longest window, one hour by default.
			m.Sweep(2 * time.Hour)
		}
	}
}

// Close stops the sweeper.
func (m *Memory) Close() error {
	m.once.Do(func() { close(m.stop) })
	return nil
}
