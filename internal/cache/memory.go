package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"
)

type entry struct {
	data    []byte
	expires time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

// DefaultSweepInterval is how often the in-memory stores drop expired entries.
const DefaultSweepInterval = time.Minute

// sweeper runs fn on a ticker until Close.
type sweeper struct {
	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func (s *sweeper) start(interval time.Duration, fn func()) {
	s.stop = make(chan struct{})
	if interval <= 0 {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}

// Close stops the sweep goroutine. Safe to call more than once.
func (s *sweeper) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.wg.Wait()
	})
	return nil
}

// Memory is the in-process Cache used when Redis is not configured.
// Values are stored as JSON so callers get the same copy semantics as with Redis.
// A sweep every interval drops expired entries; interval <= 0 disables it.
type Memory struct {
	sweeper

	mu    sync.Mutex
	items map[string]entry
	now   func() time.Time
}

func NewMemory(interval time.Duration) *Memory {
	m := &Memory{items: make(map[string]entry), now: time.Now}
	m.start(interval, m.Sweep)
	return m
}

// Sweep deletes every expired entry.
func (m *Memory) Sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for k, e := range m.items {
		if e.expired(now) {
			delete(m.items, k)
		}
	}
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *Memory) Get(_ context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	e, ok := m.items[key]
	if ok && e.expired(m.now()) {
		delete(m.items, key)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(e.data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	e := entry{data: data}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.items[key] = e
	m.mu.Unlock()
	return nil
}

func (m *Memory) InvalidatePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.items {
		if strings.HasPrefix(k, prefix) {
			delete(m.items, k)
		}
	}
	return nil
}

// MemoryIdempotency is the single-instance IdempotencyStore.
type MemoryIdempotency struct {
	sweeper

	mu   sync.Mutex
	seen map[string]time.Time
	now  func() time.Time
}

func NewMemoryIdempotency(interval time.Duration) *MemoryIdempotency {
	s := &MemoryIdempotency{seen: make(map[string]time.Time), now: time.Now}
	s.start(interval, s.Sweep)
	return s
}

func (s *MemoryIdempotency) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, exp := range s.seen {
		if !now.Before(exp) {
			delete(s.seen, id)
		}
	}
}

func (s *MemoryIdempotency) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

func (s *MemoryIdempotency) MarkProcessed(_ context.Context, id string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if exp, ok := s.seen[id]; ok && now.Before(exp) {
		return false, nil
	}
	s.seen[id] = now.Add(ttl)
	return true, nil
}

func (s *MemoryIdempotency) Release(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.seen, id)
	s.mu.Unlock()
	return nil
}
