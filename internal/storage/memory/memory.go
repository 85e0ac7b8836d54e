package memory

import (
	"context"
	"sync"
	"time"

	"ecom_stationery/internal/storage"
)

type entry struct {
	value      string
	insertedAt time.Time
	ttl        time.Duration
}

// Store is the in-process ephemeral store used when no networked cache is
// reachable. Entries live only as long as the process and are not shared
// between instances.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

func New() *Store {
	return NewWithClock(time.Now)
}

// NewWithClock lets tests drive expiry.
func NewWithClock(now func() time.Time) *Store {
	return &Store{
		entries: make(map[string]entry),
		now:     now,
		stop:    make(chan struct{}),
	}
}

func (s *Store) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = entry{
		value:      value,
		insertedAt: s.now(),
		ttl:        ttl,
	}

	return nil
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live(key)
	if !ok {
		return "", storage.ErrKeyNotFound
	}

	return e.value, nil
}

// Delete removes key and reports whether a live entry was removed. Two
// concurrent callers for the same key never both see true.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.live(key); !ok {
		return false, nil
	}

	delete(s.entries, key)

	return true, nil
}

// Close stops the sweeper started by RunSweeper.
func (s *Store) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })

	return nil
}

// Sweep drops every expired entry and returns how many were removed. Keys
// that are never read again would otherwise stay until the process exits.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0

	for key, e := range s.entries {
		if now.Sub(e.insertedAt) >= e.ttl {
			delete(s.entries, key)
			removed++
		}
	}

	return removed
}

// RunSweeper calls Sweep every interval until ctx is done or the store is
// closed.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Len reports the number of stored entries, live or not yet swept.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// live must be called with mu held. Expired entries are dropped on sight.
func (s *Store) live(key string) (entry, bool) {
	e, ok := s.entries[key]
	if !ok {
		return entry{}, false
	}

	if s.now().Sub(e.insertedAt) >= e.ttl {
		delete(s.entries, key)
		return entry{}, false
	}

	return e, true
}
