package secret

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore is a process-local Store. Expired entries are swept on an
// interval until Close is called.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time

	done     chan struct{}
	interval time.Duration
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries:  make(map[string]memoryEntry),
		now:      time.Now,
		done:     make(chan struct{}),
		interval: cleanupInterval,
	}
	go s.cleanupLoop()
	return s
}

func (s *MemoryStore) Get(_ context.Context, name string) (string, error) {
	s.mu.RLock()
	entry, ok := s.entries[name]
	s.mu.RUnlock()

	if !ok || s.now().After(entry.expiresAt) {
		return "", ErrNotFound
	}
	return entry.value, nil
}

func (s *MemoryStore) Set(_ context.Context, name string, value string, ttl time.Duration) error {
	s.mu.Lock()
	s.entries[name] = memoryEntry{
		value:     value,
		expiresAt: s.now().Add(ttl),
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.done:
			return
		}
	}
}

func (s *MemoryStore) cleanup() {
	now := s.now()
	s.mu.Lock()
	for name, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, name)
		}
	}
	s.mu.Unlock()
}

func (s *MemoryStore) Close() error {
	close(s.done)
	return nil
}
