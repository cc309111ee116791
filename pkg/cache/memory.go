package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-process Store with TTL expiry and a background
// janitor. It supports prefix deletion, so the gateway never has to fall
// back to full flushes with this backend.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	done    chan struct{}
	once    sync.Once
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// NewMemoryStore creates a memory store and starts its expiry janitor
func NewMemoryStore(sweepInterval time.Duration) *MemoryStore {
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		done:    make(chan struct{}),
	}
	go s.janitor(sweepInterval)
	return s
}

// Get returns the value for key if present and not expired
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || time.Now().After(entry.expires) {
		return nil, false, nil
	}
	return entry.data, true, nil
}

// Set stores the value under key for ttl
func (s *MemoryStore) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	s.mu.Lock()
	s.entries[key] = memoryEntry{data: data, expires: time.Now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

// Delete removes a single key
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// DeleteByPrefix removes every key starting with prefix
func (s *MemoryStore) DeleteByPrefix(_ context.Context, prefix string) error {
	s.mu.Lock()
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
		}
	}
	s.mu.Unlock()
	return nil
}

// Flush removes all entries
func (s *MemoryStore) Flush(_ context.Context) error {
	s.mu.Lock()
	s.entries = make(map[string]memoryEntry)
	s.mu.Unlock()
	return nil
}

// Close stops the janitor
func (s *MemoryStore) Close() {
	s.once.Do(func() { close(s.done) })
}

// Len reports live (non-expired) entries, used by tests and status reporting
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := time.Now()
	count := 0
	for _, entry := range s.entries {
		if now.Before(entry.expires) {
			count++
		}
	}
	return count
}

func (s *MemoryStore) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for key, entry := range s.entries {
				if now.After(entry.expires) {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		}
	}
}
