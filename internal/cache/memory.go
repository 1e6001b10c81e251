package cache

import (
	"context"
	"sync"
	"time"
)

// entry holds one cached value and its expiry deadline.
type entry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is an in-process Store. A background cleaner drops expired
// entries so an idle process does not accumulate dead keys; reads also
// check expiry so the cleaner interval never affects correctness.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
	cleaner *time.Ticker
	done    chan struct{}
}

// NewMemoryCache creates a MemoryCache with the given fixed TTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	m := &MemoryCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	m.cleaner = time.NewTicker(10 * time.Second)
	go m.backgroundCleaner()
	return m
}

func (m *MemoryCache) backgroundCleaner() {
	for {
		select {
		case <-m.cleaner.C:
			m.evictExpired()
		case <-m.done:
			m.cleaner.Stop()
			return
		}
	}
}

func (m *MemoryCache) evictExpired() {
	cut := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, e := range m.entries {
		if e.expiresAt.Before(cut) {
			delete(m.entries, k)
		}
	}
}

// Close stops the background cleaner.
func (m *MemoryCache) Close() {
	close(m.done)
}

// Get returns the value stored under key, or ErrMiss when absent or expired.
func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || m.now().After(e.expiresAt) {
		return nil, ErrMiss
	}
	return e.value, nil
}

// Set stores value under key with the fixed TTL.
func (m *MemoryCache) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry{value: value, expiresAt: m.now().Add(m.ttl)}
	return nil
}

// Delete removes key.
func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}
