package cache

import (
	"context"
	"growdoctor/internal/model"
	"sync"
	"time"
)

// MemoryCache is a process-local DiagnosisCache. Entries are not shared
// between server processes; use the redis or mongo backend for that.
type MemoryCache struct {
	entries  map[string]model.CacheEntry
	stopCh   chan struct{}
	stopOnce sync.Once
	ttl      time.Duration
	now      func() time.Time
	mu       sync.RWMutex
}

// NewMemoryCache creates a cache with the given TTL (0 keeps entries forever).
// When sweepEvery is positive a goroutine evicts expired entries until Close.
func NewMemoryCache(ttl, sweepEvery time.Duration) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]model.CacheEntry),
		stopCh:  make(chan struct{}),
		ttl:     ttl,
		now:     time.Now,
	}
	if ttl > 0 && sweepEvery > 0 {
		go c.sweep(sweepEvery)
	}
	return c
}

func (c *MemoryCache) expired(e model.CacheEntry, now time.Time) bool {
	return c.ttl > 0 && !now.Before(e.CreatedAt.Add(c.ttl))
}

func (c *MemoryCache) Get(ctx context.Context, key string) (*model.Diagnosis, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || c.expired(entry, c.now()) {
		return nil, nil
	}
	d := entry.Diagnosis
	return &d, nil
}

func (c *MemoryCache) Put(ctx context.Context, key string, d model.Diagnosis) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = model.CacheEntry{
		Key:       key,
		CreatedAt: c.now(),
		Diagnosis: d,
	}
	return nil
}

func (c *MemoryCache) EvictExpired(ctx context.Context, now time.Time) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key, entry := range c.entries {
		if c.expired(entry, now) {
			delete(c.entries, key)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored entries, expired ones included
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *MemoryCache) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case t := <-ticker.C:
			_, _ = c.EvictExpired(context.Background(), t)
		}
	}
}

// Close stops the sweeper goroutine
func (c *MemoryCache) Close() error {
	c.stopOnce.Do(func() { close(c.stopCh) })
	return nil
}
