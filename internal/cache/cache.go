package cache

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/dpup/prefab/errors"
	"github.com/dpup/prefab/logging"

	"github.com/mukutarmanekka/smart-evacuation-router/internal/lib/geo"
)

// Cache provides thread-safe in-memory caching with TTL for per-zone
// routing snapshots (filtered graphs, exit candidate sets). Values are
// stored by reference: snapshots are immutable, so shared reads are safe
// and pointer identity keeps repeated computations bit-identical.
type Cache struct {
	entries map[string]*Entry
	mutex   sync.RWMutex
}

// Entry is a cached value with expiry metadata.
type Entry struct {
	Key       string
	Value     any
	CreatedAt time.Time
	ExpiresAt time.Time
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]*Entry),
	}
}

// ZoneKey derives a cache key from zone geometry. A moved or resized
// zone produces a different key, so stale snapshots are never reused.
func ZoneKey(zone geo.Zone) string {
	return fmt.Sprintf("zone:%.6f:%.6f:%.0f", zone.Center.Latitude, zone.Center.Longitude, zone.RadiusMeters)
}

// Set stores a value under key with the given TTL.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	now := time.Now()
	entry := &Entry{
		Key:       key,
		Value:     value,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries[key] = entry
}

// Get retrieves a value if present and not expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mutex.RLock()
	entry, exists := c.entries[key]
	c.mutex.RUnlock()

	if !exists || time.Now().After(entry.ExpiresAt) {
		return nil, false
	}
	return entry.Value, true
}

// IsStale reports whether the entry is missing or past expiry.
func (c *Cache) IsStale(key string) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.entries[key]
	if !exists {
		return true
	}
	return time.Now().After(entry.ExpiresAt)
}

// Delete removes an entry.
func (c *Cache) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.entries, key)
}

// Len returns the number of entries, expired included.
func (c *Cache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.entries)
}

// CleanupStale removes all expired entries and returns how many were
// removed.
func (c *Cache) CleanupStale() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	var removed int
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// StartPeriodicCleanup starts a goroutine that periodically removes
// expired entries until ctx is done.
func (c *Cache) StartPeriodicCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				err, _ := errors.ParseStack(debug.Stack())
				skipFrames := 3
				numFrames := 5
				logging.Errorw(ctx, "Cache cleanup: recovered from panic",
					"error", r, "error.stack_trace", err.MinimalStack(skipFrames, numFrames))
			}
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := c.CleanupStale(); removed > 0 {
					logging.Infow(ctx, "Cache cleanup removed stale zone snapshots", "removed", removed)
				}
			}
		}
	}()
}
