package access

import (
	"context"
	"sync"
	"time"
)

// Cache stores per-subject access decisions with a fixed TTL. Implementations
// must be safe for concurrent use from overlapping requests; last writer wins
// on Put.
type Cache interface {
	// Get returns the cached decision for the subject. ok is false when the
	// entry is absent or expired; an expired entry is removed as a side effect.
	Get(ctx context.Context, subjectID string) (granted bool, ok bool)
	// Put overwrites any existing entry with a fresh expiry of now + TTL
	Put(ctx context.Context, subjectID string, granted bool)
	// Invalidate removes the entry immediately
	Invalidate(ctx context.Context, subjectID string)
}

type memoryEntry struct {
	granted   bool
	expiresAt time.Time
}

// MemoryCache is the in-process Cache. Entries expire lazily: there is no
// background sweep, an expired entry is pruned on the next Get.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryCache creates an in-process cache with the given TTL
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached decision, pruning the entry if it has expired
func (c *MemoryCache) Get(_ context.Context, subjectID string) (bool, bool) {
	c.mu.RLock()
	entry, exists := c.entries[subjectID]
	c.mu.RUnlock()

	if !exists {
		return false, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock: a concurrent Put may have refreshed
		// the entry between the read and here.
		if current, ok := c.entries[subjectID]; ok && c.now().After(current.expiresAt) {
			delete(c.entries, subjectID)
		}
		c.mu.Unlock()
		return false, false
	}
	return entry.granted, true
}

// Put overwrites the subject's entry with a fresh expiry
func (c *MemoryCache) Put(_ context.Context, subjectID string, granted bool) {
	c.mu.Lock()
	c.entries[subjectID] = memoryEntry{
		granted:   granted,
		expiresAt: c.now().Add(c.ttl),
	}
	c.mu.Unlock()
}

// Invalidate removes the subject's entry
func (c *MemoryCache) Invalidate(_ context.Context, subjectID string) {
	c.mu.Lock()
	delete(c.entries, subjectID)
	c.mu.Unlock()
}

// Len returns the number of entries currently held, including not-yet-pruned
// expired ones
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
