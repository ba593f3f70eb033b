package tickets

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/modfleet/gatehouse/pkg/observability"
)

// DefaultCacheSize bounds the number of tickets held in memory
const DefaultCacheSize = 1024

// CachedStore wraps a Store with a read-through LRU for GetTicket. Writes go
// straight to the database; CloseTicket invalidates the cached entry so stale
// status is never served past the TTL.
type CachedStore struct {
	store   *Store
	cache   *expirable.LRU[int64, *Ticket]
	metrics *observability.Metrics
}

// NewCachedStore creates a cached ticket store with the given TTL
func NewCachedStore(store *Store, size int, ttl time.Duration, metrics *observability.Metrics) *CachedStore {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &CachedStore{
		store:   store,
		cache:   expirable.NewLRU[int64, *Ticket](size, nil, ttl),
		metrics: metrics,
	}
}

// GetTicket returns a cached ticket when present, otherwise loads it from the
// database and caches the result.
func (c *CachedStore) GetTicket(ctx context.Context, id int64) (*Ticket, error) {
	if ticket, ok := c.cache.Get(id); ok {
		if c.metrics != nil {
			c.metrics.TicketCacheHits.Inc()
		}
		return ticket, nil
	}
	if c.metrics != nil {
		c.metrics.TicketCacheMisses.Inc()
	}

	ticket, err := c.store.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cache.Add(id, ticket)
	return ticket, nil
}

// CreateTicket inserts a ticket and caches the new row
func (c *CachedStore) CreateTicket(ctx context.Context, ticket *Ticket) error {
	if err := c.store.CreateTicket(ctx, ticket); err != nil {
		return err
	}
	c.cache.Add(ticket.ID, ticket)
	return nil
}

// ListTickets bypasses the cache; listings are always served fresh
func (c *CachedStore) ListTickets(ctx context.Context, status Status, limit, offset int) ([]*Ticket, error) {
	return c.store.ListTickets(ctx, status, limit, offset)
}

// CloseTicket closes a ticket and replaces the cached entry with the updated row
func (c *CachedStore) CloseTicket(ctx context.Context, id int64, closedBy string) (*Ticket, error) {
	ticket, err := c.store.CloseTicket(ctx, id, closedBy)
	if err != nil {
		c.cache.Remove(id)
		return nil, err
	}
	c.cache.Add(id, ticket)
	return ticket, nil
}

// CountOpenTickets bypasses the cache
func (c *CachedStore) CountOpenTickets(ctx context.Context) (int64, error) {
	return c.store.CountOpenTickets(ctx)
}

// CreateWarning inserts a warning; warnings are not cached
func (c *CachedStore) CreateWarning(ctx context.Context, warning *Warning) error {
	return c.store.CreateWarning(ctx, warning)
}

// ListWarnings bypasses the cache
func (c *CachedStore) ListWarnings(ctx context.Context, subjectID string) ([]*Warning, error) {
	return c.store.ListWarnings(ctx, subjectID)
}
