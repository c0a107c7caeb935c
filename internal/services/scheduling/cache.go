package scheduling

import (
	"context"
	"sync"
	"time"
)

// defaultCacheTTL bounds how stale the public scheduling page can be.
const defaultCacheTTL = 5 * time.Minute

// CachedSource caches another Source's event types for a TTL so the public
// site does not hit the provider on every page load. On refresh failure it
// serves the last good result if one exists.
type CachedSource struct {
	source Source
	ttl    time.Duration
	now    func() time.Time

	mu        sync.Mutex
	cached    []EventType
	fetchedAt time.Time
}

// NewCachedSource wraps a Source with a TTL cache. A non-positive ttl uses
// the default.
func NewCachedSource(source Source, ttl time.Duration) *CachedSource {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedSource{source: source, ttl: ttl, now: time.Now}
}

// ListEventTypes returns cached event types, refreshing them when the TTL
// has passed.
func (c *CachedSource) ListEventTypes(ctx context.Context) ([]EventType, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fetchedAt.IsZero() || c.now().Sub(c.fetchedAt) >= c.ttl {
		fresh, err := c.source.ListEventTypes(ctx)
		if err != nil {
			if c.fetchedAt.IsZero() {
				return nil, err
			}
			// Stale data beats an empty scheduling page.
			return c.cached, nil
		}
		c.cached = fresh
		c.fetchedAt = c.now()
	}
	return c.cached, nil
}
