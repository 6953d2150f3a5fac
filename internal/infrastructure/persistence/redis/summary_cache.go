package redis

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// BEHAVIORAL SUMMARY CACHE
// ══════════════════════════════════════════════════════════════════════════════

// BehavioralSummaryCache implements behavioral.SummaryCache over Redis.
// Keys follow "behavioral:summary:<studentID>:<YYYY-MM>".
type BehavioralSummaryCache struct {
	cache *Cache
}

// NewBehavioralSummaryCache creates a new BehavioralSummaryCache.
func NewBehavioralSummaryCache(cache *Cache) *BehavioralSummaryCache {
	return &BehavioralSummaryCache{cache: cache}
}

// Get returns the cached summary payload, or (nil, nil) on a miss.
func (c *BehavioralSummaryCache) Get(ctx context.Context, studentID, yearMonth string) ([]byte, error) {
	return c.cache.GetBytes(ctx, summaryKey(studentID, yearMonth))
}

// Set stores a summary payload with the given TTL.
func (c *BehavioralSummaryCache) Set(ctx context.Context, studentID, yearMonth string, payload []byte, ttl time.Duration) error {
	return c.cache.SetBytes(ctx, summaryKey(studentID, yearMonth), payload, ttl)
}

// Invalidate drops all cached months of one student. Called after an
// incident is recorded or removed.
func (c *BehavioralSummaryCache) Invalidate(ctx context.Context, studentID string) error {
	return c.cache.DeleteByPattern(ctx, PrefixBehavioral+studentID+":*")
}

func summaryKey(studentID, yearMonth string) string {
	return PrefixBehavioral + studentID + ":" + yearMonth
}
