package redis

import (
	"context"
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// MONTHLY ATTENDANCE CACHE
// ══════════════════════════════════════════════════════════════════════════════

// MonthlyAttendanceCache implements lesson.MonthlyAttendanceCache over Redis.
// Keys follow "attendance:monthly:<studentID>:<YYYY-MM>" so Invalidate can
// drop all months of one student with a single pattern scan.
type MonthlyAttendanceCache struct {
	cache *Cache
}

// NewMonthlyAttendanceCache creates a new MonthlyAttendanceCache.
func NewMonthlyAttendanceCache(cache *Cache) *MonthlyAttendanceCache {
	return &MonthlyAttendanceCache{cache: cache}
}

// Get returns the cached report payload, or (nil, nil) on a miss.
func (c *MonthlyAttendanceCache) Get(ctx context.Context, studentID string, year, month int) ([]byte, error) {
	return c.cache.GetBytes(ctx, attendanceKey(studentID, year, month))
}

// Set stores a report payload with the given TTL.
func (c *MonthlyAttendanceCache) Set(ctx context.Context, studentID string, year, month int, payload []byte, ttl time.Duration) error {
	return c.cache.SetBytes(ctx, attendanceKey(studentID, year, month), payload, ttl)
}

// Invalidate drops all cached months of one student.
func (c *MonthlyAttendanceCache) Invalidate(ctx context.Context, studentID string) error {
	return c.cache.DeleteByPattern(ctx, PrefixAttendance+studentID+":*")
}

func attendanceKey(studentID string, year, month int) string {
	return fmt.Sprintf("%s%s:%04d-%02d", PrefixAttendance, studentID, year, month)
}
