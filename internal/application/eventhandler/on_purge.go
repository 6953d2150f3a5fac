package eventhandler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maktab-hub/maktab-tracker/internal/domain/behavioral"
	"github.com/maktab-hub/maktab-tracker/internal/domain/lesson"
	"github.com/maktab-hub/maktab-tracker/internal/domain/shared"
)

// PurgeInvalidationHandler drops a student's cached monthly reports when
// their record is purged. Cached entries expire on their own TTL anyway;
// this just keeps purged students from lingering in read models.
type PurgeInvalidationHandler struct {
	attendanceCache lesson.MonthlyAttendanceCache
	summaryCache    behavioral.SummaryCache
	logger          *slog.Logger
}

// NewPurgeInvalidationHandler creates a new PurgeInvalidationHandler.
// Either cache may be nil.
func NewPurgeInvalidationHandler(attendanceCache lesson.MonthlyAttendanceCache, summaryCache behavioral.SummaryCache, logger *slog.Logger) *PurgeInvalidationHandler {
	return &PurgeInvalidationHandler{
		attendanceCache: attendanceCache,
		summaryCache:    summaryCache,
		logger:          logger,
	}
}

// Name implements shared.EventHandler.
func (h *PurgeInvalidationHandler) Name() string {
	return "purge_cache_invalidator"
}

// Handle implements shared.EventHandler.
func (h *PurgeInvalidationHandler) Handle(event shared.Event) error {
	ev, ok := event.(shared.LifecycleEvent)
	if !ok {
		return fmt.Errorf("purge_cache_invalidator: unexpected event type %s", event.EventType())
	}

	if ev.EntityKind != "student" {
		return nil
	}

	ctx := context.Background()

	if h.attendanceCache != nil {
		if err := h.attendanceCache.Invalidate(ctx, ev.EntityID); err != nil {
			h.logger.Warn("failed to invalidate attendance cache", "student_id", ev.EntityID, "error", err)
		}
	}

	if h.summaryCache != nil {
		if err := h.summaryCache.Invalidate(ctx, ev.EntityID); err != nil {
			h.logger.Warn("failed to invalidate summary cache", "student_id", ev.EntityID, "error", err)
		}
	}

	return nil
}
