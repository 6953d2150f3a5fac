package command

import (
	"context"
	"log/slog"
	"time"

	"github.com/maktab-hub/maktab-tracker/internal/domain/shared"
	"github.com/maktab-hub/maktab-tracker/pkg/dateutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RETENTION SWEEP
// Runs daily. Two passes, each isolated in its own transaction so a
// failure in one never blocks the other: archived students past the
// 30-day window, then soft-deleted lessons past the 7-day window.
// Finding no candidates is a logged success, not an error.
// ══════════════════════════════════════════════════════════════════════════════

// Default retention windows.
const (
	DefaultStudentRetentionDays = 30
	DefaultLessonRetentionDays  = 7
)

// autoDeleteReason is recorded in the deletion log for sweep deletions.
const autoDeleteReason = "Auto-deleted after 30 days in archive"

// SweepResult summarizes one sweep run.
type SweepResult struct {
	StudentsPurged int
	LessonsPurged  int

	// StudentPassErr / LessonPassErr carry a pass failure without hiding
	// the other pass's outcome.
	StudentPassErr error
	LessonPassErr  error

	Duration time.Duration
}

// SweepHandler runs the retention sweep.
type SweepHandler struct {
	uow       UnitOfWork
	publisher shared.EventPublisher
	logger    *slog.Logger

	studentRetentionDays int
	lessonRetentionDays  int
}

// SweepConfig configures the retention windows.
type SweepConfig struct {
	StudentRetentionDays int
	LessonRetentionDays  int
}

// NewSweepHandler creates a new SweepHandler. Zero config fields fall back
// to the default retention windows.
func NewSweepHandler(uow UnitOfWork, publisher shared.EventPublisher, logger *slog.Logger, cfg SweepConfig) *SweepHandler {
	if cfg.StudentRetentionDays <= 0 {
		cfg.StudentRetentionDays = DefaultStudentRetentionDays
	}
	if cfg.LessonRetentionDays <= 0 {
		cfg.LessonRetentionDays = DefaultLessonRetentionDays
	}
	return &SweepHandler{
		uow:                  uow,
		publisher:            publisher,
		logger:               logger.With("component", "sweep"),
		studentRetentionDays: cfg.StudentRetentionDays,
		lessonRetentionDays:  cfg.LessonRetentionDays,
	}
}

// Handle runs both passes and reports the combined result. The returned
// error is nil even when a pass fails; per-pass errors live in the result.
func (h *SweepHandler) Handle(ctx context.Context) (*SweepResult, error) {
	started := time.Now()
	now := started.UTC()
	result := &SweepResult{}

	result.StudentsPurged, result.StudentPassErr = h.purgeExpiredStudents(ctx, now)
	if result.StudentPassErr != nil {
		h.logger.Error("student retention pass failed", "error", result.StudentPassErr)
	}

	result.LessonsPurged, result.LessonPassErr = h.purgeExpiredLessons(ctx, now)
	if result.LessonPassErr != nil {
		h.logger.Error("lesson retention pass failed", "error", result.LessonPassErr)
	}

	result.Duration = time.Since(started)
	h.logger.Info("sweep completed",
		"students_purged", result.StudentsPurged,
		"lessons_purged", result.LessonsPurged,
		"duration", result.Duration,
	)

	_ = h.publisher.Publish(shared.NewSweepCompletedEvent(result.StudentsPurged, result.LessonsPurged, result.Duration))
	return result, nil
}

// purgeExpiredStudents deletes archived students older than the retention
// window, one deletion log entry each, in a single transaction.
func (h *SweepHandler) purgeExpiredStudents(ctx context.Context, now time.Time) (int, error) {
	cutoff := dateutil.DaysAgo(now, h.studentRetentionDays)
	purged := 0

	err := h.uow.WithinTx(ctx, func(ctx context.Context, r Repos) error {
		candidates, err := r.Students.FindArchivedBefore(ctx, cutoff)
		if err != nil {
			return shared.WrapError("student", "Sweep", shared.ErrStorage, "find expired students", err)
		}
		if len(candidates) == 0 {
			h.logger.Info("no archived students past retention", "cutoff", cutoff)
			return nil
		}

		for _, stu := range candidates {
			if err := purgeStudent(ctx, r, stu.ID, "SYSTEM", autoDeleteReason); err != nil {
				return err
			}
			h.logger.Info("purged archived student", "student_id", stu.ID, "archived_at", stu.ArchivedAt)
			purged++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return purged, nil
}

// purgeExpiredLessons cascade-purges soft-deleted lessons older than the
// retention window in a single transaction.
func (h *SweepHandler) purgeExpiredLessons(ctx context.Context, now time.Time) (int, error) {
	cutoff := dateutil.DaysAgo(now, h.lessonRetentionDays)
	purged := 0

	err := h.uow.WithinTx(ctx, func(ctx context.Context, r Repos) error {
		candidates, err := r.Lessons.FindDeletedBefore(ctx, cutoff)
		if err != nil {
			return shared.WrapError("lesson", "Sweep", shared.ErrStorage, "find expired lessons", err)
		}
		if len(candidates) == 0 {
			h.logger.Info("no deleted lessons past retention", "cutoff", cutoff)
			return nil
		}

		for _, les := range candidates {
			if err := purgeLesson(ctx, r, les.ID); err != nil {
				return err
			}
			h.logger.Info("purged deleted lesson", "lesson_id", les.ID, "date", les.Date.Format("2006-01-02"))
			purged++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return purged, nil
}
