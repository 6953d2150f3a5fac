package query

import (
	"context"
	"sort"
	"time"

	"github.com/maktab-hub/maktab-tracker/internal/domain/lesson"
	"github.com/maktab-hub/maktab-tracker/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// TRASH BIN QUERY
// ══════════════════════════════════════════════════════════════════════════════

// DeletedLessonEntry is one lesson in the trash bin.
type DeletedLessonEntry struct {
	LessonID  string
	Date      time.Time
	Topics    string
	DeletedAt time.Time

	// DaysUntilPurge is how many whole days remain before the retention
	// sweep removes the lesson permanently, 0 when already due.
	DaysUntilPurge int
}

// DeletedLessonsResult lists soft-deleted lessons, most recently deleted first.
type DeletedLessonsResult struct {
	Lessons []DeletedLessonEntry
}

// DeletedLessonsHandler lists lessons currently in the trash bin.
type DeletedLessonsHandler struct {
	lessons       lesson.Repository
	retentionDays int
}

// NewDeletedLessonsHandler creates a new DeletedLessonsHandler.
// retentionDays is the trash bin window used to compute time-to-purge.
func NewDeletedLessonsHandler(lessons lesson.Repository, retentionDays int) *DeletedLessonsHandler {
	return &DeletedLessonsHandler{lessons: lessons, retentionDays: retentionDays}
}

// Handle executes the query.
func (h *DeletedLessonsHandler) Handle(ctx context.Context) (*DeletedLessonsResult, error) {
	deleted, err := h.lessons.GetDeleted(ctx)
	if err != nil {
		return nil, shared.WrapError("lesson", "DeletedLessons", shared.ErrStorage, "load trash bin", err)
	}

	now := time.Now()
	result := &DeletedLessonsResult{}
	for _, les := range deleted {
		remaining := h.retentionDays - les.DaysDeleted(now)
		if remaining < 0 {
			remaining = 0
		}
		result.Lessons = append(result.Lessons, DeletedLessonEntry{
			LessonID:       les.ID,
			Date:           les.Date,
			Topics:         les.Topics,
			DeletedAt:      les.DeletedAt,
			DaysUntilPurge: remaining,
		})
	}

	sort.Slice(result.Lessons, func(i, j int) bool {
		return result.Lessons[i].DeletedAt.After(result.Lessons[j].DeletedAt)
	})

	return result, nil
}
