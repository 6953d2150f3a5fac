package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/maktab-hub/maktab-tracker/internal/domain/lesson"
	"github.com/maktab-hub/maktab-tracker/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PURGE LESSON COMMAND
// Irreversible. The storage schema has no automatic cascade, so the child
// tables (attendance, homework, participation, incidents) are cleared
// through the central cascade routine before the lesson row goes.
// ══════════════════════════════════════════════════════════════════════════════

// PurgeLessonCommand permanently deletes one soft-deleted lesson.
type PurgeLessonCommand struct {
	LessonID string
}

// Validate validates the command.
func (c PurgeLessonCommand) Validate() error {
	if c.LessonID == "" {
		return errors.New("purge_lesson: lesson_id is required")
	}
	return nil
}

// PurgeLessonHandler handles the PurgeLessonCommand.
type PurgeLessonHandler struct {
	uow       UnitOfWork
	publisher shared.EventPublisher
}

// NewPurgeLessonHandler creates a new PurgeLessonHandler.
func NewPurgeLessonHandler(uow UnitOfWork, publisher shared.EventPublisher) *PurgeLessonHandler {
	return &PurgeLessonHandler{uow: uow, publisher: publisher}
}

// Handle executes the purge in one transaction.
func (h *PurgeLessonHandler) Handle(ctx context.Context, cmd PurgeLessonCommand) error {
	if err := cmd.Validate(); err != nil {
		return shared.WrapError("lesson", "PurgeLesson", shared.ErrInvalidInput, "invalid command", err)
	}

	err := h.uow.WithinTx(ctx, func(ctx context.Context, r Repos) error {
		return purgeLesson(ctx, r, cmd.LessonID)
	})
	if err != nil {
		return err
	}

	_ = h.publisher.Publish(shared.NewLifecycleEvent(shared.EventLessonPurged, "lesson", cmd.LessonID, "", ""))
	return nil
}

// purgeLesson removes a soft-deleted lesson and its artifacts. Shared with
// the retention sweep. Must be called inside a transaction.
func purgeLesson(ctx context.Context, r Repos, lessonID string) error {
	les, err := r.Lessons.GetByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, lesson.ErrLessonNotFound) {
			return shared.NewDomainError("lesson", "PurgeLesson", shared.ErrNotFound,
				fmt.Sprintf("lesson %s not found", lessonID))
		}
		return shared.WrapError("lesson", "PurgeLesson", shared.ErrStorage, "load lesson", err)
	}
	if !les.IsDeleted() {
		return shared.NewDomainError("lesson", "PurgeLesson", shared.ErrInvalidState,
			fmt.Sprintf("lesson on %s is not soft-deleted", les.Date.Format("2006-01-02")))
	}

	if err := purgeLessonArtifacts(ctx, r, lessonID); err != nil {
		return shared.WrapError("lesson", "PurgeLesson", shared.ErrStorage, "cascade children", err)
	}
	if err := r.Lessons.HardDelete(ctx, lessonID); err != nil {
		return shared.WrapError("lesson", "PurgeLesson", shared.ErrStorage, "delete lesson row", err)
	}
	return nil
}
