package command

import (
	"context"
	"errors"
	"time"

	"github.com/maktab-hub/maktab-tracker/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DELETE LESSON COMMAND (soft)
// Marks the lesson with a tombstone timestamp. The lesson stays
// recoverable for the 7-day retention window, then the sweep purges it.
// ══════════════════════════════════════════════════════════════════════════════

// DeleteLessonCommand soft-deletes one lesson.
type DeleteLessonCommand struct {
	LessonID string
}

// Validate validates the command.
func (c DeleteLessonCommand) Validate() error {
	if c.LessonID == "" {
		return errors.New("delete_lesson: lesson_id is required")
	}
	return nil
}

// DeleteLessonHandler handles the DeleteLessonCommand.
type DeleteLessonHandler struct {
	uow       UnitOfWork
	publisher shared.EventPublisher
}

// NewDeleteLessonHandler creates a new DeleteLessonHandler.
func NewDeleteLessonHandler(uow UnitOfWork, publisher shared.EventPublisher) *DeleteLessonHandler {
	return &DeleteLessonHandler{uow: uow, publisher: publisher}
}

// Handle executes the soft delete in one transaction.
func (h *DeleteLessonHandler) Handle(ctx context.Context, cmd DeleteLessonCommand) error {
	if err := cmd.Validate(); err != nil {
		return shared.WrapError("lesson", "DeleteLesson", shared.ErrInvalidInput, "invalid command", err)
	}

	err := h.uow.WithinTx(ctx, func(ctx context.Context, r Repos) error {
		les, err := getActiveLesson(ctx, r, cmd.LessonID, "DeleteLesson")
		if err != nil {
			return err
		}

		if err := les.SoftDelete(time.Now().UTC()); err != nil {
			return shared.WrapError("lesson", "DeleteLesson", shared.ErrInvalidState, "soft delete", err)
		}

		if err := r.Lessons.Update(ctx, les); err != nil {
			return shared.WrapError("lesson", "DeleteLesson", shared.ErrStorage, "save lesson", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	_ = h.publisher.Publish(shared.NewLifecycleEvent(shared.EventLessonSoftDeleted, "lesson", cmd.LessonID, "", ""))
	return nil
}
