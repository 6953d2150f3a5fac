package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/maktab-hub/maktab-tracker/internal/domain/lesson"
	"github.com/maktab-hub/maktab-tracker/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESTORE LESSON COMMAND
// Brings a lesson back from the trash. Blocked with CONFLICT if another
// active lesson has taken the date since the soft delete.
// ══════════════════════════════════════════════════════════════════════════════

// RestoreLessonCommand restores one soft-deleted lesson.
type RestoreLessonCommand struct {
	LessonID string
}

// Validate validates the command.
func (c RestoreLessonCommand) Validate() error {
	if c.LessonID == "" {
		return errors.New("restore_lesson: lesson_id is required")
	}
	return nil
}

// RestoreLessonHandler handles the RestoreLessonCommand.
type RestoreLessonHandler struct {
	uow       UnitOfWork
	publisher shared.EventPublisher
}

// NewRestoreLessonHandler creates a new RestoreLessonHandler.
func NewRestoreLessonHandler(uow UnitOfWork, publisher shared.EventPublisher) *RestoreLessonHandler {
	return &RestoreLessonHandler{uow: uow, publisher: publisher}
}

// Handle executes the restore in one transaction.
func (h *RestoreLessonHandler) Handle(ctx context.Context, cmd RestoreLessonCommand) (*lesson.Lesson, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("lesson", "RestoreLesson", shared.ErrInvalidInput, "invalid command", err)
	}

	var restored *lesson.Lesson

	err := h.uow.WithinTx(ctx, func(ctx context.Context, r Repos) error {
		les, err := r.Lessons.GetByID(ctx, cmd.LessonID)
		if err != nil {
			if errors.Is(err, lesson.ErrLessonNotFound) {
				return shared.NewDomainError("lesson", "RestoreLesson", shared.ErrNotFound,
					fmt.Sprintf("lesson %s not found", cmd.LessonID))
			}
			return shared.WrapError("lesson", "RestoreLesson", shared.ErrStorage, "load lesson", err)
		}

		if err := requireDateFree(ctx, r, les.Date, les.ID, "RestoreLesson"); err != nil {
			return err
		}

		if err := les.Restore(); err != nil {
			return shared.WrapError("lesson", "RestoreLesson", shared.ErrInvalidState, "restore", err)
		}

		if err := r.Lessons.Update(ctx, les); err != nil {
			return shared.WrapError("lesson", "RestoreLesson", shared.ErrStorage, "save lesson", err)
		}
		restored = les
		return nil
	})
	if err != nil {
		return nil, err
	}

	_ = h.publisher.Publish(shared.NewLifecycleEvent(shared.EventLessonRestored, "lesson", cmd.LessonID, "", ""))
	return restored, nil
}
