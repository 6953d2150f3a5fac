package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/maktab-hub/maktab-tracker/internal/domain/lesson"
	"github.com/maktab-hub/maktab-tracker/internal/domain/shared"
	"github.com/maktab-hub/maktab-tracker/pkg/dateutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE LESSON COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// UpdateLessonCommand edits a lesson's descriptive fields. Nil pointers
// leave the corresponding field untouched.
type UpdateLessonCommand struct {
	LessonID    string
	Date        *time.Time
	Topics      *string
	Tags        []lesson.CategoryTag
	HasHomework *bool
}

// Validate validates the command.
func (c UpdateLessonCommand) Validate() error {
	if c.LessonID == "" {
		return errors.New("update_lesson: lesson_id is required")
	}
	for _, tag := range c.Tags {
		if !tag.IsValid() {
			return fmt.Errorf("update_lesson: unknown category tag %q", tag)
		}
	}
	return nil
}

// UpdateLessonHandler handles the UpdateLessonCommand.
type UpdateLessonHandler struct {
	uow UnitOfWork
}

// NewUpdateLessonHandler creates a new UpdateLessonHandler.
func NewUpdateLessonHandler(uow UnitOfWork) *UpdateLessonHandler {
	return &UpdateLessonHandler{uow: uow}
}

// Handle executes the update lesson command in one transaction.
func (h *UpdateLessonHandler) Handle(ctx context.Context, cmd UpdateLessonCommand) (*lesson.Lesson, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("lesson", "UpdateLesson", shared.ErrInvalidInput, "invalid command", err)
	}

	var updated *lesson.Lesson

	err := h.uow.WithinTx(ctx, func(ctx context.Context, r Repos) error {
		les, err := getActiveLesson(ctx, r, cmd.LessonID, "UpdateLesson")
		if err != nil {
			return err
		}

		if cmd.Date != nil {
			date := dateutil.DateOnly(*cmd.Date)
			if !date.Equal(les.Date) {
				if err := requireDateFree(ctx, r, date, les.ID, "UpdateLesson"); err != nil {
					return err
				}
				les.Date = date
			}
		}
		if cmd.Topics != nil {
			les.Topics = *cmd.Topics
		}
		if cmd.Tags != nil {
			les.Tags = cmd.Tags
		}
		if cmd.HasHomework != nil {
			les.HasHomework = *cmd.HasHomework
		}
		les.UpdatedAt = time.Now().UTC()

		if err := r.Lessons.Update(ctx, les); err != nil {
			return shared.WrapError("lesson", "UpdateLesson", shared.ErrStorage, "save lesson", err)
		}
		updated = les
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}
