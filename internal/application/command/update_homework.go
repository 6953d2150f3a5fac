package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/maktab-hub/maktab-tracker/internal/domain/lesson"
	"github.com/maktab-hub/maktab-tracker/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE HOMEWORK COMMAND
// Targeted upsert of one student's homework mark. Requires the lesson to
// declare homework and the student to be currently attended.
// ══════════════════════════════════════════════════════════════════════════════

// UpdateHomeworkCommand corrects one student's homework mark.
type UpdateHomeworkCommand struct {
	LessonID  string
	StudentID string
	Completed bool
}

// Validate validates the command.
func (c UpdateHomeworkCommand) Validate() error {
	if c.LessonID == "" {
		return errors.New("update_homework: lesson_id is required")
	}
	if c.StudentID == "" {
		return errors.New("update_homework: student_id is required")
	}
	return nil
}

// UpdateHomeworkResult contains the result of the correction.
type UpdateHomeworkResult struct {
	LessonID  string
	StudentID string
	Completed bool
	Changed   bool
	Message   string
}

// UpdateHomeworkHandler handles the UpdateHomeworkCommand.
type UpdateHomeworkHandler struct {
	uow   UnitOfWork
	cache lesson.MonthlyAttendanceCache
}

// NewUpdateHomeworkHandler creates a new UpdateHomeworkHandler.
func NewUpdateHomeworkHandler(uow UnitOfWork, cache lesson.MonthlyAttendanceCache) *UpdateHomeworkHandler {
	return &UpdateHomeworkHandler{uow: uow, cache: cache}
}

// Handle executes the homework correction in one transaction.
func (h *UpdateHomeworkHandler) Handle(ctx context.Context, cmd UpdateHomeworkCommand) (*UpdateHomeworkResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("lesson", "UpdateHomework", shared.ErrInvalidInput, "invalid command", err)
	}

	result := &UpdateHomeworkResult{
		LessonID:  cmd.LessonID,
		StudentID: cmd.StudentID,
		Completed: cmd.Completed,
	}

	err := h.uow.WithinTx(ctx, func(ctx context.Context, r Repos) error {
		les, err := getActiveLesson(ctx, r, cmd.LessonID, "UpdateHomework")
		if err != nil {
			return err
		}
		if !les.HasHomework {
			return shared.NewDomainError("lesson", "UpdateHomework", shared.ErrInvalidState,
				fmt.Sprintf("lesson on %s has no homework assigned", les.Date.Format("2006-01-02")))
		}

		if err := requireAttended(ctx, r, cmd.LessonID, cmd.StudentID, "UpdateHomework"); err != nil {
			return err
		}

		prev, err := r.Homework.Get(ctx, cmd.LessonID, cmd.StudentID)
		switch {
		case errors.Is(err, lesson.ErrHomeworkNotFound):
			result.Changed = true
			result.Message = "homework mark created"
		case err != nil:
			return shared.WrapError("lesson", "UpdateHomework", shared.ErrStorage, "load homework", err)
		case prev.Completed == cmd.Completed:
			result.Message = "no change"
			return nil
		default:
			result.Changed = true
			result.Message = "homework mark updated"
		}

		hw := lesson.NewHomework(uuid.NewString(), cmd.LessonID, cmd.StudentID, cmd.Completed)
		if err := r.Homework.Upsert(ctx, hw); err != nil {
			return shared.WrapError("lesson", "UpdateHomework", shared.ErrStorage, "save homework", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if h.cache != nil && result.Changed {
		_ = h.cache.Invalidate(ctx, cmd.StudentID)
	}

	return result, nil
}

// requireAttended rejects students without attended=true on the lesson.
func requireAttended(ctx context.Context, r Repos, lessonID, studentID, op string) error {
	rec, err := r.Attendance.Get(ctx, lessonID, studentID)
	if err != nil {
		if errors.Is(err, lesson.ErrAttendanceNotFound) {
			return shared.NewDomainError("lesson", op, shared.ErrInvalidInput,
				fmt.Sprintf("student %s has no attendance on this lesson", studentID))
		}
		return shared.WrapError("lesson", op, shared.ErrStorage, "load attendance", err)
	}
	if !rec.Attended {
		return shared.NewDomainError("lesson", op, shared.ErrInvalidInput,
			fmt.Sprintf("student %s did not attend this lesson", studentID))
	}
	return nil
}
