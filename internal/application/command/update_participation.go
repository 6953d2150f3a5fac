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
// UPDATE PARTICIPATION COMMAND
// Targeted upsert of one student's participation score.
// ══════════════════════════════════════════════════════════════════════════════

// UpdateParticipationCommand corrects one student's participation score.
type UpdateParticipationCommand struct {
	LessonID  string
	StudentID string
	Score     int
}

// Validate validates the command.
func (c UpdateParticipationCommand) Validate() error {
	if c.LessonID == "" {
		return errors.New("update_participation: lesson_id is required")
	}
	if c.StudentID == "" {
		return errors.New("update_participation: student_id is required")
	}
	if !lesson.Score(c.Score).IsValid() {
		return fmt.Errorf("update_participation: score %d is out of range", c.Score)
	}
	return nil
}

// UpdateParticipationResult contains the result of the correction.
type UpdateParticipationResult struct {
	LessonID  string
	StudentID string
	OldScore  int
	NewScore  int
	Changed   bool
	Message   string
}

// UpdateParticipationHandler handles the UpdateParticipationCommand.
type UpdateParticipationHandler struct {
	uow   UnitOfWork
	cache lesson.MonthlyAttendanceCache
}

// NewUpdateParticipationHandler creates a new UpdateParticipationHandler.
func NewUpdateParticipationHandler(uow UnitOfWork, cache lesson.MonthlyAttendanceCache) *UpdateParticipationHandler {
	return &UpdateParticipationHandler{uow: uow, cache: cache}
}

// Handle executes the participation correction in one transaction.
func (h *UpdateParticipationHandler) Handle(ctx context.Context, cmd UpdateParticipationCommand) (*UpdateParticipationResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("lesson", "UpdateParticipation", shared.ErrInvalidInput, "invalid command", err)
	}

	result := &UpdateParticipationResult{
		LessonID:  cmd.LessonID,
		StudentID: cmd.StudentID,
		NewScore:  cmd.Score,
	}

	err := h.uow.WithinTx(ctx, func(ctx context.Context, r Repos) error {
		if _, err := getActiveLesson(ctx, r, cmd.LessonID, "UpdateParticipation"); err != nil {
			return err
		}

		if err := requireAttended(ctx, r, cmd.LessonID, cmd.StudentID, "UpdateParticipation"); err != nil {
			return err
		}

		prev, err := r.Participation.Get(ctx, cmd.LessonID, cmd.StudentID)
		switch {
		case errors.Is(err, lesson.ErrParticipationNotFound):
			result.Changed = true
			result.Message = fmt.Sprintf("participation score created: %d", cmd.Score)
		case err != nil:
			return shared.WrapError("lesson", "UpdateParticipation", shared.ErrStorage, "load participation", err)
		case int(prev.Score) == cmd.Score:
			result.OldScore = int(prev.Score)
			result.Message = "no change"
			return nil
		default:
			result.OldScore = int(prev.Score)
			result.Changed = true
			result.Message = fmt.Sprintf("participation score updated: %d -> %d", prev.Score, cmd.Score)
		}

		part, err := lesson.NewParticipation(uuid.NewString(), cmd.LessonID, cmd.StudentID, lesson.Score(cmd.Score))
		if err != nil {
			return err
		}
		if err := r.Participation.Upsert(ctx, part); err != nil {
			return shared.WrapError("lesson", "UpdateParticipation", shared.ErrStorage, "save participation", err)
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
