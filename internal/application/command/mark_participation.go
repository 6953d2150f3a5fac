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
// MARK PARTICIPATION COMMAND
// Per-student upsert of participation scores. Unlike attendance and
// homework marking this is NOT a full replace: students absent from the
// scores list keep whatever score they already have.
// ══════════════════════════════════════════════════════════════════════════════

// ParticipationScore is one student's score entry.
type ParticipationScore struct {
	StudentID string
	Score     int
}

// MarkParticipationCommand contains the data to mark participation.
type MarkParticipationCommand struct {
	LessonID string
	Scores   []ParticipationScore
}

// Validate validates the command.
func (c MarkParticipationCommand) Validate() error {
	if c.LessonID == "" {
		return errors.New("mark_participation: lesson_id is required")
	}
	if len(c.Scores) == 0 {
		return errors.New("mark_participation: scores list is empty")
	}
	for _, s := range c.Scores {
		if s.StudentID == "" {
			return errors.New("mark_participation: student_id is required in every entry")
		}
		if !lesson.Score(s.Score).IsValid() {
			return fmt.Errorf("mark_participation: score %d for student %s is out of range", s.Score, s.StudentID)
		}
	}
	return nil
}

// MarkParticipationResult contains the result of marking participation.
type MarkParticipationResult struct {
	LessonID      string
	UpsertedCount int
}

// MarkParticipationHandler handles the MarkParticipationCommand.
type MarkParticipationHandler struct {
	uow   UnitOfWork
	cache lesson.MonthlyAttendanceCache
}

// NewMarkParticipationHandler creates a new MarkParticipationHandler.
func NewMarkParticipationHandler(uow UnitOfWork, cache lesson.MonthlyAttendanceCache) *MarkParticipationHandler {
	return &MarkParticipationHandler{uow: uow, cache: cache}
}

// Handle executes the mark participation command in one transaction.
func (h *MarkParticipationHandler) Handle(ctx context.Context, cmd MarkParticipationCommand) (*MarkParticipationResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("lesson", "MarkParticipation", shared.ErrInvalidInput, "invalid command", err)
	}

	result := &MarkParticipationResult{LessonID: cmd.LessonID}

	err := h.uow.WithinTx(ctx, func(ctx context.Context, r Repos) error {
		les, err := getActiveLesson(ctx, r, cmd.LessonID, "MarkParticipation")
		if err != nil {
			return err
		}

		attendedIDs, err := attendedStudentIDs(ctx, r, cmd.LessonID, "MarkParticipation")
		if err != nil {
			return err
		}

		for _, entry := range cmd.Scores {
			if !attendedIDs[entry.StudentID] {
				return shared.NewDomainError("lesson", "MarkParticipation", shared.ErrInvalidInput,
					fmt.Sprintf("student %s did not attend this lesson", entry.StudentID))
			}
		}

		for _, entry := range cmd.Scores {
			part, err := lesson.NewParticipation(uuid.NewString(), cmd.LessonID, entry.StudentID, lesson.Score(entry.Score))
			if err != nil {
				return err
			}
			if err := r.Participation.Upsert(ctx, part); err != nil {
				return shared.WrapError("lesson", "MarkParticipation", shared.ErrStorage,
					fmt.Sprintf("save participation for student %s", entry.StudentID), err)
			}
			result.UpsertedCount++
		}

		les.MarkParticipationDone()
		if err := r.Lessons.Update(ctx, les); err != nil {
			return shared.WrapError("lesson", "MarkParticipation", shared.ErrStorage, "update lesson flags", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		for _, entry := range cmd.Scores {
			_ = h.cache.Invalidate(ctx, entry.StudentID)
		}
	}

	return result, nil
}
