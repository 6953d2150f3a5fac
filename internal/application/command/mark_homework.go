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
// MARK HOMEWORK COMMAND
// Bulk-replace homework for one lesson. Only students marked attended are
// eligible; a single ineligible id aborts the whole operation so no rows
// are written for anyone.
// ══════════════════════════════════════════════════════════════════════════════

// MarkHomeworkCommand contains the data to mark a lesson's homework.
type MarkHomeworkCommand struct {
	// LessonID is the lesson being marked.
	LessonID string

	// CompletedStudentIDs lists attended students who completed the
	// homework. Every other attended student gets completed=false.
	CompletedStudentIDs []string
}

// Validate validates the command.
func (c MarkHomeworkCommand) Validate() error {
	if c.LessonID == "" {
		return errors.New("mark_homework: lesson_id is required")
	}
	return nil
}

// MarkHomeworkResult contains the result of marking homework.
type MarkHomeworkResult struct {
	LessonID       string
	CompletedCount int
	MissingCount   int

	// Advisory is a non-fatal note, set when homework is marked on a
	// lesson declared to have none.
	Advisory string
}

// MarkHomeworkHandler handles the MarkHomeworkCommand.
type MarkHomeworkHandler struct {
	uow   UnitOfWork
	cache lesson.MonthlyAttendanceCache
}

// NewMarkHomeworkHandler creates a new MarkHomeworkHandler.
func NewMarkHomeworkHandler(uow UnitOfWork, cache lesson.MonthlyAttendanceCache) *MarkHomeworkHandler {
	return &MarkHomeworkHandler{uow: uow, cache: cache}
}

// Handle executes the mark homework command in one transaction.
func (h *MarkHomeworkHandler) Handle(ctx context.Context, cmd MarkHomeworkCommand) (*MarkHomeworkResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("lesson", "MarkHomework", shared.ErrInvalidInput, "invalid command", err)
	}

	result := &MarkHomeworkResult{LessonID: cmd.LessonID}
	var touched []string

	err := h.uow.WithinTx(ctx, func(ctx context.Context, r Repos) error {
		les, err := getActiveLesson(ctx, r, cmd.LessonID, "MarkHomework")
		if err != nil {
			return err
		}

		attendedIDs, err := attendedStudentIDs(ctx, r, cmd.LessonID, "MarkHomework")
		if err != nil {
			return err
		}

		completed := make(map[string]bool, len(cmd.CompletedStudentIDs))
		for _, id := range cmd.CompletedStudentIDs {
			if !attendedIDs[id] {
				return shared.NewDomainError("lesson", "MarkHomework", shared.ErrInvalidInput,
					fmt.Sprintf("student %s did not attend this lesson", id))
			}
			completed[id] = true
		}

		// Full replace, same shape as attendance marking.
		if err := r.Homework.DeleteByLesson(ctx, cmd.LessonID); err != nil {
			return shared.WrapError("lesson", "MarkHomework", shared.ErrStorage, "clear previous homework", err)
		}

		for id := range attendedIDs {
			hw := lesson.NewHomework(uuid.NewString(), cmd.LessonID, id, completed[id])
			if err := r.Homework.Upsert(ctx, hw); err != nil {
				return shared.WrapError("lesson", "MarkHomework", shared.ErrStorage,
					fmt.Sprintf("save homework for student %s", id), err)
			}
			touched = append(touched, id)
			if completed[id] {
				result.CompletedCount++
			} else {
				result.MissingCount++
			}
		}

		les.MarkHomeworkDone()
		if err := r.Lessons.Update(ctx, les); err != nil {
			return shared.WrapError("lesson", "MarkHomework", shared.ErrStorage, "update lesson flags", err)
		}

		if !les.HasHomework {
			result.Advisory = "lesson is declared to have no homework; marks recorded anyway"
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		for _, id := range touched {
			_ = h.cache.Invalidate(ctx, id)
		}
	}

	return result, nil
}

// attendedStudentIDs returns the set of students with attended=true on the
// lesson. The eligibility gate for homework, participation, and incidents.
func attendedStudentIDs(ctx context.Context, r Repos, lessonID, op string) (map[string]bool, error) {
	records, err := r.Attendance.GetByLesson(ctx, lessonID)
	if err != nil {
		return nil, shared.WrapError("lesson", op, shared.ErrStorage, "load lesson attendance", err)
	}

	attended := make(map[string]bool, len(records))
	for _, rec := range records {
		if rec.Attended {
			attended[rec.StudentID] = true
		}
	}
	return attended, nil
}
