package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/maktab-hub/maktab-tracker/internal/domain/lesson"
	"github.com/maktab-hub/maktab-tracker/internal/domain/shared"
	"github.com/maktab-hub/maktab-tracker/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE ATTENDANCE COMMANDS
// Targeted corrections to existing attendance rows, unlike the full-replace
// semantics of MarkAttendance. The single path is one transaction; the
// batch path runs one sub-transaction per item and reports failures inline.
// ══════════════════════════════════════════════════════════════════════════════

// UpdateAttendanceCommand corrects one student's attendance on one lesson.
type UpdateAttendanceCommand struct {
	LessonID  string
	StudentID string
	Attended  bool
}

// Validate validates the command.
func (c UpdateAttendanceCommand) Validate() error {
	if c.LessonID == "" {
		return errors.New("update_attendance: lesson_id is required")
	}
	if c.StudentID == "" {
		return errors.New("update_attendance: student_id is required")
	}
	return nil
}

// UpdateAttendanceResult contains the result of a targeted correction.
type UpdateAttendanceResult struct {
	LessonID            string
	StudentID           string
	StudentName         string
	Attended            bool
	ConsecutiveAbsences int
	Changed             bool
	Message             string
}

// UpdateAttendanceHandler handles single targeted attendance corrections.
type UpdateAttendanceHandler struct {
	uow       UnitOfWork
	publisher shared.EventPublisher
	cache     lesson.MonthlyAttendanceCache
}

// NewUpdateAttendanceHandler creates a new UpdateAttendanceHandler.
func NewUpdateAttendanceHandler(uow UnitOfWork, publisher shared.EventPublisher, cache lesson.MonthlyAttendanceCache) *UpdateAttendanceHandler {
	return &UpdateAttendanceHandler{uow: uow, publisher: publisher, cache: cache}
}

// Handle executes the single-student attendance correction.
func (h *UpdateAttendanceHandler) Handle(ctx context.Context, cmd UpdateAttendanceCommand) (*UpdateAttendanceResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("lesson", "UpdateAttendance", shared.ErrInvalidInput, "invalid command", err)
	}

	var result *UpdateAttendanceResult
	var events []shared.Event

	err := h.uow.WithinTx(ctx, func(ctx context.Context, r Repos) error {
		res, evs, err := applyAttendanceUpdate(ctx, r, cmd)
		if err != nil {
			return err
		}
		result = res
		events = evs
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, ev := range events {
		_ = h.publisher.Publish(ev)
	}
	if h.cache != nil {
		_ = h.cache.Invalidate(ctx, cmd.StudentID)
	}

	return result, nil
}

// applyAttendanceUpdate holds the per-student correction logic shared by the
// single and batch paths. Must be called inside a transaction.
func applyAttendanceUpdate(ctx context.Context, r Repos, cmd UpdateAttendanceCommand) (*UpdateAttendanceResult, []shared.Event, error) {
	les, err := getActiveLesson(ctx, r, cmd.LessonID, "UpdateAttendance")
	if err != nil {
		return nil, nil, err
	}

	stu, err := r.Students.GetByID(ctx, cmd.StudentID)
	if err != nil {
		if errors.Is(err, student.ErrStudentNotFound) {
			return nil, nil, shared.NewDomainError("lesson", "UpdateAttendance", shared.ErrNotFound,
				fmt.Sprintf("student %s not found", cmd.StudentID))
		}
		return nil, nil, shared.WrapError("lesson", "UpdateAttendance", shared.ErrStorage, "load student", err)
	}
	if stu.IsArchived() {
		return nil, nil, shared.NewDomainError("lesson", "UpdateAttendance", shared.ErrInvalidInput,
			fmt.Sprintf("student %s is archived", stu.FullName))
	}

	rec, err := r.Attendance.Get(ctx, cmd.LessonID, cmd.StudentID)
	if err != nil {
		if errors.Is(err, lesson.ErrAttendanceNotFound) {
			return nil, nil, shared.NewDomainError("lesson", "UpdateAttendance", shared.ErrNotFound,
				fmt.Sprintf("no attendance record for %s on this lesson", stu.FullName))
		}
		return nil, nil, shared.WrapError("lesson", "UpdateAttendance", shared.ErrStorage, "load attendance", err)
	}

	result := &UpdateAttendanceResult{
		LessonID:    cmd.LessonID,
		StudentID:   cmd.StudentID,
		StudentName: stu.FullName,
		Attended:    cmd.Attended,
	}

	if rec.Attended == cmd.Attended {
		result.ConsecutiveAbsences = rec.ConsecutiveAbsences
		result.Message = fmt.Sprintf("%s: no change, already marked %s", stu.FullName, attendedWord(cmd.Attended))
		return result, nil, nil
	}

	var events []shared.Event

	if cmd.Attended {
		rec.Attended = true
		rec.ConsecutiveAbsences = 0

		// Idempotent on this path: keep an existing score if one survives
		// from an earlier marking pass.
		_, err := r.Participation.Get(ctx, cmd.LessonID, cmd.StudentID)
		switch {
		case errors.Is(err, lesson.ErrParticipationNotFound):
			part, perr := lesson.NewParticipation(uuid.NewString(), cmd.LessonID, cmd.StudentID, lesson.BaselineScore)
			if perr != nil {
				return nil, nil, perr
			}
			if err := r.Participation.Create(ctx, part); err != nil {
				return nil, nil, shared.WrapError("lesson", "UpdateAttendance", shared.ErrStorage, "save baseline participation", err)
			}
		case err != nil:
			return nil, nil, shared.WrapError("lesson", "UpdateAttendance", shared.ErrStorage, "check participation", err)
		}
	} else {
		streak, err := computeStreak(ctx, r, cmd.StudentID, les.Date)
		if err != nil {
			return nil, nil, err
		}
		rec.Attended = false
		rec.ConsecutiveAbsences = streak

		// Absence retracts homework and participation for this lesson.
		if err := retractAttendanceArtifacts(ctx, r, cmd.LessonID, cmd.StudentID); err != nil {
			return nil, nil, shared.WrapError("lesson", "UpdateAttendance", shared.ErrStorage, "retract artifacts", err)
		}

		if streak >= lesson.WarningThreshold {
			events = append(events, shared.NewStreakWarningEvent(stu.ID, stu.FullName, les.ID, streak))
		}
	}

	if err := r.Attendance.Update(ctx, rec); err != nil {
		return nil, nil, shared.WrapError("lesson", "UpdateAttendance", shared.ErrStorage, "save attendance", err)
	}

	result.ConsecutiveAbsences = rec.ConsecutiveAbsences
	result.Changed = true
	result.Message = fmt.Sprintf("%s: marked %s", stu.FullName, attendedWord(cmd.Attended))
	return result, events, nil
}

func attendedWord(attended bool) string {
	if attended {
		return "attended"
	}
	return "absent"
}

// ══════════════════════════════════════════════════════════════════════════════
// BATCH UPDATE
// Best-effort by design: each item runs in its own sub-transaction and a
// failure is captured as an inline error entry, never aborting siblings.
// Recoverable per-item conditions: student or attendance row not found,
// archived student, invalid input. Unexpected store failures are captured
// the same way - only the failing item is lost.
// ══════════════════════════════════════════════════════════════════════════════

// AttendanceUpdateItem is one entry of a batch correction.
type AttendanceUpdateItem struct {
	StudentID string
	Attended  bool
}

// BatchUpdateAttendanceCommand corrects several students on one lesson.
type BatchUpdateAttendanceCommand struct {
	LessonID string
	Updates  []AttendanceUpdateItem
}

// Validate validates the command.
func (c BatchUpdateAttendanceCommand) Validate() error {
	if c.LessonID == "" {
		return errors.New("batch_update_attendance: lesson_id is required")
	}
	if len(c.Updates) == 0 {
		return errors.New("batch_update_attendance: updates list is empty")
	}
	return nil
}

// BatchItemResult tags one batch item as ok or failed.
type BatchItemResult struct {
	StudentID string
	OK        bool
	Result    *UpdateAttendanceResult
	Error     string
}

// BatchUpdateAttendanceResult aggregates per-item outcomes.
type BatchUpdateAttendanceResult struct {
	LessonID     string
	TotalCount   int
	SuccessCount int
	FailedCount  int
	Items        []BatchItemResult
}

// BatchUpdateAttendanceHandler handles best-effort batch corrections.
type BatchUpdateAttendanceHandler struct {
	uow       UnitOfWork
	publisher shared.EventPublisher
	cache     lesson.MonthlyAttendanceCache
}

// NewBatchUpdateAttendanceHandler creates a new BatchUpdateAttendanceHandler.
func NewBatchUpdateAttendanceHandler(uow UnitOfWork, publisher shared.EventPublisher, cache lesson.MonthlyAttendanceCache) *BatchUpdateAttendanceHandler {
	return &BatchUpdateAttendanceHandler{uow: uow, publisher: publisher, cache: cache}
}

// Handle executes the batch. The batch as a whole never fails atomically.
func (h *BatchUpdateAttendanceHandler) Handle(ctx context.Context, cmd BatchUpdateAttendanceCommand) (*BatchUpdateAttendanceResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("lesson", "BatchUpdateAttendance", shared.ErrInvalidInput, "invalid command", err)
	}

	result := &BatchUpdateAttendanceResult{
		LessonID:   cmd.LessonID,
		TotalCount: len(cmd.Updates),
		Items:      make([]BatchItemResult, 0, len(cmd.Updates)),
	}

	for _, item := range cmd.Updates {
		itemCmd := UpdateAttendanceCommand{
			LessonID:  cmd.LessonID,
			StudentID: item.StudentID,
			Attended:  item.Attended,
		}

		var itemResult *UpdateAttendanceResult
		var events []shared.Event

		err := h.uow.WithinTx(ctx, func(ctx context.Context, r Repos) error {
			res, evs, err := applyAttendanceUpdate(ctx, r, itemCmd)
			if err != nil {
				return err
			}
			itemResult = res
			events = evs
			return nil
		})
		if err != nil {
			result.FailedCount++
			result.Items = append(result.Items, BatchItemResult{
				StudentID: item.StudentID,
				Error:     err.Error(),
			})
			continue
		}

		for _, ev := range events {
			_ = h.publisher.Publish(ev)
		}
		if h.cache != nil {
			_ = h.cache.Invalidate(ctx, item.StudentID)
		}

		result.SuccessCount++
		result.Items = append(result.Items, BatchItemResult{
			StudentID: item.StudentID,
			OK:        true,
			Result:    itemResult,
		})
	}

	return result, nil
}
