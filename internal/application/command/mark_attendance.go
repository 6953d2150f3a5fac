package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/maktab-hub/maktab-tracker/internal/domain/lesson"
	"github.com/maktab-hub/maktab-tracker/internal/domain/shared"
	"github.com/maktab-hub/maktab-tracker/internal/domain/student"
	"github.com/maktab-hub/maktab-tracker/pkg/dateutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// MARK ATTENDANCE COMMAND
// Bulk-replace attendance for one lesson over the full active roster.
// Any pre-existing attendance rows for the lesson are deleted first;
// attended students get a fresh baseline participation score, absent
// students get a recomputed consecutive-absence streak.
// ══════════════════════════════════════════════════════════════════════════════

// MarkAttendanceCommand contains the data to mark a lesson's attendance.
type MarkAttendanceCommand struct {
	// LessonID is the lesson being marked.
	LessonID string

	// AttendedStudentIDs lists the students who attended. Every active
	// student not in this list is recorded as absent.
	AttendedStudentIDs []string
}

// Validate validates the command.
func (c MarkAttendanceCommand) Validate() error {
	if c.LessonID == "" {
		return errors.New("mark_attendance: lesson_id is required")
	}
	return nil
}

// AbsenceWarning is one warning entry for a student whose streak reached
// the warning threshold.
type AbsenceWarning struct {
	StudentID           string
	StudentName         string
	ConsecutiveAbsences int
	Tag                 lesson.WarningTag
	Triggered           bool
}

// MarkAttendanceResult contains the result of marking attendance.
type MarkAttendanceResult struct {
	LessonID      string
	AttendedCount int
	AbsentCount   int
	Warnings      []AbsenceWarning
}

// MarkAttendanceHandler handles the MarkAttendanceCommand.
type MarkAttendanceHandler struct {
	uow       UnitOfWork
	publisher shared.EventPublisher
	cache     lesson.MonthlyAttendanceCache
}

// NewMarkAttendanceHandler creates a new MarkAttendanceHandler.
// The cache may be nil when Redis is disabled.
func NewMarkAttendanceHandler(uow UnitOfWork, publisher shared.EventPublisher, cache lesson.MonthlyAttendanceCache) *MarkAttendanceHandler {
	return &MarkAttendanceHandler{uow: uow, publisher: publisher, cache: cache}
}

// Handle executes the mark attendance command in one transaction.
func (h *MarkAttendanceHandler) Handle(ctx context.Context, cmd MarkAttendanceCommand) (*MarkAttendanceResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("lesson", "MarkAttendance", shared.ErrInvalidInput, "invalid command", err)
	}

	result := &MarkAttendanceResult{LessonID: cmd.LessonID}
	var events []shared.Event
	var rosterIDs []string

	err := h.uow.WithinTx(ctx, func(ctx context.Context, r Repos) error {
		les, err := getActiveLesson(ctx, r, cmd.LessonID, "MarkAttendance")
		if err != nil {
			return err
		}

		roster, err := r.Students.GetActive(ctx)
		if err != nil {
			return shared.WrapError("lesson", "MarkAttendance", shared.ErrStorage, "load active roster", err)
		}

		attended := make(map[string]bool, len(cmd.AttendedStudentIDs))
		for _, id := range cmd.AttendedStudentIDs {
			attended[id] = true
		}

		// Every listed id must resolve to an active student.
		if err := checkAttendedIDs(roster, cmd.AttendedStudentIDs); err != nil {
			return err
		}

		// Full replace: drop whatever a previous marking pass wrote.
		if err := r.Attendance.DeleteByLesson(ctx, cmd.LessonID); err != nil {
			return shared.WrapError("lesson", "MarkAttendance", shared.ErrStorage, "clear previous attendance", err)
		}
		if err := r.Participation.DeleteByLesson(ctx, cmd.LessonID); err != nil {
			return shared.WrapError("lesson", "MarkAttendance", shared.ErrStorage, "clear previous participation", err)
		}

		for _, stu := range roster {
			rosterIDs = append(rosterIDs, stu.ID)
			isAttended := attended[stu.ID]

			streak := 0
			if !isAttended {
				streak, err = computeStreak(ctx, r, stu.ID, les.Date)
				if err != nil {
					return err
				}
			}

			rec := lesson.NewAttendance(uuid.NewString(), les.ID, stu.ID, les.Date, isAttended, streak)
			if err := r.Attendance.Create(ctx, rec); err != nil {
				return shared.WrapError("lesson", "MarkAttendance", shared.ErrStorage,
					fmt.Sprintf("save attendance for %s", stu.FullName), err)
			}

			if isAttended {
				// Baseline participation is always created fresh on the
				// bulk path, even if an earlier pass had a real score.
				part, err := lesson.NewParticipation(uuid.NewString(), les.ID, stu.ID, lesson.BaselineScore)
				if err != nil {
					return err
				}
				if err := r.Participation.Create(ctx, part); err != nil {
					return shared.WrapError("lesson", "MarkAttendance", shared.ErrStorage,
						fmt.Sprintf("save baseline participation for %s", stu.FullName), err)
				}
				result.AttendedCount++
				continue
			}

			// Absence retracts homework kept from an earlier marking pass;
			// participation was already cleared by the full replace above.
			if err := retractAttendanceArtifacts(ctx, r, les.ID, stu.ID); err != nil {
				return shared.WrapError("lesson", "MarkAttendance", shared.ErrStorage, "retract artifacts", err)
			}

			result.AbsentCount++
			if tag := lesson.ClassifyStreak(streak); tag != "" {
				result.Warnings = append(result.Warnings, AbsenceWarning{
					StudentID:           stu.ID,
					StudentName:         stu.FullName,
					ConsecutiveAbsences: streak,
					Tag:                 tag,
					Triggered:           true,
				})
				events = append(events, shared.NewStreakWarningEvent(stu.ID, stu.FullName, les.ID, streak))
			}
		}

		les.MarkAttendanceDone()
		if err := r.Lessons.Update(ctx, les); err != nil {
			return shared.WrapError("lesson", "MarkAttendance", shared.ErrStorage, "update lesson flags", err)
		}

		events = append(events, shared.NewAttendanceMarkedEvent(les.ID, les.Date, result.AttendedCount, result.AbsentCount))
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, ev := range events {
		_ = h.publisher.Publish(ev)
	}
	h.invalidateCaches(ctx, rosterIDs)

	return result, nil
}

func (h *MarkAttendanceHandler) invalidateCaches(ctx context.Context, studentIDs []string) {
	if h.cache == nil {
		return
	}
	for _, id := range studentIDs {
		_ = h.cache.Invalidate(ctx, id)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// SHARED HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// getActiveLesson loads a lesson and rejects soft-deleted ones.
func getActiveLesson(ctx context.Context, r Repos, lessonID, op string) (*lesson.Lesson, error) {
	les, err := r.Lessons.GetByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, lesson.ErrLessonNotFound) {
			return nil, shared.NewDomainError("lesson", op, shared.ErrNotFound,
				fmt.Sprintf("lesson %s not found", lessonID))
		}
		return nil, shared.WrapError("lesson", op, shared.ErrStorage, "load lesson", err)
	}
	if les.IsDeleted() {
		return nil, shared.NewDomainError("lesson", op, shared.ErrNotFound,
			fmt.Sprintf("lesson %s is deleted", lessonID))
	}
	return les, nil
}

// checkAttendedIDs verifies that every listed id belongs to the active roster.
func checkAttendedIDs(roster []*student.Student, ids []string) error {
	active := make(map[string]bool, len(roster))
	for _, stu := range roster {
		active[stu.ID] = true
	}
	for _, id := range ids {
		if !active[id] {
			return shared.NewDomainError("lesson", "MarkAttendance", shared.ErrInvalidInput,
				fmt.Sprintf("student %s is not an active student", id))
		}
	}
	return nil
}

// computeStreak recomputes the consecutive-absence streak for an absence
// being recorded on lessonDate, scanning history back to the epoch floor.
func computeStreak(ctx context.Context, r Repos, studentID string, lessonDate time.Time) (int, error) {
	history, err := r.Attendance.GetByStudent(ctx, studentID, dateutil.EpochFloor, lessonDate)
	if err != nil {
		return 0, shared.WrapError("lesson", "CalculateStreak", shared.ErrStorage,
			fmt.Sprintf("load attendance history for student %s", studentID), err)
	}
	return lesson.ConsecutiveAbsences(history, lessonDate, dateutil.EpochFloor), nil
}
