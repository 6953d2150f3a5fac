// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/maktab-hub/maktab-tracker/internal/domain/lesson"
	"github.com/maktab-hub/maktab-tracker/internal/domain/shared"
	"github.com/maktab-hub/maktab-tracker/internal/domain/student"
	"github.com/maktab-hub/maktab-tracker/pkg/dateutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT ATTENDANCE HISTORY QUERY
// ══════════════════════════════════════════════════════════════════════════════

// AttendanceHistoryQuery requests a student's attendance over a date range.
type AttendanceHistoryQuery struct {
	StudentID string
	From      time.Time
	To        time.Time
}

// Validate validates the query.
func (q AttendanceHistoryQuery) Validate() error {
	if q.StudentID == "" {
		return errors.New("attendance_history: student_id is required")
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.To.Before(q.From) {
		return errors.New("attendance_history: range end is before range start")
	}
	return nil
}

// AttendanceRecord is one lesson's attendance from the student's viewpoint.
type AttendanceRecord struct {
	LessonID            string
	LessonDate          time.Time
	Attended            bool
	ConsecutiveAbsences int
}

// AttendanceHistoryResult contains the history with totals.
type AttendanceHistoryResult struct {
	StudentID     string
	StudentName   string
	TotalLessons  int
	AttendedCount int
	AbsentCount   int

	// AttendancePercent is attended/total in percent, 0 for empty history.
	AttendancePercent float64

	// CurrentStreak is the consecutive-absence streak of the most recent
	// record, 0 if the student attended it.
	CurrentStreak int

	Records []AttendanceRecord
}

// AttendanceHistoryHandler handles the AttendanceHistoryQuery.
type AttendanceHistoryHandler struct {
	students   student.Repository
	attendance lesson.AttendanceRepository
}

// NewAttendanceHistoryHandler creates a new AttendanceHistoryHandler.
func NewAttendanceHistoryHandler(students student.Repository, attendance lesson.AttendanceRepository) *AttendanceHistoryHandler {
	return &AttendanceHistoryHandler{students: students, attendance: attendance}
}

// Handle executes the query.
func (h *AttendanceHistoryHandler) Handle(ctx context.Context, q AttendanceHistoryQuery) (*AttendanceHistoryResult, error) {
	if err := q.Validate(); err != nil {
		return nil, shared.WrapError("lesson", "AttendanceHistory", shared.ErrInvalidInput, "invalid query", err)
	}

	stu, err := h.students.GetByID(ctx, q.StudentID)
	if err != nil {
		if errors.Is(err, student.ErrStudentNotFound) {
			return nil, shared.NewDomainError("lesson", "AttendanceHistory", shared.ErrNotFound,
				fmt.Sprintf("student %s not found", q.StudentID))
		}
		return nil, shared.WrapError("lesson", "AttendanceHistory", shared.ErrStorage, "load student", err)
	}

	from := q.From
	if from.IsZero() {
		from = dateutil.EpochFloor
	}
	to := q.To
	if to.IsZero() {
		to = dateutil.DateOnly(time.Now())
	}

	records, err := h.attendance.GetByStudent(ctx, q.StudentID, from, to)
	if err != nil {
		return nil, shared.WrapError("lesson", "AttendanceHistory", shared.ErrStorage, "load history", err)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].LessonDate.After(records[j].LessonDate)
	})

	result := &AttendanceHistoryResult{
		StudentID:   stu.ID,
		StudentName: stu.FullName,
	}

	for _, rec := range records {
		result.TotalLessons++
		if rec.Attended {
			result.AttendedCount++
		} else {
			result.AbsentCount++
		}
		result.Records = append(result.Records, AttendanceRecord{
			LessonID:            rec.LessonID,
			LessonDate:          rec.LessonDate,
			Attended:            rec.Attended,
			ConsecutiveAbsences: rec.ConsecutiveAbsences,
		})
	}

	if result.TotalLessons > 0 {
		result.AttendancePercent = float64(result.AttendedCount) / float64(result.TotalLessons) * 100
		result.CurrentStreak = result.Records[0].ConsecutiveAbsences
	}

	return result, nil
}
