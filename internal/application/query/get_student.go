package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/maktab-hub/maktab-tracker/internal/domain/behavioral"
	"github.com/maktab-hub/maktab-tracker/internal/domain/lesson"
	"github.com/maktab-hub/maktab-tracker/internal/domain/shared"
	"github.com/maktab-hub/maktab-tracker/internal/domain/student"
	"github.com/maktab-hub/maktab-tracker/pkg/dateutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT LIST AND DETAIL QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// ListStudentsQuery lists students by lifecycle status.
type ListStudentsQuery struct {
	// Archived selects the archive instead of the active roster.
	Archived bool
}

// StudentSummary is one student row in the list view.
type StudentSummary struct {
	StudentID  string
	FullName   string
	Status     student.Status
	ArchivedAt time.Time

	// DaysInArchive is meaningful only for archived students.
	DaysInArchive int
}

// ListStudentsResult contains the roster.
type ListStudentsResult struct {
	Students []StudentSummary
}

// ListStudentsHandler handles the ListStudentsQuery.
type ListStudentsHandler struct {
	students student.Repository
}

// NewListStudentsHandler creates a new ListStudentsHandler.
func NewListStudentsHandler(students student.Repository) *ListStudentsHandler {
	return &ListStudentsHandler{students: students}
}

// Handle executes the query.
func (h *ListStudentsHandler) Handle(ctx context.Context, q ListStudentsQuery) (*ListStudentsResult, error) {
	var (
		roster []*student.Student
		err    error
	)
	if q.Archived {
		roster, err = h.students.GetArchived(ctx)
	} else {
		roster, err = h.students.GetActive(ctx)
	}
	if err != nil {
		return nil, shared.WrapError("student", "ListStudents", shared.ErrStorage, "load roster", err)
	}

	now := time.Now()
	result := &ListStudentsResult{}
	for _, stu := range roster {
		result.Students = append(result.Students, StudentSummary{
			StudentID:     stu.ID,
			FullName:      stu.FullName,
			Status:        stu.Status,
			ArchivedAt:    stu.ArchivedAt,
			DaysInArchive: stu.DaysInArchive(now),
		})
	}
	return result, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Student detail
// ─────────────────────────────────────────────────────────────────────────────

// StudentDetailQuery requests one student's card with lifetime statistics.
type StudentDetailQuery struct {
	StudentID string
}

// StudentDetailResult is the full student view.
type StudentDetailResult struct {
	Student *student.Student
	Parent  *student.Parent

	// Lifetime attendance statistics across all active lessons.
	TotalLessons      int
	AttendedCount     int
	AbsentCount       int
	AttendancePercent float64

	// CurrentStreak is the consecutive-absence streak of the most recent
	// record, 0 if the student attended it.
	CurrentStreak int

	// Incident totals for the current calendar month.
	MonthlyIncidents int
	BehavioralLevel  behavioral.Level
}

// StudentDetailHandler handles the StudentDetailQuery.
type StudentDetailHandler struct {
	students   student.Repository
	parents    student.ParentRepository
	attendance lesson.AttendanceRepository
	incidents  behavioral.Repository
}

// NewStudentDetailHandler creates a new StudentDetailHandler.
func NewStudentDetailHandler(
	students student.Repository,
	parents student.ParentRepository,
	attendance lesson.AttendanceRepository,
	incidents behavioral.Repository,
) *StudentDetailHandler {
	return &StudentDetailHandler{
		students:   students,
		parents:    parents,
		attendance: attendance,
		incidents:  incidents,
	}
}

// Handle executes the query.
func (h *StudentDetailHandler) Handle(ctx context.Context, q StudentDetailQuery) (*StudentDetailResult, error) {
	if q.StudentID == "" {
		return nil, shared.NewDomainError("student", "StudentDetail", shared.ErrInvalidInput, "student_id is required")
	}

	stu, err := h.students.GetByID(ctx, q.StudentID)
	if err != nil {
		if errors.Is(err, student.ErrStudentNotFound) {
			return nil, shared.NewDomainError("student", "StudentDetail", shared.ErrNotFound,
				fmt.Sprintf("student %s not found", q.StudentID))
		}
		return nil, shared.WrapError("student", "StudentDetail", shared.ErrStorage, "load student", err)
	}

	result := &StudentDetailResult{Student: stu}

	if parent, err := h.parents.GetByID(ctx, stu.ParentID); err == nil {
		result.Parent = parent
	}

	now := time.Now()
	records, err := h.attendance.GetByStudent(ctx, stu.ID, dateutil.EpochFloor, dateutil.DateOnly(now))
	if err != nil {
		return nil, shared.WrapError("student", "StudentDetail", shared.ErrStorage, "load attendance", err)
	}

	var latest *lesson.Attendance
	for _, rec := range records {
		result.TotalLessons++
		if rec.Attended {
			result.AttendedCount++
		} else {
			result.AbsentCount++
		}
		if latest == nil || rec.LessonDate.After(latest.LessonDate) {
			latest = rec
		}
	}
	if result.TotalLessons > 0 {
		result.AttendancePercent = float64(result.AttendedCount) / float64(result.TotalLessons) * 100
		result.CurrentStreak = latest.ConsecutiveAbsences
	}

	ym := dateutil.YearMonthOf(now)
	start, _ := ym.Bounds()
	end := start.AddDate(0, 1, 0)
	count, err := h.incidents.CountByStudentInRange(ctx, stu.ID, start, end)
	if err != nil {
		return nil, shared.WrapError("student", "StudentDetail", shared.ErrStorage, "count incidents", err)
	}
	result.MonthlyIncidents = count
	result.BehavioralLevel = behavioral.ClassifyLevel(count)

	return result, nil
}
