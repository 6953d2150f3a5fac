package query

import (
	"context"
	"sort"

	"github.com/maktab-hub/maktab-tracker/internal/domain/lesson"
	"github.com/maktab-hub/maktab-tracker/internal/domain/shared"
	"github.com/maktab-hub/maktab-tracker/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// ABSENCE WARNINGS QUERY
// ══════════════════════════════════════════════════════════════════════════════

// WarningsQuery lists students whose absence streak calls for contacting
// the parent. An empty query uses the standard warning threshold.
type WarningsQuery struct {
	// MinStreak overrides the threshold when above it; values below the
	// standard threshold are ignored.
	MinStreak int
}

// WarningEntry is one student on the warning list.
type WarningEntry struct {
	StudentID           string
	StudentName         string
	ConsecutiveAbsences int
	Tag                 lesson.WarningTag

	// Parent contact details so the caller can act on the warning directly.
	ParentName     string
	ParentContact  string
	ContactMethod  student.ContactMethod
}

// WarningsResult contains the warning list ordered by streak length.
type WarningsResult struct {
	Entries []WarningEntry
}

// WarningsHandler handles the WarningsQuery.
type WarningsHandler struct {
	students   student.Repository
	parents    student.ParentRepository
	attendance lesson.AttendanceRepository
}

// NewWarningsHandler creates a new WarningsHandler.
func NewWarningsHandler(students student.Repository, parents student.ParentRepository, attendance lesson.AttendanceRepository) *WarningsHandler {
	return &WarningsHandler{students: students, parents: parents, attendance: attendance}
}

// Handle executes the query.
func (h *WarningsHandler) Handle(ctx context.Context, q WarningsQuery) (*WarningsResult, error) {
	minStreak := q.MinStreak
	if minStreak < lesson.WarningThreshold {
		minStreak = lesson.WarningThreshold
	}

	records, err := h.attendance.FindAbsentWithStreak(ctx, minStreak)
	if err != nil {
		return nil, shared.WrapError("lesson", "Warnings", shared.ErrStorage, "load absences", err)
	}

	// Keep only each student's latest record: the streak of the most recent
	// absence is the current streak.
	latest := make(map[string]*lesson.Attendance)
	for _, rec := range records {
		cur, ok := latest[rec.StudentID]
		if !ok || rec.LessonDate.After(cur.LessonDate) {
			latest[rec.StudentID] = rec
		}
	}

	result := &WarningsResult{}
	for studentID, rec := range latest {
		stu, err := h.students.GetByID(ctx, studentID)
		if err != nil {
			// The student may have been purged since the absence was recorded.
			continue
		}
		if !stu.IsActive() {
			continue
		}

		entry := WarningEntry{
			StudentID:           stu.ID,
			StudentName:         stu.FullName,
			ConsecutiveAbsences: rec.ConsecutiveAbsences,
			Tag:                 lesson.ClassifyStreak(rec.ConsecutiveAbsences),
		}

		if parent, err := h.parents.GetByID(ctx, stu.ParentID); err == nil {
			entry.ParentName = parent.FullName
			entry.ParentContact = parent.ContactAddress()
			entry.ContactMethod = parent.PreferredContact
		}

		result.Entries = append(result.Entries, entry)
	}

	sort.Slice(result.Entries, func(i, j int) bool {
		a, b := result.Entries[i], result.Entries[j]
		if a.ConsecutiveAbsences != b.ConsecutiveAbsences {
			return a.ConsecutiveAbsences > b.ConsecutiveAbsences
		}
		return a.StudentName < b.StudentName
	})

	return result, nil
}
