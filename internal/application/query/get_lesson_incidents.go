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
// LESSON INCIDENTS QUERY
// ══════════════════════════════════════════════════════════════════════════════

// LessonIncidentsQuery lists the incidents recorded during one lesson.
type LessonIncidentsQuery struct {
	LessonID string
}

// LessonIncidentEntry is one incident with the offender's running monthly
// total, recomputed at query time so deletions are reflected.
type LessonIncidentEntry struct {
	IncidentID  string
	StudentID   string
	StudentName string
	Type        behavioral.IncidentType
	Notes       string
	CreatedAt   time.Time

	MonthlyTotal int
	Level        behavioral.Level
}

// LessonIncidentsResult contains the incidents in recording order.
type LessonIncidentsResult struct {
	LessonID   string
	LessonDate time.Time
	Entries    []LessonIncidentEntry
}

// LessonIncidentsHandler handles the LessonIncidentsQuery.
type LessonIncidentsHandler struct {
	lessons   lesson.Repository
	students  student.Repository
	incidents behavioral.Repository
}

// NewLessonIncidentsHandler creates a new LessonIncidentsHandler.
func NewLessonIncidentsHandler(lessons lesson.Repository, students student.Repository, incidents behavioral.Repository) *LessonIncidentsHandler {
	return &LessonIncidentsHandler{lessons: lessons, students: students, incidents: incidents}
}

// Handle executes the query.
func (h *LessonIncidentsHandler) Handle(ctx context.Context, q LessonIncidentsQuery) (*LessonIncidentsResult, error) {
	if q.LessonID == "" {
		return nil, shared.NewDomainError("behavioral", "LessonIncidents", shared.ErrInvalidInput, "lesson_id is required")
	}

	les, err := h.lessons.GetByID(ctx, q.LessonID)
	if err != nil {
		if errors.Is(err, lesson.ErrLessonNotFound) {
			return nil, shared.NewDomainError("behavioral", "LessonIncidents", shared.ErrNotFound,
				fmt.Sprintf("lesson %s not found", q.LessonID))
		}
		return nil, shared.WrapError("behavioral", "LessonIncidents", shared.ErrStorage, "load lesson", err)
	}

	incidents, err := h.incidents.GetByLesson(ctx, q.LessonID)
	if err != nil {
		return nil, shared.WrapError("behavioral", "LessonIncidents", shared.ErrStorage, "load incidents", err)
	}

	result := &LessonIncidentsResult{LessonID: les.ID, LessonDate: les.Date}

	// Monthly totals are fetched once per distinct student.
	totals := make(map[string]int)

	for _, inc := range incidents {
		entry := LessonIncidentEntry{
			IncidentID: inc.ID,
			StudentID:  inc.StudentID,
			Type:       inc.Type,
			Notes:      inc.Notes,
			CreatedAt:  inc.CreatedAt,
		}

		if stu, err := h.students.GetByID(ctx, inc.StudentID); err == nil {
			entry.StudentName = stu.FullName
		}

		total, ok := totals[inc.StudentID]
		if !ok {
			ym := dateutil.YearMonthOf(inc.CreatedAt)
			start, _ := ym.Bounds()
			end := start.AddDate(0, 1, 0)
			total, err = h.incidents.CountByStudentInRange(ctx, inc.StudentID, start, end)
			if err != nil {
				return nil, shared.WrapError("behavioral", "LessonIncidents", shared.ErrStorage, "count incidents", err)
			}
			totals[inc.StudentID] = total
		}
		entry.MonthlyTotal = total
		entry.Level = behavioral.ClassifyLevel(total)

		result.Entries = append(result.Entries, entry)
	}

	return result, nil
}
