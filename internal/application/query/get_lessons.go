package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/maktab-hub/maktab-tracker/internal/domain/lesson"
	"github.com/maktab-hub/maktab-tracker/internal/domain/shared"
	"github.com/maktab-hub/maktab-tracker/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// LESSON LIST AND DETAIL QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// ListLessonsQuery requests active lessons in a date range (inclusive).
type ListLessonsQuery struct {
	From time.Time
	To   time.Time
}

// LessonSummary is one lesson row in the list view.
type LessonSummary struct {
	LessonID            string
	Date                time.Time
	Topics              string
	Tags                []lesson.CategoryTag
	HasHomework         bool
	AttendanceMarked    bool
	HomeworkMarked      bool
	ParticipationMarked bool
}

// ListLessonsResult contains lessons sorted by date.
type ListLessonsResult struct {
	Lessons []LessonSummary
}

// ListLessonsHandler handles the ListLessonsQuery.
type ListLessonsHandler struct {
	lessons lesson.Repository
}

// NewListLessonsHandler creates a new ListLessonsHandler.
func NewListLessonsHandler(lessons lesson.Repository) *ListLessonsHandler {
	return &ListLessonsHandler{lessons: lessons}
}

// Handle executes the query.
func (h *ListLessonsHandler) Handle(ctx context.Context, q ListLessonsQuery) (*ListLessonsResult, error) {
	if q.From.IsZero() || q.To.IsZero() {
		return nil, shared.NewDomainError("lesson", "ListLessons", shared.ErrInvalidInput, "date range is required")
	}
	if q.To.Before(q.From) {
		return nil, shared.NewDomainError("lesson", "ListLessons", shared.ErrInvalidInput, "range end is before range start")
	}

	lessons, err := h.lessons.GetActiveInRange(ctx, q.From, q.To)
	if err != nil {
		return nil, shared.WrapError("lesson", "ListLessons", shared.ErrStorage, "load lessons", err)
	}

	result := &ListLessonsResult{}
	for _, les := range lessons {
		result.Lessons = append(result.Lessons, LessonSummary{
			LessonID:            les.ID,
			Date:                les.Date,
			Topics:              les.Topics,
			Tags:                les.Tags,
			HasHomework:         les.HasHomework,
			AttendanceMarked:    les.AttendanceMarked,
			HomeworkMarked:      les.HomeworkMarked,
			ParticipationMarked: les.ParticipationMarked,
		})
	}
	return result, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Lesson detail
// ─────────────────────────────────────────────────────────────────────────────

// LessonDetailQuery requests one lesson with its attendance breakdown.
type LessonDetailQuery struct {
	LessonID string
}

// LessonRosterEntry is one student's record for the lesson.
type LessonRosterEntry struct {
	StudentID           string
	StudentName         string
	Attended            bool
	ConsecutiveAbsences int

	// HomeworkCompleted is nil when no homework record exists for the pair.
	HomeworkCompleted *bool

	// ParticipationScore is nil when no participation record exists.
	ParticipationScore *int
}

// LessonDetailResult is the full lesson view.
type LessonDetailResult struct {
	Lesson        *lesson.Lesson
	AttendedCount int
	AbsentCount   int
	Roster        []LessonRosterEntry
}

// LessonDetailHandler handles the LessonDetailQuery.
type LessonDetailHandler struct {
	lessons       lesson.Repository
	students      student.Repository
	attendance    lesson.AttendanceRepository
	homework      lesson.HomeworkRepository
	participation lesson.ParticipationRepository
}

// NewLessonDetailHandler creates a new LessonDetailHandler.
func NewLessonDetailHandler(
	lessons lesson.Repository,
	students student.Repository,
	attendance lesson.AttendanceRepository,
	homework lesson.HomeworkRepository,
	participation lesson.ParticipationRepository,
) *LessonDetailHandler {
	return &LessonDetailHandler{
		lessons:       lessons,
		students:      students,
		attendance:    attendance,
		homework:      homework,
		participation: participation,
	}
}

// Handle executes the query.
func (h *LessonDetailHandler) Handle(ctx context.Context, q LessonDetailQuery) (*LessonDetailResult, error) {
	if q.LessonID == "" {
		return nil, shared.NewDomainError("lesson", "LessonDetail", shared.ErrInvalidInput, "lesson_id is required")
	}

	les, err := h.lessons.GetByID(ctx, q.LessonID)
	if err != nil {
		if errors.Is(err, lesson.ErrLessonNotFound) {
			return nil, shared.NewDomainError("lesson", "LessonDetail", shared.ErrNotFound,
				fmt.Sprintf("lesson %s not found", q.LessonID))
		}
		return nil, shared.WrapError("lesson", "LessonDetail", shared.ErrStorage, "load lesson", err)
	}

	records, err := h.attendance.GetByLesson(ctx, q.LessonID)
	if err != nil {
		return nil, shared.WrapError("lesson", "LessonDetail", shared.ErrStorage, "load attendance", err)
	}
	hwRecords, err := h.homework.GetByLesson(ctx, q.LessonID)
	if err != nil {
		return nil, shared.WrapError("lesson", "LessonDetail", shared.ErrStorage, "load homework", err)
	}
	partRecords, err := h.participation.GetByLesson(ctx, q.LessonID)
	if err != nil {
		return nil, shared.WrapError("lesson", "LessonDetail", shared.ErrStorage, "load participation", err)
	}

	hwByStudent := make(map[string]*lesson.Homework, len(hwRecords))
	for _, hw := range hwRecords {
		hwByStudent[hw.StudentID] = hw
	}
	partByStudent := make(map[string]*lesson.Participation, len(partRecords))
	for _, p := range partRecords {
		partByStudent[p.StudentID] = p
	}

	result := &LessonDetailResult{Lesson: les}
	for _, rec := range records {
		entry := LessonRosterEntry{
			StudentID:           rec.StudentID,
			Attended:            rec.Attended,
			ConsecutiveAbsences: rec.ConsecutiveAbsences,
		}
		if stu, err := h.students.GetByID(ctx, rec.StudentID); err == nil {
			entry.StudentName = stu.FullName
		}
		if rec.Attended {
			result.AttendedCount++
			if hw, ok := hwByStudent[rec.StudentID]; ok {
				completed := hw.Completed
				entry.HomeworkCompleted = &completed
			}
			if p, ok := partByStudent[rec.StudentID]; ok {
				score := int(p.Score)
				entry.ParticipationScore = &score
			}
		} else {
			result.AbsentCount++
		}
		result.Roster = append(result.Roster, entry)
	}

	return result, nil
}
