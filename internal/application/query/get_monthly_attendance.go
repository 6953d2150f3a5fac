package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maktab-hub/maktab-tracker/internal/domain/lesson"
	"github.com/maktab-hub/maktab-tracker/internal/domain/shared"
	"github.com/maktab-hub/maktab-tracker/internal/domain/student"
	"github.com/maktab-hub/maktab-tracker/pkg/dateutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// MONTHLY ATTENDANCE QUERY
// ══════════════════════════════════════════════════════════════════════════════

// monthlyAttendanceTTL bounds cache staleness between invalidations.
const monthlyAttendanceTTL = 15 * time.Minute

// MonthlyAttendanceQuery requests a student's attendance report for one month.
type MonthlyAttendanceQuery struct {
	StudentID string
	Year      int
	Month     int
}

// Validate validates the query.
func (q MonthlyAttendanceQuery) Validate() error {
	if q.StudentID == "" {
		return errors.New("monthly_attendance: student_id is required")
	}
	if q.Year < 2020 || q.Year > 2100 {
		return fmt.Errorf("monthly_attendance: year %d out of range", q.Year)
	}
	if q.Month < 1 || q.Month > 12 {
		return fmt.Errorf("monthly_attendance: month %d out of range", q.Month)
	}
	return nil
}

// MonthlyLessonEntry is one lesson of the month from the student's viewpoint.
type MonthlyLessonEntry struct {
	LessonID   string    `json:"lesson_id"`
	LessonDate time.Time `json:"lesson_date"`
	Topics     string    `json:"topics,omitempty"`
	Attended   bool      `json:"attended"`

	// HomeworkCompleted is nil when no homework record exists for the pair.
	HomeworkCompleted *bool `json:"homework_completed,omitempty"`

	// ParticipationScore is nil when no participation record exists.
	ParticipationScore *int `json:"participation_score,omitempty"`
}

// MonthlyAttendanceResult is the per-month report.
type MonthlyAttendanceResult struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	Year        int    `json:"year"`
	Month       int    `json:"month"`

	LessonsHeld   int     `json:"lessons_held"`
	AttendedCount int     `json:"attended_count"`
	AbsentCount   int     `json:"absent_count"`
	Percent       float64 `json:"percent"`

	Entries []MonthlyLessonEntry `json:"entries"`
}

// MonthlyAttendanceHandler handles the MonthlyAttendanceQuery.
// The cache is optional; a nil cache means every call hits the store.
type MonthlyAttendanceHandler struct {
	students      student.Repository
	lessons       lesson.Repository
	attendance    lesson.AttendanceRepository
	homework      lesson.HomeworkRepository
	participation lesson.ParticipationRepository
	cache         lesson.MonthlyAttendanceCache
	logger        *slog.Logger
}

// NewMonthlyAttendanceHandler creates a new MonthlyAttendanceHandler.
func NewMonthlyAttendanceHandler(
	students student.Repository,
	lessons lesson.Repository,
	attendance lesson.AttendanceRepository,
	homework lesson.HomeworkRepository,
	participation lesson.ParticipationRepository,
	cache lesson.MonthlyAttendanceCache,
	logger *slog.Logger,
) *MonthlyAttendanceHandler {
	return &MonthlyAttendanceHandler{
		students:      students,
		lessons:       lessons,
		attendance:    attendance,
		homework:      homework,
		participation: participation,
		cache:         cache,
		logger:        logger,
	}
}

// Handle executes the query.
func (h *MonthlyAttendanceHandler) Handle(ctx context.Context, q MonthlyAttendanceQuery) (*MonthlyAttendanceResult, error) {
	if err := q.Validate(); err != nil {
		return nil, shared.WrapError("lesson", "MonthlyAttendance", shared.ErrInvalidInput, "invalid query", err)
	}

	if h.cache != nil {
		if raw, err := h.cache.Get(ctx, q.StudentID, q.Year, q.Month); err != nil {
			// Cache failures degrade to a store read.
			h.log().Warn("monthly attendance cache read failed", "error", err)
		} else if raw != nil {
			var cached MonthlyAttendanceResult
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
			h.log().Warn("monthly attendance cache entry corrupt, recomputing", "student_id", q.StudentID)
		}
	}

	result, err := h.build(ctx, q)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if raw, err := json.Marshal(result); err == nil {
			if err := h.cache.Set(ctx, q.StudentID, q.Year, q.Month, raw, monthlyAttendanceTTL); err != nil {
				h.log().Warn("monthly attendance cache write failed", "error", err)
			}
		}
	}

	return result, nil
}

func (h *MonthlyAttendanceHandler) build(ctx context.Context, q MonthlyAttendanceQuery) (*MonthlyAttendanceResult, error) {
	stu, err := h.students.GetByID(ctx, q.StudentID)
	if err != nil {
		if errors.Is(err, student.ErrStudentNotFound) {
			return nil, shared.NewDomainError("lesson", "MonthlyAttendance", shared.ErrNotFound,
				fmt.Sprintf("student %s not found", q.StudentID))
		}
		return nil, shared.WrapError("lesson", "MonthlyAttendance", shared.ErrStorage, "load student", err)
	}

	from, to := dateutil.MonthBounds(q.Year, q.Month)
	lessons, err := h.lessons.GetActiveInRange(ctx, from, to)
	if err != nil {
		return nil, shared.WrapError("lesson", "MonthlyAttendance", shared.ErrStorage, "load lessons", err)
	}

	result := &MonthlyAttendanceResult{
		StudentID:   stu.ID,
		StudentName: stu.FullName,
		Year:        q.Year,
		Month:       q.Month,
	}

	lessonIDs := make([]string, 0, len(lessons))
	for _, les := range lessons {
		lessonIDs = append(lessonIDs, les.ID)
	}

	records, err := h.attendance.GetByStudent(ctx, q.StudentID, from, to)
	if err != nil {
		return nil, shared.WrapError("lesson", "MonthlyAttendance", shared.ErrStorage, "load attendance", err)
	}
	byLesson := make(map[string]*lesson.Attendance, len(records))
	for _, rec := range records {
		byLesson[rec.LessonID] = rec
	}

	hwRecords, err := h.homework.GetByStudentLessons(ctx, q.StudentID, lessonIDs)
	if err != nil {
		return nil, shared.WrapError("lesson", "MonthlyAttendance", shared.ErrStorage, "load homework", err)
	}
	hwByLesson := make(map[string]*lesson.Homework, len(hwRecords))
	for _, hw := range hwRecords {
		hwByLesson[hw.LessonID] = hw
	}

	partRecords, err := h.participation.GetByStudentLessons(ctx, q.StudentID, lessonIDs)
	if err != nil {
		return nil, shared.WrapError("lesson", "MonthlyAttendance", shared.ErrStorage, "load participation", err)
	}
	partByLesson := make(map[string]*lesson.Participation, len(partRecords))
	for _, p := range partRecords {
		partByLesson[p.LessonID] = p
	}

	for _, les := range lessons {
		rec, ok := byLesson[les.ID]
		if !ok {
			// Attendance never marked for this student on this lesson.
			continue
		}

		result.LessonsHeld++
		entry := MonthlyLessonEntry{
			LessonID:   les.ID,
			LessonDate: les.Date,
			Topics:     les.Topics,
			Attended:   rec.Attended,
		}

		if rec.Attended {
			result.AttendedCount++
			if hw, ok := hwByLesson[les.ID]; ok {
				completed := hw.Completed
				entry.HomeworkCompleted = &completed
			}
			if p, ok := partByLesson[les.ID]; ok {
				score := int(p.Score)
				entry.ParticipationScore = &score
			}
		} else {
			result.AbsentCount++
		}

		result.Entries = append(result.Entries, entry)
	}

	if result.LessonsHeld > 0 {
		result.Percent = float64(result.AttendedCount) / float64(result.LessonsHeld) * 100
	}

	return result, nil
}

func (h *MonthlyAttendanceHandler) log() *slog.Logger {
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}
