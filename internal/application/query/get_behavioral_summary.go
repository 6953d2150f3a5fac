package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maktab-hub/maktab-tracker/internal/domain/behavioral"
	"github.com/maktab-hub/maktab-tracker/internal/domain/shared"
	"github.com/maktab-hub/maktab-tracker/internal/domain/student"
	"github.com/maktab-hub/maktab-tracker/pkg/dateutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// MONTHLY BEHAVIORAL SUMMARY QUERY
// ══════════════════════════════════════════════════════════════════════════════

// behavioralSummaryTTL bounds cache staleness between invalidations.
const behavioralSummaryTTL = 15 * time.Minute

// BehavioralSummaryQuery requests a student's behavioral report for one month.
type BehavioralSummaryQuery struct {
	StudentID string

	// Month in "YYYY-MM" form. Empty means the current month.
	Month string
}

// IncidentEntry is one incident in the monthly summary.
type IncidentEntry struct {
	IncidentID string                  `json:"incident_id"`
	LessonID   string                  `json:"lesson_id"`
	Type       behavioral.IncidentType `json:"type"`
	Notes      string                  `json:"notes,omitempty"`
	CreatedAt  time.Time               `json:"created_at"`
}

// TalkedWithEntry ranks a conversation partner by frequency.
type TalkedWithEntry struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	Count       int    `json:"count"`
}

// BehavioralSummaryResult is the per-month behavioral report.
type BehavioralSummaryResult struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	Month       string `json:"month"`

	TotalIncidents int                             `json:"total_incidents"`
	Level          behavioral.Level                `json:"level"`
	ByType         map[behavioral.IncidentType]int `json:"by_type"`

	// SpecialNotificationSent reports whether the monthly total has reached
	// the notification threshold at any point this month.
	SpecialNotificationSent bool `json:"special_notification_sent"`

	TalkedWith []TalkedWithEntry `json:"talked_with,omitempty"`
	Incidents  []IncidentEntry   `json:"incidents,omitempty"`
}

// BehavioralSummaryHandler handles the BehavioralSummaryQuery.
// The cache is optional; a nil cache means every call recomputes the summary.
type BehavioralSummaryHandler struct {
	students  student.Repository
	incidents behavioral.Repository
	cache     behavioral.SummaryCache
	logger    *slog.Logger
}

// NewBehavioralSummaryHandler creates a new BehavioralSummaryHandler.
func NewBehavioralSummaryHandler(
	students student.Repository,
	incidents behavioral.Repository,
	cache behavioral.SummaryCache,
	logger *slog.Logger,
) *BehavioralSummaryHandler {
	return &BehavioralSummaryHandler{
		students:  students,
		incidents: incidents,
		cache:     cache,
		logger:    logger,
	}
}

// Handle executes the query.
func (h *BehavioralSummaryHandler) Handle(ctx context.Context, q BehavioralSummaryQuery) (*BehavioralSummaryResult, error) {
	if q.StudentID == "" {
		return nil, shared.NewDomainError("behavioral", "MonthlySummary", shared.ErrInvalidInput, "student_id is required")
	}

	ym := dateutil.YearMonthOf(time.Now())
	if q.Month != "" {
		parsed, err := dateutil.ParseYearMonth(q.Month)
		if err != nil {
			return nil, shared.WrapError("behavioral", "MonthlySummary", shared.ErrInvalidInput, "invalid month", err)
		}
		ym = parsed
	}

	if h.cache != nil {
		if raw, err := h.cache.Get(ctx, q.StudentID, ym.String()); err != nil {
			h.log().Warn("behavioral summary cache read failed", "error", err)
		} else if raw != nil {
			var cached BehavioralSummaryResult
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
			h.log().Warn("behavioral summary cache entry corrupt, recomputing", "student_id", q.StudentID)
		}
	}

	result, err := h.build(ctx, q.StudentID, ym)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if raw, err := json.Marshal(result); err == nil {
			if err := h.cache.Set(ctx, q.StudentID, ym.String(), raw, behavioralSummaryTTL); err != nil {
				h.log().Warn("behavioral summary cache write failed", "error", err)
			}
		}
	}

	return result, nil
}

func (h *BehavioralSummaryHandler) build(ctx context.Context, studentID string, ym dateutil.YearMonth) (*BehavioralSummaryResult, error) {
	stu, err := h.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, student.ErrStudentNotFound) {
			return nil, shared.NewDomainError("behavioral", "MonthlySummary", shared.ErrNotFound,
				fmt.Sprintf("student %s not found", studentID))
		}
		return nil, shared.WrapError("behavioral", "MonthlySummary", shared.ErrStorage, "load student", err)
	}

	start, _ := ym.Bounds()
	end := start.AddDate(0, 1, 0)
	incidents, err := h.incidents.GetByStudentInRange(ctx, studentID, start, end)
	if err != nil {
		return nil, shared.WrapError("behavioral", "MonthlySummary", shared.ErrStorage, "load incidents", err)
	}

	result := &BehavioralSummaryResult{
		StudentID:               stu.ID,
		StudentName:             stu.FullName,
		Month:                   ym.String(),
		TotalIncidents:          len(incidents),
		Level:                   behavioral.ClassifyLevel(len(incidents)),
		ByType:                  behavioral.TypeHistogram(incidents),
		SpecialNotificationSent: len(incidents) >= behavioral.NotificationThreshold,
	}

	for _, inc := range incidents {
		result.Incidents = append(result.Incidents, IncidentEntry{
			IncidentID: inc.ID,
			LessonID:   inc.LessonID,
			Type:       inc.Type,
			Notes:      inc.Notes,
			CreatedAt:  inc.CreatedAt,
		})
	}

	ranked := behavioral.RankTalkedWith(incidents, func(id string) (string, bool) {
		other, err := h.students.GetByID(ctx, id)
		if err != nil {
			return "", false
		}
		return other.FullName, true
	})
	for _, entry := range ranked {
		result.TalkedWith = append(result.TalkedWith, TalkedWithEntry{
			StudentID:   entry.StudentID,
			StudentName: entry.StudentName,
			Count:       entry.Count,
		})
	}

	return result, nil
}

func (h *BehavioralSummaryHandler) log() *slog.Logger {
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}
