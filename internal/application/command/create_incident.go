package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/maktab-hub/maktab-tracker/internal/domain/behavioral"
	"github.com/maktab-hub/maktab-tracker/internal/domain/shared"
	"github.com/maktab-hub/maktab-tracker/internal/domain/student"
	"github.com/maktab-hub/maktab-tracker/pkg/dateutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE INCIDENT COMMAND
// Records a behavioral incident and recomputes the student's monthly
// total. The special notification fires exactly once, when the total
// transitions to 3 - the 4th incident in the same month does not re-fire.
// ══════════════════════════════════════════════════════════════════════════════

// CreateIncidentCommand contains the data to record an incident.
type CreateIncidentCommand struct {
	LessonID      string
	StudentID     string
	Type          behavioral.IncidentType
	TalkedWithIDs []string
	Notes         string
}

// Validate validates the command.
func (c CreateIncidentCommand) Validate() error {
	if c.LessonID == "" {
		return errors.New("create_incident: lesson_id is required")
	}
	if c.StudentID == "" {
		return errors.New("create_incident: student_id is required")
	}
	if !c.Type.IsValid() {
		return fmt.Errorf("create_incident: unknown incident type %q", c.Type)
	}
	return nil
}

// CreateIncidentResult contains the created incident and monthly stats.
type CreateIncidentResult struct {
	Incident     *behavioral.Incident
	Month        string
	MonthlyTotal int
	Level        behavioral.Level

	// SpecialNotificationTriggered is the one-shot edge trigger: true only
	// when this incident made the monthly total exactly 3.
	SpecialNotificationTriggered bool
}

// CreateIncidentHandler handles the CreateIncidentCommand.
type CreateIncidentHandler struct {
	uow       UnitOfWork
	publisher shared.EventPublisher
	cache     behavioral.SummaryCache
}

// NewCreateIncidentHandler creates a new CreateIncidentHandler.
// The cache may be nil when Redis is disabled.
func NewCreateIncidentHandler(uow UnitOfWork, publisher shared.EventPublisher, cache behavioral.SummaryCache) *CreateIncidentHandler {
	return &CreateIncidentHandler{uow: uow, publisher: publisher, cache: cache}
}

// Handle executes the create incident command in one transaction.
func (h *CreateIncidentHandler) Handle(ctx context.Context, cmd CreateIncidentCommand) (*CreateIncidentResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("behavioral", "CreateIncident", shared.ErrInvalidInput, "invalid command", err)
	}

	result := &CreateIncidentResult{}
	var events []shared.Event

	err := h.uow.WithinTx(ctx, func(ctx context.Context, r Repos) error {
		if _, err := getActiveLesson(ctx, r, cmd.LessonID, "CreateIncident"); err != nil {
			return err
		}

		stu, err := r.Students.GetByID(ctx, cmd.StudentID)
		if err != nil {
			if errors.Is(err, student.ErrStudentNotFound) {
				return shared.NewDomainError("behavioral", "CreateIncident", shared.ErrNotFound,
					fmt.Sprintf("student %s not found", cmd.StudentID))
			}
			return shared.WrapError("behavioral", "CreateIncident", shared.ErrStorage, "load student", err)
		}

		// Incidents only exist for students who attended the lesson.
		if err := requireAttended(ctx, r, cmd.LessonID, cmd.StudentID, "CreateIncident"); err != nil {
			return err
		}

		inc, err := behavioral.NewIncident(behavioral.NewIncidentParams{
			ID:            uuid.NewString(),
			LessonID:      cmd.LessonID,
			StudentID:     cmd.StudentID,
			Type:          cmd.Type,
			TalkedWithIDs: cmd.TalkedWithIDs,
			Notes:         cmd.Notes,
		})
		if err != nil {
			return shared.WrapError("behavioral", "CreateIncident", shared.ErrInvalidInput, "build incident", err)
		}

		if err := r.Incidents.Create(ctx, inc); err != nil {
			return shared.WrapError("behavioral", "CreateIncident", shared.ErrStorage, "save incident", err)
		}

		// The month is determined by the server-side creation timestamp.
		ym := dateutil.YearMonthOf(inc.CreatedAt)
		from, to := monthRange(ym)
		total, err := r.Incidents.CountByStudentInRange(ctx, cmd.StudentID, from, to)
		if err != nil {
			return shared.WrapError("behavioral", "CreateIncident", shared.ErrStorage, "count monthly incidents", err)
		}

		result.Incident = inc
		result.Month = ym.String()
		result.MonthlyTotal = total
		result.Level = behavioral.ClassifyLevel(total)
		result.SpecialNotificationTriggered = total == behavioral.NotificationThreshold

		if result.SpecialNotificationTriggered {
			events = append(events, shared.NewThresholdCrossedEvent(stu.ID, stu.FullName, ym.String(), total))
		}
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

// monthRange converts a calendar month to a [from, to) timestamp range.
func monthRange(ym dateutil.YearMonth) (from, to time.Time) {
	start, _ := ym.Bounds()
	return start, start.AddDate(0, 1, 0)
}
