package eventhandler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maktab-hub/maktab-tracker/internal/domain/shared"
	"github.com/maktab-hub/maktab-tracker/internal/domain/student"
)

// IncidentThresholdHandler logs a contact-ready notice when a student's
// monthly incident count reaches the notification threshold. The command
// side guarantees the event fires at most once per student per month.
type IncidentThresholdHandler struct {
	students student.Repository
	parents  student.ParentRepository
	logger   *slog.Logger
}

// NewIncidentThresholdHandler creates a new IncidentThresholdHandler.
func NewIncidentThresholdHandler(students student.Repository, parents student.ParentRepository, logger *slog.Logger) *IncidentThresholdHandler {
	return &IncidentThresholdHandler{students: students, parents: parents, logger: logger}
}

// Name implements shared.EventHandler.
func (h *IncidentThresholdHandler) Name() string {
	return "incident_threshold_notifier"
}

// Handle implements shared.EventHandler.
func (h *IncidentThresholdHandler) Handle(event shared.Event) error {
	ev, ok := event.(shared.ThresholdCrossedEvent)
	if !ok {
		return fmt.Errorf("incident_threshold_notifier: unexpected event type %s", event.EventType())
	}

	log := h.logger.With(
		"student_id", ev.StudentID,
		"student_name", ev.StudentName,
		"month", ev.Month,
		"total_incidents", ev.TotalIncidents,
	)

	ctx := context.Background()
	stu, err := h.students.GetByID(ctx, ev.StudentID)
	if err != nil {
		log.Warn("behavioral notice raised but student lookup failed", "error", err)
		return nil
	}
	parent, err := h.parents.GetByID(ctx, stu.ParentID)
	if err != nil {
		log.Warn("behavioral notice raised but parent lookup failed", "error", err)
		return nil
	}

	log.Info("behavioral notice ready for parent contact",
		"parent_name", parent.FullName,
		"parent_contact", parent.ContactAddress(),
		"contact_method", parent.PreferredContact,
	)
	return nil
}
