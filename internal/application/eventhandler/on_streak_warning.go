// Package eventhandler contains subscribers that react to domain events.
// Handlers here prepare parent-facing notices; actual delivery (WhatsApp,
// email) happens outside this service.
package eventhandler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maktab-hub/maktab-tracker/internal/domain/shared"
	"github.com/maktab-hub/maktab-tracker/internal/domain/student"
)

// StreakWarningHandler logs a contact-ready notice whenever a student's
// consecutive-absence streak crosses the warning threshold.
type StreakWarningHandler struct {
	students student.Repository
	parents  student.ParentRepository
	logger   *slog.Logger
}

// NewStreakWarningHandler creates a new StreakWarningHandler.
func NewStreakWarningHandler(students student.Repository, parents student.ParentRepository, logger *slog.Logger) *StreakWarningHandler {
	return &StreakWarningHandler{students: students, parents: parents, logger: logger}
}

// Name implements shared.EventHandler.
func (h *StreakWarningHandler) Name() string {
	return "streak_warning_notifier"
}

// Handle implements shared.EventHandler.
func (h *StreakWarningHandler) Handle(event shared.Event) error {
	ev, ok := event.(shared.StreakWarningEvent)
	if !ok {
		return fmt.Errorf("streak_warning_notifier: unexpected event type %s", event.EventType())
	}

	log := h.logger.With(
		"student_id", ev.StudentID,
		"student_name", ev.StudentName,
		"consecutive_absences", ev.ConsecutiveAbsences,
	)

	contact, method := h.parentContact(ev.StudentID)
	if contact == "" {
		log.Warn("absence warning raised but no parent contact available")
		return nil
	}

	log.Info("absence warning ready for parent contact",
		"parent_contact", contact,
		"contact_method", method,
	)
	return nil
}

func (h *StreakWarningHandler) parentContact(studentID string) (string, student.ContactMethod) {
	ctx := context.Background()
	stu, err := h.students.GetByID(ctx, studentID)
	if err != nil {
		return "", ""
	}
	parent, err := h.parents.GetByID(ctx, stu.ParentID)
	if err != nil {
		return "", ""
	}
	return parent.ContactAddress(), parent.PreferredContact
}
