package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/maktab-hub/maktab-tracker/internal/domain/behavioral"
	"github.com/maktab-hub/maktab-tracker/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DELETE INCIDENT COMMAND
// Unconditional hard delete. No recalculation side effects: callers must
// re-query summaries afterwards.
// ══════════════════════════════════════════════════════════════════════════════

// DeleteIncidentCommand deletes one behavioral incident.
type DeleteIncidentCommand struct {
	IncidentID string
}

// Validate validates the command.
func (c DeleteIncidentCommand) Validate() error {
	if c.IncidentID == "" {
		return errors.New("delete_incident: incident_id is required")
	}
	return nil
}

// DeleteIncidentHandler handles the DeleteIncidentCommand.
type DeleteIncidentHandler struct {
	uow   UnitOfWork
	cache behavioral.SummaryCache
}

// NewDeleteIncidentHandler creates a new DeleteIncidentHandler.
func NewDeleteIncidentHandler(uow UnitOfWork, cache behavioral.SummaryCache) *DeleteIncidentHandler {
	return &DeleteIncidentHandler{uow: uow, cache: cache}
}

// Handle executes the delete incident command in one transaction.
func (h *DeleteIncidentHandler) Handle(ctx context.Context, cmd DeleteIncidentCommand) error {
	if err := cmd.Validate(); err != nil {
		return shared.WrapError("behavioral", "DeleteIncident", shared.ErrInvalidInput, "invalid command", err)
	}

	var studentID string

	err := h.uow.WithinTx(ctx, func(ctx context.Context, r Repos) error {
		inc, err := r.Incidents.GetByID(ctx, cmd.IncidentID)
		if err != nil {
			if errors.Is(err, behavioral.ErrIncidentNotFound) {
				return shared.NewDomainError("behavioral", "DeleteIncident", shared.ErrNotFound,
					fmt.Sprintf("incident %s not found", cmd.IncidentID))
			}
			return shared.WrapError("behavioral", "DeleteIncident", shared.ErrStorage, "load incident", err)
		}
		studentID = inc.StudentID

		if err := r.Incidents.Delete(ctx, cmd.IncidentID); err != nil {
			return shared.WrapError("behavioral", "DeleteIncident", shared.ErrStorage, "delete incident", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if h.cache != nil && studentID != "" {
		_ = h.cache.Invalidate(ctx, studentID)
	}

	return nil
}
