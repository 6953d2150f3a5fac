package query

import (
	"context"

	"github.com/maktab-hub/maktab-tracker/internal/domain/audit"
	"github.com/maktab-hub/maktab-tracker/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DELETION LOG QUERY
// ══════════════════════════════════════════════════════════════════════════════

// defaultDeletionLogLimit caps the log page when the caller does not.
const defaultDeletionLogLimit = 100

// DeletionLogQuery requests the most recent deletion log entries.
type DeletionLogQuery struct {
	Limit int
}

// DeletionLogResult contains log entries, newest first.
type DeletionLogResult struct {
	Entries []*audit.DeletionLog
}

// DeletionLogHandler handles the DeletionLogQuery.
type DeletionLogHandler struct {
	logs audit.Repository
}

// NewDeletionLogHandler creates a new DeletionLogHandler.
func NewDeletionLogHandler(logs audit.Repository) *DeletionLogHandler {
	return &DeletionLogHandler{logs: logs}
}

// Handle executes the query.
func (h *DeletionLogHandler) Handle(ctx context.Context, q DeletionLogQuery) (*DeletionLogResult, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultDeletionLogLimit
	}

	entries, err := h.logs.List(ctx, limit)
	if err != nil {
		return nil, shared.WrapError("audit", "DeletionLog", shared.ErrStorage, "load deletion log", err)
	}
	return &DeletionLogResult{Entries: entries}, nil
}
