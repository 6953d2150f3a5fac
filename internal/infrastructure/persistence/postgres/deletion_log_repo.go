package postgres

import (
	"context"
	"fmt"

	"github.com/maktab-hub/maktab-tracker/internal/domain/audit"
)

// ══════════════════════════════════════════════════════════════════════════════
// DELETION LOG REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const deletionLogColumns = `id, student_id, student_name, deleted_by, reason, deleted_at`

// DeletionLogRepository implements audit.Repository for PostgreSQL.
// The table is append-only: no update or delete statements exist here.
type DeletionLogRepository struct {
	q Querier
}

// NewDeletionLogRepository creates a new DeletionLogRepository.
func NewDeletionLogRepository(q Querier) *DeletionLogRepository {
	return &DeletionLogRepository{q: q}
}

// Append appends an entry to the log.
func (r *DeletionLogRepository) Append(ctx context.Context, entry *audit.DeletionLog) error {
	query := `
		INSERT INTO deletion_log (id, student_id, student_name, deleted_by, reason, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.q.Exec(ctx, query,
		entry.ID,
		entry.StudentID,
		entry.StudentName,
		entry.DeletedBy,
		entry.Reason,
		entry.DeletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append deletion log: %w", err)
	}

	return nil
}

// List returns log entries, newest first.
func (r *DeletionLogRepository) List(ctx context.Context, limit int) ([]*audit.DeletionLog, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM deletion_log
		ORDER BY deleted_at DESC
		LIMIT $1
	`, deletionLogColumns)

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query deletion log: %w", err)
	}
	defer rows.Close()

	var entries []*audit.DeletionLog
	for rows.Next() {
		var e audit.DeletionLog
		err := rows.Scan(
			&e.ID,
			&e.StudentID,
			&e.StudentName,
			&e.DeletedBy,
			&e.Reason,
			&e.DeletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deletion log entry: %w", err)
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return entries, nil
}
