package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/maktab-hub/maktab-tracker/internal/application/command"
)

// ══════════════════════════════════════════════════════════════════════════════
// UNIT OF WORK
// ══════════════════════════════════════════════════════════════════════════════

// Store binds the repository implementations to a shared connection pool
// and implements command.UnitOfWork. Write handlers get transaction-scoped
// repositories; the read side uses Repositories() over the pool directly.
type Store struct {
	conn *Connection
}

// NewStore creates a new Store over an established connection.
func NewStore(conn *Connection) *Store {
	return &Store{conn: conn}
}

// WithinTx begins a transaction, calls fn with transaction-scoped
// repositories, and commits. Any error from fn rolls the transaction
// back and is returned as-is.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, r command.Repos) error) error {
	return s.conn.WithTx(ctx, func(tx pgx.Tx) error {
		return fn(ctx, newRepos(tx))
	})
}

// Repositories returns pool-backed repositories for non-transactional reads.
func (s *Store) Repositories() command.Repos {
	return newRepos(s.conn)
}

func newRepos(q Querier) command.Repos {
	return command.Repos{
		Students:      NewStudentRepository(q),
		Parents:       NewParentRepository(q),
		Lessons:       NewLessonRepository(q),
		Attendance:    NewAttendanceRepository(q),
		Homework:      NewHomeworkRepository(q),
		Participation: NewParticipationRepository(q),
		Incidents:     NewIncidentRepository(q),
		DeletionLogs:  NewDeletionLogRepository(q),
	}
}
