// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"

	"github.com/maktab-hub/maktab-tracker/internal/domain/audit"
	"github.com/maktab-hub/maktab-tracker/internal/domain/behavioral"
	"github.com/maktab-hub/maktab-tracker/internal/domain/lesson"
	"github.com/maktab-hub/maktab-tracker/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// UNIT OF WORK
// Every command runs inside a single storage transaction: all reads and
// writes either fully commit or fully roll back. The batch attendance
// update is the one deliberate exception - it opens a sub-transaction
// per item.
// ══════════════════════════════════════════════════════════════════════════════

// Repos aggregates the repositories visible inside one transaction.
type Repos struct {
	Students      student.Repository
	Parents       student.ParentRepository
	Lessons       lesson.Repository
	Attendance    lesson.AttendanceRepository
	Homework      lesson.HomeworkRepository
	Participation lesson.ParticipationRepository
	Incidents     behavioral.Repository
	DeletionLogs  audit.Repository
}

// UnitOfWork executes a function within a single storage transaction.
// Implemented by the postgres store.
type UnitOfWork interface {
	// WithinTx begins a transaction, calls fn with transaction-scoped
	// repositories, and commits. Any error from fn rolls the
	// transaction back and is returned as-is.
	WithinTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error
}
