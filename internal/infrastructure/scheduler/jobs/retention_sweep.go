// Package jobs contains implementations of scheduled jobs for the
// attendance tracker.
package jobs

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/maktab-hub/maktab-tracker/internal/application/command"
)

// ══════════════════════════════════════════════════════════════════════════════
// RETENTION SWEEP JOB
// ══════════════════════════════════════════════════════════════════════════════

// RetentionSweepJob runs the nightly retention sweep: archived students
// past their retention window are purged with a deletion log entry, and
// soft-deleted lessons past theirs are purged with all dependent records.
type RetentionSweepJob struct {
	handler *command.SweepHandler
	logger  *slog.Logger

	lastResult atomic.Value // *command.SweepResult
}

// NewRetentionSweepJob creates a new RetentionSweepJob.
func NewRetentionSweepJob(handler *command.SweepHandler, logger *slog.Logger) *RetentionSweepJob {
	return &RetentionSweepJob{
		handler: handler,
		logger:  logger.With("job", "retention_sweep"),
	}
}

// Name returns the unique name of the job.
func (j *RetentionSweepJob) Name() string {
	return "retention_sweep"
}

// Description returns a human-readable description of the job.
func (j *RetentionSweepJob) Description() string {
	return "Purges archived students and trashed lessons past their retention windows"
}

// Run executes one sweep. A pass failure is logged inside the handler and
// reported here so the scheduler records the run as failed, but it never
// aborts the other pass.
func (j *RetentionSweepJob) Run(ctx context.Context) error {
	result, err := j.handler.Handle(ctx)
	if err != nil {
		return err
	}

	j.lastResult.Store(result)

	if result.StudentPassErr != nil {
		return result.StudentPassErr
	}
	if result.LessonPassErr != nil {
		return result.LessonPassErr
	}

	return nil
}

// LastResult returns the result of the most recent run, or nil if the job
// has not run yet.
func (j *RetentionSweepJob) LastResult() *command.SweepResult {
	if v := j.lastResult.Load(); v != nil {
		return v.(*command.SweepResult)
	}
	return nil
}
