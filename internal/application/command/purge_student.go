package command

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/maktab-hub/maktab-tracker/internal/domain/audit"
	"github.com/maktab-hub/maktab-tracker/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PURGE STUDENT COMMAND
// Permanent deletion. The deletion log entry is written BEFORE the student
// row is removed - once the row is gone the log is the only durable record.
// ══════════════════════════════════════════════════════════════════════════════

// PurgeStudentCommand permanently deletes one student.
type PurgeStudentCommand struct {
	StudentID string

	// Actor is who triggered the deletion: an admin name or audit.ActorSystem.
	// The caller is trusted; this core does not authenticate actors.
	Actor string

	// Reason is recorded in the deletion log.
	Reason string
}

// Validate validates the command.
func (c PurgeStudentCommand) Validate() error {
	if c.StudentID == "" {
		return errors.New("purge_student: student_id is required")
	}
	if c.Actor == "" {
		return errors.New("purge_student: actor is required")
	}
	return nil
}

// PurgeStudentHandler handles the PurgeStudentCommand.
type PurgeStudentHandler struct {
	uow       UnitOfWork
	publisher shared.EventPublisher
}

// NewPurgeStudentHandler creates a new PurgeStudentHandler.
func NewPurgeStudentHandler(uow UnitOfWork, publisher shared.EventPublisher) *PurgeStudentHandler {
	return &PurgeStudentHandler{uow: uow, publisher: publisher}
}

// Handle executes the purge in one transaction.
func (h *PurgeStudentHandler) Handle(ctx context.Context, cmd PurgeStudentCommand) error {
	if err := cmd.Validate(); err != nil {
		return shared.WrapError("student", "PurgeStudent", shared.ErrInvalidInput, "invalid command", err)
	}

	err := h.uow.WithinTx(ctx, func(ctx context.Context, r Repos) error {
		return purgeStudent(ctx, r, cmd.StudentID, cmd.Actor, cmd.Reason)
	})
	if err != nil {
		return err
	}

	_ = h.publisher.Publish(shared.NewLifecycleEvent(shared.EventStudentPurged, "student", cmd.StudentID, cmd.Actor, cmd.Reason))
	return nil
}

// purgeStudent logs and removes a student with all owned records. Shared
// with the retention sweep. Must be called inside a transaction.
func purgeStudent(ctx context.Context, r Repos, studentID, actor, reason string) error {
	stu, err := getStudent(ctx, r, studentID, "PurgeStudent")
	if err != nil {
		return err
	}

	entry, err := audit.NewDeletionLog(uuid.NewString(), stu.ID, stu.FullName, actor, reason)
	if err != nil {
		return shared.WrapError("student", "PurgeStudent", shared.ErrInvalidInput, "build deletion log", err)
	}

	// Log first. The write happens in the same transaction, so an abort
	// leaves neither the log nor the deletion.
	if err := r.DeletionLogs.Append(ctx, entry); err != nil {
		return shared.WrapError("student", "PurgeStudent", shared.ErrStorage, "write deletion log", err)
	}

	if err := purgeStudentArtifacts(ctx, r, stu.ID); err != nil {
		return shared.WrapError("student", "PurgeStudent", shared.ErrStorage, "cascade children", err)
	}
	if err := r.Students.HardDelete(ctx, stu.ID); err != nil {
		return shared.WrapError("student", "PurgeStudent", shared.ErrStorage, "delete student row", err)
	}
	return nil
}
