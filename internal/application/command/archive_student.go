package command

import (
	"context"
	"errors"
	"time"

	"github.com/maktab-hub/maktab-tracker/internal/domain/shared"
	"github.com/maktab-hub/maktab-tracker/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// ARCHIVE / RESTORE STUDENT COMMANDS
// Archiving removes the student from the attendance roster and starts the
// 30-day countdown to permanent deletion. Restore is only valid from the
// archived state and resets the countdown.
// ══════════════════════════════════════════════════════════════════════════════

// ArchiveStudentCommand archives one student.
type ArchiveStudentCommand struct {
	StudentID string
}

// Validate validates the command.
func (c ArchiveStudentCommand) Validate() error {
	if c.StudentID == "" {
		return errors.New("archive_student: student_id is required")
	}
	return nil
}

// ArchiveStudentHandler handles the ArchiveStudentCommand.
type ArchiveStudentHandler struct {
	uow       UnitOfWork
	publisher shared.EventPublisher
}

// NewArchiveStudentHandler creates a new ArchiveStudentHandler.
func NewArchiveStudentHandler(uow UnitOfWork, publisher shared.EventPublisher) *ArchiveStudentHandler {
	return &ArchiveStudentHandler{uow: uow, publisher: publisher}
}

// Handle executes the archive in one transaction.
func (h *ArchiveStudentHandler) Handle(ctx context.Context, cmd ArchiveStudentCommand) (*student.Student, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("student", "ArchiveStudent", shared.ErrInvalidInput, "invalid command", err)
	}

	var archived *student.Student

	err := h.uow.WithinTx(ctx, func(ctx context.Context, r Repos) error {
		stu, err := getStudent(ctx, r, cmd.StudentID, "ArchiveStudent")
		if err != nil {
			return err
		}

		if err := stu.Archive(time.Now().UTC()); err != nil {
			return shared.WrapError("student", "ArchiveStudent", shared.ErrStateTransition, "archive", err)
		}

		if err := r.Students.Update(ctx, stu); err != nil {
			return shared.WrapError("student", "ArchiveStudent", shared.ErrStorage, "save student", err)
		}
		archived = stu
		return nil
	})
	if err != nil {
		return nil, err
	}

	_ = h.publisher.Publish(shared.NewLifecycleEvent(shared.EventStudentArchived, "student", cmd.StudentID, "", ""))
	return archived, nil
}

// RestoreStudentCommand restores one archived student.
type RestoreStudentCommand struct {
	StudentID string
}

// Validate validates the command.
func (c RestoreStudentCommand) Validate() error {
	if c.StudentID == "" {
		return errors.New("restore_student: student_id is required")
	}
	return nil
}

// RestoreStudentHandler handles the RestoreStudentCommand.
type RestoreStudentHandler struct {
	uow       UnitOfWork
	publisher shared.EventPublisher
}

// NewRestoreStudentHandler creates a new RestoreStudentHandler.
func NewRestoreStudentHandler(uow UnitOfWork, publisher shared.EventPublisher) *RestoreStudentHandler {
	return &RestoreStudentHandler{uow: uow, publisher: publisher}
}

// Handle executes the restore in one transaction.
func (h *RestoreStudentHandler) Handle(ctx context.Context, cmd RestoreStudentCommand) (*student.Student, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("student", "RestoreStudent", shared.ErrInvalidInput, "invalid command", err)
	}

	var restored *student.Student

	err := h.uow.WithinTx(ctx, func(ctx context.Context, r Repos) error {
		stu, err := getStudent(ctx, r, cmd.StudentID, "RestoreStudent")
		if err != nil {
			return err
		}

		if err := stu.Restore(); err != nil {
			return shared.WrapError("student", "RestoreStudent", shared.ErrStateTransition, "restore", err)
		}

		if err := r.Students.Update(ctx, stu); err != nil {
			return shared.WrapError("student", "RestoreStudent", shared.ErrStorage, "save student", err)
		}
		restored = stu
		return nil
	})
	if err != nil {
		return nil, err
	}

	_ = h.publisher.Publish(shared.NewLifecycleEvent(shared.EventStudentRestored, "student", cmd.StudentID, "", ""))
	return restored, nil
}
