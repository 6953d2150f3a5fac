package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/maktab-hub/maktab-tracker/internal/domain/shared"
	"github.com/maktab-hub/maktab-tracker/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE STUDENT COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// UpdateStudentCommand edits a student's descriptive fields. Nil pointers
// leave the corresponding field untouched.
type UpdateStudentCommand struct {
	StudentID string
	FullName  *string
	Notes     *string
}

// Validate validates the command.
func (c UpdateStudentCommand) Validate() error {
	if c.StudentID == "" {
		return errors.New("update_student: student_id is required")
	}
	return nil
}

// UpdateStudentHandler handles the UpdateStudentCommand.
type UpdateStudentHandler struct {
	uow UnitOfWork
}

// NewUpdateStudentHandler creates a new UpdateStudentHandler.
func NewUpdateStudentHandler(uow UnitOfWork) *UpdateStudentHandler {
	return &UpdateStudentHandler{uow: uow}
}

// Handle executes the update student command in one transaction.
func (h *UpdateStudentHandler) Handle(ctx context.Context, cmd UpdateStudentCommand) (*student.Student, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("student", "UpdateStudent", shared.ErrInvalidInput, "invalid command", err)
	}

	var updated *student.Student

	err := h.uow.WithinTx(ctx, func(ctx context.Context, r Repos) error {
		stu, err := getStudent(ctx, r, cmd.StudentID, "UpdateStudent")
		if err != nil {
			return err
		}

		if cmd.FullName != nil {
			if err := stu.Rename(*cmd.FullName); err != nil {
				return shared.WrapError("student", "UpdateStudent", shared.ErrInvalidInput, "rename", err)
			}
		}
		if cmd.Notes != nil {
			stu.UpdateNotes(*cmd.Notes)
		}

		if err := r.Students.Update(ctx, stu); err != nil {
			return shared.WrapError("student", "UpdateStudent", shared.ErrStorage, "save student", err)
		}
		updated = stu
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// getStudent loads a student, mapping absence to a NOT_FOUND domain error.
func getStudent(ctx context.Context, r Repos, studentID, op string) (*student.Student, error) {
	stu, err := r.Students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, student.ErrStudentNotFound) {
			return nil, shared.NewDomainError("student", op, shared.ErrNotFound,
				fmt.Sprintf("student %s not found", studentID))
		}
		return nil, shared.WrapError("student", op, shared.ErrStorage, "load student", err)
	}
	return stu, nil
}
