package command

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/maktab-hub/maktab-tracker/internal/domain/shared"
	"github.com/maktab-hub/maktab-tracker/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE STUDENT COMMAND
// The parent's phone number is the natural key: siblings entered at
// different times end up under the same parent record.
// ══════════════════════════════════════════════════════════════════════════════

// CreateStudentCommand contains the data to enroll a student.
type CreateStudentCommand struct {
	FullName string
	Notes    string

	// Parent contact details. An existing parent with the same phone is
	// reused; otherwise a new parent record is created.
	ParentFullName   string
	ParentPhone      string
	ParentEmail      string
	PreferredContact student.ContactMethod
}

// Validate validates the command.
func (c CreateStudentCommand) Validate() error {
	if c.FullName == "" {
		return errors.New("create_student: full_name is required")
	}
	if c.ParentPhone == "" {
		return errors.New("create_student: parent_phone is required")
	}
	return nil
}

// CreateStudentResult contains the enrolled student and its parent.
type CreateStudentResult struct {
	Student       *student.Student
	Parent        *student.Parent
	ParentCreated bool
}

// CreateStudentHandler handles the CreateStudentCommand.
type CreateStudentHandler struct {
	uow UnitOfWork
}

// NewCreateStudentHandler creates a new CreateStudentHandler.
func NewCreateStudentHandler(uow UnitOfWork) *CreateStudentHandler {
	return &CreateStudentHandler{uow: uow}
}

// Handle executes the create student command in one transaction.
func (h *CreateStudentHandler) Handle(ctx context.Context, cmd CreateStudentCommand) (*CreateStudentResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("student", "CreateStudent", shared.ErrInvalidInput, "invalid command", err)
	}

	result := &CreateStudentResult{}

	err := h.uow.WithinTx(ctx, func(ctx context.Context, r Repos) error {
		parent, err := r.Parents.GetByPhone(ctx, cmd.ParentPhone)
		switch {
		case errors.Is(err, student.ErrParentNotFound):
			parent, err = student.NewParent(student.NewParentParams{
				ID:               uuid.NewString(),
				FullName:         cmd.ParentFullName,
				Phone:            cmd.ParentPhone,
				Email:            cmd.ParentEmail,
				PreferredContact: cmd.PreferredContact,
			})
			if err != nil {
				return shared.WrapError("student", "CreateStudent", shared.ErrInvalidInput, "build parent", err)
			}
			if err := r.Parents.Create(ctx, parent); err != nil {
				return shared.WrapError("student", "CreateStudent", shared.ErrStorage, "save parent", err)
			}
			result.ParentCreated = true
		case err != nil:
			return shared.WrapError("student", "CreateStudent", shared.ErrStorage, "look up parent", err)
		}

		stu, err := student.NewStudent(student.NewStudentParams{
			ID:       uuid.NewString(),
			FullName: cmd.FullName,
			ParentID: parent.ID,
			Notes:    cmd.Notes,
		})
		if err != nil {
			return shared.WrapError("student", "CreateStudent", shared.ErrInvalidInput, "build student", err)
		}

		if err := r.Students.Create(ctx, stu); err != nil {
			return shared.WrapError("student", "CreateStudent", shared.ErrStorage, "save student", err)
		}

		result.Student = stu
		result.Parent = parent
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
