package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/maktab-hub/maktab-tracker/internal/domain/lesson"
	"github.com/maktab-hub/maktab-tracker/internal/domain/shared"
	"github.com/maktab-hub/maktab-tracker/pkg/dateutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE LESSON COMMAND
// At most one active lesson may exist per calendar date; soft-deleted
// lessons do not block the date.
// ══════════════════════════════════════════════════════════════════════════════

// CreateLessonCommand contains the data to create a lesson.
type CreateLessonCommand struct {
	Date        time.Time
	Topics      string
	Tags        []lesson.CategoryTag
	HasHomework bool
}

// Validate validates the command.
func (c CreateLessonCommand) Validate() error {
	if c.Date.IsZero() {
		return errors.New("create_lesson: date is required")
	}
	for _, tag := range c.Tags {
		if !tag.IsValid() {
			return fmt.Errorf("create_lesson: unknown category tag %q", tag)
		}
	}
	return nil
}

// CreateLessonHandler handles the CreateLessonCommand.
type CreateLessonHandler struct {
	uow UnitOfWork
}

// NewCreateLessonHandler creates a new CreateLessonHandler.
func NewCreateLessonHandler(uow UnitOfWork) *CreateLessonHandler {
	return &CreateLessonHandler{uow: uow}
}

// Handle executes the create lesson command in one transaction.
func (h *CreateLessonHandler) Handle(ctx context.Context, cmd CreateLessonCommand) (*lesson.Lesson, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("lesson", "CreateLesson", shared.ErrInvalidInput, "invalid command", err)
	}

	var created *lesson.Lesson

	err := h.uow.WithinTx(ctx, func(ctx context.Context, r Repos) error {
		date := dateutil.DateOnly(cmd.Date)
		if err := requireDateFree(ctx, r, date, "", "CreateLesson"); err != nil {
			return err
		}

		les, err := lesson.NewLesson(lesson.NewLessonParams{
			ID:          uuid.NewString(),
			Date:        date,
			Topics:      cmd.Topics,
			Tags:        cmd.Tags,
			HasHomework: cmd.HasHomework,
		})
		if err != nil {
			return shared.WrapError("lesson", "CreateLesson", shared.ErrInvalidInput, "build lesson", err)
		}

		if err := r.Lessons.Create(ctx, les); err != nil {
			return shared.WrapError("lesson", "CreateLesson", shared.ErrStorage, "save lesson", err)
		}
		created = les
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// requireDateFree rejects the date if another active lesson occupies it.
// excludeID lets updates skip the lesson being edited.
func requireDateFree(ctx context.Context, r Repos, date time.Time, excludeID, op string) error {
	existing, err := r.Lessons.GetActiveByDate(ctx, date)
	if err != nil {
		if errors.Is(err, lesson.ErrLessonNotFound) {
			return nil
		}
		return shared.WrapError("lesson", op, shared.ErrStorage, "check date", err)
	}
	if existing.ID == excludeID {
		return nil
	}
	return shared.NewDomainError("lesson", op, shared.ErrConflict,
		fmt.Sprintf("an active lesson already exists on %s", date.Format("2006-01-02")))
}
