package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/maktab-hub/maktab-tracker/internal/domain/lesson"
)

// ══════════════════════════════════════════════════════════════════════════════
// HOMEWORK REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const homeworkColumns = `id, lesson_id, student_id, completed, created_at`

// HomeworkRepository implements lesson.HomeworkRepository for PostgreSQL.
type HomeworkRepository struct {
	q Querier
}

// NewHomeworkRepository creates a new HomeworkRepository.
func NewHomeworkRepository(q Querier) *HomeworkRepository {
	return &HomeworkRepository{q: q}
}

// Upsert creates or replaces the record for one lesson x student pair.
func (r *HomeworkRepository) Upsert(ctx context.Context, h *lesson.Homework) error {
	query := `
		INSERT INTO lesson_homework (id, lesson_id, student_id, completed, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT(lesson_id, student_id) DO UPDATE SET
			completed = EXCLUDED.completed
	`

	_, err := r.q.Exec(ctx, query, h.ID, h.LessonID, h.StudentID, h.Completed, h.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert homework: %w", err)
	}

	return nil
}

// Get returns the record for one lesson x student pair.
func (r *HomeworkRepository) Get(ctx context.Context, lessonID, studentID string) (*lesson.Homework, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM lesson_homework
		WHERE lesson_id = $1 AND student_id = $2
	`, homeworkColumns)

	var h lesson.Homework
	err := r.q.QueryRow(ctx, query, lessonID, studentID).Scan(
		&h.ID, &h.LessonID, &h.StudentID, &h.Completed, &h.CreatedAt,
	)
	if IsNoRows(err) {
		return nil, lesson.ErrHomeworkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan homework: %w", err)
	}

	return &h, nil
}

// GetByLesson returns all records for a lesson.
func (r *HomeworkRepository) GetByLesson(ctx context.Context, lessonID string) ([]*lesson.Homework, error) {
	query := fmt.Sprintf(`SELECT %s FROM lesson_homework WHERE lesson_id = $1`, homeworkColumns)

	rows, err := r.q.Query(ctx, query, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to query homework by lesson: %w", err)
	}
	defer rows.Close()

	return scanHomeworks(rows)
}

// GetByStudentLessons returns a student's records over a list of lessons.
func (r *HomeworkRepository) GetByStudentLessons(ctx context.Context, studentID string, lessonIDs []string) ([]*lesson.Homework, error) {
	if len(lessonIDs) == 0 {
		return []*lesson.Homework{}, nil
	}

	query := fmt.Sprintf(`
		SELECT %s FROM lesson_homework
		WHERE student_id = $1 AND lesson_id = ANY($2)
	`, homeworkColumns)

	rows, err := r.q.Query(ctx, query, studentID, lessonIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query homework by lessons: %w", err)
	}
	defer rows.Close()

	return scanHomeworks(rows)
}

// Delete removes the record for one lesson x student pair, if present.
func (r *HomeworkRepository) Delete(ctx context.Context, lessonID, studentID string) error {
	_, err := r.q.Exec(ctx,
		`DELETE FROM lesson_homework WHERE lesson_id = $1 AND student_id = $2`,
		lessonID, studentID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete homework: %w", err)
	}
	return nil
}

// DeleteByLesson deletes all records for a lesson.
func (r *HomeworkRepository) DeleteByLesson(ctx context.Context, lessonID string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM lesson_homework WHERE lesson_id = $1`, lessonID)
	if err != nil {
		return fmt.Errorf("failed to delete homework by lesson: %w", err)
	}
	return nil
}

// DeleteByStudent deletes all records for a student.
func (r *HomeworkRepository) DeleteByStudent(ctx context.Context, studentID string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM lesson_homework WHERE student_id = $1`, studentID)
	if err != nil {
		return fmt.Errorf("failed to delete homework by student: %w", err)
	}
	return nil
}

func scanHomeworks(rows pgx.Rows) ([]*lesson.Homework, error) {
	var records []*lesson.Homework

	for rows.Next() {
		var h lesson.Homework
		if err := rows.Scan(&h.ID, &h.LessonID, &h.StudentID, &h.Completed, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan homework: %w", err)
		}
		records = append(records, &h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return records, nil
}
