package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/maktab-hub/maktab-tracker/internal/domain/lesson"
)

// ══════════════════════════════════════════════════════════════════════════════
// PARTICIPATION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const participationColumns = `id, lesson_id, student_id, score, created_at`

// ParticipationRepository implements lesson.ParticipationRepository
// for PostgreSQL.
type ParticipationRepository struct {
	q Querier
}

// NewParticipationRepository creates a new ParticipationRepository.
func NewParticipationRepository(q Querier) *ParticipationRepository {
	return &ParticipationRepository{q: q}
}

// Create creates a participation record.
func (r *ParticipationRepository) Create(ctx context.Context, p *lesson.Participation) error {
	query := `
		INSERT INTO lesson_participation (id, lesson_id, student_id, score, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.q.Exec(ctx, query, p.ID, p.LessonID, p.StudentID, int(p.Score), p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create participation: %w", err)
	}

	return nil
}

// Upsert creates or replaces the record for one lesson x student pair.
func (r *ParticipationRepository) Upsert(ctx context.Context, p *lesson.Participation) error {
	query := `
		INSERT INTO lesson_participation (id, lesson_id, student_id, score, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT(lesson_id, student_id) DO UPDATE SET
			score = EXCLUDED.score
	`

	_, err := r.q.Exec(ctx, query, p.ID, p.LessonID, p.StudentID, int(p.Score), p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert participation: %w", err)
	}

	return nil
}

// Get returns the record for one lesson x student pair.
func (r *ParticipationRepository) Get(ctx context.Context, lessonID, studentID string) (*lesson.Participation, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM lesson_participation
		WHERE lesson_id = $1 AND student_id = $2
	`, participationColumns)

	var p lesson.Participation
	var score int
	err := r.q.QueryRow(ctx, query, lessonID, studentID).Scan(
		&p.ID, &p.LessonID, &p.StudentID, &score, &p.CreatedAt,
	)
	if IsNoRows(err) {
		return nil, lesson.ErrParticipationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan participation: %w", err)
	}

	p.Score = lesson.Score(score)
	return &p, nil
}

// GetByLesson returns all records for a lesson.
func (r *ParticipationRepository) GetByLesson(ctx context.Context, lessonID string) ([]*lesson.Participation, error) {
	query := fmt.Sprintf(`SELECT %s FROM lesson_participation WHERE lesson_id = $1`, participationColumns)

	rows, err := r.q.Query(ctx, query, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participation by lesson: %w", err)
	}
	defer rows.Close()

	return scanParticipations(rows)
}

// GetByStudentLessons returns a student's records over a list of lessons.
func (r *ParticipationRepository) GetByStudentLessons(ctx context.Context, studentID string, lessonIDs []string) ([]*lesson.Participation, error) {
	if len(lessonIDs) == 0 {
		return []*lesson.Participation{}, nil
	}

	query := fmt.Sprintf(`
		SELECT %s FROM lesson_participation
		WHERE student_id = $1 AND lesson_id = ANY($2)
	`, participationColumns)

	rows, err := r.q.Query(ctx, query, studentID, lessonIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query participation by lessons: %w", err)
	}
	defer rows.Close()

	return scanParticipations(rows)
}

// Delete removes the record for one lesson x student pair, if present.
func (r *ParticipationRepository) Delete(ctx context.Context, lessonID, studentID string) error {
	_, err := r.q.Exec(ctx,
		`DELETE FROM lesson_participation WHERE lesson_id = $1 AND student_id = $2`,
		lessonID, studentID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete participation: %w", err)
	}
	return nil
}

// DeleteByLesson deletes all records for a lesson.
func (r *ParticipationRepository) DeleteByLesson(ctx context.Context, lessonID string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM lesson_participation WHERE lesson_id = $1`, lessonID)
	if err != nil {
		return fmt.Errorf("failed to delete participation by lesson: %w", err)
	}
	return nil
}

// DeleteByStudent deletes all records for a student.
func (r *ParticipationRepository) DeleteByStudent(ctx context.Context, studentID string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM lesson_participation WHERE student_id = $1`, studentID)
	if err != nil {
		return fmt.Errorf("failed to delete participation by student: %w", err)
	}
	return nil
}

func scanParticipations(rows pgx.Rows) ([]*lesson.Participation, error) {
	var records []*lesson.Participation

	for rows.Next() {
		var p lesson.Participation
		var score int
		if err := rows.Scan(&p.ID, &p.LessonID, &p.StudentID, &score, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participation: %w", err)
		}
		p.Score = lesson.Score(score)
		records = append(records, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return records, nil
}
