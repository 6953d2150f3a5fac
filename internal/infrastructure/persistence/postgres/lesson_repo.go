package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/maktab-hub/maktab-tracker/internal/domain/lesson"
)

// ══════════════════════════════════════════════════════════════════════════════
// LESSON REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const lessonColumns = `id, lesson_date, topics, tags, has_homework,
	attendance_marked, homework_marked, participation_marked,
	deleted_at, created_at, updated_at`

// LessonRepository implements lesson.Repository for PostgreSQL.
type LessonRepository struct {
	q Querier
}

// NewLessonRepository creates a new LessonRepository.
func NewLessonRepository(q Querier) *LessonRepository {
	return &LessonRepository{q: q}
}

// Create creates a new lesson. The partial unique index on active lesson
// dates backs up the application-level date check.
func (r *LessonRepository) Create(ctx context.Context, l *lesson.Lesson) error {
	query := `
		INSERT INTO lessons (
			id, lesson_date, topics, tags, has_homework,
			attendance_marked, homework_marked, participation_marked,
			deleted_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.q.Exec(ctx, query,
		l.ID,
		l.Date,
		l.Topics,
		tagsToStrings(l.Tags),
		l.HasHomework,
		l.AttendanceMarked,
		l.HomeworkMarked,
		l.ParticipationMarked,
		nullableTime(l.DeletedAt),
		l.CreatedAt,
		l.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return lesson.ErrDateTaken
		}
		return fmt.Errorf("failed to create lesson: %w", err)
	}

	return nil
}

// GetByID returns a lesson by ID regardless of deletion status.
func (r *LessonRepository) GetByID(ctx context.Context, id string) (*lesson.Lesson, error) {
	query := fmt.Sprintf(`SELECT %s FROM lessons WHERE id = $1`, lessonColumns)
	return scanLesson(r.q.QueryRow(ctx, query, id))
}

// GetActiveByDate returns the active lesson on the given date.
func (r *LessonRepository) GetActiveByDate(ctx context.Context, date time.Time) (*lesson.Lesson, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM lessons
		WHERE lesson_date = $1 AND deleted_at IS NULL
	`, lessonColumns)
	return scanLesson(r.q.QueryRow(ctx, query, date))
}

// Update updates a lesson.
func (r *LessonRepository) Update(ctx context.Context, l *lesson.Lesson) error {
	query := `
		UPDATE lessons SET
			lesson_date = $1,
			topics = $2,
			tags = $3,
			has_homework = $4,
			attendance_marked = $5,
			homework_marked = $6,
			participation_marked = $7,
			deleted_at = $8,
			updated_at = $9
		WHERE id = $10
	`

	result, err := r.q.Exec(ctx, query,
		l.Date,
		l.Topics,
		tagsToStrings(l.Tags),
		l.HasHomework,
		l.AttendanceMarked,
		l.HomeworkMarked,
		l.ParticipationMarked,
		nullableTime(l.DeletedAt),
		time.Now().UTC(),
		l.ID,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return lesson.ErrDateTaken
		}
		return fmt.Errorf("failed to update lesson: %w", err)
	}

	if result.RowsAffected() == 0 {
		return lesson.ErrLessonNotFound
	}

	return nil
}

// HardDelete removes the lesson row permanently.
func (r *LessonRepository) HardDelete(ctx context.Context, id string) error {
	result, err := r.q.Exec(ctx, `DELETE FROM lessons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete lesson: %w", err)
	}

	if result.RowsAffected() == 0 {
		return lesson.ErrLessonNotFound
	}

	return nil
}

// GetActiveInRange returns active lessons in [from, to] sorted by date.
func (r *LessonRepository) GetActiveInRange(ctx context.Context, from, to time.Time) ([]*lesson.Lesson, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM lessons
		WHERE deleted_at IS NULL AND lesson_date >= $1 AND lesson_date <= $2
		ORDER BY lesson_date
	`, lessonColumns)

	rows, err := r.q.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query lessons in range: %w", err)
	}
	defer rows.Close()

	return scanLessons(rows)
}

// GetDeleted returns lessons in the trash bin.
func (r *LessonRepository) GetDeleted(ctx context.Context) ([]*lesson.Lesson, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM lessons
		WHERE deleted_at IS NOT NULL
		ORDER BY deleted_at DESC
	`, lessonColumns)

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query deleted lessons: %w", err)
	}
	defer rows.Close()

	return scanLessons(rows)
}

// FindDeletedBefore returns lessons soft-deleted before the cutoff.
func (r *LessonRepository) FindDeletedBefore(ctx context.Context, cutoff time.Time) ([]*lesson.Lesson, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM lessons
		WHERE deleted_at IS NOT NULL AND deleted_at < $1
		ORDER BY deleted_at
	`, lessonColumns)

	rows, err := r.q.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired lessons: %w", err)
	}
	defer rows.Close()

	return scanLessons(rows)
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER METHODS
// ══════════════════════════════════════════════════════════════════════════════

func tagsToStrings(tags []lesson.CategoryTag) []string {
	out := make([]string, len(tags))
	for i, tag := range tags {
		out[i] = string(tag)
	}
	return out
}

func stringsToTags(raw []string) []lesson.CategoryTag {
	if len(raw) == 0 {
		return nil
	}
	out := make([]lesson.CategoryTag, len(raw))
	for i, s := range raw {
		out[i] = lesson.CategoryTag(s)
	}
	return out
}

func scanLesson(row pgx.Row) (*lesson.Lesson, error) {
	var l lesson.Lesson
	var tags []string
	var deletedAt *time.Time

	err := row.Scan(
		&l.ID,
		&l.Date,
		&l.Topics,
		&tags,
		&l.HasHomework,
		&l.AttendanceMarked,
		&l.HomeworkMarked,
		&l.ParticipationMarked,
		&deletedAt,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if IsNoRows(err) {
		return nil, lesson.ErrLessonNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan lesson: %w", err)
	}

	l.Date = l.Date.UTC()
	l.Tags = stringsToTags(tags)
	if deletedAt != nil {
		l.DeletedAt = deletedAt.UTC()
	}

	return &l, nil
}

func scanLessons(rows pgx.Rows) ([]*lesson.Lesson, error) {
	var lessons []*lesson.Lesson

	for rows.Next() {
		var l lesson.Lesson
		var tags []string
		var deletedAt *time.Time

		err := rows.Scan(
			&l.ID,
			&l.Date,
			&l.Topics,
			&tags,
			&l.HasHomework,
			&l.AttendanceMarked,
			&l.HomeworkMarked,
			&l.ParticipationMarked,
			&deletedAt,
			&l.CreatedAt,
			&l.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}

		l.Date = l.Date.UTC()
		l.Tags = stringsToTags(tags)
		if deletedAt != nil {
			l.DeletedAt = deletedAt.UTC()
		}

		lessons = append(lessons, &l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return lessons, nil
}
