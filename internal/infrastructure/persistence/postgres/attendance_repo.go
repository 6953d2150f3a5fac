package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/maktab-hub/maktab-tracker/internal/domain/lesson"
)

// ══════════════════════════════════════════════════════════════════════════════
// ATTENDANCE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const attendanceColumns = `id, lesson_id, student_id, attended, consecutive_absences, lesson_date, created_at`

// AttendanceRepository implements lesson.AttendanceRepository for PostgreSQL.
type AttendanceRepository struct {
	q Querier
}

// NewAttendanceRepository creates a new AttendanceRepository.
func NewAttendanceRepository(q Querier) *AttendanceRepository {
	return &AttendanceRepository{q: q}
}

// Create creates an attendance record.
func (r *AttendanceRepository) Create(ctx context.Context, a *lesson.Attendance) error {
	query := `
		INSERT INTO lesson_attendance (id, lesson_id, student_id, attended, consecutive_absences, lesson_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q.Exec(ctx, query,
		a.ID,
		a.LessonID,
		a.StudentID,
		a.Attended,
		a.ConsecutiveAbsences,
		a.LessonDate,
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create attendance: %w", err)
	}

	return nil
}

// Get returns the record for one lesson x student pair.
func (r *AttendanceRepository) Get(ctx context.Context, lessonID, studentID string) (*lesson.Attendance, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM lesson_attendance
		WHERE lesson_id = $1 AND student_id = $2
	`, attendanceColumns)
	return scanAttendance(r.q.QueryRow(ctx, query, lessonID, studentID))
}

// Update updates an attendance record.
func (r *AttendanceRepository) Update(ctx context.Context, a *lesson.Attendance) error {
	query := `
		UPDATE lesson_attendance SET
			attended = $1,
			consecutive_absences = $2
		WHERE lesson_id = $3 AND student_id = $4
	`

	result, err := r.q.Exec(ctx, query, a.Attended, a.ConsecutiveAbsences, a.LessonID, a.StudentID)
	if err != nil {
		return fmt.Errorf("failed to update attendance: %w", err)
	}

	if result.RowsAffected() == 0 {
		return lesson.ErrAttendanceNotFound
	}

	return nil
}

// GetByLesson returns all records for a lesson.
func (r *AttendanceRepository) GetByLesson(ctx context.Context, lessonID string) ([]*lesson.Attendance, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM lesson_attendance
		WHERE lesson_id = $1
	`, attendanceColumns)

	rows, err := r.q.Query(ctx, query, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance by lesson: %w", err)
	}
	defer rows.Close()

	return scanAttendances(rows)
}

// GetByStudent returns a student's history over active lessons in
// [from, to] inclusive.
func (r *AttendanceRepository) GetByStudent(ctx context.Context, studentID string, from, to time.Time) ([]*lesson.Attendance, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM lesson_attendance a
		WHERE a.student_id = $1
		  AND a.lesson_date >= $2 AND a.lesson_date <= $3
		  AND EXISTS (
			SELECT 1 FROM lessons l
			WHERE l.id = a.lesson_id AND l.deleted_at IS NULL
		  )
		ORDER BY a.lesson_date
	`, attendanceColumnsQualified)

	rows, err := r.q.Query(ctx, query, studentID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance by student: %w", err)
	}
	defer rows.Close()

	return scanAttendances(rows)
}

// DeleteByLesson deletes all records for a lesson.
func (r *AttendanceRepository) DeleteByLesson(ctx context.Context, lessonID string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM lesson_attendance WHERE lesson_id = $1`, lessonID)
	if err != nil {
		return fmt.Errorf("failed to delete attendance by lesson: %w", err)
	}
	return nil
}

// DeleteByStudent deletes all records for a student.
func (r *AttendanceRepository) DeleteByStudent(ctx context.Context, studentID string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM lesson_attendance WHERE student_id = $1`, studentID)
	if err != nil {
		return fmt.Errorf("failed to delete attendance by student: %w", err)
	}
	return nil
}

// FindAbsentWithStreak returns absence records with a streak at or above
// the given minimum, over active lessons only.
func (r *AttendanceRepository) FindAbsentWithStreak(ctx context.Context, minStreak int) ([]*lesson.Attendance, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM lesson_attendance a
		WHERE a.attended = FALSE
		  AND a.consecutive_absences >= $1
		  AND EXISTS (
			SELECT 1 FROM lessons l
			WHERE l.id = a.lesson_id AND l.deleted_at IS NULL
		  )
		ORDER BY a.consecutive_absences DESC, a.lesson_date DESC
	`, attendanceColumnsQualified)

	rows, err := r.q.Query(ctx, query, minStreak)
	if err != nil {
		return nil, fmt.Errorf("failed to query absences: %w", err)
	}
	defer rows.Close()

	return scanAttendances(rows)
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER METHODS
// ══════════════════════════════════════════════════════════════════════════════

const attendanceColumnsQualified = `a.id, a.lesson_id, a.student_id, a.attended, a.consecutive_absences, a.lesson_date, a.created_at`

func scanAttendance(row pgx.Row) (*lesson.Attendance, error) {
	var a lesson.Attendance

	err := row.Scan(
		&a.ID,
		&a.LessonID,
		&a.StudentID,
		&a.Attended,
		&a.ConsecutiveAbsences,
		&a.LessonDate,
		&a.CreatedAt,
	)
	if IsNoRows(err) {
		return nil, lesson.ErrAttendanceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan attendance: %w", err)
	}

	a.LessonDate = a.LessonDate.UTC()
	return &a, nil
}

func scanAttendances(rows pgx.Rows) ([]*lesson.Attendance, error) {
	var records []*lesson.Attendance

	for rows.Next() {
		var a lesson.Attendance

		err := rows.Scan(
			&a.ID,
			&a.LessonID,
			&a.StudentID,
			&a.Attended,
			&a.ConsecutiveAbsences,
			&a.LessonDate,
			&a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}

		a.LessonDate = a.LessonDate.UTC()
		records = append(records, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return records, nil
}
