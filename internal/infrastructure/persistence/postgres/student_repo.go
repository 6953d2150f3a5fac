package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/maktab-hub/maktab-tracker/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const studentColumns = `id, full_name, parent_id, status, archived_at, notes, created_at, updated_at`

// StudentRepository implements student.Repository for PostgreSQL.
type StudentRepository struct {
	q Querier
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(q Querier) *StudentRepository {
	return &StudentRepository{q: q}
}

// Create creates a new student.
func (r *StudentRepository) Create(ctx context.Context, s *student.Student) error {
	query := `
		INSERT INTO students (id, full_name, parent_id, status, archived_at, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q.Exec(ctx, query,
		s.ID,
		s.FullName,
		s.ParentID,
		string(s.Status),
		nullableTime(s.ArchivedAt),
		s.Notes,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create student: %w", err)
	}

	return nil
}

// GetByID returns a student by ID regardless of lifecycle status.
func (r *StudentRepository) GetByID(ctx context.Context, id string) (*student.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE id = $1`, studentColumns)
	return scanStudent(r.q.QueryRow(ctx, query, id))
}

// Update updates a student.
func (r *StudentRepository) Update(ctx context.Context, s *student.Student) error {
	query := `
		UPDATE students SET
			full_name = $1,
			parent_id = $2,
			status = $3,
			archived_at = $4,
			notes = $5,
			updated_at = $6
		WHERE id = $7
	`

	result, err := r.q.Exec(ctx, query,
		s.FullName,
		s.ParentID,
		string(s.Status),
		nullableTime(s.ArchivedAt),
		s.Notes,
		time.Now().UTC(),
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update student: %w", err)
	}

	if result.RowsAffected() == 0 {
		return student.ErrStudentNotFound
	}

	return nil
}

// HardDelete removes the student row permanently.
func (r *StudentRepository) HardDelete(ctx context.Context, id string) error {
	result, err := r.q.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete student: %w", err)
	}

	if result.RowsAffected() == 0 {
		return student.ErrStudentNotFound
	}

	return nil
}

// GetActive returns the active roster sorted by name.
func (r *StudentRepository) GetActive(ctx context.Context) ([]*student.Student, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM students
		WHERE status = $1
		ORDER BY full_name
	`, studentColumns)

	rows, err := r.q.Query(ctx, query, string(student.StatusActive))
	if err != nil {
		return nil, fmt.Errorf("failed to query active students: %w", err)
	}
	defer rows.Close()

	return scanStudents(rows)
}

// GetArchived returns archived students, most recently archived first.
func (r *StudentRepository) GetArchived(ctx context.Context) ([]*student.Student, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM students
		WHERE status = $1
		ORDER BY archived_at DESC
	`, studentColumns)

	rows, err := r.q.Query(ctx, query, string(student.StatusArchived))
	if err != nil {
		return nil, fmt.Errorf("failed to query archived students: %w", err)
	}
	defer rows.Close()

	return scanStudents(rows)
}

// FindArchivedBefore returns students archived before the cutoff.
func (r *StudentRepository) FindArchivedBefore(ctx context.Context, cutoff time.Time) ([]*student.Student, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM students
		WHERE status = $1 AND archived_at < $2
		ORDER BY archived_at
	`, studentColumns)

	rows, err := r.q.Query(ctx, query, string(student.StatusArchived), cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired students: %w", err)
	}
	defer rows.Close()

	return scanStudents(rows)
}

// GetByIDs returns students by a list of IDs. Unknown IDs are skipped.
func (r *StudentRepository) GetByIDs(ctx context.Context, ids []string) ([]*student.Student, error) {
	if len(ids) == 0 {
		return []*student.Student{}, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM students WHERE id = ANY($1)`, studentColumns)

	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query students by ids: %w", err)
	}
	defer rows.Close()

	return scanStudents(rows)
}

// CountActive returns the size of the active roster.
func (r *StudentRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM students WHERE status = $1`,
		string(student.StatusActive),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active students: %w", err)
	}
	return count, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PARENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const parentColumns = `id, full_name, phone, email, preferred_contact, created_at, updated_at`

// ParentRepository implements student.ParentRepository for PostgreSQL.
type ParentRepository struct {
	q Querier
}

// NewParentRepository creates a new ParentRepository.
func NewParentRepository(q Querier) *ParentRepository {
	return &ParentRepository{q: q}
}

// Create creates a new parent.
func (r *ParentRepository) Create(ctx context.Context, p *student.Parent) error {
	query := `
		INSERT INTO parents (id, full_name, phone, email, preferred_contact, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q.Exec(ctx, query,
		p.ID,
		p.FullName,
		p.Phone,
		p.Email,
		string(p.PreferredContact),
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return student.ErrParentPhoneTaken
		}
		return fmt.Errorf("failed to create parent: %w", err)
	}

	return nil
}

// GetByID returns a parent by ID.
func (r *ParentRepository) GetByID(ctx context.Context, id string) (*student.Parent, error) {
	query := fmt.Sprintf(`SELECT %s FROM parents WHERE id = $1`, parentColumns)
	return scanParent(r.q.QueryRow(ctx, query, id))
}

// GetByPhone returns a parent by phone number, the natural key used to
// share one parent between siblings.
func (r *ParentRepository) GetByPhone(ctx context.Context, phone string) (*student.Parent, error) {
	query := fmt.Sprintf(`SELECT %s FROM parents WHERE phone = $1`, parentColumns)
	return scanParent(r.q.QueryRow(ctx, query, phone))
}

// Update updates a parent.
func (r *ParentRepository) Update(ctx context.Context, p *student.Parent) error {
	query := `
		UPDATE parents SET
			full_name = $1,
			phone = $2,
			email = $3,
			preferred_contact = $4,
			updated_at = $5
		WHERE id = $6
	`

	result, err := r.q.Exec(ctx, query,
		p.FullName,
		p.Phone,
		p.Email,
		string(p.PreferredContact),
		time.Now().UTC(),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update parent: %w", err)
	}

	if result.RowsAffected() == 0 {
		return student.ErrParentNotFound
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER METHODS
// ══════════════════════════════════════════════════════════════════════════════

// nullableTime maps the zero time to NULL.
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func scanStudent(row pgx.Row) (*student.Student, error) {
	var s student.Student
	var status string
	var archivedAt *time.Time

	err := row.Scan(
		&s.ID,
		&s.FullName,
		&s.ParentID,
		&status,
		&archivedAt,
		&s.Notes,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if IsNoRows(err) {
		return nil, student.ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan student: %w", err)
	}

	s.Status = student.Status(status)
	if archivedAt != nil {
		s.ArchivedAt = archivedAt.UTC()
	}

	return &s, nil
}

func scanStudents(rows pgx.Rows) ([]*student.Student, error) {
	var students []*student.Student

	for rows.Next() {
		var s student.Student
		var status string
		var archivedAt *time.Time

		err := rows.Scan(
			&s.ID,
			&s.FullName,
			&s.ParentID,
			&status,
			&archivedAt,
			&s.Notes,
			&s.CreatedAt,
			&s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}

		s.Status = student.Status(status)
		if archivedAt != nil {
			s.ArchivedAt = archivedAt.UTC()
		}

		students = append(students, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return students, nil
}

func scanParent(row pgx.Row) (*student.Parent, error) {
	var p student.Parent
	var contact string

	err := row.Scan(
		&p.ID,
		&p.FullName,
		&p.Phone,
		&p.Email,
		&contact,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if IsNoRows(err) {
		return nil, student.ErrParentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan parent: %w", err)
	}

	p.PreferredContact = student.ContactMethod(contact)
	return &p, nil
}
