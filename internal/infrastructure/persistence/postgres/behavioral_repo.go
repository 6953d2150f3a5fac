package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/maktab-hub/maktab-tracker/internal/domain/behavioral"
)

// ══════════════════════════════════════════════════════════════════════════════
// BEHAVIORAL INCIDENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const incidentColumns = `id, lesson_id, student_id, incident_type, talked_with, notes, created_at`

// IncidentRepository implements behavioral.Repository for PostgreSQL.
type IncidentRepository struct {
	q Querier
}

// NewIncidentRepository creates a new IncidentRepository.
func NewIncidentRepository(q Querier) *IncidentRepository {
	return &IncidentRepository{q: q}
}

// Create saves a new incident.
func (r *IncidentRepository) Create(ctx context.Context, inc *behavioral.Incident) error {
	query := `
		INSERT INTO behavioral_incidents (id, lesson_id, student_id, incident_type, talked_with, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q.Exec(ctx, query,
		inc.ID,
		inc.LessonID,
		inc.StudentID,
		string(inc.Type),
		inc.TalkedWithIDs,
		inc.Notes,
		inc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create incident: %w", err)
	}

	return nil
}

// GetByID returns an incident by ID.
func (r *IncidentRepository) GetByID(ctx context.Context, id string) (*behavioral.Incident, error) {
	query := fmt.Sprintf(`SELECT %s FROM behavioral_incidents WHERE id = $1`, incidentColumns)
	return scanIncident(r.q.QueryRow(ctx, query, id))
}

// Delete removes an incident permanently.
func (r *IncidentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.Exec(ctx, `DELETE FROM behavioral_incidents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete incident: %w", err)
	}

	if result.RowsAffected() == 0 {
		return behavioral.ErrIncidentNotFound
	}

	return nil
}

// GetByLesson returns a lesson's incidents in recording order.
func (r *IncidentRepository) GetByLesson(ctx context.Context, lessonID string) ([]*behavioral.Incident, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM behavioral_incidents
		WHERE lesson_id = $1
		ORDER BY created_at
	`, incidentColumns)

	rows, err := r.q.Query(ctx, query, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to query incidents by lesson: %w", err)
	}
	defer rows.Close()

	return scanIncidents(rows)
}

// GetByStudentInRange returns a student's incidents recorded in [from, to).
func (r *IncidentRepository) GetByStudentInRange(ctx context.Context, studentID string, from, to time.Time) ([]*behavioral.Incident, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM behavioral_incidents
		WHERE student_id = $1 AND created_at >= $2 AND created_at < $3
		ORDER BY created_at
	`, incidentColumns)

	rows, err := r.q.Query(ctx, query, studentID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query incidents by student: %w", err)
	}
	defer rows.Close()

	return scanIncidents(rows)
}

// CountByStudentInRange counts a student's incidents recorded in [from, to).
func (r *IncidentRepository) CountByStudentInRange(ctx context.Context, studentID string, from, to time.Time) (int, error) {
	var count int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM behavioral_incidents WHERE student_id = $1 AND created_at >= $2 AND created_at < $3`,
		studentID, from, to,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count incidents: %w", err)
	}
	return count, nil
}

// DeleteByLesson deletes all incidents of a lesson.
func (r *IncidentRepository) DeleteByLesson(ctx context.Context, lessonID string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM behavioral_incidents WHERE lesson_id = $1`, lessonID)
	if err != nil {
		return fmt.Errorf("failed to delete incidents by lesson: %w", err)
	}
	return nil
}

// DeleteByStudent deletes all incidents of a student.
func (r *IncidentRepository) DeleteByStudent(ctx context.Context, studentID string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM behavioral_incidents WHERE student_id = $1`, studentID)
	if err != nil {
		return fmt.Errorf("failed to delete incidents by student: %w", err)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER METHODS
// ══════════════════════════════════════════════════════════════════════════════

func scanIncident(row pgx.Row) (*behavioral.Incident, error) {
	var inc behavioral.Incident
	var incType string
	var talkedWith []string

	err := row.Scan(
		&inc.ID,
		&inc.LessonID,
		&inc.StudentID,
		&incType,
		&talkedWith,
		&inc.Notes,
		&inc.CreatedAt,
	)
	if IsNoRows(err) {
		return nil, behavioral.ErrIncidentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan incident: %w", err)
	}

	inc.Type = behavioral.IncidentType(incType)
	inc.TalkedWithIDs = talkedWith
	return &inc, nil
}

func scanIncidents(rows pgx.Rows) ([]*behavioral.Incident, error) {
	var incidents []*behavioral.Incident

	for rows.Next() {
		var inc behavioral.Incident
		var incType string
		var talkedWith []string

		err := rows.Scan(
			&inc.ID,
			&inc.LessonID,
			&inc.StudentID,
			&incType,
			&talkedWith,
			&inc.Notes,
			&inc.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident: %w", err)
		}

		inc.Type = behavioral.IncidentType(incType)
		inc.TalkedWithIDs = talkedWith
		incidents = append(incidents, &inc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return incidents, nil
}
