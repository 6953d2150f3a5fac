package command

import (
	"context"
	"fmt"
)

// ══════════════════════════════════════════════════════════════════════════════
// CASCADE POLICY
// The storage schema enforces no automatic cascade for these tables, so
// every path that removes a parent row goes through one of these two
// routines. Keeping the cascade in one place prevents a path from
// forgetting a child table.
// ══════════════════════════════════════════════════════════════════════════════

// purgeLessonArtifacts deletes everything owned by a lesson: attendance,
// homework, participation, and behavioral incidents. The lesson row itself
// is not touched.
func purgeLessonArtifacts(ctx context.Context, r Repos, lessonID string) error {
	if err := r.Attendance.DeleteByLesson(ctx, lessonID); err != nil {
		return fmt.Errorf("purge lesson artifacts: attendance: %w", err)
	}
	if err := r.Homework.DeleteByLesson(ctx, lessonID); err != nil {
		return fmt.Errorf("purge lesson artifacts: homework: %w", err)
	}
	if err := r.Participation.DeleteByLesson(ctx, lessonID); err != nil {
		return fmt.Errorf("purge lesson artifacts: participation: %w", err)
	}
	if err := r.Incidents.DeleteByLesson(ctx, lessonID); err != nil {
		return fmt.Errorf("purge lesson artifacts: incidents: %w", err)
	}
	return nil
}

// purgeStudentArtifacts deletes everything owned by a student across all
// lessons. The student row itself is not touched.
func purgeStudentArtifacts(ctx context.Context, r Repos, studentID string) error {
	if err := r.Attendance.DeleteByStudent(ctx, studentID); err != nil {
		return fmt.Errorf("purge student artifacts: attendance: %w", err)
	}
	if err := r.Homework.DeleteByStudent(ctx, studentID); err != nil {
		return fmt.Errorf("purge student artifacts: homework: %w", err)
	}
	if err := r.Participation.DeleteByStudent(ctx, studentID); err != nil {
		return fmt.Errorf("purge student artifacts: participation: %w", err)
	}
	if err := r.Incidents.DeleteByStudent(ctx, studentID); err != nil {
		return fmt.Errorf("purge student artifacts: incidents: %w", err)
	}
	return nil
}

// retractAttendanceArtifacts deletes the homework and participation rows of
// one student on one lesson. Called when attendance flips to absent: neither
// record may exist without attendance.
func retractAttendanceArtifacts(ctx context.Context, r Repos, lessonID, studentID string) error {
	if err := r.Homework.Delete(ctx, lessonID, studentID); err != nil {
		return fmt.Errorf("retract attendance artifacts: homework: %w", err)
	}
	if err := r.Participation.Delete(ctx, lessonID, studentID); err != nil {
		return fmt.Errorf("retract attendance artifacts: participation: %w", err)
	}
	return nil
}
