package query

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maktab-hub/maktab-tracker/internal/domain/audit"
	"github.com/maktab-hub/maktab-tracker/internal/domain/behavioral"
	"github.com/maktab-hub/maktab-tracker/internal/domain/shared"
	"github.com/maktab-hub/maktab-tracker/internal/domain/student"
	"github.com/maktab-hub/maktab-tracker/pkg/dateutil"
)

func TestListStudents(t *testing.T) {
	ctx := context.Background()

	store := newMemStore()
	seedStudent(store, "Bilal")
	seedStudent(store, "Ahmad")
	archived := seedStudent(store, "Karim")
	require.NoError(t, store.students[archived.ID].Archive(time.Now().AddDate(0, 0, -3)))

	h := NewListStudentsHandler(&memStudents{store})

	t.Run("active roster sorted by name", func(t *testing.T) {
		res, err := h.Handle(ctx, ListStudentsQuery{})
		require.NoError(t, err)
		require.Len(t, res.Students, 2)
		assert.Equal(t, "Ahmad", res.Students[0].FullName)
		assert.Equal(t, "Bilal", res.Students[1].FullName)
	})

	t.Run("archive with days in archive", func(t *testing.T) {
		res, err := h.Handle(ctx, ListStudentsQuery{Archived: true})
		require.NoError(t, err)
		require.Len(t, res.Students, 1)
		assert.Equal(t, "Karim", res.Students[0].FullName)
		assert.Equal(t, student.StatusArchived, res.Students[0].Status)
		assert.Equal(t, 3, res.Students[0].DaysInArchive)
	})
}

func TestStudentDetail(t *testing.T) {
	ctx := context.Background()

	t.Run("card with lifetime stats", func(t *testing.T) {
		store := newMemStore()
		stu := seedStudent(store, "Ahmad")

		l1 := seedLesson(store, dateutil.Date(2026, 3, 2))
		l2 := seedLesson(store, dateutil.Date(2026, 3, 4))
		seedAttendance(store, l1, stu.ID, true, 0)
		seedAttendance(store, l2, stu.ID, false, 1)

		inc, err := behavioral.NewIncident(behavioral.NewIncidentParams{
			ID:        uuid.NewString(),
			LessonID:  l1.ID,
			StudentID: stu.ID,
			Type:      behavioral.TypeLate,
		})
		require.NoError(t, err)
		store.incidents[inc.ID] = inc

		h := NewStudentDetailHandler(&memStudents{store}, &memParents{store}, &memAttendance{store}, &memIncidents{store})
		res, err := h.Handle(ctx, StudentDetailQuery{StudentID: stu.ID})

		require.NoError(t, err)
		assert.Equal(t, "Ahmad", res.Student.FullName)
		require.NotNil(t, res.Parent)
		assert.Equal(t, stu.ParentID, res.Parent.ID)

		assert.Equal(t, 2, res.TotalLessons)
		assert.Equal(t, 1, res.AttendedCount)
		assert.InDelta(t, 50.0, res.AttendancePercent, 0.01)
		assert.Equal(t, 1, res.CurrentStreak)

		assert.Equal(t, 1, res.MonthlyIncidents)
		assert.Equal(t, behavioral.LevelGood, res.BehavioralLevel)
	})

	t.Run("student with no history", func(t *testing.T) {
		store := newMemStore()
		stu := seedStudent(store, "Ahmad")

		h := NewStudentDetailHandler(&memStudents{store}, &memParents{store}, &memAttendance{store}, &memIncidents{store})
		res, err := h.Handle(ctx, StudentDetailQuery{StudentID: stu.ID})

		require.NoError(t, err)
		assert.Zero(t, res.TotalLessons)
		assert.Zero(t, res.AttendancePercent)
		assert.Equal(t, behavioral.LevelExemplary, res.BehavioralLevel)
	})

	t.Run("unknown student is not found", func(t *testing.T) {
		store := newMemStore()
		h := NewStudentDetailHandler(&memStudents{store}, &memParents{store}, &memAttendance{store}, &memIncidents{store})
		_, err := h.Handle(ctx, StudentDetailQuery{StudentID: "ghost"})
		assert.True(t, shared.IsNotFound(err))
	})
}

func TestDeletionLog(t *testing.T) {
	ctx := context.Background()

	store := newMemStore()
	for i := 0; i < 3; i++ {
		entry, err := audit.NewDeletionLog(uuid.NewString(), uuid.NewString(), "Ahmad", "admin", "left the program")
		require.NoError(t, err)
		entry.DeletedAt = time.Now().Add(time.Duration(-i) * time.Hour)
		store.logs = append(store.logs, entry)
	}

	h := NewDeletionLogHandler(&memLogs{store})

	t.Run("newest first", func(t *testing.T) {
		res, err := h.Handle(ctx, DeletionLogQuery{})
		require.NoError(t, err)
		require.Len(t, res.Entries, 3)
		assert.True(t, res.Entries[0].DeletedAt.After(res.Entries[1].DeletedAt))
	})

	t.Run("limit respected", func(t *testing.T) {
		res, err := h.Handle(ctx, DeletionLogQuery{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, res.Entries, 2)
	})
}
