package query

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maktab-hub/maktab-tracker/internal/domain/behavioral"
	"github.com/maktab-hub/maktab-tracker/internal/domain/shared"
	"github.com/maktab-hub/maktab-tracker/pkg/dateutil"
)

func seedIncident(t *testing.T, store *memStore, lessonID, studentID string, typ behavioral.IncidentType, talkedWith ...string) *behavioral.Incident {
	t.Helper()
	inc, err := behavioral.NewIncident(behavioral.NewIncidentParams{
		ID:            uuid.NewString(),
		LessonID:      lessonID,
		StudentID:     studentID,
		Type:          typ,
		TalkedWithIDs: talkedWith,
	})
	require.NoError(t, err)
	store.incidents[inc.ID] = inc
	return inc
}

func TestBehavioralSummary(t *testing.T) {
	ctx := context.Background()
	month := dateutil.YearMonthOf(time.Now()).String()

	t.Run("totals, level and talked-with ranking", func(t *testing.T) {
		store := newMemStore()
		ahmad := seedStudent(store, "Ahmad")
		bilal := seedStudent(store, "Bilal")
		les := seedLesson(store, dateutil.DateOnly(time.Now()))

		seedIncident(t, store, les.ID, ahmad.ID, behavioral.TypeTalksWithOthers, bilal.ID)
		seedIncident(t, store, les.ID, ahmad.ID, behavioral.TypeTalksWithOthers, bilal.ID)
		seedIncident(t, store, les.ID, ahmad.ID, behavioral.TypeLate)
		seedIncident(t, store, les.ID, ahmad.ID, behavioral.TypeDisruptive)

		h := NewBehavioralSummaryHandler(&memStudents{store}, &memIncidents{store}, nil, nil)
		res, err := h.Handle(ctx, BehavioralSummaryQuery{StudentID: ahmad.ID, Month: month})

		require.NoError(t, err)
		assert.Equal(t, 4, res.TotalIncidents)
		assert.Equal(t, behavioral.LevelMinorIssues, res.Level)
		assert.True(t, res.SpecialNotificationSent)
		assert.Equal(t, 2, res.ByType[behavioral.TypeTalksWithOthers])
		assert.Equal(t, 1, res.ByType[behavioral.TypeLate])

		require.Len(t, res.TalkedWith, 1)
		assert.Equal(t, "Bilal", res.TalkedWith[0].StudentName)
		assert.Equal(t, 2, res.TalkedWith[0].Count)

		assert.Len(t, res.Incidents, 4)
	})

	t.Run("clean month is exemplary", func(t *testing.T) {
		store := newMemStore()
		stu := seedStudent(store, "Ahmad")

		h := NewBehavioralSummaryHandler(&memStudents{store}, &memIncidents{store}, nil, nil)
		res, err := h.Handle(ctx, BehavioralSummaryQuery{StudentID: stu.ID, Month: month})

		require.NoError(t, err)
		assert.Zero(t, res.TotalIncidents)
		assert.Equal(t, behavioral.LevelExemplary, res.Level)
		assert.False(t, res.SpecialNotificationSent)
	})

	t.Run("second call served from cache", func(t *testing.T) {
		store := newMemStore()
		stu := seedStudent(store, "Ahmad")
		les := seedLesson(store, dateutil.DateOnly(time.Now()))
		seedIncident(t, store, les.ID, stu.ID, behavioral.TypeLate)

		cache := newMemSummaryCache()
		h := NewBehavioralSummaryHandler(&memStudents{store}, &memIncidents{store}, cache, nil)
		q := BehavioralSummaryQuery{StudentID: stu.ID, Month: month}

		first, err := h.Handle(ctx, q)
		require.NoError(t, err)

		// Mutating the store does not affect the cached summary.
		seedIncident(t, store, les.ID, stu.ID, behavioral.TypeLate)

		second, err := h.Handle(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, 1, cache.hits)
		assert.Equal(t, first.TotalIncidents, second.TotalIncidents)
	})

	t.Run("malformed month rejected", func(t *testing.T) {
		store := newMemStore()
		stu := seedStudent(store, "Ahmad")

		h := NewBehavioralSummaryHandler(&memStudents{store}, &memIncidents{store}, nil, nil)
		_, err := h.Handle(ctx, BehavioralSummaryQuery{StudentID: stu.ID, Month: "03-2026"})
		assert.True(t, shared.IsValidation(err))
	})

	t.Run("unknown student is not found", func(t *testing.T) {
		store := newMemStore()
		h := NewBehavioralSummaryHandler(&memStudents{store}, &memIncidents{store}, nil, nil)
		_, err := h.Handle(ctx, BehavioralSummaryQuery{StudentID: "ghost", Month: month})
		assert.True(t, shared.IsNotFound(err))
	})
}

func TestLessonIncidents(t *testing.T) {
	ctx := context.Background()

	t.Run("entries carry recomputed monthly totals", func(t *testing.T) {
		store := newMemStore()
		ahmad := seedStudent(store, "Ahmad")
		bilal := seedStudent(store, "Bilal")
		les := seedLesson(store, dateutil.DateOnly(time.Now()))
		otherLesson := seedLesson(store, dateutil.DateOnly(time.Now()).AddDate(0, 0, -1))

		seedIncident(t, store, les.ID, ahmad.ID, behavioral.TypeDisruptive)
		seedIncident(t, store, les.ID, bilal.ID, behavioral.TypeLate)
		// Same month, different lesson: counts toward Ahmad's total.
		seedIncident(t, store, otherLesson.ID, ahmad.ID, behavioral.TypeLate)

		h := NewLessonIncidentsHandler(&memLessons{store}, &memStudents{store}, &memIncidents{store})
		res, err := h.Handle(ctx, LessonIncidentsQuery{LessonID: les.ID})

		require.NoError(t, err)
		require.Len(t, res.Entries, 2)

		byStudent := make(map[string]LessonIncidentEntry)
		for _, e := range res.Entries {
			byStudent[e.StudentName] = e
		}
		assert.Equal(t, 2, byStudent["Ahmad"].MonthlyTotal)
		assert.Equal(t, behavioral.LevelGood, byStudent["Ahmad"].Level)
		assert.Equal(t, 1, byStudent["Bilal"].MonthlyTotal)
	})

	t.Run("unknown lesson is not found", func(t *testing.T) {
		store := newMemStore()
		h := NewLessonIncidentsHandler(&memLessons{store}, &memStudents{store}, &memIncidents{store})
		_, err := h.Handle(ctx, LessonIncidentsQuery{LessonID: "ghost"})
		assert.True(t, shared.IsNotFound(err))
	})
}
