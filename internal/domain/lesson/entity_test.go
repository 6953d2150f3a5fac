package lesson

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLesson(t *testing.T) {
	t.Run("truncates date to UTC midnight", func(t *testing.T) {
		l, err := NewLesson(NewLessonParams{
			ID:     "les-1",
			Date:   time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC),
			Topics: "  الدرس الأول  ",
			Tags:   []CategoryTag{TagNahw, TagQiraa},
		})

		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), l.Date)
		assert.Equal(t, "الدرس الأول", l.Topics)
		assert.False(t, l.AttendanceMarked)
		assert.False(t, l.IsDeleted())
	})

	t.Run("rejects unknown tag", func(t *testing.T) {
		_, err := NewLesson(NewLessonParams{
			ID:   "les-1",
			Date: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
			Tags: []CategoryTag{"SPORT"},
		})
		assert.ErrorIs(t, err, ErrInvalidTag)
	})

	t.Run("requires date", func(t *testing.T) {
		_, err := NewLesson(NewLessonParams{ID: "les-1"})
		assert.Error(t, err)
	})
}

func TestLessonSoftDeleteRestore(t *testing.T) {
	newLesson := func(t *testing.T) *Lesson {
		l, err := NewLesson(NewLessonParams{ID: "les-1", Date: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)})
		require.NoError(t, err)
		return l
	}

	t.Run("soft delete sets tombstone", func(t *testing.T) {
		l := newLesson(t)
		at := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)

		require.NoError(t, l.SoftDelete(at))
		assert.True(t, l.IsDeleted())
		assert.Equal(t, at, l.DeletedAt)
	})

	t.Run("double delete fails", func(t *testing.T) {
		l := newLesson(t)
		require.NoError(t, l.SoftDelete(time.Now()))
		assert.ErrorIs(t, l.SoftDelete(time.Now()), ErrAlreadyDeleted)
	})

	t.Run("restore clears tombstone", func(t *testing.T) {
		l := newLesson(t)
		require.NoError(t, l.SoftDelete(time.Now()))

		require.NoError(t, l.Restore())
		assert.False(t, l.IsDeleted())
	})

	t.Run("restore of active lesson fails", func(t *testing.T) {
		l := newLesson(t)
		assert.ErrorIs(t, l.Restore(), ErrNotDeleted)
	})

	t.Run("days deleted", func(t *testing.T) {
		l := newLesson(t)
		require.NoError(t, l.SoftDelete(time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)))
		assert.Equal(t, 7, l.DaysDeleted(time.Date(2024, 3, 18, 2, 0, 0, 0, time.UTC)))
	})
}

func TestNewAttendance(t *testing.T) {
	t.Run("attended resets streak", func(t *testing.T) {
		a := NewAttendance("att-1", "les-1", "stu-1", time.Now(), true, 4)
		assert.True(t, a.Attended)
		assert.Equal(t, 0, a.ConsecutiveAbsences)
	})

	t.Run("absent keeps streak", func(t *testing.T) {
		a := NewAttendance("att-1", "les-1", "stu-1", time.Now(), false, 3)
		assert.False(t, a.Attended)
		assert.Equal(t, 3, a.ConsecutiveAbsences)
	})
}

func TestNewParticipation(t *testing.T) {
	t.Run("valid score", func(t *testing.T) {
		p, err := NewParticipation("par-1", "les-1", "stu-1", 5)
		require.NoError(t, err)
		assert.Equal(t, Score(5), p.Score)
	})

	t.Run("score out of range", func(t *testing.T) {
		_, err := NewParticipation("par-1", "les-1", "stu-1", 6)
		assert.ErrorIs(t, err, ErrInvalidScore)

		_, err = NewParticipation("par-1", "les-1", "stu-1", -1)
		assert.ErrorIs(t, err, ErrInvalidScore)
	})
}

func TestCategoryTag(t *testing.T) {
	for _, tag := range []CategoryTag{TagNahw, TagAdab, TagBalagha, TagTabeer, TagQiraa, TagNusus} {
		assert.True(t, tag.IsValid(), string(tag))
		assert.NotEmpty(t, tag.ArabicName())
	}
	assert.False(t, CategoryTag("SPORT").IsValid())
}
