package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maktab-hub/maktab-tracker/internal/domain/lesson"
	"github.com/maktab-hub/maktab-tracker/internal/domain/shared"
)

// marked seeds a lesson with attendance already marked for the student.
func markedFixture(t *testing.T, store *memStore, attended bool) (*lesson.Lesson, string) {
	t.Helper()
	stu := seedStudent(store, "Ahmad")
	les := seedLesson(store, lessonDate(10))

	h := NewMarkAttendanceHandler(&fakeUOW{store}, &collectingPublisher{}, nil)
	var ids []string
	if attended {
		ids = []string{stu.ID}
	}
	_, err := h.Handle(context.Background(), MarkAttendanceCommand{LessonID: les.ID, AttendedStudentIDs: ids})
	require.NoError(t, err)
	return les, stu.ID
}

func TestUpdateAttendance(t *testing.T) {
	ctx := context.Background()

	t.Run("toggle to absent retracts homework and participation", func(t *testing.T) {
		store := newMemStore()
		les, stuID := markedFixture(t, store, true)

		// Homework recorded while the student counted as attended.
		hw := lesson.NewHomework("hw-1", les.ID, stuID, true)
		store.homework[pairKey(les.ID, stuID)] = hw

		h := NewUpdateAttendanceHandler(&fakeUOW{store}, &collectingPublisher{}, nil)
		res, err := h.Handle(ctx, UpdateAttendanceCommand{LessonID: les.ID, StudentID: stuID, Attended: false})

		require.NoError(t, err)
		assert.True(t, res.Changed)
		assert.Equal(t, 1, res.ConsecutiveAbsences)
		assert.Nil(t, store.homework[pairKey(les.ID, stuID)])
		assert.Nil(t, store.participation[pairKey(les.ID, stuID)])
		assert.False(t, store.attendance[pairKey(les.ID, stuID)].Attended)
	})

	t.Run("toggle to attended keeps an existing score", func(t *testing.T) {
		store := newMemStore()
		les, stuID := markedFixture(t, store, false)

		// A score that survived from an earlier marking pass.
		part, _ := lesson.NewParticipation("p-old", les.ID, stuID, 4)
		store.participation[pairKey(les.ID, stuID)] = part

		h := NewUpdateAttendanceHandler(&fakeUOW{store}, &collectingPublisher{}, nil)
		res, err := h.Handle(ctx, UpdateAttendanceCommand{LessonID: les.ID, StudentID: stuID, Attended: true})

		require.NoError(t, err)
		assert.True(t, res.Changed)
		assert.Equal(t, 0, res.ConsecutiveAbsences)
		// Idempotent path: the prior score is untouched.
		assert.Equal(t, lesson.Score(4), store.participation[pairKey(les.ID, stuID)].Score)
	})

	t.Run("toggle to attended creates baseline when no score exists", func(t *testing.T) {
		store := newMemStore()
		les, stuID := markedFixture(t, store, false)

		h := NewUpdateAttendanceHandler(&fakeUOW{store}, &collectingPublisher{}, nil)
		_, err := h.Handle(ctx, UpdateAttendanceCommand{LessonID: les.ID, StudentID: stuID, Attended: true})

		require.NoError(t, err)
		require.NotNil(t, store.participation[pairKey(les.ID, stuID)])
		assert.Equal(t, lesson.BaselineScore, store.participation[pairKey(les.ID, stuID)].Score)
	})

	t.Run("no change reported without writes", func(t *testing.T) {
		store := newMemStore()
		les, stuID := markedFixture(t, store, true)

		h := NewUpdateAttendanceHandler(&fakeUOW{store}, &collectingPublisher{}, nil)
		res, err := h.Handle(ctx, UpdateAttendanceCommand{LessonID: les.ID, StudentID: stuID, Attended: true})

		require.NoError(t, err)
		assert.False(t, res.Changed)
		assert.Contains(t, res.Message, "no change")
	})

	t.Run("missing attendance row is not found", func(t *testing.T) {
		store := newMemStore()
		stu := seedStudent(store, "Ahmad")
		les := seedLesson(store, lessonDate(10))

		h := NewUpdateAttendanceHandler(&fakeUOW{store}, &collectingPublisher{}, nil)
		_, err := h.Handle(ctx, UpdateAttendanceCommand{LessonID: les.ID, StudentID: stu.ID, Attended: true})
		assert.True(t, shared.IsNotFound(err))
	})

	t.Run("archived student rejected", func(t *testing.T) {
		store := newMemStore()
		les, stuID := markedFixture(t, store, true)
		require.NoError(t, store.students[stuID].Archive(time.Now()))

		h := NewUpdateAttendanceHandler(&fakeUOW{store}, &collectingPublisher{}, nil)
		_, err := h.Handle(ctx, UpdateAttendanceCommand{LessonID: les.ID, StudentID: stuID, Attended: false})
		assert.True(t, shared.IsValidation(err))
	})
}

func TestBatchUpdateAttendance(t *testing.T) {
	ctx := context.Background()

	t.Run("failures are captured per item without aborting siblings", func(t *testing.T) {
		store := newMemStore()
		ahmad := seedStudent(store, "Ahmad")
		bilal := seedStudent(store, "Bilal")
		les := seedLesson(store, lessonDate(10))

		mark := NewMarkAttendanceHandler(&fakeUOW{store}, &collectingPublisher{}, nil)
		_, err := mark.Handle(ctx, MarkAttendanceCommand{
			LessonID:           les.ID,
			AttendedStudentIDs: []string{ahmad.ID, bilal.ID},
		})
		require.NoError(t, err)

		h := NewBatchUpdateAttendanceHandler(&fakeUOW{store}, &collectingPublisher{}, nil)
		res, err := h.Handle(ctx, BatchUpdateAttendanceCommand{
			LessonID: les.ID,
			Updates: []AttendanceUpdateItem{
				{StudentID: ahmad.ID, Attended: false},
				{StudentID: "ghost", Attended: true},
				{StudentID: bilal.ID, Attended: false},
			},
		})

		require.NoError(t, err)
		assert.Equal(t, 3, res.TotalCount)
		assert.Equal(t, 2, res.SuccessCount)
		assert.Equal(t, 1, res.FailedCount)

		require.Len(t, res.Items, 3)
		assert.True(t, res.Items[0].OK)
		assert.False(t, res.Items[1].OK)
		assert.Contains(t, res.Items[1].Error, "ghost")
		assert.True(t, res.Items[2].OK)

		// Siblings still applied.
		assert.False(t, store.attendance[pairKey(les.ID, ahmad.ID)].Attended)
		assert.False(t, store.attendance[pairKey(les.ID, bilal.ID)].Attended)
	})

	t.Run("empty batch rejected", func(t *testing.T) {
		store := newMemStore()
		h := NewBatchUpdateAttendanceHandler(&fakeUOW{store}, &collectingPublisher{}, nil)
		_, err := h.Handle(ctx, BatchUpdateAttendanceCommand{LessonID: "les-1"})
		assert.True(t, shared.IsValidation(err))
	})
}
