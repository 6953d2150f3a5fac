package behavioral

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIncident(t *testing.T) {
	t.Run("valid incident", func(t *testing.T) {
		inc, err := NewIncident(NewIncidentParams{
			ID:            "inc-1",
			LessonID:      "les-1",
			StudentID:     "stu-1",
			Type:          TypeTalksWithOthers,
			TalkedWithIDs: []string{"stu-2", "stu-3"},
			Notes:         " kept chatting during qiraa ",
		})

		require.NoError(t, err)
		assert.Equal(t, TypeTalksWithOthers, inc.Type)
		assert.Equal(t, "kept chatting during qiraa", inc.Notes)
		assert.False(t, inc.CreatedAt.IsZero())
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := NewIncident(NewIncidentParams{
			ID:        "inc-1",
			LessonID:  "les-1",
			StudentID: "stu-1",
			Type:      "SLEEPING",
		})
		assert.ErrorIs(t, err, ErrInvalidIncidentType)
	})

	t.Run("missing refs", func(t *testing.T) {
		_, err := NewIncident(NewIncidentParams{ID: "inc-1", Type: TypeLate})
		assert.Error(t, err)
	})
}

func TestClassifyLevel(t *testing.T) {
	tests := []struct {
		count int
		want  Level
	}{
		{0, LevelExemplary},
		{1, LevelGood},
		{2, LevelGood},
		{3, LevelMinorIssues},
		{5, LevelMinorIssues},
		{6, LevelBehavioralConcerns},
		{10, LevelBehavioralConcerns},
		{11, LevelSeriousIssues},
		{42, LevelSeriousIssues},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyLevel(tt.count), "count %d", tt.count)
	}
}

func TestClassifyLevelMonotonic(t *testing.T) {
	rank := map[Level]int{
		LevelExemplary:          0,
		LevelGood:               1,
		LevelMinorIssues:        2,
		LevelBehavioralConcerns: 3,
		LevelSeriousIssues:      4,
	}

	prev := ClassifyLevel(0)
	for count := 1; count <= 20; count++ {
		cur := ClassifyLevel(count)
		assert.GreaterOrEqual(t, rank[cur], rank[prev], "count %d", count)
		prev = cur
	}
}

func TestTypeHistogram(t *testing.T) {
	incidents := []*Incident{
		{Type: TypeLate},
		{Type: TypeLate},
		{Type: TypeDisruptive},
	}

	hist := TypeHistogram(incidents)
	assert.Equal(t, 2, hist[TypeLate])
	assert.Equal(t, 1, hist[TypeDisruptive])
	assert.Equal(t, 0, hist[TypeLeftEarly])
}

func TestRankTalkedWith(t *testing.T) {
	names := map[string]string{
		"stu-2": "Bilal",
		"stu-3": "Yusuf",
		"stu-4": "Omar",
	}
	resolve := func(id string) (string, bool) {
		name, ok := names[id]
		return name, ok
	}

	t.Run("counts and sorts descending", func(t *testing.T) {
		incidents := []*Incident{
			{TalkedWithIDs: []string{"stu-2", "stu-3"}},
			{TalkedWithIDs: []string{"stu-3"}},
			{TalkedWithIDs: []string{"stu-3", "stu-4"}},
		}

		got := RankTalkedWith(incidents, resolve)
		require.Len(t, got, 3)
		assert.Equal(t, TalkedWithEntry{StudentID: "stu-3", StudentName: "Yusuf", Count: 3}, got[0])
		// Tie between stu-2 and stu-4 keeps first-appearance order.
		assert.Equal(t, "stu-2", got[1].StudentID)
		assert.Equal(t, "stu-4", got[2].StudentID)
	})

	t.Run("drops unresolvable ids", func(t *testing.T) {
		incidents := []*Incident{
			{TalkedWithIDs: []string{"gone", "stu-2"}},
		}

		got := RankTalkedWith(incidents, resolve)
		require.Len(t, got, 1)
		assert.Equal(t, "stu-2", got[0].StudentID)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, RankTalkedWith(nil, resolve))
	})
}
