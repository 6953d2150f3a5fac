package dateutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateOnly(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	at := time.Date(2026, 3, 10, 2, 30, 0, 0, loc) // 2026-03-09 21:30 UTC

	got := DateOnly(at)
	assert.Equal(t, Date(2026, 3, 9), got)
	assert.Equal(t, time.UTC, got.Location())
}

func TestSameDate(t *testing.T) {
	assert.True(t, SameDate(
		time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC),
		time.Date(2026, 3, 10, 0, 1, 0, 0, time.UTC),
	))
	assert.False(t, SameDate(Date(2026, 3, 10), Date(2026, 3, 11)))
}

func TestMonthBounds(t *testing.T) {
	tests := []struct {
		name  string
		year  int
		month int
		start time.Time
		end   time.Time
	}{
		{"regular month", 2026, 3, Date(2026, 3, 1), Date(2026, 3, 31)},
		{"thirty days", 2026, 4, Date(2026, 4, 1), Date(2026, 4, 30)},
		{"leap february", 2024, 2, Date(2024, 2, 1), Date(2024, 2, 29)},
		{"non-leap february", 2026, 2, Date(2026, 2, 1), Date(2026, 2, 28)},
		{"december", 2026, 12, Date(2026, 12, 1), Date(2026, 12, 31)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := MonthBounds(tt.year, tt.month)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
		})
	}
}

func TestYearMonth(t *testing.T) {
	t.Run("parse", func(t *testing.T) {
		ym, err := ParseYearMonth("2026-03")
		require.NoError(t, err)
		assert.Equal(t, YearMonth{Year: 2026, Month: 3}, ym)
		assert.Equal(t, "2026-03", ym.String())
	})

	t.Run("parse rejects malformed input", func(t *testing.T) {
		for _, s := range []string{"03-2026", "2026-13", "2026-3", "2026/03", ""} {
			_, err := ParseYearMonth(s)
			assert.Error(t, err, s)
		}
	})

	t.Run("contains", func(t *testing.T) {
		ym := YearMonth{Year: 2026, Month: 3}
		assert.True(t, ym.Contains(time.Date(2026, 3, 31, 23, 0, 0, 0, time.UTC)))
		assert.False(t, ym.Contains(Date(2026, 4, 1)))
	})

	t.Run("of", func(t *testing.T) {
		assert.Equal(t, YearMonth{Year: 2026, Month: 3}, YearMonthOf(Date(2026, 3, 15)))
		assert.True(t, YearMonth{}.IsZero())
	})
}

func TestDaysAgo(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC), DaysAgo(now, 30))
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, Date(2026, 3, 10), got)
	assert.Equal(t, "2026-03-10", FormatDate(got))

	_, err = ParseDate("10.03.2026")
	assert.Error(t, err)
}
