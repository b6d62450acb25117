package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNew(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		dr, err := New(day(2025, 1, 1), day(2025, 1, 5))
		require.NoError(t, err)
		assert.Equal(t, 4, dr.Days())
	})

	t.Run("start equals end", func(t *testing.T) {
		_, err := New(day(2025, 1, 1), day(2025, 1, 1))
		assert.ErrorIs(t, err, ErrInvalidRange)
	})

	t.Run("start after end", func(t *testing.T) {
		_, err := New(day(2025, 1, 5), day(2025, 1, 1))
		assert.ErrorIs(t, err, ErrInvalidRange)
	})

	t.Run("zero value", func(t *testing.T) {
		assert.ErrorIs(t, DateRange{}.Validate(), ErrInvalidRange)
	})
}

func TestOverlaps(t *testing.T) {
	base := DateRange{Start: day(2025, 3, 10), End: day(2025, 3, 20)}
	cases := []struct {
		name  string
		other DateRange
		want  bool
	}{
		{"inside", DateRange{Start: day(2025, 3, 12), End: day(2025, 3, 15)}, true},
		{"covering", DateRange{Start: day(2025, 3, 1), End: day(2025, 3, 31)}, true},
		{"left edge overlap", DateRange{Start: day(2025, 3, 5), End: day(2025, 3, 11)}, true},
		{"right edge overlap", DateRange{Start: day(2025, 3, 19), End: day(2025, 3, 25)}, true},
		{"touching end is free", DateRange{Start: day(2025, 3, 20), End: day(2025, 3, 25)}, false},
		{"touching start is free", DateRange{Start: day(2025, 3, 1), End: day(2025, 3, 10)}, false},
		{"disjoint", DateRange{Start: day(2025, 4, 1), End: day(2025, 4, 2)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, base.Overlaps(tc.other))
			assert.Equal(t, tc.want, tc.other.Overlaps(base))
		})
	}
}

func TestCalendarMonths(t *testing.T) {
	assert.Equal(t, 0, DateRange{Start: day(2025, 1, 1), End: day(2025, 1, 31)}.CalendarMonths())
	assert.Equal(t, 1, DateRange{Start: day(2025, 1, 31), End: day(2025, 2, 1)}.CalendarMonths())
	assert.Equal(t, 3, DateRange{Start: day(2025, 1, 15), End: day(2025, 4, 14)}.CalendarMonths())
	assert.Equal(t, 14, DateRange{Start: day(2024, 11, 1), End: day(2026, 1, 1)}.CalendarMonths())
}

func TestContainsDate(t *testing.T) {
	dr := DateRange{Start: day(2025, 5, 1), End: day(2025, 5, 3)}
	assert.True(t, dr.ContainsDate(day(2025, 5, 1)))
	assert.True(t, dr.ContainsDate(day(2025, 5, 2)))
	assert.False(t, dr.ContainsDate(day(2025, 5, 3)))
}
