package daterange_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentcore/internal/domain/shared/daterange"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustRange(t *testing.T, start, end time.Time) daterange.DateRange {
	t.Helper()
	dr, err := daterange.New(start, end)
	require.NoError(t, err)
	return dr
}

func TestNewRejectsInvertedRange(t *testing.T) {
	_, err := daterange.New(day(2024, 3, 10), day(2024, 3, 10))
	assert.ErrorIs(t, err, daterange.ErrInvalidRange)

	_, err = daterange.New(day(2024, 3, 10), day(2024, 3, 5))
	assert.ErrorIs(t, err, daterange.ErrInvalidRange)
}

func TestOverlapsIsSymmetric(t *testing.T) {
	cases := []struct {
		name string
		a, b daterange.DateRange
		want bool
	}{
		{"disjoint", mustRange(t, day(2024, 1, 1), day(2024, 1, 10)), mustRange(t, day(2024, 2, 1), day(2024, 2, 10)), false},
		{"nested", mustRange(t, day(2024, 1, 1), day(2024, 1, 31)), mustRange(t, day(2024, 1, 10), day(2024, 1, 12)), true},
		{"partial", mustRange(t, day(2024, 1, 1), day(2024, 1, 15)), mustRange(t, day(2024, 1, 10), day(2024, 1, 20)), true},
		{"identical", mustRange(t, day(2024, 1, 1), day(2024, 1, 15)), mustRange(t, day(2024, 1, 1), day(2024, 1, 15)), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.a.Overlaps(tc.b))
			assert.Equal(t, tc.want, tc.b.Overlaps(tc.a))
		})
	}
}

func TestOverlapsHalfOpenBoundary(t *testing.T) {
	// [Jan 1, Jan 10) and [Jan 10, Jan 20) share only the boundary instant,
	// which belongs to the second range alone.
	a := mustRange(t, day(2024, 1, 1), day(2024, 1, 10))
	b := mustRange(t, day(2024, 1, 10), day(2024, 1, 20))
	assert.False(t, a.Overlaps(b))
	assert.False(t, b.Overlaps(a))

	// One day earlier and they collide.
	c := mustRange(t, day(2024, 1, 9), day(2024, 1, 20))
	assert.True(t, a.Overlaps(c))
}

func TestContainsDateHonorsHalfOpenEnd(t *testing.T) {
	dr := mustRange(t, day(2024, 1, 1), day(2024, 1, 10))
	assert.True(t, dr.ContainsDate(day(2024, 1, 1)))
	assert.True(t, dr.ContainsDate(day(2024, 1, 9)))
	assert.False(t, dr.ContainsDate(day(2024, 1, 10)))
}

func TestDays(t *testing.T) {
	assert.Equal(t, 9, mustRange(t, day(2024, 1, 1), day(2024, 1, 10)).Days())
	assert.Equal(t, 366, mustRange(t, day(2024, 1, 1), day(2025, 1, 1)).Days())
}

func TestDayTruncatesToMidnightUTC(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	noisy := time.Date(2024, 6, 15, 23, 45, 12, 999, loc)
	got := daterange.Day(noisy)
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, 0, got.Hour())
	assert.Equal(t, 0, got.Minute())
}

func TestSingleDaySpansExactlyOneDay(t *testing.T) {
	dr := daterange.SingleDay(day(2024, 6, 15))
	assert.Equal(t, day(2024, 6, 15), dr.Start)
	assert.Equal(t, day(2024, 6, 16), dr.End)
	assert.Equal(t, 1, dr.Days())
}
