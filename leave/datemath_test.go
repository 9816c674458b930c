package leave_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian/leave-engine/leave"
)

func TestInclusiveDays_SingleDay(t *testing.T) {
	// GIVEN: start == end
	// WHEN: Counting the range
	// THEN: One day, not zero

	d := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, leave.InclusiveDays(d, d))
}

func TestInclusiveDays_Range(t *testing.T) {
	// GIVEN: A Monday..Friday range
	// WHEN: Counting the range
	// THEN: Both endpoints count

	start := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.March, 13, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 5, leave.InclusiveDays(start, end))
}

func TestInclusiveDays_InvalidRanges(t *testing.T) {
	// GIVEN: Reversed or zero-valued dates
	// WHEN: Counting the range
	// THEN: Zero, the invalid-range signal

	start := time.Date(2026, time.March, 13, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, leave.InclusiveDays(start, end), "start after end")
	assert.Equal(t, 0, leave.InclusiveDays(time.Time{}, end), "zero start")
	assert.Equal(t, 0, leave.InclusiveDays(start, time.Time{}), "zero end")
}

func TestInclusiveDays_IgnoresTimeOfDay(t *testing.T) {
	// GIVEN: Timestamps with different times on adjacent days
	// WHEN: Counting the range
	// THEN: Calendar days decide, not elapsed hours

	start := time.Date(2026, time.March, 9, 23, 30, 0, 0, time.UTC)
	end := time.Date(2026, time.March, 10, 0, 15, 0, 0, time.UTC)
	assert.Equal(t, 2, leave.InclusiveDays(start, end))
}

func TestDaysInYear(t *testing.T) {
	assert.Equal(t, 365, leave.DaysInYear(2026))
	assert.Equal(t, 366, leave.DaysInYear(2028), "leap year")
}

func TestWeekdayIndex_MondayIsZero(t *testing.T) {
	// GIVEN: 2026-03-09 is a Monday
	// THEN: Index 0, and Sunday maps to 6

	monday := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)
	sunday := time.Date(2026, time.March, 8, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, leave.WeekdayIndex(monday))
	assert.Equal(t, 6, leave.WeekdayIndex(sunday))
}

func TestParseDate_Normalizes(t *testing.T) {
	d, err := leave.ParseDate("2026-07-14")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.July, 14, 0, 0, 0, 0, time.UTC), d)

	_, err = leave.ParseDate("14/07/2026")
	assert.Error(t, err)
}

func TestIsWeekend(t *testing.T) {
	saturday := time.Date(2026, time.March, 7, 0, 0, 0, 0, time.UTC)
	monday := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)
	assert.True(t, leave.IsWeekend(saturday))
	assert.False(t, leave.IsWeekend(monday))
}
