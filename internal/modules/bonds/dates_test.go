package bonds

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddMonths_Clamping(t *testing.T) {
	tests := []struct {
		name     string
		start    time.Time
		months   int
		expected time.Time
	}{
		{"simple forward", date(2020, time.January, 15), 1, date(2020, time.February, 15)},
		{"clamp to leap February", date(2020, time.January, 31), 1, date(2020, time.February, 29)},
		{"clamp to non-leap February", date(2021, time.January, 31), 1, date(2021, time.February, 28)},
		{"clamp to 30-day month", date(2024, time.May, 31), 6, date(2024, time.November, 30)},
		{"year rollover", date(2020, time.November, 15), 3, date(2021, time.February, 15)},
		{"multiple years", date(2020, time.June, 1), 24, date(2022, time.June, 1)},
		{"backward", date(2020, time.June, 1), -6, date(2019, time.December, 1)},
		{"backward with clamp", date(2020, time.March, 31), -1, date(2020, time.February, 29)},
		{"backward across years", date(2020, time.February, 10), -14, date(2018, time.December, 10)},
		{"zero months", date(2020, time.May, 12), 0, date(2020, time.May, 12)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AddMonths(tt.start, tt.months))
		})
	}
}

func TestAddMonths_ClampDoesNotStick(t *testing.T) {
	// Stepping from an already-clamped date keeps the clamped day; the
	// original day-of-month is not remembered. This is exactly datedelta
	// behavior and why schedule walks anchor offsets at maturity.
	stepped := AddMonths(AddMonths(date(2025, time.May, 31), -6), 6)
	assert.Equal(t, date(2025, time.May, 30), stepped)
}

func TestDaysBetween(t *testing.T) {
	// Leap year: Dec 1 2019 to Jun 1 2020 spans Feb 29.
	assert.Equal(t, 183, DaysBetween(date(2019, time.December, 1), date(2020, time.June, 1)))
	assert.Equal(t, 20, DaysBetween(date(2020, time.May, 12), date(2020, time.June, 1)))
	assert.Equal(t, 0, DaysBetween(date(2020, time.May, 12), date(2020, time.May, 12)))
	assert.Equal(t, -20, DaysBetween(date(2020, time.June, 1), date(2020, time.May, 12)))
}

func TestDaysBetween_IgnoresTimeOfDay(t *testing.T) {
	a := time.Date(2020, time.May, 12, 23, 59, 0, 0, time.UTC)
	b := time.Date(2020, time.May, 13, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 1, DaysBetween(a, b))
}
