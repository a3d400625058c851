// Package bonds implements fixed-coupon bond analytics: coupon schedule
// derivation, clean/dirty price valuation with day-count accrual, and
// yield-to-maturity solving. All functions are pure and operate on civil
// dates normalized to midnight UTC; concurrent callers need no locking.
package bonds

import "time"

// dateLayout is the wire and log format for civil dates.
const dateLayout = "2006-01-02"

// AddMonths adds a whole number of months (negative allowed) to a civil
// date, clamping the day-of-month to the last day of the target month
// (Jan 31 + 1 month = Feb 28/29). Coupon schedules require this clamping
// behavior; time.AddDate instead normalizes overflow into the following
// month.
func AddMonths(d time.Time, months int) time.Time {
	total := d.Year()*12 + int(d.Month()) - 1 + months
	year := total / 12
	month := time.Month(total%12 + 1)

	day := d.Day()
	if last := daysInMonth(year, month); day > last {
		day = last
	}

	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from start to end (ACT
// day counting via calendar subtraction). Negative when end precedes start.
func DaysBetween(start, end time.Time) int {
	return int(dateOnly(end).Sub(dateOnly(start)).Hours() / 24)
}

// daysInMonth returns the number of days in the given month.
func daysInMonth(year int, month time.Month) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// dateOnly truncates a timestamp to midnight UTC.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
