package recurrence

import (
	"fmt"
	"time"

	"github.com/akazakov/cashflow-service/internal/models"
)

// NextOccurrence computes the due date that follows current for the given
// frequency and interval. It returns nil when the computed date falls past
// endDate, meaning the template has no further occurrence.
//
// Month-based frequencies preserve the day of month where it exists in the
// target month and clamp to the month's last day otherwise, so Jan 31 plus
// one month lands on Feb 28 (Feb 29 in a leap year), never on Mar 2.
func NextOccurrence(current time.Time, freq models.Frequency, interval int, endDate *time.Time) (*time.Time, error) {
	if interval < 1 {
		return nil, fmt.Errorf("interval must be at least 1, got %d", interval)
	}

	var next time.Time
	switch freq {
	case models.FrequencyDaily:
		next = current.AddDate(0, 0, interval)
	case models.FrequencyWeekly:
		next = current.AddDate(0, 0, 7*interval)
	case models.FrequencyBiweekly:
		next = current.AddDate(0, 0, 14*interval)
	case models.FrequencyMonthly:
		next = addMonthsClamped(current, interval)
	case models.FrequencyQuarterly:
		next = addMonthsClamped(current, 3*interval)
	case models.FrequencySemiannual:
		next = addMonthsClamped(current, 6*interval)
	case models.FrequencyYearly:
		// Years go through the month path so Feb 29 clamps to Feb 28.
		next = addMonthsClamped(current, 12*interval)
	case models.FrequencyCustom:
		// Custom carries no granularity of its own; documented policy is to
		// fall back to a monthly cadence.
		next = addMonthsClamped(current, interval)
	default:
		return nil, fmt.Errorf("unknown frequency %q", freq)
	}

	if endDate != nil && next.After(*endDate) {
		return nil, nil
	}
	return &next, nil
}

// addMonthsClamped shifts t by the given number of months without letting
// time.AddDate normalize an overflowing day into the following month.
func addMonthsClamped(t time.Time, months int) time.Time {
	day := t.Day()
	anchor := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	anchor = anchor.AddDate(0, months, 0)
	if last := daysInMonth(anchor.Year(), anchor.Month()); day > last {
		day = last
	}
	return time.Date(anchor.Year(), anchor.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// daysInMonth returns the number of days in the given month; day zero of the
// following month normalizes to its last day.
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
