// Package forecast builds multi-scenario cash-flow projections from
// historical spending patterns and projected recurring obligations.
package forecast

import (
	"time"

	"github.com/akazakov/cashflow-service/internal/models"
)

// DefaultLookbackDays is the history window the baseline is derived from.
const DefaultLookbackDays = 180

// BaselineFlows estimates an expected net flow for every date in
// [start, end] from historical daily flows. Each forecast date uses the
// mean for its day of week when history has one, else the overall daily
// mean. With no history at all every day's baseline is zero.
//
// This is deliberately a day-of-week model only; no trend or seasonality
// decomposition is attempted.
func BaselineFlows(history []models.DailyFlow, start, end time.Time) map[time.Time]float64 {
	daily := make(map[time.Time]float64)
	for _, f := range history {
		daily[dateOnly(f.Date)] += f.Amount
	}

	weekdaySums := make(map[time.Weekday]float64)
	weekdayCounts := make(map[time.Weekday]int)
	var total float64
	for d, amount := range daily {
		weekdaySums[d.Weekday()] += amount
		weekdayCounts[d.Weekday()]++
		total += amount
	}
	var overallMean float64
	if len(daily) > 0 {
		overallMean = total / float64(len(daily))
	}

	flows := make(map[time.Time]float64)
	for d := dateOnly(start); !d.After(dateOnly(end)); d = d.AddDate(0, 0, 1) {
		if n := weekdayCounts[d.Weekday()]; n > 0 {
			flows[d] = weekdaySums[d.Weekday()] / float64(n)
		} else {
			flows[d] = overallMean
		}
	}
	return flows
}

// DailyTotals collapses historical flows into one summed value per calendar
// day, the series the reliability score is computed over.
func DailyTotals(history []models.DailyFlow) []float64 {
	daily := make(map[time.Time]float64)
	for _, f := range history {
		daily[dateOnly(f.Date)] += f.Amount
	}
	totals := make([]float64, 0, len(daily))
	for _, amount := range daily {
		totals = append(totals, amount)
	}
	return totals
}

// dateOnly truncates t to its calendar date in UTC, the key granularity for
// every flow map in this package.
func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
