package forecast

import (
	"time"

	"github.com/akazakov/cashflow-service/internal/models"
	"github.com/akazakov/cashflow-service/internal/recurrence"
)

// maxProjectionSteps caps how many occurrences a single template may
// contribute to one projection window.
const maxProjectionSteps = 1000

// ProjectObligations walks each template's future occurrences across
// [start, end] purely in memory and sums their expected amounts into flows.
// Nothing is persisted and no template state is mutated. occurrenceCounts
// holds the number of occurrences already generated per template, which
// seeds the occurrence index the amount models see.
func ProjectObligations(
	templates []*models.ObligationTemplate,
	occurrenceCounts map[int64]int,
	eval *recurrence.Evaluator,
	flows map[time.Time]float64,
	start, end time.Time,
) {
	windowStart := dateOnly(start)
	windowEnd := dateOnly(end)

	for _, tpl := range templates {
		if !tpl.Active || tpl.NextOccurrence == nil {
			continue
		}
		index := occurrenceCounts[tpl.ID]
		due := *tpl.NextOccurrence
		for steps := 0; steps < maxProjectionSteps; steps++ {
			day := dateOnly(due)
			if day.After(windowEnd) {
				break
			}
			if !day.Before(windowStart) {
				// A rejected formula evaluates to the base amount, which is
				// the right degraded value for a projection.
				amount, _ := eval.Evaluate(tpl, due, index)
				flows[day] += amount
			}
			index++
			next, err := recurrence.NextOccurrence(due, tpl.Frequency, tpl.Interval, tpl.EndDate)
			if err != nil || next == nil {
				break
			}
			due = *next
		}
	}
}
