package recurrence

import (
	"fmt"
	"math"
	"time"

	"github.com/akazakov/cashflow-service/internal/models"
)

// DefaultGrowthRate is the per-occurrence growth applied by the progressive
// amount model when no rate is configured.
const DefaultGrowthRate = 0.02

// winterHeavyFactors is the default seasonal table: heating-season months run
// above the base amount, summer months below it.
var winterHeavyFactors = map[time.Month]float64{
	time.January:   1.15,
	time.February:  1.12,
	time.March:     1.05,
	time.April:     1.00,
	time.May:       0.95,
	time.June:      0.90,
	time.July:      0.88,
	time.August:    0.90,
	time.September: 0.98,
	time.October:   1.03,
	time.November:  1.08,
	time.December:  1.18,
}

// Evaluator computes the expected amount for a single occurrence of a
// template. It holds its strategy configuration explicitly so there is no
// process-wide mutable registry; construct one at startup and share it.
type Evaluator struct {
	growthRate float64
	seasonal   map[time.Month]float64
}

// NewEvaluator builds an Evaluator with the given progressive growth rate
// (DefaultGrowthRate when zero or negative) and the winter-heavy seasonal
// table.
func NewEvaluator(growthRate float64) *Evaluator {
	if growthRate <= 0 {
		growthRate = DefaultGrowthRate
	}
	seasonal := make(map[time.Month]float64, len(winterHeavyFactors))
	for m, f := range winterHeavyFactors {
		seasonal[m] = f
	}
	return &Evaluator{growthRate: growthRate, seasonal: seasonal}
}

// Evaluate returns the expected amount for the occurrence of tpl falling on
// date, where index is the count of occurrences already generated for the
// template. The base amount's sign is preserved by every model.
//
// A formula that fails the allow-list check yields the base amount together
// with the evaluation error, so callers can fall back or report it without
// any panic path.
func (e *Evaluator) Evaluate(tpl *models.ObligationTemplate, date time.Time, index int) (float64, error) {
	switch tpl.AmountModel {
	case models.AmountModelFixed:
		return tpl.BaseAmount, nil

	case models.AmountModelVariable:
		// Expected value is the midpoint of the range; the realized value may
		// later be overridden on the occurrence.
		if tpl.MinAmount == nil || tpl.MaxAmount == nil {
			return tpl.BaseAmount, nil
		}
		return (*tpl.MinAmount + *tpl.MaxAmount) / 2, nil

	case models.AmountModelProgressive:
		return tpl.BaseAmount * math.Pow(1+e.growthRate, float64(index)), nil

	case models.AmountModelSeasonal:
		factor, ok := e.seasonal[date.Month()]
		if !ok {
			factor = 1.0
		}
		return tpl.BaseAmount * factor, nil

	case models.AmountModelFormula:
		value, err := EvalFormula(tpl.Formula, tpl.BaseAmount, date)
		if err != nil {
			return tpl.BaseAmount, err
		}
		return value, nil

	default:
		return tpl.BaseAmount, fmt.Errorf("unknown amount model %q", tpl.AmountModel)
	}
}
