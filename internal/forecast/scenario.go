package forecast

import (
	"math"
	"time"

	"github.com/akazakov/cashflow-service/internal/models"
)

// Scenario variations applied to every daily flow.
const (
	VariationOptimistic  = 0.15
	VariationLikely      = 0.0
	VariationPessimistic = -0.15
)

// GenerateScenario turns a date-indexed flow map into an ordered balance
// trajectory. Each day's flow is scaled by (1+variation) and accumulated
// into the running balance; the confidence band around each point widens
// with both the flow's magnitude and how far ahead the day lies.
func GenerateScenario(
	flows map[time.Time]float64,
	start, end time.Time,
	startingBalance, variation float64,
	tag models.ScenarioTag,
) []models.ScenarioPoint {
	balance := startingBalance
	var points []models.ScenarioPoint

	daysAhead := 0
	for d := dateOnly(start); !d.After(dateOnly(end)); d = d.AddDate(0, 0, 1) {
		daysAhead++
		flow := flows[d] * (1 + variation)
		balance += flow
		width := math.Abs(flow) * 0.1 * (1 + float64(daysAhead)/100)
		points = append(points, models.ScenarioPoint{
			Date:     d,
			Balance:  balance,
			Lower:    balance - width,
			Upper:    balance + width,
			Scenario: tag,
		})
	}
	return points
}
