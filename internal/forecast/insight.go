package forecast

import (
	"fmt"
	"math"

	"github.com/akazakov/cashflow-service/internal/models"
)

// BuildInsights derives narrative insights from the likely scenario.
func BuildInsights(currentBalance float64, likely []models.ScenarioPoint) []string {
	var insights []string
	if len(likely) == 0 {
		return insights
	}

	final := likely[len(likely)-1].Balance
	change := final - currentBalance
	switch {
	case change > math.Abs(currentBalance)*0.05:
		insights = append(insights, fmt.Sprintf(
			"Your balance is projected to grow by %.2f over the forecast period.", change))
	case change < -math.Abs(currentBalance)*0.05:
		insights = append(insights, fmt.Sprintf(
			"Your balance is projected to decrease by %.2f over the forecast period.", -change))
	default:
		insights = append(insights, "Your balance is projected to stay roughly stable over the forecast period.")
	}

	minBalance := likely[0].Balance
	minDate := likely[0].Date
	for _, p := range likely[1:] {
		if p.Balance < minBalance {
			minBalance = p.Balance
			minDate = p.Date
		}
	}
	if currentBalance > 0 && minBalance < currentBalance*0.2 {
		insights = append(insights, fmt.Sprintf(
			"Projected balance dips to %.2f around %s, below 20%% of your current balance.",
			minBalance, minDate.Format("2006-01-02")))
	}

	return insights
}

// BuildWarnings derives warnings from the pessimistic scenario: the first
// day the balance turns negative and the first day it drops more than half
// from the current balance.
func BuildWarnings(currentBalance float64, pessimistic []models.ScenarioPoint) []string {
	var warnings []string

	for _, p := range pessimistic {
		if p.Balance < 0 {
			warnings = append(warnings, fmt.Sprintf(
				"In the pessimistic scenario your balance turns negative on %s.",
				p.Date.Format("2006-01-02")))
			break
		}
	}

	if currentBalance > 0 {
		for _, p := range pessimistic {
			if p.Balance < currentBalance*0.5 {
				warnings = append(warnings, fmt.Sprintf(
					"In the pessimistic scenario your balance falls below half of today's balance on %s.",
					p.Date.Format("2006-01-02")))
				break
			}
		}
	}

	return warnings
}

// ReliabilityScore is a heuristic confidence measure in [0.1, 1.0] combining
// history coverage, day-to-day consistency and a horizon penalty. With no
// history at all the score is the 0.1 floor outright.
func ReliabilityScore(dailyFlows []float64, forecastDays int) float64 {
	if len(dailyFlows) == 0 {
		return 0.1
	}

	coverage := math.Min(float64(len(dailyFlows))/float64(DefaultLookbackDays), 1)

	consistency := 0.1
	if len(dailyFlows) >= 7 {
		mean, stddev := meanStddev(dailyFlows)
		if mean == 0 {
			consistency = 0
		} else {
			cv := stddev / math.Abs(mean)
			consistency = math.Max(0, 1-cv)
		}
	}

	horizon := math.Max(0, 1-float64(forecastDays)/365)

	score := coverage*0.4 + consistency*0.3 + horizon*0.3
	if score < 0.1 {
		score = 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func meanStddev(values []float64) (float64, float64) {
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}
