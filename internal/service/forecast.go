package service

import (
	"fmt"
	"time"

	"github.com/akazakov/cashflow-service/internal/forecast"
	"github.com/akazakov/cashflow-service/internal/models"
)

const maxHorizonDays = 365

// ForecastCashFlow produces a multi-scenario balance forecast for one user,
// optionally scoped to a single account. It merges the historical day-of-week
// baseline with in-memory projections of the user's recurring obligations and
// derives optimistic, likely and pessimistic trajectories with confidence
// bands, narrative insights and a reliability score. The computation is
// read-only: no template or occurrence state is touched.
func (s *Service) ForecastCashFlow(req models.ForecastRequest) (*models.ForecastResult, error) {
	if req.HorizonDays < 1 {
		return nil, fmt.Errorf("horizon must be at least 1 day")
	}
	if req.HorizonDays > maxHorizonDays {
		req.HorizonDays = maxHorizonDays
	}

	balance, err := s.store.UserBalance(req.UserID, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}

	now := time.Now().UTC()
	start := now.AddDate(0, 0, 1)
	end := now.AddDate(0, 0, req.HorizonDays)

	var history []models.DailyFlow
	if req.IncludePatterns {
		from := now.AddDate(0, 0, -s.config.LookbackDays)
		history, err = s.store.ListDailyFlows(req.UserID, req.AccountID, from, now)
		if err != nil {
			return nil, fmt.Errorf("failed to read historical flows: %w", err)
		}
	}
	flows := forecast.BaselineFlows(history, start, end)

	if req.IncludeRecurring {
		templates, err := s.store.ListActiveTemplates(req.UserID, req.AccountID)
		if err != nil {
			return nil, fmt.Errorf("failed to list templates: %w", err)
		}
		counts := make(map[int64]int, len(templates))
		for _, tpl := range templates {
			n, err := s.store.CountOccurrences(tpl.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to count occurrences: %w", err)
			}
			counts[tpl.ID] = n
		}
		forecast.ProjectObligations(templates, counts, s.eval, flows, start, end)
	}

	optimistic := forecast.GenerateScenario(flows, start, end, balance, forecast.VariationOptimistic, models.ScenarioOptimistic)
	likely := forecast.GenerateScenario(flows, start, end, balance, forecast.VariationLikely, models.ScenarioLikely)
	pessimistic := forecast.GenerateScenario(flows, start, end, balance, forecast.VariationPessimistic, models.ScenarioPessimistic)

	result := &models.ForecastResult{
		StartDate:      start,
		EndDate:        end,
		CurrentBalance: balance,
		Optimistic:     optimistic,
		Likely:         likely,
		Pessimistic:    pessimistic,
		Insights:       forecast.BuildInsights(balance, likely),
		Warnings:       forecast.BuildWarnings(balance, pessimistic),
		Reliability:    forecast.ReliabilityScore(forecast.DailyTotals(history), req.HorizonDays),
	}

	s.log.Infof("Forecast for user %d: horizon=%dd reliability=%.2f insights=%d warnings=%d",
		req.UserID, req.HorizonDays, result.Reliability, len(result.Insights), len(result.Warnings))
	return result, nil
}
