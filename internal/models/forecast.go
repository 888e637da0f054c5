package models

import "time"

// ScenarioTag labels one of the three forecast trajectories.
type ScenarioTag string

const (
	ScenarioOptimistic  ScenarioTag = "optimistic"
	ScenarioLikely      ScenarioTag = "likely"
	ScenarioPessimistic ScenarioTag = "pessimistic"
)

// ForecastRequest describes one forecast computation.
type ForecastRequest struct {
	UserID           int64  `json:"user_id"`
	AccountID        *int64 `json:"account_id,omitempty"`
	HorizonDays      int    `json:"horizon_days"`
	IncludeRecurring bool   `json:"include_recurring"`
	IncludePatterns  bool   `json:"include_patterns"`
}

// ScenarioPoint is one day of a projected balance trajectory.
type ScenarioPoint struct {
	Date     time.Time   `json:"date"`
	Balance  float64     `json:"balance"`
	Lower    float64     `json:"lower_bound"`
	Upper    float64     `json:"upper_bound"`
	Scenario ScenarioTag `json:"scenario"`
}

// ForecastResult is the value object returned by ForecastCashFlow.
// It is built per call and never persisted.
type ForecastResult struct {
	StartDate      time.Time       `json:"start_date"`
	EndDate        time.Time       `json:"end_date"`
	CurrentBalance float64         `json:"current_balance"`
	Optimistic     []ScenarioPoint `json:"optimistic"`
	Likely         []ScenarioPoint `json:"likely"`
	Pessimistic    []ScenarioPoint `json:"pessimistic"`
	Insights       []string        `json:"insights"`
	Warnings       []string        `json:"warnings"`
	Reliability    float64         `json:"reliability"`
}

// DailyFlow is one day's summed signed cash flow.
type DailyFlow struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// BatchError records one template's failure inside a batch run.
type BatchError struct {
	TemplateID int64  `json:"template_id"`
	Message    string `json:"message"`
}

// BatchResult summarizes one ProcessDueObligations run.
type BatchResult struct {
	RunID       string       `json:"run_id"`
	AsOf        time.Time    `json:"as_of"`
	Processed   int          `json:"processed"`
	AutoCreated int          `json:"auto_created"`
	Notified    int          `json:"notified"`
	Errors      []BatchError `json:"errors"`
}
