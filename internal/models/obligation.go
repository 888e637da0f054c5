package models

import "time"

// Frequency is the closed set of recurrence cadences.
type Frequency string

const (
	FrequencyDaily      Frequency = "daily"
	FrequencyWeekly     Frequency = "weekly"
	FrequencyBiweekly   Frequency = "biweekly"
	FrequencyMonthly    Frequency = "monthly"
	FrequencyQuarterly  Frequency = "quarterly"
	FrequencySemiannual Frequency = "semiannual"
	FrequencyYearly     Frequency = "yearly"
	FrequencyCustom     Frequency = "custom"
)

// Frequencies lists every valid Frequency value.
var Frequencies = []Frequency{
	FrequencyDaily,
	FrequencyWeekly,
	FrequencyBiweekly,
	FrequencyMonthly,
	FrequencyQuarterly,
	FrequencySemiannual,
	FrequencyYearly,
	FrequencyCustom,
}

// AmountModel selects the strategy used to compute an occurrence's amount.
type AmountModel string

const (
	AmountModelFixed       AmountModel = "fixed"
	AmountModelVariable    AmountModel = "variable"
	AmountModelProgressive AmountModel = "progressive"
	AmountModelSeasonal    AmountModel = "seasonal"
	AmountModelFormula     AmountModel = "formula"
)

// TransactionKind marks a template as money in or money out.
type TransactionKind string

const (
	KindIncome  TransactionKind = "income"
	KindExpense TransactionKind = "expense"
)

// ObligationTemplate defines a recurring transaction: what it costs, how often
// it recurs and whether the engine books it automatically or only reminds.
// Amounts are signed: expense templates carry negative amounts.
type ObligationTemplate struct {
	ID             int64           `json:"id"`
	UserID         int64           `json:"user_id"`
	AccountID      int64           `json:"account_id"`
	CategoryID     *int64          `json:"category_id,omitempty"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Kind           TransactionKind `json:"kind"`
	AmountModel    AmountModel     `json:"amount_model"`
	BaseAmount     float64         `json:"base_amount"`
	MinAmount      *float64        `json:"min_amount,omitempty"`
	MaxAmount      *float64        `json:"max_amount,omitempty"`
	Formula        string          `json:"formula,omitempty"`
	Currency       string          `json:"currency"`
	Frequency      Frequency       `json:"frequency"`
	Interval       int             `json:"interval"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        *time.Time      `json:"end_date,omitempty"`
	NextOccurrence *time.Time      `json:"next_occurrence,omitempty"`
	AutoCreate     bool            `json:"auto_create"`
	NotifyLeadDays int             `json:"notify_lead_days"`
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
