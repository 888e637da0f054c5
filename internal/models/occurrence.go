package models

import "time"

// OccurrenceStatus is the lifecycle state of a generated occurrence.
type OccurrenceStatus string

const (
	OccurrencePending    OccurrenceStatus = "pending"
	OccurrenceExecuted   OccurrenceStatus = "executed"
	OccurrenceSkipped    OccurrenceStatus = "skipped"
	OccurrenceOverridden OccurrenceStatus = "overridden"
)

// Occurrence is one concrete, dated instance generated from a template.
// LedgerEntryID references the auto-created entry and is set only when the
// occurrence is executed; the entry itself is owned by the ledger.
type Occurrence struct {
	ID             int64            `json:"id"`
	TemplateID     int64            `json:"template_id"`
	LedgerEntryID  *int64           `json:"ledger_entry_id,omitempty"`
	ScheduledDate  time.Time        `json:"scheduled_date"`
	ExpectedAmount float64          `json:"expected_amount"`
	ActualAmount   *float64         `json:"actual_amount,omitempty"`
	Status         OccurrenceStatus `json:"status"`
	Notes          string           `json:"notes,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}
