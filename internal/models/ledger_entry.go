package models

import "time"

// LedgerEntry is a booked transaction on an account. Entries created by the
// recurring engine carry Source = "recurring" and reference their template.
type LedgerEntry struct {
	ID          int64           `json:"id"`
	AccountID   int64           `json:"account_id"`
	TemplateID  *int64          `json:"template_id,omitempty"`
	CategoryID  *int64          `json:"category_id,omitempty"`
	Date        time.Time       `json:"date"`
	Amount      float64         `json:"amount"`
	Currency    string          `json:"currency"`
	Kind        TransactionKind `json:"kind"`
	Description string          `json:"description"`
	Source      string          `json:"source"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
