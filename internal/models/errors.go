package models

import "fmt"

// ValidationError reports a template whose fields violate its amount model
// or schedule invariants. It never aborts a batch.
type ValidationError struct {
	TemplateID int64
	Reason     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("template %d invalid: %s", e.TemplateID, e.Reason)
}

// CalculationError reports a failed amount computation, typically a formula
// that does not pass the allow-list check. The template's due date is not
// advanced so it is retried on the next run.
type CalculationError struct {
	TemplateID int64
	Reason     string
}

func (e *CalculationError) Error() string {
	return fmt.Sprintf("template %d calculation failed: %s", e.TemplateID, e.Reason)
}

// PersistenceError wraps a store failure for one template's unit of work.
type PersistenceError struct {
	TemplateID int64
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("template %d persistence failed: %v", e.TemplateID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
