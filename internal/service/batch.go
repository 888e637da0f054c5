package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/akazakov/cashflow-service/internal/models"
	"github.com/akazakov/cashflow-service/internal/recurrence"
)

// ProcessDueObligations selects every active template due at or before asOf
// (optionally only auto-create ones) and processes each inside a per-template
// error boundary: one template's failure is recorded against its id and the
// batch moves on. Cancellation is honored between template iterations; each
// template's unit of work is atomic, so a cancelled batch never leaves a
// template half-updated.
func (s *Service) ProcessDueObligations(ctx context.Context, asOf time.Time, autoCreateOnly bool) (*models.BatchResult, error) {
	result := &models.BatchResult{
		RunID:  uuid.New().String(),
		AsOf:   asOf,
		Errors: []models.BatchError{},
	}

	due, err := s.store.ListDueTemplates(asOf, autoCreateOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to select due templates: %w", err)
	}
	s.log.Infof("Batch %s: %d templates due as of %s", result.RunID, len(due), asOf.Format("2006-01-02"))

	for _, tpl := range due {
		if err := ctx.Err(); err != nil {
			s.log.Warnf("Batch %s cancelled after %d templates", result.RunID, result.Processed)
			return result, err
		}

		autoCreated, err := s.processTemplate(tpl)
		if err != nil {
			s.log.Errorf("Batch %s: template %d failed: %v", result.RunID, tpl.ID, err)
			result.Errors = append(result.Errors, models.BatchError{TemplateID: tpl.ID, Message: err.Error()})
			continue
		}
		result.Processed++
		if autoCreated {
			result.AutoCreated++
		} else {
			result.Notified++
		}
	}

	s.log.Infof("Batch %s completed: processed=%d autoCreated=%d notified=%d errors=%d",
		result.RunID, result.Processed, result.AutoCreated, result.Notified, len(result.Errors))
	return result, nil
}

// processTemplate handles one due template: it computes the expected amount
// for the current occurrence, books a ledger entry (auto-create) or queues a
// reminder (notify-only), and advances the template's next-occurrence date.
// Returns whether an entry was auto-created.
//
// A calculation failure leaves the due date untouched, so the template stays
// due and is retried on the next run.
func (s *Service) processTemplate(tpl *models.ObligationTemplate) (bool, error) {
	if err := validateTemplate(tpl); err != nil {
		return false, err
	}
	if tpl.NextOccurrence == nil {
		return false, &models.ValidationError{TemplateID: tpl.ID, Reason: "no next occurrence set"}
	}
	due := *tpl.NextOccurrence

	index, err := s.store.CountOccurrences(tpl.ID)
	if err != nil {
		return false, &models.PersistenceError{TemplateID: tpl.ID, Err: err}
	}

	amount, err := s.eval.Evaluate(tpl, due, index)
	if err != nil {
		return false, &models.CalculationError{TemplateID: tpl.ID, Reason: err.Error()}
	}

	newNext, err := recurrence.NextOccurrence(due, tpl.Frequency, tpl.Interval, tpl.EndDate)
	if err != nil {
		return false, &models.ValidationError{TemplateID: tpl.ID, Reason: err.Error()}
	}
	// An exhausted template is explicitly deactivated so it never re-enters
	// the due-date filter and the deactivation is auditable.
	deactivate := newNext == nil

	occ := &models.Occurrence{
		TemplateID:     tpl.ID,
		ScheduledDate:  due,
		ExpectedAmount: amount,
		Status:         models.OccurrencePending,
	}

	var entry *models.LedgerEntry
	if tpl.AutoCreate {
		entry, err = s.buildLedgerEntry(tpl, due, amount)
		if err != nil {
			return false, err
		}
		occ.Status = models.OccurrenceExecuted
	}

	if err := s.store.ApplyOccurrence(tpl, occ, entry, due, newNext, deactivate); err != nil {
		return false, &models.PersistenceError{TemplateID: tpl.ID, Err: err}
	}
	tpl.NextOccurrence = newNext
	if deactivate {
		tpl.Active = false
		s.log.Infof("Template %d exhausted its end date and was deactivated", tpl.ID)
	}

	if !tpl.AutoCreate {
		s.sendReminder(tpl, due, amount)
	}
	return tpl.AutoCreate, nil
}

// buildLedgerEntry synthesizes the auto-created entry draft for one
// occurrence, converting into the account currency when the template is
// denominated differently. Conversion is best-effort: on a rate failure the
// entry keeps the template currency.
func (s *Service) buildLedgerEntry(tpl *models.ObligationTemplate, due time.Time, amount float64) (*models.LedgerEntry, error) {
	account, err := s.store.FindAccountByID(tpl.AccountID)
	if err != nil {
		return nil, &models.PersistenceError{TemplateID: tpl.ID, Err: err}
	}

	currency := tpl.Currency
	if s.rates != nil && account.Currency != "" && currency != account.Currency {
		converted, err := s.rates.Convert(amount, currency, account.Currency)
		if err != nil {
			s.log.Warnf("Template %d: keeping %s amount, conversion to %s failed: %v",
				tpl.ID, currency, account.Currency, err)
		} else {
			amount = converted
			currency = account.Currency
		}
	}

	templateID := tpl.ID
	return &models.LedgerEntry{
		AccountID:   tpl.AccountID,
		TemplateID:  &templateID,
		CategoryID:  tpl.CategoryID,
		Date:        due,
		Amount:      amount,
		Currency:    currency,
		Kind:        tpl.Kind,
		Description: tpl.Name,
		Source:      "recurring",
	}, nil
}

// sendReminder emits the notify-only payload. Failures are logged and
// swallowed: reminders are fire-and-forget.
func (s *Service) sendReminder(tpl *models.ObligationTemplate, due time.Time, amount float64) {
	if s.notifier == nil {
		return
	}
	user, err := s.store.FindUserByID(tpl.UserID)
	if err != nil {
		s.log.Errorf("Template %d: reminder recipient lookup failed: %v", tpl.ID, err)
		return
	}
	if err := s.notifier.SendObligationReminder(user.Email, user.Username, tpl.Name, due, amount, tpl.Currency); err != nil {
		s.log.Errorf("Template %d: reminder delivery failed: %v", tpl.ID, err)
	}
}
