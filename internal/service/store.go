package service

import (
	"time"

	"github.com/akazakov/cashflow-service/internal/models"
)

// Store is the persistence surface the service depends on. It is implemented
// by repository.Repository and by the in-memory fake used in tests.
type Store interface {
	CreateUser(user *models.User) error
	FindUserByEmail(email string) (*models.User, error)
	FindUserByID(id int64) (*models.User, error)

	CreateAccount(account *models.Account) error
	FindAccountByID(id int64) (*models.Account, error)
	UserBalance(userID int64, accountID *int64) (float64, error)

	CreateTemplate(tpl *models.ObligationTemplate) error
	GetTemplate(id int64) (*models.ObligationTemplate, error)
	ListTemplatesByUser(userID int64) ([]*models.ObligationTemplate, error)
	ListActiveTemplates(userID int64, accountID *int64) ([]*models.ObligationTemplate, error)
	ListDueTemplates(asOf time.Time, autoCreateOnly bool) ([]*models.ObligationTemplate, error)
	DeactivateTemplate(id int64) error
	DeleteTemplate(id int64) error

	CountOccurrences(templateID int64) (int, error)
	ListOccurrencesByTemplate(templateID int64) ([]*models.Occurrence, error)
	GetOccurrence(id int64) (*models.Occurrence, error)
	UpdateOccurrenceStatus(id int64, status models.OccurrenceStatus, actualAmount *float64, notes string) error

	// ApplyOccurrence persists one template's unit of work atomically and
	// fails without side effects when the template has already advanced
	// past oldNext.
	ApplyOccurrence(tpl *models.ObligationTemplate, occ *models.Occurrence, entry *models.LedgerEntry,
		oldNext time.Time, newNext *time.Time, deactivate bool) error

	ListDailyFlows(userID int64, accountID *int64, from, to time.Time) ([]models.DailyFlow, error)
}

// Notifier delivers obligation reminders. Delivery is fire-and-forget from
// the engine's viewpoint; failures are logged, never propagated.
type Notifier interface {
	SendObligationReminder(to, username, name string, date time.Time, amount float64, currency string) error
}

// RateSource converts an amount between currencies using reference rates.
type RateSource interface {
	Convert(amount float64, from, to string) (float64, error)
}
