package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/akazakov/cashflow-service/internal/models"
)

// memStore implements Store with in-memory maps for tests.
type memStore struct {
	mu          sync.Mutex
	users       map[int64]*models.User
	accounts    map[int64]*models.Account
	templates   map[int64]*models.ObligationTemplate
	occurrences map[int64]*models.Occurrence
	entries     map[int64]*models.LedgerEntry
	flows       []models.DailyFlow
	nextID      int64

	applyErr error // injected ApplyOccurrence failure
}

func newMemStore() *memStore {
	return &memStore{
		users:       make(map[int64]*models.User),
		accounts:    make(map[int64]*models.Account),
		templates:   make(map[int64]*models.ObligationTemplate),
		occurrences: make(map[int64]*models.Occurrence),
		entries:     make(map[int64]*models.LedgerEntry),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func cloneTemplate(tpl *models.ObligationTemplate) *models.ObligationTemplate {
	c := *tpl
	if tpl.NextOccurrence != nil {
		next := *tpl.NextOccurrence
		c.NextOccurrence = &next
	}
	if tpl.EndDate != nil {
		end := *tpl.EndDate
		c.EndDate = &end
	}
	return &c
}

func cloneOccurrence(occ *models.Occurrence) *models.Occurrence {
	c := *occ
	return &c
}

func (m *memStore) CreateUser(user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return fmt.Errorf("email already registered")
		}
	}
	user.ID = m.id()
	user.CreatedAt = time.Now().Format(time.RFC3339)
	user.UpdatedAt = user.CreatedAt
	c := *user
	m.users[user.ID] = &c
	return nil
}

func (m *memStore) FindUserByEmail(email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, fmt.Errorf("user not found")
}

func (m *memStore) FindUserByID(id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user not found")
	}
	c := *u
	return &c, nil
}

func (m *memStore) CreateAccount(account *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	account.ID = m.id()
	c := *account
	m.accounts[account.ID] = &c
	return nil
}

func (m *memStore) FindAccountByID(id int64) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account not found")
	}
	c := *a
	return &c, nil
}

func (m *memStore) UserBalance(userID int64, accountID *int64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var balance float64
	for _, a := range m.accounts {
		if a.UserID != userID {
			continue
		}
		if accountID != nil && a.ID != *accountID {
			continue
		}
		balance += a.Balance
	}
	return balance, nil
}

func (m *memStore) CreateTemplate(tpl *models.ObligationTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tpl.ID = m.id()
	m.templates[tpl.ID] = cloneTemplate(tpl)
	return nil
}

func (m *memStore) GetTemplate(id int64) (*models.ObligationTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tpl, ok := m.templates[id]
	if !ok {
		return nil, fmt.Errorf("template not found")
	}
	return cloneTemplate(tpl), nil
}

func (m *memStore) ListTemplatesByUser(userID int64) ([]*models.ObligationTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ObligationTemplate
	for _, tpl := range m.templates {
		if tpl.UserID == userID {
			out = append(out, cloneTemplate(tpl))
		}
	}
	return out, nil
}

func (m *memStore) ListActiveTemplates(userID int64, accountID *int64) ([]*models.ObligationTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ObligationTemplate
	for _, tpl := range m.templates {
		if tpl.UserID != userID || !tpl.Active {
			continue
		}
		if accountID != nil && tpl.AccountID != *accountID {
			continue
		}
		out = append(out, cloneTemplate(tpl))
	}
	return out, nil
}

func (m *memStore) ListDueTemplates(asOf time.Time, autoCreateOnly bool) ([]*models.ObligationTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ObligationTemplate
	for id := int64(1); id <= m.nextID; id++ {
		tpl, ok := m.templates[id]
		if !ok || !tpl.Active || tpl.NextOccurrence == nil {
			continue
		}
		if tpl.NextOccurrence.After(asOf) {
			continue
		}
		if autoCreateOnly && !tpl.AutoCreate {
			continue
		}
		out = append(out, cloneTemplate(tpl))
	}
	return out, nil
}

func (m *memStore) DeactivateTemplate(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tpl, ok := m.templates[id]
	if !ok {
		return fmt.Errorf("template not found")
	}
	tpl.Active = false
	return nil
}

func (m *memStore) DeleteTemplate(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.templates[id]; !ok {
		return fmt.Errorf("template not found")
	}
	delete(m.templates, id)
	for occID, occ := range m.occurrences {
		if occ.TemplateID == id {
			delete(m.occurrences, occID)
		}
	}
	return nil
}

func (m *memStore) CountOccurrences(templateID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, occ := range m.occurrences {
		if occ.TemplateID == templateID {
			count++
		}
	}
	return count, nil
}

func (m *memStore) ListOccurrencesByTemplate(templateID int64) ([]*models.Occurrence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Occurrence
	for _, occ := range m.occurrences {
		if occ.TemplateID == templateID {
			out = append(out, cloneOccurrence(occ))
		}
	}
	return out, nil
}

func (m *memStore) GetOccurrence(id int64) (*models.Occurrence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	occ, ok := m.occurrences[id]
	if !ok {
		return nil, fmt.Errorf("occurrence not found")
	}
	return cloneOccurrence(occ), nil
}

func (m *memStore) UpdateOccurrenceStatus(id int64, status models.OccurrenceStatus, actualAmount *float64, notes string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	occ, ok := m.occurrences[id]
	if !ok {
		return fmt.Errorf("occurrence not found")
	}
	if occ.Status != models.OccurrencePending {
		return fmt.Errorf("occurrence is not pending")
	}
	occ.Status = status
	occ.ActualAmount = actualAmount
	occ.Notes = notes
	return nil
}

func (m *memStore) ApplyOccurrence(
	tpl *models.ObligationTemplate,
	occ *models.Occurrence,
	entry *models.LedgerEntry,
	oldNext time.Time,
	newNext *time.Time,
	deactivate bool,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.applyErr != nil {
		return m.applyErr
	}

	stored, ok := m.templates[tpl.ID]
	if !ok {
		return fmt.Errorf("template not found")
	}
	if stored.NextOccurrence == nil || !stored.NextOccurrence.Equal(oldNext) {
		return fmt.Errorf("template %d already advanced past %s", tpl.ID, oldNext.Format("2006-01-02"))
	}

	if entry != nil {
		entry.ID = m.id()
		c := *entry
		m.entries[entry.ID] = &c
		occ.LedgerEntryID = &entry.ID
		if account, ok := m.accounts[entry.AccountID]; ok {
			account.Balance += entry.Amount
		}
	}

	occ.ID = m.id()
	m.occurrences[occ.ID] = cloneOccurrence(occ)

	if newNext != nil {
		next := *newNext
		stored.NextOccurrence = &next
	} else {
		stored.NextOccurrence = nil
	}
	if deactivate {
		stored.Active = false
	}
	return nil
}

func (m *memStore) ListDailyFlows(userID int64, accountID *int64, from, to time.Time) ([]models.DailyFlow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.DailyFlow
	for _, f := range m.flows {
		if f.Date.Before(from) || f.Date.After(to) {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

// fakeNotifier records reminder payloads.
type fakeNotifier struct {
	mu        sync.Mutex
	reminders []reminder
	err       error
}

type reminder struct {
	to       string
	name     string
	date     time.Time
	amount   float64
	currency string
}

func (n *fakeNotifier) SendObligationReminder(to, username, name string, date time.Time, amount float64, currency string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.reminders = append(n.reminders, reminder{to: to, name: name, date: date, amount: amount, currency: currency})
	return nil
}

// fakeRates converts with a flat rate table keyed by "FROM/TO".
type fakeRates struct {
	rates map[string]float64
}

func (r *fakeRates) Convert(amount float64, from, to string) (float64, error) {
	if from == to {
		return amount, nil
	}
	rate, ok := r.rates[from+"/"+to]
	if !ok {
		return 0, fmt.Errorf("no rate for %s/%s", from, to)
	}
	return amount * rate, nil
}
