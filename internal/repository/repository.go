package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/akazakov/cashflow-service/internal/models"
)

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(user *models.User) error {
	query := `
		INSERT INTO cashflow.users (username, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(query, user.Username, user.Email, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByEmail retrieves a user by email
func (r *Repository) FindUserByEmail(email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, email, password_hash, created_at, updated_at
		FROM cashflow.users
		WHERE email = $1`
	err := r.db.QueryRow(query, email).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// FindUserByID retrieves a user by id
func (r *Repository) FindUserByID(id int64) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, email, password_hash, created_at, updated_at
		FROM cashflow.users
		WHERE id = $1`
	err := r.db.QueryRow(query, id).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// CreateAccount creates a new account in the database
func (r *Repository) CreateAccount(account *models.Account) error {
	query := `
		INSERT INTO cashflow.accounts (user_id, name, balance, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(query, account.UserID, account.Name, account.Balance, account.Currency).
		Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// FindAccountByID retrieves an account by id
func (r *Repository) FindAccountByID(id int64) (*models.Account, error) {
	account := &models.Account{}
	query := `
		SELECT id, user_id, name, balance, currency, created_at, updated_at
		FROM cashflow.accounts
		WHERE id = $1`
	err := r.db.QueryRow(query, id).
		Scan(&account.ID, &account.UserID, &account.Name, &account.Balance, &account.Currency,
			&account.CreatedAt, &account.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("account not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	return account, nil
}

// UserBalance returns the summed balance across a user's accounts, or a
// single account's balance when accountID is set.
func (r *Repository) UserBalance(userID int64, accountID *int64) (float64, error) {
	var balance float64
	if accountID != nil {
		query := `SELECT balance FROM cashflow.accounts WHERE id = $1 AND user_id = $2`
		if err := r.db.QueryRow(query, *accountID, userID).Scan(&balance); err != nil {
			return 0, fmt.Errorf("failed to read account balance: %w", err)
		}
		return balance, nil
	}
	query := `SELECT COALESCE(SUM(balance), 0) FROM cashflow.accounts WHERE user_id = $1`
	if err := r.db.QueryRow(query, userID).Scan(&balance); err != nil {
		return 0, fmt.Errorf("failed to read user balance: %w", err)
	}
	return balance, nil
}

const templateColumns = `
	id, user_id, account_id, category_id, name, description, kind, amount_model,
	base_amount, min_amount, max_amount, formula, currency, frequency, recur_interval,
	start_date, end_date, next_occurrence, auto_create, notify_lead_days, active,
	created_at, updated_at`

func scanTemplate(row interface{ Scan(...any) error }) (*models.ObligationTemplate, error) {
	tpl := &models.ObligationTemplate{}
	err := row.Scan(
		&tpl.ID, &tpl.UserID, &tpl.AccountID, &tpl.CategoryID, &tpl.Name, &tpl.Description,
		&tpl.Kind, &tpl.AmountModel, &tpl.BaseAmount, &tpl.MinAmount, &tpl.MaxAmount,
		&tpl.Formula, &tpl.Currency, &tpl.Frequency, &tpl.Interval, &tpl.StartDate,
		&tpl.EndDate, &tpl.NextOccurrence, &tpl.AutoCreate, &tpl.NotifyLeadDays,
		&tpl.Active, &tpl.CreatedAt, &tpl.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return tpl, nil
}

// CreateTemplate creates a new obligation template
func (r *Repository) CreateTemplate(tpl *models.ObligationTemplate) error {
	query := `
		INSERT INTO cashflow.obligation_templates (
			user_id, account_id, category_id, name, description, kind, amount_model,
			base_amount, min_amount, max_amount, formula, currency, frequency, recur_interval,
			start_date, end_date, next_occurrence, auto_create, notify_lead_days, active,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(query,
		tpl.UserID, tpl.AccountID, tpl.CategoryID, tpl.Name, tpl.Description, tpl.Kind,
		tpl.AmountModel, tpl.BaseAmount, tpl.MinAmount, tpl.MaxAmount, tpl.Formula,
		tpl.Currency, tpl.Frequency, tpl.Interval, tpl.StartDate, tpl.EndDate,
		tpl.NextOccurrence, tpl.AutoCreate, tpl.NotifyLeadDays, tpl.Active,
	).Scan(&tpl.ID, &tpl.CreatedAt, &tpl.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}
	return nil
}

// GetTemplate retrieves an obligation template by id
func (r *Repository) GetTemplate(id int64) (*models.ObligationTemplate, error) {
	query := `SELECT` + templateColumns + `
		FROM cashflow.obligation_templates WHERE id = $1`
	tpl, err := scanTemplate(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("template not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return tpl, nil
}

// ListTemplatesByUser retrieves all templates owned by a user
func (r *Repository) ListTemplatesByUser(userID int64) ([]*models.ObligationTemplate, error) {
	query := `SELECT` + templateColumns + `
		FROM cashflow.obligation_templates WHERE user_id = $1 ORDER BY id`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()
	return collectTemplates(rows)
}

// ListActiveTemplates retrieves a user's active templates, optionally
// restricted to one account.
func (r *Repository) ListActiveTemplates(userID int64, accountID *int64) ([]*models.ObligationTemplate, error) {
	query := `SELECT` + templateColumns + `
		FROM cashflow.obligation_templates
		WHERE user_id = $1 AND active = TRUE AND ($2::BIGINT IS NULL OR account_id = $2)
		ORDER BY id`
	rows, err := r.db.Query(query, userID, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active templates: %w", err)
	}
	defer rows.Close()
	return collectTemplates(rows)
}

// ListDueTemplates retrieves active templates whose next occurrence is due
// at or before asOf, optionally only auto-create ones.
func (r *Repository) ListDueTemplates(asOf time.Time, autoCreateOnly bool) ([]*models.ObligationTemplate, error) {
	query := `SELECT` + templateColumns + `
		FROM cashflow.obligation_templates
		WHERE active = TRUE
		  AND next_occurrence IS NOT NULL
		  AND next_occurrence <= $1
		  AND ($2 = FALSE OR auto_create = TRUE)
		ORDER BY id`
	rows, err := r.db.Query(query, asOf, autoCreateOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list due templates: %w", err)
	}
	defer rows.Close()
	return collectTemplates(rows)
}

func collectTemplates(rows *sql.Rows) ([]*models.ObligationTemplate, error) {
	var templates []*models.ObligationTemplate
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate templates: %w", err)
	}
	return templates, nil
}

// DeactivateTemplate marks a template inactive
func (r *Repository) DeactivateTemplate(id int64) error {
	query := `
		UPDATE cashflow.obligation_templates
		SET active = FALSE, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	if _, err := r.db.Exec(query, id); err != nil {
		return fmt.Errorf("failed to deactivate template: %w", err)
	}
	return nil
}

// DeleteTemplate deletes a template together with the occurrences it owns.
func (r *Repository) DeleteTemplate(id int64) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM cashflow.occurrences WHERE template_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete occurrences: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM cashflow.obligation_templates WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}

// CountOccurrences returns how many occurrences exist for a template
func (r *Repository) CountOccurrences(templateID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM cashflow.occurrences WHERE template_id = $1`
	if err := r.db.QueryRow(query, templateID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count occurrences: %w", err)
	}
	return count, nil
}

// ListOccurrencesByTemplate retrieves a template's occurrences, newest first
func (r *Repository) ListOccurrencesByTemplate(templateID int64) ([]*models.Occurrence, error) {
	query := `
		SELECT id, template_id, ledger_entry_id, scheduled_date, expected_amount,
		       actual_amount, status, notes, created_at, updated_at
		FROM cashflow.occurrences
		WHERE template_id = $1
		ORDER BY scheduled_date DESC`
	rows, err := r.db.Query(query, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list occurrences: %w", err)
	}
	defer rows.Close()

	var occurrences []*models.Occurrence
	for rows.Next() {
		occ := &models.Occurrence{}
		err := rows.Scan(&occ.ID, &occ.TemplateID, &occ.LedgerEntryID, &occ.ScheduledDate,
			&occ.ExpectedAmount, &occ.ActualAmount, &occ.Status, &occ.Notes,
			&occ.CreatedAt, &occ.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan occurrence: %w", err)
		}
		occurrences = append(occurrences, occ)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate occurrences: %w", err)
	}
	return occurrences, nil
}

// GetOccurrence retrieves one occurrence by id
func (r *Repository) GetOccurrence(id int64) (*models.Occurrence, error) {
	occ := &models.Occurrence{}
	query := `
		SELECT id, template_id, ledger_entry_id, scheduled_date, expected_amount,
		       actual_amount, status, notes, created_at, updated_at
		FROM cashflow.occurrences
		WHERE id = $1`
	err := r.db.QueryRow(query, id).
		Scan(&occ.ID, &occ.TemplateID, &occ.LedgerEntryID, &occ.ScheduledDate,
			&occ.ExpectedAmount, &occ.ActualAmount, &occ.Status, &occ.Notes,
			&occ.CreatedAt, &occ.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("occurrence not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get occurrence: %w", err)
	}
	return occ, nil
}

// UpdateOccurrenceStatus transitions an occurrence to Skipped or Overridden.
func (r *Repository) UpdateOccurrenceStatus(id int64, status models.OccurrenceStatus, actualAmount *float64, notes string) error {
	query := `
		UPDATE cashflow.occurrences
		SET status = $2, actual_amount = $3, notes = $4, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status = 'pending'`
	res, err := r.db.Exec(query, id, status, actualAmount, notes)
	if err != nil {
		return fmt.Errorf("failed to update occurrence: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("occurrence is not pending")
	}
	return nil
}

// ApplyOccurrence persists one template's unit of work atomically: the
// optional auto-created ledger entry, the occurrence, the template's new
// next-occurrence date and, when the template is exhausted, its
// deactivation. The template row is only advanced when its stored
// next-occurrence date still matches oldNext, which keeps re-runs and
// concurrent batches from double-booking an occurrence.
func (r *Repository) ApplyOccurrence(
	tpl *models.ObligationTemplate,
	occ *models.Occurrence,
	entry *models.LedgerEntry,
	oldNext time.Time,
	newNext *time.Time,
	deactivate bool,
) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE cashflow.obligation_templates
		SET next_occurrence = $2, active = active AND NOT $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND next_occurrence = $4`,
		tpl.ID, newNext, deactivate, oldNext)
	if err != nil {
		return fmt.Errorf("failed to advance template: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read advance result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("template %d already advanced past %s", tpl.ID, oldNext.Format("2006-01-02"))
	}

	if entry != nil {
		err = tx.QueryRow(`
			INSERT INTO cashflow.ledger_entries (
				account_id, template_id, category_id, date, amount, currency, kind,
				description, source, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
			RETURNING id, created_at, updated_at`,
			entry.AccountID, entry.TemplateID, entry.CategoryID, entry.Date, entry.Amount,
			entry.Currency, entry.Kind, entry.Description, entry.Source,
		).Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create ledger entry: %w", err)
		}
		occ.LedgerEntryID = &entry.ID

		if _, err := tx.Exec(`
			UPDATE cashflow.accounts
			SET balance = balance + $2, updated_at = CURRENT_TIMESTAMP
			WHERE id = $1`, entry.AccountID, entry.Amount); err != nil {
			return fmt.Errorf("failed to update account balance: %w", err)
		}
	}

	err = tx.QueryRow(`
		INSERT INTO cashflow.occurrences (
			template_id, ledger_entry_id, scheduled_date, expected_amount, actual_amount,
			status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`,
		occ.TemplateID, occ.LedgerEntryID, occ.ScheduledDate, occ.ExpectedAmount,
		occ.ActualAmount, occ.Status, occ.Notes,
	).Scan(&occ.ID, &occ.CreatedAt, &occ.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create occurrence: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit occurrence: %w", err)
	}
	return nil
}

// ListDailyFlows aggregates a user's signed ledger amounts per day over
// [from, to], optionally restricted to one account.
func (r *Repository) ListDailyFlows(userID int64, accountID *int64, from, to time.Time) ([]models.DailyFlow, error) {
	query := `
		SELECT e.date::DATE, SUM(e.amount)
		FROM cashflow.ledger_entries e
		JOIN cashflow.accounts a ON a.id = e.account_id
		WHERE a.user_id = $1
		  AND ($2::BIGINT IS NULL OR e.account_id = $2)
		  AND e.date >= $3 AND e.date <= $4
		GROUP BY e.date::DATE
		ORDER BY e.date::DATE`
	rows, err := r.db.Query(query, userID, accountID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily flows: %w", err)
	}
	defer rows.Close()

	var flows []models.DailyFlow
	for rows.Next() {
		var f models.DailyFlow
		if err := rows.Scan(&f.Date, &f.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan daily flow: %w", err)
		}
		flows = append(flows, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate daily flows: %w", err)
	}
	return flows, nil
}
