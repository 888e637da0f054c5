package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/akazakov/cashflow-service/internal/config"
	"github.com/akazakov/cashflow-service/internal/models"
	"github.com/akazakov/cashflow-service/internal/recurrence"
)

// Service handles business logic
type Service struct {
	store    Store
	notifier Notifier
	rates    RateSource
	eval     *recurrence.Evaluator
	log      *logrus.Logger
	config   *config.Config
}

// NewService initializes a new service
func NewService(store Store, notifier Notifier, rates RateSource, log *logrus.Logger, cfg *config.Config) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		rates:    rates,
		eval:     recurrence.NewEvaluator(cfg.GrowthRate),
		log:      log,
		config:   cfg,
	}
}

// Register creates a new user with hashed password
func (s *Service) Register(username, email, password string) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}

	if err := s.store.CreateUser(user); err != nil {
		return nil, err
	}

	s.log.Infof("User registered: %s", user.Email)
	return user, nil
}

// Login authenticates a user and returns a JWT token
func (s *Service) Login(email, password string) (string, error) {
	user, err := s.store.FindUserByEmail(email)
	if err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   fmt.Sprintf("%d", user.ID),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("User logged in: %s", user.Email)
	return tokenString, nil
}

// userIDFromContext extracts the authenticated user id set by the auth
// middleware.
func userIDFromContext(ctx context.Context) (int64, error) {
	userIDStr, ok := ctx.Value("userID").(string)
	if !ok || userIDStr == "" {
		return 0, fmt.Errorf("user ID not found in context")
	}
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user ID: %w", err)
	}
	return userID, nil
}

// CreateAccount creates a new account for the authenticated user
func (s *Service) CreateAccount(ctx context.Context, name, currency string) (*models.Account, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		UserID:   userID,
		Name:     name,
		Balance:  0.0,
		Currency: currency,
	}

	if err := s.store.CreateAccount(account); err != nil {
		return nil, err
	}

	s.log.Infof("Account created for user %d: %s (%s)", userID, account.Name, account.Currency)
	return account, nil
}

// CreateTemplate validates and stores a new obligation template. The next
// occurrence pointer starts at the template's start date.
func (s *Service) CreateTemplate(ctx context.Context, tpl *models.ObligationTemplate) (*models.ObligationTemplate, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	tpl.UserID = userID

	account, err := s.store.FindAccountByID(tpl.AccountID)
	if err != nil {
		return nil, err
	}
	if account.UserID != userID {
		return nil, fmt.Errorf("account does not belong to user")
	}
	if tpl.Currency == "" {
		tpl.Currency = account.Currency
	}

	if err := validateTemplate(tpl); err != nil {
		return nil, err
	}

	if tpl.NextOccurrence == nil {
		start := tpl.StartDate
		tpl.NextOccurrence = &start
	}
	tpl.Active = true

	if err := s.store.CreateTemplate(tpl); err != nil {
		return nil, err
	}

	s.log.Infof("Template created for user %d: %s (%s, %s)", userID, tpl.Name, tpl.Frequency, tpl.AmountModel)
	return tpl, nil
}

// validateTemplate enforces the amount-model and schedule invariants.
func validateTemplate(tpl *models.ObligationTemplate) error {
	if tpl.Interval < 1 {
		return &models.ValidationError{TemplateID: tpl.ID, Reason: "interval must be at least 1"}
	}

	valid := false
	for _, f := range models.Frequencies {
		if tpl.Frequency == f {
			valid = true
			break
		}
	}
	if !valid {
		return &models.ValidationError{TemplateID: tpl.ID, Reason: fmt.Sprintf("unknown frequency %q", tpl.Frequency)}
	}

	switch tpl.AmountModel {
	case models.AmountModelFixed, models.AmountModelProgressive, models.AmountModelSeasonal:
	case models.AmountModelVariable:
		if tpl.MinAmount == nil || tpl.MaxAmount == nil {
			return &models.ValidationError{TemplateID: tpl.ID, Reason: "variable model requires min and max amounts"}
		}
		if *tpl.MinAmount > *tpl.MaxAmount {
			return &models.ValidationError{TemplateID: tpl.ID, Reason: "min amount exceeds max amount"}
		}
	case models.AmountModelFormula:
		if tpl.Formula == "" {
			return &models.ValidationError{TemplateID: tpl.ID, Reason: "formula model requires a formula"}
		}
	default:
		return &models.ValidationError{TemplateID: tpl.ID, Reason: fmt.Sprintf("unknown amount model %q", tpl.AmountModel)}
	}

	switch tpl.Kind {
	case models.KindExpense:
		if tpl.BaseAmount > 0 {
			return &models.ValidationError{TemplateID: tpl.ID, Reason: "expense amounts must not be positive"}
		}
	case models.KindIncome:
		if tpl.BaseAmount < 0 {
			return &models.ValidationError{TemplateID: tpl.ID, Reason: "income amounts must not be negative"}
		}
	default:
		return &models.ValidationError{TemplateID: tpl.ID, Reason: fmt.Sprintf("unknown transaction kind %q", tpl.Kind)}
	}

	if tpl.EndDate != nil && tpl.EndDate.Before(tpl.StartDate) {
		return &models.ValidationError{TemplateID: tpl.ID, Reason: "end date precedes start date"}
	}

	return nil
}

// ListTemplates returns the authenticated user's templates.
func (s *Service) ListTemplates(ctx context.Context) ([]*models.ObligationTemplate, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.ListTemplatesByUser(userID)
}

// GetTemplate returns one of the authenticated user's templates.
func (s *Service) GetTemplate(ctx context.Context, id int64) (*models.ObligationTemplate, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	tpl, err := s.store.GetTemplate(id)
	if err != nil {
		return nil, err
	}
	if tpl.UserID != userID {
		return nil, fmt.Errorf("template does not belong to user")
	}
	return tpl, nil
}

// DeleteTemplate removes a template and, through the template's ownership of
// them, all of its occurrences.
func (s *Service) DeleteTemplate(ctx context.Context, id int64) error {
	tpl, err := s.GetTemplate(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTemplate(tpl.ID); err != nil {
		return err
	}
	s.log.Infof("Template %d deleted with its occurrences", tpl.ID)
	return nil
}

// DeactivateTemplate pauses a template: it keeps its history but stops
// entering the due-date selection until reactivated manually.
func (s *Service) DeactivateTemplate(ctx context.Context, id int64) (*models.ObligationTemplate, error) {
	tpl, err := s.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeactivateTemplate(tpl.ID); err != nil {
		return nil, err
	}
	s.log.Infof("Template %d deactivated", tpl.ID)
	return s.store.GetTemplate(tpl.ID)
}

// ListOccurrences returns the occurrences generated from one template.
func (s *Service) ListOccurrences(ctx context.Context, templateID int64) ([]*models.Occurrence, error) {
	tpl, err := s.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	return s.store.ListOccurrencesByTemplate(tpl.ID)
}

// ResolveOccurrence applies a user action to a pending occurrence: skip it,
// or override it with the amount that was actually paid.
func (s *Service) ResolveOccurrence(ctx context.Context, id int64, status models.OccurrenceStatus, actualAmount *float64, notes string) (*models.Occurrence, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	occ, err := s.store.GetOccurrence(id)
	if err != nil {
		return nil, err
	}
	tpl, err := s.store.GetTemplate(occ.TemplateID)
	if err != nil {
		return nil, err
	}
	if tpl.UserID != userID {
		return nil, fmt.Errorf("occurrence does not belong to user")
	}

	switch status {
	case models.OccurrenceSkipped:
		actualAmount = nil
	case models.OccurrenceOverridden:
		if actualAmount == nil {
			return nil, fmt.Errorf("override requires an actual amount")
		}
	default:
		return nil, fmt.Errorf("occurrence can only be skipped or overridden")
	}

	if err := s.store.UpdateOccurrenceStatus(id, status, actualAmount, notes); err != nil {
		return nil, err
	}
	s.log.Infof("Occurrence %d resolved as %s", id, status)
	return s.store.GetOccurrence(id)
}
