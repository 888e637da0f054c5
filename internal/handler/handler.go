package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/akazakov/cashflow-service/internal/models"
	"github.com/akazakov/cashflow-service/internal/service"
)

type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	user, err := h.svc.Register(req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	token, err := h.svc.Login(req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// CreateAccount handles account creation
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Currency string `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	account, err := h.svc.CreateAccount(r.Context(), req.Name, req.Currency)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

// CreateTemplate handles obligation template creation
func (h *Handler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var tpl models.ObligationTemplate
	if err := json.NewDecoder(r.Body).Decode(&tpl); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	created, err := h.svc.CreateTemplate(r.Context(), &tpl)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListTemplates lists the caller's obligation templates
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.svc.ListTemplates(r.Context())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

// GetTemplate returns one obligation template
func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid template id", http.StatusBadRequest)
		return
	}
	tpl, err := h.svc.GetTemplate(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

// DeleteTemplate deletes a template and its occurrences
func (h *Handler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid template id", http.StatusBadRequest)
		return
	}
	if err := h.svc.DeleteTemplate(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeactivateTemplate pauses a template without deleting its history
func (h *Handler) DeactivateTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid template id", http.StatusBadRequest)
		return
	}
	tpl, err := h.svc.DeactivateTemplate(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

// ListOccurrences lists a template's generated occurrences
func (h *Handler) ListOccurrences(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid template id", http.StatusBadRequest)
		return
	}
	occurrences, err := h.svc.ListOccurrences(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, occurrences)
}

// ResolveOccurrence skips or overrides a pending occurrence
func (h *Handler) ResolveOccurrence(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid occurrence id", http.StatusBadRequest)
		return
	}
	var req struct {
		Status       models.OccurrenceStatus `json:"status"`
		ActualAmount *float64                `json:"actual_amount,omitempty"`
		Notes        string                  `json:"notes,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	occ, err := h.svc.ResolveOccurrence(r.Context(), id, req.Status, req.ActualAmount, req.Notes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, occ)
}

// Forecast produces the cash-flow forecast for the caller
func (h *Handler) Forecast(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	req := models.ForecastRequest{
		UserID:           userID,
		HorizonDays:      30,
		IncludeRecurring: true,
		IncludePatterns:  true,
	}
	q := r.URL.Query()
	if v := q.Get("days"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			req.HorizonDays = days
		}
	}
	if v := q.Get("account_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.AccountID = &id
		}
	}
	if v := q.Get("include_recurring"); v != "" {
		req.IncludeRecurring = v != "false"
	}
	if v := q.Get("include_patterns"); v != "" {
		req.IncludePatterns = v != "false"
	}

	result, err := h.svc.ForecastCashFlow(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ProcessDue triggers the due-obligation batch; called by the in-process
// cron and by an external scheduler.
func (h *Handler) ProcessDue(w http.ResponseWriter, r *http.Request) {
	asOf := time.Now().UTC()
	if v := r.URL.Query().Get("as_of"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			http.Error(w, "Invalid as_of date", http.StatusBadRequest)
			return
		}
		asOf = parsed
	}
	autoCreateOnly := r.URL.Query().Get("auto_create_only") == "true"

	result, err := h.svc.ProcessDueObligations(r.Context(), asOf, autoCreateOnly)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

func callerID(r *http.Request) (int64, error) {
	userIDStr, _ := r.Context().Value("userID").(string)
	return strconv.ParseInt(userIDStr, 10, 64)
}
