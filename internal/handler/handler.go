package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/homebudget/budget-service/internal/apperr"
	"github.com/homebudget/budget-service/internal/service"
)

// Handler exposes the service over HTTP
type Handler struct {
	svc *service.Service
	log *logrus.Logger
}

// NewHandler initializes a new handler
func NewHandler(svc *service.Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.svc.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, user)
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		http.Error(w, "invalid email or password", http.StatusUnauthorized)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

// CreatePlan handles plan creation
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req service.CreatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	plan, err := h.svc.CreatePlan(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, plan)
}

// ListPlans returns all plans
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.svc.ListPlans(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, plans)
}

// UpdatePayment toggles the paid state of one plan month
func (h *Handler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	planID, err := planIDVar(r)
	if err != nil {
		http.Error(w, "invalid plan id", http.StatusBadRequest)
		return
	}

	var req struct {
		Month  string `json:"month"`
		IsPaid bool   `json:"is_paid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	rec, err := h.svc.SetPaymentStatus(r.Context(), planID, req.Month, req.IsPaid)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, rec)
}

// PlanStatus returns one plan with its payments and progress
func (h *Handler) PlanStatus(w http.ResponseWriter, r *http.Request) {
	planID, err := planIDVar(r)
	if err != nil {
		http.Error(w, "invalid plan id", http.StatusBadRequest)
		return
	}

	status, err := h.svc.PlanStatus(r.Context(), planID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, status)
}

// ListPlanStatuses returns every plan with payments and progress
func (h *Handler) ListPlanStatuses(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.svc.ListPlanStatuses(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, statuses)
}

// Portfolio returns the aggregate summary across all plans
func (h *Handler) Portfolio(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.Portfolio(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, sum)
}

func planIDVar(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Errorf("Failed to encode response: %v", err)
	}
}

// respondError maps the error taxonomy onto HTTP statuses. Validation errors
// carry a corrective message; storage failures get a generic retry message so
// no partial state leaks to the user.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case apperr.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, apperr.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case apperr.IsTransient(err):
		h.log.Errorf("Transient storage failure: %v", err)
		http.Error(w, "temporarily unavailable, please try again", http.StatusServiceUnavailable)
	default:
		h.log.Errorf("Internal error: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
