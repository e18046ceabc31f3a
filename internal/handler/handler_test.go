package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/homebudget/budget-service/internal/apperr"
	"github.com/homebudget/budget-service/internal/config"
	"github.com/homebudget/budget-service/internal/models"
	"github.com/homebudget/budget-service/internal/service"
)

type ledgerKey struct {
	planID int64
	month  time.Time
}

// stubStore is a minimal in-memory Storage for handler tests.
type stubStore struct {
	plans    map[int64]*models.Plan
	payments map[ledgerKey]*models.PaymentRecord
	nextID   int64
}

func newStubStore() *stubStore {
	return &stubStore{
		plans:    make(map[int64]*models.Plan),
		payments: make(map[ledgerKey]*models.PaymentRecord),
	}
}

func (s *stubStore) CreateUser(_ context.Context, user *models.User) error {
	return nil
}

func (s *stubStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	return nil, fmt.Errorf("user %s: %w", email, apperr.ErrNotFound)
}

func (s *stubStore) CreatePlan(_ context.Context, plan *models.Plan) error {
	s.nextID++
	plan.ID = s.nextID
	s.plans[plan.ID] = plan
	return nil
}

func (s *stubStore) GetPlan(_ context.Context, id int64) (*models.Plan, error) {
	plan, ok := s.plans[id]
	if !ok {
		return nil, fmt.Errorf("plan %d: %w", id, apperr.ErrNotFound)
	}
	return plan, nil
}

func (s *stubStore) ListPlans(_ context.Context) ([]*models.Plan, error) {
	plans := []*models.Plan{}
	for _, p := range s.plans {
		plans = append(plans, p)
	}
	return plans, nil
}

func (s *stubStore) UpsertPaymentRecord(_ context.Context, rec *models.PaymentRecord) error {
	clone := *rec
	s.payments[ledgerKey{planID: rec.PlanID, month: rec.PaymentMonth}] = &clone
	return nil
}

func (s *stubStore) ListPaymentRecords(_ context.Context, planID int64) ([]models.PaymentRecord, error) {
	records := []models.PaymentRecord{}
	for _, rec := range s.payments {
		if rec.PlanID == planID {
			records = append(records, *rec)
		}
	}
	return records, nil
}

func newTestRouter(store *stubStore) *mux.Router {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	svc := service.NewService(store, logger, &config.Config{JWTSecret: "test-secret"})
	h := NewHandler(svc, logger)

	r := mux.NewRouter()
	r.HandleFunc("/plans", h.CreatePlan).Methods("POST")
	r.HandleFunc("/plans", h.ListPlans).Methods("GET")
	r.HandleFunc("/plans/status", h.ListPlanStatuses).Methods("GET")
	r.HandleFunc("/plans/{id}/payments", h.UpdatePayment).Methods("PUT")
	r.HandleFunc("/plans/{id}/status", h.PlanStatus).Methods("GET")
	r.HandleFunc("/portfolio", h.Portfolio).Methods("GET")
	return r
}

func doRequest(r *mux.Router, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCreatePlanEndpoint(t *testing.T) {
	router := newTestRouter(newStubStore())

	rec := doRequest(router, "POST", "/plans", `{
		"plan_name": "School Fees",
		"start_date": "2025-01-01",
		"end_date": "2025-06-30",
		"total_amount": 1000,
		"monthly_amount": 300
	}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var plan models.Plan
	if err := json.Unmarshal(rec.Body.Bytes(), &plan); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if plan.ID == 0 {
		t.Error("Expected assigned plan id")
	}
}

func TestCreatePlanEndpointRejectsBadRange(t *testing.T) {
	router := newTestRouter(newStubStore())

	rec := doRequest(router, "POST", "/plans", `{
		"plan_name": "Backwards",
		"start_date": "2025-06-01",
		"end_date": "2025-01-01",
		"total_amount": 1000,
		"monthly_amount": 300
	}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
}

func TestUpdatePaymentEndpoint(t *testing.T) {
	store := newStubStore()
	router := newTestRouter(store)

	rec := doRequest(router, "POST", "/plans", `{
		"plan_name": "Fridge",
		"start_date": "2025-01-01",
		"end_date": "2025-04-30",
		"total_amount": 800,
		"monthly_amount": 200
	}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Failed to create plan: %d", rec.Code)
	}

	rec = doRequest(router, "PUT", "/plans/1/payments", `{"month": "2025-02", "is_paid": true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(store.payments) != 1 {
		t.Fatalf("Expected 1 ledger row, got %d", len(store.payments))
	}

	rec = doRequest(router, "PUT", "/plans/abc/payments", `{"month": "2025-02", "is_paid": true}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad plan id, got %d", rec.Code)
	}

	rec = doRequest(router, "PUT", "/plans/1/payments", `{"month": "soon", "is_paid": true}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad month, got %d", rec.Code)
	}
}

func TestPlanStatusEndpoint(t *testing.T) {
	store := newStubStore()
	router := newTestRouter(store)

	doRequest(router, "POST", "/plans", `{
		"plan_name": "Sofa",
		"start_date": "2025-01-01",
		"end_date": "2025-05-31",
		"total_amount": 1000,
		"monthly_amount": 300
	}`)
	doRequest(router, "PUT", "/plans/1/payments", `{"month": "2025-01", "is_paid": true}`)

	rec := doRequest(router, "GET", "/plans/1/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var status models.PlanStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if status.Progress.PaidMonthsCount != 1 {
		t.Errorf("Expected 1 paid month, got %d", status.Progress.PaidMonthsCount)
	}
	if !status.Progress.BalancePaid.Equal(decimal.NewFromInt(300)) {
		t.Errorf("Expected balance 300, got %s", status.Progress.BalancePaid)
	}

	rec = doRequest(router, "GET", "/plans/99/status", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown plan, got %d", rec.Code)
	}
}

func TestPortfolioEndpointEmpty(t *testing.T) {
	router := newTestRouter(newStubStore())

	rec := doRequest(router, "GET", "/portfolio", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var sum models.PortfolioSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &sum); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if sum.TotalPlans != 0 || !sum.TotalPaid.Equal(decimal.Zero) || !sum.TotalRemaining.Equal(decimal.Zero) {
		t.Errorf("Expected empty summary, got %+v", sum)
	}
}
