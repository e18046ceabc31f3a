package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/homebudget/budget-service/internal/apperr"
	"github.com/homebudget/budget-service/internal/config"
	"github.com/homebudget/budget-service/internal/models"
	"github.com/homebudget/budget-service/internal/progress"
	"github.com/homebudget/budget-service/internal/schedule"
)

// Storage is the durable-store collaborator the service depends on. The
// Postgres repository implements it; tests substitute an in-memory store.
type Storage interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)

	CreatePlan(ctx context.Context, plan *models.Plan) error
	GetPlan(ctx context.Context, id int64) (*models.Plan, error)
	ListPlans(ctx context.Context) ([]*models.Plan, error)

	UpsertPaymentRecord(ctx context.Context, rec *models.PaymentRecord) error
	ListPaymentRecords(ctx context.Context, planID int64) ([]models.PaymentRecord, error)
}

// Service handles business logic
type Service struct {
	repo   Storage
	log    *logrus.Logger
	config *config.Config
}

// NewService initializes a new service
func NewService(repo Storage, log *logrus.Logger, cfg *config.Config) *Service {
	return &Service{repo: repo, log: log, config: cfg}
}

// Register creates a new user with hashed password
func (s *Service) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	if username == "" || email == "" || password == "" {
		return nil, apperr.Validation("username, email and password are required")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.log.Infof("User registered: %s", user.Email)
	return user, nil
}

// Login authenticates a user and returns a JWT token
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.repo.FindUserByEmail(ctx, email)
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

// CreatePlanRequest is the validated form of the add-plan input. Dates arrive
// as YYYY-MM-DD strings and are parsed here, at the boundary, so nothing
// malformed reaches the core.
type CreatePlanRequest struct {
	Name          string          `json:"plan_name"`
	StartDate     string          `json:"start_date"`
	EndDate       string          `json:"end_date"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	MonthlyAmount decimal.Decimal `json:"monthly_amount"`
}

// CreatePlan validates the request and persists a new plan
func (s *Service) CreatePlan(ctx context.Context, req CreatePlanRequest) (*models.Plan, error) {
	if req.Name == "" {
		return nil, apperr.Validation("plan name is required")
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, apperr.Validation("invalid start date %q: want YYYY-MM-DD", req.StartDate)
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return nil, apperr.Validation("invalid end date %q: want YYYY-MM-DD", req.EndDate)
	}
	if start.After(end) {
		return nil, apperr.Validation("start date %s is after end date %s", req.StartDate, req.EndDate)
	}
	if !req.TotalAmount.IsPositive() {
		return nil, apperr.Validation("total amount must be positive")
	}
	if !req.MonthlyAmount.IsPositive() {
		return nil, apperr.Validation("monthly amount must be positive")
	}

	plan := &models.Plan{
		Name:          req.Name,
		StartDate:     start,
		EndDate:       end,
		TotalAmount:   req.TotalAmount,
		MonthlyAmount: req.MonthlyAmount,
	}

	if err := s.repo.CreatePlan(ctx, plan); err != nil {
		return nil, err
	}

	s.log.Infof("Plan created: %q (id=%d, %s..%s)", plan.Name, plan.ID, req.StartDate, req.EndDate)
	return plan, nil
}

// ListPlans retrieves all plans in stable start-date order
func (s *Service) ListPlans(ctx context.Context) ([]*models.Plan, error) {
	return s.repo.ListPlans(ctx)
}

// SetPaymentStatus marks one month of a plan paid or unpaid. The month may be
// supplied as "2025-06" or "2025-06-01"; both normalize to the same ledger
// key. The upsert is retried once if a concurrent toggle of the same key
// races it; a second conflict surfaces as a transient failure.
func (s *Service) SetPaymentStatus(ctx context.Context, planID int64, month string, paid bool) (*models.PaymentRecord, error) {
	if planID <= 0 {
		return nil, apperr.Validation("invalid plan id %d", planID)
	}
	ym, err := schedule.ParseMonth(month)
	if err != nil {
		return nil, err
	}

	rec := &models.PaymentRecord{
		PlanID:       planID,
		PaymentMonth: ym.Time(),
		Status:       models.StatusNotPaid,
	}
	if paid {
		now := time.Now().UTC()
		rec.Status = models.StatusPaid
		rec.PaidAt = &now
	}

	// A request abandoned mid-toggle must not abort the write and leave the
	// ledger key half-written; the storage call carries its own timeout.
	writeCtx := context.WithoutCancel(ctx)

	err = s.repo.UpsertPaymentRecord(writeCtx, rec)
	if errors.Is(err, apperr.ErrConflict) {
		s.log.Warnf("Ledger conflict on plan %d month %s, retrying", planID, ym)
		err = s.repo.UpsertPaymentRecord(writeCtx, rec)
		if errors.Is(err, apperr.ErrConflict) {
			return nil, apperr.Transient(err)
		}
	}
	if err != nil {
		return nil, err
	}

	s.log.Infof("Payment %s for plan %d month %s", rec.Status, planID, ym)
	return rec, nil
}

// PlanStatus joins one plan with its ledger rows and derived progress
func (s *Service) PlanStatus(ctx context.Context, planID int64) (*models.PlanStatus, error) {
	plan, err := s.repo.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	return s.status(ctx, plan)
}

// ListPlanStatuses returns every plan with its ledger rows and progress, in
// the repository's stable order. This is the single aggregate read the
// dashboard consumes.
func (s *Service) ListPlanStatuses(ctx context.Context) ([]models.PlanStatus, error) {
	plans, err := s.repo.ListPlans(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]models.PlanStatus, 0, len(plans))
	for _, plan := range plans {
		st, err := s.status(ctx, plan)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, *st)
	}
	return statuses, nil
}

// Portfolio folds every plan's progress into a single summary row
func (s *Service) Portfolio(ctx context.Context) (*models.PortfolioSummary, error) {
	statuses, err := s.ListPlanStatuses(ctx)
	if err != nil {
		return nil, err
	}
	sum := progress.Summarize(statuses)
	return &sum, nil
}

func (s *Service) status(ctx context.Context, plan *models.Plan) (*models.PlanStatus, error) {
	records, err := s.repo.ListPaymentRecords(ctx, plan.ID)
	if err != nil {
		return nil, err
	}
	prog, err := progress.Compute(plan, records)
	if err != nil {
		return nil, err
	}
	return &models.PlanStatus{Plan: *plan, Payments: records, Progress: *prog}, nil
}
