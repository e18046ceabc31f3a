package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/lib/pq"

	"github.com/homebudget/budget-service/internal/apperr"
	"github.com/homebudget/budget-service/internal/models"
)

// Repository provides database operations
type Repository struct {
	db      *sql.DB
	timeout time.Duration
}

// NewRepository initializes a new repository. Every call is bounded by the
// given per-statement timeout.
func NewRepository(db *sql.DB, timeout time.Duration) *Repository {
	return &Repository{db: db, timeout: timeout}
}

// InitSchema creates the tables if they don't already exist. The uniqueness
// constraint on (plan_id, payment_month) is what keeps the ledger upsert safe
// under concurrent toggles of the same month.
func (r *Repository) InitSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		username TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS budget_plans (
		id SERIAL PRIMARY KEY,
		plan_name TEXT NOT NULL,
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		total_amount NUMERIC(14,2) NOT NULL,
		monthly_amount NUMERIC(14,2) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS plan_payments (
		plan_id INTEGER NOT NULL REFERENCES budget_plans(id),
		payment_month DATE NOT NULL,
		status TEXT NOT NULL,
		paid_at TIMESTAMPTZ,
		UNIQUE (plan_id, payment_month)
	);`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return wrapErr("failed to initialize schema", err)
	}
	return nil
}

func (r *Repository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// wrapErr maps driver errors onto the error taxonomy: unique violations
// become conflicts, connection/timeout failures become transient, anything
// else is wrapped as-is.
func wrapErr(msg string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "23505":
			return fmt.Errorf("%s: %w", msg, apperr.ErrConflict)
		case pqErr.Code == "40001", pqErr.Code.Class() == "08", pqErr.Code.Class() == "53":
			return apperr.Transient(fmt.Errorf("%s: %w", msg, err))
		}
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
		return apperr.Transient(fmt.Errorf("%s: %w", msg, err))
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, user.Username, user.Email, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return wrapErr("failed to create user", err)
	}
	return nil
}

// FindUserByEmail retrieves a user by email
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	user := &models.User{}
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE email = $1`
	err := r.db.QueryRowContext(ctx, query, email).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", email, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, wrapErr("failed to find user", err)
	}
	return user, nil
}

// CreatePlan creates a new budget plan in the database
func (r *Repository) CreatePlan(ctx context.Context, plan *models.Plan) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO budget_plans (plan_name, start_date, end_date, total_amount, monthly_amount)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		plan.Name, plan.StartDate, plan.EndDate, plan.TotalAmount, plan.MonthlyAmount).
		Scan(&plan.ID, &plan.CreatedAt)
	if err != nil {
		return wrapErr("failed to create plan", err)
	}
	return nil
}

// GetPlan retrieves a plan by its ID
func (r *Repository) GetPlan(ctx context.Context, id int64) (*models.Plan, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	plan := &models.Plan{}
	query := `
		SELECT id, plan_name, start_date, end_date, total_amount, monthly_amount, created_at
		FROM budget_plans
		WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&plan.ID, &plan.Name, &plan.StartDate, &plan.EndDate,
			&plan.TotalAmount, &plan.MonthlyAmount, &plan.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("plan %d: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, wrapErr("failed to get plan", err)
	}
	return plan, nil
}

// ListPlans retrieves all plans ordered by start date. The id tie-break keeps
// the ordering stable for plans starting in the same month.
func (r *Repository) ListPlans(ctx context.Context) ([]*models.Plan, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, plan_name, start_date, end_date, total_amount, monthly_amount, created_at
		FROM budget_plans
		ORDER BY start_date ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapErr("failed to list plans", err)
	}
	defer rows.Close()

	var plans []*models.Plan
	for rows.Next() {
		plan := &models.Plan{}
		if err := rows.Scan(&plan.ID, &plan.Name, &plan.StartDate, &plan.EndDate,
			&plan.TotalAmount, &plan.MonthlyAmount, &plan.CreatedAt); err != nil {
			return nil, wrapErr("failed to scan plan row", err)
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("failed to list plans", err)
	}
	return plans, nil
}

// UpsertPaymentRecord inserts or overwrites the status for one (plan, month)
// ledger key in a single statement. paid_at records the most recent
// transition into Paid: it is preserved when re-marking an already-paid
// month, and cleared when the month goes back to Not Paid.
func (r *Repository) UpsertPaymentRecord(ctx context.Context, rec *models.PaymentRecord) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO plan_payments (plan_id, payment_month, status, paid_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (plan_id, payment_month) DO UPDATE SET
			status = EXCLUDED.status,
			paid_at = CASE
				WHEN EXCLUDED.status = 'Paid' AND plan_payments.status = 'Paid' THEN plan_payments.paid_at
				ELSE EXCLUDED.paid_at
			END`
	_, err := r.db.ExecContext(ctx, query, rec.PlanID, rec.PaymentMonth, rec.Status, rec.PaidAt)
	if err != nil {
		return wrapErr("failed to upsert payment record", err)
	}
	return nil
}

// ListPaymentRecords retrieves all ledger rows for a plan
func (r *Repository) ListPaymentRecords(ctx context.Context, planID int64) ([]models.PaymentRecord, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT plan_id, payment_month, status, paid_at
		FROM plan_payments
		WHERE plan_id = $1`
	rows, err := r.db.QueryContext(ctx, query, planID)
	if err != nil {
		return nil, wrapErr("failed to list payment records", err)
	}
	defer rows.Close()

	var records []models.PaymentRecord
	for rows.Next() {
		var rec models.PaymentRecord
		var paidAt sql.NullTime
		if err := rows.Scan(&rec.PlanID, &rec.PaymentMonth, &rec.Status, &paidAt); err != nil {
			return nil, wrapErr("failed to scan payment record row", err)
		}
		if paidAt.Valid {
			rec.PaidAt = &paidAt.Time
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("failed to list payment records", err)
	}
	return records, nil
}
