package models

import "github.com/shopspring/decimal"

// CompletionState tells whether a plan still has installments outstanding.
type CompletionState string

const (
	StateInProgress CompletionState = "In Progress"
	StateCompleted  CompletionState = "Completed"
)

// PlanProgress represents derived payment progress for a single plan.
// BalancePaid may exceed TotalAmount when the final installment is partial;
// RemainingAmount is clamped at zero for display.
type PlanProgress struct {
	PaidMonthsCount int             `json:"paid_months_count"`
	TotalMonths     int             `json:"total_months"`
	BalancePaid     decimal.Decimal `json:"balance_paid"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	Completion      CompletionState `json:"completion_state"`
}

// PlanStatus couples a plan with its ledger rows and derived progress.
type PlanStatus struct {
	Plan     Plan            `json:"plan"`
	Payments []PaymentRecord `json:"payments"`
	Progress PlanProgress    `json:"progress"`
}

// PortfolioSummary represents aggregate figures across all plans.
type PortfolioSummary struct {
	TotalPlans     int             `json:"total_plans"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	TotalRemaining decimal.Decimal `json:"total_remaining"`
}
