package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plan represents a budget commitment: a total amount paid off in fixed
// monthly installments between two dates. Plans are immutable after creation.
type Plan struct {
	ID            int64           `json:"id"`
	Name          string          `json:"plan_name"`
	StartDate     time.Time       `json:"start_date"`
	EndDate       time.Time       `json:"end_date"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	MonthlyAmount decimal.Decimal `json:"monthly_amount"`
	CreatedAt     time.Time       `json:"created_at"`
}
