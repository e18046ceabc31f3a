package progress

import (
	"github.com/shopspring/decimal"

	"github.com/homebudget/budget-service/internal/models"
	"github.com/homebudget/budget-service/internal/schedule"
)

// Compute derives a plan's payment progress from its ledger rows. Schedule
// months with no matching row count as Not Paid, and rows for months outside
// the plan's schedule are ignored. BalancePaid may overshoot TotalAmount when
// the final installment is partial; that is not an error, only
// RemainingAmount is clamped at zero.
func Compute(plan *models.Plan, records []models.PaymentRecord) (*models.PlanProgress, error) {
	months, err := schedule.Months(plan.StartDate, plan.EndDate)
	if err != nil {
		return nil, err
	}

	statusByMonth := make(map[schedule.YearMonth]models.PaymentStatus, len(records))
	for _, rec := range records {
		statusByMonth[schedule.MonthOf(rec.PaymentMonth)] = rec.Status
	}

	paid := 0
	for _, m := range months {
		if statusByMonth[m] == models.StatusPaid {
			paid++
		}
	}

	balance := plan.MonthlyAmount.Mul(decimal.NewFromInt(int64(paid)))
	remaining := plan.TotalAmount.Sub(balance)

	state := models.StateInProgress
	if remaining.LessThanOrEqual(decimal.Zero) {
		state = models.StateCompleted
	}
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	return &models.PlanProgress{
		PaidMonthsCount: paid,
		TotalMonths:     len(months),
		BalancePaid:     balance,
		RemainingAmount: remaining,
		Completion:      state,
	}, nil
}

// Summarize folds per-plan progress into a single portfolio row.
// TotalRemaining sums each plan's unclamped remainder (total minus balance
// paid), so an overpaid plan offsets the portfolio total instead of counting
// as zero.
func Summarize(statuses []models.PlanStatus) models.PortfolioSummary {
	sum := models.PortfolioSummary{
		TotalPaid:      decimal.Zero,
		TotalRemaining: decimal.Zero,
	}
	for _, st := range statuses {
		sum.TotalPlans++
		sum.TotalPaid = sum.TotalPaid.Add(st.Progress.BalancePaid)
		sum.TotalRemaining = sum.TotalRemaining.Add(st.Plan.TotalAmount.Sub(st.Progress.BalancePaid))
	}
	return sum
}
