package reminder

import (
	"testing"
	"time"

	"github.com/homebudget/budget-service/internal/models"
	"github.com/homebudget/budget-service/internal/schedule"
)

func statusFor(start, end time.Time, payments ...models.PaymentRecord) models.PlanStatus {
	return models.PlanStatus{
		Plan:     models.Plan{ID: 1, Name: "Rent", StartDate: start, EndDate: end},
		Payments: payments,
	}
}

func TestDue(t *testing.T) {
	start := time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.June, 20, 0, 0, 0, 0, time.UTC)
	march := schedule.YearMonth{Year: 2025, Month: time.March}
	paidMarch := models.PaymentRecord{
		PlanID:       1,
		PaymentMonth: march.Time(),
		Status:       models.StatusPaid,
	}
	unpaidMarch := paidMarch
	unpaidMarch.Status = models.StatusNotPaid

	r := &Reminder{}

	cases := []struct {
		name    string
		status  models.PlanStatus
		current schedule.YearMonth
		want    bool
	}{
		{"no ledger row", statusFor(start, end), march, true},
		{"month marked paid", statusFor(start, end, paidMarch), march, false},
		{"month marked unpaid", statusFor(start, end, unpaidMarch), march, true},
		{"before plan start", statusFor(start, end), schedule.YearMonth{Year: 2024, Month: time.December}, false},
		{"after plan end", statusFor(start, end), schedule.YearMonth{Year: 2025, Month: time.July}, false},
		{"final schedule month", statusFor(start, end), schedule.YearMonth{Year: 2025, Month: time.June}, true},
	}

	for _, tc := range cases {
		if got := r.due(tc.status, tc.current); got != tc.want {
			t.Errorf("%s: due = %v, want %v", tc.name, got, tc.want)
		}
	}
}
