package models

import "time"

// PaymentStatus is the recorded state of one plan month.
type PaymentStatus string

const (
	StatusPaid    PaymentStatus = "Paid"
	StatusNotPaid PaymentStatus = "Not Paid"
)

// PaymentRecord is one ledger row: the payment status of a single month of a
// plan. Rows exist only for months that were explicitly marked; a missing row
// means Not Paid. PaymentMonth is always normalized to the first day of its
// calendar month, and (PlanID, PaymentMonth) is unique.
type PaymentRecord struct {
	PlanID       int64         `json:"plan_id"`
	PaymentMonth time.Time     `json:"payment_month"`
	Status       PaymentStatus `json:"status"`
	PaidAt       *time.Time    `json:"paid_at,omitempty"`
}
