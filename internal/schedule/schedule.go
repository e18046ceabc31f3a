package schedule

import (
	"fmt"
	"time"

	"github.com/homebudget/budget-service/internal/apperr"
)

// YearMonth identifies one calendar month. It is the key form used by the
// payment ledger: every date is truncated to its month before any lookup.
type YearMonth struct {
	Year  int
	Month time.Month
}

// MonthOf truncates a date to its calendar month.
func MonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// ParseMonth accepts a bare year-month ("2025-06") or a full date
// ("2025-06-15"); both forms of the same month normalize to the same key.
func ParseMonth(s string) (YearMonth, error) {
	if t, err := time.Parse("2006-01", s); err == nil {
		return MonthOf(t), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return YearMonth{}, apperr.Validation("invalid month %q: want YYYY-MM or YYYY-MM-DD", s)
	}
	return MonthOf(t), nil
}

// Time returns the first day of the month at midnight UTC, the canonical
// persisted form of a ledger key.
func (m YearMonth) Time() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (m YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Next steps one calendar month forward, rolling the year over after December.
func (m YearMonth) Next() YearMonth {
	return MonthOf(m.Time().AddDate(0, 1, 0))
}

// Before reports whether m is strictly earlier than o.
func (m YearMonth) Before(o YearMonth) bool {
	return m.Year < o.Year || (m.Year == o.Year && m.Month < o.Month)
}

// Months lists every calendar month from start's month through end's month
// inclusive, in chronological order. Day-of-month is discarded on both ends,
// so a range contained in a single month yields exactly that month. A start
// month after the end month is a ValidationError.
func Months(start, end time.Time) ([]YearMonth, error) {
	from, to := MonthOf(start), MonthOf(end)
	if to.Before(from) {
		return nil, apperr.Validation("invalid date range: %s is after %s", from, to)
	}
	var months []YearMonth
	for m := from; !to.Before(m); m = m.Next() {
		months = append(months, m)
	}
	return months, nil
}
