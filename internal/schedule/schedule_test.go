package schedule

import (
	"testing"
	"time"

	"github.com/homebudget/budget-service/internal/apperr"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMonthsSingleMonth(t *testing.T) {
	months, err := Months(date(2025, time.January, 15), date(2025, time.January, 28))
	if err != nil {
		t.Fatalf("Months failed: %v", err)
	}
	if len(months) != 1 {
		t.Fatalf("Expected 1 month, got %d", len(months))
	}
	if months[0].String() != "2025-01" {
		t.Errorf("Expected 2025-01, got %s", months[0])
	}
}

func TestMonthsYearRollover(t *testing.T) {
	months, err := Months(date(2024, time.November, 10), date(2025, time.February, 3))
	if err != nil {
		t.Fatalf("Months failed: %v", err)
	}
	want := []string{"2024-11", "2024-12", "2025-01", "2025-02"}
	if len(months) != len(want) {
		t.Fatalf("Expected %d months, got %d", len(want), len(months))
	}
	for i, w := range want {
		if months[i].String() != w {
			t.Errorf("Month %d: expected %s, got %s", i, w, months[i])
		}
	}
}

func TestMonthsInvalidRange(t *testing.T) {
	_, err := Months(date(2025, time.March, 1), date(2025, time.February, 28))
	if err == nil {
		t.Fatal("Expected error for start after end")
	}
	if !apperr.IsValidation(err) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestMonthsStrictlyIncreasing(t *testing.T) {
	start := date(2023, time.June, 20)
	end := date(2026, time.March, 5)
	months, err := Months(start, end)
	if err != nil {
		t.Fatalf("Months failed: %v", err)
	}
	if len(months) == 0 {
		t.Fatal("Expected non-empty sequence")
	}
	if months[0] != MonthOf(start) {
		t.Errorf("First month %s does not match start month %s", months[0], MonthOf(start))
	}
	if months[len(months)-1] != MonthOf(end) {
		t.Errorf("Last month %s does not match end month %s", months[len(months)-1], MonthOf(end))
	}
	for i := 1; i < len(months); i++ {
		if months[i] != months[i-1].Next() {
			t.Errorf("Month %s does not follow %s by exactly one month", months[i], months[i-1])
		}
	}
}

func TestParseMonthNormalization(t *testing.T) {
	bare, err := ParseMonth("2025-06")
	if err != nil {
		t.Fatalf("ParseMonth bare form failed: %v", err)
	}
	full, err := ParseMonth("2025-06-01")
	if err != nil {
		t.Fatalf("ParseMonth full form failed: %v", err)
	}
	if bare != full {
		t.Errorf("Forms normalize differently: %s vs %s", bare, full)
	}
	midMonth, err := ParseMonth("2025-06-17")
	if err != nil {
		t.Fatalf("ParseMonth mid-month date failed: %v", err)
	}
	if midMonth != bare {
		t.Errorf("Mid-month date normalized to %s, want %s", midMonth, bare)
	}
	if !bare.Time().Equal(date(2025, time.June, 1)) {
		t.Errorf("Canonical time %s is not first of month", bare.Time())
	}
}

func TestParseMonthInvalid(t *testing.T) {
	for _, s := range []string{"", "June 2025", "2025/06", "2025-13"} {
		if _, err := ParseMonth(s); err == nil || !apperr.IsValidation(err) {
			t.Errorf("ParseMonth(%q): expected validation error, got %v", s, err)
		}
	}
}

func TestNextRollsYearOver(t *testing.T) {
	next := YearMonth{Year: 2024, Month: time.December}.Next()
	if next != (YearMonth{Year: 2025, Month: time.January}) {
		t.Errorf("Expected 2025-01, got %s", next)
	}
}
