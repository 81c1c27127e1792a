package core

import (
	"errors"
	"testing"
	"time"
)

func TestPeriodStart(t *testing.T) {
	// Wednesday
	today := NewDate(2025, 3, 12)
	cases := []struct {
		p    Period
		want Date
	}{
		{PeriodToday, NewDate(2025, 3, 12)},
		{PeriodWeek, NewDate(2025, 3, 9)}, // Sunday
		{PeriodMonth, NewDate(2025, 3, 1)},
		{PeriodYear, NewDate(2025, 1, 1)},
	}
	for _, tc := range cases {
		got, err := PeriodStart(tc.p, today)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.p, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("%s: expected %s, got %s", tc.p, tc.want, got)
		}
	}
}

func TestWeekStartsOnSunday(t *testing.T) {
	sunday := NewDate(2025, 3, 9)
	if got := (WeekStarter{}).Start(sunday); !got.Equal(sunday) {
		t.Fatalf("sunday should start its own week, got %s", got)
	}
	saturday := NewDate(2025, 3, 15)
	if got := (WeekStarter{}).Start(saturday); !got.Equal(sunday) {
		t.Fatalf("expected %s, got %s", sunday, got)
	}
}

func TestParsePeriod(t *testing.T) {
	if _, err := ParsePeriod("month"); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if _, err := ParsePeriod("fortnight"); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestBudgetPeriodWindow(t *testing.T) {
	cases := map[BudgetPeriod]Period{
		BudgetDaily:   PeriodToday,
		BudgetWeekly:  PeriodWeek,
		BudgetMonthly: PeriodMonth,
	}
	for bp, want := range cases {
		if got := bp.Window(); got != want {
			t.Fatalf("%s: expected %s, got %s", bp, want, got)
		}
	}
}

func TestToday(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	now := time.Date(2025, 3, 12, 20, 0, 0, 0, time.UTC)
	if got := Today(now, loc); !got.Equal(NewDate(2025, 3, 13)) {
		t.Fatalf("expected 2025-03-13, got %s", got)
	}
}

func TestNewBudgetStatusCapsPercentage(t *testing.T) {
	b := Budget{Category: "food", Limit: Money{Cents: 10000}, Period: BudgetMonthly}
	st := NewBudgetStatus(b, Money{Cents: 2500})
	if st.Percentage != 25 || st.Remaining.Cents != 7500 {
		t.Fatalf("unexpected status %+v", st)
	}
	over := NewBudgetStatus(b, Money{Cents: 15000})
	if over.Percentage != 100 {
		t.Fatalf("expected 100, got %v", over.Percentage)
	}
	if over.Remaining.Cents != -5000 {
		t.Fatalf("expected -5000 remaining, got %d", over.Remaining.Cents)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := map[int64]string{
		0:    "0s",
		3:    "3s",
		123:  "2m 3s",
		3723: "1h 2m 3s",
		3600: "1h 0m 0s",
		-5:   "0s",
	}
	for in, want := range cases {
		if got := FormatDuration(in); got != want {
			t.Fatalf("%d: expected %q, got %q", in, want, got)
		}
	}
}
