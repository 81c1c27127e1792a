// This file implements the period strategies used by spending aggregates.
// Each period (today, week, month, year) knows how to compute its start day;
// totals include everything dated on or after that day.

package core

import (
	"fmt"
	"time"
)

const (
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

const (
	BudgetDaily   BudgetPeriod = "daily"
	BudgetWeekly  BudgetPeriod = "weekly"
	BudgetMonthly BudgetPeriod = "monthly"
)

// Period selects the window used by TotalByPeriod.
type Period string

// BudgetPeriod is the recurrence a budget limit applies to.
type BudgetPeriod string

// PeriodStarter computes the first day of a period containing today.
type PeriodStarter interface {
	Start(today Date) Date
}

type DayStarter struct{}

func (DayStarter) Start(today Date) Date { return today }

// WeekStarter starts weeks on Sunday.
type WeekStarter struct{}

func (WeekStarter) Start(today Date) Date {
	return today.AddDays(-int(today.Weekday()))
}

type MonthStarter struct{}

func (MonthStarter) Start(today Date) Date {
	return NewDate(today.Year(), int(today.Month()), 1)
}

type YearStarter struct{}

func (YearStarter) Start(today Date) Date {
	return NewDate(today.Year(), 1, 1)
}

var periodStarters = map[Period]PeriodStarter{
	PeriodToday: DayStarter{},
	PeriodWeek:  WeekStarter{},
	PeriodMonth: MonthStarter{},
	PeriodYear:  YearStarter{},
}

// ParsePeriod validates a user supplied period name.
func ParsePeriod(s string) (Period, error) {
	p := Period(s)
	if _, ok := periodStarters[p]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return p, nil
}

// PeriodStart returns the first day of period p relative to today.
func PeriodStart(p Period, today Date) (Date, error) {
	starter, ok := periodStarters[p]
	if !ok {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, p)
	}
	return starter.Start(today), nil
}

func (p BudgetPeriod) Valid() bool {
	switch p {
	case BudgetDaily, BudgetWeekly, BudgetMonthly:
		return true
	}
	return false
}

// Window maps a budget recurrence onto the aggregation period it is measured against.
func (p BudgetPeriod) Window() Period {
	switch p {
	case BudgetDaily:
		return PeriodToday
	case BudgetWeekly:
		return PeriodWeek
	default:
		return PeriodMonth
	}
}

// Today returns the current calendar day in loc.
func Today(now time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.Local
	}
	return DateOf(now.In(loc))
}
