// Package seed provides the example dataset used when a store is empty.
package seed

import (
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"tracker/internal/core"
)

//go:embed seed.yaml
var defaultYAML []byte

type taskSpec struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	DueInDays   int    `yaml:"due_in_days"`
	Status      string `yaml:"status"`
	Priority    string `yaml:"priority"`
	Category    string `yaml:"category"`
}

type expenseSpec struct {
	Amount        string `yaml:"amount"`
	Category      string `yaml:"category"`
	Description   string `yaml:"description"`
	DaysAgo       int    `yaml:"days_ago"`
	PaymentMethod string `yaml:"payment_method"`
}

type budgetSpec struct {
	Category string `yaml:"category"`
	Limit    string `yaml:"limit"`
	Period   string `yaml:"period"`
}

type timeEntrySpec struct {
	TaskTitle       string `yaml:"task_title"`
	StartedHoursAgo int    `yaml:"started_hours_ago"`
	DurationSeconds int64  `yaml:"duration_seconds"`
	Description     string `yaml:"description"`
}

type linkSpec struct {
	Title       string `yaml:"title"`
	URL         string `yaml:"url"`
	Description string `yaml:"description"`
	Category    string `yaml:"category"`
}

// Dataset is a parsed example dataset. Each method materializes records
// relative to now; ids start at 1.
type Dataset struct {
	Tasks       []taskSpec      `yaml:"tasks"`
	Expenses    []expenseSpec   `yaml:"expenses"`
	Budgets     []budgetSpec    `yaml:"budgets"`
	TimeEntries []timeEntrySpec `yaml:"time_entries"`
	Links       []linkSpec      `yaml:"links"`

	loc *time.Location
}

// Default returns the embedded dataset, with days counted in loc.
func Default(loc *time.Location) (*Dataset, error) {
	return Parse(defaultYAML, loc)
}

// Parse decodes a dataset and checks every record against the domain rules.
func Parse(data []byte, loc *time.Location) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parse seed data: %w", err)
	}
	if loc == nil {
		loc = time.Local
	}
	ds.loc = loc
	if err := ds.validate(); err != nil {
		return nil, err
	}
	return &ds, nil
}

func (ds *Dataset) validate() error {
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, ds.loc)
	for _, t := range ds.TasksAt(now) {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("seed task %q: %w", t.Title, err)
		}
	}
	for i, s := range ds.Expenses {
		if _, err := core.ParseMoney(s.Amount); err != nil {
			return fmt.Errorf("seed expense %d: %w", i, err)
		}
	}
	for _, e := range ds.ExpensesAt(now) {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("seed expense %q: %w", e.Description, err)
		}
	}
	for i, s := range ds.Budgets {
		if _, err := core.ParseMoney(s.Limit); err != nil {
			return fmt.Errorf("seed budget %d: %w", i, err)
		}
	}
	for _, b := range ds.BudgetsAt(now) {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("seed budget %q: %w", b.Category, err)
		}
	}
	for _, e := range ds.TimeEntriesAt(now) {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("seed time entry %q: %w", e.TaskTitle, err)
		}
	}
	for _, l := range ds.LinksAt(now) {
		if err := l.Validate(); err != nil {
			return fmt.Errorf("seed link %q: %w", l.Title, err)
		}
	}
	return nil
}

func (ds *Dataset) TasksAt(now time.Time) []core.Task {
	today := core.Today(now, ds.loc)
	out := make([]core.Task, 0, len(ds.Tasks))
	for i, s := range ds.Tasks {
		out = append(out, core.Task{
			ID:          int64(i + 1),
			Title:       s.Title,
			Description: s.Description,
			DueDate:     today.AddDays(s.DueInDays),
			Status:      core.TaskStatus(s.Status),
			Priority:    core.Priority(s.Priority),
			Category:    s.Category,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	return out
}

func (ds *Dataset) ExpensesAt(now time.Time) []core.Expense {
	today := core.Today(now, ds.loc)
	out := make([]core.Expense, 0, len(ds.Expenses))
	for i, s := range ds.Expenses {
		amount, _ := core.ParseMoney(s.Amount)
		out = append(out, core.Expense{
			ID:            int64(i + 1),
			Amount:        amount,
			Category:      s.Category,
			Description:   s.Description,
			Date:          today.AddDays(-s.DaysAgo),
			PaymentMethod: s.PaymentMethod,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}
	return out
}

func (ds *Dataset) BudgetsAt(time.Time) []core.Budget {
	out := make([]core.Budget, 0, len(ds.Budgets))
	for _, s := range ds.Budgets {
		limit, _ := core.ParseMoney(s.Limit)
		out = append(out, core.Budget{
			Category: s.Category,
			Limit:    limit,
			Period:   core.BudgetPeriod(s.Period),
		})
	}
	return out
}

func (ds *Dataset) TimeEntriesAt(now time.Time) []core.TimeEntry {
	out := make([]core.TimeEntry, 0, len(ds.TimeEntries))
	for i, s := range ds.TimeEntries {
		start := now.Add(-time.Duration(s.StartedHoursAgo) * time.Hour)
		end := start.Add(time.Duration(s.DurationSeconds) * time.Second)
		out = append(out, core.TimeEntry{
			ID:          int64(i + 1),
			TaskTitle:   s.TaskTitle,
			StartTime:   start,
			EndTime:     &end,
			Duration:    s.DurationSeconds,
			Description: s.Description,
			CreatedAt:   start,
		})
	}
	return out
}

func (ds *Dataset) LinksAt(now time.Time) []core.Link {
	out := make([]core.Link, 0, len(ds.Links))
	for i, s := range ds.Links {
		out = append(out, core.Link{
			ID:          int64(i + 1),
			Title:       s.Title,
			URL:         s.URL,
			Description: s.Description,
			Category:    s.Category,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	return out
}
