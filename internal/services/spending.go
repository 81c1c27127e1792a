package services

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"tracker/internal/core"
	"tracker/internal/log"
	"tracker/internal/records"
	"tracker/internal/sheets"
)

// NewExpense holds the fields of an expense to create. A zero date means today.
type NewExpense struct {
	Amount        core.Money
	Category      string
	Description   string
	Date          core.Date
	PaymentMethod string
}

type ExpensePatch struct {
	Amount        *core.Money
	Category      *string
	Description   *string
	Date          *core.Date
	PaymentMethod *string
}

// SpendingService manages expenses and per-category budgets.
type SpendingService struct {
	expenses *records.Collection[core.Expense]
	budgets  *records.Slot[[]core.Budget]
	// budgetMu serializes read-modify-write of the budget list.
	budgetMu sync.Mutex
	change   change
	now      func() time.Time
	loc      *time.Location
	log      *log.Logger
}

func NewSpendingService(d Deps) *SpendingService {
	d = d.withDefaults()
	var expenseSeed func(time.Time) []core.Expense
	var budgetSeed func(time.Time) []core.Budget
	if d.Seed != nil {
		expenseSeed = d.Seed.ExpensesAt
		budgetSeed = d.Seed.BudgetsAt
	}
	logger := d.Logger.WithComponent(log.ComponentSpending)
	return &SpendingService{
		expenses: records.NewCollection(d.Store, KeyExpenses, expenseSeed, d.recordOptions()),
		budgets:  records.NewSlot(d.Store, KeyBudgets, budgetSeed, d.recordOptions()),
		change:   change{notifier: d.Notifier, log: logger},
		now:      d.Clock,
		loc:      d.Location,
		log:      logger,
	}
}

func (s *SpendingService) Load(ctx context.Context) error {
	if err := s.expenses.Load(ctx); err != nil {
		return err
	}
	return s.budgets.Load(ctx)
}

func (s *SpendingService) Reload(ctx context.Context) error {
	if err := s.expenses.Reload(ctx); err != nil {
		return err
	}
	return s.budgets.Reload(ctx)
}

// Create inserts the expense at the head.
func (s *SpendingService) Create(ctx context.Context, in NewExpense) (core.Expense, error) {
	e, err := s.expenses.Insert(ctx, records.Head, func(id int64, now time.Time) (core.Expense, error) {
		e := core.Expense{
			ID:            id,
			Amount:        in.Amount,
			Category:      in.Category,
			Description:   strings.TrimSpace(in.Description),
			Date:          in.Date,
			PaymentMethod: in.PaymentMethod,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if e.Date.IsZero() {
			e.Date = core.Today(now, s.loc)
		}
		return e, e.Validate()
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	s.log.InfoContext(ctx, "expense created", log.FieldOperation, log.OpCreate, log.FieldID, e.ID, "amount_cents", e.Amount.Cents)
	s.change.publish(ctx, KeyExpenses, e.ID, ChangeCreate)
	return e, nil
}

func (s *SpendingService) Update(ctx context.Context, id int64, patch ExpensePatch) (core.Expense, bool, error) {
	e, ok, err := s.expenses.Update(ctx, id, func(e *core.Expense, now time.Time) error {
		if patch.Amount != nil {
			e.Amount = *patch.Amount
		}
		if patch.Category != nil {
			e.Category = *patch.Category
		}
		if patch.Description != nil {
			e.Description = strings.TrimSpace(*patch.Description)
		}
		if patch.Date != nil {
			e.Date = *patch.Date
		}
		if patch.PaymentMethod != nil {
			e.PaymentMethod = *patch.PaymentMethod
		}
		e.UpdatedAt = now
		return e.Validate()
	})
	if err != nil {
		return core.Expense{}, false, fmt.Errorf("update expense %d: %w", id, err)
	}
	if ok {
		s.log.InfoContext(ctx, "expense updated", log.FieldOperation, log.OpUpdate, log.FieldID, id)
		s.change.publish(ctx, KeyExpenses, id, ChangeUpdate)
	}
	return e, ok, nil
}

func (s *SpendingService) Delete(ctx context.Context, id int64) (bool, error) {
	ok, err := s.expenses.Remove(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete expense %d: %w", id, err)
	}
	if ok {
		s.log.InfoContext(ctx, "expense deleted", log.FieldOperation, log.OpDelete, log.FieldID, id)
		s.change.publish(ctx, KeyExpenses, id, ChangeDelete)
	}
	return ok, nil
}

func (s *SpendingService) Get(id int64) (core.Expense, bool) { return s.expenses.Get(id) }

// List returns expenses newest-inserted first.
func (s *SpendingService) List() []core.Expense { return s.expenses.All() }

func (s *SpendingService) ByCategory(category string) []core.Expense {
	return s.expenses.Filter(func(e core.Expense) bool { return e.Category == category })
}

// TotalByPeriod sums expenses dated on or after the start of period.
// Future-dated expenses are included.
func (s *SpendingService) TotalByPeriod(period core.Period) (core.Money, error) {
	return s.totalSince(period, "")
}

func (s *SpendingService) totalSince(period core.Period, category string) (core.Money, error) {
	start, err := core.PeriodStart(period, core.Today(s.now(), s.loc))
	if err != nil {
		return core.Money{}, err
	}
	var total core.Money
	for _, e := range s.expenses.All() {
		if category != "" && e.Category != category {
			continue
		}
		if !e.Date.Before(start.Time) {
			total = total.Add(e.Amount)
		}
	}
	return total, nil
}

// ExpensesByCategory groups all expenses by category, largest total first.
// Equal totals keep the order in which categories were first seen.
func (s *SpendingService) ExpensesByCategory() []core.CategoryTotal {
	var out []core.CategoryTotal
	index := map[string]int{}
	for _, e := range s.expenses.All() {
		i, ok := index[e.Category]
		if !ok {
			i = len(out)
			index[e.Category] = i
			out = append(out, core.CategoryTotal{Category: e.Category})
		}
		out[i].Total = out[i].Total.Add(e.Amount)
		out[i].Count++
	}
	slices.SortStableFunc(out, func(a, b core.CategoryTotal) int {
		switch {
		case a.Total.Cents > b.Total.Cents:
			return -1
		case a.Total.Cents < b.Total.Cents:
			return 1
		}
		return 0
	})
	return out
}

// Budgets returns the configured budgets.
func (s *SpendingService) Budgets() []core.Budget {
	b, _ := s.budgets.Get()
	return slices.Clone(b)
}

// Budget returns the budget for category, if any.
func (s *SpendingService) Budget(category string) (core.Budget, bool) {
	for _, b := range s.Budgets() {
		if b.Category == category {
			return b, true
		}
	}
	return core.Budget{}, false
}

// SetBudget creates or replaces the budget for b.Category.
func (s *SpendingService) SetBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, fmt.Errorf("set budget: %w", err)
	}
	s.budgetMu.Lock()
	defer s.budgetMu.Unlock()
	if err := s.budgets.Load(ctx); err != nil {
		return core.Budget{}, err
	}

	next := s.Budgets()
	if i := slices.IndexFunc(next, func(x core.Budget) bool { return x.Category == b.Category }); i >= 0 {
		next[i] = b
	} else {
		next = append(next, b)
	}
	if err := s.budgets.Set(ctx, next); err != nil {
		return core.Budget{}, fmt.Errorf("set budget: %w", err)
	}
	s.log.InfoContext(ctx, "budget set", log.FieldOperation, log.OpUpdate, "category", b.Category, "limit_cents", b.Limit.Cents)
	return b, nil
}

// RemoveBudget deletes the budget for category and reports whether one existed.
func (s *SpendingService) RemoveBudget(ctx context.Context, category string) (bool, error) {
	s.budgetMu.Lock()
	defer s.budgetMu.Unlock()
	if err := s.budgets.Load(ctx); err != nil {
		return false, err
	}

	current := s.Budgets()
	next := slices.DeleteFunc(slices.Clone(current), func(x core.Budget) bool { return x.Category == category })
	if len(next) == len(current) {
		return false, nil
	}
	if err := s.budgets.Set(ctx, next); err != nil {
		return false, fmt.Errorf("remove budget: %w", err)
	}
	s.log.InfoContext(ctx, "budget removed", log.FieldOperation, log.OpDelete, "category", category)
	return true, nil
}

// BudgetStatus measures spending in category over the budget's own period.
// Without a budget the status carries zero values and a nil Budget.
func (s *SpendingService) BudgetStatus(category string) (core.BudgetStatus, error) {
	b, ok := s.Budget(category)
	if !ok {
		return core.BudgetStatus{}, nil
	}
	spent, err := s.totalSince(b.Period.Window(), category)
	if err != nil {
		return core.BudgetStatus{}, err
	}
	return core.NewBudgetStatus(b, spent), nil
}

// Table renders all expenses for spreadsheet export.
func (s *SpendingService) Table() sheets.Table {
	t := sheets.Table{
		Name:   "Expenses",
		Header: []string{"ID", "Date", "Amount", "Category", "Description", "Payment Method", "Created At", "Updated At"},
		Widths: []float64{8, 12, 12, 20, 40, 18, 15, 15},
	}
	for _, e := range s.expenses.All() {
		t.Rows = append(t.Rows, []string{
			strconv.FormatInt(e.ID, 10),
			e.Date.String(),
			e.Amount.Decimal(),
			core.CategoryLabel(e.Category),
			e.Description,
			e.PaymentMethod,
			formatDay(e.CreatedAt, s.loc),
			formatDay(e.UpdatedAt, s.loc),
		})
	}
	return t
}
