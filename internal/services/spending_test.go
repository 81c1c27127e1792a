package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracker/internal/core"
)

func seededSpending(t *testing.T) *SpendingService {
	t.Helper()
	s := NewSpendingService(seededDeps(t, newClock()))
	require.NoError(t, s.Load(context.Background()))
	return s
}

func TestTotalByPeriodOverSeed(t *testing.T) {
	s := seededSpending(t)
	// today 2025-03-12 (Wed): 45.50 today, 120.00 + 15.00 on the 11th,
	// 89.99 + 25.00 on the 5th.
	cases := []struct {
		period core.Period
		cents  int64
	}{
		{core.PeriodToday, 4550},
		{core.PeriodWeek, 4550 + 12000 + 1500},
		{core.PeriodMonth, 4550 + 12000 + 1500 + 8999 + 2500},
		{core.PeriodYear, 4550 + 12000 + 1500 + 8999 + 2500},
	}
	for _, tc := range cases {
		got, err := s.TotalByPeriod(tc.period)
		require.NoError(t, err)
		assert.Equal(t, tc.cents, got.Cents, tc.period)
	}

	_, err := s.TotalByPeriod("decade")
	assert.ErrorIs(t, err, core.ErrInvalidPeriod)
}

func TestTotalIncludesFutureDates(t *testing.T) {
	ctx := context.Background()
	s := NewSpendingService(emptyDeps(newClock()))
	_, err := s.Create(ctx, NewExpense{Amount: core.Money{Cents: 1000}, Category: "travel", Date: core.NewDate(2025, 4, 1)})
	require.NoError(t, err)
	_, err = s.Create(ctx, NewExpense{Amount: core.Money{Cents: 300}, Category: "travel", Date: core.NewDate(2025, 3, 11)})
	require.NoError(t, err)

	got, err := s.TotalByPeriod(core.PeriodToday)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), got.Cents)
}

func TestCreateExpenseInsertsAtHead(t *testing.T) {
	ctx := context.Background()
	s := seededSpending(t)
	e, err := s.Create(ctx, NewExpense{
		Amount:        core.Money{Cents: 999},
		Category:      "health",
		Description:   "Vitamins",
		PaymentMethod: "cash",
	})
	require.NoError(t, err)
	assert.True(t, e.Date.Equal(core.NewDate(2025, 3, 12)), "zero date defaults to today")
	assert.Equal(t, e, s.List()[0])
	assert.Equal(t, int64(6), e.ID)
}

func TestCreateExpenseValidation(t *testing.T) {
	ctx := context.Background()
	s := NewSpendingService(emptyDeps(newClock()))
	_, err := s.Create(ctx, NewExpense{Amount: core.Money{Cents: 0}, Category: "food"})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
	_, err = s.Create(ctx, NewExpense{Amount: core.Money{Cents: 10}, Category: "pets"})
	assert.ErrorIs(t, err, core.ErrInvalidCategory)
	_, err = s.Create(ctx, NewExpense{Amount: core.Money{Cents: 10}, Category: "food", PaymentMethod: "barter"})
	assert.ErrorIs(t, err, core.ErrInvalidPaymentMethod)
	assert.Empty(t, s.List())
}

func TestUpdateAndDeleteExpense(t *testing.T) {
	ctx := context.Background()
	s := seededSpending(t)

	e, ok, err := s.Update(ctx, 1, ExpensePatch{Amount: ptr(core.Money{Cents: 5000}), Description: ptr("Dinner")})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(5000), e.Amount.Cents)
	assert.Equal(t, "food", e.Category)

	_, ok, err = s.Update(ctx, 404, ExpensePatch{Description: ptr("nope")})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Delete(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	_, found := s.Get(1)
	assert.False(t, found)
	assert.Len(t, s.ByCategory("food"), 0)
}

func TestExpensesByCategory(t *testing.T) {
	ctx := context.Background()
	s := NewSpendingService(emptyDeps(newClock()))
	add := func(cents int64, cat string) {
		_, err := s.Create(ctx, NewExpense{Amount: core.Money{Cents: cents}, Category: cat})
		require.NoError(t, err)
	}
	// Inserted at head, so "seen first" follows reverse insertion order.
	add(500, "food")
	add(1000, "bills")
	add(700, "transport")
	add(300, "food")
	add(800, "shopping")

	got := s.ExpensesByCategory()
	assert.Equal(t, []core.CategoryTotal{
		{Category: "bills", Total: core.Money{Cents: 1000}, Count: 1},
		{Category: "shopping", Total: core.Money{Cents: 800}, Count: 1},
		{Category: "food", Total: core.Money{Cents: 800}, Count: 2},
		{Category: "transport", Total: core.Money{Cents: 700}, Count: 1},
	}, got)
}

func TestBudgetStatus(t *testing.T) {
	ctx := context.Background()
	s := seededSpending(t)

	st, err := s.BudgetStatus("food")
	require.NoError(t, err)
	require.NotNil(t, st.Budget)
	assert.Equal(t, int64(4550), st.Spent.Cents)
	assert.Equal(t, int64(50000-4550), st.Remaining.Cents)
	assert.InDelta(t, 9.1, st.Percentage, 0.0001)

	none, err := s.BudgetStatus("travel")
	require.NoError(t, err)
	assert.Nil(t, none.Budget)
	assert.Zero(t, none.Spent.Cents)
	assert.Zero(t, none.Percentage)

	_, err = s.Create(ctx, NewExpense{Amount: core.Money{Cents: 60000}, Category: "food"})
	require.NoError(t, err)
	over, err := s.BudgetStatus("food")
	require.NoError(t, err)
	assert.Equal(t, float64(100), over.Percentage)
	assert.Negative(t, over.Remaining.Cents)
}

func TestBudgetStatusUsesBudgetPeriod(t *testing.T) {
	ctx := context.Background()
	s := seededSpending(t)
	// Entertainment has 25.00 a week ago; a daily budget ignores it.
	_, err := s.SetBudget(ctx, core.Budget{Category: "entertainment", Limit: core.Money{Cents: 2000}, Period: core.BudgetDaily})
	require.NoError(t, err)
	st, err := s.BudgetStatus("entertainment")
	require.NoError(t, err)
	assert.Zero(t, st.Spent.Cents)

	_, err = s.SetBudget(ctx, core.Budget{Category: "entertainment", Limit: core.Money{Cents: 2000}, Period: core.BudgetMonthly})
	require.NoError(t, err)
	st, err = s.BudgetStatus("entertainment")
	require.NoError(t, err)
	assert.Equal(t, int64(2500), st.Spent.Cents)
	assert.Equal(t, float64(100), st.Percentage)
}

func TestSetBudgetUpsertsByCategory(t *testing.T) {
	ctx := context.Background()
	d := seededDeps(t, newClock())
	s := NewSpendingService(d)
	require.NoError(t, s.Load(ctx))
	require.Len(t, s.Budgets(), 3)

	_, err := s.SetBudget(ctx, core.Budget{Category: "food", Limit: core.Money{Cents: 70000}, Period: core.BudgetWeekly})
	require.NoError(t, err)
	_, err = s.SetBudget(ctx, core.Budget{Category: "travel", Limit: core.Money{Cents: 100000}, Period: core.BudgetMonthly})
	require.NoError(t, err)

	budgets := s.Budgets()
	require.Len(t, budgets, 4)
	food, ok := s.Budget("food")
	require.True(t, ok)
	assert.Equal(t, core.BudgetWeekly, food.Period)

	_, err = s.SetBudget(ctx, core.Budget{Category: "food", Limit: core.Money{Cents: -1}, Period: core.BudgetWeekly})
	assert.ErrorIs(t, err, core.ErrInvalidBudgetLimit)

	// Reloaded from storage.
	again := NewSpendingService(d)
	require.NoError(t, again.Load(ctx))
	assert.Equal(t, budgets, again.Budgets())

	removed, err := again.RemoveBudget(ctx, "travel")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = again.RemoveBudget(ctx, "travel")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Len(t, again.Budgets(), 3)
}

func TestSpendingTable(t *testing.T) {
	s := seededSpending(t)
	tbl := s.Table()
	require.Len(t, tbl.Rows, 5)
	assert.Equal(t, []string{"1", "2025-03-12", "45.50", "Food & Dining", "Lunch at restaurant", "credit_card", "2025-03-12", "2025-03-12"}, tbl.Rows[0])
}
