package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tracker/internal/app"
	"tracker/internal/core"
	"tracker/internal/services"
)

// NewExpenseCommand creates the expense command group.
func NewExpenseCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "expense",
		Aliases: []string{"spend"},
		Short:   "Record and summarise expenses",
	}
	cmd.AddCommand(newExpenseAddCommand(rootOpts))
	cmd.AddCommand(newExpenseListCommand(rootOpts))
	cmd.AddCommand(newExpenseUpdateCommand(rootOpts))
	cmd.AddCommand(newExpenseRemoveCommand(rootOpts))
	cmd.AddCommand(newExpenseTotalCommand(rootOpts))
	cmd.AddCommand(newExpenseByCategoryCommand(rootOpts))
	return cmd
}

func categoryValues() string {
	vals := make([]string, 0, len(core.ExpenseCategories))
	for _, o := range core.ExpenseCategories {
		vals = append(vals, o.Value)
	}
	return strings.Join(vals, "|")
}

func newExpenseAddCommand(rootOpts *RootOptions) *cobra.Command {
	var in struct{ category, description, date, payment string }
	cmd := &cobra.Command{
		Use:   "add <amount>",
		Short: "Record an expense",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&in.category, "category", "", categoryValues())
	cmd.Flags().StringVar(&in.description, "description", "", "what the money went on")
	cmd.Flags().StringVar(&in.date, "date", "", "expense date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&in.payment, "payment", "", "payment method")
	_ = cmd.MarkFlagRequired("category")

	return rootOpts.withApp(cmd, true, func(cmd *cobra.Command, args []string, a *app.App, out *OutputFormatter) error {
		amount, err := core.ParseMoney(args[0])
		if err != nil {
			return failed("invalid amount", err)
		}
		ne := services.NewExpense{
			Amount:        amount,
			Category:      in.category,
			Description:   in.description,
			PaymentMethod: in.payment,
		}
		if in.date != "" {
			if ne.Date, err = core.ParseDate(in.date); err != nil {
				return failed("invalid --date", err)
			}
		}
		e, err := a.Spending.Create(cmd.Context(), ne)
		if err != nil {
			return failed("could not record expense", err)
		}
		return out.Success(e, func(w io.Writer) {
			fmt.Fprintf(w, "Recorded expense %d: %s on %s\n", e.ID, formatMoney(e.Amount), core.CategoryLabel(e.Category))
		})
	})
}

func newExpenseListCommand(rootOpts *RootOptions) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List expenses, newest first",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&category, "category", "", "only expenses in this category")

	return rootOpts.withApp(cmd, true, func(_ *cobra.Command, _ []string, a *app.App, out *OutputFormatter) error {
		expenses := a.Spending.List()
		if category != "" {
			expenses = a.Spending.ByCategory(category)
		}
		return out.Success(expenses, func(w io.Writer) {
			rows := make([][]string, 0, len(expenses))
			for _, e := range expenses {
				rows = append(rows, []string{
					strconv.FormatInt(e.ID, 10), e.Date.String(), formatMoney(e.Amount),
					core.CategoryLabel(e.Category), e.PaymentMethod, e.Description,
				})
			}
			table(w, []string{"ID", "DATE", "AMOUNT", "CATEGORY", "PAYMENT", "DESCRIPTION"}, rows)
		})
	})
}

func newExpenseUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of an expense",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().String("amount", "", "new amount")
	cmd.Flags().String("category", "", "new category")
	cmd.Flags().String("description", "", "new description")
	cmd.Flags().String("date", "", "new date (YYYY-MM-DD)")
	cmd.Flags().String("payment", "", "new payment method")

	return rootOpts.withApp(cmd, true, func(cmd *cobra.Command, args []string, a *app.App, out *OutputFormatter) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		date, err := optionalDate(cmd, "date")
		if err != nil {
			return err
		}
		patch := services.ExpensePatch{
			Category:      changed(cmd, "category"),
			Description:   changed(cmd, "description"),
			Date:          date,
			PaymentMethod: changed(cmd, "payment"),
		}
		if raw := changed(cmd, "amount"); raw != nil {
			m, err := core.ParseMoney(*raw)
			if err != nil {
				return failed("invalid --amount", err)
			}
			patch.Amount = &m
		}
		e, ok, err := a.Spending.Update(cmd.Context(), id, patch)
		if err != nil {
			return failed("could not update expense", err)
		}
		if !ok {
			return notFound("expense", id)
		}
		return out.Success(e, func(w io.Writer) { fmt.Fprintf(w, "Updated expense %d\n", e.ID) })
	})
}

func newExpenseRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete an expense",
		Args:    cobra.ExactArgs(1),
	}
	return rootOpts.withApp(cmd, true, func(cmd *cobra.Command, args []string, a *app.App, out *OutputFormatter) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		ok, err := a.Spending.Delete(cmd.Context(), id)
		if err != nil {
			return failed("could not delete expense", err)
		}
		if !ok {
			return notFound("expense", id)
		}
		return out.Success(map[string]int64{"deleted": id}, func(w io.Writer) { fmt.Fprintf(w, "Deleted expense %d\n", id) })
	})
}

type totalView struct {
	Period core.Period `json:"period"`
	Total  core.Money  `json:"totalCents"`
}

func newExpenseTotalCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "total [today|week|month|year]",
		Short: "Sum expenses since the start of a period",
		Args:  cobra.MaximumNArgs(1),
	}
	return rootOpts.withApp(cmd, true, func(_ *cobra.Command, args []string, a *app.App, out *OutputFormatter) error {
		raw := string(core.PeriodMonth)
		if len(args) == 1 {
			raw = args[0]
		}
		period, err := core.ParsePeriod(raw)
		if err != nil {
			return failed("invalid period", err)
		}
		total, err := a.Spending.TotalByPeriod(period)
		if err != nil {
			return failed("could not compute total", err)
		}
		return out.Success(totalView{Period: period, Total: total}, func(w io.Writer) {
			fmt.Fprintf(w, "Total (%s): %s\n", period, formatMoney(total))
		})
	})
}

func newExpenseByCategoryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "by-category",
		Short: "Totals per category, largest first",
		Args:  cobra.NoArgs,
	}
	return rootOpts.withApp(cmd, true, func(_ *cobra.Command, _ []string, a *app.App, out *OutputFormatter) error {
		totals := a.Spending.ExpensesByCategory()
		return out.Success(totals, func(w io.Writer) {
			rows := make([][]string, 0, len(totals))
			for _, t := range totals {
				rows = append(rows, []string{core.CategoryLabel(t.Category), formatMoney(t.Total), strconv.Itoa(t.Count)})
			}
			table(w, []string{"CATEGORY", "TOTAL", "COUNT"}, rows)
		})
	})
}
