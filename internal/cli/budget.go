package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"tracker/internal/app"
	"tracker/internal/core"
)

// NewBudgetCommand creates the budget command group.
func NewBudgetCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Manage per-category budgets",
	}
	cmd.AddCommand(newBudgetSetCommand(rootOpts))
	cmd.AddCommand(newBudgetRemoveCommand(rootOpts))
	cmd.AddCommand(newBudgetStatusCommand(rootOpts))
	cmd.AddCommand(newBudgetListCommand(rootOpts))
	return cmd
}

func newBudgetSetCommand(rootOpts *RootOptions) *cobra.Command {
	var period string
	cmd := &cobra.Command{
		Use:   "set <category> <limit>",
		Short: "Create or replace the budget of a category",
		Args:  cobra.ExactArgs(2),
	}
	cmd.Flags().StringVar(&period, "period", string(core.BudgetMonthly), "daily|weekly|monthly")

	return rootOpts.withApp(cmd, true, func(cmd *cobra.Command, args []string, a *app.App, out *OutputFormatter) error {
		limit, err := core.ParseMoney(args[1])
		if err != nil {
			return failed("invalid limit", err)
		}
		b, err := a.Spending.SetBudget(cmd.Context(), core.Budget{
			Category: args[0],
			Limit:    limit,
			Period:   core.BudgetPeriod(period),
		})
		if err != nil {
			return failed("could not set budget", err)
		}
		return out.Success(b, func(w io.Writer) {
			fmt.Fprintf(w, "Budget for %s set to %s %s\n", core.CategoryLabel(b.Category), formatMoney(b.Limit), b.Period)
		})
	})
}

func newBudgetRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm <category>",
		Aliases: []string{"delete"},
		Short:   "Remove the budget of a category",
		Args:    cobra.ExactArgs(1),
	}
	return rootOpts.withApp(cmd, true, func(cmd *cobra.Command, args []string, a *app.App, out *OutputFormatter) error {
		ok, err := a.Spending.RemoveBudget(cmd.Context(), args[0])
		if err != nil {
			return failed("could not remove budget", err)
		}
		if !ok {
			return NewExitError(ExitNotFound, fmt.Sprintf("no budget for %s", args[0]))
		}
		return out.Success(map[string]string{"removed": args[0]}, func(w io.Writer) {
			fmt.Fprintf(w, "Removed budget for %s\n", core.CategoryLabel(args[0]))
		})
	})
}

func newBudgetStatusCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <category>",
		Short: "Spending against a category budget",
		Args:  cobra.ExactArgs(1),
	}
	return rootOpts.withApp(cmd, true, func(_ *cobra.Command, args []string, a *app.App, out *OutputFormatter) error {
		st, err := a.Spending.BudgetStatus(args[0])
		if err != nil {
			return failed("could not compute budget status", err)
		}
		return out.Success(st, func(w io.Writer) {
			if st.Budget == nil {
				fmt.Fprintf(w, "No budget for %s\n", core.CategoryLabel(args[0]))
				return
			}
			fmt.Fprintf(w, "%s: %s of %s spent (%.1f%%), %s remaining\n",
				core.CategoryLabel(st.Budget.Category), formatMoney(st.Spent), formatMoney(st.Budget.Limit),
				st.Percentage, formatMoney(st.Remaining))
		})
	})
}

func newBudgetListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List budgets",
		Args:  cobra.NoArgs,
	}
	return rootOpts.withApp(cmd, true, func(_ *cobra.Command, _ []string, a *app.App, out *OutputFormatter) error {
		budgets := a.Spending.Budgets()
		return out.Success(budgets, func(w io.Writer) {
			rows := make([][]string, 0, len(budgets))
			for _, b := range budgets {
				rows = append(rows, []string{core.CategoryLabel(b.Category), formatMoney(b.Limit), string(b.Period)})
			}
			table(w, []string{"CATEGORY", "LIMIT", "PERIOD"}, rows)
		})
	})
}
