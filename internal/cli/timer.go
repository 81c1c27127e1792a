package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"tracker/internal/app"
	"tracker/internal/core"
)

// NewTimerCommand creates the timer command group.
func NewTimerCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timer",
		Short: "Track time against tasks",
	}
	cmd.AddCommand(newTimerStartCommand(rootOpts))
	cmd.AddCommand(newTimerStopCommand(rootOpts))
	cmd.AddCommand(newTimerStatusCommand(rootOpts))
	cmd.AddCommand(newTimerListCommand(rootOpts))
	cmd.AddCommand(newTimerRemoveCommand(rootOpts))
	cmd.AddCommand(newTimerTotalsCommand(rootOpts))
	return cmd
}

func newTimerStartCommand(rootOpts *RootOptions) *cobra.Command {
	var taskID int64
	var description string
	cmd := &cobra.Command{
		Use:   "start <task title>",
		Short: "Start a timer, stopping the running one",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().Int64Var(&taskID, "task", 0, "id of the task being timed")
	cmd.Flags().StringVar(&description, "description", "", "what is being worked on")

	return rootOpts.withApp(cmd, true, func(cmd *cobra.Command, args []string, a *app.App, out *OutputFormatter) error {
		var ref *int64
		if cmd.Flags().Changed("task") {
			if _, ok := a.Tasks.Get(taskID); !ok {
				return notFound("task", taskID)
			}
			ref = &taskID
		}
		prev, wasRunning := a.Timer.Active()
		e, err := a.Timer.Start(cmd.Context(), args[0], ref, description)
		if err != nil {
			return failed("could not start timer", err)
		}
		return out.Success(e, func(w io.Writer) {
			if wasRunning {
				fmt.Fprintf(w, "Stopped timer for %s\n", prev.TaskTitle)
			}
			fmt.Fprintf(w, "Started timer %d for %s\n", e.ID, e.TaskTitle)
		})
	})
}

func newTimerStopCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the running timer",
		Args:  cobra.NoArgs,
	}
	return rootOpts.withApp(cmd, true, func(cmd *cobra.Command, _ []string, a *app.App, out *OutputFormatter) error {
		e, ok, err := a.Timer.Stop(cmd.Context())
		if err != nil {
			return failed("could not stop timer", err)
		}
		if !ok {
			return NewExitError(ExitNotFound, "no timer is running")
		}
		return out.Success(e, func(w io.Writer) {
			fmt.Fprintf(w, "Stopped %s after %s\n", e.TaskTitle, core.FormatDuration(e.Duration))
		})
	})
}

type timerStatusView struct {
	Running bool            `json:"running"`
	Entry   *core.TimeEntry `json:"entry,omitempty"`
	Elapsed int64           `json:"elapsed"`
}

func newTimerStatusCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the running timer",
		Args:  cobra.NoArgs,
	}
	return rootOpts.withApp(cmd, true, func(_ *cobra.Command, _ []string, a *app.App, out *OutputFormatter) error {
		view := timerStatusView{}
		if e, ok := a.Timer.Active(); ok {
			view = timerStatusView{Running: true, Entry: &e, Elapsed: a.Timer.Elapsed()}
		}
		return out.Success(view, func(w io.Writer) {
			if !view.Running {
				fmt.Fprintln(w, "No timer running")
				return
			}
			fmt.Fprintf(w, "%s running for %s\n", view.Entry.TaskTitle, a.Timer.FormatDuration(view.Elapsed))
		})
	})
}

func newTimerListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List completed time entries",
		Args:  cobra.NoArgs,
	}
	return rootOpts.withApp(cmd, true, func(_ *cobra.Command, _ []string, a *app.App, out *OutputFormatter) error {
		entries := a.Timer.Entries()
		return out.Success(entries, func(w io.Writer) {
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					strconv.FormatInt(e.ID, 10), e.TaskTitle, formatTime(e.StartTime),
					core.FormatDuration(e.Duration), e.Description,
				})
			}
			table(w, []string{"ID", "TASK", "STARTED", "DURATION", "DESCRIPTION"}, rows)
		})
	})
}

func newTimerRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a completed time entry",
		Args:    cobra.ExactArgs(1),
	}
	return rootOpts.withApp(cmd, true, func(cmd *cobra.Command, args []string, a *app.App, out *OutputFormatter) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		ok, err := a.Timer.Delete(cmd.Context(), id)
		if err != nil {
			return failed("could not delete time entry", err)
		}
		if !ok {
			return notFound("time entry", id)
		}
		return out.Success(map[string]int64{"deleted": id}, func(w io.Writer) { fmt.Fprintf(w, "Deleted time entry %d\n", id) })
	})
}

type timerTotalsView struct {
	Today    int64 `json:"today"`
	ThisWeek int64 `json:"thisWeek"`
}

func newTimerTotalsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "totals",
		Short: "Time tracked today and this week",
		Args:  cobra.NoArgs,
	}
	return rootOpts.withApp(cmd, true, func(_ *cobra.Command, _ []string, a *app.App, out *OutputFormatter) error {
		view := timerTotalsView{Today: a.Timer.TotalToday(), ThisWeek: a.Timer.TotalThisWeek()}
		return out.Success(view, func(w io.Writer) {
			fmt.Fprintf(w, "Today:     %s\n", core.FormatDuration(view.Today))
			fmt.Fprintf(w, "This week: %s\n", core.FormatDuration(view.ThisWeek))
		})
	})
}
