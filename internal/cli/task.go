package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"tracker/internal/app"
	"tracker/internal/core"
	"tracker/internal/services"
)

// NewTaskCommand creates the task command group.
func NewTaskCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}
	cmd.AddCommand(newTaskAddCommand(rootOpts))
	cmd.AddCommand(newTaskListCommand(rootOpts))
	cmd.AddCommand(newTaskShowCommand(rootOpts))
	cmd.AddCommand(newTaskUpdateCommand(rootOpts))
	cmd.AddCommand(newTaskDoneCommand(rootOpts))
	cmd.AddCommand(newTaskRemoveCommand(rootOpts))
	return cmd
}

func newTaskAddCommand(rootOpts *RootOptions) *cobra.Command {
	var in struct{ description, due, status, priority, category string }
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&in.description, "description", "", "task description")
	cmd.Flags().StringVar(&in.due, "due", "", "due date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&in.status, "status", "", "pending|in-progress|completed")
	cmd.Flags().StringVar(&in.priority, "priority", "", "low|medium|high")
	cmd.Flags().StringVar(&in.category, "category", "", "task category")

	return rootOpts.withApp(cmd, true, func(cmd *cobra.Command, args []string, a *app.App, out *OutputFormatter) error {
		nt := services.NewTask{
			Title:       args[0],
			Description: in.description,
			Status:      core.TaskStatus(in.status),
			Priority:    core.Priority(in.priority),
			Category:    in.category,
		}
		if in.due != "" {
			d, err := core.ParseDate(in.due)
			if err != nil {
				return failed("invalid --due", err)
			}
			nt.DueDate = d
		}
		t, err := a.Tasks.Create(cmd.Context(), nt)
		if err != nil {
			return failed("could not create task", err)
		}
		return out.Success(t, func(w io.Writer) { fmt.Fprintf(w, "Created task %d: %s\n", t.ID, t.Title) })
	})
}

func newTaskListCommand(rootOpts *RootOptions) *cobra.Command {
	var status, priority string
	var today bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&status, "status", "", "only tasks with this status")
	cmd.Flags().StringVar(&priority, "priority", "", "only tasks with this priority")
	cmd.Flags().BoolVar(&today, "today", false, "only tasks due today")

	return rootOpts.withApp(cmd, true, func(_ *cobra.Command, _ []string, a *app.App, out *OutputFormatter) error {
		var tasks []core.Task
		switch {
		case today:
			tasks = a.Tasks.Today()
		case status != "":
			if !core.TaskStatus(status).Valid() {
				return failed("invalid --status", core.ErrInvalidStatus)
			}
			tasks = a.Tasks.ByStatus(core.TaskStatus(status))
		default:
			tasks = a.Tasks.List()
		}
		if priority != "" {
			if !core.Priority(priority).Valid() {
				return failed("invalid --priority", core.ErrInvalidPriority)
			}
			kept := tasks[:0:0]
			for _, t := range tasks {
				if t.Priority == core.Priority(priority) {
					kept = append(kept, t)
				}
			}
			tasks = kept
		}
		return out.Success(tasks, func(w io.Writer) {
			rows := make([][]string, 0, len(tasks))
			for _, t := range tasks {
				rows = append(rows, []string{strconv.FormatInt(t.ID, 10), t.Title, string(t.Status), string(t.Priority), t.DueDate.String(), t.Category})
			}
			table(w, []string{"ID", "TITLE", "STATUS", "PRIORITY", "DUE", "CATEGORY"}, rows)
		})
	})
}

func newTaskShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
	}
	return rootOpts.withApp(cmd, true, func(_ *cobra.Command, args []string, a *app.App, out *OutputFormatter) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		t, ok := a.Tasks.Get(id)
		if !ok {
			return notFound("task", id)
		}
		return out.Success(t, func(w io.Writer) {
			fmt.Fprintf(w, "#%d %s\n", t.ID, t.Title)
			fmt.Fprintf(w, "Status:   %s\n", t.Status)
			fmt.Fprintf(w, "Priority: %s\n", t.Priority)
			fmt.Fprintf(w, "Due:      %s\n", t.DueDate)
			if t.Category != "" {
				fmt.Fprintf(w, "Category: %s\n", t.Category)
			}
			if t.Description != "" {
				fmt.Fprintf(w, "\n%s\n", t.Description)
			}
		})
	})
}

func newTaskUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().String("title", "", "new title")
	cmd.Flags().String("description", "", "new description")
	cmd.Flags().String("due", "", "new due date (YYYY-MM-DD)")
	cmd.Flags().String("status", "", "pending|in-progress|completed")
	cmd.Flags().String("priority", "", "low|medium|high")
	cmd.Flags().String("category", "", "new category")

	return rootOpts.withApp(cmd, true, func(cmd *cobra.Command, args []string, a *app.App, out *OutputFormatter) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		due, err := optionalDate(cmd, "due")
		if err != nil {
			return err
		}
		patch := services.TaskPatch{
			Title:       changed(cmd, "title"),
			Description: changed(cmd, "description"),
			DueDate:     due,
			Category:    changed(cmd, "category"),
		}
		if s := changed(cmd, "status"); s != nil {
			v := core.TaskStatus(*s)
			patch.Status = &v
		}
		if p := changed(cmd, "priority"); p != nil {
			v := core.Priority(*p)
			patch.Priority = &v
		}
		t, ok, err := a.Tasks.Update(cmd.Context(), id, patch)
		if err != nil {
			return failed("could not update task", err)
		}
		if !ok {
			return notFound("task", id)
		}
		return out.Success(t, func(w io.Writer) { fmt.Fprintf(w, "Updated task %d\n", t.ID) })
	})
}

func newTaskDoneCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
	}
	return rootOpts.withApp(cmd, true, func(cmd *cobra.Command, args []string, a *app.App, out *OutputFormatter) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		t, ok, err := a.Tasks.Complete(cmd.Context(), id)
		if err != nil {
			return failed("could not complete task", err)
		}
		if !ok {
			return notFound("task", id)
		}
		return out.Success(t, func(w io.Writer) { fmt.Fprintf(w, "Completed task %d: %s\n", t.ID, t.Title) })
	})
}

func newTaskRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
	}
	return rootOpts.withApp(cmd, true, func(cmd *cobra.Command, args []string, a *app.App, out *OutputFormatter) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		ok, err := a.Tasks.Delete(cmd.Context(), id)
		if err != nil {
			return failed("could not delete task", err)
		}
		if !ok {
			return notFound("task", id)
		}
		return out.Success(map[string]int64{"deleted": id}, func(w io.Writer) { fmt.Fprintf(w, "Deleted task %d\n", id) })
	})
}
