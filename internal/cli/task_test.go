package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracker/internal/core"
)

func TestTaskAddAndShow(t *testing.T) {
	h := newHarness(t)
	h.login()

	resp, code := h.runJSON("task", "add", "Write report", "--priority", "high", "--due", "2025-03-14", "--category", "Work")
	require.Equal(t, ExitSuccess, code)
	var task core.Task
	resp.decode(t, &task)
	assert.Equal(t, int64(6), task.ID)
	assert.Equal(t, core.TaskPending, task.Status)
	assert.Equal(t, core.PriorityHigh, task.Priority)
	assert.Equal(t, "2025-03-14", task.DueDate.String())

	out := h.mustRun("task", "show", "6")
	assert.Contains(t, out, "#6 Write report")
	assert.Contains(t, out, "Priority: high")
	assert.Contains(t, out, "Category: Work")
}

func TestTaskAddDefaultsDueToday(t *testing.T) {
	h := newHarness(t)
	h.login()

	resp, code := h.runJSON("task", "add", "Call dentist")
	require.Equal(t, ExitSuccess, code)
	var task core.Task
	resp.decode(t, &task)
	assert.Equal(t, "2025-03-12", task.DueDate.String())
	assert.Equal(t, core.PriorityMedium, task.Priority)
}

func TestTaskAddRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad status", []string{"task", "add", "x", "--status", "done"}},
		{"bad priority", []string{"task", "add", "x", "--priority", "urgent"}},
		{"bad date", []string{"task", "add", "x", "--due", "14/03/2025"}},
		{"blank title", []string{"task", "add", "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.login()
			_, _, code := h.run(tt.args...)
			assert.Equal(t, ExitFailure, code)

			var tasks []core.Task
			resp, _ := h.runJSON("task", "list")
			resp.decode(t, &tasks)
			assert.Len(t, tasks, 5)
		})
	}
}

func TestTaskList(t *testing.T) {
	h := newHarness(t)
	h.login()

	var tasks []core.Task
	resp, _ := h.runJSON("task", "list")
	resp.decode(t, &tasks)
	require.Len(t, tasks, 5)
	assert.Equal(t, "Review project proposal", tasks[0].Title)

	resp, _ = h.runJSON("task", "list", "--status", "pending")
	resp.decode(t, &tasks)
	assert.Len(t, tasks, 3)

	resp, _ = h.runJSON("task", "list", "--status", "pending", "--priority", "high")
	resp.decode(t, &tasks)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Client presentation", tasks[0].Title)

	resp, _ = h.runJSON("task", "list", "--today")
	resp.decode(t, &tasks)
	assert.Len(t, tasks, 2)

	out := h.mustRun("task", "list")
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "Update documentation")

	_, _, code := h.run("task", "list", "--status", "later")
	assert.Equal(t, ExitFailure, code)
}

func TestTaskUpdate(t *testing.T) {
	h := newHarness(t)
	h.login()

	resp, code := h.runJSON("task", "update", "2", "--status", "in-progress", "--description", "")
	require.Equal(t, ExitSuccess, code)
	var task core.Task
	resp.decode(t, &task)
	assert.Equal(t, core.TaskInProgress, task.Status)
	assert.Empty(t, task.Description)
	assert.Equal(t, "Team meeting preparation", task.Title, "unset flags leave fields alone")

	_, _, code = h.run("task", "update", "2", "--priority", "urgent")
	assert.Equal(t, ExitFailure, code)

	_, _, code = h.run("task", "update", "99", "--title", "ghost")
	assert.Equal(t, ExitNotFound, code)
}

func TestTaskDoneAndRemove(t *testing.T) {
	h := newHarness(t)
	h.login()

	out := h.mustRun("task", "done", "1")
	assert.Equal(t, "Completed task 1: Review project proposal\n", out)

	out = h.mustRun("task", "rm", "1")
	assert.Equal(t, "Deleted task 1\n", out)

	_, _, code := h.run("task", "show", "1")
	assert.Equal(t, ExitNotFound, code)

	_, _, code = h.run("task", "done", "1")
	assert.Equal(t, ExitNotFound, code)

	_, _, code = h.run("task", "rm", "abc")
	assert.Equal(t, ExitFailure, code)
}
