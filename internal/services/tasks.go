package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tracker/internal/core"
	"tracker/internal/log"
	"tracker/internal/records"
	"tracker/internal/sheets"
)

// NewTask holds the fields of a task to create. Empty status and priority
// default to pending and medium; a zero due date defaults to today.
type NewTask struct {
	Title       string
	Description string
	DueDate     core.Date
	Status      core.TaskStatus
	Priority    core.Priority
	Category    string
}

// TaskPatch lists the fields to change; nil fields are left alone.
type TaskPatch struct {
	Title       *string
	Description *string
	DueDate     *core.Date
	Status      *core.TaskStatus
	Priority    *core.Priority
	Category    *string
}

type TaskService struct {
	tasks  *records.Collection[core.Task]
	change change
	now    func() time.Time
	loc    *time.Location
	log    *log.Logger
}

func NewTaskService(d Deps) *TaskService {
	d = d.withDefaults()
	var seedFn func(time.Time) []core.Task
	if d.Seed != nil {
		seedFn = d.Seed.TasksAt
	}
	logger := d.Logger.WithComponent(log.ComponentTasks)
	return &TaskService{
		tasks:  records.NewCollection(d.Store, KeyTasks, seedFn, d.recordOptions()),
		change: change{notifier: d.Notifier, log: logger},
		now:    d.Clock,
		loc:    d.Location,
		log:    logger,
	}
}

func (s *TaskService) Load(ctx context.Context) error { return s.tasks.Load(ctx) }

func (s *TaskService) Reload(ctx context.Context) error { return s.tasks.Reload(ctx) }

// Create appends a task at the tail.
func (s *TaskService) Create(ctx context.Context, in NewTask) (core.Task, error) {
	task, err := s.tasks.Insert(ctx, records.Tail, func(id int64, now time.Time) (core.Task, error) {
		t := core.Task{
			ID:          id,
			Title:       strings.TrimSpace(in.Title),
			Description: in.Description,
			DueDate:     in.DueDate,
			Status:      in.Status,
			Priority:    in.Priority,
			Category:    in.Category,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if t.Status == "" {
			t.Status = core.TaskPending
		}
		if t.Priority == "" {
			t.Priority = core.PriorityMedium
		}
		if t.DueDate.IsZero() {
			t.DueDate = core.Today(now, s.loc)
		}
		return t, t.Validate()
	})
	if err != nil {
		return core.Task{}, fmt.Errorf("create task: %w", err)
	}
	s.log.InfoContext(ctx, "task created", log.FieldOperation, log.OpCreate, log.FieldID, task.ID)
	s.change.publish(ctx, KeyTasks, task.ID, ChangeCreate)
	return task, nil
}

// Update applies patch and reports false when id is unknown.
func (s *TaskService) Update(ctx context.Context, id int64, patch TaskPatch) (core.Task, bool, error) {
	task, ok, err := s.tasks.Update(ctx, id, func(t *core.Task, now time.Time) error {
		if patch.Title != nil {
			t.Title = strings.TrimSpace(*patch.Title)
		}
		if patch.Description != nil {
			t.Description = *patch.Description
		}
		if patch.DueDate != nil {
			t.DueDate = *patch.DueDate
		}
		if patch.Status != nil {
			t.Status = *patch.Status
		}
		if patch.Priority != nil {
			t.Priority = *patch.Priority
		}
		if patch.Category != nil {
			t.Category = *patch.Category
		}
		t.UpdatedAt = now
		return t.Validate()
	})
	if err != nil {
		return core.Task{}, false, fmt.Errorf("update task %d: %w", id, err)
	}
	if ok {
		s.log.InfoContext(ctx, "task updated", log.FieldOperation, log.OpUpdate, log.FieldID, id)
		s.change.publish(ctx, KeyTasks, id, ChangeUpdate)
	}
	return task, ok, nil
}

// Complete marks a task completed.
func (s *TaskService) Complete(ctx context.Context, id int64) (core.Task, bool, error) {
	status := core.TaskCompleted
	return s.Update(ctx, id, TaskPatch{Status: &status})
}

func (s *TaskService) Delete(ctx context.Context, id int64) (bool, error) {
	ok, err := s.tasks.Remove(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete task %d: %w", id, err)
	}
	if ok {
		s.log.InfoContext(ctx, "task deleted", log.FieldOperation, log.OpDelete, log.FieldID, id)
		s.change.publish(ctx, KeyTasks, id, ChangeDelete)
	}
	return ok, nil
}

func (s *TaskService) Get(id int64) (core.Task, bool) { return s.tasks.Get(id) }

func (s *TaskService) List() []core.Task { return s.tasks.All() }

func (s *TaskService) ByDate(d core.Date) []core.Task {
	return s.tasks.Filter(func(t core.Task) bool { return t.DueDate.Equal(d) })
}

// Today returns the tasks due on the current day.
func (s *TaskService) Today() []core.Task {
	return s.ByDate(core.Today(s.now(), s.loc))
}

func (s *TaskService) ByStatus(status core.TaskStatus) []core.Task {
	return s.tasks.Filter(func(t core.Task) bool { return t.Status == status })
}

func (s *TaskService) ByPriority(p core.Priority) []core.Task {
	return s.tasks.Filter(func(t core.Task) bool { return t.Priority == p })
}

// Table renders all tasks for spreadsheet export.
func (s *TaskService) Table() sheets.Table {
	t := sheets.Table{
		Name:   "Tasks",
		Header: []string{"ID", "Title", "Description", "Due Date", "Status", "Priority", "Category", "Created At", "Updated At"},
		Widths: []float64{8, 30, 50, 12, 12, 10, 20, 15, 15},
	}
	for _, task := range s.tasks.All() {
		t.Rows = append(t.Rows, []string{
			strconv.FormatInt(task.ID, 10),
			task.Title,
			task.Description,
			task.DueDate.String(),
			string(task.Status),
			string(task.Priority),
			task.Category,
			formatDay(task.CreatedAt, s.loc),
			formatDay(task.UpdatedAt, s.loc),
		})
	}
	return t
}

func formatDay(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format("2006-01-02")
}
