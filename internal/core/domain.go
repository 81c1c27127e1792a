package core

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in-progress"
	TaskCompleted  TaskStatus = "completed"
)

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

const dateLayout = "2006-01-02"

type (
	TaskStatus string

	Priority string

	// Date is a calendar day without a time-of-day component.
	Date struct {
		time.Time
	}

	Task struct {
		ID          int64      `json:"id"`
		Title       string     `json:"title"`
		Description string     `json:"description,omitempty"`
		DueDate     Date       `json:"dueDate"`
		Status      TaskStatus `json:"status"`
		Priority    Priority   `json:"priority"`
		Category    string     `json:"category,omitempty"`
		CreatedAt   time.Time  `json:"createdAt"`
		UpdatedAt   time.Time  `json:"updatedAt"`
	}

	Expense struct {
		ID            int64     `json:"id"`
		Amount        Money     `json:"amountCents"`
		Category      string    `json:"category"`
		Description   string    `json:"description,omitempty"`
		Date          Date      `json:"date"`
		PaymentMethod string    `json:"paymentMethod,omitempty"`
		CreatedAt     time.Time `json:"createdAt"`
		UpdatedAt     time.Time `json:"updatedAt"`
	}

	Budget struct {
		Category string       `json:"category"`
		Limit    Money        `json:"limitCents"`
		Period   BudgetPeriod `json:"period"`
	}

	// TimeEntry is active while EndTime is nil.
	TimeEntry struct {
		ID          int64      `json:"id"`
		TaskID      *int64     `json:"taskId,omitempty"`
		TaskTitle   string     `json:"taskTitle"`
		StartTime   time.Time  `json:"startTime"`
		EndTime     *time.Time `json:"endTime,omitempty"`
		Duration    int64      `json:"duration"` // seconds
		Description string     `json:"description,omitempty"`
		CreatedAt   time.Time  `json:"createdAt"`
	}

	Link struct {
		ID          int64     `json:"id"`
		Title       string    `json:"title"`
		URL         string    `json:"url"`
		Description string    `json:"description,omitempty"`
		Category    string    `json:"category,omitempty"`
		CreatedAt   time.Time `json:"createdAt"`
		UpdatedAt   time.Time `json:"updatedAt"`
	}

	User struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
)

var (
	ErrInvalidDay           = errors.New("invalid day")
	ErrInvalidMonth         = errors.New("invalid month")
	ErrInvalidDate          = errors.New("invalid date")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrEmptyTitle           = errors.New("empty title")
	ErrInvalidStatus        = errors.New("invalid task status")
	ErrInvalidPriority      = errors.New("invalid task priority")
	ErrInvalidCategory      = errors.New("invalid expense category")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidPeriod        = errors.New("invalid period")
	ErrInvalidBudgetLimit   = errors.New("invalid budget limit")
	ErrInvalidURL           = errors.New("invalid URL format")
	ErrDescriptionTooLong   = errors.New("description too long (max 500 characters)")
)

const maxDescriptionLen = 500

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted:
		return true
	}
	return false
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t as observed in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a date string in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// Equal reports whether both dates denote the same calendar day.
func (d Date) Equal(o Date) bool {
	return d.String() == o.String()
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	// Accept full timestamps too, keeping only the day.
	if len(s) > len(dateLayout) {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return ErrInvalidDate
		}
		*d = DateOf(t)
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (t Task) RecordID() int64 { return t.ID }

func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if len(t.Description) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	if err := t.DueDate.Validate(); err != nil {
		return errors.New("invalid due date: " + err.Error())
	}
	if !t.Status.Valid() {
		return ErrInvalidStatus
	}
	if !t.Priority.Valid() {
		return ErrInvalidPriority
	}
	return nil
}

func (e Expense) RecordID() int64 { return e.ID }

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if !IsExpenseCategory(e.Category) {
		return ErrInvalidCategory
	}
	if e.PaymentMethod != "" && !IsPaymentMethod(e.PaymentMethod) {
		return ErrInvalidPaymentMethod
	}
	if len(e.Description) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	return nil
}

func (b Budget) Validate() error {
	if !IsExpenseCategory(b.Category) {
		return ErrInvalidCategory
	}
	if b.Limit.Cents <= 0 {
		return ErrInvalidBudgetLimit
	}
	if !b.Period.Valid() {
		return ErrInvalidPeriod
	}
	return nil
}

func (e TimeEntry) RecordID() int64 { return e.ID }

// Active reports whether the entry is still running.
func (e TimeEntry) Active() bool { return e.EndTime == nil }

func (e TimeEntry) Validate() error {
	if strings.TrimSpace(e.TaskTitle) == "" {
		return ErrEmptyTitle
	}
	if e.StartTime.IsZero() {
		return errors.New("start time cannot be zero")
	}
	if e.EndTime != nil && e.EndTime.Before(e.StartTime) {
		return errors.New("end time must not precede start time")
	}
	return nil
}

func (l Link) RecordID() int64 { return l.ID }

func (l Link) Validate() error {
	if strings.TrimSpace(l.Title) == "" {
		return ErrEmptyTitle
	}
	if err := ValidateURL(l.URL); err != nil {
		return err
	}
	if len(l.Description) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	return nil
}

// ValidateURL accepts absolute URLs that carry a scheme and either a host
// (https://example.com) or an opaque part (mailto:me@example.com).
func ValidateURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ErrInvalidURL
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return ErrInvalidURL
	}
	if u.Host == "" && u.Opaque == "" {
		return ErrInvalidURL
	}
	return nil
}
