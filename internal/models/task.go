package models

import "time"

// DateLayout is the wire and storage format of a task due date.
const DateLayout = "2006-01-02"

// Task is a unit of work owned by a single user.
type Task struct {
	ID          int        `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	DueDate     *time.Time `json:"due_date,omitempty" db:"due_date"`
	IsCompleted bool       `json:"is_completed" db:"is_completed"`
	UserID      int        `json:"user_id" db:"user_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// IsOverdue reports whether the task is pending and its due date is before today.
func (t Task) IsOverdue() bool {
	return t.IsOverdueOn(time.Now())
}

// IsOverdueOn is IsOverdue evaluated against the calendar day of now.
func (t Task) IsOverdueOn(now time.Time) bool {
	if t.DueDate == nil || t.IsCompleted {
		return false
	}
	return DateOnly(*t.DueDate).Before(DateOnly(now))
}

// DueDateString formats the due date for forms, or returns "" when unset.
func (t Task) DueDateString() string {
	if t.DueDate == nil {
		return ""
	}
	return t.DueDate.Format(DateLayout)
}

// DateOnly drops the clock and zone of value, keeping its calendar day.
func DateOnly(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDueDate parses a YYYY-MM-DD value. An empty string yields nil.
func ParseDueDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(DateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
