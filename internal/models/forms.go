package models

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	minUsernameLength    = 3
	maxUsernameLength    = 80
	maxTitleLength       = 200
	maxDescriptionLength = 2000
	// bcrypt only hashes the first 72 bytes and refuses longer input.
	maxPasswordBytes = 72
)

// ValidationErrors collects human-readable messages for a rejected form.
type ValidationErrors []string

func (v ValidationErrors) Error() string {
	return strings.Join(v, " ")
}

// RegistrationForm carries the fields of the sign-up page.
type RegistrationForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
	Confirm  string `form:"confirm"`
}

// Normalize trims the username. Passwords are kept verbatim.
func (f *RegistrationForm) Normalize() {
	f.Username = strings.TrimSpace(f.Username)
}

func (f RegistrationForm) Validate() ValidationErrors {
	var errs ValidationErrors

	length := utf8.RuneCountInString(f.Username)
	switch {
	case length == 0:
		errs = append(errs, "Username is required.")
	case length < minUsernameLength || length > maxUsernameLength:
		errs = append(errs, "Username must be between 3 and 80 characters.")
	}

	switch {
	case f.Password == "":
		errs = append(errs, "Password is required.")
	case len(f.Password) > maxPasswordBytes:
		errs = append(errs, "Password must be at most 72 bytes.")
	case f.Confirm != f.Password:
		errs = append(errs, "Passwords must match.")
	}

	return errs
}

// LoginForm carries the fields of the sign-in page.
type LoginForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

// TaskForm carries the fields shared by the create and edit pages.
type TaskForm struct {
	Title       string `form:"title"`
	Description string `form:"description"`
	DueDate     string `form:"due_date"`
	IsCompleted string `form:"is_completed"`
}

// TaskFormFrom prefills a form from a stored task.
func TaskFormFrom(task Task) TaskForm {
	form := TaskForm{
		Title:       task.Title,
		Description: task.Description,
		DueDate:     task.DueDateString(),
	}
	if task.IsCompleted {
		form.IsCompleted = "y"
	}
	return form
}

func (f *TaskForm) Normalize() {
	f.Title = strings.TrimSpace(f.Title)
	f.Description = strings.TrimSpace(f.Description)
	f.DueDate = strings.TrimSpace(f.DueDate)
}

// Completed interprets the checkbox value. A missing box posts nothing.
func (f TaskForm) Completed() bool {
	switch strings.ToLower(strings.TrimSpace(f.IsCompleted)) {
	case "", "false", "0", "off":
		return false
	default:
		return true
	}
}

// Validate checks the fields and returns the parsed due date on success.
func (f TaskForm) Validate() (*time.Time, ValidationErrors) {
	var errs ValidationErrors

	titleLength := utf8.RuneCountInString(f.Title)
	if titleLength == 0 {
		errs = append(errs, "Title is required.")
	} else if titleLength > maxTitleLength {
		errs = append(errs, "Title must be at most 200 characters.")
	}

	if utf8.RuneCountInString(f.Description) > maxDescriptionLength {
		errs = append(errs, "Description must be at most 2000 characters.")
	}

	dueDate, err := ParseDueDate(f.DueDate)
	if err != nil {
		errs = append(errs, "Due date must be in YYYY-MM-DD format.")
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return dueDate, nil
}

// Apply copies validated form values onto task.
func (f TaskForm) Apply(task *Task, dueDate *time.Time) {
	task.Title = f.Title
	task.Description = f.Description
	task.DueDate = dueDate
}
