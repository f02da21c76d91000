package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"taskmanager/internal/models"
)

const taskColumns = `id, title, description, due_date, is_completed, user_id, created_at, updated_at`

// TaskQuery narrows a task listing. Pattern is a lower-case LIKE pattern using
// backslash as the escape character, or "".
type TaskQuery struct {
	Pattern string
	Limit   int
	Offset  int
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (models.Task, error) {
	var task models.Task
	var dueDate sql.NullTime
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&dueDate,
		&task.IsCompleted,
		&task.UserID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return models.Task{}, err
	}

	if dueDate.Valid {
		day := models.DateOnly(dueDate.Time)
		task.DueDate = &day
	}
	task.CreatedAt = createdAt.Time
	task.UpdatedAt = updatedAt.Time
	return task, nil
}

func dueDateArg(dueDate *time.Time) sql.NullString {
	if dueDate == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: dueDate.Format(models.DateLayout), Valid: true}
}

// CreateTask inserts task and fills in its ID.
func (s *Store) CreateTask(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (title, description, due_date, is_completed, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query,
		task.Title,
		task.Description,
		dueDateArg(task.DueDate),
		task.IsCompleted,
		task.UserID,
	).Scan(&task.ID)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// GetTask returns the task only when it belongs to userID.
func (s *Store) GetTask(ctx context.Context, userID int, taskID int) (models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2`
	task, err := scanTask(s.db.QueryRowContext(ctx, query, taskID, userID))
	if err != nil {
		return models.Task{}, notFoundOr(err, "select task")
	}
	return task, nil
}

// ListTasks returns one page of the user's tasks, pending first, and the
// total number of matching tasks.
func (s *Store) ListTasks(ctx context.Context, userID int, q TaskQuery) ([]models.Task, int, error) {
	var total int
	countQuery := `
		SELECT COUNT(*)
		FROM tasks
		WHERE user_id = $1
		  AND ($2 = '' OR lower(title) LIKE $2 ESCAPE '\' OR lower(description) LIKE $2 ESCAPE '\')
	`
	if err := s.db.QueryRowContext(ctx, countQuery, userID, q.Pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	listQuery := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1
		  AND ($2 = '' OR lower(title) LIKE $2 ESCAPE '\' OR lower(description) LIKE $2 ESCAPE '\')
		ORDER BY is_completed ASC, id ASC
		LIMIT $3 OFFSET $4
	`
	rows, err := s.db.QueryContext(ctx, listQuery, userID, q.Pattern, q.Limit, q.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]models.Task, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, 0, fmt.Errorf("scan task: %w", scanErr)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate tasks: %w", err)
	}

	return tasks, total, nil
}

// UpdateTask writes every mutable field of task, scoped to its owner.
func (s *Store) UpdateTask(ctx context.Context, task models.Task) error {
	query := `
		UPDATE tasks
		SET title = $1,
			description = $2,
			due_date = $3,
			is_completed = $4,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $5 AND user_id = $6
	`
	res, err := s.db.ExecContext(ctx, query,
		task.Title,
		task.Description,
		dueDateArg(task.DueDate),
		task.IsCompleted,
		task.ID,
		task.UserID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return expectAffected(res)
}

// ToggleTask flips is_completed in a single statement and returns the new value.
func (s *Store) ToggleTask(ctx context.Context, userID int, taskID int) (bool, error) {
	query := `
		UPDATE tasks
		SET is_completed = NOT is_completed,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND user_id = $2
		RETURNING is_completed
	`
	var completed bool
	if err := s.db.QueryRowContext(ctx, query, taskID, userID).Scan(&completed); err != nil {
		return false, notFoundOr(err, "toggle task")
	}
	return completed, nil
}

func (s *Store) DeleteTask(ctx context.Context, userID int, taskID int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, taskID, userID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return expectAffected(res)
}

// TaskStats summarises every task in the store.
type TaskStats struct {
	Total     int64 `json:"tasks_total"`
	Completed int64 `json:"tasks_completed"`
	Overdue   int64 `json:"tasks_overdue"`
}

// TaskStats counts tasks; overdue means pending with a due date before today.
func (s *Store) TaskStats(ctx context.Context, today time.Time) (TaskStats, error) {
	var stats TaskStats
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN is_completed THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN NOT is_completed AND due_date IS NOT NULL AND due_date < $1 THEN 1 ELSE 0 END), 0)
		FROM tasks
	`
	day := models.DateOnly(today).Format(models.DateLayout)
	if err := s.db.QueryRowContext(ctx, query, day).Scan(&stats.Total, &stats.Completed, &stats.Overdue); err != nil {
		return TaskStats{}, fmt.Errorf("task stats: %w", err)
	}
	return stats, nil
}

func expectAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
