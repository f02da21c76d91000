package database

import (
	"context"
	"fmt"
)

// CreateTables creates all required tables in the database
func (s *Store) CreateTables(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"users", s.createUsersTable},
		{"tasks", s.createTasksTable},
		{"tasks schema", s.ensureTasksSchema},
	}

	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("create %s: %w", step.name, err)
		}
	}
	return nil
}

func (s *Store) createUsersTable(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		username VARCHAR(80) UNIQUE NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	if s.dialect == DialectSQLite {
		query = `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username VARCHAR(80) UNIQUE NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	}

	_, err := s.db.ExecContext(ctx, query)
	return err
}

func (s *Store) createTasksTable(ctx context.Context) error {
	idColumn := "id SERIAL PRIMARY KEY"
	if s.dialect == DialectSQLite {
		idColumn = "id INTEGER PRIMARY KEY AUTOINCREMENT"
	}

	query := `
	CREATE TABLE IF NOT EXISTS tasks (
		` + idColumn + `,
		title VARCHAR(200) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		due_date DATE,
		is_completed BOOLEAN NOT NULL DEFAULT FALSE,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := s.db.ExecContext(ctx, query)
	return err
}

func (s *Store) ensureTasksSchema(ctx context.Context) error {
	if s.dialect == DialectPostgres {
		// Older deployments created tasks without the audit column.
		if _, err := s.db.ExecContext(ctx, `ALTER TABLE tasks ADD COLUMN IF NOT EXISTS updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP`); err != nil {
			return err
		}
	}

	if _, err := s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS tasks_user_completed_idx ON tasks(user_id, is_completed, id)`); err != nil {
		return err
	}
	return nil
}
