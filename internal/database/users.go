package database

import (
	"context"
	"fmt"
	"strings"

	"taskmanager/internal/models"
)

// CreateUser inserts a user with an already hashed password.
func (s *Store) CreateUser(ctx context.Context, username string, passwordHash string) (models.User, error) {
	user := models.User{Username: username, PasswordHash: passwordHash}

	query := `INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING id`
	err := s.db.QueryRowContext(ctx, query, username, passwordHash).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrUsernameTaken
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}

	return user, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	query := `SELECT id, username, password_hash FROM users WHERE username = $1`
	err := s.db.QueryRowContext(ctx, query, strings.TrimSpace(username)).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
	)
	if err != nil {
		return models.User{}, notFoundOr(err, "select user by username")
	}
	return user, nil
}

func (s *Store) GetUserByID(ctx context.Context, userID int) (models.User, error) {
	var user models.User
	query := `SELECT id, username, password_hash FROM users WHERE id = $1`
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
	)
	if err != nil {
		return models.User{}, notFoundOr(err, "select user by id")
	}
	return user, nil
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return total, nil
}
