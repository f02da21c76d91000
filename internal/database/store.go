package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a row does not exist or is not visible to the caller.
	ErrNotFound = errors.New("not found")
	// ErrUsernameTaken is returned when registration hits the username unique index.
	ErrUsernameTaken = errors.New("username already taken")
)

// Store runs the application queries. All statements use $n placeholders,
// numbered in order of first appearance, which both lib/pq and go-sqlite3 bind.
type Store struct {
	db      *sql.DB
	dialect Dialect
	target  Target
}

func NewStore(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect, target: Target{Dialect: dialect}}
}

// Connect resolves uri, opens the pool and creates the schema.
func Connect(ctx context.Context, uri string, sslMode string, pool PoolOptions) (*Store, error) {
	target, err := ResolveURL(uri, sslMode)
	if err != nil {
		return nil, err
	}

	db, err := Open(ctx, target, pool)
	if err != nil {
		return nil, err
	}

	store := &Store{db: db, dialect: target.Dialect, target: target}
	if err := store.CreateTables(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Dialect() Dialect {
	return s.dialect
}

func (s *Store) Target() Target {
	return s.target
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

func notFoundOr(err error, action string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", action, err)
}
