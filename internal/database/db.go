package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect selects the SQL variant used for schema statements.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite3"

	memoryPath = ":memory:"
)

// Target is a configured database URI resolved onto a Go driver.
type Target struct {
	Dialect Dialect
	DSN     string
	// FilePath is the database file for SQLite targets; ":memory:" for in-memory ones.
	FilePath string
}

// InMemory reports whether the target lives only inside the process.
func (t Target) InMemory() bool {
	return t.Dialect == DialectSQLite && t.FilePath == memoryPath
}

// PoolOptions mirrors the sql.DB pool knobs.
type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

// DefaultPoolOptions are the pool settings used when none are configured.
func DefaultPoolOptions() PoolOptions {
	return PoolOptions{
		MaxOpenConns:    25,
		MaxIdleConns:    25,
		ConnMaxIdleTime: 5 * time.Minute,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// ResolveURL maps a SQLAlchemy-style database URI ("postgresql+psycopg2://...",
// "sqlite:///file.db") onto a driver name and DSN. sslMode is appended to
// Postgres URIs that do not carry one.
func ResolveURL(raw string, sslMode string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, errors.New("database URL is empty")
	}

	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return Target{}, fmt.Errorf("database URL %q has no scheme", redact(raw))
	}

	// "postgresql+psycopg2" names the Python driver; only the dialect matters here.
	dialect, _, _ := strings.Cut(strings.ToLower(scheme), "+")

	switch dialect {
	case "postgres", "postgresql":
		parsed, err := url.Parse("postgres://" + rest)
		if err != nil {
			return Target{}, fmt.Errorf("parse postgres URL: %w", err)
		}
		query := parsed.Query()
		if query.Get("sslmode") == "" && sslMode != "" {
			query.Set("sslmode", sslMode)
		}
		parsed.RawQuery = query.Encode()
		return Target{Dialect: DialectPostgres, DSN: parsed.String()}, nil

	case "sqlite", "sqlite3":
		path := rest
		if strings.HasPrefix(path, "/") {
			path = path[1:]
		}
		if path == "" {
			path = memoryPath
		}
		return Target{
			Dialect:  DialectSQLite,
			DSN:      path + "?_foreign_keys=on&_busy_timeout=5000",
			FilePath: path,
		}, nil
	}

	return Target{}, fmt.Errorf("unsupported database URL scheme %q", scheme)
}

// Open connects to target, applies the pool settings and pings the server.
func Open(ctx context.Context, target Target, pool PoolOptions) (*sql.DB, error) {
	log.Printf("Connecting to database: dialect=%s target=%s", target.Dialect, describe(target))

	db, err := sql.Open(string(target.Dialect), target.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if target.InMemory() {
		// Every new connection to ":memory:" is a separate empty database.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxIdleTime(0)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(pool.MaxOpenConns)
		db.SetMaxIdleConns(pool.MaxIdleConns)
		db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Println("Connected to database successfully")
	return db, nil
}

func describe(target Target) string {
	if target.Dialect == DialectSQLite {
		return target.FilePath
	}
	return redact(target.DSN)
}

// redact hides the password component of a URL for logging.
func redact(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.User == nil {
		return raw
	}
	if _, hasPassword := parsed.User.Password(); hasPassword {
		parsed.User = url.UserPassword(parsed.User.Username(), "xxxxx")
	}
	return parsed.String()
}
