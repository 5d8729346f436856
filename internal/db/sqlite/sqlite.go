// Package sqlite opens the local SQLite database that holds the product
// catalog and chat history.
package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // driver registration
)

// Open connects to the database at path and applies pragmas.
// An in-memory database is pinned to a single connection so every query sees the same data.
func Open(path string) (*sqlx.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_busy_timeout=5000&_foreign_keys=on"
	}

	conn, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite %s: %w", path, err)
	}
	if path == ":memory:" || strings.HasPrefix(path, "file::memory:") {
		conn.SetMaxOpenConns(1)
	}
	return conn, nil
}

// Migrate executes schema statements in order.
func Migrate(ctx context.Context, conn *sqlx.DB, statements ...string) error {
	for _, stmt := range statements {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
