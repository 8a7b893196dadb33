// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sqlite opens and manages the single-file SQLite store.
//
// # Architecture
//
// This package is part of the Infrastructure layer. It owns the physical
// connection to the library file and the small helpers every repository
// shares: transactions, a common query interface, and the timestamp format.
//
// The store runs on one connection. SQLite serialises writers anyway, and a
// single connection makes every transaction observe the previous one.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	// Registers the "sqlite" driver (pure Go, no cgo).
	_ "modernc.org/sqlite"
)

// Opinionated connection settings for the Lectio workload.
const (
	// driverName is the name modernc.org/sqlite registers with database/sql.
	driverName = "sqlite"
	// busyTimeoutMillis is how long SQLite waits on a locked file before failing.
	busyTimeoutMillis = 5000
	// pingTimeout is the maximum duration for a health check ping.
	pingTimeout = 2 * time.Second
	// MemoryPath opens a private in-memory database (used by tests).
	MemoryPath = ":memory:"
)

// Querier is satisfied by both [*sql.DB] and [*sql.Tx], so repository helpers
// can run inside or outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open creates the database file if needed and returns a validated handle.
//
// # Parameters
//   - ctx: Context for the initial ping.
//   - path: Filesystem path of the library file, or [MemoryPath].
//   - logger: Structured logger for connection events.
func Open(ctx context.Context, path string, logger *slog.Logger) (*sql.DB, error) {
	if path != MemoryPath {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("sqlite: failed to create data directory: %w", err)
			}
		}
	}

	db, err := sql.Open(driverName, DSN(path))
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open %s: %w", path, err)
	}

	// One connection, never recycled: an in-memory database lives and dies with it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	// Validate that we can actually reach the database.
	if err := Ping(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("sqlite store opened", slog.String("path", path))
	return db, nil
}

// DSN builds the modernc connection string with the pragmas every
// connection needs.
func DSN(path string) string {
	pragmas := []string{
		fmt.Sprintf("_pragma=busy_timeout(%d)", busyTimeoutMillis),
		"_pragma=foreign_keys(ON)",
	}
	if path != MemoryPath {
		pragmas = append(pragmas, "_pragma=journal_mode(WAL)")
	}
	return "file:" + path + "?" + strings.Join(pragmas, "&")
}

// Ping verifies that the store is reachable.
func Ping(ctx context.Context, db *sql.DB) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("sqlite: ping failed: %w", err)
	}

	return nil
}

// WithTx runs fn inside a transaction, committing on success and rolling
// back on any error.
//
// While fn runs, the only usable connection belongs to tx. Calling back into
// db from fn blocks forever.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: failed to begin transaction: %w", err)
	}

	// Rollback is a no-op after Commit
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: failed to commit transaction: %w", err)
	}
	return nil
}
