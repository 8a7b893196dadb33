// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/lectio/internal/platform/sqlite"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

/*
TestWithTx verifies commit on success and rollback on error.
*/
func TestWithTx(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.Open(ctx, sqlite.MemoryPath, discardLogger())
	require.NoError(t, err)
	defer db.Close()

	_, err = db.ExecContext(ctx, `CREATE TABLE kv (k TEXT PRIMARY KEY, v TEXT)`)
	require.NoError(t, err)

	// 1. Committed write is visible afterwards
	err = sqlite.WithTx(ctx, db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO kv VALUES ('a', '1')`)
		return err
	})
	require.NoError(t, err)

	// 2. Failed callback rolls back its writes
	boom := errors.New("boom")
	err = sqlite.WithTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO kv VALUES ('b', '2')`); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM kv`).Scan(&count))
	assert.Equal(t, 1, count)
}

/*
TestOpen_File verifies that a file-backed store is created with its directory.
*/
func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "lectio.sqlite")

	db, err := sqlite.Open(context.Background(), path, discardLogger())
	require.NoError(t, err)
	defer db.Close()

	var mode string
	require.NoError(t, db.QueryRow(`PRAGMA journal_mode`).Scan(&mode))
	assert.Equal(t, "wal", mode)

	var foreignKeys int
	require.NoError(t, db.QueryRow(`PRAGMA foreign_keys`).Scan(&foreignKeys))
	assert.Equal(t, 1, foreignKeys)
}

/*
TestTimestamp verifies the stored layout and that it sorts chronologically.
*/
func TestTimestamp(t *testing.T) {
	moment := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, "2026-10-15T10:00:00.000Z", sqlite.Timestamp(moment))
	assert.Less(t, sqlite.Timestamp(moment), sqlite.Timestamp(moment.Add(time.Millisecond)))

	// Non-UTC input is normalised
	tokyo := time.FixedZone("JST", 9*3600)
	assert.Equal(t, "2026-10-15T10:00:00.000Z", sqlite.Timestamp(moment.In(tokyo)))

	parsed, err := sqlite.ParseTimestamp("2026-10-15T10:00:00.000Z")
	require.NoError(t, err)
	assert.True(t, parsed.Equal(moment))

	parsed, err = sqlite.ParseTimestamp("2026-10-15T19:00:00+09:00")
	require.NoError(t, err)
	assert.True(t, parsed.Equal(moment))

	_, err = sqlite.ParseTimestamp("yesterday")
	assert.Error(t, err)
}
