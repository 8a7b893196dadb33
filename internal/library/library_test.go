// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package library_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taibuivan/lectio/internal/library"
	"github.com/taibuivan/lectio/internal/platform/migration"
	"github.com/taibuivan/lectio/internal/platform/sqlite"
	"github.com/taibuivan/lectio/internal/source"
	"github.com/taibuivan/lectio/internal/source/sourcetest"
)

const testSource = "fake"

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// newTestDB opens a migrated in-memory store and creates the given users.
func newTestDB(t *testing.T, usernames ...string) *sql.DB {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(ctx, sqlite.MemoryPath, discard)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migration.RunUp(db, discard))

	for _, username := range usernames {
		_, err := db.ExecContext(ctx, `INSERT INTO users (username, password) VALUES (?, 'hash')`, username)
		require.NoError(t, err)
	}
	return db
}

// newTestService wires a service over a fresh store and one fake source.
func newTestService(t *testing.T, usernames ...string) (*library.Service, *sourcetest.Fake, *sql.DB) {
	t.Helper()

	db := newTestDB(t, usernames...)
	fake := sourcetest.New(testSource, false)

	registry, err := source.NewRegistry(fake)
	require.NoError(t, err)

	service := library.NewService(library.Dependencies{
		Repositories: library.NewRepositories(db),
		Registry:     registry,
		Logger:       discard,
	})
	return service, fake, db
}

func novel(url, title string) *library.NovelMeta {
	return &library.NovelMeta{Source: testSource, URL: url, Title: title}
}

func chapters(novelURL string, from, to int, added time.Time) []library.ChapterMeta {
	return library.ChaptersFromStubs(
		library.NovelKey{Source: testSource, URL: novelURL},
		sourcetest.Stubs(novelURL, from, to),
		added,
	)
}

func countRows(t *testing.T, db *sql.DB, query string, args ...any) int {
	t.Helper()
	var count int
	require.NoError(t, db.QueryRowContext(context.Background(), query, args...).Scan(&count))
	return count
}

func at(hour int) time.Time {
	return time.Date(2026, 3, 1, hour, 0, 0, 0, time.UTC)
}
