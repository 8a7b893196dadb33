// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reconcile_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/lectio/internal/library"
	"github.com/taibuivan/lectio/internal/platform/constants"
	"github.com/taibuivan/lectio/internal/platform/ctxutil"
	"github.com/taibuivan/lectio/internal/platform/migration"
	"github.com/taibuivan/lectio/internal/platform/sec"
	"github.com/taibuivan/lectio/internal/platform/sqlite"
	"github.com/taibuivan/lectio/internal/reconcile"
	"github.com/taibuivan/lectio/internal/source"
	"github.com/taibuivan/lectio/internal/source/sourcetest"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// # Fixtures

// recordingSink remembers every broadcast and can be made to fail.
type recordingSink struct {
	mu     sync.Mutex
	events []string
	fail   bool
}

func (sink *recordingSink) Broadcast(_ context.Context, eventType, message string) error {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	sink.events = append(sink.events, eventType+":"+message)
	if sink.fail {
		return errors.New("sink offline")
	}
	return nil
}

func (sink *recordingSink) Events() []string {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	return append([]string(nil), sink.events...)
}

type fixture struct {
	db     *sql.DB
	repos  library.Repositories
	fake   *sourcetest.Fake
	sink   *recordingSink
	now    time.Time
	config reconcile.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(ctx, sqlite.MemoryPath, discard)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migration.RunUp(db, discard))

	_, err = db.ExecContext(ctx, `INSERT INTO users (username, password) VALUES ('alice', 'x'), ('bob', 'x')`)
	require.NoError(t, err)

	return &fixture{
		db:    db,
		repos: library.NewRepositories(db),
		fake:  sourcetest.New("fake", false),
		sink:  &recordingSink{},
		now:   time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fixture) scheduler(t *testing.T, provider source.Provider) *reconcile.Scheduler {
	t.Helper()
	if provider == nil {
		provider = f.fake
	}

	registry, err := source.NewRegistry(provider)
	require.NoError(t, err)

	return reconcile.New(f.config, reconcile.Dependencies{
		Novels:     f.repos.Novels,
		Chapters:   f.repos.Chapters,
		Favourites: f.repos.Favourites,
		Registry:   registry,
		Walker:     source.NewWalker(source.DefaultMaxPages),
		Sink:       f.sink,
		Logger:     discard,
		Now:        func() time.Time { return f.now },
	})
}

// favourite caches a novel with chapters 1..cached and follows it.
func (f *fixture) favourite(t *testing.T, username, url string, cached int) library.NovelKey {
	t.Helper()
	ctx := context.Background()
	key := library.NovelKey{Source: "fake", URL: url}

	require.NoError(t, f.repos.Novels.Upsert(ctx, &library.NovelMeta{Source: key.Source, URL: key.URL, Title: url}))
	chapters := library.ChaptersFromStubs(key, sourcetest.Stubs(url, 1, cached), f.now.Add(-24*time.Hour))
	require.NoError(t, f.repos.Chapters.UpsertBulk(ctx, key, chapters))
	require.NoError(t, f.repos.Favourites.Insert(ctx, &library.Favourite{Username: username, Source: key.Source, URL: key.URL}, nil))
	return key
}

// # Tests

/*
TestScheduler_EndToEnd caches 25 chapters, lets the source publish 27 and
checks that exactly the two new ones are stored with the run's timestamp,
bracketed by the start and end notifications.
*/
func TestScheduler_EndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	key := f.favourite(t, "alice", "/novel", 25)
	f.favourite(t, "bob", "/novel", 25)

	f.fake.SetDetail("/novel", source.NovelDetail{Title: "Novel", Status: "Completed"})
	f.fake.SetChapters("/novel", 27)

	report, err := f.scheduler(t, nil).RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, reconcile.Report{Novels: 1, Updated: 1, NewChapters: 2}, report)

	chapters, err := f.repos.Chapters.ListByNovel(ctx, key)
	require.NoError(t, err)
	require.Len(t, chapters, 27)
	for _, chapter := range chapters[:25] {
		assert.True(t, chapter.DateAdded.Equal(f.now.Add(-24*time.Hour)), chapter.URL)
	}
	for _, chapter := range chapters[25:] {
		assert.True(t, chapter.DateAdded.Equal(f.now), chapter.URL)
	}

	novel, err := f.repos.Novels.FindByKey(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, library.StatusCompleted, novel.Status)

	// One detail fetch per distinct pair, however many users follow it
	assert.Equal(t, 1, f.fake.CountCalls(source.OpDetail, "/novel"))

	events := f.sink.Events()
	require.Len(t, events, 2)
	assert.Equal(t, constants.EventFavouritesUpdateCheck+":started", events[0])
	assert.Contains(t, events[1], constants.EventFavouritesUpdateCheck+":finished")

	// A second run finds nothing new
	report, err = f.scheduler(t, nil).RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, reconcile.Report{Novels: 1}, report)
	assert.Equal(t, 27, countChapters(t, f.db))
}

func TestScheduler_FailureIsolation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.sink.fail = true

	f.favourite(t, "alice", "/ok", 1)
	f.favourite(t, "alice", "/broken", 1)
	f.favourite(t, "alice", "/offline", 2)

	f.fake.SetDetail("/ok", source.NovelDetail{Title: "Ok"})
	f.fake.SetChapters("/ok", 3)

	f.fake.SetDetail("/broken", source.NovelDetail{Title: "Broken"})
	f.fake.FailChapters("/broken", errors.New("parse error"))

	// Detail fails but the cached row stands in
	f.fake.FailDetail("/offline", errors.New("timeout"))
	f.fake.SetChapters("/offline", 3)

	report, err := f.scheduler(t, nil).RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, reconcile.Report{Novels: 3, Updated: 2, NewChapters: 3, Failed: 1}, report)

	// Sink errors are swallowed
	assert.Len(t, f.sink.Events(), 2)
}

func TestScheduler_SkipsUnreachableUncachedNovel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// Followed, but neither cached nor known to the source
	_, err := f.db.ExecContext(ctx, `INSERT INTO favourites (username, source, url) VALUES ('alice', 'fake', '/ghost')`)
	require.NoError(t, err)

	report, err := f.scheduler(t, nil).RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, reconcile.Report{Novels: 1, Skipped: 1}, report)
}

// unfollowingProvider runs a hook before answering detail fetches.
type unfollowingProvider struct {
	*sourcetest.Fake
	before func()
}

func (provider *unfollowingProvider) FetchNovelDetail(ctx context.Context, ref source.NovelRef) (*source.NovelDetail, error) {
	provider.before()
	return provider.Fake.FetchNovelDetail(ctx, ref)
}

func TestScheduler_SkipsNovelUnfavouritedDuringRun(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	key := f.favourite(t, "alice", "/novel", 2)
	f.fake.SetDetail("/novel", source.NovelDetail{Title: "Novel"})
	f.fake.SetChapters("/novel", 3)

	provider := &unfollowingProvider{Fake: f.fake, before: func() {
		removal, err := f.repos.Favourites.Remove(ctx, "alice", key)
		if assert.NoError(t, err) {
			assert.True(t, removal.Purged)
		}
	}}

	report, err := f.scheduler(t, provider).RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, reconcile.Report{Novels: 1, Skipped: 1}, report)

	// Nothing was written back for the purged novel
	assert.Zero(t, countChapters(t, f.db))
	var novels int
	require.NoError(t, f.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM novel_meta`).Scan(&novels))
	assert.Zero(t, novels)
}

func TestScheduler_BoundedConcurrency(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.config.Concurrency = 4

	for i := 0; i < 10; i++ {
		url := fmt.Sprintf("/novel-%d", i)
		f.favourite(t, "alice", url, 0)
		f.fake.SetDetail(url, source.NovelDetail{Title: url})
		f.fake.SetChapters(url, 2)
	}

	report, err := f.scheduler(t, nil).RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, report.Updated)
	assert.Equal(t, 20, report.NewChapters)

	for i := 0; i < 10; i++ {
		assert.Equal(t, 1, f.fake.CountCalls(source.OpDetail, fmt.Sprintf("/novel-%d", i)))
	}
}

// blockingProvider holds detail fetches until released.
type blockingProvider struct {
	*sourcetest.Fake
	entered chan struct{}
	release chan struct{}
}

func (provider *blockingProvider) FetchNovelDetail(ctx context.Context, ref source.NovelRef) (*source.NovelDetail, error) {
	provider.entered <- struct{}{}
	<-provider.release
	return provider.Fake.FetchNovelDetail(ctx, ref)
}

func TestScheduler_NonReentrant(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.favourite(t, "alice", "/novel", 1)
	f.fake.SetDetail("/novel", source.NovelDetail{Title: "Novel"})
	f.fake.SetChapters("/novel", 1)

	provider := &blockingProvider{Fake: f.fake, entered: make(chan struct{}, 1), release: make(chan struct{})}
	scheduler := f.scheduler(t, provider)

	done := make(chan error, 1)
	go func() {
		_, err := scheduler.RunOnce(ctx)
		done <- err
	}()
	<-provider.entered

	assert.True(t, scheduler.Status().Running)

	_, err := scheduler.RunOnce(ctx)
	assert.ErrorIs(t, err, reconcile.ErrAlreadyRunning)

	// Triggers during a run collapse into one pending run
	assert.True(t, scheduler.Trigger())
	assert.False(t, scheduler.Trigger())
	assert.True(t, scheduler.Status().Pending)

	close(provider.release)
	require.NoError(t, <-done)

	status := scheduler.Status()
	assert.False(t, status.Running)
	require.NotNil(t, status.LastReport)
	assert.Equal(t, 1, status.LastReport.Novels)
	assert.Empty(t, status.LastError)
}

func TestScheduler_Run(t *testing.T) {
	f := newFixture(t)
	f.favourite(t, "alice", "/novel", 1)
	f.fake.SetDetail("/novel", source.NovelDetail{Title: "Novel"})
	f.fake.SetChapters("/novel", 2)
	f.config = reconcile.Config{Interval: time.Hour, RunOnStart: true}

	scheduler := f.scheduler(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- scheduler.Run(ctx) }()

	require.Eventually(t, func() bool {
		return scheduler.Status().LastFinished != nil
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, countChapters(t, f.db))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func countChapters(t *testing.T, db *sql.DB) int {
	t.Helper()
	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM chapter_meta`).Scan(&count))
	return count
}

func TestHandler(t *testing.T) {
	f := newFixture(t)
	router := reconcile.NewHandler(f.scheduler(t, nil)).Routes()

	serveAs := func(role sec.UserRole, method, target string) *httptest.ResponseRecorder {
		request := httptest.NewRequest(method, target, nil)
		claims := &sec.AuthClaims{Username: "alice", Role: string(role)}
		request = request.WithContext(ctxutil.WithAuthUser(request.Context(), claims))
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)
		return recorder
	}

	recorder := serveAs(sec.RoleMember, http.MethodGet, "/status")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"data":{"running":false,"pending":false,"lastStarted":null,"lastFinished":null,"lastReport":null}}`, recorder.Body.String())

	recorder = serveAs(sec.RoleMember, http.MethodPost, "/run")
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	recorder = serveAs(sec.RoleAdmin, http.MethodPost, "/run")
	assert.Equal(t, http.StatusAccepted, recorder.Code)
	assert.JSONEq(t, `{"data":{"queued":true}}`, recorder.Body.String())

	recorder = serveAs(sec.RoleAdmin, http.MethodPost, "/run")
	assert.JSONEq(t, `{"data":{"queued":false}}`, recorder.Body.String())
}
