// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package reconcile keeps cached chapter listings in step with their sources.

A [Scheduler] periodically walks every novel that at least one user follows,
compares the remote listing with the cache and stores only the chapters that
are new. Each run moves through

	Idle -> Enumerating -> per novel (Fetching -> Diffing -> Persisting) -> Idle

Runs never overlap. Ticks and manual triggers share a queue of depth one, so
any number of requests made during a run collapse into a single follow-up run.
*/
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/lectio/internal/library"
	"github.com/taibuivan/lectio/internal/notify"
	"github.com/taibuivan/lectio/internal/platform/constants"
	"github.com/taibuivan/lectio/internal/source"
)

// ErrAlreadyRunning is returned by [Scheduler.RunOnce] while another run is active.
var ErrAlreadyRunning = errors.New("reconcile: a run is already in progress")

// Config tunes the scheduler.
type Config struct {
	// Interval between scheduled runs. Zero disables the ticker.
	Interval time.Duration

	// Concurrency bounds how many novels are processed at once. Values below
	// 1 mean sequential processing.
	Concurrency int

	// RunOnStart queues a run as soon as [Scheduler.Run] starts.
	RunOnStart bool
}

// Dependencies are the collaborators of a [Scheduler].
type Dependencies struct {
	Novels     library.NovelRepository
	Chapters   library.ChapterRepository
	Favourites library.FavouriteRepository
	Registry   *source.Registry
	Walker     *source.Walker
	Sink       notify.Sink
	Logger     *slog.Logger

	// Now stamps dateAdded on new chapters. Defaults to time.Now.
	Now func() time.Time
}

// Report summarizes one run.
type Report struct {
	Novels      int `json:"novels"`
	Updated     int `json:"updated"`
	NewChapters int `json:"newChapters"`
	Skipped     int `json:"skipped"`
	Failed      int `json:"failed"`
}

// Status is the observable state of the scheduler.
type Status struct {
	Running      bool       `json:"running"`
	Pending      bool       `json:"pending"`
	LastStarted  *time.Time `json:"lastStarted"`
	LastFinished *time.Time `json:"lastFinished"`
	LastReport   *Report    `json:"lastReport"`
	LastError    string     `json:"lastError,omitempty"`
}

// Scheduler owns the reconciliation loop. Its state is private and guarded by
// a mutex; the run itself happens on a single worker.
type Scheduler struct {
	config Config
	deps   Dependencies

	trigger chan struct{}

	mu     sync.Mutex
	status Status
}

// New creates a scheduler. Call [Scheduler.Run] to start it.
func New(config Config, deps Dependencies) *Scheduler {
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	if deps.Walker == nil {
		deps.Walker = source.NewWalker(source.DefaultMaxPages)
	}
	if deps.Sink == nil {
		deps.Sink = notify.Discard{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	return &Scheduler{
		config:  config,
		deps:    deps,
		trigger: make(chan struct{}, 1),
	}
}

// # Loop

/*
Run drives the scheduler until ctx is cancelled.

Description: The ticker runs on its own goroutine and only queues runs; the
calling goroutine is the single worker that executes them.

Returns:
  - error: Always nil; cancellation is the normal way to stop
*/
func (scheduler *Scheduler) Run(ctx context.Context) error {
	logger := scheduler.deps.Logger

	if scheduler.config.RunOnStart {
		scheduler.Trigger()
	}

	var ticker sync.WaitGroup
	if scheduler.config.Interval > 0 {
		ticker.Add(1)
		go func() {
			defer ticker.Done()
			scheduler.tick(ctx)
		}()
	}

	logger.Info("reconcile_scheduler_started",
		slog.Duration("interval", scheduler.config.Interval),
		slog.Int("concurrency", scheduler.config.Concurrency),
	)

	for {
		select {
		case <-ctx.Done():
			ticker.Wait()
			logger.Info("reconcile_scheduler_stopped")
			return nil

		case <-scheduler.trigger:
			if _, err := scheduler.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("reconcile_run_failed", slog.Any("error", err))
			}
		}
	}
}

func (scheduler *Scheduler) tick(ctx context.Context) {
	ticker := time.NewTicker(scheduler.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			scheduler.Trigger()
		}
	}
}

// Trigger queues a run. It reports false when a run was already queued, in
// which case the request collapses into that one.
func (scheduler *Scheduler) Trigger() bool {
	select {
	case scheduler.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Status returns a snapshot of the scheduler state.
func (scheduler *Scheduler) Status() Status {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()

	snapshot := scheduler.status
	snapshot.Pending = len(scheduler.trigger) > 0
	if snapshot.LastReport != nil {
		report := *snapshot.LastReport
		snapshot.LastReport = &report
	}
	return snapshot
}

// # Run

/*
RunOnce performs one reconciliation synchronously.

Description: Every distinct favourited (source, url) pair is processed
exactly once. A failing novel is logged and counted; it never aborts the run.
The start and end of the run are broadcast on the sink, and sink errors are
ignored.

Parameters:
  - ctx: context.Context

Returns:
  - Report: Per-run counters
  - error: ErrAlreadyRunning, or the error that prevented enumeration
*/
func (scheduler *Scheduler) RunOnce(ctx context.Context) (Report, error) {
	started, ok := scheduler.begin()
	if !ok {
		return Report{}, ErrAlreadyRunning
	}

	logger := scheduler.deps.Logger
	logger.Info("reconcile_run_started")
	scheduler.broadcast(ctx, "started")

	report, err := scheduler.reconcileAll(ctx)

	scheduler.finish(report, err)
	scheduler.broadcast(ctx, fmt.Sprintf("finished: %d new chapters in %d novels", report.NewChapters, report.Updated))

	logger.Info("reconcile_run_finished",
		slog.Int("novels", report.Novels),
		slog.Int("updated", report.Updated),
		slog.Int("new_chapters", report.NewChapters),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", report.Failed),
		slog.Duration("took", scheduler.deps.Now().Sub(started)),
	)
	return report, err
}

func (scheduler *Scheduler) begin() (time.Time, bool) {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()

	if scheduler.status.Running {
		return time.Time{}, false
	}

	now := scheduler.deps.Now()
	scheduler.status.Running = true
	scheduler.status.LastStarted = &now
	return now, true
}

func (scheduler *Scheduler) finish(report Report, err error) {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()

	now := scheduler.deps.Now()
	scheduler.status.Running = false
	scheduler.status.LastFinished = &now
	scheduler.status.LastReport = &report
	scheduler.status.LastError = ""
	if err != nil {
		scheduler.status.LastError = err.Error()
	}
}

func (scheduler *Scheduler) broadcast(ctx context.Context, message string) {
	if err := scheduler.deps.Sink.Broadcast(ctx, constants.EventFavouritesUpdateCheck, message); err != nil {
		scheduler.deps.Logger.Debug("reconcile_broadcast_dropped", slog.Any("error", err))
	}
}

// reconcileAll enumerates the favourited novels and fans out over them.
func (scheduler *Scheduler) reconcileAll(ctx context.Context) (Report, error) {
	keys, err := scheduler.deps.Favourites.ListUnique(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("reconcile: failed to enumerate favourites: %w", err)
	}

	var (
		mu     sync.Mutex
		report = Report{Novels: len(keys)}
		group  errgroup.Group
	)
	group.SetLimit(scheduler.config.Concurrency)

	for _, key := range keys {
		group.Go(func() error {
			outcome := scheduler.reconcileNovel(ctx, key)

			mu.Lock()
			defer mu.Unlock()
			outcome.addTo(&report)
			return nil
		})
	}
	_ = group.Wait()

	return report, ctx.Err()
}
