// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reconcile

import (
	"context"
	"log/slog"

	"github.com/taibuivan/lectio/internal/library"
	"github.com/taibuivan/lectio/internal/platform/apperr"
	"github.com/taibuivan/lectio/internal/source"
	"github.com/taibuivan/lectio/pkg/slice"
)

// outcome is the result of reconciling one novel.
type outcome struct {
	added   int
	skipped bool
	failed  bool
}

func (o outcome) addTo(report *Report) {
	switch {
	case o.failed:
		report.Failed++
	case o.skipped:
		report.Skipped++
	case o.added > 0:
		report.Updated++
		report.NewChapters += o.added
	}
}

// reconcileNovel runs Fetching, Diffing and Persisting for one novel. Every
// failure is logged here and never propagates.
func (scheduler *Scheduler) reconcileNovel(ctx context.Context, key library.NovelKey) outcome {
	deps := scheduler.deps
	logger := deps.Logger.With(slog.String("source", key.Source), slog.String("url", key.URL))

	if ctx.Err() != nil {
		return outcome{skipped: true}
	}

	provider, err := deps.Registry.Get(key.Source)
	if err != nil {
		logger.Warn("novel_reconcile_skipped", slog.String("reason", "unknown source"))
		return outcome{skipped: true}
	}

	// 1. Fetching: detail first, falling back to the cached row
	novel, err := scheduler.refreshNovel(ctx, provider, key, logger)
	if err != nil {
		logger.Error("novel_reconcile_failed", slog.String("stage", "detail"), slog.Any("error", err))
		return outcome{failed: true}
	}
	if novel == nil {
		return outcome{skipped: true}
	}

	stubs, err := deps.Walker.Walk(ctx, provider, novel.Ref())
	if err != nil {
		logger.Error("novel_reconcile_failed", slog.String("stage", "chapters"), slog.Any("error", err))
		return outcome{failed: true}
	}

	// 2. Diffing: remote minus cached, keyed by chapter url
	cached, err := deps.Chapters.ListByNovel(ctx, key)
	if err != nil {
		logger.Error("novel_reconcile_failed", slog.String("stage", "diff"), slog.Any("error", err))
		return outcome{failed: true}
	}

	known := make(map[string]struct{}, len(cached))
	for _, chapter := range cached {
		known[chapter.URL] = struct{}{}
	}

	remote := library.ChaptersFromStubs(key, stubs, deps.Now())
	delta := slice.Filter(remote, func(chapter library.ChapterMeta) bool {
		if _, seen := known[chapter.URL]; seen {
			return false
		}
		known[chapter.URL] = struct{}{}
		return true
	})

	if len(delta) == 0 {
		logger.Debug("novel_up_to_date", slog.Int("chapters", len(cached)))
		return outcome{}
	}

	// 3. Persisting
	if err := deps.Chapters.UpsertBulk(ctx, key, delta); err != nil {
		logger.Error("novel_reconcile_failed", slog.String("stage", "persist"), slog.Any("error", err))
		return outcome{failed: true}
	}

	logger.Info("novel_chapters_added", slog.Int("added", len(delta)), slog.Int("total", len(cached)+len(delta)))
	return outcome{added: len(delta)}
}

// refreshNovel fetches and upserts the novel detail. It returns nil without
// error when the source fails and nothing is cached, or when nobody follows
// the novel anymore.
func (scheduler *Scheduler) refreshNovel(ctx context.Context, provider source.Provider, key library.NovelKey, logger *slog.Logger) (*library.NovelMeta, error) {
	deps := scheduler.deps

	cached, err := deps.Novels.FindByKey(ctx, key)
	switch {
	case apperr.IsNotFound(err):
		cached = nil
	case err != nil:
		return nil, err
	}

	ref := source.NovelRef{URL: key.URL}
	var previous map[string]string
	if cached != nil {
		ref = cached.Ref()
		previous = cached.AdditionalProps
	}

	detail, err := provider.FetchNovelDetail(ctx, ref)
	if err != nil {
		if cached == nil {
			logger.Warn("novel_reconcile_skipped", slog.String("reason", "detail unavailable and not cached"), slog.Any("error", err))
			return nil, nil
		}
		logger.Warn("novel_detail_from_cache", slog.Any("error", err))
		return cached, nil
	}

	// The novel may have lost its last follower since the run listed it
	novel := library.NovelFromDetail(key, detail, previous)
	followed, err := deps.Novels.UpsertFollowed(ctx, novel)
	if err != nil {
		return nil, err
	}
	if !followed {
		logger.Info("novel_reconcile_skipped", slog.String("reason", "no longer favourited"))
		return nil, nil
	}
	return novel, nil
}
