// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package source

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// limitedProvider spends one token of a shared bucket per call and bounds each
// call with a timeout. The bucket is per source, so concurrent reconciliation
// workers and API requests share one budget.
type limitedProvider struct {
	inner   Provider
	limiter *rate.Limiter
	timeout time.Duration
}

// Limit decorates provider with a request budget of rps (burst 1) and a
// per-call timeout. A non-positive rps disables the budget and a non-positive
// timeout disables the deadline.
func Limit(provider Provider, rps float64, timeout time.Duration) Provider {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return &limitedProvider{inner: provider, limiter: limiter, timeout: timeout}
}

func (provider *limitedProvider) ID() string { return provider.inner.ID() }
func (provider *limitedProvider) Paginated() bool { return provider.inner.Paginated() }
func (provider *limitedProvider) Unwrap() Provider { return provider.inner }

// acquire waits for a token and derives the per-call deadline.
func (provider *limitedProvider) acquire(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if err := provider.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}
	if provider.timeout <= 0 {
		return ctx, func() {}, nil
	}
	callCtx, cancel := context.WithTimeout(ctx, provider.timeout)
	return callCtx, cancel, nil
}

func (provider *limitedProvider) FetchNovelDetail(ctx context.Context, ref NovelRef) (*NovelDetail, error) {
	callCtx, cancel, err := provider.acquire(ctx)
	if err != nil {
		return nil, Fail(provider.ID(), OpDetail, err)
	}
	defer cancel()

	detail, err := provider.inner.FetchNovelDetail(callCtx, ref)
	return detail, Fail(provider.ID(), OpDetail, err)
}

func (provider *limitedProvider) FetchChapterPage(ctx context.Context, ref NovelRef, page int) (*ChapterPage, error) {
	callCtx, cancel, err := provider.acquire(ctx)
	if err != nil {
		return nil, Fail(provider.ID(), OpChapters, err)
	}
	defer cancel()

	chapterPage, err := provider.inner.FetchChapterPage(callCtx, ref, page)
	return chapterPage, Fail(provider.ID(), OpChapters, err)
}

func (provider *limitedProvider) Search(ctx context.Context, query string, page int) (*SearchPage, error) {
	searcher, ok := provider.inner.(Searcher)
	if !ok {
		return nil, Fail(provider.ID(), OpSearch, ErrUnsupported)
	}

	callCtx, cancel, err := provider.acquire(ctx)
	if err != nil {
		return nil, Fail(provider.ID(), OpSearch, err)
	}
	defer cancel()

	results, err := searcher.Search(callCtx, query, page)
	return results, Fail(provider.ID(), OpSearch, err)
}

func (provider *limitedProvider) FetchChapterContent(ctx context.Context, chapterURL string) (*ChapterContent, error) {
	fetcher, ok := provider.inner.(ContentFetcher)
	if !ok {
		return nil, Fail(provider.ID(), OpContent, ErrUnsupported)
	}

	callCtx, cancel, err := provider.acquire(ctx)
	if err != nil {
		return nil, Fail(provider.ID(), OpContent, err)
	}
	defer cancel()

	content, err := fetcher.FetchChapterContent(callCtx, chapterURL)
	return content, Fail(provider.ID(), OpContent, err)
}
