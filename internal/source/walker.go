// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package source

import (
	"context"
	"fmt"
)

// DefaultMaxPages is the walk limit used when none is configured.
const DefaultMaxPages = 1000

// Walker fetches every page of a chapter listing, strictly in order.
//
// A walk always starts again from page 1. The bound declared on page 1 is
// authoritative: pages 2..lastPage are fetched even when some of them are
// empty, and nothing past lastPage is requested.
type Walker struct {
	maxPages int
}

// NewWalker creates a walker that rejects listings declaring more than maxPages.
func NewWalker(maxPages int) *Walker {
	if maxPages < 1 {
		maxPages = DefaultMaxPages
	}
	return &Walker{maxPages: maxPages}
}

/*
Walk returns the concatenated chapter stubs of a novel.

Parameters:
  - ctx: context.Context (Cancels between page fetches)
  - provider: Provider
  - ref: NovelRef

Returns:
  - []ChapterStub: Stubs in listing order
  - error: *ProviderError for any failed page or an oversized bound
*/
func (walker *Walker) Walk(ctx context.Context, provider Provider, ref NovelRef) ([]ChapterStub, error) {

	// 1. First page (the only page for non-paginated sources)
	first, err := provider.FetchChapterPage(ctx, ref, 1)
	if err != nil {
		return nil, Fail(provider.ID(), OpChapters, err)
	}

	stubs := append([]ChapterStub(nil), first.Chapters...)
	if !provider.Paginated() || first.LastPage <= 1 {
		return stubs, nil
	}

	// 2. Bound check before any further request
	if first.LastPage > walker.maxPages {
		return nil, Fail(provider.ID(), OpChapters,
			fmt.Errorf("%w: %d > %d", ErrTooManyPages, first.LastPage, walker.maxPages))
	}

	// 3. Remaining pages, in order
	for page := 2; page <= first.LastPage; page++ {
		if err := ctx.Err(); err != nil {
			return nil, Fail(provider.ID(), OpChapters, err)
		}

		next, err := provider.FetchChapterPage(ctx, ref, page)
		if err != nil {
			return nil, Fail(provider.ID(), OpChapters, fmt.Errorf("page %d: %w", page, err))
		}
		stubs = append(stubs, next.Chapters...)
	}

	return stubs, nil
}
