// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package source defines the contract between the library engine and the sites
it reads novels from.

A [Provider] is opaque: the engine only asks it for novel detail and for pages
of chapter stubs. Everything else lives around it:

  - [Registry]: the explicit set of providers known to this process.
  - [Walker]: walks a paginated chapter listing from page 1 to its last page.
  - [Limit]: decorates a provider with a request budget and a per-call timeout.

Concrete providers live in sub-packages (see source/remote).
*/
package source

import "context"

// # Provider Contract

// NovelRef identifies a novel on its source. Props carries the source-specific
// values a provider stored in the novel's additionalProps on an earlier fetch.
type NovelRef struct {
	URL   string
	Props map[string]string
}

// NovelDetail is the metadata a provider returns for one novel.
type NovelDetail struct {
	Title           string            `json:"title"`
	Cover           string            `json:"cover"`
	Summary         string            `json:"summary"`
	Author          string            `json:"author"`
	Status          string            `json:"status"`
	Genres          []string          `json:"genres"`
	Tags            []string          `json:"tags"`
	LastUpdate      string            `json:"lastUpdate"`
	AdditionalProps map[string]string `json:"additionalProps"`
}

// ChapterStub is one entry of a chapter listing. Number is the chapter's
// explicit index when the source declares one.
type ChapterStub struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Number *int   `json:"number,omitempty"`
}

// ChapterPage is one page of a chapter listing. LastPage is only read from the
// first page of a walk.
type ChapterPage struct {
	Chapters []ChapterStub `json:"chapters"`
	LastPage int           `json:"lastPage"`
}

// Provider is a source of novels and chapter listings.
type Provider interface {
	// ID is the stable source identifier stored with every cached row.
	ID() string

	// Paginated reports whether chapter listings span several pages. It is a
	// static property of the source.
	Paginated() bool

	FetchNovelDetail(ctx context.Context, ref NovelRef) (*NovelDetail, error)
	FetchChapterPage(ctx context.Context, ref NovelRef, page int) (*ChapterPage, error)
}

// # Optional Capabilities

// SearchResult is one hit of a source search.
type SearchResult struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Cover string `json:"cover"`
}

// SearchPage is one page of search hits.
type SearchPage struct {
	Results  []SearchResult `json:"results"`
	LastPage int            `json:"lastPage"`
}

// Searcher is implemented by providers that can search their catalogue.
type Searcher interface {
	Search(ctx context.Context, query string, page int) (*SearchPage, error)
}

// ChapterContent is the readable body of one chapter.
type ChapterContent struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ContentFetcher is implemented by providers that serve chapter bodies.
type ContentFetcher interface {
	FetchChapterContent(ctx context.Context, chapterURL string) (*ChapterContent, error)
}

// Describer is implemented by providers that carry display metadata.
type Describer interface {
	Name() string
	Language() string
}

// unwrapper is implemented by decorators such as [Limit].
type unwrapper interface {
	Unwrap() Provider
}

// innermost follows decorator chains down to the concrete provider.
func innermost(provider Provider) Provider {
	for {
		wrapped, ok := provider.(unwrapper)
		if !ok {
			return provider
		}
		provider = wrapped.Unwrap()
	}
}

// AsSearcher returns provider as a [Searcher] when the concrete provider
// behind any decorators supports search.
func AsSearcher(provider Provider) (Searcher, bool) {
	if _, ok := innermost(provider).(Searcher); !ok {
		return nil, false
	}
	searcher, ok := provider.(Searcher)
	return searcher, ok
}

// AsContentFetcher returns provider as a [ContentFetcher] when the concrete
// provider behind any decorators serves chapter bodies.
func AsContentFetcher(provider Provider) (ContentFetcher, bool) {
	if _, ok := innermost(provider).(ContentFetcher); !ok {
		return nil, false
	}
	fetcher, ok := provider.(ContentFetcher)
	return fetcher, ok
}
