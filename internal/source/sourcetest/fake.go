// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sourcetest provides an in-memory [source.Provider] for tests.
package sourcetest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/taibuivan/lectio/internal/source"
	"github.com/taibuivan/lectio/pkg/pointer"
)

// ErrNoData is returned for novels the fake knows nothing about.
var ErrNoData = errors.New("sourcetest: no data for novel")

// Call records one provider request.
type Call struct {
	Op   string
	URL  string
	Page int
}

// Fake is a scripted provider. It is safe for concurrent use.
type Fake struct {
	mu sync.Mutex

	id        string
	paginated bool

	details    map[string]*source.NovelDetail
	pages      map[string][]source.ChapterPage
	detailErr  map[string]error
	chapterErr map[string]error
	content    map[string]*source.ChapterContent

	calls []Call
}

// New creates an empty fake source.
func New(id string, paginated bool) *Fake {
	return &Fake{
		id:         id,
		paginated:  paginated,
		details:    make(map[string]*source.NovelDetail),
		pages:      make(map[string][]source.ChapterPage),
		detailErr:  make(map[string]error),
		chapterErr: make(map[string]error),
		content:    make(map[string]*source.ChapterContent),
	}
}

func (fake *Fake) ID() string { return fake.id }
func (fake *Fake) Paginated() bool { return fake.paginated }

// SetDetail scripts the detail returned for novelURL.
func (fake *Fake) SetDetail(novelURL string, detail source.NovelDetail) {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	fake.details[novelURL] = &detail
	delete(fake.detailErr, novelURL)
}

// SetPages scripts the chapter pages of novelURL. Page 1 declares lastPage.
func (fake *Fake) SetPages(novelURL string, lastPage int, pages ...[]source.ChapterStub) {
	fake.mu.Lock()
	defer fake.mu.Unlock()

	scripted := make([]source.ChapterPage, len(pages))
	for i, stubs := range pages {
		scripted[i] = source.ChapterPage{Chapters: stubs}
	}
	if len(scripted) > 0 {
		scripted[0].LastPage = lastPage
	}
	fake.pages[novelURL] = scripted
	delete(fake.chapterErr, novelURL)
}

// SetChapters scripts a single-page listing of n chapters named after novelURL.
func (fake *Fake) SetChapters(novelURL string, n int) {
	fake.SetPages(novelURL, 1, Stubs(novelURL, 1, n))
}

// SetContent scripts the body returned for chapterURL.
func (fake *Fake) SetContent(chapterURL string, content source.ChapterContent) {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	fake.content[chapterURL] = &content
}

// FailDetail makes detail fetches for novelURL return err.
func (fake *Fake) FailDetail(novelURL string, err error) {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	fake.detailErr[novelURL] = err
}

// FailChapters makes chapter fetches for novelURL return err.
func (fake *Fake) FailChapters(novelURL string, err error) {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	fake.chapterErr[novelURL] = err
}

// Calls returns a copy of every request received so far.
func (fake *Fake) Calls() []Call {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	return append([]Call(nil), fake.calls...)
}

// CountCalls returns how many requests of op were made for novelURL.
func (fake *Fake) CountCalls(op, novelURL string) int {
	count := 0
	for _, call := range fake.Calls() {
		if call.Op == op && call.URL == novelURL {
			count++
		}
	}
	return count
}

func (fake *Fake) FetchNovelDetail(ctx context.Context, ref source.NovelRef) (*source.NovelDetail, error) {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	fake.calls = append(fake.calls, Call{Op: source.OpDetail, URL: ref.URL})

	if err := fake.detailErr[ref.URL]; err != nil {
		return nil, err
	}
	detail, ok := fake.details[ref.URL]
	if !ok {
		return nil, ErrNoData
	}
	copied := *detail
	return &copied, nil
}

func (fake *Fake) FetchChapterPage(ctx context.Context, ref source.NovelRef, page int) (*source.ChapterPage, error) {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	fake.calls = append(fake.calls, Call{Op: source.OpChapters, URL: ref.URL, Page: page})

	if err := fake.chapterErr[ref.URL]; err != nil {
		return nil, err
	}
	pages, ok := fake.pages[ref.URL]
	if !ok {
		return nil, ErrNoData
	}
	if page < 1 || page > len(pages) {
		return &source.ChapterPage{}, nil
	}
	copied := pages[page-1]
	return &copied, nil
}

func (fake *Fake) FetchChapterContent(ctx context.Context, chapterURL string) (*source.ChapterContent, error) {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	fake.calls = append(fake.calls, Call{Op: source.OpContent, URL: chapterURL})

	content, ok := fake.content[chapterURL]
	if !ok {
		return nil, ErrNoData
	}
	copied := *content
	return &copied, nil
}

// Stubs builds chapters from..to of novelURL with explicit numbers.
func Stubs(novelURL string, from, to int) []source.ChapterStub {
	if to < from {
		return nil
	}
	stubs := make([]source.ChapterStub, 0, to-from+1)
	for i := from; i <= to; i++ {
		stubs = append(stubs, source.ChapterStub{
			Title:  fmt.Sprintf("Chapter %d", i),
			URL:    fmt.Sprintf("%s/chapter-%d", novelURL, i),
			Number: pointer.To(i),
		})
	}
	return stubs
}
