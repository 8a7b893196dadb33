// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package library is the synchronization and caching engine of Lectio.

It owns the persistent model of a reader's library and the rules that keep it
consistent:

  - Catalogue cache: novel metadata and chapter listings fetched from sources.
  - Favourites: the novels a user follows, grouped into ordered categories.
  - History: the reading position of every chapter a user opened.
  - Images: covers proxied once and served from the store afterwards.

The package follows the Repository pattern. Interfaces live in store.go, the
SQLite implementations in store_sqlite_*.go, business rules in service_*.go and
the HTTP surface in http_*.go.
*/
package library

import (
	"strings"
	"time"

	"github.com/taibuivan/lectio/internal/source"
	"github.com/taibuivan/lectio/pkg/pointer"
)

// # Publication Status

// Status is the publication state of a novel.
type Status string

const (
	StatusOngoing   Status = "Ongoing"
	StatusCompleted Status = "Completed"
	StatusOnHiatus  Status = "OnHiatus"
	StatusCancelled Status = "Cancelled"
	StatusUnknown   Status = "Unknown"
)

// ParseStatus maps the free-form status reported by a source onto [Status].
func ParseStatus(raw string) Status {
	normalized := strings.ToLower(strings.Join(strings.Fields(raw), ""))

	switch normalized {
	case "ongoing", "active", "publishing":
		return StatusOngoing
	case "completed", "complete", "finished":
		return StatusCompleted
	case "onhiatus", "hiatus", "paused":
		return StatusOnHiatus
	case "cancelled", "canceled", "dropped":
		return StatusCancelled
	default:
		return StatusUnknown
	}
}

// # Domain Entities

// NovelKey identifies a novel across the whole store.
type NovelKey struct {
	Source string `json:"source"`
	URL    string `json:"url"`
}

// NovelMeta is the cached metadata of a novel.
type NovelMeta struct {
	Source          string            `json:"source"`
	URL             string            `json:"url"`
	Title           string            `json:"title"`
	Cover           string            `json:"cover"`
	Summary         string            `json:"summary"`
	Author          string            `json:"author"`
	Status          Status            `json:"status"`
	Genres          []string          `json:"genres"`
	Tags            []string          `json:"tags"`
	LastUpdate      string            `json:"lastUpdate"`
	AdditionalProps map[string]string `json:"additionalProps"`
}

// Key returns the store key of the novel.
func (novel *NovelMeta) Key() NovelKey {
	return NovelKey{Source: novel.Source, URL: novel.URL}
}

// Ref builds the provider reference of the novel.
func (novel *NovelMeta) Ref() source.NovelRef {
	return source.NovelRef{URL: novel.URL, Props: novel.AdditionalProps}
}

// normalize fills the zero values the store expects.
func (novel *NovelMeta) normalize() {
	if novel.Status == "" {
		novel.Status = StatusUnknown
	}
	if novel.Genres == nil {
		novel.Genres = []string{}
	}
	if novel.Tags == nil {
		novel.Tags = []string{}
	}
	if novel.AdditionalProps == nil {
		novel.AdditionalProps = map[string]string{}
	}
}

// NovelFromDetail converts a provider answer into cached metadata. Props the
// provider does not return again are kept from previous.
func NovelFromDetail(key NovelKey, detail *source.NovelDetail, previous map[string]string) *NovelMeta {
	props := make(map[string]string, len(previous)+len(detail.AdditionalProps))
	for name, value := range previous {
		props[name] = value
	}
	for name, value := range detail.AdditionalProps {
		props[name] = value
	}

	novel := &NovelMeta{
		Source:          key.Source,
		URL:             key.URL,
		Title:           detail.Title,
		Cover:           detail.Cover,
		Summary:         detail.Summary,
		Author:          detail.Author,
		Status:          ParseStatus(detail.Status),
		Genres:          detail.Genres,
		Tags:            detail.Tags,
		LastUpdate:      detail.LastUpdate,
		AdditionalProps: props,
	}
	novel.normalize()
	return novel
}

// ChapterMeta is one cached chapter of a novel.
type ChapterMeta struct {
	Source       string    `json:"source"`
	URL          string    `json:"url"`
	NovelURL     string    `json:"novelUrl"`
	ChapterIndex int       `json:"chapterIndex"`
	Title        string    `json:"title"`
	DateAdded    time.Time `json:"dateAdded"`
}

// ChaptersFromStubs converts a walked listing into chapter rows. The index is
// the chapter's declared number, or its 1-based position in the walk.
func ChaptersFromStubs(key NovelKey, stubs []source.ChapterStub, now time.Time) []ChapterMeta {
	chapters := make([]ChapterMeta, 0, len(stubs))
	for position, stub := range stubs {
		chapters = append(chapters, ChapterMeta{
			Source:       key.Source,
			URL:          stub.URL,
			NovelURL:     key.URL,
			ChapterIndex: pointer.Fallback(stub.Number, position+1),
			Title:        stub.Title,
			DateAdded:    now,
		})
	}
	return chapters
}

// LatestChapterView is one entry of the "recently updated" feed.
type LatestChapterView struct {
	NovelMeta
	Chapter ChapterMeta `json:"chapter"`
}
