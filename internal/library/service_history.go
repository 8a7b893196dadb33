// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package library

import (
	"context"
	"fmt"
	"time"

	"github.com/taibuivan/lectio/internal/platform/validate"
	"github.com/taibuivan/lectio/pkg/slice"
)

// ReadingEntry is the progress of one chapter as reported by a reader.
type ReadingEntry struct {
	Chapter  ChapterMeta `json:"chapter"`
	Page     int         `json:"page"`
	Position float64     `json:"position"`

	// LastRead defaults to now.
	LastRead time.Time `json:"lastRead"`
}

// # History

// RecordHistory stores the progress of a single chapter, upserting the novel
// and chapter it belongs to.
func (service *Service) RecordHistory(context context.Context, username string, novel NovelMeta, entry ReadingEntry) error {
	return service.RecordHistoryBulk(context, username, novel, []ReadingEntry{entry})
}

/*
RecordHistoryBulk stores the progress of many chapters of one novel in a
single transaction.

Parameters:
  - context: context.Context
  - username: string
  - novel: NovelMeta (Upserted as given; a bare source and url keep the cached row)
  - entries: []ReadingEntry

Returns:
  - error: ValidationError before any store access, StoreFailure otherwise
*/
func (service *Service) RecordHistoryBulk(context context.Context, username string, novel NovelMeta, entries []ReadingEntry) error {
	validator := &validate.Validator{}
	validator.Required(FieldSource, novel.Source).Required(FieldURL, novel.URL)
	validator.Custom(FieldChapterURL, len(entries) == 0, "At least one chapter is required")

	for i, entry := range entries {
		field := fmt.Sprintf("entries[%d]", i)
		validator.Required(field+"."+FieldChapterURL, entry.Chapter.URL)
		validator.Custom(field+"."+FieldPage, entry.Page < 0, "Must not be negative")
		validator.NonNegative(field+"."+FieldPosition, entry.Position)
	}
	if err := validator.Err(); err != nil {
		return err
	}

	// A bare reference keeps the cached metadata instead of blanking it
	if novel.Title == "" {
		cached, err := service.cachedNovel(context, novel.Key())
		if err != nil {
			return err
		}
		if cached != nil {
			novel = *cached
		}
	}

	novel.normalize()
	key := novel.Key()
	now := service.now()

	chapters := slice.Map(entries, func(entry ReadingEntry) ChapterMeta {
		chapter := entry.Chapter
		chapter.Source, chapter.NovelURL = key.Source, key.URL
		return chapter
	})

	history := slice.Map(entries, func(entry ReadingEntry) History {
		lastRead := entry.LastRead
		if lastRead.IsZero() {
			lastRead = now
		}
		return History{
			Username: username,
			Source:   key.Source,
			URL:      entry.Chapter.URL,
			LastRead: lastRead,
			Page:     entry.Page,
			Position: entry.Position,
		}
	})

	return service.repos.History.Record(context, &novel, chapters, history)
}

// FindHistory returns history in the mode selected by query: one chapter, one
// novel, or the latest chapter of every novel.
func (service *Service) FindHistory(context context.Context, username string, query HistoryQuery) ([]HistoryView, error) {
	return service.repos.History.Find(context, username, query)
}

// DeleteHistory removes the history row of one chapter.
func (service *Service) DeleteHistory(context context.Context, username, sourceID, chapterURL string) error {
	validator := &validate.Validator{}
	validator.Required(FieldSource, sourceID).Required(FieldChapterURL, chapterURL)
	if err := validator.Err(); err != nil {
		return err
	}
	return service.repos.History.Delete(context, username, sourceID, chapterURL)
}

// DeleteNovelHistory removes every history row of one novel for the user.
func (service *Service) DeleteNovelHistory(context context.Context, username string, key NovelKey) (int64, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}
	return service.repos.History.DeleteForNovel(context, username, key)
}
