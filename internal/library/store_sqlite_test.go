// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package library_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/lectio/internal/library"
	"github.com/taibuivan/lectio/internal/platform/apperr"
	"github.com/taibuivan/lectio/internal/platform/sqlite"
)

func TestNovelRepository_UpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	novels := library.NewNovelRepository(db)

	meta := novel("/n/1", "First")
	meta.Genres = []string{"Fantasy"}
	meta.AdditionalProps = map[string]string{"id": "42"}
	require.NoError(t, novels.Upsert(ctx, meta))
	require.NoError(t, novels.Upsert(ctx, meta))

	meta.Title = "Renamed"
	require.NoError(t, novels.Upsert(ctx, meta))

	stored, err := novels.FindByKey(ctx, meta.Key())
	require.NoError(t, err)
	assert.Equal(t, "Renamed", stored.Title)
	assert.Equal(t, []string{"Fantasy"}, stored.Genres)
	assert.Equal(t, []string{}, stored.Tags)
	assert.Equal(t, "42", stored.AdditionalProps["id"])
	assert.Equal(t, library.StatusUnknown, stored.Status)
	assert.Equal(t, 1, countRows(t, db, `SELECT COUNT(*) FROM novel_meta`))

	_, err = novels.FindByKey(ctx, library.NovelKey{Source: testSource, URL: "/missing"})
	assert.True(t, apperr.IsNotFound(err))
}

func TestChapterRepository_UpsertBulk(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	novels := library.NewNovelRepository(db)
	repository := library.NewChapterRepository(db)
	key := library.NovelKey{Source: testSource, URL: "/n/1"}

	t.Run("requires the novel", func(t *testing.T) {
		err := repository.UpsertBulk(ctx, key, chapters(key.URL, 1, 2, at(1)))
		assert.True(t, apperr.IsNotFound(err))
		assert.Equal(t, 0, countRows(t, db, `SELECT COUNT(*) FROM chapter_meta`))
	})

	require.NoError(t, novels.Upsert(ctx, novel(key.URL, "One")))

	t.Run("keeps the first dateAdded", func(t *testing.T) {
		require.NoError(t, repository.UpsertBulk(ctx, key, chapters(key.URL, 1, 3, at(1))))

		again := chapters(key.URL, 1, 4, at(5))
		again[0].Title = "Prologue"
		require.NoError(t, repository.UpsertBulk(ctx, key, again))

		stored, err := repository.ListByNovel(ctx, key)
		require.NoError(t, err)
		require.Len(t, stored, 4)

		assert.Equal(t, "Prologue", stored[0].Title)
		assert.True(t, stored[0].DateAdded.Equal(at(1)))
		assert.True(t, stored[2].DateAdded.Equal(at(1)))
		assert.True(t, stored[3].DateAdded.Equal(at(5)))

		for i, chapter := range stored {
			assert.Equal(t, i+1, chapter.ChapterIndex)
			assert.Equal(t, key.URL, chapter.NovelURL)
		}
	})

	t.Run("empty listing is not an error", func(t *testing.T) {
		stored, err := repository.ListByNovel(ctx, library.NovelKey{Source: testSource, URL: "/none"})
		require.NoError(t, err)
		assert.Empty(t, stored)
	})
}

/*
TestChapterRepository_Replace checks that a fresh listing keeps the dates of
chapters it still names, adds new ones, and drops only unread chapters that
are gone.
*/
func TestChapterRepository_Replace(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t, "reader")
	novels := library.NewNovelRepository(db)
	repository := library.NewChapterRepository(db)
	history := library.NewHistoryRepository(db)

	meta := novel("/n/1", "One")
	key := meta.Key()

	_, err := repository.Replace(ctx, key, chapters(key.URL, 1, 2, at(1)))
	assert.True(t, apperr.IsNotFound(err))

	require.NoError(t, novels.Upsert(ctx, meta))
	cached := chapters(key.URL, 1, 4, at(1))
	require.NoError(t, repository.UpsertBulk(ctx, key, cached))
	require.NoError(t, history.Record(ctx, meta, cached[3:], []library.History{
		{Username: "reader", LastRead: at(2)},
	}))

	// Chapter 3 is unread and unlisted, chapter 4 is unlisted but read
	listing := append(chapters(key.URL, 1, 2, at(9)), chapters(key.URL, 5, 5, at(9))...)
	removed, err := repository.Replace(ctx, key, listing)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	stored, err := repository.ListByNovel(ctx, key)
	require.NoError(t, err)

	added := make(map[string]time.Time, len(stored))
	for _, chapter := range stored {
		added[chapter.URL] = chapter.DateAdded
	}
	require.Len(t, added, 4)
	assert.NotContains(t, added, key.URL+"/chapter-3")
	assert.True(t, added[key.URL+"/chapter-1"].Equal(at(1)))
	assert.True(t, added[key.URL+"/chapter-2"].Equal(at(1)))
	assert.True(t, added[key.URL+"/chapter-4"].Equal(at(1)))
	assert.True(t, added[key.URL+"/chapter-5"].Equal(at(9)))

	// The same listing again changes nothing
	removed, err = repository.Replace(ctx, key, listing)
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.Equal(t, 1, countRows(t, db, `SELECT COUNT(*) FROM chapter_meta WHERE date_added > ?`, sqlite.Timestamp(at(1))))
}

func TestFavouriteRepository_Insert(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t, "reader")
	novels := library.NewNovelRepository(db)
	favourites := library.NewFavouriteRepository(db)
	chaptersRepo := library.NewChapterRepository(db)
	history := library.NewHistoryRepository(db)

	first, second := novel("/n/1", "One"), novel("/n/2", "Two")
	require.NoError(t, novels.Upsert(ctx, first))
	require.NoError(t, novels.Upsert(ctx, second))
	require.NoError(t, chaptersRepo.UpsertBulk(ctx, first.Key(), chapters(first.URL, 1, 5, at(1))))
	require.NoError(t, chaptersRepo.UpsertBulk(ctx, first.Key(), chapters(first.URL, 6, 6, at(3))))

	// Two chapters of the first novel read
	read := chapters(first.URL, 1, 2, at(1))
	require.NoError(t, history.Record(ctx, first, read, []library.History{
		{Username: "reader", LastRead: at(2)},
		{Username: "reader", LastRead: at(2)},
	}))

	require.NoError(t, favourites.Insert(ctx, &library.Favourite{Username: "reader", Source: testSource, URL: first.URL, DateAdded: at(4)}, nil))
	require.NoError(t, favourites.Insert(ctx, &library.Favourite{Username: "reader", Source: testSource, URL: second.URL, DateAdded: at(5)}, []string{"Later", "Weekend"}))

	// Re-insert keeps the original date and links
	require.NoError(t, favourites.Insert(ctx, &library.Favourite{Username: "reader", Source: testSource, URL: first.URL, DateAdded: at(9)}, nil))

	views, err := favourites.List(ctx, "reader", nil)
	require.NoError(t, err)
	require.Len(t, views, 2)

	// Newest favourite first
	assert.Equal(t, second.URL, views[0].URL)
	assert.Equal(t, []string{"Later", "Weekend"}, views[0].Categories)
	assert.Equal(t, 0, views[0].ChapterCount)
	assert.Nil(t, views[0].ChapterDateAdded)

	assert.Equal(t, first.URL, views[1].URL)
	assert.Equal(t, "One", views[1].Title)
	assert.True(t, views[1].DateAdded.Equal(at(4)))
	assert.Equal(t, []string{"Favourites"}, views[1].Categories)
	assert.Equal(t, 6, views[1].ChapterCount)
	assert.Equal(t, 2, views[1].ReadCount)
	require.NotNil(t, views[1].ChapterDateAdded)
	assert.True(t, views[1].ChapterDateAdded.Equal(at(3)))

	filtered, err := favourites.List(ctx, "reader", &library.NovelKey{Source: testSource, URL: second.URL})
	require.NoError(t, err)
	require.Len(t, filtered, 1)

	unique, err := favourites.ListUnique(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []library.NovelKey{first.Key(), second.Key()}, unique)

	// A favourite needs its novel cached
	err = favourites.Insert(ctx, &library.Favourite{Username: "reader", Source: testSource, URL: "/n/uncached"}, nil)
	assert.True(t, apperr.IsNotFound(err))

	// The last holder's removal purges the novel with its chapters
	removal, err := favourites.Remove(ctx, "reader", first.Key())
	require.NoError(t, err)
	assert.True(t, removal.Purged)
	assert.Equal(t, 0, countRows(t, db, `SELECT COUNT(*) FROM chapter_meta WHERE novel_url = ?`, first.URL))

	_, err = favourites.Remove(ctx, "reader", first.Key())
	assert.True(t, apperr.IsNotFound(err))
}

func TestCategoryRepository_Invariants(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t, "reader")
	novels := library.NewNovelRepository(db)
	favourites := library.NewFavouriteRepository(db)
	categories := library.NewCategoryRepository(db)

	meta := novel("/n/1", "One")
	require.NoError(t, novels.Upsert(ctx, meta))
	require.NoError(t, favourites.Insert(ctx, &library.Favourite{Username: "reader", Source: testSource, URL: meta.URL}, nil))

	categoriesOf := func() []string {
		views, err := favourites.List(ctx, "reader", nil)
		require.NoError(t, err)
		require.Len(t, views, 1)
		return views[0].Categories
	}

	t.Run("set replaces the link set and creates missing categories", func(t *testing.T) {
		require.NoError(t, categories.SetForFavourite(ctx, "reader", meta.Key(), []string{"Reading", "Isekai", "Reading"}))
		assert.Equal(t, []string{"Reading", "Isekai"}, categoriesOf())

		require.NoError(t, categories.SetForFavourite(ctx, "reader", meta.Key(), []string{"Isekai"}))
		assert.Equal(t, []string{"Isekai"}, categoriesOf())

		listed, err := categories.List(ctx, "reader")
		require.NoError(t, err)
		assert.Equal(t, []library.Category{
			{Name: "Favourites", Position: 0},
			{Name: "Reading", Position: 1},
			{Name: "Isekai", Position: 2},
		}, listed)
	})

	t.Run("set on a missing favourite", func(t *testing.T) {
		err := categories.SetForFavourite(ctx, "reader", library.NovelKey{Source: testSource, URL: "/other"}, []string{"X"})
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("rename carries links", func(t *testing.T) {
		require.NoError(t, categories.Rename(ctx, "reader", "Isekai", "Portal"))
		assert.Equal(t, []string{"Portal"}, categoriesOf())

		err := categories.Rename(ctx, "reader", "Portal", "Reading")
		assert.True(t, apperr.IsCode(err, apperr.CodeConflict))
	})

	t.Run("delete moves links to the default category", func(t *testing.T) {
		require.NoError(t, categories.Delete(ctx, "reader", "Portal"))
		assert.Equal(t, []string{"Favourites"}, categoriesOf())

		err := categories.Delete(ctx, "reader", "Favourites")
		assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
	})

	t.Run("move renumbers densely", func(t *testing.T) {
		_, err := categories.CreateBulk(ctx, "reader", []string{"A", "B"})
		require.NoError(t, err)
		require.NoError(t, categories.Move(ctx, "reader", "B", 1))

		listed, err := categories.List(ctx, "reader")
		require.NoError(t, err)
		assert.Equal(t, []library.Category{
			{Name: "Favourites", Position: 0},
			{Name: "B", Position: 1},
			{Name: "Reading", Position: 2},
			{Name: "A", Position: 3},
		}, listed)
	})
}

func TestHistoryRepository_Find(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t, "reader", "other")
	repository := library.NewHistoryRepository(db)

	first, second := novel("/n/1", "One"), novel("/n/2", "Two")
	firstChapters := chapters(first.URL, 1, 3, at(0))
	secondChapters := chapters(second.URL, 1, 2, at(0))

	require.NoError(t, repository.Record(ctx, first, firstChapters, []library.History{
		{Username: "reader", LastRead: at(1), Page: 1},
		{Username: "reader", LastRead: at(4), Page: 2, Position: 0.5},
		{Username: "reader", LastRead: at(2)},
	}))
	require.NoError(t, repository.Record(ctx, second, secondChapters[:1], []library.History{
		{Username: "reader", LastRead: at(3)},
	}))
	require.NoError(t, repository.Record(ctx, second, secondChapters[1:], []library.History{
		{Username: "other", LastRead: at(9)},
	}))

	t.Run("single chapter", func(t *testing.T) {
		views, err := repository.Find(ctx, "reader", library.HistoryQuery{ChapterURL: firstChapters[1].URL})
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, 2, views[0].Page)
		assert.Equal(t, 0.5, views[0].Position)
		assert.Equal(t, "One", views[0].Novel.Title)
		assert.Equal(t, 2, views[0].Chapter.ChapterIndex)

		_, err = repository.Find(ctx, "reader", library.HistoryQuery{ChapterURL: secondChapters[1].URL})
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("one novel", func(t *testing.T) {
		views, err := repository.Find(ctx, "reader", library.HistoryQuery{NovelURL: first.URL})
		require.NoError(t, err)
		require.Len(t, views, 3)
		assert.Equal(t, firstChapters[1].URL, views[0].URL)
		assert.Equal(t, firstChapters[2].URL, views[1].URL)
		assert.Equal(t, firstChapters[0].URL, views[2].URL)
	})

	t.Run("latest per novel", func(t *testing.T) {
		views, err := repository.Find(ctx, "reader", library.HistoryQuery{})
		require.NoError(t, err)
		require.Len(t, views, 2)
		assert.Equal(t, firstChapters[1].URL, views[0].URL)
		assert.Equal(t, secondChapters[0].URL, views[1].URL)
	})

	t.Run("recording again moves progress", func(t *testing.T) {
		require.NoError(t, repository.Record(ctx, first, firstChapters[:1], []library.History{
			{Username: "reader", LastRead: at(8), Page: 7},
		}))

		views, err := repository.Find(ctx, "reader", library.HistoryQuery{})
		require.NoError(t, err)
		require.Len(t, views, 2)
		assert.Equal(t, firstChapters[0].URL, views[0].URL)
		assert.Equal(t, 7, views[0].Page)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repository.Delete(ctx, "reader", testSource, secondChapters[0].URL))
		err := repository.Delete(ctx, "reader", testSource, secondChapters[0].URL)
		assert.True(t, apperr.IsNotFound(err))

		removed, err := repository.DeleteForNovel(ctx, "reader", first.Key())
		require.NoError(t, err)
		assert.Equal(t, int64(3), removed)
		assert.Equal(t, 1, countRows(t, db, `SELECT COUNT(*) FROM history`))
	})
}

func TestImageRepository(t *testing.T) {
	ctx := context.Background()
	images := library.NewImageRepository(newTestDB(t))

	_, err := images.Find(ctx, "https://img.example/a.png")
	assert.True(t, apperr.IsNotFound(err))

	require.NoError(t, images.Save(ctx, &library.Image{URL: "https://img.example/a.png", ContentType: "image/png", Data: []byte{1, 2}}))

	stored, err := images.Find(ctx, "https://img.example/a.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", stored.ContentType)
	assert.Equal(t, []byte{1, 2}, stored.Data)
	assert.False(t, stored.CachedAt.IsZero())
}

/*
TestChapterRepository_ListLatest checks the feed order and that a page past
the end reports the same total as the first page, even with chapters whose
novel row is missing.
*/
func TestChapterRepository_ListLatest(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t, "reader")
	novels := library.NewNovelRepository(db)
	favourites := library.NewFavouriteRepository(db)
	repository := library.NewChapterRepository(db)

	meta := novel("/n/1", "One")
	require.NoError(t, novels.Upsert(ctx, meta))
	require.NoError(t, repository.UpsertBulk(ctx, meta.Key(), chapters(meta.URL, 1, 2, at(1))))
	require.NoError(t, repository.UpsertBulk(ctx, meta.Key(), chapters(meta.URL, 3, 3, at(2))))
	require.NoError(t, favourites.Insert(ctx, &library.Favourite{Username: "reader", Source: testSource, URL: meta.URL}, nil))

	// A followed novel whose metadata row is gone
	_, err := db.ExecContext(ctx, `INSERT INTO favourites (username, source, url) VALUES ('reader', ?, '/orphan')`, testSource)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO chapter_meta (source, url, novel_url) VALUES (?, '/orphan/1', '/orphan')`, testSource)
	require.NoError(t, err)

	page, total, err := repository.ListLatest(ctx, "reader", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, meta.URL+"/chapter-3", page[0].Chapter.URL)
	assert.Equal(t, meta.URL+"/chapter-2", page[1].Chapter.URL)
	assert.Equal(t, "One", page[0].Title)

	beyond, total, err := repository.ListLatest(ctx, "reader", 2, 10)
	require.NoError(t, err)
	assert.Empty(t, beyond)
	assert.Equal(t, 3, total)
}
