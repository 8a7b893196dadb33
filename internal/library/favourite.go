// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package library

import "time"

// Favourite marks a novel as followed by a user.
type Favourite struct {
	Username  string    `json:"-"`
	Source    string    `json:"source"`
	URL       string    `json:"url"`
	DateAdded time.Time `json:"dateAdded"`
}

// Key returns the novel the favourite points at.
func (favourite *Favourite) Key() NovelKey {
	return NovelKey{Source: favourite.Source, URL: favourite.URL}
}

// Removal reports the cascade applied when a favourite was removed.
type Removal struct {
	// Holders is how many users still follow the novel.
	Holders        int
	Purged         bool
	HistoryRemoved int64
}

// FavouriteView is a favourite joined with its novel and reading statistics.
type FavouriteView struct {
	NovelMeta

	DateAdded    time.Time `json:"dateAdded"`
	ChapterCount int       `json:"chapterCount"`
	ReadCount    int       `json:"readCount"`

	// Categories are ordered by category position. Empty means uncategorized.
	Categories []string `json:"categories"`

	// ChapterDateAdded is when the most recent chapter entered the cache.
	ChapterDateAdded *time.Time `json:"chapterDateAdded"`
}

// Category is a named, ordered shelf of favourites. Position 0 is the
// user's default category.
type Category struct {
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// IsDefault reports whether the category is the undeletable default.
func (category *Category) IsDefault() bool {
	return category.Position == 0
}
