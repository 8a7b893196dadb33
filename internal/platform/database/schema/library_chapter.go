// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// LibraryChapterTable represents the 'chapter_meta' table
type LibraryChapterTable struct {
	Table        string
	Source       string
	URL          string
	NovelURL     string
	ChapterIndex string
	Title        string
	DateAdded    string
}

// LibraryChapter is the schema definition for chapter_meta
var LibraryChapter = LibraryChapterTable{
	Table:        "chapter_meta",
	Source:       "source",
	URL:          "url",
	NovelURL:     "novel_url",
	ChapterIndex: "chapter_index",
	Title:        "title",
	DateAdded:    "date_added",
}

func (t LibraryChapterTable) Columns() []string {
	return []string{t.Source, t.URL, t.NovelURL, t.ChapterIndex, t.Title, t.DateAdded}
}
