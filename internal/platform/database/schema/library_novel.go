// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// LibraryNovelTable represents the 'novel_meta' table
type LibraryNovelTable struct {
	Table           string
	Source          string
	URL             string
	Title           string
	Cover           string
	Summary         string
	Author          string
	Status          string
	Genres          string
	Tags            string
	LastUpdate      string
	AdditionalProps string
}

// LibraryNovel is the schema definition for novel_meta
var LibraryNovel = LibraryNovelTable{
	Table:           "novel_meta",
	Source:          "source",
	URL:             "url",
	Title:           "title",
	Cover:           "cover",
	Summary:         "summary",
	Author:          "author",
	Status:          "status",
	Genres:          "genres",
	Tags:            "tags",
	LastUpdate:      "last_update",
	AdditionalProps: "additional_props",
}

func (t LibraryNovelTable) Columns() []string {
	return []string{t.Source, t.URL, t.Title, t.Cover, t.Summary, t.Author, t.Status, t.Genres, t.Tags, t.LastUpdate, t.AdditionalProps}
}
