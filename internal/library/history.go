// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package library

import "time"

// History is the reading position of one chapter for one user. URL is the
// chapter URL.
type History struct {
	Username string    `json:"-"`
	Source   string    `json:"source"`
	URL      string    `json:"url"`
	LastRead time.Time `json:"lastRead"`
	Page     int       `json:"page"`
	Position float64   `json:"position"`
}

// HistoryView is a history row with its chapter and novel.
type HistoryView struct {
	History
	Novel   NovelMeta   `json:"novel"`
	Chapter ChapterMeta `json:"chapter"`
}

// HistoryQuery selects one of the three history views.
//
//   - ChapterURL set: the single row of that chapter.
//   - NovelURL set: every row of that novel, newest first.
//   - Neither: the latest row of every novel the user read.
type HistoryQuery struct {
	Source     string
	ChapterURL string
	NovelURL   string
}
