// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// LibraryHistoryTable represents the 'history' table
type LibraryHistoryTable struct {
	Table    string
	Username string
	Source   string
	URL      string
	LastRead string
	Page     string
	Position string
}

// LibraryHistory is the schema definition for history
var LibraryHistory = LibraryHistoryTable{
	Table:    "history",
	Username: "username",
	Source:   "source",
	URL:      "url",
	LastRead: "last_read",
	Page:     "page",
	Position: "position",
}

func (t LibraryHistoryTable) Columns() []string {
	return []string{t.Username, t.Source, t.URL, t.LastRead, t.Page, t.Position}
}
