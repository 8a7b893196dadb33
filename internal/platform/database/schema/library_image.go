// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// LibraryImageTable represents the 'images' table
type LibraryImageTable struct {
	Table       string
	URL         string
	ContentType string
	Data        string
	CachedAt    string
}

// LibraryImage is the schema definition for images
var LibraryImage = LibraryImageTable{
	Table:       "images",
	URL:         "url",
	ContentType: "content_type",
	Data:        "data",
	CachedAt:    "cached_at",
}
