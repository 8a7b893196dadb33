// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// LibraryFavouriteTable represents the 'favourites' table
type LibraryFavouriteTable struct {
	Table     string
	Username  string
	Source    string
	URL       string
	DateAdded string
}

// LibraryFavourite is the schema definition for favourites
var LibraryFavourite = LibraryFavouriteTable{
	Table:     "favourites",
	Username:  "username",
	Source:    "source",
	URL:       "url",
	DateAdded: "date_added",
}

// LibraryCategoryTable represents the 'categories' table
type LibraryCategoryTable struct {
	Table    string
	Username string
	Name     string
	Position string
}

// LibraryCategory is the schema definition for categories
var LibraryCategory = LibraryCategoryTable{
	Table:    "categories",
	Username: "username",
	Name:     "name",
	Position: "position",
}

// LibraryFavouriteCategoryTable represents the 'favourite_categories' link table
type LibraryFavouriteCategoryTable struct {
	Table    string
	Username string
	Source   string
	URL      string
	Category string
}

// LibraryFavouriteCategory is the schema definition for favourite_categories
var LibraryFavouriteCategory = LibraryFavouriteCategoryTable{
	Table:    "favourite_categories",
	Username: "username",
	Source:   "source",
	URL:      "url",
	Category: "category",
}
