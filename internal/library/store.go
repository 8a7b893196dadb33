// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package library

import "context"

// # Catalogue Cache

// NovelRepository defines the data access contract for cached novel metadata.
type NovelRepository interface {

	// Upsert inserts or fully replaces the novel identified by (source, url).
	Upsert(context context.Context, novel *NovelMeta) error

	// UpsertFollowed upserts the novel only while at least one user favourites
	// it, and reports whether it did.
	UpsertFollowed(context context.Context, novel *NovelMeta) (bool, error)

	/*
		FindByKey returns a cached novel.

		Returns:
		  - *NovelMeta: The cached metadata
		  - error: NotFound if the novel is not cached
	*/
	FindByKey(context context.Context, key NovelKey) (*NovelMeta, error)
}

// ChapterRepository defines the data access contract for cached chapter listings.
type ChapterRepository interface {

	/*
		UpsertBulk writes chapters of one novel in a single transaction.

		Description: Rows are matched on (source, url). Existing rows keep their
		dateAdded so that only genuinely new chapters advance it. The novel must
		already be cached.

		Parameters:
		  - context: context.Context
		  - novel: NovelKey (Supplies source and novelUrl for every row)
		  - chapters: []ChapterMeta

		Returns:
		  - error: NotFound if the novel is not cached, StoreFailure otherwise
	*/
	UpsertBulk(context context.Context, novel NovelKey, chapters []ChapterMeta) error

	// ListByNovel returns the cached chapters ordered by chapterIndex. An empty
	// listing is not an error.
	ListByNovel(context context.Context, novel NovelKey) ([]ChapterMeta, error)

	// Replace upserts a fresh listing and drops the cached chapters it no
	// longer names, except those referenced by history, in one transaction.
	// It returns how many chapters were dropped.
	Replace(context context.Context, novel NovelKey, chapters []ChapterMeta) (int64, error)

	/*
		ListLatest returns the newest chapters across a user's favourites.

		Parameters:
		  - context: context.Context
		  - username: string
		  - limit: int
		  - offset: int

		Returns:
		  - []LatestChapterView: Newest dateAdded first, then chapterIndex descending
		  - int: Total matching chapters
		  - error: StoreFailure
	*/
	ListLatest(context context.Context, username string, limit, offset int) ([]LatestChapterView, int, error)
}

// # Favourites & Categories

// FavouriteRepository defines the data access contract for favourites.
type FavouriteRepository interface {

	/*
		Insert upserts a favourite and its category links in one transaction.

		Description: An existing favourite keeps its original dateAdded. When
		categories is empty and the favourite has no links yet, it is linked to
		the user's default category. Named categories that do not exist are
		created after the last one.

		Parameters:
		  - context: context.Context
		  - favourite: *Favourite
		  - categories: []string (Optional explicit category set)

		Returns:
		  - error: StoreFailure
	*/
	Insert(context context.Context, favourite *Favourite, categories []string) error

	/*
		Remove deletes a favourite with its category links and applies the
		cascade in the same transaction: the last holder purges the novel with
		its chapters, cover image and every user's history; otherwise only the
		remover's history for the novel goes.

		Parameters:
		  - context: context.Context
		  - username: string
		  - key: NovelKey

		Returns:
		  - *Removal: What the cascade did
		  - error: NotFound if the user does not follow the novel, StoreFailure
	*/
	Remove(context context.Context, username string, key NovelKey) (*Removal, error)

	// List returns the favourites of a user, newest first, optionally limited
	// to a single novel.
	List(context context.Context, username string, key *NovelKey) ([]FavouriteView, error)

	// ListUnique returns every distinct (source, url) favourited by any user.
	ListUnique(context context.Context) ([]NovelKey, error)

	// CountHolders returns how many users currently favourite the novel.
	CountHolders(context context.Context, key NovelKey) (int, error)
}

// CategoryRepository defines the data access contract for categories and links.
type CategoryRepository interface {

	// List returns the categories of a user ordered by position.
	List(context context.Context, username string) ([]Category, error)

	// EnsureDefault creates the position-0 category if the user has none.
	EnsureDefault(context context.Context, username string) error

	// CreateBulk creates the named categories after the last existing one,
	// skipping names that already exist, in one transaction.
	CreateBulk(context context.Context, username string, names []string) ([]Category, error)

	/*
		SetForFavourite replaces the category set of a favourite.

		Description: Missing categories are created at max(position)+1; the
		previous links are removed and the new ones inserted, in one transaction.

		Returns:
		  - error: NotFound if the favourite does not exist
	*/
	SetForFavourite(context context.Context, username string, key NovelKey, names []string) error

	// Rename changes a category name; its links follow.
	Rename(context context.Context, username, oldName, newName string) error

	// Move changes the position of a non-default category.
	Move(context context.Context, username, name string, position int) error

	// Delete removes a category, moving its links to the default category.
	Delete(context context.Context, username, name string) error
}

// # Reading History

// HistoryRepository defines the data access contract for reading history.
type HistoryRepository interface {

	// Record upserts the novel, its chapters and the matching history rows in
	// one transaction. entries[i] belongs to chapters[i].
	Record(context context.Context, novel *NovelMeta, chapters []ChapterMeta, entries []History) error

	// Find returns the rows selected by query (see [HistoryQuery]).
	Find(context context.Context, username string, query HistoryQuery) ([]HistoryView, error)

	// Delete removes the row of one chapter.
	Delete(context context.Context, username, sourceID, chapterURL string) error

	// DeleteForNovel removes every row of one novel for the user.
	DeleteForNovel(context context.Context, username string, key NovelKey) (int64, error)
}

// # Image Cache

// ImageRepository defines the data access contract for cached images.
type ImageRepository interface {
	Find(context context.Context, url string) (*Image, error)
	Save(context context.Context, image *Image) error
}
