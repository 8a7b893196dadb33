// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package library

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/taibuivan/lectio/internal/platform/apperr"
	"github.com/taibuivan/lectio/internal/platform/database/schema"
	"github.com/taibuivan/lectio/internal/platform/dberr"
	"github.com/taibuivan/lectio/internal/platform/sqlite"
)

// favouriteRepository implements [FavouriteRepository] on SQLite.
type favouriteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewFavouriteRepository constructs a SQLite backed favourite store.
func NewFavouriteRepository(db *sql.DB) FavouriteRepository {
	return &favouriteRepository{db: db, now: time.Now}
}

/*
Insert upserts a favourite with its category links.

Parameters:
  - context: context.Context
  - favourite: *Favourite (DateAdded defaults to now)
  - categories: []string (Replaces the link set when non-empty)

Returns:
  - error: NotFound("Novel") when the novel is not cached, StoreFailure
*/
func (repository *favouriteRepository) Insert(context context.Context, favourite *Favourite, categories []string) error {
	if favourite.DateAdded.IsZero() {
		favourite.DateAdded = repository.now()
	}

	err := sqlite.WithTx(context, repository.db, func(tx *sql.Tx) error {
		table := schema.LibraryFavourite

		// 1. The novel may have been purged since the caller cached it
		exists, err := novelExists(context, tx, favourite.Key())
		if err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound("Novel")
		}

		// 2. Favourite row; a repeated insert keeps the original date
		_, err = tx.ExecContext(context,
			fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s) VALUES (?, ?, ?, ?) ON CONFLICT (%s, %s, %s) DO NOTHING`,
				table.Table, table.Username, table.Source, table.URL, table.DateAdded,
				table.Username, table.Source, table.URL),
			favourite.Username, favourite.Source, favourite.URL, sqlite.Timestamp(favourite.DateAdded),
		)
		if err != nil {
			return fmt.Errorf("sqlite: failed to insert favourite: %w", err)
		}

		// 3. Explicit categories replace the link set
		if len(normalizeCategoryNames(categories)) > 0 {
			return replaceCategoryLinks(context, tx, favourite.Username, favourite.Key(), categories)
		}

		// 4. Otherwise an unlinked favourite lands in the default category
		links := schema.LibraryFavouriteCategory
		var linkCount int
		err = tx.QueryRowContext(context,
			fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = ? AND %s = ? AND %s = ?`,
				links.Table, links.Username, links.Source, links.URL),
			favourite.Username, favourite.Source, favourite.URL,
		).Scan(&linkCount)
		if err != nil {
			return fmt.Errorf("sqlite: failed to count category links: %w", err)
		}
		if linkCount > 0 {
			return nil
		}

		defaultName, err := ensureDefaultCategory(context, tx, favourite.Username)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(context,
			fmt.Sprintf(`INSERT OR IGNORE INTO %s (%s, %s, %s, %s) VALUES (?, ?, ?, ?)`,
				links.Table, links.Username, links.Source, links.URL, links.Category),
			favourite.Username, favourite.Source, favourite.URL, defaultName,
		)
		if err != nil {
			return fmt.Errorf("sqlite: failed to link default category: %w", err)
		}
		return nil
	})

	return dberr.Wrap(err, "Favourite")
}

// Remove implements [FavouriteRepository]. Category links cascade.
func (repository *favouriteRepository) Remove(context context.Context, username string, key NovelKey) (*Removal, error) {
	table := schema.LibraryFavourite
	removal := &Removal{}

	err := sqlite.WithTx(context, repository.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(context,
			fmt.Sprintf(`DELETE FROM %s WHERE %s = ? AND %s = ? AND %s = ?`, table.Table, table.Username, table.Source, table.URL),
			username, key.Source, key.URL,
		)
		if err != nil {
			return fmt.Errorf("sqlite: failed to delete favourite: %w", err)
		}
		if affected, _ := result.RowsAffected(); affected == 0 {
			return apperr.NotFound("Favourite")
		}

		if removal.Holders, err = countHolders(context, tx, key); err != nil {
			return err
		}

		if removal.Holders == 0 {
			removal.Purged = true
			return purgeNovel(context, tx, key)
		}

		removal.HistoryRemoved, err = deleteNovelHistory(context, tx, username, key)
		return err
	})
	if err != nil {
		return nil, dberr.Wrap(err, "Favourite")
	}
	return removal, nil
}

/*
List returns a user's favourites joined with their novels.

Description: Four values are computed per favourite with correlated
subqueries: the cached chapter count, how many of those chapters the user
has history for, the category names ordered by position, and the newest
chapter dateAdded.

Parameters:
  - context: context.Context
  - username: string
  - key: *NovelKey (Optional single-novel filter)

Returns:
  - []FavouriteView: Newest favourite first
  - error: StoreFailure
*/
func (repository *favouriteRepository) List(context context.Context, username string, key *NovelKey) ([]FavouriteView, error) {
	var queryBuilder strings.Builder
	args := []any{username}

	queryBuilder.WriteString(`
		SELECT
			f.source, f.url,
			COALESCE(n.title, ''), COALESCE(n.cover, ''), COALESCE(n.summary, ''), COALESCE(n.author, ''),
			COALESCE(n.status, 'Unknown'), COALESCE(n.genres, '[]'), COALESCE(n.tags, '[]'),
			COALESCE(n.last_update, ''), COALESCE(n.additional_props, '{}'),
			f.date_added,
			(SELECT COUNT(*) FROM chapter_meta c
			  WHERE c.source = f.source AND c.novel_url = f.url) AS chapter_count,
			(SELECT COUNT(*) FROM history h
			  JOIN chapter_meta c ON c.source = h.source AND c.url = h.url
			  WHERE h.username = f.username AND c.source = f.source AND c.novel_url = f.url) AS read_count,
			(SELECT json_group_array(l.category ORDER BY cat.position, l.category)
			  FROM favourite_categories l
			  LEFT JOIN categories cat ON cat.username = l.username AND cat.name = l.category
			  WHERE l.username = f.username AND l.source = f.source AND l.url = f.url) AS categories,
			(SELECT MAX(c.date_added) FROM chapter_meta c
			  WHERE c.source = f.source AND c.novel_url = f.url) AS chapter_date_added
		FROM favourites f
		LEFT JOIN novel_meta n ON n.source = f.source AND n.url = f.url
		WHERE f.username = ?`)

	if key != nil {
		queryBuilder.WriteString(` AND f.source = ? AND f.url = ?`)
		args = append(args, key.Source, key.URL)
	}
	queryBuilder.WriteString(` ORDER BY f.date_added DESC, f.url ASC`)

	rows, err := repository.db.QueryContext(context, queryBuilder.String(), args...)
	if err != nil {
		return nil, dberr.Wrap(fmt.Errorf("sqlite: failed to list favourites: %w", err), "Favourite")
	}
	defer rows.Close()

	views := make([]FavouriteView, 0)
	for rows.Next() {
		var (
			novel            novelRow
			dateAdded        string
			categories       string
			chapterDateAdded sql.NullString
			view             FavouriteView
		)

		targets := append(novel.targets(), &dateAdded, &view.ChapterCount, &view.ReadCount, &categories, &chapterDateAdded)
		if err := rows.Scan(targets...); err != nil {
			return nil, dberr.Wrap(err, "Favourite")
		}

		if view.NovelMeta, err = novel.decode(); err != nil {
			return nil, dberr.Wrap(err, "Favourite")
		}
		if view.DateAdded, err = sqlite.ParseTimestamp(dateAdded); err != nil {
			return nil, dberr.Wrap(err, "Favourite")
		}
		if err := decodeJSON(categories, &view.Categories); err != nil {
			return nil, dberr.Wrap(err, "Favourite")
		}
		if view.Categories == nil {
			view.Categories = []string{}
		}
		if chapterDateAdded.Valid {
			latest, err := sqlite.ParseTimestamp(chapterDateAdded.String)
			if err != nil {
				return nil, dberr.Wrap(err, "Favourite")
			}
			view.ChapterDateAdded = &latest
		}

		views = append(views, view)
	}

	return views, dberr.Wrap(rows.Err(), "Favourite")
}

// ListUnique implements [FavouriteRepository].
func (repository *favouriteRepository) ListUnique(context context.Context) ([]NovelKey, error) {
	table := schema.LibraryFavourite
	rows, err := repository.db.QueryContext(context,
		fmt.Sprintf(`SELECT %[1]s, %[2]s FROM %[3]s GROUP BY %[1]s, %[2]s ORDER BY %[1]s, %[2]s`,
			table.Source, table.URL, table.Table),
	)
	if err != nil {
		return nil, dberr.Wrap(fmt.Errorf("sqlite: failed to list unique favourites: %w", err), "Favourite")
	}
	defer rows.Close()

	keys := make([]NovelKey, 0)
	for rows.Next() {
		var key NovelKey
		if err := rows.Scan(&key.Source, &key.URL); err != nil {
			return nil, dberr.Wrap(err, "Favourite")
		}
		keys = append(keys, key)
	}
	return keys, dberr.Wrap(rows.Err(), "Favourite")
}

// CountHolders implements [FavouriteRepository].
func (repository *favouriteRepository) CountHolders(context context.Context, key NovelKey) (int, error) {
	count, err := countHolders(context, repository.db, key)
	if err != nil {
		return 0, dberr.Wrap(err, "Favourite")
	}
	return count, nil
}

// countHolders counts the users that favourite a novel.
func countHolders(context context.Context, querier sqlite.Querier, key NovelKey) (int, error) {
	table := schema.LibraryFavourite

	var count int
	err := querier.QueryRowContext(context,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = ? AND %s = ?`, table.Table, table.Source, table.URL),
		key.Source, key.URL,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sqlite: failed to count favourites: %w", err)
	}
	return count, nil
}
