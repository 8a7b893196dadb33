// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/taibuivan/lectio/internal/platform/apperr"
	"github.com/taibuivan/lectio/internal/platform/database/schema"
	"github.com/taibuivan/lectio/internal/platform/dberr"
	"github.com/taibuivan/lectio/internal/platform/sqlite"
)

// chapterRepository implements [ChapterRepository] on SQLite.
type chapterRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewChapterRepository constructs a SQLite backed chapter store.
func NewChapterRepository(db *sql.DB) ChapterRepository {
	return &chapterRepository{db: db, now: time.Now}
}

/*
UpsertBulk writes a batch of chapters for one novel.

Description: The novel reference is checked inside the same transaction,
standing in for the foreign key the schema does not declare.

Parameters:
  - context: context.Context
  - novel: NovelKey
  - chapters: []ChapterMeta

Returns:
  - error: NotFound("Novel") or StoreFailure
*/
func (repository *chapterRepository) UpsertBulk(context context.Context, novel NovelKey, chapters []ChapterMeta) error {
	err := sqlite.WithTx(context, repository.db, func(tx *sql.Tx) error {
		exists, err := novelExists(context, tx, novel)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound("Novel")
		}
		return upsertChapters(context, tx, novel, chapters, repository.now())
	})

	return dberr.Wrap(err, "Chapter")
}

// ListByNovel implements [ChapterRepository].
func (repository *chapterRepository) ListByNovel(context context.Context, novel NovelKey) ([]ChapterMeta, error) {
	table := schema.LibraryChapter
	query := fmt.Sprintf(`SELECT %s FROM %s c WHERE c.%s = ? AND c.%s = ? ORDER BY c.%s ASC, c.rowid ASC`,
		chapterSelectColumns("c"), table.Table, table.Source, table.NovelURL, table.ChapterIndex)

	rows, err := repository.db.QueryContext(context, query, novel.Source, novel.URL)
	if err != nil {
		return nil, dberr.Wrap(fmt.Errorf("sqlite: failed to list chapters: %w", err), "Chapter")
	}
	defer rows.Close()

	chapters := make([]ChapterMeta, 0)
	for rows.Next() {
		var row chapterRow
		if err := rows.Scan(row.targets()...); err != nil {
			return nil, dberr.Wrap(err, "Chapter")
		}
		chapter, err := row.decode()
		if err != nil {
			return nil, dberr.Wrap(err, "Chapter")
		}
		chapters = append(chapters, chapter)
	}

	return chapters, dberr.Wrap(rows.Err(), "Chapter")
}

/*
Replace rewrites the cached listing of a novel in one transaction.

Description: The listing is upserted first, so chapters that are still listed
keep their dateAdded. Cached chapters missing from the listing are deleted
unless some user's history references them, which keeps history views
titled.

Parameters:
  - context: context.Context
  - novel: NovelKey
  - chapters: []ChapterMeta (The fresh listing)

Returns:
  - int64: Number of chapters dropped from the cache
  - error: NotFound("Novel") or StoreFailure
*/
func (repository *chapterRepository) Replace(context context.Context, novel NovelKey, chapters []ChapterMeta) (int64, error) {
	listed := make([]string, 0, len(chapters))
	for _, chapter := range chapters {
		listed = append(listed, chapter.URL)
	}
	listedJSON, err := json.Marshal(listed)
	if err != nil {
		return 0, apperr.Internal(err)
	}

	var removed int64
	err = sqlite.WithTx(context, repository.db, func(tx *sql.Tx) error {
		exists, err := novelExists(context, tx, novel)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound("Novel")
		}

		if err := upsertChapters(context, tx, novel, chapters, repository.now()); err != nil {
			return err
		}

		table, history := schema.LibraryChapter, schema.LibraryHistory
		query := fmt.Sprintf(`
			DELETE FROM %[1]s
			WHERE %[2]s = ? AND %[3]s = ?
			  AND %[7]s NOT IN (SELECT value FROM json_each(?))
			  AND NOT EXISTS (SELECT 1 FROM %[4]s h WHERE h.%[5]s = %[1]s.%[2]s AND h.%[6]s = %[1]s.%[7]s)`,
			table.Table, table.Source, table.NovelURL,
			history.Table, history.Source, history.URL, table.URL,
		)

		result, err := tx.ExecContext(context, query, novel.Source, novel.URL, string(listedJSON))
		if err != nil {
			return fmt.Errorf("sqlite: failed to drop unlisted chapters: %w", err)
		}
		removed, _ = result.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, dberr.Wrap(err, "Chapter")
	}
	return removed, nil
}

/*
ListLatest returns the most recently cached chapters of a user's favourites.

Parameters:
  - context: context.Context
  - username: string
  - limit: int
  - offset: int

Returns:
  - []LatestChapterView: One page of the feed
  - int: Total number of chapters in the feed
  - error: StoreFailure
*/
func (repository *chapterRepository) ListLatest(context context.Context, username string, limit, offset int) ([]LatestChapterView, int, error) {
	favourites, chapters, novels := schema.LibraryFavourite, schema.LibraryChapter, schema.LibraryNovel

	// The page and the past-the-end count share the same rows
	from := fmt.Sprintf(`
		FROM %s f
		JOIN %s c ON c.%s = f.%s AND c.%s = f.%s
		JOIN %s n ON n.%s = f.%s AND n.%s = f.%s
		WHERE f.%s = ?`,
		favourites.Table,
		chapters.Table, chapters.Source, favourites.Source, chapters.NovelURL, favourites.URL,
		novels.Table, novels.Source, favourites.Source, novels.URL, favourites.URL,
		favourites.Username,
	)

	query := fmt.Sprintf(`
		SELECT %s, %s, COUNT(*) OVER() AS total_count %s
		ORDER BY c.%s DESC, c.%s DESC, c.%s ASC
		LIMIT ? OFFSET ?`,
		novelSelectColumns("n"), chapterSelectColumns("c"), from,
		chapters.DateAdded, chapters.ChapterIndex, chapters.URL)

	rows, err := repository.db.QueryContext(context, query, username, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(fmt.Errorf("sqlite: failed to list latest chapters: %w", err), "Chapter")
	}
	defer rows.Close()

	views := make([]LatestChapterView, 0)
	total := 0

	for rows.Next() {
		var novel novelRow
		var chapter chapterRow

		targets := append(novel.targets(), chapter.targets()...)
		if err := rows.Scan(append(targets, &total)...); err != nil {
			return nil, 0, dberr.Wrap(err, "Chapter")
		}

		view := LatestChapterView{}
		if view.NovelMeta, err = novel.decode(); err != nil {
			return nil, 0, dberr.Wrap(err, "Chapter")
		}
		if view.Chapter, err = chapter.decode(); err != nil {
			return nil, 0, dberr.Wrap(err, "Chapter")
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "Chapter")
	}

	// A page past the end carries no window total
	if len(views) == 0 && offset > 0 {
		countQuery := `SELECT COUNT(*) ` + from
		if err := repository.db.QueryRowContext(context, countQuery, username).Scan(&total); err != nil {
			return nil, 0, dberr.Wrap(err, "Chapter")
		}
	}

	return views, total, nil
}
