// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package library

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/taibuivan/lectio/internal/platform/apperr"
	"github.com/taibuivan/lectio/internal/platform/database/schema"
	"github.com/taibuivan/lectio/internal/platform/dberr"
	"github.com/taibuivan/lectio/internal/platform/sqlite"
)

// historyRepository implements [HistoryRepository] on SQLite.
type historyRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewHistoryRepository constructs a SQLite backed history store.
func NewHistoryRepository(db *sql.DB) HistoryRepository {
	return &historyRepository{db: db, now: time.Now}
}

// historySelect joins history rows (exposed as "h" by from) with their
// chapter and novel.
func historySelect(from string) string {
	return fmt.Sprintf(`
		SELECT h.source, h.url, h.last_read, h.page, h.position, %s, %s
		FROM %s
		JOIN chapter_meta c ON c.source = h.source AND c.url = h.url
		JOIN novel_meta n ON n.source = c.source AND n.url = c.novel_url`,
		chapterSelectColumns("c"), novelSelectColumns("n"), from)
}

/*
Record stores reading progress together with the novel and chapters it
refers to.

Parameters:
  - context: context.Context
  - novel: *NovelMeta (Upserted)
  - chapters: []ChapterMeta (Upserted; dateAdded of existing rows is kept)
  - entries: []History (One per chapter)

Returns:
  - error: ValidationError on mismatched slices, StoreFailure otherwise
*/
func (repository *historyRepository) Record(context context.Context, novel *NovelMeta, chapters []ChapterMeta, entries []History) error {
	if len(chapters) != len(entries) {
		return apperr.ValidationError("Every history entry needs its chapter")
	}

	now := repository.now()

	err := sqlite.WithTx(context, repository.db, func(tx *sql.Tx) error {
		if err := upsertNovel(context, tx, novel); err != nil {
			return err
		}
		if err := upsertChapters(context, tx, novel.Key(), chapters, now); err != nil {
			return err
		}

		statement, err := tx.PrepareContext(context, `
			INSERT INTO history (username, source, url, last_read, page, position) VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (username, source, url) DO UPDATE SET
				last_read = excluded.last_read, page = excluded.page, position = excluded.position`)
		if err != nil {
			return fmt.Errorf("sqlite: failed to prepare history upsert: %w", err)
		}
		defer statement.Close()

		for i := range entries {
			entry := &entries[i]
			if entry.LastRead.IsZero() {
				entry.LastRead = now
			}
			_, err := statement.ExecContext(context,
				entry.Username, novel.Source, chapters[i].URL, sqlite.Timestamp(entry.LastRead), entry.Page, entry.Position,
			)
			if err != nil {
				return fmt.Errorf("sqlite: failed to upsert history: %w", err)
			}
		}
		return nil
	})

	return dberr.Wrap(err, "History")
}

/*
Find returns history rows in one of three modes.

Description:
  - (a) ChapterURL: the row of one chapter; NotFound when the user never opened it.
  - (b) NovelURL: every row of one novel, newest first.
  - (c) Neither: the latest row of every novel, computed in one pass with
    ROW_NUMBER over (source, novel).

Parameters:
  - context: context.Context
  - username: string
  - query: HistoryQuery (Source narrows modes a and b)

Returns:
  - []HistoryView
  - error: NotFound (mode a only) or StoreFailure
*/
func (repository *historyRepository) Find(context context.Context, username string, query HistoryQuery) ([]HistoryView, error) {
	var (
		statement string
		args      []any
	)

	switch {
	case query.ChapterURL != "":
		statement = historySelect("history h") + ` WHERE h.username = ? AND h.url = ?`
		args = []any{username, query.ChapterURL}
		if query.Source != "" {
			statement += ` AND h.source = ?`
			args = append(args, query.Source)
		}

	case query.NovelURL != "":
		statement = historySelect("history h") + ` WHERE h.username = ? AND c.novel_url = ?`
		args = []any{username, query.NovelURL}
		if query.Source != "" {
			statement += ` AND c.source = ?`
			args = append(args, query.Source)
		}

	default:
		statement = historySelect(`(
			SELECT h.*, ROW_NUMBER() OVER (
				PARTITION BY h.source, c.novel_url
				ORDER BY h.last_read DESC, h.url DESC
			) AS rank_in_novel
			FROM history h
			JOIN chapter_meta c ON c.source = h.source AND c.url = h.url
			WHERE h.username = ?
		) h`) + ` WHERE h.rank_in_novel = 1`
		args = []any{username}
	}
	statement += ` ORDER BY h.last_read DESC, h.url ASC`

	rows, err := repository.db.QueryContext(context, statement, args...)
	if err != nil {
		return nil, dberr.Wrap(fmt.Errorf("sqlite: failed to query history: %w", err), "History")
	}
	defer rows.Close()

	views := make([]HistoryView, 0)
	for rows.Next() {
		var (
			view     HistoryView
			lastRead string
			chapter  chapterRow
			novel    novelRow
		)

		targets := []any{&view.History.Source, &view.History.URL, &lastRead, &view.Page, &view.Position}
		targets = append(targets, chapter.targets()...)
		targets = append(targets, novel.targets()...)
		if err := rows.Scan(targets...); err != nil {
			return nil, dberr.Wrap(err, "History")
		}

		view.Username = username
		if view.LastRead, err = sqlite.ParseTimestamp(lastRead); err != nil {
			return nil, dberr.Wrap(err, "History")
		}
		if view.Chapter, err = chapter.decode(); err != nil {
			return nil, dberr.Wrap(err, "History")
		}
		if view.Novel, err = novel.decode(); err != nil {
			return nil, dberr.Wrap(err, "History")
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "History")
	}

	if query.ChapterURL != "" && len(views) == 0 {
		return nil, apperr.NotFound("History")
	}
	return views, nil
}

// Delete implements [HistoryRepository].
func (repository *historyRepository) Delete(context context.Context, username, sourceID, chapterURL string) error {
	result, err := repository.db.ExecContext(context,
		`DELETE FROM history WHERE username = ? AND source = ? AND url = ?`,
		username, sourceID, chapterURL,
	)
	if err != nil {
		return dberr.Wrap(fmt.Errorf("sqlite: failed to delete history: %w", err), "History")
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return apperr.NotFound("History")
	}
	return nil
}

// DeleteForNovel implements [HistoryRepository].
func (repository *historyRepository) DeleteForNovel(context context.Context, username string, key NovelKey) (int64, error) {
	removed, err := deleteNovelHistory(context, repository.db, username, key)
	if err != nil {
		return 0, dberr.Wrap(err, "History")
	}
	return removed, nil
}

// deleteNovelHistory removes a user's history rows for the chapters of one novel.
func deleteNovelHistory(context context.Context, querier sqlite.Querier, username string, key NovelKey) (int64, error) {
	history, chapters := schema.LibraryHistory, schema.LibraryChapter
	result, err := querier.ExecContext(context,
		fmt.Sprintf(`DELETE FROM %s WHERE %s = ? AND %s = ? AND %s IN (SELECT %s FROM %s WHERE %s = ? AND %s = ?)`,
			history.Table, history.Username, history.Source, history.URL,
			chapters.URL, chapters.Table, chapters.Source, chapters.NovelURL),
		username, key.Source, key.Source, key.URL,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: failed to delete novel history: %w", err)
	}

	removed, _ := result.RowsAffected()
	return removed, nil
}
