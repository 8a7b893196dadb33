// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package library

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/taibuivan/lectio/internal/platform/database/schema"
	"github.com/taibuivan/lectio/internal/platform/dberr"
	"github.com/taibuivan/lectio/internal/platform/sqlite"
)

// novelRepository implements [NovelRepository] on SQLite.
type novelRepository struct {
	db *sql.DB
}

// NewNovelRepository constructs a SQLite backed novel store.
func NewNovelRepository(db *sql.DB) NovelRepository {
	return &novelRepository{db: db}
}

// Upsert implements [NovelRepository].
func (repository *novelRepository) Upsert(context context.Context, novel *NovelMeta) error {
	return dberr.Wrap(upsertNovel(context, repository.db, novel), "Novel")
}

// UpsertFollowed implements [NovelRepository]. The holder count and the write
// share one transaction, so a concurrent last unfavourite cannot leave an
// orphan row behind.
func (repository *novelRepository) UpsertFollowed(context context.Context, novel *NovelMeta) (bool, error) {
	followed := false
	err := sqlite.WithTx(context, repository.db, func(tx *sql.Tx) error {
		holders, err := countHolders(context, tx, novel.Key())
		if err != nil || holders == 0 {
			return err
		}
		followed = true
		return upsertNovel(context, tx, novel)
	})
	if err != nil {
		return false, dberr.Wrap(err, "Novel")
	}
	return followed, nil
}

/*
FindByKey loads one cached novel.

Parameters:
  - context: context.Context
  - key: NovelKey

Returns:
  - *NovelMeta: Decoded metadata
  - error: NotFound if absent
*/
func (repository *novelRepository) FindByKey(context context.Context, key NovelKey) (*NovelMeta, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s n WHERE n.%s = ? AND n.%s = ?`,
		novelSelectColumns("n"), schema.LibraryNovel.Table, schema.LibraryNovel.Source, schema.LibraryNovel.URL)

	var row novelRow
	if err := repository.db.QueryRowContext(context, query, key.Source, key.URL).Scan(row.targets()...); err != nil {
		return nil, dberr.Wrap(err, "Novel")
	}

	novel, err := row.decode()
	if err != nil {
		return nil, dberr.Wrap(err, "Novel")
	}
	return &novel, nil
}

/*
purgeNovel removes a novel with its chapters, cover image and history.

Description: History goes first because it is matched through the chapter
rows. The cover is looked up before the novel row disappears.
*/
func purgeNovel(context context.Context, tx *sql.Tx, key NovelKey) error {
	novels, chapters, history, images := schema.LibraryNovel, schema.LibraryChapter, schema.LibraryHistory, schema.LibraryImage

	statements := []struct {
		name  string
		query string
		args  []any
	}{
		{
			name: "history",
			query: fmt.Sprintf(`DELETE FROM %s WHERE %s = ? AND %s IN (SELECT %s FROM %s WHERE %s = ? AND %s = ?)`,
				history.Table, history.Source, history.URL,
				chapters.URL, chapters.Table, chapters.Source, chapters.NovelURL),
			args: []any{key.Source, key.Source, key.URL},
		},
		{
			name: "chapters",
			query: fmt.Sprintf(`DELETE FROM %s WHERE %s = ? AND %s = ?`,
				chapters.Table, chapters.Source, chapters.NovelURL),
			args: []any{key.Source, key.URL},
		},
		{
			name: "cover image",
			query: fmt.Sprintf(`DELETE FROM %s WHERE %s IN (SELECT %s FROM %s WHERE %s = ? AND %s = ? AND %s <> '')`,
				images.Table, images.URL,
				novels.Cover, novels.Table, novels.Source, novels.URL, novels.Cover),
			args: []any{key.Source, key.URL},
		},
		{
			name: "novel",
			query: fmt.Sprintf(`DELETE FROM %s WHERE %s = ? AND %s = ?`,
				novels.Table, novels.Source, novels.URL),
			args: []any{key.Source, key.URL},
		},
	}

	for _, statement := range statements {
		if _, err := tx.ExecContext(context, statement.query, statement.args...); err != nil {
			return fmt.Errorf("sqlite: failed to purge %s: %w", statement.name, err)
		}
	}
	return nil
}
