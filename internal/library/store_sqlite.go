// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
SQLite implementations of the library repositories.

All repositories share one *sql.DB opened by platform/sqlite with a single
connection. Multi-row writes run through sqlite.WithTx, and helpers that must
work inside and outside a transaction accept a sqlite.Querier.

Lists and props are stored as JSON text columns; timestamps as fixed-width
UTC strings (see sqlite.Timestamp).
*/

package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/taibuivan/lectio/internal/platform/database/schema"
	"github.com/taibuivan/lectio/internal/platform/sqlite"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// # Column Lists

// novelSelectColumns lists the novel_meta columns in scanNovel order, qualified by alias.
func novelSelectColumns(alias string) string {
	columns := schema.LibraryNovel.Columns()
	for i, column := range columns {
		columns[i] = alias + "." + column
	}
	return strings.Join(columns, ", ")
}

// chapterSelectColumns lists the chapter_meta columns in scanChapter order, qualified by alias.
func chapterSelectColumns(alias string) string {
	columns := schema.LibraryChapter.Columns()
	for i, column := range columns {
		columns[i] = alias + "." + column
	}
	return strings.Join(columns, ", ")
}

// # Row Mapping

// novelRow holds the raw column values of a novel_meta row.
type novelRow struct {
	novel  NovelMeta
	status string
	genres string
	tags   string
	props  string
}

func (row *novelRow) targets() []any {
	return []any{
		&row.novel.Source, &row.novel.URL, &row.novel.Title, &row.novel.Cover,
		&row.novel.Summary, &row.novel.Author, &row.status, &row.genres,
		&row.tags, &row.novel.LastUpdate, &row.props,
	}
}

func (row *novelRow) decode() (NovelMeta, error) {
	novel := row.novel
	novel.Status = Status(row.status)

	if err := decodeJSON(row.genres, &novel.Genres); err != nil {
		return NovelMeta{}, err
	}
	if err := decodeJSON(row.tags, &novel.Tags); err != nil {
		return NovelMeta{}, err
	}
	if err := decodeJSON(row.props, &novel.AdditionalProps); err != nil {
		return NovelMeta{}, err
	}

	novel.normalize()
	return novel, nil
}

// chapterRow holds the raw column values of a chapter_meta row.
type chapterRow struct {
	chapter   ChapterMeta
	dateAdded string
}

func (row *chapterRow) targets() []any {
	return []any{
		&row.chapter.Source, &row.chapter.URL, &row.chapter.NovelURL,
		&row.chapter.ChapterIndex, &row.chapter.Title, &row.dateAdded,
	}
}

func (row *chapterRow) decode() (ChapterMeta, error) {
	chapter := row.chapter

	dateAdded, err := sqlite.ParseTimestamp(row.dateAdded)
	if err != nil {
		return ChapterMeta{}, err
	}
	chapter.DateAdded = dateAdded

	return chapter, nil
}

// # Shared Writes

// upsertNovel inserts or fully replaces a novel row.
func upsertNovel(context context.Context, querier sqlite.Querier, novel *NovelMeta) error {
	novel.normalize()

	genres, err := encodeJSON(novel.Genres)
	if err != nil {
		return err
	}
	tags, err := encodeJSON(novel.Tags)
	if err != nil {
		return err
	}
	props, err := encodeJSON(novel.AdditionalProps)
	if err != nil {
		return err
	}

	table := schema.LibraryNovel
	query := fmt.Sprintf(`
		INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (%s, %s) DO UPDATE SET
			%s = excluded.%s, %s = excluded.%s, %s = excluded.%s, %s = excluded.%s,
			%s = excluded.%s, %s = excluded.%s, %s = excluded.%s, %s = excluded.%s,
			%s = excluded.%s`,
		table.Table, strings.Join(table.Columns(), ", "),
		table.Source, table.URL,
		table.Title, table.Title, table.Cover, table.Cover, table.Summary, table.Summary, table.Author, table.Author,
		table.Status, table.Status, table.Genres, table.Genres, table.Tags, table.Tags, table.LastUpdate, table.LastUpdate,
		table.AdditionalProps, table.AdditionalProps,
	)

	_, err = querier.ExecContext(context, query,
		novel.Source, novel.URL, novel.Title, novel.Cover, novel.Summary, novel.Author,
		string(novel.Status), genres, tags, novel.LastUpdate, props,
	)
	if err != nil {
		return fmt.Errorf("sqlite: failed to upsert novel: %w", err)
	}
	return nil
}

// upsertChapters writes chapters of one novel. Existing rows keep their
// date_added. Must run inside a transaction.
func upsertChapters(context context.Context, tx *sql.Tx, novel NovelKey, chapters []ChapterMeta, now time.Time) error {
	if len(chapters) == 0 {
		return nil
	}

	table := schema.LibraryChapter
	statement, err := tx.PrepareContext(context, fmt.Sprintf(`
		INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (%s, %s) DO UPDATE SET
			%s = excluded.%s, %s = excluded.%s, %s = excluded.%s`,
		table.Table, strings.Join(table.Columns(), ", "),
		table.Source, table.URL,
		table.NovelURL, table.NovelURL, table.ChapterIndex, table.ChapterIndex, table.Title, table.Title,
	))
	if err != nil {
		return fmt.Errorf("sqlite: failed to prepare chapter upsert: %w", err)
	}
	defer statement.Close()

	for _, chapter := range chapters {
		dateAdded := chapter.DateAdded
		if dateAdded.IsZero() {
			dateAdded = now
		}

		_, err := statement.ExecContext(context,
			novel.Source, chapter.URL, novel.URL, chapter.ChapterIndex, chapter.Title, sqlite.Timestamp(dateAdded),
		)
		if err != nil {
			return fmt.Errorf("sqlite: failed to upsert chapter %s: %w", chapter.URL, err)
		}
	}
	return nil
}

// novelExists reports whether a novel row is cached.
func novelExists(context context.Context, querier sqlite.Querier, key NovelKey) (bool, error) {
	var one int
	err := querier.QueryRowContext(context,
		fmt.Sprintf(`SELECT 1 FROM %s WHERE %s = ? AND %s = ?`,
			schema.LibraryNovel.Table, schema.LibraryNovel.Source, schema.LibraryNovel.URL),
		key.Source, key.URL,
	).Scan(&one)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("sqlite: failed to check novel: %w", err)
	default:
		return true, nil
	}
}

// # JSON Columns

func encodeJSON(value any) (string, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("sqlite: failed to encode json column: %w", err)
	}
	return string(raw), nil
}

func decodeJSON(raw string, target any) error {
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), target); err != nil {
		return fmt.Errorf("sqlite: failed to decode json column: %w", err)
	}
	return nil
}
