// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package library

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/taibuivan/lectio/internal/platform/database/schema"
	"github.com/taibuivan/lectio/internal/platform/dberr"
	"github.com/taibuivan/lectio/internal/platform/sqlite"
)

// imageRepository implements [ImageRepository] on SQLite.
type imageRepository struct {
	db *sql.DB
}

// NewImageRepository constructs a SQLite backed image cache.
func NewImageRepository(db *sql.DB) ImageRepository {
	return &imageRepository{db: db}
}

// Find implements [ImageRepository].
func (repository *imageRepository) Find(context context.Context, url string) (*Image, error) {
	table := schema.LibraryImage
	image := Image{URL: url}

	var cachedAt string
	err := repository.db.QueryRowContext(context,
		fmt.Sprintf(`SELECT %s, %s, %s FROM %s WHERE %s = ?`,
			table.ContentType, table.Data, table.CachedAt, table.Table, table.URL),
		url,
	).Scan(&image.ContentType, &image.Data, &cachedAt)
	if err != nil {
		return nil, dberr.Wrap(err, "Image")
	}

	if image.CachedAt, err = sqlite.ParseTimestamp(cachedAt); err != nil {
		return nil, dberr.Wrap(err, "Image")
	}
	return &image, nil
}

// Save implements [ImageRepository].
func (repository *imageRepository) Save(context context.Context, image *Image) error {
	if image.CachedAt.IsZero() {
		image.CachedAt = time.Now()
	}

	table := schema.LibraryImage
	_, err := repository.db.ExecContext(context,
		fmt.Sprintf(`INSERT INTO %[1]s (%[2]s, %[3]s, %[4]s, %[5]s) VALUES (?, ?, ?, ?)
			ON CONFLICT (%[2]s) DO UPDATE SET %[3]s = excluded.%[3]s, %[4]s = excluded.%[4]s, %[5]s = excluded.%[5]s`,
			table.Table, table.URL, table.ContentType, table.Data, table.CachedAt),
		image.URL, image.ContentType, image.Data, sqlite.Timestamp(image.CachedAt),
	)
	if err != nil {
		return dberr.Wrap(fmt.Errorf("sqlite: failed to save image: %w", err), "Image")
	}
	return nil
}
