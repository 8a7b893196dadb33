// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package setting

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/taibuivan/lectio/internal/platform/database/schema"
	"github.com/taibuivan/lectio/internal/platform/dberr"
)

// settingRepository implements [Repository] on SQLite.
type settingRepository struct {
	db *sql.DB
}

// NewRepository constructs a SQLite backed settings store.
func NewRepository(db *sql.DB) Repository {
	return &settingRepository{db: db}
}

// Get implements [Repository].
func (repository *settingRepository) Get(context context.Context, key string) (string, error) {
	settings := schema.SystemSetting
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ?`, settings.Value, settings.Table, settings.Key)

	var value string
	if err := repository.db.QueryRowContext(context, query, key).Scan(&value); err != nil {
		return "", dberr.Wrap(err, "Setting")
	}
	return value, nil
}

// Set implements [Repository].
func (repository *settingRepository) Set(context context.Context, key, value string) error {
	settings := schema.SystemSetting
	query := fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES (?, ?)
		ON CONFLICT(%s) DO UPDATE SET %s = excluded.%s`,
		settings.Table, settings.Key, settings.Value, settings.Key, settings.Value, settings.Value)

	if _, err := repository.db.ExecContext(context, query, key, value); err != nil {
		return dberr.Wrap(fmt.Errorf("sqlite: failed to save setting %s: %w", key, err), "Setting")
	}
	return nil
}
