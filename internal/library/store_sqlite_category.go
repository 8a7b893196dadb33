// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/taibuivan/lectio/internal/platform/apperr"
	"github.com/taibuivan/lectio/internal/platform/constants"
	"github.com/taibuivan/lectio/internal/platform/database/schema"
	"github.com/taibuivan/lectio/internal/platform/dberr"
	"github.com/taibuivan/lectio/internal/platform/sqlite"
)

// categoryRepository implements [CategoryRepository] on SQLite.
type categoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository constructs a SQLite backed category store.
func NewCategoryRepository(db *sql.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

// # Name Handling

// NormalizeCategoryName trims a category name and brings it to NFC, so that
// visually identical names typed on different keyboards compare equal.
func NormalizeCategoryName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// normalizeCategoryNames normalizes, drops empty names and removes duplicates
// while keeping the first occurrence order.
func normalizeCategoryNames(names []string) []string {
	result := make([]string, 0, len(names))
	for _, name := range names {
		normalized := NormalizeCategoryName(name)
		if normalized == "" || slices.Contains(result, normalized) {
			continue
		}
		result = append(result, normalized)
	}
	return result
}

// # Repository Implementation

// List implements [CategoryRepository].
func (repository *categoryRepository) List(context context.Context, username string) ([]Category, error) {
	return listCategories(context, repository.db, username)
}

// EnsureDefault implements [CategoryRepository].
func (repository *categoryRepository) EnsureDefault(context context.Context, username string) error {
	_, err := ensureDefaultCategory(context, repository.db, username)
	return dberr.Wrap(err, "Category")
}

/*
CreateBulk appends categories after the current last position.

Parameters:
  - context: context.Context
  - username: string
  - names: []string (Normalized and deduplicated before insert)

Returns:
  - []Category: The categories that did not exist before
  - error: StoreFailure
*/
func (repository *categoryRepository) CreateBulk(context context.Context, username string, names []string) ([]Category, error) {
	var created []Category

	err := sqlite.WithTx(context, repository.db, func(tx *sql.Tx) error {
		if _, err := ensureDefaultCategory(context, tx, username); err != nil {
			return err
		}

		var err error
		created, err = createMissingCategories(context, tx, username, normalizeCategoryNames(names))
		return err
	})
	if err != nil {
		return nil, dberr.Wrap(err, "Category")
	}

	return created, nil
}

// SetForFavourite implements [CategoryRepository].
func (repository *categoryRepository) SetForFavourite(context context.Context, username string, key NovelKey, names []string) error {
	err := sqlite.WithTx(context, repository.db, func(tx *sql.Tx) error {
		exists, err := favouriteExists(context, tx, username, key)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound("Favourite")
		}
		return replaceCategoryLinks(context, tx, username, key, names)
	})

	return dberr.Wrap(err, "Category")
}

/*
Rename gives a category a new name.

Description: favourite_categories references categories with ON UPDATE
CASCADE, so the links follow the rename inside the same statement.

Returns:
  - error: NotFound if the category is absent, Conflict if newName is taken
*/
func (repository *categoryRepository) Rename(context context.Context, username, oldName, newName string) error {
	oldName, newName = NormalizeCategoryName(oldName), NormalizeCategoryName(newName)

	err := sqlite.WithTx(context, repository.db, func(tx *sql.Tx) error {
		if _, err := findCategory(context, tx, username, oldName); err != nil {
			return err
		}
		if oldName == newName {
			return nil
		}

		_, err := findCategory(context, tx, username, newName)
		switch {
		case err == nil:
			return apperr.Conflict(fmt.Sprintf("Category %q already exists", newName))
		case !apperr.IsNotFound(err):
			return err
		}

		table := schema.LibraryCategory
		_, err = tx.ExecContext(context,
			fmt.Sprintf(`UPDATE %s SET %s = ? WHERE %s = ? AND %s = ?`, table.Table, table.Name, table.Username, table.Name),
			newName, username, oldName,
		)
		if err != nil {
			return fmt.Errorf("sqlite: failed to rename category: %w", err)
		}
		return nil
	})

	return dberr.Wrap(err, "Category")
}

/*
Move places a category at position among the non-default categories and
renumbers the others 1..n so that positions stay dense.

Returns:
  - error: NotFound, or ValidationError when moving the default category
*/
func (repository *categoryRepository) Move(context context.Context, username, name string, position int) error {
	name = NormalizeCategoryName(name)

	err := sqlite.WithTx(context, repository.db, func(tx *sql.Tx) error {
		category, err := findCategory(context, tx, username, name)
		if err != nil {
			return err
		}
		if category.IsDefault() {
			return apperr.ValidationError("The default category cannot be moved")
		}

		categories, err := listCategories(context, tx, username)
		if err != nil {
			return err
		}

		// Reorder the non-default categories with the moved one at its target
		order := make([]string, 0, len(categories))
		for _, existing := range categories {
			if !existing.IsDefault() && existing.Name != name {
				order = append(order, existing.Name)
			}
		}
		target := min(max(position, 1), len(order)+1) - 1
		order = slices.Insert(order, target, name)

		table := schema.LibraryCategory
		for i, categoryName := range order {
			_, err := tx.ExecContext(context,
				fmt.Sprintf(`UPDATE %s SET %s = ? WHERE %s = ? AND %s = ?`, table.Table, table.Position, table.Username, table.Name),
				i+1, username, categoryName,
			)
			if err != nil {
				return fmt.Errorf("sqlite: failed to reposition category: %w", err)
			}
		}
		return nil
	})

	return dberr.Wrap(err, "Category")
}

/*
Delete removes a category after moving its links to the default category.

Returns:
  - error: NotFound, or ValidationError for the default category
*/
func (repository *categoryRepository) Delete(context context.Context, username, name string) error {
	name = NormalizeCategoryName(name)

	err := sqlite.WithTx(context, repository.db, func(tx *sql.Tx) error {
		category, err := findCategory(context, tx, username, name)
		if err != nil {
			return err
		}
		if category.IsDefault() {
			return apperr.ValidationError("The default category cannot be deleted")
		}

		defaultName, err := ensureDefaultCategory(context, tx, username)
		if err != nil {
			return err
		}

		// 1. Re-link every favourite of the category to the default one
		links := schema.LibraryFavouriteCategory
		_, err = tx.ExecContext(context, fmt.Sprintf(`
			INSERT OR IGNORE INTO %[1]s (%[2]s, %[3]s, %[4]s, %[5]s)
			SELECT %[2]s, %[3]s, %[4]s, ? FROM %[1]s WHERE %[2]s = ? AND %[5]s = ?`,
			links.Table, links.Username, links.Source, links.URL, links.Category),
			defaultName, username, name,
		)
		if err != nil {
			return fmt.Errorf("sqlite: failed to move category links: %w", err)
		}

		// 2. Drop the category; its remaining links cascade
		table := schema.LibraryCategory
		_, err = tx.ExecContext(context,
			fmt.Sprintf(`DELETE FROM %s WHERE %s = ? AND %s = ?`, table.Table, table.Username, table.Name),
			username, name,
		)
		if err != nil {
			return fmt.Errorf("sqlite: failed to delete category: %w", err)
		}
		return nil
	})

	return dberr.Wrap(err, "Category")
}

// # Shared Helpers

func listCategories(context context.Context, querier sqlite.Querier, username string) ([]Category, error) {
	table := schema.LibraryCategory
	rows, err := querier.QueryContext(context,
		fmt.Sprintf(`SELECT %s, %s FROM %s WHERE %s = ? ORDER BY %s ASC, %s ASC`,
			table.Name, table.Position, table.Table, table.Username, table.Position, table.Name),
		username,
	)
	if err != nil {
		return nil, dberr.Wrap(fmt.Errorf("sqlite: failed to list categories: %w", err), "Category")
	}
	defer rows.Close()

	categories := make([]Category, 0)
	for rows.Next() {
		var category Category
		if err := rows.Scan(&category.Name, &category.Position); err != nil {
			return nil, dberr.Wrap(err, "Category")
		}
		categories = append(categories, category)
	}
	return categories, dberr.Wrap(rows.Err(), "Category")
}

func findCategory(context context.Context, querier sqlite.Querier, username, name string) (*Category, error) {
	table := schema.LibraryCategory
	category := Category{Name: name}

	err := querier.QueryRowContext(context,
		fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ? AND %s = ?`, table.Position, table.Table, table.Username, table.Name),
		username, name,
	).Scan(&category.Position)
	if err != nil {
		return nil, dberr.Wrap(err, "Category")
	}
	return &category, nil
}

// ensureDefaultCategory returns the name of the user's position-0 category,
// creating it when missing.
func ensureDefaultCategory(context context.Context, querier sqlite.Querier, username string) (string, error) {
	table := schema.LibraryCategory

	var name string
	err := querier.QueryRowContext(context,
		fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ? AND %s = 0`, table.Name, table.Table, table.Username, table.Position),
		username,
	).Scan(&name)
	if err == nil {
		return name, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("sqlite: failed to read default category: %w", err)
	}

	// A user-made category with the default name is promoted instead of duplicated
	_, err = querier.ExecContext(context,
		fmt.Sprintf(`INSERT INTO %s (%s, %s, %s) VALUES (?, ?, 0) ON CONFLICT (%s, %s) DO UPDATE SET %s = 0`,
			table.Table, table.Username, table.Name, table.Position, table.Username, table.Name, table.Position),
		username, constants.DefaultCategoryName,
	)
	if err != nil {
		return "", fmt.Errorf("sqlite: failed to create default category: %w", err)
	}
	return constants.DefaultCategoryName, nil
}

// createMissingCategories inserts the names that do not exist yet, each at
// max(position)+1, and returns them.
func createMissingCategories(context context.Context, tx *sql.Tx, username string, names []string) ([]Category, error) {
	table := schema.LibraryCategory
	created := make([]Category, 0)

	for _, name := range names {
		var position int
		err := tx.QueryRowContext(context,
			fmt.Sprintf(`
				INSERT INTO %[1]s (%[2]s, %[3]s, %[4]s)
				SELECT ?, ?, COALESCE(MAX(%[4]s), -1) + 1 FROM %[1]s WHERE %[2]s = ?
				ON CONFLICT (%[2]s, %[3]s) DO NOTHING
				RETURNING %[4]s`,
				table.Table, table.Username, table.Name, table.Position),
			username, name, username,
		).Scan(&position)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			continue
		case err != nil:
			return nil, fmt.Errorf("sqlite: failed to create category %q: %w", name, err)
		}
		created = append(created, Category{Name: name, Position: position})
	}

	return created, nil
}

// replaceCategoryLinks swaps the full link set of a favourite.
func replaceCategoryLinks(context context.Context, tx *sql.Tx, username string, key NovelKey, names []string) error {
	names = normalizeCategoryNames(names)

	if _, err := ensureDefaultCategory(context, tx, username); err != nil {
		return err
	}
	if _, err := createMissingCategories(context, tx, username, names); err != nil {
		return err
	}

	links := schema.LibraryFavouriteCategory
	_, err := tx.ExecContext(context,
		fmt.Sprintf(`DELETE FROM %s WHERE %s = ? AND %s = ? AND %s = ?`, links.Table, links.Username, links.Source, links.URL),
		username, key.Source, key.URL,
	)
	if err != nil {
		return fmt.Errorf("sqlite: failed to clear category links: %w", err)
	}

	for _, name := range names {
		_, err := tx.ExecContext(context,
			fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s) VALUES (?, ?, ?, ?)`,
				links.Table, links.Username, links.Source, links.URL, links.Category),
			username, key.Source, key.URL, name,
		)
		if err != nil {
			return fmt.Errorf("sqlite: failed to link category %q: %w", name, err)
		}
	}
	return nil
}

func favouriteExists(context context.Context, querier sqlite.Querier, username string, key NovelKey) (bool, error) {
	table := schema.LibraryFavourite

	var one int
	err := querier.QueryRowContext(context,
		fmt.Sprintf(`SELECT 1 FROM %s WHERE %s = ? AND %s = ? AND %s = ?`, table.Table, table.Username, table.Source, table.URL),
		username, key.Source, key.URL,
	).Scan(&one)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("sqlite: failed to check favourite: %w", err)
	default:
		return true, nil
	}
}
