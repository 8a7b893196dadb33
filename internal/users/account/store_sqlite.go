// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/taibuivan/lectio/internal/platform/apperr"
	"github.com/taibuivan/lectio/internal/platform/constants"
	"github.com/taibuivan/lectio/internal/platform/database/schema"
	"github.com/taibuivan/lectio/internal/platform/dberr"
	"github.com/taibuivan/lectio/internal/platform/sqlite"
)

// userRepository implements [UserRepository] on SQLite.
type userRepository struct {
	db *sql.DB
}

// NewUserRepository constructs a SQLite backed user store.
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

/*
Create inserts the user row and its position-0 category in one transaction.

Parameters:
  - context: context.Context
  - user: *User (CreatedAt defaults to now)

Returns:
  - error: Conflict when the username exists, StoreFailure otherwise
*/
func (repository *userRepository) Create(context context.Context, user *User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	users, categories := schema.UsersAccount, schema.LibraryCategory

	err := sqlite.WithTx(context, repository.db, func(tx *sql.Tx) error {
		insertUser := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s) VALUES (?, ?, ?, ?)`,
			users.Table, users.Username, users.Password, users.UserLevel, users.CreatedAt)

		if _, err := tx.ExecContext(context, insertUser,
			user.Username, user.PasswordHash, user.UserLevel, sqlite.Timestamp(user.CreatedAt)); err != nil {
			return fmt.Errorf("sqlite: failed to insert user: %w", err)
		}

		insertCategory := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s) VALUES (?, ?, 0)`,
			categories.Table, categories.Username, categories.Name, categories.Position)

		if _, err := tx.ExecContext(context, insertCategory, user.Username, constants.DefaultCategoryName); err != nil {
			return fmt.Errorf("sqlite: failed to insert default category: %w", err)
		}
		return nil
	})

	return dberr.Wrap(err, "User")
}

// FindByUsername implements [UserRepository].
func (repository *userRepository) FindByUsername(context context.Context, username string) (*User, error) {
	users := schema.UsersAccount
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s FROM %s WHERE %s = ?`,
		users.Username, users.Password, users.UserLevel, users.CreatedAt, users.Table, users.Username)

	var (
		user      User
		createdAt string
	)
	err := repository.db.QueryRowContext(context, query, username).
		Scan(&user.Username, &user.PasswordHash, &user.UserLevel, &createdAt)
	if err != nil {
		return nil, dberr.Wrap(err, "User")
	}

	if user.CreatedAt, err = sqlite.ParseTimestamp(createdAt); err != nil {
		return nil, dberr.Wrap(err, "User")
	}
	return &user, nil
}

// UpdatePassword implements [UserRepository].
func (repository *userRepository) UpdatePassword(context context.Context, username, passwordHash string) error {
	users := schema.UsersAccount
	query := fmt.Sprintf(`UPDATE %s SET %s = ? WHERE %s = ?`, users.Table, users.Password, users.Username)

	result, err := repository.db.ExecContext(context, query, passwordHash, username)
	if err != nil {
		return dberr.Wrap(fmt.Errorf("sqlite: failed to update password: %w", err), "User")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return dberr.Wrap(err, "User")
	}
	if affected == 0 {
		return apperr.NotFound("User")
	}
	return nil
}

// Count implements [UserRepository].
func (repository *userRepository) Count(context context.Context) (int, error) {
	var count int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, schema.UsersAccount.Table)

	if err := repository.db.QueryRowContext(context, query).Scan(&count); err != nil {
		return 0, dberr.Wrap(fmt.Errorf("sqlite: failed to count users: %w", err), "User")
	}
	return count, nil
}
