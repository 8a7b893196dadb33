// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"database/sql"
	"errors"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/taibuivan/lectio/internal/platform/apperr"
)

// Wrap inspects a database error and classifies it into an [apperr.AppError].
//
// The resource names what was being looked up so a missing row renders as
// "Novel not found" rather than a generic message. Anything that is neither a
// missing row nor a key violation is a store failure and keeps the raw error
// as its cause for logging.
func Wrap(err error, resource string) error {
	if err == nil {
		return nil
	}

	// Errors already classified upstream pass through untouched
	if apperr.IsAppError(err) {
		return err
	}

	// 1. Not Found mapping
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(resource)
	}

	// 2. Key violations
	if IsConstraintViolation(err) {
		return apperr.Conflict(resource + " already exists")
	}

	// 3. Everything else is a store failure
	return apperr.StoreFailure(err)
}

// IsConstraintViolation reports whether err is a SQLite primary key or
// unique constraint violation.
func IsConstraintViolation(err error) bool {
	var sqliteError *sqlite.Error
	if !errors.As(err, &sqliteError) {
		return false
	}

	switch sqliteError.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	default:
		return false
	}
}
