// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package source

import (
	"errors"
	"fmt"

	"github.com/taibuivan/lectio/internal/platform/apperr"
)

// Operation names carried by [ProviderError].
const (
	OpDetail   = "detail"
	OpChapters = "chapters"
	OpSearch   = "search"
	OpContent  = "content"
)

var (
	// ErrTooManyPages is returned when a listing declares more pages than the walker allows.
	ErrTooManyPages = errors.New("declared page count exceeds the walk limit")

	// ErrUnsupported is returned by decorators asked for a capability the
	// wrapped provider lacks.
	ErrUnsupported = errors.New("operation not supported by this source")
)

// ProviderError records which source and operation failed. Network, parse and
// timeout errors all surface as a ProviderError.
type ProviderError struct {
	Source string
	Op     string
	Err    error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("source %s: %s: %v", e.Source, e.Op, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *ProviderError) Unwrap() error { return e.Err }

// Fail wraps err as a [ProviderError] unless it already is one.
func Fail(sourceID, op string, err error) error {
	if err == nil {
		return nil
	}
	var providerError *ProviderError
	if errors.As(err, &providerError) {
		return err
	}
	return &ProviderError{Source: sourceID, Op: op, Err: err}
}

// AppError renders any provider failure as a 502 for on-demand callers.
// Errors that are already classified (for example NotFound for an unknown
// source) pass through unchanged.
func AppError(sourceID string, err error) error {
	if err == nil {
		return nil
	}
	if apperr.IsAppError(err) {
		return err
	}
	var providerError *ProviderError
	if errors.As(err, &providerError) {
		return apperr.ProviderFailure(providerError.Source, providerError)
	}
	return apperr.ProviderFailure(sourceID, err)
}
