// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sqlite

import (
	"fmt"
	"time"
)

// TimeLayout is the fixed-width UTC layout used for every stored timestamp.
// Values sort lexicographically in the same order as in time.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp formats t for storage.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTimestamp reads a stored timestamp. It also accepts RFC 3339 values
// written by hand or by older clients.
func ParseTimestamp(value string) (time.Time, error) {
	if t, err := time.Parse(TimeLayout, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: invalid timestamp %q: %w", value, err)
	}
	return t.UTC(), nil
}

// NullTimestamp formats an optional time, storing NULL for nil.
func NullTimestamp(t *time.Time) any {
	if t == nil {
		return nil
	}
	return Timestamp(*t)
}
