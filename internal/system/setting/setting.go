// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package setting persists instance-wide switches in the key/value settings table.

Two groups of values live there: the registration toggle, which only an
administrator may flip, and the client configuration that front-ends read at
startup.
*/
package setting

import "context"

// ClientConfig is the configuration handed to front-ends.
type ClientConfig struct {
	ClientVersion string `json:"clientVersion"`
	ClientType    string `json:"clientType"`
}

// Registration reports whether new accounts may be created.
type Registration struct {
	Open bool `json:"open"`
}

// Repository defines the persistence contract for settings.
type Repository interface {

	// Get returns the raw value for key, or NotFound.
	Get(context context.Context, key string) (string, error)

	// Set inserts or replaces the value for key.
	Set(context context.Context, key, value string) error
}
