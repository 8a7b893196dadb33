// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "time"

// # Authentication Constraints

const (
	// DefaultAccessTokenTTL applies when the service is built without an explicit lifetime.
	DefaultAccessTokenTTL = 24 * time.Hour

	// MaxUsernameLength bounds usernames; they are primary keys and appear in every URL filter.
	MaxUsernameLength = 64

	// MaxPasswordLength is the bcrypt input limit.
	MaxPasswordLength = 72
)
