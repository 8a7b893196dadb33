// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Library Sync: Scheduler periods and notification event names.
  - Security: Token issuer and header names.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "lectio"
	AppVersion = "0.3.0"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	// Chapter walks on cache miss can take several provider round-trips.
	DefaultWriteTimeout = 90 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 75 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 50.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 100

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute

	// DefaultProviderRPS is the per-source request budget when the catalog does not set one.
	DefaultProviderRPS = 2.0

	// DefaultProviderTimeout bounds a single provider call when the catalog does not set one.
	DefaultProviderTimeout = 30 * time.Second
)

// # Library Sync

const (
	// DefaultSyncInterval is the reconciliation period outside production.
	DefaultSyncInterval = 1 * time.Hour

	// ProductionSyncInterval is the reconciliation period in production.
	ProductionSyncInterval = 12 * time.Hour

	// EventFavouritesUpdateCheck is broadcast at the start and end of every reconciliation run.
	EventFavouritesUpdateCheck = "favouritesUpdateCheck"

	// DefaultCategoryName is the position-0 category created for every user.
	DefaultCategoryName = "Favourites"
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in JWTs.
	AuthIssuer = "lectio"

	// QueryParamToken carries the access token on websocket upgrades, where
	// browsers cannot set an Authorization header.
	QueryParamToken = "token"
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderAuthorization = "Authorization"
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldMeta    = "meta"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldItems   = "items"
	FieldTotal   = "total"
	FieldMessage = "message"
	FieldStatus  = "status"
	FieldToken   = "token"
)

// # Settings Keys

const (
	SettingRegistrationOpen = "registration_open"
	SettingClientVersion    = "client_version"
	SettingClientType       = "client_type"
)

// # Redis Keys

const (
	// RedisChannelEvents is the pub/sub channel that carries library events between instances.
	RedisChannelEvents = "lectio:events"
)
