// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

The source catalog is the one piece of configuration that does not live in the
environment; its path is configured here and the file itself is parsed by the
source/remote package.
*/
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/taibuivan/lectio/internal/platform/constants"
)

// minSecretLength matches the floor enforced by the token service.
const minSecretLength = 16

// # Configuration Schema

// Config holds all runtime configuration for the Lectio API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational store (single SQLite file)
	DatabasePath string `env:"DATABASE_PATH" envDefault:"./data/lectio.sqlite"`

	// Optional pub/sub fan-out (Redis). Empty keeps notifications in-process.
	RedisURL string `env:"REDIS_URL"`

	// Token signing
	JWTSecret      string        `env:"JWT_SECRET,required"`
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"24h"`

	// First-boot administrator
	AdminUsername string `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword string `env:"ADMIN_PASSWORD" envDefault:"admin"`

	// AllowRegistration seeds the persisted registration toggle on first boot.
	AllowRegistration bool `env:"ALLOW_REGISTRATION" envDefault:"false"`

	// Source catalog (YAML)
	SourcesFile string `env:"SOURCES_FILE" envDefault:"./config/sources.yaml"`

	// Reconciliation scheduler
	SyncInterval    time.Duration `env:"SYNC_INTERVAL"`
	SyncConcurrency int           `env:"SYNC_CONCURRENCY"  envDefault:"1"`
	SyncOnStart     bool          `env:"SYNC_ON_START"     envDefault:"true"`
	MaxChapterPages int           `env:"MAX_CHAPTER_PAGES" envDefault:"1000"`

	// Database backups
	BackupDir      string        `env:"BACKUP_DIR"      envDefault:"./data/backups"`
	BackupInterval time.Duration `env:"BACKUP_INTERVAL" envDefault:"24h"`
	BackupRetain   int           `env:"BACKUP_RETAIN"   envDefault:"5"`

	// Image proxy
	ImageMaxBytes int64 `env:"IMAGE_MAX_BYTES" envDefault:"10485760"`

	// Cross-Origin Resource Sharing
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:","`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects values that parse correctly but cannot run.
func (c *Config) Validate() error {
	var problems []string

	if len(c.JWTSecret) < minSecretLength {
		problems = append(problems, fmt.Sprintf("JWT_SECRET must be at least %d characters", minSecretLength))
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		problems = append(problems, "DATABASE_PATH must not be empty")
	}
	if c.SyncInterval < 0 {
		problems = append(problems, "SYNC_INTERVAL must not be negative")
	}
	if c.SyncConcurrency < 1 {
		problems = append(problems, "SYNC_CONCURRENCY must be at least 1")
	}
	if c.MaxChapterPages < 1 {
		problems = append(problems, "MAX_CHAPTER_PAGES must be at least 1")
	}
	if c.BackupInterval < 0 {
		problems = append(problems, "BACKUP_INTERVAL must not be negative")
	}
	if c.BackupRetain < 1 {
		problems = append(problems, "BACKUP_RETAIN must be at least 1")
	}
	if c.ImageMaxBytes < 1 {
		problems = append(problems, "IMAGE_MAX_BYTES must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("config: %w", errors.New(strings.Join(problems, "; ")))
	}
	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// ReconcileInterval returns the scheduler period. An explicit SYNC_INTERVAL
// wins; otherwise production runs every 12h and everything else every hour.
func (c *Config) ReconcileInterval() time.Duration {
	if c.SyncInterval > 0 {
		return c.SyncInterval
	}
	if c.IsProduction() {
		return constants.ProductionSyncInterval
	}
	return constants.DefaultSyncInterval
}

// UsesRedis reports whether a Redis fan-out is configured.
func (c *Config) UsesRedis() bool {
	return strings.TrimSpace(c.RedisURL) != ""
}
