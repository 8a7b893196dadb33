// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package backup writes point-in-time copies of the SQLite store.

Each copy is produced with VACUUM INTO, which gives a consistent snapshot
without stopping writers. Files are named backup-<UTC timestamp>.sqlite so
that lexical order is chronological; only the newest copies are retained.
*/
package backup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	filePrefix = "backup-"
	fileSuffix = ".sqlite"

	// fixed-width so that names sort by time
	timestampLayout = "20060102T150405.000Z"
)

// Config controls where and how often copies are written.
type Config struct {
	Dir      string
	Interval time.Duration
	Retain   int
}

// Service produces and prunes backups.
type Service struct {
	db     *sql.DB
	config Config
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs a backup [Service]. Retain below 1 keeps a single copy.
func NewService(db *sql.DB, config Config, logger *slog.Logger) *Service {
	if config.Retain < 1 {
		config.Retain = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, config: config, logger: logger, now: time.Now}
}

// WithClock replaces the clock used to name files.
func (service *Service) WithClock(now func() time.Time) *Service {
	service.now = now
	return service
}

/*
Run writes a backup immediately and then every Interval until ctx is done.

Description: Failures are logged and the loop carries on; a broken backup
must never take the API down. A zero Interval disables the loop.

Returns:
  - error: Only when the backup directory cannot be created
*/
func (service *Service) Run(ctx context.Context) error {
	if service.config.Interval <= 0 {
		service.logger.Info("backup_disabled")
		return nil
	}

	if err := os.MkdirAll(service.config.Dir, 0o755); err != nil {
		return fmt.Errorf("backup: failed to create directory: %w", err)
	}

	ticker := time.NewTicker(service.config.Interval)
	defer ticker.Stop()

	for {
		if _, err := service.Backup(ctx); err != nil {
			service.logger.Error("backup_failed", slog.Any("error", err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

/*
Backup writes one copy and prunes old ones.

Returns:
  - string: Path of the new file
  - error: Snapshot or cleanup failures
*/
func (service *Service) Backup(ctx context.Context) (string, error) {
	name := filePrefix + service.now().UTC().Format(timestampLayout) + fileSuffix
	path := filepath.Join(service.config.Dir, name)

	if _, err := service.db.ExecContext(ctx, `VACUUM INTO ?`, path); err != nil {
		return "", fmt.Errorf("backup: failed to write %s: %w", name, err)
	}
	service.logger.Info("backup_written", slog.String("path", path))

	removed, err := service.prune()
	if err != nil {
		return path, err
	}
	for _, file := range removed {
		service.logger.Info("backup_pruned", slog.String("file", file))
	}
	return path, nil
}

// List returns the backup file names in the directory, oldest first.
func (service *Service) List() ([]string, error) {
	entries, err := os.ReadDir(service.config.Dir)
	if err != nil {
		return nil, fmt.Errorf("backup: failed to read directory: %w", err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.Type().IsRegular() && strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileSuffix) {
			files = append(files, name)
		}
	}
	sort.Strings(files)
	return files, nil
}

func (service *Service) prune() ([]string, error) {
	files, err := service.List()
	if err != nil {
		return nil, err
	}
	if len(files) <= service.config.Retain {
		return nil, nil
	}

	stale := files[:len(files)-service.config.Retain]
	for _, file := range stale {
		if err := os.Remove(filepath.Join(service.config.Dir, file)); err != nil {
			return nil, fmt.Errorf("backup: failed to remove %s: %w", file, err)
		}
	}
	return stale, nil
}
