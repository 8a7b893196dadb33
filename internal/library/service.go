// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package library

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/taibuivan/lectio/internal/source"
)

// # Service Layer

// Repositories groups the stores the library engine works against.
type Repositories struct {
	Novels     NovelRepository
	Chapters   ChapterRepository
	Favourites FavouriteRepository
	Categories CategoryRepository
	History    HistoryRepository
	Images     ImageRepository
}

// NewRepositories wires every SQLite repository to the same database handle.
func NewRepositories(db *sql.DB) Repositories {
	return Repositories{
		Novels:     NewNovelRepository(db),
		Chapters:   NewChapterRepository(db),
		Favourites: NewFavouriteRepository(db),
		Categories: NewCategoryRepository(db),
		History:    NewHistoryRepository(db),
		Images:     NewImageRepository(db),
	}
}

// Dependencies configures a [Service].
type Dependencies struct {
	Repositories Repositories
	Registry     *source.Registry
	Walker       *source.Walker

	// HTTPClient fetches proxied images. Defaults to a client with a 30s timeout.
	HTTPClient *http.Client

	// ImageMaxBytes caps a proxied image. Zero means 10 MiB.
	ImageMaxBytes int64

	Logger *slog.Logger
}

// Service orchestrates the library: source lookups, the novel and chapter
// cache, favourites, categories, history and the image proxy.
type Service struct {
	repos         Repositories
	registry      *source.Registry
	walker        *source.Walker
	client        *http.Client
	imageMaxBytes int64
	logger        *slog.Logger
	now           func() time.Time
}

const defaultImageMaxBytes = 10 << 20

// NewService constructs a new [Service].
func NewService(deps Dependencies) *Service {
	service := &Service{
		repos:         deps.Repositories,
		registry:      deps.Registry,
		walker:        deps.Walker,
		client:        deps.HTTPClient,
		imageMaxBytes: deps.ImageMaxBytes,
		logger:        deps.Logger,
		now:           time.Now,
	}

	if service.walker == nil {
		service.walker = source.NewWalker(source.DefaultMaxPages)
	}
	if service.client == nil {
		service.client = &http.Client{Timeout: 30 * time.Second}
	}
	if service.imageMaxBytes <= 0 {
		service.imageMaxBytes = defaultImageMaxBytes
	}
	if service.logger == nil {
		service.logger = slog.Default()
	}
	return service
}
