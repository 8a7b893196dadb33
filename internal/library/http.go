// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package library

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/lectio/internal/platform/middleware"
	requestutil "github.com/taibuivan/lectio/internal/platform/request"
)

// # Handler Implementation

// Handler implements the HTTP layer of the library engine.
//
// # Routing Strategy
//
// Every router returned here requires an authenticated user; the caller
// mounts them under /api/v1 behind middleware.Authenticate.
//
//   - /sources: discovery, novel detail, chapter listings and content.
//   - /favourites: the followed novels and the latest-chapters feed.
//   - /categories: ordering and naming of favourite groups.
//   - /history: reading progress.
//   - /images: the cover proxy.
type Handler struct {
	service *Service
}

// NewHandler constructs a new library [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// SourceRoutes returns the source discovery router.
func (handler *Handler) SourceRoutes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/", handler.listSources)
	router.Get("/{source}/search", handler.search)
	router.Get("/{source}/novel", handler.novelDetail)
	router.Get("/{source}/chapters", handler.chapters)
	router.Get("/{source}/content", handler.chapterContent)

	return router
}

// FavouriteRoutes returns the favourites router.
func (handler *Handler) FavouriteRoutes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/", handler.listFavourites)
	router.Post("/", handler.addFavourite)
	router.Delete("/", handler.removeFavourite)
	router.Put("/categories", handler.setFavouriteCategories)
	router.Get("/latest", handler.latestChapters)

	return router
}

// CategoryRoutes returns the categories router.
func (handler *Handler) CategoryRoutes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/", handler.listCategories)
	router.Post("/", handler.createCategories)
	router.Patch("/{name}", handler.renameCategory)
	router.Put("/{name}/position", handler.moveCategory)
	router.Delete("/{name}", handler.deleteCategory)

	return router
}

// HistoryRoutes returns the reading history router.
func (handler *Handler) HistoryRoutes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/", handler.findHistory)
	router.Post("/", handler.recordHistory)
	router.Post("/bulk", handler.recordHistoryBulk)
	router.Delete("/", handler.deleteHistory)
	router.Delete("/novel", handler.deleteNovelHistory)

	return router
}

// ImageRoutes returns the image proxy router.
func (handler *Handler) ImageRoutes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/", handler.image)

	return router
}

// novelKeyFromQuery reads the ?source=&url= pair.
func novelKeyFromQuery(request *http.Request) NovelKey {
	return NovelKey{
		Source: requestutil.Query(request, FieldSource),
		URL:    requestutil.Query(request, FieldURL),
	}
}
