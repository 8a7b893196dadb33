// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reconcile

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/lectio/internal/platform/middleware"
	"github.com/taibuivan/lectio/internal/platform/respond"
	"github.com/taibuivan/lectio/internal/platform/sec"
)

// Handler exposes scheduler control over HTTP.
type Handler struct {
	scheduler *Scheduler
}

// NewHandler constructs a new [Handler].
func NewHandler(scheduler *Scheduler) *Handler {
	return &Handler{scheduler: scheduler}
}

// Routes returns the /sync router. Reading the status needs any account;
// triggering a run is reserved to admins.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.With(middleware.RequireAuth).Get("/status", handler.status)
	router.With(middleware.RequireRole(sec.RoleAdmin)).Post("/run", handler.run)

	return router
}

// GET /api/v1/sync/status.
func (handler *Handler) status(writer http.ResponseWriter, _ *http.Request) {
	respond.OK(writer, handler.scheduler.Status())
}

/*
POST /api/v1/sync/run.

Description: Queues a run through the same path as the ticker. A request made
while a run is already queued collapses into it.

Response:
  - 202: {"queued": bool} (false when it collapsed into a pending run)
  - 403: Not an admin
*/
func (handler *Handler) run(writer http.ResponseWriter, _ *http.Request) {
	queued := handler.scheduler.Trigger()
	respond.JSON(writer, http.StatusAccepted, respond.SuccessEnvelope{Data: map[string]bool{"queued": queued}})
}
