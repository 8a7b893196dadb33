// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notify

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/taibuivan/lectio/internal/platform/ctxutil"
	"github.com/taibuivan/lectio/internal/platform/middleware"
	"github.com/taibuivan/lectio/pkg/uuid"
)

// Handler upgrades authenticated requests to websocket clients of a [Hub].
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewHandler builds the websocket endpoint. An empty allowedOrigins accepts
// any origin; the access token is what authorizes the connection.
func NewHandler(hub *Hub, allowedOrigins []string) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(request *http.Request) bool {
				origin := request.Header.Get("Origin")
				return len(allowedOrigins) == 0 || origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// Routes mounts GET / behind [middleware.RequireAuth]. Browsers pass the
// token as ?token= because they cannot set headers on an upgrade.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.With(middleware.RequireAuth).Get("/", handler.serve)
	return router
}

// GET /ws.
func (handler *Handler) serve(writer http.ResponseWriter, request *http.Request) {
	logger := ctxutil.GetLogger(request.Context())
	username := ctxutil.GetUsername(request.Context())

	conn, err := handler.upgrader.Upgrade(writer, request, nil)
	if err != nil {
		// The upgrader has already written the HTTP error
		logger.WarnContext(request.Context(), "ws_upgrade_failed", slog.Any("error", err))
		return
	}

	client := &client{
		id:       uuid.New(),
		username: username,
		hub:      handler.hub,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
	}
	if !handler.hub.register(client) {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
