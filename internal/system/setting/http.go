// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package setting

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/lectio/internal/platform/middleware"
	requestutil "github.com/taibuivan/lectio/internal/platform/request"
	"github.com/taibuivan/lectio/internal/platform/respond"
	"github.com/taibuivan/lectio/internal/platform/sec"
	"github.com/taibuivan/lectio/internal/platform/validate"
)

// Handler exposes instance settings over HTTP.
type Handler struct {
	service *Service
}

// NewHandler constructs a new settings [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] configured with the settings endpoints.
//
// # Endpoints
//   - GET /registration : Public. Whether self-registration is open.
//   - PUT /registration : Admin only.
//   - GET /client       : Public. Front-end configuration.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/registration", handler.getRegistration)
	router.Get("/client", handler.getClientConfig)

	router.With(middleware.RequireRole(sec.RoleAdmin)).Put("/registration", handler.putRegistration)

	return router
}

func (handler *Handler) getRegistration(writer http.ResponseWriter, request *http.Request) {
	open, err := handler.service.RegistrationOpen(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, Registration{Open: open})
}

type registrationRequest struct {
	Open *bool `json:"open"`
}

/*
PUT /api/v1/settings/registration.

Request:
  - Body: {"open": bool}

Response:
  - 200: Registration: The stored toggle
  - 400: Missing or malformed flag
  - 403: Caller is not an administrator
*/
func (handler *Handler) putRegistration(writer http.ResponseWriter, request *http.Request) {
	var input registrationRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}
	if input.Open == nil {
		respond.Error(writer, request, validate.RequiredError("open", "Field is required"))
		return
	}

	if err := handler.service.SetRegistrationOpen(request.Context(), *input.Open); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, Registration{Open: *input.Open})
}

func (handler *Handler) getClientConfig(writer http.ResponseWriter, request *http.Request) {
	config, err := handler.service.ClientConfig(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, config)
}
