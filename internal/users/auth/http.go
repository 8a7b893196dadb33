// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/lectio/internal/platform/middleware"
	requestutil "github.com/taibuivan/lectio/internal/platform/request"
	"github.com/taibuivan/lectio/internal/platform/respond"
	"github.com/taibuivan/lectio/internal/platform/validate"
	"github.com/taibuivan/lectio/internal/users/account"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST /register       : Creates a reader account when registration is open.
//   - POST /login          : Authenticates and returns a JWT.
//   - POST /reset-password : Changes a password (own, or anyone's for admins).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/register", handler.register)
	router.Post("/login", handler.login)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/reset-password", handler.resetPassword)
	})

	return router
}

// # Request Payloads

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type resetPasswordRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func validateCredentials(input credentialsRequest) error {
	validator := &validate.Validator{}
	validator.Required(account.FieldUsername, input.Username).
		MaxLen(account.FieldUsername, input.Username, MaxUsernameLength).
		Required(account.FieldPassword, input.Password).
		MaxLen(account.FieldPassword, input.Password, MaxPasswordLength)
	return validator.Err()
}

/*
Register handles the creation of a new reader account.

POST /api/v1/auth/register

Response:
  - 201: Session
  - 400: Missing username or password
  - 403: Registration is closed
  - 409: Username already exists
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input credentialsRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if err := validateCredentials(input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Register(request.Context(), RegisterInput{
		Username: input.Username,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, session)
}

/*
Login authenticates a user.

POST /api/v1/auth/login

Response:
  - 200: Session
  - 400: Missing username or password
  - 401: Invalid credentials
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input credentialsRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if err := validateCredentials(input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Login(request.Context(), LoginInput{
		Username:  input.Username,
		Password:  input.Password,
		IPAddress: middleware.RealIP(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, session)
}

/*
ResetPassword changes a password.

POST /api/v1/auth/reset-password

Response:
  - 200: Session (self reset)
  - 204: Another user's password was reset
  - 400: Missing password
  - 403: A reader targeted someone else
  - 404: Unknown user
*/
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input resetPasswordRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(account.FieldPassword, input.Password).
		MaxLen(account.FieldPassword, input.Password, MaxPasswordLength)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.ResetPassword(request.Context(), claims, ResetPasswordInput{
		Username: input.Username,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if session == nil {
		respond.NoContent(writer)
		return
	}
	respond.OK(writer, session)
}
