// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/lectio/internal/platform/constants"
	"github.com/taibuivan/lectio/internal/platform/ctxutil"
	"github.com/taibuivan/lectio/internal/platform/middleware"
	"github.com/taibuivan/lectio/internal/platform/sec"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

var ok = http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
	writer.WriteHeader(http.StatusNoContent)
})

// stubVerifier accepts "good" as a member token and "boss" as an admin token.
type stubVerifier struct{}

func (stubVerifier) VerifyToken(token string) (*sec.AuthClaims, error) {
	switch token {
	case "good":
		return &sec.AuthClaims{Username: "alice", Role: string(sec.RoleMember)}, nil
	case "boss":
		return &sec.AuthClaims{Username: "admin", Role: string(sec.RoleAdmin)}, nil
	default:
		return nil, errors.New("bad token")
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := middleware.RequestID()(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		seen = ctxutil.GetRequestID(request.Context())
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, recorder.Header().Get(constants.HeaderXRequestID))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set(constants.HeaderXRequestID, "from-client")
	handler.ServeHTTP(httptest.NewRecorder(), request)
	assert.Equal(t, "from-client", seen)
}

func TestAuthenticate(t *testing.T) {
	var user *sec.AuthClaims
	handler := middleware.Authenticate(stubVerifier{})(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		user = ctxutil.GetAuthUser(request.Context())
		writer.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name     string
		target   string
		header   string
		status   int
		username string
	}{
		{"anonymous", "/", "", http.StatusNoContent, ""},
		{"bearer", "/", "Bearer good", http.StatusNoContent, "alice"},
		{"query token", "/?token=good", "", http.StatusNoContent, "alice"},
		{"malformed header", "/", "Token good", http.StatusUnauthorized, ""},
		{"rejected token", "/", "Bearer nope", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user = nil
			request := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				request.Header.Set(constants.HeaderAuthorization, tt.header)
			}
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			assert.Equal(t, tt.status, recorder.Code)
			if tt.username == "" {
				assert.Nil(t, user)
			} else if assert.NotNil(t, user) {
				assert.Equal(t, tt.username, user.Username)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	handler := middleware.Authenticate(stubVerifier{})(middleware.RequireRole(sec.RoleAdmin)(ok))

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"member", "good", http.StatusForbidden},
		{"admin", "boss", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.token != "" {
				request.Header.Set(constants.HeaderAuthorization, "Bearer "+tt.token)
			}
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)
			assert.Equal(t, tt.status, recorder.Code)
		})
	}
}

func TestRateLimitWith(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	// A negligible refill rate makes the burst the whole budget
	handler := middleware.RateLimitWith(ctx, 0.001, 2)(ok)

	send := func(ip string) int {
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set(constants.HeaderXRealIP, ip)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		return recorder.Code
	}

	assert.Equal(t, http.StatusNoContent, send("10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, send("10.0.0.2"), "budgets are per IP")
}

func TestPanicRecovery(t *testing.T) {
	handler := middleware.PanicRecovery(discard)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	recorder := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.NotContains(t, recorder.Body.String(), "boom")
}

func TestRealIP(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.RemoteAddr = "192.0.2.7:4321"
	assert.Equal(t, "192.0.2.7", middleware.RealIP(request))

	request.Header.Set(constants.HeaderXForwardedFor, "203.0.113.5, 10.0.0.1")
	assert.Equal(t, "203.0.113.5", middleware.RealIP(request))

	request.Header.Set(constants.HeaderXRealIP, "198.51.100.2")
	assert.Equal(t, "198.51.100.2", middleware.RealIP(request))
}
