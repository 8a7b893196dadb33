// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/lectio/internal/api"
	"github.com/taibuivan/lectio/internal/library"
	"github.com/taibuivan/lectio/internal/notify"
	"github.com/taibuivan/lectio/internal/platform/config"
	"github.com/taibuivan/lectio/internal/platform/constants"
	"github.com/taibuivan/lectio/internal/platform/migration"
	"github.com/taibuivan/lectio/internal/platform/sec"
	"github.com/taibuivan/lectio/internal/platform/sqlite"
	"github.com/taibuivan/lectio/internal/reconcile"
	"github.com/taibuivan/lectio/internal/source"
	"github.com/taibuivan/lectio/internal/source/sourcetest"
	"github.com/taibuivan/lectio/internal/system/setting"
	"github.com/taibuivan/lectio/internal/users/account"
	"github.com/taibuivan/lectio/internal/users/auth"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// newTestServer assembles the full router over an in-memory store.
func newTestServer(t *testing.T, health api.HealthDependencies) http.Handler {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(ctx, sqlite.MemoryPath, discard)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migration.RunUp(db, discard))

	users := account.NewUserRepository(db)
	accounts := account.NewService(users, discard)
	_, err = accounts.Bootstrap(ctx, account.BootstrapInput{Username: "admin", Password: "root-pass"})
	require.NoError(t, err)

	settings := setting.NewService(setting.NewRepository(db), discard)
	tokens, err := sec.NewTokenService("test-secret-0123456789", constants.AuthIssuer)
	require.NoError(t, err)

	fake := sourcetest.New("fake", false)
	fake.SetDetail("/n", source.NovelDetail{Title: "Novel"})
	fake.SetChapters("/n", 3)
	registry, err := source.NewRegistry(fake)
	require.NoError(t, err)

	repositories := library.NewRepositories(db)
	libraryService := library.NewService(library.Dependencies{
		Repositories: repositories,
		Registry:     registry,
		Logger:       discard,
	})

	hub := notify.NewHub(discard)
	t.Cleanup(hub.Close)

	scheduler := reconcile.New(reconcile.Config{}, reconcile.Dependencies{
		Novels:     repositories.Novels,
		Chapters:   repositories.Chapters,
		Favourites: repositories.Favourites,
		Registry:   registry,
		Sink:       hub,
		Logger:     discard,
	})

	liveness, readiness := api.NewHealthHandlers(health, discard)
	cfg := &config.Config{ServerPort: "0", Environment: "development"}

	server := api.NewServer(ctx, cfg, discard, tokens, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      auth.NewHandler(auth.NewService(users, settings, tokens, 0, discard)),
		Account:   account.NewHandler(accounts),
		Settings:  setting.NewHandler(settings),
		Library:   library.NewHandler(libraryService),
		Sync:      reconcile.NewHandler(scheduler),
		Live:      notify.NewHandler(hub, nil),
	})
	return server.Handler()
}

func call(handler http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, target, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func TestHealth(t *testing.T) {
	healthy := newTestServer(t, api.HealthDependencies{
		CheckDatabase: func(context.Context) error { return nil },
	})

	recorder := call(healthy, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.NotEmpty(t, recorder.Header().Get(constants.HeaderXRequestID))

	recorder = call(healthy, http.MethodGet, "/ready", "", "")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"status":"ready"`)

	degraded := newTestServer(t, api.HealthDependencies{
		CheckDatabase: func(context.Context) error { return nil },
		CheckCache:    func(context.Context) error { return errors.New("connection refused") },
	})

	recorder = call(degraded, http.MethodGet, "/ready", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"status":"degraded"`)
	assert.Contains(t, recorder.Body.String(), "connection refused")
}

func TestServer_AuthenticatedFlow(t *testing.T) {
	router := newTestServer(t, api.HealthDependencies{})

	recorder := call(router, http.MethodPost, "/api/v1/auth/login", "", `{"username":"admin","password":"root-pass"}`)
	require.Equal(t, http.StatusOK, recorder.Code)

	var login struct {
		Data auth.Session `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &login))
	token := login.Data.Token

	tests := []struct {
		name   string
		method string
		target string
		token  string
		body   string
		status int
	}{
		{"anonymous favourites", http.MethodGet, "/api/v1/favourites", "", "", http.StatusUnauthorized},
		{"bad token", http.MethodGet, "/api/v1/favourites", "garbage", "", http.StatusUnauthorized},
		{"profile", http.MethodGet, "/api/v1/users/me", token, "", http.StatusOK},
		{"add favourite", http.MethodPost, "/api/v1/favourites", token, `{"source":"fake","url":"/n"}`, http.StatusCreated},
		{"list favourites", http.MethodGet, "/api/v1/favourites", token, "", http.StatusOK},
		{"sources", http.MethodGet, "/api/v1/sources", token, "", http.StatusOK},
		{"sync status", http.MethodGet, "/api/v1/sync/status", token, "", http.StatusOK},
		{"admin opens registration", http.MethodPut, "/api/v1/settings/registration", token, `{"open":true}`, http.StatusOK},
		{"register", http.MethodPost, "/api/v1/auth/register", "", `{"username":"bob","password":"pw"}`, http.StatusCreated},
		{"websocket needs a token", http.MethodGet, "/ws", "", "", http.StatusUnauthorized},
		{"unknown route", http.MethodGet, "/api/v1/nope", token, "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, call(router, tt.method, tt.target, tt.token, tt.body).Code)
		})
	}
}

func TestServer_CORSPreflight(t *testing.T) {
	router := newTestServer(t, api.HealthDependencies{})

	request := httptest.NewRequest(http.MethodOptions, "/api/v1/favourites", nil)
	request.Header.Set("Origin", "http://localhost:5173")
	request.Header.Set("Access-Control-Request-Method", http.MethodPost)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "*", recorder.Header().Get("Access-Control-Allow-Origin"))
}
