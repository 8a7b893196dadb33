// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package library_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/lectio/internal/library"
	"github.com/taibuivan/lectio/internal/platform/ctxutil"
	"github.com/taibuivan/lectio/internal/platform/sec"
	"github.com/taibuivan/lectio/internal/source"
)

// asUser authenticates every request as username; an empty name stays anonymous.
func asUser(username string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if username != "" {
				claims := &sec.AuthClaims{Username: username, Role: string(sec.RoleMember)}
				request = request.WithContext(ctxutil.WithAuthUser(request.Context(), claims))
			}
			next.ServeHTTP(writer, request)
		})
	}
}

func newTestRouter(t *testing.T, username string) (http.Handler, *library.Service) {
	t.Helper()
	service, fake, _ := newTestService(t, "alice")
	fake.SetDetail("/n", source.NovelDetail{Title: "Novel"})
	fake.SetChapters("/n", 3)

	handler := library.NewHandler(service)
	router := chi.NewRouter()
	router.Use(asUser(username))
	router.Mount("/sources", handler.SourceRoutes())
	router.Mount("/favourites", handler.FavouriteRoutes())
	router.Mount("/categories", handler.CategoryRoutes())
	router.Mount("/history", handler.HistoryRoutes())
	return router, service
}

func serve(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, target, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

func TestHandler_Favourites(t *testing.T) {
	router, _ := newTestRouter(t, "alice")

	recorder := serve(router, http.MethodPost, "/favourites", `{"source":"fake","url":"/n","categories":["Later"]}`)
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	var created struct {
		Data library.FavouriteView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &created))
	assert.Equal(t, "Novel", created.Data.Title)
	assert.Equal(t, 3, created.Data.ChapterCount)
	assert.Equal(t, []string{"Later"}, created.Data.Categories)

	recorder = serve(router, http.MethodGet, "/favourites/latest?limit=2", "")
	require.Equal(t, http.StatusOK, recorder.Code)

	var latest struct {
		Data []library.LatestChapterView `json:"data"`
		Meta struct {
			Total      int `json:"total"`
			TotalPages int `json:"totalPages"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &latest))
	assert.Len(t, latest.Data, 2)
	assert.Equal(t, 3, latest.Meta.Total)
	assert.Equal(t, 2, latest.Meta.TotalPages)
	assert.Equal(t, 3, latest.Data[0].Chapter.ChapterIndex)

	recorder = serve(router, http.MethodDelete, "/favourites?source=fake&url=/n", "")
	assert.Equal(t, http.StatusNoContent, recorder.Code)

	recorder = serve(router, http.MethodDelete, "/favourites?source=fake&url=/n", "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestHandler_Errors(t *testing.T) {
	tests := []struct {
		name     string
		username string
		method   string
		target   string
		body     string
		status   int
		code     string
	}{
		{"anonymous", "", http.MethodGet, "/favourites", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"malformed json", "alice", http.MethodPost, "/favourites", `{"source":`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"missing url", "alice", http.MethodPost, "/favourites", `{"source":"fake"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown source", "alice", http.MethodGet, "/sources/nope/novel?url=/n", "", http.StatusNotFound, "NOT_FOUND"},
		{"unread chapter", "alice", http.MethodGet, "/history?chapterUrl=/n/chapter-1", "", http.StatusNotFound, "NOT_FOUND"},
		{"missing category", "alice", http.MethodDelete, "/categories/Nope", "", http.StatusNotFound, "NOT_FOUND"},
		{"search unsupported", "alice", http.MethodGet, "/sources/fake/search?q=x", "", http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newTestRouter(t, tt.username)

			recorder := serve(router, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.status, recorder.Code, recorder.Body.String())

			var envelope struct {
				Code string `json:"code"`
			}
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
			assert.Equal(t, tt.code, envelope.Code)
		})
	}
}

func TestHandler_History(t *testing.T) {
	router, _ := newTestRouter(t, "alice")

	recorder := serve(router, http.MethodPost, "/history/bulk", `{
		"novel": {"source": "fake", "url": "/n", "title": "Novel"},
		"entries": [
			{"chapter": {"url": "/n/chapter-1", "chapterIndex": 1}, "page": 3, "lastRead": "2026-03-01T10:00:00Z"},
			{"chapter": {"url": "/n/chapter-2", "chapterIndex": 2}, "position": 0.25, "lastRead": "2026-03-01T11:00:00Z"}
		]
	}`)
	require.Equal(t, http.StatusNoContent, recorder.Code, recorder.Body.String())

	recorder = serve(router, http.MethodGet, "/history", "")
	require.Equal(t, http.StatusOK, recorder.Code)

	var latest struct {
		Data []struct {
			URL      string            `json:"url"`
			Position float64           `json:"position"`
			Novel    library.NovelMeta `json:"novel"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &latest))
	require.Len(t, latest.Data, 1)
	assert.Equal(t, "/n/chapter-2", latest.Data[0].URL)
	assert.Equal(t, 0.25, latest.Data[0].Position)
	assert.Equal(t, "Novel", latest.Data[0].Novel.Title)

	recorder = serve(router, http.MethodPost, "/history", `{"novel":{"source":"fake","url":"/n"},"chapter":{"url":"/n/chapter-3"},"page":-1}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = serve(router, http.MethodDelete, "/history/novel?source=fake&url=/n", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"data":{"removed":2}}`, recorder.Body.String())
}
