// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package remote_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/lectio/internal/platform/constants"
	"github.com/taibuivan/lectio/internal/source"
	"github.com/taibuivan/lectio/internal/source/remote"
)

const catalogYAML = `
sources:
  - name: Royal Road
    language: en
    baseUrl: %s
    timeout: 2s
    rps: 100
    headers:
      X-Gateway-Key: secret
    endpoints:
      detail: /novel?url=${0}&slug=${slug}
      chapters: /chapters?url=${0}&page=${1}
      search: /search?q=${0}&page=${1}
  - id: static
    name: Static
    language: vi
    baseUrl: %s
    endpoints:
      detail: /novel?url=${0}
      chapters: /all?url=${0}
`

/*
TestParseCatalog verifies id defaulting, pagination inference and defaults.
*/
func TestParseCatalog(t *testing.T) {
	catalog, err := remote.ParseCatalog([]byte(formatCatalog("https://gw.test")))
	require.NoError(t, err)
	require.Len(t, catalog.Sources, 2)

	royal := catalog.Sources[0]
	assert.Equal(t, "royal-road", royal.ID)
	assert.True(t, *royal.Paginated)
	assert.Equal(t, 2*time.Second, royal.Timeout)

	static := catalog.Sources[1]
	assert.Equal(t, "static", static.ID)
	assert.False(t, *static.Paginated)
	assert.Equal(t, constants.DefaultProviderTimeout, static.Timeout)
	assert.Equal(t, constants.DefaultProviderRPS, static.RPS)

	_, err = remote.ParseCatalog([]byte("sources:\n  - name: Broken\n"))
	assert.Error(t, err)
}

/*
TestProvider verifies template expansion and JSON decoding against a gateway.
*/
func TestProvider(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	gateway := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		mu.Lock()
		seen = append(seen, request.URL.RequestURI())
		mu.Unlock()

		// Headers are per source: only royal-road declares the key
		if request.URL.Path == "/all" {
			assert.Empty(t, request.Header.Get("X-Gateway-Key"))
		} else {
			assert.Equal(t, "secret", request.Header.Get("X-Gateway-Key"))
		}

		switch request.URL.Path {
		case "/novel":
			writeJSON(writer, source.NovelDetail{Title: "Mother of Learning", Status: "Completed"})
		case "/chapters":
			page := request.URL.Query().Get("page")
			writeJSON(writer, source.ChapterPage{
				Chapters: []source.ChapterStub{{Title: "Chapter " + page, URL: "https://rr.test/c/" + page}},
				LastPage: 2,
			})
		case "/search":
			writeJSON(writer, source.SearchPage{Results: []source.SearchResult{{Title: "Hit", URL: "https://rr.test/n/9"}}})
		default:
			http.NotFound(writer, request)
		}
	}))
	defer gateway.Close()

	catalog, err := remote.ParseCatalog([]byte(formatCatalog(gateway.URL)))
	require.NoError(t, err)
	providers := catalog.Providers(gateway.Client())

	registry, err := source.NewRegistry(providers...)
	require.NoError(t, err)
	provider, err := registry.Get("royal-road")
	require.NoError(t, err)

	ref := source.NovelRef{URL: "https://rr.test/n/1?x=1", Props: map[string]string{"slug": "mol"}}

	// 1. Detail with query-escaped ref and props
	detail, err := provider.FetchNovelDetail(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, "Mother of Learning", detail.Title)
	mu.Lock()
	assert.Equal(t, "/novel?url=https%3A%2F%2Frr.test%2Fn%2F1%3Fx%3D1&slug=mol", seen[0])
	mu.Unlock()

	// 2. Paginated walk through the decorator
	stubs, err := source.NewWalker(10).Walk(context.Background(), provider, ref)
	require.NoError(t, err)
	require.Len(t, stubs, 2)
	assert.Equal(t, "Chapter 2", stubs[1].Title)

	// 3. Optional capabilities
	searcher, ok := source.AsSearcher(provider)
	require.True(t, ok)
	results, err := searcher.Search(context.Background(), "time loop", 1)
	require.NoError(t, err)
	assert.Len(t, results.Results, 1)

	infos := registry.List("en")
	require.Len(t, infos, 1)
	assert.Equal(t, "Royal Road", infos[0].Name)
	assert.True(t, infos[0].Searchable)

	// 4. Gateway errors are provider failures
	static, _ := registry.Get("static")
	_, err = static.FetchChapterPage(context.Background(), ref, 1)
	var providerError *source.ProviderError
	require.ErrorAs(t, err, &providerError)
	assert.Equal(t, "static", providerError.Source)
}

/*
TestLoadRegistry verifies that a missing catalog yields an empty registry.
*/
func TestLoadRegistry(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	registry, err := remote.LoadRegistry(filepath.Join(t.TempDir(), "absent.yaml"), nil, logger)
	require.NoError(t, err)
	assert.Equal(t, 0, registry.Len())

	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(formatCatalog("https://gw.test")), 0o600))

	registry, err = remote.LoadRegistry(path, nil, logger)
	require.NoError(t, err)
	assert.Equal(t, 2, registry.Len())
}

func formatCatalog(baseURL string) string {
	return fmt.Sprintf(catalogYAML, baseURL, baseURL)
}

func writeJSON(writer http.ResponseWriter, payload any) {
	writer.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(writer).Encode(payload)
}
