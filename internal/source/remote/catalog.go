// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package remote implements sources that speak a small JSON protocol over HTTP.

Each source is one entry of a YAML catalog. The entry names the endpoints of a
scraper gateway as URL templates; the gateway does the site-specific work and
answers with JSON. Templates understand three kinds of placeholder:

  - ${0}: the novel URL (or the search query, or the chapter URL).
  - ${1}: the page number.
  - ${key}: the value of key in the novel's additionalProps.

Placeholders after the '?' of a template are query-escaped.
*/
package remote

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/taibuivan/lectio/internal/platform/constants"
	"github.com/taibuivan/lectio/internal/source"
	"github.com/taibuivan/lectio/pkg/slug"
)

// # Catalog Schema

// Catalog is the root of the sources file.
type Catalog struct {
	Sources []Entry `yaml:"sources"`
}

// Entry describes one source.
type Entry struct {
	ID        string            `yaml:"id"`
	Name      string            `yaml:"name"`
	Language  string            `yaml:"language"`
	BaseURL   string            `yaml:"baseUrl"`
	Paginated *bool             `yaml:"paginated"`
	Timeout   time.Duration     `yaml:"timeout"`
	RPS       float64           `yaml:"rps"`
	Headers   map[string]string `yaml:"headers"`
	Endpoints Endpoints         `yaml:"endpoints"`
}

// Endpoints are the URL templates of a source. Detail and Chapters are required.
type Endpoints struct {
	Detail   string `yaml:"detail"`
	Chapters string `yaml:"chapters"`
	Search   string `yaml:"search"`
	Content  string `yaml:"content"`
}

// # Loading

// ParseCatalog decodes a catalog and fills in defaults.
func ParseCatalog(data []byte) (*Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("remote: failed to parse catalog: %w", err)
	}

	for i := range catalog.Sources {
		entry := &catalog.Sources[i]
		if err := entry.normalize(); err != nil {
			return nil, fmt.Errorf("remote: source #%d: %w", i+1, err)
		}
	}

	return &catalog, nil
}

// LoadRegistry builds the source registry from the catalog at path. A missing
// file yields an empty registry so that the library can still serve its cache.
func LoadRegistry(path string, client *http.Client, logger *slog.Logger) (*source.Registry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("source_catalog_missing", slog.String("path", path))
		return source.NewRegistry()
	}
	if err != nil {
		return nil, fmt.Errorf("remote: failed to read catalog: %w", err)
	}

	catalog, err := ParseCatalog(data)
	if err != nil {
		return nil, err
	}

	registry, err := source.NewRegistry(catalog.Providers(client)...)
	if err != nil {
		return nil, err
	}

	logger.Info("source_catalog_loaded",
		slog.String("path", path),
		slog.Int("sources", registry.Len()),
	)
	return registry, nil
}

// Providers turns every entry into a rate-limited provider.
func (catalog *Catalog) Providers(client *http.Client) []source.Provider {
	providers := make([]source.Provider, 0, len(catalog.Sources))
	for _, entry := range catalog.Sources {
		providers = append(providers, source.Limit(NewProvider(entry, client), entry.RPS, entry.Timeout))
	}
	return providers
}

// normalize validates the entry and applies defaults.
func (entry *Entry) normalize() error {
	entry.Name = strings.TrimSpace(entry.Name)
	if entry.ID == "" {
		entry.ID = slug.From(entry.Name)
	}
	if entry.ID == "" {
		return errors.New("id or name is required")
	}
	if entry.Name == "" {
		entry.Name = entry.ID
	}
	if entry.Endpoints.Detail == "" || entry.Endpoints.Chapters == "" {
		return fmt.Errorf("%s: detail and chapters endpoints are required", entry.ID)
	}
	if entry.Paginated == nil {
		paginated := strings.Contains(entry.Endpoints.Chapters, "${1}")
		entry.Paginated = &paginated
	}
	if entry.Timeout <= 0 {
		entry.Timeout = constants.DefaultProviderTimeout
	}
	if entry.RPS <= 0 {
		entry.RPS = constants.DefaultProviderRPS
	}
	return nil
}
