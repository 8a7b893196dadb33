// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package source

import (
	"fmt"
	"slices"
	"strings"

	"github.com/taibuivan/lectio/internal/platform/apperr"
)

// Info is the public description of a registered source.
type Info struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Language   string `json:"language"`
	Paginated  bool   `json:"paginated"`
	Searchable bool   `json:"searchable"`
	Readable   bool   `json:"readable"`
}

// Registry is the explicit set of providers known to the process. It is built
// once at startup and read concurrently afterwards.
type Registry struct {
	providers map[string]Provider
	order     []string
}

// NewRegistry indexes providers by ID, rejecting empty or duplicate IDs.
func NewRegistry(providers ...Provider) (*Registry, error) {
	registry := &Registry{providers: make(map[string]Provider, len(providers))}

	for _, provider := range providers {
		id := provider.ID()
		if strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("source: provider with empty id")
		}
		if _, exists := registry.providers[id]; exists {
			return nil, fmt.Errorf("source: duplicate provider id %q", id)
		}
		registry.providers[id] = provider
		registry.order = append(registry.order, id)
	}

	return registry, nil
}

// Get returns the provider registered under id.
func (registry *Registry) Get(id string) (Provider, error) {
	provider, ok := registry.providers[id]
	if !ok {
		return nil, apperr.NotFound("Source")
	}
	return provider, nil
}

// Len returns the number of registered providers.
func (registry *Registry) Len() int {
	return len(registry.order)
}

// List describes the registered sources in registration order. When
// languages are given, only sources in one of them are returned.
func (registry *Registry) List(languages ...string) []Info {
	infos := make([]Info, 0, len(registry.order))

	for _, id := range registry.order {
		info := describe(registry.providers[id])
		if len(languages) > 0 && !slices.ContainsFunc(languages, func(lang string) bool {
			return strings.EqualFold(lang, info.Language)
		}) {
			continue
		}
		infos = append(infos, info)
	}

	return infos
}

func describe(provider Provider) Info {
	info := Info{ID: provider.ID(), Name: provider.ID(), Paginated: provider.Paginated()}

	if describer, ok := innermost(provider).(Describer); ok {
		info.Name = describer.Name()
		info.Language = describer.Language()
	}
	_, info.Searchable = AsSearcher(provider)
	_, info.Readable = AsContentFetcher(provider)

	return info
}
