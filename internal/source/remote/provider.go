// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/taibuivan/lectio/internal/platform/constants"
	"github.com/taibuivan/lectio/internal/source"
)

// maxResponseBytes caps a single gateway response.
const maxResponseBytes = 16 << 20

// Provider is a [source.Provider] backed by a JSON gateway.
type Provider struct {
	entry  Entry
	client *http.Client
}

// NewProvider creates a provider for a normalized catalog entry.
func NewProvider(entry Entry, client *http.Client) *Provider {
	if client == nil {
		client = http.DefaultClient
	}
	return &Provider{entry: entry, client: client}
}

func (provider *Provider) ID() string { return provider.entry.ID }
func (provider *Provider) Name() string { return provider.entry.Name }
func (provider *Provider) Language() string { return provider.entry.Language }

func (provider *Provider) Paginated() bool {
	return provider.entry.Paginated != nil && *provider.entry.Paginated
}

// FetchNovelDetail implements [source.Provider].
func (provider *Provider) FetchNovelDetail(ctx context.Context, ref source.NovelRef) (*source.NovelDetail, error) {
	var detail source.NovelDetail
	target := expand(provider.entry.Endpoints.Detail, ref.URL, 1, ref.Props)

	if err := provider.getJSON(ctx, target, &detail); err != nil {
		return nil, source.Fail(provider.ID(), source.OpDetail, err)
	}
	return &detail, nil
}

// FetchChapterPage implements [source.Provider].
func (provider *Provider) FetchChapterPage(ctx context.Context, ref source.NovelRef, page int) (*source.ChapterPage, error) {
	var chapterPage source.ChapterPage
	target := expand(provider.entry.Endpoints.Chapters, ref.URL, page, ref.Props)

	if err := provider.getJSON(ctx, target, &chapterPage); err != nil {
		return nil, source.Fail(provider.ID(), source.OpChapters, err)
	}
	return &chapterPage, nil
}

// Search implements [source.Searcher]. Sources without a search endpoint
// report [source.ErrUnsupported].
func (provider *Provider) Search(ctx context.Context, query string, page int) (*source.SearchPage, error) {
	if provider.entry.Endpoints.Search == "" {
		return nil, source.Fail(provider.ID(), source.OpSearch, source.ErrUnsupported)
	}

	var results source.SearchPage
	target := expand(provider.entry.Endpoints.Search, query, page, nil)

	if err := provider.getJSON(ctx, target, &results); err != nil {
		return nil, source.Fail(provider.ID(), source.OpSearch, err)
	}
	return &results, nil
}

// FetchChapterContent implements [source.ContentFetcher].
func (provider *Provider) FetchChapterContent(ctx context.Context, chapterURL string) (*source.ChapterContent, error) {
	if provider.entry.Endpoints.Content == "" {
		return nil, source.Fail(provider.ID(), source.OpContent, source.ErrUnsupported)
	}

	var content source.ChapterContent
	target := expand(provider.entry.Endpoints.Content, chapterURL, 1, nil)

	if err := provider.getJSON(ctx, target, &content); err != nil {
		return nil, source.Fail(provider.ID(), source.OpContent, err)
	}
	return &content, nil
}

// getJSON resolves target against the base URL and decodes the JSON answer.
func (provider *Provider) getJSON(ctx context.Context, target string, out any) error {
	endpoint, err := provider.resolve(target)
	if err != nil {
		return err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	request.Header.Set("Accept", "application/json")
	request.Header.Set("User-Agent", constants.AppName+"/"+constants.AppVersion)
	for key, value := range provider.entry.Headers {
		request.Header.Set(key, value)
	}

	response, err := provider.client.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, 4096))
		return fmt.Errorf("unexpected status %d from %s", response.StatusCode, request.URL.Redacted())
	}

	if err := json.NewDecoder(io.LimitReader(response.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (provider *Provider) resolve(target string) (string, error) {
	reference, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", target, err)
	}
	if reference.IsAbs() {
		return reference.String(), nil
	}
	if provider.entry.BaseURL == "" {
		return "", errors.New("relative endpoint without baseUrl")
	}

	base, err := url.Parse(provider.entry.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid baseUrl: %w", err)
	}
	return base.ResolveReference(reference).String(), nil
}
