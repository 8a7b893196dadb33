// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package library

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/taibuivan/lectio/internal/platform/apperr"
	"github.com/taibuivan/lectio/internal/platform/validate"
	"github.com/taibuivan/lectio/internal/source"
)

// Request fields shared by the validators of this package.
const (
	FieldSource     = "source"
	FieldURL        = "url"
	FieldQuery      = "query"
	FieldChapterURL = "chapterUrl"
	FieldName       = "name"
	FieldPosition   = "position"
	FieldPage       = "page"
)

// ChapterOptions controls how a chapter listing is served.
type ChapterOptions struct {
	// Cache serves cached chapters when present and stores walked listings.
	Cache bool
	// Refresh re-walks the source, drops cached chapters nobody has read and
	// re-caches the listing.
	Refresh bool
}

// validateKey rejects a novel reference missing its source or url.
func validateKey(key NovelKey) error {
	validator := &validate.Validator{}
	validator.Required(FieldSource, key.Source).Required(FieldURL, key.URL)
	return validator.Err()
}

// # Sources

// ListSources returns the registered sources, optionally filtered by language.
func (service *Service) ListSources(languages ...string) []source.Info {
	return service.registry.List(languages...)
}

/*
Search queries one source's catalogue.

Parameters:
  - context: context.Context
  - sourceID: string
  - query: string (Required)
  - page: int (1-based; values below 1 read page 1)

Returns:
  - *source.SearchPage
  - error: NotFound for an unknown source, ValidationError when the source
    cannot search, ProviderFailure when it fails
*/
func (service *Service) Search(context context.Context, sourceID, query string, page int) (*source.SearchPage, error) {
	validator := &validate.Validator{}
	validator.Required(FieldSource, sourceID).Required(FieldQuery, query)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	provider, err := service.registry.Get(sourceID)
	if err != nil {
		return nil, err
	}

	searcher, ok := source.AsSearcher(provider)
	if !ok {
		return nil, validate.RequiredError(FieldSource, "Source does not support search")
	}

	if page < 1 {
		page = 1
	}

	results, err := searcher.Search(context, strings.TrimSpace(query), page)
	if err != nil {
		return nil, source.AppError(sourceID, source.Fail(sourceID, source.OpSearch, err))
	}
	if results.Results == nil {
		results.Results = []source.SearchResult{}
	}
	return results, nil
}

// # Novel Detail

/*
NovelDetail fetches a novel from its source and refreshes the cache.

Description: Additional props already cached are merged under the fresh
ones so that template keys learned earlier keep working. When the source
fails the cached row is served instead; only a novel that is neither
reachable nor cached fails.

Parameters:
  - context: context.Context
  - key: NovelKey

Returns:
  - *NovelMeta
  - error: NotFound for an unknown source, ProviderFailure, StoreFailure
*/
func (service *Service) NovelDetail(context context.Context, key NovelKey) (*NovelMeta, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	provider, err := service.registry.Get(key.Source)
	if err != nil {
		return nil, err
	}

	return service.refreshNovel(context, provider, key)
}

// refreshNovel fetches detail and upserts it, falling back to the cache.
func (service *Service) refreshNovel(context context.Context, provider source.Provider, key NovelKey) (*NovelMeta, error) {
	cached, err := service.cachedNovel(context, key)
	if err != nil {
		return nil, err
	}

	ref := source.NovelRef{URL: key.URL}
	var previous map[string]string
	if cached != nil {
		ref = cached.Ref()
		previous = cached.AdditionalProps
	}

	detail, err := provider.FetchNovelDetail(context, ref)
	if err != nil {
		if cached != nil {
			service.logger.WarnContext(context, "novel_detail_served_from_cache",
				slog.String("source", key.Source),
				slog.String("url", key.URL),
				slog.Any("error", err),
			)
			return cached, nil
		}
		return nil, source.AppError(key.Source, source.Fail(key.Source, source.OpDetail, err))
	}

	novel := NovelFromDetail(key, detail, previous)
	if err := service.repos.Novels.Upsert(context, novel); err != nil {
		return nil, err
	}
	return novel, nil
}

// cachedNovel returns the cached novel or nil when it is not cached.
func (service *Service) cachedNovel(context context.Context, key NovelKey) (*NovelMeta, error) {
	novel, err := service.repos.Novels.FindByKey(context, key)
	if apperr.IsNotFound(err) {
		return nil, nil
	}
	return novel, err
}

// ensureNovel returns the cached novel, fetching and caching it when absent.
func (service *Service) ensureNovel(context context.Context, provider source.Provider, key NovelKey) (*NovelMeta, error) {
	cached, err := service.cachedNovel(context, key)
	if err != nil || cached != nil {
		return cached, err
	}
	return service.refreshNovel(context, provider, key)
}

// # Chapter Listings

/*
Chapters returns the chapter listing of a novel.

Description:
  - Cache without Refresh serves the cached listing when one exists.
  - Otherwise the source is walked from page 1.
  - When the result is to be stored, the novel row is ensured first. Refresh
    drops cached chapters that no user has read before re-caching.
  - Without Cache or Refresh the walked listing is returned unsaved.

Parameters:
  - context: context.Context
  - key: NovelKey
  - options: ChapterOptions

Returns:
  - []ChapterMeta: Ordered by chapterIndex
  - error: NotFound, ProviderFailure, StoreFailure
*/
func (service *Service) Chapters(context context.Context, key NovelKey, options ChapterOptions) ([]ChapterMeta, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	provider, err := service.registry.Get(key.Source)
	if err != nil {
		return nil, err
	}

	if options.Cache && !options.Refresh {
		cached, err := service.repos.Chapters.ListByNovel(context, key)
		if err != nil {
			return nil, err
		}
		if len(cached) > 0 {
			return cached, nil
		}
	}

	persist := options.Cache || options.Refresh

	ref := source.NovelRef{URL: key.URL}
	if persist {
		novel, err := service.ensureNovel(context, provider, key)
		if err != nil {
			return nil, err
		}
		ref = novel.Ref()
	} else if cached, err := service.cachedNovel(context, key); err != nil {
		return nil, err
	} else if cached != nil {
		ref = cached.Ref()
	}

	stubs, err := service.walker.Walk(context, provider, ref)
	if err != nil {
		return nil, source.AppError(key.Source, err)
	}
	chapters := ChaptersFromStubs(key, stubs, service.now())

	if !persist {
		return chapters, nil
	}

	if options.Refresh {
		removed, err := service.repos.Chapters.Replace(context, key, chapters)
		if err != nil {
			return nil, err
		}
		service.logger.InfoContext(context, "chapter_cache_replaced",
			slog.String("source", key.Source),
			slog.String("url", key.URL),
			slog.Int64("removed", removed),
		)
	} else if err := service.repos.Chapters.UpsertBulk(context, key, chapters); err != nil {
		return nil, err
	}
	return service.repos.Chapters.ListByNovel(context, key)
}

// cacheInitialChapters stores a first listing for a novel that has none. It is
// best-effort: failures are logged and dropped.
func (service *Service) cacheInitialChapters(context context.Context, provider source.Provider, novel *NovelMeta) {
	key := novel.Key()
	logger := service.logger.With(slog.String("source", key.Source), slog.String("url", key.URL))

	cached, err := service.repos.Chapters.ListByNovel(context, key)
	if err != nil || len(cached) > 0 {
		return
	}

	stubs, err := service.walker.Walk(context, provider, novel.Ref())
	if err != nil {
		logger.WarnContext(context, "initial_chapter_cache_failed", slog.Any("error", err))
		return
	}

	if err := service.repos.Chapters.UpsertBulk(context, key, ChaptersFromStubs(key, stubs, service.now())); err != nil {
		logger.WarnContext(context, "initial_chapter_cache_failed", slog.Any("error", err))
		return
	}
	logger.InfoContext(context, "initial_chapter_cache_stored", slog.Int("chapters", len(stubs)))
}

// # Chapter Content

// ChapterContent fetches the readable body of one chapter.
func (service *Service) ChapterContent(context context.Context, sourceID, chapterURL string) (*source.ChapterContent, error) {
	validator := &validate.Validator{}
	validator.Required(FieldSource, sourceID).Required(FieldURL, chapterURL)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	provider, err := service.registry.Get(sourceID)
	if err != nil {
		return nil, err
	}

	fetcher, ok := source.AsContentFetcher(provider)
	if !ok {
		return nil, validate.RequiredError(FieldSource, "Source does not serve chapter content")
	}

	content, err := fetcher.FetchChapterContent(context, chapterURL)
	if err != nil {
		return nil, source.AppError(sourceID, source.Fail(sourceID, source.OpContent, err))
	}
	return content, nil
}

// # Image Proxy

/*
Image returns a proxied image, fetching it once and serving it from the store
afterwards.

Parameters:
  - context: context.Context
  - url: string (Absolute http(s) URL)

Returns:
  - *Image
  - error: ValidationError for a bad url, ProviderFailure when the upstream
    fails, answers with something other than an image or exceeds the size cap
*/
func (service *Service) Image(context context.Context, url string) (*Image, error) {
	validator := &validate.Validator{}
	validator.Required(FieldURL, url).AbsoluteURL(FieldURL, url)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	cached, err := service.repos.Images.Find(context, url)
	if err == nil {
		return cached, nil
	}
	if !apperr.IsNotFound(err) {
		return nil, err
	}

	image, err := service.fetchImage(context, url)
	if err != nil {
		return nil, apperr.ProviderFailure("image", err)
	}

	if err := service.repos.Images.Save(context, image); err != nil {
		return nil, err
	}
	return image, nil
}

// fetchImage downloads url, enforcing the content type and the size cap.
func (service *Service) fetchImage(context context.Context, url string) (*Image, error) {
	request, err := http.NewRequestWithContext(context, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	request.Header.Set("Accept", "image/*")

	response, err := service.client.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, fmt.Errorf("image: unexpected status %d", response.StatusCode)
	}

	contentType := response.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return nil, fmt.Errorf("image: unexpected content type %q", contentType)
	}

	if response.ContentLength > service.imageMaxBytes {
		return nil, fmt.Errorf("image: %d bytes exceeds the cap of %d", response.ContentLength, service.imageMaxBytes)
	}

	data, err := io.ReadAll(io.LimitReader(response.Body, service.imageMaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("image: failed to read body: %w", err)
	}
	if int64(len(data)) > service.imageMaxBytes {
		return nil, fmt.Errorf("image: body exceeds the cap of %d bytes", service.imageMaxBytes)
	}

	return &Image{
		URL:         url,
		ContentType: contentType,
		Data:        data,
		CachedAt:    service.now(),
	}, nil
}
