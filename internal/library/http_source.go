// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package library

import (
	"net/http"

	requestutil "github.com/taibuivan/lectio/internal/platform/request"
	"github.com/taibuivan/lectio/internal/platform/respond"
	"github.com/taibuivan/lectio/pkg/convert"
	"github.com/taibuivan/lectio/pkg/query"
)

// # Source Endpoints

/*
GET /api/v1/sources.

Request:
  - lang: string (Optional comma separated language filter, e.g. "en,ja")

Response:
  - 200: []source.Info
*/
func (handler *Handler) listSources(writer http.ResponseWriter, request *http.Request) {
	languages := query.StringSlice(requestutil.Query(request, "lang"))
	respond.OK(writer, handler.service.ListSources(languages...))
}

/*
GET /api/v1/sources/{source}/search.

Request:
  - q: string
  - page: int (Default 1)

Response:
  - 200: source.SearchPage
  - 400: Missing query or the source cannot search
  - 404: Unknown source
  - 502: The source failed
*/
func (handler *Handler) search(writer http.ResponseWriter, request *http.Request) {
	page := convert.ToIntD(requestutil.Query(request, "page"), 1)

	results, err := handler.service.Search(request.Context(),
		requestutil.Param(request, "source"), requestutil.Query(request, "q"), page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, results)
}

/*
GET /api/v1/sources/{source}/novel.

Description: Fetches the novel from its source and refreshes the cache. The
cached copy is served when the source is down.

Request:
  - url: string

Response:
  - 200: NovelMeta
  - 404: Unknown source
  - 502: The source failed and nothing is cached
*/
func (handler *Handler) novelDetail(writer http.ResponseWriter, request *http.Request) {
	key := NovelKey{Source: requestutil.Param(request, "source"), URL: requestutil.Query(request, FieldURL)}

	novel, err := handler.service.NovelDetail(request.Context(), key)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, novel)
}

/*
GET /api/v1/sources/{source}/chapters.

Request:
  - url: string
  - cache: bool (Default true)
  - refresh: bool (Default false)

Response:
  - 200: []ChapterMeta
  - 502: The source failed
*/
func (handler *Handler) chapters(writer http.ResponseWriter, request *http.Request) {
	key := NovelKey{Source: requestutil.Param(request, "source"), URL: requestutil.Query(request, FieldURL)}
	options := ChapterOptions{
		Cache:   requestutil.QueryBool(request, "cache", true),
		Refresh: requestutil.QueryBool(request, "refresh", false),
	}

	chapters, err := handler.service.Chapters(request.Context(), key, options)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, chapters)
}

// GET /api/v1/sources/{source}/content?url=.
func (handler *Handler) chapterContent(writer http.ResponseWriter, request *http.Request) {
	content, err := handler.service.ChapterContent(request.Context(),
		requestutil.Param(request, "source"), requestutil.Query(request, FieldURL))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, content)
}

/*
GET /api/v1/images.

Description: Streams a cover through the proxy. The first request fetches and
stores the image; later requests are served from the store.

Request:
  - url: string (Absolute http(s) URL)

Response:
  - 200: Raw image bytes with the upstream content type
  - 400: Invalid url
  - 502: The upstream failed or did not answer with an image
*/
func (handler *Handler) image(writer http.ResponseWriter, request *http.Request) {
	image, err := handler.service.Image(request.Context(), requestutil.Query(request, FieldURL))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	writer.Header().Set("Content-Type", image.ContentType)
	writer.Header().Set("Cache-Control", "private, max-age=604800")
	writer.WriteHeader(http.StatusOK)
	_, _ = writer.Write(image.Data)
}
