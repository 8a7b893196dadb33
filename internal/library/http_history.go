// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package library

import (
	"net/http"

	requestutil "github.com/taibuivan/lectio/internal/platform/request"
	"github.com/taibuivan/lectio/internal/platform/respond"
)

// recordHistoryRequest is the inbound JSON schema for a single chapter.
type recordHistoryRequest struct {
	Novel NovelMeta `json:"novel"`
	ReadingEntry
}

// recordHistoryBulkRequest carries many chapters of one novel.
type recordHistoryBulkRequest struct {
	Novel   NovelMeta      `json:"novel"`
	Entries []ReadingEntry `json:"entries"`
}

// # History Endpoints

/*
GET /api/v1/history.

Description: The query selects the mode.
  - chapterUrl: the row of that chapter (404 when never read).
  - novelUrl: every row of that novel.
  - neither: the latest row of every novel.

Request:
  - source: string (Optional; narrows chapterUrl and novelUrl lookups)
  - chapterUrl, novelUrl: string

Response:
  - 200: []HistoryView
*/
func (handler *Handler) findHistory(writer http.ResponseWriter, request *http.Request) {
	username, err := requestutil.RequiredUsername(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	query := HistoryQuery{
		Source:     requestutil.Query(request, FieldSource),
		ChapterURL: requestutil.Query(request, FieldChapterURL),
		NovelURL:   requestutil.Query(request, "novelUrl"),
	}

	history, err := handler.service.FindHistory(request.Context(), username, query)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, history)
}

/*
POST /api/v1/history.

Request (Body):
  - novel: NovelMeta (source and url required)
  - chapter: ChapterMeta (url required)
  - page, position, lastRead

Response:
  - 204: Stored
  - 400: Validation failed
*/
func (handler *Handler) recordHistory(writer http.ResponseWriter, request *http.Request) {
	username, err := requestutil.RequiredUsername(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input recordHistoryRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.RecordHistory(request.Context(), username, input.Novel, input.ReadingEntry); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// POST /api/v1/history/bulk.
func (handler *Handler) recordHistoryBulk(writer http.ResponseWriter, request *http.Request) {
	username, err := requestutil.RequiredUsername(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input recordHistoryBulkRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.RecordHistoryBulk(request.Context(), username, input.Novel, input.Entries); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// DELETE /api/v1/history?source=&url=.
func (handler *Handler) deleteHistory(writer http.ResponseWriter, request *http.Request) {
	username, err := requestutil.RequiredUsername(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	key := novelKeyFromQuery(request)
	if err := handler.service.DeleteHistory(request.Context(), username, key.Source, key.URL); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// DELETE /api/v1/history/novel?source=&url=.
func (handler *Handler) deleteNovelHistory(writer http.ResponseWriter, request *http.Request) {
	username, err := requestutil.RequiredUsername(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	removed, err := handler.service.DeleteNovelHistory(request.Context(), username, novelKeyFromQuery(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]int64{"removed": removed})
}
