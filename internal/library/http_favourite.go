// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package library

import (
	"net/http"

	requestutil "github.com/taibuivan/lectio/internal/platform/request"
	"github.com/taibuivan/lectio/internal/platform/respond"
	"github.com/taibuivan/lectio/pkg/pagination"
)

// # Request Payloads

// favouriteRequest is the inbound JSON schema for favourite writes.
type favouriteRequest struct {
	Source     string   `json:"source"`
	URL        string   `json:"url"`
	Categories []string `json:"categories"`
}

func (input *favouriteRequest) key() NovelKey {
	return NovelKey{Source: input.Source, URL: input.URL}
}

// # Favourite Endpoints

/*
GET /api/v1/favourites.

Request:
  - source, url: string (Optional; both narrow the list to one novel)

Response:
  - 200: []FavouriteView
*/
func (handler *Handler) listFavourites(writer http.ResponseWriter, request *http.Request) {
	username, err := requestutil.RequiredUsername(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var filter *NovelKey
	if key := novelKeyFromQuery(request); key.Source != "" || key.URL != "" {
		filter = &key
	}

	favourites, err := handler.service.ListFavourites(request.Context(), username, filter)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, favourites)
}

/*
POST /api/v1/favourites.

Request (Body):
  - favouriteRequest: {source, url, categories?}

Response:
  - 201: FavouriteView
  - 400: Missing source or url
  - 404: Unknown source
  - 502: The source failed and the novel is not cached
*/
func (handler *Handler) addFavourite(writer http.ResponseWriter, request *http.Request) {
	username, err := requestutil.RequiredUsername(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input favouriteRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	favourite, err := handler.service.AddFavourite(request.Context(), username, input.key(), input.Categories)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, favourite)
}

/*
DELETE /api/v1/favourites.

Request:
  - source, url: string

Response:
  - 204: Removed
  - 404: The user does not follow the novel
*/
func (handler *Handler) removeFavourite(writer http.ResponseWriter, request *http.Request) {
	username, err := requestutil.RequiredUsername(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.RemoveFavourite(request.Context(), username, novelKeyFromQuery(request)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
PUT /api/v1/favourites/categories.

Description: Replaces the favourite's category set. Unknown names are created
after the last category. An empty list leaves the favourite uncategorized.

Request (Body):
  - favouriteRequest: {source, url, categories}

Response:
  - 204: Replaced
  - 404: The user does not follow the novel
*/
func (handler *Handler) setFavouriteCategories(writer http.ResponseWriter, request *http.Request) {
	username, err := requestutil.RequiredUsername(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input favouriteRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.SetFavouriteCategories(request.Context(), username, input.key(), input.Categories); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
GET /api/v1/favourites/latest.

Request:
  - page, limit: int

Response:
  - 200: []LatestChapterView with pagination meta
*/
func (handler *Handler) latestChapters(writer http.ResponseWriter, request *http.Request) {
	username, err := requestutil.RequiredUsername(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	paginationParams := pagination.FromRequest(request)

	chapters, total, err := handler.service.LatestChapters(request.Context(), username, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, chapters, paginationParams.Meta(total))
}
