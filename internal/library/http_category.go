// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package library

import (
	"net/http"

	requestutil "github.com/taibuivan/lectio/internal/platform/request"
	"github.com/taibuivan/lectio/internal/platform/respond"
)

type createCategoriesRequest struct {
	Names []string `json:"names"`
}

type renameCategoryRequest struct {
	Name string `json:"name"`
}

type moveCategoryRequest struct {
	Position int `json:"position"`
}

// # Category Endpoints

// GET /api/v1/categories.
func (handler *Handler) listCategories(writer http.ResponseWriter, request *http.Request) {
	username, err := requestutil.RequiredUsername(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	categories, err := handler.service.ListCategories(request.Context(), username)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, categories)
}

/*
POST /api/v1/categories.

Request (Body):
  - names: []string

Response:
  - 201: []Category (Only the newly created ones)
*/
func (handler *Handler) createCategories(writer http.ResponseWriter, request *http.Request) {
	username, err := requestutil.RequiredUsername(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input createCategoriesRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	created, err := handler.service.CreateCategories(request.Context(), username, input.Names)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, created)
}

/*
PATCH /api/v1/categories/{name}.

Response:
  - 204: Renamed
  - 404: No such category
  - 409: The new name is taken
*/
func (handler *Handler) renameCategory(writer http.ResponseWriter, request *http.Request) {
	username, err := requestutil.RequiredUsername(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input renameCategoryRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.RenameCategory(request.Context(), username, requestutil.Param(request, "name"), input.Name); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// PUT /api/v1/categories/{name}/position.
func (handler *Handler) moveCategory(writer http.ResponseWriter, request *http.Request) {
	username, err := requestutil.RequiredUsername(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input moveCategoryRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.MoveCategory(request.Context(), username, requestutil.Param(request, "name"), input.Position); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
DELETE /api/v1/categories/{name}.

Description: Favourites of the deleted category move to the default one.

Response:
  - 204: Deleted
  - 400: The default category cannot be deleted
*/
func (handler *Handler) deleteCategory(writer http.ResponseWriter, request *http.Request) {
	username, err := requestutil.RequiredUsername(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeleteCategory(request.Context(), username, requestutil.Param(request, "name")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
