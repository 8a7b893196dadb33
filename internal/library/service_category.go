// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package library

import (
	"context"
	"log/slog"

	"github.com/taibuivan/lectio/internal/platform/validate"
)

// # Categories

// ListCategories returns the user's categories ordered by position. The
// default category is created on first access.
func (service *Service) ListCategories(context context.Context, username string) ([]Category, error) {
	if err := service.repos.Categories.EnsureDefault(context, username); err != nil {
		return nil, err
	}
	return service.repos.Categories.List(context, username)
}

/*
CreateCategories appends categories after the last existing one.

Parameters:
  - context: context.Context
  - username: string
  - names: []string (Blank and duplicate names are ignored)

Returns:
  - []Category: The categories actually created
  - error: ValidationError when no usable name is given
*/
func (service *Service) CreateCategories(context context.Context, username string, names []string) ([]Category, error) {
	if len(normalizeCategoryNames(names)) == 0 {
		return nil, validate.RequiredError(FieldName, "At least one category name is required")
	}
	return service.repos.Categories.CreateBulk(context, username, names)
}

// RenameCategory renames a category; favourites linked to it follow.
func (service *Service) RenameCategory(context context.Context, username, oldName, newName string) error {
	validator := &validate.Validator{}
	validator.Required(FieldName, NormalizeCategoryName(newName)).MaxLen(FieldName, newName, 100)
	if err := validator.Err(); err != nil {
		return err
	}

	if err := service.repos.Categories.Rename(context, username, oldName, newName); err != nil {
		return err
	}
	service.logger.InfoContext(context, "category_renamed",
		slog.String("username", username),
		slog.String("from", oldName),
		slog.String("to", newName),
	)
	return nil
}

// MoveCategory repositions a category. Position 0 belongs to the default
// category, so targets start at 1.
func (service *Service) MoveCategory(context context.Context, username, name string, position int) error {
	validator := &validate.Validator{}
	validator.Custom(FieldPosition, position < 1, "Position 0 is reserved for the default category")
	if err := validator.Err(); err != nil {
		return err
	}
	return service.repos.Categories.Move(context, username, name, position)
}

// DeleteCategory removes a category and moves its favourites to the default one.
func (service *Service) DeleteCategory(context context.Context, username, name string) error {
	if err := service.repos.Categories.Delete(context, username, name); err != nil {
		return err
	}
	service.logger.InfoContext(context, "category_deleted", slog.String("username", username), slog.String("name", name))
	return nil
}
