// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package library

import (
	"context"
	"log/slog"

	"github.com/taibuivan/lectio/internal/platform/apperr"
)

// # Favourites

/*
AddFavourite follows a novel for a user.

Description: The novel detail is refreshed and upserted first (falling back
to the cache), then the favourite and its category links are written. A
first chapter listing is cached afterwards on a best-effort basis; its
failure never fails the favourite.

Parameters:
  - context: context.Context
  - username: string
  - key: NovelKey
  - categories: []string (Optional; empty links the default category)

Returns:
  - *FavouriteView: The stored favourite with its annotations
  - error: NotFound for an unknown source, ProviderFailure, StoreFailure
*/
func (service *Service) AddFavourite(context context.Context, username string, key NovelKey, categories []string) (*FavouriteView, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	provider, err := service.registry.Get(key.Source)
	if err != nil {
		return nil, err
	}

	novel, err := service.refreshNovel(context, provider, key)
	if err != nil {
		return nil, err
	}

	favourite := &Favourite{Username: username, Source: key.Source, URL: key.URL, DateAdded: service.now()}
	err = service.repos.Favourites.Insert(context, favourite, categories)

	// Another user's last unfavourite purged the novel after the refresh
	if apperr.IsNotFound(err) {
		if novel, err = service.refreshNovel(context, provider, key); err != nil {
			return nil, err
		}
		err = service.repos.Favourites.Insert(context, favourite, categories)
	}
	if err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "favourite_added",
		slog.String("username", username),
		slog.String("source", key.Source),
		slog.String("url", key.URL),
	)

	service.cacheInitialChapters(context, provider, novel)

	return service.favourite(context, username, key)
}

/*
RemoveFavourite unfollows a novel and applies the cascade rule.

Description: When no other user still follows the novel, the novel is purged
with its chapters, cover image and every user's history for it. Otherwise
only the removing user's history for the novel is deleted.

Parameters:
  - context: context.Context
  - username: string
  - key: NovelKey

Returns:
  - error: NotFound if the user does not follow the novel, StoreFailure
*/
func (service *Service) RemoveFavourite(context context.Context, username string, key NovelKey) error {
	if err := validateKey(key); err != nil {
		return err
	}

	removal, err := service.repos.Favourites.Remove(context, username, key)
	if err != nil {
		return err
	}

	logger := service.logger.With(
		slog.String("username", username),
		slog.String("source", key.Source),
		slog.String("url", key.URL),
	)

	if removal.Purged {
		logger.InfoContext(context, "favourite_removed_novel_purged")
		return nil
	}
	logger.InfoContext(context, "favourite_removed",
		slog.Int64("history_removed", removal.HistoryRemoved),
		slog.Int("holders", removal.Holders),
	)
	return nil
}

// SetFavouriteCategories replaces the category set of a favourite. An empty
// set leaves the favourite uncategorized.
func (service *Service) SetFavouriteCategories(context context.Context, username string, key NovelKey, categories []string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	return service.repos.Categories.SetForFavourite(context, username, key, categories)
}

// ListFavourites returns a user's favourites, newest first, optionally
// narrowed to one novel.
func (service *Service) ListFavourites(context context.Context, username string, key *NovelKey) ([]FavouriteView, error) {
	if key != nil {
		if err := validateKey(*key); err != nil {
			return nil, err
		}
	}
	return service.repos.Favourites.List(context, username, key)
}

// favourite returns a single annotated favourite.
func (service *Service) favourite(context context.Context, username string, key NovelKey) (*FavouriteView, error) {
	views, err := service.repos.Favourites.List(context, username, &key)
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, apperr.NotFound("Favourite")
	}
	return &views[0], nil
}

// LatestChapters is the "recently updated" feed over a user's favourites.
func (service *Service) LatestChapters(context context.Context, username string, limit, offset int) ([]LatestChapterView, int, error) {
	return service.repos.Chapters.ListLatest(context, username, limit, offset)
}
