// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package source_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/lectio/internal/platform/apperr"
	"github.com/taibuivan/lectio/internal/source"
	"github.com/taibuivan/lectio/internal/source/sourcetest"
)

// detailOnly is a provider without optional capabilities.
type detailOnly struct{ id string }

func (p detailOnly) ID() string { return p.id }
func (p detailOnly) Paginated() bool { return false }
func (p detailOnly) FetchNovelDetail(context.Context, source.NovelRef) (*source.NovelDetail, error) {
	return &source.NovelDetail{}, nil
}
func (p detailOnly) FetchChapterPage(context.Context, source.NovelRef, int) (*source.ChapterPage, error) {
	return &source.ChapterPage{}, nil
}

/*
TestRegistry verifies lookups, duplicate detection and capability reporting.
*/
func TestRegistry(t *testing.T) {
	_, err := source.NewRegistry(sourcetest.New("a", false), sourcetest.New("a", true))
	assert.Error(t, err)

	registry, err := source.NewRegistry(
		source.Limit(sourcetest.New("fake", true), 0, time.Second),
		source.Limit(detailOnly{id: "plain"}, 0, time.Second),
	)
	require.NoError(t, err)
	assert.Equal(t, 2, registry.Len())

	provider, err := registry.Get("fake")
	require.NoError(t, err)
	assert.Equal(t, "fake", provider.ID())

	_, err = registry.Get("missing")
	assert.True(t, apperr.IsNotFound(err))

	infos := registry.List()
	require.Len(t, infos, 2)
	assert.Equal(t, "fake", infos[0].ID)
	assert.True(t, infos[0].Paginated)
	assert.True(t, infos[0].Readable)
	assert.False(t, infos[0].Searchable)
	assert.False(t, infos[1].Readable)

	// The decorator does not invent capabilities
	plain, _ := registry.Get("plain")
	_, ok := source.AsContentFetcher(plain)
	assert.False(t, ok)
}

/*
TestLimit verifies that the per-call timeout surfaces as a provider error.
*/
func TestLimit(t *testing.T) {
	slow := &blockingProvider{}
	limited := source.Limit(slow, 0, 20*time.Millisecond)

	_, err := limited.FetchNovelDetail(context.Background(), source.NovelRef{URL: novelURL})

	var providerError *source.ProviderError
	require.ErrorAs(t, err, &providerError)
	assert.Equal(t, source.OpDetail, providerError.Op)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	appError := apperr.As(source.AppError("slow", err))
	require.NotNil(t, appError)
	assert.Equal(t, apperr.CodeProviderFailure, appError.Code)
	assert.Equal(t, 502, appError.HTTPStatus)
}

// blockingProvider never answers until its context ends.
type blockingProvider struct{ detailOnly }

func (p *blockingProvider) ID() string { return "slow" }
func (p *blockingProvider) FetchNovelDetail(ctx context.Context, _ source.NovelRef) (*source.NovelDetail, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
