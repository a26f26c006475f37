package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrenlabs/docbase/internal/model"
	appErr "github.com/wrenlabs/docbase/internal/pkg/errors"
	"github.com/wrenlabs/docbase/internal/repo"
)

type stubQueryEmbedder struct {
	calls int
}

func (s *stubQueryEmbedder) Embed(_ context.Context, _ string, _ string) ([]float32, error) {
	s.calls++
	return []float32{0.1, 0.2}, nil
}

type stubNeighborStore struct {
	semantic []*repo.NeighborRow
	hybrid   []*repo.NeighborRow
	lastQ    repo.NeighborQuery
}

func (s *stubNeighborStore) NearestNeighbors(_ context.Context, _ []float32, q repo.NeighborQuery) ([]*repo.NeighborRow, error) {
	s.lastQ = q
	return s.semantic, nil
}

func (s *stubNeighborStore) HybridNeighbors(_ context.Context, _ []float32, _ string, q repo.NeighborQuery) ([]*repo.NeighborRow, error) {
	s.lastQ = q
	return s.hybrid, nil
}

func TestSearchSemantic(t *testing.T) {
	store := &stubNeighborStore{semantic: []*repo.NeighborRow{
		{ChunkID: "c1", DocumentID: "d1", Title: "doc one", Content: "alpha", ChunkIndex: 0, TotalChunks: 2, Semantic: 0.92},
		{ChunkID: "c2", DocumentID: "d1", Title: "doc one", Content: "beta", ChunkIndex: 1, TotalChunks: 2, Semantic: 0.81},
	}}
	emb := &stubQueryEmbedder{}
	svc := NewSearchService(emb, store, SearchOptions{SemanticWeight: 0.7, KeywordWeight: 0.3})

	results, err := svc.Search(context.Background(), SearchRequest{OwnerID: "owner1", Query: "alpha?"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, model.SearchModeSemantic, results[0].Mode)
	assert.Equal(t, 0.92, results[0].Similarity)
	assert.Nil(t, results[0].Hybrid)
	assert.Equal(t, 1, emb.calls)
	assert.Equal(t, 5, store.lastQ.TopK)
	assert.Equal(t, 0.7, store.lastQ.Threshold)
}

func TestSearchHybridCarriesComponentScores(t *testing.T) {
	store := &stubNeighborStore{hybrid: []*repo.NeighborRow{
		{ChunkID: "c1", Title: "doc", Content: "alpha", Semantic: 0.9, Keyword: 0.5, Combined: 0.78},
	}}
	svc := NewSearchService(&stubQueryEmbedder{}, store, SearchOptions{SemanticWeight: 0.7, KeywordWeight: 0.3})

	results, err := svc.Search(context.Background(), SearchRequest{
		OwnerID: "owner1", Query: "alpha", Mode: model.SearchModeHybrid,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, model.SearchModeHybrid, results[0].Mode)
	assert.Equal(t, 0.78, results[0].Similarity)
	require.NotNil(t, results[0].Hybrid)
	assert.Equal(t, 0.9, results[0].Hybrid.Semantic)
	assert.Equal(t, 0.5, results[0].Hybrid.Keyword)
	assert.Equal(t, 0.7, store.lastQ.SemanticWeight)
	assert.Equal(t, 0.3, store.lastQ.KeywordWeight)
}

func TestSearchHybridDisabled(t *testing.T) {
	svc := NewSearchService(&stubQueryEmbedder{}, &stubNeighborStore{}, SearchOptions{SemanticWeight: 1})

	_, err := svc.Search(context.Background(), SearchRequest{
		OwnerID: "owner1", Query: "alpha", Mode: model.SearchModeHybrid,
	})
	require.ErrorIs(t, err, appErr.ErrHybridDisabled)
}

func TestSearchRejectsBlankQuery(t *testing.T) {
	emb := &stubQueryEmbedder{}
	svc := NewSearchService(emb, &stubNeighborStore{}, SearchOptions{})

	_, err := svc.Search(context.Background(), SearchRequest{OwnerID: "owner1", Query: "   "})
	require.ErrorIs(t, err, appErr.ErrInvalid)
	assert.Equal(t, 0, emb.calls)
}

func TestSearchRejectsUnknownMode(t *testing.T) {
	svc := NewSearchService(&stubQueryEmbedder{}, &stubNeighborStore{}, SearchOptions{})

	_, err := svc.Search(context.Background(), SearchRequest{OwnerID: "owner1", Query: "q", Mode: "fuzzy"})
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestSearchEmptyResultIsNotAnError(t *testing.T) {
	svc := NewSearchService(&stubQueryEmbedder{}, &stubNeighborStore{}, SearchOptions{})

	results, err := svc.Search(context.Background(), SearchRequest{OwnerID: "owner1", Query: "nothing matches"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchRequestOverridesDefaults(t *testing.T) {
	store := &stubNeighborStore{}
	svc := NewSearchService(&stubQueryEmbedder{}, store, SearchOptions{})

	_, err := svc.Search(context.Background(), SearchRequest{
		OwnerID: "owner1", Query: "q", TopK: 12, Threshold: 0.4,
	})
	require.NoError(t, err)
	assert.Equal(t, 12, store.lastQ.TopK)
	assert.Equal(t, 0.4, store.lastQ.Threshold)
}
