package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/wrenlabs/docbase/internal/embedding"
	"github.com/wrenlabs/docbase/internal/model"
	appErr "github.com/wrenlabs/docbase/internal/pkg/errors"
	"github.com/wrenlabs/docbase/internal/repo"
)

type queryEmbedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
}

type neighborStore interface {
	NearestNeighbors(ctx context.Context, vec []float32, q repo.NeighborQuery) ([]*repo.NeighborRow, error)
	HybridNeighbors(ctx context.Context, vec []float32, queryText string, q repo.NeighborQuery) ([]*repo.NeighborRow, error)
}

type SearchOptions struct {
	TopK           int
	Threshold      float64
	SemanticWeight float64
	KeywordWeight  float64
}

// SearchService answers similarity queries against the chunk store. An empty
// result set is a normal outcome, not an error.
type SearchService struct {
	embedder queryEmbedder
	store    neighborStore
	opts     SearchOptions
}

func NewSearchService(embedder queryEmbedder, store neighborStore, opts SearchOptions) *SearchService {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	if opts.Threshold <= 0 {
		opts.Threshold = 0.7
	}
	return &SearchService{embedder: embedder, store: store, opts: opts}
}

type SearchRequest struct {
	OwnerID   string
	Query     string
	Mode      model.SearchMode
	TopK      int
	Threshold float64
}

func (s *SearchService) Search(ctx context.Context, req SearchRequest) ([]*model.SearchResult, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("query is required: %w", appErr.ErrInvalid)
	}
	mode := req.Mode
	if mode == "" {
		mode = model.SearchModeSemantic
	}
	if mode != model.SearchModeSemantic && mode != model.SearchModeHybrid {
		return nil, fmt.Errorf("unknown search mode %q: %w", mode, appErr.ErrInvalid)
	}
	if mode == model.SearchModeHybrid && s.opts.KeywordWeight <= 0 {
		return nil, appErr.ErrHybridDisabled
	}
	nq := repo.NeighborQuery{
		OwnerID:        req.OwnerID,
		TopK:           s.opts.TopK,
		Threshold:      s.opts.Threshold,
		SemanticWeight: s.opts.SemanticWeight,
		KeywordWeight:  s.opts.KeywordWeight,
	}
	if req.TopK > 0 {
		nq.TopK = req.TopK
	}
	if req.Threshold > 0 {
		nq.Threshold = req.Threshold
	}
	vec, err := s.embedder.Embed(ctx, query, embedding.TaskTypeQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	var rows []*repo.NeighborRow
	switch mode {
	case model.SearchModeSemantic:
		rows, err = s.store.NearestNeighbors(ctx, vec, nq)
	case model.SearchModeHybrid:
		rows, err = s.store.HybridNeighbors(ctx, vec, query, nq)
	}
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	results := make([]*model.SearchResult, 0, len(rows))
	for _, row := range rows {
		res := &model.SearchResult{
			Mode:        mode,
			ChunkID:     row.ChunkID,
			DocumentID:  row.DocumentID,
			Title:       row.Title,
			Content:     row.Content,
			ChunkIndex:  row.ChunkIndex,
			TotalChunks: row.TotalChunks,
			Similarity:  row.Semantic,
		}
		if mode == model.SearchModeHybrid {
			res.Similarity = row.Combined
			res.Hybrid = &model.HybridScore{Semantic: row.Semantic, Keyword: row.Keyword}
		}
		results = append(results, res)
	}
	logutil.GetLogger(ctx).Debug("search done",
		zap.String("mode", string(mode)), zap.Int("results", len(results)))
	return results, nil
}
