package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/wrenlabs/docbase/internal/model"
)

const contextSeparator = "\n\n---\n\n"

type searcher interface {
	Search(ctx context.Context, req SearchRequest) ([]*model.SearchResult, error)
}

type ContextOptions struct {
	MaxChunks   int
	MaxLength   int
	DefaultMode model.SearchMode
}

// ContextService turns search results into a single prompt-ready context
// block with source attribution.
type ContextService struct {
	search searcher
	opts   ContextOptions
}

func NewContextService(search searcher, opts ContextOptions) *ContextService {
	if opts.MaxChunks <= 0 {
		opts.MaxChunks = 5
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = 4000
	}
	if opts.DefaultMode == "" {
		opts.DefaultMode = model.SearchModeSemantic
	}
	return &ContextService{search: search, opts: opts}
}

// RetrieveContext runs a search and assembles the top chunks under a hard
// character budget. A chunk that would push the text past the budget is
// omitted entirely, never truncated, and ends the accumulation.
func (s *ContextService) RetrieveContext(ctx context.Context, ownerID string, query string, mode model.SearchMode) (*model.RetrievedContext, error) {
	if mode == "" {
		mode = s.opts.DefaultMode
	}
	results, err := s.search.Search(ctx, SearchRequest{
		OwnerID: ownerID,
		Query:   query,
		Mode:    mode,
	})
	if err != nil {
		return nil, err
	}
	rc := &model.RetrievedContext{
		Sources:               []model.Source{},
		TotalChunksConsidered: len(results),
	}
	var sb strings.Builder
	included := 0
	for _, res := range results {
		if included >= s.opts.MaxChunks {
			break
		}
		block := fmt.Sprintf("[Source: %s - Chunk %d]\n%s", res.Title, res.ChunkIndex+1, res.Content)
		next := sb.Len() + len(block)
		if sb.Len() > 0 {
			next += len(contextSeparator)
		}
		if next > s.opts.MaxLength {
			break
		}
		if sb.Len() > 0 {
			sb.WriteString(contextSeparator)
		}
		sb.WriteString(block)
		rc.Sources = append(rc.Sources, model.Source{
			ChunkID:     res.ChunkID,
			DocumentID:  res.DocumentID,
			Title:       res.Title,
			Content:     res.Content,
			ChunkIndex:  res.ChunkIndex,
			TotalChunks: res.TotalChunks,
			Similarity:  res.Similarity,
		})
		included++
	}
	rc.ContextText = sb.String()
	return rc, nil
}

// FormatSources renders a numbered attribution list for display under an
// answer.
func FormatSources(sources []model.Source) string {
	if len(sources) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, src := range sources {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%d. %q (Chunk %d, Relevance: %.1f%%)",
			i+1, src.Title, src.ChunkIndex+1, src.Similarity*100)
	}
	return sb.String()
}
