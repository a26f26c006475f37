package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/wrenlabs/docbase/internal/ai"
	"github.com/wrenlabs/docbase/internal/model"
	appErr "github.com/wrenlabs/docbase/internal/pkg/errors"
)

const noContextAnswer = "I don't have information about that in the knowledge base."

const answerPromptTemplate = `You are a helpful assistant answering questions from a personal knowledge base.
Use only the context below. If the context does not contain the answer, say you do not know.

Context:
%s

Question: %s

Answer:`

type contextRetriever interface {
	RetrieveContext(ctx context.Context, ownerID string, query string, mode model.SearchMode) (*model.RetrievedContext, error)
}

type AnswerResult struct {
	Answer  string                  `json:"answer"`
	Context *model.RetrievedContext `json:"context"`
}

// AnswerService grounds a chat completion on retrieved context. Without any
// matching chunks it answers with a fixed fallback and never calls the model.
type AnswerService struct {
	retriever contextRetriever
	generator ai.IGenerator
}

func NewAnswerService(retriever contextRetriever, generator ai.IGenerator) *AnswerService {
	return &AnswerService{retriever: retriever, generator: generator}
}

// Answer retrieves context and generates a grounded completion. Retrieval
// infrastructure failures degrade to the fallback answer instead of a
// fabricated one; input errors still propagate.
func (s *AnswerService) Answer(ctx context.Context, ownerID string, query string, mode model.SearchMode) (*AnswerResult, error) {
	rc, err := s.retriever.RetrieveContext(ctx, ownerID, query, mode)
	if err != nil {
		if appErr.IsInvalid(err) || errors.Is(err, appErr.ErrHybridDisabled) {
			return nil, err
		}
		logutil.GetLogger(ctx).Warn("context retrieval failed, answering without grounding", zap.Error(err))
		rc = &model.RetrievedContext{Sources: []model.Source{}}
	}
	if strings.TrimSpace(rc.ContextText) == "" {
		return &AnswerResult{Answer: noContextAnswer, Context: rc}, nil
	}
	if s.generator == nil {
		return nil, fmt.Errorf("no chat provider configured: %w", ai.ErrUnavailable)
	}
	prompt := fmt.Sprintf(answerPromptTemplate, rc.ContextText, strings.TrimSpace(query))
	answer, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	logutil.GetLogger(ctx).Debug("answer generated",
		zap.Int("sources", len(rc.Sources)), zap.Int("context_chars", len(rc.ContextText)))
	return &AnswerResult{Answer: strings.TrimSpace(answer), Context: rc}, nil
}
