package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/wrenlabs/docbase/internal/model"
	"github.com/wrenlabs/docbase/internal/pkg/errcode"
	"github.com/wrenlabs/docbase/internal/pkg/response"
	"github.com/wrenlabs/docbase/internal/service"
)

const searchTypeRAG = "rag"

type SearchHandler struct {
	search  *service.SearchService
	context *service.ContextService
	answer  *service.AnswerService
}

func NewSearchHandler(search *service.SearchService, context *service.ContextService, answer *service.AnswerService) *SearchHandler {
	return &SearchHandler{search: search, context: context, answer: answer}
}

type searchRequest struct {
	Query      string  `json:"query"`
	SearchType string  `json:"search_type"`
	TopK       int     `json:"top_k"`
	Threshold  float64 `json:"threshold"`
}

type searchResponse struct {
	Results []*model.SearchResult `json:"results"`
}

type answerResponse struct {
	Answer           string                  `json:"answer"`
	Sources          []model.Source          `json:"sources"`
	FormattedSources string                  `json:"formatted_sources,omitempty"`
	Context          *model.RetrievedContext `json:"context,omitempty"`
}

// Search serves semantic and hybrid chunk lookup, plus the grounded answer
// mode when search_type is "rag".
func (h *SearchHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request body")
		return
	}
	if req.SearchType == searchTypeRAG {
		res, err := h.answer.Answer(c.Request.Context(), ownerID(c), req.Query, "")
		if err != nil {
			handleError(c, err)
			return
		}
		response.Success(c, &answerResponse{
			Answer:           res.Answer,
			Sources:          res.Context.Sources,
			FormattedSources: service.FormatSources(res.Context.Sources),
			Context:          res.Context,
		})
		return
	}
	results, err := h.search.Search(c.Request.Context(), service.SearchRequest{
		OwnerID:   ownerID(c),
		Query:     req.Query,
		Mode:      model.SearchMode(req.SearchType),
		TopK:      req.TopK,
		Threshold: req.Threshold,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	if results == nil {
		results = []*model.SearchResult{}
	}
	response.Success(c, &searchResponse{Results: results})
}

type contextRequest struct {
	Query      string `json:"query"`
	SearchType string `json:"search_type"`
}

// Context returns the assembled context block without running the chat model.
func (h *SearchHandler) Context(c *gin.Context) {
	var req contextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request body")
		return
	}
	mode := model.SearchMode(req.SearchType)
	if mode == "" {
		mode = model.SearchModeSemantic
	}
	rc, err := h.context.RetrieveContext(c.Request.Context(), ownerID(c), req.Query, mode)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, rc)
}
