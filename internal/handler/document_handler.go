package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/wrenlabs/docbase/internal/model"
	"github.com/wrenlabs/docbase/internal/pkg/errcode"
	"github.com/wrenlabs/docbase/internal/pkg/response"
	"github.com/wrenlabs/docbase/internal/service"
)

type DocumentHandler struct {
	ingest *service.IngestService
}

func NewDocumentHandler(ingest *service.IngestService) *DocumentHandler {
	return &DocumentHandler{ingest: ingest}
}

type createDocumentRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type documentResponse struct {
	Document *model.Document `json:"document"`
	Chunks   int             `json:"chunks"`
}

func (h *DocumentHandler) Create(c *gin.Context) {
	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request body")
		return
	}
	doc, count, err := h.ingest.CreateFromText(c.Request.Context(), ownerID(c), req.Title, req.Content)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, &documentResponse{Document: doc, Chunks: count})
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "file field is required")
		return
	}
	title := c.PostForm("title")
	if title == "" {
		title = fileHeader.Filename
	}
	mimeType := c.PostForm("type")
	if mimeType == "" {
		mimeType = fileHeader.Header.Get("Content-Type")
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, errcode.ErrUploadFailed, "failed to open upload")
		return
	}
	defer file.Close()
	doc, count, err := h.ingest.CreateFromUpload(c.Request.Context(), ownerID(c), title, mimeType, file, fileHeader.Size)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, &documentResponse{Document: doc, Chunks: count})
}

func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.ingest.Get(c.Request.Context(), ownerID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	count, err := h.ingest.ChunkCount(c.Request.Context(), ownerID(c), doc.ID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, &documentResponse{Document: doc, Chunks: int(count)})
}

type listDocumentsRequest struct {
	Offset uint `form:"offset"`
	Limit  uint `form:"limit"`
}

type listDocumentsResponse struct {
	Documents []*model.Document `json:"documents"`
	Total     int64             `json:"total"`
}

func (h *DocumentHandler) List(c *gin.Context) {
	var req listDocumentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid query")
		return
	}
	docs, total, err := h.ingest.List(c.Request.Context(), ownerID(c), req.Offset, req.Limit)
	if err != nil {
		handleError(c, err)
		return
	}
	if docs == nil {
		docs = []*model.Document{}
	}
	response.Success(c, &listDocumentsResponse{Documents: docs, Total: total})
}

func (h *DocumentHandler) Update(c *gin.Context) {
	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request body")
		return
	}
	doc, count, err := h.ingest.Update(c.Request.Context(), ownerID(c), c.Param("id"), req.Title, req.Content)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, &documentResponse{Document: doc, Chunks: count})
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.ingest.Delete(c.Request.Context(), ownerID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

func (h *DocumentHandler) Reindex(c *gin.Context) {
	count, err := h.ingest.Reindex(c.Request.Context(), ownerID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"chunks": count})
}
