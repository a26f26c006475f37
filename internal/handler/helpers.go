package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/wrenlabs/docbase/internal/ai"
	"github.com/wrenlabs/docbase/internal/extract"
	"github.com/wrenlabs/docbase/internal/middleware"
	"github.com/wrenlabs/docbase/internal/pkg/errcode"
	appErr "github.com/wrenlabs/docbase/internal/pkg/errors"
	"github.com/wrenlabs/docbase/internal/pkg/response"
)

func ownerID(c *gin.Context) string {
	return c.GetString(middleware.ContextOwnerIDKey)
}

func handleError(c *gin.Context, err error) {
	var parseErr *extract.ParseError
	switch {
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, errcode.ErrUnauthorized, "unauthorized")
	case errors.Is(err, appErr.ErrForbidden):
		response.Error(c, errcode.ErrForbidden, "forbidden")
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, errcode.ErrConflict, "already exists")
	case errors.Is(err, appErr.ErrEmptyDocument):
		response.Error(c, errcode.ErrInvalid, "document has no extractable text")
	case errors.Is(err, appErr.ErrFileTooLarge):
		response.Error(c, errcode.ErrFileTooLarge, "file too large")
	case errors.Is(err, appErr.ErrUnsupportedType):
		response.Error(c, errcode.ErrUnsupportedType, "unsupported file type")
	case errors.As(err, &parseErr):
		response.Error(c, errcode.ErrParseFailed, "failed to parse file")
	case errors.Is(err, appErr.ErrHybridDisabled):
		response.Error(c, errcode.ErrHybridDisabled, "hybrid search is not enabled")
	case errors.Is(err, appErr.ErrTooMany):
		response.Error(c, errcode.ErrTooMany, "too many requests")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, err.Error())
	case errors.Is(err, ai.ErrUnavailable):
		response.Error(c, errcode.ErrAIUnavailable, "ai backend unavailable")
	default:
		logutil.GetLogger(c.Request.Context()).Error("request failed",
			zap.String("path", c.FullPath()), zap.Error(err))
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
