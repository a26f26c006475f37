package handler

import (
	"crypto/subtle"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wrenlabs/docbase/internal/pkg/errcode"
	"github.com/wrenlabs/docbase/internal/pkg/jwt"
	"github.com/wrenlabs/docbase/internal/pkg/response"
)

const tokenTTL = 24 * time.Hour

// AuthHandler issues bearer tokens for self-hosted deployments. The caller
// proves control of the instance by presenting the server secret.
type AuthHandler struct {
	secret string
}

func NewAuthHandler(secret string) *AuthHandler {
	return &AuthHandler{secret: secret}
}

type tokenRequest struct {
	OwnerID string `json:"owner_id"`
	Secret  string `json:"secret"`
}

func (h *AuthHandler) Token(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request body")
		return
	}
	if req.OwnerID == "" {
		response.Error(c, errcode.ErrInvalid, "owner_id is required")
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.Secret), []byte(h.secret)) != 1 {
		response.Error(c, errcode.ErrUnauthorized, "bad secret")
		return
	}
	token, err := jwt.GenerateToken(req.OwnerID, []byte(h.secret), tokenTTL)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"token": token, "expires_in": int64(tokenTTL.Seconds())})
}
