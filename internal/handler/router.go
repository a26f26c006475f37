package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wrenlabs/docbase/internal/middleware"
)

type RouterDeps struct {
	Auth                *AuthHandler
	Documents           *DocumentHandler
	Search              *SearchHandler
	JWTSecret           []byte
	RateLimitPerWindow  int
	RateLimitWindowSecs int
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	api.POST("/auth/token", deps.Auth.Token)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.Use(middleware.RateLimit(deps.RateLimitPerWindow,
		time.Duration(deps.RateLimitWindowSecs)*time.Second))

	authGroup.POST("/documents", deps.Documents.Create)
	authGroup.POST("/documents/upload", deps.Documents.Upload)
	authGroup.GET("/documents", deps.Documents.List)
	authGroup.GET("/documents/:id", deps.Documents.Get)
	authGroup.PUT("/documents/:id", deps.Documents.Update)
	authGroup.DELETE("/documents/:id", deps.Documents.Delete)
	authGroup.POST("/documents/:id/reindex", deps.Documents.Reindex)

	authGroup.POST("/search", deps.Search.Search)
	authGroup.POST("/context", deps.Search.Context)
}
