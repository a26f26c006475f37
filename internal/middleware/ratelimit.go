package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/wrenlabs/docbase/internal/pkg/errcode"
	"github.com/wrenlabs/docbase/internal/pkg/response"
)

type windowCounter struct {
	mu    sync.Mutex
	count int
}

// RateLimit enforces a fixed window per caller. Keys expire with the window,
// so an idle caller starts a fresh window on its next request.
func RateLimit(maxPerWindow int, window time.Duration) gin.HandlerFunc {
	if maxPerWindow <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if window <= 0 {
		window = time.Minute
	}
	var mu sync.Mutex
	cache := expirable.NewLRU[string, *windowCounter](65536, nil, window)
	return func(c *gin.Context) {
		key := c.GetString(ContextOwnerIDKey)
		if key == "" {
			key = c.ClientIP()
		}
		mu.Lock()
		counter, ok := cache.Get(key)
		if !ok {
			counter = &windowCounter{}
			cache.Add(key, counter)
		}
		mu.Unlock()
		counter.mu.Lock()
		counter.count++
		over := counter.count > maxPerWindow
		counter.mu.Unlock()
		if over {
			response.Error(c, errcode.ErrTooMany, "rate limit exceeded")
			c.Abort()
			return
		}
		c.Next()
	}
}
