package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type cachePruner interface {
	DeleteBefore(ctx context.Context, cutoff int64) (int64, error)
}

// CacheCleanupJob drops embedding cache rows older than the retention
// window.
type CacheCleanupJob struct {
	cache  cachePruner
	maxAge time.Duration
}

func NewCacheCleanupJob(cache cachePruner, maxAgeDays int) *CacheCleanupJob {
	if maxAgeDays <= 0 {
		maxAgeDays = 30
	}
	return &CacheCleanupJob{cache: cache, maxAge: time.Duration(maxAgeDays) * 24 * time.Hour}
}

func (j *CacheCleanupJob) Name() string {
	return "embedding_cache_cleanup"
}

func (j *CacheCleanupJob) Run(ctx context.Context) error {
	cutoff := time.Now().Add(-j.maxAge).Unix()
	removed, err := j.cache.DeleteBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if removed > 0 {
		logutil.GetLogger(ctx).Info("embedding cache pruned", zap.Int64("removed", removed))
	}
	return nil
}
