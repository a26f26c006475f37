package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/wrenlabs/docbase/internal/model"
)

type staleLister interface {
	ListStale(ctx context.Context, limit int) ([]*model.Document, error)
}

type reindexer interface {
	ReindexDocument(ctx context.Context, doc *model.Document) (int, error)
}

// ReindexJob sweeps documents whose chunks are missing or older than the
// document content and rebuilds them in small batches. A failing document is
// logged and skipped so one bad document cannot stall the sweep.
type ReindexJob struct {
	docs   staleLister
	ingest reindexer
	batch  int
}

func NewReindexJob(docs staleLister, ingest reindexer, batch int) *ReindexJob {
	if batch <= 0 {
		batch = 20
	}
	return &ReindexJob{docs: docs, ingest: ingest, batch: batch}
}

func (j *ReindexJob) Name() string {
	return "reindex_stale_documents"
}

func (j *ReindexJob) Run(ctx context.Context) error {
	docs, err := j.docs.ListStale(ctx, j.batch)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}
	logger := logutil.GetLogger(ctx)
	var done int
	for _, doc := range docs {
		count, err := j.ingest.ReindexDocument(ctx, doc)
		if err != nil {
			logger.Error("failed to reindex document",
				zap.String("document_id", doc.ID), zap.Error(err))
			continue
		}
		logger.Info("document reindexed",
			zap.String("document_id", doc.ID), zap.Int("chunks", count))
		done++
	}
	logger.Info("reindex sweep done", zap.Int("stale", len(docs)), zap.Int("reindexed", done))
	return nil
}
