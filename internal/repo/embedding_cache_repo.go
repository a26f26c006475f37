package repo

import (
	"context"
	"database/sql"

	"github.com/pgvector/pgvector-go"

	"github.com/wrenlabs/docbase/internal/model"
)

type EmbeddingCacheRepo struct {
	db *sql.DB
}

func NewEmbeddingCacheRepo(db *sql.DB) *EmbeddingCacheRepo {
	return &EmbeddingCacheRepo{db: db}
}

func (r *EmbeddingCacheRepo) Get(ctx context.Context, modelName string, taskType string, contentHash string) ([]float32, bool, error) {
	var vec pgvector.Vector
	err := r.db.QueryRowContext(ctx, `
SELECT embedding FROM embedding_cache
WHERE model_name = $1 AND task_type = $2 AND content_hash = $3`,
		modelName, taskType, contentHash).Scan(&vec)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return vec.Slice(), true, nil
}

func (r *EmbeddingCacheRepo) Save(ctx context.Context, entry *model.EmbeddingCache) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO embedding_cache (model_name, task_type, content_hash, embedding, ctime)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (model_name, task_type, content_hash) DO NOTHING`,
		entry.ModelName, entry.TaskType, entry.ContentHash,
		pgvector.NewVector(entry.Embedding), entry.Ctime)
	return err
}

// DeleteBefore drops cache entries older than the cutoff and reports how many
// rows were removed.
func (r *EmbeddingCacheRepo) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM embedding_cache WHERE ctime < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
