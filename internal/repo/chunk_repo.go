package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pgvector/pgvector-go"

	"github.com/wrenlabs/docbase/internal/model"
)

const insertChunkBatch = 50

type ChunkRepo struct {
	db *sql.DB
}

func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// NeighborQuery bounds a similarity search. Threshold applies to the final
// score of the chosen mode, so hybrid results are filtered on the combined
// score rather than the semantic component alone.
type NeighborQuery struct {
	OwnerID        string
	TopK           int
	Threshold      float64
	SemanticWeight float64
	KeywordWeight  float64
}

// NeighborRow is one scored chunk joined with its document title. Keyword and
// Combined are only populated by HybridNeighbors.
type NeighborRow struct {
	ChunkID     string
	DocumentID  string
	Title       string
	Content     string
	ChunkIndex  int
	TotalChunks int
	Semantic    float64
	Keyword     float64
	Combined    float64
}

// ReplaceForDocument swaps the full chunk set of a document in one
// transaction, so reindexing the same content twice leaves no duplicates.
func (r *ChunkRepo) ReplaceForDocument(ctx context.Context, documentID string, chunks []*model.Chunk) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID); err != nil {
		return err
	}
	for start := 0; start < len(chunks); start += insertChunkBatch {
		end := start + insertChunkBatch
		if end > len(chunks) {
			end = len(chunks)
		}
		if err := insertChunks(ctx, tx, chunks[start:end]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertChunks(ctx context.Context, tx *sql.Tx, chunks []*model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	const cols = 11
	placeholders := make([]string, 0, len(chunks))
	args := make([]interface{}, 0, len(chunks)*cols)
	for i, ck := range chunks {
		base := i * cols
		marks := make([]string, cols)
		for j := range marks {
			marks[j] = fmt.Sprintf("$%d", base+j+1)
		}
		placeholders = append(placeholders, "("+strings.Join(marks, ", ")+")")
		args = append(args, ck.ID, ck.DocumentID, ck.OwnerID, ck.Content,
			ck.ChunkIndex, ck.TotalChunks, ck.StartOffset, ck.EndOffset,
			ck.TokenCount, pgvector.NewVector(ck.Embedding), ck.Ctime)
	}
	query := `INSERT INTO chunks
(id, document_id, owner_id, content, chunk_index, total_chunks, start_offset, end_offset, token_count, embedding, ctime)
VALUES ` + strings.Join(placeholders, ", ")
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

func (r *ChunkRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID)
	return err
}

func (r *ChunkRepo) CountByDocument(ctx context.Context, documentID string) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT count(1) FROM chunks WHERE document_id = $1`, documentID).Scan(&total)
	return total, err
}

func (r *ChunkRepo) ListByDocument(ctx context.Context, documentID string) ([]*model.Chunk, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, document_id, owner_id, content, chunk_index, total_chunks,
       start_offset, end_offset, token_count, ctime
FROM chunks WHERE document_id = $1 ORDER BY chunk_index ASC`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var chunks []*model.Chunk
	for rows.Next() {
		ck := &model.Chunk{}
		if err := rows.Scan(&ck.ID, &ck.DocumentID, &ck.OwnerID, &ck.Content,
			&ck.ChunkIndex, &ck.TotalChunks, &ck.StartOffset, &ck.EndOffset,
			&ck.TokenCount, &ck.Ctime); err != nil {
			return nil, err
		}
		chunks = append(chunks, ck)
	}
	return chunks, rows.Err()
}

// NearestNeighbors ranks chunks by cosine similarity, defined as one minus
// the cosine distance reported by the <=> operator.
func (r *ChunkRepo) NearestNeighbors(ctx context.Context, vec []float32, q NeighborQuery) ([]*NeighborRow, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT c.id, c.document_id, d.title, c.content, c.chunk_index, c.total_chunks,
       1 - (c.embedding <=> $1) AS similarity
FROM chunks c
JOIN documents d ON d.id = c.document_id
WHERE c.owner_id = $2
  AND 1 - (c.embedding <=> $1) > $3
ORDER BY c.embedding <=> $1 ASC
LIMIT $4`, pgvector.NewVector(vec), q.OwnerID, q.Threshold, q.TopK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*NeighborRow
	for rows.Next() {
		row := &NeighborRow{}
		if err := rows.Scan(&row.ChunkID, &row.DocumentID, &row.Title, &row.Content,
			&row.ChunkIndex, &row.TotalChunks, &row.Semantic); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// HybridNeighbors blends vector similarity with full text rank. The raw
// ts_rank_cd score is unbounded, so it is squashed into [0, 1) before
// weighting to keep both components on the same scale.
func (r *ChunkRepo) HybridNeighbors(ctx context.Context, vec []float32, queryText string, q NeighborQuery) ([]*NeighborRow, error) {
	rows, err := r.db.QueryContext(ctx, `
WITH scored AS (
    SELECT c.id, c.document_id, d.title, c.content, c.chunk_index, c.total_chunks,
           1 - (c.embedding <=> $1) AS semantic,
           ts_rank_cd(c.content_tsv, websearch_to_tsquery('english', $2)) AS kw_raw
    FROM chunks c
    JOIN documents d ON d.id = c.document_id
    WHERE c.owner_id = $3
)
SELECT id, document_id, title, content, chunk_index, total_chunks,
       semantic,
       kw_raw / (kw_raw + 1) AS keyword,
       $4 * semantic + $5 * (kw_raw / (kw_raw + 1)) AS combined
FROM scored
WHERE $4 * semantic + $5 * (kw_raw / (kw_raw + 1)) > $6
ORDER BY combined DESC
LIMIT $7`,
		pgvector.NewVector(vec), queryText, q.OwnerID,
		q.SemanticWeight, q.KeywordWeight, q.Threshold, q.TopK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*NeighborRow
	for rows.Next() {
		row := &NeighborRow{}
		if err := rows.Scan(&row.ChunkID, &row.DocumentID, &row.Title, &row.Content,
			&row.ChunkIndex, &row.TotalChunks, &row.Semantic, &row.Keyword, &row.Combined); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
