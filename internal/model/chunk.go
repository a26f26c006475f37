package model

// Chunk is the atomic retrievable unit: a contiguous slice of a document's
// cleaned text plus its embedding. Chunks are never mutated in place; a
// reindex replaces the whole set for a document.
type Chunk struct {
	ID          string    `json:"id"`
	DocumentID  string    `json:"document_id"`
	OwnerID     string    `json:"owner_id"`
	Content     string    `json:"content"`
	ChunkIndex  int       `json:"chunk_index"`
	TotalChunks int       `json:"total_chunks"`
	StartOffset int       `json:"start_offset"`
	EndOffset   int       `json:"end_offset"`
	TokenCount  int       `json:"token_count"`
	Embedding   []float32 `json:"-"`
	Ctime       int64     `json:"ctime"`
}
