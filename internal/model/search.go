package model

type SearchMode string

const (
	SearchModeSemantic SearchMode = "semantic"
	SearchModeHybrid   SearchMode = "hybrid"
)

// HybridScore carries the component scores that only exist in hybrid mode.
type HybridScore struct {
	Semantic float64 `json:"semantic"`
	Keyword  float64 `json:"keyword"`
}

// SearchResult is the per-query, ephemeral result shape. Similarity is the
// operative score for ranking: cosine similarity in semantic mode, the
// weighted combination in hybrid mode (Hybrid is non-nil only then).
type SearchResult struct {
	Mode        SearchMode   `json:"mode"`
	ChunkID     string       `json:"chunk_id"`
	DocumentID  string       `json:"document_id"`
	Title       string       `json:"title"`
	Content     string       `json:"content"`
	ChunkIndex  int          `json:"chunk_index"`
	TotalChunks int          `json:"total_chunks"`
	Similarity  float64      `json:"similarity"`
	Hybrid      *HybridScore `json:"hybrid,omitempty"`
}

// Source is one citation entry for a chunk that made it into the context.
type Source struct {
	ChunkID     string  `json:"chunk_id"`
	DocumentID  string  `json:"document_id"`
	Title       string  `json:"title"`
	Content     string  `json:"content"`
	ChunkIndex  int     `json:"chunk_index"`
	TotalChunks int     `json:"total_chunks"`
	Similarity  float64 `json:"similarity"`
}

// RetrievedContext is the budget-trimmed grounding block handed to the
// completion provider. TotalChunksConsidered counts the search hits before
// budget trimming so callers can tell "nothing found" from "found but
// trimmed".
type RetrievedContext struct {
	ContextText           string   `json:"context_text"`
	Sources               []Source `json:"sources"`
	TotalChunksConsidered int      `json:"total_chunks_considered"`
}
