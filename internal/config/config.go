package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port             int      `json:"port"`
	JWTSecret        string   `json:"jwt_secret"`
	CORSAllowOrigins []string `json:"cors_allow_origins"`
	Database  DatabaseConfig   `json:"database"`
	LogConfig logger.LogConfig `json:"log_config"`
	FileStore FileStoreConfig  `json:"file_store"`
	AI        AIConfig         `json:"ai"`
	RAG       RAGConfig        `json:"rag"`
	Jobs      JobsConfig       `json:"jobs"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type ProviderConfig struct {
	Provider string      `json:"provider"`
	Model    string      `json:"model"`
	Args     interface{} `json:"args"`
}

type AIConfig struct {
	Embed          ProviderConfig `json:"embed"`
	Chat           ProviderConfig `json:"chat"`
	TimeoutSeconds int            `json:"timeout_seconds"`
	MaxInputChars  int            `json:"max_input_chars"`
}

// RAGConfig carries the tunables of the document-to-context pipeline.
type RAGConfig struct {
	EmbeddingDimensions int     `json:"embedding_dimensions"`
	ChunkSize           int     `json:"chunk_size"`
	ChunkOverlap        int     `json:"chunk_overlap"`
	MinChunkSize        int     `json:"min_chunk_size"`
	TopK                int     `json:"top_k"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
	MaxContextChunks    int     `json:"max_context_chunks"`
	MaxContextLength    int     `json:"max_context_length"`
	EnableReranking     bool    `json:"enable_reranking"`
	HybridSemanticWeight float64 `json:"hybrid_semantic_weight"`
	HybridKeywordWeight  float64 `json:"hybrid_keyword_weight"`
	EmbedBatchSize      int     `json:"embed_batch_size"`
	EmbedRetries        int     `json:"embed_retries"`
	MaxUploadBytes      int64   `json:"max_upload_bytes"`
	CacheSize           int     `json:"cache_size"`
	CacheTTLMinutes     int     `json:"cache_ttl_minutes"`
}

type JobsConfig struct {
	ReindexCron         string `json:"reindex_cron"`
	ReindexBatch        int    `json:"reindex_batch"`
	CacheCleanupCron    string `json:"cache_cleanup_cron"`
	CacheMaxAgeDays     int    `json:"cache_max_age_days"`
	RateLimitWindowSecs int    `json:"rate_limit_window_secs"`
	RateLimitPerWindow  int    `json:"rate_limit_per_window"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	if cfg.AI.Embed.Provider == "" {
		return nil, fmt.Errorf("ai.embed.provider is required")
	}
	if cfg.AI.Embed.Model == "" {
		return nil, fmt.Errorf("ai.embed.model is required")
	}
	if cfg.AI.TimeoutSeconds == 0 {
		cfg.AI.TimeoutSeconds = 30
	}
	if cfg.AI.MaxInputChars == 0 {
		cfg.AI.MaxInputChars = 32000
	}
	applyRAGDefaults(&cfg.RAG)
	if cfg.RAG.ChunkOverlap >= cfg.RAG.ChunkSize {
		return nil, fmt.Errorf("rag.chunk_overlap must be smaller than rag.chunk_size")
	}
	if cfg.Jobs.ReindexCron == "" {
		cfg.Jobs.ReindexCron = "*/5 * * * *"
	}
	if cfg.Jobs.ReindexBatch == 0 {
		cfg.Jobs.ReindexBatch = 20
	}
	if cfg.Jobs.CacheCleanupCron == "" {
		cfg.Jobs.CacheCleanupCron = "0 4 * * *"
	}
	if cfg.Jobs.CacheMaxAgeDays == 0 {
		cfg.Jobs.CacheMaxAgeDays = 30
	}
	if cfg.Jobs.RateLimitWindowSecs == 0 {
		cfg.Jobs.RateLimitWindowSecs = 60
	}
	if cfg.Jobs.RateLimitPerWindow == 0 {
		cfg.Jobs.RateLimitPerWindow = 120
	}
	return &cfg, nil
}

func applyRAGDefaults(rag *RAGConfig) {
	if rag.EmbeddingDimensions == 0 {
		rag.EmbeddingDimensions = 1536
	}
	if rag.ChunkSize == 0 {
		rag.ChunkSize = 800
	}
	if rag.ChunkOverlap == 0 {
		rag.ChunkOverlap = 120
	}
	if rag.MinChunkSize == 0 {
		rag.MinChunkSize = 80
	}
	if rag.TopK == 0 {
		rag.TopK = 5
	}
	if rag.SimilarityThreshold == 0 {
		rag.SimilarityThreshold = 0.7
	}
	if rag.MaxContextChunks == 0 {
		rag.MaxContextChunks = 5
	}
	if rag.MaxContextLength == 0 {
		rag.MaxContextLength = 4000
	}
	if rag.HybridSemanticWeight == 0 && rag.HybridKeywordWeight == 0 {
		rag.HybridSemanticWeight = 0.7
		rag.HybridKeywordWeight = 0.3
	}
	if rag.EmbedBatchSize == 0 {
		rag.EmbedBatchSize = 100
	}
	if rag.EmbedRetries == 0 {
		rag.EmbedRetries = 3
	}
	if rag.MaxUploadBytes == 0 {
		rag.MaxUploadBytes = 10 << 20
	}
	if rag.CacheSize == 0 {
		rag.CacheSize = 10000
	}
	if rag.CacheTTLMinutes == 0 {
		rag.CacheTTLMinutes = 120
	}
}
