package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/wrenlabs/docbase/internal/ai"
	"github.com/wrenlabs/docbase/internal/chunker"
	"github.com/wrenlabs/docbase/internal/config"
	"github.com/wrenlabs/docbase/internal/db"
	"github.com/wrenlabs/docbase/internal/embedcache"
	"github.com/wrenlabs/docbase/internal/embedding"
	"github.com/wrenlabs/docbase/internal/extract"
	"github.com/wrenlabs/docbase/internal/filestore"
	"github.com/wrenlabs/docbase/internal/handler"
	"github.com/wrenlabs/docbase/internal/job"
	"github.com/wrenlabs/docbase/internal/middleware"
	"github.com/wrenlabs/docbase/internal/model"
	"github.com/wrenlabs/docbase/internal/repo"
	"github.com/wrenlabs/docbase/internal/schedule"
	"github.com/wrenlabs/docbase/internal/service"
	"github.com/wrenlabs/docbase/internal/token"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "docbase",
		Short: "docbase knowledge base server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run docbase server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			database, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(database); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, database)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, database *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("file_store", cfg.FileStore.Type),
		zap.String("embed_provider", cfg.AI.Embed.Provider),
	)

	docRepo := repo.NewDocumentRepo(database)
	chunkRepo := repo.NewChunkRepo(database)
	cacheRepo := repo.NewEmbeddingCacheRepo(database)

	embedProvider, err := ai.NewEmbedProvider(cfg.AI.Embed.Provider, cfg.AI.Embed.Args)
	if err != nil {
		return fmt.Errorf("init embed provider: %w", err)
	}
	embedder := ai.NewEmbedder(embedProvider, cfg.AI.Embed.Model)
	embedder = embedcache.WrapDB(embedder, cacheRepo)
	embedder = embedcache.WrapLRU(embedder, cfg.RAG.CacheSize,
		time.Duration(cfg.RAG.CacheTTLMinutes)*time.Minute)
	embedClient := embedding.NewClient(embedder, embedding.Config{
		Dimensions:    cfg.RAG.EmbeddingDimensions,
		MaxInputChars: cfg.AI.MaxInputChars,
		BatchSize:     cfg.RAG.EmbedBatchSize,
		MaxAttempts:   cfg.RAG.EmbedRetries,
	})

	var generator ai.IGenerator
	if cfg.AI.Chat.Provider != "" {
		chatProvider, err := ai.NewChatProvider(cfg.AI.Chat.Provider, cfg.AI.Chat.Args)
		if err != nil {
			return fmt.Errorf("init chat provider: %w", err)
		}
		generator = ai.NewGenerator(chatProvider, cfg.AI.Chat.Model)
	}

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	counter := token.NewCounter("")
	splitter := chunker.New(counter, chunker.Options{
		ChunkSize:    cfg.RAG.ChunkSize,
		Overlap:      cfg.RAG.ChunkOverlap,
		MinChunkSize: cfg.RAG.MinChunkSize,
	})
	extractor := extract.NewRegistry()

	ingestService := service.NewIngestService(docRepo, chunkRepo, splitter, embedClient,
		extractor, store, service.IngestOptions{
			MaxUploadBytes: cfg.RAG.MaxUploadBytes,
			MinChunkTokens: cfg.RAG.MinChunkSize,
		})
	searchService := service.NewSearchService(embedClient, chunkRepo, service.SearchOptions{
		TopK:           cfg.RAG.TopK,
		Threshold:      cfg.RAG.SimilarityThreshold,
		SemanticWeight: cfg.RAG.HybridSemanticWeight,
		KeywordWeight:  cfg.RAG.HybridKeywordWeight,
	})
	contextMode := model.SearchModeSemantic
	if cfg.RAG.EnableReranking && cfg.RAG.HybridKeywordWeight > 0 {
		contextMode = model.SearchModeHybrid
	}
	contextService := service.NewContextService(searchService, service.ContextOptions{
		MaxChunks:   cfg.RAG.MaxContextChunks,
		MaxLength:   cfg.RAG.MaxContextLength,
		DefaultMode: contextMode,
	})
	answerService := service.NewAnswerService(contextService, generator)

	scheduler := schedule.New()
	if err := scheduler.Register(cfg.Jobs.ReindexCron,
		job.NewReindexJob(docRepo, ingestService, cfg.Jobs.ReindexBatch)); err != nil {
		return fmt.Errorf("register reindex job: %w", err)
	}
	if err := scheduler.Register(cfg.Jobs.CacheCleanupCron,
		job.NewCacheCleanupJob(cacheRepo, cfg.Jobs.CacheMaxAgeDays)); err != nil {
		return fmt.Errorf("register cache cleanup job: %w", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	deps := handler.RouterDeps{
		Auth:                handler.NewAuthHandler(cfg.JWTSecret),
		Documents:           handler.NewDocumentHandler(ingestService),
		Search:              handler.NewSearchHandler(searchService, contextService, answerService),
		JWTSecret:           []byte(cfg.JWTSecret),
		RateLimitPerWindow:  cfg.Jobs.RateLimitPerWindow,
		RateLimitWindowSecs: cfg.Jobs.RateLimitWindowSecs,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllowOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
