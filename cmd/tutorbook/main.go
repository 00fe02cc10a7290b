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

	"github.com/xxxsen/tutorbook/internal/ai"
	"github.com/xxxsen/tutorbook/internal/config"
	"github.com/xxxsen/tutorbook/internal/db"
	"github.com/xxxsen/tutorbook/internal/embedcache"
	"github.com/xxxsen/tutorbook/internal/handler"
	"github.com/xxxsen/tutorbook/internal/ingest"
	"github.com/xxxsen/tutorbook/internal/job"
	"github.com/xxxsen/tutorbook/internal/middleware"
	appErr "github.com/xxxsen/tutorbook/internal/pkg/errors"
	"github.com/xxxsen/tutorbook/internal/repo"
	"github.com/xxxsen/tutorbook/internal/schedule"
	"github.com/xxxsen/tutorbook/internal/service"
	"github.com/xxxsen/tutorbook/internal/vectorindex"
)

func main() {
	var configPath string
	var ingestDir string

	rootCmd := &cobra.Command{
		Use:   "tutorbook",
		Short: "textbook question-answering backend",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run tutorbook server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, conn, err := setup(configPath)
			if err != nil {
				return err
			}
			return runServer(cfg, conn)
		},
	}
	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")

	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "load textbook chapters into the vector index",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, conn, err := setup(configPath)
			if err != nil {
				return err
			}
			dir := ingestDir
			if dir == "" {
				dir = cfg.Ingest.Dir
			}
			if dir == "" {
				return fmt.Errorf("--dir or ingest.dir is required")
			}
			embedder, err := buildEmbedder(cfg, conn)
			if err != nil {
				return err
			}
			index, err := buildIndex(cfg, conn)
			if err != nil {
				return err
			}
			pipeline := ingest.NewPipeline(embedder, index, cfg.VectorStore.Collection, cfg.VectorStore.Dim)
			count, err := pipeline.Run(cmd.Context(), dir)
			if err != nil {
				return err
			}
			logutil.GetLogger(cmd.Context()).Info("ingestion completed", zap.Int("chunks", count))
			return nil
		},
	}
	ingestCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	ingestCmd.Flags().StringVar(&ingestDir, "dir", "", "directory of textbook chapters")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(ingestCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func setup(configPath string) (*config.Config, *sql.DB, error) {
	if configPath == "" {
		return nil, nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
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
	conn, err := db.Open(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	return cfg, conn, nil
}

func buildIndex(cfg *config.Config, conn *sql.DB) (vectorindex.Index, error) {
	switch cfg.VectorStore.Type {
	case "pgvector":
		return vectorindex.NewPGVectorIndex(conn), nil
	case "qdrant":
		return vectorindex.NewQdrantIndex(vectorindex.QdrantConfig{
			URL:     cfg.VectorStore.Qdrant.URL,
			APIKey:  cfg.VectorStore.Qdrant.APIKey,
			Timeout: time.Duration(cfg.VectorStore.Qdrant.Timeout) * time.Second,
		}), nil
	case "memory":
		return vectorindex.NewMemoryIndex(), nil
	default:
		return nil, fmt.Errorf("unsupported vector store: %s", cfg.VectorStore.Type)
	}
}

func buildEmbedder(cfg *config.Config, conn *sql.DB) (ai.IEmbedder, error) {
	provider, err := ai.NewEmbedProvider(cfg.AI.Provider, cfg.AI.Data)
	if err != nil {
		return nil, fmt.Errorf("init embed provider: %w", err)
	}
	embedModel := cfg.AI.EmbedModel
	if embedModel == "" {
		if cfg.AI.Provider != "local" {
			return nil, fmt.Errorf("ai.embed_model is required for provider %s", cfg.AI.Provider)
		}
		embedModel = "local-bow"
	}
	embedder := ai.NewEmbedder(provider, embedModel)
	if cfg.EmbedCache.UseDB {
		embedder = embedcache.WrapDBCacheToEmbedder(embedder, repo.NewEmbeddingCacheRepo(conn))
	}
	embedder = embedcache.WrapLruCacheToEmbedder(embedder, cfg.EmbedCache.LRUSize, time.Duration(cfg.EmbedCache.LRUTTLMins)*time.Minute)
	return embedder, nil
}

func buildGenerator(cfg *config.Config) (ai.IGenerator, error) {
	if cfg.AI.GenModel == "" {
		return nil, fmt.Errorf("ai.gen_model is required for this configuration")
	}
	provider, err := ai.NewProvider(cfg.AI.Provider, cfg.AI.Data)
	if err != nil {
		return nil, fmt.Errorf("init ai provider: %w", err)
	}
	return ai.NewGenerator(provider, cfg.AI.GenModel), nil
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	embedder, err := buildEmbedder(cfg, conn)
	if err != nil {
		return err
	}
	index, err := buildIndex(cfg, conn)
	if err != nil {
		return err
	}
	// A collection that exists with incompatible settings is a startup
	// error, not something to degrade around.
	if err := index.EnsureCollection(ctx, cfg.VectorStore.Collection, cfg.VectorStore.Dim, vectorindex.MetricCosine); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}

	retrieval := service.NewRetrievalService(embedder, index, cfg.VectorStore.Collection)

	var synthesizer service.Synthesizer
	switch cfg.Synthesis.Strategy {
	case "template":
		synthesizer = service.NewTemplateSynthesizer()
	case "generative":
		gen, err := buildGenerator(cfg)
		if err != nil {
			return err
		}
		synthesizer = service.NewGenerativeSynthesizer(gen)
	default:
		return fmt.Errorf("synthesis.strategy must be template or generative")
	}

	var translator service.Translator
	switch cfg.Translation.Strategy {
	case "placeholder":
		translator = service.NewPlaceholderTranslator()
	case "ai":
		gen, err := buildGenerator(cfg)
		if err != nil {
			return err
		}
		translator = service.NewAITranslator(gen)
	default:
		return fmt.Errorf("translation.strategy must be placeholder or ai")
	}

	translationRepo := repo.NewTranslationCacheRepo(conn)
	translation := service.NewTranslationService(translationRepo, translator, time.Duration(cfg.Translation.TTLHours)*time.Hour)
	chat := service.NewChatService(retrieval, synthesizer, translation)

	if cfg.Ingest.Dir != "" {
		pipeline := ingest.NewPipeline(embedder, index, cfg.VectorStore.Collection, cfg.VectorStore.Dim)
		if _, err := pipeline.Run(ctx, cfg.Ingest.Dir); err != nil {
			if appErr.IsConfigurationConflict(err) {
				return err
			}
			logutil.GetLogger(ctx).Error("startup ingestion failed", zap.Error(err))
		}
	}

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewTranslationCacheCleanupJob(translationRepo, cfg.Translation.CleanupGraceDays), cfg.Translation.CleanupSpec); err != nil {
		return err
	}
	if cfg.EmbedCache.UseDB {
		if err := scheduler.AddJob(job.NewEmbeddingCacheCleanupJob(repo.NewEmbeddingCacheRepo(conn), 30), "0 5 * * *"); err != nil {
			return err
		}
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	deps := handler.RouterDeps{
		Chat:      handler.NewChatHandler(chat),
		Search:    handler.NewSearchHandler(retrieval),
		Translate: handler.NewTranslateHandler(translation),
	}
	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.AllowedOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(ctx).Info("http server listening", zap.Int("port", cfg.Port), zap.String("vector_store", cfg.VectorStore.Type))

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
