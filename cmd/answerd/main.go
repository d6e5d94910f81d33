// Answerd is a retrieval-augmented conversation service.
//
// It ingests documents into an embedded vector index, answers questions
// over them with an OpenAI-compatible generation backend, and falls back
// to rule-based answers when the backend is unavailable.
//
// Usage:
//
//	# Start with defaults
//	answerd
//
//	# Configure via file and environment
//	answerd -config /etc/answerd/config.yaml
//	ANSWERD_SERVER_PORT=8080 answerd
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/answerd/internal/chunker"
	"github.com/fyrsmithlabs/answerd/internal/confidence"
	"github.com/fyrsmithlabs/answerd/internal/config"
	"github.com/fyrsmithlabs/answerd/internal/document"
	"github.com/fyrsmithlabs/answerd/internal/embeddings"
	"github.com/fyrsmithlabs/answerd/internal/engine"
	"github.com/fyrsmithlabs/answerd/internal/fallback"
	"github.com/fyrsmithlabs/answerd/internal/generation"
	"github.com/fyrsmithlabs/answerd/internal/handoff"
	answerdhttp "github.com/fyrsmithlabs/answerd/internal/http"
	"github.com/fyrsmithlabs/answerd/internal/logging"
	"github.com/fyrsmithlabs/answerd/internal/session"
	"github.com/fyrsmithlabs/answerd/internal/telemetry"
	"github.com/fyrsmithlabs/answerd/internal/vectorstore"
)

// Version information (set via ldflags during build).
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	if args := flag.Args(); len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  answerd            Start the answerd server\n")
			fmt.Fprintf(os.Stderr, "  answerd version    Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("answerd by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run initializes all dependencies, starts the HTTP server, and blocks
// until the context is cancelled, then shuts everything down.
func run(ctx context.Context, configPath string) error {
	// A local .env is convenient in dev; its absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()
	zlog := logger.Zap()

	logger.Info(ctx, "starting answerd",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("vectorstore", cfg.VectorStore.Provider),
		zap.String("session", cfg.Session.Provider))

	tel, err := telemetry.New(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		Endpoint:       cfg.Telemetry.Endpoint,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
		Insecure:       true,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			zlog.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	store, err := initVectorStore(cfg, zlog)
	if err != nil {
		return fmt.Errorf("failed to initialize vector store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			zlog.Warn("vector store close failed", zap.Error(err))
		}
	}()

	sessions, err := initSessionStore(ctx, cfg, zlog)
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}
	defer func() {
		if err := sessions.Close(); err != nil {
			zlog.Warn("session store close failed", zap.Error(err))
		}
	}()

	embedService, err := embeddings.NewService(embeddings.Config{
		BaseURL:   cfg.Embeddings.BaseURL,
		Model:     cfg.Embeddings.Model,
		APIKey:    cfg.Embeddings.APIKey.Value(),
		Dimension: cfg.Embeddings.Dimension,
		BatchSize: cfg.Embeddings.BatchSize,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize embeddings: %w", err)
	}
	embedder := embeddings.NewDegradingEmbedder(
		embedService, cfg.Embeddings.Dimension, cfg.Embeddings.BatchSize, zlog)

	llm, err := generation.NewLLMGenerator(generation.Config{
		BaseURL:     cfg.Generation.BaseURL,
		Model:       cfg.Generation.Model,
		APIKey:      cfg.Generation.APIKey.Value(),
		MaxTokens:   cfg.Generation.MaxTokens,
		Temperature: cfg.Generation.Temperature,
		Timeout:     cfg.Generation.Timeout.Duration(),
	}, zlog)
	if err != nil {
		return fmt.Errorf("failed to initialize generator: %w", err)
	}
	breaker := generation.NewBreaker(
		cfg.Generation.Breaker.FailureThreshold,
		cfg.Generation.Breaker.RecoveryTimeout.Duration())
	generator := generation.NewResilientGenerator(llm, breaker, zlog)

	splitter, err := chunker.New(cfg.Engine.ChunkSize, cfg.Engine.ChunkOverlap)
	if err != nil {
		return fmt.Errorf("failed to initialize chunker: %w", err)
	}

	eng, err := engine.New(engine.Config{
		TopK:                cfg.VectorStore.TopK,
		SimilarityThreshold: cfg.VectorStore.Threshold,
		MaxContextTokens:    cfg.Engine.MaxContextTokens,
		HistoryWindow:       cfg.Engine.HistoryWindow,
		MaxContentBytes:     cfg.Engine.MaxContentBytes,
	}, engine.Deps{
		Repository: document.NewMemoryRepository(),
		Turns:      document.NewMemoryConversationLog(),
		Store:      store,
		Embedder:   embedder,
		Splitter:   splitter,
		Sessions:   sessions,
		Generator:  generator,
		Extractor:  fallback.NewExtractor(zlog),
		Responder:  fallback.NewResponder(),
		Scorer:     confidence.NewScorer(),
		Policy:     handoff.NewPolicy(cfg.Handoff.ConfidenceThreshold, cfg.Handoff.ComplexityThreshold),
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	answerdhttp.Version = version
	srv, err := answerdhttp.NewServer(eng, zlog, answerdhttp.Config{Port: cfg.Server.Port})
	if err != nil {
		return fmt.Errorf("failed to initialize http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// initLogger builds the structured logger from config.
func initLogger(cfg *config.Config) (*logging.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
	}
	logCfg := logging.NewDefaultConfig()
	logCfg.Level = level
	logCfg.Format = cfg.Logging.Format
	return logging.NewLogger(logCfg)
}

// initVectorStore selects the similarity search backend.
func initVectorStore(cfg *config.Config, zlog *zap.Logger) (vectorstore.Store, error) {
	switch cfg.VectorStore.Provider {
	case "chromem":
		return vectorstore.NewChromemStore(vectorstore.ChromemConfig{
			Path:       expandHome(cfg.VectorStore.Path),
			Collection: cfg.VectorStore.Collection,
			VectorSize: cfg.Embeddings.Dimension,
		}, zlog)
	case "memory":
		return vectorstore.NewMemoryStore(cfg.Embeddings.Dimension, zlog)
	default:
		return nil, fmt.Errorf("unknown vectorstore provider %q", cfg.VectorStore.Provider)
	}
}

// initSessionStore selects the conversation memory backend.
func initSessionStore(ctx context.Context, cfg *config.Config, zlog *zap.Logger) (session.Store, error) {
	sessionCfg := session.Config{
		HistoryLimit: cfg.Session.HistoryLimit,
		TTL:          cfg.Session.TTL.Duration(),
	}

	switch cfg.Session.Provider {
	case "redis":
		opts, err := redis.ParseURL(cfg.Session.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis URL: %w", err)
		}
		sessionCfg.Addr = opts.Addr
		sessionCfg.Password = opts.Password
		sessionCfg.DB = opts.DB
		return session.NewRedisStore(ctx, sessionCfg, zlog)
	case "memory":
		return session.NewMemoryStore(sessionCfg)
	default:
		return nil, fmt.Errorf("unknown session provider %q", cfg.Session.Provider)
	}
}

// expandHome resolves a leading ~ in a path.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
