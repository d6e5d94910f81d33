// Package config provides configuration loading for answerd.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (ANSWERD_SERVER_PORT, ANSWERD_GENERATION_MODEL, ...)
//  2. YAML config file
//  3. Hardcoded defaults
package config

import (
	"fmt"
	"time"
)

// Config holds the complete answerd configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Logging     LoggingConfig     `koanf:"logging"`
	Telemetry   TelemetryConfig   `koanf:"telemetry"`
	Embeddings  EmbeddingsConfig  `koanf:"embeddings"`
	VectorStore VectorStoreConfig `koanf:"vectorstore"`
	Session     SessionConfig     `koanf:"session"`
	Generation  GenerationConfig  `koanf:"generation"`
	Engine      EngineConfig      `koanf:"engine"`
	Handoff     HandoffConfig     `koanf:"handoff"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// TelemetryConfig holds OpenTelemetry configuration.
type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	ServiceName string `koanf:"service_name"`
	Endpoint    string `koanf:"endpoint"`
}

// EmbeddingsConfig holds embedding backend configuration.
type EmbeddingsConfig struct {
	// BaseURL is the OpenAI-compatible embeddings endpoint (TEI or OpenAI).
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`
	APIKey  Secret `koanf:"api_key"`
	// Dimension is the embedding dimension D. Fixed for the lifetime of a
	// corpus; stored and query vectors must match.
	Dimension int `koanf:"dimension"`
	BatchSize int `koanf:"batch_size"`
}

// VectorStoreConfig holds similarity search configuration.
type VectorStoreConfig struct {
	// Provider selects the search path: "chromem" (embedded index) or
	// "memory" (brute force).
	Provider   string  `koanf:"provider"`
	Path       string  `koanf:"path"`
	Collection string  `koanf:"collection"`
	Threshold  float32 `koanf:"threshold"`
	TopK       int     `koanf:"top_k"`
}

// SessionConfig holds conversation memory configuration.
type SessionConfig struct {
	// Provider selects the backing store: "redis" or "memory".
	Provider     string   `koanf:"provider"`
	RedisURL     string   `koanf:"redis_url"`
	HistoryLimit int      `koanf:"history_limit"`
	TTL          Duration `koanf:"ttl"`
}

// GenerationConfig holds generation backend configuration.
type GenerationConfig struct {
	BaseURL     string   `koanf:"base_url"`
	Model       string   `koanf:"model"`
	APIKey      Secret   `koanf:"api_key"`
	Timeout     Duration `koanf:"timeout"`
	MaxTokens   int      `koanf:"max_tokens"`
	Temperature float64  `koanf:"temperature"`

	Breaker BreakerConfig `koanf:"breaker"`
}

// BreakerConfig holds circuit breaker settings for the generation backend.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens
	// the breaker.
	FailureThreshold int `koanf:"failure_threshold"`
	// RecoveryTimeout is how long the breaker stays open before allowing
	// a half-open probe.
	RecoveryTimeout Duration `koanf:"recovery_timeout"`
}

// EngineConfig holds conversation engine configuration.
type EngineConfig struct {
	MaxContextTokens int `koanf:"max_context_tokens"`
	HistoryWindow    int `koanf:"history_window"`
	ChunkSize        int `koanf:"chunk_size"`
	ChunkOverlap     int `koanf:"chunk_overlap"`
	MaxContentBytes  int `koanf:"max_content_bytes"`
}

// HandoffConfig holds human handoff thresholds.
type HandoffConfig struct {
	ConfidenceThreshold float64 `koanf:"confidence_threshold"`
	ComplexityThreshold float64 `koanf:"complexity_threshold"`
}

// applyDefaults fills in zero values with production defaults.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9090
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "answerd"
	}
	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = "localhost:4317"
	}
	if cfg.Embeddings.BaseURL == "" {
		cfg.Embeddings.BaseURL = "http://localhost:8080/v1"
	}
	if cfg.Embeddings.Model == "" {
		cfg.Embeddings.Model = "BAAI/bge-small-en-v1.5"
	}
	if cfg.Embeddings.Dimension == 0 {
		cfg.Embeddings.Dimension = 384
	}
	if cfg.Embeddings.BatchSize == 0 {
		cfg.Embeddings.BatchSize = 32
	}
	if cfg.VectorStore.Provider == "" {
		cfg.VectorStore.Provider = "chromem"
	}
	if cfg.VectorStore.Path == "" {
		cfg.VectorStore.Path = "~/.local/share/answerd/vectorstore"
	}
	if cfg.VectorStore.Collection == "" {
		cfg.VectorStore.Collection = "answerd_chunks"
	}
	if cfg.VectorStore.Threshold == 0 {
		cfg.VectorStore.Threshold = 0.1
	}
	if cfg.VectorStore.TopK == 0 {
		cfg.VectorStore.TopK = 5
	}
	if cfg.Session.Provider == "" {
		cfg.Session.Provider = "redis"
	}
	if cfg.Session.RedisURL == "" {
		cfg.Session.RedisURL = "redis://localhost:6379/0"
	}
	if cfg.Session.HistoryLimit == 0 {
		cfg.Session.HistoryLimit = 50
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = Duration(24 * time.Hour)
	}
	if cfg.Generation.BaseURL == "" {
		cfg.Generation.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Generation.Model == "" {
		cfg.Generation.Model = "gpt-3.5-turbo"
	}
	if cfg.Generation.Timeout == 0 {
		cfg.Generation.Timeout = Duration(15 * time.Second)
	}
	if cfg.Generation.MaxTokens == 0 {
		cfg.Generation.MaxTokens = 500
	}
	if cfg.Generation.Temperature == 0 {
		cfg.Generation.Temperature = 0.7
	}
	if cfg.Generation.Breaker.FailureThreshold == 0 {
		cfg.Generation.Breaker.FailureThreshold = 3
	}
	if cfg.Generation.Breaker.RecoveryTimeout == 0 {
		cfg.Generation.Breaker.RecoveryTimeout = Duration(30 * time.Second)
	}
	if cfg.Engine.MaxContextTokens == 0 {
		cfg.Engine.MaxContextTokens = 3000
	}
	if cfg.Engine.HistoryWindow == 0 {
		cfg.Engine.HistoryWindow = 6
	}
	if cfg.Engine.ChunkSize == 0 {
		cfg.Engine.ChunkSize = 1000
	}
	if cfg.Engine.ChunkOverlap == 0 {
		cfg.Engine.ChunkOverlap = 200
	}
	if cfg.Engine.MaxContentBytes == 0 {
		cfg.Engine.MaxContentBytes = 10 << 20
	}
	if cfg.Handoff.ConfidenceThreshold == 0 {
		cfg.Handoff.ConfidenceThreshold = 0.6
	}
	if cfg.Handoff.ComplexityThreshold == 0 {
		cfg.Handoff.ComplexityThreshold = 0.8
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server: port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Embeddings.Dimension <= 0 {
		return fmt.Errorf("embeddings: dimension must be positive")
	}
	if c.Embeddings.BatchSize <= 0 {
		return fmt.Errorf("embeddings: batch size must be positive")
	}
	switch c.VectorStore.Provider {
	case "chromem", "memory":
	default:
		return fmt.Errorf("vectorstore: unknown provider %q", c.VectorStore.Provider)
	}
	switch c.Session.Provider {
	case "redis", "memory":
	default:
		return fmt.Errorf("session: unknown provider %q", c.Session.Provider)
	}
	if c.Session.HistoryLimit <= 0 {
		return fmt.Errorf("session: history limit must be positive")
	}
	if c.Engine.ChunkOverlap >= c.Engine.ChunkSize {
		return fmt.Errorf("engine: chunk overlap (%d) must be smaller than chunk size (%d)",
			c.Engine.ChunkOverlap, c.Engine.ChunkSize)
	}
	if c.Handoff.ConfidenceThreshold < 0 || c.Handoff.ConfidenceThreshold > 1 {
		return fmt.Errorf("handoff: confidence threshold must be in [0,1]")
	}
	if c.Handoff.ComplexityThreshold < c.Handoff.ConfidenceThreshold {
		return fmt.Errorf("handoff: complexity threshold must not be below confidence threshold")
	}
	return nil
}
