package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Generation backends.
const (
	ProviderHTTP   = "http"
	ProviderOpenAI = "openai"
)

// Vector index backends.
const (
	VectorBackendMemory = "memory"
	VectorBackendQdrant = "qdrant"
)

// Config holds all configuration for the application.
type Config struct {
	LLMProvider        string
	LLMBaseURL         string
	LLMModelName       string
	LLMAPIKey          string
	EmbeddingBaseURL   string
	EmbeddingModelName string
	EmbeddingDim       int
	BackendTimeout     time.Duration

	DBPath         string
	DataDir        string
	CurriculumPath string
	WatchDataDir   bool

	VectorBackend    string
	QdrantURL        string
	QdrantCollection string

	APIPort string

	RetrievalTopK    int
	KeywordWeight    float64
	VectorWeight     float64
	ResolverMinScore int

	ChunkSize        int
	ChunkOverlap     int
	EmbedConcurrency int
	EmbedBatchSize   int
	EmbedRateLimit   float64

	LogLevel  slog.Level
	LogFormat string

	// Profile is the curriculum and document vocabulary, read from
	// CurriculumPath or defaulted.
	Profile Profile
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	loadDotEnv()

	var p parser
	cfg := &Config{
		LLMProvider:        strings.ToLower(getEnv("LLM_PROVIDER", ProviderHTTP)),
		LLMBaseURL:         getEnv("LLM_BASE_URL", "http://localhost:8080"),
		LLMModelName:       getEnv("LLM_MODEL", "Llama-3.1-8B-Instruct"),
		LLMAPIKey:          getEnv("LLM_API_KEY", "dummy-key"),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "granite-embedding-278m-multilingual"),
		EmbeddingDim:       p.int("EMBEDDING_DIM", 0),
		BackendTimeout:     p.duration("BACKEND_TIMEOUT", 60*time.Second),

		DBPath:         getEnv("DB_PATH", "./data/campus-advisor.db"),
		DataDir:        getEnv("DATA_DIR", ""),
		CurriculumPath: getEnv("CURRICULUM_PATH", ""),
		WatchDataDir:   p.bool("WATCH_DATA_DIR", false),

		VectorBackend:    strings.ToLower(getEnv("VECTOR_BACKEND", VectorBackendMemory)),
		QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "campus"),

		APIPort: getEnv("API_PORT", "9000"),

		RetrievalTopK:    p.int("RETRIEVAL_TOP_K", 5),
		KeywordWeight:    p.float("RETRIEVAL_KEYWORD_WEIGHT", 0.5),
		VectorWeight:     p.float("RETRIEVAL_VECTOR_WEIGHT", 0.5),
		ResolverMinScore: p.int("RESOLVER_MIN_SCORE", 20),

		ChunkSize:        p.int("CHUNK_SIZE", 1000),
		ChunkOverlap:     p.int("CHUNK_OVERLAP", 200),
		EmbedConcurrency: p.int("EMBED_CONCURRENCY", 4),
		EmbedBatchSize:   p.int("EMBED_BATCH_SIZE", 16),
		EmbedRateLimit:   p.float("EMBED_RATE_LIMIT", 0),

		LogLevel:  p.level("LOG_LEVEL", slog.LevelInfo),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}
	if p.err != nil {
		return nil, p.err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	profile, err := LoadProfile(cfg.CurriculumPath)
	if err != nil {
		return nil, err
	}
	cfg.Profile = *profile

	// Create the database directory if it doesn't exist
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.EmbeddingDim <= 0 {
		errs = append(errs, fmt.Errorf("EMBEDDING_DIM is required and must be greater than 0"))
	}
	if c.DataDir == "" {
		errs = append(errs, fmt.Errorf("DATA_DIR is required"))
	}
	switch c.LLMProvider {
	case ProviderHTTP, ProviderOpenAI:
	default:
		errs = append(errs, fmt.Errorf("LLM_PROVIDER must be %q or %q, got %q", ProviderHTTP, ProviderOpenAI, c.LLMProvider))
	}
	switch c.VectorBackend {
	case VectorBackendMemory, VectorBackendQdrant:
	default:
		errs = append(errs, fmt.Errorf("VECTOR_BACKEND must be %q or %q, got %q", VectorBackendMemory, VectorBackendQdrant, c.VectorBackend))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}
	if c.RetrievalTopK < 1 {
		errs = append(errs, fmt.Errorf("RETRIEVAL_TOP_K must be at least 1"))
	}
	if c.KeywordWeight < 0 || c.VectorWeight < 0 {
		errs = append(errs, fmt.Errorf("retrieval weights must not be negative"))
	} else if c.KeywordWeight == 0 && c.VectorWeight == 0 {
		errs = append(errs, fmt.Errorf("at least one retrieval weight must be positive"))
	}
	if c.ResolverMinScore < 1 || c.ResolverMinScore > 100 {
		errs = append(errs, fmt.Errorf("RESOLVER_MIN_SCORE must be between 1 and 100, got %d", c.ResolverMinScore))
	}
	if c.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("CHUNK_SIZE must be greater than 0"))
	} else if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		errs = append(errs, fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE)"))
	}
	if c.EmbedConcurrency < 1 || c.EmbedBatchSize < 1 {
		errs = append(errs, fmt.Errorf("EMBED_CONCURRENCY and EMBED_BATCH_SIZE must be at least 1"))
	}
	if c.EmbedRateLimit < 0 {
		errs = append(errs, fmt.Errorf("EMBED_RATE_LIMIT must not be negative"))
	}
	if c.BackendTimeout <= 0 {
		errs = append(errs, fmt.Errorf("BACKEND_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// loadDotEnv loads .env from the working directory or the nearest parent.
func loadDotEnv() {
	_ = godotenv.Load() // Try current directory

	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ { // Limit search depth
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return // Reached filesystem root
		}
		dir = parent
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parser reads typed variables and keeps the first error per key.
type parser struct {
	err error
}

func (p *parser) fail(key, raw string, err error) {
	p.err = errors.Join(p.err, fmt.Errorf("%s=%q is invalid: %w", key, raw, err))
}

func (p *parser) int(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return v
}

func (p *parser) float(key string, def float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return v
}

func (p *parser) bool(key string, def bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return v
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return v
}

func (p *parser) level(key string, def slog.Level) slog.Level {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(raw)); err != nil {
		p.fail(key, raw, err)
		return def
	}
	return l
}
