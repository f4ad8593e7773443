// Package app wires configuration into the advisor's components: storage,
// model backends, the ingestion runner and the hot-swappable query engine.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"time"

	"campus-advisor/internal/catalog"
	"campus-advisor/internal/config"
	"campus-advisor/internal/contextutil"
	"campus-advisor/internal/http"
	"campus-advisor/internal/indexer"
	"campus-advisor/internal/llm"
	"campus-advisor/internal/rag"
	"campus-advisor/internal/resolver"
	"campus-advisor/internal/retrieval"
	"campus-advisor/internal/service"
	"campus-advisor/internal/source"
	"campus-advisor/internal/storage"
	"campus-advisor/internal/vectorstore"
)

// EngineOptions configures the query engine built from a snapshot.
type EngineOptions struct {
	TopK       int
	Weights    retrieval.Weights
	MinScore   int
	Curriculum catalog.Curriculum
	Now        func() time.Time
}

// BuildEngine creates a query engine over snap. searcher defaults to the
// snapshot's in-memory vector index.
func BuildEngine(snap *indexer.Snapshot, searcher vectorstore.Searcher, embedder llm.Embedder, opts EngineOptions) (*rag.Engine, error) {
	if searcher == nil {
		searcher = snap.Vectors
	}
	ret, err := retrieval.New(retrieval.NewKeywordIndex(snap.Vectors.Chunks()), searcher, embedder, retrieval.Options{
		TopK:    opts.TopK,
		Weights: opts.Weights,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create retriever: %w", err)
	}
	return rag.NewEngine(snap.Catalog, resolver.FromIndex(snap.Catalog, opts.MinScore), ret, rag.Options{
		Curriculum: opts.Curriculum,
		Now:        opts.Now,
	}), nil
}

// Option customizes an App.
type Option func(*App)

// WithEmbedder replaces the configured embedding backend.
func WithEmbedder(e llm.Embedder) Option {
	return func(a *App) { a.embedder = e }
}

// WithGenerator replaces the configured generation backend.
func WithGenerator(g llm.Generator) Option {
	return func(a *App) { a.generator = g }
}

// WithClock fixes the time the engine uses for "today" and the current term.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// WithLoader replaces the document loader.
func WithLoader(l indexer.DocumentLoader) Option {
	return func(a *App) { a.loader = l }
}

// App owns every long-lived component.
type App struct {
	cfg *config.Config

	db        *sql.DB
	chunks    *storage.ChunkRepo
	qdrant    *vectorstore.QdrantStore
	embedder  llm.Embedder
	generator llm.Generator
	loader    indexer.DocumentLoader
	now       func() time.Time

	pipeline *indexer.Pipeline
	runner   *indexer.Runner
	holder   *rag.Holder
	advisor  service.AdvisorService
}

// New opens storage, connects the configured backends and prepares the
// ingestion runner. No index is loaded until Restore or Ingest runs.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	logger := contextutil.LoggerFromContext(ctx)
	a := &App{cfg: cfg, holder: rag.NewHolder(nil)}
	for _, opt := range opts {
		opt(a)
	}

	db, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := storage.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	a.db = db
	a.chunks = storage.NewChunkRepo(db)
	logger.InfoContext(ctx, "database initialized", "path", cfg.DBPath)

	a.initBackends()
	if a.loader == nil {
		a.loader = source.NewLoader()
	}

	pipeline, err := indexer.NewPipeline(a.embedder, storage.NewSnapshotRepo(db), indexer.Options{
		Vocabulary:     cfg.Profile.Vocabulary,
		Curriculum:     cfg.Profile.Curriculum,
		ChunkSize:      cfg.ChunkSize,
		ChunkOverlap:   cfg.ChunkOverlap,
		Dim:            cfg.EmbeddingDim,
		BatchSize:      cfg.EmbedBatchSize,
		Concurrency:    cfg.EmbedConcurrency,
		RateLimit:      cfg.EmbedRateLimit,
		EmbeddingModel: cfg.EmbeddingModelName,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}
	a.pipeline = pipeline

	if cfg.VectorBackend == config.VectorBackendQdrant {
		store, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		if err := store.EnsureCollection(ctx, cfg.QdrantCollection, cfg.EmbeddingDim); err != nil {
			_ = store.Close()
			_ = db.Close()
			return nil, fmt.Errorf("failed to ensure Qdrant collection: %w", err)
		}
		logger.InfoContext(ctx, "qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.EmbeddingDim)
		a.qdrant = store
		a.pipeline.WithMirror(store, cfg.QdrantCollection)
	}

	a.runner = indexer.NewRunner(a.loader, a.pipeline, cfg.DataDir, a.Activate)
	a.advisor = service.NewAdvisorService(a.holder, a.generator, a.chunks, cfg.Profile.Curriculum)
	return a, nil
}

func (a *App) initBackends() {
	cfg := a.cfg
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		client := llm.NewOpenAIClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName, cfg.EmbeddingModelName, cfg.EmbeddingDim, cfg.BackendTimeout)
		if a.embedder == nil {
			a.embedder = client
		}
		if a.generator == nil {
			a.generator = client
		}
	default:
		if a.embedder == nil {
			a.embedder = llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.EmbeddingDim, cfg.BackendTimeout)
		}
		if a.generator == nil {
			a.generator = llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName, cfg.BackendTimeout)
		}
	}
}

// Activate builds an engine over snap and makes it the one queries use.
func (a *App) Activate(ctx context.Context, snap *indexer.Snapshot) error {
	var searcher vectorstore.Searcher
	if a.qdrant != nil {
		searcher = vectorstore.CollectionSearcher{Store: a.qdrant, Collection: a.cfg.QdrantCollection}
	}
	engine, err := BuildEngine(snap, searcher, a.embedder, EngineOptions{
		TopK:       a.cfg.RetrievalTopK,
		Weights:    retrieval.Weights{Keyword: a.cfg.KeywordWeight, Vector: a.cfg.VectorWeight},
		MinScore:   a.cfg.ResolverMinScore,
		Curriculum: a.cfg.Profile.Curriculum,
		Now:        a.now,
	})
	if err != nil {
		return err
	}
	a.holder.Store(engine)
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "index activated",
		slog.String("index_version", snap.Version),
		slog.Int("modules", snap.Catalog.Len()),
		slog.Int("chunks", snap.Vectors.Len()))
	return nil
}

// Restore activates the last published snapshot and reports whether one
// existed.
func (a *App) Restore(ctx context.Context) (bool, error) {
	snap, err := a.pipeline.Restore(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, a.Activate(ctx, snap)
}

// Ingest runs one synchronous ingestion of the data directory.
func (a *App) Ingest(ctx context.Context) (*indexer.Report, error) {
	return a.runner.Run(ctx)
}

// Watch re-ingests in the background whenever the data directory changes.
// It blocks until ctx is cancelled.
func (a *App) Watch(ctx context.Context) error {
	w := &source.Watcher{
		Root: a.cfg.DataDir,
		OnChange: func(ctx context.Context) {
			if !a.runner.Start(ctx) {
				contextutil.LoggerFromContext(ctx).InfoContext(ctx, "change ignored, ingestion already running")
			}
		},
	}
	return w.Run(ctx)
}

// CheckEmbedder embeds a probe text and verifies the vector size.
func (a *App) CheckEmbedder(ctx context.Context) error {
	vecs, err := a.embedder.EmbedTexts(ctx, []string{"probe"})
	if err != nil {
		return fmt.Errorf("failed to validate embedding client: %w", err)
	}
	if len(vecs) == 0 || len(vecs[0]) != a.cfg.EmbeddingDim {
		got := 0
		if len(vecs) > 0 {
			got = len(vecs[0])
		}
		return fmt.Errorf("embedding vector size mismatch: expected %d, got %d", a.cfg.EmbeddingDim, got)
	}
	return nil
}

// Advisor returns the question answering service.
func (a *App) Advisor() service.AdvisorService { return a.advisor }

// Engine returns the engine holder.
func (a *App) Engine() *rag.Holder { return a.holder }

// Runner returns the ingestion runner.
func (a *App) Runner() *indexer.Runner { return a.runner }

// Router returns the HTTP API.
func (a *App) Router() nethttp.Handler {
	deps := &http.Deps{
		Advisor:        a.advisor,
		Catalog:        a.holder,
		Reindexer:      a.runner,
		CollectionName: a.cfg.QdrantCollection,
	}
	if a.qdrant != nil {
		deps.VectorStore = a.qdrant
	}
	return http.NewRouter(deps)
}

// Close releases the database and vector store connections.
func (a *App) Close() error {
	var errs []error
	if a.qdrant != nil {
		errs = append(errs, a.qdrant.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
