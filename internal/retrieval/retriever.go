package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"campus-advisor/internal/contextutil"
	"campus-advisor/internal/llm"
	"campus-advisor/internal/vectorstore"
)

// DefaultTopK is the number of chunks returned when no limit is configured.
const DefaultTopK = 5

// candidateFactor sets how many candidates each method contributes per
// returned chunk.
const candidateFactor = 4

// Options configures a Retriever.
type Options struct {
	TopK    int
	Weights Weights
}

// Request is one retrieval. ModuleCode, when set, restricts the corpus to
// that module's chunks unless none of them match.
type Request struct {
	Query      string
	ModuleCode string
}

// Retriever runs keyword and vector search over the same corpus and fuses
// their rankings. It holds no mutable state.
type Retriever struct {
	keyword  *KeywordIndex
	vectors  vectorstore.Searcher
	embedder llm.Embedder
	topK     int
	weights  Weights
}

// New creates a retriever. vectors may be the in-memory index or a
// vector store collection holding the same chunks.
func New(keyword *KeywordIndex, vectors vectorstore.Searcher, embedder llm.Embedder, opts Options) (*Retriever, error) {
	if opts.TopK == 0 {
		opts.TopK = DefaultTopK
	}
	if opts.TopK < 1 {
		return nil, fmt.Errorf("top k must be at least 1, got %d", opts.TopK)
	}
	if opts.Weights == (Weights{}) {
		opts.Weights = DefaultWeights()
	}
	if err := opts.Weights.Validate(); err != nil {
		return nil, err
	}
	if keyword == nil {
		keyword = NewKeywordIndex(nil)
	}
	return &Retriever{
		keyword:  keyword,
		vectors:  vectors,
		embedder: embedder,
		topK:     opts.TopK,
		weights:  opts.Weights,
	}, nil
}

// TopK returns the configured result limit.
func (r *Retriever) TopK() int { return r.topK }

// Retrieve returns up to TopK chunks by fused score. Embedding failures are
// returned unchanged so callers can tell llm.ErrServiceUnavailable apart from
// an empty result.
func (r *Retriever) Retrieve(ctx context.Context, req Request) ([]Fused, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if req.ModuleCode != "" {
		results, err := r.retrieve(ctx, req.Query, vectorstore.Filter{ModuleCode: req.ModuleCode})
		if err != nil {
			return nil, err
		}
		if len(results) > 0 {
			return results, nil
		}
		logger.DebugContext(ctx, "no chunks for module, searching full corpus", slog.String("module_code", req.ModuleCode))
	}
	return r.retrieve(ctx, req.Query, vectorstore.Filter{})
}

func (r *Retriever) retrieve(ctx context.Context, query string, filter vectorstore.Filter) ([]Fused, error) {
	logger := contextutil.LoggerFromContext(ctx)
	pool := r.topK * candidateFactor

	var keyword, vector []Scored
	g, gctx := errgroup.WithContext(ctx)
	if r.weights.Keyword > 0 {
		g.Go(func() error {
			keyword = r.keyword.Search(query, pool, filter)
			return nil
		})
	}
	if r.weights.Vector > 0 && r.vectors != nil && r.embedder != nil {
		g.Go(func() error {
			vec, err := llm.Embed(gctx, r.embedder, query)
			if err != nil {
				return fmt.Errorf("failed to embed query: %w", err)
			}
			matches, err := r.vectors.Search(gctx, vec, pool, filter)
			if err != nil {
				return fmt.Errorf("failed to search vectors: %w", err)
			}
			vector = make([]Scored, len(matches))
			for i, m := range matches {
				vector[i] = Scored{Chunk: m.Chunk, Score: float64(m.Score)}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fused := Fuse(keyword, vector, r.weights)
	if len(fused) > r.topK {
		fused = fused[:r.topK]
	}
	logger.DebugContext(ctx, "retrieved chunks",
		slog.Int("keyword_hits", len(keyword)),
		slog.Int("vector_hits", len(vector)),
		slog.Int("returned", len(fused)),
		slog.String("module_code", filter.ModuleCode))
	return fused, nil
}
