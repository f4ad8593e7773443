package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks campus-advisor/internal/vectorstore VectorStore

import (
	"context"
	"fmt"
)

// Point represents a vector point with metadata.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// SearchResult represents a search result from vector search.
type SearchResult struct {
	PointID string
	Score   float32
	Meta    map[string]any
}

// VectorStore defines the interface for an external vector database.
type VectorStore interface {
	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search performs a similarity search restricted by filter.
	Search(ctx context.Context, collection string, query []float32, k int, filter Filter) ([]SearchResult, error)

	// Delete removes points by their IDs.
	Delete(ctx context.Context, collection string, ids []string) error
}

// Payload keys written for every chunk.
const (
	metaText       = "text"
	metaDocument   = "document"
	metaOffset     = "offset"
	metaModuleCode = "module_code"
)

// PointFromChunk converts a chunk into a point carrying its text and source.
func PointFromChunk(c Chunk) Point {
	meta := map[string]any{
		metaText:     c.Text,
		metaDocument: c.Source.Document,
		metaOffset:   int64(c.Source.Offset),
	}
	if c.Source.ModuleCode != "" {
		meta[metaModuleCode] = c.Source.ModuleCode
	}
	return Point{ID: c.ID, Vec: c.Vector, Meta: meta}
}

// ChunkFromResult rebuilds a chunk from a search result's payload.
func ChunkFromResult(r SearchResult) Chunk {
	c := Chunk{ID: r.PointID}
	c.Text, _ = r.Meta[metaText].(string)
	c.Source.Document, _ = r.Meta[metaDocument].(string)
	c.Source.ModuleCode, _ = r.Meta[metaModuleCode].(string)
	switch v := r.Meta[metaOffset].(type) {
	case int64:
		c.Source.Offset = int(v)
	case float64:
		c.Source.Offset = int(v)
	case int:
		c.Source.Offset = v
	}
	return c
}

// Mirror writes every chunk of idx to a collection, replacing stale points.
func Mirror(ctx context.Context, store VectorStore, collection string, idx *Index, stale []string) error {
	if len(stale) > 0 {
		if err := store.Delete(ctx, collection, stale); err != nil {
			return fmt.Errorf("failed to delete stale points: %w", err)
		}
	}
	const batch = 256
	chunks := idx.Chunks()
	for start := 0; start < len(chunks); start += batch {
		end := min(start+batch, len(chunks))
		points := make([]Point, 0, end-start)
		for _, c := range chunks[start:end] {
			points = append(points, PointFromChunk(c))
		}
		if err := store.Upsert(ctx, collection, points); err != nil {
			return fmt.Errorf("failed to mirror chunks: %w", err)
		}
	}
	return nil
}

// CollectionSearcher searches a VectorStore collection.
type CollectionSearcher struct {
	Store      VectorStore
	Collection string
}

// Search implements Searcher.
func (s CollectionSearcher) Search(ctx context.Context, query []float32, k int, filter Filter) ([]Match, error) {
	results, err := s.Store.Search(ctx, s.Collection, query, k, filter)
	if err != nil {
		return nil, err
	}
	matches := make([]Match, 0, len(results))
	for _, r := range results {
		matches = append(matches, Match{Chunk: ChunkFromResult(r), Score: r.Score})
	}
	return matches, nil
}
