package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// SourceRef locates a chunk in its document.
type SourceRef struct {
	Document   string `json:"document"`
	Offset     int    `json:"offset"`
	ModuleCode string `json:"module_code,omitempty"`
}

// Chunk is an embedded span of document text.
type Chunk struct {
	ID     string    `json:"id"`
	Text   string    `json:"text"`
	Vector []float32 `json:"-"`
	Source SourceRef `json:"source"`
}

// Match is a chunk with its similarity to a query.
type Match struct {
	Chunk Chunk   `json:"chunk"`
	Score float32 `json:"score"`
}

// Filter restricts a search. Empty fields match everything.
type Filter struct {
	ModuleCode string
	Document   string
}

func (f Filter) matches(c Chunk) bool {
	if f.ModuleCode != "" && c.Source.ModuleCode != f.ModuleCode {
		return false
	}
	if f.Document != "" && c.Source.Document != f.Document {
		return false
	}
	return true
}

// Searcher finds the chunks nearest to a query vector.
type Searcher interface {
	Search(ctx context.Context, query []float32, k int, filter Filter) ([]Match, error)
}

// Builder collects chunks during ingestion. It is safe for concurrent use.
type Builder struct {
	mu     sync.Mutex
	dim    int
	chunks map[string]Chunk
}

// NewBuilder creates a builder that accepts vectors of length dim.
func NewBuilder(dim int) *Builder {
	return &Builder{dim: dim, chunks: make(map[string]Chunk)}
}

// Add stores chunks. Re-adding an ID replaces the earlier chunk.
func (b *Builder) Add(chunks ...Chunk) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range chunks {
		if len(c.Vector) != b.dim {
			return fmt.Errorf("chunk %s: vector length %d, want %d", c.ID, len(c.Vector), b.dim)
		}
		b.chunks[c.ID] = c
	}
	return nil
}

// Build freezes the collected chunks into an immutable Index ordered by ID.
func (b *Builder) Build() *Index {
	b.mu.Lock()
	defer b.mu.Unlock()

	chunks := make([]Chunk, 0, len(b.chunks))
	for _, c := range b.chunks {
		chunks = append(chunks, c)
	}
	return NewIndex(b.dim, chunks)
}

// Index is an immutable in-memory vector index searched by cosine similarity.
type Index struct {
	dim    int
	chunks []Chunk
	norms  []float64
	byID   map[string]int
}

// NewIndex creates an index over chunks, sorted by ID.
func NewIndex(dim int, chunks []Chunk) *Index {
	sorted := make([]Chunk, len(chunks))
	copy(sorted, chunks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	idx := &Index{
		dim:    dim,
		chunks: sorted,
		norms:  make([]float64, len(sorted)),
		byID:   make(map[string]int, len(sorted)),
	}
	for i, c := range sorted {
		idx.norms[i] = norm(c.Vector)
		idx.byID[c.ID] = i
	}
	return idx
}

// Dim returns the vector dimension.
func (x *Index) Dim() int { return x.dim }

// Len returns the number of chunks.
func (x *Index) Len() int { return len(x.chunks) }

// Chunks returns all chunks ordered by ID. The slice must not be modified.
func (x *Index) Chunks() []Chunk { return x.chunks }

// Chunk looks up a chunk by ID.
func (x *Index) Chunk(id string) (Chunk, bool) {
	i, ok := x.byID[id]
	if !ok {
		return Chunk{}, false
	}
	return x.chunks[i], true
}

// Search returns up to k chunks by descending cosine similarity. Ties are
// broken by chunk ID.
func (x *Index) Search(ctx context.Context, query []float32, k int, filter Filter) ([]Match, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}
	if len(query) != x.dim {
		return nil, fmt.Errorf("query vector length %d, want %d", len(query), x.dim)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	qn := norm(query)
	var matches []Match
	for i, c := range x.chunks {
		if !filter.matches(c) {
			continue
		}
		matches = append(matches, Match{Chunk: c, Score: cosine(query, c.Vector, qn, x.norms[i])})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Chunk.ID < matches[j].Chunk.ID
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func norm(v []float32) float64 {
	var s float64
	for _, f := range v {
		s += float64(f) * float64(f)
	}
	return math.Sqrt(s)
}

func cosine(a, b []float32, na, nb float64) float32 {
	if na == 0 || nb == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return float32(dot / (na * nb))
}
