package retrieval

import (
	"errors"
	"sort"

	"campus-advisor/internal/vectorstore"
)

// Weights set how much each ranking method contributes to the fused score.
// A zero weight leaves that method out entirely.
type Weights struct {
	Keyword float64 `json:"keyword"`
	Vector  float64 `json:"vector"`
}

// DefaultWeights weighs both methods equally.
func DefaultWeights() Weights {
	return Weights{Keyword: 0.5, Vector: 0.5}
}

// Validate rejects negative weights and an all-zero pair.
func (w Weights) Validate() error {
	if w.Keyword < 0 || w.Vector < 0 {
		return errors.New("retrieval weights must not be negative")
	}
	if w.Keyword == 0 && w.Vector == 0 {
		return errors.New("at least one retrieval weight must be positive")
	}
	return nil
}

// Fused is a chunk ranked by the combined score. KeywordScore and
// VectorScore are the normalized per-method scores that went into it.
type Fused struct {
	Chunk        vectorstore.Chunk `json:"chunk"`
	Score        float64           `json:"score"`
	KeywordScore float64           `json:"keyword_score"`
	VectorScore  float64           `json:"vector_score"`
}

// Fuse merges two rankings. Each list is min-max normalized to [0, 1], then
// a chunk's fused score is the weighted sum of its normalized scores (0 where
// a method did not return it). The result is ordered by fused score, then by
// chunk ID.
func Fuse(keyword, vector []Scored, w Weights) []Fused {
	byID := make(map[string]*Fused)
	var order []string
	add := func(list []Scored, weight float64, set func(*Fused, float64)) {
		if weight == 0 {
			return
		}
		for i, norm := range normalize(list) {
			c := list[i].Chunk
			f, ok := byID[c.ID]
			if !ok {
				f = &Fused{Chunk: c}
				byID[c.ID] = f
				order = append(order, c.ID)
			}
			set(f, norm)
			f.Score += weight * norm
		}
	}
	add(keyword, w.Keyword, func(f *Fused, s float64) { f.KeywordScore = s })
	add(vector, w.Vector, func(f *Fused, s float64) { f.VectorScore = s })

	out := make([]Fused, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Chunk.ID < out[j].Chunk.ID
	})
	return out
}

// normalize maps scores linearly onto [0, 1]. A list whose scores are all
// equal maps to 1.
func normalize(list []Scored) []float64 {
	out := make([]float64, len(list))
	if len(list) == 0 {
		return out
	}
	lo, hi := list[0].Score, list[0].Score
	for _, s := range list[1:] {
		lo = min(lo, s.Score)
		hi = max(hi, s.Score)
	}
	for i, s := range list {
		if hi == lo {
			out[i] = 1
			continue
		}
		out[i] = (s.Score - lo) / (hi - lo)
	}
	return out
}
