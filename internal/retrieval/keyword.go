// Package retrieval ranks document chunks for a query by fusing a keyword
// ranking with a vector-similarity ranking.
package retrieval

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"campus-advisor/internal/vectorstore"
)

// BM25 parameters.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

var keywordStopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "but": {}, "by": {},
	"for": {}, "from": {}, "has": {}, "have": {}, "in": {}, "is": {}, "it": {}, "of": {}, "on": {},
	"or": {}, "the": {}, "to": {}, "was": {}, "were": {}, "with": {}, "what": {}, "which": {},
	"about": {}, "me": {}, "tell": {}, "do": {}, "does": {}, "i": {}, "my": {}, "how": {},
}

// Scored is a chunk with the score one ranking method gave it.
type Scored struct {
	Chunk vectorstore.Chunk
	Score float64
}

type keywordDoc struct {
	chunk  vectorstore.Chunk
	tf     map[string]int
	length int
}

// KeywordIndex is an immutable BM25 index over a chunk corpus. Equal scores
// rank by chunk ID.
type KeywordIndex struct {
	docs   []keywordDoc
	df     map[string]int
	avgLen float64
}

// NewKeywordIndex indexes chunks. A chunk's module code counts as one of its
// terms so that queries naming a code reach the module's text.
func NewKeywordIndex(chunks []vectorstore.Chunk) *KeywordIndex {
	idx := &KeywordIndex{
		docs: make([]keywordDoc, 0, len(chunks)),
		df:   make(map[string]int),
	}
	sorted := make([]vectorstore.Chunk, len(chunks))
	copy(sorted, chunks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var total int
	for _, c := range sorted {
		tokens := tokenize(c.Text)
		if c.Source.ModuleCode != "" {
			tokens = append(tokens, strings.ToLower(c.Source.ModuleCode))
		}
		tf := make(map[string]int, len(tokens))
		for _, t := range tokens {
			tf[t]++
		}
		for t := range tf {
			idx.df[t]++
		}
		total += len(tokens)
		idx.docs = append(idx.docs, keywordDoc{chunk: c, tf: tf, length: len(tokens)})
	}
	if len(idx.docs) > 0 {
		idx.avgLen = float64(total) / float64(len(idx.docs))
	}
	return idx
}

// Len returns the number of indexed chunks.
func (x *KeywordIndex) Len() int { return len(x.docs) }

// Search returns up to k chunks matching filter that share at least one term
// with query, by descending BM25 score.
func (x *KeywordIndex) Search(query string, k int, filter vectorstore.Filter) []Scored {
	terms := filterStopwords(tokenize(query))
	if len(terms) == 0 || k <= 0 {
		return nil
	}

	n := float64(len(x.docs))
	idf := make(map[string]float64, len(terms))
	for _, t := range terms {
		df := float64(x.df[t])
		idf[t] = math.Log(1 + (n-df+0.5)/(df+0.5))
	}

	var out []Scored
	for _, d := range x.docs {
		if !matchesFilter(filter, d.chunk) {
			continue
		}
		var score float64
		for _, t := range terms {
			f := float64(d.tf[t])
			if f == 0 {
				continue
			}
			norm := 1 - bm25B + bm25B*float64(d.length)/x.avgLen
			score += idf[t] * f * (bm25K1 + 1) / (f + bm25K1*norm)
		}
		if score > 0 {
			out = append(out, Scored{Chunk: d.chunk, Score: score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > k {
		out = out[:k]
	}
	return out
}

func matchesFilter(f vectorstore.Filter, c vectorstore.Chunk) bool {
	if f.ModuleCode != "" && c.Source.ModuleCode != f.ModuleCode {
		return false
	}
	return f.Document == "" || c.Source.Document == f.Document
}

// tokenize lowercases text and splits it into words. Underscores and inner
// dots stay inside a word so module codes like "inf_3.02" survive whole.
func tokenize(text string) []string {
	if text == "" {
		return nil
	}

	var builder strings.Builder
	builder.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.' {
			builder.WriteRune(r)
		} else {
			builder.WriteRune(' ')
		}
	}
	var tokens []string
	for _, f := range strings.Fields(builder.String()) {
		if f = strings.Trim(f, "._"); f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func filterStopwords(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}

	result := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, isStop := keywordStopwords[token]; isStop {
			continue
		}
		result = append(result, token)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
