package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"unicode/utf8"

	"campus-advisor/internal/extract"
	"campus-advisor/internal/source"
	"campus-advisor/internal/storage"
	"campus-advisor/internal/vectorstore"
)

const (
	// ChunkerVersion is the version identifier for the chunker implementation.
	// Update this when chunking logic changes significantly.
	ChunkerVersion = "window-v1"
	// TokensPerRune is an approximation for token counting (4 chars per token).
	TokensPerRune = 4.0
)

// Report summarizes one ingestion run.
type Report struct {
	// Documents is the number of documents handed to the run.
	Documents int `json:"documents"`
	// FailedDocuments counts documents that could not be loaded or parsed.
	FailedDocuments int `json:"failed_documents"`
	Modules         int `json:"modules"`
	ScheduleEntries int `json:"schedule_entries"`
	// UnmatchedEntries are schedule entries without a known module code.
	UnmatchedEntries int `json:"unmatched_entries"`
	Chunks           int `json:"chunks"`
	// Issues counts discarded lines, records and documents per kind.
	Issues extract.Summary `json:"issues"`
	// Details lists every issue in document order.
	Details         []extract.Issue `json:"details,omitempty"`
	ChunkTokenStats ChunkTokenStats `json:"chunk_token_stats"`
	ChunkerVersion  string          `json:"chunker_version"`
	// IndexVersion is a hash identifying the index build (chunker + embedding model + params + corpus).
	IndexVersion string `json:"index_version"`
}

// ChunkTokenStats contains statistics about token counts in chunks.
type ChunkTokenStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

// RecordFailures adds documents the loader could not read.
func (r *Report) RecordFailures(failures []source.Failure) {
	for _, f := range failures {
		r.addIssue(extract.Issue{Kind: extract.KindFailedDocument, Document: f.Path, Reason: f.Err.Error()})
		r.FailedDocuments++
		r.Documents++
	}
}

func (r *Report) addIssue(issues ...extract.Issue) {
	if r.Issues == nil {
		r.Issues = extract.Summary{}
	}
	for _, is := range issues {
		r.Issues[is.Kind]++
		r.Details = append(r.Details, is)
	}
}

// tokenStats estimates chunk token counts from rune counts.
func tokenStats(chunks []vectorstore.Chunk) ChunkTokenStats {
	counts := make([]int, 0, len(chunks))
	for _, c := range chunks {
		tokens := int(math.Round(float64(utf8.RuneCountInString(c.Text)) / TokensPerRune))
		counts = append(counts, max(tokens, 1))
	}
	return computeTokenStats(counts)
}

// computeTokenStats computes min, max, mean, and p95 from token counts.
func computeTokenStats(tokenCounts []int) ChunkTokenStats {
	if len(tokenCounts) == 0 {
		return ChunkTokenStats{}
	}

	sorted := make([]int, len(tokenCounts))
	copy(sorted, tokenCounts)
	sort.Ints(sorted)

	sum := 0
	for _, count := range sorted {
		sum += count
	}
	mean := float64(sum) / float64(len(sorted))

	p95Index := int(math.Ceil(float64(len(sorted)) * 0.95))
	if p95Index >= len(sorted) {
		p95Index = len(sorted) - 1
	}

	return ChunkTokenStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100,
		P95:  sorted[p95Index],
	}
}

// indexVersion hashes everything that determines the index contents.
func indexVersion(opts Options, docs []storage.DocumentRecord) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|size=%d|overlap=%d|dim=%d", ChunkerVersion, opts.EmbeddingModel, opts.ChunkSize, opts.ChunkOverlap, opts.Dim)
	for _, d := range docs {
		fmt.Fprintf(h, "|%s:%s:%s", d.Name, d.Kind, d.Hash)
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
