package indexer

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strconv"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"campus-advisor/internal/catalog"
	"campus-advisor/internal/contextutil"
	"campus-advisor/internal/extract"
	"campus-advisor/internal/layout"
	"campus-advisor/internal/llm"
	"campus-advisor/internal/source"
	"campus-advisor/internal/storage"
	"campus-advisor/internal/vectorstore"
)

// Options configures a Pipeline.
type Options struct {
	Vocabulary     extract.Vocabulary
	Curriculum     catalog.Curriculum
	ChunkSize      int     // runes per chunk
	ChunkOverlap   int     // runes shared by neighbouring chunks
	Dim            int     // embedding dimensionality
	BatchSize      int     // texts per embedding request
	Concurrency    int     // concurrent embedding requests
	RateLimit      float64 // embedding requests per second, 0 = unlimited
	EmbeddingModel string  // recorded in the index version
}

// DefaultOptions returns the defaults used when no configuration is given.
func DefaultOptions() Options {
	return Options{
		Vocabulary:   extract.DefaultVocabulary(),
		Curriculum:   catalog.DefaultCurriculum(),
		ChunkSize:    1000,
		ChunkOverlap: 200,
		Dim:          384,
		BatchSize:    16,
		Concurrency:  4,
	}
}

// Pipeline turns loaded documents into a Snapshot and publishes it to
// SQLite and, optionally, a Qdrant collection.
type Pipeline struct {
	opts     Options
	embedder llm.Embedder
	handbook *extract.HandbookExtractor
	schedule *extract.ScheduleExtractor
	chunker  *WindowChunker
	limiter  *rate.Limiter

	store      storage.SnapshotStore
	mirror     vectorstore.VectorStore
	collection string
}

// NewPipeline creates a new ingestion pipeline. store may be nil, in which
// case Publish only mirrors to the vector store.
func NewPipeline(embedder llm.Embedder, store storage.SnapshotStore, opts Options) (*Pipeline, error) {
	if opts.Dim <= 0 {
		return nil, fmt.Errorf("embedding dim must be positive, got %d", opts.Dim)
	}
	handbook, err := extract.NewHandbookExtractor(opts.Vocabulary, opts.Curriculum)
	if err != nil {
		return nil, fmt.Errorf("failed to create handbook extractor: %w", err)
	}
	schedule, err := extract.NewScheduleExtractor(opts.Vocabulary)
	if err != nil {
		return nil, fmt.Errorf("failed to create schedule extractor: %w", err)
	}
	chunker, err := NewWindowChunker(opts.ChunkSize, opts.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	opts.BatchSize = max(opts.BatchSize, 1)
	opts.Concurrency = max(opts.Concurrency, 1)

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), opts.Concurrency)
	}

	return &Pipeline{
		opts:     opts,
		embedder: embedder,
		handbook: handbook,
		schedule: schedule,
		chunker:  chunker,
		limiter:  limiter,
		store:    store,
	}, nil
}

// WithMirror makes Publish copy every chunk into a vector store collection.
func (p *Pipeline) WithMirror(store vectorstore.VectorStore, collection string) *Pipeline {
	p.mirror = store
	p.collection = collection
	return p
}

type parsed[T any] struct {
	records []T
	issues  []extract.Issue
}

// parseAll runs parse over docs in parallel. Each document is parsed
// independently; a panicking parser fails only its own document.
func parseAll[T any](ctx context.Context, docs []source.Document, parse func(source.Document) ([]T, []extract.Issue)) []parsed[T] {
	out := make([]parsed[T], len(docs))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, doc := range docs {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "document parse failed", "document", doc.Name, "panic", r)
					out[i] = parsed[T]{issues: []extract.Issue{{
						Kind:     extract.KindFailedDocument,
						Document: doc.Name,
						Reason:   fmt.Sprint(r),
					}}}
				}
			}()
			records, issues := parse(doc)
			out[i] = parsed[T]{records: records, issues: issues}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Ingest parses, chunks and embeds docs. Identical input always yields an
// identical snapshot. Parse problems are collected in the report; only an
// embedding failure aborts the run.
func (p *Pipeline) Ingest(ctx context.Context, docs []source.Document) (*Snapshot, *Report, error) {
	logger := contextutil.LoggerFromContext(ctx)
	report := &Report{Issues: extract.Summary{}, ChunkerVersion: ChunkerVersion, Documents: len(docs)}

	var handbooks, schedules, general []source.Document
	records := make([]storage.DocumentRecord, 0, len(docs))
	for _, d := range docs {
		records = append(records, storage.DocumentRecord{Name: d.Name, Kind: string(d.Kind), Hash: d.Hash})
		switch d.Kind {
		case source.KindHandbook:
			handbooks = append(handbooks, d)
		case source.KindSchedule:
			schedules = append(schedules, d)
		default:
			general = append(general, d)
		}
	}

	// Modules: merge in document order, first definition of a code wins.
	var modules []catalog.ModuleRecord
	definedIn := map[string]string{}
	for i, res := range parseAll(ctx, handbooks, func(d source.Document) ([]catalog.ModuleRecord, []extract.Issue) {
		return p.handbook.Extract(ctx, d.Name, layout.SplitPages(d.Pages))
	}) {
		p.countFailure(report, res.issues)
		report.addIssue(res.issues...)
		for _, m := range res.records {
			if prev, ok := definedIn[m.Code]; ok {
				report.addIssue(extract.Issue{
					Kind:     extract.KindDuplicateModule,
					Document: handbooks[i].Name,
					Text:     m.Code,
					Reason:   "already defined in " + prev,
				})
				continue
			}
			definedIn[m.Code] = handbooks[i].Name
			modules = append(modules, m)
		}
	}
	lookup := catalog.NewIndex(modules, nil)

	var entries []catalog.ScheduleEntry
	for _, res := range parseAll(ctx, schedules, func(d source.Document) ([]catalog.ScheduleEntry, []extract.Issue) {
		return p.schedule.Extract(ctx, d.Name, layout.SplitPages(d.Pages), lookup)
	}) {
		p.countFailure(report, res.issues)
		report.addIssue(res.issues...)
		entries = append(entries, res.records...)
	}
	index := catalog.NewIndex(modules, entries)

	vectors, err := p.embedAll(ctx, p.chunkAll(index, general))
	if err != nil {
		return nil, report, err
	}

	report.Modules = index.Len()
	report.ScheduleEntries = len(index.Entries())
	report.UnmatchedEntries = len(index.Unmatched())
	report.Chunks = vectors.Len()
	report.ChunkTokenStats = tokenStats(vectors.Chunks())
	report.IndexVersion = indexVersion(p.opts, records)

	logger.InfoContext(ctx, "ingestion completed",
		"documents", report.Documents,
		"modules", report.Modules,
		"schedule_entries", report.ScheduleEntries,
		"unmatched_entries", report.UnmatchedEntries,
		"chunks", report.Chunks,
		"issues", report.Issues.String(),
		"index_version", report.IndexVersion,
	)

	return &Snapshot{
		Version:   report.IndexVersion,
		Documents: records,
		Catalog:   index,
		Vectors:   vectors,
	}, report, nil
}

func (p *Pipeline) countFailure(r *Report, issues []extract.Issue) {
	for _, is := range issues {
		if is.Kind == extract.KindFailedDocument {
			r.FailedDocuments++
		}
	}
}

// chunkAll splits module content and general documents into chunks with
// IDs derived from document, module code and offset.
func (p *Pipeline) chunkAll(index *catalog.Index, general []source.Document) []vectorstore.Chunk {
	var chunks []vectorstore.Chunk
	add := func(doc, code, text string) {
		for _, piece := range p.chunker.Split(text) {
			chunks = append(chunks, vectorstore.Chunk{
				ID:   catalog.StableID("chunk", doc, code, strconv.Itoa(piece.Offset)),
				Text: piece.Text,
				Source: vectorstore.SourceRef{
					Document:   doc,
					Offset:     piece.Offset,
					ModuleCode: code,
				},
			})
		}
	}
	for _, m := range index.Modules() {
		add(m.Source, m.Code, m.Content)
	}
	for _, d := range general {
		add(d.Name, "", d.Text())
	}
	return chunks
}

// embedAll embeds chunks in batches with bounded parallelism. Results are
// appended to a mutex-guarded builder, so completion order does not matter.
func (p *Pipeline) embedAll(ctx context.Context, chunks []vectorstore.Chunk) (*vectorstore.Index, error) {
	builder := vectorstore.NewBuilder(p.opts.Dim)
	logger := contextutil.LoggerFromContext(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)
	for start := 0; start < len(chunks); start += p.opts.BatchSize {
		batch := chunks[start:min(start+p.opts.BatchSize, len(chunks))]
		g.Go(func() error {
			if err := p.limiter.Wait(gctx); err != nil {
				return err
			}
			texts := make([]string, len(batch))
			for i, c := range batch {
				texts[i] = c.Text
			}
			vecs, err := p.embedder.EmbedTexts(gctx, texts)
			if err != nil {
				return fmt.Errorf("failed to generate embeddings: %w", err)
			}
			if len(vecs) != len(batch) {
				return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(batch), len(vecs))
			}
			out := make([]vectorstore.Chunk, len(batch))
			for i, c := range batch {
				c.Vector = vecs[i]
				out[i] = c
			}
			return builder.Add(out...)
		})
	}
	if err := g.Wait(); err != nil {
		logger.ErrorContext(ctx, "embedding failed", "chunks", len(chunks), "error", err)
		return nil, err
	}
	logger.DebugContext(ctx, "chunks embedded", "chunks", len(chunks))
	return builder.Build(), nil
}

// Publish persists snap to SQLite and mirrors its chunks to the vector
// store, deleting points that belonged only to the previous snapshot.
func (p *Pipeline) Publish(ctx context.Context, snap *Snapshot) error {
	logger := contextutil.LoggerFromContext(ctx)

	var stale []string
	if p.mirror != nil && p.store != nil {
		prev, err := p.store.ChunkIDs(ctx)
		if err != nil {
			return fmt.Errorf("failed to list previous chunks: %w", err)
		}
		for _, id := range prev {
			if _, ok := snap.Vectors.Chunk(id); !ok {
				stale = append(stale, id)
			}
		}
		slices.Sort(stale)
	}

	if p.store != nil {
		if err := p.store.Save(ctx, snap.Stored()); err != nil {
			return fmt.Errorf("failed to save snapshot: %w", err)
		}
	}
	if p.mirror != nil {
		if err := vectorstore.Mirror(ctx, p.mirror, p.collection, snap.Vectors, stale); err != nil {
			return err
		}
	}

	logger.InfoContext(ctx, "snapshot published", "index_version", snap.Version, "chunks", snap.Vectors.Len(), "stale", len(stale))
	return nil
}

// Restore loads the last published snapshot. It returns storage.ErrNotFound
// when nothing has been published yet.
func (p *Pipeline) Restore(ctx context.Context) (*Snapshot, error) {
	if p.store == nil {
		return nil, storage.ErrNotFound
	}
	st, err := p.store.Load(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return FromStored(st), nil
}
