package app

import (
	"context"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-advisor/internal/config"
	"campus-advisor/internal/indexer"
	"campus-advisor/internal/llm"
	"campus-advisor/internal/rag"
	"campus-advisor/internal/retrieval"
	"campus-advisor/internal/service"
	"campus-advisor/internal/vectorstore"
)

const testDim = 16

type hashEmbedder struct{}

func (hashEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, testDim)
		for _, w := range strings.Fields(strings.ToLower(t)) {
			h := fnv.New32a()
			_, _ = h.Write([]byte(w))
			v[h.Sum32()%testDim]++
		}
		out[i] = v
	}
	return out, nil
}

type echoGenerator struct{}

func (echoGenerator) Generate(_ context.Context, msgs []llm.Message) (string, error) {
	return "answer to " + msgs[len(msgs)-1].Content, nil
}

func (echoGenerator) StreamGenerate(_ context.Context, _ []llm.Message, cb func(string) error) error {
	return cb("streamed")
}

var files = map[string]string{
	"handbook.txt": `Module Handbook Computer Science
INF_1.01 Introduction to Programming
Workload 150 h / 5 CP
Semester: 1
Content: variables, control flow and functions.
INF_3.02 Signals and Systems
Credits: 5
Semester: 3
Prerequisites: INF_1.01
Content: Fourier transform, sampling and filters.`,
	"schedule.txt": `3. Semester
Monday
08:00 09:30 INF_3.02 Signals and Systems L Prof. Dr. Smith Hörsaal 2`,
	"exam-rules.md": "# Exams\n\nExams are held in the two weeks after the lecture period.\n",
}

// monday is in the winter term.
var monday = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dataDir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dataDir, name), []byte(content), 0o644))
	}
	return &config.Config{
		LLMProvider:      config.ProviderHTTP,
		EmbeddingDim:     testDim,
		BackendTimeout:   time.Second,
		DBPath:           filepath.Join(t.TempDir(), "advisor.db"),
		DataDir:          dataDir,
		VectorBackend:    config.VectorBackendMemory,
		RetrievalTopK:    3,
		KeywordWeight:    0.5,
		VectorWeight:     0.5,
		ResolverMinScore: 20,
		ChunkSize:        200,
		ChunkOverlap:     20,
		EmbedConcurrency: 2,
		EmbedBatchSize:   4,
		Profile:          *config.DefaultProfile(),
	}
}

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a, err := New(context.Background(), cfg,
		WithEmbedder(hashEmbedder{}),
		WithGenerator(echoGenerator{}),
		WithClock(func() time.Time { return monday }),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestApp_IngestThenAnswer(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t, testConfig(t))

	_, err := a.Advisor().Context(ctx, service.AskRequest{Question: "When is Signals and Systems?"})
	require.ErrorIs(t, err, service.ErrUnavailable, "no index before the first ingestion")

	report, err := a.Ingest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Modules)
	assert.Equal(t, 1, report.ScheduleEntries)
	assert.Equal(t, indexer.StateSucceeded, a.Runner().Status().State)

	bundle, err := a.Advisor().Context(ctx, service.AskRequest{Question: "When is Signals and Systems?"})
	require.NoError(t, err)
	assert.Equal(t, rag.SourceStructured, bundle.Source)
	require.Len(t, bundle.Schedule, 1)
	assert.Equal(t, "Prof. Dr. Smith", bundle.Schedule[0].Professor)

	bundle, err = a.Advisor().Context(ctx, service.AskRequest{Question: "How long do exams last after the lecture period?"})
	require.NoError(t, err)
	assert.Equal(t, rag.SourceRetrieval, bundle.Source)
	assert.NotEmpty(t, bundle.Chunks)

	resp, err := a.Advisor().Ask(ctx, service.AskRequest{Question: "What modules are in semester 1?"})
	require.NoError(t, err)
	assert.Equal(t, "answer to What modules are in semester 1?", resp.Answer)
	require.Len(t, resp.Bundle.Modules, 1)
	assert.Equal(t, "INF_1.01", resp.Bundle.Modules[0].Code)
}

func TestApp_RestoreAfterRestart(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	first := newTestApp(t, cfg)
	restored, err := first.Restore(ctx)
	require.NoError(t, err)
	assert.False(t, restored, "empty database")

	_, err = first.Ingest(ctx)
	require.NoError(t, err)
	version := first.Runner().Status().Version
	require.NoError(t, first.Close())

	second := newTestApp(t, cfg)
	restored, err = second.Restore(ctx)
	require.NoError(t, err)
	require.True(t, restored)

	idx := second.Engine().Catalog()
	require.NotNil(t, idx)
	assert.Equal(t, 2, idx.Len())

	detail, err := second.Advisor().Module(ctx, "INF_3.02")
	require.NoError(t, err)
	assert.Len(t, detail.Schedule, 1)
	assert.NotEmpty(t, version)
}

func TestApp_CheckEmbedder(t *testing.T) {
	cfg := testConfig(t)
	a := newTestApp(t, cfg)
	assert.NoError(t, a.CheckEmbedder(context.Background()))

	cfg.EmbeddingDim = testDim + 1
	assert.ErrorContains(t, a.CheckEmbedder(context.Background()), "size mismatch")
}

func TestBuildEngine_KeywordOnly(t *testing.T) {
	snap := &indexer.Snapshot{
		Catalog: indexer.Empty(testDim).Catalog,
		Vectors: vectorstore.NewIndex(testDim, []vectorstore.Chunk{
			{ID: "c1", Text: "Re-sits take place before the next term.", Vector: make([]float32, testDim)},
		}),
	}
	engine, err := BuildEngine(snap, nil, nil, EngineOptions{
		Weights: retrieval.Weights{Keyword: 1},
		Now:     func() time.Time { return monday },
	})
	require.NoError(t, err)

	bundle, err := engine.AnswerContext(context.Background(), "re-sits before the next term", nil)
	require.NoError(t, err)
	assert.Equal(t, rag.SourceRetrieval, bundle.Source)
	require.Len(t, bundle.Chunks, 1)

	_, err = BuildEngine(snap, nil, nil, EngineOptions{Weights: retrieval.Weights{Keyword: -1}})
	assert.Error(t, err)
}
