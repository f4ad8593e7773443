package rag

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"campus-advisor/internal/catalog"
	"campus-advisor/internal/contextutil"
	"campus-advisor/internal/intent"
	"campus-advisor/internal/llm"
	"campus-advisor/internal/resolver"
	"campus-advisor/internal/retrieval"
)

// Engine builds context bundles from one immutable pair of indexes. It holds
// no per-query state and is safe for concurrent use.
type Engine struct {
	catalog    *catalog.Index
	resolver   *resolver.Resolver
	retriever  *retrieval.Retriever
	curriculum catalog.Curriculum
	now        func() time.Time
}

// Options configures an Engine.
type Options struct {
	Curriculum catalog.Curriculum
	// Now returns the current time. It decides "today" and which term is
	// in progress. Defaults to time.Now.
	Now func() time.Time
}

// NewEngine creates an engine over idx.
func NewEngine(idx *catalog.Index, res *resolver.Resolver, ret *retrieval.Retriever, opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		catalog:    idx,
		resolver:   res,
		retriever:  ret,
		curriculum: opts.Curriculum,
		now:        opts.Now,
	}
}

// Catalog returns the entity index the engine answers from.
func (e *Engine) Catalog() *catalog.Index { return e.catalog }

// Retriever returns the hybrid retriever.
func (e *Engine) Retriever() *retrieval.Retriever { return e.retriever }

// AnswerContext classifies query, routes it to a structured lookup or to
// hybrid retrieval and returns the resulting bundle. history is the prior
// conversation, oldest first. A lookup that finds nothing yields an empty
// bundle with a reason. Backend failures are returned as errors.
func (e *Engine) AnswerContext(ctx context.Context, query string, history []llm.Message) (Bundle, error) {
	logger := contextutil.LoggerFromContext(ctx)

	result := intent.Classify(query)
	b := &builder{
		ctx:         ctx,
		engine:      e,
		query:       query,
		now:         e.now(),
		fromHistory: semesterFromHistory(history),
		bundle:      Bundle{Intent: result},
	}
	if err := result.Accept(b); err != nil {
		logger.ErrorContext(ctx, "failed to build context", slog.String("intent", string(result.Kind())), slog.Any("error", err))
		return Bundle{}, err
	}

	logger.InfoContext(ctx, "context built",
		slog.String("intent", string(result.Kind())),
		slog.String("source", string(b.bundle.Source)),
		slog.Int("modules", len(b.bundle.Modules)),
		slog.Int("schedule_entries", len(b.bundle.Schedule)),
		slog.Int("chunks", len(b.bundle.Chunks)),
		slog.Bool("empty", b.bundle.Empty),
		slog.String("reason", string(b.bundle.Reason)))
	return b.bundle, nil
}

// semesterFromHistory returns the semester named by the most recent user
// turn that names one.
func semesterFromHistory(history []llm.Message) int {
	for i := len(history) - 1; i >= 0; i-- {
		m := history[i]
		if m.Role != llm.RoleUser {
			continue
		}
		if n := intent.ExtractCriteria(m.Content).Semester; n > 0 {
			return n
		}
	}
	return 0
}

// builder fills one bundle. It handles every intent.
type builder struct {
	ctx         context.Context
	engine      *Engine
	query       string
	now         time.Time
	fromHistory int
	bundle      Bundle
}

var _ intent.Visitor = (*builder)(nil)

func (b *builder) resolve() (resolver.Match, bool) {
	if b.engine.resolver == nil {
		return resolver.Match{}, false
	}
	m, err := b.engine.resolver.Resolve(b.query)
	if err != nil {
		contextutil.LoggerFromContext(b.ctx).DebugContext(b.ctx, "module not resolved", slog.Any("error", err))
		return resolver.Match{}, false
	}
	b.bundle.Module = &m
	return m, true
}

func (b *builder) withHistory(c intent.Criteria) intent.Criteria {
	if c.Semester == 0 && b.fromHistory > 0 {
		c.Semester = b.fromHistory
	}
	return c
}

// VisitSchedule answers with a module's sessions when the question names a
// module, otherwise with a semester's sessions on one day.
func (b *builder) VisitSchedule(s intent.Schedule) error {
	idx := b.engine.catalog
	b.bundle.Source = SourceStructured

	if m, ok := b.resolve(); ok {
		b.bundle.Schedule = idx.ScheduleFor(m.Code)
		if len(b.bundle.Schedule) == 0 {
			b.bundle.markEmpty(ReasonNoScheduleForModule)
		}
		return nil
	}

	c := b.withHistory(s.Criteria)
	b.bundle.Intent = intent.Schedule{Criteria: c}
	b.bundle.Semester = c.Semester

	day := c.Day
	today := catalog.DayOf(b.now.Weekday())
	switch {
	case c.Relative == intent.Tomorrow:
		day = today.Next()
	case c.Relative == intent.Today || day == catalog.NoDay:
		day = today
	}
	b.bundle.Day = day

	if c.Semester == 0 {
		b.bundle.Source = SourceNone
		b.bundle.markEmpty(ReasonSemesterRequired)
		return nil
	}
	if !b.engine.curriculum.IsActive(c.Semester, b.now) {
		b.bundle.Term = b.engine.curriculum.TermAt(b.now)
		b.bundle.markEmpty(ReasonSemesterNotInSeason)
		return nil
	}
	b.bundle.Schedule = idx.EntriesOn(c.Semester, day)
	if len(b.bundle.Schedule) == 0 {
		b.bundle.markEmpty(ReasonNoClassesOnDay)
	}
	return nil
}

// VisitModulesList lists the modules of a semester or term.
func (b *builder) VisitModulesList(l intent.ModulesList) error {
	c := b.withHistory(l.Criteria)
	b.bundle.Intent = intent.ModulesList{Criteria: c}
	b.bundle.Semester = c.Semester

	if c.Semester == 0 && c.Season == catalog.SeasonUnknown {
		b.bundle.Source = SourceNone
		b.bundle.markEmpty(ReasonSemesterRequired)
		return nil
	}
	b.bundle.Source = SourceStructured
	b.bundle.Modules = b.engine.catalog.ModulesFor(b.engine.curriculum, c.Semester, c.Season)
	if len(b.bundle.Modules) == 0 {
		b.bundle.markEmpty(ReasonNoModulesFound)
	}
	return nil
}

// VisitModuleInfo retrieves document text, scoped to the named module when
// the question resolves to one. The module's record rides along.
func (b *builder) VisitModuleInfo(intent.ModuleInfo) error {
	var code string
	if m, ok := b.resolve(); ok {
		code = m.Code
		if rec, found := b.engine.catalog.Module(code); found {
			b.bundle.Modules = []catalog.ModuleRecord{rec}
		}
	}
	return b.retrieve(code)
}

// VisitGeneral retrieves document text from the whole corpus.
func (b *builder) VisitGeneral(intent.General) error {
	return b.retrieve("")
}

func (b *builder) retrieve(moduleCode string) error {
	b.bundle.Source = SourceRetrieval
	if b.engine.retriever == nil {
		b.bundle.markEmpty(ReasonNoDocumentsFound)
		return nil
	}
	chunks, err := b.engine.retriever.Retrieve(b.ctx, retrieval.Request{Query: b.query, ModuleCode: moduleCode})
	if err != nil {
		return fmt.Errorf("failed to retrieve documents: %w", err)
	}
	b.bundle.Chunks = chunks
	if len(chunks) == 0 {
		b.bundle.markEmpty(ReasonNoDocumentsFound)
	}
	return nil
}
