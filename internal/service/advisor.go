package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_context_builder.go -package=mocks campus-advisor/internal/service ContextBuilder
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_advisor_service.go -package=mocks -mock_names=AdvisorService=MockAdvisorService campus-advisor/internal/service AdvisorService

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"campus-advisor/internal/catalog"
	"campus-advisor/internal/contextutil"
	"campus-advisor/internal/llm"
	"campus-advisor/internal/rag"
	"campus-advisor/internal/storage"
	"campus-advisor/internal/vectorstore"
)

// MaxQuestionLength is the longest accepted question in runes.
const MaxQuestionLength = 2000

// ContextBuilder produces the context bundle for a question and exposes the
// entity index it answers from. Catalog returns nil before the first index
// has been loaded.
type ContextBuilder interface {
	AnswerContext(ctx context.Context, query string, history []llm.Message) (rag.Bundle, error)
	Catalog() *catalog.Index
}

// AskRequest is one advisor question with the conversation so far.
type AskRequest struct {
	Question string
	History  []llm.Message
}

// AskResponse is a generated answer with the context it was grounded on.
type AskResponse struct {
	Answer string
	Bundle rag.Bundle
}

// ModulesQuery selects modules by study position. Both fields empty selects
// every module.
type ModulesQuery struct {
	Semester int
	Season   catalog.Season
}

// ModuleDetail is a module with its weekly sessions.
type ModuleDetail struct {
	Module   catalog.ModuleRecord
	Schedule []catalog.ScheduleEntry
}

// AdvisorService answers study questions and exposes the catalog.
type AdvisorService interface {
	// Context builds the context bundle without calling the generation backend.
	Context(ctx context.Context, req AskRequest) (rag.Bundle, error)
	// Ask builds the context and generates an answer.
	Ask(ctx context.Context, req AskRequest) (AskResponse, error)
	// StreamAsk builds the context and streams the answer via callback.
	StreamAsk(ctx context.Context, req AskRequest, callback func(chunk string) error) (rag.Bundle, error)
	// Modules lists modules for a semester or term.
	Modules(ctx context.Context, q ModulesQuery) ([]catalog.ModuleRecord, error)
	// Module returns one module with its schedule.
	Module(ctx context.Context, code string) (ModuleDetail, error)
	// Chunk returns a persisted document chunk.
	Chunk(ctx context.Context, id string) (*vectorstore.Chunk, error)
}

// advisorService implements AdvisorService.
type advisorService struct {
	builder    ContextBuilder
	generator  llm.Generator
	chunks     storage.ChunkStore
	curriculum catalog.Curriculum
}

// NewAdvisorService creates a new AdvisorService. chunks may be nil when no
// database is configured.
func NewAdvisorService(builder ContextBuilder, generator llm.Generator, chunks storage.ChunkStore, curriculum catalog.Curriculum) AdvisorService {
	return &advisorService{
		builder:    builder,
		generator:  generator,
		chunks:     chunks,
		curriculum: curriculum,
	}
}

func validate(req AskRequest) error {
	q := strings.TrimSpace(req.Question)
	if q == "" {
		return &ValidationError{Field: "question", Message: "cannot be empty"}
	}
	if utf8.RuneCountInString(q) > MaxQuestionLength {
		return &ValidationError{Field: "question", Message: fmt.Sprintf("longer than %d characters", MaxQuestionLength)}
	}
	for i, m := range req.History {
		if m.Role != llm.RoleUser && m.Role != llm.RoleAssistant {
			return &ValidationError{Field: "history", Message: fmt.Sprintf("turn %d has unknown role %q", i, m.Role)}
		}
	}
	return nil
}

// Context builds the context bundle for a question.
func (s *advisorService) Context(ctx context.Context, req AskRequest) (rag.Bundle, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := validate(req); err != nil {
		logger.WarnContext(ctx, "invalid advisor request", slog.Any("error", err))
		return rag.Bundle{}, err
	}

	bundle, err := s.builder.AnswerContext(ctx, strings.TrimSpace(req.Question), req.History)
	if err != nil {
		logger.ErrorContext(ctx, "failed to build context", slog.Any("error", err))
		return rag.Bundle{}, backendError(err, "failed to build context")
	}
	return bundle, nil
}

// Ask builds the context and generates an answer.
func (s *advisorService) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	bundle, err := s.Context(ctx, req)
	if err != nil {
		return AskResponse{}, err
	}

	messages := rag.RenderMessages(bundle, strings.TrimSpace(req.Question), req.History)
	answer, err := s.generator.Generate(ctx, messages)
	if err != nil {
		logger.ErrorContext(ctx, "failed to get LLM response", slog.Any("error", err))
		return AskResponse{}, backendError(err, "failed to get LLM response")
	}

	logger.InfoContext(ctx, "advisor question answered",
		slog.Int("question_length", len(req.Question)),
		slog.Int("answer_length", len(answer)),
		slog.String("source", string(bundle.Source)))
	return AskResponse{Answer: answer, Bundle: bundle}, nil
}

// StreamAsk builds the context and streams the answer.
func (s *advisorService) StreamAsk(ctx context.Context, req AskRequest, callback func(chunk string) error) (rag.Bundle, error) {
	logger := contextutil.LoggerFromContext(ctx)

	bundle, err := s.Context(ctx, req)
	if err != nil {
		return rag.Bundle{}, err
	}

	messages := rag.RenderMessages(bundle, strings.TrimSpace(req.Question), req.History)
	if err := s.generator.StreamGenerate(ctx, messages, callback); err != nil {
		logger.ErrorContext(ctx, "failed to stream LLM response", slog.Any("error", err))
		return bundle, backendError(err, "failed to stream LLM response")
	}

	logger.InfoContext(ctx, "streaming advisor question processed", slog.Int("question_length", len(req.Question)))
	return bundle, nil
}

func (s *advisorService) catalog() (*catalog.Index, error) {
	idx := s.builder.Catalog()
	if idx == nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, rag.ErrNotReady)
	}
	return idx, nil
}

// Modules lists modules for a semester or term.
func (s *advisorService) Modules(ctx context.Context, q ModulesQuery) ([]catalog.ModuleRecord, error) {
	if q.Semester < 0 {
		return nil, &ValidationError{Field: "semester", Message: "must not be negative"}
	}
	idx, err := s.catalog()
	if err != nil {
		return nil, err
	}
	if q.Semester == 0 && q.Season == catalog.SeasonUnknown {
		return idx.Modules(), nil
	}
	modules := idx.ModulesFor(s.curriculum, q.Semester, q.Season)
	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "modules listed",
		slog.Int("semester", q.Semester),
		slog.String("season", string(q.Season)),
		slog.Int("count", len(modules)))
	return modules, nil
}

// Module returns one module with its schedule.
func (s *advisorService) Module(ctx context.Context, code string) (ModuleDetail, error) {
	if strings.TrimSpace(code) == "" {
		return ModuleDetail{}, &ValidationError{Field: "code", Message: "cannot be empty"}
	}
	idx, err := s.catalog()
	if err != nil {
		return ModuleDetail{}, err
	}
	m, ok := idx.Module(code)
	if !ok {
		contextutil.LoggerFromContext(ctx).InfoContext(ctx, "unknown module", slog.String("code", code))
		return ModuleDetail{}, fmt.Errorf("module %s: %w", code, ErrNotFound)
	}
	return ModuleDetail{Module: m, Schedule: idx.ScheduleFor(code)}, nil
}

// Chunk returns a persisted document chunk.
func (s *advisorService) Chunk(ctx context.Context, id string) (*vectorstore.Chunk, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &ValidationError{Field: "id", Message: "cannot be empty"}
	}
	if s.chunks == nil {
		return nil, fmt.Errorf("chunk store: %w", ErrUnavailable)
	}
	c, err := s.chunks.GetByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("chunk %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chunk %s: %w", id, err)
	}
	return c, nil
}
