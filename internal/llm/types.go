package llm

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_llm.go -package=mocks campus-advisor/internal/llm Generator,Embedder

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Message represents a single message in a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Generator produces text from a conversation.
type Generator interface {
	Generate(ctx context.Context, messages []Message) (string, error)
	StreamGenerate(ctx context.Context, messages []Message, callback func(chunk string) error) error
}

// Embedder turns texts into fixed-size vectors, one per input.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ErrServiceUnavailable is returned when a model backend cannot be reached,
// times out or answers with a server error.
var ErrServiceUnavailable = errors.New("model service unavailable")

// unavailable wraps err with ErrServiceUnavailable when it is a transport
// failure or a timeout.
func unavailable(err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.Is(err, ErrServiceUnavailable) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	return err
}

// statusError turns a non-OK response into an error. 5xx and 429 count as
// unavailability.
func statusError(code int, body string) error {
	err := fmt.Errorf("bad status %d: %s", code, body)
	if code >= http.StatusInternalServerError || code == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	return err
}

// Embed embeds a single text.
func Embed(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vecs, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("expected 1 embedding, got %d", len(vecs))
	}
	return vecs[0], nil
}
