package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient generates and embeds through the OpenAI API or any server
// that speaks it.
type OpenAIClient struct {
	client       *openai.Client
	model        string
	embedModel   string
	expectedSize int
}

// NewOpenAIClient creates a client. An empty baseURL selects api.openai.com.
func NewOpenAIClient(baseURL, apiKey, model, embedModel string, expectedSize int, timeout time.Duration) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return &OpenAIClient{
		client:       openai.NewClientWithConfig(cfg),
		model:        model,
		embedModel:   embedModel,
		expectedSize: expectedSize,
	}
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return out
}

// openAIError maps API failures onto ErrServiceUnavailable where they are transient.
func openAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode >= http.StatusInternalServerError || apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
		}
		return err
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	return unavailable(err)
}

// Generate implements Generator.
func (c *OpenAIClient) Generate(ctx context.Context, messages []Message) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: toOpenAIMessages(messages),
	})
	if err != nil {
		return "", openAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// StreamGenerate implements Generator.
func (c *OpenAIClient) StreamGenerate(ctx context.Context, messages []Message, callback func(chunk string) error) error {
	stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: toOpenAIMessages(messages),
		Stream:   true,
	})
	if err != nil {
		return openAIError(err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return openAIError(err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if delta := resp.Choices[0].Delta.Content; delta != "" {
			if err := callback(delta); err != nil {
				return fmt.Errorf("callback error: %w", err)
			}
		}
	}
}

// EmbedTexts implements Embedder.
func (c *OpenAIClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("empty input array")
	}
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.embedModel),
		Input: texts,
	})
	if err != nil {
		return nil, openAIError(err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	indexed := false
	for _, d := range resp.Data {
		indexed = indexed || d.Index != 0
	}

	result := make([][]float32, len(texts))
	for i, d := range resp.Data {
		pos := i
		if indexed {
			if d.Index < 0 || d.Index >= len(texts) {
				return nil, fmt.Errorf("embedding index %d out of range", d.Index)
			}
			pos = d.Index
		}
		if c.expectedSize > 0 && len(d.Embedding) != c.expectedSize {
			return nil, fmt.Errorf("embedding %d: size %d, expected %d", pos, len(d.Embedding), c.expectedSize)
		}
		result[pos] = d.Embedding
	}
	for i, v := range result {
		if v == nil {
			return nil, fmt.Errorf("embedding %d missing from response", i)
		}
	}
	return result, nil
}
