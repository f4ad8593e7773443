package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestOpenAIClient_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Room 3"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	c := NewOpenAIClient(server.URL+"/v1", "key", "gpt", "embed", 2, time.Second)
	got, err := c.Generate(context.Background(), []Message{{Role: RoleUser, Content: "where?"}})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "Room 3" {
		t.Errorf("Generate() = %q, want %q", got, "Room 3")
	}
}

func TestOpenAIClient_GenerateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer server.Close()

	c := NewOpenAIClient(server.URL+"/v1", "key", "gpt", "embed", 2, time.Second)
	_, err := c.Generate(context.Background(), []Message{{Role: RoleUser, Content: "where?"}})
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Errorf("Generate() error = %v, want ErrServiceUnavailable", err)
	}
}

func TestOpenAIClient_EmbedTexts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data": []map[string]any{
				{"object": "embedding", "index": 1, "embedding": []float32{0, 1}},
				{"object": "embedding", "index": 0, "embedding": []float32{1, 0}},
			},
		})
	}))
	defer server.Close()

	c := NewOpenAIClient(server.URL+"/v1", "key", "gpt", "embed", 2, time.Second)
	got, err := c.EmbedTexts(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("EmbedTexts() error = %v", err)
	}
	if got[0][0] != 1 || got[1][1] != 1 {
		t.Errorf("EmbedTexts() = %v, want inputs in order", got)
	}
}
