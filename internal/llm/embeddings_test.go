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

func TestEmbeddingsClient_EmbedTexts(t *testing.T) {
	vec := func(v float64, n int) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = v
		}
		return out
	}

	tests := []struct {
		name            string
		texts           []string
		serverResp      func(w http.ResponseWriter, r *http.Request)
		wantErr         bool
		wantUnavailable bool
		wantFirst       float32
	}{
		{
			name:  "successful embedding",
			texts: []string{"Hello", "World"},
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/embeddings" {
					t.Errorf("expected /v1/embeddings, got %s", r.URL.Path)
				}
				_ = json.NewEncoder(w).Encode(EmbeddingsResponse{Data: []EmbeddingData{
					{Index: 0, Embedding: vec(0.5, 4)},
					{Index: 1, Embedding: vec(0.25, 4)},
				}})
			},
			wantFirst: 0.5,
		},
		{
			name:  "out of order response is reordered",
			texts: []string{"Hello", "World"},
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(EmbeddingsResponse{Data: []EmbeddingData{
					{Index: 1, Embedding: vec(0.25, 4)},
					{Index: 0, Embedding: vec(0.5, 4)},
				}})
			},
			wantFirst: 0.5,
		},
		{
			name:    "empty input",
			texts:   nil,
			wantErr: true,
		},
		{
			name:  "wrong embedding count",
			texts: []string{"Hello", "World"},
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(EmbeddingsResponse{Data: []EmbeddingData{{Embedding: vec(1, 4)}}})
			},
			wantErr: true,
		},
		{
			name:  "wrong vector size",
			texts: []string{"Hello"},
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(EmbeddingsResponse{Data: []EmbeddingData{{Embedding: vec(1, 3)}}})
			},
			wantErr: true,
		},
		{
			name:  "server error",
			texts: []string{"Hello"},
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			wantErr:         true,
			wantUnavailable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := tt.serverResp
			if handler == nil {
				handler = func(w http.ResponseWriter, r *http.Request) {
					t.Error("unexpected request")
				}
			}
			server := httptest.NewServer(http.HandlerFunc(handler))
			defer server.Close()

			client := NewEmbeddingsClient(server.URL, "test-key", "test-model", 4, time.Second)
			got, err := client.EmbedTexts(context.Background(), tt.texts)

			if (err != nil) != tt.wantErr {
				t.Fatalf("EmbedTexts() error = %v, wantErr %v", err, tt.wantErr)
			}
			if errors.Is(err, ErrServiceUnavailable) != tt.wantUnavailable {
				t.Errorf("EmbedTexts() unavailable = %v, want %v", !tt.wantUnavailable, tt.wantUnavailable)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.texts) {
				t.Fatalf("EmbedTexts() returned %d vectors, want %d", len(got), len(tt.texts))
			}
			if got[0][0] != tt.wantFirst {
				t.Errorf("EmbedTexts()[0][0] = %v, want %v", got[0][0], tt.wantFirst)
			}
		})
	}
}

func TestEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(EmbeddingsResponse{Data: []EmbeddingData{{Embedding: []float64{1, 0}}}})
	}))
	defer server.Close()

	v, err := Embed(context.Background(), NewEmbeddingsClient(server.URL, "", "m", 2, time.Second), "query")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(v) != 2 || v[0] != 1 {
		t.Errorf("Embed() = %v, want [1 0]", v)
	}
}

func TestEmbedTexts_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	tests := []struct {
		name     string
		embedder Embedder
	}{
		{name: "http", embedder: NewEmbeddingsClient(server.URL, "", "m", 2, 20*time.Millisecond)},
		{name: "openai", embedder: NewOpenAIClient(server.URL+"/v1", "key", "gpt", "embed", 2, 20*time.Millisecond)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := time.Now()
			_, err := tt.embedder.EmbedTexts(context.Background(), []string{"when is my signals class"})
			if !errors.Is(err, ErrServiceUnavailable) {
				t.Errorf("EmbedTexts() error = %v, want ErrServiceUnavailable", err)
			}
			if elapsed := time.Since(start); elapsed >= 200*time.Millisecond {
				t.Errorf("EmbedTexts() returned after %v, want the client timeout", elapsed)
			}
		})
	}
}
