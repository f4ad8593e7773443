package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8081/", "test-key", "test-model", time.Minute)
	if client.BaseURL != "http://localhost:8081" {
		t.Errorf("NewClient() BaseURL = %v, want http://localhost:8081", client.BaseURL)
	}
	if client.Model != "test-model" {
		t.Errorf("NewClient() Model = %v, want test-model", client.Model)
	}
	if client.client.Timeout != time.Minute {
		t.Errorf("NewClient() timeout = %v, want 1m", client.client.Timeout)
	}
}

func TestClient_Generate(t *testing.T) {
	tests := []struct {
		name            string
		serverResp      func(w http.ResponseWriter, r *http.Request)
		wantReply       string
		wantErr         bool
		wantUnavailable bool
	}{
		{
			name: "successful generation",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/chat/completions" {
					t.Errorf("expected /v1/chat/completions, got %s", r.URL.Path)
				}
				if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
					t.Error("missing Authorization header")
				}
				var req ChatRequest
				_ = json.NewDecoder(r.Body).Decode(&req)
				if len(req.Messages) != 2 || req.Messages[0].Role != RoleSystem {
					t.Errorf("unexpected messages %+v", req.Messages)
				}
				_ = json.NewEncoder(w).Encode(ChatResponse{
					Choices: []ChatChoice{{Message: Message{Role: RoleAssistant, Content: "Monday at 10:00."}}},
				})
			},
			wantReply: "Monday at 10:00.",
		},
		{
			name: "no choices returned",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(ChatResponse{})
			},
			wantErr: true,
		},
		{
			name: "server error is unavailability",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			wantErr:         true,
			wantUnavailable: true,
		},
		{
			name: "bad request is not unavailability",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tt.serverResp))
			defer server.Close()

			client := NewClient(server.URL, "test-key", "test-model", time.Second)
			reply, err := client.Generate(context.Background(), []Message{
				{Role: RoleSystem, Content: "context"},
				{Role: RoleUser, Content: "When is Programming?"},
			})

			if (err != nil) != tt.wantErr {
				t.Fatalf("Generate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := errors.Is(err, ErrServiceUnavailable); got != tt.wantUnavailable {
				t.Errorf("errors.Is(err, ErrServiceUnavailable) = %v, want %v", got, tt.wantUnavailable)
			}
			if reply != tt.wantReply {
				t.Errorf("Generate() reply = %v, want %v", reply, tt.wantReply)
			}
		})
	}
}

func TestClient_GenerateTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", "m", 20*time.Millisecond)
	_, err := client.Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Errorf("Generate() error = %v, want ErrServiceUnavailable", err)
	}
}

func TestClient_GenerateUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(url, "", "m", time.Second)
	_, err := client.Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Errorf("Generate() error = %v, want ErrServiceUnavailable", err)
	}
}

func TestClient_StreamGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "text/event-stream" {
			t.Error("missing Accept header")
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, _ := w.(http.Flusher)
		for _, chunk := range []string{
			`{"choices":[{"delta":{"content":"Hello"}}]}`,
			`not json`,
			`{"choices":[{"delta":{"content":" world"}}]}`,
			`{"choices":[{"finish_reason":"stop"}]}`,
		} {
			_, _ = w.Write([]byte("data: " + chunk + "\n\n"))
			flusher.Flush()
		}
		_, _ = w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "test-model", time.Second)
	var received []string
	err := client.StreamGenerate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, func(chunk string) error {
		received = append(received, chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("StreamGenerate() unexpected error: %v", err)
	}
	if got := strings.Join(received, ""); got != "Hello world" {
		t.Errorf("StreamGenerate() = %q, want %q", got, "Hello world")
	}
}

func TestClient_StreamGenerateCallbackError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}\n\n"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", "m", time.Second)
	stop := errors.New("client gone")
	err := client.StreamGenerate(context.Background(), nil, func(string) error { return stop })
	if !errors.Is(err, stop) {
		t.Errorf("StreamGenerate() error = %v, want %v", err, stop)
	}
}
