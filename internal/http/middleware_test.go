package http

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"campus-advisor/internal/contextutil"
)

func TestLoggerMiddleware_RequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		check    func(t *testing.T, id string)
	}{
		{
			name: "generated",
			check: func(t *testing.T, id string) {
				if _, err := uuid.Parse(id); err != nil {
					t.Errorf("X-Request-ID = %q, want a UUID", id)
				}
			},
		},
		{
			name:     "propagated",
			incoming: "upstream-42",
			check: func(t *testing.T, id string) {
				if id != "upstream-42" {
					t.Errorf("X-Request-ID = %q, want upstream-42", id)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			prev := slog.Default()
			slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
			defer slog.SetDefault(prev)

			h := LoggerMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				contextutil.LoggerFromContext(r.Context()).InfoContext(r.Context(), "inside handler")
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/modules", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			id := w.Header().Get(RequestIDHeader)
			tt.check(t, id)

			line := buf.String()
			for _, want := range []string{"request_id=" + id, "method=GET", "path=/api/v1/modules"} {
				if !strings.Contains(line, want) {
					t.Errorf("handler log %q lacks %q", line, want)
				}
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		status    int
		shouldLog bool
	}{
		{name: "api call", path: "/api/v1/context", status: http.StatusOK, shouldLog: true},
		{name: "healthy probe", path: "/api/health", status: http.StatusOK},
		{name: "unhealthy probe", path: "/api/health", status: http.StatusServiceUnavailable, shouldLog: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			h := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req = req.WithContext(contextutil.WithLogger(req.Context(), logger))
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			logged := strings.Contains(buf.String(), "request completed")
			if logged != tt.shouldLog {
				t.Errorf("logged = %v, want %v (%s)", logged, tt.shouldLog, buf.String())
			}
		})
	}
}

func TestResponseWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	rw.WriteHeader(http.StatusConflict)
	if rw.statusCode != http.StatusConflict || rec.Code != http.StatusConflict {
		t.Errorf("statusCode = %d, recorded %d, want 409", rw.statusCode, rec.Code)
	}

	var w http.ResponseWriter = rw
	f, ok := w.(http.Flusher)
	if !ok {
		t.Fatal("responseWriter does not implement http.Flusher")
	}
	f.Flush()
	if !rec.Flushed {
		t.Error("Flush() was not forwarded")
	}
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name        string
		method      string
		origin      string
		wantStatus  int
		wantHeaders map[string]string
	}{
		{
			name:       "preflight",
			method:     http.MethodOptions,
			origin:     "http://localhost:3000",
			wantStatus: http.StatusNoContent,
			wantHeaders: map[string]string{
				"Access-Control-Allow-Origin":  "http://localhost:3000",
				"Access-Control-Allow-Methods": "GET, POST, OPTIONS",
				"Access-Control-Allow-Headers": "Content-Type, Authorization, X-Request-ID",
				"Access-Control-Max-Age":       "3600",
			},
		},
		{
			name:       "echoes origin",
			method:     http.MethodPost,
			origin:     "http://campus.example",
			wantStatus: http.StatusOK,
			wantHeaders: map[string]string{
				"Access-Control-Allow-Origin":   "http://campus.example",
				"Access-Control-Expose-Headers": "X-Request-ID",
			},
		},
		{
			name:        "no origin",
			method:      http.MethodGet,
			wantStatus:  http.StatusOK,
			wantHeaders: map[string]string{"Access-Control-Allow-Origin": "*"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/ask", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			CORS(next).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			for k, want := range tt.wantHeaders {
				if got := w.Header().Get(k); got != want {
					t.Errorf("%s = %q, want %q", k, got, want)
				}
			}
		})
	}
}
