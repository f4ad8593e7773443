package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"campus-advisor/internal/intent"
	"campus-advisor/internal/llm"
	"campus-advisor/internal/rag"
	"campus-advisor/internal/service"
	"campus-advisor/internal/service/mocks"
)

func postJSON(t *testing.T, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatalf("failed to encode body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestContextHandler_ServeHTTP(t *testing.T) {
	bundle := rag.Bundle{Intent: intent.General{}, Source: rag.SourceRetrieval, Empty: true, Reason: rag.ReasonNoDocumentsFound}
	history := []llm.Message{{Role: llm.RoleUser, Content: "I'm in semester 3"}}

	tests := []struct {
		name       string
		body       any
		mockSetup  func(*mocks.MockAdvisorService)
		wantStatus int
		check      func(t *testing.T, w *httptest.ResponseRecorder)
	}{
		{
			name: "bundle returned",
			body: AskRequest{Question: "exam rules?", History: history},
			mockSetup: func(m *mocks.MockAdvisorService) {
				m.EXPECT().Context(gomock.Any(), service.AskRequest{Question: "exam rules?", History: history}).Return(bundle, nil)
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				var got map[string]any
				if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if got["empty"] != true || got["reason"] != string(rag.ReasonNoDocumentsFound) {
					t.Errorf("response = %v", got)
				}
				if in, _ := got["intent"].(map[string]any); in["kind"] != string(intent.KindGeneral) {
					t.Errorf("intent = %v, want general", got["intent"])
				}
			},
		},
		{
			name:       "invalid body",
			body:       "{not json",
			mockSetup:  func(*mocks.MockAdvisorService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "validation error",
			body: AskRequest{Question: ""},
			mockSetup: func(m *mocks.MockAdvisorService) {
				m.EXPECT().Context(gomock.Any(), gomock.Any()).
					Return(rag.Bundle{}, &service.ValidationError{Field: "question", Message: "cannot be empty"})
			},
			wantStatus: http.StatusBadRequest,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp ErrorResponse
				_ = json.NewDecoder(w.Body).Decode(&resp)
				if !strings.Contains(resp.Error, "question") {
					t.Errorf("error = %q, want the field name", resp.Error)
				}
			},
		},
		{
			name: "index not loaded",
			body: AskRequest{Question: "hello"},
			mockSetup: func(m *mocks.MockAdvisorService) {
				m.EXPECT().Context(gomock.Any(), gomock.Any()).
					Return(rag.Bundle{}, fmt.Errorf("failed to build context: %w: %w", service.ErrUnavailable, rag.ErrNotReady))
			},
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			advisor := mocks.NewMockAdvisorService(ctrl)
			tt.mockSetup(advisor)

			w := httptest.NewRecorder()
			NewContextHandler(advisor).ServeHTTP(w, postJSON(t, "/api/v1/context", tt.body))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			if tt.check != nil {
				tt.check(t, w)
			}
		})
	}
}

func TestAskHandler_ServeHTTP(t *testing.T) {
	bundle := rag.Bundle{Intent: intent.ModulesList{}, Source: rag.SourceStructured}

	tests := []struct {
		name       string
		mockSetup  func(*mocks.MockAdvisorService)
		wantStatus int
		wantAnswer string
	}{
		{
			name: "answered",
			mockSetup: func(m *mocks.MockAdvisorService) {
				m.EXPECT().Ask(gomock.Any(), service.AskRequest{Question: "modules?"}).
					Return(service.AskResponse{Answer: "Programming", Bundle: bundle}, nil)
			},
			wantStatus: http.StatusOK,
			wantAnswer: "Programming",
		},
		{
			name: "generation rejected",
			mockSetup: func(m *mocks.MockAdvisorService) {
				m.EXPECT().Ask(gomock.Any(), gomock.Any()).
					Return(service.AskResponse{}, fmt.Errorf("failed to get LLM response: %w", service.ErrExternalService))
			},
			wantStatus: http.StatusBadGateway,
		},
		{
			name: "unexpected error",
			mockSetup: func(m *mocks.MockAdvisorService) {
				m.EXPECT().Ask(gomock.Any(), gomock.Any()).Return(service.AskResponse{}, errors.New("boom"))
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			advisor := mocks.NewMockAdvisorService(ctrl)
			tt.mockSetup(advisor)

			w := httptest.NewRecorder()
			NewAskHandler(advisor).ServeHTTP(w, postJSON(t, "/api/v1/ask", AskRequest{Question: "modules?"}))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var resp map[string]any
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp["answer"] != tt.wantAnswer {
				t.Errorf("answer = %v, want %q", resp["answer"], tt.wantAnswer)
			}
		})
	}
}

func TestAskHandler_ServeHTTP_AnswerBody(t *testing.T) {
	ctrl := gomock.NewController(t)
	advisor := mocks.NewMockAdvisorService(ctrl)
	advisor.EXPECT().Ask(gomock.Any(), gomock.Any()).Return(service.AskResponse{
		Answer: "Programming",
		Bundle: rag.Bundle{Intent: intent.ModulesList{Criteria: intent.Criteria{Semester: 1}}, Source: rag.SourceStructured},
	}, nil)

	w := httptest.NewRecorder()
	NewAskHandler(advisor).ServeHTTP(w, postJSON(t, "/api/v1/ask", AskRequest{Question: "modules?"}))

	var resp struct {
		Answer  string `json:"answer"`
		Context struct {
			Source string         `json:"source"`
			Intent map[string]any `json:"intent"`
			Empty  bool           `json:"empty"`
		} `json:"context"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Answer != "Programming" || resp.Context.Source != "structured" {
		t.Errorf("response = %+v", resp)
	}
	if resp.Context.Intent["kind"] != string(intent.KindModulesList) {
		t.Errorf("intent = %v", resp.Context.Intent)
	}
}

func TestAskHandler_Stream(t *testing.T) {
	ctrl := gomock.NewController(t)
	advisor := mocks.NewMockAdvisorService(ctrl)
	advisor.EXPECT().StreamAsk(gomock.Any(), service.AskRequest{Question: "hello"}, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ service.AskRequest, cb func(string) error) (rag.Bundle, error) {
			for _, c := range []string{"Hel", "lo\nworld"} {
				if err := cb(c); err != nil {
					return rag.Bundle{}, err
				}
			}
			return rag.Bundle{Intent: intent.General{}, Source: rag.SourceRetrieval}, nil
		})

	w := httptest.NewRecorder()
	NewAskHandler(advisor).ServeHTTP(w, postJSON(t, "/api/v1/ask?stream=true", AskRequest{Question: "hello"}))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}
	body := w.Body.String()
	for _, want := range []string{
		`data: {"chunk":"Hel"}`,
		`data: {"chunk":"lo\nworld"}`,
		"event: context\ndata: {",
		`"source":"retrieval"`,
		"data: [DONE]\n\n",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("stream missing %q:\n%s", want, body)
		}
	}
	if strings.Index(body, "event: context") > strings.Index(body, "[DONE]") {
		t.Error("context event sent after [DONE]")
	}
}

func TestAskHandler_Stream_ErrorBeforeFirstChunk(t *testing.T) {
	ctrl := gomock.NewController(t)
	advisor := mocks.NewMockAdvisorService(ctrl)
	advisor.EXPECT().StreamAsk(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(rag.Bundle{}, fmt.Errorf("failed to build context: %w: %w", service.ErrUnavailable, llm.ErrServiceUnavailable))

	w := httptest.NewRecorder()
	NewAskHandler(advisor).ServeHTTP(w, postJSON(t, "/api/v1/ask?stream=1", AskRequest{Question: "hello"}))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestAskHandler_Stream_ErrorMidStream(t *testing.T) {
	ctrl := gomock.NewController(t)
	advisor := mocks.NewMockAdvisorService(ctrl)
	advisor.EXPECT().StreamAsk(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ service.AskRequest, cb func(string) error) (rag.Bundle, error) {
			_ = cb("partial")
			return rag.Bundle{}, fmt.Errorf("failed to stream LLM response: %w", service.ErrExternalService)
		})

	w := httptest.NewRecorder()
	NewAskHandler(advisor).ServeHTTP(w, postJSON(t, "/api/v1/ask?stream=true", AskRequest{Question: "hello"}))

	body := w.Body.String()
	if w.Code != http.StatusOK || !strings.Contains(body, "event: error") {
		t.Errorf("status = %d body = %q, want an error event", w.Code, body)
	}
	if strings.Contains(body, "[DONE]") {
		t.Error("interrupted stream sent [DONE]")
	}
}
