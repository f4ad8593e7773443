package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"campus-advisor/internal/contextutil"
	"campus-advisor/internal/llm"
	"campus-advisor/internal/rag"
	"campus-advisor/internal/service"
)

// AskRequest is the HTTP request payload for advisor questions.
//
// swagger:model AskRequest
type AskRequest struct {
	// The student's question
	Question string `json:"question"`

	// Earlier conversation turns, oldest first. Roles are "user" or "assistant".
	History []llm.Message `json:"history,omitempty"`
}

func (r AskRequest) toService() service.AskRequest {
	return service.AskRequest{Question: r.Question, History: r.History}
}

// AskResponse is the HTTP response payload for advisor questions.
//
// swagger:model AskResponse
type AskResponse struct {
	// The generated answer
	Answer string `json:"answer"`

	// The context bundle the answer was grounded on
	Context rag.Bundle `json:"context"`
}

// streamChunk is one SSE data frame of a streamed answer.
type streamChunk struct {
	Chunk string `json:"chunk"`
}

func decodeAsk(w http.ResponseWriter, r *http.Request) (AskRequest, bool) {
	ctx := r.Context()
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return AskRequest{}, false
	}
	return req, true
}

// ContextHandler returns the context bundle for a question without
// generating an answer.
type ContextHandler struct {
	advisor service.AdvisorService
}

// NewContextHandler creates a new ContextHandler.
func NewContextHandler(advisor service.AdvisorService) *ContextHandler {
	return &ContextHandler{advisor: advisor}
}

// ServeHTTP handles HTTP requests for context bundles.
//
// swagger:route POST /api/v1/context answerContext
//
// # Build the answer context for a question
//
// Classifies the question and returns the structured catalog data or the
// retrieved document excerpts an answer would be grounded on.
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Context bundle
//	'400':
//	  description: Invalid question or history
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'503':
//	  description: Index not loaded or embedding service unavailable
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *ContextHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := decodeAsk(w, r)
	if !ok {
		return
	}

	bundle, err := h.advisor.Context(ctx, req.toService())
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to build context")
		return
	}
	writeJSON(ctx, w, http.StatusOK, bundle)
}

// AskHandler answers questions, optionally streaming the answer.
type AskHandler struct {
	advisor service.AdvisorService
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(advisor service.AdvisorService) *AskHandler {
	return &AskHandler{advisor: advisor}
}

// ServeHTTP handles HTTP requests for advisor answers.
//
// swagger:route POST /api/v1/ask askQuestion
//
// # Ask the study advisor
//
// Builds the context for the question and generates an answer from it.
// With `stream=true` the answer is sent as Server-Sent Events: one
// `{"chunk": ...}` frame per piece, a `context` event carrying the bundle,
// then `[DONE]`.
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// - text/event-stream
// parameters:
//   - in: body
//     name: body
//     required: true
//     schema:
//     "$ref": "#/definitions/AskRequest"
//   - in: query
//     name: stream
//     type: boolean
//     required: false
//
// responses:
//
//	'200':
//	  description: Answer with its context
//	  schema:
//	    "$ref": "#/definitions/AskResponse"
//	'400':
//	  description: Invalid question or history
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'502':
//	  description: Generation service rejected the request
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'503':
//	  description: Index not loaded or model service unavailable
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := decodeAsk(w, r)
	if !ok {
		return
	}

	if stream := strings.ToLower(r.URL.Query().Get("stream")); stream == "true" || stream == "1" {
		h.serveStream(w, r, req)
		return
	}

	resp, err := h.advisor.Ask(ctx, req.toService())
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to answer question")
		return
	}
	writeJSON(ctx, w, http.StatusOK, AskResponse{Answer: resp.Answer, Context: resp.Bundle})
}

// serveStream answers using Server-Sent Events. Errors raised before the
// first frame get a regular JSON error response.
func (h *AskHandler) serveStream(w http.ResponseWriter, r *http.Request, req AskRequest) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.ErrorContext(ctx, "streaming not supported by response writer")
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	started := false
	start := func() {
		if started {
			return
		}
		started = true
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
	}

	bundle, err := h.advisor.StreamAsk(ctx, req.toService(), func(chunk string) error {
		start()
		data, err := json.Marshal(streamChunk{Chunk: chunk})
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		if !started {
			handleServiceError(w, ctx, err, "Failed to answer question")
			return
		}
		logger.ErrorContext(ctx, "error streaming answer", "error", err)
		data, _ := json.Marshal(ErrorResponse{Error: "stream interrupted"})
		_, _ = fmt.Fprintf(w, "event: error\ndata: %s\n\n", data)
		flusher.Flush()
		return
	}

	start()
	if data, err := json.Marshal(bundle); err == nil {
		_, _ = fmt.Fprintf(w, "event: context\ndata: %s\n\n", data)
	} else {
		logger.ErrorContext(ctx, "failed to encode context bundle", "error", err)
	}
	_, _ = fmt.Fprintf(w, "data: [DONE]\n\n")
	flusher.Flush()
}
