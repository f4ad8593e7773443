package handlers

import (
	"context"
	"net/http"

	"campus-advisor/internal/contextutil"
	"campus-advisor/internal/indexer"
)

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_reindexer.go -package=mocks campus-advisor/internal/handlers Reindexer

// Reindexer runs ingestion in the background.
type Reindexer interface {
	// Start launches a run and reports false if one is already active.
	Start(ctx context.Context) bool
	Status() indexer.Status
}

// IndexHandler handles HTTP requests for triggering re-indexing.
type IndexHandler struct {
	reindexer Reindexer
}

// NewIndexHandler creates a new IndexHandler.
func NewIndexHandler(reindexer Reindexer) *IndexHandler {
	return &IndexHandler{reindexer: reindexer}
}

// IndexResponse represents the response from the index endpoint.
//
// swagger:model IndexResponse
type IndexResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Trigger handles POST /api/v1/index.
//
// swagger:route POST /api/v1/index reindex
//
// # Re-ingest the data directory
//
// Starts an ingestion run in the background. Queries keep using the
// current index until the new one is published.
//
// ---
// produces:
// - application/json
// responses:
//
//	'202':
//	  schema:
//	    "$ref": "#/definitions/IndexResponse"
//	'409':
//	  schema:
//	    "$ref": "#/definitions/IndexResponse"
func (h *IndexHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if !h.reindexer.Start(ctx) {
		logger.InfoContext(ctx, "re-indexing already running")
		writeJSON(ctx, w, http.StatusConflict, IndexResponse{
			Message: "Indexing is already running.",
			Status:  string(indexer.StateRunning),
		})
		return
	}

	logger.InfoContext(ctx, "re-indexing triggered via API")
	writeJSON(ctx, w, http.StatusAccepted, IndexResponse{
		Message: "Indexing started. Poll /api/v1/index/status for progress.",
		Status:  "accepted",
	})
}

// Status handles GET /api/v1/index/status and returns the most recent
// ingestion run with its report.
func (h *IndexHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, h.reindexer.Status())
}
