package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"campus-advisor/internal/catalog"
	"campus-advisor/internal/contextutil"
	"campus-advisor/internal/indexer"
	"campus-advisor/internal/vectorstore"
)

// CatalogSource exposes the loaded entity index, nil before the first load.
type CatalogSource interface {
	Catalog() *catalog.Index
}

// CollectionInspector reports on a vector store collection.
type CollectionInspector interface {
	CollectionInfo(ctx context.Context, collection string) (*vectorstore.CollectionInfo, error)
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	catalog            CatalogSource
	reindexer          Reindexer
	vectorStore        CollectionInspector
	collectionName     string
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler. reindexer and vectorStore
// may be nil; their checks are then skipped.
func NewHealthHandler(catalog CatalogSource, reindexer Reindexer, vectorStore CollectionInspector, collectionName string) *HealthHandler {
	return &HealthHandler{
		catalog:            catalog,
		reindexer:          reindexer,
		vectorStore:        vectorStore,
		collectionName:     collectionName,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
//
// swagger:model HealthResponse
type HealthResponse struct {
	// Overall health status: "healthy", "degraded", or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// List of issues (only present if status is degraded or unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles HTTP requests for health checks.
//
// swagger:route GET /api/health healthCheck
//
// # Health check endpoint
//
// Unhealthy (503) when no index is loaded or the vector store collection is
// unreachable. Degraded (200) when the last re-indexing failed but an older
// index is still serving.
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: System is healthy or degraded
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
//	'503':
//	  description: System is unhealthy
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string)
	var issues []string
	unhealthy := false

	if idx := h.catalog.Catalog(); idx != nil {
		checks["index"] = "ok"
	} else {
		checks["index"] = "not_loaded"
		issues = append(issues, "index_not_loaded")
		unhealthy = true
	}

	if h.vectorStore != nil {
		if h.checkVectorStore(checkCtx, logger) {
			checks["vector_store"] = "ok"
		} else {
			checks["vector_store"] = "error"
			issues = append(issues, "vector_store_unavailable")
			unhealthy = true
		}
	}

	if h.reindexer != nil {
		st := h.reindexer.Status()
		checks["ingestion"] = string(st.State)
		if st.State == indexer.StateFailed {
			issues = append(issues, "last_ingestion_failed")
		}
	}

	status := "healthy"
	httpStatus := http.StatusOK
	switch {
	case unhealthy:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	case len(issues) > 0:
		status = "degraded"
	}

	writeJSON(ctx, w, httpStatus, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Issues:    issues,
	})
}

// checkVectorStore checks if the vector store collection is reachable.
func (h *HealthHandler) checkVectorStore(ctx context.Context, logger *slog.Logger) bool {
	info, err := h.vectorStore.CollectionInfo(ctx, h.collectionName)
	if err != nil {
		logger.WarnContext(ctx, "vector store health check failed", "error", err)
		return false
	}
	logger.DebugContext(ctx, "vector store collection", "collection", h.collectionName, "points", info.PointsCount, "status", info.Status)
	return true
}
