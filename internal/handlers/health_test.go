package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/mock/gomock"

	"campus-advisor/internal/catalog"
	"campus-advisor/internal/handlers/mocks"
	"campus-advisor/internal/indexer"
	"campus-advisor/internal/vectorstore"
)

type staticCatalog struct{ idx *catalog.Index }

func (s staticCatalog) Catalog() *catalog.Index { return s.idx }

type stubInspector struct{ err error }

func (s stubInspector) CollectionInfo(context.Context, string) (*vectorstore.CollectionInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &vectorstore.CollectionInfo{VectorSize: 384, PointsCount: 10, Status: "Green"}, nil
}

func TestHealthHandler_ServeHTTP(t *testing.T) {
	loaded := staticCatalog{idx: catalog.NewIndex(nil, nil)}

	tests := []struct {
		name       string
		catalog    CatalogSource
		inspector  CollectionInspector
		state      indexer.State
		wantStatus int
		wantHealth string
		wantIssues []string
	}{
		{name: "healthy", catalog: loaded, inspector: stubInspector{}, state: indexer.StateSucceeded,
			wantStatus: http.StatusOK, wantHealth: "healthy"},
		{name: "no vector store configured", catalog: loaded, state: indexer.StateIdle,
			wantStatus: http.StatusOK, wantHealth: "healthy"},
		{name: "index not loaded", catalog: staticCatalog{}, state: indexer.StateRunning,
			wantStatus: http.StatusServiceUnavailable, wantHealth: "unhealthy", wantIssues: []string{"index_not_loaded"}},
		{name: "vector store down", catalog: loaded, inspector: stubInspector{err: errors.New("connection refused")}, state: indexer.StateSucceeded,
			wantStatus: http.StatusServiceUnavailable, wantHealth: "unhealthy", wantIssues: []string{"vector_store_unavailable"}},
		{name: "last ingestion failed", catalog: loaded, state: indexer.StateFailed,
			wantStatus: http.StatusOK, wantHealth: "degraded", wantIssues: []string{"last_ingestion_failed"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			reindexer := mocks.NewMockReindexer(ctrl)
			reindexer.EXPECT().Status().Return(indexer.Status{State: tt.state})

			h := NewHealthHandler(tt.catalog, reindexer, tt.inspector, "modules")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var resp HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Status != tt.wantHealth {
				t.Errorf("Status = %q, want %q", resp.Status, tt.wantHealth)
			}
			if len(resp.Issues) != len(tt.wantIssues) {
				t.Fatalf("Issues = %v, want %v", resp.Issues, tt.wantIssues)
			}
			for i := range resp.Issues {
				if resp.Issues[i] != tt.wantIssues[i] {
					t.Errorf("Issues[%d] = %q, want %q", i, resp.Issues[i], tt.wantIssues[i])
				}
			}
			if resp.Checks["ingestion"] != string(tt.state) {
				t.Errorf("Checks[ingestion] = %q, want %q", resp.Checks["ingestion"], tt.state)
			}
		})
	}
}
