package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"campus-advisor/internal/catalog"
	"campus-advisor/internal/service"
)

// ModulesResponse lists catalog modules.
//
// swagger:model ModulesResponse
type ModulesResponse struct {
	Modules []catalog.ModuleRecord `json:"modules"`
	Count   int                    `json:"count"`
}

// ModuleResponse is one module with its weekly sessions.
//
// swagger:model ModuleResponse
type ModuleResponse struct {
	Module   catalog.ModuleRecord    `json:"module"`
	Schedule []catalog.ScheduleEntry `json:"schedule"`
}

// CatalogHandler exposes the entity index read-only.
type CatalogHandler struct {
	advisor service.AdvisorService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(advisor service.AdvisorService) *CatalogHandler {
	return &CatalogHandler{advisor: advisor}
}

// ListModules handles GET /api/v1/modules?semester=N&season=winter.
//
// swagger:route GET /api/v1/modules listModules
//
// # List modules
//
// Without parameters every module is returned. `semester` selects the
// modules of that semester, `season` the modules taught in that term.
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  schema:
//	    "$ref": "#/definitions/ModulesResponse"
//	'400':
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'503':
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *CatalogHandler) ListModules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var q service.ModulesQuery

	if raw := r.URL.Query().Get("semester"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "semester must be a number")
			return
		}
		q.Semester = n
	}
	season, err := catalog.ParseSeason(r.URL.Query().Get("season"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	q.Season = season

	modules, err := h.advisor.Modules(ctx, q)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to list modules")
		return
	}
	if modules == nil {
		modules = []catalog.ModuleRecord{}
	}
	writeJSON(ctx, w, http.StatusOK, ModulesResponse{Modules: modules, Count: len(modules)})
}

// GetModule handles GET /api/v1/modules/{code}.
//
// swagger:route GET /api/v1/modules/{code} getModule
//
// # Get one module with its schedule
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  schema:
//	    "$ref": "#/definitions/ModuleResponse"
//	'404':
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *CatalogHandler) GetModule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	detail, err := h.advisor.Module(ctx, chi.URLParam(r, "code"))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to load module")
		return
	}
	schedule := detail.Schedule
	if schedule == nil {
		schedule = []catalog.ScheduleEntry{}
	}
	writeJSON(ctx, w, http.StatusOK, ModuleResponse{Module: detail.Module, Schedule: schedule})
}

// GetChunk handles GET /api/v1/chunks/{id}, resolving a chunk ID cited in a
// context bundle to its text and source.
func (h *CatalogHandler) GetChunk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	chunk, err := h.advisor.Chunk(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to load chunk")
		return
	}
	writeJSON(ctx, w, http.StatusOK, chunk)
}
