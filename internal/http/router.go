package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"campus-advisor/internal/handlers"
	"campus-advisor/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Advisor service.AdvisorService
	// Catalog reports whether an index is loaded.
	Catalog handlers.CatalogSource
	// Reindexer is optional; without it the index routes are not mounted.
	Reindexer handlers.Reindexer
	// VectorStore is optional; without it health skips the collection check.
	VectorStore    handlers.CollectionInspector
	CollectionName string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	contextHandler := handlers.NewContextHandler(deps.Advisor)
	askHandler := handlers.NewAskHandler(deps.Advisor)
	catalogHandler := handlers.NewCatalogHandler(deps.Advisor)
	healthHandler := handlers.NewHealthHandler(deps.Catalog, deps.Reindexer, deps.VectorStore, deps.CollectionName)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)

		r.Route("/v1", func(r chi.Router) {
			r.Method(http.MethodPost, "/context", contextHandler)
			r.Method(http.MethodPost, "/ask", askHandler)

			r.Get("/modules", catalogHandler.ListModules)
			r.Get("/modules/{code}", catalogHandler.GetModule)
			r.Get("/chunks/{id}", catalogHandler.GetChunk)

			if deps.Reindexer != nil {
				indexHandler := handlers.NewIndexHandler(deps.Reindexer)
				r.Post("/index", indexHandler.Trigger)
				r.Get("/index/status", indexHandler.Status)
			}
		})
	})

	return r
}
