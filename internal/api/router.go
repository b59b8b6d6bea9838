package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling
	r.Use(CORSMiddleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// All API routes will be under /api
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", apiHandler.HealthHandler)

		r.Post("/ai/chat", apiHandler.ChatHandler)

		r.Post("/drops/search", apiHandler.SearchDropsHandler)
		r.Post("/drops/sync", apiHandler.SyncDropsHandler)

		r.Get("/memory/retrieve", apiHandler.RetrieveMemoryHandler)
		r.Post("/memory/retrieve", apiHandler.RetrieveMemoryHandler)
		r.Post("/memory/store", apiHandler.StoreMemoryHandler)

		// Token-authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.AuthMiddleware)
			r.Post("/memory/context", apiHandler.MemoryContextHandler)
		})
	})

	return r
}
