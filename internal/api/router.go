package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/raido/internal/engine"
	"github.com/starford/raido/internal/journal"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(eng *engine.Engine, jr journal.Recorder, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(eng, jr)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/waypoints", h.ListWaypoints)
	r.Get("/rebuilds", h.ListRebuilds)
	r.Get("/tree", h.Tree)
	r.Post("/rebuild", h.Rebuild)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
