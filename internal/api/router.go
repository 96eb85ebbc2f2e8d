package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes.
	r.Get("/notes", h.ListNotes)
	r.Get("/notes/resolve", h.GetNote)
	r.Post("/notes/upsert", h.Upsert)

	// Graph queries.
	r.Get("/backlinks", h.Backlinks)
	r.Get("/orphans", h.Orphans)
	r.Get("/missing", h.Missing)
	r.Get("/missing/by-source", h.MissingBySource)
	r.Get("/traverse", h.Traverse)
	r.Get("/stats", h.Stats)
	r.Post("/rebuild", h.Rebuild)

	// Search.
	r.Get("/search", h.Search)
	r.Get("/tags", h.CanonicalTags)
	r.Get("/tags/{tag}", h.NotesByTag)
	r.Get("/untagged", h.Untagged)
	r.Get("/similar", h.SimilarNames)

	// SSE endpoint (protected by the same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
