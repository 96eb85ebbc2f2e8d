package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/graph"
	"github.com/starford/ansuz/internal/noteservice"
	"github.com/starford/ansuz/internal/search"
)

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// ListNotes handles GET /notes.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	page := h.svc.ListNotes(r.Context(), filterFromQuery(r), pageFromQuery(r))
	writeJSON(w, http.StatusOK, summaryPage(page))
}

// GetNote handles GET /notes/resolve?name=. Exact lookup first, fuzzy
// fallback; 404 when both miss.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	note, err := h.svc.ResolveNote(r.Context(), name)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		slog.Error("resolve failed", slog.String("name", name), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Backlinks handles GET /backlinks?name=.
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	page := h.svc.Backlinks(r.Context(), name, filterFromQuery(r), pageFromQuery(r))
	writeJSON(w, http.StatusOK, summaryPage(page))
}

// Orphans handles GET /orphans.
func (h *Handler) Orphans(w http.ResponseWriter, r *http.Request) {
	page := h.svc.Orphans(r.Context(), filterFromQuery(r), pageFromQuery(r))
	writeJSON(w, http.StatusOK, summaryPage(page))
}

// Missing handles GET /missing (broken links grouped by target).
func (h *Handler) Missing(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := h.svc.MissingNotes(r.Context(), q.Get("kind"), q["source"], filterFromQuery(r), pageFromQuery(r))
	writeJSON(w, http.StatusOK, page)
}

// MissingBySource handles GET /missing/by-source.
func (h *Handler) MissingBySource(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := h.svc.MissingNotesBySource(r.Context(), q.Get("kind"), filterFromQuery(r), pageFromQuery(r))
	writeJSON(w, http.StatusOK, page)
}

// Traverse handles GET /traverse?from=A&from=B&depth=N.
func (h *Handler) Traverse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	roots := q["from"]
	if len(roots) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("from is required"))
		return
	}
	depth, _ := strconv.Atoi(q.Get("depth"))
	if depth <= 0 {
		depth = 2
	}
	result, err := h.svc.Traverse(r.Context(), roots, graph.TraverseOptions{
		MaxDepth:       depth,
		ExcludeFolders: q["exclude_folder"],
	})
	if err != nil {
		var unresolved *graph.UnresolvedRootError
		if errors.As(err, &unresolved) {
			writeJSON(w, http.StatusNotFound, errorBody("unresolved root: "+unresolved.Name))
			return
		}
		slog.Error("traverse failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Search handles GET /search?q=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("q is required"))
		return
	}
	opts := search.DefaultOptions()
	opts.Regex = q.Get("regex") == "true"
	opts.WholeWord = q.Get("whole_word") == "true"
	if q.Get("multi_term") == "false" {
		opts.MultiTerm = false
	}
	opts.IncludeNames = q.Get("include_names") == "true"
	opts.Folder = q.Get("in_folder")

	page := h.svc.Search(r.Context(), query, opts, filterFromQuery(r), pageFromQuery(r))
	writeJSON(w, http.StatusOK, page)
}

// NotesByTag handles GET /tags/{tag}.
func (h *Handler) NotesByTag(w http.ResponseWriter, r *http.Request) {
	tag := chi.URLParam(r, "tag")
	if tag == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("tag is required"))
		return
	}
	page := h.svc.NotesByTag(r.Context(), tag, filterFromQuery(r), pageFromQuery(r))
	writeJSON(w, http.StatusOK, summaryPage(page))
}

// Untagged handles GET /untagged.
func (h *Handler) Untagged(w http.ResponseWriter, r *http.Request) {
	page := h.svc.UntaggedNotes(r.Context(), filterFromQuery(r), pageFromQuery(r))
	writeJSON(w, http.StatusOK, summaryPage(page))
}

// SimilarNames handles GET /similar?name=&threshold=.
func (h *Handler) SimilarNames(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("name")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	threshold, _ := strconv.Atoi(q.Get("threshold"))
	page := h.svc.SimilarNames(r.Context(), name, threshold, pageFromQuery(r))
	writeJSON(w, http.StatusOK, page)
}

// Stats handles GET /stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Stats(r.Context()))
}

// CanonicalTags handles GET /tags.
func (h *Handler) CanonicalTags(w http.ResponseWriter, r *http.Request) {
	tags := h.svc.CanonicalTags(r.Context())
	if tags == nil {
		tags = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

// Rebuild handles POST /rebuild.
func (h *Handler) Rebuild(w http.ResponseWriter, r *http.Request) {
	count, err := h.svc.Rebuild(r.Context())
	if err != nil {
		slog.Error("rebuild failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"notes": count})
}

// Upsert handles POST /notes/upsert with body {"path": "..."}.
func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	note, err := h.svc.UpsertNote(r.Context(), req.Path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		slog.Error("upsert failed", slog.String("path", req.Path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, note)
}
