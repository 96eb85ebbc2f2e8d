// Package noteservice orchestrates the vault scanner, link graph, filter, and
// search layers behind one API consumed by the HTTP and MCP transports.
package noteservice

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/filter"
	"github.com/starford/ansuz/internal/graph"
	"github.com/starford/ansuz/internal/markdown"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/search"
	"github.com/starford/ansuz/internal/sse"
	"github.com/starford/ansuz/internal/storage"
)

// Service coordinates graph mutations and read-only queries. The graph's own
// lock serialises rebuild/upsert against in-flight reads; every query here is
// a pure read over the current snapshot.
type Service struct {
	store  storage.Provider
	state  *graph.State
	broker *sse.Broker // optional
	logger *slog.Logger
}

// NewService creates a new note service. broker may be nil.
func NewService(store storage.Provider, state *graph.State, broker *sse.Broker, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, state: state, broker: broker, logger: logger}
}

// Rebuild recomputes the whole graph from a fresh vault scan and swaps it in.
// Returns the number of reachable notes after the rebuild.
func (s *Service) Rebuild(_ context.Context) (int, error) {
	files, err := s.store.Scan()
	if err != nil {
		return 0, fmt.Errorf("noteservice: rebuild scan: %w", err)
	}
	s.state.Build(files)
	count := s.state.NoteCount()
	s.logger.Info("graph rebuilt", slog.Int("files", len(files)), slog.Int("notes", count))
	if s.broker != nil {
		s.broker.PublishRebuilt(count)
	}
	return count, nil
}

// UpsertNote re-reads and re-parses the single file at path, patching the
// graph in place. Re-parsing is skipped when the content checksum is
// unchanged from the currently indexed note at that path.
func (s *Service) UpsertNote(_ context.Context, path string) (*models.Note, error) {
	file, err := s.store.Read(path)
	if err != nil {
		return nil, apperr.ErrNotFound
	}

	note := markdown.ParseNote(file.Path, file.Content, file.ModifiedAt)
	if existing, ok := s.state.Resolve(note.Name); ok {
		if existing.Path == note.Path && existing.Checksum == note.Checksum {
			return existing, nil
		}
	}

	s.state.Upsert(note)
	s.logger.Debug("note upserted", slog.String("path", path))
	if s.broker != nil {
		s.broker.PublishUpserted(path)
	}
	return note, nil
}

// ResolveNote looks a note up by exact then fuzzy name.
func (s *Service) ResolveNote(_ context.Context, name string) (*models.Note, error) {
	note, ok := s.state.Resolve(name)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return note, nil
}

// ListNotes returns the filtered note collection, paginated, sorted by name.
func (s *Service) ListNotes(_ context.Context, fo filter.Options, pg filter.Page) filter.PageResult[*models.Note] {
	c := filter.Compile(fo)
	return filter.Paginate(c.Apply(s.state.AllNotes()), pg)
}

// Traverse runs a BFS from one or more start names.
func (s *Service) Traverse(_ context.Context, roots []string, opts graph.TraverseOptions) (*graph.TraverseResult, error) {
	return s.state.Traverse(roots, opts)
}

// Backlinks returns the notes referencing name.
func (s *Service) Backlinks(_ context.Context, name string, fo filter.Options, pg filter.Page) filter.PageResult[*models.Note] {
	return s.state.Backlinks(name, filter.Compile(fo), pg)
}

// Orphans returns notes with no incoming links.
func (s *Service) Orphans(_ context.Context, fo filter.Options, pg filter.Page) filter.PageResult[*models.Note] {
	return s.state.Orphans(filter.Compile(fo), pg)
}

// MissingNotes reports broken link targets, grouped by target.
func (s *Service) MissingNotes(_ context.Context, kind string, sources []string, fo filter.Options, pg filter.Page) filter.PageResult[graph.MissingNote] {
	return s.state.MissingNotes(kind, sources, filter.Compile(fo), pg)
}

// MissingNotesBySource reports broken link targets, grouped by referrer.
func (s *Service) MissingNotesBySource(_ context.Context, kind string, fo filter.Options, pg filter.Page) filter.PageResult[graph.MissingBySource] {
	return s.state.MissingNotesBySource(kind, filter.Compile(fo), pg)
}

// Stats aggregates graph-wide figures.
func (s *Service) Stats(_ context.Context) graph.Stats {
	return s.state.ComputeStats()
}

// Search scans note content (and optionally names) for a query.
func (s *Service) Search(_ context.Context, query string, opts search.Options, fo filter.Options, pg filter.Page) filter.PageResult[search.Match] {
	return search.Content(s.state.AllNotes(), query, opts, filter.Compile(fo), pg)
}

// NotesByTag returns notes carrying the given tag.
func (s *Service) NotesByTag(_ context.Context, tag string, fo filter.Options, pg filter.Page) filter.PageResult[*models.Note] {
	return search.ByTag(s.state.AllNotes(), tag, filter.Compile(fo), pg)
}

// UntaggedNotes returns notes with no tags at all.
func (s *Service) UntaggedNotes(_ context.Context, fo filter.Options, pg filter.Page) filter.PageResult[*models.Note] {
	return search.Untagged(s.state.AllNotes(), filter.Compile(fo), pg)
}

// SimilarNames returns note names within edit distance threshold of name.
func (s *Service) SimilarNames(_ context.Context, name string, threshold int, pg filter.Page) filter.PageResult[search.SimilarName] {
	if threshold <= 0 {
		threshold = 2
	}
	return search.SimilarNames(s.state.AllNotes(), name, threshold, pg)
}

// CanonicalTags returns the configured tag vocabulary, if any.
func (s *Service) CanonicalTags(_ context.Context) []string {
	return s.state.CanonicalTags()
}
