// Package graph builds and queries the in-memory link graph of a vault.
//
// The graph is keyed by normalized note names. It is built wholesale from a
// vault scan, swapped atomically on rebuild, and patched for a single file by
// upsert. All query operations are pure reads; an internal RWMutex gives the
// single-writer many-reader discipline, so readers always observe either the
// pre- or post-mutation state in full.
package graph

import (
	"runtime"
	"sort"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/starford/ansuz/internal/markdown"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/storage"
)

// Link types reported by traversal and adjacency queries.
const (
	LinkTypeWikilink = "wikilink"
	LinkTypeEmbed    = "embed"
)

// State is the process-wide graph for one vault.
type State struct {
	mu sync.RWMutex

	// notes maps normalized name key → note. Name collisions overwrite:
	// only the last-inserted note per key is reachable by name.
	notes map[string]*models.Note
	// forward maps source key → set of distinct normalized link targets.
	forward map[string]map[string]struct{}
	// backward is the inverse of forward. It includes entries for targets
	// that have no note, so backlink queries work on missing names too.
	backward map[string]map[string]struct{}
	// missing maps target key → referrer set, only for broken targets.
	missing map[string]map[string]struct{}
	// linkType records the first-occurring link type per (source, target).
	linkType map[string]map[string]string
	// fuzzy maps fuzzy-normalized name → first exact key seen with that
	// form, in build order.
	fuzzy map[string]string

	// vocabNote is the designated tag-vocabulary note name, may be empty.
	vocabNote     string
	canonicalTags map[string]struct{}
}

// NewState creates an empty graph. vocabNote, when non-empty, names the note
// whose tags form the canonical tag vocabulary.
func NewState(vocabNote string) *State {
	s := &State{vocabNote: vocabNote}
	s.resetLocked()
	return s
}

func (s *State) resetLocked() {
	s.notes = make(map[string]*models.Note)
	s.forward = make(map[string]map[string]struct{})
	s.backward = make(map[string]map[string]struct{})
	s.missing = make(map[string]map[string]struct{})
	s.linkType = make(map[string]map[string]string)
	s.fuzzy = make(map[string]string)
	s.canonicalTags = nil
}

// NormalizeName is the exact lookup key for a note name: trimmed and
// case-folded.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// FuzzyName is the fallback lookup key: exact-normalized, separator characters
// (dash, underscore, whitespace) removed, then NFD-decomposed with everything
// outside printable ASCII dropped. This strips diacritics and non-ASCII
// scripts, so "Café-Notes" and "cafe notes" share one fuzzy form.
func FuzzyName(name string) string {
	exact := NormalizeName(name)
	var b strings.Builder
	b.Grow(len(exact))
	for _, r := range norm.NFD.String(exact) {
		if r == '-' || r == '_' || unicode.IsSpace(r) {
			continue
		}
		if r < 0x20 || r > 0x7e {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Build computes the whole graph from a vault snapshot and swaps it in.
// A rebuild is the same operation on a fresh scan: callers holding the State
// see the update, the internal collections are replaced wholesale.
func (s *State) Build(files []storage.RawFile) {
	parsed := parseAll(files)

	next := NewState(s.vocabNote)
	for _, note := range parsed {
		next.insert(note)
	}
	next.indexAdjacency()
	next.refreshCanonicalTags()

	s.mu.Lock()
	s.notes = next.notes
	s.forward = next.forward
	s.backward = next.backward
	s.missing = next.missing
	s.linkType = next.linkType
	s.fuzzy = next.fuzzy
	s.canonicalTags = next.canonicalTags
	s.mu.Unlock()
}

// parseAll parses file triples concurrently, preserving scan order so that
// name collisions keep last-write-wins semantics.
func parseAll(files []storage.RawFile) []*models.Note {
	parsed := make([]*models.Note, len(files))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, f := range files {
		g.Go(func() error {
			parsed[i] = markdown.ParseNote(f.Path, f.Content, f.ModifiedAt)
			return nil
		})
	}
	_ = g.Wait() // parsing is total, no error outcome
	return parsed
}

// insert registers a note under its key and fuzzy form. Adjacency is indexed
// separately once all notes are present.
func (s *State) insert(note *models.Note) {
	key := NormalizeName(note.Name)
	if key == "" {
		return
	}
	s.notes[key] = note
	if fz := FuzzyName(note.Name); fz != "" {
		if _, taken := s.fuzzy[fz]; !taken {
			s.fuzzy[fz] = key
		}
	}
}

// indexAdjacency populates forward, backward, missing, and linkType from the
// final notes map.
func (s *State) indexAdjacency() {
	for key, note := range s.notes {
		s.addAdjacency(key, note)
	}
}

func (s *State) addAdjacency(key string, note *models.Note) {
	targets := make(map[string]struct{})
	types := make(map[string]string)
	for _, wl := range note.Wikilinks {
		tgt := NormalizeName(wl.Name)
		if tgt == "" {
			continue
		}
		targets[tgt] = struct{}{}
		if _, seen := types[tgt]; !seen {
			types[tgt] = linkTypeOf(wl)
		}
	}
	s.forward[key] = targets
	s.linkType[key] = types

	for tgt := range targets {
		if s.backward[tgt] == nil {
			s.backward[tgt] = make(map[string]struct{})
		}
		s.backward[tgt][key] = struct{}{}

		if _, exists := s.notes[tgt]; !exists {
			if s.missing[tgt] == nil {
				s.missing[tgt] = make(map[string]struct{})
			}
			s.missing[tgt][key] = struct{}{}
		}
	}
}

// removeAdjacency drops every contribution of key to forward, backward, and
// missing, leaving other sources untouched.
func (s *State) removeAdjacency(key string) {
	for tgt := range s.forward[key] {
		if set := s.backward[tgt]; set != nil {
			delete(set, key)
			if len(set) == 0 {
				delete(s.backward, tgt)
			}
		}
		if set := s.missing[tgt]; set != nil {
			delete(set, key)
			if len(set) == 0 {
				delete(s.missing, tgt)
			}
		}
	}
	delete(s.forward, key)
	delete(s.linkType, key)
}

// Upsert re-ingests a single parsed note. Old forward/backward/missing
// contributions of its key are removed before the fresh ones are added, so
// stale adjacency never survives. This is the only incremental mutation path.
func (s *State) Upsert(note *models.Note) {
	key := NormalizeName(note.Name)
	if key == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, existed := s.notes[key]; existed {
		s.removeAdjacency(key)
	}
	s.notes[key] = note
	if fz := FuzzyName(note.Name); fz != "" {
		if _, taken := s.fuzzy[fz]; !taken {
			s.fuzzy[fz] = key
		}
	}
	s.addAdjacency(key, note)

	// The key now names an existing note, so links to it are no longer
	// broken; referrers stay in backward.
	delete(s.missing, key)

	if s.vocabNote != "" && key == NormalizeName(s.vocabNote) {
		s.refreshCanonicalTags()
	}
}

// Resolve looks a note up by name: exact-normalized first, fuzzy fallback.
// The boolean is false when both lookups miss.
func (s *State) Resolve(name string) (*models.Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolveLocked(name)
}

func (s *State) resolveLocked(name string) (*models.Note, bool) {
	if n, ok := s.notes[NormalizeName(name)]; ok {
		return n, true
	}
	if key, ok := s.fuzzy[FuzzyName(name)]; ok {
		if n, ok := s.notes[key]; ok {
			return n, true
		}
	}
	return nil, false
}

// NoteCount returns the number of reachable notes.
func (s *State) NoteCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notes)
}

// AllNotes returns a snapshot of every reachable note, sorted by name.
func (s *State) AllNotes() []*models.Note {
	s.mu.RLock()
	out := make([]*models.Note, 0, len(s.notes))
	for _, n := range s.notes {
		out = append(out, n)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// CanonicalTags returns the tag vocabulary derived from the designated
// vocabulary note, or nil when none is configured or present.
func (s *State) CanonicalTags() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.canonicalTags == nil {
		return nil
	}
	out := make([]string, 0, len(s.canonicalTags))
	for t := range s.canonicalTags {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (s *State) refreshCanonicalTags() {
	if s.vocabNote == "" {
		s.canonicalTags = nil
		return
	}
	note, ok := s.resolveLocked(s.vocabNote)
	if !ok {
		s.canonicalTags = nil
		return
	}
	tags := make(map[string]struct{})
	for _, t := range note.AllTags() {
		tags[strings.ToLower(t)] = struct{}{}
	}
	s.canonicalTags = tags
}

func linkTypeOf(wl models.Wikilink) string {
	if wl.Embed {
		return LinkTypeEmbed
	}
	return LinkTypeWikilink
}
