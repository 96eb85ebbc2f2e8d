package graph

import (
	"fmt"
	"sort"

	"github.com/starford/ansuz/internal/filter"
	"github.com/starford/ansuz/internal/models"
)

// TraverseOptions controls breadth-first traversal.
type TraverseOptions struct {
	// MaxDepth bounds expansion; roots are depth 0.
	MaxDepth int
	// ExcludeFolders prunes targets whose note path falls under any of the
	// listed folder prefixes. Pruned notes are never visited but do not
	// block other routes to shared neighbours.
	ExcludeFolders []string
}

// TraversedNote is one visited note with its BFS depth and the link type of
// whichever already-visited source first discovered it ("" for a root).
type TraversedNote struct {
	Note     *models.Note `json:"note"`
	Depth    int          `json:"depth"`
	LinkType string       `json:"link_type,omitempty"`
}

// MissingRef is one broken target encountered during traversal, with the
// names of every visited note that referenced it.
type MissingRef struct {
	Name      string   `json:"name"`
	Referrers []string `json:"referrers"`
}

// TraverseResult is the output of a traversal.
type TraverseResult struct {
	Roots   []string        `json:"roots"`
	Notes   []TraversedNote `json:"notes"`
	Missing []MissingRef    `json:"missing"`
}

// UnresolvedRootError reports a traversal start name that resolved to no note.
type UnresolvedRootError struct {
	Name string
}

func (e *UnresolvedRootError) Error() string {
	return fmt.Sprintf("graph: unresolved traversal root: %q", e.Name)
}

// Traverse runs a breadth-first search from one or more start names. Every
// root must resolve or the whole call fails with *UnresolvedRootError (fast,
// on the first unresolvable name). Each note is expanded once; since all
// edges have unit weight the first visit is always at minimum depth. Output
// notes are sorted by (depth ascending, name ascending).
func (s *State) Traverse(roots []string, opts TraverseOptions) (*TraverseResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type queued struct {
		key   string
		depth int
	}

	visited := make(map[string]TraversedNote)
	var queue []queued
	var rootNames []string

	for _, root := range roots {
		note, ok := s.resolveLocked(root)
		if !ok {
			return nil, &UnresolvedRootError{Name: root}
		}
		key := NormalizeName(note.Name)
		rootNames = append(rootNames, note.Name)
		if _, seen := visited[key]; seen {
			continue
		}
		visited[key] = TraversedNote{Note: note, Depth: 0}
		queue = append(queue, queued{key: key, depth: 0})
	}

	missing := make(map[string]map[string]struct{})

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.depth >= opts.MaxDepth {
			continue
		}

		for _, tgt := range sortedKeys(s.forward[cur.key]) {
			lt := s.linkType[cur.key][tgt]

			note, exists := s.notes[tgt]
			if !exists {
				if missing[tgt] == nil {
					missing[tgt] = make(map[string]struct{})
				}
				missing[tgt][visited[cur.key].Note.Name] = struct{}{}
				continue
			}
			if inExcludedFolder(note.Path, opts.ExcludeFolders) {
				continue
			}
			if _, seen := visited[tgt]; seen {
				continue
			}
			visited[tgt] = TraversedNote{Note: note, Depth: cur.depth + 1, LinkType: lt}
			queue = append(queue, queued{key: tgt, depth: cur.depth + 1})
		}
	}

	result := &TraverseResult{
		Roots:   rootNames,
		Notes:   make([]TraversedNote, 0, len(visited)),
		Missing: make([]MissingRef, 0, len(missing)),
	}
	for _, tn := range visited {
		result.Notes = append(result.Notes, tn)
	}
	sort.Slice(result.Notes, func(i, j int) bool {
		a, b := result.Notes[i], result.Notes[j]
		if a.Depth != b.Depth {
			return a.Depth < b.Depth
		}
		return a.Note.Name < b.Note.Name
	})

	for name, refs := range missing {
		result.Missing = append(result.Missing, MissingRef{
			Name:      name,
			Referrers: sortedKeys(refs),
		})
	}
	sort.Slice(result.Missing, func(i, j int) bool {
		return result.Missing[i].Name < result.Missing[j].Name
	})

	return result, nil
}

func inExcludedFolder(path string, folders []string) bool {
	for _, f := range folders {
		if filter.InFolder(path, f) {
			return true
		}
	}
	return false
}

// sortedKeys returns a set's keys in ascending order, for deterministic
// expansion and output.
func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
