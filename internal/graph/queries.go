package graph

import (
	"regexp"
	"sort"
	"strings"

	"github.com/starford/ansuz/internal/filter"
	"github.com/starford/ansuz/internal/models"
)

// Broken-link kinds. A missing target whose name carries a file-extension-like
// suffix (other than .md) is assumed to be an embedded asset.
const (
	MissingKindNote  = "note"
	MissingKindEmbed = "embed"
)

var extSuffixRe = regexp.MustCompile(`\.[A-Za-z0-9]{1,6}$`)

// MissingNote is one broken link target with every note referencing it.
type MissingNote struct {
	Name      string   `json:"name"`
	Kind      string   `json:"kind"`
	Referrers []string `json:"referrers"`
}

// MissingBySource groups broken links by the referring note.
type MissingBySource struct {
	Source  string   `json:"source"`
	Targets []string `json:"targets"`
	Count   int      `json:"count"`
}

// Degree is a note name with its incoming and outgoing link counts.
type Degree struct {
	Name     string `json:"name"`
	InLinks  int    `json:"in_links"`
	OutLinks int    `json:"out_links"`
}

// Stats are aggregate figures over the whole graph.
type Stats struct {
	TotalNotes   int      `json:"total_notes"`
	TotalLinks   int      `json:"total_links"`
	Orphans      int      `json:"orphans"`
	BrokenLinks  int      `json:"broken_links"`
	DistinctTags int      `json:"distinct_tags"`
	MostLinked   []Degree `json:"most_linked"`
}

// Backlinks returns the notes referencing name, filtered and paginated.
// The target may itself be a missing note: backward adjacency keeps entries
// for broken targets too.
func (s *State) Backlinks(name string, f *filter.Compiled, pg filter.Page) filter.PageResult[*models.Note] {
	s.mu.RLock()

	key := NormalizeName(name)
	if _, exists := s.notes[key]; !exists {
		// Fall back to fuzzy resolution for present notes only.
		if note, ok := s.resolveLocked(name); ok {
			key = NormalizeName(note.Name)
		}
	}

	var sources []*models.Note
	for src := range s.backward[key] {
		if n, ok := s.notes[src]; ok && f.Match(n) {
			sources = append(sources, n)
		}
	}
	s.mu.RUnlock()

	sort.Slice(sources, func(i, j int) bool { return sources[i].Name < sources[j].Name })
	return filter.Paginate(sources, pg)
}

// Orphans returns notes with no incoming links, filtered and paginated,
// sorted by name.
func (s *State) Orphans(f *filter.Compiled, pg filter.Page) filter.PageResult[*models.Note] {
	s.mu.RLock()
	var out []*models.Note
	for key, n := range s.notes {
		if len(s.backward[key]) > 0 {
			continue
		}
		if f.Match(n) {
			out = append(out, n)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return filter.Paginate(out, pg)
}

// MissingNotes reports broken link targets. kind restricts to "note" or
// "embed" targets; sources, when non-empty, restricts to links out of the
// named notes. The filter applies to referrer notes; a target with no
// remaining referrers is dropped.
func (s *State) MissingNotes(kind string, sources []string, f *filter.Compiled, pg filter.Page) filter.PageResult[MissingNote] {
	s.mu.RLock()

	sourceKeys := make(map[string]struct{}, len(sources))
	for _, src := range sources {
		sourceKeys[NormalizeName(src)] = struct{}{}
	}

	var out []MissingNote
	for tgt, refs := range s.missing {
		k := missingKind(tgt)
		if kind != "" && kind != k {
			continue
		}
		var referrers []string
		for src := range refs {
			if len(sourceKeys) > 0 {
				if _, wanted := sourceKeys[src]; !wanted {
					continue
				}
			}
			n, ok := s.notes[src]
			if !ok || !f.Match(n) {
				continue
			}
			referrers = append(referrers, n.Name)
		}
		if len(referrers) == 0 {
			continue
		}
		sort.Strings(referrers)
		out = append(out, MissingNote{Name: tgt, Kind: k, Referrers: referrers})
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return filter.Paginate(out, pg)
}

// MissingNotesBySource groups the same broken-link facts by referring note,
// sorted by descending broken-link count then by name.
func (s *State) MissingNotesBySource(kind string, f *filter.Compiled, pg filter.Page) filter.PageResult[MissingBySource] {
	s.mu.RLock()

	bySource := make(map[string][]string)
	for tgt, refs := range s.missing {
		k := missingKind(tgt)
		if kind != "" && kind != k {
			continue
		}
		for src := range refs {
			n, ok := s.notes[src]
			if !ok || !f.Match(n) {
				continue
			}
			bySource[n.Name] = append(bySource[n.Name], tgt)
		}
	}
	s.mu.RUnlock()

	out := make([]MissingBySource, 0, len(bySource))
	for src, targets := range bySource {
		sort.Strings(targets)
		out = append(out, MissingBySource{Source: src, Targets: targets, Count: len(targets)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Source < out[j].Source
	})
	return filter.Paginate(out, pg)
}

// ComputeStats aggregates graph-wide figures.
func (s *State) ComputeStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{TotalNotes: len(s.notes), BrokenLinks: len(s.missing)}

	tags := make(map[string]struct{})
	var degrees []Degree
	for key, n := range s.notes {
		out := len(s.forward[key])
		in := len(s.backward[key])
		st.TotalLinks += out
		if in == 0 {
			st.Orphans++
		}
		for _, t := range n.AllTags() {
			tags[strings.ToLower(t)] = struct{}{}
		}
		degrees = append(degrees, Degree{Name: n.Name, InLinks: in, OutLinks: out})
	}
	st.DistinctTags = len(tags)

	sort.Slice(degrees, func(i, j int) bool {
		if degrees[i].InLinks != degrees[j].InLinks {
			return degrees[i].InLinks > degrees[j].InLinks
		}
		return degrees[i].Name < degrees[j].Name
	})
	if len(degrees) > 10 {
		degrees = degrees[:10]
	}
	st.MostLinked = degrees
	return st
}

func missingKind(target string) string {
	ext := strings.ToLower(extSuffixRe.FindString(target))
	if ext != "" && ext != ".md" {
		return MissingKindEmbed
	}
	return MissingKindNote
}
