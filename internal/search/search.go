// Package search implements content, tag, and similar-name search over the
// parsed note collection.
package search

import (
	"regexp"
	"sort"
	"strings"

	"github.com/starford/ansuz/internal/filter"
	"github.com/starford/ansuz/internal/markdown"
	"github.com/starford/ansuz/internal/models"
)

// namePrefix marks a pseudo-hit on a note name rather than a content line.
const namePrefix = "name: "

// Options selects the content-search strategy. The strategies are mutually
// exclusive, in priority order: Regex > WholeWord > MultiTerm > plain
// substring. All matching is case-insensitive.
type Options struct {
	// Regex compiles the query as a case-insensitive pattern. An invalid
	// pattern matches nothing.
	Regex bool `json:"regex,omitempty"`
	// WholeWord wraps the literal query in word boundaries.
	WholeWord bool `json:"whole_word,omitempty"`
	// MultiTerm splits the query on whitespace and matches a line when ANY
	// term is a substring. It only activates for queries with more than one
	// term. On by default.
	MultiTerm bool `json:"multi_term"`
	// IncludeNames additionally matches note names, emitted as a line-0
	// pseudo-hit before that note's content hits.
	IncludeNames bool `json:"include_names,omitempty"`
	// Folder restricts candidates to one vault folder.
	Folder string `json:"folder,omitempty"`
}

// DefaultOptions returns the default search behaviour.
func DefaultOptions() Options {
	return Options{MultiTerm: true}
}

// Match is one search hit. Line 0 with a "name: " prefixed Text is a note
// name pseudo-hit; content hits are 1-based.
type Match struct {
	Path string `json:"path"`
	Name string `json:"name"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

// Content scans the filtered candidate notes line by line with a matcher
// built once from the options.
func Content(notes []*models.Note, query string, opts Options, f *filter.Compiled, pg filter.Page) filter.PageResult[Match] {
	matches := matcherFor(query, opts)

	candidates := make([]*models.Note, 0, len(notes))
	for _, n := range notes {
		if opts.Folder != "" && !filter.InFolder(n.Path, opts.Folder) {
			continue
		}
		if f.Match(n) {
			candidates = append(candidates, n)
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Name < candidates[j].Name })

	var out []Match
	for _, n := range candidates {
		if opts.IncludeNames && matches(n.Name) {
			out = append(out, Match{Path: n.Path, Name: n.Name, Line: 0, Text: namePrefix + n.Name})
		}
		for i, line := range markdown.SplitLines(n.Content) {
			if matches(line) {
				out = append(out, Match{Path: n.Path, Name: n.Name, Line: i + 1, Text: line})
			}
		}
	}
	return filter.Paginate(out, pg)
}

// matcherFor builds the per-line match function for a query.
func matcherFor(query string, opts Options) func(string) bool {
	switch {
	case opts.Regex:
		re, err := regexp.Compile("(?i)" + query)
		if err != nil {
			return func(string) bool { return false }
		}
		return re.MatchString

	case opts.WholeWord:
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(query) + `\b`)
		if err != nil {
			return func(string) bool { return false }
		}
		return re.MatchString
	}

	terms := strings.Fields(strings.ToLower(query))
	if opts.MultiTerm && len(terms) > 1 {
		return func(line string) bool {
			lower := strings.ToLower(line)
			for _, t := range terms {
				if strings.Contains(lower, t) {
					return true
				}
			}
			return false
		}
	}

	needle := strings.ToLower(query)
	return func(line string) bool {
		return strings.Contains(strings.ToLower(line), needle)
	}
}

// ByTag returns the filtered notes carrying tag, sorted by name.
func ByTag(notes []*models.Note, tag string, f *filter.Compiled, pg filter.Page) filter.PageResult[*models.Note] {
	var out []*models.Note
	for _, n := range notes {
		if f.Match(n) && n.HasTag(tag) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return filter.Paginate(out, pg)
}

// Untagged returns the filtered notes with no tags at all, sorted by name.
func Untagged(notes []*models.Note, f *filter.Compiled, pg filter.Page) filter.PageResult[*models.Note] {
	var out []*models.Note
	for _, n := range notes {
		if f.Match(n) && len(n.AllTags()) == 0 {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return filter.Paginate(out, pg)
}

// SimilarName is a note whose name lies within edit distance of a query.
type SimilarName struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Distance int    `json:"distance"`
}

// SimilarNames returns notes whose name is within threshold edit distance of
// name, excluding exact matches (distance 0), sorted by (distance, name).
func SimilarNames(notes []*models.Note, name string, threshold int, pg filter.Page) filter.PageResult[SimilarName] {
	var out []SimilarName
	for _, n := range notes {
		d := Levenshtein(name, n.Name)
		if d > 0 && d <= threshold {
			out = append(out, SimilarName{Name: n.Name, Path: n.Path, Distance: d})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].Name < out[j].Name
	})
	return filter.Paginate(out, pg)
}
