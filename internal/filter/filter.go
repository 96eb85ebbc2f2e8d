// Package filter compiles declarative note-filter options into reusable
// predicates and paginates result lists.
package filter

import (
	"regexp"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/models"
)

// Tag match modes.
const (
	TagsModeAny = "any"
	TagsModeAll = "all"
)

// Options are the raw filter values as supplied by a caller.
type Options struct {
	// Folders restricts matches to notes under any of these vault-relative
	// folder prefixes. Empty means no restriction.
	Folders []string `json:"folders,omitempty"`
	// ExcludeFolders rejects notes under any of these folder prefixes.
	ExcludeFolders []string `json:"exclude_folders,omitempty"`
	// ExcludePattern is a case-insensitive regular expression matched
	// against note names. An invalid pattern deactivates the exclusion.
	ExcludePattern string `json:"exclude_pattern,omitempty"`
	// ModifiedAfter / ModifiedBefore bound the note mtime. Accepted formats
	// are RFC 3339 and "2006-01-02"; an unparsable value means no bound.
	ModifiedAfter  string `json:"modified_after,omitempty"`
	ModifiedBefore string `json:"modified_before,omitempty"`
	// Tags the note must carry; TagsMode selects "any" (default) or "all".
	Tags     []string `json:"tags,omitempty"`
	TagsMode string   `json:"tags_mode,omitempty"`
	// ExcludeTags rejects notes carrying any of these tags.
	ExcludeTags []string `json:"exclude_tags,omitempty"`
}

// Compiled is a ready-to-evaluate filter. Option values are translated once
// per Compile call, not once per note. An option that fails to compile
// (invalid regex, unparsable date) is uniformly treated as inactive.
type Compiled struct {
	folders        []string
	excludeFolders []string
	excludeRe      *regexp.Regexp
	after, before  time.Time
	tags           map[string]struct{}
	tagsAll        bool
	excludeTags    map[string]struct{}
}

// Compile translates raw options into a Compiled filter.
func Compile(o Options) *Compiled {
	c := &Compiled{
		folders:        cleanFolders(o.Folders),
		excludeFolders: cleanFolders(o.ExcludeFolders),
		tags:           tagSet(o.Tags),
		tagsAll:        o.TagsMode == TagsModeAll,
		excludeTags:    tagSet(o.ExcludeTags),
	}
	if o.ExcludePattern != "" {
		if re, err := regexp.Compile("(?i)" + o.ExcludePattern); err == nil {
			c.excludeRe = re
		}
	}
	c.after = parseDate(o.ModifiedAfter)
	c.before = parseDate(o.ModifiedBefore)
	return c
}

// Match reports whether a note passes every active predicate.
func (c *Compiled) Match(n *models.Note) bool {
	if c == nil {
		return true
	}
	if len(c.folders) > 0 && !inAnyFolder(n.Path, c.folders) {
		return false
	}
	if len(c.excludeFolders) > 0 && inAnyFolder(n.Path, c.excludeFolders) {
		return false
	}
	if c.excludeRe != nil && c.excludeRe.MatchString(n.Name) {
		return false
	}
	if !c.after.IsZero() && n.ModifiedAt.Before(c.after) {
		return false
	}
	if !c.before.IsZero() && n.ModifiedAt.After(c.before) {
		return false
	}
	if len(c.tags) > 0 && !c.matchTags(n) {
		return false
	}
	if len(c.excludeTags) > 0 {
		for _, t := range n.AllTags() {
			if _, bad := c.excludeTags[strings.ToLower(t)]; bad {
				return false
			}
		}
	}
	return true
}

// Apply returns the subset of notes passing the filter, preserving order.
func (c *Compiled) Apply(notes []*models.Note) []*models.Note {
	if c == nil {
		return notes
	}
	out := make([]*models.Note, 0, len(notes))
	for _, n := range notes {
		if c.Match(n) {
			out = append(out, n)
		}
	}
	return out
}

func (c *Compiled) matchTags(n *models.Note) bool {
	carried := make(map[string]struct{})
	for _, t := range n.AllTags() {
		carried[strings.ToLower(t)] = struct{}{}
	}
	if c.tagsAll {
		for want := range c.tags {
			if _, ok := carried[want]; !ok {
				return false
			}
		}
		return true
	}
	for want := range c.tags {
		if _, ok := carried[want]; ok {
			return true
		}
	}
	return false
}

// InFolder reports whether a vault-relative path falls under folder.
func InFolder(path, folder string) bool {
	folder = strings.Trim(strings.ReplaceAll(folder, "\\", "/"), "/")
	if folder == "" {
		return true
	}
	return path == folder || strings.HasPrefix(path, folder+"/")
}

func inAnyFolder(path string, folders []string) bool {
	for _, f := range folders {
		if InFolder(path, f) {
			return true
		}
	}
	return false
}

func cleanFolders(folders []string) []string {
	out := make([]string, 0, len(folders))
	for _, f := range folders {
		f = strings.Trim(strings.ReplaceAll(f, "\\", "/"), "/")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func tagSet(tags []string) map[string]struct{} {
	if len(tags) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(t, "#")))
		if t != "" {
			out[t] = struct{}{}
		}
	}
	return out
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	// Unparsable dates are treated as "no bound".
	return time.Time{}
}
