// Package models defines the domain types for Ansuz.
package models

import (
	"strings"
	"time"
)

// Note represents a parsed Markdown file in the vault.
type Note struct {
	Path            string         `json:"path"`
	Name            string         `json:"name"`
	Content         string         `json:"-"`
	Checksum        string         `json:"checksum"`
	ModifiedAt      time.Time      `json:"modified_at"`
	Frontmatter     map[string]any `json:"frontmatter,omitempty"`
	Wikilinks       []Wikilink     `json:"wikilinks,omitempty"`
	FrontmatterTags []string       `json:"frontmatter_tags,omitempty"`
	InlineTags      []string       `json:"inline_tags,omitempty"`
	Headings        []Heading      `json:"headings,omitempty"`
	Checkboxes      []Checkbox     `json:"checkboxes,omitempty"`
}

// Wikilink is one [[...]] or ![[...]] occurrence in a note body, in line order.
// Heading and Alias are empty when the link carries no #heading or |alias part.
// Line numbers are 1-based against the original file's line split.
type Wikilink struct {
	Name    string `json:"name"`
	Heading string `json:"heading,omitempty"`
	Alias   string `json:"alias,omitempty"`
	Line    int    `json:"line"`
	Embed   bool   `json:"embed"`
}

// Heading is one Markdown heading line. Level is 1-6.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	Line  int    `json:"line"`
}

// Checkbox is one "- [ ]" / "- [x]" task line. Indent counts leading
// whitespace characters.
type Checkbox struct {
	Checked bool   `json:"checked"`
	Text    string `json:"text"`
	Line    int    `json:"line"`
	Indent  int    `json:"indent"`
}

// AllTags returns the union of frontmatter and inline tags, deduplicated,
// frontmatter tags first. Computed on demand, never stored.
func (n *Note) AllTags() []string {
	seen := make(map[string]struct{}, len(n.FrontmatterTags)+len(n.InlineTags))
	out := make([]string, 0, len(n.FrontmatterTags)+len(n.InlineTags))
	for _, group := range [][]string{n.FrontmatterTags, n.InlineTags} {
		for _, t := range group {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

// HasTag reports whether the note carries tag in either tag set,
// case-insensitively and ignoring a leading '#'.
func (n *Note) HasTag(tag string) bool {
	want := strings.ToLower(strings.TrimPrefix(tag, "#"))
	for _, t := range n.AllTags() {
		if strings.ToLower(t) == want {
			return true
		}
	}
	return false
}
