package markdown

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const frontmatterDelim = "---"

// frontmatterRe matches a leading --- delimited YAML block anchored at the
// very start of the file. Group 1 is the block body, group 2 everything after
// the closing delimiter line.
var frontmatterRe = regexp.MustCompile(`(?s)\A---\r?\n(.*?)\r?\n---\r?\n?(.*)\z`)

// ExtractFrontmatter parses the leading YAML block of content. It returns nil
// when there is no block, the YAML is unparsable, or the parsed value is not
// a mapping (a scalar or list at top level).
func ExtractFrontmatter(content string) map[string]any {
	m := frontmatterRe.FindStringSubmatch(content)
	if m == nil {
		return nil
	}
	var fm map[string]any
	if err := yaml.Unmarshal([]byte(m[1]), &fm); err != nil {
		return nil
	}
	return fm
}

// SerializeFrontmatter renders a mapping as a --- delimited YAML block with a
// trailing newline. An empty mapping renders an empty block.
func SerializeFrontmatter(fm map[string]any) string {
	data, err := yaml.Marshal(fm)
	if err != nil {
		return frontmatterDelim + "\n" + frontmatterDelim + "\n"
	}
	return frontmatterDelim + "\n" + strings.TrimRight(string(data), "\n") + "\n" + frontmatterDelim + "\n"
}

// ReplaceFrontmatter substitutes the leading frontmatter block of content
// with a serialization of fm, or prepends one when content has no block.
// All body text after the original block is preserved byte for byte.
func ReplaceFrontmatter(content string, fm map[string]any) string {
	block := SerializeFrontmatter(fm)
	if m := frontmatterRe.FindStringSubmatch(content); m != nil {
		return block + m[2]
	}
	return block + content
}

// FrontmatterTags extracts the "tags" key of a parsed frontmatter mapping.
// Both a YAML list of strings and a single scalar string are accepted; other
// shapes yield nothing.
func FrontmatterTags(fm map[string]any) []string {
	if fm == nil {
		return nil
	}
	raw, ok := fm["tags"]
	if !ok {
		return nil
	}

	var out []string
	seen := make(map[string]struct{})
	add := func(s string) {
		s = strings.TrimSpace(strings.TrimPrefix(s, "#"))
		if s == "" {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	switch v := raw.(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	case string:
		add(v)
	}
	return out
}
