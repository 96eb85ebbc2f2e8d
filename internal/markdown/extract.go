// Package markdown extracts structured facts (wikilinks, frontmatter, tags,
// headings, checkboxes) from raw note text. All extractors are pure functions:
// malformed input never produces an error, at worst a construct is not
// recognised.
package markdown

import (
	"regexp"
	"strings"

	"github.com/starford/ansuz/internal/models"
)

var (
	// ![[target]] — embeds are scanned before plain links so their brackets
	// are not additionally matched as a wikilink.
	embedRe = regexp.MustCompile(`!\[\[([^\[\]]+)\]\]`)

	// [[target]], [[target#heading]], [[target|alias]]
	wikilinkRe = regexp.MustCompile(`\[\[([^\[\]]+)\]\]`)

	// #tag — a '#' immediately followed by a letter, then word/'-'/'/' chars,
	// bounded by whitespace or line edges. Excludes mid-word '#' (foo#bar).
	inlineTagRe = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)

	// One to six '#' characters, whitespace, then heading text.
	headingRe = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

	// Leading whitespace, "- [ ]" / "- [x]" / "- [X]", then text.
	checkboxRe = regexp.MustCompile(`^(\s*)- \[([ xX])\]\s+(.*)$`)
)

// SplitLines splits content into logical lines. CRLF and LF line endings both
// normalise to the same split; line numbers reported by the extractors are
// 1-based indexes into this slice.
func SplitLines(content string) []string {
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// ExtractWikilinks returns every embed and plain wikilink in line order.
// Plain-link scanning runs against embed-stripped text so an embed is never
// double-counted.
func ExtractWikilinks(lines []string) []models.Wikilink {
	var out []models.Wikilink
	for i, line := range lines {
		lineNo := i + 1

		for _, m := range embedRe.FindAllStringSubmatch(line, -1) {
			if wl, ok := parseLinkBody(m[1], lineNo, true); ok {
				out = append(out, wl)
			}
		}

		stripped := embedRe.ReplaceAllString(line, "")
		for _, m := range wikilinkRe.FindAllStringSubmatch(stripped, -1) {
			if wl, ok := parseLinkBody(m[1], lineNo, false); ok {
				out = append(out, wl)
			}
		}
	}
	return out
}

// parseLinkBody splits the inner text of a link into name, optional #heading,
// and optional |alias. Links with an empty target name are dropped.
func parseLinkBody(body string, line int, embed bool) (models.Wikilink, bool) {
	rest := body
	alias := ""
	if i := strings.Index(rest, "|"); i >= 0 {
		alias = strings.TrimSpace(rest[i+1:])
		rest = rest[:i]
	}
	heading := ""
	if i := strings.Index(rest, "#"); i >= 0 {
		heading = strings.TrimSpace(rest[i+1:])
		rest = rest[:i]
	}
	name := strings.TrimSpace(rest)
	if name == "" {
		return models.Wikilink{}, false
	}
	return models.Wikilink{
		Name:    name,
		Heading: heading,
		Alias:   alias,
		Line:    line,
		Embed:   embed,
	}, true
}

// ExtractHeadings returns every Markdown heading line.
func ExtractHeadings(lines []string) []models.Heading {
	var out []models.Heading
	for i, line := range lines {
		m := headingRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		out = append(out, models.Heading{
			Level: len(m[1]),
			Text:  strings.TrimSpace(m[2]),
			Line:  i + 1,
		})
	}
	return out
}

// ExtractCheckboxes returns every task-list line.
func ExtractCheckboxes(lines []string) []models.Checkbox {
	var out []models.Checkbox
	for i, line := range lines {
		m := checkboxRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		out = append(out, models.Checkbox{
			Checked: m[2] == "x" || m[2] == "X",
			Text:    m[3],
			Line:    i + 1,
			Indent:  len(m[1]),
		})
	}
	return out
}

// ExtractInlineTags returns deduplicated inline #tags in first-occurrence
// order. The leading frontmatter block is excluded from the scan, and heading
// lines are skipped so a heading marker is never read as a tag.
func ExtractInlineTags(lines []string) []string {
	body := stripFrontmatterLines(lines)

	seen := make(map[string]struct{})
	var out []string
	for _, line := range body {
		if headingRe.MatchString(line) {
			continue
		}
		for _, m := range inlineTagRe.FindAllStringSubmatch(line, -1) {
			tag := m[1]
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			out = append(out, tag)
		}
	}
	return out
}

// stripFrontmatterLines removes a leading --- delimited block from lines.
func stripFrontmatterLines(lines []string) []string {
	if len(lines) == 0 || lines[0] != frontmatterDelim {
		return lines
	}
	for i := 1; i < len(lines); i++ {
		if lines[i] == frontmatterDelim {
			return lines[i+1:]
		}
	}
	return lines
}
