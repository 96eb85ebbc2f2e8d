package markdown

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/models"
)

// ParseNote assembles a Note from one raw file triple. path is the
// vault-relative path with forward slashes; the note name is its file stem.
func ParseNote(path, content string, mtime time.Time) *models.Note {
	lines := SplitLines(content)
	fm := ExtractFrontmatter(content)

	return &models.Note{
		Path:            path,
		Name:            NoteName(path),
		Content:         content,
		Checksum:        checksum.Sum([]byte(content)),
		ModifiedAt:      mtime,
		Frontmatter:     fm,
		Wikilinks:       ExtractWikilinks(lines),
		FrontmatterTags: FrontmatterTags(fm),
		InlineTags:      ExtractInlineTags(lines),
		Headings:        ExtractHeadings(lines),
		Checkboxes:      ExtractCheckboxes(lines),
	}
}

// NoteName returns the file stem of a vault-relative path.
func NoteName(path string) string {
	base := filepath.Base(filepath.ToSlash(path))
	return strings.TrimSuffix(base, filepath.Ext(base))
}
