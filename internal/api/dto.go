package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/starford/ansuz/internal/filter"
	"github.com/starford/ansuz/internal/models"
)

// NoteSummary is a lightweight note representation for list responses.
type NoteSummary struct {
	Path       string    `json:"path"`
	Name       string    `json:"name"`
	Tags       []string  `json:"tags"`
	Links      int       `json:"links"`
	ModifiedAt time.Time `json:"modified_at"`
}

func summarize(n *models.Note) NoteSummary {
	tags := n.AllTags()
	if tags == nil {
		tags = []string{}
	}
	return NoteSummary{
		Path:       n.Path,
		Name:       n.Name,
		Tags:       tags,
		Links:      len(n.Wikilinks),
		ModifiedAt: n.ModifiedAt,
	}
}

// summaryPage converts a note page into its summary representation, keeping
// the pagination envelope intact.
func summaryPage(p filter.PageResult[*models.Note]) filter.PageResult[NoteSummary] {
	out := filter.PageResult[NoteSummary]{
		Total:   p.Total,
		Offset:  p.Offset,
		Limit:   p.Limit,
		Results: make([]NoteSummary, len(p.Results)),
	}
	for i, n := range p.Results {
		out.Results[i] = summarize(n)
	}
	return out
}

// filterFromQuery reads the common filter contract from query parameters.
func filterFromQuery(r *http.Request) filter.Options {
	q := r.URL.Query()
	return filter.Options{
		Folders:        q["folder"],
		ExcludeFolders: q["exclude_folder"],
		ExcludePattern: q.Get("exclude_pattern"),
		ModifiedAfter:  q.Get("modified_after"),
		ModifiedBefore: q.Get("modified_before"),
		Tags:           q["tag"],
		TagsMode:       q.Get("tags_mode"),
		ExcludeTags:    q["exclude_tag"],
	}
}

// pageFromQuery reads limit/offset from query parameters.
func pageFromQuery(r *http.Request) filter.Page {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	return filter.Page{Limit: limit, Offset: offset}
}
