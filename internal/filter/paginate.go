package filter

// DefaultLimit is the page size used when a caller supplies none.
const DefaultLimit = 50

// Page holds pagination parameters.
type Page struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// PageResult is one page of a result list. Total is the pre-slice count.
type PageResult[T any] struct {
	Total   int `json:"total"`
	Offset  int `json:"offset"`
	Limit   int `json:"limit"`
	Results []T `json:"results"`
}

// Paginate slices items according to p. An offset beyond the list yields an
// empty page, not an error; a non-positive limit falls back to DefaultLimit.
func Paginate[T any](items []T, p Page) PageResult[T] {
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}

	res := PageResult[T]{
		Total:   len(items),
		Offset:  offset,
		Limit:   limit,
		Results: []T{},
	}
	if offset >= len(items) {
		return res
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	res.Results = items[offset:end]
	return res
}
