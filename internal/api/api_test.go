package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/noteservice"
	"github.com/starford/ansuz/internal/testutil"
)

func testRouter(t *testing.T) chi.Router {
	t.Helper()
	_, store := testutil.TestVault(t, map[string]string{
		"Hub.md":          "---\ntags: [project]\n---\nlinks to [[Leaf]] and [[Ghost]]",
		"Leaf.md":         "quiet note with a keyword",
		"sub/Inner.md":    "#inbox deep note",
		"Lonely Note.md":  "nothing links here",
		"Lonely Notes.md": "near-duplicate name",
	})
	state := testutil.BuildState(t, store, "")
	svc := noteservice.NewService(store, state, nil, nil)
	return NewRouter(svc, false, "", nil)
}

func doGet(t *testing.T, r chi.Router, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), into); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
}

func TestListNotes(t *testing.T) {
	r := testRouter(t)
	rec := doGet(t, r, "/notes")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var page struct {
		Total   int `json:"total"`
		Results []struct {
			Name string `json:"name"`
		} `json:"results"`
	}
	decodeBody(t, rec, &page)
	if page.Total != 5 {
		t.Errorf("total = %d, want 5", page.Total)
	}
}

func TestListNotes_FolderFilter(t *testing.T) {
	r := testRouter(t)
	rec := doGet(t, r, "/notes?folder=sub")

	var page struct {
		Total   int `json:"total"`
		Results []struct {
			Name string `json:"name"`
		} `json:"results"`
	}
	decodeBody(t, rec, &page)
	if page.Total != 1 || page.Results[0].Name != "Inner" {
		t.Errorf("page = %+v, want only sub/Inner", page)
	}
}

func TestGetNote(t *testing.T) {
	r := testRouter(t)

	rec := doGet(t, r, "/notes/resolve?name=hub")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var note struct {
		Path string `json:"path"`
	}
	decodeBody(t, rec, &note)
	if note.Path != "Hub.md" {
		t.Errorf("path = %q, want Hub.md", note.Path)
	}

	if rec := doGet(t, r, "/notes/resolve?name=absent"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown name: status = %d, want 404", rec.Code)
	}
	if rec := doGet(t, r, "/notes/resolve"); rec.Code != http.StatusBadRequest {
		t.Errorf("missing name: status = %d, want 400", rec.Code)
	}
}

func TestGetNote_FuzzyName(t *testing.T) {
	r := testRouter(t)
	rec := doGet(t, r, "/notes/resolve?name=lonely_note")
	if rec.Code != http.StatusOK {
		t.Errorf("fuzzy resolve: status = %d, want 200", rec.Code)
	}
}

func TestBacklinks(t *testing.T) {
	r := testRouter(t)
	rec := doGet(t, r, "/backlinks?name=Leaf")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var page struct {
		Total   int `json:"total"`
		Results []struct {
			Name string `json:"name"`
		} `json:"results"`
	}
	decodeBody(t, rec, &page)
	if page.Total != 1 || page.Results[0].Name != "Hub" {
		t.Errorf("backlinks = %+v, want [Hub]", page)
	}
}

func TestOrphans(t *testing.T) {
	r := testRouter(t)
	rec := doGet(t, r, "/orphans")
	var page struct {
		Total int `json:"total"`
	}
	decodeBody(t, rec, &page)
	// Everything except Leaf has no incoming links.
	if page.Total != 4 {
		t.Errorf("orphans total = %d, want 4", page.Total)
	}
}

func TestMissing(t *testing.T) {
	r := testRouter(t)
	rec := doGet(t, r, "/missing")
	var page struct {
		Total   int `json:"total"`
		Results []struct {
			Name string   `json:"name"`
			Kind string   `json:"kind"`
			Refs []string `json:"referrers"`
		} `json:"results"`
	}
	decodeBody(t, rec, &page)
	if page.Total != 1 || page.Results[0].Name != "ghost" {
		t.Fatalf("missing = %+v, want [ghost]", page)
	}
	if page.Results[0].Kind != "note" {
		t.Errorf("kind = %q, want note", page.Results[0].Kind)
	}
}

func TestTraverse(t *testing.T) {
	r := testRouter(t)
	rec := doGet(t, r, "/traverse?from=Hub&depth=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var res struct {
		Notes []struct {
			Depth int `json:"depth"`
		} `json:"notes"`
		Missing []struct {
			Name string `json:"name"`
		} `json:"missing"`
	}
	decodeBody(t, rec, &res)
	if len(res.Notes) != 2 {
		t.Errorf("notes = %d, want 2 (Hub, Leaf)", len(res.Notes))
	}
	if len(res.Missing) != 1 || res.Missing[0].Name != "ghost" {
		t.Errorf("missing = %+v, want [ghost]", res.Missing)
	}

	if rec := doGet(t, r, "/traverse?from=Nope"); rec.Code != http.StatusNotFound {
		t.Errorf("unresolved root: status = %d, want 404", rec.Code)
	}
	if rec := doGet(t, r, "/traverse"); rec.Code != http.StatusBadRequest {
		t.Errorf("no roots: status = %d, want 400", rec.Code)
	}
}

func TestSearch(t *testing.T) {
	r := testRouter(t)
	rec := doGet(t, r, "/search?q=keyword")
	var page struct {
		Total   int `json:"total"`
		Results []struct {
			Path string `json:"path"`
			Line int    `json:"line"`
		} `json:"results"`
	}
	decodeBody(t, rec, &page)
	if page.Total != 1 || page.Results[0].Path != "Leaf.md" {
		t.Errorf("search = %+v, want hit in Leaf.md", page)
	}

	if rec := doGet(t, r, "/search"); rec.Code != http.StatusBadRequest {
		t.Errorf("missing q: status = %d, want 400", rec.Code)
	}
}

func TestNotesByTag(t *testing.T) {
	r := testRouter(t)
	rec := doGet(t, r, "/tags/inbox")
	var page struct {
		Total   int `json:"total"`
		Results []struct {
			Name string `json:"name"`
		} `json:"results"`
	}
	decodeBody(t, rec, &page)
	if page.Total != 1 || page.Results[0].Name != "Inner" {
		t.Errorf("by tag = %+v, want [Inner]", page)
	}
}

func TestUntagged(t *testing.T) {
	r := testRouter(t)
	rec := doGet(t, r, "/untagged")
	var page struct {
		Total int `json:"total"`
	}
	decodeBody(t, rec, &page)
	// Hub carries a frontmatter tag, Inner an inline one.
	if page.Total != 3 {
		t.Errorf("untagged total = %d, want 3", page.Total)
	}
}

func TestSimilarNames(t *testing.T) {
	r := testRouter(t)
	rec := doGet(t, r, "/similar?name=Lonely+Note")
	var page struct {
		Total   int `json:"total"`
		Results []struct {
			Name     string `json:"name"`
			Distance int    `json:"distance"`
		} `json:"results"`
	}
	decodeBody(t, rec, &page)
	if page.Total != 1 || page.Results[0].Name != "Lonely Notes" || page.Results[0].Distance != 1 {
		t.Errorf("similar = %+v, want Lonely Notes at distance 1", page)
	}
}

func TestStats(t *testing.T) {
	r := testRouter(t)
	rec := doGet(t, r, "/stats")
	var st struct {
		TotalNotes  int `json:"total_notes"`
		BrokenLinks int `json:"broken_links"`
	}
	decodeBody(t, rec, &st)
	if st.TotalNotes != 5 {
		t.Errorf("total_notes = %d, want 5", st.TotalNotes)
	}
	if st.BrokenLinks != 1 {
		t.Errorf("broken_links = %d, want 1", st.BrokenLinks)
	}
}

func TestRebuildAndUpsert(t *testing.T) {
	r := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/rebuild", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("rebuild status = %d, want 200", rec.Code)
	}
	var res struct {
		Notes int `json:"notes"`
	}
	decodeBody(t, rec, &res)
	if res.Notes != 5 {
		t.Errorf("rebuild notes = %d, want 5", res.Notes)
	}

	req = httptest.NewRequest(http.MethodPost, "/notes/upsert", strings.NewReader(`{"path":"Leaf.md"}`))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("upsert status = %d, want 200", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/notes/upsert", strings.NewReader(`{"path":"absent.md"}`))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("upsert missing file status = %d, want 404", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/notes/upsert", strings.NewReader(`{}`))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("upsert empty body status = %d, want 400", rec.Code)
	}
}

func TestAuth(t *testing.T) {
	_, store := testutil.TestVault(t, map[string]string{"a.md": "x"})
	state := testutil.BuildState(t, store, "")
	svc := noteservice.NewService(store, state, nil, nil)
	r := NewRouter(svc, true, "secret", nil)

	rec := doGet(t, r, "/notes")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("good token: status = %d, want 200", rec.Code)
	}
}
