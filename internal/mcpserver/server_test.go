package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/ansuz/internal/noteservice"
	"github.com/starford/ansuz/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	_, store := testutil.TestVault(t, map[string]string{
		"Hub.md":   "links to [[Leaf]] and [[Ghost]]",
		"Leaf.md":  "#inbox quiet note",
		"Alone.md": "no links at all",
	})
	state := testutil.BuildState(t, store, "")
	svc := noteservice.NewService(store, state, nil, nil)
	return New(svc)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_vault":
		result, err = srv.searchVault(ctx, req)
	case "resolve_note":
		result, err = srv.resolveNote(ctx, req)
	case "traverse_links":
		result, err = srv.traverseLinks(ctx, req)
	case "get_backlinks":
		result, err = srv.getBacklinks(ctx, req)
	case "find_orphans":
		result, err = srv.findOrphans(ctx, req)
	case "find_broken_links":
		result, err = srv.findBrokenLinks(ctx, req)
	case "find_similar_names":
		result, err = srv.findSimilarNames(ctx, req)
	case "notes_by_tag":
		result, err = srv.notesByTag(ctx, req)
	case "find_untagged":
		result, err = srv.findUntagged(ctx, req)
	case "vault_stats":
		result, err = srv.vaultStats(ctx, req)
	case "rebuild_graph":
		result, err = srv.rebuildGraph(ctx, req)
	case "upsert_note":
		result, err = srv.upsertNote(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestResolveNote(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "resolve_note", map[string]interface{}{"name": "hub"})
	if r.IsError {
		t.Fatalf("resolve errored: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), "Hub.md") {
		t.Errorf("resolve result = %q, want Hub.md in it", resultText(r))
	}

	r = callTool(t, srv, "resolve_note", map[string]interface{}{"name": "nope"})
	if !r.IsError {
		t.Error("expected error for unknown name")
	}
}

func TestSearchVault(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "search_vault", map[string]interface{}{"query": "quiet"})
	text := resultText(r)
	if !strings.Contains(text, "Leaf.md") {
		t.Errorf("search result = %q, want hit in Leaf.md", text)
	}

	r = callTool(t, srv, "search_vault", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error when query is missing")
	}
}

func TestTraverseLinks(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "traverse_links", map[string]interface{}{"from": "Hub", "depth": 1})
	text := resultText(r)
	if !strings.Contains(text, "Leaf") {
		t.Errorf("traverse result = %q, want Leaf", text)
	}
	if !strings.Contains(text, "ghost") {
		t.Errorf("traverse result = %q, want ghost reported missing", text)
	}

	r = callTool(t, srv, "traverse_links", map[string]interface{}{"from": "Nope"})
	if !r.IsError {
		t.Error("expected error for unresolved root")
	}
}

func TestGetBacklinks(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "get_backlinks", map[string]interface{}{"name": "Leaf"})
	if got := resultText(r); got != "Hub" {
		t.Errorf("backlinks = %q, want Hub", got)
	}

	r = callTool(t, srv, "get_backlinks", map[string]interface{}{"name": "Alone"})
	if got := resultText(r); got != "no backlinks found" {
		t.Errorf("backlinks = %q, want none", got)
	}
}

func TestFindOrphans(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "find_orphans", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "Alone") || !strings.Contains(text, "Hub") {
		t.Errorf("orphans = %q, want Alone and Hub", text)
	}
	if strings.Contains(text, "Leaf") {
		t.Errorf("orphans = %q, Leaf has a backlink", text)
	}
}

func TestFindBrokenLinks(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "find_broken_links", map[string]interface{}{})
	if !strings.Contains(resultText(r), "ghost") {
		t.Errorf("broken links = %q, want ghost", resultText(r))
	}

	r = callTool(t, srv, "find_broken_links", map[string]interface{}{"by_source": true})
	if !strings.Contains(resultText(r), "Hub") {
		t.Errorf("broken by source = %q, want Hub", resultText(r))
	}
}

func TestFindSimilarNames(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "find_similar_names", map[string]interface{}{"name": "Hob"})
	if !strings.Contains(resultText(r), "Hub") {
		t.Errorf("similar = %q, want Hub at distance 1", resultText(r))
	}
}

func TestNotesByTag(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "notes_by_tag", map[string]interface{}{"tag": "#inbox"})
	if got := resultText(r); got != "Leaf" {
		t.Errorf("notes by tag = %q, want Leaf", got)
	}
}

func TestFindUntagged(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "find_untagged", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "Hub") || strings.Contains(text, "Leaf") {
		t.Errorf("untagged = %q, want Hub and Alone but not Leaf", text)
	}
}

func TestVaultStats(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "vault_stats", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, `"total_notes": 3`) {
		t.Errorf("stats = %q, want total_notes 3", text)
	}
}

func TestRebuildGraph(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "rebuild_graph", map[string]interface{}{})
	if got := resultText(r); got != "graph rebuilt: 3 notes" {
		t.Errorf("rebuild = %q", got)
	}
}

func TestUpsertNote(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "upsert_note", map[string]interface{}{"path": "Leaf.md"})
	if got := resultText(r); got != "upserted: Leaf.md" {
		t.Errorf("upsert = %q", got)
	}

	r = callTool(t, srv, "upsert_note", map[string]interface{}{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing file")
	}
}
