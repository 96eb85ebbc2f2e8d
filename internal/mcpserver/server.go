// Package mcpserver provides an MCP (Model Context Protocol) server exposing
// the vault graph and search operations as tools over stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/filter"
	"github.com/starford/ansuz/internal/graph"
	"github.com/starford/ansuz/internal/noteservice"
	"github.com/starford/ansuz/internal/search"
)

// Server wraps the MCP server with Ansuz tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all Ansuz tools registered.
func New(svc *noteservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("search_vault",
		mcp.WithDescription("Search note content. Modes: regex, whole-word, multi-term OR (default), plain substring."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
		mcp.WithBoolean("regex", mcp.Description("Treat query as a case-insensitive regular expression")),
		mcp.WithBoolean("whole_word", mcp.Description("Match the query as a whole word")),
		mcp.WithBoolean("multi_term", mcp.Description("Split the query on whitespace and match any term (default true)")),
		mcp.WithBoolean("include_names", mcp.Description("Also match note names")),
		mcp.WithString("folder", mcp.Description("Restrict search to one vault folder")),
	), s.searchVault)

	s.mcp.AddTool(mcp.NewTool("resolve_note",
		mcp.WithDescription("Resolve a note by name, exact first then fuzzy (case, dash/underscore, diacritics)."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Note name to resolve")),
	), s.resolveNote)

	s.mcp.AddTool(mcp.NewTool("traverse_links",
		mcp.WithDescription("Breadth-first traversal of forward links from one or more start notes."),
		mcp.WithString("from", mcp.Required(), mcp.Description("Start note name, or several separated by commas")),
		mcp.WithNumber("depth", mcp.Description("Maximum traversal depth (default 2)")),
	), s.traverseLinks)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all notes that link to the specified note."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Target note name")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("find_orphans",
		mcp.WithDescription("List notes no other note links to."),
	), s.findOrphans)

	s.mcp.AddTool(mcp.NewTool("find_broken_links",
		mcp.WithDescription("List wikilink targets that have no corresponding note."),
		mcp.WithString("kind", mcp.Description("Restrict to \"note\" or \"embed\" targets")),
		mcp.WithBoolean("by_source", mcp.Description("Group results by referring note instead of by target")),
	), s.findBrokenLinks)

	s.mcp.AddTool(mcp.NewTool("find_similar_names",
		mcp.WithDescription("Find notes whose names are within a Levenshtein distance of the given name."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name to compare against")),
		mcp.WithNumber("threshold", mcp.Description("Maximum edit distance (default 2)")),
	), s.findSimilarNames)

	s.mcp.AddTool(mcp.NewTool("notes_by_tag",
		mcp.WithDescription("List notes carrying a tag (frontmatter or inline)."),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Tag, with or without leading #")),
	), s.notesByTag)

	s.mcp.AddTool(mcp.NewTool("find_untagged",
		mcp.WithDescription("List notes that carry no tags at all."),
	), s.findUntagged)

	s.mcp.AddTool(mcp.NewTool("vault_stats",
		mcp.WithDescription("Aggregate statistics: note, link, orphan, and broken-link counts, most linked notes."),
	), s.vaultStats)

	s.mcp.AddTool(mcp.NewTool("rebuild_graph",
		mcp.WithDescription("Rescan the vault and rebuild the whole link graph."),
	), s.rebuildGraph)

	s.mcp.AddTool(mcp.NewTool("upsert_note",
		mcp.WithDescription("Re-read and re-index a single note file after an external edit."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative path of the changed file")),
	), s.upsertNote)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) searchVault(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	opts := search.DefaultOptions()
	opts.Regex = req.GetBool("regex", false)
	opts.WholeWord = req.GetBool("whole_word", false)
	opts.MultiTerm = req.GetBool("multi_term", true)
	opts.IncludeNames = req.GetBool("include_names", false)
	opts.Folder = req.GetString("folder", "")

	page := s.svc.Search(ctx, query, opts, filter.Options{}, filter.Page{})
	return jsonResult(page), nil
}

func (s *Server) resolveNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.ResolveNote(ctx, name)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("no note found for %q", name)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(note), nil
}

func (s *Server) traverseLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, err := req.RequireString("from")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var roots []string
	for _, part := range strings.Split(from, ",") {
		if part = strings.TrimSpace(part); part != "" {
			roots = append(roots, part)
		}
	}
	depth := req.GetInt("depth", 2)

	result, err := s.svc.Traverse(ctx, roots, graph.TraverseOptions{MaxDepth: depth})
	if err != nil {
		var unresolved *graph.UnresolvedRootError
		if errors.As(err, &unresolved) {
			return mcp.NewToolResultError(fmt.Sprintf("unresolved root: %q", unresolved.Name)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page := s.svc.Backlinks(ctx, name, filter.Options{}, filter.Page{})
	if page.Total == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	names := make([]string, len(page.Results))
	for i, n := range page.Results {
		names[i] = n.Name
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

func (s *Server) findOrphans(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page := s.svc.Orphans(ctx, filter.Options{}, filter.Page{})
	if page.Total == 0 {
		return mcp.NewToolResultText("no orphan notes"), nil
	}
	names := make([]string, len(page.Results))
	for i, n := range page.Results {
		names[i] = n.Name
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

func (s *Server) findBrokenLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind := req.GetString("kind", "")
	if req.GetBool("by_source", false) {
		page := s.svc.MissingNotesBySource(ctx, kind, filter.Options{}, filter.Page{})
		return jsonResult(page), nil
	}
	page := s.svc.MissingNotes(ctx, kind, nil, filter.Options{}, filter.Page{})
	return jsonResult(page), nil
}

func (s *Server) findSimilarNames(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page := s.svc.SimilarNames(ctx, name, req.GetInt("threshold", 2), filter.Page{})
	return jsonResult(page), nil
}

func (s *Server) notesByTag(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tag, err := req.RequireString("tag")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page := s.svc.NotesByTag(ctx, tag, filter.Options{}, filter.Page{})
	names := make([]string, len(page.Results))
	for i, n := range page.Results {
		names[i] = n.Name
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

func (s *Server) findUntagged(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page := s.svc.UntaggedNotes(ctx, filter.Options{}, filter.Page{})
	names := make([]string, len(page.Results))
	for i, n := range page.Results {
		names[i] = n.Name
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

func (s *Server) vaultStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Stats(ctx)), nil
}

func (s *Server) rebuildGraph(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	count, err := s.svc.Rebuild(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("graph rebuilt: %d notes", count)), nil
}

func (s *Server) upsertNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.UpsertNote(ctx, path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("upserted: %s", note.Path)), nil
}
