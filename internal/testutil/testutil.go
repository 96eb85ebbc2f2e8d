// Package testutil provides shared test helpers for setting up vaults and graphs.
package testutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/ansuz/internal/graph"
	"github.com/starford/ansuz/internal/storage"
)

// TestVault creates a temporary vault directory populated with the given
// files (vault-relative path → content) and returns it with an FS provider.
func TestVault(t *testing.T, files map[string]string) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		abs := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	store, err := storage.NewFS(dir, []string{".obsidian", ".git"}, nil, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// BuildState scans a vault provider and builds a fresh graph from it.
func BuildState(t *testing.T, store *storage.FS, vocabNote string) *graph.State {
	t.Helper()
	files, err := store.Scan()
	if err != nil {
		t.Fatal(err)
	}
	state := graph.NewState(vocabNote)
	state.Build(files)
	return state
}
