package storage

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FS implements Provider backed by the local file system.
type FS struct {
	root             string // absolute path to vault directory
	excludedDirs     map[string]struct{}
	excludedPrefixes []string
	logger           *slog.Logger
}

// NewFS creates a new FS provider rooted at the given directory, which must
// already exist. excludedDirs are directory names skipped anywhere in the
// tree (e.g. ".obsidian", ".git"); excludedPrefixes are vault-relative path
// prefixes skipped entirely.
func NewFS(root string, excludedDirs, excludedPrefixes []string, logger *slog.Logger) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}

	dirs := make(map[string]struct{}, len(excludedDirs))
	for _, d := range excludedDirs {
		dirs[d] = struct{}{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FS{
		root:             abs,
		excludedDirs:     dirs,
		excludedPrefixes: excludedPrefixes,
		logger:           logger,
	}, nil
}

// Root returns the absolute vault root.
func (f *FS) Root() string {
	return f.root
}

// safePath resolves a relative path against the vault root and rejects any
// result that escapes it (directory traversal).
func (f *FS) safePath(rel string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	joined := filepath.Join(f.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("storage: path escapes vault root: %s", rel)
	}
	return abs, nil
}

// Scan walks the vault and returns every readable .md file. Symlinks are not
// followed; excluded directories and prefixes are pruned before descent.
func (f *FS) Scan() ([]RawFile, error) {
	var out []RawFile
	err := filepath.WalkDir(f.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			f.logger.Warn("scan: walk error", slog.String("path", p), slog.String("error", walkErr.Error()))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(f.root, p)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if p == f.root {
				return nil
			}
			if _, excluded := f.excludedDirs[d.Name()]; excluded {
				return fs.SkipDir
			}
			if f.hasExcludedPrefix(rel) {
				return fs.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		if f.hasExcludedPrefix(rel) {
			return nil
		}

		file, readErr := f.Read(rel)
		if readErr != nil {
			// Skipped files contribute nothing to the graph.
			f.logger.Warn("scan: read failed", slog.String("path", rel), slog.String("error", readErr.Error()))
			return nil
		}
		out = append(out, file)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: scan: %w", err)
	}
	return out, nil
}

// Read returns a single vault file with its content and mtime.
func (f *FS) Read(path string) (RawFile, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return RawFile{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return RawFile{}, fmt.Errorf("storage: stat %s: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return RawFile{}, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return RawFile{
		Path:       filepath.ToSlash(path),
		Content:    string(data),
		ModifiedAt: info.ModTime(),
	}, nil
}

func (f *FS) hasExcludedPrefix(rel string) bool {
	for _, prefix := range f.excludedPrefixes {
		if prefix == "" {
			continue
		}
		if rel == prefix || strings.HasPrefix(rel, strings.TrimSuffix(prefix, "/")+"/") {
			return true
		}
	}
	return false
}
