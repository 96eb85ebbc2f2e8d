// Package storage defines the vault file-system abstraction.
package storage

import "time"

// RawFile is one scanned vault file before parsing.
type RawFile struct {
	// Path is relative to the vault root, with forward slashes.
	Path       string
	Content    string
	ModifiedAt time.Time
}

// Provider is the interface for vault file access.
type Provider interface {
	// Scan walks the vault and returns every readable .md file in walk
	// order, honouring the configured exclusions. Unreadable files are
	// skipped, not reported as errors.
	Scan() ([]RawFile, error)
	// Read returns a single vault file (relative to vault root).
	Read(path string) (RawFile, error)
}
