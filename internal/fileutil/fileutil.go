// Package fileutil provides file permission constants and the staged-write
// helper used when committing pipeline output.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// OwnerReadWrite is the file permission mode for run reports and other
// pipeline metadata (owner read/write only).
const OwnerReadWrite os.FileMode = 0o600

// ReadableByAll is the file permission mode for generated source files and
// manifests intended to be read by build tools and other users.
const ReadableByAll os.FileMode = 0o644

// File is one staged output operation: a root-relative path with either
// full content to write or a deletion. Pipeline stages produce staged files
// in memory; nothing touches the filesystem until the run's consistency
// checks pass and Commit runs.
type File struct {
	// Path is the slash-separated path relative to the output root.
	Path string
	// Content is the complete file content. Ignored when Delete is set.
	Content []byte
	// Mode is the permission mode to write with. Zero means ReadableByAll.
	Mode os.FileMode
	// Delete removes the file instead of writing it. Deleting a path that
	// does not exist is a no-op, so staged deletions are safe when
	// committing into a fresh output directory.
	Delete bool
}

// Commit applies every staged operation under root, creating parent
// directories as needed. The first error aborts the commit.
func Commit(root string, files []File) error {
	for _, f := range files {
		full := filepath.Join(root, filepath.FromSlash(f.Path))
		if f.Delete {
			if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("fileutil: deleting %s: %w", f.Path, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return fmt.Errorf("fileutil: creating directory for %s: %w", f.Path, err)
		}
		mode := f.Mode
		if mode == 0 {
			mode = ReadableByAll
		}
		if err := os.WriteFile(full, f.Content, mode); err != nil {
			return fmt.Errorf("fileutil: writing %s: %w", f.Path, err)
		}
	}
	return nil
}
