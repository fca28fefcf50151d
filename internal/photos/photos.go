// Package photos stores item photo assets on disk. Assets are written once
// and never mutated; replacing an item's photo stores a new file and leaves
// the old one in place.
package photos

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store is a write-once photo store rooted at a directory.
type Store struct {
	dir string
}

// NewStore creates the photo directory if needed and returns a store.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating photo directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save writes photo data under a timestamp-prefixed, sanitized version of the
// proposed filename and returns the stored filename.
func (s *Store) Save(proposed string, data []byte, now time.Time) (string, error) {
	name := now.UTC().Format("20060102150405") + "_" + sanitize(proposed)

	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("creating photo file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return "", fmt.Errorf("writing photo file: %w", err)
	}
	return name, nil
}

// Path resolves a stored filename to its on-disk path. Filenames containing
// path separators or traversal sequences are rejected.
func (s *Store) Path(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) || strings.Contains(filename, "..") {
		return "", fmt.Errorf("invalid photo filename: %q", filename)
	}
	return filepath.Join(s.dir, filename), nil
}

// sanitize reduces a proposed filename to a safe basename.
func sanitize(name string) string {
	base := filepath.Base(name)
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "photo.jpg"
	}
	return b.String()
}
