package store

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/scribelab/scribecapture/internal/audio"
)

// PersistError reports a failed artifact write. Durability failures are not
// treated as transient; no retry is attempted.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("failed to persist artifact %s: %v", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// Store writes recording artifacts into one directory.
type Store struct {
	dir string
}

// New creates a store rooted at dir. The directory is created lazily on the
// first Persist.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

// Persist writes data under the given name and returns the absolute path.
// Name uniqueness is the caller's responsibility. The target directory is
// created if missing.
func (s *Store) Persist(data []byte, name string) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", &PersistError{Path: s.dir, Err: err}
	}

	path := filepath.Join(s.dir, name)
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", &PersistError{Path: path, Err: err}
	}

	if err := os.WriteFile(absPath, data, 0644); err != nil {
		return "", &PersistError{Path: absPath, Err: err}
	}

	slog.Debug("Artifact persisted", "path", absPath, "bytes", len(data))
	return absPath, nil
}

// ListRecordings returns absolute paths of stored recordings, newest first.
// Only capture artifacts are listed; transcript and summary sidecars saved
// next to them are skipped.
func (s *Store) ListRecordings() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read recordings directory: %w", err)
	}

	type rec struct {
		path string
		mod  int64
	}
	var recs []rec
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "recording-") {
			continue
		}
		if !audio.KnownExtension(filepath.Ext(entry.Name())) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		abs, err := filepath.Abs(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		recs = append(recs, rec{path: abs, mod: info.ModTime().UnixNano()})
	}

	sort.Slice(recs, func(i, j int) bool { return recs[i].mod > recs[j].mod })

	paths := make([]string, len(recs))
	for i, r := range recs {
		paths[i] = r.path
	}
	return paths, nil
}
