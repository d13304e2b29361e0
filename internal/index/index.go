// Package index manages the staging area: the mapping of repository
// paths to blob hashes that will form the next commit's tree. The index
// is persisted on every mutation so staged state survives a crash.
package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Entry describes one staged file.
type Entry struct {
	Path    string    `json:"path"`
	Hash    string    `json:"hash"`
	Mode    int       `json:"mode"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Index is the staging area backed by a JSON file.
type Index struct {
	path    string
	entries map[string]Entry
}

// Load reads the index file at path. A missing file yields an empty
// index; a corrupt file is an error rather than silent data loss.
func Load(path string) (*Index, error) {
	ix := &Index{
		path:    path,
		entries: make(map[string]Entry),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ix, nil
		}
		return nil, fmt.Errorf("reading index: %w", err)
	}
	if len(data) == 0 {
		return ix, nil
	}
	if err := json.Unmarshal(data, &ix.entries); err != nil {
		return nil, fmt.Errorf("parsing index: %w", err)
	}
	return ix, nil
}

// Stage records an entry and persists the index immediately.
func (ix *Index) Stage(e Entry) error {
	ix.entries[e.Path] = e
	return ix.save()
}

// Unstage removes a path from the index, persisting the change.
func (ix *Index) Unstage(path string) error {
	if _, ok := ix.entries[path]; !ok {
		return nil
	}
	delete(ix.entries, path)
	return ix.save()
}

// Clear empties the index. Called only after a successful commit.
func (ix *Index) Clear() error {
	ix.entries = make(map[string]Entry)
	return ix.save()
}

// Get returns the entry for a path, if staged.
func (ix *Index) Get(path string) (Entry, bool) {
	e, ok := ix.entries[path]
	return e, ok
}

// Entries returns a copy of all staged entries keyed by path.
func (ix *Index) Entries() map[string]Entry {
	out := make(map[string]Entry, len(ix.entries))
	for path, e := range ix.entries {
		out[path] = e
	}
	return out
}

// Len reports the number of staged entries.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// save rewrites the index atomically: write a temp file in the same
// directory, then rename over the old index.
func (ix *Index) save() error {
	data, err := json.MarshalIndent(ix.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling index: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(ix.path), "index-*")
	if err != nil {
		return fmt.Errorf("creating temp index: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing index: %w", err)
	}
	if err := os.Rename(tmpName, ix.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing index: %w", err)
	}
	return nil
}
