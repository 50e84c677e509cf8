// Package cache mirrors remote logging files into a local directory and
// tracks what has already been fetched in a persisted manifest, so a run only
// downloads files that are new or changed since the last run.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// Entry records one cached file: where it lives locally and which remote
// version it corresponds to.
type Entry struct {
	LocalPath string    `msgpack:"localPath"`
	ModTime   time.Time `msgpack:"modTime"`
	Size      int64     `msgpack:"size"`
	FetchedAt time.Time `msgpack:"fetchedAt"`
}

// Manifest maps remote file IDs to cache entries. It is loaded once at sync
// start, mutated in memory, and persisted once at sync end.
type Manifest struct {
	entries map[string]Entry
}

// manifestFile is the persisted shape. Entries are stored as a slice sorted
// by ID so that saving an unchanged manifest reproduces identical bytes.
type manifestFile struct {
	Version int              `msgpack:"version"`
	Entries []manifestRecord `msgpack:"entries"`
}

type manifestRecord struct {
	ID    string `msgpack:"id"`
	Entry Entry  `msgpack:"entry"`
}

const manifestVersion = 1

// NewManifest returns an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{entries: make(map[string]Entry)}
}

// Get looks up the entry for a remote file ID.
func (m *Manifest) Get(id string) (Entry, bool) {
	e, ok := m.entries[id]
	return e, ok
}

// Put inserts or replaces the entry for a remote file ID.
func (m *Manifest) Put(id string, e Entry) {
	m.entries[id] = e
}

// Len returns the number of cached files.
func (m *Manifest) Len() int {
	return len(m.entries)
}

// LoadManifest reads a manifest from disk. A missing file is not an error;
// it yields an empty manifest (first run).
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewManifest(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var mf manifestFile
	if err := msgpack.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("decoding manifest %s: %w", path, err)
	}
	if mf.Version != manifestVersion {
		return nil, fmt.Errorf("manifest %s: unsupported version %d", path, mf.Version)
	}

	m := NewManifest()
	for _, rec := range mf.Entries {
		m.entries[rec.ID] = rec.Entry
	}
	return m, nil
}

// Save persists the manifest atomically: the encoded bytes land in a temp
// file that is renamed over the target, so an interrupted save never leaves
// a truncated manifest behind.
func (m *Manifest) Save(path string) error {
	records := make([]manifestRecord, 0, len(m.entries))
	for id, e := range m.entries {
		records = append(records, manifestRecord{ID: id, Entry: e})
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].ID < records[j].ID
	})

	data, err := msgpack.Marshal(manifestFile{Version: manifestVersion, Entries: records})
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating manifest directory: %w", err)
	}

	tmp := path + ".tmp-" + uuid.New().String()
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing manifest: %w", err)
	}

	return nil
}
