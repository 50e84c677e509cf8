package cache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cozi-lab/logsync/internal/models"
	"github.com/cozi-lab/logsync/internal/remote"
)

// FetchError indicates that one file could not be downloaded. It is not
// fatal: the file keeps its previous manifest state and is retried on the
// next run.
type FetchError struct {
	Name string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Name, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// CachedFile is one usable local copy of a remote file, in listing order.
type CachedFile struct {
	ID   string
	Name string
	Path string
}

// SyncResult summarizes one sync cycle.
type SyncResult struct {
	// Files holds every usable cached copy in remote-listing order. This
	// order is what downstream collation treats as processing order, so it
	// also decides last-write-wins merges.
	Files   []CachedFile
	Fetched int
	Skipped int
	Failed  []*FetchError
}

// Synchronizer reconciles a remote listing against the local cache.
// It owns the cache directory and manifest for the duration of one run;
// concurrent runs against the same directory are not supported.
type Synchronizer struct {
	client       remote.Client
	dir          string
	manifestPath string
	workers      int
}

// NewSynchronizer creates a synchronizer over the given cache directory.
func NewSynchronizer(client remote.Client, dir, manifestPath string, workers int) (*Synchronizer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	if workers < 1 {
		workers = 1
	}
	return &Synchronizer{
		client:       client,
		dir:          dir,
		manifestPath: manifestPath,
		workers:      workers,
	}, nil
}

// fetchOutcome is the per-file result of the fetch pool.
type fetchOutcome struct {
	entry Entry
	err   error
}

// Sync brings the cache up to date with the listing. Files absent from the
// manifest are fetched; files whose remote ModTime advanced are re-fetched;
// everything else is skipped. Individual fetch failures are collected in the
// result, not returned as an error. The manifest is persisted once, after
// all fetches have been attempted, so failed files retain their previous
// state and a second sync over an unchanged listing fetches nothing.
func (s *Synchronizer) Sync(ctx context.Context, listing []models.RemoteFile) (*SyncResult, error) {
	manifest, err := LoadManifest(s.manifestPath)
	if err != nil {
		return nil, err
	}

	// Decide up front which listing positions need a download.
	var pending []int
	for i, f := range listing {
		entry, ok := manifest.Get(f.ID)
		if ok && !f.ModTime.After(entry.ModTime) {
			continue
		}
		pending = append(pending, i)
	}

	outcomes := make([]fetchOutcome, len(listing))
	if len(pending) > 0 {
		jobs := make(chan int)
		var wg sync.WaitGroup

		workers := s.workers
		if workers > len(pending) {
			workers = len(pending)
		}

		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range jobs {
					f := listing[i]
					if err := ctx.Err(); err != nil {
						outcomes[i].err = err
						continue
					}
					entry, err := s.fetchOne(ctx, f)
					outcomes[i] = fetchOutcome{entry: entry, err: err}
				}
			}()
		}

		for _, i := range pending {
			jobs <- i
		}
		close(jobs)
		wg.Wait()
	}

	// Merge outcomes into the manifest single-threaded, then persist once.
	result := &SyncResult{}
	needFetch := make(map[int]bool, len(pending))
	for _, i := range pending {
		needFetch[i] = true
	}

	for i, f := range listing {
		if !needFetch[i] {
			entry, _ := manifest.Get(f.ID)
			result.Skipped++
			result.Files = append(result.Files, CachedFile{ID: f.ID, Name: f.Name, Path: entry.LocalPath})
			continue
		}

		if err := outcomes[i].err; err != nil {
			ferr := &FetchError{Name: f.Name, Err: err}
			slog.Warn("fetch failed, keeping previous cache state", "file", f.Name, "error", err)
			result.Failed = append(result.Failed, ferr)
			// A stale cached copy is still valid data; keep feeding it to
			// collation until the refresh succeeds.
			if entry, ok := manifest.Get(f.ID); ok {
				result.Files = append(result.Files, CachedFile{ID: f.ID, Name: f.Name, Path: entry.LocalPath})
			}
			continue
		}

		manifest.Put(f.ID, outcomes[i].entry)
		result.Fetched++
		result.Files = append(result.Files, CachedFile{ID: f.ID, Name: f.Name, Path: outcomes[i].entry.LocalPath})
	}

	if err := manifest.Save(s.manifestPath); err != nil {
		return nil, err
	}

	return result, nil
}

// fetchOne downloads a single remote file into the cache. The bytes land in
// a temp file first and are renamed into place, so a torn download never
// shadows a good cached copy.
func (s *Synchronizer) fetchOne(ctx context.Context, f models.RemoteFile) (Entry, error) {
	localPath := s.localPath(f)
	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return Entry{}, fmt.Errorf("creating folder directory: %w", err)
	}

	body, err := s.client.FetchFile(ctx, f.ID)
	if err != nil {
		return Entry{}, err
	}
	defer body.Close()

	tmp := localPath + ".part-" + uuid.New().String()
	out, err := os.Create(tmp)
	if err != nil {
		return Entry{}, fmt.Errorf("creating temp file: %w", err)
	}

	size, err := io.Copy(out, body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return Entry{}, fmt.Errorf("writing %s: %w", localPath, err)
	}

	if err := os.Rename(tmp, localPath); err != nil {
		os.Remove(tmp)
		return Entry{}, fmt.Errorf("renaming into cache: %w", err)
	}

	slog.Info("fetched", "file", f.Name, "bytes", size)

	return Entry{
		LocalPath: localPath,
		ModTime:   f.ModTime,
		Size:      size,
		FetchedAt: time.Now().UTC(),
	}, nil
}

// localPath derives the cache location for a remote file. Paths are
// namespaced by the remote folder so identically named files in different
// folders cannot collide.
func (s *Synchronizer) localPath(f models.RemoteFile) string {
	name := sanitize(f.Name)
	if f.Folder == "" {
		return filepath.Join(s.dir, name)
	}
	return filepath.Join(s.dir, sanitize(f.Folder), name)
}

// sanitize strips path separators from remote-supplied names so they cannot
// escape the cache directory.
func sanitize(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	if name == "" || name == "." || name == ".." {
		return "_"
	}
	return name
}
