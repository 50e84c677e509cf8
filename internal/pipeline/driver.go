// Package pipeline orchestrates one collation run: list the remote store,
// sync the local cache, parse every cached file and write the long-format
// CSV.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cozi-lab/logsync/internal/cache"
	"github.com/cozi-lab/logsync/internal/collate"
	"github.com/cozi-lab/logsync/internal/config"
	"github.com/cozi-lab/logsync/internal/fieldmap"
	"github.com/cozi-lab/logsync/internal/models"
	"github.com/cozi-lab/logsync/internal/output"
	"github.com/cozi-lab/logsync/internal/parser"
	"github.com/cozi-lab/logsync/internal/remote"
)

// ErrNoData is returned when every cached file failed to parse; there is
// nothing worth writing.
var ErrNoData = errors.New("no clean data loaded")

// Stats counts what one run did. Non-fatal skips end up here instead of in
// errors.
type Stats struct {
	Listed       int
	Fetched      int
	SkippedFetch int
	FailedFetch  int
	ParsedFiles  int
	SkippedFiles int
	SkippedCells int
	Rows         int
}

// Driver wires the pipeline stages together for one run.
type Driver struct {
	cfg    *config.AppConfig
	client remote.Client
}

// New creates a driver. The remote client is injected so tests can run the
// whole pipeline against a fake store.
func New(cfg *config.AppConfig, client remote.Client) *Driver {
	return &Driver{cfg: cfg, client: client}
}

// Run executes the full pipeline and writes the collated CSV to outputPath.
// Fatal error classes (bad field map, unreachable remote, unwritable output)
// return an error and leave no output file; per-file and per-cell problems
// are logged, counted in Stats and never abort the run.
func (d *Driver) Run(ctx context.Context, outputPath string) (*Stats, error) {
	stats := &Stats{}

	// Field map first: a bad one aborts before any network activity.
	fm, err := fieldmap.Load(d.cfg.Processing.FieldMapFile)
	if err != nil {
		return stats, err
	}

	var listing []models.RemoteFile
	for _, folder := range d.cfg.Remote.Folders {
		files, err := d.client.ListFiles(ctx, folder, d.cfg.Remote.NamePrefix)
		if err != nil {
			return stats, err
		}
		listing = append(listing, files...)
	}
	stats.Listed = len(listing)
	slog.Info("remote listing complete", "files", len(listing), "folders", len(d.cfg.Remote.Folders))

	syncer, err := cache.NewSynchronizer(d.client, d.cfg.Cache.Directory, d.cfg.Cache.ManifestFile, d.cfg.Processing.FetchWorkers)
	if err != nil {
		return stats, err
	}
	res, err := syncer.Sync(ctx, listing)
	if err != nil {
		return stats, fmt.Errorf("syncing cache: %w", err)
	}
	stats.Fetched = res.Fetched
	stats.SkippedFetch = res.Skipped
	stats.FailedFetch = len(res.Failed)

	// Parse in listing order; this order is what makes last-write-wins
	// merges deterministic.
	var samples []models.Sample
	for _, file := range res.Files {
		fileSamples, rowErrs, err := parser.ParseFile(file.Path)
		if err != nil {
			var perr *parser.ParseError
			if errors.As(err, &perr) {
				slog.Warn("skipping unparsable file", "file", file.Name, "reason", perr.Reason)
				stats.SkippedFiles++
				continue
			}
			return stats, fmt.Errorf("reading cached file %s: %w", file.Name, err)
		}
		stats.ParsedFiles++
		stats.SkippedCells += len(rowErrs)
		for _, rerr := range rowErrs {
			slog.Debug("skipped cell", "file", file.Name, "detail", rerr.Error())
		}
		samples = append(samples, fileSamples...)
	}

	if stats.ParsedFiles == 0 && len(res.Files) > 0 {
		return stats, ErrNoData
	}

	rows, dropped := collate.Collate(samples, fm)
	stats.SkippedCells += dropped
	stats.Rows = len(rows)

	if err := output.WriteCSV(outputPath, rows); err != nil {
		return stats, err
	}

	slog.Info("run complete",
		"rows", stats.Rows,
		"fetched", stats.Fetched,
		"cached", stats.SkippedFetch,
		"failedFetches", stats.FailedFetch,
		"skippedFiles", stats.SkippedFiles,
		"skippedCells", stats.SkippedCells)

	return stats, nil
}
