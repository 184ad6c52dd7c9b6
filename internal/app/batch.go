package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/micromet/fvspart/internal/database"
	"github.com/micromet/fvspart/internal/hfdata"
	"github.com/micromet/fvspart/internal/log"
	"github.com/micromet/fvspart/internal/storage"
	"github.com/micromet/fvspart/pkg/config"
)

// runBatch partitions every file matching the input glob and stores the
// results, one record per averaging interval.
func (a *App) runBatch(ctx context.Context, cfg *config.ConfigData) error {
	files, err := filepath.Glob(cfg.Input.Glob)
	if err != nil {
		return fmt.Errorf("bad input glob %q: %w", cfg.Input.Glob, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no input files match %q", cfg.Input.Glob)
	}
	sort.Strings(files)

	storers, closeStorers, err := storage.NewStorers(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStorers()
	if len(storers) == 0 {
		return fmt.Errorf("no storage backends configured: set storage.timescaledb, outputs.results_csv, or outputs.archive")
	}

	opts, err := readerOptions(cfg)
	if err != nil {
		return fmt.Errorf("bad input options: %w", err)
	}
	n, err := samplesPerInterval(cfg)
	if err != nil {
		return err
	}
	interval, _ := cfg.Input.IntervalDuration()

	runID := uuid.New().String()
	log.Infof("starting batch run %v: %d files, %d samples per interval", runID, len(files), n)

	workers := cfg.Input.Workers
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan string)
	results := make(chan database.PartitionRecord, workers)

	var workerWG sync.WaitGroup
	for i := 0; i < workers; i++ {
		workerWG.Add(1)
		go func() {
			defer workerWG.Done()
			for path := range jobs {
				a.processFile(cfg, opts, path, runID, n, interval, results)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, f := range files {
			select {
			case jobs <- f:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		workerWG.Wait()
		close(results)
	}()

	stored, valid := 0, 0
	for rec := range results {
		for _, s := range storers {
			if err := s.StoreRecord(rec); err != nil {
				log.Errorf("could not store record for %v: %v", rec.Start, err)
			}
		}
		stored++
		if rec.Valid {
			valid++
		}
	}

	log.Infof("batch run %v complete: %d intervals stored, %d valid partitions", runID, stored, valid)
	return ctx.Err()
}

// processFile reads one file, splits it into interval windows, and emits
// one record per window.
func (a *App) processFile(cfg *config.ConfigData, opts hfdata.ReaderOptions, path, runID string, n int, interval time.Duration, out chan<- database.PartitionRecord) {
	f, err := os.Open(path)
	if err != nil {
		log.Errorf("could not open %v: %v", path, err)
		return
	}
	defer f.Close()

	d, err := hfdata.ReadCSV(f, opts)
	if err != nil {
		log.Errorf("could not read %v: %v", path, err)
		return
	}

	windows := d.Split(n)
	if len(windows) == 0 {
		log.Warnf("%v holds %d records, fewer than one %v interval; skipping", path, d.Len(), interval)
		return
	}

	fileStart := fileStartTime(cfg, path)
	for i, win := range windows {
		start, end := intervalBounds(fileStart, interval, i)
		rec := database.PartitionRecord{
			RunID:      runID,
			Site:       cfg.Site.Name,
			Start:      start,
			End:        end,
			SourceFile: filepath.Base(path),
		}
		out <- processInterval(cfg, win, rec)
	}
}

// fileStartTime recovers the interval clock for a file: the timestamp
// embedded in the file name when a time layout is configured, the file
// modification time otherwise.
func fileStartTime(cfg *config.ConfigData, path string) time.Time {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	if layout := cfg.Input.TimeLayout; layout != "" {
		// The timestamp is usually a suffix of the file name
		for i := 0; i+len(layout) <= len(base); i++ {
			if t, err := time.Parse(layout, base[i:i+len(layout)]); err == nil {
				return t
			}
		}
		log.Warnf("no timestamp matching layout %q in %v; using file mtime", layout, base)
	}

	info, err := os.Stat(path)
	if err != nil {
		return time.Now().UTC()
	}
	return info.ModTime().UTC()
}
