// Package runner performs incremental index runs: scan the library, skip
// documents whose cache entry is fresh, extract the rest on a bounded worker
// pool with a per-document time limit, then rebuild the catalog from the cache.
package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lexandro/libindex-mcp/cache"
	"github.com/lexandro/libindex-mcp/library"
	"github.com/lexandro/libindex-mcp/metrics"
)

// TimeoutExpired is the failure kind of a document that hit the time limit.
const TimeoutExpired = "TimeoutExpired"

// DefaultTimeout is the per-document time limit.
const DefaultTimeout = 15 * time.Minute

// RecordExtractor builds the catalog record of one document. It must not fail;
// problems degrade the record instead.
type RecordExtractor interface {
	Extract(ctx context.Context, root, relPath string) library.Record
}

// Failure is one entry of the failure report. Hash is the content hash the
// document had when it failed.
type Failure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
	Hash  string `json:"hash,omitempty"`
}

// Options controls a single run.
type Options struct {
	DryRun   bool
	FullMode bool
	Workers  int
	Timeout  time.Duration
	// WaitForLock blocks on a concurrent run instead of failing with cache.ErrLocked.
	WaitForLock bool
	// SkipFailed leaves out documents listed in the failure report whose
	// content is unchanged since they failed. Background runs set it.
	SkipFailed bool
}

// Result summarizes a run.
type Result struct {
	RunID    string
	Indexed  int
	Skipped  int
	Pending  []string // stale paths; filled on dry runs only
	Failures []Failure
	Retained []Failure // earlier failures left out by SkipFailed
	Catalog  int
	Duration time.Duration
}

// Config wires a Runner. FullExtractor is used in full mode and defaults to Extractor.
type Config struct {
	Store         *cache.Store
	Filter        DocumentFilter
	Extractor     RecordExtractor
	FullExtractor RecordExtractor
	CatalogPath   string
	FailuresPath  string
	Metrics       *metrics.Metrics
	Logger        *slog.Logger
	// OnCatalog receives the rebuilt catalog after every run that wrote one.
	OnCatalog func(records []library.Record)
}

// Runner executes index runs. Runs are serialized across processes by the
// cache directory lock.
type Runner struct {
	config Config
	logger *slog.Logger
}

// New creates a runner.
func New(config Config) *Runner {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.FullExtractor == nil {
		config.FullExtractor = config.Extractor
	}
	return &Runner{config: config, logger: logger}
}

type outcome struct {
	record  library.Record
	hash    string
	failure *Failure
}

// Run indexes the library rooted at root.
func (r *Runner) Run(ctx context.Context, root string, options Options) (*Result, error) {
	start := time.Now()
	result := &Result{RunID: uuid.NewString()}
	logger := r.logger.With("run_id", result.RunID)

	if options.Workers <= 0 {
		options.Workers = runtime.NumCPU()
	}
	if options.Timeout <= 0 {
		options.Timeout = DefaultTimeout
	}

	paths, err := Scan(root, r.config.Filter)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	stale, hashes := r.partition(root, paths, logger)
	result.Skipped = len(paths) - len(stale) - countUnreadable(paths, hashes)
	if options.SkipFailed {
		stale, result.Retained = r.holdFailed(stale, hashes, logger)
	}
	logger.Info("scan complete",
		"documents", len(paths),
		"stale", len(stale),
		"fresh", result.Skipped,
		"heldFailed", len(result.Retained),
	)

	if options.DryRun {
		result.Pending = stale
		result.Duration = time.Since(start)
		return result, nil
	}

	lock := cache.NewRunLock(r.config.Store.Dir())
	if options.WaitForLock {
		err = lock.Lock()
	} else {
		err = lock.TryLock()
	}
	if err != nil {
		return nil, err
	}
	defer lock.Unlock()

	extractor := r.config.Extractor
	if options.FullMode {
		extractor = r.config.FullExtractor
	}

	logger.Info("indexing", "documents", len(stale), "workers", options.Workers, "full", options.FullMode)
	outcomes := r.dispatch(ctx, root, stale, hashes, extractor, options, logger)

	for _, o := range outcomes {
		switch {
		case o == nil:
			// never started: the run was canceled
		case o.failure != nil:
			result.Failures = append(result.Failures, *o.failure)
		default:
			if err := r.config.Store.Put(o.record.Path, cache.Entry{Record: o.record, Hash: o.hash}); err != nil {
				logger.Error("writing cache entry", "path", o.record.Path, "error", err)
				result.Failures = append(result.Failures, Failure{Path: o.record.Path, Error: err.Error(), Hash: o.hash})
				continue
			}
			result.Indexed++
		}
	}

	report := append(append([]Failure(nil), result.Failures...), result.Retained...)
	sort.Slice(report, func(i, j int) bool { return report[i].Path < report[j].Path })
	if err := WriteFailures(r.config.FailuresPath, report); err != nil {
		logger.Error("writing failure report", "error", err)
	}
	if len(result.Failures) > 0 {
		logger.Warn("some documents failed", "count", len(result.Failures), "report", r.config.FailuresPath)
	}

	records, err := r.RebuildCatalog()
	if err != nil {
		return nil, err
	}
	result.Catalog = len(records)
	result.Duration = time.Since(start)

	if m := r.config.Metrics; m != nil {
		m.DocsIndexedTotal.Add(float64(result.Indexed))
		m.DocsSkippedTotal.Add(float64(result.Skipped))
		for _, f := range result.Failures {
			kind := "error"
			if f.Error == TimeoutExpired {
				kind = "timeout"
			}
			m.IndexFailuresTotal.WithLabelValues(kind).Inc()
		}
		m.IndexRunDuration.Observe(result.Duration.Seconds())
	}

	logger.Info("index run complete",
		"indexed", result.Indexed,
		"skipped", result.Skipped,
		"failed", len(result.Failures),
		"catalog", result.Catalog,
		"duration", result.Duration.Round(time.Millisecond),
	)
	return result, ctx.Err()
}

// partition hashes every path and returns the ones needing (re)indexing.
// Unreadable files are left out of both groups.
func (r *Runner) partition(root string, paths []string, logger *slog.Logger) ([]string, map[string]string) {
	hashes := make(map[string]string, len(paths))
	var stale []string
	for _, relPath := range paths {
		hash, err := cache.ContentHash(filepath.Join(root, filepath.FromSlash(relPath)))
		if err != nil {
			logger.Warn("skipping unreadable document", "path", relPath, "error", err)
			continue
		}
		hashes[relPath] = hash
		if r.config.Store.NeedsIndexing(relPath, hash) {
			stale = append(stale, relPath)
		}
	}
	return stale, hashes
}

// holdFailed removes from stale the documents that failed before with the
// same content hash and returns their report entries.
func (r *Runner) holdFailed(stale []string, hashes map[string]string, logger *slog.Logger) ([]string, []Failure) {
	previous, err := ReadFailures(r.config.FailuresPath)
	if err != nil {
		logger.Warn("reading failure report, retrying every document", "error", err)
		return stale, nil
	}
	if len(previous) == 0 {
		return stale, nil
	}
	failed := make(map[string]Failure, len(previous))
	for _, f := range previous {
		failed[f.Path] = f
	}

	kept := stale[:0:0]
	var held []Failure
	for _, relPath := range stale {
		if f, ok := failed[relPath]; ok && f.Hash != "" && f.Hash == hashes[relPath] {
			logger.Debug("not retrying failed document", "path", relPath, "error", f.Error)
			held = append(held, f)
			continue
		}
		kept = append(kept, relPath)
	}
	return kept, held
}

func countUnreadable(paths []string, hashes map[string]string) int {
	n := 0
	for _, p := range paths {
		if _, ok := hashes[p]; !ok {
			n++
		}
	}
	return n
}

// dispatch runs one task per stale path on a bounded pool. Each slot of the
// returned slice belongs to one task, so no locking is needed.
func (r *Runner) dispatch(
	ctx context.Context,
	root string,
	stale []string,
	hashes map[string]string,
	extractor RecordExtractor,
	options Options,
	logger *slog.Logger,
) []*outcome {
	outcomes := make([]*outcome, len(stale))

	var g errgroup.Group
	g.SetLimit(options.Workers)
	for i, relPath := range stale {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			logger.Info("indexing document", "path", relPath)
			o := runWithTimeout(ctx, root, relPath, hashes[relPath], extractor, options.Timeout)
			if o != nil && o.failure != nil {
				logger.Warn("indexing failed", "path", relPath, "error", o.failure.Error)
			}
			outcomes[i] = o
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// runWithTimeout extracts one document. When the limit expires the extraction
// goroutine is abandoned: its context is canceled and its result discarded.
// A nil outcome means the whole run was canceled.
func runWithTimeout(
	ctx context.Context,
	root, relPath, hash string,
	extractor RecordExtractor,
	timeout time.Duration,
) *outcome {
	taskCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan *outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- &outcome{failure: &Failure{Path: relPath, Error: fmt.Sprintf("panic: %v", p), Hash: hash}}
			}
		}()
		record := extractor.Extract(taskCtx, root, relPath)
		record.Path = relPath
		done <- &outcome{record: record, hash: hash}
	}()

	var o *outcome
	select {
	case o = <-done:
	case <-taskCtx.Done():
	}
	switch {
	case ctx.Err() != nil:
		return nil
	case errors.Is(taskCtx.Err(), context.DeadlineExceeded):
		// Also covers extractions that returned early because the deadline cut them short.
		return &outcome{failure: &Failure{Path: relPath, Error: TimeoutExpired, Hash: hash}}
	}
	return o
}

// RebuildCatalog writes the catalog from every cache entry on disk.
func (r *Runner) RebuildCatalog() ([]library.Record, error) {
	records, err := r.config.Store.Records()
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}
	if err := library.Save(r.config.CatalogPath, records); err != nil {
		return nil, fmt.Errorf("writing catalog: %w", err)
	}
	if m := r.config.Metrics; m != nil {
		m.CatalogRecords.Set(float64(len(records)))
	}
	if r.config.OnCatalog != nil {
		r.config.OnCatalog(records)
	}
	return records, nil
}

// WriteFailures replaces the failure report, or removes it when there are no failures.
func WriteFailures(path string, failures []Failure) error {
	if path == "" {
		return nil
	}
	if len(failures) == 0 {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("removing failure report: %w", err)
		}
		return nil
	}
	data, err := json.MarshalIndent(failures, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling failure report: %w", err)
	}
	return library.WriteFileAtomic(path, append(data, '\n'))
}

// ReadFailures loads a failure report. A missing report means no failures.
func ReadFailures(path string) ([]Failure, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading failure report: %w", err)
	}
	var failures []Failure
	if err := json.Unmarshal(data, &failures); err != nil {
		return nil, fmt.Errorf("parsing failure report: %w", err)
	}
	return failures, nil
}
