package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/lexandro/libindex-mcp/cache"
	"github.com/lexandro/libindex-mcp/library"
	"github.com/lexandro/libindex-mcp/runner"
)

// VerifyResult holds the outcome of comparing the library on disk with the cache.
type VerifyResult struct {
	Missing      []string      `json:"missing"`  // documents on disk without a cache entry
	Modified     []string      `json:"modified"` // documents whose first 8 KiB changed since indexing
	Stale        []string      `json:"stale"`    // cache entries whose document is gone or now ignored
	Failed       []string      `json:"failed"`   // documents listed in the failure report
	Pending      int           `json:"pending"`  // missing or modified documents a background run would index
	CatalogDrift bool          `json:"catalog_drift"`
	Pruned       int           `json:"pruned"`
	Duration     time.Duration `json:"-"`
}

// InSync reports whether nothing needs indexing or pruning.
func (r *VerifyResult) InSync() bool {
	return len(r.Missing) == 0 && len(r.Modified) == 0 && len(r.Stale) == 0 && !r.CatalogDrift
}

func newVerifyCmd(flags *globalFlags) *cobra.Command {
	var prune bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "verify [root]",
		Short: "Compare the library on disk with the metadata cache and catalog",
		Long: `Verify reports documents that were never indexed, documents that changed
since they were indexed, and cache entries whose document no longer exists.

Cache entries are never removed implicitly. Pass --prune to delete the stale
ones and rebuild the catalog.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rootDir, err := resolveRoot(flags, args)
			if err != nil {
				return err
			}
			a, err := loadApp(flags, rootDir)
			if err != nil {
				return err
			}

			result, err := verifyLibrary(a, prune)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			writeVerifyReport(cmd.OutOrStdout(), result, prune)
			return nil
		},
	}

	cmd.Flags().BoolVar(&prune, "prune", false, "Delete stale cache entries and rebuild the catalog")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

// verifyLibrary compares the documents on disk with the cache entries, the
// catalog and the failure report. With prune it removes stale entries and
// rebuilds the catalog under the run lock.
func verifyLibrary(a *app, prune bool) (*VerifyResult, error) {
	start := time.Now()
	result := &VerifyResult{}

	// Step 1: documents currently on disk
	paths, err := runner.Scan(a.root, a.matcher)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", a.root, err)
	}
	onDisk := make(map[string]bool, len(paths))
	for _, p := range paths {
		onDisk[p] = true
	}

	// Step 2: cached entries
	entries, err := a.store.All()
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}
	cached := make(map[string]cache.Entry, len(entries))
	for _, e := range entries {
		cached[e.Path] = e
	}

	// Step 3: failure report
	failures, err := runner.ReadFailures(a.failuresPath)
	if err != nil {
		a.logger.Warn("verify: reading failure report", "error", err)
	}
	failedHashes := make(map[string]string, len(failures))
	for _, f := range failures {
		result.Failed = append(result.Failed, f.Path)
		failedHashes[f.Path] = f.Hash
	}

	// Step 4: missing and modified documents
	for _, p := range paths {
		entry, ok := cached[p]
		hash, err := cache.ContentHash(filepath.Join(a.root, filepath.FromSlash(p)))
		if err != nil {
			a.logger.Debug("verify: unreadable document", "path", p, "error", err)
			if !ok {
				result.Missing = append(result.Missing, p)
			}
			continue
		}
		switch {
		case !ok:
			result.Missing = append(result.Missing, p)
		case hash != entry.Hash:
			result.Modified = append(result.Modified, p)
		default:
			continue
		}
		// Background runs hold back documents that failed with this content.
		if failed, ok := failedHashes[p]; !ok || failed == "" || failed != hash {
			result.Pending++
		}
	}

	// Step 5: stale entries
	for p := range cached {
		if !onDisk[p] {
			result.Stale = append(result.Stale, p)
		}
	}
	sort.Strings(result.Stale)

	// Step 6: catalog
	records, err := library.Load(a.catalogPath)
	if err != nil {
		return nil, err
	}
	result.CatalogDrift = catalogDiffers(records, entries)

	if prune && (len(result.Stale) > 0 || result.CatalogDrift) {
		if err := pruneStale(a, result); err != nil {
			return nil, err
		}
	}

	result.Duration = time.Since(start)
	a.logger.Info("verification complete",
		"missing", len(result.Missing),
		"modified", len(result.Modified),
		"stale", len(result.Stale),
		"pending", result.Pending,
		"pruned", result.Pruned,
		"catalogDrift", result.CatalogDrift,
		"duration", result.Duration,
	)
	return result, nil
}

func pruneStale(a *app, result *VerifyResult) error {
	lock := cache.NewRunLock(a.store.Dir())
	if err := lock.TryLock(); err != nil {
		return err
	}
	defer lock.Unlock()

	for _, p := range result.Stale {
		if err := a.store.Remove(p); err != nil {
			return err
		}
		a.logger.Info("verify: pruned stale entry", "path", p)
		result.Pruned++
	}
	if _, err := a.runner.RebuildCatalog(); err != nil {
		return err
	}
	result.CatalogDrift = false
	return nil
}

// catalogDiffers reports whether the catalog file holds other paths or
// fingerprints than the cache.
func catalogDiffers(records []library.Record, entries []cache.Entry) bool {
	if len(records) != len(entries) {
		return true
	}
	hashes := make(map[string]string, len(entries))
	for _, e := range entries {
		hashes[e.Path] = e.Hash
	}
	for _, r := range records {
		hash, ok := hashes[r.Path]
		if !ok || hash != r.ContentHash {
			return true
		}
	}
	return false
}

func writeVerifyReport(w io.Writer, result *VerifyResult, prune bool) {
	section := func(title string, paths []string) {
		if len(paths) == 0 {
			return
		}
		fmt.Fprintf(w, "%s (%d):\n", title, len(paths))
		for _, p := range paths {
			fmt.Fprintf(w, "  %s\n", p)
		}
	}
	section("Not indexed", result.Missing)
	section("Changed since indexing", result.Modified)
	section("Stale cache entries", result.Stale)
	section("Failed in last run", result.Failed)
	if result.CatalogDrift {
		fmt.Fprintln(w, "Catalog is out of date with the cache.")
	}

	switch {
	case result.InSync():
		fmt.Fprintln(w, "Library, cache and catalog are in sync.")
	case prune && result.Pruned > 0:
		fmt.Fprintf(w, "Pruned %d stale entries and rebuilt the catalog.\n", result.Pruned)
	case len(result.Stale) > 0 && !prune:
		fmt.Fprintln(w, "Run verify --prune to drop stale entries.")
	}
	if len(result.Missing) > 0 || len(result.Modified) > 0 {
		fmt.Fprintln(w, "Run index to pick up new and changed documents.")
	}
}

// runPeriodicSync verifies the library at the given interval and starts an
// index run when documents were missed, for example while the watcher was
// not running. Documents that failed with their current content do not
// trigger a run. It runs until ctx is canceled.
func runPeriodicSync(ctx context.Context, a *app, interval time.Duration, options runner.Options) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.logger.Info("periodic sync started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("periodic sync stopped")
			return
		case <-ticker.C:
			result, err := verifyLibrary(a, false)
			if err != nil {
				a.logger.Warn("periodic sync failed", "error", err)
				continue
			}
			if result.Pending > 0 {
				runIncremental(ctx, a, options)
			} else {
				a.logger.Debug("periodic sync: library is in sync", "duration", result.Duration)
			}
		}
	}
}
