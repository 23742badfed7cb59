package main

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/spf13/cobra"

	"github.com/lexandro/libindex-mcp/cache"
	"github.com/lexandro/libindex-mcp/ignore"
	"github.com/lexandro/libindex-mcp/runner"
	"github.com/lexandro/libindex-mcp/watcher"
)

func newWatchCmd(flags *globalFlags) *cobra.Command {
	var options runner.Options

	cmd := &cobra.Command{
		Use:   "watch [root]",
		Short: "Index the library, then re-index whenever documents change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rootDir, err := resolveRoot(flags, args)
			if err != nil {
				return err
			}
			a, err := loadApp(flags, rootDir)
			if err != nil {
				return err
			}
			warnMissingTools(a)

			options.WaitForLock = true
			options.SkipFailed = true
			return watchLibrary(cmd.Context(), a, a.runOptions(options))
		},
	}

	cmd.Flags().BoolVar(&options.FullMode, "full", false, "Also enrich terms from the online encyclopedia")
	cmd.Flags().IntVar(&options.Workers, "workers", 0, "Parallel workers (default from config: number of CPUs)")
	cmd.Flags().DurationVar(&options.Timeout, "timeout", 0, "Per-document time limit (default from config: 15m)")

	return cmd
}

// watchLibrary runs an initial index pass and then one pass per debounced
// batch of changes, until ctx is canceled. Documents that failed keep failing
// quietly until their content changes or an explicit index run retries them.
func watchLibrary(ctx context.Context, a *app, options runner.Options) error {
	fileWatcher, err := startWatcher(a)
	if err != nil {
		return err
	}
	defer fileWatcher.Close()

	runIncremental(ctx, a, options)
	a.logger.Info("watching for changes", "root", a.root, "debounce", a.cfg.DebounceInterval())

	handleWatcherEvents(ctx, a, fileWatcher.Changes(), options)
	return nil
}

func startWatcher(a *app) (*watcher.Watcher, error) {
	fileWatcher, err := watcher.New(watcher.Options{
		RootDir:  a.root,
		Filter:   a.matcher,
		Interval: a.cfg.DebounceInterval(),
		Logger:   a.logger,
	})
	if err != nil {
		return nil, err
	}
	go fileWatcher.Start()
	return fileWatcher, nil
}

// handleWatcherEvents turns debounced batches into index runs.
func handleWatcherEvents(ctx context.Context, a *app, changes <-chan []watcher.Change, options runner.Options) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-changes:
			if !ok {
				return
			}
			if a.applyChanges(batch) {
				runIncremental(ctx, a, options)
			}
		}
	}
}

// applyChanges reloads ignore rules when an ignore file changed and reports
// whether the batch calls for an index run. Removed documents keep their cache
// entries; verify --prune drops them.
func (a *app) applyChanges(batch []watcher.Change) bool {
	needsRun := false
	for _, change := range batch {
		switch {
		case ignore.IsIgnoreFile(change.Path):
			a.matcher.Reload()
			a.logger.Info("reloaded ignore rules", "trigger", path.Base(change.Path))
			needsRun = true
		case change.Op.Removed():
			a.logger.Info("document removed", "path", change.Path)
		default:
			a.logger.Debug("document changed", "path", change.Path, "op", change.Op)
			needsRun = true
		}
	}
	return needsRun
}

// runIncremental runs one pass and logs its outcome; errors never stop the caller.
func runIncremental(ctx context.Context, a *app, options runner.Options) *runner.Result {
	result, err := a.runner.Run(ctx, a.root, options)
	switch {
	case errors.Is(err, context.Canceled):
		a.logger.Info("index run canceled")
	case errors.Is(err, cache.ErrLocked):
		a.logger.Info("another index run is active, skipping")
	case err != nil:
		a.logger.Error("index run failed", "error", err)
	}
	return result
}

// reindexFunc adapts the runner for the library_reindex tool.
func (a *app) reindexFunc() func(ctx context.Context, options runner.Options) (*runner.Result, error) {
	return func(ctx context.Context, options runner.Options) (*runner.Result, error) {
		result, err := a.runner.Run(ctx, a.root, a.runOptions(options))
		if errors.Is(err, cache.ErrLocked) {
			return nil, fmt.Errorf("%w; try again when it finishes", err)
		}
		return result, err
	}
}
