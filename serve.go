package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lexandro/libindex-mcp/library"
	"github.com/lexandro/libindex-mcp/runner"
	"github.com/lexandro/libindex-mcp/server"
	"github.com/lexandro/libindex-mcp/tools"
)

type serveOptions struct {
	httpAddr     string
	watch        bool
	noIndex      bool
	syncInterval time.Duration
	run          runner.Options
}

func newServeCmd(flags *globalFlags) *cobra.Command {
	var options serveOptions

	cmd := &cobra.Command{
		Use:   "serve [root]",
		Short: "Serve the catalog to MCP clients over stdio",
		Long: `Serve loads the catalog into memory and answers MCP tool calls on stdin and
stdout. By default it also runs an incremental index pass on startup and
re-indexes when documents change.

With --http it additionally serves /api/search, /files/<path> and /metrics.
Logs go to libindex-mcp.log in the cache directory unless --log-file or the
config says otherwise.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rootDir, err := resolveRoot(flags, args)
			if err != nil {
				return err
			}
			flags.defaultLogFile = server.Name + ".log"

			a, err := loadApp(flags, rootDir)
			if err != nil {
				return err
			}
			if options.httpAddr == "" {
				options.httpAddr = a.cfg.Server.HTTPAddr
			}
			options.run.WaitForLock = true
			options.run.SkipFailed = true
			options.run = a.runOptions(options.run)
			return runServe(cmd.Context(), a, options)
		},
	}

	cmd.Flags().StringVar(&options.httpAddr, "http", "", "Also listen for HTTP on this address, e.g. 127.0.0.1:8765 (default from config)")
	cmd.Flags().BoolVar(&options.watch, "watch", true, "Re-index when documents change")
	cmd.Flags().BoolVar(&options.noIndex, "no-index", false, "Skip the index run on startup")
	cmd.Flags().DurationVar(&options.syncInterval, "sync-interval", 0, "Periodically verify the library and index missed documents (0 disables)")
	cmd.Flags().BoolVar(&options.run.FullMode, "full", false, "Enrich terms from the online encyclopedia in background runs")

	return cmd
}

// runServe runs the MCP server until stdin closes or ctx is canceled, with the
// watcher, periodic sync and HTTP listener alongside.
func runServe(ctx context.Context, a *app, options serveOptions) error {
	startTime := time.Now()

	catalog, err := a.openCatalog()
	if err != nil {
		return err
	}
	defer catalog.Close()
	a.logger.Info("catalog loaded", "root", a.root, "records", catalog.Len())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	if !options.noIndex {
		g.Go(func() error {
			runIncremental(ctx, a, options.run)
			return nil
		})
	}

	if options.watch {
		fileWatcher, err := startWatcher(a)
		if err != nil {
			a.logger.Warn("failed to start file watcher, changes will need manual reindex", "error", err)
		} else {
			defer fileWatcher.Close()
			g.Go(func() error {
				handleWatcherEvents(ctx, a, fileWatcher.Changes(), options.run)
				return nil
			})
		}
	}

	if options.syncInterval > 0 {
		g.Go(func() error {
			runPeriodicSync(ctx, a, options.syncInterval, options.run)
			return nil
		})
	}

	if options.httpAddr != "" {
		httpServer := &http.Server{
			Addr:              options.httpAddr,
			Handler:           newHTTPHandler(a, catalog),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			a.logger.Info("http listening", "addr", options.httpAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return httpServer.Shutdown(shutdownCtx)
		})
	}

	mcpServer := server.Setup(server.Handlers{
		Search: &tools.SearchHandler{
			Catalog:    catalog,
			Metrics:    a.metrics,
			MaxResults: a.cfg.Server.MaxResults,
			Logger:     a.logger,
		},
		Files:  &tools.FilesHandler{Catalog: catalog, Logger: a.logger},
		Record: &tools.RecordHandler{Catalog: catalog, Logger: a.logger},
		Status: &tools.StatusHandler{
			Catalog:      catalog,
			StartTime:    startTime,
			RootDir:      a.root,
			CatalogPath:  a.catalogPath,
			FailuresPath: a.failuresPath,
			Logger:       a.logger,
		},
		Reindex: &tools.ReindexHandler{DoReindex: a.reindexFunc(), Logger: a.logger},
	})

	a.logger.Info("MCP server starting on stdio")
	g.Go(func() error {
		// Stdin closing ends the session and everything started above.
		defer cancel()
		err := mcpServer.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	err = g.Wait()
	a.logger.Info("shutting down", "uptime", time.Since(startTime).Round(time.Second))
	return err
}

type errorResponse struct {
	Error string `json:"error"`
}

// newHTTPHandler routes the HTTP API. Only cataloged documents are served.
func newHTTPHandler(a *app, catalog *library.Catalog) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/search", a.metrics.Middleware("/api/search", searchHTTPHandler(a, catalog)))
	mux.Handle("/files/", a.metrics.Middleware("/files/", filesHTTPHandler(a, catalog)))
	mux.Handle("/metrics", a.metrics.Middleware("/metrics", a.metrics.Handler()))
	return mux
}

// searchHTTPHandler answers with a JSON array of matching records; an empty
// query yields an empty array. X-Total-Count carries the number of matches
// before the max limit.
func searchHTTPHandler(a *app, catalog *library.Catalog) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		query := strings.TrimSpace(r.URL.Query().Get("q"))
		if query == "" {
			w.Header().Set("X-Total-Count", "0")
			writeHTTPJSON(w, http.StatusOK, []library.Record{})
			return
		}

		maxResults := a.cfg.Server.MaxResults
		if raw := r.URL.Query().Get("max"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeHTTPJSON(w, http.StatusBadRequest, errorResponse{Error: "max must be a positive integer"})
				return
			}
			maxResults = n
		}

		results, total, err := catalog.Search(query, maxResults)
		a.metrics.ObserveSearch(start, total, err)
		if err != nil {
			writeHTTPJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		if results == nil {
			results = []library.Record{}
		}
		a.logger.Debug("http search", "query", query, "matches", total, "elapsed", time.Since(start))
		w.Header().Set("X-Total-Count", strconv.Itoa(total))
		writeHTTPJSON(w, http.StatusOK, results)
	})
}

func filesHTTPHandler(a *app, catalog *library.Catalog) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		relPath := strings.TrimPrefix(r.URL.Path, "/files/")
		record := catalog.Get(relPath)
		if relPath == "" || record == nil {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(a.root, filepath.FromSlash(record.Path)))
	})
}

func writeHTTPJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(v)
}
