package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lexandro/libindex-mcp/extract"
	"github.com/lexandro/libindex-mcp/register"
	"github.com/lexandro/libindex-mcp/runner"
	"github.com/lexandro/libindex-mcp/tools"
)

func newIndexCmd(flags *globalFlags) *cobra.Command {
	var options runner.Options

	cmd := &cobra.Command{
		Use:   "index [root]",
		Short: "Index new and changed documents and rebuild the catalog",
		Long: `Index walks the library, skips documents whose cached fingerprint (MD5 of
the first 8 KiB) is unchanged, extracts metadata for the rest on a worker
pool and rewrites library.json from the cache.

Documents that exceed the per-document timeout are listed in
indexing_failures.json and retried on the next run.`,
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
			if options.FullMode && !a.cfg.Enrich.Enabled {
				a.logger.Info("enrichment disabled by configuration, full mode extracts content only")
			}
			warnMissingTools(a)

			result, err := a.runner.Run(cmd.Context(), rootDir, a.runOptions(options))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), tools.FormatRunResult(result, options.DryRun))
			return nil
		},
	}

	cmd.Flags().BoolVar(&options.DryRun, "dry-run", false, "List documents that need indexing without indexing them")
	cmd.Flags().BoolVar(&options.FullMode, "full", false, "Also enrich terms from the online encyclopedia")
	cmd.Flags().IntVar(&options.Workers, "workers", 0, "Parallel workers (default from config: number of CPUs)")
	cmd.Flags().DurationVar(&options.Timeout, "timeout", 0, "Per-document time limit (default from config: 15m)")
	cmd.Flags().BoolVar(&options.WaitForLock, "wait", false, "Wait for a concurrent run instead of failing")

	return cmd
}

func newExtractCmd(flags *globalFlags) *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Print the catalog record of one document as JSON",
		Long: `Extract builds the record a run would store for one document, without
touching the cache or the catalog. Diagnostics go to stderr.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rootDir, err := resolveRoot(flags, nil)
			if err != nil {
				return err
			}
			a, err := loadApp(flags, rootDir)
			if err != nil {
				return err
			}
			relPath, err := a.relPath(args[0])
			if err != nil {
				// Documents outside the library are extracted relative to their own directory.
				absPath, absErr := filepath.Abs(args[0])
				if absErr != nil {
					return absErr
				}
				rootDir, relPath = filepath.Dir(absPath), filepath.Base(absPath)
			}
			if _, err := os.Stat(filepath.Join(rootDir, filepath.FromSlash(relPath))); err != nil {
				return err
			}

			extractor := a.records.WithoutEnrichment()
			if full {
				extractor = a.records
			}
			record := extractor.Extract(cmd.Context(), rootDir, relPath)
			return writeJSON(cmd.OutOrStdout(), record)
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "Also enrich terms from the online encyclopedia")
	return cmd
}

func newTocCmd(flags *globalFlags) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "toc <file>",
		Short: "Print the technical terms extracted from a document's contents",
		Long: `Toc runs the extraction chain (outline, text layer, OCR) on one document
and prints the accepted candidate terms, one per line. With --raw it prints
the source text instead. The strategy that produced the text goes to stderr.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rootDir, err := resolveRoot(flags, nil)
			if err != nil {
				return err
			}
			a, err := loadApp(flags, rootDir)
			if err != nil {
				return err
			}
			path := args[0]
			if _, err := os.Stat(path); err != nil {
				return err
			}

			text, strategy := a.content.Text(cmd.Context(), path)
			fmt.Fprintf(cmd.ErrOrStderr(), "strategy: %s\n", strategy)
			if raw {
				fmt.Fprintln(cmd.OutOrStdout(), text)
				return nil
			}
			for _, term := range a.content.Terms(text) {
				fmt.Fprintln(cmd.OutOrStdout(), term)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print the extracted source text instead of terms")
	return cmd
}

func newSearchCmd(flags *globalFlags) *cobra.Command {
	var maxResults int
	var text bool

	cmd := &cobra.Command{
		Use:   "search <query>...",
		Short: "Search the catalog",
		Long: `Search matches every plain word as a case-insensitive substring of a
record's title, author, publisher, year/edition, keywords and terms.

Filters: type:<exact>, publisher:<substring>, year:<substring>, path:<glob>.
Example: libindex search type:book publisher:springer quantum`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rootDir, err := resolveRoot(flags, nil)
			if err != nil {
				return err
			}
			a, err := loadApp(flags, rootDir)
			if err != nil {
				return err
			}
			catalog, err := a.openCatalog()
			if err != nil {
				return err
			}
			defer catalog.Close()

			if maxResults <= 0 {
				maxResults = a.cfg.Server.MaxResults
			}
			start := time.Now()
			query := strings.Join(args, " ")
			results, total, err := catalog.Search(query, maxResults)
			a.metrics.ObserveSearch(start, total, err)
			if err != nil {
				return err
			}
			a.logger.Debug("search", "query", query, "results", len(results), "matches", total)

			if text {
				fmt.Fprintln(cmd.OutOrStdout(), tools.FormatSearchResults(results, total))
				return nil
			}
			return writeJSON(cmd.OutOrStdout(), results)
		},
	}

	cmd.Flags().IntVar(&maxResults, "max", 0, "Maximum number of records (default from config: 50)")
	cmd.Flags().BoolVar(&text, "text", false, "Print a human-readable listing instead of JSON")
	return cmd
}

func newRegisterCmd(flags *globalFlags) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "register project|user [directory] [-- server flags]",
		Short: "Add the libindex MCP server to .mcp.json or ~/.claude.json",
		Example: `  libindex register project            # ./.mcp.json, library root .
  libindex register project ~/books    # ~/books/.mcp.json
  libindex register user --root ~/books
  libindex register project . -- --http 127.0.0.1:8765`,
		RunE: func(cmd *cobra.Command, args []string) error {
			positional, serverArgs := args, []string(nil)
			if at := cmd.ArgsLenAtDash(); at >= 0 {
				positional, serverArgs = args[:at], args[at:]
			}
			if len(positional) == 0 {
				return fmt.Errorf("scope is required (project or user)")
			}

			options := register.Options{
				Scope:       positional[0],
				LibraryRoot: flags.rootDir,
				ServerName:  name,
				ServerArgs:  serverArgs,
			}
			if len(positional) > 1 {
				options.Directory = positional[1]
			}
			if options.ServerName == "" {
				if exe, err := os.Executable(); err == nil {
					options.ServerName = register.DeriveServerName(exe)
				}
			}

			configPath, err := register.Register(options)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %q in %s\n", options.ServerName, configPath)
			return nil
		},
	}
	// Server flags after "--" are not counted.
	cmd.Args = func(cmd *cobra.Command, args []string) error {
		n := len(args)
		if at := cmd.ArgsLenAtDash(); at >= 0 {
			n = at
		}
		if n < 1 || n > 2 {
			return fmt.Errorf("accepts 1 or 2 arg(s) before --, received %d", n)
		}
		return nil
	}

	cmd.Flags().StringVar(&name, "name", "", "Server name in the config file (default: binary name without -mcp)")
	return cmd
}

func newConfigCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "config [root]",
		Short: "Print the effective configuration as YAML",
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
			data, err := a.cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newDoctorCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the external extraction tools are installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rootDir, err := resolveRoot(flags, nil)
			if err != nil {
				return err
			}
			a, err := loadApp(flags, rootDir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			missing := extract.MissingTools(a.cfg.Extract.Tools)
			if len(missing) == 0 {
				fmt.Fprintln(out, "All extraction tools found.")
			} else {
				fmt.Fprintf(out, "Missing tools: %s\n", strings.Join(missing, ", "))
				fmt.Fprintf(out, "Install with: %s\n", extract.InstallInstructions())
				fmt.Fprintln(out, "PDF outlines and text layers still work; DJVU and OCR need these tools.")
			}
			fmt.Fprintf(out, "Glossary: %d terms\n", a.glossary.Len())
			fmt.Fprintf(out, "Enrichment: %v\n", a.cfg.Enrich.Enabled)
			return nil
		},
	}
}

func warnMissingTools(a *app) {
	if missing := extract.MissingTools(a.cfg.Extract.Tools); len(missing) > 0 {
		a.logger.Warn("extraction tools not found, DJVU and OCR extraction will be skipped",
			"missing", missing,
			"install", extract.InstallInstructions(),
		)
	}
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(v)
}
