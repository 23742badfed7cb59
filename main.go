package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/lexandro/libindex-mcp/server"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	rootDir  string
	logLevel string
	logFile  string

	// defaultLogFile names a log file in the cache directory, used when neither
	// --log-file nor the config names one.
	defaultLogFile string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "libindex",
		Short: "Index a personal library of books, papers and comics",
		Long: `libindex scans a directory of PDF, DJVU, EPUB and comic files, derives
author, title, publisher and year from file names, extracts technical
vocabulary from outlines, text layers or OCR, and writes a searchable
catalog (library.json). Unchanged documents are skipped on later runs.

The serve command exposes the catalog to MCP clients over stdio.`,
		Version:       server.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("libindex version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&flags.rootDir, "root", "", "Library root directory (default: current working directory)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug|info|warn|error (default from config: info)")
	cmd.PersistentFlags().StringVar(&flags.logFile, "log-file", "", "Log file path (default: stderr)")

	cmd.AddCommand(newIndexCmd(flags))
	cmd.AddCommand(newExtractCmd(flags))
	cmd.AddCommand(newTocCmd(flags))
	cmd.AddCommand(newSearchCmd(flags))
	cmd.AddCommand(newVerifyCmd(flags))
	cmd.AddCommand(newWatchCmd(flags))
	cmd.AddCommand(newServeCmd(flags))
	cmd.AddCommand(newRegisterCmd(flags))
	cmd.AddCommand(newConfigCmd(flags))
	cmd.AddCommand(newDoctorCmd(flags))

	return cmd
}

// resolveRoot picks the library root: a positional argument, then --root,
// then the working directory.
func resolveRoot(flags *globalFlags, args []string) (string, error) {
	rootDir := flags.rootDir
	if len(args) > 0 && args[0] != "" {
		rootDir = args[0]
	}
	if rootDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting working directory: %w", err)
		}
		rootDir = wd
	}
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return "", fmt.Errorf("resolving root %s: %w", rootDir, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return "", fmt.Errorf("library root: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("library root %s is not a directory", absRoot)
	}
	return absRoot, nil
}

// parseLevel maps a level name to slog.Level; unknown names mean info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupLogger creates an slog.Logger writing to stderr or a file, never to
// stdout: stdout carries MCP stdio and JSON command output. Terminals get the
// text handler, files and pipes get JSON.
func setupLogger(level string, logFile string) *slog.Logger {
	options := &slog.HandlerOptions{Level: parseLevel(level)}

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			return slog.New(slog.NewJSONHandler(f, options))
		}
		fmt.Fprintf(os.Stderr, "Warning: cannot open log file %s: %v, falling back to stderr\n", logFile, err)
	}

	if isTerminal(os.Stderr) {
		return slog.New(slog.NewTextHandler(os.Stderr, options))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, options))
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
