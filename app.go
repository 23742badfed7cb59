package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lexandro/libindex-mcp/cache"
	"github.com/lexandro/libindex-mcp/config"
	"github.com/lexandro/libindex-mcp/enrich"
	"github.com/lexandro/libindex-mcp/extract"
	"github.com/lexandro/libindex-mcp/ignore"
	"github.com/lexandro/libindex-mcp/library"
	"github.com/lexandro/libindex-mcp/metadata"
	"github.com/lexandro/libindex-mcp/metrics"
	"github.com/lexandro/libindex-mcp/runner"
	"github.com/lexandro/libindex-mcp/terms"
)

// app holds the components wired from one library's configuration.
type app struct {
	root         string
	cfg          *config.Config
	logger       *slog.Logger
	metrics      *metrics.Metrics
	matcher      *ignore.Matcher
	store        *cache.Store
	glossary     *terms.Glossary
	content      *extract.Extractor
	records      *metadata.Extractor
	runner       *runner.Runner
	catalogPath  string
	failuresPath string

	mu      sync.Mutex
	catalog *library.Catalog // set by serve; refreshed after every run
}

// loadApp reads the library's configuration, applies the global flags and
// builds the components.
func loadApp(flags *globalFlags, rootDir string) (*app, error) {
	cfg, err := config.Load(rootDir)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Server.LogLevel = flags.logLevel
	}
	if flags.logFile != "" {
		cfg.Server.LogFile = flags.logFile
	}
	if cfg.Server.LogFile == "" && flags.defaultLogFile != "" {
		cfg.Server.LogFile = defaultLogPath(rootDir, cfg, flags.defaultLogFile)
	}
	logger := setupLogger(cfg.Server.LogLevel, config.Resolve(rootDir, cfg.Server.LogFile))
	return newApp(rootDir, cfg, logger)
}

// defaultLogPath places a log file named name in the cache directory, creating
// the directory so the file can be opened. An empty result means stderr.
func defaultLogPath(rootDir string, cfg *config.Config, name string) string {
	cacheDir := config.Resolve(rootDir, cfg.Paths.CacheDir)
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cannot create cache directory %s: %v, logging to stderr\n", cacheDir, err)
		return ""
	}
	return filepath.Join(cacheDir, name)
}

// newApp builds every component from cfg.
func newApp(rootDir string, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{
		root:         rootDir,
		cfg:          cfg,
		logger:       logger,
		metrics:      metrics.New(),
		catalogPath:  config.Resolve(rootDir, cfg.Paths.Catalog),
		failuresPath: config.Resolve(rootDir, cfg.Paths.Failures),
	}

	glossary, err := terms.LoadGlossary(config.Resolve(rootDir, cfg.Paths.Glossary))
	if err != nil {
		return nil, err
	}
	a.glossary = glossary

	mode, err := terms.ParseMode(cfg.Index.Classifier)
	if err != nil {
		return nil, err
	}
	if mode != terms.ModeHeuristic && glossary.Len() == 0 {
		logger.Warn("classifier needs a glossary but none was loaded", "mode", cfg.Index.Classifier, "glossary", cfg.Paths.Glossary)
	}
	classifier := terms.NewClassifier(terms.ClassifierOptions{
		Mode:     mode,
		Glossary: glossary,
		Tagger:   terms.NewProseTagger(),
	})

	cmdRunner := extract.ExecRunner{}
	tools := cfg.Extract.Tools
	ocr := extract.Tesseract{Runner: cmdRunner, Binary: tools.Tesseract, Language: cfg.Extract.OCRLanguage}
	a.content = extract.NewExtractor(extract.ExtractorOptions{
		Opener:     extract.FormatOpener{Runner: cmdRunner, Tools: tools},
		Strategies: extract.DefaultStrategies(cfg.Extract.Limits, ocr),
		Classifier: classifier,
		Logger:     logger,
		Observe:    a.metrics.ObserveStrategy,
	})

	recordOptions := metadata.Options{
		Glossary:   glossary,
		Publishers: cfg.Publishers,
		Overrides:  cfg.Overrides,
		Content:    a.content,
		Logger:     logger,
	}
	if cfg.Enrich.Enabled {
		recordOptions.Enricher = enrich.New(enrich.Options{
			Endpoint:  cfg.Enrich.Endpoint,
			UserAgent: cfg.Enrich.UserAgent,
			Timeout:   cfg.EnrichTimeout(),
			Rate:      cfg.Enrich.Rate,
			CacheSize: cfg.Enrich.CacheSize,
			MaxSeeds:  cfg.Enrich.MaxSeeds,
			Glossary:  glossary,
			Logger:    logger,
		})
	}
	a.records = metadata.NewExtractor(recordOptions)

	cacheDir := config.Resolve(rootDir, cfg.Paths.CacheDir)
	a.matcher = ignore.NewMatcher(ignore.MatcherOptions{
		RootDir:        rootDir,
		CacheDir:       cacheDir,
		Extensions:     cfg.Paths.Extensions,
		CustomPatterns: cfg.Paths.Exclude,
	})
	a.store = cache.NewStore(cacheDir, logger)

	a.runner = runner.New(runner.Config{
		Store:         a.store,
		Filter:        a.matcher,
		Extractor:     a.records.WithoutEnrichment(),
		FullExtractor: a.records,
		CatalogPath:   a.catalogPath,
		FailuresPath:  a.failuresPath,
		Metrics:       a.metrics,
		Logger:        logger,
		OnCatalog:     a.refreshCatalog,
	})
	return a, nil
}

// runOptions fills the run options the caller left unset from the configuration.
func (a *app) runOptions(options runner.Options) runner.Options {
	if options.Workers <= 0 {
		options.Workers = a.cfg.Index.Workers
	}
	if options.Timeout <= 0 {
		options.Timeout = a.cfg.IndexTimeout()
	}
	return options
}

// openCatalog loads library.json into an in-memory catalog that later runs keep current.
func (a *app) openCatalog() (*library.Catalog, error) {
	records, err := library.Load(a.catalogPath)
	if err != nil {
		return nil, err
	}
	catalog, err := library.NewCatalog(records)
	if err != nil {
		return nil, fmt.Errorf("building catalog: %w", err)
	}
	a.mu.Lock()
	a.catalog = catalog
	a.mu.Unlock()
	return catalog, nil
}

func (a *app) refreshCatalog(records []library.Record) {
	a.mu.Lock()
	catalog := a.catalog
	a.mu.Unlock()
	if catalog == nil {
		return
	}
	if err := catalog.Replace(records); err != nil {
		a.logger.Error("refreshing in-memory catalog", "error", err)
		return
	}
	a.logger.Debug("in-memory catalog refreshed", "records", len(records))
}

// relPath converts a path given on the command line into a library-relative
// path. Paths outside the library are rejected.
func (a *app) relPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	rel, err := filepath.Rel(a.root, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside the library root %s", path, a.root)
	}
	return filepath.ToSlash(rel), nil
}
