// Package config loads libindex settings from defaults, .libindex.yaml in the
// library root and LIBINDEX_* environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lexandro/libindex-mcp/enrich"
	"github.com/lexandro/libindex-mcp/extract"
	"github.com/lexandro/libindex-mcp/format"
	"github.com/lexandro/libindex-mcp/metadata"
)

// Config is the complete libindex configuration.
type Config struct {
	Paths      PathsConfig         `yaml:"paths"`
	Index      IndexConfig         `yaml:"index"`
	Extract    ExtractConfig       `yaml:"extract"`
	Enrich     EnrichConfig        `yaml:"enrich"`
	Server     ServerConfig        `yaml:"server"`
	Publishers []string            `yaml:"publishers,omitempty"`
	Overrides  []metadata.Override `yaml:"overrides,omitempty"`
}

// PathsConfig locates the library's generated files, relative to the library root
// unless absolute.
type PathsConfig struct {
	CacheDir   string   `yaml:"cache_dir"`
	Catalog    string   `yaml:"catalog"`
	Failures   string   `yaml:"failures"`
	Glossary   string   `yaml:"glossary"`
	Extensions []string `yaml:"extensions"`
	Exclude    []string `yaml:"exclude"`
}

// IndexConfig controls index runs.
type IndexConfig struct {
	Workers    int    `yaml:"workers"`
	Timeout    string `yaml:"timeout"`
	Classifier string `yaml:"classifier"` // heuristic, glossary or hybrid
	Debounce   string `yaml:"debounce"`
}

// ExtractConfig controls content extraction.
type ExtractConfig struct {
	Limits      extract.Options `yaml:"limits"`
	Tools       extract.Tools   `yaml:"tools"`
	OCRLanguage string          `yaml:"ocr_language"`
}

// EnrichConfig controls encyclopedia enrichment.
type EnrichConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Endpoint  string  `yaml:"endpoint"`
	UserAgent string  `yaml:"user_agent"`
	Timeout   string  `yaml:"timeout"`
	Rate      float64 `yaml:"rate"`
	CacheSize int     `yaml:"cache_size"`
	MaxSeeds  int     `yaml:"max_seeds"`
}

// ServerConfig controls logging and the serve command.
type ServerConfig struct {
	LogLevel   string `yaml:"log_level"`
	LogFile    string `yaml:"log_file"`
	HTTPAddr   string `yaml:"http_addr"`
	MaxResults int    `yaml:"max_results"`
}

// NewConfig returns the default configuration.
func NewConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			CacheDir:   ".metadata_cache",
			Catalog:    "library.json",
			Failures:   "indexing_failures.json",
			Glossary:   "glossary.json",
			Extensions: append([]string(nil), format.DefaultExtensions...),
		},
		Index: IndexConfig{
			Workers:    runtime.NumCPU(),
			Timeout:    "15m",
			Classifier: "heuristic",
			Debounce:   "2s",
		},
		Extract: ExtractConfig{
			Limits: extract.DefaultOptions(),
			Tools:  extract.DefaultTools(),
		},
		Enrich: EnrichConfig{
			Enabled:   true,
			Endpoint:  enrich.DefaultEndpoint,
			UserAgent: enrich.DefaultUserAgent,
			Timeout:   "10s",
			Rate:      enrich.DefaultRate,
			CacheSize: enrich.DefaultCacheSize,
			MaxSeeds:  enrich.DefaultMaxSeeds,
		},
		Server: ServerConfig{
			LogLevel:   "info",
			MaxResults: 50,
		},
		Publishers: append([]string(nil), metadata.DefaultPublishers...),
	}
}

// Load builds the configuration for the library rooted at dir.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadFromFile reads .libindex.yaml, or .libindex.yml as a fallback. No file is fine.
func (c *Config) loadFromFile(dir string) error {
	for _, name := range []string{".libindex.yaml", ".libindex.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return c.loadYAML(path)
		}
	}
	return nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)

	// yaml leaves an absent bool false, so only an explicit "enabled: false" disables enrichment.
	var raw struct {
		Enrich struct {
			Enabled *bool `yaml:"enabled"`
		} `yaml:"enrich"`
	}
	if err := yaml.Unmarshal(data, &raw); err == nil && raw.Enrich.Enabled != nil {
		c.Enrich.Enabled = *raw.Enrich.Enabled
	}
	return nil
}

// mergeWith copies the non-zero values of other into c.
func (c *Config) mergeWith(other *Config) {
	mergeString(&c.Paths.CacheDir, other.Paths.CacheDir)
	mergeString(&c.Paths.Catalog, other.Paths.Catalog)
	mergeString(&c.Paths.Failures, other.Paths.Failures)
	mergeString(&c.Paths.Glossary, other.Paths.Glossary)
	if len(other.Paths.Extensions) > 0 {
		c.Paths.Extensions = other.Paths.Extensions
	}
	if len(other.Paths.Exclude) > 0 {
		c.Paths.Exclude = append(c.Paths.Exclude, other.Paths.Exclude...)
	}

	mergeInt(&c.Index.Workers, other.Index.Workers)
	mergeString(&c.Index.Timeout, other.Index.Timeout)
	mergeString(&c.Index.Classifier, other.Index.Classifier)
	mergeString(&c.Index.Debounce, other.Index.Debounce)

	limits, o := &c.Extract.Limits, other.Extract.Limits
	mergeInt(&limits.MaxScanPages, o.MaxScanPages)
	mergeInt(&limits.MarkerExtraPages, o.MarkerExtraPages)
	mergeInt(&limits.FallbackPages, o.FallbackPages)
	mergeInt(&limits.MinTextChars, o.MinTextChars)
	mergeInt(&limits.MaxOCRPages, o.MaxOCRPages)
	mergeInt(&limits.OCRDPI, o.OCRDPI)
	if len(o.Markers) > 0 {
		limits.Markers = o.Markers
	}

	tools, t := &c.Extract.Tools, other.Extract.Tools
	mergeString(&tools.PdfToPPM, t.PdfToPPM)
	mergeString(&tools.Djvused, t.Djvused)
	mergeString(&tools.Djvutxt, t.Djvutxt)
	mergeString(&tools.Ddjvu, t.Ddjvu)
	mergeString(&tools.Tesseract, t.Tesseract)
	mergeString(&c.Extract.OCRLanguage, other.Extract.OCRLanguage)

	mergeString(&c.Enrich.Endpoint, other.Enrich.Endpoint)
	mergeString(&c.Enrich.UserAgent, other.Enrich.UserAgent)
	mergeString(&c.Enrich.Timeout, other.Enrich.Timeout)
	if other.Enrich.Rate != 0 {
		c.Enrich.Rate = other.Enrich.Rate
	}
	mergeInt(&c.Enrich.CacheSize, other.Enrich.CacheSize)
	mergeInt(&c.Enrich.MaxSeeds, other.Enrich.MaxSeeds)

	mergeString(&c.Server.LogLevel, other.Server.LogLevel)
	mergeString(&c.Server.LogFile, other.Server.LogFile)
	mergeString(&c.Server.HTTPAddr, other.Server.HTTPAddr)
	mergeInt(&c.Server.MaxResults, other.Server.MaxResults)

	if len(other.Publishers) > 0 {
		c.Publishers = other.Publishers
	}
	if len(other.Overrides) > 0 {
		c.Overrides = append(c.Overrides, other.Overrides...)
	}
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func mergeInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

// applyEnvOverrides applies LIBINDEX_* environment variables.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("LIBINDEX_CACHE_DIR"); v != "" {
		c.Paths.CacheDir = v
	}
	if v := os.Getenv("LIBINDEX_GLOSSARY"); v != "" {
		c.Paths.Glossary = v
	}
	if v := os.Getenv("LIBINDEX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Index.Workers = n
		}
	}
	if v := os.Getenv("LIBINDEX_TIMEOUT"); v != "" {
		c.Index.Timeout = v
	}
	if v := os.Getenv("LIBINDEX_CLASSIFIER"); v != "" {
		c.Index.Classifier = v
	}
	if v := os.Getenv("LIBINDEX_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("LIBINDEX_LOG_FILE"); v != "" {
		c.Server.LogFile = v
	}
	if v := os.Getenv("LIBINDEX_HTTP_ADDR"); v != "" {
		c.Server.HTTPAddr = v
	}
	if v := os.Getenv("LIBINDEX_OCR_LANGUAGE"); v != "" {
		c.Extract.OCRLanguage = v
	}
	if v := os.Getenv("LIBINDEX_ENRICH"); v != "" {
		c.Enrich.Enabled = strings.ToLower(v) == "true" || v == "1"
	}
	// SKIP_WIKI=1 is what older library scripts set.
	if os.Getenv("SKIP_WIKI") == "1" {
		c.Enrich.Enabled = false
	}
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if c.Index.Workers < 1 {
		return fmt.Errorf("index.workers must be at least 1, got %d", c.Index.Workers)
	}
	if d, err := time.ParseDuration(c.Index.Timeout); err != nil || d <= 0 {
		return fmt.Errorf("index.timeout must be a positive duration, got %q", c.Index.Timeout)
	}
	if _, err := time.ParseDuration(c.Index.Debounce); err != nil {
		return fmt.Errorf("index.debounce must be a duration, got %q", c.Index.Debounce)
	}
	if d, err := time.ParseDuration(c.Enrich.Timeout); err != nil || d <= 0 {
		return fmt.Errorf("enrich.timeout must be a positive duration, got %q", c.Enrich.Timeout)
	}

	validModes := map[string]bool{"heuristic": true, "glossary": true, "hybrid": true}
	if !validModes[strings.ToLower(c.Index.Classifier)] {
		return fmt.Errorf("index.classifier must be 'heuristic', 'glossary', or 'hybrid', got %s", c.Index.Classifier)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}

	if len(c.Paths.Extensions) == 0 {
		return fmt.Errorf("paths.extensions must not be empty")
	}
	for _, ext := range c.Paths.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("paths.extensions entries must start with '.', got %s", ext)
		}
	}

	for i, o := range c.Overrides {
		if o.Match == "" && o.Contains == "" {
			return fmt.Errorf("overrides[%d] needs match or contains", i)
		}
	}
	return nil
}

// IndexTimeout is the per-document time limit.
func (c *Config) IndexTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Index.Timeout)
	return d
}

// DebounceInterval is the watcher's quiet period.
func (c *Config) DebounceInterval() time.Duration {
	d, _ := time.ParseDuration(c.Index.Debounce)
	return d
}

// EnrichTimeout is the per-request encyclopedia timeout.
func (c *Config) EnrichTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Enrich.Timeout)
	return d
}

// Resolve returns path joined to root unless it is already absolute.
func Resolve(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// YAML renders the effective configuration.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}
