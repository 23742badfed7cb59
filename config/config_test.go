package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexandro/libindex-mcp/metadata"
)

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func Test_NewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, ".metadata_cache", cfg.Paths.CacheDir)
	assert.Equal(t, "library.json", cfg.Paths.Catalog)
	assert.Equal(t, "indexing_failures.json", cfg.Paths.Failures)
	assert.Equal(t, []string{".pdf", ".djvu", ".epub", ".mobi"}, cfg.Paths.Extensions)
	assert.Equal(t, 15*time.Minute, cfg.IndexTimeout())
	assert.Equal(t, 10*time.Second, cfg.EnrichTimeout())
	assert.True(t, cfg.Enrich.Enabled)
	assert.Contains(t, cfg.Publishers, "Springer")
	require.NoError(t, cfg.Validate())
}

func Test_Load_NoFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, NewConfig().Paths, cfg.Paths)
}

func Test_Load_MergesYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ".libindex.yaml", `
paths:
  catalog: catalog.json
  exclude: ["scans/**"]
index:
  workers: 3
  timeout: 90s
  classifier: hybrid
extract:
  limits:
    max_ocr_pages: 5
  tools:
    tesseract: /opt/bin/tesseract
enrich:
  enabled: false
server:
  log_level: debug
publishers: ["Casterman", "Hachette"]
overrides:
  - contains: tintin
    author: Hergé
    strip_number_prefix: true
    keywords: [comic, tintin]
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "catalog.json", cfg.Paths.Catalog)
	assert.Equal(t, ".metadata_cache", cfg.Paths.CacheDir, "unset values keep defaults")
	assert.Equal(t, []string{"scans/**"}, cfg.Paths.Exclude)
	assert.Equal(t, 3, cfg.Index.Workers)
	assert.Equal(t, 90*time.Second, cfg.IndexTimeout())
	assert.Equal(t, "hybrid", cfg.Index.Classifier)
	assert.Equal(t, 5, cfg.Extract.Limits.MaxOCRPages)
	assert.Equal(t, 50, cfg.Extract.Limits.MaxScanPages)
	assert.Equal(t, "/opt/bin/tesseract", cfg.Extract.Tools.Tesseract)
	assert.Equal(t, "pdftoppm", cfg.Extract.Tools.PdfToPPM)
	assert.False(t, cfg.Enrich.Enabled)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, []string{"Casterman", "Hachette"}, cfg.Publishers)
	require.Len(t, cfg.Overrides, 1)
	assert.Equal(t, "Hergé", cfg.Overrides[0].Author)
	assert.True(t, cfg.Overrides[0].StripNumberPrefix)
}

func Test_Load_EnrichStaysEnabledWhenOmitted(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ".libindex.yml", "enrich:\n  max_seeds: 2\n")
	t.Setenv("SKIP_WIKI", "")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.True(t, cfg.Enrich.Enabled)
	assert.Equal(t, 2, cfg.Enrich.MaxSeeds)
}

func Test_Load_YAMLTakesPrecedenceOverYML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ".libindex.yaml", "index:\n  workers: 2\n")
	writeConfig(t, dir, ".libindex.yml", "index:\n  workers: 7\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Index.Workers)
}

func Test_Load_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ".libindex.yaml", "index: [not, a, map")

	_, err := Load(dir)
	assert.Error(t, err)
}

func Test_Load_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ".libindex.yaml", "index:\n  workers: 2\n")
	t.Setenv("LIBINDEX_WORKERS", "6")
	t.Setenv("LIBINDEX_TIMEOUT", "1m")
	t.Setenv("LIBINDEX_LOG_LEVEL", "warn")
	t.Setenv("SKIP_WIKI", "1")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Index.Workers)
	assert.Equal(t, time.Minute, cfg.IndexTimeout())
	assert.Equal(t, "warn", cfg.Server.LogLevel)
	assert.False(t, cfg.Enrich.Enabled)
}

func Test_Load_EnvIgnoresBadWorkers(t *testing.T) {
	t.Setenv("LIBINDEX_WORKERS", "lots")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, NewConfig().Index.Workers, cfg.Index.Workers)
}

func Test_Config_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero workers", func(c *Config) { c.Index.Workers = 0 }},
		{"bad timeout", func(c *Config) { c.Index.Timeout = "soon" }},
		{"negative timeout", func(c *Config) { c.Index.Timeout = "-1s" }},
		{"bad classifier", func(c *Config) { c.Index.Classifier = "magic" }},
		{"bad log level", func(c *Config) { c.Server.LogLevel = "loud" }},
		{"no extensions", func(c *Config) { c.Paths.Extensions = nil }},
		{"extension without dot", func(c *Config) { c.Paths.Extensions = []string{"pdf"} }},
		{"override without target", func(c *Config) { c.Overrides = []metadata.Override{{Author: "Anonymous"}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func Test_Resolve(t *testing.T) {
	assert.Equal(t, filepath.Join("/lib", "library.json"), Resolve("/lib", "library.json"))
	assert.Equal(t, "/abs/catalog.json", Resolve("/lib", "/abs/catalog.json"))
	assert.Equal(t, "", Resolve("/lib", ""))
}

func Test_Config_YAML(t *testing.T) {
	data, err := NewConfig().YAML()
	require.NoError(t, err)
	assert.Contains(t, string(data), "cache_dir: .metadata_cache")
}
