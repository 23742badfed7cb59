// Package metadata builds catalog records from a document's filename, its
// extracted content terms and optional encyclopedia enrichment.
package metadata

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/lexandro/libindex-mcp/cache"
	"github.com/lexandro/libindex-mcp/format"
	"github.com/lexandro/libindex-mcp/library"
	"github.com/lexandro/libindex-mcp/terms"
)

// TermExtractor pulls candidate terms out of a document's content.
type TermExtractor interface {
	Extract(ctx context.Context, path string) []string
}

// Enricher expands seed terms into related glossary terms.
type Enricher interface {
	Expand(ctx context.Context, seeds []string) []string
}

// Options configures an Extractor. Content and Enricher may be nil.
type Options struct {
	Glossary   *terms.Glossary
	Publishers []string
	Overrides  []Override
	Content    TermExtractor
	Enricher   Enricher
	Logger     *slog.Logger
}

// Extractor produces one Record per document.
type Extractor struct {
	glossary   *terms.Glossary
	publishers []string
	overrides  []Override
	content    TermExtractor
	enricher   Enricher
	logger     *slog.Logger
}

// NewExtractor creates an extractor.
func NewExtractor(options Options) *Extractor {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		glossary:   options.Glossary,
		publishers: options.Publishers,
		overrides:  options.Overrides,
		content:    options.Content,
		enricher:   options.Enricher,
		logger:     logger,
	}
}

// WithoutEnrichment returns a copy of the extractor that never calls the enricher.
func (e *Extractor) WithoutEnrichment() *Extractor {
	c := *e
	c.enricher = nil
	return &c
}

// Extract builds the record for root/relPath. It never fails: content that
// cannot be read leaves the filename-derived fields in place.
func (e *Extractor) Extract(ctx context.Context, root, relPath string) library.Record {
	relPath = filepath.ToSlash(relPath)
	absPath := filepath.Join(root, filepath.FromSlash(relPath))
	filename := filepath.Base(absPath)

	fields := ParseFilename(filename, e.publishers)
	docFormat := format.Detect(filename)

	record := library.Record{
		Path:        relPath,
		Filename:    filename,
		Author:      fields.Author,
		Title:       fields.Title,
		Publisher:   fields.Publisher,
		YearEdition: fields.YearEdition,
		Type:        docFormat.RecordType(),
	}

	hash, err := cache.ContentHash(absPath)
	if err != nil {
		e.logger.Warn("hashing document", "path", relPath, "error", err)
	}
	record.ContentHash = hash

	ApplyOverrides(&record, e.overrides)

	seeds := Seeds(record.Title, e.glossary)
	tokens := [][]string{seeds}

	if docFormat.Extractable() && e.content != nil && ctx.Err() == nil {
		e.logger.Debug("extracting content terms", "path", relPath)
		found := e.content.Extract(ctx, absPath)
		if len(found) > 0 {
			e.logger.Debug("content terms found", "path", relPath, "count", len(found))
		}
		tokens = append(tokens, found)
	}

	if e.enricher != nil && len(seeds) > 0 && ctx.Err() == nil {
		tokens = append(tokens, e.enricher.Expand(ctx, seeds))
	}

	record.SearchTokens = terms.SortedSet(tokens...)
	return record
}
