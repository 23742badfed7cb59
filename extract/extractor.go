// Package extract pulls candidate technical vocabulary out of documents by
// running an ordered list of text sources: the embedded outline, the text
// layer, then OCR.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lexandro/libindex-mcp/terms"
)

// Extractor runs the strategy chain for one document at a time. It is safe for
// concurrent use as long as its Opener, strategies and classifier are.
type Extractor struct {
	opener     Opener
	strategies []Strategy
	classifier *terms.Classifier
	logger     *slog.Logger
	observe    func(strategy string)
}

// ExtractorOptions configures an Extractor. Nil Strategies means DefaultStrategies.
type ExtractorOptions struct {
	Opener     Opener
	Strategies []Strategy
	Classifier *terms.Classifier
	Logger     *slog.Logger
	// Observe is called with the name of the strategy whose text was used,
	// or "none" when nothing produced text.
	Observe func(strategy string)
}

// DefaultStrategies returns outline, text-layer and OCR in that order.
func DefaultStrategies(options Options, engine OCREngine) []Strategy {
	return []Strategy{
		OutlineStrategy{},
		TextLayerStrategy{Options: options},
		OCRStrategy{Options: options, Engine: engine},
	}
}

// NewExtractor creates an Extractor.
func NewExtractor(options ExtractorOptions) *Extractor {
	strategies := options.Strategies
	if strategies == nil {
		strategies = DefaultStrategies(DefaultOptions(), nil)
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		opener:     options.Opener,
		strategies: strategies,
		classifier: options.Classifier,
		logger:     logger,
		observe:    options.Observe,
	}
}

// Extract returns the sorted, deduplicated candidate terms of the document at
// path. Failures are logged and yield an empty slice.
func (e *Extractor) Extract(ctx context.Context, path string) []string {
	text, _ := e.Text(ctx, path)
	return e.Terms(text)
}

// Terms returns the accepted candidate terms of source text already obtained
// from Text.
func (e *Extractor) Terms(text string) []string {
	if text == "" {
		return []string{}
	}
	return Candidates(Normalize(text), e.classifier)
}

// Text returns the raw source text chosen by the strategy chain and the name
// of the strategy that produced it.
func (e *Extractor) Text(ctx context.Context, path string) (string, string) {
	src, err := e.open(ctx, path)
	if err != nil {
		e.logger.Debug("extraction skipped", "path", path, "error", err)
		e.notify("none")
		return "", "none"
	}
	defer src.Close()

	// The longest unfinished result is kept in case no strategy is conclusive.
	best, bestName := "", "none"
	for _, s := range e.strategies {
		if ctx.Err() != nil {
			break
		}
		text, done, err := e.run(ctx, s, src)
		if err != nil {
			e.logger.Debug("extraction strategy failed", "path", path, "strategy", s.Name(), "error", err)
		}
		if done {
			e.notify(s.Name())
			return text, s.Name()
		}
		if len(strings.TrimSpace(text)) > len(strings.TrimSpace(best)) {
			best, bestName = text, s.Name()
		}
	}
	e.notify(bestName)
	return best, bestName
}

func (e *Extractor) open(ctx context.Context, path string) (src Source, err error) {
	defer recoverCorrupt(path, &err)
	if e.opener == nil {
		return nil, fmt.Errorf("%s: no opener configured: %w", path, ErrUnsupportedFormat)
	}
	return e.opener.Open(ctx, path)
}

func (e *Extractor) run(ctx context.Context, s Strategy, src Source) (text string, done bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, done, err = "", false, fmt.Errorf("%s strategy: %w: %v", s.Name(), ErrCorruptDocument, r)
		}
	}()
	return s.Extract(ctx, src)
}

func (e *Extractor) notify(name string) {
	if e.observe != nil {
		e.observe(name)
	}
}
