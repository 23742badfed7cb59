package extract

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Strategy turns a document into source text for candidate generation.
// done reports that the text is good enough to skip every later strategy.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, src Source) (text string, done bool, err error)
}

// Options bounds the work the text-layer and OCR strategies may do.
type Options struct {
	MaxScanPages     int      `yaml:"max_scan_pages"`
	MarkerExtraPages int      `yaml:"marker_extra_pages"`
	FallbackPages    int      `yaml:"fallback_pages"`
	MinTextChars     int      `yaml:"min_text_chars"`
	MaxOCRPages      int      `yaml:"max_ocr_pages"`
	OCRDPI           int      `yaml:"ocr_dpi"`
	Markers          []string `yaml:"markers"`
}

// DefaultOptions returns the page and size limits used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		MaxScanPages:     50,
		MarkerExtraPages: 4,
		FallbackPages:    5,
		MinTextChars:     200,
		MaxOCRPages:      25,
		OCRDPI:           300,
		Markers:          DefaultMarkers,
	}
}

// OutlineStrategy uses the embedded bookmark tree. Any non-empty outline is final.
type OutlineStrategy struct{}

func (OutlineStrategy) Name() string { return "outline" }

func (OutlineStrategy) Extract(ctx context.Context, src Source) (string, bool, error) {
	titles, err := src.Outline(ctx)
	if err != nil {
		return "", false, err
	}
	text := strings.Join(titles, "\n")
	return text, strings.TrimSpace(text) != "", nil
}

// TextLayerStrategy scans the embedded text layer for a table of contents.
type TextLayerStrategy struct {
	Options Options
}

func (TextLayerStrategy) Name() string { return "text-layer" }

func (s TextLayerStrategy) Extract(ctx context.Context, src Source) (string, bool, error) {
	pageCount, err := src.PageCount(ctx)
	if err != nil {
		return "", false, err
	}

	pages := make(map[int]string)
	read := func(p int) string {
		if text, ok := pages[p]; ok {
			return text
		}
		text, err := src.PageText(ctx, p)
		if err != nil {
			text = ""
		}
		pages[p] = text
		return text
	}

	scan := min(pageCount, s.Options.MaxScanPages)
	first, last := 0, 0
	for p := 1; p <= scan; p++ {
		if err := ctx.Err(); err != nil {
			return "", false, err
		}
		if HasMarker(read(p), s.Options.Markers) {
			first, last = p, min(pageCount, p+s.Options.MarkerExtraPages)
			break
		}
	}
	if first == 0 {
		first, last = 1, min(pageCount, s.Options.FallbackPages)
	}

	var b strings.Builder
	for p := first; p <= last; p++ {
		if err := ctx.Err(); err != nil {
			return "", false, err
		}
		b.WriteString(read(p))
		b.WriteByte('\n')
	}
	text := b.String()
	return text, len(Normalize(text)) >= s.Options.MinTextChars, nil
}

// OCRStrategy rasterizes pages one at a time and recognizes them, stopping a
// few pages past the first table-of-contents marker.
type OCRStrategy struct {
	Options Options
	Engine  OCREngine
}

func (OCRStrategy) Name() string { return "ocr" }

func (s OCRStrategy) Extract(ctx context.Context, src Source) (string, bool, error) {
	if s.Engine == nil {
		return "", false, nil
	}
	pageCount, err := src.PageCount(ctx)
	if err != nil {
		return "", false, err
	}

	dir, err := os.MkdirTemp("", "libindex-ocr-*")
	if err != nil {
		return "", false, fmt.Errorf("creating ocr work dir: %w", err)
	}
	defer os.RemoveAll(dir)

	var b strings.Builder
	markerPage := 0
	limit := min(pageCount, s.Options.MaxOCRPages)
	for p := 1; p <= limit; p++ {
		if err := ctx.Err(); err != nil {
			return "", false, err
		}
		image, err := src.RenderPage(ctx, p, s.Options.OCRDPI, dir)
		if err != nil {
			return b.String(), false, err
		}
		text, err := s.Engine.Recognize(ctx, image)
		os.Remove(image)
		if err != nil {
			return b.String(), false, err
		}
		b.WriteString(text)
		b.WriteByte('\n')

		if markerPage == 0 && HasMarker(text, s.Options.Markers) {
			markerPage = p
		}
		if markerPage > 0 && p >= markerPage+s.Options.MarkerExtraPages {
			break
		}
	}
	out := b.String()
	return out, Normalize(out) != "", nil
}
