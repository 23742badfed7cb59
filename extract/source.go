package extract

import (
	"context"
	"fmt"

	"github.com/lexandro/libindex-mcp/format"
)

// Source gives page-level access to one open document. Pages are 1-based.
type Source interface {
	Outline(ctx context.Context) ([]string, error)
	PageCount(ctx context.Context) (int, error)
	PageText(ctx context.Context, page int) (string, error)
	// RenderPage writes a raster image of page into dir and returns its path.
	RenderPage(ctx context.Context, page int, dpi int, dir string) (string, error)
	Close() error
}

// Opener opens a document as a Source.
type Opener interface {
	Open(ctx context.Context, path string) (Source, error)
}

// FormatOpener picks a Source implementation by document format.
type FormatOpener struct {
	Runner CommandRunner
	Tools  Tools
}

// Open returns a Source for PDF and DJVU documents, ErrUnsupportedFormat otherwise.
func (o FormatOpener) Open(ctx context.Context, path string) (Source, error) {
	runner := o.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	switch f := format.DetectFile(path); f {
	case format.PDF:
		return openPDF(path, runner, o.Tools)
	case format.DJVU:
		return &djvuSource{path: path, runner: runner, tools: o.Tools}, nil
	default:
		return nil, fmt.Errorf("%s (%s): %w", path, f, ErrUnsupportedFormat)
	}
}
