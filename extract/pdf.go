package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pdfSource reads outlines and text layers with ledongthuc/pdf and rasterizes
// pages with pdftoppm.
type pdfSource struct {
	path   string
	file   *os.File
	reader *pdf.Reader
	runner CommandRunner
	tools  Tools
}

func openPDF(path string, runner CommandRunner, tools Tools) (src *pdfSource, err error) {
	defer recoverCorrupt(path, &err)

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w: %v", path, ErrCorruptDocument, err)
	}
	return &pdfSource{path: path, file: f, reader: r, runner: runner, tools: tools}, nil
}

func (s *pdfSource) Outline(ctx context.Context) (titles []string, err error) {
	defer recoverCorrupt(s.path, &err)

	var walk func(o pdf.Outline)
	walk = func(o pdf.Outline) {
		if t := strings.TrimSpace(o.Title); t != "" {
			titles = append(titles, t)
		}
		for _, child := range o.Child {
			walk(child)
		}
	}
	walk(s.reader.Outline())
	return titles, nil
}

func (s *pdfSource) PageCount(ctx context.Context) (n int, err error) {
	defer recoverCorrupt(s.path, &err)
	return s.reader.NumPage(), nil
}

func (s *pdfSource) PageText(ctx context.Context, page int) (text string, err error) {
	defer recoverCorrupt(s.path, &err)

	p := s.reader.Page(page)
	if p.V.IsNull() {
		return "", nil
	}
	text, err = p.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("page %d text: %w", page, err)
	}
	return text, nil
}

func (s *pdfSource) RenderPage(ctx context.Context, page int, dpi int, dir string) (string, error) {
	prefix := filepath.Join(dir, "page-"+strconv.Itoa(page))
	p := strconv.Itoa(page)
	_, err := s.runner.Run(ctx, s.tools.PdfToPPM,
		"-f", p, "-l", p,
		"-r", strconv.Itoa(dpi),
		"-png", "-singlefile",
		s.path, prefix,
	)
	if err != nil {
		return "", fmt.Errorf("rendering page %d: %w", page, err)
	}
	return prefix + ".png", nil
}

func (s *pdfSource) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

// recoverCorrupt turns a reader panic into ErrCorruptDocument. The PDF reader
// panics on some malformed cross-reference tables instead of returning an error.
func recoverCorrupt(path string, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s: %w: %v", path, ErrCorruptDocument, r)
	}
}
