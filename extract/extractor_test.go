package extract

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexandro/libindex-mcp/terms"
)

// fakeSource records how often each access path is used.
type fakeSource struct {
	outline  []string
	pages    []string
	ocrPages []string

	outlineCalls int
	countCalls   int
	textCalls    int
	renderCalls  int
	closed       bool
	panicOnText  bool
}

func (f *fakeSource) Outline(ctx context.Context) ([]string, error) {
	f.outlineCalls++
	return f.outline, nil
}

func (f *fakeSource) PageCount(ctx context.Context) (int, error) {
	f.countCalls++
	return len(f.pages), nil
}

func (f *fakeSource) PageText(ctx context.Context, page int) (string, error) {
	f.textCalls++
	if f.panicOnText {
		panic("malformed xref")
	}
	return f.pages[page-1], nil
}

func (f *fakeSource) RenderPage(ctx context.Context, page int, dpi int, dir string) (string, error) {
	f.renderCalls++
	path := filepath.Join(dir, "p.png")
	return path, os.WriteFile(path, []byte(f.ocrPages[page-1]), 0644)
}

func (f *fakeSource) Close() error {
	f.closed = true
	return nil
}

type fakeOpener struct {
	src *fakeSource
	err error
}

func (o fakeOpener) Open(ctx context.Context, path string) (Source, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.src, nil
}

// fileEngine "recognizes" the text the fake source wrote into the image file.
type fileEngine struct{ calls int }

func (e *fileEngine) Recognize(ctx context.Context, imagePath string) (string, error) {
	e.calls++
	data, err := os.ReadFile(imagePath)
	return string(data), err
}

type nounTagger struct{}

func (nounTagger) Tag(words []string) []string {
	tags := make([]string, len(words))
	for i := range tags {
		tags[i] = "NN"
	}
	return tags
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestExtractor(src *fakeSource, engine OCREngine, observed *[]string) *Extractor {
	options := DefaultOptions()
	options.MinTextChars = 40
	return NewExtractor(ExtractorOptions{
		Opener:     fakeOpener{src: src},
		Strategies: DefaultStrategies(options, engine),
		Classifier: terms.NewClassifier(terms.ClassifierOptions{Tagger: nounTagger{}}),
		Logger:     testLogger(),
		Observe: func(name string) {
			if observed != nil {
				*observed = append(*observed, name)
			}
		},
	})
}

func repeatPages(n int, text string) []string {
	pages := make([]string, n)
	for i := range pages {
		pages[i] = text
	}
	return pages
}

func Test_Extractor_OutlineShortCircuits(t *testing.T) {
	src := &fakeSource{
		outline: []string{"Hilbert Spaces", "Spectral Theorem"},
		pages:   repeatPages(10, "Contents\nquantum entanglement"),
	}
	engine := &fileEngine{}
	var observed []string
	e := newTestExtractor(src, engine, &observed)

	got := e.Extract(context.Background(), "book.pdf")

	assert.Contains(t, got, "hilbert spaces")
	assert.Contains(t, got, "spectral theorem")
	assert.NotContains(t, got, "quantum entanglement")
	assert.Equal(t, 1, src.outlineCalls)
	assert.Equal(t, 0, src.countCalls, "text-layer scan must not run")
	assert.Equal(t, 0, src.textCalls, "text-layer scan must not run")
	assert.Equal(t, 0, src.renderCalls, "ocr must not run")
	assert.Equal(t, 0, engine.calls)
	assert.Equal(t, []string{"outline"}, observed)
	assert.True(t, src.closed)
}

func Test_Extractor_TextLayerMarkerWindow(t *testing.T) {
	pages := repeatPages(20, "filler prose about nothing")
	pages[6] = "Table of Contents\n1 Quantum Entanglement ........ 3\n2 Bell Inequalities ...... 17"
	pages[7] = "3 Decoherence Models ....... 45\n" + strings.Repeat("Density Operators ", 10)
	pages[15] = "Gauge Symmetry beyond the window"
	src := &fakeSource{pages: pages}
	var observed []string
	e := newTestExtractor(src, &fileEngine{}, &observed)

	text, strategy := e.Text(context.Background(), "book.pdf")

	assert.Equal(t, "text-layer", strategy)
	assert.Contains(t, text, "Bell Inequalities")
	assert.Contains(t, text, "Decoherence Models")
	assert.NotContains(t, text, "Gauge Symmetry")
	assert.Equal(t, 0, src.renderCalls)
}

func Test_Extractor_TextLayerFallsBackToFirstPages(t *testing.T) {
	pages := repeatPages(12, "")
	pages[0] = strings.Repeat("Riemann Surfaces Moduli Spaces ", 4)
	pages[9] = "Sheaf Cohomology"
	src := &fakeSource{pages: pages}
	e := newTestExtractor(src, &fileEngine{}, nil)

	text, strategy := e.Text(context.Background(), "book.pdf")

	assert.Equal(t, "text-layer", strategy)
	assert.Contains(t, text, "Riemann Surfaces")
	assert.NotContains(t, text, "Sheaf Cohomology", "only the first pages are used without a marker")
}

func Test_Extractor_OCRStopsPastMarker(t *testing.T) {
	src := &fakeSource{
		pages:    repeatPages(25, ""),
		ocrPages: repeatPages(25, "Lattice Gauge"),
	}
	src.ocrPages[2] = "CONTENTS\nRenormalization Group"
	engine := &fileEngine{}
	var observed []string
	e := newTestExtractor(src, engine, &observed)

	got := e.Extract(context.Background(), "scan.djvu")

	assert.Contains(t, got, "renormalization group")
	assert.Contains(t, got, "lattice gauge")
	assert.Equal(t, 3+DefaultOptions().MarkerExtraPages, engine.calls)
	assert.Equal(t, []string{"ocr"}, observed)
}

func Test_Extractor_KeepsShortTextWhenOCRUnavailable(t *testing.T) {
	src := &fakeSource{pages: []string{"Spin Glasses"}}
	var observed []string
	e := newTestExtractor(src, nil, &observed)

	got := e.Extract(context.Background(), "thin.pdf")

	assert.Contains(t, got, "spin glasses")
	assert.Equal(t, []string{"text-layer"}, observed)
}

func Test_Extractor_OpenFailureYieldsEmpty(t *testing.T) {
	e := NewExtractor(ExtractorOptions{
		Opener:     fakeOpener{err: ErrUnsupportedFormat},
		Classifier: terms.NewClassifier(terms.ClassifierOptions{}),
		Logger:     testLogger(),
	})

	got := e.Extract(context.Background(), "book.epub")

	require.NotNil(t, got)
	assert.Empty(t, got)
}

func Test_Extractor_RecoversStrategyPanic(t *testing.T) {
	src := &fakeSource{pages: repeatPages(3, "x"), panicOnText: true}
	e := newTestExtractor(src, nil, nil)

	assert.NotPanics(t, func() {
		got := e.Extract(context.Background(), "broken.pdf")
		assert.Empty(t, got)
	})
}

func Test_FormatOpener_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	_, err := FormatOpener{Tools: DefaultTools()}.Open(context.Background(), path)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func Test_FormatOpener_CorruptPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\nnot really a pdf"), 0644))

	_, err := FormatOpener{Tools: DefaultTools()}.Open(context.Background(), path)
	assert.ErrorIs(t, err, ErrCorruptDocument)
}

func Test_Extractor_TermsReusesText(t *testing.T) {
	src := &fakeSource{outline: []string{"Hilbert Spaces", "Spectral Theorem"}}
	var observed []string
	e := newTestExtractor(src, &fileEngine{}, &observed)

	text, strategy := e.Text(context.Background(), "book.pdf")
	require.Equal(t, "outline", strategy)

	got := e.Terms(text)
	assert.Contains(t, got, "hilbert spaces")
	assert.Contains(t, got, "spectral theorem")
	assert.Equal(t, 1, src.outlineCalls, "terms must not reopen the document")
	assert.Equal(t, []string{"outline"}, observed)

	assert.Equal(t, []string{}, e.Terms(""))
}
