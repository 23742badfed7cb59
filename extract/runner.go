package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// CommandRunner executes external programs. Tests substitute a fake.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec and returns their standard output.
type ExecRunner struct{}

// Run executes name with args. A missing binary is reported as ErrToolNotFound.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", name, ErrToolNotFound)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// Tools names the external binaries used for DJVU text, rasterizing and OCR.
type Tools struct {
	PdfToPPM  string `yaml:"pdftoppm"`
	Djvused   string `yaml:"djvused"`
	Djvutxt   string `yaml:"djvutxt"`
	Ddjvu     string `yaml:"ddjvu"`
	Tesseract string `yaml:"tesseract"`
}

// DefaultTools returns the conventional binary names, resolved through PATH.
func DefaultTools() Tools {
	return Tools{
		PdfToPPM:  "pdftoppm",
		Djvused:   "djvused",
		Djvutxt:   "djvutxt",
		Ddjvu:     "ddjvu",
		Tesseract: "tesseract",
	}
}

func (t Tools) all() []string {
	return []string{t.PdfToPPM, t.Djvused, t.Djvutxt, t.Ddjvu, t.Tesseract}
}

// MissingTools returns the configured binaries that cannot be found in PATH.
func MissingTools(t Tools) []string {
	var missing []string
	for _, name := range t.all() {
		if name == "" {
			continue
		}
		if _, err := exec.LookPath(name); err != nil {
			missing = append(missing, name)
		}
	}
	return missing
}

// InstallInstructions returns a platform hint for installing the helper tools.
func InstallInstructions() string {
	switch runtime.GOOS {
	case "darwin":
		return "brew install poppler djvulibre tesseract"
	case "linux":
		return "apt-get install poppler-utils djvulibre-bin tesseract-ocr (or your distribution's equivalent)"
	case "windows":
		return "install poppler, DjVuLibre and Tesseract and add their bin directories to PATH"
	default:
		return "install poppler, djvulibre and tesseract from your package manager"
	}
}
