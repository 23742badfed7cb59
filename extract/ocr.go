package extract

import (
	"context"
	"fmt"
)

// OCREngine recognizes text in a raster image.
type OCREngine interface {
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// Tesseract runs the tesseract CLI, printing recognized text to stdout.
type Tesseract struct {
	Runner   CommandRunner
	Binary   string
	Language string
}

// Recognize OCRs one image.
func (t Tesseract) Recognize(ctx context.Context, imagePath string) (string, error) {
	args := []string{imagePath, "stdout"}
	if t.Language != "" {
		args = append(args, "-l", t.Language)
	}
	out, err := t.Runner.Run(ctx, t.Binary, args...)
	if err != nil {
		return "", fmt.Errorf("ocr %s: %w", imagePath, err)
	}
	return string(out), nil
}
