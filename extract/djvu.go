package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var djvuQuotedPattern = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"`)

// djvuSource shells out to the DjVuLibre command line tools.
type djvuSource struct {
	path   string
	runner CommandRunner
	tools  Tools
}

// Outline parses the s-expression printed by `djvused -e print-outline`.
// Entries look like ("Title" "#page" ...); link targets start with '#'.
func (s *djvuSource) Outline(ctx context.Context) ([]string, error) {
	out, err := s.runner.Run(ctx, s.tools.Djvused, "-e", "print-outline", s.path)
	if err != nil {
		return nil, fmt.Errorf("reading outline: %w", err)
	}
	return parseDjvuOutline(string(out)), nil
}

func parseDjvuOutline(sexpr string) []string {
	var titles []string
	for _, m := range djvuQuotedPattern.FindAllStringSubmatch(sexpr, -1) {
		value := strings.TrimSpace(unescapeDjvu(m[1]))
		if value == "" || strings.HasPrefix(value, "#") {
			continue
		}
		titles = append(titles, value)
	}
	return titles
}

func unescapeDjvu(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	if unq, err := strconv.Unquote(`"` + s + `"`); err == nil {
		return unq
	}
	return strings.ReplaceAll(s, `\"`, `"`)
}

func (s *djvuSource) PageCount(ctx context.Context) (int, error) {
	out, err := s.runner.Run(ctx, s.tools.Djvused, "-e", "n", s.path)
	if err != nil {
		return 0, fmt.Errorf("counting pages: %w", err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil {
		return 0, fmt.Errorf("parsing page count %q: %w", strings.TrimSpace(string(out)), ErrCorruptDocument)
	}
	return n, nil
}

func (s *djvuSource) PageText(ctx context.Context, page int) (string, error) {
	out, err := s.runner.Run(ctx, s.tools.Djvutxt, "--page="+strconv.Itoa(page), s.path)
	if err != nil {
		return "", fmt.Errorf("page %d text: %w", page, err)
	}
	return string(out), nil
}

func (s *djvuSource) RenderPage(ctx context.Context, page int, dpi int, dir string) (string, error) {
	out := filepath.Join(dir, "page-"+strconv.Itoa(page)+".tif")
	_, err := s.runner.Run(ctx, s.tools.Ddjvu,
		"-format=tiff",
		"-page="+strconv.Itoa(page),
		"-scale="+strconv.Itoa(dpi),
		s.path, out,
	)
	if err != nil {
		return "", fmt.Errorf("rendering page %d: %w", page, err)
	}
	return out, nil
}

func (s *djvuSource) Close() error { return nil }
