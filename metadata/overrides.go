package metadata

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/lexandro/libindex-mcp/library"
	"github.com/lexandro/libindex-mcp/terms"
)

// Override corrects the metadata of documents a filename cannot describe,
// such as comic series. A rule applies when Match (a doublestar glob over the
// relative path) matches or Contains occurs in the path or title, ignoring case.
type Override struct {
	Match             string   `yaml:"match"`
	Contains          string   `yaml:"contains"`
	Author            string   `yaml:"author"`
	Publisher         string   `yaml:"publisher"`
	Type              string   `yaml:"type"`
	ForceType         bool     `yaml:"force_type"`
	StripNumberPrefix bool     `yaml:"strip_number_prefix"`
	Keywords          []string `yaml:"keywords"`
}

var (
	seriesSeparatorPattern = regexp.MustCompile(`\s+-\s+`)
	numberPrefixPattern    = regexp.MustCompile(`^\d+\s+`)
)

// Applies reports whether the override targets the record.
func (o Override) Applies(r *library.Record) bool {
	if o.Match != "" {
		if ok, err := doublestar.Match(o.Match, r.Path); err == nil && ok {
			return true
		}
	}
	if o.Contains != "" {
		needle := strings.ToLower(o.Contains)
		return strings.Contains(strings.ToLower(r.Path), needle) ||
			strings.Contains(strings.ToLower(r.Title), needle)
	}
	return false
}

// Apply rewrites r in place.
func (o Override) Apply(r *library.Record) {
	if o.StripNumberPrefix {
		r.Title = seriesTitle(r.Filename)
	}
	if o.Author != "" {
		r.Author = o.Author
	}
	if o.Publisher != "" {
		r.Publisher = o.Publisher
	}
	if o.Type != "" && (o.ForceType || r.Type == "" || r.Type == "Unknown") {
		r.Type = o.Type
	}
	if len(o.Keywords) > 0 {
		lowered := make([]string, 0, len(o.Keywords))
		for _, k := range o.Keywords {
			lowered = append(lowered, strings.ToLower(strings.TrimSpace(k)))
		}
		r.Keywords = terms.SortedSet(r.Keywords, lowered)
	}
}

// seriesTitle derives a title from names like "11 Tintin - The Secret of the Unicorn"
// (the part after the dash) or "03 Tintin in America" (the name without its number).
func seriesTitle(filename string) string {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	if parts := seriesSeparatorPattern.Split(stem, 2); len(parts) > 1 {
		return strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(numberPrefixPattern.ReplaceAllString(strings.TrimSpace(stem), ""))
}

// ApplyOverrides runs every applicable override in order.
func ApplyOverrides(r *library.Record, overrides []Override) {
	for _, o := range overrides {
		if o.Applies(r) {
			o.Apply(r)
		}
	}
}
