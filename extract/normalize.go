package extract

import (
	"regexp"
	"strings"

	"github.com/lexandro/libindex-mcp/terms"
)

var (
	leaderPattern       = regexp.MustCompile(`\.{2,}`)
	trailingPagePattern = regexp.MustCompile(`(?m)[ \t]+\d+[ \t]*$`)
	digitRunPattern     = regexp.MustCompile(`\b\d+\b`)
	// Well-formed lower-case roman numerals only, so words like "civil" survive.
	romanPattern   = regexp.MustCompile(`\bm{0,3}(?:cm|cd|d?c{0,3})(?:xc|xl|l?x{0,3})(?:ix|iv|v?i{0,3})\b`)
	nonWordPattern = regexp.MustCompile(`[^a-z0-9\s-]`)
)

// Normalize prepares raw page text for tokenization: dot leaders, trailing page
// numbers, bare numbers and roman numerals are removed, everything except
// letters, digits, hyphens and whitespace becomes a space, and whitespace is
// collapsed. The result is lower-case.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	text = leaderPattern.ReplaceAllString(text, " ")
	text = trailingPagePattern.ReplaceAllString(text, "")
	text = digitRunPattern.ReplaceAllString(text, "")
	text = strings.ToLower(text)
	text = romanPattern.ReplaceAllString(text, "")
	text = nonWordPattern.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}

// Candidates returns every 1-, 2- and 3-word window of normalized text accepted
// by the classifier, sorted and deduplicated.
func Candidates(text string, classifier *terms.Classifier) []string {
	words := strings.Fields(text)
	accepted := make([]string, 0)
	seen := make(map[string]struct{})
	for n := 1; n <= 3; n++ {
		for _, gram := range terms.NGrams(words, n) {
			if _, ok := seen[gram]; ok {
				continue
			}
			seen[gram] = struct{}{}
			if classifier.Accept(gram) {
				accepted = append(accepted, gram)
			}
		}
	}
	return terms.SortedSet(accepted)
}

// DefaultMarkers are the headings that open a table of contents or front matter.
var DefaultMarkers = []string{"contents", "abstract", "introduction"}

const (
	markerLines    = 5
	markerMaxWords = 10
)

// HasMarker reports whether one of the first few non-empty lines of a page is a
// short heading containing a marker word.
func HasMarker(page string, markers []string) bool {
	checked := 0
	for _, line := range strings.Split(page, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		checked++
		if checked > markerLines {
			break
		}
		if len(strings.Fields(line)) >= markerMaxWords {
			continue
		}
		lower := strings.ToLower(line)
		for _, m := range markers {
			if strings.Contains(lower, m) {
				return true
			}
		}
	}
	return false
}
