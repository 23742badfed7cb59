package metadata

import (
	"regexp"
	"strings"

	"github.com/lexandro/libindex-mcp/terms"
)

var seedStripPattern = regexp.MustCompile(`[^a-z0-9\s]`)

// Seeds returns the initial search tokens for a title: glossary terms found in
// it plus every title word longer than three characters that is not a stop-word.
func Seeds(title string, glossary *terms.Glossary) []string {
	lower := strings.ToLower(title)
	var words []string
	for _, w := range strings.Fields(seedStripPattern.ReplaceAllString(lower, " ")) {
		if len(w) > 3 && !terms.IsStopWord(w) {
			words = append(words, w)
		}
	}
	return terms.SortedSet(glossary.Match(lower), words)
}
