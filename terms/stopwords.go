package terms

import (
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
)

// libraryStopWords are filename and catalog noise words that carry no subject meaning.
var libraryStopWords = []string{
	"vol", "volume", "edition", "ed", "theory", "applications",
	"methods", "unknown", "bookfi", "org",
}

var loadStopWords = sync.OnceValue(func() analysis.TokenMap {
	tokens := analysis.NewTokenMap()
	// The bundled list is well-formed; a load error would leave a partial map.
	_ = tokens.LoadBytes(en.EnglishStopWords)
	for _, w := range libraryStopWords {
		tokens.AddToken(w)
	}
	return tokens
})

// IsStopWord reports whether word is an English or library stop-word.
func IsStopWord(word string) bool {
	return loadStopWords()[strings.ToLower(word)]
}
