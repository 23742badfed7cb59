package terms

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strings"
)

var glossaryStripPattern = regexp.MustCompile(`[^a-z0-9\s-]`)

// Glossary is an immutable set of lower-cased technical terms.
// A nil or empty Glossary rejects every lookup.
type Glossary struct {
	terms map[string]struct{}
}

// NewGlossary builds a glossary from the given terms, lower-casing and trimming each.
func NewGlossary(terms []string) *Glossary {
	g := &Glossary{terms: make(map[string]struct{}, len(terms))}
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		g.terms[term] = struct{}{}
	}
	return g
}

// LoadGlossary reads a JSON array of terms. A missing file yields an empty glossary.
func LoadGlossary(path string) (*Glossary, error) {
	if path == "" {
		return NewGlossary(nil), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewGlossary(nil), nil
		}
		return nil, fmt.Errorf("reading glossary %s: %w", path, err)
	}

	var terms []string
	if err := json.Unmarshal(data, &terms); err != nil {
		return nil, fmt.Errorf("parsing glossary %s: %w", path, err)
	}
	return NewGlossary(terms), nil
}

// Contains reports whether term is a glossary member.
func (g *Glossary) Contains(term string) bool {
	if g == nil {
		return false
	}
	_, ok := g.terms[strings.ToLower(term)]
	return ok
}

// Len returns the number of terms in the glossary.
func (g *Glossary) Len() int {
	if g == nil {
		return 0
	}
	return len(g.terms)
}

// Match returns every 1-, 2- and 3-word window of text that is a glossary member,
// sorted and deduplicated. Single words must be longer than 2 characters.
func (g *Glossary) Match(text string) []string {
	if g.Len() == 0 {
		return nil
	}

	// Punctuation separates words; hyphens stay inside them.
	cleaned := glossaryStripPattern.ReplaceAllString(strings.ToLower(text), " ")
	words := strings.Fields(cleaned)

	found := make(map[string]struct{})
	for n := 1; n <= 3; n++ {
		for _, gram := range NGrams(words, n) {
			if n == 1 && len(gram) <= 2 {
				continue
			}
			if g.Contains(gram) {
				found[gram] = struct{}{}
			}
		}
	}
	return sortedKeys(found)
}

// NGrams returns all contiguous n-word windows of words joined by a single space.
func NGrams(words []string, n int) []string {
	if n <= 0 || len(words) < n {
		return nil
	}
	grams := make([]string, 0, len(words)-n+1)
	for i := 0; i+n <= len(words); i++ {
		grams = append(grams, strings.Join(words[i:i+n], " "))
	}
	return grams
}

// SortedSet returns the distinct non-empty values sorted lexicographically.
func SortedSet(values ...[]string) []string {
	set := make(map[string]struct{})
	for _, list := range values {
		for _, v := range list {
			if v == "" {
				continue
			}
			set[v] = struct{}{}
		}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return []string{}
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
