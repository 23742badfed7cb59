package library

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Query is a parsed search string. Filters are lower-cased. An empty
// publisher, year or path filter matches everything; an empty type filter
// (TypeSet with Type "") matches only records without a type.
type Query struct {
	Terms     []string
	Type      string
	TypeSet   bool
	Publisher string
	Year      string
	Path      string
	// Filters counts the key:value tokens, including unrecognized keys.
	Filters int
}

// ParseQuery splits a query into key:value filters and plain terms. Recognized
// keys are type, publisher, year and path; other keys are dropped, so a query
// of unknown filters alone matches every record. The last value given for a
// key wins.
func ParseQuery(raw string) Query {
	var q Query
	for _, token := range strings.Fields(strings.ToLower(raw)) {
		key, value, isFilter := strings.Cut(token, ":")
		if !isFilter {
			q.Terms = append(q.Terms, token)
			continue
		}
		q.Filters++
		switch key {
		case "type":
			q.Type = value
			q.TypeSet = true
		case "publisher":
			q.Publisher = value
		case "year":
			q.Year = value
		case "path":
			q.Path = value
		}
	}
	return q
}

// IsEmpty reports whether the query has neither terms nor filter tokens.
func (q Query) IsEmpty() bool {
	return len(q.Terms) == 0 && q.Filters == 0
}

// Matches applies the exact search rule: type equals case-insensitively,
// publisher and year are substrings, path is a doublestar glob, and every
// term is a substring of the record blob.
func (q Query) Matches(r *Record) bool {
	if (q.TypeSet || q.Type != "") && strings.ToLower(r.Type) != q.Type {
		return false
	}
	if q.Publisher != "" && !strings.Contains(strings.ToLower(r.Publisher), q.Publisher) {
		return false
	}
	if q.Year != "" && !strings.Contains(strings.ToLower(r.YearEdition), q.Year) {
		return false
	}
	if q.Path != "" {
		if ok, err := doublestar.Match(q.Path, strings.ToLower(r.Path)); err != nil || !ok {
			return false
		}
	}
	if len(q.Terms) == 0 {
		return true
	}
	blob := r.Blob()
	for _, term := range q.Terms {
		if !strings.Contains(blob, term) {
			return false
		}
	}
	return true
}
