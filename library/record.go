package library

import "strings"

// UnknownPublisher is the publisher of records whose filename names none.
const UnknownPublisher = "Unknown"

// Record is the catalog entry for one document.
type Record struct {
	Path         string   `json:"path"` // relative to the library root, forward slashes
	Filename     string   `json:"filename"`
	Author       string   `json:"author"`
	Title        string   `json:"title"`
	Publisher    string   `json:"publisher"`
	YearEdition  string   `json:"year_edition"`
	Type         string   `json:"type"`
	Keywords     []string `json:"keywords,omitempty"`
	SearchTokens []string `json:"search_tokens"`
	ContentHash  string   `json:"content_hash"`
}

// Blob is the lower-cased text that plain search terms are matched against.
func (r *Record) Blob() string {
	parts := []string{r.Title, r.Author, r.Publisher, r.YearEdition}
	parts = append(parts, r.Keywords...)
	parts = append(parts, r.SearchTokens...)
	return strings.ToLower(strings.Join(parts, " "))
}
