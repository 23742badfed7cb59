package library

import (
	"fmt"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Search returns the records matching raw in catalog (path) order, at most
// maxResults of them (0 means no limit), and the total number of matches.
// An empty query matches nothing.
func (c *Catalog) Search(raw string, maxResults int) ([]Record, int, error) {
	q := ParseQuery(raw)
	if q.IsEmpty() {
		return []Record{}, 0, nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	candidates, err := c.candidates(q)
	if err != nil {
		return nil, 0, err
	}

	results := make([]Record, 0)
	total := 0
	for _, p := range candidates {
		r := c.records[p]
		if r == nil || !q.Matches(r) {
			continue
		}
		total++
		if maxResults <= 0 || len(results) < maxResults {
			results = append(results, *r)
		}
	}
	return results, total, nil
}

// candidates narrows the catalog with Bleve. Hits are only candidates: every
// one is re-checked with Query.Matches.
func (c *Catalog) candidates(q Query) ([]string, error) {
	bq := buildQuery(q)
	if bq == nil || c.index == nil {
		return c.sortedPaths, nil
	}

	req := bleve.NewSearchRequest(bq)
	req.Size = len(c.records)
	if req.Size == 0 {
		return nil, nil
	}
	res, err := c.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("searching catalog: %w", err)
	}

	paths := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		paths = append(paths, hit.ID)
	}
	sort.Strings(paths)
	return paths, nil
}

// buildQuery turns the filters and terms into a conjunction of Bleve queries.
// Values containing wildcard characters cannot be expressed literally and are
// left to Query.Matches. Returns nil when nothing can be pushed down.
func buildQuery(q Query) query.Query {
	var parts []query.Query

	if q.Type != "" {
		tq := bleve.NewTermQuery(q.Type)
		tq.SetField("type")
		parts = append(parts, tq)
	}
	add := func(field, value string) {
		if value == "" || strings.ContainsAny(value, "*?") {
			return
		}
		wq := bleve.NewWildcardQuery("*" + value + "*")
		wq.SetField(field)
		parts = append(parts, wq)
	}
	add("publisher", q.Publisher)
	add("year", q.Year)
	for _, term := range q.Terms {
		add("blob", term)
	}

	if len(parts) == 0 {
		return nil
	}
	return bleve.NewConjunctionQuery(parts...)
}
