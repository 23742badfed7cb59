package library

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/bmatcuk/doublestar/v4"
)

// Catalog is the in-memory view of library.json. Records are kept in path
// order and mirrored into an in-memory Bleve index used to narrow searches.
// Thread-safe: Replace takes the write lock, everything else the read lock.
type Catalog struct {
	mu          sync.RWMutex
	records     map[string]*Record // key: relative path
	sortedPaths []string
	index       bleve.Index
}

// bleveRecord is the document stored in Bleve. Every field is a single
// lower-cased keyword so wildcard queries behave like substring tests.
type bleveRecord struct {
	Blob      string `json:"blob"`
	Type      string `json:"type"`
	Publisher string `json:"publisher"`
	Year      string `json:"year"`
}

func buildIndexMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	for _, field := range []string{"blob", "type", "publisher", "year"} {
		fm := bleve.NewKeywordFieldMapping()
		fm.Store = false
		fm.IncludeInAll = false
		fm.IncludeTermVectors = false
		docMapping.AddFieldMappingsAt(field, fm)
	}

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// NewCatalog creates a catalog holding records.
func NewCatalog(records []Record) (*Catalog, error) {
	c := &Catalog{}
	if err := c.Replace(records); err != nil {
		return nil, err
	}
	return c, nil
}

// Replace swaps the catalog contents for records and rebuilds the search index.
func (c *Catalog) Replace(records []Record) error {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return fmt.Errorf("creating bleve index: %w", err)
	}

	byPath := make(map[string]*Record, len(records))
	batch := idx.NewBatch()
	for i := range records {
		r := records[i]
		byPath[r.Path] = &r
		if err := batch.Index(r.Path, toBleveRecord(&r)); err != nil {
			idx.Close()
			return fmt.Errorf("indexing record %s: %w", r.Path, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		idx.Close()
		return fmt.Errorf("indexing catalog: %w", err)
	}

	paths := make([]string, 0, len(byPath))
	for p := range byPath {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	c.mu.Lock()
	old := c.index
	c.records = byPath
	c.sortedPaths = paths
	c.index = idx
	c.mu.Unlock()

	if old != nil {
		old.Close()
	}
	return nil
}

func toBleveRecord(r *Record) bleveRecord {
	return bleveRecord{
		Blob:      flatten(r.Blob()),
		Type:      flatten(strings.ToLower(r.Type)),
		Publisher: flatten(strings.ToLower(r.Publisher)),
		Year:      flatten(strings.ToLower(r.YearEdition)),
	}
}

// flatten keeps keyword terms on one line so wildcard '*' can span them.
func flatten(s string) string {
	return strings.NewReplacer("\n", " ", "\r", " ").Replace(s)
}

// Get returns the record for a relative path, or nil if not cataloged.
func (c *Catalog) Get(relativePath string) *Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.records[strings.ReplaceAll(relativePath, "\\", "/")]
}

// Len returns the number of records.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Records returns all records in path order.
func (c *Catalog) Records() []Record {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Record, 0, len(c.sortedPaths))
	for _, p := range c.sortedPaths {
		out = append(out, *c.records[p])
	}
	return out
}

// TypeCounts returns a map of record type -> record count.
func (c *Catalog) TypeCounts() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	counts := make(map[string]int)
	for _, r := range c.records {
		counts[r.Type]++
	}
	return counts
}

// PublisherCounts returns a map of publisher -> record count.
func (c *Catalog) PublisherCounts() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	counts := make(map[string]int)
	for _, r := range c.records {
		counts[r.Publisher]++
	}
	return counts
}

// SearchByGlob returns records whose path matches a doublestar glob pattern.
func (c *Catalog) SearchByGlob(pattern string, maxResults int) ([]Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if maxResults <= 0 {
		maxResults = 50
	}
	pattern = strings.ReplaceAll(pattern, "\\", "/")
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern: %s", pattern)
	}

	var results []Record
	for _, p := range c.sortedPaths {
		if len(results) >= maxResults {
			break
		}
		if ok, err := doublestar.Match(pattern, p); err == nil && ok {
			results = append(results, *c.records[p])
		}
	}
	return results, nil
}

// DocumentCount returns the number of documents in the Bleve index.
func (c *Catalog) DocumentCount() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	count, _ := c.index.DocCount()
	return count
}

// Close releases the search index.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index == nil {
		return nil
	}
	err := c.index.Close()
	c.index = nil
	return err
}
