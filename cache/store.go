// Package cache persists one metadata record per indexed path so unchanged
// documents are skipped on later runs.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lexandro/libindex-mcp/library"
)

// Entry is a cached record plus the fingerprint it was computed from.
type Entry struct {
	library.Record
	Hash string `json:"_hash"`
	Path string `json:"_path"`
}

// Store keeps entries as <dir>/<PathKey(path)>.json. Each path owns its own
// file, so concurrent writers for different paths never collide.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates a store rooted at dir. The directory is created on first Put.
func NewStore(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{dir: dir, logger: logger}
}

// Dir returns the cache directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) entryPath(relPath string) string {
	return filepath.Join(s.dir, PathKey(relPath)+".json")
}

// Get returns the entry for relPath, or nil if there is none.
func (s *Store) Get(relPath string) (*Entry, error) {
	entry, err := readEntry(s.entryPath(relPath))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return entry, nil
}

func readEntry(path string) (*Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("parsing cache entry %s: %w", path, err)
	}
	return &entry, nil
}

// Put writes the entry for relPath, stamping its path and hash fields.
func (s *Store) Put(relPath string, entry Entry) error {
	entry.Path = relPath
	entry.Record.Path = relPath
	if entry.Hash == "" {
		entry.Hash = entry.ContentHash
	}
	entry.ContentHash = entry.Hash

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling cache entry for %s: %w", relPath, err)
	}
	if err := library.WriteFileAtomic(s.entryPath(relPath), data); err != nil {
		return fmt.Errorf("writing cache entry for %s: %w", relPath, err)
	}
	return nil
}

// NeedsIndexing reports whether relPath has no usable entry or its stored hash
// differs from contentHash. Unreadable entries count as missing.
func (s *Store) NeedsIndexing(relPath string, contentHash string) bool {
	entry, err := s.Get(relPath)
	if err != nil {
		s.logger.Debug("unreadable cache entry", "path", relPath, "error", err)
		return true
	}
	return entry == nil || entry.Hash != contentHash
}

// Remove deletes the entry for relPath. Removing a missing entry is not an error.
func (s *Store) Remove(relPath string) error {
	err := os.Remove(s.entryPath(relPath))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing cache entry for %s: %w", relPath, err)
	}
	return nil
}

// All reads every entry in the cache directory, sorted by path. Corrupt files
// are logged and skipped.
func (s *Store) All() ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("listing cache directory %s: %w", s.dir, err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, d := range dirEntries {
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			continue
		}
		entry, err := readEntry(filepath.Join(s.dir, d.Name()))
		if err != nil {
			s.logger.Warn("skipping unreadable cache entry", "file", d.Name(), "error", err)
			continue
		}
		if entry.Record.Path == "" {
			entry.Record.Path = entry.Path
		}
		entries = append(entries, *entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

// Records returns the record of every entry, sorted by path.
func (s *Store) Records() ([]library.Record, error) {
	entries, err := s.All()
	if err != nil {
		return nil, err
	}
	records := make([]library.Record, 0, len(entries))
	for _, e := range entries {
		records = append(records, e.Record)
	}
	return records, nil
}
