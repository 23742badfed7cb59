package ignore

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/denormal/go-gitignore"
)

// Matcher decides which files of a library are documents to index.
// It combines the extension filter, default patterns, hidden and cache
// directories, .gitignore and .libindexignore rules, and configured excludes.
// Thread-safe: Reload() acquires a write lock, ShouldIgnore()/ShouldIgnoreDir() acquire a read lock.
type Matcher struct {
	mu             sync.RWMutex
	rootDir        string
	cacheDir       string
	extensions     map[string]struct{}
	ignoreFiles    []gitignore.GitIgnore
	customPatterns []string
}

// MatcherOptions configures the ignore matcher.
type MatcherOptions struct {
	RootDir string
	// CacheDir is skipped during traversal. Relative paths are resolved against RootDir.
	CacheDir string
	// Extensions lists the indexed extensions, with leading dot. Empty means every file.
	Extensions []string
	// CustomPatterns are doublestar globs matched against the root-relative path.
	CustomPatterns []string
}

// NewMatcher creates an ignore matcher for the library at options.RootDir.
func NewMatcher(options MatcherOptions) *Matcher {
	matcher := &Matcher{
		rootDir:        options.RootDir,
		customPatterns: options.CustomPatterns,
		extensions:     make(map[string]struct{}, len(options.Extensions)),
	}
	if options.CacheDir != "" {
		matcher.cacheDir = options.CacheDir
		if !filepath.IsAbs(matcher.cacheDir) {
			matcher.cacheDir = filepath.Join(options.RootDir, matcher.cacheDir)
		}
		matcher.cacheDir = filepath.Clean(matcher.cacheDir)
	}
	for _, ext := range options.Extensions {
		matcher.extensions[strings.ToLower(ext)] = struct{}{}
	}
	matcher.ignoreFiles = loadIgnoreFiles(options.RootDir)
	return matcher
}

// IsDocument reports whether the file has an indexed extension and is not ignored.
func (m *Matcher) IsDocument(absolutePath string) bool {
	if len(m.extensions) > 0 {
		if _, ok := m.extensions[strings.ToLower(filepath.Ext(absolutePath))]; !ok {
			return false
		}
	}
	if strings.HasPrefix(filepath.Base(absolutePath), ".") {
		return false
	}
	return !m.ShouldIgnore(absolutePath)
}

// ShouldIgnore returns true if the given path should be excluded from indexing.
// The path should be an absolute path or relative to the root directory.
func (m *Matcher) ShouldIgnore(absolutePath string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	relativePath, err := filepath.Rel(m.rootDir, absolutePath)
	if err != nil {
		relativePath = absolutePath
	}
	relativePath = filepath.ToSlash(relativePath)

	if m.inCacheDir(absolutePath) {
		return true
	}

	if matchesDefaultPatterns(filepath.Base(absolutePath)) {
		return true
	}

	isDir := false
	if info, err := os.Stat(absolutePath); err == nil {
		isDir = info.IsDir()
	}

	// Relative() doesn't require the file to exist on disk, which matters for remove events
	for _, gi := range m.ignoreFiles {
		if match := gi.Relative(relativePath, isDir); match != nil && match.Ignore() {
			return true
		}
	}

	return m.matchesCustomPatterns(relativePath)
}

// ShouldIgnoreDir returns true if a directory should be skipped entirely during traversal.
func (m *Matcher) ShouldIgnoreDir(absolutePath string) bool {
	// Hidden directories, including version control and the default cache
	if strings.HasPrefix(filepath.Base(absolutePath), ".") {
		return true
	}
	return m.ShouldIgnore(absolutePath)
}

// IsIgnoreFile reports whether path is one of the ignore files Reload reads.
func IsIgnoreFile(path string) bool {
	base := filepath.Base(path)
	for _, name := range IgnoreFileNames {
		if base == name {
			return true
		}
	}
	return false
}

func (m *Matcher) inCacheDir(absolutePath string) bool {
	if m.cacheDir == "" {
		return false
	}
	clean := filepath.Clean(absolutePath)
	return clean == m.cacheDir || strings.HasPrefix(clean, m.cacheDir+string(filepath.Separator))
}

// matchesDefaultPatterns checks the base name against the hardcoded patterns.
func matchesDefaultPatterns(baseName string) bool {
	for _, pattern := range DefaultIgnorePatterns {
		if matched, err := filepath.Match(pattern, baseName); err == nil && matched {
			return true
		}
	}
	return false
}

// matchesCustomPatterns checks configured excludes against the relative path
// and, for patterns without a slash, against the base name.
func (m *Matcher) matchesCustomPatterns(relativePath string) bool {
	for _, pattern := range m.customPatterns {
		if matched, err := doublestar.Match(pattern, relativePath); err == nil && matched {
			return true
		}
		if !strings.Contains(pattern, "/") {
			if matched, err := doublestar.Match(pattern, filepath.Base(relativePath)); err == nil && matched {
				return true
			}
		}
	}
	return false
}

// Reload re-reads the ignore files from disk.
// Used when the watcher detects changes to these files.
func (m *Matcher) Reload() {
	ignoreFiles := loadIgnoreFiles(m.rootDir)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.ignoreFiles = ignoreFiles
}

func loadIgnoreFiles(rootDir string) []gitignore.GitIgnore {
	var loaded []gitignore.GitIgnore
	for _, name := range IgnoreFileNames {
		if gi := loadIgnoreFile(filepath.Join(rootDir, name), rootDir); gi != nil {
			loaded = append(loaded, gi)
		}
	}
	return loaded
}

// loadIgnoreFile reads an ignore file and creates a GitIgnore matcher from it.
// Uses io.Reader approach to ensure the file handle is properly closed on Windows.
func loadIgnoreFile(filePath string, baseDir string) gitignore.GitIgnore {
	f, err := os.Open(filePath)
	if err != nil {
		return nil
	}
	defer f.Close()

	return gitignore.New(f, baseDir, nil)
}
