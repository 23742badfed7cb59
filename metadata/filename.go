package metadata

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/lexandro/libindex-mcp/library"
)

// UnknownAuthor is the author of records whose filename names none.
const UnknownAuthor = "Unknown"

// DefaultPublishers is the publisher list scanned in filenames, in priority order.
// "Mir Publishers" precedes "Mir" so the longer name wins.
var DefaultPublishers = []string{
	"Wiley", "Springer", "Dover", "MIT Press", "Cambridge University Press",
	"Oxford University Press", "Pearson", "McGraw-Hill", "Elsevier", "Routledge",
	"Princeton University Press", "Addison-Wesley", "O'Reilly", "Manning", "Packt",
	"Cengage", "Taylor & Francis", "Sage", "Mir Publishers", "Mir", "Penguin",
	"HarperCollins", "Simon & Schuster", "Macmillan", "Pergamon", "Butterworth",
}

var (
	bracketPattern    = regexp.MustCompile(`^\[(.*?)\]\s*(.*)$`)
	yearPattern       = regexp.MustCompile(`\b((?:17|18|19|20)\d{2})\b`)
	editionPattern    = regexp.MustCompile(`(?i)(\d+(?:st|nd|rd|th)?\s*(?:ed(?:\.|ition)?))`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// FilenameFields is what the filename alone says about a document.
type FilenameFields struct {
	Author      string
	Title       string
	Publisher   string
	YearEdition string
}

// ParseFilename reads author, title, publisher and year/edition from a file name.
// Patterns are tried in order: "[Leader] Trailer", "Title - Author", then the
// whole name as title. A bracketed leader naming a known publisher is the
// publisher, otherwise the author.
func ParseFilename(filename string, publishers []string) FilenameFields {
	if publishers == nil {
		publishers = DefaultPublishers
	}
	base := filepath.Base(filename)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	fields := FilenameFields{
		Author:    UnknownAuthor,
		Title:     stem,
		Publisher: library.UnknownPublisher,
	}

	working := strings.ReplaceAll(stem, "_", " ")

	if m := bracketPattern.FindStringSubmatch(working); m != nil {
		leader := strings.TrimSpace(m[1])
		trailer := strings.TrimSpace(m[2])
		if pub, ok := findPublisher(leader, publishers); ok {
			fields.Publisher = pub
		} else {
			fields.Author = leader
		}
		if trailer != "" {
			fields.Title = trailer
		}
	} else if title, author, ok := strings.Cut(working, " - "); ok {
		fields.Title = strings.TrimSpace(title)
		fields.Author = strings.TrimSpace(author)
	} else {
		fields.Title = strings.TrimSpace(working)
	}

	if m := yearPattern.FindStringSubmatch(working); m != nil {
		fields.YearEdition = m[1]
		yearInTitle := regexp.MustCompile(`[(\[]?` + regexp.QuoteMeta(m[1]) + `[)\]]?`)
		fields.Title = strings.TrimSpace(yearInTitle.ReplaceAllString(fields.Title, ""))
	}

	if m := editionPattern.FindStringSubmatch(working); m != nil {
		if fields.YearEdition != "" {
			fields.YearEdition += ", " + m[1]
		} else {
			fields.YearEdition = m[1]
		}
		editionInTitle := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(m[1]))
		fields.Title = strings.TrimSpace(editionInTitle.ReplaceAllString(fields.Title, ""))
	}

	fields.Title = strings.TrimSpace(whitespacePattern.ReplaceAllString(fields.Title, " "))
	fields.Title = strings.TrimRight(fields.Title, "-_ ")

	if fields.Publisher == library.UnknownPublisher {
		if pub, ok := findPublisher(working, publishers); ok {
			fields.Publisher = pub
		}
	}
	return fields
}

// findPublisher returns the first publisher whose name occurs in s, ignoring case.
func findPublisher(s string, publishers []string) (string, bool) {
	lower := strings.ToLower(s)
	for _, pub := range publishers {
		if pub != "" && strings.Contains(lower, strings.ToLower(pub)) {
			return pub, true
		}
	}
	return "", false
}
