package format

import (
	"path/filepath"
	"strings"
)

// Format identifies a document container.
type Format string

const (
	PDF     Format = "PDF"
	DJVU    Format = "DJVU"
	EPUB    Format = "EPUB"
	MOBI    Format = "MOBI"
	Comic   Format = "Comic"
	Unknown Format = "Unknown"
)

// ExtensionToFormat maps file extensions (without dot) to document formats.
var ExtensionToFormat = map[string]Format{
	"pdf":  PDF,
	"djvu": DJVU, "djv": DJVU,
	"epub": EPUB,
	"mobi": MOBI, "azw": MOBI, "azw3": MOBI,
	"cbz": Comic, "cbr": Comic,
}

// DefaultExtensions is the set of extensions indexed when no configuration overrides it.
var DefaultExtensions = []string{".pdf", ".djvu", ".epub", ".mobi"}

// Detect returns the document format for a file path based on its extension.
// Returns Unknown if the extension is not recognized.
func Detect(filePath string) Format {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filePath), "."))
	if f, ok := ExtensionToFormat[ext]; ok {
		return f
	}
	return Unknown
}

// Extractable reports whether text can be pulled out of the format.
func (f Format) Extractable() bool {
	return f == PDF || f == DJVU
}

// RecordType is the catalog type for a document of this format.
func (f Format) RecordType() string {
	switch f {
	case PDF, DJVU, EPUB, MOBI:
		return "Book"
	case Comic:
		return "Comic"
	}
	return "Unknown"
}
