package format

import (
	"bytes"
	"io"
	"os"
)

var (
	pdfMagic  = []byte("%PDF-")
	djvuMagic = []byte("AT&TFORM")
	zipMagic  = []byte("PK\x03\x04")
	mobiMagic = []byte("BOOKMOBI")
)

// Sniff inspects the leading bytes of a document and returns the format they
// indicate, or Unknown. ZIP containers are ambiguous and report Unknown.
func Sniff(header []byte) Format {
	switch {
	case bytes.HasPrefix(header, pdfMagic):
		return PDF
	case bytes.HasPrefix(header, djvuMagic):
		return DJVU
	case len(header) >= 68 && bytes.Equal(header[60:68], mobiMagic):
		return MOBI
	}
	// Some PDF writers put junk before the header; readers accept it within 1 KiB.
	limit := len(header)
	if limit > 1024 {
		limit = 1024
	}
	if bytes.Contains(header[:limit], pdfMagic) {
		return PDF
	}
	return Unknown
}

// IsZip reports whether header starts a ZIP archive (EPUB, CBZ).
func IsZip(header []byte) bool {
	return bytes.HasPrefix(header, zipMagic)
}

// DetectFile resolves the format of a file on disk: the extension decides, and
// magic bytes settle files whose extension is unknown.
func DetectFile(path string) Format {
	if f := Detect(path); f != Unknown {
		return f
	}
	file, err := os.Open(path)
	if err != nil {
		return Unknown
	}
	defer file.Close()

	header := make([]byte, 1024)
	n, err := io.ReadFull(file, header)
	if err != nil && err != io.ErrUnexpectedEOF {
		return Unknown
	}
	return Sniff(header[:n])
}
