package cache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// HeadSize is how much of a file feeds its content hash. Changes past this
// offset are not detected.
const HeadSize = 8192

// PathKey returns the cache key for a relative path: the MD5 hex digest of the
// path string.
func PathKey(relPath string) string {
	sum := md5.Sum([]byte(relPath))
	return hex.EncodeToString(sum[:])
}

// ContentHash returns the MD5 hex digest of the first HeadSize bytes of a file.
func ContentHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.CopyN(h, f, HeadSize); err != nil && err != io.EOF {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
