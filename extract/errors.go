package extract

import "errors"

var (
	// ErrToolNotFound is returned when an external helper binary is not installed.
	ErrToolNotFound = errors.New("external tool not found")
	// ErrUnsupportedFormat is returned for documents no Source can open.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrCorruptDocument wraps reader failures, including recovered panics.
	ErrCorruptDocument = errors.New("corrupt document")
)
