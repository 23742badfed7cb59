package ignore

// IgnoreFileNames are the gitignore-syntax files read from the library root.
var IgnoreFileNames = []string{".gitignore", ".libindexignore"}

// DefaultIgnorePatterns are file names never worth indexing: OS metadata,
// partial downloads and editor leftovers. Directories starting with a dot are
// skipped separately.
var DefaultIgnorePatterns = []string{
	// OS files
	".DS_Store",
	"Thumbs.db",
	"desktop.ini",
	"._*",

	// Partial downloads
	"*.part",
	"*.crdownload",
	"*.download",
	"*.partial",

	// Temporary files
	"*.tmp",
	"*~",
	".~lock.*",
}
