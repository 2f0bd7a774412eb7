package archive

import "strings"

// Handle is a streaming enumeration over one open archive's interior
// namespace. Implementations must not load file contents into memory;
// ScanNext only has to produce interior paths.
type Handle interface {
	// ScanNext advances to the next interior path. ok is false once the
	// archive is exhausted.
	ScanNext() (path string, ok bool, err error)
	// Close releases the archive handle.
	Close() error
}

// Registry is the narrow contract the scanner consumes to recognize and
// open archive containers (§4.6.1: "Recognized as archive"). This package
// supplies a default zip-backed implementation; the scanner depends only on
// this interface.
type Registry interface {
	// IsArchive reports whether suffix (without the leading dot) is
	// registered to an archive plugin.
	IsArchive(suffix string) bool
	// Open opens the archive at path and returns a streaming handle over
	// its interior paths.
	Open(path string) (Handle, error)
}

var suffixes = map[string]bool{
	"zip": true,
}

func isKnownSuffix(suffix string) bool {
	return suffixes[strings.ToLower(suffix)]
}
