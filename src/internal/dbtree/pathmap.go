package dbtree

import (
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// joinLogical joins a parent's logical path and a child name with '/',
// regardless of host OS path conventions; the tree's paths are always
// UTF-8, '/'-separated, relative to the music root.
func joinLogical(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

// PathMapper translates between logical database paths (UTF-8, rooted at
// the music directory) and OS filesystem paths, and decodes raw
// directory-entry names from the filesystem charset into UTF-8. It is pure
// with respect to the immutable music root configured at startup.
//
// This implementation assumes the filesystem charset is UTF-8, which is
// the case on every platform the rest of this module targets; DecodeListing
// below still guards against invalid byte sequences so a mis-encoded name
// is skipped rather than corrupting the tree.
type PathMapper struct {
	musicRoot string // OS path of the music directory
}

// NewPathMapper creates a PathMapper rooted at musicRoot.
func NewPathMapper(musicRoot string) *PathMapper {
	return &PathMapper{musicRoot: filepath.Clean(musicRoot)}
}

// Root returns the OS path of the music root.
func (m *PathMapper) Root() string { return m.musicRoot }

// DirFSPath returns the OS path of a directory, or ok=false if the
// directory's logical path cannot be represented in the filesystem
// charset.
func (m *PathMapper) DirFSPath(d *Directory) (osPath string, ok bool) {
	if d.Path() == "" {
		return m.musicRoot, true
	}
	return m.toFSPath(d.Path())
}

// ChildFSPath returns the OS path of a named child of parent, or ok=false
// if it cannot be represented in the filesystem charset.
func (m *PathMapper) ChildFSPath(parent *Directory, utf8Name string) (osPath string, ok bool) {
	return m.toFSPath(joinLogical(parent.Path(), utf8Name))
}

func (m *PathMapper) toFSPath(logicalPath string) (string, bool) {
	if !utf8.ValidString(logicalPath) {
		return "", false
	}
	segments := strings.Split(logicalPath, "/")
	return filepath.Join(append([]string{m.musicRoot}, segments...)...), true
}

// LogicalPath converts an absolute OS path back into a logical path
// rooted at the music directory, for translating filesystem-change
// notifications (which report OS paths) back into tree coordinates.
func (m *PathMapper) LogicalPath(osPath string) (string, bool) {
	rel, err := filepath.Rel(m.musicRoot, osPath)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		if rel == "." {
			return "", true
		}
		return "", false
	}
	segments := strings.Split(rel, string(filepath.Separator))
	return strings.Join(segments, "/"), true
}

// DecodeListing converts a raw directory-entry name from the filesystem
// charset into UTF-8, returning ok=false on conversion failure. Since this
// implementation assumes a UTF-8 filesystem charset, the only failure mode
// is an invalid byte sequence. The result is normalized to NFC so that a
// name written under one normalization form (e.g. the NFD macOS commonly
// produces) still matches the same tree node a later scan decodes from a
// differently-normalized filesystem.
func (m *PathMapper) DecodeListing(raw string) (name string, ok bool) {
	if !utf8.ValidString(raw) {
		return "", false
	}
	return norm.NFC.String(raw), true
}
