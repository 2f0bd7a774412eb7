package decoder

import (
	"os"
	"strings"

	"github.com/dhowden/tag"
	"github.com/pkg/errors"

	"gitlab.com/mipimipi/dbupdate/src/internal/dbtree"
)

// Registry is the narrow contract the scanner consumes to decide whether a
// regular file is a decodable track and, if so, to load its tags (§4.6.1:
// "Consult DecoderRegistry"). It is a named collaborator: this package
// supplies a default implementation, but the scanner depends only on this
// interface.
type Registry interface {
	// IsDecodable reports whether suffix (without the leading dot) is
	// registered to a decoder plugin.
	IsDecodable(suffix string) bool
	// LoadTags reads and decodes the tag metadata of the file at path.
	LoadTags(path string) (dbtree.Tags, error)
}

// suffixes lists the file extensions (without the dot) this default
// registry recognizes as decodable, mirroring the MIME-mapped audio types
// the teacher codebase treats as valid audio files.
var suffixes = map[string]bool{
	"mp3":  true,
	"flac": true,
	"ogg":  true,
	"oga":  true,
	"m4a":  true,
	"mp4":  true,
	"aac":  true,
	"wav":  true,
}

// registry is the default Registry implementation, backed by
// github.com/dhowden/tag.
type registry struct{}

// New creates the default decoder registry.
func New() Registry {
	return registry{}
}

func (registry) IsDecodable(suffix string) bool {
	return suffixes[strings.ToLower(suffix)]
}

func (registry) LoadTags(path string) (dbtree.Tags, error) {
	f, err := os.Open(path)
	if err != nil {
		return dbtree.Tags{}, errors.Wrapf(err, "cannot open '%s' for tag decoding", path)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return dbtree.Tags{}, errors.Wrapf(err, "cannot decode tags of '%s'", path)
	}

	return dbtree.Tags{
		Title:  m.Title(),
		Artist: m.Artist(),
		Album:  m.Album(),
		Year:   m.Year(),
	}, nil
}
