package archive

import (
	"archive/zip"

	"github.com/pkg/errors"
)

// zipRegistry is the default Registry implementation. No third-party
// archive library appears anywhere in the example pack this module was
// built from (see DESIGN.md); archive/zip is the idiomatic stdlib choice
// for the one container format it supports. Opening a zip only parses its
// central directory (file names and metadata) into memory, never file
// contents, which satisfies the streaming-enumeration requirement.
type zipRegistry struct{}

// New creates the default, zip-backed archive registry.
func New() Registry {
	return zipRegistry{}
}

func (zipRegistry) IsArchive(suffix string) bool {
	return isKnownSuffix(suffix)
}

func (zipRegistry) Open(path string) (Handle, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open archive '%s'", path)
	}
	return &zipHandle{r: r}, nil
}

type zipHandle struct {
	r   *zip.ReadCloser
	pos int
}

func (h *zipHandle) ScanNext() (string, bool, error) {
	for h.pos < len(h.r.File) {
		f := h.r.File[h.pos]
		h.pos++
		if f.FileInfo().IsDir() {
			continue
		}
		return f.Name, true, nil
	}
	return "", false, nil
}

func (h *zipHandle) Close() error {
	return h.r.Close()
}
