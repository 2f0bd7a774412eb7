package archive

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestZipRegistryIsArchiveRecognizesOnlyZipSuffix(t *testing.T) {
	r := New()
	require.True(t, r.IsArchive("zip"))
	require.True(t, r.IsArchive("ZIP"))
	require.False(t, r.IsArchive("rar"))
	require.False(t, r.IsArchive(""))
}

func TestZipRegistryOpenStreamsInteriorPathsSkippingDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disc.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	_, err = w.Create("a/")
	require.NoError(t, err)
	_, err = w.Create("a/track.mp3")
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	r := New()
	h, err := r.Open(path)
	require.NoError(t, err)
	defer h.Close()

	var seen []string
	for {
		p, ok, err := h.ScanNext()
		require.NoError(t, err)
		if !ok {
			break
		}
		seen = append(seen, p)
	}
	require.Equal(t, []string{"a/track.mp3"}, seen)
}

func TestZipRegistryOpenRejectsMissingFile(t *testing.T) {
	r := New()
	_, err := r.Open(filepath.Join(t.TempDir(), "does-not-exist.zip"))
	require.Error(t, err)
}
