package dbtree

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPathMapperRoundTripsLogicalAndFSPaths(t *testing.T) {
	root := t.TempDir()
	mapper := NewPathMapper(root)

	d := NewRoot()
	m, _ := newTestMutator()
	a := m.EnsureChildDir(d, "Alben")
	b := m.EnsureChildDir(a, "Käse")

	fsPath, ok := mapper.DirFSPath(b)
	require.True(t, ok)
	require.Equal(t, filepath.Join(root, "Alben", "Käse"), fsPath)

	logical, ok := mapper.LogicalPath(fsPath)
	require.True(t, ok)
	require.Equal(t, "Alben/Käse", logical)
}

func TestPathMapperRootItself(t *testing.T) {
	root := t.TempDir()
	mapper := NewPathMapper(root)

	d := NewRoot()
	fsPath, ok := mapper.DirFSPath(d)
	require.True(t, ok)
	require.Equal(t, root, fsPath)

	logical, ok := mapper.LogicalPath(root)
	require.True(t, ok)
	require.Equal(t, "", logical)
}

func TestDecodeListingRejectsInvalidUTF8(t *testing.T) {
	mapper := NewPathMapper(t.TempDir())

	_, ok := mapper.DecodeListing(string([]byte{0xff, 0xfe}))
	require.False(t, ok)

	name, ok := mapper.DecodeListing("plain.mp3")
	require.True(t, ok)
	require.Equal(t, "plain.mp3", name)
}

func TestLogicalPathRejectsPathsOutsideRoot(t *testing.T) {
	root := t.TempDir()
	mapper := NewPathMapper(root)

	_, ok := mapper.LogicalPath(filepath.Dir(root))
	require.False(t, ok)
}
