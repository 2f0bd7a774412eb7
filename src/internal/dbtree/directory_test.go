package dbtree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type spyBroker struct {
	deleted []*Song
}

func (b *spyBroker) Delete(dir *Directory, song *Song) {
	dir.DetachSong(song)
	b.deleted = append(b.deleted, song)
}

func newTestMutator() (*Mutator, *spyBroker) {
	broker := &spyBroker{}
	var modifiedCount int
	m := NewMutator(broker, func() { modifiedCount++ })
	return m, broker
}

func TestEnsureChildDirIsIdempotent(t *testing.T) {
	root := NewRoot()
	m, _ := newTestMutator()

	a1 := m.EnsureChildDir(root, "a")
	a2 := m.EnsureChildDir(root, "a")

	require.Same(t, a1, a2)
	require.Equal(t, 1, root.NumChildren())
	require.Equal(t, "a", a1.Path())
}

func TestDirectoryPathsAreLogicalAndSlashSeparated(t *testing.T) {
	root := NewRoot()
	m, _ := newTestMutator()

	a := m.EnsureChildDir(root, "a")
	b := m.EnsureChildDir(a, "b")

	require.Equal(t, "", root.Path())
	require.Equal(t, "a", a.Path())
	require.Equal(t, "a/b", b.Path())
}

func TestAddSongAndRemoveSongRoutesThroughBroker(t *testing.T) {
	root := NewRoot()
	m, broker := newTestMutator()

	song := m.AddSong(root, "track.mp3", 100, Tags{Title: "T"})
	require.Equal(t, 1, len(root.Songs()))

	m.RemoveSong(root, song)

	require.Empty(t, root.Songs())
	require.Len(t, broker.deleted, 1)
	require.Same(t, song, broker.deleted[0])
}

func TestClearDirectoryRemovesSongsOneAtATimeBeforeStructuralRemoval(t *testing.T) {
	root := NewRoot()
	m, broker := newTestMutator()

	a := m.EnsureChildDir(root, "a")
	s1 := m.AddSong(a, "one.mp3", 1, Tags{})
	s2 := m.AddSong(a, "two.mp3", 2, Tags{})

	m.ClearDirectory(a)

	require.Empty(t, a.Songs())
	require.ElementsMatch(t, []*Song{s1, s2}, broker.deleted)
}

func TestRemoveChildDirClearsSubtreeFirst(t *testing.T) {
	root := NewRoot()
	m, broker := newTestMutator()

	a := m.EnsureChildDir(root, "a")
	b := m.EnsureChildDir(a, "b")
	song := m.AddSong(b, "x.mp3", 1, Tags{})

	err := m.RemoveChildDir(root, a)
	require.NoError(t, err)

	_, ok := root.ChildDir("a")
	require.False(t, ok)
	require.Len(t, broker.deleted, 1)
	require.Same(t, song, broker.deleted[0])
}

func TestRemoveChildDirRejectsNonChild(t *testing.T) {
	root := NewRoot()
	m, _ := newTestMutator()

	other := newDirectory(nil, "orphan")
	err := m.RemoveChildDir(root, other)
	require.Error(t, err)
}

func TestHasNameCoversBothDirsAndSongs(t *testing.T) {
	root := NewRoot()
	m, _ := newTestMutator()

	m.EnsureChildDir(root, "shared-dir")
	m.AddSong(root, "shared-song.mp3", 1, Tags{})

	require.True(t, root.HasName("shared-dir"))
	require.True(t, root.HasName("shared-song.mp3"))
	require.False(t, root.HasName("nope"))
}

func TestEveryDirectoryReachesRootThroughParentChain(t *testing.T) {
	root := NewRoot()
	m, _ := newTestMutator()

	a := m.EnsureChildDir(root, "a")
	b := m.EnsureChildDir(a, "b")
	c := m.EnsureChildDir(b, "c")

	require.Same(t, root, c.root())
	require.True(t, root.IsRoot())
	require.False(t, c.IsRoot())
}
