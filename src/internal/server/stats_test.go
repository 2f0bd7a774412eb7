package server

import (
	"testing"

	"github.com/stretchr/testify/require"

	"gitlab.com/mipimipi/dbupdate/src/internal/dbtree"
)

func TestStatsRefreshReflectsCurrentSongCount(t *testing.T) {
	tree := dbtree.New()
	stats := newStats()

	require.Equal(t, 0, stats.SongCount())

	m := dbtree.NewMutator(noopStatsBroker{}, func() {})
	m.AddSong(tree.Root, "one.mp3", 1, dbtree.Tags{})
	m.AddSong(tree.Root, "two.mp3", 2, dbtree.Tags{})

	stats.refresh(tree)
	require.Equal(t, 2, stats.SongCount())
}

type noopStatsBroker struct{}

func (noopStatsBroker) Delete(dir *dbtree.Directory, song *dbtree.Song) {
	dir.DetachSong(song)
}
