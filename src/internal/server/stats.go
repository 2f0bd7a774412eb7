package server

import (
	"sync/atomic"

	"gitlab.com/mipimipi/dbupdate/src/internal/dbtree"
)

// Stats holds aggregate counters refreshed whenever UpdateQueue drains
// back to Idle (§4.8, "refresh aggregate statistics"). Reads are lock-free
// so external interfaces (§6) can report them without contending with the
// service thread.
type Stats struct {
	songCount int64
}

func newStats() *Stats {
	return &Stats{}
}

func (s *Stats) refresh(tree *dbtree.Tree) {
	atomic.StoreInt64(&s.songCount, int64(tree.CountSongs()))
}

// SongCount returns the song count as of the last time the update queue
// drained back to Idle.
func (s *Stats) SongCount() int {
	return int(atomic.LoadInt64(&s.songCount))
}
