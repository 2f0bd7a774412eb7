package scan

import (
	"sync"

	"gitlab.com/mipimipi/dbupdate/src/internal/dbtree"
)

// DeleteBroker implements dbtree.Broker with the single-slot rendezvous of
// §4.5: a scanner-thread call to Delete blocks until the service thread has
// dropped every external reference to the song and called Ack. A faulty
// observer that never releases its reference hangs the scanner forever, by
// design (§4.5, "this is intentional: it surfaces the bug rather than
// freeing live data"); there is deliberately no timeout.
type DeleteBroker struct {
	mu     sync.Mutex
	cond   *sync.Cond
	slot   *pendingDelete
	bridge *Bridge
}

type pendingDelete struct {
	dir  *dbtree.Directory
	song *dbtree.Song
}

// NewDeleteBroker creates a broker that publishes delete-request events on
// bridge.
func NewDeleteBroker(bridge *Bridge) *DeleteBroker {
	b := &DeleteBroker{bridge: bridge}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Delete implements dbtree.Broker. It must only ever be called from the
// scanner thread.
func (b *DeleteBroker) Delete(dir *dbtree.Directory, song *dbtree.Song) {
	b.mu.Lock()
	if b.slot != nil {
		b.mu.Unlock()
		panic("scan: delete broker slot occupied by a second concurrent delete")
	}
	dir.DetachSong(song)
	b.slot = &pendingDelete{dir: dir, song: song}
	b.mu.Unlock()

	b.bridge.emit(Event{Kind: EventDeleteRequest, Dir: dir, Song: song})

	b.mu.Lock()
	for b.slot != nil {
		b.cond.Wait()
	}
	b.mu.Unlock()
}

// Ack is called by the service thread once it has dropped every reference
// to the most recently published song (e.g. playlist.Remove). It clears
// the slot and wakes the waiting scanner thread.
func (b *DeleteBroker) Ack() {
	b.mu.Lock()
	b.slot = nil
	b.cond.Signal()
	b.mu.Unlock()
}
