package playlist

import (
	"sync"

	"gitlab.com/mipimipi/dbupdate/src/internal/dbtree"
)

// Playlist is the narrow, named collaborator the delete-broker handshake
// consumes: it holds the set of songs an external subsystem (e.g. a
// "now playing" queue) currently references, and is the thing that must
// drop its reference to a song before the scanner is allowed to free it
// (invariant 4, §4.5).
//
// This package does not implement playlist *files* (m3u or otherwise) -
// that belongs to a higher layer this core does not own, per spec
// Non-goals. Playlist only tracks live song references.
type Playlist struct {
	mu    sync.Mutex
	songs map[*dbtree.Song]struct{}
}

// New creates an empty playlist.
func New() *Playlist {
	return &Playlist{songs: make(map[*dbtree.Song]struct{})}
}

// Enqueue adds song to the playlist.
func (p *Playlist) Enqueue(song *dbtree.Song) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.songs[song] = struct{}{}
}

// Remove drops the playlist's reference to song, if any. It is the
// service-thread half of the delete-broker handshake: once Remove returns,
// no live reference to song survives in the playlist.
func (p *Playlist) Remove(song *dbtree.Song) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.songs, song)
}

// Contains reports whether song is currently referenced by the playlist.
func (p *Playlist) Contains(song *dbtree.Song) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.songs[song]
	return ok
}

// Len returns the number of songs currently referenced by the playlist.
func (p *Playlist) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.songs)
}
