package dbtree

import "github.com/pkg/errors"

// Broker performs the cross-thread handshake required to safely free a
// song that may still be referenced by an external subsystem (e.g. a
// playlist). Implementations live outside this package (see
// internal/scan.DeleteBroker); Mutator only knows the narrow contract.
//
// Delete must, in order: detach song from dir's song list (dir.DetachSong),
// publish it for the service thread, block until acknowledged, then let the
// song become unreachable. It must not return before the handshake
// completes.
type Broker interface {
	Delete(dir *Directory, song *Song)
}

// Mutator provides the only sanctioned way to mutate a tree. It is bound to
// one job's modified flag for the duration of that job (see DESIGN.md,
// Open Question 1: modified-flag ownership is an explicit per-job handoff,
// not a package-level variable two threads share).
type Mutator struct {
	broker     Broker
	onModified func()
}

// NewMutator creates a Mutator that routes song deletion through broker and
// calls onModified after every mutation that changes the tree's observable
// state.
func NewMutator(broker Broker, onModified func()) *Mutator {
	return &Mutator{broker: broker, onModified: onModified}
}

func (m *Mutator) markModified() {
	if m.onModified != nil {
		m.onModified()
	}
}

// EnsureChildDir returns the existing child directory of parent named name,
// creating it if absent. It is idempotent: calling it twice with the same
// arguments returns the same node and only the first call marks the job
// modified.
func (m *Mutator) EnsureChildDir(parent *Directory, name string) *Directory {
	if d, ok := parent.ChildDir(name); ok {
		return d
	}
	d := newDirectory(parent, name)
	parent.addChildDir(d)
	m.markModified()
	return d
}

// RemoveChildDir removes dir from parent, first clearing its subtree (all
// descendant directories and songs) via the delete-broker protocol.
func (m *Mutator) RemoveChildDir(parent, dir *Directory) error {
	if _, ok := parent.ChildDir(dir.Name()); !ok {
		return errors.Errorf("'%s' is not a child of '%s'", dir.Path(), parent.Path())
	}
	m.ClearDirectory(dir)
	parent.detachChildDir(dir)
	m.markModified()
	return nil
}

// ClearDirectory recursively clears dir: grandchildren first, then every
// song via the full broker handshake, leaving dir with no children. The
// caller must not proceed to a structural removal of dir's songs' parent
// until every song has been acknowledged; this call guarantees that by
// handling songs one at a time, synchronously.
func (m *Mutator) ClearDirectory(dir *Directory) {
	for _, sub := range append([]*Directory(nil), dir.SubDirs()...) {
		m.ClearDirectory(sub)
		dir.detachChildDir(sub)
		m.markModified()
	}

	for _, song := range append([]*Song(nil), dir.Songs()...) {
		m.RemoveSong(dir, song)
	}
}

// AddSong creates and attaches a new song named name in dir.
func (m *Mutator) AddSong(dir *Directory, name string, modTime int64, tags Tags) *Song {
	s := &Song{name: name, modTime: modTime, tags: tags}
	dir.addSongRef(s)
	m.markModified()
	return s
}

// RefreshSong updates an existing song's recorded mtime and tags after its
// on-disk contents have changed.
func (m *Mutator) RefreshSong(song *Song, modTime int64, tags Tags) {
	song.modTime = modTime
	song.tags = tags
	m.markModified()
}

// RemoveSong removes song from dir, routing through the delete broker so no
// external reference outlives the free (invariant 4).
func (m *Mutator) RemoveSong(dir *Directory, song *Song) {
	m.broker.Delete(dir, song)
	m.markModified()
}
