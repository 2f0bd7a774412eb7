package dbtree

// ArchiveDevice is the reserved device sentinel assigned to virtual
// directories that represent the interior of an archive container. It is
// guaranteed to never equal a value returned by stat() on any real device,
// since device numbers reported by the kernel are never negative.
const ArchiveDevice int64 = -1

// Directory is an interior node of the in-memory library tree. Parent back
// references are non-owning lookups used only while the tree is quiescent
// (the scanner's prune/enumerate phases); they are never used to free a
// node.
type Directory struct {
	parent *Directory
	name   string // basename, unique within parent; empty for root
	path   string // logical path cached for logging, unique within the tree

	virtual bool // true iff this directory represents an archive interior

	device        int64
	inode         uint64
	statPopulated bool

	childDirs      []*Directory
	childDirByName map[string]*Directory

	childSongs []*Song
	songByName map[string]*Song

	archiveModTime int64 // meaningful only when virtual
}

// NewRoot creates the root directory of a tree. It has no parent and an
// empty name and path.
func NewRoot() *Directory {
	return newDirectory(nil, "")
}

func newDirectory(parent *Directory, name string) *Directory {
	d := &Directory{
		parent:         parent,
		name:           name,
		childDirByName: make(map[string]*Directory),
		songByName:     make(map[string]*Song),
	}
	if parent == nil {
		d.path = ""
	} else {
		d.path = joinLogical(parent.path, name)
	}
	return d
}

// Parent returns the directory's parent, or nil iff this is the root.
func (d *Directory) Parent() *Directory { return d.parent }

// IsRoot returns true iff d has no parent.
func (d *Directory) IsRoot() bool { return d.parent == nil }

// Name returns the directory's basename ("" for root).
func (d *Directory) Name() string { return d.name }

// Path returns the directory's logical path, cached at creation time.
func (d *Directory) Path() string { return d.path }

// IsVirtual returns true iff this directory represents the interior of an
// archive container.
func (d *Directory) IsVirtual() bool { return d.virtual }

// MarkVirtual marks d as an archive-interior directory and assigns it the
// reserved device sentinel (invariant 7: a virtual directory's existence
// tracks its container's existence, not a real stat result).
func (d *Directory) MarkVirtual() {
	d.virtual = true
	d.device = ArchiveDevice
	d.statPopulated = true
}

// ArchiveModTime returns the container mtime this virtual directory was
// last synchronized against. Meaningless for a non-virtual directory.
func (d *Directory) ArchiveModTime() int64 { return d.archiveModTime }

// SetArchiveModTime records the container mtime a virtual directory was
// synchronized against, so a later scan can detect a stale archive without
// re-opening it.
func (d *Directory) SetArchiveModTime(modTime int64) { d.archiveModTime = modTime }

// Stat returns the last (device, inode) pair recorded for d, and whether a
// stat result has ever been recorded.
func (d *Directory) Stat() (device int64, inode uint64, populated bool) {
	return d.device, d.inode, d.statPopulated
}

// SetStat records a fresh stat result for d. It is never called for virtual
// directories, which are never subjected to stat() checks.
func (d *Directory) SetStat(device int64, inode uint64) {
	d.device = device
	d.inode = inode
	d.statPopulated = true
}

// SubDirs returns d's child directories in the order they were created.
func (d *Directory) SubDirs() []*Directory {
	return d.childDirs
}

// Songs returns d's child songs in the order they were created.
func (d *Directory) Songs() []*Song {
	return d.childSongs
}

// ChildDir looks up a direct child directory by name.
func (d *Directory) ChildDir(name string) (*Directory, bool) {
	c, ok := d.childDirByName[name]
	return c, ok
}

// Song looks up a direct child song by name.
func (d *Directory) Song(name string) (*Song, bool) {
	s, ok := d.songByName[name]
	return s, ok
}

// HasName reports whether name is already taken by either a child
// directory or a song (invariant 2: names are unique across the union of
// the two).
func (d *Directory) HasName(name string) bool {
	if _, ok := d.childDirByName[name]; ok {
		return true
	}
	_, ok := d.songByName[name]
	return ok
}

// NumChildren returns the total count of subdirectories and songs.
func (d *Directory) NumChildren() int {
	return len(d.childDirs) + len(d.childSongs)
}

// root walks up the parent chain and returns the tree's root. Used by
// invariants tests to confirm reachability (invariant 1).
func (d *Directory) root() *Directory {
	n := d
	for n.parent != nil {
		n = n.parent
	}
	return n
}

// addChildDir registers c as a child of d. c must not already be present.
func (d *Directory) addChildDir(c *Directory) {
	d.childDirs = append(d.childDirs, c)
	d.childDirByName[c.name] = c
}

// detachChildDir removes c from d's child list. It returns false if c was
// not a child of d.
func (d *Directory) detachChildDir(c *Directory) bool {
	if _, ok := d.childDirByName[c.name]; !ok {
		return false
	}
	delete(d.childDirByName, c.name)
	for i, sub := range d.childDirs {
		if sub == c {
			d.childDirs = append(d.childDirs[:i], d.childDirs[i+1:]...)
			break
		}
	}
	return true
}

// addSongRef registers s as a child of d.
func (d *Directory) addSongRef(s *Song) {
	d.childSongs = append(d.childSongs, s)
	d.songByName[s.name] = s
	s.dir = d
}

// DetachSong removes s from d's song list, so that further traversals
// cannot observe it (step 2 of the delete-broker protocol, §4.5). It
// returns false if s was not a child of d.
func (d *Directory) DetachSong(s *Song) bool {
	if _, ok := d.songByName[s.name]; !ok {
		return false
	}
	delete(d.songByName, s.name)
	for i, sg := range d.childSongs {
		if sg == s {
			d.childSongs = append(d.childSongs[:i], d.childSongs[i+1:]...)
			break
		}
	}
	return true
}
