package dbtree

// Tree is the in-memory library: a parent-pointer tree of directories and
// songs rooted at the music directory. Cycles are impossible by
// construction, so no cycle-collection or weak-reference machinery is
// needed; the only concern is the explicit cycle *detection* the scanner
// performs while walking the real filesystem (internal/scan.CycleGuard).
type Tree struct {
	Root *Directory
}

// New creates an empty tree with a fresh root directory.
func New() *Tree {
	return &Tree{Root: NewRoot()}
}

// CountSongs returns the total number of songs in the tree.
func (t *Tree) CountSongs() int {
	return countSongs(t.Root)
}

func countSongs(d *Directory) int {
	n := len(d.Songs())
	for _, sub := range d.SubDirs() {
		n += countSongs(sub)
	}
	return n
}

// Walk calls fn for every directory in the tree, root first, in the order
// children were created.
func (t *Tree) Walk(fn func(*Directory)) {
	walk(t.Root, fn)
}

func walk(d *Directory, fn func(*Directory)) {
	fn(d)
	for _, sub := range d.SubDirs() {
		walk(sub, fn)
	}
}

// DirectoryByPath looks up a directory by its logical path ("" for root).
// It returns ok=false if no such directory exists.
func (t *Tree) DirectoryByPath(path string) (*Directory, bool) {
	if path == "" {
		return t.Root, true
	}
	d := t.Root
	for _, seg := range splitLogical(path) {
		next, ok := d.ChildDir(seg)
		if !ok {
			return nil, false
		}
		d = next
	}
	return d, true
}

// SplitLogical splits a logical path into its '/'-separated components.
// SplitLogical("") returns [""], matching the root's own empty name.
func SplitLogical(path string) []string {
	return splitLogical(path)
}

func splitLogical(path string) []string {
	var segs []string
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '/' {
			segs = append(segs, path[start:i])
			start = i + 1
		}
	}
	segs = append(segs, path[start:])
	return segs
}
