package persist

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	utils "gitlab.com/mipimipi/go-utils"

	"gitlab.com/mipimipi/dbupdate/src/internal/dbtree"
)

// Store persists a consistent post-job snapshot of the tree to disk and
// reloads it at startup. The core guarantees only that Save observes the
// full set of mutations of a completed job, never a partial scan state
// (§5, "Persistence observes the full set of mutations of a completed job
// only").
type Store struct {
	path string
}

// New creates a Store that reads and writes the database file at path.
func New(path string) *Store {
	return &Store{path: path}
}

// node is the on-disk representation of one directory, mirroring the
// teacher's JSON-configuration idiom (encoding/json, explicit field tags)
// rather than a binary format.
type node struct {
	Name    string  `json:"name"`
	Virtual bool    `json:"virtual,omitempty"`
	Dirs    []node  `json:"dirs,omitempty"`
	Songs   []songD `json:"songs,omitempty"`
}

type songD struct {
	Name    string `json:"name"`
	ModTime int64  `json:"mod_time"`
	Title   string `json:"title,omitempty"`
	Artist  string `json:"artist,omitempty"`
	Album   string `json:"album,omitempty"`
	Year    int    `json:"year,omitempty"`
}

// file is the top-level on-disk document: a root node plus a checksum
// guarding against truncated writes.
type file struct {
	Root     node   `json:"root"`
	Checksum uint64 `json:"checksum"`
}

// Save writes a consistent snapshot of tree to the store's path. It writes
// to a temporary file in the same directory and renames it into place, so
// a crash mid-write never corrupts the previous snapshot.
func (s *Store) Save(tree *dbtree.Tree) (err error) {
	root := toNode(tree.Root)

	f := file{Root: root}
	f.Checksum = checksum(root)

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return errors.Wrap(err, "cannot marshal database snapshot")
	}

	dir := filepath.Dir(s.path)
	tmp, err := ioutil.TempFile(dir, ".dbupdate-*.tmp")
	if err != nil {
		return errors.Wrapf(err, "cannot create temporary file in '%s'", dir)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "cannot write database snapshot to '%s'", tmpPath)
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrapf(err, "cannot close temporary file '%s'", tmpPath)
	}
	if err = os.Rename(tmpPath, s.path); err != nil {
		return errors.Wrapf(err, "cannot install database snapshot at '%s'", s.path)
	}
	return nil
}

// Load reads the store's path and reconstructs a tree from it. If the file
// does not exist yet, an empty tree is returned.
func (s *Store) Load() (*dbtree.Tree, error) {
	data, err := ioutil.ReadFile(s.path)
	if os.IsNotExist(err) {
		return dbtree.New(), nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read database snapshot '%s'", s.path)
	}

	var f file
	if err = json.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(err, "cannot unmarshal database snapshot '%s'", s.path)
	}
	if got := checksum(f.Root); got != f.Checksum {
		return nil, fmt.Errorf("database snapshot '%s' failed checksum validation", s.path)
	}

	tree := dbtree.New()
	fromNode(tree.Root, f.Root, dbtree.NewMutator(noopBroker{}, func() {}))
	return tree, nil
}

func toNode(d *dbtree.Directory) node {
	n := node{Name: d.Name(), Virtual: d.IsVirtual()}
	for _, sub := range d.SubDirs() {
		n.Dirs = append(n.Dirs, toNode(sub))
	}
	for _, song := range d.Songs() {
		t := song.Tags()
		n.Songs = append(n.Songs, songD{
			Name:    song.Name(),
			ModTime: song.ModTime(),
			Title:   t.Title,
			Artist:  t.Artist,
			Album:   t.Album,
			Year:    t.Year,
		})
	}
	return n
}

func fromNode(d *dbtree.Directory, n node, m *dbtree.Mutator) {
	for _, sd := range n.Songs {
		m.AddSong(d, sd.Name, sd.ModTime, dbtree.Tags{
			Title:  sd.Title,
			Artist: sd.Artist,
			Album:  sd.Album,
			Year:   sd.Year,
		})
	}
	for _, sub := range n.Dirs {
		child := m.EnsureChildDir(d, sub.Name)
		if sub.Virtual {
			child.MarkVirtual()
		}
		fromNode(child, sub, m)
	}
}

// checksum folds HashUint64 over every name in the tree, giving a cheap
// guard against a truncated or half-written snapshot. It is not a security
// mechanism, just a "did this write complete" signal.
func checksum(n node) uint64 {
	h := utils.HashUint64("%s:%v", n.Name, n.Virtual)
	for _, s := range n.Songs {
		h ^= utils.HashUint64("%s:%d", s.Name, s.ModTime)
	}
	for _, sub := range n.Dirs {
		h ^= checksum(sub)
	}
	return h
}

// noopBroker is used while reloading a persisted snapshot: there is no
// playlist yet at startup, so song removal during reconstruction (which
// never happens on a clean load) would have nothing to hand off to.
type noopBroker struct{}

func (noopBroker) Delete(*dbtree.Directory, *dbtree.Song) {}
