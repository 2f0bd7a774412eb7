package scan

import (
	"os"
	"syscall"

	"github.com/pkg/errors"

	"gitlab.com/mipimipi/dbupdate/src/internal/dbtree"
)

// deviceInode extracts the (device, inode) pair the cycle guard and the
// directory's stat cache need. It only works on platforms whose
// os.FileInfo.Sys() returns a *syscall.Stat_t (all Unix targets this
// module supports); a platform without that would simply never detect
// cycles, which stat-less platforms never had in the first place.
func deviceInode(info os.FileInfo) (device int64, inode uint64, ok bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, 0, false
	}
	return int64(st.Dev), uint64(st.Ino), true
}

// statDirectory stats the directory's own OS path.
func statDirectory(mapper *dbtree.PathMapper, dir *dbtree.Directory) (os.FileInfo, error) {
	p, ok := mapper.DirFSPath(dir)
	if !ok {
		return nil, errors.Errorf("directory '%s' has no representable filesystem path", dir.Path())
	}
	return os.Stat(p)
}

// statChild stats a named child of parent.
func statChild(mapper *dbtree.PathMapper, parent *dbtree.Directory, name string) (os.FileInfo, error) {
	p, ok := mapper.ChildFSPath(parent, name)
	if !ok {
		return nil, errors.Errorf("'%s/%s' has no representable filesystem path", parent.Path(), name)
	}
	return os.Stat(p)
}
