package scan

import (
	"gitlab.com/mipimipi/dbupdate/src/internal/dbtree"
)

// CycleGuard detects symlink-induced cycles the way update.c's
// inodeFoundInParent does: a candidate directory is rejected iff its
// (device, inode) pair equals that of any of its ancestors. Ancestors
// without a cached stat result are stat-ed lazily and the result is cached
// on the Directory for later checks.
type CycleGuard struct {
	mapper *dbtree.PathMapper
}

// NewCycleGuard creates a guard that lazily stats ancestors through mapper.
func NewCycleGuard(mapper *dbtree.PathMapper) *CycleGuard {
	return &CycleGuard{mapper: mapper}
}

// Check reports whether descending into a candidate with the given
// (device, inode) from parent would re-enter an ancestor already on the
// path from the root to parent (inclusive).
func (g *CycleGuard) Check(parent *dbtree.Directory, device int64, inode uint64) (bool, error) {
	for anc := parent; anc != nil; anc = anc.Parent() {
		if anc.IsVirtual() {
			// archive-virtual directories carry the reserved sentinel
			// device, which can never equal a real device number
			continue
		}

		d, i, populated := anc.Stat()
		if !populated {
			info, err := statDirectory(g.mapper, anc)
			if err != nil {
				return false, err
			}
			var ok bool
			d, i, ok = deviceInode(info)
			if !ok {
				continue
			}
			anc.SetStat(d, i)
		}

		if d == device && i == inode {
			return true, nil
		}
	}
	return false, nil
}
