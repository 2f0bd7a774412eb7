package scan

import (
	"errors"
	"os"
	"path"
	"strings"
	"syscall"

	"gitlab.com/mipimipi/dbupdate/src/internal/dbtree"
)

// SymlinkPolicy decides whether a symlink directory entry is followed,
// mirroring update.c's skip_symlink: classification walks the symlink's
// target against the in-memory parent chain, never against the real
// filesystem, so a symlink can be classified "inside" or "outside" without
// resolving intermediate symlinks along the way.
type SymlinkPolicy struct {
	allowInside  bool
	allowOutside bool
}

// NewSymlinkPolicy creates a policy with the given allow flags. Both
// default to true in configuration (§10), matching MPD's
// follow_inside_symlinks / follow_outside_symlinks defaults.
func NewSymlinkPolicy(allowInside, allowOutside bool) *SymlinkPolicy {
	return &SymlinkPolicy{allowInside: allowInside, allowOutside: allowOutside}
}

// ShouldSkip reports whether the directory entry named name in dir must be
// skipped. A non-symlink entry is always permitted.
func (p *SymlinkPolicy) ShouldSkip(mapper *dbtree.PathMapper, dir *dbtree.Directory, name string) bool {
	fsPath, ok := mapper.ChildFSPath(dir, name)
	if !ok {
		return true
	}

	target, err := os.Readlink(fsPath)
	if err != nil {
		if errors.Is(err, syscall.EINVAL) {
			// not a symlink: permitted, nothing to classify
			return false
		}
		return true
	}

	if p.allowInside && p.allowOutside {
		return false
	}
	if !p.allowInside && !p.allowOutside {
		return true
	}

	if path.IsAbs(target) {
		return !p.allowOutside
	}

	outside := false
	cur := dir
	for _, seg := range strings.Split(target, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			if cur == nil {
				outside = true
				continue
			}
			cur = cur.Parent()
		default:
			// first real path component: the leading ./ .. sequence is over
			goto classify
		}
	}

classify:
	if outside || cur == nil {
		return !p.allowOutside
	}
	return !p.allowInside
}
