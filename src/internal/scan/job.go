package scan

import (
	"os"

	"github.com/google/uuid"

	"gitlab.com/mipimipi/dbupdate/src/internal/dbtree"
)

// JobID identifies one UpdateJob. Always positive when reported to a
// caller; 0 means "no job" (§6, directory_update_init / is_updating_db).
type JobID int

// maxJobID bounds the wrapping counter UpdateQueue hands out (§3: "integer
// identifier in the range [1, 2^15]").
const maxJobID JobID = 1 << 15

// Job is one scan run: either a full scan of the tree root, or one scoped
// to a single path. It never touches the playlist or idle bus directly;
// those are the service thread's business once EventJobFinished arrives.
type Job struct {
	id      JobID
	traceID uuid.UUID
	path    string
	scoped  bool
	mutator *dbtree.Mutator

	modified bool
}

func newJob(id JobID, path string, scoped bool, broker dbtree.Broker) *Job {
	j := &Job{id: id, traceID: uuid.New(), path: path, scoped: scoped}
	j.mutator = dbtree.NewMutator(broker, j.markModified)
	return j
}

func (j *Job) markModified() { j.modified = true }

// ID returns the job's identifier.
func (j *Job) ID() JobID { return j.id }

// TraceID returns the job's unique trace identifier. It is printed in the
// job's start trace line; the scanner's own log lines do not include it.
func (j *Job) TraceID() uuid.UUID { return j.traceID }

// Modified reports whether any mutation was applied during this job's run.
func (j *Job) Modified() bool { return j.modified }

// run executes the job to completion against tree, using scanner for the
// recursive descent. It does not save the tree afterwards: no persistence
// store is reachable from a Job.
func (j *Job) run(tree *dbtree.Tree, scanner *DirectoryScanner) {
	log.Tracef("job %d (%s) starting, scoped=%v path=%q", j.id, j.traceID, j.scoped, j.path)
	if !j.scoped {
		info, err := statDirectory(scanner.mapper, tree.Root)
		if err != nil {
			log.Error(err)
			return
		}
		scanner.Scan(j, tree.Root, info)
		return
	}
	j.runScoped(tree, scanner)
}

func (j *Job) runScoped(tree *dbtree.Tree, scanner *DirectoryScanner) {
	segs := dbtree.SplitLogical(j.path)
	if len(segs) == 0 {
		return
	}

	parent, ok := j.ensureAncestors(tree, scanner, segs[:len(segs)-1])
	if !ok {
		return
	}
	name := segs[len(segs)-1]
	if name == "" {
		return
	}

	fullPath, ok := scanner.mapper.ChildFSPath(parent, name)
	if !ok {
		return
	}
	info, err := os.Stat(fullPath)
	if err != nil {
		scanner.deleteName(j, parent, name)
		return
	}

	switch {
	case info.IsDir():
		device, inode, ok := deviceInode(info)
		if !ok {
			return
		}
		cyc, cerr := scanner.cycles.Check(parent, device, inode)
		if cerr != nil {
			log.Error(cerr)
			return
		}
		if cyc {
			log.Debug("recursive directory found")
			return
		}
		sub := j.mutator.EnsureChildDir(parent, name)
		if !scanner.Scan(j, sub, info) {
			_ = j.mutator.RemoveChildDir(parent, sub)
		}

	case info.Mode().IsRegular():
		scanner.updateRegularFile(j, parent, name, info, fullPath)
	}
}

// ensureAncestors walks segs (the scoped path's directory components,
// excluding its own basename), stat-ing and cycle-checking each one and
// creating it in the tree if absent (the REDESIGN-FLAG-fixed version of
// addParentPathToDB: aborting on the first unresolvable component instead
// of relying on a break condition that could never trigger). A song
// colliding with an ancestor's name is deleted in favor of the directory.
func (j *Job) ensureAncestors(tree *dbtree.Tree, scanner *DirectoryScanner, segs []string) (*dbtree.Directory, bool) {
	dir := tree.Root
	for _, seg := range segs {
		if seg == "" {
			continue
		}

		fullPath, ok := scanner.mapper.ChildFSPath(dir, seg)
		if !ok {
			return nil, false
		}
		info, err := os.Stat(fullPath)
		if err != nil || !info.IsDir() {
			return nil, false
		}

		device, inode, ok := deviceInode(info)
		if ok {
			if cyc, cerr := scanner.cycles.Check(dir, device, inode); cerr != nil || cyc {
				return nil, false
			}
		}

		if song, exists := dir.Song(seg); exists {
			j.mutator.RemoveSong(dir, song)
		}

		child := j.mutator.EnsureChildDir(dir, seg)
		if ok {
			child.SetStat(device, inode)
		}
		dir = child
	}
	return dir, true
}
