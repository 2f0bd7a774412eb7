package scan

import (
	"os"
	"strings"

	l "github.com/sirupsen/logrus"

	"gitlab.com/mipimipi/dbupdate/src/internal/archive"
	"gitlab.com/mipimipi/dbupdate/src/internal/dbtree"
	"gitlab.com/mipimipi/dbupdate/src/internal/decoder"
)

var log *l.Entry = l.WithFields(l.Fields{"srv": "scan"})

// DirectoryScanner implements the recursive descent of §4.6: given a
// directory with a fresh stat result, it prunes tree nodes whose backing
// file disappeared, then enumerates the directory stream and folds new or
// changed entries into the tree via TreeMutator.
type DirectoryScanner struct {
	mapper          *dbtree.PathMapper
	symlinks        *SymlinkPolicy
	cycles          *CycleGuard
	decoders        decoder.Registry
	archives        archive.Registry
	archivesEnabled bool
}

// NewDirectoryScanner creates a scanner. archivesEnabled gates the
// "recognized as archive" branch of §4.6.1 off entirely when archive
// support is disabled in configuration.
func NewDirectoryScanner(
	mapper *dbtree.PathMapper,
	symlinks *SymlinkPolicy,
	cycles *CycleGuard,
	decoders decoder.Registry,
	archives archive.Registry,
	archivesEnabled bool,
) *DirectoryScanner {
	return &DirectoryScanner{
		mapper:          mapper,
		symlinks:        symlinks,
		cycles:          cycles,
		decoders:        decoders,
		archives:        archives,
		archivesEnabled: archivesEnabled,
	}
}

// Scan descends into dir, whose fresh OS stat result is info. It returns
// false iff dir itself could no longer be opened, telling the caller to
// remove dir from its own parent.
func (s *DirectoryScanner) Scan(job *Job, dir *dbtree.Directory, info os.FileInfo) bool {
	if !dir.IsVirtual() {
		if d, i, ok := deviceInode(info); ok {
			dir.SetStat(d, i)
		}
	}

	osPath, ok := s.mapper.DirFSPath(dir)
	if !ok {
		return false
	}
	entries, err := os.ReadDir(osPath)
	if err != nil {
		log.Debugf("cannot open directory '%s': %v", osPath, err)
		return false
	}

	s.prune(job, dir)

	for _, entry := range entries {
		raw := entry.Name()
		if raw == "." || raw == ".." || strings.ContainsRune(raw, '\n') {
			continue
		}
		name, ok := s.mapper.DecodeListing(raw)
		if !ok {
			continue
		}
		if s.symlinks.ShouldSkip(s.mapper, dir, name) {
			continue
		}

		childPath, ok := s.mapper.ChildFSPath(dir, name)
		if !ok {
			continue
		}
		childInfo, err := os.Stat(childPath)
		if err != nil {
			s.deleteName(job, dir, name)
			continue
		}

		switch {
		case childInfo.Mode().IsRegular():
			s.updateRegularFile(job, dir, name, childInfo, childPath)

		case childInfo.IsDir():
			device, inode, ok := deviceInode(childInfo)
			if !ok {
				continue
			}
			cyc, cerr := s.cycles.Check(dir, device, inode)
			if cerr != nil {
				log.Error(cerr)
				continue
			}
			if cyc {
				log.Debug("recursive directory found")
				continue
			}
			sub := job.mutator.EnsureChildDir(dir, name)
			if !s.Scan(job, sub, childInfo) {
				_ = job.mutator.RemoveChildDir(dir, sub)
			}

		default:
			log.Debugf("skipping non-regular, non-directory entry '%s'", childPath)
		}
	}

	return true
}

// prune implements §4.6 step 3: drop tree nodes whose backing file no
// longer resolves the way it should.
func (s *DirectoryScanner) prune(job *Job, dir *dbtree.Directory) {
	for _, sub := range append([]*dbtree.Directory(nil), dir.SubDirs()...) {
		if sub.IsVirtual() {
			continue
		}
		p, ok := s.mapper.DirFSPath(sub)
		info, err := os.Stat(p)
		if !ok || err != nil || !info.IsDir() {
			log.Infof("removing directory: %s", sub.Path())
			_ = job.mutator.RemoveChildDir(dir, sub)
		}
	}
	for _, song := range append([]*dbtree.Song(nil), dir.Songs()...) {
		p, ok := s.mapper.ChildFSPath(dir, song.Name())
		info, err := os.Stat(p)
		if !ok || err != nil || !info.Mode().IsRegular() {
			log.Infof("removing: %s", song.URI())
			job.mutator.RemoveSong(dir, song)
		}
	}
}

// deleteName removes whatever tree node (directory or song) is named name
// in dir, used when a previously-seen entry has disappeared between the
// directory listing and its own stat.
func (s *DirectoryScanner) deleteName(job *Job, dir *dbtree.Directory, name string) {
	if sub, ok := dir.ChildDir(name); ok {
		log.Infof("removing directory: %s", sub.Path())
		_ = job.mutator.RemoveChildDir(dir, sub)
		return
	}
	if song, ok := dir.Song(name); ok {
		log.Infof("removing: %s", song.URI())
		job.mutator.RemoveSong(dir, song)
	}
}

// updateRegularFile implements §4.6.1.
func (s *DirectoryScanner) updateRegularFile(job *Job, dir *dbtree.Directory, name string, info os.FileInfo, fullPath string) {
	suffix := suffixOf(name)
	mutator := job.mutator

	switch {
	case s.decoders.IsDecodable(suffix):
		mtime := info.ModTime().Unix()
		song, exists := dir.Song(name)
		if !exists {
			tags, err := s.decoders.LoadTags(fullPath)
			if err != nil {
				log.Debugf("cannot decode tags of '%s': %v", fullPath, err)
				return
			}
			mutator.AddSong(dir, name, mtime, tags)
			log.Infof("added %s", joinLogicalName(dir, name))
			return
		}
		if song.ModTime() == mtime {
			return
		}
		log.Infof("updating %s", joinLogicalName(dir, name))
		tags, err := s.decoders.LoadTags(fullPath)
		if err != nil {
			mutator.RemoveSong(dir, song)
			return
		}
		mutator.RefreshSong(song, mtime, tags)

	case s.archivesEnabled && s.archives.IsArchive(suffix):
		s.syncArchive(job, dir, name, info, fullPath)

	default:
		// unrecognized suffix: ignored
	}
}

func (s *DirectoryScanner) syncArchive(job *Job, dir *dbtree.Directory, name string, info os.FileInfo, fullPath string) {
	mutator := job.mutator
	mtime := info.ModTime().Unix()

	if existing, ok := dir.ChildDir(name); ok {
		if existing.ArchiveModTime() == mtime {
			return
		}
		_ = mutator.RemoveChildDir(dir, existing)
	}

	h, err := s.archives.Open(fullPath)
	if err != nil {
		log.Warnf("unable to open archive %s", fullPath)
		return
	}
	defer h.Close()
	log.Debugf("archive %s opened", fullPath)

	archDir := mutator.EnsureChildDir(dir, name)
	archDir.MarkVirtual()
	archDir.SetArchiveModTime(mtime)

	for {
		interior, ok, err := h.ScanNext()
		if err != nil {
			log.Warnf("error scanning archive %s: %v", fullPath, err)
			break
		}
		if !ok {
			break
		}
		s.addArchiveEntry(mutator, archDir, interior, mtime)
	}
}

func (s *DirectoryScanner) addArchiveEntry(mutator *dbtree.Mutator, dir *dbtree.Directory, interiorPath string, mtime int64) {
	segs := strings.Split(interiorPath, "/")
	cur := dir
	for _, seg := range segs[:len(segs)-1] {
		if seg == "" {
			continue
		}
		child := mutator.EnsureChildDir(cur, seg)
		child.MarkVirtual()
		cur = child
	}

	leaf := segs[len(segs)-1]
	if leaf == "" {
		return
	}
	if _, exists := cur.Song(leaf); exists {
		return
	}
	mutator.AddSong(cur, leaf, mtime, dbtree.Tags{})
}

func suffixOf(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return name[i+1:]
}

func joinLogicalName(dir *dbtree.Directory, name string) string {
	if dir.Path() == "" {
		return name
	}
	return dir.Path() + "/" + name
}
