package scan

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gitlab.com/mipimipi/dbupdate/src/internal/archive"
	"gitlab.com/mipimipi/dbupdate/src/internal/dbtree"
	"gitlab.com/mipimipi/dbupdate/src/internal/decoder"
)

type stubDecoders struct {
	suffix string
	tags   dbtree.Tags
}

func (d stubDecoders) IsDecodable(suffix string) bool { return suffix == d.suffix }
func (d stubDecoders) LoadTags(path string) (dbtree.Tags, error) {
	return d.tags, nil
}

func newTestScanner(t *testing.T, musicRoot string, allowInside, allowOutside bool, archivesEnabled bool) (*DirectoryScanner, *dbtree.PathMapper) {
	mapper := dbtree.NewPathMapper(musicRoot)
	symlinks := NewSymlinkPolicy(allowInside, allowOutside)
	cycles := NewCycleGuard(mapper)
	return NewDirectoryScanner(mapper, symlinks, cycles, stubDecoders{suffix: "mp3"}, archive.New(), archivesEnabled), mapper
}

func newTestJob(broker dbtree.Broker) *Job {
	return newJob(1, "", false, broker)
}

func TestScanAddsDecodableRegularFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "song.mp3"), []byte("x"), 0644))

	scanner, _ := newTestScanner(t, root, true, true, true)
	job := newTestJob(noopTestBroker{})
	tree := dbtree.New()

	info, err := os.Stat(root)
	require.NoError(t, err)
	ok := scanner.Scan(job, tree.Root, info)
	require.True(t, ok)

	_, exists := tree.Root.Song("song.mp3")
	require.True(t, exists)
	require.True(t, job.Modified())
}

func TestScanIgnoresUndecodableSuffix(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0644))

	scanner, _ := newTestScanner(t, root, true, true, true)
	job := newTestJob(noopTestBroker{})
	tree := dbtree.New()

	info, err := os.Stat(root)
	require.NoError(t, err)
	require.True(t, scanner.Scan(job, tree.Root, info))

	_, exists := tree.Root.Song("notes.txt")
	require.False(t, exists)
}

func TestScanPrunesDisappearedSong(t *testing.T) {
	root := t.TempDir()
	scanner, _ := newTestScanner(t, root, true, true, true)
	job := newTestJob(&spyDeleteBroker{})
	tree := dbtree.New()
	m := dbtree.NewMutator(noopTestBroker{}, func() {})
	m.AddSong(tree.Root, "gone.mp3", 1, dbtree.Tags{})

	info, err := os.Stat(root)
	require.NoError(t, err)
	require.True(t, scanner.Scan(job, tree.Root, info))

	_, exists := tree.Root.Song("gone.mp3")
	require.False(t, exists)
}

func TestScanRefreshesSongOnChangedModTime(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "song.mp3")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	scanner, _ := newTestScanner(t, root, true, true, true)
	tree := dbtree.New()

	info, err := os.Stat(root)
	require.NoError(t, err)
	job1 := newTestJob(noopTestBroker{})
	require.True(t, scanner.Scan(job1, tree.Root, info))
	song, ok := tree.Root.Song("song.mp3")
	require.True(t, ok)
	originalModTime := song.ModTime()

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	job2 := newTestJob(noopTestBroker{})
	info2, err := os.Stat(root)
	require.NoError(t, err)
	require.True(t, scanner.Scan(job2, tree.Root, info2))

	song2, ok := tree.Root.Song("song.mp3")
	require.True(t, ok)
	require.NotEqual(t, originalModTime, song2.ModTime())
}

func TestScanSyncsArchiveEntriesIntoVirtualSubtree(t *testing.T) {
	root := t.TempDir()
	archivePath := filepath.Join(root, "disc.zip")
	writeTestZip(t, archivePath, []string{"inner/track1.mp3", "track2.mp3"})

	scanner, _ := newTestScanner(t, root, true, true, true)
	job := newTestJob(noopTestBroker{})
	tree := dbtree.New()

	info, err := os.Stat(root)
	require.NoError(t, err)
	require.True(t, scanner.Scan(job, tree.Root, info))

	archDir, ok := tree.Root.ChildDir("disc.zip")
	require.True(t, ok)
	require.True(t, archDir.IsVirtual())

	inner, ok := archDir.ChildDir("inner")
	require.True(t, ok)
	require.True(t, inner.IsVirtual())
	_, ok = inner.Song("track1.mp3")
	require.True(t, ok)

	_, ok = archDir.Song("track2.mp3")
	require.True(t, ok)
}

func TestScanRescanOfUnchangedArchiveIsIdempotent(t *testing.T) {
	root := t.TempDir()
	archivePath := filepath.Join(root, "disc.zip")
	writeTestZip(t, archivePath, []string{"inner/track1.mp3", "track2.mp3"})

	scanner, _ := newTestScanner(t, root, true, true, true)
	tree := dbtree.New()

	info, err := os.Stat(root)
	require.NoError(t, err)
	job1 := newTestJob(noopTestBroker{})
	require.True(t, scanner.Scan(job1, tree.Root, info))
	require.True(t, job1.Modified())

	job2 := newTestJob(noopTestBroker{})
	info2, err := os.Stat(root)
	require.NoError(t, err)
	require.True(t, scanner.Scan(job2, tree.Root, info2))
	require.False(t, job2.Modified())

	archDir, ok := tree.Root.ChildDir("disc.zip")
	require.True(t, ok)
	require.True(t, archDir.IsVirtual())
	inner, ok := archDir.ChildDir("inner")
	require.True(t, ok)
	_, ok = inner.Song("track1.mp3")
	require.True(t, ok)
}

func TestScanSkipsArchivesWhenDisabled(t *testing.T) {
	root := t.TempDir()
	archivePath := filepath.Join(root, "disc.zip")
	writeTestZip(t, archivePath, []string{"track.mp3"})

	scanner, _ := newTestScanner(t, root, true, true, false)
	job := newTestJob(noopTestBroker{})
	tree := dbtree.New()

	info, err := os.Stat(root)
	require.NoError(t, err)
	require.True(t, scanner.Scan(job, tree.Root, info))

	_, ok := tree.Root.ChildDir("disc.zip")
	require.False(t, ok)
}

type spyDeleteBroker struct {
	deleted []*dbtree.Song
}

func (b *spyDeleteBroker) Delete(dir *dbtree.Directory, song *dbtree.Song) {
	dir.DetachSong(song)
	b.deleted = append(b.deleted, song)
}

func writeTestZip(t *testing.T, path string, names []string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for _, name := range names {
		_, err := w.Create(name)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
}

var _ decoder.Registry = stubDecoders{}
