//go:build linux

package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/riadafridishibly/atimewalk/fixture"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func setupTree(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "test_root")
	require.NoError(t, fixture.Setup(root, fixture.Baseline))
	return root
}

// requireAtimeUpdates skips when reading a directory does not move its
// atime, e.g. on a noatime mount. There a leak cannot be observed.
func requireAtimeUpdates(t *testing.T) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "probe")
	require.NoError(t, os.Mkdir(dir, 0o755))
	require.NoError(t, fixture.StampTimes(dir, fixture.Baseline, fixture.Baseline))
	_, err := os.ReadDir(dir)
	require.NoError(t, err)
	var st unix.Stat_t
	require.NoError(t, unix.Stat(dir, &st))
	if time.Unix(st.Atim.Unix()).Equal(fixture.Baseline) {
		t.Skip("filesystem does not update atime on directory reads")
	}
}

func fixturePaths(root string) []string {
	paths := make([]string, len(fixture.Layout))
	for i, rel := range fixture.Layout {
		paths[i] = filepath.Join(root, rel)
	}
	return paths
}

func TestScan_Completeness(t *testing.T) {
	for _, s := range Strategies() {
		t.Run(s.String(), func(t *testing.T) {
			root := setupTree(t)

			result, err := Scan(root, s)
			require.NoError(t, err)
			assert.Len(t, result, 3)
			assert.ElementsMatch(t, fixturePaths(root), result.Paths())
		})
	}
}

func TestScan_ParentBeforeChildren(t *testing.T) {
	for _, s := range Strategies() {
		t.Run(s.String(), func(t *testing.T) {
			root := setupTree(t)
			require.NoError(t, os.MkdirAll(filepath.Join(root, "subdir", "deeper"), 0o755))
			require.NoError(t, os.WriteFile(filepath.Join(root, "subdir", "deeper", "file3.txt"), nil, 0o644))

			result, err := Scan(root, s)
			require.NoError(t, err)

			index := make(map[string]int)
			for i, p := range result.Paths() {
				index[p] = i
			}
			for p, i := range index {
				parent := filepath.Dir(p)
				if parent == root {
					continue
				}
				pi, ok := index[parent]
				require.True(t, ok, "parent of %s missing", p)
				assert.Less(t, pi, i, "%s listed before its parent", p)
			}
		})
	}
}

func TestScan_FixtureRoundTrip(t *testing.T) {
	for _, s := range []Strategy{StrategyListdirFd, StrategyScandirFd} {
		t.Run(s.String(), func(t *testing.T) {
			root := setupTree(t)

			result, err := Scan(root, s)
			require.NoError(t, err)
			for _, e := range result {
				assert.True(t, e.Atime.Equal(fixture.Baseline), "%s: got %s", e.Path, e.Atime)
			}
		})
	}
}

func TestScan_IdempotentWithHandleReuse(t *testing.T) {
	for _, s := range []Strategy{StrategyListdirFd, StrategyScandirFd} {
		t.Run(s.String(), func(t *testing.T) {
			root := setupTree(t)
			sc := NewScanner(s)

			first, err := sc.Scan(root)
			require.NoError(t, err)
			second, err := sc.Scan(root)
			require.NoError(t, err)

			assert.True(t, Equal(first, second), "changes: %v", Compare(first, second))

			rootAtime, err := ReadAtime(root)
			require.NoError(t, err)
			assert.True(t, rootAtime.Equal(fixture.Baseline), "root atime moved to %s", rootAtime)
		})
	}
}

func TestScan_ScandirLeaksDirectoryAtime(t *testing.T) {
	requireAtimeUpdates(t)
	root := setupTree(t)
	sc := NewScanner(StrategyScandir)

	_, err := sc.Scan(root)
	require.NoError(t, err)
	second, err := sc.Scan(root)
	require.NoError(t, err)

	drift := DriftFrom(second, fixture.Baseline)
	require.Len(t, drift, 1, "only the listed directory should move")
	assert.Equal(t, filepath.Join(root, "subdir"), drift[0].Path)
	assert.Positive(t, drift[0].Delta())

	for _, rel := range []string{"file1.txt", filepath.Join("subdir", "file2.txt")} {
		e, ok := second.Lookup(filepath.Join(root, rel))
		require.True(t, ok)
		assert.True(t, e.Atime.Equal(fixture.Baseline), "%s atime moved", rel)
	}

	rootAtime, err := ReadAtime(root)
	require.NoError(t, err)
	assert.False(t, rootAtime.Equal(fixture.Baseline), "listing the root should touch it")
}

func TestScan_SymlinkNotFollowed(t *testing.T) {
	for _, s := range Strategies() {
		t.Run(s.String(), func(t *testing.T) {
			root := setupTree(t)
			link := filepath.Join(root, "link")
			require.NoError(t, os.Symlink("subdir", link))
			require.NoError(t, os.Symlink("nowhere", filepath.Join(root, "dangling")))

			result, err := Scan(root, s)
			require.NoError(t, err)
			assert.Len(t, result, 5)

			count := 0
			for _, p := range result.Paths() {
				if p == link {
					count++
				}
				assert.False(t, strings.HasPrefix(p, link+string(filepath.Separator)), "followed symlink: %s", p)
			}
			assert.Equal(t, 1, count)
		})
	}
}

func TestScan_OrderStable(t *testing.T) {
	for _, s := range Strategies() {
		t.Run(s.String(), func(t *testing.T) {
			root := setupTree(t)
			for i := 0; i < 5; i++ {
				require.NoError(t, os.WriteFile(filepath.Join(root, "subdir", strings.Repeat("f", i+1)), nil, 0o644))
			}
			sc := NewScanner(s)

			first, err := sc.Scan(root)
			require.NoError(t, err)
			second, err := sc.Scan(root)
			require.NoError(t, err)
			assert.Equal(t, first.Paths(), second.Paths())
		})
	}
}

func TestScan_SpecialFilesDoNotBlock(t *testing.T) {
	for _, s := range Strategies() {
		t.Run(s.String(), func(t *testing.T) {
			root := setupTree(t)
			fifo := filepath.Join(root, "subdir", "pipe")
			require.NoError(t, unix.Mkfifo(fifo, 0o644))

			result, err := Scan(root, s)
			require.NoError(t, err)
			_, ok := result.Lookup(fifo)
			assert.True(t, ok)
		})
	}
}

func TestScan_Errors(t *testing.T) {
	for _, s := range Strategies() {
		t.Run(s.String(), func(t *testing.T) {
			root := setupTree(t)

			result, err := Scan(filepath.Join(root, "missing"), s)
			assert.True(t, IsNotFound(err), "got %v", err)
			assert.Nil(t, result)

			_, err = Scan(filepath.Join(root, "file1.txt"), s)
			assert.Equal(t, KindNotADirectory, KindOf(err), "got %v", err)
		})
	}
}

// nobody is the uid the permission test drops to when run as root.
const nobody = 65534

// asUnprivileged runs fn with the effective uid of nobody when the test runs
// as root, so permission checks apply. tree is handed over to nobody first.
func asUnprivileged(t *testing.T, tree string, fn func()) {
	t.Helper()
	if os.Geteuid() != 0 {
		fn()
		return
	}
	require.NoError(t, filepath.WalkDir(tree, func(path string, _ fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		return os.Lchown(path, nobody, nobody)
	}))
	// t.TempDir creates private directories below the temp dir.
	tmp := filepath.Clean(os.TempDir())
	for dir := filepath.Dir(tree); strings.HasPrefix(dir, tmp+string(filepath.Separator)); dir = filepath.Dir(dir) {
		require.NoError(t, os.Chmod(dir, 0o755))
	}

	if err := syscall.Setresuid(-1, nobody, -1); err != nil {
		t.Skipf("cannot drop privileges: %v", err)
	}
	defer func() {
		require.NoError(t, syscall.Setresuid(-1, 0, -1))
	}()
	if _, err := os.Stat(tree); err != nil {
		t.Skipf("%s not reachable without privileges: %v", tree, err)
	}
	fn()
}

func TestScan_PermissionDeniedAbortsScan(t *testing.T) {
	for _, s := range Strategies() {
		t.Run(s.String(), func(t *testing.T) {
			root := setupTree(t)
			locked := filepath.Join(root, "subdir")
			require.NoError(t, os.Chmod(locked, 0))
			t.Cleanup(func() { os.Chmod(locked, 0o755) })

			var result ScanResult
			var err error
			asUnprivileged(t, root, func() {
				result, err = Scan(root, s)
			})
			require.Error(t, err)
			assert.True(t, IsPermission(err), "got %v", err)
			assert.Contains(t, err.Error(), locked)
			assert.Nil(t, result, "no partial results")
		})
	}
}

func TestScan_VanishedEntryAbortsScan(t *testing.T) {
	for _, s := range Strategies() {
		t.Run(s.String(), func(t *testing.T) {
			root := setupTree(t)
			gone := filepath.Join(root, "file1.txt")

			testHookListed = func(dir string) {
				if dir == root {
					require.NoError(t, os.Remove(gone))
				}
			}
			t.Cleanup(func() { testHookListed = func(string) {} })

			result, err := Scan(root, s)
			require.Error(t, err)
			assert.True(t, IsVanished(err), "got %v", err)
			assert.Contains(t, err.Error(), gone)
			assert.Nil(t, result, "no partial results")
		})
	}
}

func TestWalk_RevisitedDirectoryIsCycle(t *testing.T) {
	for _, s := range Strategies() {
		t.Run(s.String(), func(t *testing.T) {
			root := setupTree(t)
			subdir := filepath.Join(root, "subdir")

			// Pretend subdir was already entered, as a bind mount of an
			// ancestor would make it.
			var st unix.Stat_t
			require.NoError(t, unix.Stat(subdir, &st))
			w := &walker{
				root:     root,
				strategy: s,
				log:      logrus.New(),
				seen:     map[DevIno]struct{}{{Dev: uint64(st.Dev), Ino: uint64(st.Ino)}: {}},
			}

			err := w.walk(root)
			require.Error(t, err)
			assert.Equal(t, KindCycle, KindOf(err), "got %v", err)
			assert.Contains(t, err.Error(), subdir)
		})
	}
}

func TestReadAtime(t *testing.T) {
	root := setupTree(t)

	atime, err := ReadAtime(filepath.Join(root, "file1.txt"))
	require.NoError(t, err)
	assert.True(t, atime.Equal(fixture.Baseline))

	_, err = ReadAtime(filepath.Join(root, "nope"))
	assert.True(t, IsNotFound(err))
}

func TestModeType(t *testing.T) {
	assert.True(t, modeType(unix.S_IFDIR|0o755).IsDir())
	assert.Equal(t, os.ModeSymlink, modeType(unix.S_IFLNK|0o777))
	assert.True(t, modeType(unix.S_IFREG|0o644).IsRegular())
	assert.Equal(t, os.ModeNamedPipe, modeType(unix.S_IFIFO))
}
