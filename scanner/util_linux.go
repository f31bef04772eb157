//go:build linux

package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

const (
	dirOpenFlags = unix.O_RDONLY | unix.O_DIRECTORY | unix.O_NOATIME | unix.O_CLOEXEC

	// O_NONBLOCK keeps a FIFO that slipped past the type check from
	// blocking the open.
	entryOpenFlags = unix.O_RDONLY | unix.O_NOATIME | unix.O_NOFOLLOW | unix.O_NONBLOCK | unix.O_CLOEXEC

	// O_PATH handles never read the object, so they cannot touch its atime.
	// Used for symlinks, sockets, devices and FIFOs, which cannot be opened
	// read-only without following or side effects.
	pathOpenFlags = unix.O_PATH | unix.O_NOFOLLOW | unix.O_CLOEXEC
)

// readAtime opens path with a fresh handle, reads its metadata and releases
// the handle before returning. typ is the entry's fs.ModeType bits.
//
// O_NOATIME is only honoured for the file owner or with CAP_FOWNER, and
// mounts such as noatime make it moot; the open succeeding proves nothing
// about suppression.
func readAtime(path string, typ fs.FileMode) (time.Time, DevIno, error) {
	flags := pathOpenFlags
	if typ.IsRegular() || typ.IsDir() {
		flags = entryOpenFlags
	}

	fd, err := unix.Open(path, flags, 0)
	if err != nil {
		return time.Time{}, DevIno{}, &fs.PathError{Op: "open", Path: path, Err: err}
	}
	defer unix.Close(fd)

	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return time.Time{}, DevIno{}, &fs.PathError{Op: "fstat", Path: path, Err: err}
	}
	return time.Unix(st.Atim.Unix()), DevIno{Dev: uint64(st.Dev), Ino: uint64(st.Ino)}, nil
}

// dirHandle is a directory opened with O_NOATIME. Listing through it reuses
// the descriptor instead of letting the listing call open the path again.
type dirHandle struct {
	f *os.File
}

func openDir(path string) (*dirHandle, error) {
	fd, err := unix.Open(path, dirOpenFlags, 0)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: path, Err: err}
	}
	return &dirHandle{f: os.NewFile(uintptr(fd), path)}, nil
}

func (h *dirHandle) names() ([]string, error) {
	return h.f.Readdirnames(-1)
}

// entries lists typed entries. The kernel's d_type is used directly; only
// filesystems reporting DT_UNKNOWN cost an extra lstat.
func (h *dirHandle) entries() ([]fs.DirEntry, error) {
	return h.f.ReadDir(-1)
}

// lstatAt resolves the type of name relative to the handle without
// following symlinks.
func (h *dirHandle) lstatAt(name string) (fs.FileMode, error) {
	var st unix.Stat_t
	if err := unix.Fstatat(int(h.f.Fd()), name, &st, unix.AT_SYMLINK_NOFOLLOW); err != nil {
		return 0, &fs.PathError{Op: "fstatat", Path: filepath.Join(h.f.Name(), name), Err: err}
	}
	return modeType(st.Mode), nil
}

func (h *dirHandle) close() error {
	return h.f.Close()
}

func modeType(mode uint32) fs.FileMode {
	switch mode & unix.S_IFMT {
	case unix.S_IFDIR:
		return fs.ModeDir
	case unix.S_IFLNK:
		return fs.ModeSymlink
	case unix.S_IFIFO:
		return fs.ModeNamedPipe
	case unix.S_IFSOCK:
		return fs.ModeSocket
	case unix.S_IFCHR:
		return fs.ModeDevice | fs.ModeCharDevice
	case unix.S_IFBLK:
		return fs.ModeDevice
	default:
		return 0
	}
}

// testHookListed runs after each directory is listed and before any of its
// entries are read.
var testHookListed = func(dir string) {}

type walker struct {
	root     string
	strategy Strategy
	log      logrus.FieldLogger

	// Directories already descended into. Symlinks are never followed, so
	// only bind mounts can revisit one.
	seen   map[DevIno]struct{}
	result ScanResult
}

func scanTree(root string, info fs.FileInfo, strategy Strategy, log logrus.FieldLogger) (ScanResult, error) {
	w := &walker{
		root:     root,
		strategy: strategy,
		log:      log,
		seen:     make(map[DevIno]struct{}),
	}
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		w.seen[DevIno{Dev: uint64(st.Dev), Ino: uint64(st.Ino)}] = struct{}{}
	}
	if err := w.walk(root); err != nil {
		return nil, err
	}
	return w.result, nil
}

func (w *walker) walk(dir string) error {
	switch w.strategy {
	case StrategyScandir:
		return w.walkScandir(dir)
	case StrategyListdirFd:
		return w.walkListdirFd(dir)
	case StrategyScandirFd:
		return w.walkScandirFd(dir)
	default:
		return fmt.Errorf("walk %s: invalid %v", dir, w.strategy)
	}
}

// walkScandir lists by path. os.ReadDir opens the directory itself with
// flags we do not control, so getdents updates the directory's atime.
func (w *walker) walkScandir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return w.dirError("readdir", dir, err)
	}
	testHookListed(dir)
	for _, e := range entries {
		if err := w.visit(filepath.Join(dir, e.Name()), e.Type()); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) walkListdirFd(dir string) error {
	h, err := w.openDir(dir)
	if err != nil {
		return err
	}
	defer w.release(h)

	names, err := h.names()
	if err != nil {
		return w.dirError("readdir", dir, err)
	}
	testHookListed(dir)
	for _, name := range names {
		path := filepath.Join(dir, name)
		typ, err := h.lstatAt(name)
		if err != nil {
			return entryError("stat", path, err)
		}
		if err := w.visit(path, typ); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) walkScandirFd(dir string) error {
	h, err := w.openDir(dir)
	if err != nil {
		return err
	}
	defer w.release(h)

	entries, err := h.entries()
	if err != nil {
		return w.dirError("readdir", dir, err)
	}
	testHookListed(dir)
	for _, e := range entries {
		if err := w.visit(filepath.Join(dir, e.Name()), e.Type()); err != nil {
			return err
		}
	}
	return nil
}

// visit records path and descends into it if it is a real directory.
func (w *walker) visit(path string, typ fs.FileMode) error {
	atime, key, err := readAtime(path, typ)
	if err != nil {
		return entryError("open", path, err)
	}
	w.result = append(w.result, Entry{Path: path, Atime: atime})

	if !typ.IsDir() {
		return nil
	}
	if _, ok := w.seen[key]; ok {
		return &ScanError{Op: "walk", Path: path, Kind: KindCycle}
	}
	w.seen[key] = struct{}{}
	return w.walk(path)
}

func (w *walker) openDir(dir string) (*dirHandle, error) {
	h, err := openDir(dir)
	if err != nil {
		return nil, w.dirError("open", dir, err)
	}
	w.log.WithField("path", dir).Debug("opened directory handle")
	return h, nil
}

func (w *walker) release(h *dirHandle) {
	if err := h.close(); err != nil {
		w.log.WithError(err).WithField("path", h.f.Name()).Warn("closing directory handle")
	}
}

func (w *walker) dirError(op, dir string, err error) error {
	if dir == w.root {
		return rootError(op, dir, err)
	}
	return entryError(op, dir, err)
}
