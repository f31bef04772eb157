// Package fixture builds the small directory tree the atime probes run
// against and stamps it with a known access and modification time.
package fixture

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"
)

// Baseline is the timestamp Setup stamps on every entry.
var Baseline = time.Unix(1670000000, 0)

// Layout lists the entries Setup creates, relative to the root, in the order
// they are created.
var Layout = []string{
	"file1.txt",
	"subdir",
	filepath.Join("subdir", "file2.txt"),
}

var contents = map[string]string{
	"file1.txt":                          "Test content for file1.",
	filepath.Join("subdir", "file2.txt"): "Test content for file2.",
}

// Setup recreates root from scratch with Layout and stamps every entry,
// root included, with stamp as both atime and mtime.
func Setup(root string, stamp time.Time) error {
	if err := os.RemoveAll(root); err != nil {
		return fmt.Errorf("removing %s: %w", root, err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return err
	}
	for _, rel := range Layout {
		path := filepath.Join(root, rel)
		data, isFile := contents[rel]
		if !isFile {
			if err := os.Mkdir(path, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			return err
		}
	}
	return StampTimes(root, stamp, stamp)
}

// StampTimes sets atime and mtime on every entry below root and then on root
// itself. Deeper entries are stamped first. Symlinks are stamped themselves,
// never their targets.
func StampTimes(root string, atime, mtime time.Time) error {
	root = filepath.Clean(root)

	var mu sync.Mutex
	var paths []string
	walkFn := func(path string, _ fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if filepath.Clean(path) == root {
			return nil
		}
		mu.Lock()
		paths = append(paths, path)
		mu.Unlock()
		return nil
	}
	if err := fastwalk.Walk(&fastwalk.Config{Follow: false}, root, walkFn); err != nil {
		return fmt.Errorf("walking %s: %w", root, err)
	}

	// Listing the tree touched directory atimes, so stamping has to come
	// after the walk, deepest first, root last.
	sort.SliceStable(paths, func(i, j int) bool {
		di, dj := depth(paths[i]), depth(paths[j])
		if di != dj {
			return di > dj
		}
		return paths[i] < paths[j]
	})
	for _, path := range append(paths, root) {
		if err := setTimes(path, atime, mtime); err != nil {
			return fmt.Errorf("stamping %s: %w", path, err)
		}
	}
	return nil
}

func depth(path string) int {
	return strings.Count(filepath.Clean(path), string(filepath.Separator))
}

// errForeign stops the walk at the first entry outside Layout.
var errForeign = errors.New("entry outside the fixture layout")

// Conforms reports whether root is absent or is a directory holding nothing
// but Layout, so Setup can replace it without destroying anything else. A
// root that is a file, symlink or other non-directory never conforms.
func Conforms(root string) (bool, error) {
	root = filepath.Clean(root)
	info, err := os.Lstat(root)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	if !info.IsDir() {
		return false, nil
	}

	known := make(map[string]struct{}, len(Layout))
	for _, rel := range Layout {
		known[rel] = struct{}{}
	}

	walkFn := func(path string, _ fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if _, ok := known[rel]; !ok {
			return errForeign
		}
		return nil
	}
	err = fastwalk.Walk(&fastwalk.Config{Follow: false}, root, walkFn)
	if errors.Is(err, errForeign) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
