package scanner

import (
	"fmt"
	"time"
)

// DevIno identifies a directory independent of the path it was reached by.
type DevIno struct {
	Dev uint64
	Ino uint64
}

// Entry is one reported filesystem entry and the access time it had before
// the scan looked at it.
type Entry struct {
	Path  string
	Atime time.Time
}

// FormatAtime renders the access time the way ctime(3) does, in local time.
func (e Entry) FormatAtime() string {
	return e.Atime.Local().Format(time.ANSIC)
}

func (e Entry) String() string {
	return fmt.Sprintf("%s\t%s", e.Path, e.FormatAtime())
}

// ScanResult is the flat pre-order list produced by a scan. The root itself
// is never part of it.
type ScanResult []Entry

func (r ScanResult) Paths() []string {
	paths := make([]string, len(r))
	for i, e := range r {
		paths[i] = e.Path
	}
	return paths
}

// Lookup returns the entry recorded for path.
func (r ScanResult) Lookup(path string) (Entry, bool) {
	for _, e := range r {
		if e.Path == path {
			return e, true
		}
	}
	return Entry{}, false
}
