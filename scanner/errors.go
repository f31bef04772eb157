package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
)

// ErrUnsupported is returned on platforms without O_NOATIME directory opens.
var ErrUnsupported = errors.New("no-atime scanning is only supported on linux")

// Kind classifies why a scan failed.
type Kind int

const (
	KindOther Kind = iota
	KindNotFound
	KindNotADirectory
	KindPermission
	// KindVanished means an entry was listed but was gone by the time it was opened.
	KindVanished
	// KindCycle means a directory was reached twice, e.g. through a bind mount.
	KindCycle
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindNotADirectory:
		return "not a directory"
	case KindPermission:
		return "permission denied"
	case KindVanished:
		return "vanished during scan"
	case KindCycle:
		return "directory cycle"
	default:
		return "failed"
	}
}

// ScanError aborts a whole scan. Path names the offending entry.
type ScanError struct {
	Op   string
	Path string
	Kind Kind
	Err  error
}

func (e *ScanError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Kind)
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Path, e.Kind, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// KindOf returns the Kind of the ScanError in err's chain, or KindOther.
func KindOf(err error) Kind {
	var se *ScanError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindOther
}

func IsNotFound(err error) bool   { return KindOf(err) == KindNotFound }
func IsPermission(err error) bool { return KindOf(err) == KindPermission }
func IsVanished(err error) bool   { return KindOf(err) == KindVanished }

// classify maps an errno to a Kind. listed is true when path came out of a
// directory listing, where a missing entry is a race rather than bad input.
func classify(err error, listed bool) Kind {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if listed {
			return KindVanished
		}
		return KindNotFound
	case errors.Is(err, syscall.ENOTDIR):
		return KindNotADirectory
	case errors.Is(err, fs.ErrPermission):
		return KindPermission
	default:
		return KindOther
	}
}

func rootError(op, path string, err error) error {
	return &ScanError{Op: op, Path: path, Kind: classify(err, false), Err: err}
}

func entryError(op, path string, err error) error {
	return &ScanError{Op: op, Path: path, Kind: classify(err, true), Err: err}
}
