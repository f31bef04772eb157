package scanner

import (
	"os"
	"time"
)

// ReadAtime returns the access time of a single path using the same
// no-atime handle the scanner uses for entries. path is not followed if it
// is a symlink.
func ReadAtime(path string) (time.Time, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return time.Time{}, rootError("stat", path, err)
	}
	atime, _, err := readAtime(path, info.Mode().Type())
	if err != nil {
		return time.Time{}, rootError("open", path, err)
	}
	return atime, nil
}
