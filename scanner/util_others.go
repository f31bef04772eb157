//go:build !linux

package scanner

import (
	"io/fs"
	"time"

	"github.com/sirupsen/logrus"
)

func scanTree(string, fs.FileInfo, Strategy, logrus.FieldLogger) (ScanResult, error) {
	return nil, ErrUnsupported
}

func readAtime(string, fs.FileMode) (time.Time, DevIno, error) {
	return time.Time{}, DevIno{}, ErrUnsupported
}
