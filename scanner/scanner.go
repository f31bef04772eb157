package scanner

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Scanner enumerates a directory tree and reports every entry's atime
// without, as far as the strategy and the mount allow, changing it.
//
// A Scanner holds no per-scan state and may be reused; scans are synchronous
// and a single scan never runs concurrently with itself.
type Scanner struct {
	strategy Strategy
	log      logrus.FieldLogger
}

type Option func(*Scanner)

// WithLogger routes handle-level debug logging to l.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Scanner) {
		if l != nil {
			s.log = l
		}
	}
}

func NewScanner(strategy Strategy, opts ...Option) *Scanner {
	s := &Scanner{
		strategy: strategy,
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("strategy", strategy.String())
	return s
}

func (s *Scanner) Strategy() Strategy {
	return s.strategy
}

// Scan walks root depth-first and returns one entry per file, directory and
// symlink below it, parents before their children. Symlinks are reported but
// never followed. Any failure aborts the scan and no partial result is
// returned.
func (s *Scanner) Scan(root string) (ScanResult, error) {
	if !s.strategy.Valid() {
		return nil, fmt.Errorf("scan %s: invalid %v", root, s.strategy)
	}

	// stat(2) never updates atime, so validating the root is side-effect free.
	info, err := os.Stat(root)
	if err != nil {
		return nil, rootError("stat", root, err)
	}
	if !info.IsDir() {
		return nil, &ScanError{Op: "stat", Path: root, Kind: KindNotADirectory}
	}

	start := time.Now()
	result, err := scanTree(root, info, s.strategy, s.log)
	if err != nil {
		s.log.WithError(err).WithField("root", root).Debug("scan aborted")
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"root":    root,
		"entries": len(result),
		"elapsed": time.Since(start),
	}).Debug("scan complete")
	return result, nil
}

// Scan is shorthand for NewScanner(strategy).Scan(root).
func Scan(root string, strategy Strategy) (ScanResult, error) {
	return NewScanner(strategy).Scan(root)
}
