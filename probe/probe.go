// Package probe runs the two-scan experiment: build a stamped fixture, scan
// it twice with one strategy and see whether the scan disturbed what it read.
package probe

import (
	"time"

	"github.com/riadafridishibly/atimewalk/fixture"
	"github.com/riadafridishibly/atimewalk/scanner"
)

type Report struct {
	Root     string
	Strategy scanner.Strategy
	Baseline time.Time

	First  scanner.ScanResult
	Second scanner.ScanResult

	// Drift lists entries whose atime in the second scan is no longer the
	// baseline, i.e. the first scan touched them.
	Drift []scanner.Change

	// RootAtime is read directly after both scans. The root is never part
	// of a result but its listing is what strategy A leaks.
	RootAtime time.Time
}

// Identical reports whether both scans saw the same thing.
func (r *Report) Identical() bool {
	return scanner.Equal(r.First, r.Second)
}

func (r *Report) RootTouched() bool {
	return !r.RootAtime.Equal(r.Baseline)
}

// Degraded reports whether a strategy that should leave atimes alone did
// not. That happens when O_NOATIME is silently ignored.
func (r *Report) Degraded() bool {
	if !r.Strategy.SuppressesDirAtime() {
		return false
	}
	return !r.Identical() || len(r.Drift) > 0 || r.RootTouched()
}

// Run replaces root with a fresh fixture stamped at baseline and scans it
// twice with strategy.
func Run(root string, strategy scanner.Strategy, baseline time.Time, opts ...scanner.Option) (*Report, error) {
	if err := fixture.Setup(root, baseline); err != nil {
		return nil, err
	}

	s := scanner.NewScanner(strategy, opts...)
	first, err := s.Scan(root)
	if err != nil {
		return nil, err
	}
	second, err := s.Scan(root)
	if err != nil {
		return nil, err
	}
	rootAtime, err := scanner.ReadAtime(root)
	if err != nil {
		return nil, err
	}

	return &Report{
		Root:      root,
		Strategy:  strategy,
		Baseline:  baseline,
		First:     first,
		Second:    second,
		Drift:     scanner.DriftFrom(second, baseline),
		RootAtime: rootAtime,
	}, nil
}
