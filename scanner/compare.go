package scanner

import "time"

type ChangeKind int

const (
	ChangeAtime ChangeKind = iota
	ChangeAdded
	ChangeRemoved
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "added"
	case ChangeRemoved:
		return "removed"
	default:
		return "atime"
	}
}

// Change describes how one path differs between two scans.
type Change struct {
	Path   string
	Kind   ChangeKind
	Before time.Time
	After  time.Time
}

// Delta is After minus Before for atime changes.
func (c Change) Delta() time.Duration {
	if c.Kind != ChangeAtime {
		return 0
	}
	return c.After.Sub(c.Before)
}

// Equal reports whether two scans list the same paths in the same order with
// the same access times.
func Equal(a, b ScanResult) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Path != b[i].Path || !a[i].Atime.Equal(b[i].Atime) {
			return false
		}
	}
	return true
}

// Compare lists the paths whose atime changed, appeared or disappeared
// between before and after. Changes follow after's order, removals come last
// in before's order.
func Compare(before, after ScanResult) []Change {
	prev := make(map[string]time.Time, len(before))
	for _, e := range before {
		prev[e.Path] = e.Atime
	}

	var changes []Change
	seen := make(map[string]struct{}, len(after))
	for _, e := range after {
		seen[e.Path] = struct{}{}
		was, ok := prev[e.Path]
		switch {
		case !ok:
			changes = append(changes, Change{Path: e.Path, Kind: ChangeAdded, After: e.Atime})
		case !was.Equal(e.Atime):
			changes = append(changes, Change{Path: e.Path, Kind: ChangeAtime, Before: was, After: e.Atime})
		}
	}
	for _, e := range before {
		if _, ok := seen[e.Path]; !ok {
			changes = append(changes, Change{Path: e.Path, Kind: ChangeRemoved, Before: e.Atime})
		}
	}
	return changes
}

// DriftFrom returns the entries whose atime is not baseline.
func DriftFrom(result ScanResult, baseline time.Time) []Change {
	var changes []Change
	for _, e := range result {
		if !e.Atime.Equal(baseline) {
			changes = append(changes, Change{Path: e.Path, Kind: ChangeAtime, Before: baseline, After: e.Atime})
		}
	}
	return changes
}
