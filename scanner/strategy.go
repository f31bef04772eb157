package scanner

import (
	"fmt"
	"strings"
)

// Strategy selects how directories are opened and listed during a scan.
type Strategy int

const (
	// StrategyScandir lists each directory by path. The listing performs its
	// own open, so the directory's atime is not protected.
	StrategyScandir Strategy = iota + 1

	// StrategyListdirFd opens each directory with O_NOATIME and lists names
	// from that handle. Entry types are resolved with a no-follow stat
	// relative to the same handle.
	StrategyListdirFd

	// StrategyScandirFd is StrategyListdirFd with typed listing entries, so no
	// extra stat is needed to decide whether to descend.
	StrategyScandirFd
)

var strategyNames = map[Strategy]string{
	StrategyScandir:   "scandir",
	StrategyListdirFd: "listdir-fd",
	StrategyScandirFd: "scandir-fd",
}

// Strategies returns every strategy in declaration order.
func Strategies() []Strategy {
	return []Strategy{StrategyScandir, StrategyListdirFd, StrategyScandirFd}
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// Letter is the short label (A, B, C) used in reports.
func (s Strategy) Letter() string {
	if !s.Valid() {
		return "?"
	}
	return string(rune('A' + int(s) - 1))
}

func (s Strategy) Valid() bool {
	_, ok := strategyNames[s]
	return ok
}

// SuppressesDirAtime reports whether listing a directory with this strategy
// is expected to leave the directory's own atime untouched.
func (s Strategy) SuppressesDirAtime() bool {
	return s == StrategyListdirFd || s == StrategyScandirFd
}

// ParseStrategy accepts a strategy name or its letter, case-insensitively.
func ParseStrategy(v string) (Strategy, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, s := range Strategies() {
		if v == s.String() || v == strings.ToLower(s.Letter()) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown strategy %q (want scandir, listdir-fd or scandir-fd)", v)
}
