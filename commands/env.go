// Package commands holds the atimewalk subcommands.
package commands

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/subcommands"
	"github.com/riadafridishibly/atimewalk/config"
	"github.com/riadafridishibly/atimewalk/scanner"
	"github.com/sirupsen/logrus"
)

// Env is passed as the first Execute argument to every command.
type Env struct {
	Config config.Config
	Log    *logrus.Logger
	Out    io.Writer
	Err    io.Writer
}

func envFrom(args []any) *Env {
	return args[0].(*Env)
}

func (e *Env) errorf(format string, a ...any) subcommands.ExitStatus {
	fmt.Fprintf(e.Err, format+"\n", a...)
	return subcommands.ExitFailure
}

func (e *Env) usagef(f *flag.FlagSet, format string, a ...any) subcommands.ExitStatus {
	fmt.Fprintf(e.Err, format+"\n", a...)
	f.Usage()
	return subcommands.ExitUsageError
}

// rootArg resolves the single positional directory argument, falling back
// to def when none is given. An empty def makes the argument mandatory.
func rootArg(f *flag.FlagSet, def string) (string, error) {
	var root string
	switch f.NArg() {
	case 0:
		if def == "" {
			return "", fmt.Errorf("missing directory argument")
		}
		root = def
	case 1:
		root = f.Arg(0)
	default:
		return "", fmt.Errorf("expected one directory, got %d arguments", f.NArg())
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving path %s: %w", root, err)
	}
	return abs, nil
}

func cwd() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	return dir
}

// strategyFlag is a flag.Value over scanner.Strategy.
type strategyFlag struct {
	s scanner.Strategy
}

func (v *strategyFlag) String() string {
	if v == nil || !v.s.Valid() {
		return ""
	}
	return v.s.String()
}

func (v *strategyFlag) Set(s string) error {
	st, err := scanner.ParseStrategy(s)
	if err != nil {
		return err
	}
	v.s = st
	return nil
}

// resolve returns the flag value, or the configured strategy if unset.
func (v *strategyFlag) resolve(cfg config.Config) scanner.Strategy {
	if v.s.Valid() {
		return v.s
	}
	return cfg.ScanStrategy()
}
