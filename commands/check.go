package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/subcommands"
	"github.com/riadafridishibly/atimewalk/fixture"
	"github.com/riadafridishibly/atimewalk/probe"
	"github.com/riadafridishibly/atimewalk/scanner"
)

// Check implements subcommands.Command for the "check" command.
type Check struct {
	strategies string
	force      bool
	strict     bool
}

func (*Check) Name() string     { return "check" }
func (*Check) Synopsis() string { return "build the fixture, scan it twice and report atime drift" }
func (*Check) Usage() string {
	return `check [flags] [<dir>] - for each strategy, recreate the fixture at <dir>
(default: $TMPDIR/test_root), scan it twice and compare.
`
}

func (c *Check) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.strategies, "strategy", "all", "comma separated strategies, or all")
	f.BoolVar(&c.force, "force", false, "replace <dir> even if it holds more than the fixture")
	f.BoolVar(&c.strict, "strict", false, "fail if a no-atime strategy still changed an atime")
}

func (c *Check) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	env := envFrom(args)
	root, err := rootArg(f, filepath.Join(os.TempDir(), "test_root"))
	if err != nil {
		return env.usagef(f, "%v", err)
	}
	strategies, err := parseStrategies(c.strategies)
	if err != nil {
		return env.usagef(f, "%v", err)
	}
	if err := prepareRoot(root, c.force); err != nil {
		return env.errorf("%v", err)
	}

	status := subcommands.ExitSuccess
	for _, s := range strategies {
		fmt.Fprintf(env.Out, "Running %s (%s) on %s\n", s, s.Letter(), root)
		report, err := probe.Run(root, s, fixture.Baseline, scanner.WithLogger(env.Log))
		if err != nil {
			return env.errorf("Error checking %s: %v", s, err)
		}
		writeReport(env, report)
		if c.strict && report.Degraded() {
			status = subcommands.ExitFailure
		}
	}
	return status
}

func writeReport(env *Env, r *probe.Report) {
	fmt.Fprintln(env.Out, "First run:")
	writeResult(env.Out, r.First)
	fmt.Fprintln(env.Out, "Second run:")
	writeResult(env.Out, r.Second)

	if r.Identical() {
		fmt.Fprintln(env.Out, "Results are the same!")
	} else {
		fmt.Fprintln(env.Out, "Results are different!")
	}
	writeChanges(env.Out, "from the baseline", r.Drift)
	if r.RootTouched() {
		fmt.Fprintf(env.Out, "Root atime moved to %s\n", scanner.Entry{Atime: r.RootAtime}.FormatAtime())
	}
	if r.Degraded() {
		env.Log.WithField("strategy", r.Strategy.String()).
			Warn("O_NOATIME did not suppress atime updates; check mount options and file ownership")
	}
	fmt.Fprintln(env.Out)
}

func parseStrategies(v string) ([]scanner.Strategy, error) {
	if strings.TrimSpace(v) == "all" {
		return scanner.Strategies(), nil
	}
	var out []scanner.Strategy
	for _, name := range strings.Split(v, ",") {
		s, err := scanner.ParseStrategy(name)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
