package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/subcommands"
	"github.com/riadafridishibly/atimewalk/history"
	"github.com/riadafridishibly/atimewalk/scanner"
)

// Scan implements subcommands.Command for the "scan" command.
type Scan struct {
	strategy strategyFlag
	record   bool
	relative bool
}

func (*Scan) Name() string     { return "scan" }
func (*Scan) Synopsis() string { return "list every entry below a directory with its access time" }
func (*Scan) Usage() string {
	return `scan [flags] [<dir>] - scan <dir> (default: current directory) without touching atimes.
`
}

func (c *Scan) SetFlags(f *flag.FlagSet) {
	f.Var(&c.strategy, "strategy", "scandir, listdir-fd or scandir-fd (default from config)")
	f.BoolVar(&c.record, "record", false, "record the run and report drift against the previous one")
	f.BoolVar(&c.relative, "relative", false, "also print how long ago each entry was accessed")
}

func (c *Scan) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	env := envFrom(args)
	root, err := rootArg(f, cwd())
	if err != nil {
		return env.usagef(f, "%v", err)
	}
	strategy := c.strategy.resolve(env.Config)

	scannedAt := time.Now()
	result, err := scanner.NewScanner(strategy, scanner.WithLogger(env.Log)).Scan(root)
	if err != nil {
		return env.errorf("Error scanning %s: %v", root, err)
	}

	w := tabwriter.NewWriter(env.Out, 0, 4, 2, ' ', 0)
	for _, e := range result {
		if c.relative {
			fmt.Fprintf(w, "%s\t%s\t%s\n", e.Path, e.FormatAtime(), humanize.Time(e.Atime))
		} else {
			fmt.Fprintf(w, "%s\t%s\n", e.Path, e.FormatAtime())
		}
	}
	if err := w.Flush(); err != nil {
		return env.errorf("Error writing output: %v", err)
	}

	if !c.record {
		return subcommands.ExitSuccess
	}
	if err := c.recordRun(env, root, strategy, scannedAt, result); err != nil {
		return env.errorf("Error recording run: %v", err)
	}
	return subcommands.ExitSuccess
}

func (c *Scan) recordRun(env *Env, root string, strategy scanner.Strategy, scannedAt time.Time, result scanner.ScanResult) error {
	store, err := history.Open(env.Config.HistoryDB)
	if err != nil {
		return err
	}
	defer store.Close()

	prev, err := store.LatestRun(root, strategy)
	switch {
	case errors.Is(err, history.ErrNoRun):
		fmt.Fprintf(env.Out, "\nNo earlier %s run of %s; recording baseline.\n", strategy, root)
	case err != nil:
		return err
	default:
		writeChanges(env.Out, fmt.Sprintf("since %s", humanize.Time(prev.ScannedAt)), scanner.Compare(prev.Result, result))
	}

	id, err := store.SaveRun(root, strategy, scannedAt, result)
	if err != nil {
		return err
	}
	env.Log.WithField("run", id).WithField("root", root).Info("recorded run")
	return nil
}
