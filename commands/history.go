package commands

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/google/subcommands"
	"github.com/riadafridishibly/atimewalk/history"
)

// History implements subcommands.Command for the "history" command.
type History struct {
	clear bool
}

func (*History) Name() string     { return "history" }
func (*History) Synopsis() string { return "list scans recorded with scan -record" }
func (*History) Usage() string {
	return `history [flags] [<dir>] - list recorded runs of <dir> (default: current directory).
`
}

func (c *History) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.clear, "clear", false, "delete the recorded runs instead of listing them")
}

func (c *History) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	env := envFrom(args)
	root, err := rootArg(f, cwd())
	if err != nil {
		return env.usagef(f, "%v", err)
	}

	store, err := history.Open(env.Config.HistoryDB)
	if err != nil {
		return env.errorf("Error opening history: %v", err)
	}
	defer store.Close()

	if c.clear {
		if err := store.DeleteRuns(root); err != nil {
			return env.errorf("Error clearing history: %v", err)
		}
		fmt.Fprintf(env.Out, "Cleared runs of %s\n", root)
		return subcommands.ExitSuccess
	}

	runs, err := store.Runs(root)
	if err != nil {
		return env.errorf("Error reading history: %v", err)
	}
	if len(runs) == 0 {
		fmt.Fprintf(env.Out, "No runs recorded for %s\n", root)
		return subcommands.ExitSuccess
	}

	w := tabwriter.NewWriter(env.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTRATEGY\tSCANNED\tENTRIES")
	for _, r := range runs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", r.ID, r.Strategy, humanize.Time(r.ScannedAt), humanize.Comma(int64(r.Entries)))
	}
	if err := w.Flush(); err != nil {
		return env.errorf("Error writing output: %v", err)
	}
	return subcommands.ExitSuccess
}
