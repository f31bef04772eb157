package commands

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"
	"github.com/riadafridishibly/atimewalk/fixture"
)

// Setup implements subcommands.Command for the "setup" command.
type Setup struct {
	atime int64
	force bool
}

func (*Setup) Name() string     { return "setup" }
func (*Setup) Synopsis() string { return "create the fixture tree with fixed timestamps" }
func (*Setup) Usage() string {
	return `setup [flags] <dir> - (re)create <dir> with file1.txt, subdir/ and subdir/file2.txt,
all stamped with the same atime and mtime.
`
}

func (c *Setup) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.atime, "atime", fixture.Baseline.Unix(), "timestamp (seconds since epoch) to stamp")
	f.BoolVar(&c.force, "force", false, "replace <dir> even if it holds more than the fixture")
}

func (c *Setup) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	env := envFrom(args)
	root, err := rootArg(f, "")
	if err != nil {
		return env.usagef(f, "%v", err)
	}
	if err := prepareRoot(root, c.force); err != nil {
		return env.errorf("%v", err)
	}

	stamp := time.Unix(c.atime, 0)
	if err := fixture.Setup(root, stamp); err != nil {
		return env.errorf("Error setting up %s: %v", root, err)
	}
	fmt.Fprintf(env.Out, "Created %s stamped at %s\n", root, stamp.Local().Format(time.ANSIC))
	return subcommands.ExitSuccess
}

// prepareRoot refuses to let the fixture replace anything but an absent path
// or an existing fixture unless forced.
func prepareRoot(root string, force bool) error {
	if force {
		return nil
	}
	ok, err := fixture.Conforms(root)
	if err != nil {
		return fmt.Errorf("inspecting %s: %w", root, err)
	}
	if !ok {
		return fmt.Errorf("%s is not a fixture directory; pass -force to replace it", root)
	}
	return nil
}
