package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/google/subcommands"
	"github.com/riadafridishibly/atimewalk/tui"
)

// View implements subcommands.Command for the "view" command.
type View struct {
	strategy strategyFlag
	theme    string
}

func (*View) Name() string     { return "view" }
func (*View) Synopsis() string { return "browse access times interactively" }
func (*View) Usage() string {
	return `view [flags] [<dir>] - scan <dir> (default: current directory) in a terminal UI.
Rescans highlight entries whose access time moved since the previous scan.
`
}

func (c *View) SetFlags(f *flag.FlagSet) {
	f.Var(&c.strategy, "strategy", "initial strategy (default from config)")
	f.StringVar(&c.theme, "theme", "", "color theme (default from config)")
}

func tempDir() string {
	if runtime.GOOS == "darwin" {
		return "/tmp"
	}
	return os.TempDir()
}

func (c *View) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	env := envFrom(args)
	root, err := rootArg(f, cwd())
	if err != nil {
		return env.usagef(f, "%v", err)
	}
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return env.errorf("Path does not exist: %s", root)
	}

	// The terminal belongs to the UI, so logs go to a file.
	logFile, err := os.CreateTemp(tempDir(), "atimewalk-*.log")
	if err != nil {
		return env.errorf("Error creating log file: %v", err)
	}
	defer logFile.Close()
	env.Log.SetOutput(logFile)
	fmt.Fprintln(env.Out, "Logfile is being written in:", logFile.Name())

	theme := c.theme
	if theme == "" {
		theme = env.Config.Theme
	}
	app := tui.NewApp(root, tui.Options{
		Strategy:             c.strategy.resolve(env.Config),
		Theme:                theme,
		ReplaceHomeWithTilde: env.Config.ReplaceHomeWithTilde,
		Logger:               env.Log,
	})
	if err := app.Run(); err != nil {
		return env.errorf("Error running application: %v", err)
	}
	return subcommands.ExitSuccess
}
