package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/riadafridishibly/atimewalk/commands"
	"github.com/riadafridishibly/atimewalk/config"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", config.Path(), "path to the JSON config file")
	logLevel := flag.String("log-level", "", "override the configured log level")

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(new(commands.Scan), "")
	subcommands.Register(new(commands.Check), "")
	subcommands.Register(new(commands.View), "")
	subcommands.Register(new(commands.Setup), "fixture")
	subcommands.Register(new(commands.History), "history")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config %s: %v\n", *configPath, err)
		os.Exit(int(subcommands.ExitUsageError))
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(int(subcommands.ExitUsageError))
		}
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(cfg.Level())

	env := &commands.Env{
		Config: cfg,
		Log:    log,
		Out:    os.Stdout,
		Err:    os.Stderr,
	}
	os.Exit(int(subcommands.Execute(context.Background(), env)))
}
