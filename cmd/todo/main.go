package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Makepad-fr/tada/internal/api"
	"github.com/Makepad-fr/tada/internal/cli"
	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/listsync"
	"github.com/Makepad-fr/tada/internal/tui"
	"github.com/Makepad-fr/tada/internal/ui"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Root flags (apply to every subcommand)
	groupPending := flag.Bool("group", false, "group output by pending/done")
	configPath := flag.String("config", "", "path to tada.yaml")
	serverURL := flag.String("server", "", "collection server base URL")
	theme := flag.String("theme", "", "color theme: classic, neon or mono")
	logLevel := flag.String("log-level", "", "debug, info, warn or error")
	flag.Parse()

	// Hand the remaining args to the CLI runner.
	args := flag.Args()
	if len(args) == 0 {
		cli.PrintHelp()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		ui.Fail("config: " + err.Error())
		return 1
	}
	if *serverURL != "" {
		cfg.Client.ServerURL = *serverURL
	}
	if *theme != "" {
		cfg.Client.Theme = *theme
	}
	if *logLevel != "" {
		cfg.Logger.Level = *logLevel
	}
	ui.SetTheme(cfg.Client.Theme)

	// The TUI owns the terminal, so logs go to a file when one is configured.
	var logOut io.Writer = os.Stderr
	if cfg.Client.LogFile != "" {
		f, err := os.OpenFile(cfg.Client.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			ui.Fail("log file: " + err.Error())
			return 1
		}
		defer f.Close()
		logOut = f
	} else if args[0] == "ui" {
		logOut = io.Discard
	}
	logger := cli.NewLogger(logOut, cfg.Logger.Level)

	client := api.NewClient(cfg.Client.ServerURL, api.WithTimeout(cfg.Client.Timeout))
	s := listsync.New(client, listsync.WithLogger(logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Run(ctx, args, s, cli.Options{
		Group:  *groupPending,
		Logger: logger,
		Interactive: func(ctx context.Context, s *listsync.Synchronizer) error {
			return tui.Run(ctx, s, logger)
		},
	})
	stop()
	if code != 0 {
		fmt.Fprintln(os.Stderr)
	}
	return code
}
