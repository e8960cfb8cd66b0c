// roster is the terminal member browser. It talks to a running gymroster
// server over its JSON API; search edits are debounced, status and page
// changes query immediately.
package main

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"gymroster/internal/adapters/directoryclient"
	"gymroster/internal/adapters/tui"
	"gymroster/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	client := cfg.Client

	flagSet := pflag.NewFlagSet("roster", pflag.ContinueOnError)
	flagSet.StringVar(&client.Server, "server", client.Server, "base URL of the gymroster server")
	flagSet.DurationVar(&client.Debounce, "debounce", client.Debounce, "delay between the last keystroke and the search query")
	flagSet.DurationVar(&client.Timeout, "timeout", client.Timeout, "per-request timeout")
	flagSet.StringVar(&client.LogOutput, "log-output", client.LogOutput, "write JSON log records to this file")
	showVersion := flagSet.Bool("version", false, "print the version and exit")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if *showVersion {
		fmt.Println("roster", version)
		return nil
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}
	if client.Debounce < 0 {
		return fmt.Errorf("--debounce must not be negative, got %s", client.Debounce)
	}

	// The alternate screen owns stdout and stderr, so logs go to a file or nowhere.
	var logWriter io.Writer = io.Discard
	if client.LogOutput != "" {
		f, err := os.OpenFile(client.LogOutput, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("cannot open log file %s: %w", client.LogOutput, err)
		}
		defer f.Close()
		logWriter = f
	}
	logger := config.NewLogger(config.LogConfig{Level: cfg.Log.Level, Format: "json"}, logWriter)

	dir, err := directoryclient.New(client.Server, client.Timeout)
	if err != nil {
		return err
	}
	logger.Info("roster_started", "server", client.Server, "debounce", client.Debounce.String())

	model := tui.NewModel(dir, client.Debounce, tui.WithLogger(logger))
	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `roster: browse and manage gym members from the terminal.

Connects to a gymroster server (default from client.server in config.yaml
or GYMROSTER_CLIENT_SERVER).

Usage:
  roster [flags]

Keys:
  /, tab     focus search / list
  j, k       move selection
  h, l       previous / next page
  1, 2, 3    all / active / expired
  e, d       edit / delete selected member
  r          refresh
  q          quit

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
