// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// root.go - Command tree and entry point for txexport.

package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/txexport/internal/config"
)

// Version information (overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// App carries the process edges the commands touch, so tests can swap them.
type App struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	// Now is the clock used for presets and filenames.
	Now func() time.Time

	// LoadConfig returns the effective configuration.
	LoadConfig func() (*config.Config, error)

	// configPath is set by --config and replaces LoadConfig when present.
	configPath string
}

// DefaultApp wires the App to the real process.
func DefaultApp() *App {
	return &App{
		In:         os.Stdin,
		Out:        os.Stdout,
		Err:        os.Stderr,
		Now:        time.Now,
		LoadConfig: config.Load,
	}
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	return DefaultApp().Run(os.Args[1:])
}

// Run executes args against a fresh command tree.
func (a *App) Run(args []string) int {
	cmd := a.NewRootCommand()
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		DisplayError(a.Err, err)
		return GetExitCode(err)
	}
	return ExitSuccess
}

// NewRootCommand builds the full command tree. Without a subcommand it opens
// the export dialog.
func (a *App) NewRootCommand() *cobra.Command {
	var tf targetFlags

	root := &cobra.Command{
		Use:   "txexport",
		Short: "Export an account's transactions as CSV",
		Long: `txexport downloads the transactions of an account, or the host report
of a fiscal host, as a CSV file.

Without a subcommand it opens an interactive dialog to pick the date range
and the fields to include. Use "txexport export" from scripts.`,
		Example: `  txexport --account acme
  txexport --host opensource --accounts acme,babel --preset pastQuarter
  txexport export --account acme --from 2024-01-01 --to 2024-03-31 --all-fields`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runDialog(cmd, &tf)
		},
	}
	root.SetIn(a.In)
	root.SetOut(a.Out)
	root.SetErr(a.Err)
	root.PersistentFlags().StringVar(&a.configPath, "config", "",
		"config file to use instead of ~/.txexport/config.toml (.toml or .json)")
	tf.register(root)

	root.AddCommand(
		a.newExportCommand(),
		a.newFieldsCommand(),
		a.newTokenCommand(),
		a.newHistoryCommand(),
		a.newConfigCommand(),
		a.newVersionCommand(),
	)
	return root
}

// loadConfig loads the configuration, tagging failures for the exit code.
// A broken config file falls back to defaults with a warning.
func (a *App) loadConfig() (*config.Config, error) {
	if a.configPath != "" {
		cfg, err := config.LoadFromPath(config.ExpandPath(a.configPath))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errConfig, err)
		}
		return cfg, nil
	}

	cfg, err := a.LoadConfig()
	if cfg == nil {
		if err == nil {
			return nil, errConfig
		}
		return nil, fmt.Errorf("%w: %w", errConfig, err)
	}
	if err != nil {
		DisplayWarning(a.Err, err.Error())
	}
	return cfg, nil
}
