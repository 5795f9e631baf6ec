// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the txexport command line.
//
// The command tree is built with cobra. Without a subcommand, txexport opens
// the interactive export dialog; every other command is usable from scripts.
//
// # Usage
//
//	os.Exit(cli.Execute())
//
// Tests drive the same tree through an App with swapped streams and config:
//
//	app := &cli.App{Out: &out, Err: &errOut, Now: clock, LoadConfig: load}
//	code := app.Run([]string{"export", "--account", "acme"})
//
// # Commands
//
//   - (none): export dialog, requires a terminal
//   - export: headless preflight and download with a progress bar
//   - fields: the field catalog, rendered as Markdown
//   - token set|show|clear: the stored access token
//   - history [show ID|clear]: past export attempts
//   - config show|get|set|keys|path: settings
//   - version: build information
//
// The persistent --config flag points every command at a specific TOML or
// JSON file instead of ~/.txexport/config.toml.
//
// Errors are printed once by Run and mapped to exit codes (see GetExitCode).
package cli
