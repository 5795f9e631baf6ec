// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/txexport/internal/export"
)

// =============================================================================
// MESSAGES
// =============================================================================

// PreflightDoneMsg carries the outcome of the HEAD request.
type PreflightDoneMsg struct {
	Plan *export.Plan
	Err  error
}

// DownloadDoneMsg carries the outcome of the GET request.
type DownloadDoneMsg struct {
	Result *export.Result
	Err    error
}

// TokenChangedMsg reports that the stored access token appeared or vanished.
type TokenChangedMsg struct {
	Present bool
}

// quitMsg ends the program once the success toast had time to show.
type quitMsg struct{}

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// preflightCmd runs the row count check off the update loop.
func preflightCmd(ctx context.Context, exp Exporter, req export.Request) tea.Cmd {
	return func() tea.Msg {
		plan, err := exp.Preflight(ctx, req)
		return PreflightDoneMsg{Plan: plan, Err: err}
	}
}

// downloadCmd streams the export to disk off the update loop.
func downloadCmd(ctx context.Context, exp Exporter, plan *export.Plan) tea.Cmd {
	return func() tea.Msg {
		res, err := exp.Download(ctx, plan, nil)
		return DownloadDoneMsg{Result: res, Err: err}
	}
}

// waitForToken blocks until the token watcher reports a change.
func waitForToken(changes <-chan bool) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		present, ok := <-changes
		if !ok {
			return nil
		}
		return TokenChangedMsg{Present: present}
	}
}

// quitAfter schedules the program exit.
func quitAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return quitMsg{} })
}
