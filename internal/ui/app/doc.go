// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the root Bubble Tea model of the txexport terminal UI.
//
// It opens the export dialog on a target, runs the preflight and download
// as commands off the update loop, and shows the outcome as toasts:
//
//	m := app.New(app.Options{Exporter: exp, Target: target})
//	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
//	if res := final.(app.Model).Result(); res != nil {
//	    fmt.Println("Saved", res.Path)
//	}
package app
