// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// dialog.go - Opens the interactive export dialog.

package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jeranaias/txexport/internal/ui/app"
	"github.com/jeranaias/txexport/internal/ui/styles"
)

// runDialog shows the export dialog full screen and prints the saved path
// once it closes.
func (a *App) runDialog(cmd *cobra.Command, tf *targetFlags) error {
	if err := RequiresTTY("open the export dialog"); err != nil {
		return err
	}

	target, err := tf.target()
	if err != nil {
		return err
	}
	interval, err := tf.interval(a.Now())
	if err != nil {
		return err
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	svc, err := a.openServices(cfg, serviceOptions{
		watchToken: cfg.Auth.WatchTokenFile,
		// The dialog owns the screen, so logs only go to the file.
		discardLog: true,
	})
	if err != nil {
		return err
	}
	defer svc.close()

	var changes chan bool
	if svc.watched != nil {
		changes = make(chan bool, 1)
		svc.watched.OnChange(func(present bool) {
			select {
			case changes <- present:
			default:
			}
		})
	}

	m := app.New(app.Options{
		Exporter:     svc.exporter,
		Target:       target,
		Interval:     interval,
		Theme:        styles.NewTheme(cfg.UI.Theme),
		Logger:       svc.logger,
		Now:          a.Now,
		TokenChanges: changes,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	final, err := p.Run()
	if err != nil {
		return WrapError(err, "run export dialog")
	}

	if fm, ok := final.(app.Model); ok && fm.Result() != nil {
		fmt.Fprintf(a.Out, "%s %s\n", SuccessStyle.Render(app.SuccessMessage), fm.Result().Path)
	}
	return nil
}
