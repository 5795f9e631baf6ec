// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the UI pieces of the txexport dialog.

Each component is built on Bubble Tea and Lip Gloss and takes a
*styles.Theme for rendering.

# Dialog

ExportModal (export_modal.go) - The export dialog. Owns the tab order and
turns the Export button into an ExportSubmitMsg.

# Controls

Select (select.go) - Single-choice cycler used for presets and field mode.
PeriodFilter (period_filter.go) - Two date inputs with change and validity callbacks.
CheckboxGrid (checkbox_grid.go) - Multi-column field picker.

# Feedback

Spinner (spinner.go) - Loading indicator on the Export button.
ToastManager (toast.go) - Auto-dismissing notifications in the bottom-right corner.

Controls that sit inside the dialog report whether they consumed a key:

	if m.grid.Update(msg) {
	    return nil, true
	}

The dialog itself follows the overlay convention of returning
(tea.Cmd, bool) so the root model knows when to stop routing a message.
*/
package components
