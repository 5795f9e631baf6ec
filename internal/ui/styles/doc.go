// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the txexport dialog.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection. The "dark" and "light" theme settings force one side.

# Colors (colors.go)

  - Purple - Dialog frame and title
  - Cyan - Focus ring and selected options
  - Emerald - Checked boxes and success
  - Amber - The large export banner
  - Rose - Errors and invalid dates

Status helpers (RenderSuccess, RenderError, ...) prefix text with an ASCII
indicator so meaning does not rely on color.

# Theme (theme.go)

Theme bundles the dialog styles. The checkbox grid asks the layout mode how
many columns fit:

	theme := styles.NewTheme(cfg.UI.Theme)
	theme.SetSize(msg.Width, msg.Height)
	cols := theme.GetLayoutMode().Columns()
*/
package styles
