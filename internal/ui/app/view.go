// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jeranaias/txexport/internal/ui/components"
)

// View renders the dialog with notifications laid over its bottom-right
// corner.
func (m Model) View() string {
	if m.quitting && !m.toasts.HasToasts() {
		return ""
	}

	base := m.modal.View()
	if base == "" && m.width > 0 && m.height > 0 {
		base = lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, "")
	}

	if !m.toasts.HasToasts() {
		return base
	}
	stack := components.RenderToastStack(m.toasts.Toasts(), 0, 0, m.now())
	if m.width <= 0 || m.height <= 0 {
		return lipgloss.JoinVertical(lipgloss.Left, base, stack)
	}
	return overlayBottomRight(base, stack, m.width, m.height)
}

// overlayBottomRight splices overlay into the last rows of base, right
// aligned. base is expected to be a full-screen render.
func overlayBottomRight(base, overlay string, width, height int) string {
	baseLines := strings.Split(base, "\n")
	for len(baseLines) < height {
		baseLines = append(baseLines, "")
	}
	overlayLines := strings.Split(overlay, "\n")

	overlayWidth := 0
	for _, line := range overlayLines {
		if w := ansi.StringWidth(line); w > overlayWidth {
			overlayWidth = w
		}
	}

	start := height - len(overlayLines)
	if start < 0 {
		start = 0
	}
	left := width - overlayWidth
	if left < 0 {
		left = 0
	}

	for i, line := range overlayLines {
		row := start + i
		if row >= len(baseLines) {
			break
		}
		prefix := ansi.Truncate(baseLines[row], left, "")
		if pad := left - ansi.StringWidth(prefix); pad > 0 {
			prefix += strings.Repeat(" ", pad)
		}
		baseLines[row] = prefix + line
	}
	return strings.Join(baseLines, "\n")
}
