// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/txexport/internal/ui/styles"
	"github.com/jeranaias/txexport/internal/util"
)

// =============================================================================
// CHECKBOX GRID
// =============================================================================

// CheckboxItem is one cell of a CheckboxGrid.
type CheckboxItem struct {
	Key   string
	Label string
}

// CheckboxGrid lays checkboxes out row by row across a number of columns.
// It holds no checked state of its own: IsChecked is asked on every render
// and OnToggle is told about every change.
type CheckboxGrid struct {
	items   []CheckboxItem
	columns int
	width   int
	rows    int // visible rows, 0 shows everything
	cursor  int
	offset  int // first visible row
	focused bool

	disabled bool

	IsChecked func(key string) bool
	OnToggle  func(key string, checked bool)
}

// NewCheckboxGrid creates a grid over items.
func NewCheckboxGrid(items []CheckboxItem) *CheckboxGrid {
	return &CheckboxGrid{
		items:   items,
		columns: 1,
	}
}

// SetLayout sets the column count and total width available to the grid.
func (g *CheckboxGrid) SetLayout(columns, width int) {
	if columns < 1 {
		columns = 1
	}
	g.columns = columns
	g.width = width
	g.scrollToCursor()
}

// SetVisibleRows caps how many rows render at once.
func (g *CheckboxGrid) SetVisibleRows(rows int) {
	g.rows = rows
	g.scrollToCursor()
}

// Focus gives the grid keyboard focus.
func (g *CheckboxGrid) Focus() { g.focused = true }

// Blur removes keyboard focus.
func (g *CheckboxGrid) Blur() { g.focused = false }

// Focused reports whether the grid has focus.
func (g *CheckboxGrid) Focused() bool { return g.focused }

// SetDisabled blocks or allows toggles.
func (g *CheckboxGrid) SetDisabled(disabled bool) { g.disabled = disabled }

// Cursor returns the index of the highlighted item.
func (g *CheckboxGrid) Cursor() int { return g.cursor }

// CursorKey returns the key of the highlighted item.
func (g *CheckboxGrid) CursorKey() string {
	if len(g.items) == 0 {
		return ""
	}
	return g.items[g.cursor].Key
}

func (g *CheckboxGrid) totalRows() int {
	return (len(g.items) + g.columns - 1) / g.columns
}

func (g *CheckboxGrid) checked(key string) bool {
	return g.IsChecked != nil && g.IsChecked(key)
}

// Update handles navigation and toggling and reports whether it consumed msg.
func (g *CheckboxGrid) Update(msg tea.Msg) bool {
	key, ok := msg.(tea.KeyMsg)
	if !ok || !g.focused || len(g.items) == 0 {
		return false
	}

	switch key.String() {
	case "up", "k":
		g.move(-g.columns)
	case "down", "j":
		g.move(g.columns)
	case "left", "h":
		g.move(-1)
	case "right", "l":
		g.move(1)
	case "home":
		g.cursor = 0
	case "end":
		g.cursor = len(g.items) - 1
	case " ", "x":
		g.toggle()
	default:
		return false
	}
	g.scrollToCursor()
	return true
}

func (g *CheckboxGrid) move(delta int) {
	next := g.cursor + delta
	if next < 0 || next >= len(g.items) {
		return
	}
	g.cursor = next
}

func (g *CheckboxGrid) toggle() {
	if g.disabled || g.OnToggle == nil {
		return
	}
	item := g.items[g.cursor]
	g.OnToggle(item.Key, !g.checked(item.Key))
}

func (g *CheckboxGrid) scrollToCursor() {
	if g.rows <= 0 {
		g.offset = 0
		return
	}
	row := g.cursor / g.columns
	if row < g.offset {
		g.offset = row
	}
	if row >= g.offset+g.rows {
		g.offset = row - g.rows + 1
	}
	if maxOffset := g.totalRows() - g.rows; g.offset > maxOffset {
		g.offset = maxOffset
	}
	if g.offset < 0 {
		g.offset = 0
	}
}

// View renders the visible rows.
func (g *CheckboxGrid) View(theme *styles.Theme) string {
	if len(g.items) == 0 {
		return ""
	}

	cellWidth := 0
	if g.width > 0 {
		cellWidth = g.width / g.columns
	}

	first, last := 0, g.totalRows()
	if g.rows > 0 && g.rows < last {
		first = g.offset
		last = g.offset + g.rows
	}

	lines := make([]string, 0, last-first+1)
	for row := first; row < last; row++ {
		var line strings.Builder
		for col := 0; col < g.columns; col++ {
			idx := row*g.columns + col
			if idx >= len(g.items) {
				break
			}
			line.WriteString(g.renderCell(theme, idx, cellWidth, col == g.columns-1))
		}
		lines = append(lines, line.String())
	}

	if g.rows > 0 && g.totalRows() > g.rows {
		lines = append(lines, theme.Hint.Render(
			"rows "+strconv.Itoa(first+1)+"-"+strconv.Itoa(last)+" of "+strconv.Itoa(g.totalRows())))
	}
	return strings.Join(lines, "\n")
}

func (g *CheckboxGrid) renderCell(theme *styles.Theme, idx, cellWidth int, lastCol bool) string {
	item := g.items[idx]
	box := "[ ] "
	style := theme.Checkbox
	if g.checked(item.Key) {
		box = "[x] "
		style = theme.CheckboxOn
	}
	if g.disabled {
		style = theme.CheckboxMuted
	}

	text := box + item.Label
	if cellWidth > 0 {
		if lastCol {
			text = util.TruncateWidth(text, cellWidth)
		} else {
			text = util.PadRight(text, cellWidth)
		}
	}

	if g.focused && idx == g.cursor {
		style = theme.CheckboxCursor
	}
	return style.Render(text)
}
