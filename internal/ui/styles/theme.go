// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled pieces of the export dialog.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// DIALOG FRAME
	// ==========================================================================

	Modal    lipgloss.Style
	Title    lipgloss.Style
	Section  lipgloss.Style
	Label    lipgloss.Style
	Hint     lipgloss.Style
	KeyHelp  lipgloss.Style
	Divider  lipgloss.Style
	Subtitle lipgloss.Style

	// ==========================================================================
	// CONTROLS
	// ==========================================================================

	Input          lipgloss.Style
	InputFocused   lipgloss.Style
	InputInvalid   lipgloss.Style
	Option         lipgloss.Style
	OptionSelected lipgloss.Style
	OptionFocused  lipgloss.Style
	Checkbox       lipgloss.Style
	CheckboxOn     lipgloss.Style
	CheckboxCursor lipgloss.Style
	CheckboxMuted  lipgloss.Style

	Button         lipgloss.Style
	ButtonFocused  lipgloss.Style
	ButtonDisabled lipgloss.Style

	// ==========================================================================
	// MESSAGES
	// ==========================================================================

	InfoBanner    lipgloss.Style
	WarningBanner lipgloss.Style
	ErrorText     lipgloss.Style
	SuccessText   lipgloss.Style
	Spinner       lipgloss.Style
}

// NewTheme creates a theme for the given mode: "dark", "light" or "auto".
func NewTheme(mode string) *Theme {
	colorProfile := termenv.ColorProfile()

	isDark := termenv.HasDarkBackground()
	switch strings.ToLower(mode) {
	case "dark":
		isDark = true
		lipgloss.SetHasDarkBackground(true)
	case "light":
		isDark = false
		lipgloss.SetHasDarkBackground(false)
	}

	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}
	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	t.Modal = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(1, 2)

	t.Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.Subtitle = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.Section = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextPrimary).
		MarginTop(1)

	t.Label = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.Hint = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.KeyHelp = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Divider = lipgloss.NewStyle().
		Foreground(Overlay)

	// Inputs
	t.Input = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputFocused = t.Input.
		BorderForeground(FocusRing)

	t.InputInvalid = t.Input.
		BorderForeground(Rose)

	// Select options
	t.Option = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Padding(0, 1)

	t.OptionSelected = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Cyan).
		Bold(true).
		Padding(0, 1)

	t.OptionFocused = t.OptionSelected.
		Background(Purple)

	// Checkboxes
	t.Checkbox = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.CheckboxOn = lipgloss.NewStyle().
		Foreground(Emerald)

	t.CheckboxCursor = lipgloss.NewStyle().
		Foreground(FocusRing).
		Bold(true)

	t.CheckboxMuted = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Buttons
	t.Button = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Purple).
		Bold(true).
		Padding(0, 3)

	t.ButtonFocused = t.Button.
		Background(Cyan).
		Underline(true)

	t.ButtonDisabled = lipgloss.NewStyle().
		Foreground(TextMuted).
		Background(SurfaceDim).
		Padding(0, 3)

	// Messages
	t.InfoBanner = lipgloss.NewStyle().
		Foreground(Amber).
		Background(AmberDeep).
		Padding(0, 1)

	t.WarningBanner = lipgloss.NewStyle().
		Foreground(WarningHighContrast).
		Bold(true).
		Padding(0, 1)

	t.ErrorText = lipgloss.NewStyle().
		Foreground(Rose)

	t.SuccessText = lipgloss.NewStyle().
		Foreground(Emerald)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Cyan)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)

// Columns returns how many checkbox columns fit the layout.
func (m LayoutMode) Columns() int {
	switch m {
	case LayoutNarrow:
		return 1
	case LayoutMedium:
		return 2
	default:
		return 3
	}
}
