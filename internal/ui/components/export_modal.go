// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/jeranaias/txexport/internal/catalog"
	"github.com/jeranaias/txexport/internal/export"
	"github.com/jeranaias/txexport/internal/form"
	"github.com/jeranaias/txexport/internal/period"
	"github.com/jeranaias/txexport/internal/ui/styles"
)

// =============================================================================
// EXPORT MODAL
// =============================================================================

// modalFocus is a stop in the dialog's tab order.
type modalFocus int

const (
	focusPreset modalFocus = iota
	focusFrom
	focusTo
	focusFieldMode
	focusFields
	focusExport
	focusCount
)

// ExportSubmitMsg is emitted when the user presses Export. The form is
// already in its loading state.
type ExportSubmitMsg struct {
	Request export.Request
}

// ExportModalClosedMsg is emitted when the user dismisses the dialog.
type ExportModalClosedMsg struct{}

// ExportModal is the dialog that configures a transaction export: a date
// range (preset or manual), the field selection and the export button.
type ExportModal struct {
	theme  *styles.Theme
	state  *form.State
	target export.Target

	visible bool
	focus   modalFocus
	width   int
	height  int

	preset  *Select
	period  *PeriodFilter
	mode    *Select
	grid    *CheckboxGrid
	spinner Spinner
}

// NewExportModal creates a hidden export dialog.
func NewExportModal(theme *styles.Theme) *ExportModal {
	m := &ExportModal{
		theme:   theme,
		spinner: NewSpinner(),
	}

	presetOptions := lo.Map(period.Presets(), func(p period.Preset, _ int) SelectOption {
		return SelectOption{Value: string(p.Key), Label: p.Label}
	})
	m.preset = NewSelect("Date range", presetOptions)
	m.preset.SetPlaceholder(period.LabelFor(period.PresetCustom))

	modeOptions := lo.Map(form.FieldModes, func(fm form.FieldMode, _ int) SelectOption {
		return SelectOption{Value: fm.String(), Label: fm.String()}
	})
	m.mode = NewSelect("Fields", modeOptions)

	items := lo.Map(catalog.All(), func(f catalog.Field, _ int) CheckboxItem {
		return CheckboxItem{Key: string(f.ID), Label: f.Label}
	})
	m.grid = NewCheckboxGrid(items)
	m.grid.SetVisibleRows(8)

	m.period = NewPeriodFilter(period.Interval{})
	return m
}

// =============================================================================
// EXPORT MODAL METHODS
// =============================================================================

// Show opens the dialog for target, editing state. The modal registers
// itself as a listener on state, so each Show should get a fresh form.
func (m *ExportModal) Show(target export.Target, state *form.State) {
	m.target = target
	m.state = state
	m.visible = true

	m.period = NewPeriodFilter(state.Interval())
	m.period.OnChange(state.SetInterval)
	m.period.OnValidate(state.SetValidInterval)

	m.preset.OnChange(func(value string) {
		if state.ApplyPreset(period.PresetKey(value)) {
			m.period.SetInterval(state.Interval())
		}
	})
	m.mode.OnChange(func(value string) {
		if fm, err := form.ParseFieldMode(value); err == nil {
			state.SetFieldMode(fm)
		}
	})
	m.grid.IsChecked = func(key string) bool {
		return state.HasField(catalog.FieldID(key))
	}
	m.grid.OnToggle = func(key string, checked bool) {
		state.ToggleField(catalog.FieldID(key), checked)
	}

	state.OnChange(func(*form.State) { m.sync() })
	m.sync()
	m.setFocus(focusPreset)
}

// Hide closes the dialog.
func (m *ExportModal) Hide() {
	m.visible = false
	m.spinner.Stop()
	m.period.Blur()
}

// IsVisible returns whether the dialog is open.
func (m *ExportModal) IsVisible() bool {
	return m.visible
}

// State returns the form being edited.
func (m *ExportModal) State() *form.State {
	return m.state
}

// SetSize updates the dialog dimensions.
func (m *ExportModal) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)
	m.grid.SetLayout(m.theme.GetLayoutMode().Columns(), m.boxWidth()-6)
	if rows := height - 32; rows > 4 {
		m.grid.SetVisibleRows(rows)
	} else {
		m.grid.SetVisibleRows(4)
	}
}

// FinishExport returns the form to idle after either outcome.
func (m *ExportModal) FinishExport() {
	m.spinner.Stop()
	if m.state != nil {
		m.state.EndExport()
	}
}

// sync copies derived state into the controls.
func (m *ExportModal) sync() {
	if m.state == nil {
		return
	}
	m.syncPreset()
	m.mode.SetValue(m.state.FieldMode().String())

	loading := m.state.Loading()
	m.preset.SetDisabled(loading)
	m.period.SetDisabled(loading)
	m.mode.SetDisabled(loading)
	m.grid.SetDisabled(loading || m.state.FieldMode() != form.FieldModeCustom)

	if m.focus == focusFields && m.state.FieldMode() != form.FieldModeCustom {
		m.setFocus(focusFieldMode)
	}
}

// syncPreset shows the preset matching the range. When several presets
// resolve to the same range the one the user picked stays selected.
func (m *ExportModal) syncPreset() {
	current := period.PresetKey(m.preset.Value())
	if interval, ok := period.Resolve(current, m.state.Now()); ok &&
		period.PresetForInterval(interval, m.state.Now()) == m.state.Preset() {
		return
	}
	m.preset.SetValue(string(m.state.Preset()))
}

// =============================================================================
// FOCUS
// =============================================================================

func (m *ExportModal) setFocus(f modalFocus) tea.Cmd {
	m.focus = f
	m.preset.Blur()
	m.mode.Blur()
	m.grid.Blur()
	m.period.Blur()

	switch f {
	case focusPreset:
		m.preset.Focus()
	case focusFrom:
		return m.period.Focus(PeriodFrom)
	case focusTo:
		return m.period.Focus(PeriodTo)
	case focusFieldMode:
		m.mode.Focus()
	case focusFields:
		m.grid.Focus()
	}
	return nil
}

// skip reports whether f is not reachable in the current mode.
func (m *ExportModal) skip(f modalFocus) bool {
	return f == focusFields && (m.state == nil || m.state.FieldMode() != form.FieldModeCustom)
}

func (m *ExportModal) cycleFocus(delta int) tea.Cmd {
	next := m.focus
	for i := 0; i < int(focusCount); i++ {
		next = modalFocus((int(next) + delta + int(focusCount)) % int(focusCount))
		if !m.skip(next) {
			break
		}
	}
	return m.setFocus(next)
}

// =============================================================================
// BUBBLE TEA METHODS
// =============================================================================

// Update handles messages for the dialog and reports whether it consumed msg.
func (m *ExportModal) Update(msg tea.Msg) (tea.Cmd, bool) {
	if !m.visible || m.state == nil {
		return nil, false
	}

	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd, true

	case tea.KeyMsg:
		// Inputs stay frozen while a request is in flight.
		if m.state.Loading() {
			return nil, true
		}

		switch msg.String() {
		case "tab":
			return m.cycleFocus(1), true
		case "shift+tab":
			return m.cycleFocus(-1), true
		case "esc", "escape":
			m.Hide()
			return func() tea.Msg { return ExportModalClosedMsg{} }, true
		case "ctrl+s":
			return m.submit(), true
		case "enter":
			if m.focus == focusExport {
				return m.submit(), true
			}
			return m.cycleFocus(1), true
		}

		switch m.focus {
		case focusPreset:
			return nil, m.preset.Update(msg)
		case focusFrom, focusTo:
			return m.period.Update(msg)
		case focusFieldMode:
			return nil, m.mode.Update(msg)
		case focusFields:
			return nil, m.grid.Update(msg)
		case focusExport:
			if msg.String() == " " {
				return m.submit(), true
			}
		}
		return nil, false
	}

	// Cursor blinks and other input messages go to the focused text input.
	if m.focus == focusFrom || m.focus == focusTo {
		cmd, _ := m.period.Update(msg)
		return cmd, cmd != nil
	}
	return nil, false
}

// submit starts the export. It is a no-op while the range is invalid or a
// request is already running.
func (m *ExportModal) submit() tea.Cmd {
	if !m.state.BeginExport() {
		return nil
	}
	req := export.RequestFromForm(m.target, m.state)
	m.spinner.SetMessage("Exporting")
	return tea.Batch(
		m.spinner.Start(),
		func() tea.Msg { return ExportSubmitMsg{Request: req} },
	)
}

// =============================================================================
// VIEW RENDERING
// =============================================================================

func (m *ExportModal) boxWidth() int {
	boxWidth := 84
	if m.width > 0 && m.width < boxWidth+6 {
		boxWidth = m.width - 6
	}
	if boxWidth < 40 {
		boxWidth = 40
	}
	return boxWidth
}

// View renders the dialog centered in the terminal.
func (m *ExportModal) View() string {
	if !m.visible || m.state == nil {
		return ""
	}
	t := m.theme
	boxWidth := m.boxWidth()

	var content strings.Builder

	content.WriteString(t.Title.Render("Export transactions"))
	content.WriteString("\n")
	content.WriteString(t.Subtitle.Render(describeTarget(m.target)))
	content.WriteString("\n\n")

	if m.target.IsHostReport() && len(m.target.Accounts) > 0 {
		content.WriteString(t.WarningBanner.Width(boxWidth - 6).Render(
			styles.StatusIndicators.Warning + " " + memberAccountsWarning(m.target.Accounts)))
		content.WriteString("\n\n")
	}

	// Date range
	content.WriteString(m.preset.View(t))
	content.WriteString("\n\n")
	content.WriteString(m.period.View(t))
	content.WriteString("\n\n")

	// Fields
	content.WriteString(m.mode.View(t))
	content.WriteString("\n")
	if m.state.FieldMode() == form.FieldModeCustom {
		content.WriteString(m.grid.View(t))
		content.WriteString("\n")
		content.WriteString(t.Hint.Render(
			strconv.Itoa(m.state.Fields().Len()) + " of " + strconv.Itoa(catalog.Len()) + " fields selected"))
	} else {
		content.WriteString(t.Hint.Width(boxWidth - 6).Render(catalog.DefaultHint()))
	}
	content.WriteString("\n\n")

	if rows := m.state.ExportedRows(); export.ShouldWarn(rows) {
		content.WriteString(t.InfoBanner.Width(boxWidth - 6).Render(
			styles.StatusIndicators.Info + " " + export.WarningMessage(rows)))
		content.WriteString("\n\n")
	}

	content.WriteString(m.renderButton())
	content.WriteString("\n\n")
	content.WriteString(t.KeyHelp.Render(m.keyHelp()))

	box := t.Modal.
		Background(styles.Surface).
		Width(boxWidth).
		Render(content.String())

	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}

func (m *ExportModal) renderButton() string {
	t := m.theme
	if m.state.Loading() {
		return t.ButtonDisabled.Render("Export CSV") + "  " + m.spinner.View()
	}
	if !m.state.CanExport() {
		return t.ButtonDisabled.Render("Export CSV") + "  " + t.Hint.Render("fix the date range to export")
	}
	if m.focus == focusExport {
		return t.ButtonFocused.Render("Export CSV")
	}
	return t.Button.Render("Export CSV")
}

func (m *ExportModal) keyHelp() string {
	switch m.focus {
	case focusPreset, focusFieldMode:
		return "</>=Change  Tab=Next  Ctrl+S=Export  Esc=Close"
	case focusFrom, focusTo:
		return "YYYY-MM-DD  Tab=Next  Ctrl+S=Export  Esc=Close"
	case focusFields:
		return "Arrows=Move  Space=Toggle  Tab=Next  Esc=Close"
	default:
		return "Enter=Export  Tab=Next  Esc=Close"
	}
}

// describeTarget renders the subtitle naming what is being exported.
func describeTarget(t export.Target) string {
	if !t.IsHostReport() {
		return "Account: " + t.Slug
	}
	desc := "Host report: " + t.HostSlug
	if len(t.Accounts) > 0 {
		desc += " (" + strings.Join(t.Accounts, ", ") + ")"
	}
	return desc
}

// memberAccountsWarning explains that a filtered host report covers every
// transaction of the listed accounts.
func memberAccountsWarning(accounts []string) string {
	return "This report is affected by the account filter and will include all transactions from the following accounts: " +
		strings.Join(accounts, ", ")
}
