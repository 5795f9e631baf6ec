// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/txexport/internal/period"
	"github.com/jeranaias/txexport/internal/ui/styles"
)

// =============================================================================
// PERIOD FILTER
// =============================================================================

// PeriodPart identifies one of the two date inputs.
type PeriodPart int

const (
	PeriodNone PeriodPart = iota
	PeriodFrom
	PeriodTo
)

// PeriodFilter edits a date range with two text inputs. Every keystroke that
// changes a value is validated and reported through OnChange and OnValidate.
type PeriodFilter struct {
	from textinput.Model
	to   textinput.Model

	focus    PeriodPart
	err      error
	disabled bool

	onChange   func(period.Interval)
	onValidate func(valid bool)
}

// NewPeriodFilter creates a filter showing initial.
func NewPeriodFilter(initial period.Interval) *PeriodFilter {
	p := &PeriodFilter{
		from: newDateInput(),
		to:   newDateInput(),
	}
	p.SetInterval(initial)
	return p
}

func newDateInput() textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "YYYY-MM-DD"
	ti.CharLimit = 25
	ti.Width = 12
	return ti
}

// OnChange registers the callback fired after a manual edit.
func (p *PeriodFilter) OnChange(fn func(period.Interval)) {
	p.onChange = fn
}

// OnValidate registers the validity callback fired after a manual edit.
func (p *PeriodFilter) OnValidate(fn func(valid bool)) {
	p.onValidate = fn
}

// SetInterval replaces both values without firing callbacks. Used when a
// preset overwrites the range.
func (p *PeriodFilter) SetInterval(i period.Interval) {
	p.from.SetValue(i.From)
	p.to.SetValue(i.To)
	p.err = period.Validate(i)
}

// Interval returns the range as currently typed.
func (p *PeriodFilter) Interval() period.Interval {
	return period.Interval{From: p.from.Value(), To: p.to.Value()}.Normalize()
}

// Err returns the validation error of the current range, if any.
func (p *PeriodFilter) Err() error {
	return p.err
}

// Valid reports whether the current range is acceptable.
func (p *PeriodFilter) Valid() bool {
	return p.err == nil
}

// SetDisabled blocks or allows editing.
func (p *PeriodFilter) SetDisabled(disabled bool) {
	p.disabled = disabled
}

// =============================================================================
// FOCUS
// =============================================================================

// Focus moves keyboard focus to part.
func (p *PeriodFilter) Focus(part PeriodPart) tea.Cmd {
	p.Blur()
	p.focus = part
	switch part {
	case PeriodFrom:
		return p.from.Focus()
	case PeriodTo:
		return p.to.Focus()
	}
	return nil
}

// Blur removes focus from both inputs.
func (p *PeriodFilter) Blur() {
	p.from.Blur()
	p.to.Blur()
	p.focus = PeriodNone
}

// FocusedPart returns which input has focus.
func (p *PeriodFilter) FocusedPart() PeriodPart {
	return p.focus
}

// =============================================================================
// BUBBLE TEA METHODS
// =============================================================================

// Update forwards msg to the focused input. The bool reports whether a key
// was consumed.
func (p *PeriodFilter) Update(msg tea.Msg) (tea.Cmd, bool) {
	if p.focus == PeriodNone {
		return nil, false
	}
	key, isKey := msg.(tea.KeyMsg)
	if isKey && p.disabled {
		return nil, true
	}
	if isKey && !editingKey(key) {
		return nil, false
	}

	before := p.Interval()
	var cmd tea.Cmd
	if p.focus == PeriodFrom {
		p.from, cmd = p.from.Update(msg)
	} else {
		p.to, cmd = p.to.Update(msg)
	}

	if after := p.Interval(); after != before {
		p.err = period.Validate(after)
		if p.onChange != nil {
			p.onChange(after)
		}
		if p.onValidate != nil {
			p.onValidate(p.err == nil)
		}
	}
	return cmd, isKey
}

// editingKey reports whether a text input should see key. Navigation keys
// owned by the dialog are excluded.
func editingKey(key tea.KeyMsg) bool {
	switch key.Type {
	case tea.KeyRunes, tea.KeySpace, tea.KeyBackspace, tea.KeyDelete,
		tea.KeyLeft, tea.KeyRight, tea.KeyHome, tea.KeyEnd,
		tea.KeyCtrlA, tea.KeyCtrlE, tea.KeyCtrlK, tea.KeyCtrlU, tea.KeyCtrlW:
		return true
	}
	return false
}

// View renders both inputs side by side with the validation error below.
func (p *PeriodFilter) View(theme *styles.Theme) string {
	from := p.renderInput(theme, "From", p.from, p.focus == PeriodFrom, errorsFrom(p.err))
	to := p.renderInput(theme, "To", p.to, p.focus == PeriodTo, errorsTo(p.err))

	row := lipgloss.JoinHorizontal(lipgloss.Top, from, "  ", to)
	if p.err != nil {
		row += "\n" + theme.ErrorText.Render(firstLine(p.err.Error()))
	}
	return row
}

func (p *PeriodFilter) renderInput(theme *styles.Theme, label string, input textinput.Model, focused, invalid bool) string {
	style := theme.Input
	switch {
	case invalid:
		style = theme.InputInvalid
	case focused:
		style = theme.InputFocused
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		theme.Label.Render(label),
		style.Render(input.View()),
	)
}

// errorsFrom and errorsTo decide which input gets the invalid border. A
// reversed range marks both.
func errorsFrom(err error) bool {
	return err != nil && !errors.Is(err, period.ErrInvalidTo)
}

func errorsTo(err error) bool {
	return err != nil && !errors.Is(err, period.ErrInvalidFrom)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
