// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/txexport/internal/ui/styles"
)

// =============================================================================
// SELECT
// =============================================================================

// SelectOption is one choice of a Select.
type SelectOption struct {
	Value string
	Label string
}

// Select is a single-choice control that cycles through its options with
// left/right. An empty value that matches no option renders as a
// placeholder, which lets a derived value such as "custom" show without
// being selectable.
type Select struct {
	label       string
	options     []SelectOption
	value       string
	placeholder string
	focused     bool
	disabled    bool

	onChange func(value string)
}

// NewSelect creates a select with the first option chosen.
func NewSelect(label string, options []SelectOption) *Select {
	s := &Select{label: label, options: options}
	if len(options) > 0 {
		s.value = options[0].Value
	}
	return s
}

// OnChange registers the callback fired when the user picks an option.
func (s *Select) OnChange(fn func(value string)) {
	s.onChange = fn
}

// SetPlaceholder sets the text shown when the value matches no option.
func (s *Select) SetPlaceholder(text string) {
	s.placeholder = text
}

// SetValue changes the value without firing OnChange.
func (s *Select) SetValue(value string) {
	s.value = value
}

// Value returns the current value.
func (s *Select) Value() string {
	return s.value
}

// Index returns the position of the current value, or -1.
func (s *Select) Index() int {
	for i, opt := range s.options {
		if opt.Value == s.value {
			return i
		}
	}
	return -1
}

// Focus gives the select keyboard focus.
func (s *Select) Focus() { s.focused = true }

// Blur removes keyboard focus.
func (s *Select) Blur() { s.focused = false }

// Focused reports whether the select has focus.
func (s *Select) Focused() bool { return s.focused }

// SetDisabled blocks or allows changes.
func (s *Select) SetDisabled(disabled bool) { s.disabled = disabled }

// Update handles keys while focused and reports whether it consumed msg.
func (s *Select) Update(msg tea.Msg) bool {
	key, ok := msg.(tea.KeyMsg)
	if !ok || !s.focused || s.disabled || len(s.options) == 0 {
		return false
	}

	switch key.String() {
	case "left", "h":
		s.step(-1)
		return true
	case "right", "l", " ":
		s.step(1)
		return true
	case "home":
		s.choose(0)
		return true
	case "end":
		s.choose(len(s.options) - 1)
		return true
	}
	return false
}

func (s *Select) step(delta int) {
	n := len(s.options)
	idx := s.Index()
	if idx < 0 {
		// From a placeholder, right lands on the first option and left on the last.
		if delta > 0 {
			idx = -1
		} else {
			idx = n
		}
	}
	s.choose(((idx+delta)%n + n) % n)
}

func (s *Select) choose(idx int) {
	next := s.options[idx].Value
	if next == s.value {
		return
	}
	s.value = next
	if s.onChange != nil {
		s.onChange(next)
	}
}

// currentLabel returns the label of the chosen option or the placeholder.
func (s *Select) currentLabel() string {
	if idx := s.Index(); idx >= 0 {
		return s.options[idx].Label
	}
	return s.placeholder
}

// View renders "Label  < Choice >" with the arrows shown only when focused.
func (s *Select) View(theme *styles.Theme) string {
	var b strings.Builder
	b.WriteString(theme.Label.Render(s.label))
	b.WriteString("\n")

	choice := s.currentLabel()
	switch {
	case s.disabled:
		b.WriteString(theme.Option.Faint(true).Render(choice))
	case s.focused:
		b.WriteString(theme.OptionFocused.Render("< " + choice + " >"))
	default:
		b.WriteString(theme.OptionSelected.Render(choice))
	}
	return b.String()
}
