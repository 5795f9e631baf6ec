// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package form holds the mutable state behind the export dialog.
//
// State is owned by a single goroutine (the Bubble Tea update loop, or the
// headless command) and is not safe for concurrent use. Every mutation calls
// the registered change listeners so views can redraw.
package form

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/txexport/internal/catalog"
	"github.com/jeranaias/txexport/internal/period"
)

// =============================================================================
// FIELD MODE
// =============================================================================

// FieldMode selects between the default field subset and a custom pick.
type FieldMode int

const (
	FieldModeDefault FieldMode = iota
	FieldModeCustom
)

// FieldModes lists the modes in selector order.
var FieldModes = []FieldMode{FieldModeDefault, FieldModeCustom}

// String returns the selector label.
func (m FieldMode) String() string {
	switch m {
	case FieldModeCustom:
		return "Custom"
	default:
		return "Default"
	}
}

// ParseFieldMode accepts "default" or "custom" in any case.
func ParseFieldMode(s string) (FieldMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return FieldModeDefault, nil
	case "custom":
		return FieldModeCustom, nil
	}
	return FieldModeDefault, fmt.Errorf("unknown field mode %q (want default or custom)", s)
}

// =============================================================================
// STATE
// =============================================================================

// State is the export dialog's form. The zero value is not usable; call New.
type State struct {
	interval      period.Interval
	fieldMode     FieldMode
	fields        Selection
	validInterval bool
	loading       bool
	exportedRows  int

	now       func() time.Time
	listeners []func(*State)
}

// New creates the form for a dialog opened with the given range. An unset end
// defaults to today.
func New(initial period.Interval, now func() time.Time) *State {
	if now == nil {
		now = time.Now
	}
	initial = initial.Normalize()
	if initial.To == "" {
		initial.To = now().Format(period.DateLayout)
	}
	return &State{
		interval:      initial,
		fieldMode:     FieldModeDefault,
		fields:        DefaultSelection(),
		validInterval: period.Validate(initial) == nil,
		now:           now,
	}
}

// OnChange registers fn to run after every mutation.
func (s *State) OnChange(fn func(*State)) {
	s.listeners = append(s.listeners, fn)
}

func (s *State) changed() {
	for _, fn := range s.listeners {
		fn(s)
	}
}

// Now returns the form's clock reading.
func (s *State) Now() time.Time {
	return s.now()
}

// Interval returns the current date range.
func (s *State) Interval() period.Interval {
	return s.interval
}

// Preset returns the preset matching the current range, or PresetCustom.
func (s *State) Preset() period.PresetKey {
	return period.PresetForInterval(s.interval, s.now())
}

// ApplyPreset overwrites the range with the preset's interval.
func (s *State) ApplyPreset(key period.PresetKey) bool {
	interval, ok := period.Resolve(key, s.now())
	if !ok {
		return false
	}
	s.interval = interval
	s.validInterval = true
	s.changed()
	return true
}

// SetInterval records a manual edit. Validity is reported separately by the
// period filter through SetValidInterval.
func (s *State) SetInterval(i period.Interval) {
	s.interval = i
	s.changed()
}

// SetValidInterval is the period filter's validity callback.
func (s *State) SetValidInterval(valid bool) {
	if s.validInterval == valid {
		return
	}
	s.validInterval = valid
	s.changed()
}

// ValidInterval reports whether the current range was accepted.
func (s *State) ValidInterval() bool {
	return s.validInterval
}

// FieldMode returns the current field mode.
func (s *State) FieldMode() FieldMode {
	return s.fieldMode
}

// SetFieldMode switches mode. Switching to default always resets the
// selection to the default subset, whatever was picked before.
func (s *State) SetFieldMode(m FieldMode) {
	s.fieldMode = m
	if m == FieldModeDefault {
		s.fields = DefaultSelection()
	}
	s.changed()
}

// ToggleField checks or unchecks a field. Only custom mode accepts toggles.
func (s *State) ToggleField(id catalog.FieldID, checked bool) bool {
	if s.fieldMode != FieldModeCustom {
		return false
	}
	s.fields.Set(id, checked)
	s.changed()
	return true
}

// Fields returns a copy of the current selection.
func (s *State) Fields() Selection {
	return s.fields.Clone()
}

// HasField reports whether id is selected.
func (s *State) HasField(id catalog.FieldID) bool {
	return s.fields.Has(id)
}

// Loading reports whether an export is in flight.
func (s *State) Loading() bool {
	return s.loading
}

// CanExport reports whether the submit button is enabled.
func (s *State) CanExport() bool {
	return s.validInterval && !s.loading
}

// BeginExport moves to loading. It refuses while already loading or while the
// range is invalid, which keeps the trigger non-reentrant.
func (s *State) BeginExport() bool {
	if !s.CanExport() {
		return false
	}
	s.loading = true
	s.changed()
	return true
}

// EndExport returns to idle after either outcome.
func (s *State) EndExport() {
	s.loading = false
	s.changed()
}

// ExportedRows returns the last row count reported by the preflight.
func (s *State) ExportedRows() int {
	return s.exportedRows
}

// SetExportedRows stores the preflight row count.
func (s *State) SetExportedRows(rows int) {
	s.exportedRows = rows
	s.changed()
}
