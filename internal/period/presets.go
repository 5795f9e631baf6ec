// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package period

import "time"

// PresetKey names a quick-select range.
type PresetKey string

// Preset keys, in the order the selector lists them.
const (
	PresetAllTime     PresetKey = "allTime"
	PresetThisMonth   PresetKey = "thisMonth"
	PresetPastMonth   PresetKey = "pastMonth"
	PresetThisQuarter PresetKey = "thisQuarter"
	PresetPastQuarter PresetKey = "pastQuarter"
	PresetThisYear    PresetKey = "thisYear"
	PresetPastYear    PresetKey = "pastYear"

	// PresetCustom is reported when the interval matches no preset.
	PresetCustom PresetKey = "custom"
)

// Preset resolves a label to a concrete interval relative to a clock.
type Preset struct {
	Key         PresetKey
	Label       string
	GetInterval func(now time.Time) Interval
}

var presets = []Preset{
	{PresetAllTime, "All time", func(time.Time) Interval { return Interval{} }},
	{PresetThisMonth, "This month", func(now time.Time) Interval {
		return Interval{From: format(monthStart(now))}
	}},
	{PresetPastMonth, "Past month", func(now time.Time) Interval {
		start := monthStart(now).AddDate(0, -1, 0)
		return Interval{From: format(start), To: format(start.AddDate(0, 1, -1))}
	}},
	{PresetThisQuarter, "This quarter", func(now time.Time) Interval {
		return Interval{From: format(quarterStart(now))}
	}},
	{PresetPastQuarter, "Past quarter", func(now time.Time) Interval {
		start := quarterStart(now).AddDate(0, -3, 0)
		return Interval{From: format(start), To: format(start.AddDate(0, 3, -1))}
	}},
	{PresetThisYear, "This year", func(now time.Time) Interval {
		return Interval{From: format(yearStart(now))}
	}},
	{PresetPastYear, "Past year", func(now time.Time) Interval {
		start := yearStart(now).AddDate(-1, 0, 0)
		return Interval{From: format(start), To: format(start.AddDate(1, 0, -1))}
	}},
}

// Presets returns the quick-select table in display order.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// Lookup returns the preset registered under key.
func Lookup(key PresetKey) (Preset, bool) {
	for _, p := range presets {
		if p.Key == key {
			return p, true
		}
	}
	return Preset{}, false
}

// Resolve returns the interval for key, or false for unknown keys.
func Resolve(key PresetKey, now time.Time) (Interval, bool) {
	p, ok := Lookup(key)
	if !ok {
		return Interval{}, false
	}
	return p.GetInterval(now), true
}

// PresetForInterval finds the preset whose interval equals i. An open end on
// the preset also matches an explicit end of today, since the dialog fills an
// unset end with the current date.
func PresetForInterval(i Interval, now time.Time) PresetKey {
	i = i.Normalize()
	today := format(now)
	for _, p := range presets {
		want := p.GetInterval(now)
		if want.From != i.From {
			continue
		}
		if want.To == i.To || (want.To == "" && i.To == today) {
			return p.Key
		}
	}
	return PresetCustom
}

// LabelFor returns the display label of key.
func LabelFor(key PresetKey) string {
	if p, ok := Lookup(key); ok {
		return p.Label
	}
	return "Custom"
}

func format(t time.Time) string {
	return t.Format(DateLayout)
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func quarterStart(t time.Time) time.Time {
	month := ((t.Month()-1)/3)*3 + 1
	return time.Date(t.Year(), month, 1, 0, 0, 0, 0, t.Location())
}

func yearStart(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
}
