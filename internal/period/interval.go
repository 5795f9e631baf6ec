// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package period models the date range of an export and its quick-select
// presets.
package period

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and filename format for dates.
const DateLayout = "2006-01-02"

// acceptedLayouts are tried in order when parsing user or caller input.
var acceptedLayouts = []string{
	DateLayout,
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

// Errors reported by Validate.
var (
	ErrInvalidFrom = errors.New("invalid start date")
	ErrInvalidTo   = errors.New("invalid end date")
	ErrReversed    = errors.New("start date is after end date")
)

// Interval is a {from, to} pair of date strings. Either side may be empty:
// an empty From means "since the beginning", an empty To means "until now".
type Interval struct {
	From string
	To   string
}

// IsZero reports whether neither bound is set.
func (i Interval) IsZero() bool {
	return i.From == "" && i.To == ""
}

// Normalize trims surrounding whitespace on both bounds.
func (i Interval) Normalize() Interval {
	return Interval{From: strings.TrimSpace(i.From), To: strings.TrimSpace(i.To)}
}

// String renders the interval for logs and hints.
func (i Interval) String() string {
	from, to := i.From, i.To
	if from == "" {
		from = "beginning"
	}
	if to == "" {
		to = "now"
	}
	return from + " .. " + to
}

// ParseDate parses s with any of the accepted layouts. Date-only values are
// interpreted as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range acceptedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a date (want YYYY-MM-DD)", s)
}

// Validate checks that both bounds parse and that From is not after To.
func Validate(i Interval) error {
	i = i.Normalize()

	var from, to time.Time
	var err error
	if i.From != "" {
		if from, err = ParseDate(i.From); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidFrom, err)
		}
	}
	if i.To != "" {
		if to, err = ParseDate(i.To); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTo, err)
		}
	}
	if i.From != "" && i.To != "" && from.After(to) {
		return fmt.Errorf("%w (%s > %s)", ErrReversed, i.From, i.To)
	}
	return nil
}

// Span returns the length of the interval, measuring an open end against
// now. ok is false when From is unset or either bound fails to parse.
func (i Interval) Span(now time.Time) (span time.Duration, ok bool) {
	i = i.Normalize()
	if i.From == "" {
		return 0, false
	}
	from, err := ParseDate(i.From)
	if err != nil {
		return 0, false
	}
	to := now
	if i.To != "" {
		if to, err = ParseDate(i.To); err != nil {
			return 0, false
		}
	}
	return to.Sub(from), true
}

// Until returns the end bound for display, falling back to now's date.
func (i Interval) Until(now time.Time) string {
	if to := strings.TrimSpace(i.To); to != "" {
		return to
	}
	return now.Format(DateLayout)
}
