// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/txexport/internal/form"
	"github.com/jeranaias/txexport/internal/period"
)

// =============================================================================
// LIMITS
// =============================================================================

const (
	// MaxRows is the hard stop: larger exports are refused before download.
	MaxRows = 100_000

	// WarnRows is the threshold above which the duration banner is shown.
	WarnRows = 10_000

	// FetchAllWindow bounds account exports that ask for unpaginated results.
	FetchAllWindow = 62 * 24 * time.Hour

	// RowsHeader carries the expected row count on the preflight response.
	RowsHeader = "X-Exported-Rows"
)

// =============================================================================
// EXPORT TARGET
// =============================================================================

// Target is what gets exported: one account, or a host report covering the
// host's hosted accounts (optionally narrowed to Accounts).
type Target struct {
	// Slug is the account the dialog was opened from.
	Slug string
	// HostSlug, when set, turns the export into a host report.
	HostSlug string
	// Accounts narrows a host report to these member account slugs.
	Accounts []string
}

// IsHostReport reports whether the target is a host report.
func (t Target) IsHostReport() bool {
	return t.HostSlug != ""
}

// PathSlug returns the slug used in the endpoint path and filename.
func (t Target) PathSlug() string {
	if t.IsHostReport() {
		return t.HostSlug
	}
	return t.Slug
}

// Validate checks the slugs are usable in a URL path.
func (t Target) Validate() error {
	if t.PathSlug() == "" {
		return errors.New("export target needs an account or host slug")
	}
	for _, s := range append([]string{t.Slug, t.HostSlug}, t.Accounts...) {
		if strings.ContainsAny(s, "/?#") {
			return fmt.Errorf("invalid slug %q", s)
		}
	}
	if !t.IsHostReport() && len(t.Accounts) > 0 {
		return errors.New("account filters only apply to host reports")
	}
	return nil
}

// =============================================================================
// REQUEST
// =============================================================================

// Request is everything the URL builder needs, captured at submit time.
type Request struct {
	Target   Target
	Interval period.Interval
	Fields   form.Selection
}

// RequestFromForm snapshots the dialog state.
func RequestFromForm(target Target, state *form.State) Request {
	return Request{
		Target:   target,
		Interval: state.Interval(),
		Fields:   state.Fields(),
	}
}

// =============================================================================
// FILENAME
// =============================================================================

// Filename returns the download name without extension:
// "{slug}-transactions" or "{host}-host-transactions", suffixed with
// "-{from}-{until}" when a start date is set.
func Filename(target Target, interval period.Interval, now time.Time) string {
	var name string
	if target.IsHostReport() {
		name = sanitizeFilename(target.HostSlug) + "-host-transactions"
	} else {
		name = sanitizeFilename(target.Slug) + "-transactions"
	}

	interval = interval.Normalize()
	if interval.From != "" {
		name += "-" + sanitizeFilename(interval.From) + "-" + sanitizeFilename(interval.Until(now))
	}
	return name
}

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	replacer := map[rune]rune{
		'/':  '-',
		'\\': '-',
		':':  '-',
		'*':  '-',
		'?':  '-',
		'"':  '-',
		'<':  '-',
		'>':  '-',
		'|':  '-',
		' ':  '_',
		'\t': '_',
		'\n': '_',
		'\r': '_',
	}

	result := make([]rune, 0, len(s))
	for _, r := range s {
		if replacement, found := replacer[r]; found {
			result = append(result, replacement)
		} else if r < 32 || r == 127 {
			result = append(result, '-')
		} else {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "export"
	}
	return string(result)
}
