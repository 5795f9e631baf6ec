// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"net/url"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Error variables for the export flow.
var (
	// ErrNoAccessToken means no token is stored. The dialog is only shown to
	// signed-in users, so callers treat this as a silent no-op.
	ErrNoAccessToken = errors.New("no access token available")

	// ErrTooManyRows indicates the preflight count is above MaxRows.
	ErrTooManyRows = errors.New("too many rows to export")

	// ErrUnauthorized indicates the token was rejected (401/403).
	ErrUnauthorized = errors.New("not authorized")

	// ErrNotFound indicates the account or host does not exist (404).
	ErrNotFound = errors.New("account not found")
)

// RowLimitError carries the count that tripped the hard limit.
type RowLimitError struct {
	Rows  int
	Limit int
}

// Error implements the error interface.
func (e *RowLimitError) Error() string {
	return fmt.Sprintf("transactions count %d above limit %d", e.Rows, e.Limit)
}

// Unwrap lets errors.Is match ErrTooManyRows.
func (e *RowLimitError) Unwrap() error {
	return ErrTooManyRows
}

// HTTPStatusError represents a non-2xx answer from the export endpoint.
type HTTPStatusError struct {
	Method string
	Status int
	Body   string
}

// Error implements the error interface.
func (e *HTTPStatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s request failed (HTTP %d): %s", e.Method, e.Status, e.Body)
	}
	return fmt.Sprintf("%s request failed (HTTP %d)", e.Method, e.Status)
}

// =============================================================================
// USER-FACING MESSAGES
// =============================================================================

var printer = message.NewPrinter(language.English)

// FormatCount renders n with thousands separators.
func FormatCount(n int) string {
	return printer.Sprintf("%d", n)
}

// FormatError turns any failure of the export flow into notification text.
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	var limitErr *RowLimitError
	var statusErr *HTTPStatusError
	var netErr net.Error
	var urlErr *url.Error

	switch {
	case errors.As(err, &limitErr):
		return fmt.Sprintf("Sorry, the requested file would take too long to be exported. Transactions count %s above limit.",
			FormatCount(limitErr.Rows))
	case errors.Is(err, ErrUnauthorized):
		return "You are not authorized to export these transactions. Sign in again and retry."
	case errors.Is(err, ErrNotFound):
		return "Account not found. Check the slug and retry."
	case errors.Is(err, context.Canceled):
		return "Export cancelled."
	case errors.Is(err, context.DeadlineExceeded):
		return "The export service took too long to answer. Please retry."
	case errors.As(err, &statusErr):
		return fmt.Sprintf("The export service returned HTTP %d.", statusErr.Status)
	case errors.As(err, &netErr), errors.As(err, &urlErr):
		return "Network error: " + rootCause(err).Error()
	}

	msg := err.Error()
	if msg == "" {
		return "Unknown error"
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

// =============================================================================
// DURATION ESTIMATE
// =============================================================================

// ShouldWarn reports whether the duration banner applies to rows.
func ShouldWarn(rows int) bool {
	return rows > WarnRows
}

// ExpectedMinutes estimates the export duration at roughly a thousand rows
// per second, never less than a minute.
func ExpectedMinutes(rows int) int {
	minutes := int(math.Round(float64(rows) / 1000 / 60))
	if minutes < 1 {
		return 1
	}
	return minutes
}

// WarningMessage is the banner text shown while a large export downloads.
func WarningMessage(rows int) string {
	minutes := ExpectedMinutes(rows)
	return fmt.Sprintf("We're exporting %s %s, this can take up to %d %s.",
		FormatCount(rows), plural(rows, "row", "rows"),
		minutes, plural(minutes, "minute", "minutes"))
}

func plural(n int, one, other string) string {
	if n == 1 {
		return one
	}
	return other
}
