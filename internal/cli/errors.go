// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error handling and exit codes for the txexport commands.
//
// Commands always return errors; Execute prints them once and maps them to
// an exit code.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/jeranaias/txexport/internal/export"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitAuthError indicates a missing or rejected access token
	ExitAuthError = 4
	// ExitNetworkError indicates the endpoint could not be reached
	ExitNetworkError = 5
	// ExitTooLarge indicates the export was refused by the row guard
	ExitTooLarge = 6
	// ExitNotFoundError indicates the account or host does not exist
	ExitNotFoundError = 7
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// errConfig marks configuration failures for exit code mapping.
var errConfig = errors.New("configuration error")

// ValidationError represents a bad flag or argument.
type ValidationError struct {
	Field   string // Flag or argument that failed validation
	Value   string // Value that was provided
	Reason  string // Why validation failed
	Example string // Example of valid value (optional)
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// NewValidationError creates a new validation error.
func NewValidationError(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// NewValidationErrorWithExample creates a validation error with an example.
func NewValidationErrorWithExample(field, value, reason, example string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason, Example: example}
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// DisplayError prints err the way every command reports failures. Export
// failures use the same wording as the dialog's notifications.
func DisplayError(w io.Writer, err error) {
	if err == nil {
		return
	}
	msg := err.Error()
	if isExportError(err) {
		msg = export.FormatError(err)
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[ERROR]"), msg)
}

// DisplayWarning prints a non-fatal problem.
func DisplayWarning(w io.Writer, msg string) {
	fmt.Fprintf(w, "%s %s\n", WarningStyle.Render("[WARN]"), msg)
}

func isExportError(err error) bool {
	var statusErr *export.HTTPStatusError
	return errors.Is(err, export.ErrTooManyRows) ||
		errors.Is(err, export.ErrUnauthorized) ||
		errors.Is(err, export.ErrNotFound) ||
		errors.As(err, &statusErr)
}

// GetExitCode determines the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var validationErr *ValidationError
	var ttyErr *TTYRequiredError
	var netErr net.Error
	switch {
	case errors.As(err, &validationErr), errors.As(err, &ttyErr):
		return ExitUsageError
	case errors.Is(err, errConfig):
		return ExitConfigError
	case errors.Is(err, export.ErrNoAccessToken), errors.Is(err, export.ErrUnauthorized):
		return ExitAuthError
	case errors.Is(err, export.ErrTooManyRows):
		return ExitTooLarge
	case errors.Is(err, export.ErrNotFound):
		return ExitNotFoundError
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeoutError
	case errors.As(err, &netErr):
		if netErr.Timeout() {
			return ExitTimeoutError
		}
		return ExitNetworkError
	}
	return ExitGeneralError
}

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
