// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides utility functions for txexport.
package util

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// RELIABILITY: Atomic write with fsync prevents half-written downloads
//
// AtomicWriteReader streams r into path using the following pattern:
// 1. Copy into a temporary file in the same directory
// 2. Sync the data to disk using fsync
// 3. Close the file
// 4. Atomically rename the temp file to the target path
//
// A failed or interrupted copy leaves any previous file at path untouched.
// It returns the number of bytes written.
func AtomicWriteReader(path string, r io.Reader, perm os.FileMode) (int64, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("failed to get absolute path: %w", err)
	}

	dir := filepath.Dir(absPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create parent directory: %w", err)
	}

	// Same directory keeps the rename on one filesystem
	f, err := os.CreateTemp(dir, ".tmp-")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := f.Name()

	success := false
	defer func() {
		if !success {
			f.Close()
			os.Remove(tempPath)
		}
	}()

	n, err := io.Copy(f, r)
	if err != nil {
		return n, fmt.Errorf("failed to write data: %w", err)
	}

	if err := f.Sync(); err != nil {
		return n, fmt.Errorf("failed to sync data to disk: %w", err)
	}

	// Close before rename - required on Windows
	if err := f.Close(); err != nil {
		return n, fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tempPath, perm); err != nil {
		return n, fmt.Errorf("failed to set file permissions: %w", err)
	}

	if err := os.Rename(tempPath, absPath); err != nil {
		return n, fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return n, nil
}

// AtomicWriteFile is AtomicWriteReader for an in-memory payload.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	_, err := AtomicWriteReader(path, bytes.NewReader(data), perm)
	return err
}
