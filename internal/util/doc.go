// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across txexport.
//
// # Key Functions
//
// File Operations:
//   - AtomicWriteReader: crash-safe streaming write with fsync and rename
//   - AtomicWriteFile: the same for an in-memory payload
//
// Display Width:
//   - TruncateWidth, PadRight, StringWidth: column-aware helpers backed by
//     go-runewidth
//
// # Usage
//
//	// Save a download without leaving a partial file behind
//	n, err := util.AtomicWriteReader(path, resp.Body, 0644)
//
//	// Fit a label into a 24 column grid cell
//	cell := util.PadRight(label, 24)
package util
