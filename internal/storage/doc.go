// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage keeps a local history of export attempts in SQLite.
//
// HistoryStore implements export.Recorder, so passing it to export.New logs
// every attempt that reached the endpoint: successes, refusals over the row
// limit and failures.
//
//	store, err := storage.OpenHistoryStore(cfg.History.DatabasePath)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//	entries, err := store.List(ctx, 20)
package storage
