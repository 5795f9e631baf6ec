// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

// Schema creates the export history table. Times are unix nanoseconds so
// ordering is numeric.
const Schema = `
CREATE TABLE IF NOT EXISTS exports (
    id          TEXT PRIMARY KEY,
    started_at  INTEGER NOT NULL,
    finished_at INTEGER NOT NULL,
    slug        TEXT NOT NULL,
    kind        TEXT NOT NULL,
    accounts    TEXT NOT NULL DEFAULT '',
    url         TEXT NOT NULL,
    path        TEXT NOT NULL DEFAULT '',
    row_count   INTEGER NOT NULL DEFAULT 0,
    bytes       INTEGER NOT NULL DEFAULT 0,
    outcome     TEXT NOT NULL,
    error       TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_exports_started ON exports(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_exports_slug ON exports(slug);
`
