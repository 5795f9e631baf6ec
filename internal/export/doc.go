// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export builds transaction export requests and runs them against
// the REST export endpoint.
//
// An export is two requests to the same URL: a HEAD whose X-Exported-Rows
// header announces the row count, and a GET for the file. Exports above
// MaxRows are refused after the HEAD.
//
// # Key Types
//
//   - Target: account or host report being exported
//   - URLBuilder: derives the endpoint URL and query from a Request
//   - Client: HTTP plumbing (rate limited, logs method/path/status only)
//   - Exporter: Preflight, Download and Run
//
// # Usage
//
//	exp, err := export.New(export.Options{
//	    Client:    export.NewClient(),
//	    Builder:   export.NewURLBuilder("https://rest.example.org"),
//	    Tokens:    tokens,
//	    OutputDir: "~/Downloads",
//	})
//	plan, err := exp.Preflight(ctx, req)
//	if err != nil {
//	    return export.FormatError(err)
//	}
//	res, err := exp.Download(ctx, plan, nil)
package export
