// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth supplies the bearer token for the export endpoint.
//
// Tokens come from the TXEXPORT_ACCESS_TOKEN environment variable or from a
// 0600 file under ~/.txexport. Callers combine sources with Chain:
//
//	tokens := auth.Chain{
//	    auth.EnvProvider{},
//	    auth.StoreProvider{Store: auth.NewFileTokenStore(path)},
//	}
package auth
