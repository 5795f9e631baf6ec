// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package catalog defines the transaction fields the export endpoint can emit.
//
// The catalog is fixed and ordered. Two subsets matter to callers:
//
//   - All: every field, selectable in custom mode
//   - Default: the 27 fields pre-selected when the dialog opens
//
// Serialized field lists always follow catalog order, so two selections with
// the same members produce the same query string.
package catalog
