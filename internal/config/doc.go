// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for txexport.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// .env files, environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - APIConfig: REST endpoint, format, timeout and rate limit
//   - ExportConfig: Output directory and row guards
//   - ValidateErrors: Every invalid field, keyed by its TOML name
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (TXEXPORT_*), including ones set by .env files
//   - ~/.txexport/config.toml
//   - ~/.txexport/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	builder := export.NewURLBuilder(cfg.API.BaseURL)
package config
