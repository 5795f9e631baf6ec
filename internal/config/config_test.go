// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateHome points the home directory at a temp dir so tests never read a
// developer's real ~/.txexport.
func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	for _, key := range []string{"TXEXPORT_REST_URL", "TXEXPORT_FORMAT", "TXEXPORT_OUTPUT_DIR", "TXEXPORT_LOG_LEVEL", "TXEXPORT_NO_HISTORY"} {
		t.Setenv(key, "")
	}
	return home
}

func TestConfig_Default(t *testing.T) {
	home := isolateHome(t)
	cfg := Default()

	assert.Equal(t, "https://rest.opencollective.com", cfg.API.BaseURL)
	assert.Equal(t, 100_000, cfg.Export.MaxRows)
	assert.Equal(t, 10_000, cfg.Export.WarnRows)
	assert.Equal(t, filepath.Join(home, ".txexport", "token"), cfg.Auth.TokenFile)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		field   string
		wantErr bool
	}{
		{"valid default config", func(c *Config) {}, "", false},
		{"bad base url", func(c *Config) { c.API.BaseURL = "not a url" }, "api.base_url", true},
		{"missing base url", func(c *Config) { c.API.BaseURL = "" }, "api.base_url", true},
		{"unknown format", func(c *Config) { c.API.Format = "xlsx" }, "api.format", true},
		{"zero timeout", func(c *Config) { c.API.TimeoutSecs = 0 }, "api.timeout_secs", true},
		{"negative rate", func(c *Config) { c.API.RequestsPerSecond = -1 }, "api.requests_per_second", true},
		{"max rows above backend limit", func(c *Config) { c.Export.MaxRows = 200_000 }, "export.max_rows", true},
		{"warn above max", func(c *Config) { c.Export.MaxRows = 5000 }, "export.warn_rows", true},
		{"lower max rows", func(c *Config) { c.Export.MaxRows = 50_000 }, "", false},
		{"bad log level", func(c *Config) { c.Log.Level = "chatty" }, "log.level", true},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme", true},
		{"history without path", func(c *Config) { c.History.DatabasePath = "" }, "history.database_path", true},
		{"negative history cap", func(c *Config) { c.History.MaxEntries = -1 }, "history.max_entries", true},
		{"history disabled without path", func(c *Config) {
			c.History.Enabled = false
			c.History.DatabasePath = ""
		}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			var verrs ValidateErrors
			require.True(t, errors.As(err, &verrs))
			fields := make([]string, 0, len(verrs))
			for _, v := range verrs {
				fields = append(fields, v.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestConfig_LoadTOML(t *testing.T) {
	home := isolateHome(t)
	dir := filepath.Join(home, ".txexport")
	require.NoError(t, os.MkdirAll(dir, 0700))

	content := `
[api]
base_url = "https://rest.example.org/"
format = "CSV"

[export]
output_dir = "~/Downloads"
max_rows = 50000

[log]
level = "debug"
`
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://rest.example.org", cfg.API.BaseURL)
	assert.Equal(t, "csv", cfg.API.Format)
	assert.Equal(t, filepath.Join(home, "Downloads"), cfg.Export.OutputDir)
	assert.Equal(t, 50000, cfg.Export.MaxRows)
	assert.Equal(t, 10_000, cfg.Export.WarnRows, "unset keys keep defaults")
	assert.Equal(t, "debug", cfg.Log.Level)

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}
}

func TestConfig_LoadInvalidFileFallsBack(t *testing.T) {
	home := isolateHome(t)
	dir := filepath.Join(home, ".txexport")
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[api\n"), 0600))

	cfg, err := Load()
	assert.Error(t, err, "decode error is reported")
	require.NotNil(t, cfg, "defaults are still returned")
	assert.Equal(t, Default().API.BaseURL, cfg.API.BaseURL)
}

func TestConfig_EnvOverrides(t *testing.T) {
	isolateHome(t)
	t.Setenv("TXEXPORT_REST_URL", "https://staging.example.org")
	t.Setenv("TXEXPORT_FORMAT", "csv")
	t.Setenv("TXEXPORT_OUTPUT_DIR", "/srv/exports")
	t.Setenv("TXEXPORT_LOG_LEVEL", "warn")
	t.Setenv("TXEXPORT_NO_HISTORY", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://staging.example.org", cfg.API.BaseURL)
	assert.Equal(t, "csv", cfg.API.Format)
	assert.Equal(t, "/srv/exports", cfg.Export.OutputDir)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.False(t, cfg.History.Enabled)
}

func TestConfig_DotEnv(t *testing.T) {
	home := isolateHome(t)
	os.Unsetenv("TXEXPORT_FORMAT")
	dir := filepath.Join(home, ".txexport")
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TXEXPORT_FORMAT=csv\n"), 0600))
	t.Cleanup(func() { os.Unsetenv("TXEXPORT_FORMAT") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "csv", cfg.API.Format)
}

func TestConfig_SaveAndLoadFromPath(t *testing.T) {
	isolateHome(t)
	path := filepath.Join(t.TempDir(), "custom.toml")

	cfg := Default()
	cfg.Export.OutputDir = "/data/exports"
	cfg.UI.Theme = "dark"
	require.NoError(t, SaveTOML(cfg, path))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/exports", loaded.Export.OutputDir)
	assert.Equal(t, "dark", loaded.UI.Theme)

	jsonPath := filepath.Join(t.TempDir(), "custom.json")
	require.NoError(t, SaveToPath(cfg, jsonPath))
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{"), "json suffix selects JSON")
	loaded, err = LoadFromPath(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "/data/exports", loaded.Export.OutputDir)

	_, err = LoadFromPath(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestConfig_SaveCreatesConfigDir(t *testing.T) {
	isolateHome(t)
	dir, err := ConfigDir()
	require.NoError(t, err)
	_, err = os.Stat(dir)
	require.True(t, os.IsNotExist(err))

	cfg := Default()
	cfg.UI.Theme = "light"
	require.NoError(t, Save(cfg))

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "light", loaded.UI.Theme)
}

func TestConfig_GetSet(t *testing.T) {
	isolateHome(t)
	cfg := Default()

	val, err := cfg.Get("api.format")
	require.NoError(t, err)
	assert.Equal(t, "txt", val)

	require.NoError(t, cfg.Set("export.max_rows", "25000"))
	assert.Equal(t, 25000, cfg.Export.MaxRows)

	require.NoError(t, cfg.Set("history.enabled", "no"))
	assert.False(t, cfg.History.Enabled)

	require.NoError(t, cfg.Set("api.requests_per_second", "0.5"))
	assert.Equal(t, 0.5, cfg.API.RequestsPerSecond)

	_, err = cfg.Get("invalid.key")
	assert.Error(t, err)
	_, err = cfg.Get("api.format.extra")
	assert.Error(t, err)
	assert.Error(t, cfg.Set("export.max_rows", "many"))

	for _, key := range GetAllKeys() {
		_, err := cfg.Get(key)
		assert.NoError(t, err, key)
	}
}

func TestConfig_Clone(t *testing.T) {
	original := Default()
	clone := original.Clone()
	clone.API.Format = "csv"
	assert.Equal(t, "txt", original.API.Format)
}

func TestExpandPath(t *testing.T) {
	home := isolateHome(t)
	assert.Equal(t, filepath.Join(home, "x"), ExpandPath("~/x"))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, "/abs", ExpandPath("/abs"))
	assert.Equal(t, "~user/x", ExpandPath("~user/x"))
}
