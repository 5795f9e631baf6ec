// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/txexport/internal/auth"
	"github.com/jeranaias/txexport/internal/catalog"
	"github.com/jeranaias/txexport/internal/config"
	"github.com/jeranaias/txexport/internal/export"
	"github.com/jeranaias/txexport/internal/form"
	"github.com/jeranaias/txexport/internal/period"
	"github.com/jeranaias/txexport/internal/storage"
)

const csvPayload = "date,amount,currency\n2024-01-02,100,USD\n"

var cliNow = time.Date(2024, 5, 17, 14, 30, 0, 0, time.UTC)

// =============================================================================
// TEST HARNESS
// =============================================================================

type fakeREST struct {
	mu      sync.Mutex
	rows    string
	methods []string
	paths   []string
	queries []string
}

func (f *fakeREST) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.methods = append(f.methods, r.Method)
	f.paths = append(f.paths, r.URL.Path)
	f.queries = append(f.queries, r.URL.RawQuery)
	rows := f.rows
	f.mu.Unlock()

	w.Header().Set(export.RowsHeader, rows)
	if r.Method == http.MethodGet {
		w.Header().Set("Content-Length", fmt.Sprint(len(csvPayload)))
		io.WriteString(w, csvPayload)
	}
}

func (f *fakeREST) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.methods...)
}

type harness struct {
	app *App
	cfg *config.Config
	out *bytes.Buffer
	err *bytes.Buffer
}

func newHarness(t *testing.T, baseURL string) *harness {
	t.Helper()
	t.Setenv(auth.EnvVar, "")
	dir := t.TempDir()

	cfg := config.Default()
	cfg.API.BaseURL = baseURL
	cfg.API.RequestsPerSecond = 0
	cfg.Auth.TokenFile = filepath.Join(dir, "token")
	cfg.Auth.WatchTokenFile = false
	cfg.Export.OutputDir = filepath.Join(dir, "out")
	cfg.History.DatabasePath = filepath.Join(dir, "history.db")
	cfg.Log.File = ""
	cfg.Log.Level = "error"
	require.NoError(t, os.MkdirAll(cfg.Export.OutputDir, 0700))

	h := &harness{cfg: cfg, out: &bytes.Buffer{}, err: &bytes.Buffer{}}
	h.app = &App{
		In:         strings.NewReader(""),
		Out:        h.out,
		Err:        h.err,
		Now:        func() time.Time { return cliNow },
		LoadConfig: func() (*config.Config, error) { return h.cfg.Clone(), nil },
	}
	return h
}

func (h *harness) run(args ...string) int {
	h.out.Reset()
	h.err.Reset()
	return h.app.Run(args)
}

func startREST(t *testing.T, rows string) (*fakeREST, *httptest.Server) {
	t.Helper()
	rest := &fakeREST{rows: rows}
	srv := httptest.NewServer(rest)
	t.Cleanup(srv.Close)
	return rest, srv
}

// =============================================================================
// EXPORT COMMAND
// =============================================================================

func TestExport_DownloadsAndRecords(t *testing.T) {
	rest, srv := startREST(t, "12000")
	h := newHarness(t, srv.URL)
	t.Setenv(auth.EnvVar, "secret")

	code := h.run("export", "--account", "acme", "--from", "2024-01-01", "--to", "2024-01-31", "-q")
	require.Equal(t, ExitSuccess, code, h.err.String())

	assert.Equal(t, []string{http.MethodHead, http.MethodGet}, rest.calls())
	want := filepath.Join(h.cfg.Export.OutputDir, "acme-transactions-2024-01-01-2024-01-31.csv")
	assert.Equal(t, want, strings.TrimSpace(h.out.String()))
	data, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, csvPayload, string(data))

	assert.Contains(t, h.err.String(), "12,000")
	assert.Contains(t, h.err.String(), "We're exporting 12,000 rows, this can take up to 1 minute.")

	hs, err := storage.OpenHistoryStore(h.cfg.History.DatabasePath)
	require.NoError(t, err)
	defer hs.Close()
	entries, err := hs.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, export.OutcomeSuccess, entries[0].Outcome)
	assert.Equal(t, "acme", entries[0].Slug)

	code = h.run("history")
	require.Equal(t, ExitSuccess, code, h.err.String())
	assert.Contains(t, h.out.String(), "acme")
	assert.Contains(t, h.out.String(), "success")

	code = h.run("history", "show", entries[0].ID[:8])
	require.Equal(t, ExitSuccess, code, h.err.String())
	assert.Contains(t, h.out.String(), want)
}

func TestExport_OutputFlagOverridesConfig(t *testing.T) {
	_, srv := startREST(t, "10")
	h := newHarness(t, srv.URL)
	t.Setenv(auth.EnvVar, "secret")
	dir := t.TempDir()

	code := h.run("export", "--host", "opensource", "--accounts", "acme, babel", "--preset", "pastMonth", "-o", dir, "-q")
	require.Equal(t, ExitSuccess, code, h.err.String())

	want := filepath.Join(dir, "opensource-host-transactions-2024-04-01-2024-04-30.csv")
	assert.Equal(t, want, strings.TrimSpace(h.out.String()))
	assert.NotContains(t, h.err.String(), "We're exporting", "small exports have no notice")
}

func TestExport_EmptyFieldListOmitsFields(t *testing.T) {
	rest, srv := startREST(t, "10")
	h := newHarness(t, srv.URL)
	t.Setenv(auth.EnvVar, "secret")

	code := h.run("export", "--account", "acme", "--fields", ",", "-q")
	require.Equal(t, ExitSuccess, code, h.err.String())

	rest.mu.Lock()
	defer rest.mu.Unlock()
	require.Len(t, rest.queries, 2)
	for _, q := range rest.queries {
		assert.NotContains(t, q, "fields=")
		assert.Contains(t, q, "includeChildrenTransactions=1")
	}
}

func TestExport_TooManyRows(t *testing.T) {
	rest, srv := startREST(t, "150000")
	h := newHarness(t, srv.URL)
	t.Setenv(auth.EnvVar, "secret")

	code := h.run("export", "--account", "acme", "-q")

	assert.Equal(t, ExitTooLarge, code)
	assert.Equal(t, []string{http.MethodHead}, rest.calls(), "nothing is downloaded")
	assert.Contains(t, h.err.String(), "150,000")
	assert.Empty(t, h.out.String())
}

func TestExport_NoToken(t *testing.T) {
	rest, srv := startREST(t, "1")
	h := newHarness(t, srv.URL)

	code := h.run("export", "--account", "acme", "-q")

	assert.Equal(t, ExitAuthError, code)
	assert.Empty(t, rest.calls())
	assert.Contains(t, h.err.String(), "txexport token set")
}

func TestExport_UsesStoredToken(t *testing.T) {
	_, srv := startREST(t, "1")
	h := newHarness(t, srv.URL)
	require.NoError(t, auth.NewFileTokenStore(h.cfg.Auth.TokenFile).Store("from-file"))

	code := h.run("export", "--account", "acme", "-q")
	assert.Equal(t, ExitSuccess, code, h.err.String())
}

func TestExport_FlagValidation(t *testing.T) {
	_, srv := startREST(t, "1")

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"no target", []string{"export"}, ExitUsageError},
		{"accounts without host", []string{"export", "--account", "acme", "--accounts", "x"}, ExitUsageError},
		{"unknown preset", []string{"export", "--account", "acme", "--preset", "lastWeek"}, ExitUsageError},
		{"reversed range", []string{"export", "--account", "acme", "--from", "2024-02-01", "--to", "2024-01-01"}, ExitUsageError},
		{"bad date", []string{"export", "--account", "acme", "--from", "yesterday"}, ExitUsageError},
		{"unknown field", []string{"export", "--account", "acme", "--fields", "date,nope"}, ExitUsageError},
		{"slash in slug", []string{"export", "--account", "a/b"}, ExitUsageError},
		{"preset and from", []string{"export", "--account", "acme", "--preset", "thisYear", "--from", "2024-01-01"}, ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, srv.URL)
			assert.Equal(t, tt.code, h.run(tt.args...), h.err.String())
			assert.Contains(t, h.err.String(), "[ERROR]")
		})
	}
}

func TestSelectionFromFlags(t *testing.T) {
	sel, err := selectionFromFlags("", false)
	require.NoError(t, err)
	assert.Equal(t, catalog.Default(), sel.IDs())

	sel, err = selectionFromFlags("", true)
	require.NoError(t, err)
	assert.Equal(t, catalog.Len(), sel.Len())

	sel, err = selectionFromFlags("currency, date ,currency", false)
	require.NoError(t, err)
	assert.Equal(t, []catalog.FieldID{"date", "currency"}, sel.IDs(), "catalog order, no duplicates")

	sel, err = selectionFromFlags(" , ", false)
	require.NoError(t, err)
	assert.Equal(t, 0, sel.Len(), "a list of blanks selects nothing")
	assert.Equal(t, form.DefaultSelection().IDs(), catalog.Default())

	_, err = selectionFromFlags("date,bogus", false)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "bogus", ve.Value)
}

func TestTargetFlags(t *testing.T) {
	tf := targetFlags{host: "opensource", accounts: []string{" acme", "babel", "", "acme"}}
	target, err := tf.target()
	require.NoError(t, err)
	assert.True(t, target.IsHostReport())
	assert.Equal(t, []string{"acme", "babel"}, target.Accounts)

	tf = targetFlags{account: "acme", preset: string(period.PresetThisQuarter)}
	i, err := tf.interval(cliNow)
	require.NoError(t, err)
	assert.Equal(t, period.Interval{From: "2024-04-01"}, i)

	tf = targetFlags{from: "2024-01-01"}
	i, err = tf.interval(cliNow)
	require.NoError(t, err)
	assert.Equal(t, "", i.To, "open end stays open until the form fills it")
}

// =============================================================================
// OTHER COMMANDS
// =============================================================================

func TestFields_Plain(t *testing.T) {
	h := newHarness(t, "https://example.invalid")

	require.Equal(t, ExitSuccess, h.run("fields", "--plain"))
	out := h.out.String()
	assert.Contains(t, out, "# Export fields")
	assert.Contains(t, out, "| 1 | `date` | Date |  |")
	assert.Contains(t, out, "`datetime` | Date & Time | default |")
	assert.Equal(t, catalog.Len()+1, strings.Count(out, "\n| "), "header plus one row per field")
}

func TestToken_SetShowClear(t *testing.T) {
	h := newHarness(t, "https://example.invalid")
	h.app.In = strings.NewReader("abcd1234efgh\n")

	require.Equal(t, ExitSuccess, h.run("token", "set"), h.err.String())
	assert.Contains(t, h.out.String(), "abcd****efgh")
	assert.NotContains(t, h.out.String(), "abcd1234efgh")

	require.Equal(t, ExitSuccess, h.run("token", "show"))
	assert.Contains(t, h.out.String(), h.cfg.Auth.TokenFile)
	assert.Contains(t, h.out.String(), "abcd****efgh")

	t.Setenv(auth.EnvVar, "env-token-value")
	require.Equal(t, ExitSuccess, h.run("token", "show"))
	assert.Contains(t, h.out.String(), "$"+auth.EnvVar)
	t.Setenv(auth.EnvVar, "")

	require.Equal(t, ExitSuccess, h.run("token", "clear"))
	_, err := os.Stat(h.cfg.Auth.TokenFile)
	assert.True(t, os.IsNotExist(err))

	require.Equal(t, ExitSuccess, h.run("token", "show"))
	assert.Contains(t, h.out.String(), "No token")
}

func TestToken_SetRejectsEmpty(t *testing.T) {
	h := newHarness(t, "https://example.invalid")
	assert.Equal(t, ExitUsageError, h.run("token", "set"))
}

func TestConfig_GetAndKeys(t *testing.T) {
	h := newHarness(t, "https://example.invalid")

	require.Equal(t, ExitSuccess, h.run("config", "get", "api.format"))
	assert.Equal(t, "txt", strings.TrimSpace(h.out.String()))

	require.Equal(t, ExitSuccess, h.run("config", "keys"))
	assert.Contains(t, h.out.String(), "export.max_rows")

	assert.Equal(t, ExitUsageError, h.run("config", "get", "api.nope"))
	assert.Equal(t, ExitUsageError, h.run("config", "set", "api.nope", "1"))
}

func TestConfig_FileFlag(t *testing.T) {
	h := newHarness(t, "https://example.invalid")
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{"TXEXPORT_REST_URL", "TXEXPORT_FORMAT", "TXEXPORT_OUTPUT_DIR", "TXEXPORT_LOG_LEVEL", "TXEXPORT_NO_HISTORY"} {
		t.Setenv(key, "")
	}
	path := filepath.Join(t.TempDir(), "team.toml")
	require.NoError(t, config.SaveTOML(h.cfg, path))

	require.Equal(t, ExitSuccess, h.run("--config", path, "config", "set", "export.warn_rows", "500"))
	saved, err := config.LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 500, saved.Export.WarnRows)

	require.Equal(t, ExitSuccess, h.run("--config", path, "config", "get", "export.warn_rows"))
	assert.Equal(t, "500", strings.TrimSpace(h.out.String()))

	require.Equal(t, ExitSuccess, h.run("--config", path, "config", "path"))
	assert.Equal(t, path, strings.TrimSpace(h.out.String()))

	// Without the flag the injected config is used again.
	require.Equal(t, ExitSuccess, h.run("config", "get", "export.warn_rows"))
	assert.Equal(t, strconv.Itoa(h.cfg.Export.WarnRows), strings.TrimSpace(h.out.String()))

	missing := filepath.Join(t.TempDir(), "missing.toml")
	assert.Equal(t, ExitConfigError, h.run("--config", missing, "config", "show"))
}

func TestHistory_Disabled(t *testing.T) {
	h := newHarness(t, "https://example.invalid")
	h.cfg.History.Enabled = false

	require.Equal(t, ExitSuccess, h.run("history"))
	assert.Contains(t, h.out.String(), "History is disabled")
}

func TestHistory_Retention(t *testing.T) {
	h := newHarness(t, "https://example.invalid")
	h.cfg.History.MaxEntries = 3
	ctx := context.Background()

	hs, err := openHistoryStore(h.cfg)
	require.NoError(t, err)
	assert.Equal(t, 3, hs.MaxEntries)
	for i := 0; i < 5; i++ {
		require.NoError(t, hs.Add(ctx, &storage.HistoryEntry{
			StartedAt: cliNow.Add(time.Duration(i) * time.Minute),
			Slug:      fmt.Sprintf("acct-%d", i),
			Kind:      storage.KindAccount,
			Outcome:   export.OutcomeSuccess,
		}))
	}
	entries, err := hs.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 3, "max_entries bounds the table")
	require.NoError(t, hs.Close())

	require.Equal(t, ExitSuccess, h.run("history", "clear", "--keep", "1"))
	assert.Contains(t, h.out.String(), "History pruned")

	hs, err = openHistoryStore(h.cfg)
	require.NoError(t, err)
	defer hs.Close()
	entries, err = hs.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "acct-4", entries[0].Slug)

	assert.Equal(t, ExitUsageError, h.run("history", "clear", "--keep=-1"))
}

func TestLoadConfigFailure(t *testing.T) {
	h := newHarness(t, "https://example.invalid")
	h.app.LoadConfig = func() (*config.Config, error) { return nil, errors.New("invalid config: api.base_url") }

	assert.Equal(t, ExitConfigError, h.run("history"))
	assert.Contains(t, h.err.String(), "api.base_url")
}

func TestVersion(t *testing.T) {
	h := newHarness(t, "https://example.invalid")
	require.Equal(t, ExitSuccess, h.run("version"))
	assert.Contains(t, h.out.String(), "txexport "+Version)
}

func TestDialogRequiresTerminal(t *testing.T) {
	if IsTTY() && IsStdoutTTY() {
		t.Skip("running attached to a terminal")
	}
	h := newHarness(t, "https://example.invalid")
	assert.Equal(t, ExitUsageError, h.run("--account", "acme"))
	assert.Contains(t, h.err.String(), "not a terminal")
}

// =============================================================================
// ERRORS
// =============================================================================

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitSuccess},
		{errors.New("boom"), ExitGeneralError},
		{NewValidationError("x", "y", "z"), ExitUsageError},
		{&TTYRequiredError{}, ExitUsageError},
		{fmt.Errorf("%w: bad", errConfig), ExitConfigError},
		{export.ErrNoAccessToken, ExitAuthError},
		{fmt.Errorf("get: %w", export.ErrUnauthorized), ExitAuthError},
		{&export.RowLimitError{Rows: 2, Limit: 1}, ExitTooLarge},
		{fmt.Errorf("head: %w", export.ErrNotFound), ExitNotFoundError},
		{context.DeadlineExceeded, ExitTimeoutError},
		{fmt.Errorf("head: %w", timeoutErr{}), ExitTimeoutError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GetExitCode(tt.err), "%v", tt.err)
	}
}

func TestDisplayError_UsesExportWording(t *testing.T) {
	var buf bytes.Buffer
	DisplayError(&buf, fmt.Errorf("preflight: %w", &export.RowLimitError{Rows: 150_000, Limit: export.MaxRows}))
	assert.Contains(t, buf.String(), export.FormatError(&export.RowLimitError{Rows: 150_000, Limit: export.MaxRows}))
	assert.NotContains(t, buf.String(), "preflight:")
}
