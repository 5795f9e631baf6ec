// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/txexport/internal/period"
)

const testPayload = "datetime,amount\n2024-01-02T10:00:00Z,100\n"

// fakeEndpoint mimics the REST export endpoint.
type fakeEndpoint struct {
	mu      sync.Mutex
	rows    string
	status  int
	methods []string
	auth    []string
	queries []string
}

func (f *fakeEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.methods = append(f.methods, r.Method)
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	f.queries = append(f.queries, r.URL.RawQuery)
	rows, status := f.rows, f.status
	f.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}
	if rows != "" {
		w.Header().Set("x-exported-rows", rows)
	}
	w.Header().Set("Content-Type", "text/plain")
	if r.Method == http.MethodGet {
		w.Header().Set("Content-Length", strconv.Itoa(len(testPayload)))
		io.WriteString(w, testPayload)
	}
}

func (f *fakeEndpoint) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.methods...)
}

type memRecorder struct {
	mu       sync.Mutex
	attempts []Attempt
}

func (m *memRecorder) RecordExport(_ context.Context, a Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, a)
	return nil
}

func newTestExporter(t *testing.T, srv *httptest.Server, tokens TokenProvider, rec Recorder) (*Exporter, string) {
	t.Helper()
	dir := t.TempDir()
	builder := NewURLBuilder(srv.URL)
	builder.Now = func() time.Time { return fixedNow }

	exp, err := New(Options{
		Client:    NewClient().WithHTTPClient(srv.Client()).WithRateLimit(0),
		Builder:   builder,
		Tokens:    tokens,
		OutputDir: dir,
		Recorder:  rec,
		Now:       func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return exp, dir
}

var acmeJanuary = Request{
	Target:   Target{Slug: "acme"},
	Interval: period.Interval{From: "2024-01-01", To: "2024-01-31"},
}

func TestRun_UnderLimitDownloads(t *testing.T) {
	endpoint := &fakeEndpoint{rows: "50000"}
	srv := httptest.NewServer(endpoint)
	defer srv.Close()

	rec := &memRecorder{}
	exp, dir := newTestExporter(t, srv, StaticToken("secret"), rec)

	var planned *Plan
	res, err := exp.Run(context.Background(), acmeJanuary, func(p *Plan) { planned = p }, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{http.MethodHead, http.MethodGet}, endpoint.calls())
	assert.Equal(t, []string{"Bearer secret", "Bearer secret"}, endpoint.auth)
	assert.Equal(t, endpoint.queries[0], endpoint.queries[1])

	require.NotNil(t, planned)
	assert.Equal(t, 50000, planned.Rows)
	assert.True(t, planned.Warn())

	assert.Equal(t, filepath.Join(dir, "acme-transactions-2024-01-01-2024-01-31.csv"), res.Path)
	assert.Equal(t, int64(len(testPayload)), res.Bytes)
	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, testPayload, string(data))

	require.Len(t, rec.attempts, 1)
	assert.Equal(t, OutcomeSuccess, rec.attempts[0].Outcome)
	assert.Equal(t, 50000, rec.attempts[0].Rows)
}

func TestRun_OverLimitAborts(t *testing.T) {
	endpoint := &fakeEndpoint{rows: "150000"}
	srv := httptest.NewServer(endpoint)
	defer srv.Close()

	rec := &memRecorder{}
	exp, dir := newTestExporter(t, srv, StaticToken("secret"), rec)

	res, err := exp.Run(context.Background(), acmeJanuary, nil, nil)
	require.Error(t, err)
	assert.Nil(t, res)

	var limitErr *RowLimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, 150000, limitErr.Rows)
	assert.Contains(t, FormatError(err), "150,000")

	// Only the preflight went out and nothing was written.
	assert.Equal(t, []string{http.MethodHead}, endpoint.calls())
	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)

	require.Len(t, rec.attempts, 1)
	assert.Equal(t, OutcomeTooLarge, rec.attempts[0].Outcome)
	assert.Equal(t, 150000, rec.attempts[0].Rows)
	assert.Empty(t, rec.attempts[0].Path)
}

func TestRun_ExactlyAtLimitProceeds(t *testing.T) {
	srv := httptest.NewServer(&fakeEndpoint{rows: strconv.Itoa(MaxRows)})
	defer srv.Close()

	exp, _ := newTestExporter(t, srv, StaticToken("secret"), nil)
	_, err := exp.Run(context.Background(), acmeJanuary, nil, nil)
	assert.NoError(t, err)
}

func TestRun_MissingOrMalformedRowsHeader(t *testing.T) {
	for _, rows := range []string{"", "lots"} {
		endpoint := &fakeEndpoint{rows: rows}
		srv := httptest.NewServer(endpoint)

		exp, _ := newTestExporter(t, srv, StaticToken("secret"), nil)
		plan, err := exp.Preflight(context.Background(), acmeJanuary)
		require.NoError(t, err, "rows header %q", rows)
		assert.Equal(t, 0, plan.Rows)
		assert.False(t, plan.Warn())
		srv.Close()
	}
}

func TestRun_NoTokenIsSilent(t *testing.T) {
	endpoint := &fakeEndpoint{rows: "10"}
	srv := httptest.NewServer(endpoint)
	defer srv.Close()

	rec := &memRecorder{}
	exp, _ := newTestExporter(t, srv, StaticToken(""), rec)

	_, err := exp.Run(context.Background(), acmeJanuary, nil, nil)
	assert.ErrorIs(t, err, ErrNoAccessToken)
	assert.Empty(t, endpoint.calls())
	assert.Empty(t, rec.attempts)
}

type failingTokens struct{}

func (failingTokens) AccessToken(context.Context) (string, error) {
	return "", errors.New("keyring locked")
}

func TestRun_TokenProviderError(t *testing.T) {
	srv := httptest.NewServer(&fakeEndpoint{})
	defer srv.Close()

	exp, _ := newTestExporter(t, srv, failingTokens{}, nil)
	_, err := exp.Run(context.Background(), acmeJanuary, nil, nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoAccessToken)
}

func TestRun_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		check  func(t *testing.T, err error)
	}{
		{http.StatusUnauthorized, func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrUnauthorized) }},
		{http.StatusForbidden, func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrUnauthorized) }},
		{http.StatusNotFound, func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrNotFound) }},
		{http.StatusBadGateway, func(t *testing.T, err error) {
			var statusErr *HTTPStatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, http.StatusBadGateway, statusErr.Status)
			assert.Equal(t, http.MethodHead, statusErr.Method)
		}},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(&fakeEndpoint{status: tt.status})
			defer srv.Close()

			rec := &memRecorder{}
			exp, _ := newTestExporter(t, srv, StaticToken("secret"), rec)
			_, err := exp.Run(context.Background(), acmeJanuary, nil, nil)
			require.Error(t, err)
			tt.check(t, err)

			require.Len(t, rec.attempts, 1)
			assert.Equal(t, OutcomeFailed, rec.attempts[0].Outcome)
		})
	}
}

func TestDownload_ProgressWrapsBody(t *testing.T) {
	srv := httptest.NewServer(&fakeEndpoint{rows: "2"})
	defer srv.Close()

	exp, _ := newTestExporter(t, srv, StaticToken("secret"), nil)
	plan, err := exp.Preflight(context.Background(), acmeJanuary)
	require.NoError(t, err)

	var seenSize int64
	var read int
	_, err = exp.Download(context.Background(), plan, func(body io.Reader, size int64) io.Reader {
		seenSize = size
		return readerFunc(func(p []byte) (int, error) {
			n, err := body.Read(p)
			read += n
			return n, err
		})
	})
	require.NoError(t, err)
	assert.Equal(t, int64(len(testPayload)), seenSize)
	assert.Equal(t, len(testPayload), read)
}

type readerFunc func(p []byte) (int, error)

func (f readerFunc) Read(p []byte) (int, error) { return f(p) }

func TestDownload_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(&fakeEndpoint{rows: "2"})
	defer srv.Close()

	exp, _ := newTestExporter(t, srv, StaticToken("secret"), nil)
	plan, err := exp.Preflight(context.Background(), acmeJanuary)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = exp.Download(ctx, plan, nil)
	require.Error(t, err)
	assert.Equal(t, "Export cancelled.", FormatError(err))
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	exp, err := New(Options{Client: NewClient(), Builder: NewURLBuilder("https://x.org"), Tokens: StaticToken("t")})
	require.NoError(t, err)
	assert.Equal(t, MaxRows, exp.MaxRows())
}
