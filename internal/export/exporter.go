// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jeranaias/txexport/internal/logging"
)

// TokenProvider supplies the bearer token for the export endpoint. An empty
// token with a nil error means the user is not signed in.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// Outcome is how an export attempt ended.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeTooLarge Outcome = "too_large"
	OutcomeFailed   Outcome = "failed"
)

// Attempt describes one finished export for the history log.
type Attempt struct {
	Started  time.Time
	Finished time.Time
	Target   Target
	URL      string
	Path     string
	Rows     int
	Bytes    int64
	Outcome  Outcome
	Err      error
}

// Recorder persists finished attempts.
type Recorder interface {
	RecordExport(ctx context.Context, a Attempt) error
}

// Plan is a preflighted export, ready to download.
type Plan struct {
	Request Request
	URL     string
	Rows    int
	Path    string
	Started time.Time

	token string
}

// Warn reports whether the duration banner should be shown for this plan.
func (p *Plan) Warn() bool {
	return ShouldWarn(p.Rows)
}

// Result is a completed download.
type Result struct {
	Path  string
	Rows  int
	Bytes int64
}

// Options configures an Exporter.
type Options struct {
	Client    *Client
	Builder   *URLBuilder
	Tokens    TokenProvider
	OutputDir string
	// MaxRows overrides the hard limit. Zero means MaxRows.
	MaxRows  int
	Recorder Recorder
	Logger   *log.Logger
	Now      func() time.Time
}

// Exporter runs the two-step export: preflight for the row count, then the
// download when the count is acceptable.
type Exporter struct {
	client    *Client
	builder   *URLBuilder
	tokens    TokenProvider
	outputDir string
	maxRows   int
	recorder  Recorder
	logger    *log.Logger
	now       func() time.Time
}

// New creates an exporter. Client, Builder and Tokens are required.
func New(opts Options) (*Exporter, error) {
	if opts.Client == nil || opts.Builder == nil || opts.Tokens == nil {
		return nil, errors.New("exporter needs a client, a URL builder and a token provider")
	}
	e := &Exporter{
		client:    opts.Client,
		builder:   opts.Builder,
		tokens:    opts.Tokens,
		outputDir: opts.OutputDir,
		maxRows:   opts.MaxRows,
		recorder:  opts.Recorder,
		logger:    opts.Logger,
		now:       opts.Now,
	}
	if e.maxRows <= 0 {
		e.maxRows = MaxRows
	}
	if e.logger == nil {
		e.logger = logging.Discard()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.outputDir == "" {
		e.outputDir = "."
	}
	return e, nil
}

// MaxRows returns the configured hard limit.
func (e *Exporter) MaxRows() int {
	return e.maxRows
}

// Preflight reads the token, builds the URL and asks the endpoint how many
// rows the export would contain. It returns a *RowLimitError above the limit
// and ErrNoAccessToken when no one is signed in.
func (e *Exporter) Preflight(ctx context.Context, req Request) (*Plan, error) {
	started := e.now()

	token, err := e.tokens.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("read access token: %w", err)
	}
	if token == "" {
		return nil, ErrNoAccessToken
	}

	rawURL, err := e.builder.Build(req)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Request: req,
		URL:     rawURL,
		Path:    filepath.Join(e.outputDir, Filename(req.Target, req.Interval, started)+".csv"),
		Started: started,
		token:   token,
	}

	rows, err := e.client.ExpectedRows(ctx, rawURL, token)
	if err != nil {
		e.record(ctx, plan, 0, OutcomeFailed, err)
		return nil, err
	}
	plan.Rows = rows
	e.logger.Info("preflight", "target", req.Target.PathSlug(), "rows", rows)

	if rows > e.maxRows {
		err := &RowLimitError{Rows: rows, Limit: e.maxRows}
		e.record(ctx, plan, 0, OutcomeTooLarge, err)
		return nil, err
	}
	return plan, nil
}

// Download fetches a preflighted export to plan.Path.
func (e *Exporter) Download(ctx context.Context, plan *Plan, progress ProgressFunc) (*Result, error) {
	if plan == nil {
		return nil, errors.New("download needs a preflighted plan")
	}

	n, err := e.client.Download(ctx, plan.URL, plan.token, plan.Path, progress)
	if err != nil {
		e.record(ctx, plan, n, OutcomeFailed, err)
		return nil, err
	}

	e.logger.Info("download complete", "path", plan.Path, "bytes", n)
	e.record(ctx, plan, n, OutcomeSuccess, nil)
	return &Result{Path: plan.Path, Rows: plan.Rows, Bytes: n}, nil
}

// Run is Preflight followed by Download. onPlan, when set, sees the plan
// before the download starts.
func (e *Exporter) Run(ctx context.Context, req Request, onPlan func(*Plan), progress ProgressFunc) (*Result, error) {
	plan, err := e.Preflight(ctx, req)
	if err != nil {
		return nil, err
	}
	if onPlan != nil {
		onPlan(plan)
	}
	return e.Download(ctx, plan, progress)
}

func (e *Exporter) record(ctx context.Context, plan *Plan, n int64, outcome Outcome, err error) {
	if err != nil {
		e.logger.Warn("export failed", "target", plan.Request.Target.PathSlug(), "outcome", outcome, "err", err)
	}
	if e.recorder == nil {
		return
	}
	a := Attempt{
		Started:  plan.Started,
		Finished: e.now(),
		Target:   plan.Request.Target,
		URL:      plan.URL,
		Path:     plan.Path,
		Rows:     plan.Rows,
		Bytes:    n,
		Outcome:  outcome,
		Err:      err,
	}
	if outcome != OutcomeSuccess && n == 0 {
		a.Path = ""
	}
	// Context may already be cancelled after a failed download; history
	// writes use their own short deadline.
	recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if recErr := e.recorder.RecordExport(recCtx, a); recErr != nil {
		e.logger.Error("record export history", "err", recErr)
	}
}

// StaticToken is a TokenProvider over a fixed value.
type StaticToken string

// AccessToken implements TokenProvider.
func (t StaticToken) AccessToken(context.Context) (string, error) {
	return string(t), nil
}
