// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/jeranaias/txexport/internal/export"
	"github.com/jeranaias/txexport/internal/form"
	"github.com/jeranaias/txexport/internal/logging"
	"github.com/jeranaias/txexport/internal/period"
	"github.com/jeranaias/txexport/internal/ui/components"
	"github.com/jeranaias/txexport/internal/ui/styles"
)

// SuccessMessage is the toast shown once the file is on disk.
const SuccessMessage = "File downloaded!"

// successLinger is how long the success toast stays before the program exits.
const successLinger = 1200 * time.Millisecond

// Exporter is the part of export.Exporter the dialog drives.
type Exporter interface {
	Preflight(ctx context.Context, req export.Request) (*export.Plan, error)
	Download(ctx context.Context, plan *export.Plan, progress export.ProgressFunc) (*export.Result, error)
}

// Options configures the application model.
type Options struct {
	Exporter Exporter
	Target   export.Target
	Interval period.Interval
	Theme    *styles.Theme
	Logger   *log.Logger
	Now      func() time.Time

	// TokenChanges, when set, delivers token file changes to the dialog.
	TokenChanges <-chan bool
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the root Bubble Tea model: the export dialog plus notifications.
type Model struct {
	theme    *styles.Theme
	modal    *components.ExportModal
	toasts   *components.ToastManager
	keys     KeyMap
	exporter Exporter
	logger   *log.Logger
	now      func() time.Time

	cancelMgr    *cancelManager
	tokenChanges <-chan bool

	width  int
	height int

	result   *export.Result
	lastErr  error
	quitting bool
}

// New creates the model with the dialog already open on opts.Target.
func New(opts Options) Model {
	if opts.Theme == nil {
		opts.Theme = styles.NewTheme("auto")
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	m := Model{
		theme:        opts.Theme,
		modal:        components.NewExportModal(opts.Theme),
		toasts:       components.NewToastManager(),
		keys:         DefaultKeyMap(),
		exporter:     opts.Exporter,
		logger:       opts.Logger,
		now:          opts.Now,
		cancelMgr:    newCancelManager(),
		tokenChanges: opts.TokenChanges,
	}
	m.modal.Show(opts.Target, form.New(opts.Interval, opts.Now))
	return m
}

// Result returns the downloaded file, or nil when the user quit without one.
func (m Model) Result() *export.Result {
	return m.result
}

// LastError returns the most recent export failure shown to the user.
func (m Model) LastError() error {
	return m.lastErr
}

// Toasts returns the visible notifications.
func (m Model) Toasts() []components.Toast {
	return m.toasts.Toasts()
}

// Modal returns the export dialog.
func (m Model) Modal() *components.ExportModal {
	return m.modal
}

// Init starts the toast ticker and the token listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(components.ToastTickCmd(), waitForToken(m.tokenChanges))
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.modal.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m.quit()
		case key.Matches(msg, m.keys.DismissToast):
			m.toasts.DismissNewest()
			return m, nil
		}

	case components.ExportSubmitMsg:
		return m.handleSubmit(msg)

	case PreflightDoneMsg:
		return m.handlePreflight(msg)

	case DownloadDoneMsg:
		return m.handleDownload(msg)

	case components.ExportModalClosedMsg:
		return m.quit()

	case components.ToastTickMsg:
		m.toasts.Tick(msg.Time)
		return m, components.ToastTickCmd()

	case components.ShowToastMsg:
		m.toasts.Add(components.NewToast(msg.Kind, msg.Message))
		return m, nil

	case TokenChangedMsg:
		if msg.Present {
			m.toasts.AddInfo("Access token loaded.")
		} else {
			m.toasts.AddWarning("Access token removed. Exports are disabled until you sign in again.")
		}
		return m, waitForToken(m.tokenChanges)

	case quitMsg:
		return m.quit()
	}

	cmd, _ := m.modal.Update(msg)
	return m, cmd
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.cancelMgr.clear()
	m.modal.Hide()
	m.quitting = true
	return m, tea.Quit
}

// handleSubmit starts the preflight for the request the dialog captured.
func (m Model) handleSubmit(msg components.ExportSubmitMsg) (tea.Model, tea.Cmd) {
	if m.exporter == nil {
		return m.fail(errors.New("no exporter configured"))
	}
	m.lastErr = nil
	ctx := m.cancelMgr.begin(context.Background())
	m.logger.Info("export requested", "target", msg.Request.Target.PathSlug(), "range", msg.Request.Interval.String())
	return m, preflightCmd(ctx, m.exporter, msg.Request)
}

// handlePreflight applies the row guard result and moves on to the download.
func (m Model) handlePreflight(msg PreflightDoneMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		return m.fail(msg.Err)
	}

	state := m.modal.State()
	state.SetExportedRows(msg.Plan.Rows)
	m.logger.Info("preflight passed", "rows", msg.Plan.Rows, "path", msg.Plan.Path)

	ctx := m.cancelMgr.begin(context.Background())
	return m, downloadCmd(ctx, m.exporter, msg.Plan)
}

// handleDownload notifies the outcome. Success closes the dialog; failure
// keeps it open for another try.
func (m Model) handleDownload(msg DownloadDoneMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		return m.fail(msg.Err)
	}

	m.cancelMgr.clear()
	m.modal.FinishExport()
	m.modal.Hide()
	m.result = msg.Result
	m.toasts.AddSuccess(SuccessMessage)
	m.logger.Info("export downloaded", "path", msg.Result.Path, "rows", msg.Result.Rows, "bytes", msg.Result.Bytes)
	return m, quitAfter(successLinger)
}

// fail ends the attempt. A missing token is a silent no-op: the dialog is
// only offered to signed-in users.
func (m Model) fail(err error) (tea.Model, tea.Cmd) {
	m.cancelMgr.clear()
	m.modal.FinishExport()

	// The count is still shown when the row guard refuses the export.
	var limitErr *export.RowLimitError
	if errors.As(err, &limitErr) {
		m.modal.State().SetExportedRows(limitErr.Rows)
	}

	if errors.Is(err, export.ErrNoAccessToken) {
		m.logger.Debug("export skipped, no access token")
		return m, nil
	}

	m.lastErr = err
	m.toasts.AddError(export.FormatError(err))
	m.logger.Error("export failed", "err", err)
	return m, nil
}
