// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// wiring.go - Flag parsing and service construction shared by the dialog and
// the headless export.

package cli

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/jeranaias/txexport/internal/auth"
	"github.com/jeranaias/txexport/internal/config"
	"github.com/jeranaias/txexport/internal/export"
	"github.com/jeranaias/txexport/internal/logging"
	"github.com/jeranaias/txexport/internal/period"
	"github.com/jeranaias/txexport/internal/storage"
)

// =============================================================================
// TARGET FLAGS
// =============================================================================

// targetFlags select what is exported and over which dates.
type targetFlags struct {
	account  string
	host     string
	accounts []string
	from     string
	to       string
	preset   string
}

func (f *targetFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.account, "account", "", "account slug to export")
	fl.StringVar(&f.host, "host", "", "fiscal host slug; exports the host report")
	fl.StringSliceVar(&f.accounts, "accounts", nil, "narrow a host report to these hosted account slugs")
	fl.StringVar(&f.from, "from", "", "start date (YYYY-MM-DD)")
	fl.StringVar(&f.to, "to", "", "end date (YYYY-MM-DD), defaults to today")
	fl.StringVar(&f.preset, "preset", "", "date range preset: "+strings.Join(presetKeys(), ", "))
	cmd.MarkFlagsMutuallyExclusive("preset", "from")
	cmd.MarkFlagsMutuallyExclusive("preset", "to")
}

// target returns the export target named by the flags.
func (f *targetFlags) target() (export.Target, error) {
	accounts := lo.Uniq(lo.Compact(lo.Map(f.accounts, func(s string, _ int) string {
		return strings.TrimSpace(s)
	})))
	t := export.Target{Slug: strings.TrimSpace(f.account), HostSlug: strings.TrimSpace(f.host), Accounts: accounts}

	if !t.IsHostReport() && len(t.Accounts) > 0 {
		return export.Target{}, NewValidationErrorWithExample("--accounts", strings.Join(t.Accounts, ","),
			"only applies to host reports", "--host opensource --accounts acme,babel")
	}
	if t.PathSlug() == "" {
		return export.Target{}, NewValidationErrorWithExample("target", "",
			"an --account or a --host is required", "txexport --account acme")
	}
	if err := t.Validate(); err != nil {
		return export.Target{}, NewValidationError("target", t.PathSlug(), err.Error())
	}
	return t, nil
}

// interval returns the date range from --preset or --from/--to.
func (f *targetFlags) interval(now time.Time) (period.Interval, error) {
	if f.preset != "" {
		i, ok := period.Resolve(period.PresetKey(f.preset), now)
		if !ok {
			return period.Interval{}, NewValidationErrorWithExample("--preset", f.preset,
				"expected one of "+strings.Join(presetKeys(), ", "), "--preset pastQuarter")
		}
		return i, nil
	}

	i := period.Interval{From: f.from, To: f.to}.Normalize()
	if err := period.Validate(i); err != nil {
		return period.Interval{}, NewValidationErrorWithExample("date range", i.String(), err.Error(),
			"--from 2024-01-01 --to 2024-03-31")
	}
	return i, nil
}

func presetKeys() []string {
	return lo.Map(period.Presets(), func(p period.Preset, _ int) string { return string(p.Key) })
}

// =============================================================================
// SERVICES
// =============================================================================

// services is everything an export needs, built from the configuration.
type services struct {
	logger   *log.Logger
	exporter *export.Exporter
	store    *auth.FileTokenStore
	watched  *auth.WatchedStore
	history  *storage.HistoryStore

	closers []func() error
}

type serviceOptions struct {
	// watchToken reloads the token file while the process runs.
	watchToken bool
	// discardLog drops log lines when no log file is configured.
	discardLog bool
}

// openServices builds the exporter. Optional parts (token watching, history)
// degrade to a warning in the log when they cannot be set up.
func (a *App) openServices(cfg *config.Config, opts serviceOptions) (*services, error) {
	svc := &services{}

	logWriter := a.Err
	if opts.discardLog {
		logWriter = io.Discard
	}
	logger, closeLog, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		File:   config.ExpandPath(cfg.Log.File),
		Writer: logWriter,
	})
	if err != nil {
		return nil, WrapError(err, "open log")
	}
	svc.logger = logger
	svc.closers = append(svc.closers, closeLog)

	tokenPath := config.ExpandPath(cfg.Auth.TokenFile)
	if tokenPath == "" {
		tokenPath = auth.DefaultTokenPath()
	}
	svc.store = auth.NewFileTokenStore(tokenPath)
	var fileTokens auth.Provider = auth.StoreProvider{Store: svc.store}
	if opts.watchToken {
		if ws, err := auth.NewWatchedStore(svc.store, logger); err != nil {
			logger.Warn("token file will not be watched", "err", err)
		} else if err := ws.Watch(); err != nil {
			logger.Warn("token file will not be watched", "err", err)
			ws.Close()
		} else {
			svc.watched = ws
			svc.closers = append(svc.closers, ws.Close)
			fileTokens = ws
		}
	}
	tokens := auth.Chain{auth.EnvProvider{Name: auth.EnvVar}, fileTokens}

	exportOpts := export.Options{
		Client: export.NewClient().
			WithTimeout(time.Duration(cfg.API.TimeoutSecs) * time.Second).
			WithRateLimit(cfg.API.RequestsPerSecond).
			WithLogger(logger).
			WithUserAgent("txexport/" + Version),
		Builder:   a.urlBuilder(cfg),
		Tokens:    tokens,
		OutputDir: config.ExpandPath(cfg.Export.OutputDir),
		MaxRows:   cfg.Export.MaxRows,
		Logger:    logger,
		Now:       a.Now,
	}

	if cfg.History.Enabled {
		hs, err := openHistoryStore(cfg)
		if err != nil {
			logger.Warn("export history disabled", "err", err)
		} else {
			svc.history = hs
			svc.closers = append(svc.closers, hs.Close)
			exportOpts.Recorder = hs
		}
	}

	exporter, err := export.New(exportOpts)
	if err != nil {
		svc.close()
		return nil, err
	}
	svc.exporter = exporter
	return svc, nil
}

func (a *App) urlBuilder(cfg *config.Config) *export.URLBuilder {
	b := export.NewURLBuilder(cfg.API.BaseURL)
	if cfg.API.Format != "" {
		b.Format = cfg.API.Format
	}
	b.Now = a.Now
	return b
}

// close releases resources in reverse order of acquisition.
func (s *services) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && s.logger != nil {
			s.logger.Debug("close", "err", err)
		}
	}
	s.closers = nil
}
