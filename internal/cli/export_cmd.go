// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// export_cmd.go - Headless export for scripts and cron jobs.

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/txexport/internal/auth"
	"github.com/jeranaias/txexport/internal/catalog"
	"github.com/jeranaias/txexport/internal/export"
	"github.com/jeranaias/txexport/internal/form"
	"github.com/jeranaias/txexport/internal/ui/app"
)

type exportFlags struct {
	target    targetFlags
	fields    string
	allFields bool
	output    string
	quiet     bool
}

func (a *App) newExportCommand() *cobra.Command {
	var ef exportFlags

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download an export without the dialog",
		Long: `Export runs the same preflight and download as the dialog.

The row count is checked first; exports above the configured limit are
refused before anything is downloaded. The saved path is printed on stdout.`,
		Example: `  txexport export --account acme --preset thisYear
  txexport export --host opensource --accounts acme --from 2024-01-01 --fields date,amount,currency
  txexport export --account acme --all-fields -o ~/exports`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runExport(cmd.Context(), &ef)
		},
	}

	ef.target.register(cmd)
	fl := cmd.Flags()
	fl.StringVar(&ef.fields, "fields", "", "comma separated field ids (see `txexport fields`)")
	fl.BoolVar(&ef.allFields, "all-fields", false, "export every field in the catalog")
	fl.StringVarP(&ef.output, "output", "o", "", "directory to save the file in (default from config)")
	fl.BoolVarP(&ef.quiet, "quiet", "q", false, "do not draw a progress bar")
	cmd.MarkFlagsMutuallyExclusive("fields", "all-fields")
	return cmd
}

func (a *App) runExport(ctx context.Context, ef *exportFlags) error {
	target, err := ef.target.target()
	if err != nil {
		return err
	}
	interval, err := ef.target.interval(a.Now())
	if err != nil {
		return err
	}
	fields, err := selectionFromFlags(ef.fields, ef.allFields)
	if err != nil {
		return err
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if ef.output != "" {
		cfg.Export.OutputDir = ef.output
	}
	svc, err := a.openServices(cfg, serviceOptions{})
	if err != nil {
		return err
	}
	defer svc.close()

	// Same defaults as the dialog: an unset end is today.
	state := form.New(interval, a.Now)
	req := export.Request{Target: target, Interval: state.Interval(), Fields: fields}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	progress := newDownloadProgress(a.Err, target.PathSlug(), !ef.quiet && a.Err == os.Stderr && IsStderrTTY())
	onPlan := func(plan *export.Plan) {
		fmt.Fprintf(a.Err, "%s %s rows\n", RenderLabel("Exporting"), export.FormatCount(plan.Rows))
		if cfg.Export.WarnRows > 0 && plan.Rows > cfg.Export.WarnRows {
			fmt.Fprintln(a.Err, WarningStyle.Render(export.WarningMessage(plan.Rows)))
		}
	}

	result, err := svc.exporter.Run(ctx, req, onPlan, progress.Func())
	progress.Finish(err == nil)
	if errors.Is(err, export.ErrNoAccessToken) {
		return fmt.Errorf("%w: run `txexport token set` or set %s", err, auth.EnvVar)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(a.Err, "%s %s rows, %s bytes\n", SuccessStyle.Render(app.SuccessMessage),
		export.FormatCount(result.Rows), export.FormatCount(int(result.Bytes)))
	fmt.Fprintln(a.Out, result.Path)
	return nil
}

// selectionFromFlags turns --fields/--all-fields into a selection. Without
// either, the default subset is exported.
func selectionFromFlags(list string, all bool) (form.Selection, error) {
	switch {
	case all:
		return form.NewSelection(catalog.AllIDs()...), nil
	case strings.TrimSpace(list) == "":
		return form.DefaultSelection(), nil
	}

	ids, unknown := catalog.Parse(list)
	if len(unknown) > 0 {
		return form.Selection{}, NewValidationErrorWithExample("--fields", strings.Join(unknown, ","),
			"unknown field", "--fields date,amount,currency (see `txexport fields`)")
	}
	// A list of separators selects nothing; the service then picks its own columns.
	return form.NewSelection(ids...), nil
}
