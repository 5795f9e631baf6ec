// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/jeranaias/txexport/internal/config"
	"github.com/jeranaias/txexport/internal/export"
	"github.com/jeranaias/txexport/internal/storage"
	"github.com/jeranaias/txexport/internal/util"
)

func (a *App) newHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent export attempts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			hs, err := a.openHistory()
			if err != nil || hs == nil {
				return err
			}
			defer hs.Close()

			entries, err := hs.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(a.Out, DimStyle.Render("No exports yet."))
				return nil
			}
			writeHistory(a.Out, entries)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show (0 for all)")

	cmd.AddCommand(&cobra.Command{
		Use:   "show ID",
		Short: "Show one export attempt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hs, err := a.openHistory()
			if err != nil || hs == nil {
				return err
			}
			defer hs.Close()

			e, err := findEntry(cmd.Context(), hs, args[0])
			if err != nil {
				return err
			}
			writeHistoryEntry(a.Out, e)
			return nil
		},
	})

	var keep int
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete history entries",
		Example: `  txexport history clear
  txexport history clear --keep 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if keep < 0 {
				return NewValidationError("keep", strconv.Itoa(keep), "must not be negative")
			}
			hs, err := a.openHistory()
			if err != nil || hs == nil {
				return err
			}
			defer hs.Close()

			if keep > 0 {
				if err := hs.Prune(cmd.Context(), keep); err != nil {
					return err
				}
				fmt.Fprintf(a.Out, "%s %d newest kept\n", SuccessStyle.Render("History pruned"), keep)
				return nil
			}
			if err := hs.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.Out, SuccessStyle.Render("History cleared"))
			return nil
		},
	}
	clearCmd.Flags().IntVar(&keep, "keep", 0, "keep the newest N entries instead of deleting all")
	cmd.AddCommand(clearCmd)

	return cmd
}

// findEntry looks an entry up by full ID or by the short prefix the listing
// shows.
func findEntry(ctx context.Context, hs *storage.HistoryStore, id string) (storage.HistoryEntry, error) {
	e, err := hs.Get(ctx, id)
	if !errors.Is(err, storage.ErrEntryNotFound) {
		return e, err
	}

	entries, err := hs.List(ctx, 0)
	if err != nil {
		return storage.HistoryEntry{}, err
	}
	matches := lo.Filter(entries, func(e storage.HistoryEntry, _ int) bool {
		return strings.HasPrefix(e.ID, id)
	})
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return storage.HistoryEntry{}, NewValidationError("history id", id, "no such export")
	default:
		return storage.HistoryEntry{}, NewValidationError("history id", id, "ambiguous prefix")
	}
}

// openHistory returns nil without error when history is turned off.
func (a *App) openHistory() (*storage.HistoryStore, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled {
		fmt.Fprintln(a.Out, DimStyle.Render("History is disabled (history.enabled = false)."))
		return nil, nil
	}
	return openHistoryStore(cfg)
}

// openHistoryStore opens the configured database with its retention limit.
func openHistoryStore(cfg *config.Config) (*storage.HistoryStore, error) {
	hs, err := storage.OpenHistoryStore(config.ExpandPath(cfg.History.DatabasePath))
	if err != nil {
		return nil, err
	}
	hs.MaxEntries = cfg.History.MaxEntries
	return hs, nil
}

const (
	historyTimeLayout = "2006-01-02 15:04"
	historyTargetCol  = 24
)

func writeHistory(w io.Writer, entries []storage.HistoryEntry) {
	fmt.Fprintf(w, "%s  %s  %s  %s  %s\n",
		DimStyle.Render(util.PadRight("ID", 8)),
		DimStyle.Render(util.PadRight("STARTED", len(historyTimeLayout))),
		DimStyle.Render(util.PadRight("TARGET", historyTargetCol)),
		DimStyle.Render(util.PadRight("OUTCOME", 9)),
		DimStyle.Render("ROWS"))
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %s  %s  %s  %s\n",
			util.PadRight(shortID(e.ID), 8),
			e.StartedAt.Local().Format(historyTimeLayout),
			util.PadRight(util.TruncateWidth(describeEntry(e), historyTargetCol), historyTargetCol),
			RenderOutcome(e.Outcome)+strings.Repeat(" ", max(0, 9-len(e.Outcome))),
			export.FormatCount(e.Rows))
	}
}

func writeHistoryEntry(w io.Writer, e storage.HistoryEntry) {
	row := func(label, value string) {
		if value != "" {
			fmt.Fprintf(w, "%s %s\n", RenderLabel(label), ValueStyle.Render(value))
		}
	}
	row("ID", e.ID)
	row("Target", describeEntry(e))
	row("Started", e.StartedAt.Local().Format(historyTimeLayout+":05"))
	row("Duration", e.Duration().Round(100*time.Millisecond).String())
	fmt.Fprintf(w, "%s %s\n", RenderLabel("Outcome"), RenderOutcome(e.Outcome))
	row("Rows", export.FormatCount(e.Rows))
	if e.Bytes > 0 {
		row("Bytes", export.FormatCount(int(e.Bytes)))
	}
	row("File", e.Path)
	row("URL", e.URL)
	row("Error", e.Error)
}

func describeEntry(e storage.HistoryEntry) string {
	if e.Kind != storage.KindHost {
		return e.Slug
	}
	if len(e.Accounts) == 0 {
		return "host " + e.Slug
	}
	return "host " + e.Slug + " (" + strings.Join(e.Accounts, ", ") + ")"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
