// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/jeranaias/txexport/internal/catalog"
)

func (a *App) newFieldsCommand() *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "fields",
		Short: "List the fields an export can contain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			md := fieldsMarkdown()
			if plain || a.Out != os.Stdout || !IsStdoutTTY() {
				_, err := fmt.Fprint(a.Out, md)
				return err
			}
			_, err := fmt.Fprint(a.Out, renderMarkdown(md))
			return err
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print Markdown source instead of rendering it")
	return cmd
}

// fieldsMarkdown renders the catalog as a Markdown table in export order.
func fieldsMarkdown() string {
	defaults := lo.SliceToMap(catalog.Default(), func(id catalog.FieldID) (catalog.FieldID, bool) {
		return id, true
	})

	var b strings.Builder
	b.WriteString("# Export fields\n\n")
	fmt.Fprintf(&b, "%d fields. Columns appear in this order whatever order they are requested in. ", catalog.Len())
	b.WriteString("Fields marked *default* are exported unless `--fields` or `--all-fields` is given.\n\n")
	b.WriteString("| # | Field | Label | Default |\n")
	b.WriteString("|--:|-------|-------|:-------:|\n")
	for i, f := range catalog.All() {
		mark := ""
		if defaults[f.ID] {
			mark = "default"
		}
		fmt.Fprintf(&b, "| %d | `%s` | %s | %s |\n", i+1, f.ID, f.Label, mark)
	}
	return b.String()
}

// renderMarkdown renders md for the terminal, falling back to the source when
// the renderer cannot be built.
func renderMarkdown(md string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(GetTerminalWidth()),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}
