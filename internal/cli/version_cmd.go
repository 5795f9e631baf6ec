// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func (a *App) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(a.Out, "txexport %s\n", Version)
			fmt.Fprintf(a.Out, "  %s %s\n", RenderLabel("Commit"), GitCommit)
			fmt.Fprintf(a.Out, "  %s %s\n", RenderLabel("Built"), BuildDate)
			fmt.Fprintf(a.Out, "  %s %s %s/%s\n", RenderLabel("Go"), runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
