// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// token_cmd.go - Manage the stored access token.
//
// The environment variable always wins over the file, so `token show`
// reports which one an export would use.

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/txexport/internal/auth"
	"github.com/jeranaias/txexport/internal/config"
)

func (a *App) newTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the access token used for exports",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set [TOKEN]",
		Short: "Store a token (prompts when none is given)",
		Example: `  txexport token set
  echo "$TOKEN" | txexport token set`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			store, err := a.tokenStore()
			if err != nil {
				return err
			}

			var token string
			if len(args) == 1 {
				token = args[0]
			} else if token, err = a.readToken(); err != nil {
				return err
			}
			token = strings.TrimSpace(token)
			if token == "" {
				return NewValidationError("token", "", "empty token")
			}

			if err := store.Store(token); err != nil {
				return WrapError(err, "store token")
			}
			fmt.Fprintf(a.Out, "%s %s %s\n", SuccessStyle.Render("Token saved"), auth.Mask(token), DimStyle.Render(store.Path()))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show which token an export would use",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			store, err := a.tokenStore()
			if err != nil {
				return err
			}

			if env := strings.TrimSpace(os.Getenv(auth.EnvVar)); env != "" {
				fmt.Fprintf(a.Out, "%s %s\n", RenderLabel("Source"), ValueStyle.Render("$"+auth.EnvVar))
				fmt.Fprintf(a.Out, "%s %s\n", RenderLabel("Token"), ValueStyle.Render(auth.Mask(env)))
				return nil
			}

			token, err := store.Retrieve()
			if errors.Is(err, auth.ErrNoToken) {
				fmt.Fprintln(a.Out, DimStyle.Render("No token. Run `txexport token set` or set $"+auth.EnvVar+"."))
				return nil
			}
			if err != nil {
				return WrapError(err, "read token")
			}
			fmt.Fprintf(a.Out, "%s %s\n", RenderLabel("Source"), ValueStyle.Render(store.Path()))
			fmt.Fprintf(a.Out, "%s %s\n", RenderLabel("Token"), ValueStyle.Render(auth.Mask(token)))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "clear",
		Aliases: []string{"rm"},
		Short:   "Delete the stored token",
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			store, err := a.tokenStore()
			if err != nil {
				return err
			}
			if err := store.Delete(); err != nil {
				return WrapError(err, "delete token")
			}
			fmt.Fprintln(a.Out, SuccessStyle.Render("Token removed"))
			return nil
		},
	})

	return cmd
}

func (a *App) tokenStore() (*auth.FileTokenStore, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	path := config.ExpandPath(cfg.Auth.TokenFile)
	if path == "" {
		path = auth.DefaultTokenPath()
	}
	return auth.NewFileTokenStore(path), nil
}

// readToken prompts without echo on a terminal, or reads the first line of
// input otherwise.
func (a *App) readToken() (string, error) {
	if a.In == os.Stdin && IsTTY() {
		line := liner.NewLiner()
		defer line.Close()
		line.SetCtrlCAborts(true)

		token, err := line.PasswordPrompt("Access token: ")
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", errors.New("cancelled")
		}
		return token, err
	}

	sc := bufio.NewScanner(a.In)
	if sc.Scan() {
		return sc.Text(), nil
	}
	if err := sc.Err(); err != nil {
		return "", WrapError(err, "read token")
	}
	return "", nil
}
