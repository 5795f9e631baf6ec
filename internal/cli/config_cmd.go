// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Read and change settings from the command line.

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/jeranaias/txexport/internal/config"
)

func (a *App) newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			for _, key := range config.GetAllKeys() {
				v, err := cfg.Get(key)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.Out, "%s %v\n", LabelStyle.Width(26).Render(key), v)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get KEY",
		Short: "Print one setting",
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return config.GetAllKeys(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			v, err := cfg.Get(args[0])
			if err != nil {
				return unknownKey(args[0])
			}
			fmt.Fprintln(a.Out, v)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Change one setting and save the config file",
		Example: `  txexport config set api.format csv
  txexport config set export.output_dir ~/exports`,
		Args: cobra.ExactArgs(2),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return config.GetAllKeys(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(_ *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			if !lo.Contains(config.GetAllKeys(), key) {
				return unknownKey(key)
			}

			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Set(key, value); err != nil {
				return NewValidationError(key, value, err.Error())
			}
			if err := cfg.Validate(); err != nil {
				return NewValidationError(key, value, err.Error())
			}
			if err := a.saveConfig(cfg); err != nil {
				return fmt.Errorf("%w: %w", errConfig, err)
			}
			fmt.Fprintf(a.Out, "%s %s = %s\n", SuccessStyle.Render("Saved"), key, value)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "keys",
		Short: "List setting names",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintln(a.Out, strings.Join(config.GetAllKeys(), "\n"))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			path, err := a.configFile()
			if err != nil {
				return fmt.Errorf("%w: %w", errConfig, err)
			}
			if _, err := os.Stat(path); err != nil {
				path += DimStyle.Render(" (not created yet)")
			}
			fmt.Fprintln(a.Out, path)
			return nil
		},
	})

	return cmd
}

func unknownKey(key string) error {
	return NewValidationErrorWithExample("config key", key, "unknown key", "txexport config keys")
}

// configFile is the file config commands read and write.
func (a *App) configFile() (string, error) {
	if a.configPath != "" {
		return config.ExpandPath(a.configPath), nil
	}
	return config.ConfigPathTOML()
}

// saveConfig writes cfg back to the file it was loaded from.
func (a *App) saveConfig(cfg *config.Config) error {
	if a.configPath != "" {
		return config.SaveToPath(cfg, config.ExpandPath(a.configPath))
	}
	return config.Save(cfg)
}
