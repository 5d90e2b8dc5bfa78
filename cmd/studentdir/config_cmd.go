// Copyright (c) 2026 Keymaster Team
// Studentdir - student directory client
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/toeirei/studentdir/internal/config"
	"github.com/toeirei/studentdir/internal/i18n"
)

func newConfigCmd(cfgFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "config",
		Short:       "Inspect or write the configuration",
		Annotations: map[string]string{skipApp: "true"},
	}

	var system bool
	write := &cobra.Command{
		Use:         "write",
		Short:       "Write the effective configuration to the config file",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipApp: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, *cfgFile)
			if err != nil {
				return err
			}
			if err := config.WriteConfigFile(&cfg, system); err != nil {
				return err
			}
			path, _ := config.GetConfigPath(system)
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.config_written", path))
			return nil
		},
	}
	write.Flags().BoolVar(&system, "system", false, "Write the system-wide file instead of the user file")

	show := &cobra.Command{
		Use:         "path",
		Short:       "Print the user config file path",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipApp: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.GetConfigPath(false)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.AddCommand(write, show)
	return cmd
}
