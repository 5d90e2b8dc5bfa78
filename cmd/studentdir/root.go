// Copyright (c) 2026 Keymaster Team
// Studentdir - student directory client
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/toeirei/studentdir/buildvars"
	"github.com/toeirei/studentdir/internal/tui"
)

// skipApp marks commands that run without databases.
const skipApp = "skip-app"

// newRootCmd creates the root command with every subcommand attached.
// Each call returns a fresh tree so tests can run commands in isolation.
func newRootCmd() *cobra.Command {
	var (
		cfgFile string
		a       *app
	)

	cmd := &cobra.Command{
		Use:   "studentdir",
		Short: "Studentdir lists the student directory of your campus.",
		Long: `Studentdir signs you in against the campus account store and shows
the student directory (NIM, name, program, faculty).

Running without a subcommand will launch the interactive TUI.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, cfgFile)
			if err != nil {
				return err
			}
			initLanguage(cfg)
			if cmd.Annotations[skipApp] != "" {
				return nil
			}
			a, err = openApp(cfg)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a != nil {
				a.close()
				a = nil
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			boot, err := a.startSession(cmd.Context())
			if err != nil {
				return err
			}
			return tui.Run(cmd.Context(), tui.Deps{State: boot, Actions: a.auth, Fetcher: a.fetcher})
		},
	}

	// Commands only see a after PersistentPreRunE ran.
	current := func() *app { return a }

	cmd.AddCommand(
		newLoginCmd(current),
		newRegisterCmd(current),
		newLogoutCmd(current),
		newWhoamiCmd(current),
		newListCmd(current),
		newImportCmd(current),
		newExportCmd(current),
		newConfigCmd(&cfgFile),
		newVersionCmd(),
	)

	cmd.Version = buildvars.VersionOrDefault("dev")

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/studentdir/studentdir.yaml)")
	cmd.PersistentFlags().String("db-type", "sqlite", "Database type (sqlite, postgres, mysql)")
	cmd.PersistentFlags().String("db-dsn", "", "Database connection string (DSN)")
	cmd.PersistentFlags().String("cache-dsn", "", "Path of the local credential cache")
	cmd.PersistentFlags().String("language", "en", `Language ("en", "id")`)
	cmd.PersistentFlags().String("collection", "mahasiswa", "Directory collection to list")
	cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the studentdir version",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipApp: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "studentdir %s\n", buildvars.VersionOrDefault("dev"))
		},
	}
}
