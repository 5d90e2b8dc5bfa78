// Copyright (c) 2026 Keymaster Team
// Studentdir - student directory client
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/toeirei/studentdir/internal/directory"
	"github.com/toeirei/studentdir/internal/i18n"
)

func newListCmd(current func() *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the students of the configured collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			st, err := waitForSession(cmd, a)
			if err != nil {
				return err
			}
			students, err := a.fetcher.Fetch(cmd.Context(), st)
			if err != nil {
				return err
			}
			return writeStudents(cmd.OutOrStdout(), output, students)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table, json, yaml)")
	return cmd
}

func writeStudents(w io.Writer, format string, students []directory.Student) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(students)
	case "yaml":
		data, err := yaml.Marshal(students)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case "table", "":
		if len(students) == 0 {
			_, err := fmt.Fprintln(w, i18n.T("home.empty"))
			return err
		}
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers(i18n.T("table.nim"), i18n.T("table.name"), i18n.T("table.program"), i18n.T("table.faculty"))
		for _, s := range students {
			t.Row(s.ID, s.Name, s.Program, s.Faculty)
		}
		_, err := fmt.Fprintln(w, t.Render())
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func newImportCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import students from a YAML, JSON or .zst export file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			students, err := directory.LoadStudentsFile(args[0])
			if err != nil {
				return err
			}
			n, err := a.students.ImportStudents(cmd.Context(), a.cfg.Collection, students)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.imported", n, a.cfg.Collection))
			return nil
		},
	}
}

func newExportCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Export the collection as zstd-compressed JSON lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a := current()
			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			defer func() {
				if cerr := f.Close(); err == nil {
					err = cerr
				}
			}()
			n, err := directory.ExportStudents(cmd.Context(), a.students, a.cfg.Collection, f)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.exported", n, args[0]))
			return nil
		},
	}
}
