// Copyright (c) 2026 Keymaster Team
// Studentdir - student directory client
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/toeirei/studentdir/internal/i18n"
	"github.com/toeirei/studentdir/internal/session"
)

func newLoginCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login [email]",
		Short: "Sign in and remember the session on this machine",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email, pw, err := newPrompter(cmd).credentials(args)
			if err != nil {
				return err
			}
			defer pw.Zero()
			ident, err := current().auth.Login(cmd.Context(), email, pw)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.login_ok", ident.Email, ident.ID))
			return nil
		},
	}
}

func newRegisterCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "register [email]",
		Short: "Create an account",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email, pw, err := newPrompter(cmd).credentials(args)
			if err != nil {
				return err
			}
			defer pw.Zero()
			ident, err := current().auth.Register(cmd.Context(), email, pw)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.register_ok", ident.Email))
			return nil
		},
	}
}

func newLogoutCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the cached credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			// The provider has to know the session to revoke it.
			a.provider.Restore(cmd.Context())
			if err := a.auth.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.logout_ok"))
			return nil
		},
	}
}

func newWhoamiCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show who is signed in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := waitForSession(cmd, current())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), describeState(st))
			return nil
		},
	}
}

// waitForSession runs the bootstrap until the state latched.
func waitForSession(cmd *cobra.Command, a *app) (session.State, error) {
	boot, err := a.startSession(cmd.Context())
	if err != nil {
		return session.State{}, err
	}
	return boot.Wait(cmd.Context())
}

func describeState(st session.State) string {
	if !st.SignedIn() {
		return i18n.T("cli.whoami_none")
	}
	status := i18n.T("cli.status_cached")
	if st.Confirmed {
		status = i18n.T("cli.status_confirmed")
	}
	return i18n.T("cli.whoami", st.Identity.Email, st.Identity.ID, status)
}
