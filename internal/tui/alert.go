// Copyright (c) 2026 Keymaster Team
// Studentdir - student directory client
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/toeirei/studentdir/internal/i18n"
)

// alert is a blocking notification. While one is shown, the only accepted
// input dismisses it.
type alert struct {
	title   string
	body    string
	isError bool
}

func errorAlert(body string) *alert {
	return &alert{title: i18n.T("alert.error"), body: body, isError: true}
}

func successAlert(body string) *alert {
	return &alert{title: i18n.T("alert.success"), body: body}
}

func (a *alert) View() string {
	title := successStyle.Bold(true).Render(a.title)
	if a.isError {
		title = errorStyle.Bold(true).Render(a.title)
	}
	return dialogBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		a.body,
		"",
		helpStyle.Render(i18n.T("alert.dismiss")),
	))
}
