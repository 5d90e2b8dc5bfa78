// Copyright (c) 2026 Keymaster Team
// Studentdir - student directory client
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/toeirei/studentdir/internal/directory"
	"github.com/toeirei/studentdir/internal/i18n"
	"github.com/toeirei/studentdir/internal/identity"
)

// writeClipboard is swapped out in tests.
var writeClipboard = clipboard.WriteAll

type (
	fetchRequestMsg  struct{}
	logoutRequestMsg struct{}
	copyResultMsg    struct {
		nim string
		err error
	}
)

type homeModel struct {
	identity  identity.Identity
	confirmed bool
	students  []directory.Student
	table     table.Model
	loading   bool
	status    string
	width     int
}

func newHomeModel(ident identity.Identity, confirmed bool) homeModel {
	cols := []table.Column{
		{Title: i18n.T("table.nim"), Width: 12},
		{Title: i18n.T("table.name"), Width: 24},
		{Title: i18n.T("table.program"), Width: 20},
		{Title: i18n.T("table.faculty"), Width: 20},
	}
	t := table.New(table.WithColumns(cols), table.WithFocused(true), table.WithHeight(12))
	s := table.DefaultStyles()
	s.Header = s.Header.BorderStyle(lipgloss.NormalBorder()).BorderForeground(colorSubtle).BorderBottom(true).Bold(true)
	s.Selected = s.Selected.Foreground(colorWhite).Background(colorHighlight).Bold(false)
	t.SetStyles(s)
	return homeModel{identity: ident, confirmed: confirmed, table: t, loading: true}
}

func (m *homeModel) setStudents(list []directory.Student) {
	m.students = list
	rows := make([]table.Row, 0, len(list))
	for _, s := range list {
		rows = append(rows, table.Row{s.ID, s.Name, s.Program, s.Faculty})
	}
	m.table.SetRows(rows)
}

func (m *homeModel) setHeight(h int) {
	if h > 10 {
		m.table.SetHeight(h - 10)
	}
}

func (m homeModel) selected() (directory.Student, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.students) {
		return directory.Student{}, false
	}
	return m.students[i], true
}

func (m homeModel) Update(msg tea.Msg) (homeModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "q":
			return m, tea.Quit
		case "r":
			if m.loading {
				return m, nil
			}
			m.loading = true
			m.status = ""
			return m, func() tea.Msg { return fetchRequestMsg{} }
		case "L":
			return m, func() tea.Msg { return logoutRequestMsg{} }
		case "y":
			st, ok := m.selected()
			if !ok {
				return m, nil
			}
			nim := st.ID
			return m, func() tea.Msg { return copyResultMsg{nim: nim, err: writeClipboard(nim)} }
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m homeModel) View() string {
	who := i18n.T("home.signed_in_as", m.identity.Email)
	if m.identity.Email == "" {
		who = i18n.T("home.signed_in_as", m.identity.ID)
	}
	if !m.confirmed {
		who += " " + specialStyle.Render(i18n.T("home.unconfirmed"))
	}

	var body string
	switch {
	case m.loading && len(m.students) == 0:
		body = helpStyle.Render(i18n.T("home.loading"))
	case len(m.students) == 0:
		body = helpStyle.Render(i18n.T("home.empty"))
	default:
		body = m.table.View()
	}

	parts := []string{mainTitleStyle.Render(i18n.T("app.title")), who, "", body, ""}
	if m.status != "" {
		parts = append(parts, statusMessageStyle.Render(m.status), "")
	}
	parts = append(parts, footerStyle.Render(AlignFooter(i18n.T("home.help"), fmt.Sprintf("%d", len(m.students)), 72)))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
