// Copyright (c) 2026 Keymaster Team
// Studentdir - student directory client
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/toeirei/studentdir/internal/i18n"
)

// formMode selects between the login and the register form.
type formMode int

const (
	loginMode formMode = iota
	registerMode
)

// submitFormMsg asks the main model to run the form's action.
type submitFormMsg struct {
	mode     formMode
	email    string
	password string
}

// switchFormMsg switches between login and register.
type switchFormMsg struct{ mode formMode }

// showAlertMsg raises a blocking alert.
type showAlertMsg struct{ alert *alert }

type authFormModel struct {
	mode       formMode
	focusIndex int
	inputs     []textinput.Model // 0: email, 1: password
	submitting bool
}

func newAuthFormModel(mode formMode) authFormModel {
	m := authFormModel{mode: mode, inputs: make([]textinput.Model, 2)}
	for i := range m.inputs {
		t := textinput.New()
		t.Cursor.Style = focusedStyle
		t.CharLimit = 128
		t.Width = 40
		switch i {
		case 0:
			t.Prompt = padPrompt(i18n.T("form.email"))
			t.Placeholder = "nama@kampus.ac.id"
		case 1:
			t.Prompt = padPrompt(i18n.T("form.password"))
			t.EchoMode = textinput.EchoPassword
			t.EchoCharacter = '•'
		}
		m.inputs[i] = t
	}
	m.inputs[0].Focus()
	m.inputs[0].TextStyle = focusedStyle
	return m
}

func padPrompt(label string) string {
	const width = 11
	if n := width - len([]rune(label)); n > 0 {
		label += strings.Repeat(" ", n)
	}
	return label + " "
}

func (m authFormModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m authFormModel) Update(msg tea.Msg) (authFormModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m.updateInputs(msg)
	}
	switch key.String() {
	case "esc":
		return m, tea.Quit
	case "ctrl+r":
		if m.mode == loginMode {
			return m, func() tea.Msg { return switchFormMsg{mode: registerMode} }
		}
	case "ctrl+l":
		if m.mode == registerMode {
			return m, func() tea.Msg { return switchFormMsg{mode: loginMode} }
		}
	case "enter":
		if m.submitting {
			return m, nil
		}
		email := strings.TrimSpace(m.inputs[0].Value())
		password := m.inputs[1].Value()
		if email == "" || password == "" {
			return m, func() tea.Msg { return showAlertMsg{alert: errorAlert(i18n.T("alert.missing_input"))} }
		}
		m.submitting = true
		mode := m.mode
		return m, func() tea.Msg { return submitFormMsg{mode: mode, email: email, password: password} }
	case "tab", "down":
		m.setFocus((m.focusIndex + 1) % len(m.inputs))
		return m, nil
	case "shift+tab", "up":
		m.setFocus((m.focusIndex + len(m.inputs) - 1) % len(m.inputs))
		return m, nil
	}
	return m.updateInputs(msg)
}

func (m *authFormModel) setFocus(i int) {
	m.focusIndex = i
	for j := range m.inputs {
		if j == i {
			m.inputs[j].Focus()
			m.inputs[j].TextStyle = focusedStyle
			continue
		}
		m.inputs[j].Blur()
		m.inputs[j].TextStyle = lipgloss.NewStyle()
	}
}

func (m authFormModel) updateInputs(msg tea.Msg) (authFormModel, tea.Cmd) {
	if m.submitting {
		return m, nil
	}
	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		m.inputs[i], cmds[i] = m.inputs[i].Update(msg)
	}
	return m, tea.Batch(cmds...)
}

// done re-enables the form after its action finished. The password is
// cleared on failure.
func (m *authFormModel) done(failed bool) {
	m.submitting = false
	if failed {
		m.inputs[1].SetValue("")
	}
}

func (m authFormModel) View() string {
	title := i18n.T("login.title")
	help := i18n.T("form.help_login")
	if m.mode == registerMode {
		title = i18n.T("register.title")
		help = i18n.T("form.help_register")
	}

	var b strings.Builder
	for _, in := range m.inputs {
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	if m.submitting {
		b.WriteString("\n" + specialStyle.Render(i18n.T("form.submitting")) + "\n")
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(title),
		b.String(),
		footerStyle.Render(AlignFooter(help, "", 60)),
	)
}
