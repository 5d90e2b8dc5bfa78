// Copyright (c) 2026 Keymaster Team
// Studentdir - student directory client
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/toeirei/studentdir/internal/directory"
	"github.com/toeirei/studentdir/internal/i18n"
	"github.com/toeirei/studentdir/internal/identity"
	"github.com/toeirei/studentdir/internal/security"
	"github.com/toeirei/studentdir/internal/session"
)

// StateSource publishes the bootstrap state.
type StateSource interface {
	Watch() (<-chan session.State, func())
}

// Actions are the user actions the forms and the home view trigger.
type Actions interface {
	Login(ctx context.Context, email string, password security.Secret) (identity.Identity, error)
	Register(ctx context.Context, email string, password security.Secret) (identity.Identity, error)
	Logout(ctx context.Context) error
}

// StudentFetcher loads the student list for the current state.
type StudentFetcher interface {
	Fetch(ctx context.Context, st session.State) ([]directory.Student, error)
}

// Deps are the components the TUI drives.
type Deps struct {
	State   StateSource
	Actions Actions
	Fetcher StudentFetcher
}

// viewState represents which part of the UI is currently active.
type viewState int

const (
	loadingView viewState = iota
	loginView
	registerView
	homeView
)

type (
	stateMsg struct {
		state session.State
		ok    bool
	}
	authResultMsg struct {
		mode formMode
		err  error
	}
	fetchResultMsg struct {
		students []directory.Student
		err      error
	}
	logoutResultMsg struct{ err error }
)

// mainModel is the top-level model. It routes between views based on the
// bootstrap state and owns the alert overlay.
type mainModel struct {
	ctx     context.Context
	deps    Deps
	updates <-chan session.State
	stop    func()

	state   viewState
	session session.State
	spinner spinner.Model
	form    authFormModel
	home    homeModel
	alert   *alert
	width   int
	height  int
}

func newMainModel(ctx context.Context, deps Deps) mainModel {
	ch, stop := deps.State.Watch()
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = specialStyle
	return mainModel{
		ctx:     ctx,
		deps:    deps,
		updates: ch,
		stop:    stop,
		state:   loadingView,
		spinner: s,
	}
}

func waitForState(ch <-chan session.State) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		return stateMsg{state: st, ok: ok}
	}
}

func (m mainModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForState(m.updates))
}

func (m mainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.alert != nil {
			switch msg.String() {
			case "enter", "esc", " ":
				m.alert = nil
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if m.state == homeView {
			m.home.setHeight(msg.Height)
		}
		return m, nil

	case spinner.TickMsg:
		if m.state != loadingView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case stateMsg:
		if !msg.ok {
			return m, nil
		}
		prev := m.session
		m.session = msg.state
		return m, tea.Batch(m.route(prev), waitForState(m.updates))

	case showAlertMsg:
		m.alert = msg.alert
		return m, nil

	case switchFormMsg:
		m.form = newAuthFormModel(msg.mode)
		m.state = loginView
		if msg.mode == registerMode {
			m.state = registerView
		}
		return m, m.form.Init()

	case submitFormMsg:
		return m, m.submit(msg)

	case authResultMsg:
		return m.onAuthResult(msg)

	case fetchRequestMsg:
		return m, m.fetch()

	case fetchResultMsg:
		m.home.loading = false
		if msg.err != nil {
			if errors.Is(msg.err, directory.ErrSignedOut) || errors.Is(msg.err, context.Canceled) {
				return m, nil
			}
			m.alert = errorAlert(i18n.T("home.fetch_failed"))
			return m, nil
		}
		m.home.setStudents(msg.students)
		return m, nil

	case logoutRequestMsg:
		actions, ctx := m.deps.Actions, m.ctx
		return m, func() tea.Msg { return logoutResultMsg{err: actions.Logout(ctx)} }

	case logoutResultMsg:
		if msg.err != nil {
			m.alert = errorAlert(i18n.T("alert.logout_failed", msg.err.Error()))
		}
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			m.home.status = i18n.T("home.copy_failed", msg.err.Error())
		} else {
			m.home.status = i18n.T("home.copied", msg.nim)
		}
		return m, nil
	}

	var cmd tea.Cmd
	switch m.state {
	case loginView, registerView:
		m.form, cmd = m.form.Update(msg)
	case homeView:
		m.home, cmd = m.home.Update(msg)
	}
	return m, cmd
}

// route picks the view for the current session state. Nothing is shown
// before the state latched. A signed-in state always lands on home; a
// signed-out state leaves an open login or register form alone.
func (m *mainModel) route(prev session.State) tea.Cmd {
	st := m.session
	if !st.Ready {
		m.state = loadingView
		return nil
	}
	if !st.SignedIn() {
		if m.state == loginView || m.state == registerView {
			return nil
		}
		m.state = loginView
		m.form = newAuthFormModel(loginMode)
		return m.form.Init()
	}

	refetch := m.state != homeView ||
		!prev.SignedIn() ||
		prev.Identity.ID != st.Identity.ID ||
		prev.Confirmed != st.Confirmed
	if m.state != homeView || !prev.SignedIn() || prev.Identity.ID != st.Identity.ID {
		m.home = newHomeModel(*st.Identity, st.Confirmed)
		m.home.setHeight(m.height)
	}
	m.state = homeView
	m.home.identity = *st.Identity
	m.home.confirmed = st.Confirmed
	if !refetch {
		return nil
	}
	m.home.loading = true
	return m.fetch()
}

func (m mainModel) fetch() tea.Cmd {
	fetcher, ctx, st := m.deps.Fetcher, m.ctx, m.session
	return func() tea.Msg {
		list, err := fetcher.Fetch(ctx, st)
		return fetchResultMsg{students: list, err: err}
	}
}

func (m mainModel) submit(msg submitFormMsg) tea.Cmd {
	actions, ctx := m.deps.Actions, m.ctx
	return func() tea.Msg {
		pw := security.FromString(msg.password)
		defer pw.Zero()
		var err error
		if msg.mode == registerMode {
			_, err = actions.Register(ctx, msg.email, pw)
		} else {
			_, err = actions.Login(ctx, msg.email, pw)
		}
		return authResultMsg{mode: msg.mode, err: err}
	}
}

func (m mainModel) onAuthResult(msg authResultMsg) (tea.Model, tea.Cmd) {
	if msg.mode == registerMode {
		if msg.err != nil {
			m.form.done(true)
			m.alert = errorAlert(i18n.T("alert.register_failed", msg.err.Error()))
			return m, nil
		}
		m.alert = successAlert(i18n.T("alert.register_ok"))
		m.form = newAuthFormModel(loginMode)
		m.state = loginView
		return m, textinput.Blink
	}
	if msg.err != nil {
		m.form.done(true)
		m.alert = errorAlert(i18n.T("alert.login_failed", msg.err.Error()))
		return m, nil
	}
	// The provider notification moves us to home.
	m.form.done(false)
	return m, nil
}

func (m mainModel) View() string {
	var body string
	switch m.state {
	case loadingView:
		body = lipgloss.JoinHorizontal(lipgloss.Center, m.spinner.View(), " ", i18n.T("bootstrap.loading"))
	case loginView, registerView:
		body = m.form.View()
	case homeView:
		body = m.home.View()
	}
	if m.alert != nil {
		body = lipgloss.JoinVertical(lipgloss.Left, body, "", m.alert.View())
	}
	return docStyle.Render(body)
}

// Run starts the TUI and blocks until the user quits or ctx is done.
func Run(ctx context.Context, deps Deps) error {
	m := newMainModel(ctx, deps)
	defer m.stop()
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
