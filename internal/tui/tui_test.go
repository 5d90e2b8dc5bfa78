// Copyright (c) 2026 Keymaster Team
// Studentdir - student directory client
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/toeirei/studentdir/internal/directory"
	"github.com/toeirei/studentdir/internal/i18n"
	"github.com/toeirei/studentdir/internal/identity"
	"github.com/toeirei/studentdir/internal/security"
	"github.com/toeirei/studentdir/internal/session"
)

type stubState struct{ ch chan session.State }

func (s *stubState) Watch() (<-chan session.State, func()) { return s.ch, func() {} }

type stubActions struct {
	login    func(email string, pw security.Secret) error
	register func(email string, pw security.Secret) error
	logout   func() error
}

func (a *stubActions) Login(_ context.Context, email string, pw security.Secret) (identity.Identity, error) {
	if a.login == nil {
		return identity.Identity{}, nil
	}
	return identity.Identity{}, a.login(email, pw)
}

func (a *stubActions) Register(_ context.Context, email string, pw security.Secret) (identity.Identity, error) {
	if a.register == nil {
		return identity.Identity{}, nil
	}
	return identity.Identity{}, a.register(email, pw)
}

func (a *stubActions) Logout(context.Context) error {
	if a.logout == nil {
		return nil
	}
	return a.logout()
}

type stubFetcher struct {
	calls    int
	students []directory.Student
	err      error
}

func (f *stubFetcher) Fetch(context.Context, session.State) ([]directory.Student, error) {
	f.calls++
	return f.students, f.err
}

var (
	alice  = &identity.Identity{ID: "u1", Email: "alice@kampus.ac.id", Confirmed: true}
	roster = []directory.Student{
		{ID: "2101", Name: "Budi", Program: "Informatika", Faculty: "Teknik"},
		{ID: "2102", Name: "Sari", Program: "Biologi", Faculty: "MIPA"},
	}
)

func init() { i18n.Init("en") }

func newTestModel(actions *stubActions, fetcher *stubFetcher) mainModel {
	if actions == nil {
		actions = &stubActions{}
	}
	if fetcher == nil {
		fetcher = &stubFetcher{}
	}
	return newMainModel(context.Background(), Deps{
		State:   &stubState{ch: make(chan session.State, 1)},
		Actions: actions,
		Fetcher: fetcher,
	})
}

func update(t *testing.T, m mainModel, msg tea.Msg) (mainModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	mm, ok := next.(mainModel)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return mm, cmd
}

func keyRunes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func signedIn(ident *identity.Identity, confirmed bool) stateMsg {
	return stateMsg{ok: true, state: session.State{Identity: ident, Ready: true, Confirmed: confirmed}}
}

func signedOut() stateMsg {
	return stateMsg{ok: true, state: session.State{Ready: true, Confirmed: true}}
}

func TestLoadingUntilReady(t *testing.T) {
	m := newTestModel(nil, nil)
	m, _ = update(t, m, stateMsg{ok: true})
	if m.state != loadingView {
		t.Fatalf("expected loading view before ready, got %v", m.state)
	}
	if !strings.Contains(m.View(), i18n.T("bootstrap.loading")) {
		t.Fatalf("loading view missing text: %q", m.View())
	}
	m, _ = update(t, m, signedOut())
	if m.state != loginView || m.form.mode != loginMode {
		t.Fatalf("expected login view, got %v", m.state)
	}
}

func TestReadyWithIdentityGoesHomeAndFetches(t *testing.T) {
	f := &stubFetcher{students: roster}
	m := newTestModel(nil, f)
	m, _ = update(t, m, signedIn(alice, true))
	if m.state != homeView {
		t.Fatalf("expected home view, got %v", m.state)
	}
	if !m.home.loading {
		t.Fatalf("expected a fetch to be pending")
	}
	m, _ = update(t, m, m.fetch()())
	if f.calls != 1 {
		t.Fatalf("expected 1 fetch, got %d", f.calls)
	}
	if m.home.loading || len(m.home.table.Rows()) != 2 {
		t.Fatalf("rows not applied: loading=%v rows=%d", m.home.loading, len(m.home.table.Rows()))
	}
	if !strings.Contains(m.View(), "Budi") {
		t.Fatalf("home view does not list students")
	}
}

func TestConfirmationRefetchesWithoutResettingList(t *testing.T) {
	m := newTestModel(nil, &stubFetcher{students: roster})
	cached := &identity.Identity{ID: alice.ID, Email: alice.Email}
	m, _ = update(t, m, signedIn(cached, false))
	m, _ = update(t, m, m.fetch()())
	if !strings.Contains(m.View(), i18n.T("home.unconfirmed")) {
		t.Fatalf("expected the unconfirmed marker")
	}
	m, _ = update(t, m, signedIn(alice, true))
	if !m.home.loading {
		t.Fatalf("confirmation should trigger a refetch")
	}
	if len(m.home.students) != 2 {
		t.Fatalf("list was reset on confirmation")
	}
	if strings.Contains(m.View(), i18n.T("home.unconfirmed")) {
		t.Fatalf("marker still shown after confirmation")
	}
}

func TestLogoutNotificationReturnsToLogin(t *testing.T) {
	m := newTestModel(nil, &stubFetcher{})
	m, _ = update(t, m, signedIn(alice, true))
	m, _ = update(t, m, signedOut())
	if m.state != loginView {
		t.Fatalf("expected login view after sign-out, got %v", m.state)
	}
}

func TestSignedOutStateKeepsRegisterForm(t *testing.T) {
	m := newTestModel(nil, nil)
	m, _ = update(t, m, signedOut())
	m, _ = update(t, m, switchFormMsg{mode: registerMode})
	m, _ = update(t, m, signedOut())
	if m.state != registerView {
		t.Fatalf("register form was replaced, state %v", m.state)
	}
}

func TestEmptySubmitRaisesAlert(t *testing.T) {
	m := newTestModel(nil, nil)
	m, _ = update(t, m, signedOut())
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("expected an alert command")
	}
	msg, ok := cmd().(showAlertMsg)
	if !ok || !msg.alert.isError {
		t.Fatalf("expected error alert, got %#v", msg)
	}
	m, _ = update(t, m, msg)
	// keys are swallowed while the alert is up
	m, _ = update(t, m, keyRunes("x"))
	if m.form.inputs[0].Value() != "" {
		t.Fatalf("input received a key behind the alert")
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.alert != nil {
		t.Fatalf("enter should dismiss the alert")
	}
}

func TestLoginFailureShowsAlertAndReenablesForm(t *testing.T) {
	var gotEmail, gotPassword string
	actions := &stubActions{login: func(email string, pw security.Secret) error {
		gotEmail, gotPassword = email, pw.Reveal()
		return identity.ErrInvalidCredentials
	}}
	m := newTestModel(actions, nil)
	m, _ = update(t, m, signedOut())
	m.form.inputs[0].SetValue(" alice@kampus.ac.id ")
	m.form.inputs[1].SetValue("rahasia")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	sub, ok := cmd().(submitFormMsg)
	if !ok {
		t.Fatalf("expected submitFormMsg")
	}
	if !m.form.submitting {
		t.Fatalf("form should be locked while submitting")
	}
	m, cmd = update(t, m, sub)
	m, _ = update(t, m, cmd())
	if gotEmail != "alice@kampus.ac.id" || gotPassword != "rahasia" {
		t.Fatalf("unexpected credentials %q / %q", gotEmail, gotPassword)
	}
	if m.alert == nil || !m.alert.isError {
		t.Fatalf("expected an error alert")
	}
	if m.form.submitting || m.form.inputs[1].Value() != "" {
		t.Fatalf("form not reset after failure")
	}
}

func TestRegisterSuccessReturnsToLogin(t *testing.T) {
	m := newTestModel(&stubActions{}, nil)
	m, _ = update(t, m, signedOut())
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	m, _ = update(t, m, cmd())
	if m.state != registerView {
		t.Fatalf("ctrl+r should open register, got %v", m.state)
	}
	m, cmd = update(t, m, submitFormMsg{mode: registerMode, email: "new@kampus.ac.id", password: "rahasia"})
	m, _ = update(t, m, cmd())
	if m.state != loginView {
		t.Fatalf("expected login view after register, got %v", m.state)
	}
	if m.alert == nil || m.alert.isError || m.alert.body != i18n.T("alert.register_ok") {
		t.Fatalf("expected success alert, got %#v", m.alert)
	}
}

func TestFetchErrorKeepsList(t *testing.T) {
	f := &stubFetcher{students: roster}
	m := newTestModel(nil, f)
	m, _ = update(t, m, signedIn(alice, true))
	m, _ = update(t, m, m.fetch()())

	m, _ = update(t, m, keyRunes("r"))
	if !m.home.loading {
		t.Fatalf("r should start a refresh")
	}
	m, _ = update(t, m, fetchResultMsg{students: roster, err: &directory.QueryError{Collection: "mahasiswa", Err: errors.New("offline")}})
	if m.alert == nil {
		t.Fatalf("expected fetch alert")
	}
	if len(m.home.table.Rows()) != 2 {
		t.Fatalf("stale list should be kept")
	}
}

func TestLogoutKey(t *testing.T) {
	calls := 0
	m := newTestModel(&stubActions{logout: func() error { calls++; return errors.New("network") }}, &stubFetcher{})
	m, _ = update(t, m, signedIn(alice, true))
	m, cmd := update(t, m, keyRunes("L"))
	m, cmd = update(t, m, cmd())
	m, _ = update(t, m, cmd())
	if calls != 1 {
		t.Fatalf("expected one logout, got %d", calls)
	}
	if m.alert == nil || m.state != homeView {
		t.Fatalf("failed logout should alert and stay home")
	}
}

func TestCopyNIM(t *testing.T) {
	var copied string
	orig := writeClipboard
	writeClipboard = func(s string) error { copied = s; return nil }
	t.Cleanup(func() { writeClipboard = orig })

	m := newTestModel(nil, &stubFetcher{students: roster})
	m, _ = update(t, m, signedIn(alice, true))
	m, _ = update(t, m, m.fetch()())
	m, cmd := update(t, m, keyRunes("y"))
	m, _ = update(t, m, cmd())
	if copied != "2101" {
		t.Fatalf("copied %q", copied)
	}
	if m.home.status != i18n.T("home.copied", "2101") {
		t.Fatalf("status %q", m.home.status)
	}
}

func TestClosedWatchStopsListening(t *testing.T) {
	m := newTestModel(nil, nil)
	_, cmd := update(t, m, stateMsg{ok: false})
	if cmd != nil {
		t.Fatalf("no further wait expected after the watch closed")
	}
}
