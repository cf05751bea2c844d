package ui

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/soniadragulescu/beerstore/internal/beer"
)

type loginForm struct {
	inputs [2]textinput.Model // username, password
	focus  int
	busy   bool
	err    string
}

func newLoginForm(username string) loginForm {
	user := textinput.New()
	user.Prompt = "Username: "
	user.CharLimit = 64
	user.SetValue(username)

	pass := textinput.New()
	pass.Prompt = "Password: "
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'
	pass.CharLimit = 128

	f := loginForm{inputs: [2]textinput.Model{user, pass}}
	if username != "" {
		f.focus = 1
	}
	f.inputs[f.focus].Focus()
	return f
}

func (f *loginForm) setFocus(i int) {
	f.inputs[f.focus].Blur()
	f.focus = (i + len(f.inputs)) % len(f.inputs)
	f.inputs[f.focus].Focus()
}

func (f *loginForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.login.busy {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.NextField):
		m.login.setFocus(m.login.focus + 1)
		return m, nil
	case key.Matches(msg, m.keys.PrevField):
		m.login.setFocus(m.login.focus - 1)
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		if m.login.focus == 0 {
			m.login.setFocus(1)
			return m, nil
		}
		username := strings.TrimSpace(m.login.inputs[0].Value())
		if username == "" {
			m.login.err = "Username is required"
			m.login.setFocus(0)
			return m, nil
		}
		if m.session == nil {
			m.login.err = "No authentication backend configured"
			return m, nil
		}
		m.login.busy = true
		m.login.err = ""
		return m, loginCmd(m.ctx, m.session, username, m.login.inputs[1].Value())
	}
	return m, m.login.update(msg)
}

func (m Model) handleLoginDone(msg loginDoneMsg) (tea.Model, tea.Cmd) {
	m.login.busy = false
	m.login.inputs[1].SetValue("")
	if msg.err != nil {
		m.login.err = loginErrorText(msg.err)
		return m, nil
	}
	m.login.err = ""
	m.view = ViewList
	m.cursor, m.nextPage = 0, 1
	m.win.reset()
	if m.prefs.Username != msg.username {
		m.prefs.Username = msg.username
		m.savePrefs()
	}
	return m, fetchSnapshotCmd(m.store)
}

func (m Model) renderLogin() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Title.Render("Log in"))
	b.WriteString("\n\n")
	for _, in := range m.login.inputs {
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	switch {
	case m.login.busy:
		b.WriteString(styles.MutedText.Render("Signing in..."))
	case m.login.err != "":
		b.WriteString(styles.DangerText.Render(m.login.err))
	default:
		b.WriteString(styles.FaintText.Render("enter to submit, tab to switch field"))
	}
	return styles.Panel.Render(b.String())
}

// loginErrorText turns a rejected login into a message for the form.
func loginErrorText(err error) string {
	var ne *beer.NetworkError
	if errors.As(err, &ne) && (ne.Status == http.StatusBadRequest || ne.Status == http.StatusUnauthorized) {
		return "Invalid username or password"
	}
	return err.Error()
}

func loginCmd(ctx context.Context, auth Authenticator, username, password string) tea.Cmd {
	return func() tea.Msg {
		err := auth.Login(ctx, username, password)
		return loginDoneMsg{username: username, err: err}
	}
}

func logoutCmd(ctx context.Context, auth Authenticator) tea.Cmd {
	return func() tea.Msg {
		return logoutDoneMsg{err: auth.Logout(ctx)}
	}
}
