package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/soniadragulescu/beerstore/internal/beer"
)

// source returns the items to list and whether they come from the offline
// cache rather than the live session.
func (m Model) source() ([]beer.Item, bool) {
	if !m.snapshot.HasItems && len(m.cached) > 0 {
		return m.cached, true
	}
	return m.snapshot.Items, false
}

func (m Model) filtered() []beer.Item {
	items, _ := m.source()
	return filterItems(items, m.search.Value(), m.prefs.FavoritesOnly)
}

// visible is the filtered list cut to the scroll window.
func (m Model) visible() []beer.Item {
	return m.win.apply(m.filtered())
}

func (m Model) selected() (beer.Item, bool) {
	items := m.visible()
	if m.cursor < 0 || m.cursor >= len(items) {
		return beer.Item{}, false
	}
	return items[m.cursor], true
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirmLogout {
		m.confirmLogout = false
		if msg.String() == "y" && m.session != nil {
			return m, logoutCmd(m.ctx, m.session)
		}
		return m, nil
	}

	if m.searching {
		switch {
		case key.Matches(msg, m.keys.Back):
			m.searching = false
			m.search.Blur()
			m.search.SetValue("")
		case key.Matches(msg, m.keys.Submit):
			m.searching = false
			m.search.Blur()
		default:
			var cmd tea.Cmd
			m.search, cmd = m.search.Update(msg)
			m.cursor = 0
			m.win.reset()
			return m, cmd
		}
		return m, nil
	}

	total := len(m.filtered())
	shown := len(m.visible())

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	case key.Matches(msg, m.keys.CycleTheme):
		m.cycleTheme()
	case key.Matches(msg, m.keys.Problems):
		if m.logFile == "" {
			m.status = "No log file configured"
			return m, nil
		}
		m.showProblems = true
		return m, loadProblemsCmd(m.logFs, m.logFile)
	case key.Matches(msg, m.keys.Down):
		if m.cursor < shown-1 {
			m.cursor++
		}
		m.win.grow(m.cursor, total)
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
	case key.Matches(msg, m.keys.Bottom):
		m.cursor = max(0, shown-1)
		m.win.grow(m.cursor, total)
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.Favorites):
		m.prefs.FavoritesOnly = !m.prefs.FavoritesOnly
		m.cursor = 0
		m.win.reset()
		m.savePrefs()
	case key.Matches(msg, m.keys.Open):
		if item, ok := m.selected(); ok {
			return m.openEdit(item)
		}
	case key.Matches(msg, m.keys.Add):
		return m.openEdit(beer.Item{})
	case key.Matches(msg, m.keys.NextPage):
		if m.syncer != nil && m.snapshot.LoggedIn() && !m.snapshot.Fetching {
			return m, fetchPageCmd(m.ctx, m.syncer, m.nextPage)
		}
	case key.Matches(msg, m.keys.Refresh):
		if m.syncer != nil && m.snapshot.LoggedIn() && !m.snapshot.Fetching {
			m.nextPage = 1
			return m, fetchAllCmd(m.ctx, m.syncer)
		}
	case key.Matches(msg, m.keys.Logout):
		m.confirmLogout = true
	}
	return m, nil
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()

	parts := []string{styles.Title.Render("BeerStore")}
	if claims, ok := m.claims(); ok && claims != "" {
		parts = append(parts, styles.MutedText.Render("user "+claims))
	}

	snap := m.snapshot
	if snap.Fetching {
		parts = append(parts, styles.Badge("fetching", "fetching"))
	}
	if snap.Saving {
		parts = append(parts, styles.Badge("saving", "saving"))
	}
	if snap.Deleting {
		parts = append(parts, styles.Badge("deleting", "deleting"))
	}
	if !snap.Busy() && snap.LoggedIn() && !snap.LastUpdated.IsZero() {
		parts = append(parts, styles.FaintText.Render("synced "+snap.LastUpdated.Format("15:04:05")))
	}
	if m.offline() {
		parts = append(parts, styles.Badge("offline", "offline"))
	}
	if m.view == ViewList {
		parts = append(parts, styles.FaintText.Render(
			fmt.Sprintf("%d/%d shown", len(m.visible()), len(m.filtered()))))
	}
	return styles.Header.Width(max(m.width, 1)).Render(strings.Join(parts, "  "))
}

// offline reports whether the list is served from the cache or the last
// fetch could not reach the server at all.
func (m Model) offline() bool {
	if !m.snapshot.LoggedIn() {
		return false
	}
	if _, cached := m.source(); cached {
		return true
	}
	var netErr *beer.NetworkError
	return errors.As(m.snapshot.FetchErr, &netErr) && netErr.Status == 0
}

func (m Model) claims() (string, bool) {
	if m.session != nil {
		if c, ok := m.session.Claims(); ok && c.Username != "" {
			return c.Username, true
		}
	}
	if m.prefs.Username != "" && m.snapshot.LoggedIn() {
		return m.prefs.Username, true
	}
	return "", false
}

func (m Model) renderList() string {
	styles := m.theme.Styles()
	var b strings.Builder

	if m.searching || m.search.Value() != "" {
		b.WriteString(m.search.View())
		b.WriteString("\n")
	}
	if m.prefs.FavoritesOnly {
		b.WriteString(styles.WarningText.Render("★ favorites only"))
		b.WriteString("\n")
	}
	if msg := m.snapshot.FetchMessage(); msg != "" {
		b.WriteString(styles.DangerText.Render(msg))
		b.WriteString("\n")
	}
	if msg := m.snapshot.DeleteMessage(); msg != "" {
		b.WriteString(styles.DangerText.Render(msg))
		b.WriteString("\n")
	}

	items := m.visible()
	if len(items) == 0 {
		switch {
		case m.snapshot.Fetching:
			b.WriteString(styles.MutedText.Render("Fetching items..."))
		case !m.snapshot.HasItems:
			b.WriteString(styles.MutedText.Render("No items loaded yet"))
		default:
			b.WriteString(styles.MutedText.Render("No items"))
		}
		return b.String()
	}

	for i, it := range items {
		line := formatRow(it, max(m.width-2, 20))
		if i == m.cursor {
			line = styles.Selected.Render(line)
		} else {
			line = styles.Text.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if !m.win.exhausted(len(m.filtered())) {
		b.WriteString(styles.FaintText.Render("  ↓ more"))
		b.WriteString("\n")
	}
	return b.String()
}

// formatRow renders one list row: favorite marker, name, price, date and
// attachment markers.
func formatRow(it beer.Item, width int) string {
	fav := " "
	if it.Favorite {
		fav = "★"
	}
	var marks []string
	if it.Photo != nil {
		marks = append(marks, "photo")
	}
	if it.Location != nil {
		marks = append(marks, "@"+it.Location.String())
	}
	name := it.Name
	if name == "" {
		name = "(unnamed)"
	}
	row := fmt.Sprintf("%s %-24s %8.2f  %-10s %s", fav, truncate(name, 24), it.Price, it.CreationDate, strings.Join(marks, " "))
	return truncate(row, width)
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if limit <= 0 || len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	var hint string
	switch {
	case m.confirmLogout:
		return styles.Footer.Width(max(m.width, 1)).Render(styles.WarningText.Render("Log out? y to confirm, any other key to cancel"))
	case m.view == ViewLogin:
		hint = "enter submit  tab next field  ctrl+c quit"
	case m.view == ViewEdit:
		hint = "ctrl+s save  ctrl+d delete  space favorite  esc back"
	default:
		hint = "enter edit  a add  / search  f favorites  n next page  r refresh  p problems  L logout  ? help  q quit"
	}
	if m.status != "" {
		hint = m.status + "  |  " + hint
	}
	return styles.Footer.Width(max(m.width, 1)).Render(hint)
}

func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	sections := []struct {
		title string
		keys  []key.Binding
	}{
		{"List", []key.Binding{m.keys.Up, m.keys.Down, m.keys.Top, m.keys.Bottom, m.keys.Open, m.keys.Add}},
		{"Filter", []key.Binding{m.keys.Search, m.keys.Favorites}},
		{"Sync", []key.Binding{m.keys.NextPage, m.keys.Refresh, m.keys.Logout}},
		{"Edit", []key.Binding{m.keys.NextField, m.keys.Toggle, m.keys.Save, m.keys.Delete, m.keys.Back}},
		{"General", []key.Binding{m.keys.Problems, m.keys.CycleTheme, m.keys.Help, m.keys.Quit}},
	}

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Warning)).Width(12)
	for i, section := range sections {
		b.WriteString(styles.AccentText.Bold(true).Render(section.title))
		b.WriteString("\n")
		for _, kb := range section.keys {
			h := kb.Help()
			b.WriteString(keyStyle.Render(h.Key))
			b.WriteString(styles.Text.Render(h.Desc))
			b.WriteString("\n")
		}
		if i < len(sections)-1 {
			b.WriteString("\n")
		}
	}

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(40)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal.Render(b.String()))
}

func fetchAllCmd(ctx context.Context, s ItemSyncer) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{op: "fetch", err: s.FetchAll(ctx)}
	}
}

func fetchPageCmd(ctx context.Context, s ItemSyncer, page int) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{op: "page", err: s.FetchPage(ctx, page)}
	}
}

func (m Model) renderProblems() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Recent sync problems"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")
	if len(m.problems) == 0 {
		b.WriteString(styles.MutedText.Render("Nothing to report"))
	}
	width := max(m.width-10, 30)
	for _, e := range m.problems {
		level := styles.WarningText.Render(e.Level)
		if e.Level == "ERROR" {
			level = styles.DangerText.Render(e.Level)
		}
		line := e.Message
		if e.Attrs != "" {
			line += "  " + styles.FaintText.Render(truncate(e.Attrs, width))
		}
		b.WriteString(level + " " + styles.Text.Render(line))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("any key to close"))

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Danger)).
		Padding(1, 2).
		MaxWidth(max(m.width-2, 40))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal.Render(b.String()))
}
