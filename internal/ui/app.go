package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"

	"github.com/soniadragulescu/beerstore/internal/beer"
	"github.com/soniadragulescu/beerstore/internal/cache"
	"github.com/soniadragulescu/beerstore/internal/logtail"
	"github.com/soniadragulescu/beerstore/internal/photo"
	"github.com/soniadragulescu/beerstore/internal/prefs"
	"github.com/soniadragulescu/beerstore/internal/session"
	"github.com/soniadragulescu/beerstore/internal/state"
)

const (
	problemScanLines = 2000
	problemLimit     = 15
)

// View represents the current active screen.
type View int

const (
	ViewLogin View = iota
	ViewList
	ViewEdit
)

// ItemSyncer runs item operations. *state.Syncer implements it.
type ItemSyncer interface {
	FetchAll(ctx context.Context) error
	FetchPage(ctx context.Context, page int) error
	Save(ctx context.Context, item beer.Item) (beer.Item, error)
	Delete(ctx context.Context, item beer.Item) error
}

// Authenticator manages the session. *session.Session implements it.
type Authenticator interface {
	Login(ctx context.Context, username, password string) error
	Logout(ctx context.Context) error
	Token() string
	Claims() (session.Claims, bool)
}

// Options configures the UI.
type Options struct {
	Context    context.Context
	Syncer     ItemSyncer
	Store      *state.Store
	Session    Authenticator
	Gallery    *photo.Gallery  // optional
	Offline    cache.Snapshots // optional, shown before the first fetch lands
	Prefs      prefs.Prefs
	PrefsPath  string
	PageWindow int
	PollTick   time.Duration
	LogFile    string // read for the problems overlay
	LogFs      afero.Fs
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx          context.Context
	syncer       ItemSyncer
	store        *state.Store
	session      Authenticator
	gallery      *photo.Gallery
	offlineCache cache.Snapshots
	prefs        prefs.Prefs
	prefsPath    string
	pollTick     time.Duration
	logFile      string
	logFs        afero.Fs
	now          func() time.Time
	keys         keyMap

	// UI state
	theme         Theme
	view          View
	width         int
	height        int
	ready         bool
	showHelp      bool
	showProblems  bool
	problems      []logtail.Entry
	confirmLogout bool
	status        string

	// Data state
	snapshot state.Snapshot
	cached   []beer.Item

	// List state
	cursor    int
	win       window
	searching bool
	search    textinput.Model
	nextPage  int

	login loginForm
	edit  editForm
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = 500 * time.Millisecond
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	logFs := opts.LogFs
	if logFs == nil {
		logFs = afero.NewOsFs()
	}

	search := textinput.New()
	search.Prompt = "/"
	search.Placeholder = "search by name"

	m := Model{
		ctx:          ctx,
		syncer:       opts.Syncer,
		store:        opts.Store,
		session:      opts.Session,
		gallery:      opts.Gallery,
		offlineCache: opts.Offline,
		prefs:        opts.Prefs,
		prefsPath:    prefsPath,
		pollTick:     pollTick,
		logFile:      opts.LogFile,
		logFs:        logFs,
		now:          time.Now,
		keys:         DefaultKeyMap(),
		theme:        GetTheme(opts.Prefs.Theme),
		view:         ViewLogin,
		win:          newWindow(opts.PageWindow),
		search:       search,
		nextPage:     1,
		login:        newLoginForm(opts.Prefs.Username),
	}
	if m.store != nil {
		m.snapshot = m.store.Snapshot()
	}
	if m.session != nil && m.session.Token() != "" {
		m.view = ViewList
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tickCmd(m.pollTick),
		textinput.Blink,
	}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.offlineCache != nil {
		cmds = append(cmds, loadCachedCmd(m.ctx, m.offlineCache))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case tickMsg:
		var cmds []tea.Cmd
		if m.store != nil {
			cmds = append(cmds, fetchSnapshotCmd(m.store))
		}
		cmds = append(cmds, tickCmd(m.pollTick))
		return m, tea.Batch(cmds...)

	case snapshotMsg:
		m.applySnapshot(state.Snapshot(msg))
		return m, nil

	case cachedMsg:
		m.cached = msg.items
		return m, nil

	case loginDoneMsg:
		return m.handleLoginDone(msg)

	case logoutDoneMsg:
		m.view = ViewLogin
		m.cursor, m.nextPage = 0, 1
		m.win.reset()
		if msg.err != nil {
			m.status = msg.err.Error()
		}
		return m, fetchSnapshotCmd(m.store)

	case opDoneMsg:
		if msg.err == nil && msg.op == "page" {
			m.nextPage++
		}
		return m, fetchSnapshotCmd(m.store)

	case savedMsg:
		return m.handleSaved(msg)

	case deletedMsg:
		return m.handleDeleted(msg)

	case problemsMsg:
		m.problems = msg.entries
		if msg.err != nil {
			m.status = "log: " + msg.err.Error()
		}
		return m, nil

	case photoMsg:
		if msg.err != nil {
			m.status = "photo: " + msg.err.Error()
		}
		return m, nil
	}

	return m.updateInputs(msg)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.showProblems {
		return m.renderProblems()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	switch m.view {
	case ViewLogin:
		b.WriteString(m.renderLogin())
	case ViewEdit:
		b.WriteString(m.renderEdit())
	default:
		b.WriteString(m.renderList())
	}
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.showProblems {
		m.showProblems = false
		return m, nil
	}

	switch m.view {
	case ViewLogin:
		return m.handleLoginKey(msg)
	case ViewEdit:
		return m.handleEditKey(msg)
	default:
		return m.handleListKey(msg)
	}
}

// updateInputs forwards non-key messages such as cursor blinks to the focused
// text input.
func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case ViewLogin:
		cmd = m.login.update(msg)
	case ViewEdit:
		cmd = m.edit.update(msg)
	default:
		if m.searching {
			m.search, cmd = m.search.Update(msg)
		}
	}
	return m, cmd
}

func (m *Model) applySnapshot(snap state.Snapshot) {
	m.snapshot = snap
	if !snap.LoggedIn() && m.view != ViewLogin && !m.login.busy {
		m.view = ViewLogin
	}
	if snap.LoggedIn() && m.view == ViewLogin && !m.login.busy {
		m.view = ViewList
	}
	if n := len(m.visible()); m.cursor >= n {
		m.cursor = max(0, n-1)
	}
}

func (m *Model) cycleTheme() {
	m.theme = GetTheme(NextTheme(m.theme.Name))
	m.prefs.Theme = m.theme.Name
	m.savePrefs()
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.status = "prefs: " + err.Error()
	}
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type cachedMsg struct {
	items []beer.Item
}

type loginDoneMsg struct {
	username string
	err      error
}

type logoutDoneMsg struct {
	err error
}

type opDoneMsg struct {
	op  string
	err error
}

type savedMsg struct {
	item beer.Item
	err  error
}

type deletedMsg struct {
	err error
}

type photoMsg struct {
	err error
}

type problemsMsg struct {
	entries []logtail.Entry
	err     error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func loadCachedCmd(ctx context.Context, offline cache.Snapshots) tea.Cmd {
	return func() tea.Msg {
		items, err := offline.All(ctx)
		if err != nil {
			return cachedMsg{}
		}
		return cachedMsg{items: items}
	}
}

func loadProblemsCmd(fsys afero.Fs, path string) tea.Cmd {
	return func() tea.Msg {
		entries, err := logtail.Problems(fsys, path, problemScanLines, problemLimit)
		return problemsMsg{entries: entries, err: err}
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	return err
}
