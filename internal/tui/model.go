// Package tui is the terminal front end of the admin console. It owns
// no domain state: every screen is a headless controller from the
// screens package, and the Model only renders snapshots and forwards
// keys.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"skyrace/console/internal/form"
	"skyrace/console/internal/logging"
	"skyrace/console/internal/models"
	"skyrace/console/internal/screens"
	"skyrace/console/internal/session"
	"skyrace/console/internal/toast"
)

// FocusRegion identifies which part of the UI receives key events.
type FocusRegion int

const (
	FocusList FocusRegion = iota
	FocusSearch
	FocusForm
	FocusConfirm
	FocusLogin
)

const sidebarWidth = 18

type Options struct {
	Screens []screens.Screen
	Login   *screens.Login
	Session *session.Session
	Toasts  *toast.Notifier
	Keys    *KeyMap
	Theme   *Theme
	Logger  *zap.SugaredLogger
}

// Model is the bubbletea model for the console.
type Model struct {
	screens []screens.Screen
	login   *screens.Login
	session *session.Session
	toasts  *toast.Notifier
	keys    KeyMap
	styles  styles
	logger  *zap.SugaredLogger

	// changes carries wake-ups from screen, toast and session callbacks,
	// which fire on arbitrary goroutines.
	changes chan struct{}

	active    int
	signedIn  bool
	focus     FocusRegion
	filterIdx int

	snap   screens.Snapshot
	table  table.Model
	search textinput.Model
	editor *editor

	loginForm *editor
	loginErr  string
	loginBusy bool

	width  int
	height int
}

// changedMsg is delivered when any controller reported a change.
type changedMsg struct{}

// syncMsg re-reads state without re-arming the change listener.
type syncMsg struct{}

type tickMsg time.Time

// opResultMsg is the outcome of a blocking controller call.
type opResultMsg struct {
	op  string
	err error
}

func New(opts Options) Model {
	keys := DefaultKeyMap
	if opts.Keys != nil {
		keys = *opts.Keys
	}
	theme := DefaultTheme
	if opts.Theme != nil {
		theme = *opts.Theme
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Named("tui")
	}

	changes := make(chan struct{}, 1)
	wake := func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	}
	for _, s := range opts.Screens {
		s.OnChange(wake)
	}
	if opts.Login != nil {
		opts.Login.OnChange(wake)
	}
	if opts.Toasts != nil {
		opts.Toasts.OnPush(wake)
	}
	if opts.Session != nil {
		opts.Session.OnChange(func(*models.AdminUser) { wake() })
	}

	tbl := table.New(table.WithFocused(true), table.WithHeight(12))
	tbl.KeyMap = table.KeyMap{
		LineUp:       keys.Up,
		LineDown:     keys.Down,
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		GotoTop:      key.NewBinding(key.WithKeys("home", "g")),
		GotoBottom:   key.NewBinding(key.WithKeys("end", "G")),
	}
	st := table.DefaultStyles()
	st.Selected = st.Selected.Foreground(theme.SelectedForeground).Background(theme.SelectedBackground)
	tbl.SetStyles(st)

	search := textinput.New()
	search.Prompt = ""
	search.Placeholder = "type to search"

	return Model{
		screens: opts.Screens,
		login:   opts.Login,
		session: opts.Session,
		toasts:  opts.Toasts,
		keys:    keys,
		styles:  newStyles(theme),
		logger:  logger,
		changes: changes,
		focus:   FocusLogin,
		table:   tbl,
		search:  search,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		listenForChange(m.changes),
		tick(),
		func() tea.Msg { return syncMsg{} },
	)
}

func listenForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return changedMsg{}
	}
}

// tick re-renders once a second so expired toasts disappear.
func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case changedMsg:
		cmd := m.sync()
		return m, tea.Batch(cmd, listenForChange(m.changes))

	case syncMsg:
		return m, m.sync()

	case tickMsg:
		return m, tick()

	case opResultMsg:
		m.report(msg)
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.focus {
		case FocusLogin:
			return m.handleLoginKeys(msg)
		case FocusForm:
			return m.handleFormKeys(msg)
		case FocusConfirm:
			return m.handleConfirmKeys(msg)
		case FocusSearch:
			return m.handleSearchKeys(msg)
		default:
			return m.handleListKeys(msg)
		}
	}
	return m, nil
}

// Focus reports the region currently receiving keys.
func (m Model) Focus() FocusRegion { return m.focus }

// Active is the screen on display.
func (m Model) Active() screens.Screen {
	if len(m.screens) == 0 {
		return nil
	}
	return m.screens[m.active]
}

// sync pulls fresh state from the session, the login form and the
// active screen.
func (m *Model) sync() tea.Cmd {
	var cmd tea.Cmd
	authed := m.session != nil && m.session.Authenticated()
	if authed != m.signedIn {
		m.signedIn = authed
		if authed {
			m.focus = FocusList
			m.loginForm = nil
			cmd = m.mountActive()
		} else {
			if s := m.Active(); s != nil {
				s.Unmount()
			}
			m.editor = nil
			m.focus = FocusLogin
			if m.login != nil {
				m.login.Reset()
			}
		}
	}

	if !m.signedIn {
		m.syncLogin()
		return cmd
	}
	if s := m.Active(); s != nil {
		m.applySnapshot(s.Snapshot())
		m.resize()
	}
	return cmd
}

func (m *Model) syncLogin() {
	if m.login == nil {
		return
	}
	view, errText := m.login.Snapshot()
	settled := m.loginBusy && !view.Busy
	m.loginBusy = view.Busy
	m.loginErr = errText
	if m.loginForm == nil {
		m.loginForm = newEditor(view)
		return
	}
	if settled {
		at := m.loginForm.index
		m.loginForm = newEditor(view)
		m.loginForm.focus(at)
	}
}

func (m *Model) applySnapshot(snap screens.Snapshot) {
	m.snap = snap

	if snap.Form == nil {
		m.editor = nil
	} else if m.editor == nil || m.editor.title != snap.Form.Title || m.editor.mode != snap.Form.Mode {
		m.editor = newEditor(*snap.Form)
	}

	switch {
	case snap.Confirmation != nil:
		m.focus = FocusConfirm
	case m.editor != nil:
		m.focus = FocusForm
	case m.focus == FocusForm || m.focus == FocusConfirm:
		m.focus = FocusList
	}

	if m.filterIdx >= len(snap.Filters) {
		m.filterIdx = 0
	}
	m.syncTable()
}

func (m *Model) syncTable() {
	cols := make([]table.Column, len(m.snap.Columns))
	for i, c := range m.snap.Columns {
		w := c.Width
		if w <= 0 {
			w = 12
		}
		cols[i] = table.Column{Title: c.Title, Width: w}
	}
	rows := make([]table.Row, len(m.snap.Rows))
	for i, r := range m.snap.Rows {
		cells := make(table.Row, len(cols))
		copy(cells, r.Cells)
		rows[i] = cells
	}
	// Rows must never be wider than the columns they are rendered
	// against, so clear them before a column change.
	if !sameColumns(m.table.Columns(), cols) {
		m.table.SetRows(nil)
		m.table.SetColumns(cols)
	}
	m.table.SetRows(rows)
	// The table starts with no selection; row actions need one.
	switch c := m.table.Cursor(); {
	case len(rows) == 0:
	case c < 0:
		m.table.SetCursor(0)
	case c >= len(rows):
		m.table.SetCursor(len(rows) - 1)
	}
}

func sameColumns(a, b []table.Column) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (m *Model) resize() {
	// Title, header, filters, search, detail, toasts and help.
	h := m.height - 12 - len(m.snap.Header)
	if h < 3 {
		h = 3
	}
	m.table.SetHeight(h)
	m.table.SetWidth(max(m.width-sidebarWidth-4, 20))
}

func (m Model) selectedRow() (screens.Row, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.snap.Rows) {
		return screens.Row{}, false
	}
	return m.snap.Rows[i], true
}

// run wraps a blocking controller call in a Cmd.
func run(op string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return opResultMsg{op: op, err: fn(context.Background())}
	}
}

func (m Model) mountActive() tea.Cmd {
	s := m.Active()
	if s == nil {
		return nil
	}
	return run("mount", s.Mount)
}

// report surfaces errors the controllers do not toast themselves.
func (m Model) report(msg opResultMsg) {
	if msg.err == nil {
		return
	}
	m.logger.Debugw("Console operation failed", "op", msg.op, "error", msg.err)
	if m.toasts == nil {
		return
	}
	switch {
	case errors.Is(msg.err, screens.ErrActionUnavailable):
		m.toasts.Error("That action is not available for this record")
	case errors.Is(msg.err, screens.ErrRowNotFound):
		m.toasts.Error("Select a record first")
	case msg.op == "logout":
		m.toasts.Error("Sign out failed")
	}
}

func (m Model) switchScreen(i int) (tea.Model, tea.Cmd) {
	n := len(m.screens)
	if n == 0 {
		return m, nil
	}
	i = (i%n + n) % n
	if i == m.active {
		return m, nil
	}
	m.screens[m.active].Unmount()
	m.active = i
	m.filterIdx = 0
	m.editor = nil
	m.focus = FocusList
	m.table.SetCursor(0)
	m.applySnapshot(m.screens[i].Snapshot())
	m.resize()
	return m, m.mountActive()
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.Active()
	if s == nil {
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.NextScreen):
		return m.switchScreen(m.active + 1)

	case key.Matches(msg, m.keys.PrevScreen):
		return m.switchScreen(m.active - 1)

	case key.Matches(msg, m.keys.Search):
		if !m.snap.Searchable {
			return m, nil
		}
		m.focus = FocusSearch
		m.search.SetValue(m.snap.Search)
		m.search.CursorEnd()
		return m, m.search.Focus()

	case key.Matches(msg, m.keys.Filter):
		return m, m.cycleFilter()

	case key.Matches(msg, m.keys.NextFilter):
		if len(m.snap.Filters) > 0 {
			m.filterIdx = (m.filterIdx + 1) % len(m.snap.Filters)
		}
		return m, nil

	case key.Matches(msg, m.keys.PrevPage), key.Matches(msg, m.keys.NextPage):
		if m.snap.Pagination == nil {
			return m, nil
		}
		page := m.snap.Pagination.Page + 1
		if key.Matches(msg, m.keys.PrevPage) {
			page = m.snap.Pagination.Page - 1
		}
		return m, run("page", func(ctx context.Context) error { return s.SetPage(ctx, page) })

	case key.Matches(msg, m.keys.Refresh):
		return m, run("refresh", s.Refresh)

	case key.Matches(msg, m.keys.Logout):
		if m.session == nil {
			return m, nil
		}
		return m, run("logout", m.session.Logout)
	}

	for _, a := range m.snap.Actions {
		if a.Key == "" || a.Key != msg.String() {
			continue
		}
		id := a.ID
		rowID := ""
		if !a.Global {
			row, ok := m.selectedRow()
			if !ok {
				if m.toasts != nil {
					m.toasts.Error("Select a record first")
				}
				return m, nil
			}
			rowID = row.ID
		}
		return m, run("begin", func(ctx context.Context) error { return s.Begin(ctx, id, rowID) })
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// cycleFilter steps the focused filter through "all" and its options.
func (m Model) cycleFilter() tea.Cmd {
	if len(m.snap.Filters) == 0 {
		return nil
	}
	s := m.Active()
	f := m.snap.Filters[m.filterIdx]
	values := append([]string{""}, f.Options...)
	next := values[0]
	for i, v := range values {
		if v == f.Value {
			next = values[(i+1)%len(values)]
			break
		}
	}
	name := f.Name
	return run("filter", func(ctx context.Context) error { return s.SetFilter(ctx, name, next) })
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyEnter:
		m.search.Blur()
		m.focus = FocusList
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if term := m.search.Value(); term != before {
		// SetSearch returns immediately: server-side searches are
		// debounced by the controller, so calling it inline keeps
		// keystrokes in order.
		if err := m.Active().SetSearch(context.Background(), term); err != nil {
			m.logger.Debugw("Search failed", "error", err)
		}
	}
	return m, cmd
}

func (m Model) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.Active()
	e := m.editor
	if s == nil || e == nil || len(e.fields) == 0 {
		m.focus = FocusList
		return m, nil
	}

	switch {
	case msg.Type == tea.KeyEsc:
		s.Dismiss()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m, run("submit", s.Submit)

	case msg.Type == tea.KeyEnter:
		if e.last() {
			return m, run("submit", s.Submit)
		}
		e.focus(e.index + 1)
		return m, textinput.Blink

	case key.Matches(msg, m.keys.NextField):
		e.focus(e.index + 1)
		return m, textinput.Blink

	case key.Matches(msg, m.keys.PrevField):
		e.focus(e.index - 1)
		return m, textinput.Blink
	}

	if e.current().Kind == form.KindSelect {
		step := 0
		switch msg.Type {
		case tea.KeyLeft:
			step = -1
		case tea.KeyRight, tea.KeySpace:
			step = 1
		}
		if step == 0 {
			return m, nil
		}
		if v, ok := e.cycle(step); ok {
			m.setField(s.SetField, e.current().Name, v)
		}
		return m, nil
	}

	v, changed, cmd := e.update(msg)
	if changed {
		m.setField(s.SetField, e.current().Name, v)
	}
	return m, cmd
}

func (m Model) setField(set func(name, value string) error, name, value string) {
	if err := set(name, value); err != nil {
		m.logger.Debugw("Form field rejected", "field", name, "error", err)
	}
}

func (m Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.Active()
	switch {
	case key.Matches(msg, m.keys.Confirm):
		return m, run("confirm", s.Confirm)
	case key.Matches(msg, m.keys.Cancel):
		s.Dismiss()
	}
	return m, nil
}

func (m Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	e := m.loginForm
	if m.login == nil || e == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Submit):
		return m, run("login", m.login.Submit)

	case msg.Type == tea.KeyEnter:
		if e.last() {
			return m, run("login", m.login.Submit)
		}
		e.focus(e.index + 1)
		return m, textinput.Blink

	case key.Matches(msg, m.keys.NextField):
		e.focus(e.index + 1)
		return m, textinput.Blink

	case key.Matches(msg, m.keys.PrevField):
		e.focus(e.index - 1)
		return m, textinput.Blink
	}

	v, changed, cmd := e.update(msg)
	if changed {
		m.setField(m.login.SetField, e.current().Name, v)
	}
	return m, cmd
}
