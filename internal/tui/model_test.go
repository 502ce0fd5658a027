package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skyrace/console/internal/apiclient"
	"skyrace/console/internal/form"
	"skyrace/console/internal/models"
	"skyrace/console/internal/screens"
	"skyrace/console/internal/session"
	"skyrace/console/internal/toast"
)

type fakeScreen struct {
	id, title string
	snap      screens.Snapshot
	beginErr  error

	mounts    int
	unmounts  int
	refreshes int
	search    string
	filters   map[string]string
	pages     []int
	begun     [][2]string
	fields    map[string]string
	submits   int
	confirms  int
	dismisses int
	onChange  []func()
}

var _ screens.Screen = (*fakeScreen)(nil)

func newFakeScreen(id, title string) *fakeScreen {
	return &fakeScreen{
		id:      id,
		title:   title,
		filters: map[string]string{},
		fields:  map[string]string{},
		snap: screens.Snapshot{
			ID:    id,
			Title: title,
			Phase: screens.PhaseReady,
			Columns: []screens.Column{
				{Title: "Flight", Width: 8},
				{Title: "Route", Width: 12},
			},
			Rows: []screens.Row{
				{ID: "f1", Cells: []string{"SR100", "LHR → JFK"}, Actions: []string{"delete"}},
				{ID: "f2", Cells: []string{"SR200", "CDG → DXB"}, Actions: []string{"delete"}},
			},
			Actions: []screens.ActionView{
				{ID: "create", Label: "New", Key: "n", Global: true},
				{ID: "delete", Label: "Delete", Key: "d"},
			},
		},
	}
}

func (f *fakeScreen) ID() string    { return f.id }
func (f *fakeScreen) Title() string { return f.title }
func (f *fakeScreen) Mount(context.Context) error {
	f.mounts++
	return nil
}
func (f *fakeScreen) Unmount() { f.unmounts++ }
func (f *fakeScreen) Refresh(context.Context) error {
	f.refreshes++
	return nil
}
func (f *fakeScreen) Snapshot() screens.Snapshot { return f.snap }
func (f *fakeScreen) OnChange(fn func())         { f.onChange = append(f.onChange, fn) }
func (f *fakeScreen) SetSearch(_ context.Context, term string) error {
	f.search = term
	return nil
}
func (f *fakeScreen) SetFilter(_ context.Context, name, value string) error {
	f.filters[name] = value
	return nil
}
func (f *fakeScreen) SetPage(_ context.Context, page int) error {
	f.pages = append(f.pages, page)
	return nil
}
func (f *fakeScreen) Begin(_ context.Context, actionID, rowID string) error {
	f.begun = append(f.begun, [2]string{actionID, rowID})
	return f.beginErr
}
func (f *fakeScreen) SetField(name, value string) error {
	f.fields[name] = value
	return nil
}
func (f *fakeScreen) Submit(context.Context) error {
	f.submits++
	return nil
}
func (f *fakeScreen) Confirm(context.Context) error {
	f.confirms++
	return nil
}
func (f *fakeScreen) Dismiss() {
	f.dismisses++
	f.snap.Form = nil
	f.snap.Confirmation = nil
}

type fakeAuth struct{}

func (fakeAuth) Login(_ context.Context, email, _ string) (*apiclient.LoginResponse, error) {
	return &apiclient.LoginResponse{
		Token: "token",
		User:  models.AdminUser{ID: "a1", Name: "Ada", Email: email, Role: models.RoleAdmin},
	}, nil
}

type harness struct {
	flights  *fakeScreen
	airlines *fakeScreen
	session  *session.Session
	toasts   *toast.Notifier
}

func newHarness(t *testing.T, signedIn bool) (*harness, Model) {
	t.Helper()
	h := &harness{
		flights:  newFakeScreen("flights", "Flights"),
		airlines: newFakeScreen("airlines", "Airlines"),
		session:  session.New(session.NewMemoryStore()),
		toasts:   toast.NewNotifier(time.Minute),
	}
	if signedIn {
		require.NoError(t, h.session.Login(context.Background(), fakeAuth{}, "ada@skyrace.test", "pw"))
	}
	m := New(Options{
		Screens: []screens.Screen{h.flights, h.airlines},
		Login:   screens.NewLogin(screens.Deps{Session: h.session, Toasts: h.toasts}),
		Session: h.session,
		Toasts:  h.toasts,
	})
	m, _ = update(m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return h, m
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// exec runs a single, non-batched command and feeds its message back.
func exec(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	m, _ = update(m, cmd())
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_SignedOutShowsLogin(t *testing.T) {
	h, m := newHarness(t, false)
	m, _ = update(m, syncMsg{})

	assert.Equal(t, FocusLogin, m.Focus())
	assert.Contains(t, m.View(), "Sign in")
	assert.Zero(t, h.flights.mounts)
}

func TestModel_SignedInMountsActiveScreen(t *testing.T) {
	h, m := newHarness(t, true)
	m, cmd := update(m, syncMsg{})
	m = exec(t, m, cmd)

	assert.Equal(t, FocusList, m.Focus())
	assert.Equal(t, 1, h.flights.mounts)
	view := m.View()
	assert.Contains(t, view, "SR100")
	assert.Contains(t, view, "Ada")
}

func TestModel_TabSwitchesScreens(t *testing.T) {
	h, m := newHarness(t, true)
	m, cmd := update(m, syncMsg{})
	m = exec(t, m, cmd)
	require.Equal(t, 1, h.flights.mounts)

	m, cmd = update(m, tea.KeyMsg{Type: tea.KeyTab})
	m = exec(t, m, cmd)

	assert.Equal(t, "airlines", m.Active().ID())
	assert.Equal(t, 1, h.flights.unmounts)
	assert.Equal(t, 1, h.airlines.mounts)

	m, cmd = update(m, tea.KeyMsg{Type: tea.KeyShiftTab})
	exec(t, m, cmd)
	assert.Equal(t, 2, h.flights.mounts, "wraps back to the first screen")
}

func TestModel_RowActionTargetsSelectedRow(t *testing.T) {
	h, m := newHarness(t, true)
	m, _ = update(m, syncMsg{})

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyDown})
	m, cmd := update(m, runes("d"))
	m = exec(t, m, cmd)
	require.Equal(t, [][2]string{{"delete", "f2"}}, h.flights.begun)

	h.flights.snap.Confirmation = &screens.Confirmation{ActionID: "delete", RowID: "f2", Prompt: "Delete flight SR200?"}
	m, _ = update(m, syncMsg{})
	assert.Equal(t, FocusConfirm, m.Focus())
	assert.Contains(t, m.View(), "Delete flight SR200?")

	m, cmd = update(m, runes("y"))
	exec(t, m, cmd)
	assert.Equal(t, 1, h.flights.confirms)
}

func TestModel_FirstRowActionRightAfterLoad(t *testing.T) {
	h, m := newHarness(t, true)
	m, cmd := update(m, syncMsg{})
	m = exec(t, m, cmd)

	_, cmd = update(m, runes("d"))
	exec(t, m, cmd)
	assert.Equal(t, [][2]string{{"delete", "f1"}}, h.flights.begun)
}

func TestModel_RowActionWithoutRowsIsToasted(t *testing.T) {
	h, m := newHarness(t, true)
	h.flights.snap.Rows = nil
	m, _ = update(m, syncMsg{})

	_, cmd := update(m, runes("d"))
	assert.Nil(t, cmd)
	assert.Empty(t, h.flights.begun)

	active := h.toasts.Active()
	require.NotEmpty(t, active)
	assert.Equal(t, "Select a record first", active[len(active)-1].Message)
}

func TestModel_ConfirmationCancelMakesNoCall(t *testing.T) {
	h, m := newHarness(t, true)
	h.flights.snap.Confirmation = &screens.Confirmation{Prompt: "Delete?"}
	m, _ = update(m, syncMsg{})

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEsc})
	m, _ = update(m, syncMsg{})

	assert.Equal(t, 1, h.flights.dismisses)
	assert.Zero(t, h.flights.confirms)
	assert.Equal(t, FocusList, m.Focus())
}

func TestModel_GlobalActionNeedsNoRow(t *testing.T) {
	h, m := newHarness(t, true)
	h.flights.snap.Rows = nil
	m, _ = update(m, syncMsg{})

	_, cmd := update(m, runes("n"))
	exec(t, m, cmd)
	assert.Equal(t, [][2]string{{"create", ""}}, h.flights.begun)
}

func TestModel_FormEditing(t *testing.T) {
	h, m := newHarness(t, true)
	m, _ = update(m, syncMsg{})
	assert.NotContains(t, m.View(), "New airline", "closed form renders nothing")

	h.flights.snap.Form = &screens.FormView{
		Title: "New airline",
		Mode:  form.ModeCreate,
		Fields: []form.Field{
			{Name: "name", Label: "Name", Required: true},
			{Name: "status", Label: "Status", Kind: form.KindSelect, Options: []string{"ACTIVE", "INACTIVE"}},
		},
		Values: map[string]string{"status": "ACTIVE"},
	}
	m, _ = update(m, syncMsg{})
	require.Equal(t, FocusForm, m.Focus())
	assert.Contains(t, m.View(), "New airline")

	m, _ = update(m, runes("S"))
	m, _ = update(m, runes("k"))
	assert.Equal(t, "Sk", h.flights.fields["name"])

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, "INACTIVE", h.flights.fields["status"])
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, "ACTIVE", h.flights.fields["status"])

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})
	m = exec(t, m, cmd)
	assert.Equal(t, 1, h.flights.submits, "enter on the last field submits")

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEsc})
	m, _ = update(m, syncMsg{})
	assert.Equal(t, 1, h.flights.dismisses)
	assert.Equal(t, FocusList, m.Focus())
	assert.NotContains(t, m.View(), "New airline")
}

func TestModel_SearchForwardsEachKeystroke(t *testing.T) {
	h, m := newHarness(t, true)
	h.flights.snap.Searchable = true
	m, _ = update(m, syncMsg{})

	m, _ = update(m, runes("/"))
	require.Equal(t, FocusSearch, m.Focus())
	m, _ = update(m, runes("L"))
	m, _ = update(m, runes("H"))
	assert.Equal(t, "LH", h.flights.search)

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "L", h.flights.search)

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, FocusList, m.Focus())
}

func TestModel_SearchIgnoredWhenNotSearchable(t *testing.T) {
	_, m := newHarness(t, true)
	m, _ = update(m, syncMsg{})

	m, _ = update(m, runes("/"))
	assert.Equal(t, FocusList, m.Focus())
}

func TestModel_FilterCyclesThroughAll(t *testing.T) {
	h, m := newHarness(t, true)
	h.flights.snap.Filters = []screens.FilterView{{Name: "status", Label: "Status", Options: []string{"PENDING", "CONFIRMED"}}}
	m, _ = update(m, syncMsg{})

	_, cmd := update(m, runes("f"))
	exec(t, m, cmd)
	assert.Equal(t, "PENDING", h.flights.filters["status"])

	h.flights.snap.Filters[0].Value = "CONFIRMED"
	m, _ = update(m, syncMsg{})
	_, cmd = update(m, runes("f"))
	exec(t, m, cmd)
	assert.Equal(t, "", h.flights.filters["status"], "wraps to all")
}

func TestModel_PaginationKeys(t *testing.T) {
	h, m := newHarness(t, true)
	h.flights.snap.Pagination = &models.Pagination{Page: 2, Pages: 3}
	m, _ = update(m, syncMsg{})
	assert.Contains(t, m.View(), "Page 2 of 3")

	_, cmd := update(m, runes("]"))
	exec(t, m, cmd)
	_, cmd = update(m, runes("["))
	exec(t, m, cmd)
	assert.Equal(t, []int{3, 1}, h.flights.pages)
}

func TestModel_UnavailableActionIsToasted(t *testing.T) {
	h, m := newHarness(t, true)
	h.flights.beginErr = screens.ErrActionUnavailable
	m, _ = update(m, syncMsg{})

	_, cmd := update(m, runes("d"))
	exec(t, m, cmd)

	active := h.toasts.Active()
	require.NotEmpty(t, active)
	assert.Equal(t, toast.LevelError, active[len(active)-1].Level)
}

func TestModel_ErrorPhaseShowsRetryHint(t *testing.T) {
	h, m := newHarness(t, true)
	h.flights.snap.Phase = screens.PhaseError
	h.flights.snap.Message = "Failed to load flights"
	h.flights.snap.Rows = nil
	m, _ = update(m, syncMsg{})

	view := m.View()
	assert.Contains(t, view, "Failed to load flights")
	assert.Contains(t, view, "retry")

	_, cmd := update(m, tea.KeyMsg{Type: tea.KeyCtrlR})
	exec(t, m, cmd)
	assert.Equal(t, 1, h.flights.refreshes)
}

func TestModel_LogoutReturnsToLogin(t *testing.T) {
	h, m := newHarness(t, true)
	m, _ = update(m, syncMsg{})

	_, cmd := update(m, tea.KeyMsg{Type: tea.KeyCtrlL})
	exec(t, m, cmd)
	require.False(t, h.session.Authenticated())

	m, _ = update(m, changedMsg{})
	assert.Equal(t, FocusLogin, m.Focus())
	assert.Equal(t, 1, h.flights.unmounts)
	assert.True(t, strings.Contains(m.View(), "Sign in"))
}

func TestModel_QuitKeys(t *testing.T) {
	_, m := newHarness(t, true)
	m, _ = update(m, syncMsg{})

	_, cmd := update(m, runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
