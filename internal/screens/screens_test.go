package screens

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skyrace/console/internal/apiclient"
	"skyrace/console/internal/form"
	"skyrace/console/internal/metrics"
	"skyrace/console/internal/mockapi"
	"skyrace/console/internal/query"
	"skyrace/console/internal/session"
	"skyrace/console/internal/toast"
)

type testEnv struct {
	srv    *mockapi.Server
	api    *apiclient.Client
	cache  *query.Client
	toasts *toast.Notifier
	sess   *session.Session
	deps   Deps
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	srv := mockapi.NewServer(mockapi.Options{})
	email, password := mockapi.Seed(srv.Store())
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	sess := session.New(session.NewMemoryStore())
	api := apiclient.New(ts.URL+"/api", 5*time.Second, sess)
	require.NoError(t, sess.Login(context.Background(), api, email, password))

	cache := query.NewClient(query.Options{GCTime: time.Minute, FetchTimeout: 5 * time.Second})
	toasts := toast.NewNotifier(time.Minute)
	return &testEnv{
		srv:    srv,
		api:    api,
		cache:  cache,
		toasts: toasts,
		sess:   sess,
		deps: Deps{
			API:      api,
			Cache:    cache,
			Toasts:   toasts,
			Session:  sess,
			Metrics:  metrics.NewMetricsRegistry(),
			Location: time.UTC,
		},
	}
}

func (e *testEnv) lastToast(t *testing.T) toast.Toast {
	t.Helper()
	active := e.toasts.Active()
	require.NotEmpty(t, active, "expected a toast")
	return active[len(active)-1]
}

func mount(t *testing.T, s Screen) {
	t.Helper()
	require.NoError(t, s.Mount(context.Background()))
	t.Cleanup(s.Unmount)
}

// rowWhere finds the row whose cell at col equals value.
func rowWhere(t *testing.T, snap Snapshot, col int, value string) Row {
	t.Helper()
	for _, r := range snap.Rows {
		if r.Cells[col] == value {
			return r
		}
	}
	t.Fatalf("no row with %q in column %d of %s", value, col, snap.ID)
	return Row{}
}

func hasRow(snap Snapshot, col int, value string) bool {
	for _, r := range snap.Rows {
		if r.Cells[col] == value {
			return true
		}
	}
	return false
}

func fill(t *testing.T, s Screen, values map[string]string) {
	t.Helper()
	for k, v := range values {
		require.NoError(t, s.SetField(k, v))
	}
}

func TestMount_LoadsRows(t *testing.T) {
	env := newTestEnv(t)
	airlines := NewAirlines(env.deps)
	mount(t, airlines)

	snap := airlines.Snapshot()
	assert.Equal(t, PhaseReady, snap.Phase)
	assert.Len(t, snap.Rows, 2)
	assert.Empty(t, snap.Message)
	assert.Nil(t, snap.Form, "closed modal renders nothing")
	assert.True(t, snap.Searchable)
}

func TestMount_ErrorIsShown(t *testing.T) {
	env := newTestEnv(t)
	env.srv.Fail(http.MethodGet, "/api/admin/support", http.StatusInternalServerError, "support desk offline")
	support := NewSupport(env.deps)

	err := support.Mount(context.Background())
	t.Cleanup(support.Unmount)
	require.Error(t, err)

	snap := support.Snapshot()
	assert.Equal(t, PhaseError, snap.Phase)
	assert.Equal(t, "support desk offline", snap.Message)
	assert.Empty(t, snap.Rows)

	env.srv.Recover(http.MethodGet, "/api/admin/support")
	require.NoError(t, support.Refresh(context.Background()))
	assert.Equal(t, PhaseReady, support.Snapshot().Phase)
}

func TestMount_ConcurrentScreensShareOneRequest(t *testing.T) {
	env := newTestEnv(t)
	release := env.srv.Hold(http.MethodGet, "/api/admin/airlines")

	first, second := NewAirlines(env.deps), NewAirlines(env.deps)
	var wg sync.WaitGroup
	for _, s := range []Screen{first, second} {
		wg.Add(1)
		go func(s Screen) {
			defer wg.Done()
			assert.NoError(t, s.Mount(context.Background()))
		}(s)
	}
	t.Cleanup(first.Unmount)
	t.Cleanup(second.Unmount)

	require.Eventually(t, func() bool {
		return env.srv.Requests(http.MethodGet, "/api/admin/airlines") == 1
	}, time.Second, time.Millisecond)
	require.Eventually(t, func() bool {
		return first.Snapshot().Phase == PhaseLoading && second.Snapshot().Phase == PhaseLoading
	}, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	release()
	wg.Wait()

	assert.Equal(t, 1, env.srv.Requests(http.MethodGet, "/api/admin/airlines"))
	assert.Len(t, first.Snapshot().Rows, 2)
	assert.Len(t, second.Snapshot().Rows, 2)
}

func TestUnmount_DropsLateResults(t *testing.T) {
	env := newTestEnv(t)
	release := env.srv.Hold(http.MethodGet, "/api/admin/airports")
	airports := NewAirports(env.deps)

	done := make(chan error)
	go func() { done <- airports.Mount(context.Background()) }()
	require.Eventually(t, func() bool {
		return env.srv.Requests(http.MethodGet, "/api/admin/airports") == 1
	}, time.Second, time.Millisecond)

	airports.Unmount()
	release()
	require.NoError(t, <-done)

	snap := airports.Snapshot()
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.Empty(t, snap.Rows)
}

func TestCreate_InvalidatesAndRefetches(t *testing.T) {
	env := newTestEnv(t)
	airlines := NewAirlines(env.deps)
	mount(t, airlines)

	require.NoError(t, airlines.Begin(context.Background(), "create", ""))
	snap := airlines.Snapshot()
	require.NotNil(t, snap.Form)
	assert.Equal(t, form.ModeCreate, snap.Form.Mode)
	assert.Equal(t, "ACTIVE", snap.Form.Values["status"])

	fill(t, airlines, map[string]string{"name": "Test Air", "iataCode": "ta", "country": "Testland"})
	require.NoError(t, airlines.Submit(context.Background()))

	snap = airlines.Snapshot()
	assert.Nil(t, snap.Form)
	row := rowWhere(t, snap, 1, "TA")
	assert.Equal(t, "Test Air", row.Cells[0])
	assert.Len(t, snap.Rows, 3)
	assert.Equal(t, "Airline created", env.lastToast(t).Message)
	assert.Equal(t, 2, env.srv.Requests(http.MethodGet, "/api/admin/airlines"))

	res, ok := env.cache.Get(query.NewKey(KeyAirlines))
	require.True(t, ok)
	assert.False(t, res.Stale)
}

func TestCreate_FailureKeepsModalAndValues(t *testing.T) {
	env := newTestEnv(t)
	env.srv.Fail(http.MethodPost, "/api/admin/airlines", http.StatusInternalServerError, "database unavailable")
	airlines := NewAirlines(env.deps)
	mount(t, airlines)

	require.NoError(t, airlines.Begin(context.Background(), "create", ""))
	fill(t, airlines, map[string]string{"name": "Test Air", "iataCode": "TA", "country": "Testland"})
	err := airlines.Submit(context.Background())
	require.Error(t, err)

	snap := airlines.Snapshot()
	require.NotNil(t, snap.Form, "modal stays open after a failed submit")
	assert.Equal(t, "Test Air", snap.Form.Values["name"])
	assert.Equal(t, "TA", snap.Form.Values["iataCode"])
	assert.False(t, snap.Form.Busy)
	assert.Len(t, snap.Rows, 2)

	last := env.lastToast(t)
	assert.Equal(t, toast.LevelError, last.Level)
	assert.Equal(t, "database unavailable", last.Message)
	assert.Equal(t, 1, env.srv.Requests(http.MethodGet, "/api/admin/airlines"))

	// The same values go through once the backend recovers.
	env.srv.Recover(http.MethodPost, "/api/admin/airlines")
	require.NoError(t, airlines.Submit(context.Background()))
	assert.True(t, hasRow(airlines.Snapshot(), 1, "TA"))
}

func TestCreate_ValidationBlocksRequest(t *testing.T) {
	env := newTestEnv(t)
	airlines := NewAirlines(env.deps)
	mount(t, airlines)

	require.NoError(t, airlines.Begin(context.Background(), "create", ""))
	fill(t, airlines, map[string]string{"name": "Test Air", "iataCode": "TAX", "country": "Testland"})

	err := airlines.Submit(context.Background())
	var verr *form.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "iataCode", verr.Field)
	assert.Equal(t, "IATA code must be exactly 2 characters", env.lastToast(t).Message)
	assert.NotNil(t, airlines.Snapshot().Form)
	assert.Equal(t, 0, env.srv.Requests(http.MethodPost, "/api/admin/airlines"))
}

func TestCreate_DuplicateCodeSurfacesServerMessage(t *testing.T) {
	env := newTestEnv(t)
	airlines := NewAirlines(env.deps)
	mount(t, airlines)

	require.NoError(t, airlines.Begin(context.Background(), "create", ""))
	fill(t, airlines, map[string]string{"name": "Copycat", "iataCode": "SR", "country": "Nowhere"})
	require.Error(t, airlines.Submit(context.Background()))

	last := env.lastToast(t)
	assert.Equal(t, toast.LevelError, last.Level)
	assert.NotEmpty(t, last.Message)
	assert.NotNil(t, airlines.Snapshot().Form)
}

func TestDelete_RequiresConfirmation(t *testing.T) {
	env := newTestEnv(t)
	airlines := NewAirlines(env.deps)
	mount(t, airlines)
	row := rowWhere(t, airlines.Snapshot(), 1, "BH")
	const route = "/api/admin/airlines/{id}"

	require.NoError(t, airlines.Begin(context.Background(), "delete", row.ID))
	snap := airlines.Snapshot()
	require.NotNil(t, snap.Confirmation)
	assert.Contains(t, snap.Confirmation.Prompt, "Blue Horizon")
	assert.Equal(t, 0, env.srv.Requests(http.MethodDelete, route))

	airlines.Dismiss()
	assert.Nil(t, airlines.Snapshot().Confirmation)
	assert.Equal(t, 0, env.srv.Requests(http.MethodDelete, route))
	assert.True(t, hasRow(airlines.Snapshot(), 1, "BH"))

	require.NoError(t, airlines.Begin(context.Background(), "delete", row.ID))
	require.NoError(t, airlines.Confirm(context.Background()))
	assert.Equal(t, 1, env.srv.Requests(http.MethodDelete, route))
	assert.False(t, hasRow(airlines.Snapshot(), 1, "BH"))
	assert.Equal(t, "Airline deleted", env.lastToast(t).Message)

	assert.ErrorIs(t, airlines.Confirm(context.Background()), ErrNothingToConfirm)
}

func TestUsers_PromoteToAdmin(t *testing.T) {
	env := newTestEnv(t)
	users := NewUsers(env.deps)
	mount(t, users)

	row := rowWhere(t, users.Snapshot(), 1, "john@skyrace.test")
	assert.Equal(t, "USER", row.Cells[2])

	require.NoError(t, users.Begin(context.Background(), "edit", row.ID))
	snap := users.Snapshot()
	require.NotNil(t, snap.Form)
	assert.Equal(t, form.ModeEdit, snap.Form.Mode)
	assert.Equal(t, "USER", snap.Form.Values["role"])
	assert.Equal(t, "Silver", snap.Form.Values["loyaltyTier"])

	require.NoError(t, users.SetField("role", "ADMIN"))
	require.NoError(t, users.Submit(context.Background()))

	row = rowWhere(t, users.Snapshot(), 1, "john@skyrace.test")
	assert.Equal(t, "ADMIN", row.Cells[2])
	assert.Equal(t, "Silver", row.Cells[3])
}

func TestUsers_ServerSearch(t *testing.T) {
	env := newTestEnv(t)
	users := NewUsers(env.deps)
	mount(t, users)

	require.NoError(t, users.SetSearch(context.Background(), "mary"))
	snap := users.Snapshot()
	require.Len(t, snap.Rows, 1)
	assert.Equal(t, "mary@skyrace.test", snap.Rows[0].Cells[1])
	assert.Equal(t, 2, env.srv.Requests(http.MethodGet, "/api/admin/users"))

	// Going back to an already-loaded term is served from cache.
	require.NoError(t, users.SetSearch(context.Background(), ""))
	assert.Len(t, users.Snapshot().Rows, 3)
	assert.Equal(t, 2, env.srv.Requests(http.MethodGet, "/api/admin/users"))
}

func TestSearch_DebouncedServerSearch(t *testing.T) {
	env := newTestEnv(t)
	env.deps.SearchDebounce = 30 * time.Millisecond
	flights := NewFlights(env.deps)
	mount(t, flights)

	for _, term := range []string{"S", "SR", "SR1"} {
		require.NoError(t, flights.SetSearch(context.Background(), term))
	}
	require.Eventually(t, func() bool {
		snap := flights.Snapshot()
		return snap.Phase == PhaseReady && len(snap.Rows) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, env.srv.Requests(http.MethodGet, "/api/admin/flights"), "only the settled term is fetched")
}

func TestFlights_SearchWithNoMatch(t *testing.T) {
	env := newTestEnv(t)
	flights := NewFlights(env.deps)
	mount(t, flights)

	require.NoError(t, flights.SetSearch(context.Background(), "Atlantis"))
	snap := flights.Snapshot()
	assert.Equal(t, PhaseReady, snap.Phase)
	assert.Empty(t, snap.Rows)
	assert.Equal(t, `No results for "Atlantis"`, snap.Message)
}

func TestAirlines_ClientSearchMakesNoRequest(t *testing.T) {
	env := newTestEnv(t)
	airlines := NewAirlines(env.deps)
	mount(t, airlines)

	require.NoError(t, airlines.SetSearch(context.Background(), "horizon"))
	snap := airlines.Snapshot()
	require.Len(t, snap.Rows, 1)
	assert.Equal(t, "BH", snap.Rows[0].Cells[1])

	require.NoError(t, airlines.SetSearch(context.Background(), "zzz"))
	assert.Equal(t, `No results for "zzz"`, airlines.Snapshot().Message)
	assert.Equal(t, 1, env.srv.Requests(http.MethodGet, "/api/admin/airlines"))
}

func TestFlights_DateTimeRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	env.deps.Location = time.FixedZone("EST", -5*60*60)
	flights := NewFlights(env.deps)
	mount(t, flights)
	ctx := context.Background()

	before, err := env.api.ListFlights(ctx, "SR100")
	require.NoError(t, err)
	require.Len(t, before, 1)

	row := rowWhere(t, flights.Snapshot(), 0, "SR100")
	require.NoError(t, flights.Begin(ctx, "edit", row.ID))
	values := flights.Snapshot().Form.Values
	assert.Equal(t, before[0].DepartureTime.In(env.deps.Location).Format("2006-01-02T15:04"), values["departureTime"])

	// Saving without edits must not shift the stored instants.
	require.NoError(t, flights.Submit(ctx))
	after, err := env.api.ListFlights(ctx, "SR100")
	require.NoError(t, err)
	assert.True(t, before[0].DepartureTime.Equal(after[0].DepartureTime))
	assert.True(t, before[0].ArrivalTime.Equal(after[0].ArrivalTime))
	assert.Equal(t, 480, after[0].Duration)
}

func TestFlights_EditRederivesDurationFromNewTimes(t *testing.T) {
	env := newTestEnv(t)
	env.deps.Location = time.FixedZone("EST", -5*60*60)
	flights := NewFlights(env.deps)
	mount(t, flights)
	ctx := context.Background()

	before, err := env.api.ListFlights(ctx, "SR100")
	require.NoError(t, err)
	require.Len(t, before, 1)
	require.Equal(t, 480, before[0].Duration)

	row := rowWhere(t, flights.Snapshot(), 0, "SR100")
	require.NoError(t, flights.Begin(ctx, "edit", row.ID))
	later := before[0].ArrivalTime.Add(time.Hour).In(env.deps.Location).Format("2006-01-02T15:04")
	require.NoError(t, flights.SetField("arrivalTime", later))
	require.NoError(t, flights.Submit(ctx))

	after, err := env.api.ListFlights(ctx, "SR100")
	require.NoError(t, err)
	assert.Equal(t, 540, after[0].Duration)

	// A duration typed by hand wins over the derived one.
	require.NoError(t, flights.Begin(ctx, "edit", row.ID))
	require.NoError(t, flights.SetField("duration", "600"))
	require.NoError(t, flights.Submit(ctx))
	after, err = env.api.ListFlights(ctx, "SR100")
	require.NoError(t, err)
	assert.Equal(t, 600, after[0].Duration)
}

func TestFlights_CreateInLocalTime(t *testing.T) {
	env := newTestEnv(t)
	env.deps.Location = time.FixedZone("EST", -5*60*60)
	flights := NewFlights(env.deps)
	mount(t, flights)
	ctx := context.Background()

	require.NoError(t, flights.Begin(ctx, "create", ""))
	fill(t, flights, map[string]string{
		"airline":        "Test Air",
		"flightNumber":   "ta101",
		"origin":         "London (LHR)",
		"destination":    "Paris (CDG)",
		"departureTime":  "2026-06-01T10:00",
		"arrivalTime":    "2026-06-01T11:30",
		"price":          "99.5",
		"availableSeats": "100",
	})
	require.NoError(t, flights.Submit(ctx))

	created, err := env.api.ListFlights(ctx, "TA101")
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.True(t, created[0].DepartureTime.Equal(time.Date(2026, 6, 1, 15, 0, 0, 0, time.UTC)))
	assert.Equal(t, 90, created[0].Duration)
	assert.Equal(t, "CDG", created[0].Destination.Code)
	assert.True(t, hasRow(flights.Snapshot(), 0, "TA101"))
}

func TestFlights_ArrivalMustFollowDeparture(t *testing.T) {
	env := newTestEnv(t)
	flights := NewFlights(env.deps)
	mount(t, flights)
	ctx := context.Background()

	require.NoError(t, flights.Begin(ctx, "create", ""))
	fill(t, flights, map[string]string{
		"airline":        "Test Air",
		"flightNumber":   "TA102",
		"origin":         "London (LHR)",
		"destination":    "Paris (CDG)",
		"departureTime":  "2026-06-01T10:00",
		"arrivalTime":    "2026-06-01T09:00",
		"price":          "99",
		"availableSeats": "100",
	})

	err := flights.Submit(ctx)
	require.Error(t, err)
	assert.Equal(t, "Arrival time must be after departure time", env.lastToast(t).Message)
	assert.NotNil(t, flights.Snapshot().Form)
	assert.Equal(t, 0, env.srv.Requests(http.MethodPost, "/api/admin/flights"))
}

func TestBookings_CancelIsOneWay(t *testing.T) {
	env := newTestEnv(t)
	bookings := NewBookings(env.deps)
	mount(t, bookings)
	ctx := context.Background()
	const route = "/api/admin/bookings/{id}/cancel"

	row := rowWhere(t, bookings.Snapshot(), 5, "confirmed")
	assert.Contains(t, row.Actions, "cancel")

	require.NoError(t, bookings.Begin(ctx, "cancel", row.ID))
	require.NoError(t, bookings.Confirm(ctx))
	assert.Equal(t, 1, env.srv.Requests(http.MethodPatch, route))

	var cancelled Row
	for _, r := range bookings.Snapshot().Rows {
		if r.ID == row.ID {
			cancelled = r
		}
	}
	assert.Equal(t, "cancelled", cancelled.Cells[5])
	assert.NotContains(t, cancelled.Actions, "cancel")

	assert.ErrorIs(t, bookings.Begin(ctx, "cancel", row.ID), ErrActionUnavailable)
	assert.Equal(t, 1, env.srv.Requests(http.MethodPatch, route))
}

func TestBookings_StatusFilter(t *testing.T) {
	env := newTestEnv(t)
	bookings := NewBookings(env.deps)
	mount(t, bookings)
	ctx := context.Background()

	require.NoError(t, bookings.SetFilter(ctx, "status", "pending"))
	snap := bookings.Snapshot()
	require.Len(t, snap.Rows, 1)
	assert.Equal(t, "pending", snap.Rows[0].Cells[5])
	assert.Equal(t, "pending", snap.Filters[0].Value)

	assert.ErrorIs(t, bookings.SetFilter(ctx, "status", "lost"), ErrUnknownFilter)
	assert.ErrorIs(t, bookings.SetFilter(ctx, "airline", "SR"), ErrUnknownFilter)
	assert.ErrorIs(t, bookings.SetPage(ctx, 2), ErrNotPaginated)
}

func TestPayments_RefundOnlyCompleted(t *testing.T) {
	env := newTestEnv(t)
	payments := NewPayments(env.deps)
	mount(t, payments)
	ctx := context.Background()

	pending := rowWhere(t, payments.Snapshot(), 0, "TXN-1002")
	assert.Empty(t, pending.Actions)
	assert.ErrorIs(t, payments.Begin(ctx, "refund", pending.ID), ErrActionUnavailable)

	completed := rowWhere(t, payments.Snapshot(), 0, "TXN-1001")
	require.NoError(t, payments.Begin(ctx, "refund", completed.ID))
	require.NoError(t, payments.Confirm(ctx))

	refunded := rowWhere(t, payments.Snapshot(), 0, "TXN-1001")
	assert.Equal(t, "REFUNDED", refunded.Cells[4])
	assert.Empty(t, refunded.Actions)
	assert.Equal(t, 1, env.srv.Requests(http.MethodPost, "/api/admin/payments/{id}/refund"))
}

func TestSettings_ToggleAndEdit(t *testing.T) {
	env := newTestEnv(t)
	settings := NewSettings(env.deps)
	mount(t, settings)
	ctx := context.Background()

	row := rowWhere(t, settings.Snapshot(), 0, "maintenanceMode")
	assert.Equal(t, "[ ] off", row.Cells[1])
	assert.Equal(t, []string{"toggle"}, row.Actions)
	assert.ErrorIs(t, settings.Begin(ctx, "edit", "maintenanceMode"), ErrActionUnavailable)

	require.NoError(t, settings.Begin(ctx, "toggle", "maintenanceMode"))
	assert.Equal(t, "[x] on", rowWhere(t, settings.Snapshot(), 0, "maintenanceMode").Cells[1])

	require.NoError(t, settings.Begin(ctx, "edit", "supportEmail"))
	require.NoError(t, settings.SetField("value", "help@skyrace.test"))
	require.NoError(t, settings.Submit(ctx))
	assert.Equal(t, "help@skyrace.test", rowWhere(t, settings.Snapshot(), 0, "supportEmail").Cells[1])
}

func TestSupport_ReplyAppendsToThread(t *testing.T) {
	env := newTestEnv(t)
	support := NewSupport(env.deps)
	mount(t, support)
	ctx := context.Background()

	row := rowWhere(t, support.Snapshot(), 0, "Lost baggage")
	require.NoError(t, support.Begin(ctx, "reply", row.ID))
	require.NoError(t, support.SetField("message", "We found it"))
	require.NoError(t, support.Submit(ctx))

	require.NoError(t, support.Begin(ctx, "reply", row.ID))
	require.NoError(t, support.SetField("message", "Courier is on the way"))
	require.NoError(t, support.Submit(ctx))

	row = rowWhere(t, support.Snapshot(), 0, "Lost baggage")
	require.Len(t, row.Detail, 3)
	assert.Contains(t, row.Detail[0], "My bag did not arrive")
	assert.True(t, strings.HasSuffix(row.Detail[1], "We found it"))
	assert.True(t, strings.HasSuffix(row.Detail[2], "Courier is on the way"))
	assert.Equal(t, "2", row.Cells[4])

	require.NoError(t, support.Begin(ctx, "status", row.ID))
	require.NoError(t, support.SetField("status", "RESOLVED"))
	require.NoError(t, support.Submit(ctx))
	assert.Equal(t, "RESOLVED", rowWhere(t, support.Snapshot(), 0, "Lost baggage").Cells[3])
}

func TestAudit_FiltersAndInvalidation(t *testing.T) {
	env := newTestEnv(t)
	audit := NewAudit(env.deps)
	airlines := NewAirlines(env.deps)
	mount(t, audit)
	mount(t, airlines)
	ctx := context.Background()

	snap := audit.Snapshot()
	require.NotNil(t, snap.Pagination)
	assert.Equal(t, 1, snap.Pagination.Page)
	before := len(snap.Rows)

	row := rowWhere(t, airlines.Snapshot(), 1, "BH")
	require.NoError(t, airlines.Begin(ctx, "delete", row.ID))
	require.NoError(t, airlines.Confirm(ctx))

	// The mounted audit screen follows the write without a manual refresh.
	require.Eventually(t, func() bool {
		return len(audit.Snapshot().Rows) == before+1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, audit.SetFilter(ctx, "action", "DELETE"))
	snap = audit.Snapshot()
	require.Len(t, snap.Rows, 1)
	assert.Equal(t, "airline", snap.Rows[0].Cells[3])
	assert.Empty(t, snap.Actions, "audit is read-only")
}

func TestDashboardAndAnalytics(t *testing.T) {
	env := newTestEnv(t)
	dash := NewDashboard(env.deps)
	analytics := NewAnalytics(env.deps)
	mount(t, dash)
	mount(t, analytics)
	ctx := context.Background()

	snap := dash.Snapshot()
	require.NotEmpty(t, snap.Header)
	assert.Contains(t, snap.Header[0], "Users 3")
	assert.NotEmpty(t, snap.Rows)

	require.NoError(t, analytics.SetFilter(ctx, "breakdown", BreakdownRoute))
	row := rowWhere(t, analytics.Snapshot(), 0, "LHR-JFK")
	assert.Equal(t, "2", row.Cells[2])
}

func TestProfile_EditUpdatesSession(t *testing.T) {
	env := newTestEnv(t)
	profile := NewProfile(env.deps)
	mount(t, profile)
	ctx := context.Background()

	row := profile.Snapshot().Rows[0]
	require.NoError(t, profile.Begin(ctx, "edit", row.ID))
	require.NoError(t, profile.SetField("name", "Ada Lovelace"))
	require.NoError(t, profile.Submit(ctx))

	assert.Equal(t, "Ada Lovelace", profile.Snapshot().Rows[0].Cells[0])
	assert.Equal(t, "Ada Lovelace", env.sess.CurrentUser().Name)
}

func TestProfile_PasswordChange(t *testing.T) {
	env := newTestEnv(t)
	profile := NewProfile(env.deps)
	mount(t, profile)
	ctx := context.Background()
	row := profile.Snapshot().Rows[0]
	email := row.Cells[1]

	// A new password alone is rejected before any request.
	require.NoError(t, profile.Begin(ctx, "edit", row.ID))
	require.NoError(t, profile.SetField("newPassword", "secret99"))
	err := profile.Submit(ctx)
	var verr *form.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "currentPassword", verr.Field)
	assert.Equal(t, 0, env.srv.Requests(http.MethodPatch, "/api/admin/profile"))

	// Typed passwords never come back out of the snapshot.
	require.NoError(t, profile.SetField("currentPassword", "wrong"))
	snap := profile.Snapshot()
	require.NotNil(t, snap.Form)
	assert.Empty(t, snap.Form.Values["currentPassword"])
	assert.Empty(t, snap.Form.Values["newPassword"])
	for _, r := range snap.Rows {
		assert.NotContains(t, r.Cells, "secret99")
	}

	require.Error(t, profile.Submit(ctx))
	assert.Equal(t, "Current password is incorrect", env.lastToast(t).Message)
	assert.NotNil(t, profile.Snapshot().Form, "modal stays open after a rejected password")

	require.NoError(t, profile.SetField("currentPassword", "admin123"))
	require.NoError(t, profile.Submit(ctx))
	assert.Nil(t, profile.Snapshot().Form)

	require.NoError(t, env.sess.Logout(ctx))
	require.Error(t, env.sess.Login(ctx, env.api, email, "admin123"))
	require.NoError(t, env.sess.Login(ctx, env.api, email, "secret99"))
}

func TestProfile_SaveWithoutPasswordKeepsIt(t *testing.T) {
	env := newTestEnv(t)
	profile := NewProfile(env.deps)
	mount(t, profile)
	ctx := context.Background()
	row := profile.Snapshot().Rows[0]

	require.NoError(t, profile.Begin(ctx, "edit", row.ID))
	require.NoError(t, profile.SetField("currentPassword", "admin123"))
	require.NoError(t, profile.Submit(ctx))

	require.NoError(t, env.sess.Logout(ctx))
	require.NoError(t, env.sess.Login(ctx, env.api, row.Cells[1], "admin123"))
}

func TestLogin_Flow(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.sess.Logout(context.Background()))
	login := NewLogin(env.deps)
	ctx := context.Background()

	require.NoError(t, login.SetField("email", "admin@skyrace.test"))
	require.NoError(t, login.SetField("password", "nope"))
	require.Error(t, login.Submit(ctx))

	view, errText := login.Snapshot()
	assert.Equal(t, "Invalid email or password", errText)
	assert.Equal(t, "admin@skyrace.test", view.Values["email"])
	assert.Empty(t, view.Values["password"])
	assert.False(t, env.sess.Authenticated())

	require.NoError(t, login.SetField("email", "john@skyrace.test"))
	require.NoError(t, login.SetField("password", "password"))
	require.Error(t, login.Submit(ctx))
	_, errText = login.Snapshot()
	assert.Equal(t, "Admin access required", errText)

	require.NoError(t, login.SetField("email", "admin@skyrace.test"))
	require.NoError(t, login.SetField("password", "admin123"))
	require.NoError(t, login.Submit(ctx))
	assert.True(t, env.sess.Authenticated())
}

func TestAll_UniqueIDs(t *testing.T) {
	env := newTestEnv(t)
	seen := map[string]bool{}
	for _, s := range All(env.deps) {
		assert.False(t, seen[s.ID()], s.ID())
		seen[s.ID()] = true
		assert.NotEmpty(t, s.Title())
	}
	assert.Len(t, seen, 14)
}
