package mockapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skyrace/console/internal/apiclient"
	"skyrace/console/internal/metrics"
	"skyrace/console/internal/models"
)

type tokenHolder struct{ token string }

func (t *tokenHolder) Token() string { return t.token }

func newSeededClient(t *testing.T) (*Server, *apiclient.Client) {
	t.Helper()
	srv := NewServer(Options{Metrics: metrics.NewMetricsRegistry()})
	email, password := Seed(srv.Store())
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	tokens := &tokenHolder{}
	client := apiclient.New(ts.URL+"/api", 5*time.Second, tokens)
	resp, err := client.Login(context.Background(), email, password)
	require.NoError(t, err)
	tokens.token = resp.Token
	return srv, client
}

func TestLogin(t *testing.T) {
	srv := NewServer(Options{})
	email, password := Seed(srv.Store())
	ts := httptest.NewServer(srv)
	defer ts.Close()
	client := apiclient.New(ts.URL+"/api", time.Second, nil)

	resp, err := client.Login(context.Background(), email, password)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, resp.User.Role)

	claims, err := srv.Tokens().Validate(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)

	_, err = client.Login(context.Background(), email, "wrong")
	assert.True(t, apiclient.IsUnauthorized(err))
	assert.Equal(t, "Invalid email or password", apiclient.Message(err, ""))

	_, err = client.Login(context.Background(), "john@skyrace.test", "password")
	assert.Equal(t, "Admin access required", apiclient.Message(err, ""))
}

func TestAdminRoutesRequireToken(t *testing.T) {
	srv := NewServer(Options{})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := apiclient.New(ts.URL+"/api", time.Second, nil)
	_, err := client.ListUsers(context.Background(), "")
	assert.True(t, apiclient.IsUnauthorized(err))

	// The promo list is public.
	_, err = client.ListPromos(context.Background())
	assert.NoError(t, err)
}

func TestProfilePasswordChange(t *testing.T) {
	srv := NewServer(Options{})
	email, password := Seed(srv.Store())
	ts := httptest.NewServer(srv)
	defer ts.Close()
	ctx := context.Background()

	tokens := &tokenHolder{}
	client := apiclient.New(ts.URL+"/api", time.Second, tokens)
	resp, err := client.Login(ctx, email, password)
	require.NoError(t, err)
	tokens.token = resp.Token

	err = client.UpdateProfile(ctx, models.ProfileInput{Name: resp.User.Name, Email: email, NewPassword: "secret99"})
	assert.Equal(t, "Current password is required", apiclient.Message(err, ""))
	err = client.UpdateProfile(ctx, models.ProfileInput{Name: resp.User.Name, Email: email, CurrentPassword: "wrong", NewPassword: "secret99"})
	assert.Equal(t, "Current password is incorrect", apiclient.Message(err, ""))

	_, err = client.Login(ctx, email, "secret99")
	require.Error(t, err)

	require.NoError(t, client.UpdateProfile(ctx, models.ProfileInput{Name: resp.User.Name, Email: email, CurrentPassword: password, NewPassword: "secret99"}))
	_, err = client.Login(ctx, email, password)
	assert.True(t, apiclient.IsUnauthorized(err))
	_, err = client.Login(ctx, email, "secret99")
	assert.NoError(t, err)
}

func TestAirlineLifecycle(t *testing.T) {
	_, client := newSeededClient(t)
	ctx := context.Background()

	require.NoError(t, client.CreateAirline(ctx, models.AirlineInput{Name: "Test Air", IATACode: "ta", Country: "Testland"}))
	err := client.CreateAirline(ctx, models.AirlineInput{Name: "Again", IATACode: "TA"})
	assert.Equal(t, "Airline with this IATA code already exists", apiclient.Message(err, ""))

	airlines, err := client.ListAirlines(ctx)
	require.NoError(t, err)
	var created models.Airline
	for _, a := range airlines {
		if a.IATACode == "TA" {
			created = a
		}
	}
	require.NotEmpty(t, created.ID)
	assert.Equal(t, models.StatusActive, created.Status)

	require.NoError(t, client.DeleteAirline(ctx, created.ID))
	assert.Error(t, client.DeleteAirline(ctx, created.ID))
}

func TestFlightValidationAndSearch(t *testing.T) {
	_, client := newSeededClient(t)
	ctx := context.Background()
	dep := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	err := client.CreateFlight(ctx, models.FlightInput{
		Airline: "SkyRace Airways", FlightNumber: "SR9",
		Origin: models.ParseLocation("London (LHR)"), Destination: models.ParseLocation("Paris (CDG)"),
		DepartureTime: dep, ArrivalTime: dep.Add(-time.Hour),
	})
	assert.Equal(t, "Arrival time must be after departure time", apiclient.Message(err, ""))

	flights, err := client.ListFlights(ctx, "new york")
	require.NoError(t, err)
	require.Len(t, flights, 1)
	assert.Equal(t, "SR100", flights[0].FlightNumber)

	flights, err = client.ListFlights(ctx, "atlantis")
	require.NoError(t, err)
	assert.Empty(t, flights)
}

func TestBookingCancelIsOneWay(t *testing.T) {
	srv, client := newSeededClient(t)
	ctx := context.Background()

	bookings, err := client.ListBookings(ctx, string(models.BookingConfirmed))
	require.NoError(t, err)
	require.Len(t, bookings, 1)

	require.NoError(t, client.CancelBooking(ctx, bookings[0].ID))
	b, ok := srv.Store().Booking(bookings[0].ID)
	require.True(t, ok)
	assert.Equal(t, models.BookingCancelled, b.Status)

	err = client.CancelBooking(ctx, bookings[0].ID)
	assert.Equal(t, "Booking is already cancelled", apiclient.Message(err, ""))
}

func TestRefundOnlyCompleted(t *testing.T) {
	srv, client := newSeededClient(t)
	ctx := context.Background()

	pending, err := client.ListPayments(ctx, string(models.PaymentPending), "")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Error(t, client.RefundPayment(ctx, pending[0].ID))

	completed, err := client.ListPayments(ctx, "", "TXN-1001")
	require.NoError(t, err)
	require.Len(t, completed, 1)
	require.NoError(t, client.RefundPayment(ctx, completed[0].ID))

	p, _ := srv.Store().Payment(completed[0].ID)
	assert.Equal(t, models.PaymentRefunded, p.Status)
}

func TestSupportThreadKeepsArrivalOrder(t *testing.T) {
	_, client := newSeededClient(t)
	ctx := context.Background()

	tickets, err := client.ListTickets(ctx)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	id := tickets[0].ID

	require.NoError(t, client.ReplyToTicket(ctx, id, "Looking into it"))
	require.NoError(t, client.ReplyToTicket(ctx, id, "Found it"))
	require.NoError(t, client.SetTicketStatus(ctx, id, models.TicketResolved))

	tickets, err = client.ListTickets(ctx)
	require.NoError(t, err)
	require.Len(t, tickets[0].Responses, 2)
	assert.Equal(t, "Looking into it", tickets[0].Responses[0].Message)
	assert.Equal(t, "Found it", tickets[0].Responses[1].Message)
	assert.Equal(t, models.TicketResolved, tickets[0].Status)
}

func TestAuditPagination(t *testing.T) {
	_, client := newSeededClient(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, client.UpdateSetting(ctx, "maintenanceMode", models.BoolSetting(i%2 == 0)))
	}

	page, err := client.ListAuditLogs(ctx, apiclient.AuditQuery{Page: 1, Limit: 2, Action: "UPDATE", Resource: "setting"})
	require.NoError(t, err)
	assert.Len(t, page.Logs, 2)
	assert.Equal(t, models.Pagination{Page: 1, Pages: 2}, page.Pagination)

	page, err = client.ListAuditLogs(ctx, apiclient.AuditQuery{Page: 2, Limit: 2, Action: "UPDATE", Resource: "setting"})
	require.NoError(t, err)
	assert.Len(t, page.Logs, 1)

	all, err := client.ListAuditLogs(ctx, apiclient.AuditQuery{Action: "LOGIN"})
	require.NoError(t, err)
	assert.NotEmpty(t, all.Logs)
}

func TestDashboardAndRevenue(t *testing.T) {
	_, client := newSeededClient(t)
	ctx := context.Background()

	d, err := client.GetDashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, d.Metrics.TotalUsers)
	assert.Equal(t, 549.0, d.Metrics.TotalRevenue)
	assert.Len(t, d.RecentBookings, 2)

	routes, err := client.RevenueByRoute(ctx)
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "LHR-JFK", routes[0].Route)
	assert.Equal(t, 2, routes[0].Bookings)
}

func TestHoldAndFailHooks(t *testing.T) {
	srv, client := newSeededClient(t)
	ctx := context.Background()

	release := srv.Hold(http.MethodGet, "/api/admin/airlines")
	done := make(chan error, 1)
	go func() {
		_, err := client.ListAirlines(ctx)
		done <- err
	}()
	require.Eventually(t, func() bool {
		return srv.Requests(http.MethodGet, "/api/admin/airlines") == 1
	}, time.Second, 5*time.Millisecond)
	select {
	case <-done:
		t.Fatal("held request completed early")
	case <-time.After(20 * time.Millisecond):
	}
	release()
	require.NoError(t, <-done)

	srv.Fail(http.MethodPost, "/api/admin/airlines", http.StatusInternalServerError, "database unavailable")
	err := client.CreateAirline(ctx, models.AirlineInput{Name: "X", IATACode: "XX"})
	assert.Equal(t, "database unavailable", apiclient.Message(err, ""))
	srv.Recover(http.MethodPost, "/api/admin/airlines")
	assert.NoError(t, client.CreateAirline(ctx, models.AirlineInput{Name: "X", IATACode: "XX"}))
}
