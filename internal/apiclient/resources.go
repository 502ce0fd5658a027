package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"skyrace/console/internal/models"
)

// Each list endpoint wraps its records differently ({users: [...]},
// {data: [...]}, {logs: [...], pagination: {...}}). The envelope is
// decoded per endpoint here and nowhere else.

// decodeField pulls one named array out of an object envelope.
func decodeField[T any](raw json.RawMessage, field string) ([]T, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode %q envelope: %w", field, err)
	}
	inner, ok := envelope[field]
	if !ok || string(inner) == "null" {
		return []T{}, nil
	}
	var items []T
	if err := json.Unmarshal(inner, &items); err != nil {
		return nil, fmt.Errorf("failed to decode %q: %w", field, err)
	}
	return items, nil
}

func (c *Client) list(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodGet, path, nil, query)
}

func searchQuery(search string) url.Values {
	q := url.Values{}
	if search != "" {
		q.Set("search", search)
	}
	return q
}

// ---------------------------------------------------------------------------
// Auth & profile
// ---------------------------------------------------------------------------

type LoginResponse struct {
	Token string           `json:"token"`
	User  models.AdminUser `json:"user"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var r LoginResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.Do(ctx, http.MethodPost, "/admin/auth/login", body, nil, &r); err != nil {
		return nil, err
	}
	if r.Token == "" {
		return nil, fmt.Errorf("login response carried no token")
	}
	return &r, nil
}

func (c *Client) GetProfile(ctx context.Context) (*models.AdminUser, error) {
	var r struct {
		User models.AdminUser `json:"user"`
	}
	if err := c.Do(ctx, http.MethodGet, "/admin/profile", nil, nil, &r); err != nil {
		return nil, err
	}
	return &r.User, nil
}

func (c *Client) UpdateProfile(ctx context.Context, in models.ProfileInput) error {
	return c.Do(ctx, http.MethodPatch, "/admin/profile", in, nil, nil)
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

func (c *Client) ListUsers(ctx context.Context, search string) ([]models.User, error) {
	raw, err := c.list(ctx, "/admin/users", searchQuery(search))
	if err != nil {
		return nil, err
	}
	return decodeField[models.User](raw, "users")
}

func (c *Client) UpdateUserStatus(ctx context.Context, id string, in models.UserUpdate) error {
	return c.Do(ctx, http.MethodPatch, "/admin/users/"+url.PathEscape(id)+"/status", in, nil, nil)
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.Do(ctx, http.MethodDelete, "/admin/users/"+url.PathEscape(id), nil, nil, nil)
}

// ---------------------------------------------------------------------------
// Flights
// ---------------------------------------------------------------------------

func (c *Client) ListFlights(ctx context.Context, search string) ([]models.Flight, error) {
	raw, err := c.list(ctx, "/admin/flights", searchQuery(search))
	if err != nil {
		return nil, err
	}
	return decodeField[models.Flight](raw, "flights")
}

func (c *Client) CreateFlight(ctx context.Context, in models.FlightInput) error {
	return c.Do(ctx, http.MethodPost, "/admin/flights", in, nil, nil)
}

func (c *Client) UpdateFlight(ctx context.Context, id string, in models.FlightInput) error {
	return c.Do(ctx, http.MethodPatch, "/admin/flights/"+url.PathEscape(id), in, nil, nil)
}

func (c *Client) DeleteFlight(ctx context.Context, id string) error {
	return c.Do(ctx, http.MethodDelete, "/admin/flights/"+url.PathEscape(id), nil, nil, nil)
}

// ---------------------------------------------------------------------------
// Airlines & airports
// ---------------------------------------------------------------------------

func (c *Client) ListAirlines(ctx context.Context) ([]models.Airline, error) {
	raw, err := c.list(ctx, "/admin/airlines", nil)
	if err != nil {
		return nil, err
	}
	return decodeField[models.Airline](raw, "airlines")
}

func (c *Client) CreateAirline(ctx context.Context, in models.AirlineInput) error {
	return c.Do(ctx, http.MethodPost, "/admin/airlines", in, nil, nil)
}

func (c *Client) UpdateAirline(ctx context.Context, id string, in models.AirlineInput) error {
	return c.Do(ctx, http.MethodPut, "/admin/airlines/"+url.PathEscape(id), in, nil, nil)
}

func (c *Client) DeleteAirline(ctx context.Context, id string) error {
	return c.Do(ctx, http.MethodDelete, "/admin/airlines/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) ListAirports(ctx context.Context) ([]models.Airport, error) {
	raw, err := c.list(ctx, "/admin/airports", nil)
	if err != nil {
		return nil, err
	}
	return decodeField[models.Airport](raw, "airports")
}

func (c *Client) CreateAirport(ctx context.Context, in models.AirportInput) error {
	return c.Do(ctx, http.MethodPost, "/admin/airports", in, nil, nil)
}

func (c *Client) UpdateAirport(ctx context.Context, id string, in models.AirportInput) error {
	return c.Do(ctx, http.MethodPut, "/admin/airports/"+url.PathEscape(id), in, nil, nil)
}

func (c *Client) DeleteAirport(ctx context.Context, id string) error {
	return c.Do(ctx, http.MethodDelete, "/admin/airports/"+url.PathEscape(id), nil, nil, nil)
}

// ---------------------------------------------------------------------------
// Bookings & payments
// ---------------------------------------------------------------------------

func (c *Client) ListBookings(ctx context.Context, status string) ([]models.Booking, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	raw, err := c.list(ctx, "/admin/bookings", q)
	if err != nil {
		return nil, err
	}
	return decodeField[models.Booking](raw, "bookings")
}

func (c *Client) CancelBooking(ctx context.Context, id string) error {
	return c.Do(ctx, http.MethodPatch, "/admin/bookings/"+url.PathEscape(id)+"/cancel", nil, nil, nil)
}

func (c *Client) ListPayments(ctx context.Context, status, search string) ([]models.Payment, error) {
	q := searchQuery(search)
	if status != "" {
		q.Set("status", status)
	}
	raw, err := c.list(ctx, "/admin/payments", q)
	if err != nil {
		return nil, err
	}
	return decodeField[models.Payment](raw, "payments")
}

func (c *Client) RefundPayment(ctx context.Context, id string) error {
	return c.Do(ctx, http.MethodPost, "/admin/payments/"+url.PathEscape(id)+"/refund", nil, nil, nil)
}

// ---------------------------------------------------------------------------
// Notifications & promos
// ---------------------------------------------------------------------------

func (c *Client) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	raw, err := c.list(ctx, "/admin/notifications", nil)
	if err != nil {
		return nil, err
	}
	return decodeField[models.Notification](raw, "notifications")
}

func (c *Client) Broadcast(ctx context.Context, in models.BroadcastInput) error {
	return c.Do(ctx, http.MethodPost, "/admin/notifications/broadcast", in, nil, nil)
}

func (c *Client) DeleteNotification(ctx context.Context, id string) error {
	return c.Do(ctx, http.MethodDelete, "/admin/notifications/"+url.PathEscape(id), nil, nil, nil)
}

// ListPromos reads the public promo endpoint, which wraps records in {data}.
func (c *Client) ListPromos(ctx context.Context) ([]models.Promo, error) {
	raw, err := c.list(ctx, "/promos", nil)
	if err != nil {
		return nil, err
	}
	return decodeField[models.Promo](raw, "data")
}

func (c *Client) CreatePromo(ctx context.Context, in models.PromoInput) error {
	return c.Do(ctx, http.MethodPost, "/promos", in, nil, nil)
}

// ---------------------------------------------------------------------------
// Settings
// ---------------------------------------------------------------------------

func (c *Client) ListSettings(ctx context.Context) ([]models.SystemSetting, error) {
	raw, err := c.list(ctx, "/admin/system-settings", nil)
	if err != nil {
		return nil, err
	}
	return decodeField[models.SystemSetting](raw, "settings")
}

func (c *Client) UpdateSetting(ctx context.Context, key string, value models.SettingValue) error {
	body := map[string]string{"key": key, "value": value.String()}
	return c.Do(ctx, http.MethodPatch, "/admin/system-settings", body, nil, nil)
}

// ---------------------------------------------------------------------------
// Support
// ---------------------------------------------------------------------------

func (c *Client) ListTickets(ctx context.Context) ([]models.SupportTicket, error) {
	raw, err := c.list(ctx, "/admin/support", nil)
	if err != nil {
		return nil, err
	}
	return decodeField[models.SupportTicket](raw, "data")
}

func (c *Client) SetTicketStatus(ctx context.Context, id string, status models.TicketStatus) error {
	body := map[string]string{"status": string(status)}
	return c.Do(ctx, http.MethodPut, "/admin/support/"+url.PathEscape(id)+"/status", body, nil, nil)
}

func (c *Client) ReplyToTicket(ctx context.Context, id, message string) error {
	body := map[string]string{"message": message}
	return c.Do(ctx, http.MethodPost, "/admin/support/"+url.PathEscape(id)+"/response", body, nil, nil)
}

// ---------------------------------------------------------------------------
// Audit
// ---------------------------------------------------------------------------

// AuditQuery filters the audit log. Zero values are omitted.
type AuditQuery struct {
	Page     int
	Limit    int
	Action   string
	Resource string
}

type AuditPage struct {
	Logs       []models.AuditLogEntry
	Pagination models.Pagination
}

func (c *Client) ListAuditLogs(ctx context.Context, aq AuditQuery) (*AuditPage, error) {
	q := url.Values{}
	if aq.Page > 0 {
		q.Set("page", strconv.Itoa(aq.Page))
	}
	if aq.Limit > 0 {
		q.Set("limit", strconv.Itoa(aq.Limit))
	}
	if aq.Action != "" {
		q.Set("action", aq.Action)
	}
	if aq.Resource != "" {
		q.Set("resource", aq.Resource)
	}
	var r struct {
		Logs       []models.AuditLogEntry `json:"logs"`
		Pagination models.Pagination      `json:"pagination"`
	}
	if err := c.Do(ctx, http.MethodGet, "/admin/audit", nil, q, &r); err != nil {
		return nil, err
	}
	if r.Logs == nil {
		r.Logs = []models.AuditLogEntry{}
	}
	if r.Pagination.Page == 0 {
		r.Pagination.Page = max(aq.Page, 1)
	}
	if r.Pagination.Pages == 0 {
		r.Pagination.Pages = 1
	}
	return &AuditPage{Logs: r.Logs, Pagination: r.Pagination}, nil
}

// ---------------------------------------------------------------------------
// Dashboard & analytics
// ---------------------------------------------------------------------------

func (c *Client) GetDashboard(ctx context.Context) (*models.Dashboard, error) {
	var r models.Dashboard
	if err := c.Do(ctx, http.MethodGet, "/admin/dashboard/metrics", nil, nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) RevenueSummary(ctx context.Context) ([]models.RevenuePoint, error) {
	var r []models.RevenuePoint
	if err := c.Do(ctx, http.MethodGet, "/admin/revenue/summary", nil, nil, &r); err != nil {
		return nil, err
	}
	return r, nil
}

func (c *Client) RevenueByRoute(ctx context.Context) ([]models.RouteStat, error) {
	var r []models.RouteStat
	if err := c.Do(ctx, http.MethodGet, "/admin/revenue/routes", nil, nil, &r); err != nil {
		return nil, err
	}
	return r, nil
}

func (c *Client) RevenueByAirline(ctx context.Context) ([]models.AirlineStat, error) {
	var r []models.AirlineStat
	if err := c.Do(ctx, http.MethodGet, "/admin/revenue/airlines", nil, nil, &r); err != nil {
		return nil, err
	}
	return r, nil
}
