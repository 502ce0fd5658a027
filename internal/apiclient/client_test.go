package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skyrace/console/internal/metrics"
	"skyrace/console/internal/models"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(server.URL+"/api", 5*time.Second, staticToken("test-token"), opts...)
}

func TestClient_Request_AttachesBearerAndQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET request, got %s", r.Method)
		}
		if r.URL.Path != "/api/admin/users" {
			t.Errorf("Expected path /api/admin/users, got %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Expected bearer token, got %q", got)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("Expected X-Request-ID header")
		}
		if got := r.URL.Query().Get("search"); got != "ada" {
			t.Errorf("Expected search=ada, got %q", got)
		}
		w.Write([]byte(`{"users":[{"_id":"u1","name":"Ada","email":"ada@example.com","role":"ADMIN"}]}`))
	})

	users, err := client.ListUsers(context.Background(), "ada")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, models.RoleAdmin, users[0].Role)
}

func TestClient_Request_NoTokenNoHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["Authorization"]; ok {
			t.Error("Expected no Authorization header")
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := New(server.URL, time.Second, staticToken(""))
	raw, err := client.Request(context.Background(), http.MethodDelete, "/admin/users/u1", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw))
}

func TestClient_HTTPError_CarriesServerMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"IATA code already exists"}`))
	})

	err := client.CreateAirline(context.Background(), models.AirlineInput{Name: "Test Air", IATACode: "TA"})
	require.Error(t, err)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusConflict, httpErr.StatusCode)
	assert.Equal(t, ErrCodeConflict, httpErr.Code)
	assert.Equal(t, "IATA code already exists", Message(err, "Failed to create airline"))
}

func TestClient_HTTPError_FallbackMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`<html>oops</html>`))
	})

	err := client.DeleteFlight(context.Background(), "f1")
	require.Error(t, err)
	assert.Equal(t, "Failed to delete flight", Message(err, "Failed to delete flight"))
	assert.False(t, IsTransport(err))
}

func TestClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := New(url, time.Second, nil)
	_, err := client.ListAirlines(context.Background())
	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.Equal(t, "Something went wrong", Message(err, "Something went wrong"))
}

func TestClient_Unauthorized_FiresHook(t *testing.T) {
	var fired atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"token expired"}`))
	}, OnUnauthorized(func() { fired.Add(1) }))

	_, err := client.ListFlights(context.Background(), "")
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, "token expired", Message(err, "fallback"))
	assert.Equal(t, int32(1), fired.Load())
}

func TestClient_EnvelopesPerEndpoint(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/promos":
			w.Write([]byte(`{"data":[{"_id":"p1","code":"SUMMER","discountType":"PERCENTAGE","value":10}]}`))
		case "/api/admin/support":
			w.Write([]byte(`{"data":[{"_id":"t1","subject":"Lost bag","status":"OPEN","responses":[]}]}`))
		case "/api/admin/audit":
			if r.URL.Query().Get("page") != "2" || r.URL.Query().Get("action") != "DELETE" {
				t.Errorf("unexpected audit query %s", r.URL.RawQuery)
			}
			w.Write([]byte(`{"logs":[{"_id":"a1","action":"DELETE","resource":"flight"}],"pagination":{"page":2,"pages":3}}`))
		case "/api/admin/system-settings":
			w.Write([]byte(`{"settings":null}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	promos, err := client.ListPromos(ctx)
	require.NoError(t, err)
	assert.Equal(t, "SUMMER", promos[0].Code)

	tickets, err := client.ListTickets(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.TicketOpen, tickets[0].Status)

	page, err := client.ListAuditLogs(ctx, AuditQuery{Page: 2, Limit: 20, Action: "DELETE"})
	require.NoError(t, err)
	assert.Equal(t, models.Pagination{Page: 2, Pages: 3}, page.Pagination)
	assert.Len(t, page.Logs, 1)

	settings, err := client.ListSettings(ctx)
	require.NoError(t, err)
	assert.Empty(t, settings)
}

func TestClient_UpdateSetting_EncodesTypedValue(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "maintenanceMode", body["key"])
		assert.Equal(t, "true", body["value"])
		w.Write([]byte(`{}`))
	})

	require.NoError(t, client.UpdateSetting(context.Background(), "maintenanceMode", models.BoolSetting(true)))
}

func TestClient_RecordsMetrics(t *testing.T) {
	reg := metrics.NewMetricsRegistry()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"airports":[]}`))
	}, WithMetrics(reg), WithRateLimit(100, 10))

	_, err := client.ListAirports(context.Background())
	require.NoError(t, err)

	families, err := reg.Registry().Gather()
	require.NoError(t, err)
	found := false
	for _, f := range families {
		if f.GetName() == "console_api_requests_total" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestResourceOf(t *testing.T) {
	assert.Equal(t, "flights", resourceOf("/admin/flights/123"))
	assert.Equal(t, "promos", resourceOf("/promos"))
}
