package screens

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"skyrace/console/internal/apiclient"
	"skyrace/console/internal/logging"
	"skyrace/console/internal/metrics"
	"skyrace/console/internal/mutation"
	"skyrace/console/internal/query"
	"skyrace/console/internal/session"
	"skyrace/console/internal/toast"
)

// Cache key resources. Mutations invalidate by these prefixes.
const (
	KeyDashboard     = "dashboard"
	KeyAnalytics     = "analytics"
	KeyUsers         = "users"
	KeyFlights       = "flights"
	KeyAirlines      = "airlines"
	KeyAirports      = "airports"
	KeyBookings      = "bookings"
	KeyPayments      = "payments"
	KeyNotifications = "notifications"
	KeyPromos        = "promos"
	KeySettings      = "settings"
	KeySupport       = "support"
	KeyAudit         = "audit"
	KeyProfile       = "profile"
)

// Deps are the process-wide collaborators every screen shares.
type Deps struct {
	API            *apiclient.Client
	Cache          query.Reader
	Toasts         toast.Sink
	Session        *session.Session
	Metrics        *metrics.MetricsRegistry
	Location       *time.Location
	SearchDebounce time.Duration
	Logger         *zap.SugaredLogger
}

func (d Deps) location() *time.Location {
	if d.Location == nil {
		return time.UTC
	}
	return d.Location
}

func (d Deps) logger() *zap.SugaredLogger {
	if d.Logger == nil {
		return logging.Named("screens")
	}
	return d.Logger
}

func (d Deps) controllerOptions() ControllerOptions {
	return ControllerOptions{
		Reader:         d.Cache,
		Toasts:         d.Toasts,
		SearchDebounce: d.SearchDebounce,
		Logger:         d.logger(),
	}
}

// target is one write against one record.
type target[In any] struct {
	ID string
	In In
}

// write builds a mutation for a record-scoped call. Every write also
// invalidates the audit trail, since the backend records one entry per
// admin write.
func write[In any](d Deps, name string, call func(ctx context.Context, id string, in In) error, invalidates ...string) *mutation.Mutation[target[In], struct{}] {
	keys := []query.Key{query.NewKey(KeyAudit)}
	for _, r := range invalidates {
		keys = append(keys, query.NewKey(r))
	}
	return mutation.New(name, d.Cache, func(ctx context.Context, t target[In]) (struct{}, error) {
		return struct{}{}, call(ctx, t.ID, t.In)
	}).
		Invalidates(keys...).
		Target(func(t target[In]) string { return t.ID }).
		WithMetrics(d.Metrics).
		WithLogger(d.logger())
}

// All builds every resource screen in sidebar order.
func All(d Deps) []Screen {
	return []Screen{
		NewDashboard(d),
		NewAnalytics(d),
		NewUsers(d),
		NewFlights(d),
		NewAirlines(d),
		NewAirports(d),
		NewBookings(d),
		NewPayments(d),
		NewNotifications(d),
		NewPromos(d),
		NewSupport(d),
		NewSettings(d),
		NewAudit(d),
		NewProfile(d),
	}
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

const tableTimeLayout = "2006-01-02 15:04"

func (d Deps) formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(d.location()).Format(tableTimeLayout)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
