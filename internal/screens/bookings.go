package screens

import (
	"context"

	"skyrace/console/internal/models"
)

func flightLabel(f *models.FlightRef) string {
	if f == nil {
		return "-"
	}
	if f.FlightNumber == "" {
		return shortID(f.ID)
	}
	if f.Origin.Known() && f.Destination.Known() {
		return f.FlightNumber + " " + f.Origin.Code + "→" + f.Destination.Code
	}
	return f.FlightNumber
}

func NewBookings(d Deps) *Controller[models.Booking] {
	cancel := write(d, "cancel_booking", func(ctx context.Context, id string, _ struct{}) error {
		return d.API.CancelBooking(ctx, id)
	}, KeyBookings, KeyDashboard, KeyAnalytics)

	res := Resource[models.Booking]{
		Name:  KeyBookings,
		Title: "Bookings",
		Columns: []Column{
			{Title: "Booking", Width: 9},
			{Title: "Passenger", Width: 20},
			{Title: "Flight", Width: 16},
			{Title: "Total", Width: 10},
			{Title: "Payment", Width: 10},
			{Title: "Status", Width: 10},
			{Title: "Booked", Width: 16},
		},
		Cells: func(b models.Booking) []string {
			return []string{
				shortID(b.ID),
				orDash(b.User.Label()),
				flightLabel(b.Flight),
				money(b.TotalPrice),
				orDash(b.PaymentStatus),
				string(b.Status),
				d.formatTime(b.CreatedAt),
			}
		},
		ID: func(b models.Booking) string { return b.ID },
		Fetch: func(ctx context.Context, p Params) (Page[models.Booking], error) {
			bookings, err := d.API.ListBookings(ctx, p.Filters["status"])
			return Page[models.Booking]{Rows: bookings}, err
		},
		Filters: []Filter{{Name: "status", Label: "Status", Options: models.Strings(models.BookingStatuses)}},
	}

	cancelAction := &Action[models.Booking]{
		ID:        "cancel",
		Label:     "Cancel booking",
		Key:       "c",
		Available: models.Booking.Cancellable,
		Confirm: func(b models.Booking) string {
			return "Cancel booking " + shortID(b.ID) + " for " + orDash(b.User.Label()) + "? This cannot be undone."
		},
		Run: func(ctx context.Context, b models.Booking, _ map[string]string) error {
			_, err := cancel.Execute(ctx, target[struct{}]{ID: b.ID})
			return err
		},
		Success: "Booking cancelled",
		Failure: "Failed to cancel booking",
	}

	return NewController("bookings", res, d.controllerOptions(), cancelAction)
}
