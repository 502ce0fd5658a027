package screens

import (
	"context"
	"fmt"

	"skyrace/console/internal/models"
)

// NewDashboard shows the headline counters in the header and the most
// recent bookings as rows.
func NewDashboard(d Deps) *Controller[models.Booking] {
	res := Resource[models.Booking]{
		Name:  KeyDashboard,
		Title: "Dashboard",
		Columns: []Column{
			{Title: "Booking", Width: 9},
			{Title: "Passenger", Width: 20},
			{Title: "Flight", Width: 16},
			{Title: "Total", Width: 10},
			{Title: "Status", Width: 10},
			{Title: "Booked", Width: 16},
		},
		Cells: func(b models.Booking) []string {
			return []string{
				shortID(b.ID),
				orDash(b.User.Label()),
				flightLabel(b.Flight),
				money(b.TotalPrice),
				string(b.Status),
				d.formatTime(b.CreatedAt),
			}
		},
		ID: func(b models.Booking) string { return b.ID },
		Fetch: func(ctx context.Context, _ Params) (Page[models.Booking], error) {
			dash, err := d.API.GetDashboard(ctx)
			if err != nil {
				return Page[models.Booking]{}, err
			}
			m := dash.Metrics
			header := []string{
				fmt.Sprintf("Users %d   Bookings %d   Flights %d   Revenue %s",
					m.TotalUsers, m.TotalBookings, m.TotalFlights, money(m.TotalRevenue)),
			}
			for _, p := range dash.ChartData {
				header = append(header, fmt.Sprintf("  %-10s %10s  %d bookings", p.Name, money(p.Revenue), p.Bookings))
			}
			return Page[models.Booking]{Rows: dash.RecentBookings, Header: header}, nil
		},
		EmptyText: "No recent bookings",
	}
	return NewController("dashboard", res, d.controllerOptions())
}
