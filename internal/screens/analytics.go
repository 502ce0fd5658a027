package screens

import (
	"context"
	"strconv"
)

// Revenue breakdowns offered by the analytics screen.
const (
	BreakdownMonth   = "month"
	BreakdownRoute   = "route"
	BreakdownAirline = "airline"
)

// RevenueRow is one line of any revenue breakdown.
type RevenueRow struct {
	Label    string
	Revenue  float64
	Bookings int
}

func revenueRows(ctx context.Context, d Deps, breakdown string) ([]RevenueRow, error) {
	var rows []RevenueRow
	switch breakdown {
	case BreakdownRoute:
		stats, err := d.API.RevenueByRoute(ctx)
		if err != nil {
			return nil, err
		}
		for _, s := range stats {
			rows = append(rows, RevenueRow{Label: s.Route, Revenue: s.Revenue, Bookings: s.Bookings})
		}
	case BreakdownAirline:
		stats, err := d.API.RevenueByAirline(ctx)
		if err != nil {
			return nil, err
		}
		for _, s := range stats {
			rows = append(rows, RevenueRow{Label: s.Airline, Revenue: s.Revenue, Bookings: s.Bookings})
		}
	default:
		points, err := d.API.RevenueSummary(ctx)
		if err != nil {
			return nil, err
		}
		for _, p := range points {
			rows = append(rows, RevenueRow{Label: p.Name, Revenue: p.Revenue, Bookings: p.Bookings})
		}
	}
	return rows, nil
}

func NewAnalytics(d Deps) *Controller[RevenueRow] {
	res := Resource[RevenueRow]{
		Name:  KeyAnalytics,
		Title: "Analytics",
		Columns: []Column{
			{Title: "Period / route / airline", Width: 26},
			{Title: "Revenue", Width: 12},
			{Title: "Bookings", Width: 9},
		},
		Cells: func(r RevenueRow) []string {
			return []string{r.Label, money(r.Revenue), strconv.Itoa(r.Bookings)}
		},
		ID: func(r RevenueRow) string { return r.Label },
		Fetch: func(ctx context.Context, p Params) (Page[RevenueRow], error) {
			rows, err := revenueRows(ctx, d, p.Filters["breakdown"])
			if err != nil {
				return Page[RevenueRow]{}, err
			}
			var total float64
			var bookings int
			for _, r := range rows {
				total += r.Revenue
				bookings += r.Bookings
			}
			header := []string{"Total " + money(total) + " across " + strconv.Itoa(bookings) + " bookings"}
			return Page[RevenueRow]{Rows: rows, Header: header}, nil
		},
		Filters:   []Filter{{Name: "breakdown", Label: "Breakdown", Options: []string{BreakdownMonth, BreakdownRoute, BreakdownAirline}}},
		EmptyText: "No revenue recorded yet",
	}
	return NewController("analytics", res, d.controllerOptions())
}
