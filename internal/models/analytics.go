package models

// DashboardMetrics are the headline counters on the dashboard.
type DashboardMetrics struct {
	TotalUsers    int     `json:"totalUsers"`
	TotalBookings int     `json:"totalBookings"`
	TotalRevenue  float64 `json:"totalRevenue"`
	TotalFlights  int     `json:"totalFlights"`
}

type ChartPoint struct {
	Name     string  `json:"name"`
	Revenue  float64 `json:"revenue"`
	Bookings int     `json:"bookings"`
}

// Dashboard is the body of GET /admin/dashboard/metrics.
type Dashboard struct {
	Metrics        DashboardMetrics `json:"metrics"`
	RecentBookings []Booking        `json:"recentBookings"`
	ChartData      []ChartPoint     `json:"chartData"`
}

type RevenuePoint struct {
	Name     string  `json:"name"`
	Revenue  float64 `json:"revenue"`
	Bookings int     `json:"bookings"`
}

type RouteStat struct {
	Route    string  `json:"_id"`
	Revenue  float64 `json:"revenue"`
	Bookings int     `json:"bookings"`
}

type AirlineStat struct {
	Airline  string  `json:"_id"`
	Revenue  float64 `json:"revenue"`
	Bookings int     `json:"bookings"`
}
