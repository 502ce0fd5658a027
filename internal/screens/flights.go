package screens

import (
	"context"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"time"

	"skyrace/console/internal/form"
	"skyrace/console/internal/models"
)

func flightForm() *form.Modal {
	return form.New("Flight",
		form.Field{Name: "airline", Label: "Airline", Required: true},
		form.Field{Name: "flightNumber", Label: "Flight number", Required: true, Uppercase: true, MaxLength: 8},
		form.Field{Name: "origin", Label: "Origin", Required: true, Placeholder: "London (LHR)"},
		form.Field{Name: "destination", Label: "Destination", Required: true, Placeholder: "New York (JFK)"},
		form.Field{Name: "departureTime", Label: "Departure", Kind: form.KindDateTime, Required: true, Placeholder: models.LocalDateTimeLayout},
		form.Field{Name: "arrivalTime", Label: "Arrival", Kind: form.KindDateTime, Required: true, Placeholder: models.LocalDateTimeLayout},
		form.Field{Name: "price", Label: "Price", Kind: form.KindNumber, Required: true, NonNegative: true},
		form.Field{Name: "duration", Label: "Duration (min)", Kind: form.KindInteger, NonNegative: true, Placeholder: "from times"},
		form.Field{Name: "availableSeats", Label: "Seats", Kind: form.KindInteger, Required: true, NonNegative: true},
		form.Field{Name: "gate", Label: "Gate"},
		form.Field{Name: "terminal", Label: "Terminal"},
	)
}

// flightInput converts form values, read in loc, to the API payload.
// Departure must precede arrival; an empty duration is derived from
// the two times.
func flightInput(values map[string]string, loc *time.Location) (models.FlightInput, error) {
	dep, err := models.ParseLocalDateTime(values["departureTime"], loc)
	if err != nil {
		return models.FlightInput{}, &form.ValidationError{Field: "departureTime", Message: "Departure must be a date and time (YYYY-MM-DDTHH:MM)"}
	}
	arr, err := models.ParseLocalDateTime(values["arrivalTime"], loc)
	if err != nil {
		return models.FlightInput{}, &form.ValidationError{Field: "arrivalTime", Message: "Arrival must be a date and time (YYYY-MM-DDTHH:MM)"}
	}
	if !dep.Before(arr) {
		return models.FlightInput{}, &form.ValidationError{Field: "arrivalTime", Message: "Arrival time must be after departure time"}
	}

	price, err := form.Float(values, "price", "Price")
	if err != nil {
		return models.FlightInput{}, err
	}
	seats, err := form.Int(values, "availableSeats", "Seats")
	if err != nil {
		return models.FlightInput{}, err
	}
	duration, err := form.Int(values, "duration", "Duration (min)")
	if err != nil {
		return models.FlightInput{}, err
	}
	if strings.TrimSpace(values["duration"]) == "" {
		duration = int(arr.Sub(dep).Minutes())
	}

	return models.FlightInput{
		Airline:        strings.TrimSpace(values["airline"]),
		FlightNumber:   strings.TrimSpace(values["flightNumber"]),
		Origin:         models.ParseLocation(values["origin"]),
		Destination:    models.ParseLocation(values["destination"]),
		DepartureTime:  dep,
		ArrivalTime:    arr,
		Price:          price,
		Duration:       duration,
		AvailableSeats: seats,
		Gate:           strings.TrimSpace(values["gate"]),
		Terminal:       strings.TrimSpace(values["terminal"]),
	}, nil
}

// staleDuration clears a duration still carrying the seeded value when
// the times were edited, so flightInput derives it again. A duration the
// user typed is kept.
func staleDuration(f models.Flight, values map[string]string, loc *time.Location) map[string]string {
	if strings.TrimSpace(values["duration"]) != strconv.Itoa(f.Duration) {
		return values
	}
	if values["departureTime"] == models.FormatLocalDateTime(f.DepartureTime, loc) &&
		values["arrivalTime"] == models.FormatLocalDateTime(f.ArrivalTime, loc) {
		return values
	}
	out := maps.Clone(values)
	out["duration"] = ""
	return out
}

func NewFlights(d Deps) *Controller[models.Flight] {
	save := write(d, "save_flight", func(ctx context.Context, id string, in models.FlightInput) error {
		if id == "" {
			return d.API.CreateFlight(ctx, in)
		}
		return d.API.UpdateFlight(ctx, id, in)
	}, KeyFlights, KeyDashboard)
	remove := write(d, "delete_flight", func(ctx context.Context, id string, _ struct{}) error {
		return d.API.DeleteFlight(ctx, id)
	}, KeyFlights, KeyDashboard)

	res := Resource[models.Flight]{
		Name:  KeyFlights,
		Title: "Flights",
		Columns: []Column{
			{Title: "Flight", Width: 8},
			{Title: "Airline", Width: 16},
			{Title: "Route", Width: 34},
			{Title: "Departure", Width: 16},
			{Title: "Duration", Width: 8},
			{Title: "Price", Width: 10},
			{Title: "Seats", Width: 6},
		},
		Cells: func(f models.Flight) []string {
			return []string{
				f.FlightNumber,
				f.Airline,
				f.Origin.String() + " → " + f.Destination.String(),
				d.formatTime(f.DepartureTime),
				models.FormatDuration(f.Duration),
				money(f.Price),
				strconv.Itoa(f.AvailableSeats),
			}
		},
		ID: func(f models.Flight) string { return f.ID },
		Detail: func(f models.Flight) []string {
			return []string{
				"Arrival: " + d.formatTime(f.ArrivalTime),
				fmt.Sprintf("Gate: %s  Terminal: %s", orDash(f.Gate), orDash(f.Terminal)),
			}
		},
		Fetch: func(ctx context.Context, p Params) (Page[models.Flight], error) {
			flights, err := d.API.ListFlights(ctx, p.Search)
			return Page[models.Flight]{Rows: flights}, err
		},
		ServerSearch: true,
		EmptyText:    "No flights scheduled",
	}

	validate := func(values map[string]string) error {
		_, err := flightInput(values, d.location())
		return err
	}
	run := func(ctx context.Context, id string, values map[string]string) error {
		in, err := flightInput(values, d.location())
		if err != nil {
			return err
		}
		_, err = save.Execute(ctx, target[models.FlightInput]{ID: id, In: in})
		return err
	}

	create := &Action[models.Flight]{
		ID:       "create",
		Label:    "New flight",
		Key:      "n",
		Global:   true,
		Form:     flightForm,
		Validate: validate,
		Run: func(ctx context.Context, _ models.Flight, values map[string]string) error {
			return run(ctx, "", values)
		},
		Success: "Flight created",
		Failure: "Failed to create flight",
	}

	edit := &Action[models.Flight]{
		ID:    "edit",
		Label: "Edit",
		Key:   "e",
		Form:  flightForm,
		Seed: func(f models.Flight) map[string]string {
			return map[string]string{
				"airline":        f.Airline,
				"flightNumber":   f.FlightNumber,
				"origin":         f.Origin.String(),
				"destination":    f.Destination.String(),
				"departureTime":  models.FormatLocalDateTime(f.DepartureTime, d.location()),
				"arrivalTime":    models.FormatLocalDateTime(f.ArrivalTime, d.location()),
				"price":          form.FormatFloat(f.Price),
				"duration":       strconv.Itoa(f.Duration),
				"availableSeats": strconv.Itoa(f.AvailableSeats),
				"gate":           f.Gate,
				"terminal":       f.Terminal,
			}
		},
		Validate: validate,
		Run: func(ctx context.Context, f models.Flight, values map[string]string) error {
			return run(ctx, f.ID, staleDuration(f, values, d.location()))
		},
		Success: "Flight updated",
		Failure: "Failed to update flight",
	}

	del := &Action[models.Flight]{
		ID:      "delete",
		Label:   "Delete",
		Key:     "d",
		Confirm: func(f models.Flight) string { return "Delete flight " + f.FlightNumber + "?" },
		Run: func(ctx context.Context, f models.Flight, _ map[string]string) error {
			_, err := remove.Execute(ctx, target[struct{}]{ID: f.ID})
			return err
		},
		Success: "Flight deleted",
		Failure: "Failed to delete flight",
	}

	return NewController("flights", res, d.controllerOptions(), create, edit, del)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
