package screens

import (
	"context"
	"strings"

	"skyrace/console/internal/form"
	"skyrace/console/internal/models"
)

func airportForm() *form.Modal {
	return form.New("Airport",
		form.Field{Name: "name", Label: "Name", Required: true},
		form.Field{Name: "city", Label: "City", Required: true},
		form.Field{Name: "country", Label: "Country", Required: true},
		form.Field{Name: "iataCode", Label: "IATA code", Required: true, Length: 3, Uppercase: true},
		form.Field{Name: "icaoCode", Label: "ICAO code", Length: 4, Uppercase: true},
		form.Field{Name: "status", Label: "Status", Kind: form.KindSelect, Required: true, Options: models.Strings(models.ActiveStatuses)},
	)
}

func airportInput(values map[string]string) models.AirportInput {
	return models.AirportInput{
		Name:     strings.TrimSpace(values["name"]),
		City:     strings.TrimSpace(values["city"]),
		Country:  strings.TrimSpace(values["country"]),
		IATACode: strings.TrimSpace(values["iataCode"]),
		ICAOCode: strings.TrimSpace(values["icaoCode"]),
		Status:   models.ActiveStatus(values["status"]),
	}
}

func NewAirports(d Deps) *Controller[models.Airport] {
	save := write(d, "save_airport", func(ctx context.Context, id string, in models.AirportInput) error {
		if id == "" {
			return d.API.CreateAirport(ctx, in)
		}
		return d.API.UpdateAirport(ctx, id, in)
	}, KeyAirports)
	remove := write(d, "delete_airport", func(ctx context.Context, id string, _ struct{}) error {
		return d.API.DeleteAirport(ctx, id)
	}, KeyAirports)

	res := Resource[models.Airport]{
		Name:  KeyAirports,
		Title: "Airports",
		Columns: []Column{
			{Title: "Name", Width: 30},
			{Title: "City", Width: 16},
			{Title: "Country", Width: 16},
			{Title: "IATA", Width: 5},
			{Title: "ICAO", Width: 5},
			{Title: "Status", Width: 9},
		},
		Cells: func(a models.Airport) []string {
			return []string{a.Name, a.City, a.Country, a.IATACode, orDash(a.ICAOCode), string(a.Status)}
		},
		ID: func(a models.Airport) string { return a.ID },
		Fetch: func(ctx context.Context, _ Params) (Page[models.Airport], error) {
			airports, err := d.API.ListAirports(ctx)
			return Page[models.Airport]{Rows: airports}, err
		},
		Match: func(a models.Airport, term string) bool {
			return containsFold(term, a.Name, a.City, a.Country, a.IATACode, a.ICAOCode)
		},
	}

	create := &Action[models.Airport]{
		ID:       "create",
		Label:    "New airport",
		Key:      "n",
		Global:   true,
		Form:     airportForm,
		Defaults: func() map[string]string { return map[string]string{"status": string(models.StatusActive)} },
		Run: func(ctx context.Context, _ models.Airport, values map[string]string) error {
			_, err := save.Execute(ctx, target[models.AirportInput]{In: airportInput(values)})
			return err
		},
		Success: "Airport created",
		Failure: "Failed to create airport",
	}

	edit := &Action[models.Airport]{
		ID:    "edit",
		Label: "Edit",
		Key:   "e",
		Form:  airportForm,
		Seed: func(a models.Airport) map[string]string {
			status := a.Status
			if status == "" {
				status = models.StatusActive
			}
			return map[string]string{
				"name":     a.Name,
				"city":     a.City,
				"country":  a.Country,
				"iataCode": a.IATACode,
				"icaoCode": a.ICAOCode,
				"status":   string(status),
			}
		},
		Run: func(ctx context.Context, a models.Airport, values map[string]string) error {
			_, err := save.Execute(ctx, target[models.AirportInput]{ID: a.ID, In: airportInput(values)})
			return err
		},
		Success: "Airport updated",
		Failure: "Failed to update airport",
	}

	del := &Action[models.Airport]{
		ID:      "delete",
		Label:   "Delete",
		Key:     "d",
		Confirm: func(a models.Airport) string { return "Delete airport " + a.Name + " (" + a.IATACode + ")?" },
		Run: func(ctx context.Context, a models.Airport, _ map[string]string) error {
			_, err := remove.Execute(ctx, target[struct{}]{ID: a.ID})
			return err
		},
		Success: "Airport deleted",
		Failure: "Failed to delete airport",
	}

	return NewController("airports", res, d.controllerOptions(), create, edit, del)
}
