package screens

import (
	"context"
	"strings"

	"skyrace/console/internal/form"
	"skyrace/console/internal/models"
)

func airlineForm() *form.Modal {
	return form.New("Airline",
		form.Field{Name: "name", Label: "Name", Required: true},
		form.Field{Name: "iataCode", Label: "IATA code", Required: true, Length: 2, Uppercase: true},
		form.Field{Name: "icaoCode", Label: "ICAO code", Length: 3, Uppercase: true},
		form.Field{Name: "country", Label: "Country", Required: true},
		form.Field{Name: "logo", Label: "Logo URL", Kind: form.KindURL},
		form.Field{Name: "status", Label: "Status", Kind: form.KindSelect, Required: true, Options: models.Strings(models.ActiveStatuses)},
	)
}

func airlineInput(values map[string]string) models.AirlineInput {
	return models.AirlineInput{
		Name:     strings.TrimSpace(values["name"]),
		IATACode: strings.TrimSpace(values["iataCode"]),
		ICAOCode: strings.TrimSpace(values["icaoCode"]),
		Country:  strings.TrimSpace(values["country"]),
		Logo:     strings.TrimSpace(values["logo"]),
		Status:   models.ActiveStatus(values["status"]),
	}
}

// containsFold reports whether any of fields contains term, ignoring case.
func containsFold(term string, fields ...string) bool {
	term = strings.ToLower(term)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

func NewAirlines(d Deps) *Controller[models.Airline] {
	save := write(d, "save_airline", func(ctx context.Context, id string, in models.AirlineInput) error {
		if id == "" {
			return d.API.CreateAirline(ctx, in)
		}
		return d.API.UpdateAirline(ctx, id, in)
	}, KeyAirlines, KeyAnalytics)
	remove := write(d, "delete_airline", func(ctx context.Context, id string, _ struct{}) error {
		return d.API.DeleteAirline(ctx, id)
	}, KeyAirlines, KeyAnalytics)

	res := Resource[models.Airline]{
		Name:  KeyAirlines,
		Title: "Airlines",
		Columns: []Column{
			{Title: "Name", Width: 24},
			{Title: "IATA", Width: 5},
			{Title: "ICAO", Width: 5},
			{Title: "Country", Width: 18},
			{Title: "Status", Width: 9},
		},
		Cells: func(a models.Airline) []string {
			return []string{a.Name, a.IATACode, orDash(a.ICAOCode), a.Country, string(a.Status)}
		},
		ID: func(a models.Airline) string { return a.ID },
		Fetch: func(ctx context.Context, _ Params) (Page[models.Airline], error) {
			airlines, err := d.API.ListAirlines(ctx)
			return Page[models.Airline]{Rows: airlines}, err
		},
		Match: func(a models.Airline, term string) bool {
			return containsFold(term, a.Name, a.IATACode, a.ICAOCode, a.Country)
		},
	}

	create := &Action[models.Airline]{
		ID:       "create",
		Label:    "New airline",
		Key:      "n",
		Global:   true,
		Form:     airlineForm,
		Defaults: func() map[string]string { return map[string]string{"status": string(models.StatusActive)} },
		Run: func(ctx context.Context, _ models.Airline, values map[string]string) error {
			_, err := save.Execute(ctx, target[models.AirlineInput]{In: airlineInput(values)})
			return err
		},
		Success: "Airline created",
		Failure: "Failed to create airline",
	}

	edit := &Action[models.Airline]{
		ID:    "edit",
		Label: "Edit",
		Key:   "e",
		Form:  airlineForm,
		Seed: func(a models.Airline) map[string]string {
			status := a.Status
			if status == "" {
				status = models.StatusActive
			}
			return map[string]string{
				"name":     a.Name,
				"iataCode": a.IATACode,
				"icaoCode": a.ICAOCode,
				"country":  a.Country,
				"logo":     a.Logo,
				"status":   string(status),
			}
		},
		Run: func(ctx context.Context, a models.Airline, values map[string]string) error {
			_, err := save.Execute(ctx, target[models.AirlineInput]{ID: a.ID, In: airlineInput(values)})
			return err
		},
		Success: "Airline updated",
		Failure: "Failed to update airline",
	}

	del := &Action[models.Airline]{
		ID:      "delete",
		Label:   "Delete",
		Key:     "d",
		Confirm: func(a models.Airline) string { return "Delete airline " + a.Name + " (" + a.IATACode + ")?" },
		Run: func(ctx context.Context, a models.Airline, _ map[string]string) error {
			_, err := remove.Execute(ctx, target[struct{}]{ID: a.ID})
			return err
		},
		Success: "Airline deleted",
		Failure: "Failed to delete airline",
	}

	return NewController("airlines", res, d.controllerOptions(), create, edit, del)
}
