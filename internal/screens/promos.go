package screens

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"skyrace/console/internal/form"
	"skyrace/console/internal/models"
)

func promoValue(p models.Promo) string {
	if p.DiscountType == models.DiscountPercentage {
		return form.FormatFloat(p.Value) + "%"
	}
	return money(p.Value)
}

func NewPromos(d Deps) *Controller[models.Promo] {
	create := write(d, "create_promo", func(ctx context.Context, _ string, in models.PromoInput) error {
		return d.API.CreatePromo(ctx, in)
	}, KeyPromos)

	res := Resource[models.Promo]{
		Name:  KeyPromos,
		Title: "Promos",
		Columns: []Column{
			{Title: "Code", Width: 14},
			{Title: "Discount", Width: 10},
			{Title: "Used", Width: 10},
			{Title: "Expires", Width: 16},
			{Title: "Active", Width: 6},
		},
		Cells: func(p models.Promo) []string {
			used := strconv.Itoa(p.UsedCount)
			if p.UsageLimit > 0 {
				used = fmt.Sprintf("%d/%d", p.UsedCount, p.UsageLimit)
			}
			active := "no"
			if p.IsActive {
				active = "yes"
			}
			return []string{p.Code, promoValue(p), used, d.formatTime(p.ExpiryDate), active}
		},
		ID: func(p models.Promo) string { return p.ID },
		Fetch: func(ctx context.Context, _ Params) (Page[models.Promo], error) {
			promos, err := d.API.ListPromos(ctx)
			return Page[models.Promo]{Rows: promos}, err
		},
		Match: func(p models.Promo, term string) bool {
			return containsFold(term, p.Code, string(p.DiscountType))
		},
	}

	add := &Action[models.Promo]{
		ID:     "create",
		Label:  "New promo",
		Key:    "n",
		Global: true,
		Form: func() *form.Modal {
			return form.New("Promo code",
				form.Field{Name: "code", Label: "Code", Required: true, MinLength: 3, MaxLength: 20, Uppercase: true},
				form.Field{Name: "discountType", Label: "Discount type", Kind: form.KindSelect, Required: true, Options: models.Strings(models.DiscountTypes)},
				form.Field{Name: "value", Label: "Value", Kind: form.KindNumber, Required: true, NonNegative: true},
				form.Field{Name: "usageLimit", Label: "Usage limit", Kind: form.KindInteger, NonNegative: true, Placeholder: "unlimited"},
				form.Field{Name: "expiryDate", Label: "Expires", Kind: form.KindDateTime, Required: true, Placeholder: models.LocalDateTimeLayout},
			)
		},
		Defaults: func() map[string]string {
			return map[string]string{"discountType": string(models.DiscountPercentage)}
		},
		Validate: func(values map[string]string) error {
			v, err := form.Float(values, "value", "Value")
			if err != nil {
				return err
			}
			if values["discountType"] == string(models.DiscountPercentage) && v > 100 {
				return &form.ValidationError{Field: "value", Message: "Percentage discount cannot exceed 100"}
			}
			return nil
		},
		Run: func(ctx context.Context, _ models.Promo, values map[string]string) error {
			value, err := form.Float(values, "value", "Value")
			if err != nil {
				return err
			}
			limit, err := form.Int(values, "usageLimit", "Usage limit")
			if err != nil {
				return err
			}
			expiry, err := models.ParseLocalDateTime(values["expiryDate"], d.location())
			if err != nil {
				return &form.ValidationError{Field: "expiryDate", Message: "Expires must be a date and time (YYYY-MM-DDTHH:MM)"}
			}
			in := models.PromoInput{
				Code:         strings.TrimSpace(values["code"]),
				DiscountType: models.DiscountType(values["discountType"]),
				Value:        value,
				UsageLimit:   limit,
				ExpiryDate:   expiry,
			}
			_, err = create.Execute(ctx, target[models.PromoInput]{In: in})
			return err
		},
		Success: "Promo code created",
		Failure: "Failed to create promo code",
	}

	return NewController("promos", res, d.controllerOptions(), add)
}
