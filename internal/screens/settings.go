package screens

import (
	"context"

	"skyrace/console/internal/form"
	"skyrace/console/internal/models"
)

func isBoolSetting(s models.SystemSetting) bool {
	_, ok := s.Typed().(models.BoolSetting)
	return ok
}

func NewSettings(d Deps) *Controller[models.SystemSetting] {
	update := write(d, "update_setting", d.API.UpdateSetting, KeySettings)

	res := Resource[models.SystemSetting]{
		Name:  KeySettings,
		Title: "Settings",
		Columns: []Column{
			{Title: "Key", Width: 24},
			{Title: "Value", Width: 28},
			{Title: "Description", Width: 40},
		},
		Cells: func(s models.SystemSetting) []string {
			value := s.Value
			if b, ok := s.Typed().(models.BoolSetting); ok {
				value = "[ ] off"
				if b {
					value = "[x] on"
				}
			}
			return []string{s.Key, value, s.Description}
		},
		ID: func(s models.SystemSetting) string { return s.Key },
		Fetch: func(ctx context.Context, _ Params) (Page[models.SystemSetting], error) {
			settings, err := d.API.ListSettings(ctx)
			return Page[models.SystemSetting]{Rows: settings}, err
		},
		Match: func(s models.SystemSetting, term string) bool {
			return containsFold(term, s.Key, s.Description)
		},
		EmptyText: "No system settings defined",
	}

	toggle := &Action[models.SystemSetting]{
		ID:        "toggle",
		Label:     "Toggle",
		Key:       "t",
		Available: isBoolSetting,
		Run: func(ctx context.Context, s models.SystemSetting, _ map[string]string) error {
			_, err := update.Execute(ctx, target[models.SettingValue]{ID: s.Key, In: models.Toggle(s.Typed())})
			return err
		},
		Success: "Setting updated",
		Failure: "Failed to update setting",
	}

	edit := &Action[models.SystemSetting]{
		ID:        "edit",
		Label:     "Edit",
		Key:       "e",
		Available: func(s models.SystemSetting) bool { return !isBoolSetting(s) },
		Form: func() *form.Modal {
			return form.New("Edit setting", form.Field{Name: "value", Label: "Value", Kind: form.KindTextarea})
		},
		Seed: func(s models.SystemSetting) map[string]string { return map[string]string{"value": s.Value} },
		Run: func(ctx context.Context, s models.SystemSetting, values map[string]string) error {
			_, err := update.Execute(ctx, target[models.SettingValue]{ID: s.Key, In: models.TextSetting(values["value"])})
			return err
		},
		Success: "Setting updated",
		Failure: "Failed to update setting",
	}

	return NewController("settings", res, d.controllerOptions(), toggle, edit)
}
