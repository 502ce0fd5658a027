package screens

import (
	"context"
	"strings"

	"skyrace/console/internal/form"
	"skyrace/console/internal/models"
)

// NewProfile shows the signed-in administrator. Saving also refreshes
// the session's cached user so the header reflects the change.
func NewProfile(d Deps) *Controller[models.AdminUser] {
	update := write(d, "update_profile", func(ctx context.Context, _ string, in models.ProfileInput) error {
		return d.API.UpdateProfile(ctx, in)
	}, KeyProfile, KeyUsers)

	res := Resource[models.AdminUser]{
		Name:  KeyProfile,
		Title: "Profile",
		Columns: []Column{
			{Title: "Name", Width: 24},
			{Title: "Email", Width: 30},
			{Title: "Role", Width: 7},
		},
		Cells: func(u models.AdminUser) []string { return []string{u.Name, u.Email, string(u.Role)} },
		ID:    func(u models.AdminUser) string { return u.ID },
		Fetch: func(ctx context.Context, _ Params) (Page[models.AdminUser], error) {
			user, err := d.API.GetProfile(ctx)
			if err != nil {
				return Page[models.AdminUser]{}, err
			}
			return Page[models.AdminUser]{Rows: []models.AdminUser{*user}}, nil
		},
	}

	edit := &Action[models.AdminUser]{
		ID:    "edit",
		Label: "Edit profile",
		Key:   "e",
		Form: func() *form.Modal {
			return form.New("Edit profile",
				form.Field{Name: "name", Label: "Name", Required: true, MinLength: 2},
				form.Field{Name: "email", Label: "Email", Kind: form.KindEmail, Required: true},
				form.Field{Name: "currentPassword", Label: "Current password", Secret: true, Placeholder: "Required to change password"},
				form.Field{Name: "newPassword", Label: "New password", Secret: true, MinLength: 6, Placeholder: "Leave blank to keep"},
			)
		},
		Seed: func(u models.AdminUser) map[string]string {
			return map[string]string{"name": u.Name, "email": u.Email}
		},
		Validate: func(values map[string]string) error {
			if values["newPassword"] != "" && values["currentPassword"] == "" {
				return &form.ValidationError{Field: "currentPassword", Message: "Current password is required to set a new one"}
			}
			return nil
		},
		Run: func(ctx context.Context, u models.AdminUser, values map[string]string) error {
			in := models.ProfileInput{Name: strings.TrimSpace(values["name"]), Email: strings.TrimSpace(values["email"])}
			if values["newPassword"] != "" {
				in.CurrentPassword, in.NewPassword = values["currentPassword"], values["newPassword"]
			}
			if _, err := update.Execute(ctx, target[models.ProfileInput]{ID: u.ID, In: in}); err != nil {
				return err
			}
			if d.Session == nil {
				return nil
			}
			u.Name, u.Email = in.Name, in.Email
			if err := d.Session.UpdateUser(ctx, u); err != nil {
				d.logger().Warnw("Failed to persist updated profile", "error", err)
			}
			return nil
		},
		Success: "Profile updated",
		Failure: "Failed to update profile",
	}

	return NewController("profile", res, d.controllerOptions(), edit)
}
