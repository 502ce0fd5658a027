package screens

import (
	"context"
	"strconv"

	"skyrace/console/internal/form"
	"skyrace/console/internal/models"
)

func NewUsers(d Deps) *Controller[models.User] {
	update := write(d, "update_user", d.API.UpdateUserStatus, KeyUsers, KeyDashboard)
	remove := write(d, "delete_user", func(ctx context.Context, id string, _ struct{}) error {
		return d.API.DeleteUser(ctx, id)
	}, KeyUsers, KeyDashboard)

	res := Resource[models.User]{
		Name:  KeyUsers,
		Title: "Users",
		Columns: []Column{
			{Title: "Name", Width: 20},
			{Title: "Email", Width: 28},
			{Title: "Role", Width: 7},
			{Title: "Tier", Width: 9},
			{Title: "Points", Width: 8},
			{Title: "Joined", Width: 16},
		},
		Cells: func(u models.User) []string {
			return []string{u.Name, u.Email, string(u.Role), string(u.LoyaltyTier), strconv.Itoa(u.LoyaltyPoints), d.formatTime(u.CreatedAt)}
		},
		ID: func(u models.User) string { return u.ID },
		Fetch: func(ctx context.Context, p Params) (Page[models.User], error) {
			users, err := d.API.ListUsers(ctx, p.Search)
			return Page[models.User]{Rows: users}, err
		},
		ServerSearch: true,
		EmptyText:    "No users found",
	}

	edit := &Action[models.User]{
		ID:    "edit",
		Label: "Edit role",
		Key:   "e",
		Form: func() *form.Modal {
			return form.New("Edit user",
				form.Field{Name: "role", Label: "Role", Kind: form.KindSelect, Required: true, Options: models.Strings(models.Roles)},
				form.Field{Name: "loyaltyTier", Label: "Loyalty tier", Kind: form.KindSelect, Required: true, Options: models.Strings(models.LoyaltyTiers)},
			)
		},
		Seed: func(u models.User) map[string]string {
			tier := u.LoyaltyTier
			if tier == "" {
				tier = models.TierBronze
			}
			return map[string]string{"role": string(u.Role), "loyaltyTier": string(tier)}
		},
		Run: func(ctx context.Context, u models.User, values map[string]string) error {
			role, err := models.ParseRole(values["role"])
			if err != nil {
				return err
			}
			tier, err := models.ParseLoyaltyTier(values["loyaltyTier"])
			if err != nil {
				return err
			}
			_, err = update.Execute(ctx, target[models.UserUpdate]{ID: u.ID, In: models.UserUpdate{Role: role, LoyaltyTier: tier}})
			return err
		},
		Success: "User updated",
		Failure: "Failed to update user",
	}

	del := &Action[models.User]{
		ID:      "delete",
		Label:   "Delete",
		Key:     "d",
		Confirm: func(u models.User) string { return "Delete user " + u.Name + " (" + u.Email + ")?" },
		Run: func(ctx context.Context, u models.User, _ map[string]string) error {
			_, err := remove.Execute(ctx, target[struct{}]{ID: u.ID})
			return err
		},
		Success: "User deleted",
		Failure: "Failed to delete user",
	}

	return NewController("users", res, d.controllerOptions(), edit, del)
}
