package screens

import (
	"context"
	"strings"

	"skyrace/console/internal/form"
	"skyrace/console/internal/models"
)

func NewNotifications(d Deps) *Controller[models.Notification] {
	broadcast := write(d, "broadcast_notification", func(ctx context.Context, _ string, in models.BroadcastInput) error {
		return d.API.Broadcast(ctx, in)
	}, KeyNotifications)
	remove := write(d, "delete_notification", func(ctx context.Context, id string, _ struct{}) error {
		return d.API.DeleteNotification(ctx, id)
	}, KeyNotifications)

	res := Resource[models.Notification]{
		Name:  KeyNotifications,
		Title: "Notifications",
		Columns: []Column{
			{Title: "Title", Width: 24},
			{Title: "Type", Width: 10},
			{Title: "Target", Width: 7},
			{Title: "Sent by", Width: 16},
			{Title: "Sent", Width: 16},
		},
		Cells: func(n models.Notification) []string {
			return []string{n.Title, string(n.Type), string(n.Target), orDash(n.SentBy.Label()), d.formatTime(n.CreatedAt)}
		},
		ID:     func(n models.Notification) string { return n.ID },
		Detail: func(n models.Notification) []string { return []string{n.Message} },
		Fetch: func(ctx context.Context, _ Params) (Page[models.Notification], error) {
			notes, err := d.API.ListNotifications(ctx)
			return Page[models.Notification]{Rows: notes}, err
		},
		EmptyText: "No notifications sent yet",
	}

	send := &Action[models.Notification]{
		ID:     "broadcast",
		Label:  "Broadcast",
		Key:    "n",
		Global: true,
		Form: func() *form.Modal {
			return form.New("Broadcast notification",
				form.Field{Name: "title", Label: "Title", Required: true, MaxLength: 100},
				form.Field{Name: "message", Label: "Message", Kind: form.KindTextarea, Required: true},
				form.Field{Name: "type", Label: "Type", Kind: form.KindSelect, Required: true, Options: models.Strings(models.NotificationTypes)},
				form.Field{Name: "target", Label: "Audience", Kind: form.KindSelect, Required: true, Options: models.Strings(models.NotificationTargets)},
			)
		},
		Defaults: func() map[string]string {
			return map[string]string{"type": string(models.NotificationInfo), "target": string(models.TargetAll)}
		},
		Run: func(ctx context.Context, _ models.Notification, values map[string]string) error {
			in := models.BroadcastInput{
				Title:   strings.TrimSpace(values["title"]),
				Message: strings.TrimSpace(values["message"]),
				Type:    models.NotificationType(values["type"]),
				Target:  models.NotificationTarget(values["target"]),
			}
			_, err := broadcast.Execute(ctx, target[models.BroadcastInput]{In: in})
			return err
		},
		Success: "Notification sent",
		Failure: "Failed to send notification",
	}

	del := &Action[models.Notification]{
		ID:      "delete",
		Label:   "Delete",
		Key:     "d",
		Confirm: func(n models.Notification) string { return "Delete notification \"" + n.Title + "\"?" },
		Run: func(ctx context.Context, n models.Notification, _ map[string]string) error {
			_, err := remove.Execute(ctx, target[struct{}]{ID: n.ID})
			return err
		},
		Success: "Notification deleted",
		Failure: "Failed to delete notification",
	}

	return NewController("notifications", res, d.controllerOptions(), send, del)
}
