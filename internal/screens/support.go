package screens

import (
	"context"
	"fmt"
	"strings"

	"skyrace/console/internal/form"
	"skyrace/console/internal/models"
)

// thread renders the opening message followed by every response in
// arrival order.
func (d Deps) thread(t models.SupportTicket) []string {
	lines := []string{fmt.Sprintf("[%s] %s", orDash(t.User.Label()), t.Message)}
	for _, r := range t.Responses {
		lines = append(lines, fmt.Sprintf("[%s %s] %s", r.SenderRole, d.formatTime(r.CreatedAt), r.Message))
	}
	return lines
}

func NewSupport(d Deps) *Controller[models.SupportTicket] {
	setStatus := write(d, "set_ticket_status", d.API.SetTicketStatus, KeySupport)
	reply := write(d, "reply_ticket", d.API.ReplyToTicket, KeySupport)

	res := Resource[models.SupportTicket]{
		Name:  KeySupport,
		Title: "Support",
		Columns: []Column{
			{Title: "Subject", Width: 30},
			{Title: "Customer", Width: 18},
			{Title: "Priority", Width: 8},
			{Title: "Status", Width: 12},
			{Title: "Replies", Width: 7},
			{Title: "Updated", Width: 16},
		},
		Cells: func(t models.SupportTicket) []string {
			return []string{
				t.Subject,
				orDash(t.User.Label()),
				orDash(string(t.Priority)),
				string(t.Status),
				fmt.Sprint(len(t.Responses)),
				d.formatTime(t.UpdatedAt),
			}
		},
		ID:     func(t models.SupportTicket) string { return t.ID },
		Detail: d.thread,
		Fetch: func(ctx context.Context, _ Params) (Page[models.SupportTicket], error) {
			tickets, err := d.API.ListTickets(ctx)
			return Page[models.SupportTicket]{Rows: tickets}, err
		},
		Match: func(t models.SupportTicket, term string) bool {
			user := ""
			if t.User != nil {
				user = t.User.Name + " " + t.User.Email
			}
			return containsFold(term, t.Subject, t.Message, user)
		},
		EmptyText: "No support tickets",
	}

	status := &Action[models.SupportTicket]{
		ID:    "status",
		Label: "Set status",
		Key:   "s",
		Form: func() *form.Modal {
			return form.New("Ticket status",
				form.Field{Name: "status", Label: "Status", Kind: form.KindSelect, Required: true, Options: models.Strings(models.TicketStatuses)})
		},
		Seed: func(t models.SupportTicket) map[string]string { return map[string]string{"status": string(t.Status)} },
		Run: func(ctx context.Context, t models.SupportTicket, values map[string]string) error {
			s, err := models.ParseTicketStatus(values["status"])
			if err != nil {
				return err
			}
			_, err = setStatus.Execute(ctx, target[models.TicketStatus]{ID: t.ID, In: s})
			return err
		},
		Success: "Ticket status updated",
		Failure: "Failed to update ticket",
	}

	respond := &Action[models.SupportTicket]{
		ID:    "reply",
		Label: "Reply",
		Key:   "r",
		Form: func() *form.Modal {
			return form.New("Reply to ticket",
				form.Field{Name: "message", Label: "Message", Kind: form.KindTextarea, Required: true})
		},
		Run: func(ctx context.Context, t models.SupportTicket, values map[string]string) error {
			_, err := reply.Execute(ctx, target[string]{ID: t.ID, In: strings.TrimSpace(values["message"])})
			return err
		},
		Success: "Reply sent",
		Failure: "Failed to send reply",
	}

	return NewController("support", res, d.controllerOptions(), status, respond)
}
