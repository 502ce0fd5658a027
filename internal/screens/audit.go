package screens

import (
	"context"

	"skyrace/console/internal/apiclient"
	"skyrace/console/internal/models"
)

const auditPageSize = 20

// AuditResources are the resource names the backend records writes under.
var AuditResources = []string{
	"auth", "profile", "user", "flight", "airline", "airport", "booking",
	"payment", "notification", "promo", "setting", "support",
}

// NewAudit is read-only: the trail only changes through other screens'
// writes, which all invalidate it.
func NewAudit(d Deps) *Controller[models.AuditLogEntry] {
	res := Resource[models.AuditLogEntry]{
		Name:  KeyAudit,
		Title: "Audit log",
		Columns: []Column{
			{Title: "When", Width: 16},
			{Title: "Admin", Width: 18},
			{Title: "Action", Width: 7},
			{Title: "Resource", Width: 12},
			{Title: "Record", Width: 9},
			{Title: "Details", Width: 30},
		},
		Cells: func(e models.AuditLogEntry) []string {
			return []string{
				d.formatTime(e.CreatedAt),
				orDash(e.Admin.Label()),
				string(e.Action),
				e.Resource,
				orDash(shortID(e.ResourceID)),
				e.Details,
			}
		},
		ID: func(e models.AuditLogEntry) string { return e.ID },
		Fetch: func(ctx context.Context, p Params) (Page[models.AuditLogEntry], error) {
			page, err := d.API.ListAuditLogs(ctx, apiclient.AuditQuery{
				Page:     p.Page,
				Limit:    auditPageSize,
				Action:   p.Filters["action"],
				Resource: p.Filters["resource"],
			})
			if err != nil {
				return Page[models.AuditLogEntry]{}, err
			}
			return Page[models.AuditLogEntry]{Rows: page.Logs, Pagination: page.Pagination}, nil
		},
		Filters: []Filter{
			{Name: "action", Label: "Action", Options: models.Strings(models.AuditActions)},
			{Name: "resource", Label: "Resource", Options: AuditResources},
		},
		Paginated: true,
		EmptyText: "No audit entries",
	}
	return NewController("audit", res, d.controllerOptions())
}
