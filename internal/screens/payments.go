package screens

import (
	"context"

	"skyrace/console/internal/models"
)

func NewPayments(d Deps) *Controller[models.Payment] {
	refund := write(d, "refund_payment", func(ctx context.Context, id string, _ struct{}) error {
		return d.API.RefundPayment(ctx, id)
	}, KeyPayments, KeyBookings, KeyDashboard, KeyAnalytics)

	res := Resource[models.Payment]{
		Name:  KeyPayments,
		Title: "Payments",
		Columns: []Column{
			{Title: "Transaction", Width: 14},
			{Title: "Customer", Width: 20},
			{Title: "Amount", Width: 10},
			{Title: "Method", Width: 12},
			{Title: "Status", Width: 10},
			{Title: "Date", Width: 16},
		},
		Cells: func(p models.Payment) []string {
			return []string{
				p.TransactionID,
				orDash(p.User.Label()),
				money(p.Amount),
				orDash(p.PaymentMethod),
				string(p.Status),
				d.formatTime(p.CreatedAt),
			}
		},
		ID: func(p models.Payment) string { return p.ID },
		Fetch: func(ctx context.Context, p Params) (Page[models.Payment], error) {
			payments, err := d.API.ListPayments(ctx, p.Filters["status"], p.Search)
			return Page[models.Payment]{Rows: payments}, err
		},
		ServerSearch: true,
		Filters:      []Filter{{Name: "status", Label: "Status", Options: models.Strings(models.PaymentStatuses)}},
	}

	refundAction := &Action[models.Payment]{
		ID:        "refund",
		Label:     "Refund",
		Key:       "r",
		Available: models.Payment.Refundable,
		Confirm: func(p models.Payment) string {
			return "Refund " + money(p.Amount) + " for transaction " + p.TransactionID + "?"
		},
		Run: func(ctx context.Context, p models.Payment, _ map[string]string) error {
			_, err := refund.Execute(ctx, target[struct{}]{ID: p.ID})
			return err
		},
		Success: "Payment refunded",
		Failure: "Failed to refund payment",
	}

	return NewController("payments", res, d.controllerOptions(), refundAction)
}
