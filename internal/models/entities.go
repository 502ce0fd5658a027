package models

import (
	"encoding/json"
	"time"
)

// UserRef is a populated or bare user reference. The backend sends
// either an object or just the id string.
type UserRef struct {
	ID    string `json:"_id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

func (r *UserRef) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*r = UserRef{ID: id}
		return nil
	}
	type plain UserRef
	return json.Unmarshal(data, (*plain)(r))
}

// Label is the name when populated, otherwise the id.
func (r *UserRef) Label() string {
	if r == nil {
		return ""
	}
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}

// FlightRef is a populated or bare flight reference.
type FlightRef struct {
	ID           string   `json:"_id,omitempty"`
	Airline      string   `json:"airline,omitempty"`
	FlightNumber string   `json:"flightNumber,omitempty"`
	Origin       Location `json:"origin"`
	Destination  Location `json:"destination"`
}

func (r *FlightRef) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*r = FlightRef{ID: id}
		return nil
	}
	type plain FlightRef
	return json.Unmarshal(data, (*plain)(r))
}

type User struct {
	ID            string      `json:"_id"`
	Name          string      `json:"name"`
	Email         string      `json:"email"`
	Role          Role        `json:"role"`
	Status        string      `json:"status,omitempty"`
	LoyaltyTier   LoyaltyTier `json:"loyaltyTier,omitempty"`
	LoyaltyPoints int         `json:"loyaltyPoints"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// UserUpdate is the body of PATCH /admin/users/:id/status.
type UserUpdate struct {
	Role        Role        `json:"role"`
	LoyaltyTier LoyaltyTier `json:"loyaltyTier"`
}

type Flight struct {
	ID             string    `json:"_id"`
	Airline        string    `json:"airline"`
	FlightNumber   string    `json:"flightNumber"`
	Origin         Location  `json:"origin"`
	Destination    Location  `json:"destination"`
	DepartureTime  time.Time `json:"departureTime"`
	ArrivalTime    time.Time `json:"arrivalTime"`
	Price          float64   `json:"price"`
	Duration       int       `json:"duration"`
	AvailableSeats int       `json:"availableSeats"`
	Gate           string    `json:"gate,omitempty"`
	Terminal       string    `json:"terminal,omitempty"`
}

// FlightInput is the create/update payload for flights.
type FlightInput struct {
	Airline        string    `json:"airline"`
	FlightNumber   string    `json:"flightNumber"`
	Origin         Location  `json:"origin"`
	Destination    Location  `json:"destination"`
	DepartureTime  time.Time `json:"departureTime"`
	ArrivalTime    time.Time `json:"arrivalTime"`
	Price          float64   `json:"price"`
	Duration       int       `json:"duration"`
	AvailableSeats int       `json:"availableSeats"`
	Gate           string    `json:"gate,omitempty"`
	Terminal       string    `json:"terminal,omitempty"`
}

type Airline struct {
	ID       string       `json:"_id"`
	Name     string       `json:"name"`
	IATACode string       `json:"iataCode"`
	ICAOCode string       `json:"icaoCode,omitempty"`
	Country  string       `json:"country"`
	Logo     string       `json:"logo,omitempty"`
	Status   ActiveStatus `json:"status,omitempty"`
}

type AirlineInput struct {
	Name     string       `json:"name"`
	IATACode string       `json:"iataCode"`
	ICAOCode string       `json:"icaoCode,omitempty"`
	Country  string       `json:"country"`
	Logo     string       `json:"logo,omitempty"`
	Status   ActiveStatus `json:"status,omitempty"`
}

type Airport struct {
	ID       string       `json:"_id"`
	Name     string       `json:"name"`
	City     string       `json:"city"`
	Country  string       `json:"country"`
	IATACode string       `json:"iataCode"`
	ICAOCode string       `json:"icaoCode,omitempty"`
	Status   ActiveStatus `json:"status,omitempty"`
}

type AirportInput struct {
	Name     string       `json:"name"`
	City     string       `json:"city"`
	Country  string       `json:"country"`
	IATACode string       `json:"iataCode"`
	ICAOCode string       `json:"icaoCode,omitempty"`
	Status   ActiveStatus `json:"status,omitempty"`
}

type Booking struct {
	ID            string        `json:"_id"`
	User          *UserRef      `json:"user,omitempty"`
	Flight        *FlightRef    `json:"flight,omitempty"`
	TotalPrice    float64       `json:"totalPrice"`
	PaymentStatus string        `json:"paymentStatus,omitempty"`
	Status        BookingStatus `json:"status"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// Cancellable reports whether the cancel transition is still offered.
func (b Booking) Cancellable() bool {
	return b.Status != BookingCancelled
}

type Payment struct {
	ID            string        `json:"_id"`
	TransactionID string        `json:"transactionId"`
	User          *UserRef      `json:"user,omitempty"`
	Amount        float64       `json:"amount"`
	PaymentMethod string        `json:"paymentMethod"`
	Status        PaymentStatus `json:"status"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// Refundable reports whether the one-way refund transition is offered.
func (p Payment) Refundable() bool {
	return p.Status == PaymentCompleted
}

type Notification struct {
	ID        string             `json:"_id"`
	Title     string             `json:"title"`
	Message   string             `json:"message"`
	Type      NotificationType   `json:"type"`
	Target    NotificationTarget `json:"target"`
	SentBy    *UserRef           `json:"sentBy,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
}

type BroadcastInput struct {
	Title   string             `json:"title"`
	Message string             `json:"message"`
	Type    NotificationType   `json:"type"`
	Target  NotificationTarget `json:"target"`
}

type Promo struct {
	ID           string       `json:"_id"`
	Code         string       `json:"code"`
	DiscountType DiscountType `json:"discountType"`
	Value        float64      `json:"value"`
	UsageLimit   int          `json:"usageLimit"`
	UsedCount    int          `json:"usedCount"`
	ExpiryDate   time.Time    `json:"expiryDate"`
	IsActive     bool         `json:"isActive"`
}

type PromoInput struct {
	Code         string       `json:"code"`
	DiscountType DiscountType `json:"discountType"`
	Value        float64      `json:"value"`
	UsageLimit   int          `json:"usageLimit"`
	ExpiryDate   time.Time    `json:"expiryDate"`
}

// TicketResponse is one message in a support thread. Responses are
// append-only and kept in arrival order.
type TicketResponse struct {
	SenderRole Role      `json:"senderRole"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"createdAt"`
}

type SupportTicket struct {
	ID        string           `json:"_id"`
	Subject   string           `json:"subject"`
	Message   string           `json:"message"`
	Status    TicketStatus     `json:"status"`
	Priority  TicketPriority   `json:"priority,omitempty"`
	User      *UserRef         `json:"userId,omitempty"`
	Responses []TicketResponse `json:"responses"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

type AuditLogEntry struct {
	ID         string      `json:"_id"`
	Admin      *UserRef    `json:"admin,omitempty"`
	Action     AuditAction `json:"action"`
	Resource   string      `json:"resource"`
	ResourceID string      `json:"resourceId,omitempty"`
	Details    string      `json:"details,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// SystemSetting keeps the raw wire value; Typed gives the structured view.
type SystemSetting struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}

func (s SystemSetting) Typed() SettingValue {
	return ParseSettingValue(s.Value)
}

// AdminUser is the signed-in administrator returned by the login endpoint.
type AdminUser struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// ProfileInput carries the password pair only when the password changes.
type ProfileInput struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	CurrentPassword string `json:"currentPassword,omitempty"`
	NewPassword     string `json:"newPassword,omitempty"`
}

// Pagination is the page cursor some list endpoints return.
type Pagination struct {
	Page  int `json:"page"`
	Pages int `json:"pages"`
}
