package mockapi

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"skyrace/console/internal/models"
)

// account is a user that can sign in.
type account struct {
	user     models.User
	password string
}

// Store is the backend's in-memory state. Handlers take the lock for
// the whole read-modify-write so each request is atomic.
type Store struct {
	mu sync.Mutex

	accounts      []*account
	flights       []*models.Flight
	airlines      []*models.Airline
	airports      []*models.Airport
	bookings      []*models.Booking
	payments      []*models.Payment
	notifications []*models.Notification
	promos        []*models.Promo
	settings      []*models.SystemSetting
	tickets       []*models.SupportTicket
	audit         []*models.AuditLogEntry

	now func() time.Time
}

func NewStore() *Store {
	return &Store{now: func() time.Time { return time.Now().UTC() }}
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}

// AddAccount registers a user with a password and returns its id.
func (s *Store) AddAccount(u models.User, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = newID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	s.accounts = append(s.accounts, &account{user: u, password: password})
	return u.ID
}

func (s *Store) AddFlight(f models.Flight) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.ID == "" {
		f.ID = newID()
	}
	s.flights = append(s.flights, &f)
	return f.ID
}

func (s *Store) AddAirline(a models.Airline) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = newID()
	}
	s.airlines = append(s.airlines, &a)
	return a.ID
}

func (s *Store) AddAirport(a models.Airport) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = newID()
	}
	s.airports = append(s.airports, &a)
	return a.ID
}

func (s *Store) AddBooking(b models.Booking) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b.ID = newID()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = s.now()
	}
	s.bookings = append(s.bookings, &b)
	return b.ID
}

func (s *Store) AddPayment(p models.Payment) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = newID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	s.payments = append(s.payments, &p)
	return p.ID
}

func (s *Store) AddNotification(n models.Notification) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID == "" {
		n.ID = newID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	s.notifications = append(s.notifications, &n)
	return n.ID
}

func (s *Store) AddPromo(p models.Promo) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = newID()
	}
	s.promos = append(s.promos, &p)
	return p.ID
}

func (s *Store) AddSetting(st models.SystemSetting) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = append(s.settings, &st)
}

func (s *Store) AddTicket(t models.SupportTicket) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = newID()
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = s.now()
	}
	if t.Responses == nil {
		t.Responses = []models.TicketResponse{}
	}
	s.tickets = append(s.tickets, &t)
	return t.ID
}

// Users returns a snapshot of every account's user record.
func (s *Store) Users() []models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.User, len(s.accounts))
	for i, a := range s.accounts {
		out[i] = a.user
	}
	return out
}

func (s *Store) Booking(id string) (models.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b := find(s.bookings, func(b *models.Booking) bool { return b.ID == id }); b != nil {
		return *b, true
	}
	return models.Booking{}, false
}

func (s *Store) Payment(id string) (models.Payment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := find(s.payments, func(p *models.Payment) bool { return p.ID == id }); p != nil {
		return *p, true
	}
	return models.Payment{}, false
}

// AuditLog returns entries newest first.
func (s *Store) AuditLog() []models.AuditLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.auditLocked()
}

func (s *Store) auditLocked() []models.AuditLogEntry {
	out := make([]models.AuditLogEntry, len(s.audit))
	for i, e := range s.audit {
		out[len(s.audit)-1-i] = *e
	}
	return out
}

func (s *Store) recordLocked(admin *models.UserRef, action models.AuditAction, resource, id, details string) {
	s.audit = append(s.audit, &models.AuditLogEntry{
		ID:         newID(),
		Admin:      admin,
		Action:     action,
		Resource:   resource,
		ResourceID: id,
		Details:    details,
		CreatedAt:  s.now(),
	})
}

func (s *Store) accountByEmailLocked(email string) *account {
	return find(s.accounts, func(a *account) bool { return strings.EqualFold(a.user.Email, email) })
}

func (s *Store) accountByIDLocked(id string) *account {
	return find(s.accounts, func(a *account) bool { return a.user.ID == id })
}

func find[T any](items []*T, match func(*T) bool) *T {
	for _, it := range items {
		if match(it) {
			return it
		}
	}
	return nil
}

func remove[T any](items []*T, match func(*T) bool) ([]*T, bool) {
	for i, it := range items {
		if match(it) {
			return append(items[:i], items[i+1:]...), true
		}
	}
	return items, false
}

func values[T any](items []*T) []T {
	out := make([]T, len(items))
	for i, it := range items {
		out[i] = *it
	}
	return out
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// Seed fills the store with a small, consistent data set for local use.
// It returns the admin credentials.
func Seed(s *Store) (email, password string) {
	now := time.Now().UTC().Truncate(time.Minute)
	email, password = "admin@skyrace.test", "admin123"

	adminID := s.AddAccount(models.User{Name: "Ada Admin", Email: email, Role: models.RoleAdmin, Status: "ACTIVE", LoyaltyTier: models.TierPlatinum}, password)
	johnID := s.AddAccount(models.User{Name: "John Traveller", Email: "john@skyrace.test", Role: models.RoleUser, Status: "ACTIVE", LoyaltyTier: models.TierSilver, LoyaltyPoints: 1200}, "password")
	maryID := s.AddAccount(models.User{Name: "Mary Flyer", Email: "mary@skyrace.test", Role: models.RoleUser, Status: "ACTIVE", LoyaltyTier: models.TierBronze, LoyaltyPoints: 150}, "password")

	s.AddAirline(models.Airline{Name: "SkyRace Airways", IATACode: "SR", ICAOCode: "SKR", Country: "United Kingdom", Status: models.StatusActive})
	s.AddAirline(models.Airline{Name: "Blue Horizon", IATACode: "BH", ICAOCode: "BHZ", Country: "France", Status: models.StatusActive})
	s.AddAirport(models.Airport{Name: "Heathrow", City: "London", Country: "United Kingdom", IATACode: "LHR", ICAOCode: "EGLL", Status: models.StatusActive})
	s.AddAirport(models.Airport{Name: "Charles de Gaulle", City: "Paris", Country: "France", IATACode: "CDG", ICAOCode: "LFPG", Status: models.StatusActive})
	s.AddAirport(models.Airport{Name: "John F. Kennedy", City: "New York", Country: "United States", IATACode: "JFK", ICAOCode: "KJFK", Status: models.StatusActive})

	dep := now.Add(72 * time.Hour)
	lhrJFK := s.AddFlight(models.Flight{
		Airline: "SkyRace Airways", FlightNumber: "SR100",
		Origin: models.Location{City: "London", Code: "LHR"}, Destination: models.Location{City: "New York", Code: "JFK"},
		DepartureTime: dep, ArrivalTime: dep.Add(8 * time.Hour), Price: 549, Duration: 480, AvailableSeats: 120, Gate: "B12", Terminal: "5",
	})
	s.AddFlight(models.Flight{
		Airline: "Blue Horizon", FlightNumber: "BH220",
		Origin: models.Location{City: "Paris", Code: "CDG"}, Destination: models.Location{City: "London", Code: "LHR"},
		DepartureTime: dep.Add(24 * time.Hour), ArrivalTime: dep.Add(25*time.Hour + 15*time.Minute), Price: 129, Duration: 75, AvailableSeats: 60,
	})

	flight := &models.FlightRef{ID: lhrJFK, Airline: "SkyRace Airways", FlightNumber: "SR100", Origin: models.Location{City: "London", Code: "LHR"}, Destination: models.Location{City: "New York", Code: "JFK"}}
	john := &models.UserRef{ID: johnID, Name: "John Traveller", Email: "john@skyrace.test"}
	mary := &models.UserRef{ID: maryID, Name: "Mary Flyer", Email: "mary@skyrace.test"}
	s.AddBooking(models.Booking{User: john, Flight: flight, TotalPrice: 549, PaymentStatus: "PAID", Status: models.BookingConfirmed, CreatedAt: now.Add(-48 * time.Hour)})
	s.AddBooking(models.Booking{User: mary, Flight: flight, TotalPrice: 549, PaymentStatus: "PENDING", Status: models.BookingPending, CreatedAt: now.Add(-24 * time.Hour)})

	s.AddPayment(models.Payment{TransactionID: "TXN-1001", User: john, Amount: 549, PaymentMethod: "card", Status: models.PaymentCompleted, CreatedAt: now.Add(-48 * time.Hour)})
	s.AddPayment(models.Payment{TransactionID: "TXN-1002", User: mary, Amount: 549, PaymentMethod: "paypal", Status: models.PaymentPending, CreatedAt: now.Add(-24 * time.Hour)})

	s.AddNotification(models.Notification{Title: "Welcome", Message: "Summer schedule is live", Type: models.NotificationInfo, Target: models.TargetAll, SentBy: &models.UserRef{ID: adminID, Name: "Ada Admin"}})
	s.AddPromo(models.Promo{Code: "SUMMER25", DiscountType: models.DiscountPercentage, Value: 25, UsageLimit: 100, UsedCount: 4, ExpiryDate: now.AddDate(0, 3, 0), IsActive: true})

	s.AddSetting(models.SystemSetting{Key: "maintenanceMode", Value: "false", Description: "Reject new bookings while enabled"})
	s.AddSetting(models.SystemSetting{Key: "supportEmail", Value: "support@skyrace.test", Description: "Reply-to address for support mail"})

	s.AddTicket(models.SupportTicket{Subject: "Lost baggage", Message: "My bag did not arrive at JFK", Status: models.TicketOpen, Priority: models.PriorityHigh, User: john})
	return email, password
}

func sortByTimeDesc[T any](items []T, at func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool { return at(items[i]).After(at(items[j])) })
}
