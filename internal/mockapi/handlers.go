package mockapi

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"skyrace/console/internal/models"
)

func (s *Server) adminRefLocked(r *http.Request) *models.UserRef {
	claims := claimsFrom(r.Context())
	if claims == nil {
		return nil
	}
	if a := s.store.accountByIDLocked(claims.UserID); a != nil {
		return &models.UserRef{ID: a.user.ID, Name: a.user.Name, Email: a.user.Email}
	}
	return &models.UserRef{ID: claims.UserID}
}

func adminUser(u models.User) models.AdminUser {
	return models.AdminUser{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// ---------------------------------------------------------------------------
// Auth & profile
// ---------------------------------------------------------------------------

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	s.store.mu.Lock()
	acct := s.store.accountByEmailLocked(body.Email)
	if acct == nil || acct.password != body.Password {
		s.store.mu.Unlock()
		respondWithError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	user := acct.user
	s.store.recordLocked(&models.UserRef{ID: user.ID, Name: user.Name, Email: user.Email}, models.AuditLogin, "auth", user.ID, "Admin login")
	s.store.mu.Unlock()

	if user.Role != models.RoleAdmin {
		respondWithError(w, http.StatusForbidden, "Admin access required")
		return
	}
	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		s.logger.Errorw("Failed to issue token", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to sign in")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"token": token, "user": adminUser(user)})
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	acct := s.store.accountByIDLocked(claimsFrom(r.Context()).UserID)
	if acct == nil {
		respondWithError(w, http.StatusNotFound, "User not found")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"user": adminUser(acct.user)})
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var in models.ProfileInput
	if !decodeBody(w, r, &in) {
		return
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	acct := s.store.accountByIDLocked(claimsFrom(r.Context()).UserID)
	if acct == nil {
		respondWithError(w, http.StatusNotFound, "User not found")
		return
	}
	if in.Email != "" && !strings.EqualFold(in.Email, acct.user.Email) && s.store.accountByEmailLocked(in.Email) != nil {
		respondWithError(w, http.StatusConflict, "Email already in use")
		return
	}
	if in.NewPassword != "" {
		switch {
		case in.CurrentPassword == "":
			respondWithError(w, http.StatusBadRequest, "Current password is required")
			return
		case in.CurrentPassword != acct.password:
			respondWithError(w, http.StatusBadRequest, "Current password is incorrect")
			return
		case len(in.NewPassword) < 6:
			respondWithError(w, http.StatusBadRequest, "New password must be at least 6 characters")
			return
		}
		acct.password = in.NewPassword
	}
	if in.Name != "" {
		acct.user.Name = in.Name
	}
	if in.Email != "" {
		acct.user.Email = in.Email
	}
	s.store.recordLocked(s.adminRefLocked(r), models.AuditUpdate, "profile", acct.user.ID, "Profile updated")
	respondWithJSON(w, http.StatusOK, map[string]any{"user": adminUser(acct.user)})
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	s.store.mu.Lock()
	users := make([]models.User, 0, len(s.store.accounts))
	for _, a := range s.store.accounts {
		if search == "" || containsFold(a.user.Name, search) || containsFold(a.user.Email, search) {
			users = append(users, a.user)
		}
	}
	s.store.mu.Unlock()
	respondWithJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (s *Server) updateUserStatus(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Role        string `json:"role"`
		LoyaltyTier string `json:"loyaltyTier"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	var (
		role models.Role
		tier models.LoyaltyTier
		err  error
	)
	if in.Role != "" {
		if role, err = models.ParseRole(in.Role); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if in.LoyaltyTier != "" {
		if tier, err = models.ParseLoyaltyTier(in.LoyaltyTier); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	id := chi.URLParam(r, "id")
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	acct := s.store.accountByIDLocked(id)
	if acct == nil {
		respondWithError(w, http.StatusNotFound, "User not found")
		return
	}
	if role != "" {
		acct.user.Role = role
	}
	if tier != "" {
		acct.user.LoyaltyTier = tier
	}
	s.store.recordLocked(s.adminRefLocked(r), models.AuditUpdate, "user", id, fmt.Sprintf("role=%s tier=%s", acct.user.Role, acct.user.LoyaltyTier))
	respondWithJSON(w, http.StatusOK, map[string]any{"user": acct.user})
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	var ok bool
	s.store.accounts, ok = remove(s.store.accounts, func(a *account) bool { return a.user.ID == id })
	if !ok {
		respondWithError(w, http.StatusNotFound, "User not found")
		return
	}
	s.store.recordLocked(s.adminRefLocked(r), models.AuditDelete, "user", id, "")
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "User removed"})
}

// ---------------------------------------------------------------------------
// Flights
// ---------------------------------------------------------------------------

func (s *Server) listFlights(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	s.store.mu.Lock()
	flights := make([]models.Flight, 0, len(s.store.flights))
	for _, f := range s.store.flights {
		if search == "" || containsFold(f.FlightNumber, search) || containsFold(f.Airline, search) ||
			containsFold(f.Origin.String(), search) || containsFold(f.Destination.String(), search) {
			flights = append(flights, *f)
		}
	}
	s.store.mu.Unlock()
	respondWithJSON(w, http.StatusOK, map[string]any{"flights": flights})
}

func validateFlight(in models.FlightInput) string {
	switch {
	case in.FlightNumber == "" || in.Airline == "":
		return "Airline and flight number are required"
	case !in.Origin.Known() || !in.Destination.Known():
		return "Origin and destination must be in the form City (CODE)"
	case !in.ArrivalTime.After(in.DepartureTime):
		return "Arrival time must be after departure time"
	}
	return ""
}

func applyFlight(f *models.Flight, in models.FlightInput) {
	f.Airline = in.Airline
	f.FlightNumber = in.FlightNumber
	f.Origin = in.Origin
	f.Destination = in.Destination
	f.DepartureTime = in.DepartureTime.UTC()
	f.ArrivalTime = in.ArrivalTime.UTC()
	f.Price = in.Price
	f.Duration = in.Duration
	f.AvailableSeats = in.AvailableSeats
	f.Gate = in.Gate
	f.Terminal = in.Terminal
}

func (s *Server) createFlight(w http.ResponseWriter, r *http.Request) {
	var in models.FlightInput
	if !decodeBody(w, r, &in) {
		return
	}
	if msg := validateFlight(in); msg != "" {
		respondWithError(w, http.StatusBadRequest, msg)
		return
	}
	f := &models.Flight{ID: newID()}
	applyFlight(f, in)

	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.store.flights = append(s.store.flights, f)
	s.store.recordLocked(s.adminRefLocked(r), models.AuditCreate, "flight", f.ID, f.FlightNumber)
	respondWithJSON(w, http.StatusCreated, map[string]any{"flight": f})
}

func (s *Server) updateFlight(w http.ResponseWriter, r *http.Request) {
	var in models.FlightInput
	if !decodeBody(w, r, &in) {
		return
	}
	if msg := validateFlight(in); msg != "" {
		respondWithError(w, http.StatusBadRequest, msg)
		return
	}
	id := chi.URLParam(r, "id")
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	f := find(s.store.flights, func(f *models.Flight) bool { return f.ID == id })
	if f == nil {
		respondWithError(w, http.StatusNotFound, "Flight not found")
		return
	}
	applyFlight(f, in)
	s.store.recordLocked(s.adminRefLocked(r), models.AuditUpdate, "flight", id, f.FlightNumber)
	respondWithJSON(w, http.StatusOK, map[string]any{"flight": f})
}

func (s *Server) deleteFlight(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	var ok bool
	s.store.flights, ok = remove(s.store.flights, func(f *models.Flight) bool { return f.ID == id })
	if !ok {
		respondWithError(w, http.StatusNotFound, "Flight not found")
		return
	}
	s.store.recordLocked(s.adminRefLocked(r), models.AuditDelete, "flight", id, "")
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Flight deleted"})
}

// ---------------------------------------------------------------------------
// Airlines & airports
// ---------------------------------------------------------------------------

func (s *Server) listAirlines(w http.ResponseWriter, r *http.Request) {
	s.store.mu.Lock()
	airlines := values(s.store.airlines)
	s.store.mu.Unlock()
	respondWithJSON(w, http.StatusOK, map[string]any{"airlines": airlines})
}

func (s *Server) saveAirline(w http.ResponseWriter, r *http.Request, id string) {
	var in models.AirlineInput
	if !decodeBody(w, r, &in) {
		return
	}
	in.IATACode = strings.ToUpper(in.IATACode)
	in.ICAOCode = strings.ToUpper(in.ICAOCode)
	if in.Name == "" || len(in.IATACode) != 2 {
		respondWithError(w, http.StatusBadRequest, "Name and a 2-letter IATA code are required")
		return
	}
	if in.Status == "" {
		in.Status = models.StatusActive
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	if dup := find(s.store.airlines, func(a *models.Airline) bool { return a.IATACode == in.IATACode && a.ID != id }); dup != nil {
		respondWithError(w, http.StatusConflict, "Airline with this IATA code already exists")
		return
	}

	action := models.AuditUpdate
	status := http.StatusOK
	a := find(s.store.airlines, func(a *models.Airline) bool { return a.ID == id })
	if id == "" {
		a = &models.Airline{ID: newID()}
		s.store.airlines = append(s.store.airlines, a)
		action, status = models.AuditCreate, http.StatusCreated
	} else if a == nil {
		respondWithError(w, http.StatusNotFound, "Airline not found")
		return
	}
	a.Name, a.IATACode, a.ICAOCode, a.Country, a.Logo, a.Status = in.Name, in.IATACode, in.ICAOCode, in.Country, in.Logo, in.Status
	s.store.recordLocked(s.adminRefLocked(r), action, "airline", a.ID, a.Name)
	respondWithJSON(w, status, map[string]any{"airline": a})
}

func (s *Server) createAirline(w http.ResponseWriter, r *http.Request) { s.saveAirline(w, r, "") }

func (s *Server) updateAirline(w http.ResponseWriter, r *http.Request) {
	s.saveAirline(w, r, chi.URLParam(r, "id"))
}

func (s *Server) deleteAirline(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	var ok bool
	s.store.airlines, ok = remove(s.store.airlines, func(a *models.Airline) bool { return a.ID == id })
	if !ok {
		respondWithError(w, http.StatusNotFound, "Airline not found")
		return
	}
	s.store.recordLocked(s.adminRefLocked(r), models.AuditDelete, "airline", id, "")
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Airline deleted"})
}

func (s *Server) listAirports(w http.ResponseWriter, r *http.Request) {
	s.store.mu.Lock()
	airports := values(s.store.airports)
	s.store.mu.Unlock()
	respondWithJSON(w, http.StatusOK, map[string]any{"airports": airports})
}

func (s *Server) saveAirport(w http.ResponseWriter, r *http.Request, id string) {
	var in models.AirportInput
	if !decodeBody(w, r, &in) {
		return
	}
	in.IATACode = strings.ToUpper(in.IATACode)
	in.ICAOCode = strings.ToUpper(in.ICAOCode)
	if in.Name == "" || in.City == "" || len(in.IATACode) != 3 {
		respondWithError(w, http.StatusBadRequest, "Name, city and a 3-letter IATA code are required")
		return
	}
	if in.Status == "" {
		in.Status = models.StatusActive
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	if dup := find(s.store.airports, func(a *models.Airport) bool { return a.IATACode == in.IATACode && a.ID != id }); dup != nil {
		respondWithError(w, http.StatusConflict, "Airport with this IATA code already exists")
		return
	}

	action := models.AuditUpdate
	status := http.StatusOK
	a := find(s.store.airports, func(a *models.Airport) bool { return a.ID == id })
	if id == "" {
		a = &models.Airport{ID: newID()}
		s.store.airports = append(s.store.airports, a)
		action, status = models.AuditCreate, http.StatusCreated
	} else if a == nil {
		respondWithError(w, http.StatusNotFound, "Airport not found")
		return
	}
	a.Name, a.City, a.Country, a.IATACode, a.ICAOCode, a.Status = in.Name, in.City, in.Country, in.IATACode, in.ICAOCode, in.Status
	s.store.recordLocked(s.adminRefLocked(r), action, "airport", a.ID, a.Name)
	respondWithJSON(w, status, map[string]any{"airport": a})
}

func (s *Server) createAirport(w http.ResponseWriter, r *http.Request) { s.saveAirport(w, r, "") }

func (s *Server) updateAirport(w http.ResponseWriter, r *http.Request) {
	s.saveAirport(w, r, chi.URLParam(r, "id"))
}

func (s *Server) deleteAirport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	var ok bool
	s.store.airports, ok = remove(s.store.airports, func(a *models.Airport) bool { return a.ID == id })
	if !ok {
		respondWithError(w, http.StatusNotFound, "Airport not found")
		return
	}
	s.store.recordLocked(s.adminRefLocked(r), models.AuditDelete, "airport", id, "")
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Airport deleted"})
}

// ---------------------------------------------------------------------------
// Bookings & payments
// ---------------------------------------------------------------------------

func (s *Server) listBookings(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	s.store.mu.Lock()
	bookings := make([]models.Booking, 0, len(s.store.bookings))
	for _, b := range s.store.bookings {
		if status == "" || strings.EqualFold(string(b.Status), status) {
			bookings = append(bookings, *b)
		}
	}
	s.store.mu.Unlock()
	sortByTimeDesc(bookings, func(b models.Booking) time.Time { return b.CreatedAt })
	respondWithJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *Server) cancelBooking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	b := find(s.store.bookings, func(b *models.Booking) bool { return b.ID == id })
	if b == nil {
		respondWithError(w, http.StatusNotFound, "Booking not found")
		return
	}
	if b.Status == models.BookingCancelled {
		respondWithError(w, http.StatusBadRequest, "Booking is already cancelled")
		return
	}
	b.Status = models.BookingCancelled
	s.store.recordLocked(s.adminRefLocked(r), models.AuditUpdate, "booking", id, "Booking cancelled")
	respondWithJSON(w, http.StatusOK, map[string]any{"booking": b})
}

func (s *Server) listPayments(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	search := r.URL.Query().Get("search")
	s.store.mu.Lock()
	payments := make([]models.Payment, 0, len(s.store.payments))
	for _, p := range s.store.payments {
		if status != "" && !strings.EqualFold(string(p.Status), status) {
			continue
		}
		if search != "" && !containsFold(p.TransactionID, search) && !containsFold(p.User.Label(), search) {
			continue
		}
		payments = append(payments, *p)
	}
	s.store.mu.Unlock()
	sortByTimeDesc(payments, func(p models.Payment) time.Time { return p.CreatedAt })
	respondWithJSON(w, http.StatusOK, map[string]any{"payments": payments})
}

func (s *Server) refundPayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	p := find(s.store.payments, func(p *models.Payment) bool { return p.ID == id })
	if p == nil {
		respondWithError(w, http.StatusNotFound, "Payment not found")
		return
	}
	if p.Status != models.PaymentCompleted {
		respondWithError(w, http.StatusBadRequest, "Only completed payments can be refunded")
		return
	}
	p.Status = models.PaymentRefunded
	s.store.recordLocked(s.adminRefLocked(r), models.AuditUpdate, "payment", id, "Payment refunded")
	respondWithJSON(w, http.StatusOK, map[string]any{"payment": p})
}

// ---------------------------------------------------------------------------
// Notifications & promos
// ---------------------------------------------------------------------------

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	s.store.mu.Lock()
	notifications := values(s.store.notifications)
	s.store.mu.Unlock()
	sortByTimeDesc(notifications, func(n models.Notification) time.Time { return n.CreatedAt })
	respondWithJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}

func (s *Server) broadcast(w http.ResponseWriter, r *http.Request) {
	var in models.BroadcastInput
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Title == "" || in.Message == "" {
		respondWithError(w, http.StatusBadRequest, "Title and message are required")
		return
	}
	if _, err := models.ParseNotificationType(string(in.Type)); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := models.ParseNotificationTarget(string(in.Target)); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	n := &models.Notification{
		ID: newID(), Title: in.Title, Message: in.Message, Type: in.Type, Target: in.Target,
		SentBy: s.adminRefLocked(r), CreatedAt: s.store.now(),
	}
	s.store.notifications = append(s.store.notifications, n)
	s.store.recordLocked(n.SentBy, models.AuditCreate, "notification", n.ID, n.Title)
	respondWithJSON(w, http.StatusCreated, map[string]any{"notification": n})
}

func (s *Server) deleteNotification(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	var ok bool
	s.store.notifications, ok = remove(s.store.notifications, func(n *models.Notification) bool { return n.ID == id })
	if !ok {
		respondWithError(w, http.StatusNotFound, "Notification not found")
		return
	}
	s.store.recordLocked(s.adminRefLocked(r), models.AuditDelete, "notification", id, "")
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Notification deleted"})
}

func (s *Server) listPromos(w http.ResponseWriter, r *http.Request) {
	s.store.mu.Lock()
	promos := values(s.store.promos)
	s.store.mu.Unlock()
	respondWithJSON(w, http.StatusOK, map[string]any{"success": true, "data": promos})
}

func (s *Server) createPromo(w http.ResponseWriter, r *http.Request) {
	var in models.PromoInput
	if !decodeBody(w, r, &in) {
		return
	}
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	if in.Code == "" || in.Value <= 0 {
		respondWithError(w, http.StatusBadRequest, "Code and a positive value are required")
		return
	}
	if _, err := models.ParseDiscountType(string(in.DiscountType)); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.DiscountType == models.DiscountPercentage && in.Value > 100 {
		respondWithError(w, http.StatusBadRequest, "Percentage discounts cannot exceed 100")
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	if find(s.store.promos, func(p *models.Promo) bool { return p.Code == in.Code }) != nil {
		respondWithError(w, http.StatusConflict, "Promo code already exists")
		return
	}
	p := &models.Promo{
		ID: newID(), Code: in.Code, DiscountType: in.DiscountType, Value: in.Value,
		UsageLimit: in.UsageLimit, ExpiryDate: in.ExpiryDate.UTC(), IsActive: true,
	}
	s.store.promos = append(s.store.promos, p)
	s.store.recordLocked(s.adminRefLocked(r), models.AuditCreate, "promo", p.ID, p.Code)
	respondWithJSON(w, http.StatusCreated, map[string]any{"success": true, "data": p})
}

// ---------------------------------------------------------------------------
// Settings & support
// ---------------------------------------------------------------------------

func (s *Server) listSettings(w http.ResponseWriter, r *http.Request) {
	s.store.mu.Lock()
	settings := values(s.store.settings)
	s.store.mu.Unlock()
	respondWithJSON(w, http.StatusOK, map[string]any{"settings": settings})
}

func (s *Server) updateSetting(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	st := find(s.store.settings, func(st *models.SystemSetting) bool { return st.Key == in.Key })
	if st == nil {
		respondWithError(w, http.StatusNotFound, "Setting not found")
		return
	}
	st.Value = in.Value
	s.store.recordLocked(s.adminRefLocked(r), models.AuditUpdate, "setting", st.Key, st.Value)
	respondWithJSON(w, http.StatusOK, map[string]any{"setting": st})
}

func (s *Server) listTickets(w http.ResponseWriter, r *http.Request) {
	s.store.mu.Lock()
	tickets := make([]models.SupportTicket, len(s.store.tickets))
	for i, t := range s.store.tickets {
		tickets[i] = *t
		tickets[i].Responses = append([]models.TicketResponse(nil), t.Responses...)
	}
	s.store.mu.Unlock()
	sortByTimeDesc(tickets, func(t models.SupportTicket) time.Time { return t.UpdatedAt })
	respondWithJSON(w, http.StatusOK, map[string]any{"success": true, "data": tickets})
}

func (s *Server) setTicketStatus(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Status string `json:"status"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	status, err := models.ParseTicketStatus(in.Status)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := chi.URLParam(r, "id")
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	t := find(s.store.tickets, func(t *models.SupportTicket) bool { return t.ID == id })
	if t == nil {
		respondWithError(w, http.StatusNotFound, "Ticket not found")
		return
	}
	t.Status = status
	t.UpdatedAt = s.store.now()
	s.store.recordLocked(s.adminRefLocked(r), models.AuditUpdate, "support", id, string(status))
	respondWithJSON(w, http.StatusOK, map[string]any{"success": true, "data": t})
}

func (s *Server) replyToTicket(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Message string `json:"message"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Message) == "" {
		respondWithError(w, http.StatusBadRequest, "Message is required")
		return
	}
	id := chi.URLParam(r, "id")
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	t := find(s.store.tickets, func(t *models.SupportTicket) bool { return t.ID == id })
	if t == nil {
		respondWithError(w, http.StatusNotFound, "Ticket not found")
		return
	}
	now := s.store.now()
	t.Responses = append(t.Responses, models.TicketResponse{SenderRole: models.RoleAdmin, Message: in.Message, CreatedAt: now})
	if t.Status == models.TicketOpen {
		t.Status = models.TicketInProgress
	}
	t.UpdatedAt = now
	s.store.recordLocked(s.adminRefLocked(r), models.AuditUpdate, "support", id, "Reply added")
	respondWithJSON(w, http.StatusOK, map[string]any{"success": true, "data": t})
}

// ---------------------------------------------------------------------------
// Audit
// ---------------------------------------------------------------------------

func (s *Server) listAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	page = max(page, 1)
	if limit <= 0 {
		limit = 20
	}
	action, resource := q.Get("action"), q.Get("resource")

	s.store.mu.Lock()
	all := s.store.auditLocked()
	s.store.mu.Unlock()

	filtered := make([]models.AuditLogEntry, 0, len(all))
	for _, e := range all {
		if action != "" && !strings.EqualFold(string(e.Action), action) {
			continue
		}
		if resource != "" && !strings.EqualFold(e.Resource, resource) {
			continue
		}
		filtered = append(filtered, e)
	}

	pages := max(int(math.Ceil(float64(len(filtered))/float64(limit))), 1)
	start := min((page-1)*limit, len(filtered))
	end := min(start+limit, len(filtered))
	respondWithJSON(w, http.StatusOK, map[string]any{
		"logs":       filtered[start:end],
		"pagination": models.Pagination{Page: page, Pages: pages},
	})
}

// ---------------------------------------------------------------------------
// Dashboard & analytics
// ---------------------------------------------------------------------------

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	s.store.mu.Lock()
	bookings := values(s.store.bookings)
	payments := values(s.store.payments)
	d := models.Dashboard{
		Metrics: models.DashboardMetrics{
			TotalUsers:    len(s.store.accounts),
			TotalBookings: len(s.store.bookings),
			TotalFlights:  len(s.store.flights),
		},
	}
	s.store.mu.Unlock()

	for _, p := range payments {
		if p.Status == models.PaymentCompleted {
			d.Metrics.TotalRevenue += p.Amount
		}
	}
	sortByTimeDesc(bookings, func(b models.Booking) time.Time { return b.CreatedAt })
	d.RecentBookings = bookings[:min(5, len(bookings))]
	for _, m := range monthly(payments) {
		d.ChartData = append(d.ChartData, models.ChartPoint(m))
	}
	respondWithJSON(w, http.StatusOK, d)
}

// monthly sums completed payments per calendar month, oldest first.
func monthly(payments []models.Payment) []models.RevenuePoint {
	index := map[string]int{}
	var points []models.RevenuePoint
	sortByTimeDesc(payments, func(p models.Payment) time.Time { return p.CreatedAt })
	for i := len(payments) - 1; i >= 0; i-- {
		p := payments[i]
		if p.Status != models.PaymentCompleted {
			continue
		}
		name := p.CreatedAt.Format("Jan 2006")
		at, ok := index[name]
		if !ok {
			at = len(points)
			index[name] = at
			points = append(points, models.RevenuePoint{Name: name})
		}
		points[at].Revenue += p.Amount
		points[at].Bookings++
	}
	return points
}

func (s *Server) revenueSummary(w http.ResponseWriter, r *http.Request) {
	s.store.mu.Lock()
	payments := values(s.store.payments)
	s.store.mu.Unlock()
	points := monthly(payments)
	if points == nil {
		points = []models.RevenuePoint{}
	}
	respondWithJSON(w, http.StatusOK, points)
}

func (s *Server) revenueByRoute(w http.ResponseWriter, r *http.Request) {
	stats := []models.RouteStat{}
	index := map[string]int{}
	s.store.mu.Lock()
	for _, b := range s.store.bookings {
		if b.Status == models.BookingCancelled || b.Flight == nil {
			continue
		}
		route := b.Flight.Origin.Code + "-" + b.Flight.Destination.Code
		at, ok := index[route]
		if !ok {
			at = len(stats)
			index[route] = at
			stats = append(stats, models.RouteStat{Route: route})
		}
		stats[at].Revenue += b.TotalPrice
		stats[at].Bookings++
	}
	s.store.mu.Unlock()
	respondWithJSON(w, http.StatusOK, stats)
}

func (s *Server) revenueByAirline(w http.ResponseWriter, r *http.Request) {
	stats := []models.AirlineStat{}
	index := map[string]int{}
	s.store.mu.Lock()
	for _, b := range s.store.bookings {
		if b.Status == models.BookingCancelled || b.Flight == nil {
			continue
		}
		airline := b.Flight.Airline
		at, ok := index[airline]
		if !ok {
			at = len(stats)
			index[airline] = at
			stats = append(stats, models.AirlineStat{Airline: airline})
		}
		stats[at].Revenue += b.TotalPrice
		stats[at].Bookings++
	}
	s.store.mu.Unlock()
	respondWithJSON(w, http.StatusOK, stats)
}
