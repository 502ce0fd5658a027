package mockapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"skyrace/console/internal/logging"
	"skyrace/console/internal/metrics"
)

type Options struct {
	Store   *Store
	Secret  []byte
	Metrics *metrics.MetricsRegistry
	Logger  *zap.SugaredLogger
	// Latency is added to every request, to make loading states visible.
	Latency time.Duration
	// RateLimit is requests per second per non-loopback client; zero
	// disables limiting.
	RateLimit float64
	RateBurst int
}

type failure struct {
	status  int
	message string
}

// Server is an in-memory implementation of the admin REST contract.
type Server struct {
	store   *Store
	tokens  *TokenIssuer
	metrics *metrics.MetricsRegistry
	logger  *zap.SugaredLogger
	latency time.Duration
	limiter *ipLimiter
	router  chi.Router

	hooksMu  sync.Mutex
	counts   map[string]int
	gates    map[string]chan struct{}
	failures map[string]failure
}

func NewServer(opts Options) *Server {
	if opts.Store == nil {
		opts.Store = NewStore()
	}
	if len(opts.Secret) == 0 {
		opts.Secret = []byte("mockapi-development-secret")
	}
	if opts.Logger == nil {
		opts.Logger = logging.Named("mockapi")
	}

	s := &Server{
		store:    opts.Store,
		tokens:   NewTokenIssuer(opts.Secret, 24*time.Hour),
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		latency:  opts.Latency,
		counts:   make(map[string]int),
		gates:    make(map[string]chan struct{}),
		failures: make(map[string]failure),
	}
	if opts.RateLimit > 0 {
		s.limiter = newIPLimiter(opts.RateLimit, max(opts.RateBurst, 1))
	}
	s.router = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) Store() *Store { return s.store }

func (s *Server) Tokens() *TokenIssuer { return s.tokens }

// Requests is how many requests matched "METHOD /route/{pattern}".
func (s *Server) Requests(method, pattern string) int {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	return s.counts[method+" "+pattern]
}

// Hold blocks requests for the route until the returned release is
// called. Requests already waiting are released together.
func (s *Server) Hold(method, pattern string) (release func()) {
	key := method + " " + pattern
	gate := make(chan struct{})
	s.hooksMu.Lock()
	s.gates[key] = gate
	s.hooksMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.hooksMu.Lock()
			if s.gates[key] == gate {
				delete(s.gates, key)
			}
			s.hooksMu.Unlock()
			close(gate)
		})
	}
}

// Fail makes the route answer status with message until Recover.
func (s *Server) Fail(method, pattern string, status int, message string) {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	s.failures[method+" "+pattern] = failure{status: status, message: message}
}

func (s *Server) Recover(method, pattern string) {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	delete(s.failures, method+" "+pattern)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(s.observe)
	if s.limiter != nil {
		r.Use(s.limiter.middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://localhost:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthCheck", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.intercept)
			r.Post("/admin/auth/login", s.login)
			r.Get("/promos", s.listPromos)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.Use(s.intercept)

			r.Get("/admin/profile", s.getProfile)
			r.Patch("/admin/profile", s.updateProfile)

			r.Get("/admin/users", s.listUsers)
			r.Patch("/admin/users/{id}/status", s.updateUserStatus)
			r.Delete("/admin/users/{id}", s.deleteUser)

			r.Get("/admin/flights", s.listFlights)
			r.Post("/admin/flights", s.createFlight)
			r.Patch("/admin/flights/{id}", s.updateFlight)
			r.Delete("/admin/flights/{id}", s.deleteFlight)

			r.Get("/admin/airlines", s.listAirlines)
			r.Post("/admin/airlines", s.createAirline)
			r.Put("/admin/airlines/{id}", s.updateAirline)
			r.Delete("/admin/airlines/{id}", s.deleteAirline)

			r.Get("/admin/airports", s.listAirports)
			r.Post("/admin/airports", s.createAirport)
			r.Put("/admin/airports/{id}", s.updateAirport)
			r.Delete("/admin/airports/{id}", s.deleteAirport)

			r.Get("/admin/bookings", s.listBookings)
			r.Patch("/admin/bookings/{id}/cancel", s.cancelBooking)

			r.Get("/admin/payments", s.listPayments)
			r.Post("/admin/payments/{id}/refund", s.refundPayment)

			r.Get("/admin/notifications", s.listNotifications)
			r.Post("/admin/notifications/broadcast", s.broadcast)
			r.Delete("/admin/notifications/{id}", s.deleteNotification)

			r.Post("/promos", s.createPromo)

			r.Get("/admin/system-settings", s.listSettings)
			r.Patch("/admin/system-settings", s.updateSetting)

			r.Get("/admin/support", s.listTickets)
			r.Put("/admin/support/{id}/status", s.setTicketStatus)
			r.Post("/admin/support/{id}/response", s.replyToTicket)

			r.Get("/admin/audit", s.listAudit)

			r.Get("/admin/dashboard/metrics", s.dashboard)
			r.Get("/admin/revenue/summary", s.revenueSummary)
			r.Get("/admin/revenue/routes", s.revenueByRoute)
			r.Get("/admin/revenue/airlines", s.revenueByAirline)
		})
	})

	return r
}
