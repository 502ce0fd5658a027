package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"skyrace/console/internal/apiclient"
	"skyrace/console/internal/config"
	"skyrace/console/internal/logging"
	"skyrace/console/internal/metrics"
	"skyrace/console/internal/models"
	"skyrace/console/internal/query"
	"skyrace/console/internal/screens"
	"skyrace/console/internal/session"
	"skyrace/console/internal/toast"
	"skyrace/console/internal/tui"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if err := run(); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := pflag.NewFlagSet("console", pflag.ExitOnError)
	apiURL := flags.String("api-url", cfg.APIBaseURL, "base URL of the SkyRace REST API")
	logFile := flags.String("log-file", cfg.LogFile, "file the console logs to; the terminal is owned by the UI")
	metricsAddr := flags.String("metrics-addr", cfg.MetricsAddr, "address to serve /metrics on, empty to disable")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	if err := logging.Init(cfg.AppEnv, *logFile); err != nil {
		return err
	}
	defer logging.Close()
	logger := logging.Named("console")

	logger.Infow("Console starting up",
		"environment", cfg.AppEnv,
		"api_url", *apiURL,
		"timestamp", time.Now().Format(time.RFC3339),
	)

	reg := metrics.NewMetricsRegistry()
	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr, reg)
	}

	ctx := context.Background()
	store, closeStore := openSessionStore(ctx, cfg)
	defer closeStore()
	sess := session.New(store)

	api := apiclient.New(*apiURL, cfg.RequestTimeout, sess,
		apiclient.WithMetrics(reg),
		apiclient.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
		apiclient.WithLogger(logging.Named("apiclient")),
		apiclient.OnUnauthorized(func() {
			logger.Warnw("Token rejected by the API, signing out")
			if err := sess.Logout(context.Background()); err != nil {
				logger.Errorw("Failed to clear session", "error", err)
			}
		}),
	)

	cache := query.NewClient(query.Options{
		StaleTime:    cfg.StaleTime,
		GCTime:       cfg.GCTime,
		FetchTimeout: cfg.FetchTimeout,
		Metrics:      reg,
	})
	// Cached reads belong to whoever was signed in when they ran.
	sess.OnChange(func(*models.AdminUser) { cache.Clear() })

	if err := sess.Load(ctx); err != nil {
		logging.Warn("Could not restore session", "error", err)
	}

	toasts := toast.NewNotifier(toast.DefaultTTL)
	debounce := cfg.SearchDebounce
	if debounce <= 0 {
		// The UI forwards keystrokes inline and relies on the debounce.
		debounce = 300 * time.Millisecond
	}
	deps := screens.Deps{
		API:            api,
		Cache:          cache,
		Toasts:         toasts,
		Session:        sess,
		Metrics:        reg,
		Location:       cfg.TimeZone,
		SearchDebounce: debounce,
		Logger:         logging.Named("screens"),
	}

	model := tui.New(tui.Options{
		Screens: screens.All(deps),
		Login:   screens.NewLogin(deps),
		Session: sess,
		Toasts:  toasts,
		Logger:  logging.Named("tui"),
	})

	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("console exited: %w", err)
	}
	logger.Infow("Console stopped")
	return nil
}

// openSessionStore prefers Redis when configured and falls back to the
// session file when Redis is unreachable.
func openSessionStore(ctx context.Context, cfg config.Config) (session.Store, func()) {
	logger := logging.Named("session")
	if cfg.SessionBackend == config.SessionBackendRedis {
		rs, err := session.NewRedisStore(ctx, session.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      24 * time.Hour,
		})
		if err == nil {
			logger.Infow("Session store: redis", "addr", cfg.RedisAddr)
			return rs, func() { rs.Close() }
		}
		logger.Warnw("Redis unavailable, using session file", "error", err, "path", cfg.SessionFile)
	}
	return session.NewFileStore(cfg.SessionFile), func() {}
}

func serveMetrics(addr string, reg *metrics.MetricsRegistry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", reg.Handler())
	logging.Info("Metrics endpoint listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Error("Metrics server stopped", "error", err)
	}
}
