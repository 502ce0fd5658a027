package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/spf13/pflag"

	"skyrace/console/internal/config"
	"skyrace/console/internal/logging"
	"skyrace/console/internal/metrics"
	"skyrace/console/internal/mockapi"
)

// mockapi serves the admin REST contract from memory, seeded with demo
// data, so the console can run without the production backend.
func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	flags := pflag.NewFlagSet("mockapi", pflag.ExitOnError)
	port := flags.String("port", cfg.MockAPIPort, "port to listen on")
	latency := flags.Duration("latency", 0, "delay added to every request")
	rateLimit := flags.Float64("rate-limit", 0, "requests per second per remote client, 0 disables")
	if err := flags.Parse(os.Args[1:]); err != nil {
		log.Fatalf("❌ %v", err)
	}

	if err := logging.Init(cfg.AppEnv, ""); err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}
	defer logging.Close()

	store := mockapi.NewStore()
	email, password := mockapi.Seed(store)

	reg := metrics.NewMetricsRegistry()
	srv := mockapi.NewServer(mockapi.Options{
		Store:     store,
		Secret:    []byte(os.Getenv("MOCKAPI_SECRET")),
		Metrics:   reg,
		Latency:   *latency,
		RateLimit: *rateLimit,
		RateBurst: int(*rateLimit) * 2,
	})

	logging.Debug("Mock API options", "latency", *latency, "rate_limit", *rateLimit)

	mux := http.NewServeMux()
	mux.Handle("/metrics", reg.Handler())
	mux.Handle("/", srv)

	logging.Info("Mock API starting",
		"port", *port,
		"environment", cfg.AppEnv,
		"admin_email", email,
		"admin_password", password,
		"timestamp", time.Now().Format(time.RFC3339),
	)

	server := &http.Server{
		Addr:              ":" + *port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}
