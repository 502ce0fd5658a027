package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Session backends accepted by CONSOLE_SESSION_BACKEND.
const (
	SessionBackendFile  = "file"
	SessionBackendRedis = "redis"
)

// Config holds the console's runtime settings. Every field maps to an
// environment variable; see Load for names and defaults.
type Config struct {
	AppEnv string

	APIBaseURL     string
	RequestTimeout time.Duration
	RateLimit      float64 // requests per second towards the backend
	RateBurst      int

	StaleTime      time.Duration // cached reads younger than this are served without refresh
	GCTime         time.Duration // unobserved cache entries are evicted after this
	FetchTimeout   time.Duration
	SearchDebounce time.Duration

	TimeZone *time.Location

	SessionBackend string
	SessionFile    string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	LogFile     string
	MetricsAddr string
	MockAPIPort string
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	tz, err := time.LoadLocation(getenv("CONSOLE_TIMEZONE", "UTC"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid CONSOLE_TIMEZONE: %w", err)
	}

	cfg := Config{
		AppEnv:         getenv("APP_ENV", "development"),
		APIBaseURL:     getenv("CONSOLE_API_URL", "http://localhost:5000/api"),
		RequestTimeout: parseDur(getenv("CONSOLE_REQUEST_TIMEOUT", "10s"), 10*time.Second),
		RateLimit:      parseFloat(getenv("CONSOLE_RATE_LIMIT", "10"), 10),
		RateBurst:      atoi(getenv("CONSOLE_RATE_BURST", "20"), 20),
		StaleTime:      parseDur(getenv("CONSOLE_STALE_TIME", "30s"), 30*time.Second),
		GCTime:         parseDur(getenv("CONSOLE_GC_TIME", "5m"), 5*time.Minute),
		FetchTimeout:   parseDur(getenv("CONSOLE_FETCH_TIMEOUT", "15s"), 15*time.Second),
		SearchDebounce: parseDur(getenv("CONSOLE_SEARCH_DEBOUNCE", "300ms"), 300*time.Millisecond),
		TimeZone:       tz,
		SessionBackend: getenv("CONSOLE_SESSION_BACKEND", SessionBackendFile),
		SessionFile:    getenv("CONSOLE_SESSION_FILE", defaultSessionFile()),
		RedisAddr:      getenv("REDIS_HOST", "localhost") + ":" + getenv("REDIS_PORT", "6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        atoi(getenv("REDIS_DB", "0"), 0),
		LogFile:        getenv("CONSOLE_LOG_FILE", "console.log"),
		MetricsAddr:    os.Getenv("CONSOLE_METRICS_ADDR"),
		MockAPIPort:    getenv("MOCKAPI_PORT", "5000"),
	}

	switch cfg.SessionBackend {
	case SessionBackendFile, SessionBackendRedis:
	default:
		return Config{}, fmt.Errorf("invalid CONSOLE_SESSION_BACKEND %q", cfg.SessionBackend)
	}
	if cfg.RateLimit <= 0 {
		return Config{}, fmt.Errorf("CONSOLE_RATE_LIMIT must be positive, got %v", cfg.RateLimit)
	}

	return cfg, nil
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".skyrace-session.json"
	}
	return dir + "/skyrace-console/session.json"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoi(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseFloat(s string, def float64) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return f
}

func parseDur(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
