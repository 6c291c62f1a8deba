package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string

	// Source CSV/XLSX export URLs, keyed by source type name. A source
	// without a URL is skipped at load time.
	SourceURLs map[string]string

	// DayFirst settles ambiguous slash dates (03/04/2024). The exports
	// observed so far are day-first; the switch exists because the
	// provider never settled the convention.
	DayFirst bool

	// ConnectThresholdSeconds is the minimum talk duration for an
	// outbound call to count as connected. Business rule, strict
	// greater-than comparison.
	ConnectThresholdSeconds float64

	MaxFilterSpanDays int
	RefreshDebounce   time.Duration
	FetchTimeout      time.Duration

	// AutoRefresh is the interval between scheduled reloads of all
	// sources. Zero disables the schedule.
	AutoRefresh time.Duration

	WSReadTimeout  time.Duration
	WSWriteTimeout time.Duration
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64

	// MappingFile optionally overrides the embedded field-mapping and
	// KPI configuration document.
	MappingFile string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173"), ","),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		MappingFile:    getEnv("MAPPING_FILE", ""),
		SourceURLs: map[string]string{
			"inbound":              getEnv("SOURCE_INBOUND_URL", ""),
			"outbound":             getEnv("SOURCE_OUTBOUND_URL", ""),
			"outbound_connectrate": getEnv("SOURCE_CONNECTRATE_URL", ""),
			"fcr":                  getEnv("SOURCE_FCR_URL", ""),
		},
	}

	dayFirst, err := strconv.ParseBool(getEnv("DATE_DAY_FIRST", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid DATE_DAY_FIRST: %w", err)
	}
	cfg.DayFirst = dayFirst

	threshold, err := strconv.ParseFloat(getEnv("CONNECT_THRESHOLD_SECONDS", "150"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid CONNECT_THRESHOLD_SECONDS: %w", err)
	}
	cfg.ConnectThresholdSeconds = threshold

	maxSpan, err := strconv.Atoi(getEnv("MAX_FILTER_SPAN_DAYS", "366"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_FILTER_SPAN_DAYS: %w", err)
	}
	cfg.MaxFilterSpanDays = maxSpan

	debounceMs, err := strconv.Atoi(getEnv("REFRESH_DEBOUNCE_MS", "500"))
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_DEBOUNCE_MS: %w", err)
	}
	cfg.RefreshDebounce = time.Duration(debounceMs) * time.Millisecond

	fetchTimeout, err := strconv.Atoi(getEnv("FETCH_TIMEOUT_SECONDS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_TIMEOUT_SECONDS: %w", err)
	}
	cfg.FetchTimeout = time.Duration(fetchTimeout) * time.Second

	autoRefresh, err := strconv.Atoi(getEnv("AUTO_REFRESH_MINUTES", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTO_REFRESH_MINUTES: %w", err)
	}
	cfg.AutoRefresh = time.Duration(autoRefresh) * time.Minute

	wsReadTimeout, err := strconv.Atoi(getEnv("WS_READ_TIMEOUT", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_READ_TIMEOUT: %w", err)
	}
	cfg.WSReadTimeout = time.Duration(wsReadTimeout) * time.Second

	wsWriteTimeout, err := strconv.Atoi(getEnv("WS_WRITE_TIMEOUT", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_WRITE_TIMEOUT: %w", err)
	}
	cfg.WSWriteTimeout = time.Duration(wsWriteTimeout) * time.Second

	// Calculate WebSocket constants
	cfg.PongWait = cfg.WSReadTimeout
	cfg.PingPeriod = (cfg.PongWait * 9) / 10 // Must be less than pongWait
	cfg.WriteWait = cfg.WSWriteTimeout
	cfg.MaxMessageSize = 512

	// Trim spaces from allowed origins
	for i, origin := range cfg.AllowedOrigins {
		cfg.AllowedOrigins[i] = strings.TrimSpace(origin)
	}

	return cfg, nil
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
