package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Message sources.
const (
	SourceChatwork = "chatwork"
	SourceRedis    = "redis"
)

// Alert delivery modes.
const (
	DeliveryLog      = "log"
	DeliveryChatwork = "chatwork"
	DeliveryNATS     = "nats"
)

// Config holds all configuration for the application.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Message source
	ChatworkToken   string
	ChatworkBaseURL string
	MessageSource   string
	RedisURL        string
	MonitoredRooms  []string

	// Loop cadences
	MonitoringInterval time.Duration
	ErrorRetryInterval time.Duration
	AlertCheckInterval time.Duration
	CleanupInterval    time.Duration

	// Alert thresholds
	HighPriorityThreshold   time.Duration
	NormalPriorityThreshold time.Duration
	LowPriorityThreshold    time.Duration
	EscalationIntervals     []time.Duration
	MaxEscalationLevel      int
	AlertRetention          time.Duration
	ProcessedRetention      time.Duration

	// Delivery
	AlertDelivery string
	NATSURL       string
	NATSSubject   string

	intervalsErr error
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	intervals, intervalsErr := parseMinutesList(getEnv("ESCALATION_INTERVALS_MINUTES", "60,180,360"))

	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		ChatworkToken:   os.Getenv("CHATWORK_API_TOKEN"),
		ChatworkBaseURL: getEnv("CHATWORK_BASE_URL", "https://api.chatwork.com/v2"),
		MessageSource:   strings.ToLower(getEnv("MESSAGE_SOURCE", SourceChatwork)),
		RedisURL:        os.Getenv("REDIS_URL"),
		MonitoredRooms:  splitList(os.Getenv("MONITORED_ROOMS")),

		MonitoringInterval: getSeconds("MONITORING_INTERVAL_SECONDS", 30),
		ErrorRetryInterval: getSeconds("ERROR_RETRY_INTERVAL_SECONDS", 60),
		AlertCheckInterval: getSeconds("ALERT_CHECK_INTERVAL_SECONDS", 60),
		CleanupInterval:    getSeconds("CLEANUP_INTERVAL_SECONDS", 3600),

		HighPriorityThreshold:   time.Duration(getInt("HIGH_PRIORITY_THRESHOLD_MINUTES", 30)) * time.Minute,
		NormalPriorityThreshold: time.Duration(getInt("NORMAL_PRIORITY_THRESHOLD_HOURS", 2)) * time.Hour,
		LowPriorityThreshold:    time.Duration(getInt("LOW_PRIORITY_THRESHOLD_HOURS", 24)) * time.Hour,
		EscalationIntervals:     intervals,
		MaxEscalationLevel:      getInt("MAX_ESCALATION_LEVEL", 3),
		AlertRetention:          time.Duration(getInt("ALERT_RETENTION_HOURS", 48)) * time.Hour,
		ProcessedRetention:      time.Duration(getInt("PROCESSED_RETENTION_HOURS", 24)) * time.Hour,

		AlertDelivery: strings.ToLower(getEnv("ALERT_DELIVERY", DeliveryLog)),
		NATSURL:       getEnv("NATS_URL", "nats://127.0.0.1:4222"),
		NATSSubject:   getEnv("NATS_SUBJECT", "chatwork.alerts"),

		intervalsErr: intervalsErr,
	}
}

// Validate reports configuration the process cannot start with.
func (c *Config) Validate() error {
	var errs []error

	switch c.MessageSource {
	case SourceChatwork:
		if c.ChatworkToken == "" {
			errs = append(errs, errors.New("CHATWORK_API_TOKEN is required"))
		}
	case SourceRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when MESSAGE_SOURCE=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown MESSAGE_SOURCE %q", c.MessageSource))
	}

	if len(c.MonitoredRooms) == 0 {
		errs = append(errs, errors.New("MONITORED_ROOMS is required"))
	}

	switch c.AlertDelivery {
	case DeliveryLog, DeliveryNATS:
	case DeliveryChatwork:
		if c.ChatworkToken == "" {
			errs = append(errs, errors.New("CHATWORK_API_TOKEN is required when ALERT_DELIVERY=chatwork"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown ALERT_DELIVERY %q", c.AlertDelivery))
	}

	if c.MonitoringInterval <= 0 || c.ErrorRetryInterval <= 0 || c.AlertCheckInterval <= 0 || c.CleanupInterval <= 0 {
		errs = append(errs, errors.New("loop intervals must be positive"))
	}

	if c.intervalsErr != nil {
		errs = append(errs, fmt.Errorf("ESCALATION_INTERVALS_MINUTES: %w", c.intervalsErr))
	} else if err := checkAscending(c.EscalationIntervals); err != nil {
		errs = append(errs, fmt.Errorf("ESCALATION_INTERVALS_MINUTES: %w", err))
	}
	if c.MaxEscalationLevel < 0 {
		errs = append(errs, errors.New("MAX_ESCALATION_LEVEL must not be negative"))
	}

	return errors.Join(errs...)
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return n
}

func getSeconds(key string, defaultValue int) time.Duration {
	return time.Duration(getInt(key, defaultValue)) * time.Second
}

// parseMinutesList parses a comma-separated list of positive minute counts.
// The whole list is rejected if any entry is malformed.
func parseMinutesList(raw string) ([]time.Duration, error) {
	entries := splitList(raw)
	if len(entries) == 0 {
		return nil, errors.New("no intervals given")
	}
	out := make([]time.Duration, 0, len(entries))
	for _, entry := range entries {
		n, err := strconv.Atoi(entry)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid interval %q", entry)
		}
		out = append(out, time.Duration(n)*time.Minute)
	}
	return out, checkAscending(out)
}

func checkAscending(intervals []time.Duration) error {
	for i := 1; i < len(intervals); i++ {
		if intervals[i] < intervals[i-1] {
			return fmt.Errorf("intervals must not decrease (%s after %s)", intervals[i], intervals[i-1])
		}
	}
	for _, d := range intervals {
		if d <= 0 {
			return fmt.Errorf("interval %s must be positive", d)
		}
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry != "" {
			out = append(out, entry)
		}
	}
	return out
}
