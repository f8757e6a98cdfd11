package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Dashboard Configuration
	DashboardURL           string
	DashboardStatusPath    string
	DashboardRefreshPath   string
	DashboardAuthType      string
	DashboardUsername      string
	DashboardPassword      string
	DashboardToken         string
	DashboardSessionCookie string
	RequestTimeout         time.Duration

	// Polling Configuration
	RenderTarget    string
	PollInterval    time.Duration
	PollMaxDuration time.Duration
	PollMaxFailures int

	// Status field JSONPath overrides
	StatusPathState   string
	StatusPathCurrent string
	StatusPathTotal   string
	StatusPathResult  string
	StatusPathLocked  string
	StatusPathMessage string

	// MongoDB Configuration
	MongoEnabled  bool
	MongoURI      string
	MongoDatabase string
	MongoTimeout  time.Duration
	MongoMaxPool  int

	// HTTP Server Configuration
	HTTPPort         string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration

	// Logging Configuration
	LogLevel  string
	LogFormat string

	// Webhook Configuration
	WebhookURL            string
	WebhookNotifyTerminal bool
	WebhookTimeout        time.Duration

	// CORS Configuration
	CORSAllowedOrigins   string
	CORSAllowedMethods   string
	CORSAllowedHeaders   string
	CORSAllowCredentials bool
	CORSMaxAge           int

	// Scheduler Configuration
	SchedulerEnabled bool
	RefreshSchedule  string
	SchedulerLockTTL time.Duration
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		// Dashboard
		DashboardURL:           getEnv("DASHBOARD_URL", "http://localhost:8080"),
		DashboardStatusPath:    getEnv("DASHBOARD_STATUS_PATH", "/progress/status"),
		DashboardRefreshPath:   getEnv("DASHBOARD_REFRESH_PATH", "/refresh"),
		DashboardAuthType:      getEnv("DASHBOARD_AUTH_TYPE", "none"),
		DashboardUsername:      getEnv("DASHBOARD_USERNAME", ""),
		DashboardPassword:      getEnv("DASHBOARD_PASSWORD", ""),
		DashboardToken:         getEnv("DASHBOARD_TOKEN", ""),
		DashboardSessionCookie: getEnv("DASHBOARD_SESSION_COOKIE", ""),
		RequestTimeout:         getDurationEnv("REQUEST_TIMEOUT_SEC", 30) * time.Second,

		// Polling
		RenderTarget:    getEnv("RENDER_TARGET", "progressbar"),
		PollInterval:    getDurationEnv("POLL_INTERVAL_MS", 2000) * time.Millisecond,
		PollMaxDuration: getDurationEnv("POLL_MAX_DURATION_SEC", 0) * time.Second,
		PollMaxFailures: getIntEnv("POLL_MAX_FAILURES", 3),

		// Status fields
		StatusPathState:   getEnv("STATUS_PATH_STATE", "$.state"),
		StatusPathCurrent: getEnv("STATUS_PATH_CURRENT", "$.current"),
		StatusPathTotal:   getEnv("STATUS_PATH_TOTAL", "$.total"),
		StatusPathResult:  getEnv("STATUS_PATH_RESULT", "$.result"),
		StatusPathLocked:  getEnv("STATUS_PATH_LOCKED", "$.locked"),
		StatusPathMessage: getEnv("STATUS_PATH_MESSAGE", "$.status"),

		// MongoDB
		MongoEnabled:  getBoolEnv("MONGO_ENABLED", false),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017/refreshwatch?authSource=admin"),
		MongoDatabase: getEnv("MONGO_DATABASE", "refreshwatch"),
		MongoTimeout:  getDurationEnv("MONGO_TIMEOUT_SEC", 10) * time.Second,
		MongoMaxPool:  getIntEnv("MONGO_MAX_POOL_SIZE", 4),

		// HTTP Server
		HTTPPort:         getEnv("HTTP_PORT", "8090"),
		HTTPReadTimeout:  getDurationEnv("HTTP_READ_TIMEOUT_SEC", 30) * time.Second,
		HTTPWriteTimeout: getDurationEnv("HTTP_WRITE_TIMEOUT_SEC", 30) * time.Second,

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Webhook
		WebhookURL:            getEnv("WEBHOOK_URL", ""),
		WebhookNotifyTerminal: getBoolEnv("WEBHOOK_NOTIFY_TERMINAL", false),
		WebhookTimeout:        getDurationEnv("WEBHOOK_TIMEOUT_SEC", 10) * time.Second,

		// CORS
		CORSAllowedOrigins:   getEnv("CORS_ALLOWED_ORIGINS", "*"),
		CORSAllowedMethods:   getEnv("CORS_ALLOWED_METHODS", "GET, POST, OPTIONS"),
		CORSAllowedHeaders:   getEnv("CORS_ALLOWED_HEADERS", "*"),
		CORSAllowCredentials: getBoolEnv("CORS_ALLOW_CREDENTIALS", true),
		CORSMaxAge:           getIntEnv("CORS_MAX_AGE", 3600),

		// Scheduler
		SchedulerEnabled: getBoolEnv("SCHEDULER_ENABLED", false),
		RefreshSchedule:  getEnv("REFRESH_SCHEDULE", "10 * * * *"),
		SchedulerLockTTL: getDurationEnv("SCHEDULER_LOCK_TTL_SEC", 300) * time.Second,
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int) time.Duration {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return time.Duration(intVal)
		}
		log.Printf("Warning: Invalid duration value for %s, using default %d", key, defaultValue)
	}
	return time.Duration(defaultValue)
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
		log.Printf("Warning: Invalid boolean value for %s, using default %t", key, defaultValue)
	}
	return defaultValue
}
