// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server     ServerConfig
	Upload     UploadConfig
	Session    SessionConfig
	Simulation SimulationConfig
	Rate       RateLimitConfig
	Security   SecurityConfig
	Logging    LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 0 for SSE)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for non-streaming requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// UploadConfig holds the document upload simulation settings.
type UploadConfig struct {
	// MaxFileSize is the largest accepted document in bytes (default: 5 MiB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"5242880"`

	// MaxRequestSize caps a whole multipart request (default: 64 MiB).
	// Must exceed MaxFileSize so oversized files reach the validator.
	MaxRequestSize int64 `env:"UPLOAD_MAX_REQUEST_SIZE" default:"67108864"`

	// MaxFiles is the maximum number of files in one batch (default: 20)
	MaxFiles int `env:"UPLOAD_MAX_FILES" default:"20"`

	// MaxConcurrent is how many multipart uploads are read at once (default: 8)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"8"`

	// SlotWait is how long an upload waits for a free slot (default: 10s)
	SlotWait time.Duration `env:"UPLOAD_SLOT_WAIT" default:"10s"`

	// StepInterval is the delay between simulated transfer steps (default: 200ms)
	StepInterval time.Duration `env:"UPLOAD_STEP_INTERVAL" default:"200ms"`

	// StepPercent is the progress added per transfer step (default: 10)
	StepPercent int `env:"UPLOAD_STEP_PERCENT" default:"10"`

	// ProcessingDelay is the time spent in "upload successful" (default: 2s)
	ProcessingDelay time.Duration `env:"UPLOAD_PROCESSING_DELAY" default:"2s"`

	// ReviewDelay is the time spent in "processing" (default: 3s)
	ReviewDelay time.Duration `env:"UPLOAD_REVIEW_DELAY" default:"3s"`
}

// SessionConfig holds browsing-session settings.
type SessionConfig struct {
	// CookieName is the session cookie name (default: taxpro_session)
	CookieName string `env:"SESSION_COOKIE_NAME" default:"taxpro_session"`

	// TTL is how long an idle session is kept (default: 2h)
	TTL time.Duration `env:"SESSION_TTL" default:"2h"`

	// SweepInterval is how often expired sessions are purged (default: 5m)
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" default:"5m"`

	// SecureCookie sets the Secure flag on the session cookie (default: false)
	SecureCookie bool `env:"SESSION_SECURE_COOKIE" default:"false"`
}

// SimulationConfig holds the fixed delays used by simulated submissions.
type SimulationConfig struct {
	// LoginDelay is the simulated sign-in latency (default: 1.5s)
	LoginDelay time.Duration `env:"SIMULATE_LOGIN_DELAY" default:"1500ms"`

	// ContactDelay is the simulated contact form latency (default: 2s)
	ContactDelay time.Duration `env:"SIMULATE_CONTACT_DELAY" default:"2s"`

	// AppointmentDelay is the simulated booking latency (default: 2s)
	AppointmentDelay time.Duration `env:"SIMULATE_APPOINTMENT_DELAY" default:"2s"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// UploadLimit is requests per minute for upload endpoints (default: 20)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
