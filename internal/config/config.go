// Package config loads settings for the import CLI and the ledger daemon
// from environment variables. Both binaries share one Config; sections a
// binary does not use are still defaulted and validated.
package config

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Config holds all application configuration.
type Config struct {
	Ledger   LedgerConfig
	Import   ImportConfig
	Server   ServerConfig
	Database DatabaseConfig
	Upload   UploadConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// LedgerConfig tells the CLI where the ledger lives.
type LedgerConfig struct {
	// URL is the base URL of ledgerd (default: http://localhost:8080)
	URL string `env:"LEDGER_URL" default:"http://localhost:8080"`

	// APIKey is sent as X-API-Key on every request
	APIKey string `env:"LEDGER_API_KEY"`

	// Collection is the LOC id items are imported into; --loc overrides it
	Collection uuid.UUID `env:"LEDGER_COLLECTION"`

	// Timeout bounds each ledger request (default: 30s)
	Timeout time.Duration `env:"LEDGER_TIMEOUT" default:"30s"`
}

// ImportConfig holds importer defaults.
type ImportConfig struct {
	// BatchSize is the number of items per CreateItems call (default: 10)
	BatchSize int `env:"IMPORT_BATCH_SIZE" default:"10"`

	// MaxConcurrentChecks bounds parallel existence checks per batch (default: 4)
	MaxConcurrentChecks int `env:"IMPORT_MAX_CONCURRENT_CHECKS" default:"4"`

	// FilesDir is where FILE NAME columns are resolved; empty means the
	// directory of the CSV file
	FilesDir string `env:"IMPORT_FILES_DIR"`

	// AcceptsUpload enables file uploads (default: true)
	AcceptsUpload bool `env:"IMPORT_ACCEPTS_UPLOAD" default:"true"`
}

// ServerConfig holds ledgerd HTTP settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" default:"8080"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout also bounds the wait for in-flight uploads
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds the ledgerd PostgreSQL settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. Only ledgerd requires it.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"20"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// UploadConfig bounds file uploads accepted by ledgerd.
type UploadConfig struct {
	// MaxFileSize is the maximum upload body in bytes (default: 100MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"104857600"`

	// MaxConcurrent is the maximum number of parallel uploads (default: 5)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long to wait for an upload slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`
}

// SecurityConfig holds ledgerd security settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`

	// RequireAPIKey rejects API requests without a valid X-API-Key
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

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
	return c.Host + ":" + strconv.Itoa(c.Port)
}
