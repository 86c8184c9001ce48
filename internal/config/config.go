// Package config provides configuration management for taskflow with layered precedence.
//
// Configuration sources are loaded in the following order (highest precedence first):
//  1. CLI flags (passed via LoadWithOverrides)
//  2. Environment variables (TASKFLOW_* prefix)
//  3. Project config (.taskflow/config.yaml)
//  4. Global config (~/.taskflow/config.yaml)
//  5. Built-in defaults
//
// Each higher level completely overrides the lower level for the same key.
//
// IMPORTANT: This package may import internal/errors and internal/logging,
// but MUST NOT import internal/domain or other internal packages.
package config

import "time"

// Remote backend names.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQL    = "sql"
	BackendFile   = "file"
)

// Config is the root configuration structure for taskflow.
type Config struct {
	// Remote selects and configures the persistence collaborator.
	Remote RemoteConfig `yaml:"remote" mapstructure:"remote"`

	// Sync controls how local mutations are dispatched to the remote.
	Sync SyncConfig `yaml:"sync" mapstructure:"sync"`

	// Scheduler controls the yet-to-start promotion loop.
	Scheduler SchedulerConfig `yaml:"scheduler" mapstructure:"scheduler"`

	// Parser controls the natural-language task parser's remote path.
	Parser ParserConfig `yaml:"parser" mapstructure:"parser"`

	// Server contains settings for the HTTP API.
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Identity supplies the current user id.
	Identity IdentityConfig `yaml:"identity" mapstructure:"identity"`

	// Log contains settings for the log file.
	Log LogConfig `yaml:"log" mapstructure:"log"`
}

// RemoteConfig selects the remote backend.
type RemoteConfig struct {
	// Backend is one of memory, redis, sql or file.
	// Default: "file"
	Backend string `yaml:"backend" mapstructure:"backend"`

	Redis RedisConfig `yaml:"redis" mapstructure:"redis"`
	SQL   SQLConfig   `yaml:"sql" mapstructure:"sql"`
	File  FileConfig  `yaml:"file" mapstructure:"file"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`

	// Prefix is prepended to every key, e.g. "taskflow:".
	Prefix string `yaml:"prefix" mapstructure:"prefix"`
}

// SQLConfig configures the sql backend.
type SQLConfig struct {
	// Driver is "sqlite3" or "postgres".
	Driver string `yaml:"driver" mapstructure:"driver"`

	// DSN is the driver-specific connection string.
	DSN string `yaml:"dsn" mapstructure:"dsn"`
}

// FileConfig configures the file backend.
type FileConfig struct {
	// Path is the snapshot file. Empty means ~/.taskflow/data.yaml.
	Path string `yaml:"path" mapstructure:"path"`
}

// SyncConfig controls remote dispatch of local mutations.
type SyncConfig struct {
	// DispatchTimeout bounds one remote call.
	// Default: 10 seconds
	DispatchTimeout time.Duration `yaml:"dispatch_timeout" mapstructure:"dispatch_timeout"`

	// MaxAttempts is the number of tries per operation, including the first.
	// Default: 3, Valid range: 1-10
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`

	// InitialBackoff is the wait before the first retry. It doubles per retry.
	// Default: 500 milliseconds
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff"`

	// MaxBackoff caps the retry wait.
	// Default: 10 seconds
	MaxBackoff time.Duration `yaml:"max_backoff" mapstructure:"max_backoff"`

	// FlushTimeout bounds how long shutdown waits for pending operations.
	// Default: 15 seconds
	FlushTimeout time.Duration `yaml:"flush_timeout" mapstructure:"flush_timeout"`
}

// SchedulerConfig controls the status lifecycle scheduler.
type SchedulerConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Interval between scans.
	// Default: 1 minute
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// ParserConfig controls the remote path of the natural-language parser.
// With Enabled false, or no API key in the environment, only the local
// heuristic runs.
type ParserConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Endpoint is the generative language API base URL.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`

	// Model is the model name appended to Endpoint.
	// Default: "gemini-pro"
	Model string `yaml:"model" mapstructure:"model"`

	// APIKeyEnvVar names the environment variable holding the API key.
	// The key itself is never stored in config.
	// Default: "GEMINI_API_KEY"
	APIKeyEnvVar string `yaml:"api_key_env_var" mapstructure:"api_key_env_var"`

	// Timeout bounds one generation request.
	// Default: 15 seconds
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// RequestsPerMinute throttles outgoing generation requests.
	// Default: 10
	RequestsPerMinute int `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`

	// MaxAttempts is the number of tries per generation request.
	// Default: 2
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// ServerConfig contains settings for the HTTP API.
type ServerConfig struct {
	// Addr is the listen address.
	// Default: ":8080"
	Addr string `yaml:"addr" mapstructure:"addr"`

	// RateLimitRequests is the number of parse requests allowed per client IP
	// in each RateLimitWindow.
	// Default: 10
	RateLimitRequests int `yaml:"rate_limit_requests" mapstructure:"rate_limit_requests"`

	// RateLimitWindow is the rate limit window.
	// Default: 1 minute
	RateLimitWindow time.Duration `yaml:"rate_limit_window" mapstructure:"rate_limit_window"`

	// MetricsEnabled exposes /metrics.
	MetricsEnabled bool `yaml:"metrics_enabled" mapstructure:"metrics_enabled"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 10 seconds
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// IdentityConfig supplies the opaque current user id.
type IdentityConfig struct {
	// UserID scopes which records are visible.
	// Default: "local"
	UserID string `yaml:"user_id" mapstructure:"user_id"`
}

// LogConfig contains settings for log output.
type LogConfig struct {
	// Level is used when neither --verbose nor --quiet is given.
	// Default: "info"
	Level string `yaml:"level" mapstructure:"level"`

	// FileEnabled writes JSON logs to ~/.taskflow/logs/taskflow.log.
	FileEnabled bool `yaml:"file_enabled" mapstructure:"file_enabled"`
}
