package config

import (
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/taskflow/internal/errors"
)

// Validate checks the configuration for invalid or inconsistent values.
// It returns an error describing the first validation failure found.
//
// Validation rules:
//   - remote.backend must be memory, redis, sql or file
//   - remote.sql.driver must be sqlite3 or postgres when backend is sql
//   - sync timeouts must be positive and max_attempts between 1 and 10
//   - scheduler.interval must be between 1 second and 24 hours
//   - parser and server rate limits must be positive
//   - log.level must be a zerolog level name
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}

	if err := validateRemoteConfig(&cfg.Remote); err != nil {
		return err
	}
	if err := validateSyncConfig(&cfg.Sync); err != nil {
		return err
	}
	if err := validateSchedulerConfig(&cfg.Scheduler); err != nil {
		return err
	}
	if err := validateParserConfig(&cfg.Parser); err != nil {
		return err
	}
	if err := validateServerConfig(&cfg.Server); err != nil {
		return err
	}
	if cfg.Identity.UserID == "" {
		return errors.Wrap(errors.ErrIdentityMissing, "identity.user_id must not be empty")
	}
	if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil {
		return errors.Wrapf(errors.ErrConfigInvalid, "log.level %q is not a log level", cfg.Log.Level)
	}
	return nil
}

func validateRemoteConfig(cfg *RemoteConfig) error {
	switch cfg.Backend {
	case BackendMemory, BackendFile:
	case BackendRedis:
		if cfg.Redis.Addr == "" {
			return errors.Wrap(errors.ErrConfigInvalid, "remote.redis.addr must not be empty")
		}
	case BackendSQL:
		if !slices.Contains([]string{"sqlite3", "postgres"}, cfg.SQL.Driver) {
			return errors.Wrapf(errors.ErrConfigInvalid,
				"remote.sql.driver must be sqlite3 or postgres, got %q", cfg.SQL.Driver)
		}
		if cfg.SQL.DSN == "" {
			return errors.Wrap(errors.ErrConfigInvalid, "remote.sql.dsn must not be empty")
		}
	default:
		return errors.Wrapf(errors.ErrUnknownBackend, "remote.backend %q", cfg.Backend)
	}
	return nil
}

func validateSyncConfig(cfg *SyncConfig) error {
	if cfg.DispatchTimeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalid,
			"sync.dispatch_timeout must be positive, got %s", cfg.DispatchTimeout)
	}
	if cfg.MaxAttempts < 1 || cfg.MaxAttempts > 10 {
		return errors.Wrapf(errors.ErrConfigInvalid,
			"sync.max_attempts must be between 1 and 10, got %d", cfg.MaxAttempts)
	}
	if cfg.InitialBackoff < 0 || cfg.MaxBackoff < cfg.InitialBackoff {
		return errors.Wrapf(errors.ErrConfigInvalid,
			"sync backoff must satisfy 0 <= initial_backoff <= max_backoff, got %s and %s",
			cfg.InitialBackoff, cfg.MaxBackoff)
	}
	if cfg.FlushTimeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalid,
			"sync.flush_timeout must be positive, got %s", cfg.FlushTimeout)
	}
	return nil
}

func validateSchedulerConfig(cfg *SchedulerConfig) error {
	minInterval := 1 * time.Second
	maxInterval := 24 * time.Hour
	if cfg.Interval < minInterval || cfg.Interval > maxInterval {
		return errors.Wrapf(errors.ErrConfigInvalid,
			"scheduler.interval must be between %s and %s, got %s",
			minInterval, maxInterval, cfg.Interval)
	}
	return nil
}

func validateParserConfig(cfg *ParserConfig) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Endpoint == "" || cfg.Model == "" {
		return errors.Wrap(errors.ErrConfigInvalid, "parser.endpoint and parser.model must be set")
	}
	if cfg.Timeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalid, "parser.timeout must be positive, got %s", cfg.Timeout)
	}
	if cfg.RequestsPerMinute < 1 {
		return errors.Wrapf(errors.ErrConfigInvalid,
			"parser.requests_per_minute must be at least 1, got %d", cfg.RequestsPerMinute)
	}
	if cfg.MaxAttempts < 1 {
		return errors.Wrapf(errors.ErrConfigInvalid,
			"parser.max_attempts must be at least 1, got %d", cfg.MaxAttempts)
	}
	return nil
}

func validateServerConfig(cfg *ServerConfig) error {
	if cfg.RateLimitRequests < 1 {
		return errors.Wrapf(errors.ErrConfigInvalid,
			"server.rate_limit_requests must be at least 1, got %d", cfg.RateLimitRequests)
	}
	if cfg.RateLimitWindow <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalid,
			"server.rate_limit_window must be positive, got %s", cfg.RateLimitWindow)
	}
	return nil
}
