package config

import "time"

// Default values shared by DefaultConfig and the viper defaults.
const (
	DefaultDispatchTimeout   = 10 * time.Second
	DefaultMaxAttempts       = 3
	DefaultInitialBackoff    = 500 * time.Millisecond
	DefaultMaxBackoff        = 10 * time.Second
	DefaultFlushTimeout      = 15 * time.Second
	DefaultSchedulerInterval = time.Minute
	DefaultParserEndpoint    = "https://generativelanguage.googleapis.com/v1beta/models"
	DefaultParserModel       = "gemini-pro"
	DefaultAPIKeyEnvVar      = "GEMINI_API_KEY"
	DefaultParserTimeout     = 15 * time.Second
	DefaultRequestsPerMinute = 10
	DefaultRateLimitWindow   = time.Minute
	DefaultUserID            = "local"
)

// DefaultConfig returns a new Config with default values. It matches what
// Load produces when no file or environment variable is set.
func DefaultConfig() *Config {
	return &Config{
		Remote: RemoteConfig{
			Backend: BackendFile,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "taskflow:",
			},
			SQL: SQLConfig{
				Driver: "sqlite3",
				DSN:    "file:taskflow.db?cache=shared",
			},
		},
		Sync: SyncConfig{
			DispatchTimeout: DefaultDispatchTimeout,
			MaxAttempts:     DefaultMaxAttempts,
			InitialBackoff:  DefaultInitialBackoff,
			MaxBackoff:      DefaultMaxBackoff,
			FlushTimeout:    DefaultFlushTimeout,
		},
		Scheduler: SchedulerConfig{
			Enabled:  true,
			Interval: DefaultSchedulerInterval,
		},
		Parser: ParserConfig{
			Enabled:           true,
			Endpoint:          DefaultParserEndpoint,
			Model:             DefaultParserModel,
			APIKeyEnvVar:      DefaultAPIKeyEnvVar,
			Timeout:           DefaultParserTimeout,
			RequestsPerMinute: DefaultRequestsPerMinute,
			MaxAttempts:       2,
		},
		Server: ServerConfig{
			Addr:              ":8080",
			RateLimitRequests: DefaultRequestsPerMinute,
			RateLimitWindow:   DefaultRateLimitWindow,
			MetricsEnabled:    true,
			ShutdownTimeout:   10 * time.Second,
		},
		Identity: IdentityConfig{
			UserID: DefaultUserID,
		},
		Log: LogConfig{
			Level:       "info",
			FileEnabled: true,
		},
	}
}
