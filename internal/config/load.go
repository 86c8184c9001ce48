package config

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/mrz1836/taskflow/internal/errors"
	"github.com/mrz1836/taskflow/internal/logging"
)

// EnvPrefix is the prefix of every configuration environment variable.
const EnvPrefix = "TASKFLOW"

// newViperInstance creates a new Viper instance with standard taskflow configuration.
// This includes environment variable prefix (TASKFLOW_), key replacer, and defaults.
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// isConfigNotFoundError returns true if the error is a viper config file not found error.
func isConfigNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var configNotFoundErr viper.ConfigFileNotFoundError
	return stderrors.As(err, &configNotFoundErr)
}

// unmarshalAndValidate unmarshals viper config into Config struct and validates it.
func unmarshalAndValidate(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

// Load reads configuration from all available sources with proper precedence.
// Configuration is loaded in the following order (highest precedence first):
//  1. Environment variables (TASKFLOW_* prefix)
//  2. Project config (.taskflow/config.yaml)
//  3. Global config (~/.taskflow/config.yaml)
//  4. Built-in defaults
//
// Missing config files are not an error.
func Load(ctx context.Context) (*Config, error) {
	v := newViperInstance()

	if err := loadGlobalConfig(v); err != nil {
		return nil, err
	}
	if err := loadProjectConfig(v); err != nil {
		return nil, err
	}

	cfg, err := unmarshalAndValidate(v)
	if err != nil {
		return nil, err
	}

	logger := logging.WithComponent(*zerolog.Ctx(ctx), "config")
	logger.Debug().
		Str("remote.backend", cfg.Remote.Backend).
		Dur("scheduler.interval", cfg.Scheduler.Interval).
		Bool("parser.enabled", cfg.Parser.Enabled).
		Msg("configuration loaded")

	return cfg, nil
}

// loadGlobalConfig attempts to load the global config file (~/.taskflow/config.yaml).
// Returns nil if the file doesn't exist or home directory cannot be determined.
func loadGlobalConfig(v *viper.Viper) error {
	globalConfigPath, err := GlobalConfigPath()
	if err != nil || !fileExists(globalConfigPath) {
		return nil
	}

	v.SetConfigFile(globalConfigPath)
	if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read global config file")
	}
	return nil
}

// loadProjectConfig attempts to load the project config file (.taskflow/config.yaml).
// Returns nil if the file doesn't exist.
func loadProjectConfig(v *viper.Viper) error {
	projectConfigPath := ProjectConfigPath()
	if !fileExists(projectConfigPath) {
		return nil
	}

	v.SetConfigFile(projectConfigPath)
	if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read project config file")
	}
	return nil
}

// fileExists returns true if the file at path exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadWithOverrides loads configuration and applies CLI flag overrides.
// Only non-zero values in overrides are applied.
func LoadWithOverrides(ctx context.Context, overrides *Config) (*Config, error) {
	cfg, err := Load(ctx)
	if err != nil {
		return nil, err
	}

	if overrides != nil {
		applyOverrides(cfg, overrides)
	}

	if err := Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration after overrides")
	}

	return cfg, nil
}

// LoadFromPaths loads configuration from specific file paths for testing.
// Either path can be empty to skip that level.
func LoadFromPaths(_ context.Context, projectConfigPath, globalConfigPath string) (*Config, error) {
	v := newViperInstance()

	if globalConfigPath != "" {
		v.SetConfigFile(globalConfigPath)
		if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read global config: %s", globalConfigPath)
		}
	}

	if projectConfigPath != "" {
		v.SetConfigFile(projectConfigPath)
		if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read project config: %s", projectConfigPath)
		}
	}

	return unmarshalAndValidate(v)
}

// setDefaults configures all default values on the Viper instance.
// Keys must match the mapstructure tag names exactly.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("remote.backend", d.Remote.Backend)
	v.SetDefault("remote.redis.addr", d.Remote.Redis.Addr)
	v.SetDefault("remote.redis.password", "")
	v.SetDefault("remote.redis.db", 0)
	v.SetDefault("remote.redis.prefix", d.Remote.Redis.Prefix)
	v.SetDefault("remote.sql.driver", d.Remote.SQL.Driver)
	v.SetDefault("remote.sql.dsn", d.Remote.SQL.DSN)
	v.SetDefault("remote.file.path", "")

	v.SetDefault("sync.dispatch_timeout", d.Sync.DispatchTimeout.String())
	v.SetDefault("sync.max_attempts", d.Sync.MaxAttempts)
	v.SetDefault("sync.initial_backoff", d.Sync.InitialBackoff.String())
	v.SetDefault("sync.max_backoff", d.Sync.MaxBackoff.String())
	v.SetDefault("sync.flush_timeout", d.Sync.FlushTimeout.String())

	v.SetDefault("scheduler.enabled", d.Scheduler.Enabled)
	v.SetDefault("scheduler.interval", d.Scheduler.Interval.String())

	v.SetDefault("parser.enabled", d.Parser.Enabled)
	v.SetDefault("parser.endpoint", d.Parser.Endpoint)
	v.SetDefault("parser.model", d.Parser.Model)
	v.SetDefault("parser.api_key_env_var", d.Parser.APIKeyEnvVar)
	v.SetDefault("parser.timeout", d.Parser.Timeout.String())
	v.SetDefault("parser.requests_per_minute", d.Parser.RequestsPerMinute)
	v.SetDefault("parser.max_attempts", d.Parser.MaxAttempts)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.rate_limit_requests", d.Server.RateLimitRequests)
	v.SetDefault("server.rate_limit_window", d.Server.RateLimitWindow.String())
	v.SetDefault("server.metrics_enabled", d.Server.MetricsEnabled)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout.String())

	v.SetDefault("identity.user_id", d.Identity.UserID)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file_enabled", d.Log.FileEnabled)
}

// applyOverrides merges non-zero override values into the config.
//
// IMPORTANT: Boolean fields cannot be overridden to false here because Go's
// zero value for bool is false. CLI implementations handle them separately:
//
//	if cmd.Flags().Changed("no-scheduler") {
//	    cfg.Scheduler.Enabled = false
//	}
func applyOverrides(cfg, overrides *Config) {
	applyRemoteOverrides(&cfg.Remote, &overrides.Remote)

	if overrides.Server.Addr != "" {
		cfg.Server.Addr = overrides.Server.Addr
	}
	if overrides.Scheduler.Interval != 0 {
		cfg.Scheduler.Interval = overrides.Scheduler.Interval
	}
	if overrides.Identity.UserID != "" {
		cfg.Identity.UserID = overrides.Identity.UserID
	}
	if overrides.Parser.Model != "" {
		cfg.Parser.Model = overrides.Parser.Model
	}
	if overrides.Log.Level != "" {
		cfg.Log.Level = overrides.Log.Level
	}
}

// applyRemoteOverrides applies remote-related overrides to the config.
func applyRemoteOverrides(cfg, overrides *RemoteConfig) {
	if overrides.Backend != "" {
		cfg.Backend = overrides.Backend
	}
	if overrides.Redis.Addr != "" {
		cfg.Redis.Addr = overrides.Redis.Addr
	}
	if overrides.SQL.Driver != "" {
		cfg.SQL.Driver = overrides.SQL.Driver
	}
	if overrides.SQL.DSN != "" {
		cfg.SQL.DSN = overrides.SQL.DSN
	}
	if overrides.File.Path != "" {
		cfg.File.Path = overrides.File.Path
	}
}

// viperDecoderOption returns the decoder options for Viper unmarshal.
// This configures mapstructure to handle time.Duration conversion from strings.
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	)
}

// ResolveFilePath returns the file backend path, defaulting to ~/.taskflow/data.yaml.
func ResolveFilePath(cfg *FileConfig) (string, error) {
	if cfg.Path != "" {
		return cfg.Path, nil
	}
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "data.yaml"), nil
}
