package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/taskflow/internal/errors"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"defaults", func(*Config) {}, nil},
		{"memory backend", func(c *Config) { c.Remote.Backend = BackendMemory }, nil},
		{"unknown backend", func(c *Config) { c.Remote.Backend = "dynamo" }, errors.ErrUnknownBackend},
		{"redis without addr", func(c *Config) {
			c.Remote.Backend = BackendRedis
			c.Remote.Redis.Addr = ""
		}, errors.ErrConfigInvalid},
		{"sql bad driver", func(c *Config) {
			c.Remote.Backend = BackendSQL
			c.Remote.SQL.Driver = "mysql"
		}, errors.ErrConfigInvalid},
		{"postgres ok", func(c *Config) {
			c.Remote.Backend = BackendSQL
			c.Remote.SQL.Driver = "postgres"
			c.Remote.SQL.DSN = "postgres://localhost/tasks"
		}, nil},
		{"zero dispatch timeout", func(c *Config) { c.Sync.DispatchTimeout = 0 }, errors.ErrConfigInvalid},
		{"too many attempts", func(c *Config) { c.Sync.MaxAttempts = 11 }, errors.ErrConfigInvalid},
		{"backoff inverted", func(c *Config) { c.Sync.MaxBackoff = time.Millisecond }, errors.ErrConfigInvalid},
		{"interval too short", func(c *Config) { c.Scheduler.Interval = time.Millisecond }, errors.ErrConfigInvalid},
		{"parser without rpm", func(c *Config) { c.Parser.RequestsPerMinute = 0 }, errors.ErrConfigInvalid},
		{"disabled parser skips checks", func(c *Config) {
			c.Parser.Enabled = false
			c.Parser.RequestsPerMinute = 0
		}, nil},
		{"server window", func(c *Config) { c.Server.RateLimitWindow = 0 }, errors.ErrConfigInvalid},
		{"empty user", func(c *Config) { c.Identity.UserID = "" }, errors.ErrIdentityMissing},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, errors.ErrConfigInvalid},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := Validate(cfg)
			if tc.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestValidate_Nil(t *testing.T) {
	t.Parallel()
	assert.ErrorIs(t, Validate(nil), errors.ErrConfigNil)
}
