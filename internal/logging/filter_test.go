package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper functions construct fake secret strings at runtime to avoid
// gitleaks false positives. These use obvious test/example patterns.
func fakeGeminiKey() string   { return "AIza" + "SyTESTONLYxxxxxxxxxxxxxxxxxxxxxxxxx" }
func fakePassword() string    { return "testonly" + "password123" }
func fakeBearerToken() string { return "TESTONLYbearer" + "token1234567890" }

func TestContainsSensitiveData(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"gemini key", "calling model with key=" + fakeGeminiKey(), true},
		{"postgres url", "postgres://app:" + fakePassword() + "@db:5432/tasks", true},
		{"redis url", "redis://:" + fakePassword() + "@cache:6379/0", true},
		{"pq dsn", "host=db user=app password=" + fakePassword(), true},
		{"bearer", "Authorization: Bearer " + fakeBearerToken(), true},
		{"plain", "task created in backlog", false},
		{"url without password", "redis://cache:6379/0", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, ContainsSensitiveData(tc.input))
		})
	}
}

func TestFilterSensitiveValue(t *testing.T) {
	t.Parallel()

	t.Run("url credentials keep user", func(t *testing.T) {
		got := FilterSensitiveValue("dial postgres://app:" + fakePassword() + "@db:5432/tasks")
		assert.Equal(t, "dial postgres://app:[REDACTED]@db:5432/tasks", got)
	})

	t.Run("gemini key", func(t *testing.T) {
		got := FilterSensitiveValue("key " + fakeGeminiKey() + " rejected")
		assert.NotContains(t, got, fakeGeminiKey())
		assert.Contains(t, got, RedactedValue)
	})

	t.Run("untouched", func(t *testing.T) {
		assert.Equal(t, "moved task to review", FilterSensitiveValue("moved task to review"))
	})
}

func TestSafeValue(t *testing.T) {
	t.Parallel()

	assert.Equal(t, RedactedValue, SafeValue("api_key", "anything"))
	assert.Equal(t, RedactedValue, SafeValue("SQL_DSN", "anything"))
	assert.Equal(t, RedactedValue, SafeValue("redis_password", "x"))
	assert.Equal(t, "localhost:6379", SafeValue("addr", "localhost:6379"))
}

func TestRedactDSN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"url with password", "postgres://app:" + fakePassword() + "@db/tasks", "postgres://app:[REDACTED]@db/tasks"},
		{"url without password", "postgres://app@db/tasks", "postgres://app@db/tasks"},
		{"sqlite file", "file:tasks.db?cache=shared", "file:tasks.db?cache=shared"},
		{"key value dsn", "host=db password=" + fakePassword(), "host=db [REDACTED]"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, RedactDSN(tc.input))
		})
	}
}

func TestSensitiveDataHook(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := zerolog.New(&buf).Hook(NewSensitiveDataHook())

	logger.Info().Msg("using " + fakeGeminiKey())
	assert.Contains(t, buf.String(), `"contains_filtered_data":true`)

	buf.Reset()
	logger.Info().Msg("sync drained")
	assert.NotContains(t, buf.String(), "contains_filtered_data")
}

func TestFilteringWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	fw := NewFilteringWriter(&buf)

	line := []byte(`{"msg":"open redis://:` + fakePassword() + `@cache:6379"}`)
	n, err := fw.Write(line)
	require.NoError(t, err)
	assert.Equal(t, len(line), n)
	assert.NotContains(t, buf.String(), fakePassword())
}

func TestWithComponent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := WithComponent(zerolog.New(&buf), ComponentStore)
	logger.Info().Msg("hello")
	assert.Contains(t, buf.String(), `"component":"store"`)
}
