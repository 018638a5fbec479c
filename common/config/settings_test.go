package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings(t *testing.T) {
	t.Setenv("ENV", "qa")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("METRICS_STDOUT", "true")
	t.Setenv("RUN_TABLE", "sqs-flow-qa-runs")
	t.Setenv("DB_AWS_ENDPOINT", "http://localhost:8000")
	t.Setenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "")

	settings, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, "qa", settings.Env)
	assert.Equal(t, "debug", settings.LogLevel)
	assert.True(t, settings.MetricsStdout)
	assert.Empty(t, settings.MetricsEndpoint)
	assert.Equal(t, "sqs-flow-qa-runs", settings.RunTable)
	assert.Equal(t, "http://localhost:8000", settings.DbAwsEndpoint)
}

func TestLoadSettingsDefaults(t *testing.T) {
	for _, key := range []string{"ENV", "LOG_LEVEL", "METRICS_STDOUT", "RUN_TABLE"} {
		unsetenv(t, key)
	}

	settings, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, "dev", settings.Env)
	assert.Equal(t, "info", settings.LogLevel)
	assert.False(t, settings.MetricsStdout)
	assert.Empty(t, settings.RunTable)
}

func TestLoadSettingsInvalid(t *testing.T) {
	t.Setenv("METRICS_STDOUT", "sometimes")

	_, err := LoadSettings()
	assert.Error(t, err)
}

func unsetenv(t *testing.T, key string) {
	if value, found := os.LookupEnv(key); found {
		t.Cleanup(func() { os.Setenv(key, value) })
	}
	require.NoError(t, os.Unsetenv(key))
}
