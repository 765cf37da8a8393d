package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so tests see only what they set.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "SERVICE_NAME", "SERVICE_VERSION", "ENVIRONMENT",
		"BIND_ADDR", "LOG_LEVEL", "OTEL_EXPORTER_OTLP_ENDPOINT",
		"TRACE_SAMPLE_RATE", "DOWNSTREAM_URL", "DOWNSTREAM_TIMEOUT",
		"READ_TIMEOUT", "WRITE_TIMEOUT", "SHUTDOWN_TIMEOUT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad(t *testing.T) {
	t.Run("Should apply defaults", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "obs-demo-api", cfg.ServiceName)
		assert.Equal(t, Development, cfg.Environment)
		assert.Equal(t, "0.0.0.0:8080", cfg.BindAddr)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Empty(t, cfg.OTLPEndpoint)
		assert.Equal(t, 1.0, cfg.TraceSampleRate)
		assert.Equal(t, 3*time.Second, cfg.DownstreamTimeout)
		assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	})

	t.Run("Should let environment variables win", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SERVICE_NAME", "telemetry-probe")
		t.Setenv("ENVIRONMENT", "production")
		t.Setenv("BIND_ADDR", "127.0.0.1:9090")
		t.Setenv("LOG_LEVEL", "debug")
		t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4317")
		t.Setenv("TRACE_SAMPLE_RATE", "0.25")
		t.Setenv("SHUTDOWN_TIMEOUT", "10s")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "telemetry-probe", cfg.ServiceName)
		assert.Equal(t, Production, cfg.Environment)
		assert.Equal(t, "127.0.0.1:9090", cfg.BindAddr)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, "otel-collector:4317", cfg.OTLPEndpoint)
		assert.Equal(t, 0.25, cfg.TraceSampleRate)
		assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	})

	t.Run("Should layer a YAML file under environment variables", func(t *testing.T) {
		clearEnv(t)

		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
service_name: from-file
environment: staging
log_level: warn
downstream_timeout: 5s
read_timeout: 45s
`), 0o644))
		t.Setenv("CONFIG_FILE", path)
		t.Setenv("LOG_LEVEL", "error")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "from-file", cfg.ServiceName)
		assert.Equal(t, Staging, cfg.Environment)
		assert.Equal(t, "error", cfg.LogLevel, "env overrides file")
		assert.Equal(t, 5*time.Second, cfg.DownstreamTimeout)
		assert.Equal(t, 45*time.Second, cfg.ReadTimeout)
	})

	t.Run("Should reject an unknown environment", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ENVIRONMENT", "bogus")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("Should reject a malformed bind address", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BIND_ADDR", "not-an-addr")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("Should reject a malformed duration in the file", func(t *testing.T) {
		clearEnv(t)

		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("read_timeout: soon\n"), 0o644))
		t.Setenv("CONFIG_FILE", path)

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("Should fail on a missing config file", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

		_, err := Load()
		assert.Error(t, err)
	})
}
