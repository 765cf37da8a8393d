// Package config provides configuration for the observability demo service.
// Settings load in layers: built-in defaults, then an optional YAML file
// named by CONFIG_FILE, then environment variables (highest priority).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment is the deployment environment the service runs in.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Config holds every runtime setting the service consumes.
type Config struct {
	ServiceName    string      `validate:"required"`
	ServiceVersion string
	Environment    Environment `validate:"required,oneof=development staging production"`

	BindAddr string `validate:"required,hostname_port"`
	LogLevel string `validate:"oneof=debug info warn error"`

	// OTLPEndpoint selects the span exporter: set, spans go to the collector;
	// empty, spans print to stdout.
	OTLPEndpoint    string
	TraceSampleRate float64 `validate:"gte=0,lte=1"`

	DownstreamURL     string        `validate:"required,url"`
	DownstreamTimeout time.Duration `validate:"gt=0"`

	ReadTimeout     time.Duration `validate:"gt=0"`
	WriteTimeout    time.Duration `validate:"gt=0"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
}

// fileConfig is the YAML shape of a config file. All fields are optional;
// durations are written as strings like "30s".
type fileConfig struct {
	ServiceName       string   `yaml:"service_name"`
	ServiceVersion    string   `yaml:"service_version"`
	Environment       string   `yaml:"environment"`
	BindAddr          string   `yaml:"bind_addr"`
	LogLevel          string   `yaml:"log_level"`
	OTLPEndpoint      string   `yaml:"otlp_endpoint"`
	TraceSampleRate   *float64 `yaml:"trace_sample_rate"`
	DownstreamURL     string   `yaml:"downstream_url"`
	DownstreamTimeout string   `yaml:"downstream_timeout"`
	ReadTimeout       string   `yaml:"read_timeout"`
	WriteTimeout      string   `yaml:"write_timeout"`
	ShutdownTimeout   string   `yaml:"shutdown_timeout"`
}

// Load builds the configuration from defaults, the optional CONFIG_FILE YAML
// layer, and environment variables, then validates the result.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		ServiceName:       "obs-demo-api",
		ServiceVersion:    "0.1.0",
		Environment:       Development,
		BindAddr:          "0.0.0.0:8080",
		LogLevel:          "info",
		TraceSampleRate:   1.0,
		DownstreamURL:     "https://httpbin.org/delay/0.2",
		DownstreamTimeout: 3 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		ShutdownTimeout:   30 * time.Second,
	}
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	setString(&cfg.ServiceName, f.ServiceName)
	setString(&cfg.ServiceVersion, f.ServiceVersion)
	if f.Environment != "" {
		cfg.Environment = Environment(f.Environment)
	}
	setString(&cfg.BindAddr, f.BindAddr)
	setString(&cfg.LogLevel, f.LogLevel)
	setString(&cfg.OTLPEndpoint, f.OTLPEndpoint)
	if f.TraceSampleRate != nil {
		cfg.TraceSampleRate = *f.TraceSampleRate
	}
	setString(&cfg.DownstreamURL, f.DownstreamURL)

	for _, d := range []struct {
		raw    string
		target *time.Duration
		name   string
	}{
		{f.DownstreamTimeout, &cfg.DownstreamTimeout, "downstream_timeout"},
		{f.ReadTimeout, &cfg.ReadTimeout, "read_timeout"},
		{f.WriteTimeout, &cfg.WriteTimeout, "write_timeout"},
		{f.ShutdownTimeout, &cfg.ShutdownTimeout, "shutdown_timeout"},
	} {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.name, d.raw, err)
		}
		*d.target = parsed
	}

	return nil
}

func setString(target *string, value string) {
	if value != "" {
		*target = value
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SERVICE_NAME"); v != "" {
		cfg.ServiceName = v
	}
	if v := os.Getenv("SERVICE_VERSION"); v != "" {
		cfg.ServiceVersion = v
	}
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		cfg.Environment = Environment(v)
	}
	if v := os.Getenv("BIND_ADDR"); v != "" {
		cfg.BindAddr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.OTLPEndpoint = v
	}
	if v := os.Getenv("TRACE_SAMPLE_RATE"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.TraceSampleRate = rate
		}
	}
	if v := os.Getenv("DOWNSTREAM_URL"); v != "" {
		cfg.DownstreamURL = v
	}
	for _, d := range []struct {
		env    string
		target *time.Duration
	}{
		{"DOWNSTREAM_TIMEOUT", &cfg.DownstreamTimeout},
		{"READ_TIMEOUT", &cfg.ReadTimeout},
		{"WRITE_TIMEOUT", &cfg.WriteTimeout},
		{"SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout},
	} {
		if v := os.Getenv(d.env); v != "" {
			if parsed, err := time.ParseDuration(v); err == nil {
				*d.target = parsed
			}
		}
	}
}

// Validate checks the assembled configuration against its struct tags.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}
