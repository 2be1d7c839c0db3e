// Package config loads settings in layers: built-in defaults, an optional
// YAML file, then MOVIEBOOK_* environment variables (a .env file in the
// working directory is read first when present).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"moviebook-cli/seating"
	"moviebook-cli/validation"
)

const (
	appDirName = "moviebook-cli"
	envPrefix  = "MOVIEBOOK_"

	// PathEnvVar overrides the config file location.
	PathEnvVar = "MOVIEBOOK_CONFIG"
)

type Config struct {
	// City ranks theatres in this city first; empty means unknown.
	City    string             `koanf:"city"`
	Backend BackendConfig      `koanf:"backend"`
	Breaker BreakerConfig      `koanf:"breaker"`
	Prices  seating.PriceTable `koanf:"prices"`
	Log     LogConfig          `koanf:"log"`
}

type BackendConfig struct {
	URL           string        `koanf:"url" validate:"required,url"`
	Timeout       time.Duration `koanf:"timeout" validate:"gt=0"`
	MaxAttempts   int           `koanf:"max_attempts" validate:"min=1,max=10"`
	RetryBase     time.Duration `koanf:"retry_base" validate:"gt=0"`
	RetryCap      time.Duration `koanf:"retry_cap" validate:"gtefield=RetryBase"`
	RatePerSecond float64       `koanf:"rate_per_second" validate:"gte=0"`
	Burst         int           `koanf:"burst" validate:"min=1"`
}

// BreakerConfig tunes the circuit breaker in front of write calls.
type BreakerConfig struct {
	MaxRequests         uint32        `koanf:"max_requests" validate:"min=1"`
	Interval            time.Duration `koanf:"interval" validate:"gte=0"`
	Timeout             time.Duration `koanf:"timeout" validate:"gt=0"`
	ConsecutiveFailures uint32        `koanf:"consecutive_failures" validate:"min=1"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	File   string `koanf:"file"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			URL:           "http://localhost:3000",
			Timeout:       12 * time.Second,
			MaxAttempts:   3,
			RetryBase:     200 * time.Millisecond,
			RetryCap:      1200 * time.Millisecond,
			RatePerSecond: 10,
			Burst:         5,
		},
		Breaker: BreakerConfig{
			MaxRequests:         1,
			Interval:            time.Minute,
			Timeout:             30 * time.Second,
			ConsecutiveFailures: 5,
		},
		Prices: seating.DefaultPrices(),
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			File:   defaultLogFile(),
		},
	}
}

// Load builds the configuration: defaults, then the config file, then env.
// An empty path searches MOVIEBOOK_CONFIG, the working directory and the
// user config dir.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if path == "" {
		path = findConfigFile()
	}
	return load(path)
}

func load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Backend.URL = strings.TrimRight(strings.TrimSpace(cfg.Backend.URL), "/")
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks field rules and the price table.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return err
	}
	return c.Prices.Validate()
}

var envKeys = map[string]string{
	"moviebook_city":                         "city",
	"moviebook_backend_url":                  "backend.url",
	"moviebook_backend_timeout":              "backend.timeout",
	"moviebook_backend_max_attempts":         "backend.max_attempts",
	"moviebook_backend_retry_base":           "backend.retry_base",
	"moviebook_backend_retry_cap":            "backend.retry_cap",
	"moviebook_backend_rate_per_second":      "backend.rate_per_second",
	"moviebook_backend_burst":                "backend.burst",
	"moviebook_breaker_max_requests":         "breaker.max_requests",
	"moviebook_breaker_interval":             "breaker.interval",
	"moviebook_breaker_timeout":              "breaker.timeout",
	"moviebook_breaker_consecutive_failures": "breaker.consecutive_failures",
	"moviebook_prices_recliner":              "prices.recliner",
	"moviebook_prices_prime_plus":            "prices.prime_plus",
	"moviebook_prices_prime":                 "prices.prime",
	"moviebook_prices_classic":               "prices.classic",
	"moviebook_log_level":                    "log.level",
	"moviebook_log_format":                   "log.format",
	"moviebook_log_file":                     "log.file",
	// short alias
	"moviebook_backend": "backend.url",
}

// envKey maps MOVIEBOOK_* variables to config paths; unknown names are skipped.
func envKey(key string) string {
	return envKeys[strings.ToLower(key)]
}

func findConfigFile() string {
	if p := strings.TrimSpace(os.Getenv(PathEnvVar)); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	candidates := []string{"config.yaml", "config.yml"}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, appDirName, "config.yaml"))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func defaultLogFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appDirName, "moviebook.log")
}
