package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all service settings. Values come from defaults, then an
// optional YAML file named by CONFIG_PATH, then environment variables.
type Config struct {
	VesselFiles     []string      `yaml:"vessel_files" validate:"dive,required"`
	AircraftFiles   []string      `yaml:"aircraft_files" validate:"dive,required"`
	CachePath       string        `yaml:"cache_path" validate:"required"`
	MaxDataAge      time.Duration `yaml:"max_data_age" validate:"gt=0"`
	DecodeCacheSize int           `yaml:"decode_cache_size" validate:"min=0"`

	HTTPAddr        string        `yaml:"http_addr" validate:"required"`
	LogLevel        string        `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat       string        `yaml:"log_format" validate:"oneof=json text console"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`

	// Record publishing.
	KafkaEnabled bool     `yaml:"kafka_enabled"`
	KafkaBrokers []string `yaml:"kafka_brokers" validate:"required_if=KafkaEnabled true,dive,required"`
	KafkaTopic   string   `yaml:"kafka_topic" validate:"required_if=KafkaEnabled true"`

	// Mapbox coverage labeling.
	MapboxToken           string        `yaml:"mapbox_token" validate:"required_if=MapboxEnabled true"`
	MapboxEnabled         bool          `yaml:"mapbox_enabled"`
	MapboxTimeout         time.Duration `yaml:"mapbox_timeout" validate:"gt=0"`
	MapboxCacheSize       int           `yaml:"mapbox_cache_size" validate:"min=1"`
	MapboxBreakerFailures int           `yaml:"mapbox_breaker_failures" validate:"min=1"`
	MapboxBreakerCooldown time.Duration `yaml:"mapbox_breaker_cooldown" validate:"gt=0"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

func defaults() Config {
	return Config{
		VesselFiles:     []string{"s_data/AIS.txt", "s_data/AIS.csv"},
		AircraftFiles:   []string{"s_data/ADSB.jsonl", "s_data/ADSB.csv"},
		CachePath:       "data_cache/processed_data.json",
		MaxDataAge:      24 * time.Hour,
		DecodeCacheSize: 10000,

		HTTPAddr:        ":8080",
		LogLevel:        "info",
		LogFormat:       "json",
		ShutdownTimeout: 10 * time.Second,

		KafkaBrokers: []string{"localhost:9092"},
		KafkaTopic:   "telemetry-records",

		MapboxTimeout:         5 * time.Second,
		MapboxCacheSize:       1000,
		MapboxBreakerFailures: 5,
		MapboxBreakerCooldown: 30 * time.Second,
	}
}

// Load reads configuration, applying defaults where unset.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read CONFIG_PATH: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse CONFIG_PATH %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := getValidator().Struct(&cfg); err != nil {
		return nil, describe(err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v, ok := lookup("VESSEL_FILES"); ok {
		c.VesselFiles = ParseList(v)
	}
	if v, ok := lookup("AIRCRAFT_FILES"); ok {
		c.AircraftFiles = ParseList(v)
	}
	c.CachePath = envOrDefault("CACHE_PATH", c.CachePath)
	c.HTTPAddr = envOrDefault("HTTP_ADDR", c.HTTPAddr)
	c.LogLevel = strings.ToLower(envOrDefault("LOG_LEVEL", c.LogLevel))
	c.LogFormat = strings.ToLower(envOrDefault("LOG_FORMAT", c.LogFormat))
	c.KafkaTopic = envOrDefault("KAFKA_TOPIC", c.KafkaTopic)
	if v, ok := lookup("KAFKA_BROKERS"); ok {
		c.KafkaBrokers = ParseList(v)
	}

	var err error
	if c.MaxDataAge, err = durationEnv("MAX_DATA_AGE", c.MaxDataAge); err != nil {
		return err
	}
	if c.ShutdownTimeout, err = durationEnv("SHUTDOWN_TIMEOUT", c.ShutdownTimeout); err != nil {
		return err
	}
	if c.MapboxTimeout, err = durationEnv("MAPBOX_TIMEOUT", c.MapboxTimeout); err != nil {
		return err
	}
	if c.MapboxBreakerCooldown, err = durationEnv("MAPBOX_BREAKER_COOLDOWN", c.MapboxBreakerCooldown); err != nil {
		return err
	}
	if c.DecodeCacheSize, err = intEnv("DECODE_CACHE_SIZE", c.DecodeCacheSize); err != nil {
		return err
	}
	if c.MapboxCacheSize, err = intEnv("MAPBOX_CACHE_SIZE", c.MapboxCacheSize); err != nil {
		return err
	}
	if c.MapboxBreakerFailures, err = intEnv("MAPBOX_BREAKER_FAILURES", c.MapboxBreakerFailures); err != nil {
		return err
	}
	if c.KafkaEnabled, err = boolEnv("KAFKA_ENABLED", c.KafkaEnabled); err != nil {
		return err
	}

	// A token alone enables labeling; MAPBOX_ENABLED overrides either way.
	c.MapboxToken = envOrDefault("MAPBOX_TOKEN", c.MapboxToken)
	if _, set := lookup("MAPBOX_TOKEN"); set && c.MapboxToken != "" {
		c.MapboxEnabled = true
	}
	if c.MapboxEnabled, err = boolEnv("MAPBOX_ENABLED", c.MapboxEnabled); err != nil {
		return err
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func envOrDefault(key, def string) string {
	if v, ok := lookup(key); ok {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v, ok := lookup(key)
	if !ok {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	v, ok := lookup(key)
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

func boolEnv(key string, def bool) (bool, error) {
	v, ok := lookup(key)
	if !ok {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %q", key, v)
	}
	return b, nil
}

// ParseList splits a comma-separated list, dropping empty entries.
func ParseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fe.Field() + " failed " + fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		msgs = append(msgs, msg)
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
