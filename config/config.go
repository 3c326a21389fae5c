package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultJWTSecret = "food_ordering_super_secret_2024"

// Config is the process configuration. Values come from defaults, then the
// optional YAML file named by CONFIG_FILE, then the environment (and .env).
type Config struct {
	Port               string              `yaml:"port"`
	MetricsPort        string              `yaml:"metrics_port"`
	GinMode            string              `yaml:"gin_mode"`
	DBPath             string              `yaml:"db_path"`
	DBMaxOpenConns     int                 `yaml:"db_max_open_conns"`
	JWTSecret          string              `yaml:"jwt_secret"`
	TokenTTL           time.Duration       `yaml:"token_ttl"`
	LogLevel           string              `yaml:"log_level"`
	LogFormat          string              `yaml:"log_format"`
	SubscriptionBuffer int                 `yaml:"subscription_buffer"`
	SeedFile           string              `yaml:"seed_file"`
	Access             map[string][]string `yaml:"access"`
}

// Defaults returns the configuration used when nothing is overridden
func Defaults() Config {
	return Config{
		Port:               "8080",
		MetricsPort:        "9090",
		GinMode:            "debug",
		DBPath:             "food_ordering.db",
		DBMaxOpenConns:     1,
		JWTSecret:          defaultJWTSecret,
		TokenTTL:           24 * time.Hour,
		LogLevel:           "info",
		LogFormat:          "text",
		SubscriptionBuffer: 16,
		Access:             DefaultAccess(),
	}
}

// Load reads .env, the optional config file and the environment
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug(".env not loaded", "error", err)
	}

	cfg := Defaults()
	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return cfg, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var file Config
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	c.merge(file)
	return nil
}

// merge copies every non-zero field of o into c. Access entries replace the
// default entry for the same operation.
func (c *Config) merge(o Config) {
	if o.Port != "" {
		c.Port = o.Port
	}
	if o.MetricsPort != "" {
		c.MetricsPort = o.MetricsPort
	}
	if o.GinMode != "" {
		c.GinMode = o.GinMode
	}
	if o.DBPath != "" {
		c.DBPath = o.DBPath
	}
	if o.DBMaxOpenConns > 0 {
		c.DBMaxOpenConns = o.DBMaxOpenConns
	}
	if o.JWTSecret != "" {
		c.JWTSecret = o.JWTSecret
	}
	if o.TokenTTL > 0 {
		c.TokenTTL = o.TokenTTL
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if o.LogFormat != "" {
		c.LogFormat = o.LogFormat
	}
	if o.SubscriptionBuffer > 0 {
		c.SubscriptionBuffer = o.SubscriptionBuffer
	}
	if o.SeedFile != "" {
		c.SeedFile = o.SeedFile
	}
	for op, roles := range o.Access {
		c.Access[op] = roles
	}
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.MetricsPort = getEnv("METRICS_PORT", c.MetricsPort)
	c.GinMode = getEnv("GIN_MODE", c.GinMode)
	c.DBPath = getEnv("DB_PATH", c.DBPath)
	c.DBMaxOpenConns = getIntEnv("DB_MAX_OPEN_CONNS", c.DBMaxOpenConns)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.TokenTTL = getDurationEnv("TOKEN_TTL", c.TokenTTL, time.Hour)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.SubscriptionBuffer = getIntEnv("SUBSCRIPTION_BUFFER", c.SubscriptionBuffer)
	c.SeedFile = getEnv("SEED_FILE", c.SeedFile)
}

// Validate rejects configurations the server cannot start with
func (c Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("port is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt secret is required"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("token ttl must be positive"))
	}
	if c.DBMaxOpenConns <= 0 {
		errs = append(errs, errors.New("db max open conns must be positive"))
	}
	if c.SubscriptionBuffer <= 0 {
		errs = append(errs, errors.New("subscription buffer must be positive"))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// UsesDefaultSecret reports whether the built-in development secret is active
func (c Config) UsesDefaultSecret() bool {
	return c.JWTSecret == defaultJWTSecret
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration, unit time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return fallback
}
