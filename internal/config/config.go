package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ServerConfig is the instance metadata echoed by the HTTP handlers.
// It is built once at startup and never mutated afterwards.
type ServerConfig struct {
	ProjectName string
	Environment string
	InstanceID  string
	Region      string
}

// Config carries ServerConfig plus process settings. RateLimit is in
// requests per second per client IP; 0 leaves the informational routes
// unthrottled.
type Config struct {
	Server     ServerConfig
	ListenAddr string
	TrustProxy bool
	RateLimit  float64
	RateBurst  int
	LogLevel   string
	ConfigFile string
}

// fileConfig mirrors the optional YAML file. Pointers distinguish an absent
// key from an explicit zero.
type fileConfig struct {
	ProjectName string   `yaml:"project_name"`
	Environment string   `yaml:"environment"`
	InstanceID  string   `yaml:"instance_id"`
	Region      string   `yaml:"region"`
	TrustProxy  *bool    `yaml:"trust_proxy"`
	RateLimit   *float64 `yaml:"rate_limit_rps"`
	RateBurst   *int     `yaml:"rate_limit_burst"`
	LogLevel    string   `yaml:"log_level"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			ProjectName: "projeto-vm",
			Environment: "dev",
			InstanceID:  "local",
			Region:      "local",
		},
		ListenAddr: ":3000",
		TrustProxy: false,
		RateLimit:  0,
		RateBurst:  200,
		LogLevel:   "info",
	}
}

// Load builds the configuration from defaults, then CONFIG_FILE (if set),
// then environment variables. Empty variables are treated as unset.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		cfg.ConfigFile = path
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	setString(&cfg.Server.ProjectName, "PROJECT_NAME")
	setString(&cfg.Server.Environment, "ENVIRONMENT")
	setString(&cfg.Server.InstanceID, "INSTANCE_ID")
	setString(&cfg.Server.Region, "REGION")
	setString(&cfg.LogLevel, "LOG_LEVEL")

	if v := os.Getenv("TRUST_PROXY"); v != "" {
		cfg.TrustProxy = v == "true"
	}

	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("parse RATE_LIMIT_RPS: %w", err)
		}
		cfg.RateLimit = rps
	}

	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		burst, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse RATE_LIMIT_BURST: %w", err)
		}
		cfg.RateBurst = burst
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.ProjectName != "" {
		c.Server.ProjectName = fc.ProjectName
	}
	if fc.Environment != "" {
		c.Server.Environment = fc.Environment
	}
	if fc.InstanceID != "" {
		c.Server.InstanceID = fc.InstanceID
	}
	if fc.Region != "" {
		c.Server.Region = fc.Region
	}
	if fc.LogLevel != "" {
		c.LogLevel = fc.LogLevel
	}
	if fc.TrustProxy != nil {
		c.TrustProxy = *fc.TrustProxy
	}
	if fc.RateLimit != nil {
		c.RateLimit = *fc.RateLimit
	}
	if fc.RateBurst != nil {
		c.RateBurst = *fc.RateBurst
	}
	return nil
}

func (c *Config) validate() error {
	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit must not be negative, got %v", c.RateLimit)
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		return fmt.Errorf("rate limit burst must be at least 1, got %d", c.RateBurst)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
