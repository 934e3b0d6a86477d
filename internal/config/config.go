// Package config loads run settings from defaults, an optional YAML file, a
// .env file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/deusflow/headlinegroups/internal/cluster"
	"github.com/deusflow/headlinegroups/internal/news"
	"github.com/deusflow/headlinegroups/internal/rss"
	"github.com/deusflow/headlinegroups/internal/scraper"
)

type Config struct {
	// Source settings
	BaseURL  string
	Topic    string
	LastWeek bool
	Feeds    []rss.Feed // when set, feeds replace the aggregator

	// Clustering policy
	Thresholds         map[news.Mode]float64
	MinGroupSize       int
	MinSourceDiversity int
	FoldNearDuplicates bool // week modes only, off by default

	// Image settings
	ImagesEnabled    bool
	ImageTimeout     time.Duration
	ImageMaxAttempts int
	ImageMaxFetches  int // per run, 0 = unlimited
	ImageConcurrency int
	TrustedOutlets   []string

	// App settings
	Debug          bool
	RequestTimeout time.Duration
	RetryAttempts  int
	RetryDelay     time.Duration
	UserAgent      string
	ConfigFile     string

	// Logging
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int

	// Monitoring
	EnableMonitoring bool
	MonitoringPort   string
}

// fileConfig mirrors the YAML file layout.
type fileConfig struct {
	BaseURL            string             `yaml:"base_url"`
	Thresholds         map[string]float64 `yaml:"thresholds"`
	MinGroupSize       int                `yaml:"min_group_size"`
	MinSourceDiversity int                `yaml:"min_source_diversity"`
	TrustedOutlets     []string           `yaml:"trusted_outlets"`
	Feeds              []rss.Feed         `yaml:"feeds"`
	UserAgent          string             `yaml:"user_agent"`
	FoldNearDuplicates *bool              `yaml:"fold_near_duplicates"`
}

// DefaultConfigFile is where Load looks when CONFIG_FILE is not set.
func DefaultConfigFile() string {
	return filepath.Join(xdg.ConfigHome, "headlinegroups", "config.yaml")
}

func defaults() *Config {
	policy := cluster.DefaultPolicy()
	return &Config{
		BaseURL:            scraper.DefaultBaseURL,
		Thresholds:         policy.Thresholds,
		MinGroupSize:       policy.MinGroupSize,
		MinSourceDiversity: policy.MinSourceDiversity,
		ImagesEnabled:      true,
		ImageTimeout:       8 * time.Second,
		ImageMaxAttempts:   3,
		ImageConcurrency:   4,
		RequestTimeout:     30 * time.Second,
		RetryAttempts:      3,
		RetryDelay:         2 * time.Second,
		UserAgent:          "Mozilla/5.0 (compatible; headlinegroups/1.0)",
		LogMaxSizeMB:       10,
		LogMaxBackups:      3,
		LogMaxAgeDays:      28,
		MonitoringPort:     "8080",
	}
}

func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := defaults()

	cfg.ConfigFile = getEnvOrDefault("CONFIG_FILE", "")
	path, explicit := cfg.ConfigFile, cfg.ConfigFile != ""
	if !explicit {
		path = DefaultConfigFile()
	}
	if err := cfg.applyFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	} else {
		cfg.ConfigFile = path
	}

	cfg.applyEnv()
	return cfg, cfg.Validate()
}

// LoadFile applies a YAML file on top of the current settings.
func (c *Config) LoadFile(path string) error {
	if err := c.applyFile(path); err != nil {
		return err
	}
	c.ConfigFile = path
	return c.Validate()
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	if fc.BaseURL != "" {
		c.BaseURL = fc.BaseURL
	}
	if len(fc.Thresholds) > 0 {
		merged := make(map[news.Mode]float64, len(c.Thresholds))
		for m, t := range c.Thresholds {
			merged[m] = t
		}
		for name, t := range fc.Thresholds {
			m, err := news.ParseMode(name)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			merged[m] = t
		}
		c.Thresholds = merged
	}
	if fc.MinGroupSize > 0 {
		c.MinGroupSize = fc.MinGroupSize
	}
	if fc.MinSourceDiversity > 0 {
		c.MinSourceDiversity = fc.MinSourceDiversity
	}
	if len(fc.TrustedOutlets) > 0 {
		c.TrustedOutlets = fc.TrustedOutlets
	}
	if len(fc.Feeds) > 0 {
		c.Feeds = fc.Feeds
	}
	if fc.UserAgent != "" {
		c.UserAgent = fc.UserAgent
	}
	if fc.FoldNearDuplicates != nil {
		c.FoldNearDuplicates = *fc.FoldNearDuplicates
	}
	return nil
}

func (c *Config) applyEnv() {
	c.BaseURL = getEnvOrDefault("BASE_URL", c.BaseURL)
	c.Topic = getEnvOrDefault("TOPIC", c.Topic)
	c.UserAgent = getEnvOrDefault("USER_AGENT", c.UserAgent)
	c.LogFile = getEnvOrDefault("LOG_FILE", c.LogFile)
	c.MonitoringPort = getEnvOrDefault("MONITORING_PORT", c.MonitoringPort)

	c.LastWeek = getEnvBoolOrDefault("LAST_WEEK", c.LastWeek)
	c.ImagesEnabled = getEnvBoolOrDefault("IMAGES_ENABLED", c.ImagesEnabled)
	c.Debug = getEnvBoolOrDefault("DEBUG", c.Debug)
	c.EnableMonitoring = getEnvBoolOrDefault("ENABLE_HTTP_MONITORING", c.EnableMonitoring)
	c.FoldNearDuplicates = getEnvBoolOrDefault("FOLD_NEAR_DUPLICATES", c.FoldNearDuplicates)

	c.RequestTimeout = getEnvDurationOrDefault("REQUEST_TIMEOUT", c.RequestTimeout)
	c.RetryDelay = getEnvDurationOrDefault("RETRY_DELAY", c.RetryDelay)
	c.ImageTimeout = getEnvDurationOrDefault("IMAGE_TIMEOUT", c.ImageTimeout)

	if v := getEnvIntOrDefault("RETRY_ATTEMPTS", c.RetryAttempts); v > 0 {
		c.RetryAttempts = v
	}
	if v := getEnvIntOrDefault("IMAGE_MAX_ATTEMPTS", c.ImageMaxAttempts); v > 0 {
		c.ImageMaxAttempts = v
	}
	if v := getEnvIntOrDefault("IMAGE_MAX_FETCHES", c.ImageMaxFetches); v >= 0 {
		c.ImageMaxFetches = v
	}
	if v := getEnvIntOrDefault("IMAGE_CONCURRENCY", c.ImageConcurrency); v > 0 {
		c.ImageConcurrency = v
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// Durations accept Go syntax ("8s", "1m") or a bare number of seconds.
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// Mode derives the clustering mode from the topic and week switches.
func (c *Config) Mode() news.Mode {
	return news.ModeFor(c.Topic != "", c.LastWeek)
}

// Policy builds the immutable clustering policy.
func (c *Config) Policy() cluster.Policy {
	thresholds := make(map[news.Mode]float64, len(c.Thresholds))
	for m, t := range c.Thresholds {
		thresholds[m] = t
	}
	return cluster.Policy{
		Thresholds:         thresholds,
		MinGroupSize:       c.MinGroupSize,
		MinSourceDiversity: c.MinSourceDiversity,
	}
}

func (c *Config) Validate() error {
	if !scraper.ValidTopic(c.Topic) {
		return fmt.Errorf("unknown topic %q", c.Topic)
	}
	if c.BaseURL == "" && len(c.Feeds) == 0 {
		return fmt.Errorf("BASE_URL or a feed list is required")
	}
	if c.RequestTimeout <= 0 || c.ImageTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return c.Policy().Validate()
}
