// Package config loads server configuration from a YAML file and from
// environment variables, including the ICAL_FEED_CONFIGS formats that
// hosting platforms tend to mangle.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// FeedConfig is one calendar feed subscription. Name is optional; a missing
// name is derived from the URL at registration time.
type FeedConfig struct {
	URL  string `yaml:"url" json:"url"`
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
}

// CacheConfig holds the optional Valkey cache connection settings.
type CacheConfig struct {
	URL        string `yaml:"url"`
	Password   string `yaml:"password"`
	TLSEnabled bool   `yaml:"tls_enabled"`
	TLSCAFile  string `yaml:"tls_ca_file"`
	KeyPrefix  string `yaml:"key_prefix"`
	DB         int    `yaml:"db"`

	// TTLMinutes overrides the event query TTL; zero keeps the default.
	TTLMinutes int `yaml:"ttl"`
}

// Config is the full server configuration.
type Config struct {
	Feeds                  []FeedConfig `yaml:"feeds"`
	RefreshIntervalMinutes int          `yaml:"refresh_interval"`
	Cache                  CacheConfig  `yaml:"cache"`
}

// RefreshInterval converts the configured minutes to a duration; zero or
// negative values select the default of one hour.
func (c Config) RefreshInterval() time.Duration {
	if c.RefreshIntervalMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.RefreshIntervalMinutes) * time.Minute
}

// Load reads a YAML configuration file.
func Load(path string) (Config, error) {
	var cfg Config
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// FromEnv builds a configuration from environment variables: ICAL_FEED_CONFIGS,
// REFRESH_INTERVAL (minutes) and the VALKEY_* cache settings.
func FromEnv() (Config, error) {
	var cfg Config

	feeds, err := ParseFeedEnv(os.Getenv("ICAL_FEED_CONFIGS"))
	if err != nil {
		return cfg, err
	}
	cfg.Feeds = feeds

	if v := os.Getenv("REFRESH_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid REFRESH_INTERVAL %q: %w", v, err)
		}
		cfg.RefreshIntervalMinutes = n
	}

	cfg.Cache.URL = os.Getenv("VALKEY_URL")
	cfg.Cache.Password = os.Getenv("VALKEY_PASSWORD")
	cfg.Cache.TLSEnabled = os.Getenv("VALKEY_TLS_ENABLED") == "true"
	cfg.Cache.TLSCAFile = os.Getenv("VALKEY_TLS_CA_FILE")
	cfg.Cache.KeyPrefix = os.Getenv("VALKEY_KEY_PREFIX")
	if v := os.Getenv("CACHE_TTL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid CACHE_TTL %q: %w", v, err)
		}
		cfg.Cache.TTLMinutes = n
	}
	if v := os.Getenv("VALKEY_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid VALKEY_DB %q: %w", v, err)
		}
		cfg.Cache.DB = n
	}

	return cfg, nil
}

// Merge overlays non-zero fields of overlay onto base. Feed lists are
// replaced, not concatenated.
func Merge(base, overlay Config) Config {
	out := base
	if len(overlay.Feeds) > 0 {
		out.Feeds = overlay.Feeds
	}
	if overlay.RefreshIntervalMinutes > 0 {
		out.RefreshIntervalMinutes = overlay.RefreshIntervalMinutes
	}
	if overlay.Cache.URL != "" {
		out.Cache = overlay.Cache
	}
	return out
}
