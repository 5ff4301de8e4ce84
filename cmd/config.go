package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/icalmcp/internal/config"
)

// configFlags holds the configuration flags shared by the serve and refresh
// commands. Precedence is flags over environment variables over the config
// file.
type configFlags struct {
	configFile      string
	feeds           string
	refreshInterval int
	cacheEnabled    bool
	cacheKeyPrefix  string
	cacheTTL        int
	valkeyURL       string
	valkeyPassword  string
	valkeyTLS       bool
	valkeyCAFile    string
	valkeyDB        int
}

func (f *configFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configFile, "config", "", "Path to a YAML configuration file")
	cmd.Flags().StringVar(&f.feeds, "feeds", "", "Calendar feeds as a JSON array, semicolon-separated URLs, or name=url pairs. Can also use ICAL_FEED_CONFIGS env var.")
	cmd.Flags().IntVar(&f.refreshInterval, "refresh-interval", 0, "Feed refresh interval in minutes (default: 60). Can also use REFRESH_INTERVAL env var.")
	cmd.Flags().BoolVar(&f.cacheEnabled, "cache-enabled", true, "Enable the Valkey query cache when a Valkey URL is configured")
	cmd.Flags().StringVar(&f.cacheKeyPrefix, "cache-key-prefix", "", "Prefix for all cache keys (default: ical:). Can also use VALKEY_KEY_PREFIX env var.")
	cmd.Flags().IntVar(&f.cacheTTL, "cache-ttl", 0, "Cache TTL for event query results in minutes (default: 5). Can also use CACHE_TTL env var.")
	cmd.Flags().StringVar(&f.valkeyURL, "valkey-url", "", "Valkey server address (e.g., valkey.namespace.svc:6379). Can also use VALKEY_URL env var.")
	cmd.Flags().StringVar(&f.valkeyPassword, "valkey-password", "", "Valkey authentication password. Can also use VALKEY_PASSWORD env var.")
	cmd.Flags().BoolVar(&f.valkeyTLS, "valkey-tls", false, "Enable TLS for Valkey connections. Can also use VALKEY_TLS_ENABLED env var.")
	cmd.Flags().StringVar(&f.valkeyCAFile, "valkey-ca-file", "", "Path to a custom CA certificate for Valkey TLS. Can also use VALKEY_TLS_CA_FILE env var.")
	cmd.Flags().IntVar(&f.valkeyDB, "valkey-db", 0, "Valkey database number. Can also use VALKEY_DB env var.")
}

// load assembles the effective configuration from the config file, the
// environment and the command-line flags, in increasing order of precedence.
func (f *configFlags) load() (config.Config, error) {
	var cfg config.Config

	if f.configFile != "" {
		fileCfg, err := config.Load(f.configFile)
		if err != nil {
			return cfg, err
		}
		cfg = fileCfg
	}

	envCfg, err := config.FromEnv()
	if err != nil {
		return cfg, err
	}
	cfg = config.Merge(cfg, envCfg)

	flagCfg, err := f.overlay()
	if err != nil {
		return cfg, err
	}
	cfg = config.Merge(cfg, flagCfg)

	// These two apply even when the Valkey URL came from the env or file.
	if f.cacheKeyPrefix != "" {
		cfg.Cache.KeyPrefix = f.cacheKeyPrefix
	}
	if f.cacheTTL > 0 {
		cfg.Cache.TTLMinutes = f.cacheTTL
	}

	if !f.cacheEnabled {
		cfg.Cache = config.CacheConfig{}
	}

	return cfg, nil
}

// overlay builds a partial configuration from the flag values alone.
func (f *configFlags) overlay() (config.Config, error) {
	var cfg config.Config

	if f.feeds != "" {
		feeds, err := config.ParseFeedEnv(f.feeds)
		if err != nil {
			return cfg, fmt.Errorf("invalid --feeds value: %w", err)
		}
		cfg.Feeds = feeds
	}

	cfg.RefreshIntervalMinutes = f.refreshInterval

	if f.valkeyURL != "" {
		cfg.Cache = config.CacheConfig{
			URL:        f.valkeyURL,
			Password:   f.valkeyPassword,
			TLSEnabled: f.valkeyTLS,
			TLSCAFile:  f.valkeyCAFile,
			KeyPrefix:  f.cacheKeyPrefix,
			DB:         f.valkeyDB,
			TTLMinutes: f.cacheTTL,
		}
	}

	return cfg, nil
}
