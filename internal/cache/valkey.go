package cache

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/teemow/icalmcp/internal/logging"
)

// ValkeyConfig holds the connection settings for a Valkey-backed cache.
type ValkeyConfig struct {
	// URL is the Valkey server address (e.g., "valkey.namespace.svc:6379")
	URL string

	// Password is the optional password for Valkey authentication
	Password string

	// TLSEnabled enables TLS for Valkey connections
	TLSEnabled bool

	// TLSCAFile is the path to a custom CA certificate file for TLS
	// verification. Use this when Valkey uses certificates signed by a
	// private CA.
	TLSCAFile string

	// KeyPrefix is prepended to every key, namespacing this server's
	// entries on a shared Valkey instance (default: "ical:")
	KeyPrefix string

	// DB is the Valkey database number (default: 0)
	DB int
}

// DefaultKeyPrefix namespaces cache keys when no prefix is configured.
const DefaultKeyPrefix = "ical:"

// Valkey implements Cache on a Valkey server.
type Valkey struct {
	client   valkey.Client
	prefix   string
	logger   *slog.Logger
	recorder Recorder
}

// NewValkey connects to the configured Valkey server. recorder may be nil.
func NewValkey(cfg ValkeyConfig, logger *slog.Logger, recorder Recorder) (*Valkey, error) {
	opt := valkey.ClientOption{
		InitAddress: []string{cfg.URL},
		Password:    cfg.Password,
		SelectDB:    cfg.DB,
	}
	if cfg.TLSEnabled {
		tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12}
		if cfg.TLSCAFile != "" {
			pem, err := os.ReadFile(cfg.TLSCAFile)
			if err != nil {
				return nil, fmt.Errorf("reading Valkey CA file: %w", err)
			}
			pool := x509.NewCertPool()
			if !pool.AppendCertsFromPEM(pem) {
				return nil, fmt.Errorf("no certificates found in %s", cfg.TLSCAFile)
			}
			tlsCfg.RootCAs = pool
		}
		opt.TLSConfig = tlsCfg
	}

	client, err := valkey.NewClient(opt)
	if err != nil {
		return nil, fmt.Errorf("connecting to Valkey at %s: %w", cfg.URL, err)
	}
	logger.Info("connected to Valkey cache", slog.String("address", cfg.URL), slog.Int("db", cfg.DB))

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}

	return &Valkey{client: client, prefix: prefix, logger: logger, recorder: recorder}, nil
}

func (v *Valkey) Get(ctx context.Context, key string) ([]byte, bool, error) {
	key = v.prefix + key
	raw, err := v.client.Do(ctx, v.client.B().Get().Key(key).Build()).AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			v.record(ctx, "get", "miss")
			return nil, false, nil
		}
		v.record(ctx, "get", "error")
		return nil, false, err
	}
	v.record(ctx, "get", "hit")
	return raw, true, nil
}

func (v *Valkey) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	key = v.prefix + key
	cmd := v.client.B().Set().Key(key).Value(valkey.BinaryString(value)).Ex(ttl).Build()
	if err := v.client.Do(ctx, cmd).Error(); err != nil {
		v.record(ctx, "set", "error")
		return err
	}
	v.record(ctx, "set", "success")
	return nil
}

func (v *Valkey) Delete(ctx context.Context, key string) error {
	key = v.prefix + key
	if err := v.client.Do(ctx, v.client.B().Del().Key(key).Build()).Error(); err != nil {
		v.record(ctx, "delete", "error")
		return err
	}
	v.record(ctx, "delete", "success")
	return nil
}

func (v *Valkey) Close() {
	v.client.Close()
	v.logger.Debug("Valkey cache closed", logging.Status(logging.StatusSuccess))
}

func (v *Valkey) record(ctx context.Context, op, outcome string) {
	if v.recorder != nil {
		v.recorder.RecordCacheOp(ctx, op, outcome)
	}
}
