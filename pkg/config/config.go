package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/goliatone/go-config/cfgx"
)

// Config captures platform-level configuration knobs. Feature packages
// (server, realtime, relay) pull from these nested structs.
type Config struct {
	Server      ServerConfig      `mapstructure:"server" json:"server"`
	Persistence PersistenceConfig `mapstructure:"persistence" json:"persistence"`
	Auth        AuthConfig        `mapstructure:"auth" json:"auth"`
	Realtime    RealtimeConfig    `mapstructure:"realtime" json:"realtime"`
	Relay       RelayConfig       `mapstructure:"relay" json:"relay"`
	Webhook     WebhookConfig     `mapstructure:"webhook" json:"webhook"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" json:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" json:"shutdown_timeout"`
}

// PersistenceConfig selects the storage backend.
type PersistenceConfig struct {
	Driver string `mapstructure:"driver" json:"driver"`
	DSN    string `mapstructure:"dsn" json:"dsn"`
}

// AuthConfig controls session cookies.
type AuthConfig struct {
	CookieName string        `mapstructure:"cookie_name" json:"cookie_name"`
	SessionTTL time.Duration `mapstructure:"session_ttl" json:"session_ttl"`
}

// RealtimeConfig selects the authoritative broadcaster implementation and
// tunes the websocket layer. Enabled is a pointer so an explicit
// `enabled: false` survives default merging; unset means on.
type RealtimeConfig struct {
	Enabled        *bool         `mapstructure:"enabled" json:"enabled"`
	Implementation string        `mapstructure:"implementation" json:"implementation"`
	PingInterval   time.Duration `mapstructure:"ping_interval" json:"ping_interval"`
}

// IsEnabled reports whether the realtime layer should run.
func (c RealtimeConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// RelayConfig enables cross-instance fan-out over redis.
type RelayConfig struct {
	Enabled bool   `mapstructure:"enabled" json:"enabled"`
	Addr    string `mapstructure:"addr" json:"addr"`
	Channel string `mapstructure:"channel" json:"channel"`
}

// WebhookConfig enables the outbound HTTP event sink.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled" json:"enabled"`
	URL     string `mapstructure:"url" json:"url"`
}

// Broadcaster implementation names accepted by realtime.implementation.
const (
	ImplementationHub = "hub"
	ImplementationNop = "nop"
)

// Persistence driver names accepted by persistence.driver.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Defaults returns the baseline configuration.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Persistence: PersistenceConfig{
			Driver: DriverMemory,
		},
		Auth: AuthConfig{
			CookieName: "invela_session",
			SessionTTL: 24 * time.Hour,
		},
		Realtime: RealtimeConfig{
			Enabled:        boolPtr(true),
			Implementation: ImplementationHub,
			PingInterval:   30 * time.Second,
		},
		Relay: RelayConfig{
			Channel: "invela:realtime",
		},
		Webhook: WebhookConfig{},
	}
}

// Validate ensures required fields are present and sane.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	switch c.Persistence.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Persistence.DSN == "" {
			return errors.New("persistence.dsn is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown persistence driver %q", c.Persistence.Driver)
	}
	switch c.Realtime.Implementation {
	case ImplementationHub, ImplementationNop:
	default:
		return fmt.Errorf("unknown realtime implementation %q", c.Realtime.Implementation)
	}
	if c.Relay.Enabled && c.Relay.Addr == "" {
		return errors.New("relay.addr is required when the relay is enabled")
	}
	if c.Webhook.Enabled && c.Webhook.URL == "" {
		return errors.New("webhook.url is required when the webhook sink is enabled")
	}
	return nil
}

// Load decodes arbitrary input (struct, map, cfg struct) using cfgx helpers.
// While cfgx.Build still returns zero values, we fallback to a lightweight
// decoder to keep smoke tests meaningful.
func Load(input any, opts ...LoadOption) (Config, error) {
	settings := loadOptions{}
	for _, opt := range opts {
		opt(&settings)
	}

	cfg, err := cfgx.Build(input, settings.buildOpts...)
	if err != nil {
		return Config{}, err
	}

	if isZero(cfg) {
		if err := decodeFallback(input, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg = cfg.withDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadOption lets callers amend cfgx build options.
type LoadOption func(*loadOptions)

type loadOptions struct {
	buildOpts []cfgx.Option[Config]
}

// WithBuildOptions forwards cfgx options (duration hooks, preprocessors, etc.).
func WithBuildOptions(opts ...cfgx.Option[Config]) LoadOption {
	return func(lo *loadOptions) {
		lo.buildOpts = append(lo.buildOpts, opts...)
	}
}

func (c Config) withDefaults() Config {
	defaults := Defaults()

	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = defaults.Server.ShutdownTimeout
	}
	if c.Persistence.Driver == "" {
		c.Persistence.Driver = defaults.Persistence.Driver
	}
	if c.Auth.CookieName == "" {
		c.Auth.CookieName = defaults.Auth.CookieName
	}
	if c.Auth.SessionTTL == 0 {
		c.Auth.SessionTTL = defaults.Auth.SessionTTL
	}
	if c.Realtime.Enabled == nil {
		c.Realtime.Enabled = defaults.Realtime.Enabled
	}
	if c.Realtime.Implementation == "" {
		c.Realtime.Implementation = defaults.Realtime.Implementation
	}
	if c.Realtime.PingInterval == 0 {
		c.Realtime.PingInterval = defaults.Realtime.PingInterval
	}
	if c.Relay.Channel == "" {
		c.Relay.Channel = defaults.Relay.Channel
	}
	return c
}

func boolPtr(v bool) *bool { return &v }

func isZero(cfg Config) bool {
	return reflect.DeepEqual(cfg, Config{})
}

func decodeFallback(input any, cfg *Config) error {
	switch v := input.(type) {
	case nil:
		return nil
	case Config:
		*cfg = v
		return nil
	case *Config:
		if v != nil {
			*cfg = *v
		}
		return nil
	case map[string]any:
		return decodeMap(v, cfg)
	default:
		return fmt.Errorf("unsupported config input type: %T", input)
	}
}

func decodeMap(input map[string]any, cfg *Config) error {
	if input == nil {
		return nil
	}
	payload, err := json.Marshal(input)
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, cfg)
}
