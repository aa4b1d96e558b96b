package di

import (
	"reflect"

	"github.com/EvanCNavarro/invela/internal/realtime"
	"github.com/EvanCNavarro/invela/internal/relay"
	"github.com/EvanCNavarro/invela/pkg/config"
	"github.com/EvanCNavarro/invela/pkg/interfaces/broadcaster"
	"github.com/EvanCNavarro/invela/pkg/interfaces/logger"
	"github.com/EvanCNavarro/invela/pkg/sinks/webhook"
	"github.com/EvanCNavarro/invela/pkg/storage"
	"github.com/redis/go-redis/v9"
)

// Options configure the DI container. Every field is optional; zero values
// fall back to memory storage, a nop logger, and the configured defaults.
type Options struct {
	Config  config.Config
	Storage storage.Providers
	Logger  logger.Logger

	// Broadcaster overrides the authoritative broadcaster entirely. Used
	// by tests and hosts that bring their own fan-out.
	Broadcaster broadcaster.Broadcaster
}

// Container wires storage and the realtime core into one graph. Producer
// facades layer on top of the Broadcaster it exposes.
type Container struct {
	Config      config.Config
	Storage     storage.Providers
	Logger      logger.Logger
	Registry    *realtime.Registry
	Realtime    *realtime.Service
	Hub         *realtime.Hub
	Broadcaster broadcaster.Broadcaster
	Relay       *relay.Subscriber

	redis *redis.Client
}

func isZeroConfig(cfg config.Config) bool {
	return reflect.ValueOf(cfg).IsZero()
}

// New constructs the container using the supplied options.
func New(opts Options) (*Container, error) {
	cfg := opts.Config
	if isZeroConfig(cfg) {
		cfg = config.Defaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	providers := opts.Storage
	if providers.Companies == nil {
		providers = storage.NewMemoryProviders()
	}

	lgr := opts.Logger
	if lgr == nil {
		lgr = &logger.Nop{}
	}

	c := &Container{
		Config:  cfg,
		Storage: providers,
		Logger:  lgr,
	}

	c.Registry = realtime.NewRegistry(lgr)
	c.Hub = realtime.NewHub(c.Registry, lgr, realtime.WithPingInterval(cfg.Realtime.PingInterval))

	var local broadcaster.Broadcaster
	switch cfg.Realtime.Implementation {
	case config.ImplementationNop:
		local = &broadcaster.Nop{}
	default:
		svc, err := realtime.New(realtime.Dependencies{
			Registry: c.Registry,
			Tasks:    providers.Tasks,
			Logger:   lgr,
		})
		if err != nil {
			return nil, err
		}
		c.Realtime = svc
		local = svc
	}

	authoritative := opts.Broadcaster
	if authoritative == nil {
		sinks := []broadcaster.Broadcaster{local}
		if cfg.Relay.Enabled {
			c.redis = redis.NewClient(&redis.Options{Addr: cfg.Relay.Addr})
			pub := relay.NewPublisher(c.redis, cfg.Relay.Channel)
			c.Relay = relay.NewSubscriber(c.redis, cfg.Relay.Channel, local, pub.Origin(), lgr)
			sinks = append(sinks, pub)
		}
		if cfg.Webhook.Enabled {
			sinks = append(sinks, webhook.New(lgr, webhook.WithConfig(webhook.Config{
				URL: cfg.Webhook.URL,
			})))
		}
		authoritative = broadcaster.NewFanout(sinks...)
	}
	c.Broadcaster = authoritative

	return c, nil
}

// Close releases resources owned by the container.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.Registry != nil {
		c.Registry.CloseAll()
	}
	if c.redis != nil {
		return c.redis.Close()
	}
	return nil
}
