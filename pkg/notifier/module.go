package notifier

import (
	"github.com/EvanCNavarro/invela/internal/commands"
	"github.com/EvanCNavarro/invela/internal/di"
	"github.com/EvanCNavarro/invela/internal/realtime"
	"github.com/EvanCNavarro/invela/internal/relay"
	"github.com/EvanCNavarro/invela/pkg/config"
	"github.com/EvanCNavarro/invela/pkg/interfaces/broadcaster"
	"github.com/EvanCNavarro/invela/pkg/interfaces/logger"
	"github.com/EvanCNavarro/invela/pkg/storage"
)

// ModuleOptions configure the notifier module facade.
type ModuleOptions struct {
	Config      config.Config
	Storage     storage.Providers
	Logger      logger.Logger
	Broadcaster broadcaster.Broadcaster
}

// Module bundles the container and exposes high-level accessors.
type Module struct {
	container *di.Container
	manager   *Manager
	commands  *commands.Catalog
}

// NewModule assembles repositories, the realtime core, the notifier
// manager, and the maintenance commands. The manager and catalog are
// built here, on top of the container's broadcaster, so the container
// stays a pure infrastructure graph.
func NewModule(opts ModuleOptions) (*Module, error) {
	container, err := di.New(di.Options{
		Config:      opts.Config,
		Storage:     opts.Storage,
		Logger:      opts.Logger,
		Broadcaster: opts.Broadcaster,
	})
	if err != nil {
		return nil, err
	}

	mgr, err := New(Dependencies{
		Broadcaster: container.Broadcaster,
		Logger:      container.Logger,
	})
	if err != nil {
		container.Close()
		return nil, err
	}

	catalog, err := commands.NewCatalog(commands.Dependencies{
		Companies: container.Storage.Companies,
		Users:     container.Storage.Users,
		Tasks:     container.Storage.Tasks,
		Notifier:  mgr,
		Logger:    container.Logger,
	})
	if err != nil {
		container.Close()
		return nil, err
	}

	return &Module{container: container, manager: mgr, commands: catalog}, nil
}

// Manager returns the producer facade.
func (m *Module) Manager() *Manager {
	if m == nil {
		return nil
	}
	return m.manager
}

// Registry returns the connection registry.
func (m *Module) Registry() *realtime.Registry {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Registry
}

// Hub returns the websocket transport.
func (m *Module) Hub() *realtime.Hub {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Hub
}

// Broadcaster returns the authoritative broadcaster.
func (m *Module) Broadcaster() broadcaster.Broadcaster {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Broadcaster
}

// Commands returns the maintenance command catalog.
func (m *Module) Commands() *commands.Catalog {
	if m == nil {
		return nil
	}
	return m.commands
}

// Relay returns the cross-instance subscriber, nil when the relay is off.
func (m *Module) Relay() *relay.Subscriber {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Relay
}

// Storage returns the repository providers.
func (m *Module) Storage() storage.Providers {
	if m == nil || m.container == nil {
		return storage.Providers{}
	}
	return m.container.Storage
}

// Close tears down connections and releases container resources.
func (m *Module) Close() error {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Close()
}
