package realtime

import (
	"context"
	"errors"

	"github.com/EvanCNavarro/invela/pkg/interfaces/broadcaster"
	"github.com/EvanCNavarro/invela/pkg/interfaces/logger"
	"github.com/EvanCNavarro/invela/pkg/interfaces/store"
)

// Dependencies groups the collaborators required by the broadcast service.
type Dependencies struct {
	Registry *Registry
	Tasks    store.TaskRepository
	Logger   logger.Logger
}

var ErrMissingRegistry = errors.New("realtime: registry is required")

// Service is the in-process broadcaster: it serializes an event once,
// routes it, and writes it to every matching connection. Write failures
// are isolated per connection; a dead socket is unregistered and the
// fan-out continues.
type Service struct {
	registry *Registry
	router   *Router
	logger   logger.Logger
}

var _ broadcaster.Broadcaster = (*Service)(nil)

// New builds the broadcast service.
func New(deps Dependencies) (*Service, error) {
	if deps.Registry == nil {
		return nil, ErrMissingRegistry
	}
	lgr := deps.Logger
	if lgr == nil {
		lgr = &logger.Nop{}
	}
	return &Service{
		registry: deps.Registry,
		router:   NewRouter(deps.Registry, deps.Tasks, lgr),
		logger:   lgr,
	}, nil
}

// Broadcast delivers the event to every connection in its scope and
// returns how many writes succeeded. An empty recipient set is a normal
// outcome, not an error.
func (s *Service) Broadcast(ctx context.Context, event broadcaster.Event) (int, error) {
	data, err := event.Encode()
	if err != nil {
		return 0, err
	}

	conns := s.router.Route(ctx, event)
	if len(conns) == 0 {
		s.logger.Debug("no recipients for event",
			logger.Field{Key: "kind", Value: event.Kind})
		return 0, nil
	}

	delivered := 0
	for _, conn := range conns {
		if err := conn.Send(data); err != nil {
			s.logger.Warn("dropping connection after failed write",
				logger.Field{Key: "conn_id", Value: conn.ID()},
				logger.Field{Key: "kind", Value: event.Kind},
				logger.Field{Key: "error", Value: err.Error()})
			s.registry.Unregister(conn.ID())
			conn.Close()
			continue
		}
		delivered++
	}

	s.logger.Debug("event broadcast",
		logger.Field{Key: "kind", Value: event.Kind},
		logger.Field{Key: "recipients", Value: len(conns)},
		logger.Field{Key: "delivered", Value: delivered})
	return delivered, nil
}
