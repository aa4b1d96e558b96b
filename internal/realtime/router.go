package realtime

import (
	"context"

	"github.com/EvanCNavarro/invela/pkg/interfaces/broadcaster"
	"github.com/EvanCNavarro/invela/pkg/interfaces/logger"
	"github.com/EvanCNavarro/invela/pkg/interfaces/store"
	"github.com/google/uuid"
)

// Router maps an event to its recipient connections. Company events go to
// the connections attached to that company. Task events resolve the task's
// owning company when the event is delivered, not when it was produced, so
// a reassigned task notifies its current owner.
type Router struct {
	registry *Registry
	tasks    store.TaskRepository
	logger   logger.Logger
}

// NewRouter wires a router over the given registry. The task repository is
// optional; without it task-scoped events that carry no company id resolve
// to an empty recipient set.
func NewRouter(registry *Registry, tasks store.TaskRepository, lgr logger.Logger) *Router {
	if lgr == nil {
		lgr = &logger.Nop{}
	}
	return &Router{registry: registry, tasks: tasks, logger: lgr}
}

// Route returns the connections an event should reach. An event with no
// resolvable company scope reaches nobody; that is not an error.
func (r *Router) Route(ctx context.Context, event broadcaster.Event) []Conn {
	companyID := r.resolveCompany(ctx, event)
	if companyID == uuid.Nil {
		return nil
	}
	return r.registry.FindByCompany(companyID)
}

func (r *Router) resolveCompany(ctx context.Context, event broadcaster.Event) uuid.UUID {
	if event.CompanyID != uuid.Nil {
		return event.CompanyID
	}
	if event.TaskID == uuid.Nil || r.tasks == nil {
		return uuid.Nil
	}
	task, err := r.tasks.GetByID(ctx, event.TaskID)
	if err != nil {
		r.logger.Warn("could not resolve task owner, dropping event",
			logger.Field{Key: "kind", Value: event.Kind},
			logger.Field{Key: "task_id", Value: event.TaskID.String()},
			logger.Field{Key: "error", Value: err.Error()})
		return uuid.Nil
	}
	return task.CompanyID
}
