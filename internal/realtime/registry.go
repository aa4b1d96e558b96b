package realtime

import (
	"sync"

	"github.com/EvanCNavarro/invela/pkg/interfaces/logger"
	"github.com/google/uuid"
)

// Conn is one writable client connection tracked by the registry. The
// transport (websocket client, test double) owns the underlying socket;
// the registry only needs an identity, a write path, and a teardown hook.
type Conn interface {
	ID() string
	Send(data []byte) error
	Close()
}

type entry struct {
	conn      Conn
	companyID uuid.UUID
	userID    uuid.UUID
}

// Registry tracks live connections and their company scope. Connections
// join unscoped on upgrade and gain a company once the client
// authenticates; only scoped connections receive company events.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	logger  logger.Logger
}

// NewRegistry builds an empty registry.
func NewRegistry(lgr logger.Logger) *Registry {
	if lgr == nil {
		lgr = &logger.Nop{}
	}
	return &Registry{
		entries: make(map[string]*entry),
		logger:  lgr,
	}
}

// Register adds a connection with no company scope. Registering an id that
// is already present replaces the previous connection.
func (r *Registry) Register(conn Conn) {
	if conn == nil {
		return
	}
	r.mu.Lock()
	r.entries[conn.ID()] = &entry{conn: conn}
	total := len(r.entries)
	r.mu.Unlock()
	r.logger.Debug("connection registered",
		logger.Field{Key: "conn_id", Value: conn.ID()},
		logger.Field{Key: "total", Value: total})
}

// Attach binds a registered connection to a company and user. Attaching an
// unknown id is a silent no-op; the connection may already have gone away.
func (r *Registry) Attach(id string, companyID, userID uuid.UUID) {
	r.mu.Lock()
	ent, ok := r.entries[id]
	if ok {
		ent.companyID = companyID
		ent.userID = userID
	}
	r.mu.Unlock()
	if !ok {
		r.logger.Debug("attach skipped for unknown connection",
			logger.Field{Key: "conn_id", Value: id})
		return
	}
	r.logger.Debug("connection attached",
		logger.Field{Key: "conn_id", Value: id},
		logger.Field{Key: "company_id", Value: companyID.String()})
}

// Unregister removes a connection. Unknown ids are ignored so transports
// can call this from every teardown path without coordination.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	_, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	total := len(r.entries)
	r.mu.Unlock()
	if ok {
		r.logger.Debug("connection unregistered",
			logger.Field{Key: "conn_id", Value: id},
			logger.Field{Key: "total", Value: total})
	}
}

// FindByCompany returns every connection attached to the given company.
// Unscoped connections never match.
func (r *Registry) FindByCompany(companyID uuid.UUID) []Conn {
	if companyID == uuid.Nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var conns []Conn
	for _, ent := range r.entries {
		if ent.companyID == companyID {
			conns = append(conns, ent.conn)
		}
	}
	return conns
}

// Len reports the number of tracked connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// CloseAll drops every connection and closes each one. Used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*entry)
	r.mu.Unlock()
	for _, ent := range entries {
		ent.conn.Close()
	}
	if len(entries) > 0 {
		r.logger.Info("closed all connections",
			logger.Field{Key: "count", Value: len(entries)})
	}
}
