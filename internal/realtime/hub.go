package realtime

import (
	"encoding/json"
	"time"

	"github.com/EvanCNavarro/invela/pkg/interfaces/logger"
	"github.com/google/uuid"
	router "github.com/goliatone/go-router"
)

// Upgrade data keys the HTTP layer stashes before the websocket handshake.
const (
	UpgradeUserIDKey    = "user_id"
	UpgradeCompanyIDKey = "company_id"
)

// Hub owns the websocket side of the realtime layer: it accepts upgraded
// connections, registers them, and runs their read/write pumps. Scope
// identity comes from the session captured at upgrade time, never from
// the client frames themselves.
type Hub struct {
	registry     *Registry
	logger       logger.Logger
	pingInterval time.Duration
}

// HubOption tunes hub behavior.
type HubOption func(*Hub)

// WithPingInterval sets the keepalive ping cadence for accepted
// connections. Non-positive values keep the default.
func WithPingInterval(d time.Duration) HubOption {
	return func(h *Hub) {
		if d > 0 {
			h.pingInterval = d
		}
	}
}

// NewHub builds a hub over the given registry.
func NewHub(registry *Registry, lgr logger.Logger, opts ...HubOption) *Hub {
	if lgr == nil {
		lgr = &logger.Nop{}
	}
	h := &Hub{registry: registry, logger: lgr, pingInterval: defaultPingInterval}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle runs a single websocket connection to completion. It blocks until
// the client disconnects and always leaves the registry clean.
func (h *Hub) Handle(ws router.WebSocketContext) error {
	userID := upgradeUUID(ws, UpgradeUserIDKey)
	companyID := upgradeUUID(ws, UpgradeCompanyIDKey)
	if userID == uuid.Nil || companyID == uuid.Nil {
		h.logger.Warn("websocket upgrade without session identity",
			logger.Field{Key: "conn_id", Value: ws.ConnectionID()})
		return ws.CloseWithStatus(4001, "authentication required")
	}

	client := newClient(ws, h.logger, h.pingInterval)
	h.registry.Register(client)

	defer func() {
		h.registry.Unregister(client.ID())
		client.Close()
	}()

	go client.writePump()
	h.readPump(client, companyID, userID)
	return nil
}

func (h *Hub) readPump(c *client, companyID, userID uuid.UUID) {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			h.logger.Debug("websocket read closed",
				logger.Field{Key: "conn_id", Value: c.ID()},
				logger.Field{Key: "error", Value: err.Error()})
			return
		}

		var msg struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "authenticate":
			h.registry.Attach(c.ID(), companyID, userID)
			c.sendControl(map[string]any{
				"type":      "connection_established",
				"companyId": companyID.String(),
			})
		case "ping":
			c.sendControl(map[string]any{"type": "pong"})
		}
	}
}

func upgradeUUID(ws router.WebSocketContext, key string) uuid.UUID {
	value := router.GetUpgradeDataWithDefault(ws, key, "")
	raw, ok := value.(string)
	if !ok || raw == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}
