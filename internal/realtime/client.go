package realtime

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/EvanCNavarro/invela/pkg/interfaces/logger"
	router "github.com/goliatone/go-router"
)

const (
	sendBufferSize      = 256
	defaultPingInterval = 30 * time.Second
)

// ErrSendBufferFull reports a client that cannot keep up with its stream.
var ErrSendBufferFull = errors.New("realtime: send buffer full")

// client adapts a go-router websocket connection to the Conn interface.
// Writes go through a buffered channel drained by the write pump so a
// slow socket never blocks a broadcast.
type client struct {
	ws           router.WebSocketContext
	send         chan []byte
	once         sync.Once
	done         chan struct{}
	logger       logger.Logger
	pingInterval time.Duration
}

var _ Conn = (*client)(nil)

func newClient(ws router.WebSocketContext, lgr logger.Logger, pingInterval time.Duration) *client {
	if pingInterval <= 0 {
		pingInterval = defaultPingInterval
	}
	return &client{
		ws:           ws,
		send:         make(chan []byte, sendBufferSize),
		done:         make(chan struct{}),
		logger:       lgr,
		pingInterval: pingInterval,
	}
}

func (c *client) ID() string { return c.ws.ConnectionID() }

// Send queues a frame for delivery. It never blocks; a full buffer means
// the consumer is too slow and the caller should drop the connection.
func (c *client) Send(data []byte) error {
	select {
	case <-c.done:
		return errors.New("realtime: connection closed")
	default:
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close tears the connection down. Safe to call from any goroutine and
// from multiple teardown paths.
func (c *client) Close() {
	c.once.Do(func() {
		close(c.done)
		c.ws.Close()
	})
}

func (c *client) sendControl(msg map[string]any) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := c.Send(data); err != nil {
		c.logger.Debug("control frame dropped",
			logger.Field{Key: "conn_id", Value: c.ID()},
			logger.Field{Key: "error", Value: err.Error()})
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case message := <-c.send:
			if err := c.ws.WriteMessage(router.TextMessage, message); err != nil {
				c.logger.Debug("websocket write failed",
					logger.Field{Key: "conn_id", Value: c.ID()},
					logger.Field{Key: "error", Value: err.Error()})
				return
			}
		case <-ticker.C:
			if err := c.ws.WritePing(nil); err != nil {
				c.logger.Debug("websocket ping failed",
					logger.Field{Key: "conn_id", Value: c.ID()},
					logger.Field{Key: "error", Value: err.Error()})
				return
			}
		}
	}
}
