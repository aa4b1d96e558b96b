package relay

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/EvanCNavarro/invela/pkg/interfaces/broadcaster"
	"github.com/EvanCNavarro/invela/pkg/interfaces/logger"
	"github.com/EvanCNavarro/invela/pkg/retry"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the pub/sub channel realtime events travel on.
const DefaultChannel = "invela:realtime"

// envelope is the cross-instance wire form. It mirrors the client wire
// format plus an origin id so an instance can skip its own messages.
type envelope struct {
	Origin    string         `json:"origin"`
	Kind      string         `json:"kind"`
	CompanyID string         `json:"companyId,omitempty"`
	TaskID    string         `json:"taskId,omitempty"`
	Payload   map[string]any `json:"payload"`
}

func (e envelope) event() broadcaster.Event {
	evt := broadcaster.Event{Kind: e.Kind, Payload: e.Payload}
	if id, err := uuid.Parse(e.CompanyID); err == nil {
		evt.CompanyID = id
	}
	if id, err := uuid.Parse(e.TaskID); err == nil {
		evt.TaskID = id
	}
	return evt
}

// Publisher forwards events to redis so every instance of the platform
// can deliver them to its own sockets. The count it reports is the number
// of subscribed instances that received the message.
type Publisher struct {
	client  *redis.Client
	channel string
	origin  string
}

var _ broadcaster.Broadcaster = (*Publisher)(nil)

// NewPublisher builds a publisher on the given channel. An empty channel
// name falls back to DefaultChannel.
func NewPublisher(client *redis.Client, channel string) *Publisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Publisher{
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
	}
}

// Origin identifies this publisher instance.
func (p *Publisher) Origin() string { return p.origin }

// Broadcast publishes the event to the relay channel.
func (p *Publisher) Broadcast(ctx context.Context, event broadcaster.Event) (int, error) {
	if p.client == nil {
		return 0, errors.New("relay: redis client is required")
	}
	env := envelope{
		Origin:  p.origin,
		Kind:    event.Kind,
		Payload: event.Payload,
	}
	if event.CompanyID != uuid.Nil {
		env.CompanyID = event.CompanyID.String()
	}
	if event.TaskID != uuid.Nil {
		env.TaskID = event.TaskID.String()
	}
	data, err := json.Marshal(env)
	if err != nil {
		return 0, err
	}
	receivers, err := p.client.Publish(ctx, p.channel, data).Result()
	if err != nil {
		return 0, err
	}
	return int(receivers), nil
}

// Subscriber listens on the relay channel and re-broadcasts incoming
// events through the local broadcaster. Messages published by the paired
// origin are skipped so an instance never double-delivers its own events.
type Subscriber struct {
	client     *redis.Client
	channel    string
	local      broadcaster.Broadcaster
	skipOrigin string
	backoff    retry.Backoff
	logger     logger.Logger
}

// NewSubscriber builds a subscriber that feeds the local broadcaster.
func NewSubscriber(client *redis.Client, channel string, local broadcaster.Broadcaster, skipOrigin string, lgr logger.Logger) *Subscriber {
	if channel == "" {
		channel = DefaultChannel
	}
	if lgr == nil {
		lgr = &logger.Nop{}
	}
	return &Subscriber{
		client:     client,
		channel:    channel,
		local:      local,
		skipOrigin: skipOrigin,
		backoff:    retry.DefaultBackoff(),
		logger:     lgr,
	}
}

// Run blocks until the context is canceled, reconnecting with backoff
// when the pub/sub channel drops.
func (s *Subscriber) Run(ctx context.Context) {
	attempt := 0
	for {
		sub := s.client.Subscribe(ctx, s.channel)
		ch := sub.Channel()
	recv:
		for {
			select {
			case <-ctx.Done():
				sub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break recv
				}
				attempt = 0
				s.handle(ctx, msg.Payload)
			}
		}
		sub.Close()
		if ctx.Err() != nil {
			return
		}
		attempt++
		s.logger.Warn("relay channel closed, reconnecting",
			logger.Field{Key: "attempt", Value: attempt})
		if err := retry.Wait(ctx, s.backoff, attempt); err != nil {
			return
		}
	}
}

func (s *Subscriber) handle(ctx context.Context, payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		s.logger.Error("could not parse relay message",
			logger.Field{Key: "error", Value: err.Error()})
		return
	}
	if s.skipOrigin != "" && env.Origin == s.skipOrigin {
		return
	}
	delivered, err := s.local.Broadcast(ctx, env.event())
	if err != nil {
		s.logger.Warn("relay re-broadcast failed",
			logger.Field{Key: "kind", Value: env.Kind},
			logger.Field{Key: "error", Value: err.Error()})
		return
	}
	s.logger.Debug("relay event delivered",
		logger.Field{Key: "kind", Value: env.Kind},
		logger.Field{Key: "delivered", Value: delivered})
}
