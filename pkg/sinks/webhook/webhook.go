package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/EvanCNavarro/invela/pkg/interfaces/broadcaster"
	"github.com/EvanCNavarro/invela/pkg/interfaces/logger"
)

// Sink forwards realtime events to an HTTP endpoint. It is a secondary
// consumer for integrations that cannot hold a websocket open; the count
// it reports is 1 when the endpoint accepted the event.
type Sink struct {
	cfg    Config
	client *http.Client
	logger logger.Logger
}

var _ broadcaster.Broadcaster = (*Sink)(nil)

// Config configures the webhook sink.
type Config struct {
	URL           string
	Headers       map[string]string
	Timeout       time.Duration
	BasicAuthUser string
	BasicAuthPass string
	DryRun        bool
}

type Option func(*Sink)

// WithConfig sets the sink configuration.
func WithConfig(cfg Config) Option {
	return func(s *Sink) {
		s.cfg = cfg
	}
}

// WithClient allows injecting a custom HTTP client.
func WithClient(c *http.Client) Option {
	return func(s *Sink) {
		if c != nil {
			s.client = c
		}
	}
}

// New constructs the webhook sink.
func New(l logger.Logger, opts ...Option) *Sink {
	if l == nil {
		l = &logger.Nop{}
	}
	sink := &Sink{
		cfg:    Config{Timeout: 10 * time.Second},
		logger: l,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(sink)
		}
	}
	if sink.client == nil {
		sink.client = &http.Client{Timeout: sink.cfg.Timeout}
	}
	return sink
}

// Broadcast POSTs the event's wire form to the configured endpoint.
func (s *Sink) Broadcast(ctx context.Context, event broadcaster.Event) (int, error) {
	if s.cfg.DryRun {
		s.logger.Info("webhook dry run, send skipped",
			logger.Field{Key: "url", Value: s.cfg.URL},
			logger.Field{Key: "kind", Value: event.Kind})
		return 0, nil
	}

	if strings.TrimSpace(s.cfg.URL) == "" {
		return 0, fmt.Errorf("webhook: url is required")
	}

	body, err := event.Encode()
	if err != nil {
		return 0, fmt.Errorf("webhook: encode event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("webhook: build request: %w", err)
	}
	for k, v := range s.cfg.Headers {
		req.Header.Set(k, v)
	}
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.cfg.BasicAuthUser != "" {
		req.SetBasicAuth(s.cfg.BasicAuthUser, s.cfg.BasicAuthPass)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("webhook: request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("webhook: unexpected status %d", resp.StatusCode)
	}
	return 1, nil
}
