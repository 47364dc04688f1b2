package mastodon

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	reconnectDelay    = 5 * time.Second
	statsLogInterval  = 30 * time.Second
	userStream        = "user"
	streamingEndpoint = "/api/v1/streaming"
)

// EventHandler consumes parsed streaming events. Handle is called once per
// event, in arrival order; the subscriber does not read the next frame until
// Handle returns, so the handler is the sole source of backpressure.
type EventHandler interface {
	Handle(ctx context.Context, event *StatusEvent) error
}

// Subscriber maintains a websocket subscription to a Mastodon server's
// streaming API and feeds events to a handler.
type Subscriber struct {
	serverURL   string
	accessToken string
	handler     EventHandler
	logger      *slog.Logger
}

// NewSubscriber creates a new streaming subscriber. serverURL is the base
// URL of the Mastodon server (e.g. https://mastodon.example).
func NewSubscriber(
	serverURL string,
	accessToken string,
	handler EventHandler,
	logger *slog.Logger,
) *Subscriber {
	return &Subscriber{
		serverURL:   serverURL,
		accessToken: accessToken,
		handler:     handler,
		logger:      logger,
	}
}

// Start connects to the streaming API and processes events until the context
// is cancelled. It automatically reconnects on transient errors.
func (s *Subscriber) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := s.subscribe(ctx); err != nil {
				s.logger.Error("streaming connection error, reconnecting", "error", err)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(reconnectDelay):
					// backoff before reconnecting
				}
			}
		}
	}
}

func (s *Subscriber) buildURL() (string, error) {
	u, err := url.Parse(s.serverURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "https", "":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + streamingEndpoint
	q := u.Query()
	q.Set("stream", userStream)
	q.Set("access_token", s.accessToken)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *Subscriber) subscribe(ctx context.Context) error {
	wsURL, err := s.buildURL()
	if err != nil {
		return err
	}

	s.logger.Info("connecting to streaming API", "server", s.serverURL)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial streaming API: %w", err)
	}
	defer conn.Close()

	// Unblock the blocking read when the context is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	s.logger.Info("connected to streaming API")

	var eventsReceived, statusesHandled int64
	lastStatsLog := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read message: %w", err)
		}

		event, err := ParseEvent(message)
		if err != nil {
			s.logger.Error("failed to parse event", "error", err)
			continue
		}

		eventsReceived++

		if err := s.handler.Handle(ctx, event); err != nil {
			s.logger.Error("failed to handle event", "kind", event.Kind, "error", err)
		} else if event.Status != nil {
			statusesHandled++
		}

		if time.Since(lastStatsLog) >= statsLogInterval {
			s.logger.Info("streaming stats",
				"events_received", eventsReceived,
				"statuses_handled", statusesHandled,
			)
			lastStatsLog = time.Now()
		}
	}
}
