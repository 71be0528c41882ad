// Package nats publishes auth events for other services.
package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/unievents/eventhub-api/internal/core/domain"
)

const subjectPrefix = "auth."

// Publisher is an audit sink that publishes each event on auth.<type>.
type Publisher struct {
	conn *nats.Conn
	log  zerolog.Logger
}

func Connect(url string, log zerolog.Logger) (*Publisher, error) {
	l := log.With().Str("component", "nats").Logger()
	conn, err := nats.Connect(url,
		nats.Name("eventhub-api"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			l.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			l.Info().Str("url", c.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &Publisher{conn: conn, log: l}, nil
}

// Subject returns the subject an event of type t is published on.
func Subject(t domain.AuthEventType) string {
	return subjectPrefix + string(t)
}

// Record implements ports.AuditSink.
func (p *Publisher) Record(ctx context.Context, event domain.AuthEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal auth event: %w", err)
	}
	p.log.Debug().Str("subject", Subject(event.Type)).Msg("publishing auth event")
	return p.conn.Publish(Subject(event.Type), payload)
}

// Ping reports whether the connection is currently usable.
func (p *Publisher) Ping(_ context.Context) error {
	if !p.conn.IsConnected() {
		return errors.New("nats: " + p.conn.Status().String())
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *Publisher) Close() error {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return err
	}
	return nil
}
