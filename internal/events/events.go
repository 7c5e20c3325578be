// Package events announces session lifecycle changes outside the two
// players, for dashboards or bots listening on NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

type Kind string

const (
	Started  Kind = "started"
	Finished Kind = "finished"
)

type Event struct {
	Kind     Kind      `json:"kind"`
	Session  string    `json:"session"`
	Result   string    `json:"result,omitempty"`
	Winner   string    `json:"winner,omitempty"`
	Position string    `json:"position,omitempty"`
	Plies    int       `json:"plies"`
	At       time.Time `json:"at"`
}

// Publisher delivers events. Implementations must not block on the network
// for long; callers never hold session or matchmaker locks while publishing.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// NATS publishes events as JSON on <prefix>.<kind>.
type NATS struct {
	conn   *nats.Conn
	prefix string
}

func Connect(url, prefix string, logger *zap.Logger) (*NATS, error) {
	logger = logger.Named("events")
	nc, err := nats.Connect(url,
		nats.Name("chess-multiplayer"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATS{conn: nc, prefix: prefix}, nil
}

func (n *NATS) Subject(k Kind) string {
	return n.prefix + "." + string(k)
}

func (n *NATS) Publish(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := n.conn.Publish(n.Subject(e.Kind), data); err != nil {
		return fmt.Errorf("publish %s: %w", e.Kind, err)
	}
	return nil
}

// Close flushes pending events and closes the connection.
func (n *NATS) Close() error {
	return n.conn.Drain()
}
