package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/hussainzaidi99/OSMAPI/internal/core/domain"
)

// SubjectPrefix is followed by the footprint source, e.g. footprint.measured.overpass.
const SubjectPrefix = "footprint.measured."

// Publisher implements ports.EventPublisher using core NATS. Events are
// fire-and-forget; nothing is persisted on the broker.
type Publisher struct {
	conn *nats.Conn
}

// NewPublisher connects to NATS.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("osmapi"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Publisher{conn: conn}, nil
}

// NewPublisherFromConn wraps an existing connection.
func NewPublisherFromConn(conn *nats.Conn) *Publisher {
	return &Publisher{conn: conn}
}

// PublishMeasurement publishes ev on footprint.measured.<source>.
func (p *Publisher) PublishMeasurement(ctx context.Context, ev *domain.MeasurementEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.conn.Publish(Subject(ev.Source), data)
}

// Subject returns the subject events from source are published on.
func Subject(source string) string {
	if source == "" {
		source = domain.SourceNone
	}
	return SubjectPrefix + source
}

// Connected reports whether the connection is currently up.
func (p *Publisher) Connected() bool {
	return p.conn.IsConnected()
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}
