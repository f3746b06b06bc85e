// Package publisher forwards emitted alert events to NATS subjects so other
// consumers (dashboards, recorders) can ride along without touching the
// notification path.
package publisher

import (
	"context"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/pokewonder/pokewonder/internal/coordinator"
)

// NATSClient interface to allow mocking
type NATSClient interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher implements coordinator.EventPublisher
type NATSPublisher struct {
	nc NATSClient
}

// NewNATSPublisher creates a new publisher
func NewNATSPublisher(conn *nats.Conn) *NATSPublisher {
	return &NATSPublisher{nc: conn}
}

// PublishAlert publishes one emitted alert to alerts.<kind> (lowercased).
func (p *NATSPublisher) PublishAlert(_ context.Context, event coordinator.AlertEnvelope) error {
	data, err := event.Marshal()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	subject := "alerts." + strings.ToLower(string(event.Kind))
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}
