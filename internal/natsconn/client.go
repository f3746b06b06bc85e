// Package natsconn provides the NATS connection used for alert publishing.
package natsconn

import (
	"fmt"

	"github.com/nats-io/nats.go"
)

// Client wraps a nats connection.
type Client struct {
	Conn *nats.Conn
}

// New connects to the given NATS URL.
func New(natsURL string) (*Client, error) {
	conn, err := nats.Connect(natsURL, nats.Name("pokewonder"))
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &Client{Conn: conn}, nil
}

// Close drains and closes the connection; pending publishes are flushed.
func (c *Client) Close() {
	_ = c.Conn.Drain()
}

// IsConnected returns true if connected to nats.
func (c *Client) IsConnected() bool {
	return c.Conn.IsConnected()
}
