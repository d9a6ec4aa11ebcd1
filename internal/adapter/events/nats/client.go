package nats

import (
	"context"
	"fmt"
	"time"

	natspkg "github.com/nats-io/nats.go"

	"github.com/strogmv/payment-service/internal/port"
)

type Client struct {
	nc *natspkg.Conn
}

func NewClient(url, name string) (*Client, error) {
	nc, err := natspkg.Connect(url,
		natspkg.Name(name),
		natspkg.MaxReconnects(-1),
		natspkg.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return &Client{nc: nc}, nil
}

func (c *Client) Close() {
	c.nc.Close()
}

func (c *Client) IsConnected() bool {
	return c.nc != nil && c.nc.Status() == natspkg.CONNECTED
}

// Publish sends payload and waits for the server to acknowledge the flush so
// the outbox row is only marked once the broker has it.
func (c *Client) Publish(ctx context.Context, subject string, payload []byte) error {
	if !c.IsConnected() {
		return fmt.Errorf("nats: not connected")
	}
	if err := c.nc.Publish(subject, payload); err != nil {
		return err
	}
	return c.nc.FlushWithContext(ctx)
}

func (c *Client) Subscribe(subject string, handler func(data []byte) error) (*natspkg.Subscription, error) {
	return c.nc.Subscribe(subject, func(msg *natspkg.Msg) {
		_ = handler(msg.Data)
	})
}

var _ port.Publisher = (*Client)(nil)
