package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strogmv/payment-service/internal/config"
	"github.com/strogmv/payment-service/internal/port"
)

func memoryConfig() *config.Config {
	return &config.Config{
		ServiceName:      "payment-service",
		StoreDriver:      "memory",
		DeclineThreshold: "10000",
		NodeID:           1,
	}
}

func TestNewContainerMemory(t *testing.T) {
	c, err := NewContainer(context.Background(), memoryConfig())
	require.NoError(t, err)
	t.Cleanup(c.Close)

	assert.Nil(t, c.Pool)
	assert.Nil(t, c.Relay)
	require.NotNil(t, c.SvcPayments)

	res, err := c.SvcPayments.Charge(context.Background(), port.ChargeRequest{
		IdempotencyKey: "k", OrderID: "o", Amount: "10", Method: "card",
	})
	require.NoError(t, err)
	assert.False(t, res.Replayed)

	pending, err := c.Outbox.ListPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending, "no outbox rows without a relay")
}

func TestNewContainerRejectsBadThreshold(t *testing.T) {
	cfg := memoryConfig()
	cfg.DeclineThreshold = "lots"
	_, err := NewContainer(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNewContainerRejectsBadNode(t *testing.T) {
	cfg := memoryConfig()
	cfg.NodeID = 5000
	_, err := NewContainer(context.Background(), cfg)
	assert.Error(t, err)
}
