// Package idgen issues payment identifiers.
//
// Payment ids come from a snowflake node so that replicas with distinct
// node ids never collide without coordinating. References are random UUIDs.
package idgen

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

type Generator struct {
	node *snowflake.Node
}

func New(nodeID int64) (*Generator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", nodeID, err)
	}
	return &Generator{node: node}, nil
}

func (g *Generator) PaymentID() int64 {
	return g.node.Generate().Int64()
}

func (g *Generator) Reference() string {
	return uuid.NewString()
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
