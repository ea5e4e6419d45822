package utils

import (
	"github.com/bwmarrin/snowflake"
)

// IDGenerator hands out surrogate ids that are never reused
type IDGenerator interface {
	NextID() (int64, error)
}

// SnowflakeGenerator wraps bwmarrin/snowflake Node for ID generation
type SnowflakeGenerator struct {
	node *snowflake.Node
}

// NewSnowflakeGenerator creates a new SnowflakeGenerator
func NewSnowflakeGenerator(machineID int64) (*SnowflakeGenerator, error) {
	// Ensure machineID is in valid range (0-1023)
	if machineID < 0 || machineID > 1023 {
		machineID = 1 // Default to 1 if out of range
	}

	node, err := snowflake.NewNode(machineID)
	if err != nil {
		return nil, err
	}

	return &SnowflakeGenerator{
		node: node,
	}, nil
}

// NextID generates the next unique ID
func (s *SnowflakeGenerator) NextID() (int64, error) {
	return s.node.Generate().Int64(), nil
}
