package uid

import (
	"hash/fnv"
	"os"

	"github.com/bwmarrin/snowflake"
)

// Snowflake generates time-ordered 63-bit identifiers.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake creates a generator whose node number is derived from the host identity.
func NewSnowflake() (*Snowflake, error) {
	h := fnv.New32a()
	name, err := os.Hostname()
	if err != nil {
		name = "localhost"
	}
	//nolint:errcheck,gosec // fnv never fails
	h.Write([]byte(name))

	node, err := snowflake.NewNode(int64(h.Sum32() % 1024))
	if err != nil {
		return nil, err
	}

	return &Snowflake{node: node}, nil
}

// Generate returns the next identifier.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}
