package uid

import "github.com/bwmarrin/snowflake"

// Snowflake generates time-sortable numeric IDs safe for database keys.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake creates a Snowflake generator for the given node number.
//
// The node number must be unique per running instance within the same
// deployment, otherwise IDs can collide.
func NewSnowflake(node int64) (*Snowflake, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, err
	}

	return &Snowflake{node: n}, nil
}

// Generate returns a new unique numeric ID.
func (s *Snowflake) Generate() uint64 {
	return uint64(s.node.Generate().Int64())
}
