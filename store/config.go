package store

import "github.com/jacentio/recipes/internal/shard"

// Config holds configuration for the Store.
type Config struct {
	// RelationshipTable is the name of the relationship table.
	// Default: "recipes_relationships"
	RelationshipTable string `yaml:"relationshipTable"`

	// SequenceTable is the name of the table holding per-type id counters.
	// Default: "recipes_sequences"
	SequenceTable string `yaml:"sequenceTable"`

	// NumShards is the number of shards for the relationship table.
	// Higher values increase write throughput but require more parallel queries.
	// Default: 1 (no sharding, single query)
	// Max: 256
	NumShards int `yaml:"numShards"`

	// InlineCascade makes cascading deletes walk the relationship table
	// synchronously instead of waiting for the stream handler.
	InlineCascade bool `yaml:"inlineCascade"`
}

// DefaultConfig returns sensible defaults for small datasets.
func DefaultConfig() Config {
	return Config{
		RelationshipTable: "recipes_relationships",
		SequenceTable:     "recipes_sequences",
		NumShards:         1,
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.RelationshipTable == "" {
		c.RelationshipTable = "recipes_relationships"
	}
	if c.SequenceTable == "" {
		c.SequenceTable = "recipes_sequences"
	}
	if c.NumShards < 1 {
		c.NumShards = 1
	}
	if c.NumShards > shard.MaxShards {
		c.NumShards = shard.MaxShards
	}
}
