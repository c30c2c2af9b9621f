// Package shard computes partition keys for the sharded relationship table.
package shard

import (
	"fmt"
	"hash/fnv"
)

// MaxShards is the upper bound on relationship table shards.
const MaxShards = 256

// RelationshipPK computes the sharded partition key for a relationship record.
// With numShards=1, all records go to shard "00".
// With numShards>1, records are distributed across shards based on childRef hash.
func RelationshipPK(parentRef, childRef string, numShards int) string {
	if numShards <= 1 {
		return Key(parentRef, 0)
	}
	h := fnv.New32a()
	h.Write([]byte(childRef))
	return Key(parentRef, int(h.Sum32()%uint32(numShards)))
}

// Key returns the partition key of shard n under parentRef.
func Key(parentRef string, n int) string {
	return fmt.Sprintf("%s#%02x", parentRef, n)
}

// Keys lists every shard partition key of parentRef, in shard order.
func Keys(parentRef string, numShards int) []string {
	if numShards < 1 {
		numShards = 1
	}
	keys := make([]string, numShards)
	for i := range keys {
		keys[i] = Key(parentRef, i)
	}
	return keys
}
