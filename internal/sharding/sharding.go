package sharding

import (
	"fmt"
	"hash/crc32"
)

// ShardCount is the fixed number of event partitions.
const ShardCount = 1024

// GetShardID returns the deterministic shard for an owner or entity id.
func GetShardID(entityID string) int {
	checksum := crc32.ChecksumIEEE([]byte(entityID))
	return int(checksum % ShardCount)
}

// EventSubject returns the NATS subject for events about an owner's todos.
// Format: todo.event.{shard_id}.owner.{owner_id}
func EventSubject(ownerID string) string {
	return fmt.Sprintf("todo.event.%d.owner.%s", GetShardID(ownerID), ownerID)
}
