package locks

import (
	"hash/fnv"
	"sync"
)

// KeyedMutex serializes work per key without a global lock. Keys are hashed
// onto a fixed set of shards, so two different resource ids only contend when
// they collide on a shard; the same id always maps to the same shard.
type KeyedMutex struct {
	shards []sync.Mutex
}

// NewKeyedMutex creates a keyed mutex with the given number of shards.
func NewKeyedMutex(shardCount int) *KeyedMutex {
	if shardCount <= 0 {
		shardCount = 64
	}
	return &KeyedMutex{shards: make([]sync.Mutex, shardCount)}
}

// Lock acquires the shard for the key and returns the unlock function.
func (m *KeyedMutex) Lock(key string) func() {
	shard := &m.shards[m.shardFor(key)]
	shard.Lock()
	return shard.Unlock
}

func (m *KeyedMutex) shardFor(key string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(key))
	return h.Sum32() % uint32(len(m.shards))
}
