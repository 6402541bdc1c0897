package market

import (
	"hash/fnv"
	"sync"
)

// keyedMutex serializes work per string key using a fixed set of lock
// stripes. Two keys may share a stripe; that only over-serializes, never
// under-serializes. Used to close the check-then-act race on the
// (market, agent) vote row.
type keyedMutex struct {
	stripes [64]sync.Mutex
}

func (k *keyedMutex) lock(key string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(key))
	m := &k.stripes[h.Sum32()%uint32(len(k.stripes))]
	m.Lock()
	return m
}
