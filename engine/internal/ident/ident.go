// Package ident mints the (numeric id, human idstr) identity pairs used by
// curves and event entities throughout the engine, the way the teacher
// assigns both a numeric id and a human-readable name to its long-lived
// world objects.
package ident

import (
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/segmentio/fasthash/fnv1a"
)

var counter uint64

// Next mints a process-unique numeric id for the given human-readable name.
// Two calls with the same name still return distinct ids: the xxhash of the
// name anchors the value so related objects sort near each other in logs,
// and a monotonically increasing counter is folded in with a second,
// independent hash (fnv1a) to break the tie. If name is empty, a random
// UUID seeds the hash instead.
func Next(name string) uint64 {
	seed := name
	if seed == "" {
		seed = uuid.NewString()
	}
	h := xxhash.Sum64String(seed)
	n := atomic.AddUint64(&counter, 1)
	return h ^ fnv1a.HashUint64(n)
}

// EventHash combines a target entity id and a handler id into the cached
// hash stored on every Event, per the data model's "cached size_t hash"
// field.
func EventHash(targetID, handlerID uint64) uint64 {
	var buf [16]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(targetID >> (8 * i))
		buf[8+i] = byte(handlerID >> (8 * i))
	}
	return xxhash.Sum64(buf[:])
}
