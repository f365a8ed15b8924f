package container

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/haldane-rts/chronos/engine/event"
	"github.com/haldane-rts/chronos/engine/fixed"
	"github.com/haldane-rts/chronos/engine/keyframe"
)

// Array is a fixed-size, fixed-index container curve: each slot keeps its
// own independent keyframe history, so Get(i, t) behaves exactly like a
// Discrete curve scoped to that one index.
type Array[T any] struct {
	*event.Entity

	mu    sync.RWMutex
	slots []*keyframe.Container[T]
	hints []atomic.Int32
}

// NewArray returns an Array curve of the given fixed size, every slot
// holding defaultValue from fixed.Min.
func NewArray[T any](loop *event.Loop, name string, size int, defaultValue T) *Array[T] {
	a := &Array[T]{
		Entity: event.NewEntity(loop, name),
		slots:  make([]*keyframe.Container[T], size),
		hints:  make([]atomic.Int32, size),
	}
	for i := range a.slots {
		a.slots[i] = keyframe.New(defaultValue)
	}
	return a
}

// Len returns the array's fixed size.
func (a *Array[T]) Len() int { return len(a.slots) }

func (a *Array[T]) checkIndex(i int) {
	if i < 0 || i >= len(a.slots) {
		panic(fmt.Sprintf("container: array index %d out of range [0, %d)", i, len(a.slots)))
	}
}

// Get returns slot i's value at time t.
func (a *Array[T]) Get(i int, t fixed.Time) T {
	a.checkIndex(i)
	a.mu.RLock()
	defer a.mu.RUnlock()
	pos := a.slots[i].Last(t, int(a.hints[i].Load()))
	a.hints[i].Store(int32(pos))
	return a.slots[i].Get(pos).Value
}

// Set writes v into slot i at time t and notifies dependents.
func (a *Array[T]) Set(i int, t fixed.Time, v T) {
	a.checkIndex(i)
	a.mu.Lock()
	pos := a.slots[i].Last(t, int(a.hints[i].Load()))
	pos = a.slots[i].InsertOverwrite(keyframe.Keyframe[T]{Time: t, Value: v}, pos, false)
	a.hints[i].Store(int32(pos))
	a.mu.Unlock()
	a.Entity.Changes(t)
}

// Snapshot returns every slot's value at time t, an N-wide read of the
// whole array at once.
func (a *Array[T]) Snapshot(t fixed.Time) []T {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]T, len(a.slots))
	for i, s := range a.slots {
		pos := s.Last(t, int(a.hints[i].Load()))
		a.hints[i].Store(int32(pos))
		out[i] = s.Get(pos).Value
	}
	return out
}

// Sync replaces a's keyframes at or after start with other's, channel by
// channel, and notifies dependents at start. other must have the same
// length as a. Per channel it guarantees the boundary the same way
// curve.SyncDiscrete does: if neither side has a keyframe at exactly
// start, a plain container copy would leave that channel reading its own
// pre-sync value for start <= t < the next copied keyframe rather than
// other's, so a keyframe is inserted at start whenever the synced value
// there doesn't already match other's.
func (a *Array[T]) Sync(other *Array[T], start fixed.Time) {
	if len(other.slots) != len(a.slots) {
		panic(fmt.Sprintf("container: array sync size mismatch: %d vs %d", len(a.slots), len(other.slots)))
	}
	other.mu.RLock()
	a.mu.Lock()
	for i := range a.slots {
		otherVal, _ := stepValueAt(other.slots[i], 0, start)

		pos := keyframe.SyncWith(a.slots[i], other.slots[i], start, func(v T) T { return v })
		selfVal, selfHint := stepValueAt(a.slots[i], pos, start)
		if !reflect.DeepEqual(selfVal, otherVal) {
			pos = a.slots[i].InsertOverwrite(keyframe.Keyframe[T]{Time: start, Value: otherVal}, selfHint, false)
		} else {
			pos = selfHint
		}
		a.hints[i].Store(int32(pos))
	}
	a.mu.Unlock()
	other.mu.RUnlock()
	a.Entity.Changes(start)
}

// stepValueAt returns the Discrete-style step value held in frames at t,
// along with the position hint that should be cached for t.
func stepValueAt[T any](frames *keyframe.Container[T], hint int, t fixed.Time) (T, int) {
	pos := frames.Last(t, hint)
	return frames.Get(pos).Value, pos
}
