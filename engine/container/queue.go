// Package container implements the container-valued curves: Queue,
// UnorderedMap and Array. Unlike keyframe.Container-backed curves, these
// model a collection whose membership changes over simulation time rather
// than a single interpolated value: every element carries an
// [alive, dead) lifetime rather than being physically removed.
package container

import (
	"sync"

	"github.com/haldane-rts/chronos/engine/event"
	"github.com/haldane-rts/chronos/engine/fixed"
)

type queueItem[T any] struct {
	alive fixed.Time
	dead  fixed.Time
	value T
}

// Queue is insertion-ordered by time; each element carries an
// [alive, dead) lifetime rather than being physically dequeued. PopFront
// does not remove an element, it stamps its dead time, so a Queue's
// history remains fully inspectable at any past t.
type Queue[T any] struct {
	*event.Entity

	mu         sync.Mutex
	items      []queueItem[T]
	frontStart int
	lastChange fixed.Time
}

// NewQueue returns an empty Queue curve.
func NewQueue[T any](loop *event.Loop, name string) *Queue[T] {
	return &Queue[T]{Entity: event.NewEntity(loop, name), lastChange: fixed.Min}
}

// Insert scans right-to-left from the end for the position with
// alive <= t (insertion-ordered by time, so this is usually O(1) against
// the tail), inserts v there alive from t onward, and notifies
// dependents. Inserting strictly before the current front resets the
// front-scan hint.
func (q *Queue[T]) Insert(t fixed.Time, v T) {
	q.mu.Lock()
	pos := len(q.items)
	for pos > 0 && q.items[pos-1].alive > t {
		pos--
	}
	item := queueItem[T]{alive: t, dead: fixed.Max, value: v}
	q.items = append(q.items, queueItem[T]{})
	copy(q.items[pos+1:], q.items[pos:len(q.items)-1])
	q.items[pos] = item
	if pos < q.frontStart {
		q.frontStart = pos
	}
	q.lastChange = t
	q.mu.Unlock()
	q.Entity.Changes(t)
}

// firstAliveLocked returns the index of the earliest-inserted element with
// alive <= t < dead, scanning from frontStart if t is at or after the
// last recorded change (the hint is still valid), or from the start
// otherwise.
func (q *Queue[T]) firstAliveLocked(t fixed.Time) (int, bool) {
	start := 0
	if t >= q.lastChange {
		start = q.frontStart
	}
	for i := start; i < len(q.items); i++ {
		it := q.items[i]
		if it.alive <= t && t < it.dead {
			return i, true
		}
	}
	return 0, false
}

// Front returns the earliest-inserted element alive at t, if any.
func (q *Queue[T]) Front(t fixed.Time) (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	i, ok := q.firstAliveLocked(t)
	if !ok {
		return zero, false
	}
	return q.items[i].value, true
}

// PopFront sets the dead time of the earliest-inserted element alive at t
// to t, advances the front-scan hint past it, and notifies dependents. It
// reports whether an element was alive to pop.
func (q *Queue[T]) PopFront(t fixed.Time) bool {
	q.mu.Lock()
	i, ok := q.firstAliveLocked(t)
	if !ok {
		q.mu.Unlock()
		return false
	}
	q.items[i].dead = t
	q.frontStart = i + 1
	q.lastChange = t
	q.mu.Unlock()
	q.Entity.Changes(t)
	return true
}

// Len returns the total number of elements ever inserted, alive or dead.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// VisibleLen returns how many elements are alive at time t.
func (q *Queue[T]) VisibleLen(t fixed.Time) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, it := range q.items {
		if it.alive <= t && t < it.dead {
			n++
		}
	}
	return n
}
