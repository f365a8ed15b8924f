package event

import (
	"container/heap"

	"github.com/brentp/intintmap"
	"github.com/haldane-rts/chronos/engine/fixed"
)

// eventHeap is a min-heap of *Event ordered by time, implementing
// container/heap.Interface. Each Event caches its own slot in heapIndex so
// Remove/Fix never need a linear scan to locate it.
type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool { return h[i].time < h[j].time }
func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIndex = i
	h[j].heapIndex = j
}
func (h *eventHeap) Push(x any) {
	ev := x.(*Event)
	ev.heapIndex = len(*h)
	*h = append(*h, ev)
}
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	ev.heapIndex = -1
	*h = old[:n-1]
	return ev
}

// pendingChange is one entry of a change set: an event and the earliest
// time it should be reconsidered at.
type pendingChange struct {
	ev *Event
	t  fixed.Time
}

// changeSet implements the double-buffered change-set dedup described in
// §4.6. The hot path (add, called on every dependency notification) does a
// pure int64 lookup/compare via intintmap keyed by the event's sequence
// number, avoiding a pointer-keyed Go map on that path; the colder drain
// path resolves sequence numbers back to *Event via a plain map, touched
// only once per distinct event per round.
type changeSet struct {
	times  *intintmap.Map
	events map[uint64]*Event
	order  []uint64
}

func newChangeSet() *changeSet {
	return &changeSet{times: intintmap.New(64, 0.6), events: make(map[uint64]*Event)}
}

// add records that ev should be reconsidered at t, keeping only the
// earliest time if ev already has a pending entry in this set.
func (s *changeSet) add(ev *Event, t fixed.Time) {
	if existing, ok := s.times.Get(int64(ev.seq)); ok {
		if int64(t) < existing {
			s.times.Put(int64(ev.seq), int64(t))
		}
		return
	}
	s.times.Put(int64(ev.seq), int64(t))
	s.events[ev.seq] = ev
	s.order = append(s.order, ev.seq)
}

// drain returns every pending change in insertion order and resets s to
// empty.
func (s *changeSet) drain() []pendingChange {
	out := make([]pendingChange, 0, len(s.order))
	for _, seq := range s.order {
		t, ok := s.times.Get(int64(seq))
		if !ok {
			continue
		}
		out = append(out, pendingChange{ev: s.events[seq], t: fixed.Time(t)})
	}
	s.times = intintmap.New(64, 0.6)
	s.events = make(map[uint64]*Event)
	s.order = nil
	return out
}

// Queue holds scheduled events (a min-heap by time) and the
// double-buffered change sets swapped between simulation rounds. Events of
// the purely reactive kinds (DependencyImmediately, Trigger) never sit in
// the heap at all between notifications: they are reached only through
// the Entity.Changes/Trigger -> CreateChange path, which resolves them by
// direct pointer via the weak reference Setup installed, so no separate
// membership index is needed here.
type Queue struct {
	heap eventHeap

	changes       *changeSet
	futureChanges *changeSet
}

// NewQueue returns an empty Queue.
func NewQueue() *Queue {
	return &Queue{
		changes:       newChangeSet(),
		futureChanges: newChangeSet(),
	}
}

// Enqueue inserts ev into the main heap, or fixes its position if it is
// already present.
func (q *Queue) Enqueue(ev *Event) {
	if ev.heapIndex >= 0 {
		heap.Fix(&q.heap, ev.heapIndex)
		return
	}
	heap.Push(&q.heap, ev)
}

// Reenqueue is the REPEAT-specific path: the event was just popped out of
// the heap by TakeEvent during execution, so there is nothing to fix,
// only a fresh push.
func (q *Queue) Reenqueue(ev *Event) {
	heap.Push(&q.heap, ev)
}

// Remove removes ev from the main heap if present and releases its
// liveness cell, so every Entity that lists ev as a dependent drops it on
// its next Changes or Trigger. There are no separate dependency/trigger
// sets to clean up here.
func (q *Queue) Remove(ev *Event) {
	if ev.heapIndex >= 0 {
		heap.Remove(&q.heap, ev.heapIndex)
	}
	ev.box.release()
}

// TakeEvent returns and removes the heap's earliest event if its time is
// <= maxTime.
func (q *Queue) TakeEvent(maxTime fixed.Time) (*Event, bool) {
	if q.heap.Len() == 0 {
		return nil, false
	}
	top := q.heap[0]
	if top.time > maxTime {
		return nil, false
	}
	heap.Pop(&q.heap)
	return top, true
}

// Len reports how many events are currently scheduled in the main heap.
func (q *Queue) Len() int { return q.heap.Len() }

// addChange implements §4.6's add_change: dedup per round keyed to the
// earliest change time, with a second buffer for changes that arrive for
// an event already stamped at or after the new time.
func (q *Queue) addChange(ev *Event, t fixed.Time) {
	if ev.lastChangeTime < t {
		q.changes.add(ev, t)
	} else {
		q.futureChanges.add(ev, t)
	}
	ev.lastChangeTime = t
}

// drainChanges returns the current round's pending changes and clears the
// current change set.
func (q *Queue) drainChanges() []pendingChange {
	return q.changes.drain()
}

// swapChangesets makes the current round's future_changes the next
// round's input.
func (q *Queue) swapChangesets() {
	q.changes, q.futureChanges = q.futureChanges, q.changes
}
