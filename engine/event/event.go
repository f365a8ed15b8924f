package event

import (
	"sync"
	"sync/atomic"

	"github.com/haldane-rts/chronos/engine/fixed"
	"github.com/haldane-rts/chronos/engine/internal/ident"
)

var eventSeq uint64

func nextEventSeq() uint64 { return atomic.AddUint64(&eventSeq, 1) }

// eventBox is the shared liveness cell an Entity's dependents list holds a
// weak reference to. The queue marks it removed once it drops its own
// strong reference to the Event, the design's "last strong reference"
// moment.
type eventBox struct {
	mu      sync.Mutex
	removed bool
	ev      *Event
}

func (b *eventBox) resolve() (*Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.removed {
		return nil, false
	}
	return b.ev, true
}

func (b *eventBox) release() {
	b.mu.Lock()
	b.removed = true
	b.mu.Unlock()
}

// EventRef is a weak reference to an Event, handed out so auxiliary
// structures (the activity graph, tests) can observe an event without
// extending its lifetime.
type EventRef struct {
	box *eventBox
}

// Resolve returns the referenced Event and true, or (nil, false) once the
// queue has dropped it.
func (r EventRef) Resolve() (*Event, bool) {
	if r.box == nil {
		return nil, false
	}
	return r.box.resolve()
}

// Event is a scheduled occurrence: a weak reference to a target entity, a
// handler, a scheduled time, a last-changed stamp, and a parameter map.
type Event struct {
	seq    uint64
	target EntityRef

	handler Handler
	params  Params

	time           fixed.Time
	lastChangeTime fixed.Time
	hash           uint64

	box *eventBox

	heapIndex int
}

func newEvent(target EntityRef, handler Handler, params Params) *Event {
	var targetID uint64
	if e, ok := target.Resolve(); ok {
		targetID = e.ID()
	}
	ev := &Event{
		seq:            nextEventSeq(),
		target:         target,
		handler:        handler,
		params:         params,
		lastChangeTime: fixed.Min,
		hash:           ident.EventHash(targetID, handler.ID()),
		heapIndex:      -1,
	}
	ev.box = &eventBox{ev: ev}
	return ev
}

// Ref returns a weak reference to ev.
func (ev *Event) Ref() EventRef { return EventRef{box: ev.box} }

// Time returns the event's current scheduled time.
func (ev *Event) Time() fixed.Time { return ev.time }

// LastChangeTime returns the last simulation time a change was stamped on
// this event.
func (ev *Event) LastChangeTime() fixed.Time { return ev.lastChangeTime }

// Hash returns the cached identity hash over (target.id, handler.id).
func (ev *Event) Hash() uint64 { return ev.hash }

// Handler returns the event's handler.
func (ev *Event) Handler() Handler { return ev.handler }

// Params returns the event's parameter map.
func (ev *Event) Params() Params { return ev.params }

// Target returns a weak reference to the event's target entity.
func (ev *Event) Target() EntityRef { return ev.target }

// Equal reports whether two events are identical per the data model:
// equality is by (target.id, handler.id), not by pointer.
func (ev *Event) Equal(other *Event) bool {
	if ev == other {
		return true
	}
	a, aok := ev.target.Resolve()
	b, bok := other.target.Resolve()
	if !aok || !bok {
		return false
	}
	return a.ID() == b.ID() && ev.handler.ID() == other.handler.ID()
}

// Cancel sets the event's target to an expired reference and stamps
// last_change_time, per the cancellation design: the loop will
// subsequently skip this event wherever its weak target is checked.
func (ev *Event) Cancel(at fixed.Time) {
	ev.target = EntityRef{}
	ev.lastChangeTime = at
}
