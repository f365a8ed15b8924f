package event

import (
	"fmt"
	"sync"

	"github.com/haldane-rts/chronos/engine/fixed"
	"github.com/haldane-rts/chronos/engine/internal/ident"
)

// entityBox is the shared liveness cell behind every EntityRef handed out
// for a given Entity. It is the "generational index" alternative the
// design notes allow in place of true weak pointers: deterministic,
// explicit, and independent of garbage-collector timing.
type entityBox struct {
	mu       sync.Mutex
	released bool
	entity   *Entity
}

func (b *entityBox) resolve() (*Entity, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return nil, false
	}
	return b.entity, true
}

// ErrReleased is the panic value MustResolve raises when asked to resolve
// an EntityRef whose target has already released. Callbacks that might
// run after a release races against them should be wrapped with
// engine/internal/txguard rather than calling MustResolve unguarded.
const ErrReleased = "event: use of a released reference is not permitted"

// EntityRef is a weak reference to an Entity: holding one does not keep
// the Entity alive, and Resolve reports false once the Entity has
// released itself.
type EntityRef struct {
	box *entityBox
}

// Resolve returns the referenced Entity and true, or (nil, false) if it
// has expired.
func (r EntityRef) Resolve() (*Entity, bool) {
	if r.box == nil {
		return nil, false
	}
	return r.box.resolve()
}

// MustResolve returns the referenced Entity or panics with ErrReleased if
// it has expired.
func (r EntityRef) MustResolve() *Entity {
	e, ok := r.Resolve()
	if !ok {
		panic(ErrReleased)
	}
	return e
}

// Entity is the observable base described in the data model: it owns a
// weak-reference list of Events that must be re-evaluated when it changes
// or is triggered.
type Entity struct {
	id     uint64
	idstr  string
	loop   *Loop
	parent func(fixed.Time)

	mu         sync.Mutex
	dependents []eventWeak
	box        *entityBox
}

type eventWeak struct {
	box *eventBox
}

// NewEntity creates an Entity bound to loop, minting a process-unique id
// from idstr (or a random identity if idstr is empty).
func NewEntity(loop *Loop, idstr string) *Entity {
	e := &Entity{id: ident.Next(idstr), idstr: idstr, loop: loop}
	e.box = &entityBox{entity: e}
	return e
}

// ID returns the entity's numeric identity.
func (e *Entity) ID() uint64 { return e.id }

// IDStr returns the entity's human-readable name.
func (e *Entity) IDStr() string { return e.idstr }

// Ref returns a weak reference to e.
func (e *Entity) Ref() EntityRef { return EntityRef{box: e.box} }

// Release marks e as gone: any EntityRef taken on it will henceforth
// resolve to (nil, false). It does not touch e's dependents; those are
// reaped lazily the next time the loop tries to use them, per the
// lifecycle design.
func (e *Entity) Release() {
	e.box.mu.Lock()
	e.box.released = true
	e.box.mu.Unlock()
}

// SetParentNotifier installs the optional hierarchical-propagation
// callback: Changes recurses into it before notifying e's own dependents,
// so a child curve's change bubbles up through a container curve.
func (e *Entity) SetParentNotifier(fn func(fixed.Time)) {
	e.parent = fn
}

// AddDependent registers ev as dependent on e. It is forbidden for Trigger
// and Repeat handlers (they are never reactively rescheduled) and panics
// if misused, per the core's error-handling design.
func (e *Entity) AddDependent(ev *Event) {
	switch ev.handler.TriggerType() {
	case Trigger, Repeat:
		panic(fmt.Sprintf("event: AddDependent is forbidden for %s handlers", ev.handler.TriggerType()))
	}
	e.mu.Lock()
	e.dependents = append(e.dependents, eventWeak{box: ev.box})
	e.mu.Unlock()
}

// Changes notifies e's dependents that e changed at time t. It first
// recurses into the parent-notifier, if any, then fans out per handler
// kind: Dependency and DependencyImmediately enqueue a change; Once
// enqueues a change only on its first notification, after which the
// dependent is dropped; Trigger and Repeat are ignored here. Expired weak
// references are removed as they are encountered.
func (e *Entity) Changes(t fixed.Time) {
	if e.parent != nil {
		e.parent(t)
	}

	e.mu.Lock()
	deps := append([]eventWeak(nil), e.dependents...)
	e.mu.Unlock()

	keep := deps[:0]
	for _, w := range deps {
		ev, ok := w.box.resolve()
		if !ok {
			continue
		}
		switch ev.handler.TriggerType() {
		case Dependency, DependencyImmediately:
			e.loop.CreateChange(ev, t)
		case Once:
			if ev.lastChangeTime != fixed.Min {
				continue
			}
			e.loop.CreateChange(ev, t)
		case Trigger, Repeat:
			// Data changes never reschedule these kinds.
		}
		keep = append(keep, w)
	}

	e.mu.Lock()
	e.dependents = keep
	e.mu.Unlock()
}

// Trigger notifies only TRIGGER-kind dependents that e fired at time t.
func (e *Entity) Trigger(t fixed.Time) {
	e.mu.Lock()
	deps := append([]eventWeak(nil), e.dependents...)
	e.mu.Unlock()

	keep := deps[:0]
	for _, w := range deps {
		ev, ok := w.box.resolve()
		if !ok {
			continue
		}
		if ev.handler.TriggerType() == Trigger {
			e.loop.CreateChange(ev, t)
		}
		keep = append(keep, w)
	}

	e.mu.Lock()
	e.dependents = keep
	e.mu.Unlock()
}
