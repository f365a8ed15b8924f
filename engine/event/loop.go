package event

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/haldane-rts/chronos/engine/fixed"
)

// recursiveMutex lets a Loop's own public methods be safely re-entered by
// a handler callback invoked synchronously from inside ReachTime, without
// the handler having to know whether it is being called reentrantly.
//
// It is deliberately not a true reentrant lock: it does not identify the
// calling goroutine, so it cannot distinguish "the same logical call chain
// calling back in" from "a different goroutine that happened to interleave
// while active is true". That's an accepted simplification here — curves
// guard genuinely concurrent cross-goroutine writers with their own RW
// lock; this mutex only has to make single-goroutine reentrancy (the
// handler-calls-back-into-the-loop case) safe.
type recursiveMutex struct {
	gate   sync.Mutex
	active bool
}

// enter reports whether this call is the reentrant (nested) one. The
// matching exit call must be passed that same value.
func (m *recursiveMutex) enter() (reentrant bool) {
	m.gate.Lock()
	if m.active {
		m.gate.Unlock()
		return true
	}
	m.active = true
	m.gate.Unlock()
	return false
}

func (m *recursiveMutex) exit(reentrant bool) {
	if reentrant {
		return
	}
	m.gate.Lock()
	m.active = false
	m.gate.Unlock()
}

const maxSettleAttempts = 10

// Loop is the settling simulation core: a registry of handlers, a Queue of
// scheduled and pending events, and the ReachTime algorithm that drives
// both toward a target time.
type Loop struct {
	lock recursiveMutex

	handlers map[uint64]Handler
	queue    *Queue

	activeEvent *Event

	maxSettleAttempts int
	log               *slog.Logger
}

// NewLoop returns an empty Loop. A nil logger defaults to slog.Default().
func NewLoop(log *slog.Logger) *Loop {
	if log == nil {
		log = slog.Default()
	}
	return &Loop{
		handlers:          make(map[uint64]Handler),
		queue:             NewQueue(),
		maxSettleAttempts: maxSettleAttempts,
		log:               log,
	}
}

// SetMaxSettleAttempts overrides the number of settling rounds ReachTime
// will try before giving up, for callers (engine/config) that tune it away
// from the package default. n <= 0 is ignored.
func (l *Loop) SetMaxSettleAttempts(n int) {
	if n <= 0 {
		return
	}
	reentrant := l.lock.enter()
	defer l.lock.exit(reentrant)
	l.maxSettleAttempts = n
}

// AddEventHandler registers h under its own ID. Registering the exact same
// handler value again under that ID is a no-op; registering a different
// handler under an already-used ID is logged and rejected rather than
// silently replacing the original, since events already scheduled against
// the old handler would otherwise observe a different Setup/Predict/Invoke
// mid-flight.
func (l *Loop) AddEventHandler(h Handler) {
	reentrant := l.lock.enter()
	defer l.lock.exit(reentrant)

	id := h.ID()
	if existing, ok := l.handlers[id]; ok {
		if !handlersEqual(existing, h) {
			l.log.Warn("event: refusing to replace handler registered under existing id", "id", id)
		}
		return
	}
	l.handlers[id] = h
}

func handlersEqual(a, b Handler) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = a == b
		}
	}()
	return a == b
}

// CreateEvent builds a new Event from the handler registered under
// handlerID, calls its Setup, and schedules it according to its trigger
// kind. referenceTime is the "now" Predict and DependencyImmediately/
// Trigger anchor to.
func (l *Loop) CreateEvent(handlerID uint64, target EntityRef, state any, referenceTime fixed.Time, params Params) (*Event, error) {
	reentrant := l.lock.enter()
	defer l.lock.exit(reentrant)
	return l.createEventLocked(handlerID, target, state, referenceTime, params)
}

func (l *Loop) createEventLocked(handlerID uint64, target EntityRef, state any, referenceTime fixed.Time, params Params) (*Event, error) {
	h, ok := l.handlers[handlerID]
	if !ok {
		return nil, fmt.Errorf("event: unknown handler id %d", handlerID)
	}

	ev := newEvent(target, h, params)
	h.Setup(ev, state)

	switch h.TriggerType() {
	case Dependency, Repeat:
		// Both get an initial self-scheduled slot; Dependency is further
		// rescheduled by updateChangesLocked whenever its dependency
		// fires, Repeat only by its own post-invocation Predict call.
		next := h.Predict(target, state, referenceTime)
		if next == fixed.Min {
			return ev, nil
		}
		ev.time = next
		l.queue.Enqueue(ev)
	case Once, DependencyImmediately, Trigger:
		// Purely reactive: nothing to schedule at creation. Once, unlike
		// Dependency, only ever gets the one schedule slot its first
		// dependency change grants it; Setup's AddDependent wiring is
		// what lets a later Entity.Changes/Trigger call reach this event
		// at all.
	}
	return ev, nil
}

// CreateChange stages a change notification for ev at time t, deduped
// against this and the next settling round per §4.6.
func (l *Loop) CreateChange(ev *Event, t fixed.Time) {
	reentrant := l.lock.enter()
	defer l.lock.exit(reentrant)
	l.queue.addChange(ev, t)
}

// ReachTime settles the simulation forward to targetTime: it alternates
// applying pending changes and executing due events until a round
// produces no new executions, for at most maxSettleAttempts rounds. state
// is threaded through to every Predict/Invoke call this round triggers.
func (l *Loop) ReachTime(targetTime fixed.Time, state any) error {
	reentrant := l.lock.enter()
	defer l.lock.exit(reentrant)

	var lastPending int
	var stagnantAttempt Handler

	for attempt := 0; attempt < l.maxSettleAttempts; attempt++ {
		pending := l.updateChangesLocked(state)
		executed := l.executeEventsLocked(targetTime, state)
		if executed == 0 {
			l.queue.swapChangesets()
			return nil
		}
		if pending > 0 && pending == lastPending {
			stagnantAttempt = l.suspectHandlerLocked()
		}
		lastPending = pending
	}

	l.queue.swapChangesets()
	if stagnantAttempt != nil {
		return fmt.Errorf("event: loop did not converge to %s within %d attempts, suspect handler id %d",
			targetTime, l.maxSettleAttempts, stagnantAttempt.ID())
	}
	return fmt.Errorf("event: loop did not converge to %s within %d attempts", targetTime, l.maxSettleAttempts)
}

// suspectHandlerLocked names a handler to blame when the same number of
// changes keeps recurring attempt over attempt: whichever handler has the
// most events currently sitting in the main heap is the most likely
// culprit behind an oscillating Predict.
func (l *Loop) suspectHandlerLocked() Handler {
	counts := make(map[uint64]int)
	for _, ev := range l.queue.heap {
		counts[ev.handler.ID()]++
	}
	var worstID uint64
	var worstCount int
	for id, c := range counts {
		if c > worstCount {
			worstID, worstCount = id, c
		}
	}
	return l.handlers[worstID]
}

// updateChangesLocked drains this round's pending changes and reschedules
// each one per its handler's trigger kind, per §4.7's dispatch table.
func (l *Loop) updateChangesLocked(state any) int {
	pending := l.queue.drainChanges()
	for _, pc := range pending {
		ev := pc.ev
		if _, ok := ev.target.Resolve(); !ok {
			l.queue.Remove(ev)
			continue
		}
		switch ev.handler.TriggerType() {
		case Once, Dependency:
			next := ev.handler.Predict(ev.target, state, pc.t)
			if next == fixed.Min {
				continue
			}
			ev.time = next
			l.queue.Enqueue(ev)
		case DependencyImmediately, Trigger:
			ev.time = pc.t
			l.queue.Enqueue(ev)
		case Repeat:
			// Repeat events are never reactively rescheduled; they only
			// advance through their own post-execution Predict call.
		}
	}
	return len(pending)
}

// executeEventsLocked pops and invokes every event due at or before
// targetTime, returning how many it executed. Repeat events are
// re-predicted and re-enqueued immediately after invocation.
func (l *Loop) executeEventsLocked(targetTime fixed.Time, state any) int {
	executed := 0
	for {
		ev, ok := l.queue.TakeEvent(targetTime)
		if !ok {
			return executed
		}
		target, ok := ev.target.Resolve()
		_ = target
		if !ok {
			continue
		}

		l.activeEvent = ev
		ev.handler.Invoke(l, ev.target, state, ev.time, ev.params)
		l.activeEvent = nil
		executed++

		if ev.handler.TriggerType() == Repeat {
			next := ev.handler.Predict(ev.target, state, ev.time)
			if next != fixed.Min {
				ev.time = next
				l.queue.Reenqueue(ev)
			}
		}
	}
}

// ActiveEvent returns the event currently being invoked, if any. Handlers
// can use this to recognize their own callback re-entering the loop.
func (l *Loop) ActiveEvent() *Event { return l.activeEvent }
