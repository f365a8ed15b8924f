package event

import "github.com/haldane-rts/chronos/engine/fixed"

// TriggerType is one of the five handler trigger kinds.
type TriggerType uint8

const (
	// Dependency reschedules the event via Predict whenever a dependency
	// changes.
	Dependency TriggerType = iota
	// DependencyImmediately fires at the change time itself, skipping
	// re-prediction.
	DependencyImmediately
	// Trigger fires only when an entity explicitly calls Trigger(t).
	Trigger
	// Repeat reschedules itself via Predict from its own execution time
	// after every invocation, until Predict returns fixed.Min.
	Repeat
	// Once reschedules on dependency change like Dependency, but after its
	// first change notification is processed, further notifications are
	// ignored (the dependent is dropped).
	Once
)

// String renders the trigger kind for logs and diagnostics.
func (k TriggerType) String() string {
	switch k {
	case Dependency:
		return "dependency"
	case DependencyImmediately:
		return "dependency-immediately"
	case Trigger:
		return "trigger"
	case Repeat:
		return "repeat"
	case Once:
		return "once"
	default:
		return "unknown"
	}
}

// Handler is a named policy object: one of the five trigger kinds, plus
// three methods describing how events built from it behave. Handlers are
// shared and registered once by id, then reused across any number of
// Events.
type Handler interface {
	// ID uniquely identifies this handler within a Loop's registry.
	ID() uint64
	// TriggerType reports this handler's scheduling kind.
	TriggerType() TriggerType
	// Setup registers the event's dependencies, typically by calling
	// AddDependent on one or more EventEntity values reachable from state.
	// Calling AddDependent for a Trigger or Repeat handler's own event is a
	// programmer error (it panics) per the core's error-handling design.
	Setup(ev *Event, state any)
	// Predict computes the next simulation time this handler's event
	// should fire, given the entity's dependency history. Returning
	// fixed.Min cancels scheduling.
	Predict(target EntityRef, state any, at fixed.Time) fixed.Time
	// Invoke performs the handler's imperative effect.
	Invoke(loop *Loop, target EntityRef, state any, at fixed.Time, params Params)
}
