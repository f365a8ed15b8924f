package activity

import (
	"fmt"

	"github.com/haldane-rts/chronos/engine/event"
	"github.com/haldane-rts/chronos/engine/fixed"
)

// GateFunc chooses which of a gate node's outgoing edges (options) to take
// next, given the caller's state. It backs both XorGate (a conditional
// branch over two edges) and XorSwitchGate (a lookup-dict branch over any
// number of edges) — the spec treats them as distinct node kinds but the
// same synchronous "pick one now" contract serves both.
type GateFunc func(state any, options []string) (string, error)

// TaskFunc performs a task node's effect.
type TaskFunc func(state any) error

// GatePrimer registers one outgoing edge of an XorEventGate with the
// event loop: it must call loop.CreateEvent for a handler that will
// eventually call Walker.Resolve with this edge's destination node id, and
// return the created Event (or nil if Predict already cancelled it). Advance
// calls every registered primer once, then yields; the walker does not
// move again until Resolve is called.
type GatePrimer func(loop *event.Loop, target event.EntityRef, state any) (*event.Event, error)

// maxAdvanceSteps bounds Run the same way the settling loop this package
// sits alongside bounds its own convergence attempts: a misconfigured
// graph with a gate cycle should fail loudly rather than spin forever.
const maxAdvanceSteps = 1000

type eventGate struct {
	loop    *event.Loop
	target  event.EntityRef
	primers map[string]GatePrimer
	pending []*event.Event
}

// Walker steps through a Graph one node at a time, dispatching to
// registered task and gate callbacks. It models one entity's position in
// the graph: XorEventGate primers are created against the loop/target
// bound at RegisterEventGate time, matching the spec's "interpreter walks
// nodes on each entity's advance call".
type Walker struct {
	graph      *Graph
	tasks      map[string]TaskFunc
	gates      map[string]GateFunc
	eventGates map[string]*eventGate
	current    string
}

// NewWalker returns a Walker positioned at g's start node.
func NewWalker(g *Graph) *Walker {
	return &Walker{
		graph:      g,
		tasks:      make(map[string]TaskFunc),
		gates:      make(map[string]GateFunc),
		eventGates: make(map[string]*eventGate),
		current:    g.Start,
	}
}

// RegisterTask binds fn to the task_custom or task_system node with the
// given id.
func (w *Walker) RegisterTask(nodeID string, fn TaskFunc) {
	w.tasks[nodeID] = fn
}

// RegisterGate binds fn to the xor_gate or xor_switch_gate node with the
// given id.
func (w *Walker) RegisterGate(nodeID string, fn GateFunc) {
	w.gates[nodeID] = fn
}

// RegisterEventGate binds one primer per outgoing edge of the
// xor_event_gate node with the given id. loop and target are the event
// loop and entity the primers schedule against.
func (w *Walker) RegisterEventGate(nodeID string, loop *event.Loop, target event.EntityRef, primers map[string]GatePrimer) {
	w.eventGates[nodeID] = &eventGate{loop: loop, target: target, primers: primers}
}

// Current returns the id of the node the walker is currently positioned
// at.
func (w *Walker) Current() string { return w.current }

// Waiting reports whether the walker is parked at an XorEventGate with
// primers already fired, waiting for one of their events to call Resolve.
func (w *Walker) Waiting() bool {
	eg, ok := w.eventGates[w.current]
	return ok && eg.pending != nil
}

// Resolve is called by a primer's handler once its event fires: it
// cancels every sibling primer event still pending at nodeID (per spec
// §6, firing one XorEventGate option cancels the siblings waiting on
// alternative primers) and moves the walker to next.
func (w *Walker) Resolve(nodeID, next string, at fixed.Time) error {
	eg, ok := w.eventGates[nodeID]
	if !ok {
		return fmt.Errorf("activity: Resolve called for unregistered event gate %q", nodeID)
	}
	if w.current != nodeID {
		return fmt.Errorf("activity: Resolve(%q) called but walker is parked at %q", nodeID, w.current)
	}
	if !contains(w.graph.Nodes[nodeID].Next, next) {
		return fmt.Errorf("activity: event gate %q resolved to %q, not one of its own edges", nodeID, next)
	}
	for _, ev := range eg.pending {
		ev.Cancel(at)
	}
	eg.pending = nil
	w.current = next
	return nil
}

// Advance executes the current node once and moves the walker to the
// node(s) that follow, reporting true once it reaches an End node. An
// XorEventGate node that has already fired its primers and is waiting on
// Resolve returns (false, nil) without re-priming.
func (w *Walker) Advance(state any) (done bool, err error) {
	node, ok := w.graph.Nodes[w.current]
	if !ok {
		return false, fmt.Errorf("activity: unknown node %q", w.current)
	}

	switch node.Kind {
	case End:
		return true, nil
	case Start:
		w.current = node.Next[0]
		return false, nil
	case TaskCustom, TaskSystem:
		if fn, ok := w.tasks[node.ID]; ok {
			if err := fn(state); err != nil {
				return false, fmt.Errorf("activity: task %q: %w", node.ID, err)
			}
		}
		w.current = node.Next[0]
		return false, nil
	case XorGate, XorSwitchGate:
		fn, ok := w.gates[node.ID]
		if !ok {
			return false, fmt.Errorf("activity: no gate registered for %q", node.ID)
		}
		next, err := fn(state, node.Next)
		if err != nil {
			return false, fmt.Errorf("activity: gate %q: %w", node.ID, err)
		}
		if !contains(node.Next, next) {
			return false, fmt.Errorf("activity: gate %q chose %q, not one of its own edges", node.ID, next)
		}
		w.current = next
		return false, nil
	case XorEventGate:
		eg, ok := w.eventGates[node.ID]
		if !ok {
			return false, fmt.Errorf("activity: no event gate registered for %q", node.ID)
		}
		if eg.pending != nil {
			// Already primed; waiting for Resolve to be driven by a fired
			// event. Nothing to do until then.
			return false, nil
		}
		for _, next := range node.Next {
			primer, ok := eg.primers[next]
			if !ok {
				return false, fmt.Errorf("activity: event gate %q has no primer for edge %q", node.ID, next)
			}
			ev, err := primer(eg.loop, eg.target, state)
			if err != nil {
				return false, fmt.Errorf("activity: event gate %q primer %q: %w", node.ID, next, err)
			}
			if ev != nil {
				eg.pending = append(eg.pending, ev)
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("activity: unknown node kind %q at %q", node.Kind, node.ID)
	}
}

// Run advances repeatedly until the walker reaches an End node, parks at
// an XorEventGate waiting for an external event to call Resolve, or
// maxAdvanceSteps is exceeded.
func (w *Walker) Run(state any) error {
	for i := 0; i < maxAdvanceSteps; i++ {
		before := w.current
		done, err := w.Advance(state)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if w.current == before && w.Waiting() {
			return nil
		}
	}
	return fmt.Errorf("activity: graph did not reach an end node within %d steps, suspect a gate cycle at %q", maxAdvanceSteps, w.current)
}

func contains(xs []string, v string) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
