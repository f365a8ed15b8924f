package activity

import (
	"testing"

	"github.com/haldane-rts/chronos/engine/event"
	"github.com/haldane-rts/chronos/engine/fixed"
)

const eventGateGraph = `
start = "begin"

[[nodes]]
id = "begin"
kind = "start"
next = ["wait"]

[[nodes]]
id = "wait"
kind = "xor_event_gate"
next = ["timeout", "interrupted"]

[[nodes]]
id = "timeout"
kind = "end"

[[nodes]]
id = "interrupted"
kind = "end"
`

// gateHandler is a minimal event.Handler whose Invoke re-enters the
// walker with this edge's destination node id, the contract §6 describes
// between a fired XorEventGate primer and the activity manager.
type gateHandler struct {
	id       uint64
	nodeID   string
	edge     string
	walker   *Walker
	invoked  *int
}

func (h *gateHandler) ID() uint64                     { return h.id }
func (h *gateHandler) TriggerType() event.TriggerType { return event.DependencyImmediately }
func (h *gateHandler) Setup(ev *event.Event, state any) {
	if e, ok := ev.Target().Resolve(); ok {
		e.AddDependent(ev)
	}
}
func (h *gateHandler) Predict(target event.EntityRef, state any, at fixed.Time) fixed.Time {
	return at
}
func (h *gateHandler) Invoke(loop *event.Loop, target event.EntityRef, state any, at fixed.Time, params event.Params) {
	*h.invoked++
	h.walker.Resolve(h.nodeID, h.edge, at)
}

func TestWalkerEventGateFiresOnePrimerAndCancelsSiblings(t *testing.T) {
	g, err := Load([]byte(eventGateGraph))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	loop := event.NewLoop(nil)
	timer := event.NewEntity(loop, "timer")

	invoked := 0
	w := NewWalker(g)
	var created []*event.Event
	w.RegisterEventGate("wait", loop, timer.Ref(), map[string]GatePrimer{
		"timeout": func(loop *event.Loop, target event.EntityRef, state any) (*event.Event, error) {
			h := &gateHandler{id: 1, nodeID: "wait", edge: "timeout", walker: w, invoked: &invoked}
			loop.AddEventHandler(h)
			ev, err := loop.CreateEvent(h.ID(), target, state, fixed.Zero, nil)
			created = append(created, ev)
			return ev, err
		},
		"interrupted": func(loop *event.Loop, target event.EntityRef, state any) (*event.Event, error) {
			h := &gateHandler{id: 2, nodeID: "wait", edge: "interrupted", walker: w, invoked: &invoked}
			loop.AddEventHandler(h)
			ev, err := loop.CreateEvent(h.ID(), target, state, fixed.Zero, nil)
			created = append(created, ev)
			return ev, err
		},
	})

	// begin -> wait (primes both primers, yields).
	if _, err := w.Advance(nil); err != nil {
		t.Fatalf("Advance begin: %v", err)
	}
	if _, err := w.Advance(nil); err != nil {
		t.Fatalf("Advance wait (prime): %v", err)
	}
	if w.Current() != "wait" || !w.Waiting() {
		t.Fatalf("expected walker parked at wait, got %q waiting=%v", w.Current(), w.Waiting())
	}
	if len(created) != 2 {
		t.Fatalf("expected both primers to create an event, got %d", len(created))
	}

	// The timer entity changes, which enqueues a change for every
	// DependencyImmediately dependent — here, both primer events, since
	// both were registered via AddDependent from Setup.
	timer.Changes(fixed.Zero)
	if err := loop.ReachTime(fixed.Zero, nil); err != nil {
		t.Fatalf("ReachTime: %v", err)
	}

	if w.Current() != "timeout" && w.Current() != "interrupted" {
		t.Fatalf("expected walker to resolve to one of its edges, got %q", w.Current())
	}
	// Only one of the two sibling primers should have actually invoked:
	// whichever handler ran first (order among same-time Trigger events is
	// unspecified) called Resolve, which cancels the other's event before
	// the loop ever calls its Invoke.
	if invoked != 1 {
		t.Fatalf("expected exactly one primer handler to invoke, got %d", invoked)
	}
	// Both primer events' targets are now expired: Resolve cancels every
	// pending event at the gate, including the one that just fired.
	for _, ev := range created {
		if _, ok := ev.Target().Resolve(); ok {
			t.Fatalf("expected every pending primer event to be cancelled after Resolve")
		}
	}
}

const sampleGraph = `
start = "begin"

[[nodes]]
id = "begin"
kind = "start"
next = ["greet"]

[[nodes]]
id = "greet"
kind = "task_custom"
next = ["branch"]

[[nodes]]
id = "branch"
kind = "xor_switch_gate"
next = ["win", "lose"]

[[nodes]]
id = "win"
kind = "task_system"
next = ["done"]

[[nodes]]
id = "lose"
kind = "task_system"
next = ["done"]

[[nodes]]
id = "done"
kind = "end"
`

func TestLoadAndValidate(t *testing.T) {
	g, err := Load([]byte(sampleGraph))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if g.Start != "begin" {
		t.Fatalf("Start = %q, want begin", g.Start)
	}
}

func TestWalkerRunsToCompletion(t *testing.T) {
	g, err := Load([]byte(sampleGraph))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	var greeted bool
	var outcome string

	w := NewWalker(g)
	w.RegisterTask("greet", func(state any) error {
		greeted = true
		return nil
	})
	w.RegisterGate("branch", func(state any, options []string) (string, error) {
		return options[0], nil // always "win"
	})
	w.RegisterTask("win", func(state any) error {
		outcome = "win"
		return nil
	})
	w.RegisterTask("lose", func(state any) error {
		outcome = "lose"
		return nil
	})

	if err := w.Run(nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !greeted {
		t.Fatalf("expected greet task to run")
	}
	if outcome != "win" {
		t.Fatalf("outcome = %q, want win", outcome)
	}
	if w.Current() != "done" {
		t.Fatalf("Current() = %q, want done", w.Current())
	}
}

func TestWalkerRejectsGateChoiceOutsideItsOwnEdges(t *testing.T) {
	g, err := Load([]byte(sampleGraph))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	w := NewWalker(g)
	w.RegisterGate("branch", func(state any, options []string) (string, error) {
		return "done", nil // not one of branch's own edges
	})

	// begin -> greet -> branch (no error yet, reaches the gate)
	for i := 0; i < 2; i++ {
		if _, err := w.Advance(nil); err != nil {
			t.Fatalf("Advance step %d: %v", i, err)
		}
	}
	if _, err := w.Advance(nil); err == nil {
		t.Fatalf("expected Advance to reject a gate choosing an edge outside its own Next list")
	}
}

func TestLoadRejectsMissingStart(t *testing.T) {
	if _, err := Load([]byte(`start = ""`)); err == nil {
		t.Fatalf("expected Load to reject a graph with no start node")
	}
}
