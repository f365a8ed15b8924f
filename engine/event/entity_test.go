package event

import (
	"testing"

	"github.com/haldane-rts/chronos/engine/fixed"
)

func TestEntityRefExpiresAfterRelease(t *testing.T) {
	loop := NewLoop(nil)
	e := NewEntity(loop, "a")
	ref := e.Ref()

	if _, ok := ref.Resolve(); !ok {
		t.Fatalf("expected live entity to resolve")
	}
	e.Release()
	if _, ok := ref.Resolve(); ok {
		t.Fatalf("expected released entity's ref to no longer resolve")
	}
}

func TestAddDependentPanicsForTriggerAndRepeatHandlers(t *testing.T) {
	loop := NewLoop(nil)
	e := NewEntity(loop, "a")
	var trace []string
	rep := &repeatHandler{id: 1, name: "R", start: fixed.Zero, period: secs(1), trace: &trace}
	loop.AddEventHandler(rep)
	ev, err := loop.CreateEvent(rep.ID(), e.Ref(), nil, fixed.Zero, nil)
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("expected AddDependent to panic for a Repeat-kind event")
		}
	}()
	e.AddDependent(ev)
}

func TestWeakDependentDroppedAfterEventBoxReleased(t *testing.T) {
	loop := NewLoop(nil)
	source := NewEntity(loop, "source")
	target := NewEntity(loop, "target")
	h := &onceHandler{id: 1, source: source}
	loop.AddEventHandler(h)

	ev, err := loop.CreateEvent(h.ID(), target.Ref(), nil, fixed.Zero, nil)
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	ev.box.release()

	// Changes must silently skip the now-expired weak dependent rather
	// than invoking through a dangling reference.
	source.Changes(secs(1))
	if len(h.fires) != 0 {
		t.Fatalf("fires = %v, want none once the event box was released", h.fires)
	}
}

func TestEntityChangesPropagatesToParentNotifier(t *testing.T) {
	loop := NewLoop(nil)
	e := NewEntity(loop, "child")
	var sawTime fixed.Time
	var called bool
	e.SetParentNotifier(func(t fixed.Time) {
		called = true
		sawTime = t
	})
	e.Changes(secs(7))
	if !called {
		t.Fatalf("expected parent notifier to be invoked")
	}
	if sawTime != secs(7) {
		t.Fatalf("parent notifier saw %v, want %v", sawTime, secs(7))
	}
}
