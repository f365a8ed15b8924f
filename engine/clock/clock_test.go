package clock

import (
	"testing"
	"time"
)

func TestUpdateTimeFirstCallIsNoOp(t *testing.T) {
	c := New(nil)
	now := time.Now()
	if got := c.UpdateTime(now); got != c.GetTime() {
		t.Fatalf("first UpdateTime should not advance simulation time, got %v", got)
	}
}

func TestUpdateTimeAdvancesOnlyWhileRunning(t *testing.T) {
	c := New(nil)
	start := time.Now()
	c.UpdateTime(start)

	c.UpdateTime(start.Add(10 * time.Millisecond))
	if c.GetTime() != 0 {
		t.Fatalf("expected no advance before Start(), got %v", c.GetTime())
	}

	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	before := c.GetTime()
	c.UpdateTime(start.Add(20 * time.Millisecond))
	if c.GetTime() == before {
		t.Fatalf("expected simulation time to advance once running")
	}
}

func TestUpdateTimeClampsLargeGaps(t *testing.T) {
	c := New(nil)
	start := time.Now()
	c.UpdateTime(start)
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	c.UpdateTime(start.Add(5 * time.Second))
	clamped := c.GetTime().Float()
	if clamped > DefaultMaxTickTime.Seconds()*1.01 {
		t.Fatalf("expected a 5s gap to be clamped to ~%v, got %v seconds", DefaultMaxTickTime, clamped)
	}
}

func TestTransitionsRejectInvalidFromState(t *testing.T) {
	c := New(nil)
	if err := c.Pause(); err == nil {
		t.Fatalf("expected Pause from Init to be rejected")
	}
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Start(); err == nil {
		t.Fatalf("expected a second Start from Running to be rejected")
	}
}

func TestSpeedScalesAdvancement(t *testing.T) {
	c := New(nil)
	start := time.Now()
	c.UpdateTime(start)
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	c.SetSpeed(2.0)
	c.UpdateTime(start.Add(10 * time.Millisecond))

	c2 := New(nil)
	c2.UpdateTime(start)
	if err := c2.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	c2.UpdateTime(start.Add(10 * time.Millisecond))

	if c.GetTime() <= c2.GetTime() {
		t.Fatalf("expected 2x speed to advance further than 1x: %v vs %v", c.GetTime(), c2.GetTime())
	}
}
