package curve

import (
	"testing"

	"github.com/haldane-rts/chronos/engine/event"
	"github.com/haldane-rts/chronos/engine/fixed"
)

func t_(seconds float64) fixed.Time { return fixed.FromFloat(seconds) }

func TestDiscreteStepsAtKeyframes(t *testing.T) {
	loop := event.NewLoop(nil)
	d := NewDiscrete(loop, "flag", S(0))

	d.SetInsert(t_(5), S(1))
	d.SetInsert(t_(10), S(2))

	if got := d.Get(t_(0)).V; got != 0 {
		t.Fatalf("Get(0) = %d, want 0", got)
	}
	if got := d.Get(t_(5)).V; got != 1 {
		t.Fatalf("Get(5) = %d, want 1", got)
	}
	if got := d.Get(t_(7)).V; got != 1 {
		t.Fatalf("Get(7) = %d, want 1 (still in the 5..10 step)", got)
	}
	if got := d.Get(t_(10)).V; got != 2 {
		t.Fatalf("Get(10) = %d, want 2", got)
	}
	if got := d.Get(t_(100)).V; got != 2 {
		t.Fatalf("Get(100) = %d, want 2 (holds at the last keyframe)", got)
	}
}

func TestContinuousInterpolatesLinearly(t *testing.T) {
	loop := event.NewLoop(nil)
	c := NewContinuous(loop, "height", S(0.0))

	c.SetInsert(t_(0), S(0.0))
	c.SetInsert(t_(20), S(20.0))

	if got := c.Get(t_(10)).V; got != 10 {
		t.Fatalf("Get(10) = %v, want 10 (midpoint of a 0->20 ramp over 0..20)", got)
	}
	if got := c.Get(t_(0)).V; got != 0 {
		t.Fatalf("Get(0) = %v, want 0", got)
	}
	if got := c.Get(t_(20)).V; got != 20 {
		t.Fatalf("Get(20) = %v, want 20", got)
	}
	if got := c.Get(t_(30)).V; got != 20 {
		t.Fatalf("Get(30) = %v, want 20 (holds flat past the last keyframe)", got)
	}
}

func TestContinuousCompressIsIdempotent(t *testing.T) {
	loop := event.NewLoop(nil)
	c := NewContinuous(loop, "ramp", S(0.0))
	c.SetInsert(t_(0), S(0.0))
	c.SetInsert(t_(10), S(10.0))
	c.SetInsert(t_(20), S(20.0))
	c.SetInsert(t_(30), S(30.0))

	before := c.Size()
	c.Compress()
	afterFirst := c.Size()
	if afterFirst >= before {
		t.Fatalf("Compress did not remove the collinear interior keyframe at t=10,20: size %d -> %d", before, afterFirst)
	}
	c.Compress()
	afterSecond := c.Size()
	if afterSecond != afterFirst {
		t.Fatalf("Compress was not idempotent: %d -> %d", afterFirst, afterSecond)
	}
	if got := c.Get(t_(15)).V; got != 15 {
		t.Fatalf("Get(15) after compress = %v, want 15 (shape must be preserved)", got)
	}
}

func TestSegmentedJumpsAtNewSegment(t *testing.T) {
	loop := event.NewLoop(nil)
	s := NewSegmented(loop, "mode", S(0.0))

	s.SetInsert(t_(0), S(0.0))
	s.SetInsert(t_(10), S(10.0))
	s.SetInsertJump(t_(10), S(10.0), S(100.0))
	s.SetInsert(t_(20), S(120.0))

	if got := s.Get(t_(10)).V; got != 100 {
		t.Fatalf("Get(10) = %v, want 100 (post-jump value wins at the instant)", got)
	}
	if got := s.Get(t_(9)).V; got != 9 {
		t.Fatalf("Get(9) = %v, want 9 (still interpolating the pre-jump 0->10 ramp)", got)
	}
	if got := s.Get(t_(15)).V; got != 110 {
		t.Fatalf("Get(15) = %v, want 110 (midpoint of the post-jump 100->120 segment)", got)
	}
}

func TestDiscreteModWrapsTime(t *testing.T) {
	loop := event.NewLoop(nil)
	m := NewDiscreteMod(loop, "phase", S(0), t_(10))
	m.SetInsertMod(t_(2), S(1))
	m.SetInsertMod(t_(6), S(2))

	if got := m.GetMod(t_(25), fixed.Zero).V; got != 1 {
		t.Fatalf("GetMod(25) = %d, want 1 (25 mod 10 == 5, still in the 2..6 step)", got)
	}
	if got := m.GetMod(t_(27), fixed.Zero).V; got != 2 {
		t.Fatalf("GetMod(27) = %d, want 2 (27 mod 10 == 7)", got)
	}
	if got := m.GetMod(t_(29), t_(2)).V; got != 2 {
		t.Fatalf("GetMod(29, start=2) = %d, want 2 ((29-2) mod 10 == 7, still in the 6.. step)", got)
	}
}

func TestDiscreteEraseRemovesKeyframeGroup(t *testing.T) {
	loop := event.NewLoop(nil)
	d := NewDiscrete(loop, "v", S(0))
	d.SetInsert(t_(5), S(1))
	sizeBefore := d.Size()
	d.Erase(t_(5))
	if d.Size() != sizeBefore-1 {
		t.Fatalf("size after Erase = %d, want %d", d.Size(), sizeBefore-1)
	}
	if got := d.Get(t_(5)).V; got != 0 {
		t.Fatalf("Get(5) after erase = %d, want default 0", got)
	}
}

func TestDiscreteSyncMatchesSourceAfterStart(t *testing.T) {
	loop := event.NewLoop(nil)
	a := NewDiscrete(loop, "a", S(0))
	b := NewDiscrete(loop, "b", S(0))

	a.SetInsert(t_(1), S(10))
	a.SetInsert(t_(10), S(20))
	b.SetInsert(t_(2), S(99))

	b.Sync(a, t_(5))

	if got := b.Get(t_(3)).V; got != 99 {
		t.Fatalf("Get(3) after sync at start=5 = %d, want untouched 99", got)
	}
	if got, want := b.Get(t_(5)).V, a.Get(t_(5)).V; got != want {
		t.Fatalf("Get(5) after sync = %d, want %d (a's value at the sync boundary itself)", got, want)
	}
	if got, want := b.Get(t_(7)).V, a.Get(t_(7)).V; got != want {
		t.Fatalf("Get(7) after sync = %d, want %d (a holds %d from t=1 through t=10, "+
			"so b must too, not its own stale pre-sync keyframe)", got, want, want)
	}
	if got := b.Get(t_(10)).V; got != 20 {
		t.Fatalf("Get(10) after sync = %d, want synced 20", got)
	}
}

func TestContinuousSyncMatchesSourceAfterStart(t *testing.T) {
	loop := event.NewLoop(nil)
	c1 := NewContinuous(loop, "c1", S(0.0))
	c2 := NewContinuous(loop, "c2", S(0.0))

	c1.SetInsert(t_(0), S(0.0))
	c1.SetInsert(t_(16), S(2.0))
	c2.SetInsert(t_(0), S(5.0))
	c2.SetInsert(t_(16), S(0.0))

	c2.Sync(c1, t_(8))

	for _, sec := range []float64{8, 12, 16} {
		got, want := c2.Get(t_(sec)).V, c1.Get(t_(sec)).V
		if got != want {
			t.Fatalf("c2.Get(%v) after sync = %v, want %v (matching c1 for every t >= start)", sec, got, want)
		}
	}
	// t < start is unaffected by the copied keyframes themselves, but the
	// boundary keyframe sync inserts at t=8 (per openage's BaseCurve::sync)
	// becomes this segment's new right endpoint, so the interpolated value
	// here shifts from the pre-sync curve's own (0,5)->(16,0) shape to
	// (0,5)->(8,1).
	if got := c2.Get(t_(4)).V; got != 3.0 {
		t.Fatalf("c2.Get(4) after sync at start=8 = %v, want 3.0", got)
	}
}
