package curve

import (
	"github.com/haldane-rts/chronos/engine/event"
	"github.com/haldane-rts/chronos/engine/fixed"
)

// DiscreteMod is a Discrete curve whose time axis wraps modulo a fixed
// interval, useful for cyclic schedules (day/night, patrol loops) that
// should not need an unbounded number of keyframes to repeat forever.
type DiscreteMod[T any] struct {
	*Discrete[T]
	interval fixed.Time
}

// NewDiscreteMod returns a DiscreteMod curve with the given cycle interval.
// The *Mod methods fold their time argument into [0, interval) before
// touching the underlying Discrete curve; the embedded Discrete methods
// (Get, SetInsert, ...) use their time argument unchanged.
func NewDiscreteMod[T any](loop *event.Loop, name string, defaultValue T, interval fixed.Time) *DiscreteMod[T] {
	return &DiscreteMod[T]{
		Discrete: NewDiscrete(loop, name, defaultValue),
		interval: interval,
	}
}

// Interval returns the curve's cycle length.
func (d *DiscreteMod[T]) Interval() fixed.Time { return d.interval }

// GetMod returns the curve's value at (t - start) wrapped into the cycle
// interval. If the interval is zero, it returns Get(fixed.Zero) regardless
// of t or start.
func (d *DiscreteMod[T]) GetMod(t, start fixed.Time) T {
	return d.Discrete.Get(fixed.Mod(t-start, d.interval))
}

// SetInsertMod writes v at t mod interval, as Discrete.SetInsert.
func (d *DiscreteMod[T]) SetInsertMod(t fixed.Time, v T) {
	d.Discrete.SetInsert(fixed.Mod(t, d.interval), v)
}

// SetReplaceMod writes v at t mod interval, as Discrete.SetReplace.
func (d *DiscreteMod[T]) SetReplaceMod(t fixed.Time, v T) {
	d.Discrete.SetReplace(fixed.Mod(t, d.interval), v)
}

// EraseMod removes the keyframe at t mod interval, as Discrete.Erase.
func (d *DiscreteMod[T]) EraseMod(t fixed.Time) {
	d.Discrete.Erase(fixed.Mod(t, d.interval))
}
